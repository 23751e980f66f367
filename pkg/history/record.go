package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrymomot/postmaster/pkg/mailer"
)

// summary holds the indexed columns pulled out of a record.
type summary struct {
	MID      string
	Template string
	Code     string
	Owner    string
	Orbit    string
	Status   int
	When     time.Time
}

func summarize(rec mailer.HistoryRecord) summary {
	s := summary{
		MID:      str(rec["mid"]),
		Template: str(rec["template"]),
		Code:     str(rec["code"]),
		Owner:    str(rec["owner"]),
		Orbit:    str(rec["orbit"]),
	}
	// Records replayed from a queue arrive JSON-decoded.
	switch n := rec["status"].(type) {
	case int:
		s.Status = n
	case float64:
		s.Status = int(n)
	}
	switch t := rec["when"].(type) {
	case time.Time:
		s.When = t
	case string:
		s.When, _ = time.Parse(time.RFC3339Nano, t)
	}
	if s.When.IsZero() {
		s.When = time.Now().UTC()
	}
	return s
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func encode(rec mailer.HistoryRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("history: encode record: %w", err)
	}
	return data, nil
}
