package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/postmaster/pkg/mailer"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	require.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	require.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	require.Equal(t, slog.LevelError, ParseLevel(" error "))
	require.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestNewWithWriter_Level(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter(&buf, Config{Level: "warn"})

	log.Info("hidden")
	require.Zero(t, buf.Len())

	log.Warn("shown")
	require.Equal(t, "shown", decode(t, &buf)["msg"])
}

func TestNewWithWriter_Text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewWithWriter(&buf, Config{Format: "text"}).Info("hello")

	require.Contains(t, buf.String(), "msg=hello")
}

func TestMailExtractors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter(&buf, Config{}, MailExtractors()...)

	var ctx context.Context
	handler := middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ctx = r.Context()
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	hook := mailer.RenderHookFunc(func(hctx context.Context, _ mailer.RenderRequest) (*mailer.RenderResult, error) {
		log.InfoContext(hctx, "rendering")
		return nil, nil
	})
	m := mailer.New(mailer.SenderFunc(func(context.Context, *mailer.Email) (any, error) { return nil, nil }),
		mailer.Config{Parts: []string{mailer.PartHTML}},
		mailer.WithRenderHook(hook),
		mailer.WithIDGenerator(func() string { return "mid-7" }),
	)

	_, err := m.Send(ctx, mailer.SendRequest{Code: "welcome", Owner: "acme", To: mailer.Addresses{"a@example.com"}})
	require.NoError(t, err)

	line := decode(t, &buf)
	require.Equal(t, "mid-7", line["mid"])
	require.Equal(t, "welcome~acme", line["template"])
	require.NotEmpty(t, line["request_id"])
}

func TestExtractors_EmptyContext(t *testing.T) {
	t.Parallel()

	for _, ex := range MailExtractors() {
		_, ok := ex(context.Background())
		require.False(t, ok)
	}
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

func TestMultiHandler_ContinuesAfterFailure(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := newMultiHandler(failingHandler{slog.NewJSONHandler(&buf, nil)}, slog.NewJSONHandler(&buf, nil))

	err := slog.New(h).Handler().Handle(context.Background(), slog.NewRecord(time.Time{}, slog.LevelInfo, "x", 0))
	require.Error(t, err)
	require.Contains(t, buf.String(), `"msg":"x"`)
}

func TestNewWithSentry_NoDSN(t *testing.T) {
	t.Parallel()

	log, flush := NewWithSentry(Config{}, SentryConfig{})
	require.NotNil(t, log)
	flush()
}
