package job

import (
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"github.com/robfig/cron/v3"
)

type cronSchedule struct {
	schedule cron.Schedule
}

func (c cronSchedule) Next(t time.Time) time.Time {
	return c.schedule.Next(t)
}

// parseSchedule accepts standard five-field cron expressions and
// descriptors such as @daily.
func parseSchedule(expr string) (river.PeriodicSchedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	s, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, expr, err)
	}
	return cronSchedule{schedule: s}, nil
}
