package job

import (
	"errors"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule parses a five field cron expression or a descriptor such as
// "@hourly" or "@every 15m".
func ParseSchedule(expr string) (river.PeriodicSchedule, error) {
	s, err := cronParser.Parse(expr)
	if err != nil {
		return nil, errors.Join(ErrInvalidSchedule, fmt.Errorf("%q: %w", expr, err))
	}
	return cronSchedule{s}, nil
}

type cronSchedule struct {
	cron.Schedule
}

func (s cronSchedule) Next(current time.Time) time.Time {
	return s.Schedule.Next(current)
}
