package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Every fires at a fixed period measured from the previous firing.
// Unlike cron.Every it keeps sub-second precision.
type Every time.Duration

// Next implements cron.Schedule.
func (e Every) Next(t time.Time) time.Time { return t.Add(time.Duration(e)) }

// ParseSchedule builds the firing schedule. A non-empty cron expression
// (standard five fields or a descriptor such as "@hourly") wins over interval.
func ParseSchedule(interval time.Duration, expr string) (cron.Schedule, error) {
	if expr = strings.TrimSpace(expr); expr != "" {
		sched, err := cron.ParseStandard(expr)
		if err != nil {
			return nil, fmt.Errorf("parse cron %q: %w", expr, err)
		}
		return sched, nil
	}
	if interval <= 0 {
		return nil, errors.New("interval must be positive")
	}
	return Every(interval), nil
}
