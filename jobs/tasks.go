// Package jobs owns the background queue: task definitions, the Asynq
// worker and the cron schedule that feeds it.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAttendanceAbsentSweep marks couriers without a record as absent.
	TaskAttendanceAbsentSweep = "attendance:absent_sweep"
)

// AbsentSweepPayload selects the work date to sweep. An empty date means
// the day the task runs.
type AbsentSweepPayload struct {
	Date string `json:"date,omitempty"`
}

// NewAbsentSweepTask constructs the sweep task for one work date.
func NewAbsentSweepTask(payload AbsentSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAttendanceAbsentSweep, data), nil
}

// SweepDate resolves the payload date, falling back to today UTC. At the
// default 17:00 UTC schedule that is the western-Indonesia work day that
// just ended, matching the attendance service's work-date convention.
func (p AbsentSweepPayload) SweepDate(now time.Time) (time.Time, error) {
	if p.Date == "" {
		return now.UTC().Truncate(24 * time.Hour), nil
	}
	return time.Parse("2006-01-02", p.Date)
}
