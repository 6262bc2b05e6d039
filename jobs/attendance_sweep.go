package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/lintaskurir/lintaskurir/internal/attendance"
	"github.com/lintaskurir/lintaskurir/internal/observability"
)

// AbsentSweepDeps collects what the nightly sweep needs.
type AbsentSweepDeps struct {
	Attendance *attendance.Service
	Directory  attendance.KurirDirectory
	Metrics    *observability.Metrics
	Logger     *slog.Logger
}

// NewAbsentSweepHandler returns the Asynq handler for the nightly sweep.
// Re-running for the same date is harmless: existing rows win.
func NewAbsentSweepHandler(deps AbsentSweepDeps) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload AbsentSweepPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		date, err := payload.SweepDate(time.Now())
		if err != nil {
			deps.Logger.Error("absent sweep: bad date", slog.String("date", payload.Date))
			return asynq.SkipRetry
		}
		inserted, err := deps.Attendance.SweepAbsent(ctx, deps.Directory, date)
		deps.Metrics.JobObserved("attendance_absent_sweep", err)
		if err != nil {
			deps.Logger.Error("absent sweep failed",
				slog.String("date", date.Format("2006-01-02")), slog.Any("error", err))
			return err
		}
		deps.Logger.Info("absent sweep done",
			slog.String("date", date.Format("2006-01-02")), slog.Int64("marked_absent", inserted))
		return nil
	}
}
