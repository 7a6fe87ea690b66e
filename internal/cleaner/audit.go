package cleaner

import (
	"context"

	"go.uber.org/zap"
)

// Audit kinds stored with each generated playlist record.
const (
	AuditCleaner     = "cleaner"
	AuditTimeMachine = "time_machine"
)

// Recorder stores an audit entry for a completed bulk action.
type Recorder interface {
	Record(ctx context.Context, userID, kind string) error
}

// LogRecorder writes audit entries to the log only.
// It is used when no database is configured.
type LogRecorder struct {
	Log *zap.Logger
}

// Record logs the entry.
func (r LogRecorder) Record(_ context.Context, userID, kind string) error {
	if r.Log != nil {
		r.Log.Info("generated playlist", zap.String("user_id", userID), zap.String("type", kind))
	}
	return nil
}

// RecordAudit stores an audit entry. Failures are logged, never returned:
// the action it describes has already happened.
func RecordAudit(ctx context.Context, rec Recorder, log *zap.Logger, userID, kind string) {
	if rec == nil {
		return
	}
	if err := rec.Record(ctx, userID, kind); err != nil {
		log.Warn("recording audit entry failed",
			zap.String("user_id", userID), zap.String("type", kind), zap.Error(err))
	}
}
