package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/voyager-erp/voyager-erp/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditRecord appends one audit trail entry.
	TaskAuditRecord = "audit:record"
	// TaskLedgerIntegrity runs the periodic ledger integrity scan.
	TaskLedgerIntegrity = "ledger:integrity"
)

// NewAuditRecordTask constructs an audit append task.
func NewAuditRecordTask(log shared.AuditLog) (*asynq.Task, error) {
	data, err := json.Marshal(log)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRecord, data), nil
}

// NewLedgerIntegrityTask constructs an integrity scan task.
func NewLedgerIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerIntegrity, nil)
}

// AuditWriter persists audit entries; implemented by shared.AuditLogger.
type AuditWriter interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// NewAuditRecordHandler returns the asynq handler writing audit entries.
func NewAuditRecordHandler(writer AuditWriter, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var log shared.AuditLog
		if err := json.Unmarshal(t.Payload(), &log); err != nil {
			return asynq.SkipRetry
		}
		if log.At.IsZero() {
			log.At = time.Now().UTC()
		}
		if err := writer.Record(ctx, log); err != nil {
			if logger != nil {
				logger.Error("write audit entry", slog.Any("error", err))
			}
			return err
		}
		return nil
	}
}
