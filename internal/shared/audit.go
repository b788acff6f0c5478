package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Audit actions recognised by the back-office timeline.
const (
	AuditActionCreate  = "CREATE"
	AuditActionUpdate  = "UPDATE"
	AuditActionDelete  = "DELETE"
	AuditActionApprove = "APPROVE"
)

// AuditLog represents a record stored in audit_logs. The ledger core never
// writes these itself; callers append them after successful operations.
type AuditLog struct {
	UserID      string         `json:"user_id"`
	UserName    string         `json:"user_name"`
	Action      string         `json:"action"`
	TargetType  string         `json:"target_type"`
	TargetID    string         `json:"target_id"`
	Description string         `json:"description"`
	Meta        map[string]any `json:"meta,omitempty"`
	At          time.Time      `json:"at"`
}

// AuditLogger writes records into audit_logs.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.TargetType == "" || log.TargetID == "" {
		return errors.New("audit log requires action/target_type/target_id")
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO audit_logs (user_id, user_name, action, target_type, target_id, description, meta, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()))`,
		log.UserID, log.UserName, log.Action, log.TargetType, log.TargetID, log.Description, metaJSON, log.At)
	return err
}
