package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/voyager-erp/voyager-erp/internal/shared"
)

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
	logger *slog.Logger
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt, logger *slog.Logger) *Client {
	return &Client{client: asynq.NewClient(redisOpts), logger: logger}
}

// RecordAsync enqueues an audit entry fire-and-forget: every flow that uses
// the ledger core owes an audit record, but a queue outage must not fail the
// business operation.
func (c *Client) RecordAsync(ctx context.Context, log shared.AuditLog) {
	if c == nil || c.client == nil {
		return
	}
	task, err := NewAuditRecordTask(log)
	if err != nil {
		c.warn("marshal audit task", err)
		return
	}
	if _, err := c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault)); err != nil {
		c.warn("enqueue audit task", err)
	}
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) warn(msg string, err error) {
	if c.logger != nil {
		c.logger.Warn(msg, slog.Any("error", err))
	}
}
