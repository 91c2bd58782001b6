package repository

import (
	"context"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// WebhookRepository appends billing webhook events to the audit log.
type WebhookRepository interface {
	LogEvent(ctx context.Context, e *model.WebhookEvent) error
}

type webhookRepo struct {
	pool *pgxpool.Pool
}

// NewWebhookRepo creates a new WebhookRepository.
func NewWebhookRepo(pool *pgxpool.Pool) WebhookRepository {
	return &webhookRepo{pool: pool}
}

func (r *webhookRepo) LogEvent(ctx context.Context, e *model.WebhookEvent) error {
	const q = `
        INSERT INTO webhook_events (event_type, payload, outcome, error)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `
	err := r.pool.QueryRow(ctx, q, e.EventType, e.Payload, e.Outcome, e.Error).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("log webhook event %s: %w", e.EventType, err)
	}
	return nil
}
