package model

import "time"

// WebhookOutcome is the processing result recorded for a billing webhook event.
type WebhookOutcome string

const (
	WebhookOutcomeSuccess WebhookOutcome = "success"
	WebhookOutcomeIgnored WebhookOutcome = "ignored"
	WebhookOutcomeFailed  WebhookOutcome = "failed"
)

// WebhookEvent is an append-only audit record of a received billing event.
// Only signature-valid, parseable payloads are logged; the log is never
// mutated or deleted by the backend.
type WebhookEvent struct {
	ID        int64          `db:"id" json:"id"`
	EventType string         `db:"event_type" json:"event_type"`
	Payload   []byte         `db:"payload" json:"payload"`
	Outcome   WebhookOutcome `db:"outcome" json:"outcome"`
	Error     string         `db:"error" json:"error,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
