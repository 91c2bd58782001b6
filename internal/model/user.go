package model

import "time"

// User represents a user profile with its quota and tier state. It is the
// single source of truth for tier and quota and is written by three
// independent actors: credit increments on job completion, tier changes from
// billing webhooks, and lazy monthly resets on quota reads.
type User struct {
	UserID             string    `db:"user_id" json:"user_id"`
	Email              string    `db:"email" json:"email"`
	Tier               Tier      `db:"tier" json:"tier"`
	CreditsUsed        int       `db:"credits_used" json:"credits_used"`
	MaxCredits         int       `db:"max_credits" json:"max_credits"`
	MaxDurationSeconds int       `db:"max_duration_seconds" json:"max_duration_seconds"`
	Features           Features  `db:"features" json:"features"`
	CustomerID         *string   `db:"customer_id" json:"customer_id,omitempty"`
	ResetDate          time.Time `db:"reset_date" json:"reset_date"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// QuotaInfo is the quota snapshot returned to clients.
type QuotaInfo struct {
	CreditsUsed int       `json:"credits_used"`
	MaxCredits  int       `json:"max_credits"`
	Remaining   int       `json:"remaining"`
	Tier        Tier      `json:"tier"`
	ResetDate   time.Time `json:"reset_date"`
}

// NextResetDate returns the first instant of the calendar month following now,
// in UTC. Billing periods end at this boundary exclusive.
func NextResetDate(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}
