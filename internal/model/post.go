package model

import "time"

// PostRecord is the immutable record of a thread published to X from a
// completed job. Created only after a successful publish.
type PostRecord struct {
	PostID       string    `db:"post_id" json:"post_id"`
	UserID       string    `db:"user_id" json:"user_id"`
	JobID        string    `db:"job_id" json:"job_id"`
	Format       string    `db:"format" json:"format"`
	VariantIndex int       `db:"variant_index" json:"variant_index"`
	TweetIDs     []string  `db:"tweet_ids" json:"tweet_ids"`
	ThreadURL    string    `db:"thread_url" json:"thread_url"`
	TweetCount   int       `db:"tweet_count" json:"tweet_count"`
	PostedAt     time.Time `db:"posted_at" json:"posted_at"`
}
