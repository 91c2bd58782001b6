package model

import "time"

// JobStatus is the processing state of a job.
//
// Transitions: processing → transcribing → generating → completed, with any
// non-terminal state able to move to failed. completed and failed are
// terminal; the repository refuses writes to terminal jobs.
type JobStatus string

const (
	JobStatusProcessing   JobStatus = "processing"
	JobStatusTranscribing JobStatus = "transcribing"
	JobStatusGenerating   JobStatus = "generating"
	JobStatusCompleted    JobStatus = "completed"
	JobStatusFailed       JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// JobType distinguishes uploaded media from linked media.
type JobType string

const (
	JobTypeUpload JobType = "upload"
	JobTypeURL    JobType = "url"
)

// PostsByFormat maps a format name (one_liner, hot_take, paragraph,
// mini_story, insight, list_post) to its ordered post variants. For
// single-text formats each variant is one element; thread formats keep the
// thread order within the inner slice.
type PostsByFormat map[string][]string

// Job is one asynchronous unit of work converting a media source into
// formatted post variants.
type Job struct {
	JobID          string        `db:"job_id" json:"job_id"`
	UserID         string        `db:"user_id" json:"user_id"`
	Status         JobStatus     `db:"status" json:"status"`
	Progress       int           `db:"progress" json:"progress"`
	Type           JobType       `db:"type" json:"type"`
	FileURL        string        `db:"file_url" json:"file_url,omitempty"`
	ContentURL     string        `db:"content_url" json:"content_url,omitempty"`
	AIInstructions string        `db:"ai_instructions" json:"ai_instructions,omitempty"`
	Duration       *float64      `db:"duration" json:"duration,omitempty"`
	Posts          PostsByFormat `db:"posts" json:"posts,omitempty"`
	Error          string        `db:"error" json:"error,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	CompletedAt    *time.Time    `db:"completed_at" json:"completed_at,omitempty"`
}

// SourceURL returns the media reference the pipeline should start from.
func (j *Job) SourceURL() string {
	if j.Type == JobTypeUpload {
		return j.FileURL
	}
	return j.ContentURL
}
