package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// JobRepository persists jobs and enforces terminal-state immutability at the
// query level: MarkCompleted and MarkFailed only touch non-terminal rows, so
// the first terminal write wins and retries are harmless.
type JobRepository interface {
	CreateJob(ctx context.Context, j *model.Job) error
	UpdateProgress(ctx context.Context, jobID string, progress int, status model.JobStatus) error
	// MarkCompleted reports whether the job was actually transitioned; a
	// job already in a terminal state is left untouched.
	MarkCompleted(ctx context.Context, jobID string, posts model.PostsByFormat, duration *float64) (bool, error)
	MarkFailed(ctx context.Context, jobID, message string) error
	GetJobByID(ctx context.Context, jobID string) (*model.Job, error)
	GetJobsByUserID(ctx context.Context, userID string, limit int) ([]model.Job, error)
}

type jobRepo struct {
	pool *pgxpool.Pool
}

// NewJobRepo creates a new JobRepository.
func NewJobRepo(pool *pgxpool.Pool) JobRepository {
	return &jobRepo{pool: pool}
}

const jobColumns = `job_id, user_id, status, progress, type, file_url, content_url, ai_instructions, duration, posts, error, created_at, completed_at`

func scanJob(row pgx.Row) (*model.Job, error) {
	var j model.Job
	var rawPosts []byte
	err := row.Scan(
		&j.JobID,
		&j.UserID,
		&j.Status,
		&j.Progress,
		&j.Type,
		&j.FileURL,
		&j.ContentURL,
		&j.AIInstructions,
		&j.Duration,
		&rawPosts,
		&j.Error,
		&j.CreatedAt,
		&j.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if rawPosts != nil {
		if err := json.Unmarshal(rawPosts, &j.Posts); err != nil {
			return nil, fmt.Errorf("unmarshal posts for job %s: %w", j.JobID, err)
		}
	}
	return &j, nil
}

func (r *jobRepo) CreateJob(ctx context.Context, j *model.Job) error {
	const q = `
        INSERT INTO jobs (job_id, user_id, status, progress, type, file_url, content_url, ai_instructions)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING created_at
    `
	err := r.pool.QueryRow(ctx, q,
		j.JobID, j.UserID, j.Status, j.Progress, j.Type, j.FileURL, j.ContentURL, j.AIInstructions,
	).Scan(&j.CreatedAt)
	if err != nil {
		return fmt.Errorf("create job %s: %w", j.JobID, err)
	}
	return nil
}

func (r *jobRepo) UpdateProgress(ctx context.Context, jobID string, progress int, status model.JobStatus) error {
	const q = `
        UPDATE jobs SET progress = $2, status = $3
        WHERE job_id = $1 AND status NOT IN ('completed', 'failed')
    `
	if _, err := r.pool.Exec(ctx, q, jobID, progress, status); err != nil {
		return fmt.Errorf("update progress for job %s: %w", jobID, err)
	}
	return nil
}

func (r *jobRepo) MarkCompleted(ctx context.Context, jobID string, posts model.PostsByFormat, duration *float64) (bool, error) {
	raw, err := json.Marshal(posts)
	if err != nil {
		return false, fmt.Errorf("marshal posts for job %s: %w", jobID, err)
	}
	const q = `
        UPDATE jobs SET status = 'completed', progress = 100, posts = $2, duration = $3, completed_at = NOW()
        WHERE job_id = $1 AND status NOT IN ('completed', 'failed')
    `
	tag, err := r.pool.Exec(ctx, q, jobID, raw, duration)
	if err != nil {
		return false, fmt.Errorf("complete job %s: %w", jobID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *jobRepo) MarkFailed(ctx context.Context, jobID, message string) error {
	const q = `
        UPDATE jobs SET status = 'failed', error = $2, completed_at = NOW()
        WHERE job_id = $1 AND status NOT IN ('completed', 'failed')
    `
	if _, err := r.pool.Exec(ctx, q, jobID, message); err != nil {
		return fmt.Errorf("fail job %s: %w", jobID, err)
	}
	return nil
}

func (r *jobRepo) GetJobByID(ctx context.Context, jobID string) (*model.Job, error) {
	q := fmt.Sprintf(`SELECT %s FROM jobs WHERE job_id = $1`, jobColumns)
	j, err := scanJob(r.pool.QueryRow(ctx, q, jobID))
	if err != nil {
		return nil, fmt.Errorf("fetch job %s: %w", jobID, err)
	}
	return j, nil
}

func (r *jobRepo) GetJobsByUserID(ctx context.Context, userID string, limit int) ([]model.Job, error) {
	q := fmt.Sprintf(`SELECT %s FROM jobs WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, jobColumns)
	rows, err := r.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch jobs for user %s: %w", userID, err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job for user %s: %w", userID, err)
		}
		jobs = append(jobs, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs for user %s: %w", userID, err)
	}
	return jobs, nil
}
