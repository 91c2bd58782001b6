package repository

import (
	"context"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostRepository persists published-thread records. Records are write-once.
type PostRepository interface {
	CreatePost(ctx context.Context, p *model.PostRecord) error
	GetPostsByUserID(ctx context.Context, userID string, limit int) ([]model.PostRecord, error)
}

type postRepo struct {
	pool *pgxpool.Pool
}

// NewPostRepo creates a new PostRepository.
func NewPostRepo(pool *pgxpool.Pool) PostRepository {
	return &postRepo{pool: pool}
}

func (r *postRepo) CreatePost(ctx context.Context, p *model.PostRecord) error {
	const q = `
        INSERT INTO posts (post_id, user_id, job_id, format, variant_index, tweet_ids, thread_url, tweet_count)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING posted_at
    `
	err := r.pool.QueryRow(ctx, q,
		p.PostID, p.UserID, p.JobID, p.Format, p.VariantIndex, p.TweetIDs, p.ThreadURL, p.TweetCount,
	).Scan(&p.PostedAt)
	if err != nil {
		return fmt.Errorf("create post record %s: %w", p.PostID, err)
	}
	return nil
}

func (r *postRepo) GetPostsByUserID(ctx context.Context, userID string, limit int) ([]model.PostRecord, error) {
	const q = `
        SELECT post_id, user_id, job_id, format, variant_index, tweet_ids, thread_url, tweet_count, posted_at
        FROM posts
        WHERE user_id = $1
        ORDER BY posted_at DESC
        LIMIT $2
    `
	rows, err := r.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch posts for user %s: %w", userID, err)
	}
	defer rows.Close()

	var posts []model.PostRecord
	for rows.Next() {
		var p model.PostRecord
		if err := rows.Scan(
			&p.PostID, &p.UserID, &p.JobID, &p.Format, &p.VariantIndex,
			&p.TweetIDs, &p.ThreadURL, &p.TweetCount, &p.PostedAt,
		); err != nil {
			return nil, fmt.Errorf("scan post for user %s: %w", userID, err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts for user %s: %w", userID, err)
	}
	return posts, nil
}
