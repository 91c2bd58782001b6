package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository defines methods for accessing user profile, tier, and quota
// state. Tier-bundle updates, credit increments, and quota resets are
// independent single-purpose writes; overlapping writers accept
// last-writer-wins on the rare same-instant case.
type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByCustomerID(ctx context.Context, customerID string) (*model.User, error)
	UpdateTier(ctx context.Context, userID string, tier model.Tier, bundle model.TierBundle) error
	UpdateCustomerID(ctx context.Context, userID, customerID string) error
	IncrementCredits(ctx context.Context, userID string) error
	ResetCredits(ctx context.Context, userID string, nextReset time.Time) error
}

type userRepo struct {
	pool *pgxpool.Pool
}

// NewUserRepo creates a new UserRepository.
func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepo{pool: pool}
}

const userColumns = `user_id, email, tier, credits_used, max_credits, max_duration_seconds, features, customer_id, reset_date, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	var rawFeatures []byte
	err := row.Scan(
		&u.UserID,
		&u.Email,
		&u.Tier,
		&u.CreditsUsed,
		&u.MaxCredits,
		&u.MaxDurationSeconds,
		&rawFeatures,
		&u.CustomerID,
		&u.ResetDate,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(rawFeatures, &u.Features); err != nil {
		return nil, fmt.Errorf("unmarshal features for user %s: %w", u.UserID, err)
	}
	return &u, nil
}

func (r *userRepo) CreateUser(ctx context.Context, u *model.User) error {
	features, err := json.Marshal(u.Features)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}
	const q = `
        INSERT INTO users (user_id, email, tier, credits_used, max_credits, max_duration_seconds, features, reset_date)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING created_at, updated_at
    `
	err = r.pool.QueryRow(ctx, q,
		u.UserID, u.Email, u.Tier, u.CreditsUsed, u.MaxCredits, u.MaxDurationSeconds, features, u.ResetDate,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user %s: %w", u.UserID, err)
	}
	return nil
}

func (r *userRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	q := fmt.Sprintf(`SELECT %s FROM users WHERE user_id = $1`, userColumns)
	u, err := scanUser(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, fmt.Errorf("fetch user %s: %w", id, err)
	}
	return u, nil
}

func (r *userRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	// Email is unique at the schema level; ordering keeps resolution
	// deterministic if the constraint is ever relaxed.
	q := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1 ORDER BY created_at LIMIT 1`, userColumns)
	u, err := scanUser(r.pool.QueryRow(ctx, q, email))
	if err != nil {
		return nil, fmt.Errorf("fetch user by email: %w", err)
	}
	return u, nil
}

func (r *userRepo) GetUserByCustomerID(ctx context.Context, customerID string) (*model.User, error) {
	q := fmt.Sprintf(`SELECT %s FROM users WHERE customer_id = $1 ORDER BY created_at LIMIT 1`, userColumns)
	u, err := scanUser(r.pool.QueryRow(ctx, q, customerID))
	if err != nil {
		return nil, fmt.Errorf("fetch user by customer id: %w", err)
	}
	return u, nil
}

// UpdateTier applies a tier's static limit/feature bundle. creditsUsed and
// reset_date are deliberately untouched.
func (r *userRepo) UpdateTier(ctx context.Context, userID string, tier model.Tier, bundle model.TierBundle) error {
	features, err := json.Marshal(bundle.Features)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}
	const q = `
        UPDATE users
        SET tier = $2, max_credits = $3, max_duration_seconds = $4, features = $5, updated_at = NOW()
        WHERE user_id = $1
    `
	if _, err := r.pool.Exec(ctx, q, userID, tier, bundle.MaxCredits, bundle.MaxDurationSeconds, features); err != nil {
		return fmt.Errorf("update tier for user %s: %w", userID, err)
	}
	return nil
}

func (r *userRepo) UpdateCustomerID(ctx context.Context, userID, customerID string) error {
	const q = `UPDATE users SET customer_id = $2, updated_at = NOW() WHERE user_id = $1`
	if _, err := r.pool.Exec(ctx, q, userID, customerID); err != nil {
		return fmt.Errorf("update customer id for user %s: %w", userID, err)
	}
	return nil
}

func (r *userRepo) IncrementCredits(ctx context.Context, userID string) error {
	const q = `UPDATE users SET credits_used = credits_used + 1, updated_at = NOW() WHERE user_id = $1`
	if _, err := r.pool.Exec(ctx, q, userID); err != nil {
		return fmt.Errorf("increment credits for user %s: %w", userID, err)
	}
	return nil
}

func (r *userRepo) ResetCredits(ctx context.Context, userID string, nextReset time.Time) error {
	const q = `UPDATE users SET credits_used = 0, reset_date = $2, updated_at = NOW() WHERE user_id = $1`
	if _, err := r.pool.Exec(ctx, q, userID, nextReset); err != nil {
		return fmt.Errorf("reset credits for user %s: %w", userID, err)
	}
	return nil
}
