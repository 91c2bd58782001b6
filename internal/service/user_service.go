package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"app/internal/model"
	"app/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

// UserService manages user records, subscription tiers and the monthly
// credit ledger.
type UserService interface {
	// GetOrCreateUser returns the user, provisioning a free-tier record on
	// first sight.
	GetOrCreateUser(ctx context.Context, userID, email string) (*model.User, error)
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
	// CheckQuota reports whether the user has credits left, applying the
	// lazy monthly reset first when the reset date has passed.
	CheckQuota(ctx context.Context, userID string) (bool, *model.User, error)
	GetQuotaInfo(ctx context.Context, userID string) (*model.QuotaInfo, error)
	UpdateTier(ctx context.Context, userID string, tier model.Tier) error
	UpdateCustomerID(ctx context.Context, userID, customerID string) error
	// ConsumeCredit charges one credit. Failures are logged and swallowed
	// so a finished job is never lost to a ledger error.
	ConsumeCredit(ctx context.Context, userID string)
}

type userService struct {
	repo   repository.UserRepository
	logger zerolog.Logger
	now    func() time.Time
}

// NewUserService creates a new UserService with a scoped logger.
func NewUserService(repo repository.UserRepository, logger zerolog.Logger) UserService {
	return &userService{
		repo:   repo,
		logger: logger.With().Str("service", "UserService").Logger(),
		now:    time.Now,
	}
}

func (s *userService) GetOrCreateUser(ctx context.Context, userID, email string) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch user")
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	bundle := model.BundleFor(model.TierFree)
	now := s.now().UTC()
	user = &model.User{
		UserID:             userID,
		Email:              email,
		Tier:               model.TierFree,
		CreditsUsed:        0,
		MaxCredits:         bundle.MaxCredits,
		MaxDurationSeconds: bundle.MaxDurationSeconds,
		Features:           bundle.Features,
		ResetDate:          model.NextResetDate(now),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create user")
		return nil, err
	}
	s.logger.Info().Str("user_id", userID).Msg("Provisioned new free-tier user")
	return user, nil
}

func (s *userService) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch user")
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// CheckQuota fails open: if the ledger cannot be read the request is allowed
// rather than blocking a paying user on a transient error.
func (s *userService) CheckQuota(ctx context.Context, userID string) (bool, *model.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Quota lookup failed, allowing request")
		return true, nil, nil
	}
	if user == nil {
		return true, nil, nil
	}

	user, err = s.maybeResetCredits(ctx, user)
	if err != nil {
		return true, user, nil
	}

	return user.CreditsUsed < user.MaxCredits, user, nil
}

func (s *userService) GetQuotaInfo(ctx context.Context, userID string) (*model.QuotaInfo, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user, err = s.maybeResetCredits(ctx, user)
	if err != nil {
		return nil, err
	}

	remaining := user.MaxCredits - user.CreditsUsed
	if remaining < 0 {
		remaining = 0
	}
	return &model.QuotaInfo{
		CreditsUsed: user.CreditsUsed,
		MaxCredits:  user.MaxCredits,
		Remaining:   remaining,
		Tier:        user.Tier,
		ResetDate:   user.ResetDate,
	}, nil
}

// maybeResetCredits applies the lazy monthly reset when the stored reset
// date has passed, persisting the zeroed counter and the next boundary.
func (s *userService) maybeResetCredits(ctx context.Context, user *model.User) (*model.User, error) {
	now := s.now().UTC()
	if now.Before(user.ResetDate) {
		return user, nil
	}

	nextReset := model.NextResetDate(now)
	if err := s.repo.ResetCredits(ctx, user.UserID, nextReset); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to reset monthly credits")
		return user, err
	}
	s.logger.Info().Str("user_id", user.UserID).Time("next_reset", nextReset).Msg("Monthly credits reset")

	user.CreditsUsed = 0
	user.ResetDate = nextReset
	return user, nil
}

func (s *userService) UpdateTier(ctx context.Context, userID string, tier model.Tier) error {
	bundle := model.BundleFor(tier)
	if err := s.repo.UpdateTier(ctx, userID, tier, bundle); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("tier", string(tier)).Msg("Failed to update tier")
		return err
	}
	s.logger.Info().Str("user_id", userID).Str("tier", string(tier)).Msg("User tier updated")
	return nil
}

func (s *userService) UpdateCustomerID(ctx context.Context, userID, customerID string) error {
	if err := s.repo.UpdateCustomerID(ctx, userID, customerID); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to update billing customer id")
		return err
	}
	return nil
}

func (s *userService) ConsumeCredit(ctx context.Context, userID string) {
	if err := s.repo.IncrementCredits(ctx, userID); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to charge credit for completed job")
	}
}
