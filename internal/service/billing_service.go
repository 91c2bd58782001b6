package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"app/internal/model"
	"app/internal/repository"
)

// BillingService verifies and applies billing provider webhook events,
// driving subscription tier changes.
type BillingService interface {
	// VerifySignature checks a standard-webhooks signature header against
	// the raw payload.
	VerifySignature(payload []byte, signatureHeader string) bool
	// ProcessEvent dispatches a verified, parsed event and records it in
	// the webhook event log. Errors are recorded, not returned, so the
	// sender always gets an acknowledgement.
	ProcessEvent(ctx context.Context, payload []byte)
}

type billingService struct {
	users    UserService
	userRepo repository.UserRepository
	events   repository.WebhookRepository
	secret   string
	logger   zerolog.Logger
}

// NewBillingService creates a new BillingService with a scoped logger.
func NewBillingService(users UserService, userRepo repository.UserRepository, events repository.WebhookRepository, secret string, logger zerolog.Logger) BillingService {
	return &billingService{
		users:    users,
		userRepo: userRepo,
		events:   events,
		secret:   secret,
		logger:   logger.With().Str("service", "BillingService").Logger(),
	}
}

// VerifySignature accepts the standard-webhooks header format
// "v1,<base64> v1,<base64>", matching any one signature. The shared secret
// is base64 with an optional whsec_ prefix.
func (s *billingService) VerifySignature(payload []byte, signatureHeader string) bool {
	if s.secret == "" || signatureHeader == "" {
		return false
	}

	secretBytes, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s.secret, "whsec_"))
	if err != nil {
		s.logger.Error().Err(err).Msg("Webhook secret is not valid base64")
		return false
	}

	mac := hmac.New(sha256.New, secretBytes)
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	for _, part := range strings.Split(signatureHeader, " ") {
		version, sig, found := strings.Cut(part, ",")
		if !found || version != "v1" {
			continue
		}
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return true
		}
	}
	return false
}

// errUnknownProduct marks checkout events for products this backend does not
// sell; they are ignored rather than treated as processing failures.
var errUnknownProduct = errors.New("unknown product id")

type billingEvent struct {
	Type string `json:"type"`
	Data struct {
		Status        string `json:"status"`
		CustomerEmail string `json:"customer_email"`
		CustomerID    string `json:"customer_id"`
		ProductID     string `json:"product_id"`
	} `json:"data"`
}

func (s *billingService) ProcessEvent(ctx context.Context, payload []byte) {
	var event billingEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		// The handler parses before dispatching, so this is unreachable in
		// practice.
		s.logger.Error().Err(err).Msg("Failed to parse billing event")
		return
	}

	switch event.Type {
	case "checkout.created", "checkout.updated", "order.created":
		if event.Data.Status != "succeeded" && event.Data.Status != "completed" {
			s.record(ctx, event.Type, payload, model.WebhookOutcomeIgnored, "checkout not completed")
			return
		}
		if err := s.handleCheckoutSuccess(ctx, event); err != nil {
			if errors.Is(err, errUnknownProduct) {
				s.record(ctx, event.Type, payload, model.WebhookOutcomeIgnored, err.Error())
				return
			}
			s.record(ctx, event.Type, payload, model.WebhookOutcomeFailed, err.Error())
			return
		}
		s.record(ctx, event.Type, payload, model.WebhookOutcomeSuccess, "")

	case "subscription.cancelled", "subscription.canceled":
		if err := s.handleSubscriptionCancelled(ctx, event); err != nil {
			s.record(ctx, event.Type, payload, model.WebhookOutcomeFailed, err.Error())
			return
		}
		s.record(ctx, event.Type, payload, model.WebhookOutcomeSuccess, "")

	default:
		s.logger.Info().Str("event_type", event.Type).Msg("Unhandled billing event type")
		s.record(ctx, event.Type, payload, model.WebhookOutcomeIgnored, "unhandled event type")
	}
}

func (s *billingService) handleCheckoutSuccess(ctx context.Context, event billingEvent) error {
	email := event.Data.CustomerEmail
	if email == "" {
		return fmt.Errorf("checkout event has no customer email")
	}

	tier, ok := model.ProductTiers[event.Data.ProductID]
	if !ok {
		s.logger.Warn().Str("product_id", event.Data.ProductID).Msg("Unknown product id in checkout event")
		return fmt.Errorf("%w %q", errUnknownProduct, event.Data.ProductID)
	}

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up user by email: %w", err)
	}
	if user == nil {
		return fmt.Errorf("no user matches customer email")
	}

	if err := s.users.UpdateTier(ctx, user.UserID, tier); err != nil {
		return fmt.Errorf("failed to apply tier: %w", err)
	}
	if event.Data.CustomerID != "" {
		if err := s.users.UpdateCustomerID(ctx, user.UserID, event.Data.CustomerID); err != nil {
			s.logger.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to store billing customer id")
		}
	}

	s.logger.Info().Str("user_id", user.UserID).Str("tier", string(tier)).Msg("Checkout applied")
	return nil
}

// handleSubscriptionCancelled resolves the user by email first, then by the
// stored billing customer id, and downgrades to the free bundle.
func (s *billingService) handleSubscriptionCancelled(ctx context.Context, event billingEvent) error {
	var user *model.User
	var err error

	if event.Data.CustomerEmail != "" {
		user, err = s.userRepo.GetUserByEmail(ctx, event.Data.CustomerEmail)
		if err != nil {
			return fmt.Errorf("failed to look up user by email: %w", err)
		}
	}
	if user == nil && event.Data.CustomerID != "" {
		user, err = s.userRepo.GetUserByCustomerID(ctx, event.Data.CustomerID)
		if err != nil {
			return fmt.Errorf("failed to look up user by customer id: %w", err)
		}
	}
	if user == nil {
		return fmt.Errorf("no user matches cancellation event")
	}

	if err := s.users.UpdateTier(ctx, user.UserID, model.TierFree); err != nil {
		return fmt.Errorf("failed to downgrade user: %w", err)
	}

	s.logger.Info().Str("user_id", user.UserID).Msg("Subscription cancelled, user downgraded to free")
	return nil
}

// record appends to the webhook event log. Logging failures must never block
// acknowledgement.
func (s *billingService) record(ctx context.Context, eventType string, payload []byte, outcome model.WebhookOutcome, errMsg string) {
	event := &model.WebhookEvent{
		EventType: eventType,
		Payload:   payload,
		Outcome:   outcome,
		Error:     errMsg,
	}
	if err := s.events.LogEvent(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("Failed to append webhook event log")
	}
}
