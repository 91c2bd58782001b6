package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"app/internal/model"
)

var billingSecretBytes = []byte("super-secret-signing-key")

func billingSecret() string {
	return base64.StdEncoding.EncodeToString(billingSecretBytes)
}

func signPayload(payload []byte) string {
	mac := hmac.New(sha256.New, billingSecretBytes)
	mac.Write(payload)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func newBillingFixture() (*billingService, *fakeUserRepo, *fakeWebhookRepo) {
	users := newFakeUserRepo()
	events := &fakeWebhookRepo{}
	userSvc := newUserServiceAt(users, time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC))
	svc := &billingService{
		users:    userSvc,
		userRepo: users,
		events:   events,
		secret:   billingSecret(),
		logger:   zerolog.Nop(),
	}
	return svc, users, events
}

func TestVerifySignature(t *testing.T) {
	svc, _, _ := newBillingFixture()
	payload := []byte(`{"type":"checkout.updated"}`)

	require.True(t, svc.VerifySignature(payload, signPayload(payload)))
	require.False(t, svc.VerifySignature(payload, "v1,dGFtcGVyZWQ="))
	require.False(t, svc.VerifySignature([]byte(`{"type":"other"}`), signPayload(payload)))
	require.False(t, svc.VerifySignature(payload, ""))
}

func TestVerifySignatureMultiSignatureHeader(t *testing.T) {
	svc, _, _ := newBillingFixture()
	payload := []byte(`{"type":"checkout.updated"}`)

	header := "v1,aW52YWxpZA== " + signPayload(payload)
	require.True(t, svc.VerifySignature(payload, header))
}

func TestVerifySignatureWhsecPrefix(t *testing.T) {
	svc, _, _ := newBillingFixture()
	svc.secret = "whsec_" + billingSecret()
	payload := []byte(`{"type":"checkout.updated"}`)

	require.True(t, svc.VerifySignature(payload, signPayload(payload)))
}

func TestCheckoutSuccessUpgradesToBusinessByEmail(t *testing.T) {
	svc, users, events := newBillingFixture()
	reset := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
	u := seedUser(users, "user_1", model.TierFree, 1, reset)
	u.Email = "buyer@example.com"

	payload := []byte(`{"type":"checkout.updated","data":{"status":"succeeded","customer_email":"buyer@example.com","customer_id":"cus_42","product_id":"prod_business"}}`)
	svc.ProcessEvent(context.Background(), payload)

	stored := users.users["user_1"]
	require.Equal(t, model.TierBusiness, stored.Tier)
	require.Equal(t, 100, stored.MaxCredits)
	require.True(t, stored.Features.Analytics)
	require.Equal(t, 1, stored.CreditsUsed, "checkout must not reset usage")
	require.Equal(t, reset, stored.ResetDate)
	require.NotNil(t, stored.CustomerID)
	require.Equal(t, "cus_42", *stored.CustomerID)

	require.Len(t, events.events, 1)
	require.Equal(t, model.WebhookOutcomeSuccess, events.events[0].Outcome)
}

func TestCheckoutWithUnknownProductIsIgnored(t *testing.T) {
	svc, users, events := newBillingFixture()
	u := seedUser(users, "user_1", model.TierFree, 0, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC))
	u.Email = "buyer@example.com"

	payload := []byte(`{"type":"checkout.updated","data":{"status":"succeeded","customer_email":"buyer@example.com","product_id":"prod_enterprise"}}`)
	svc.ProcessEvent(context.Background(), payload)

	require.Equal(t, model.TierFree, users.users["user_1"].Tier)
	require.Len(t, events.events, 1)
	require.Equal(t, model.WebhookOutcomeIgnored, events.events[0].Outcome)
	require.Contains(t, events.events[0].Error, "prod_enterprise")
}

func TestIncompleteCheckoutIsIgnored(t *testing.T) {
	svc, users, events := newBillingFixture()
	u := seedUser(users, "user_1", model.TierFree, 0, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC))
	u.Email = "buyer@example.com"

	payload := []byte(`{"type":"checkout.created","data":{"status":"pending","customer_email":"buyer@example.com","product_id":"prod_pro"}}`)
	svc.ProcessEvent(context.Background(), payload)

	require.Equal(t, model.TierFree, users.users["user_1"].Tier)
	require.Len(t, events.events, 1)
	require.Equal(t, model.WebhookOutcomeIgnored, events.events[0].Outcome)
}

func TestUnknownEventTypeIsIgnored(t *testing.T) {
	svc, _, events := newBillingFixture()

	payload := []byte(`{"type":"invoice.paid","data":{}}`)
	svc.ProcessEvent(context.Background(), payload)

	require.Len(t, events.events, 1)
	require.Equal(t, model.WebhookOutcomeIgnored, events.events[0].Outcome)
	require.Equal(t, "invoice.paid", events.events[0].EventType)
}

func TestSubscriptionCancelledDowngradesByEmail(t *testing.T) {
	svc, users, events := newBillingFixture()
	reset := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
	u := seedUser(users, "user_1", model.TierBusiness, 40, reset)
	u.Email = "buyer@example.com"

	payload := []byte(`{"type":"subscription.cancelled","data":{"customer_email":"buyer@example.com"}}`)
	svc.ProcessEvent(context.Background(), payload)

	stored := users.users["user_1"]
	require.Equal(t, model.TierFree, stored.Tier)
	require.Equal(t, 2, stored.MaxCredits)
	require.False(t, stored.Features.PostToX)
	require.Equal(t, 40, stored.CreditsUsed, "downgrade must not reset usage")

	require.Len(t, events.events, 1)
	require.Equal(t, model.WebhookOutcomeSuccess, events.events[0].Outcome)
}

func TestSubscriptionCancelledFallsBackToCustomerID(t *testing.T) {
	svc, users, events := newBillingFixture()
	u := seedUser(users, "user_1", model.TierPro, 5, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC))
	customerID := "cus_42"
	u.CustomerID = &customerID

	payload := []byte(`{"type":"subscription.canceled","data":{"customer_id":"cus_42"}}`)
	svc.ProcessEvent(context.Background(), payload)

	require.Equal(t, model.TierFree, users.users["user_1"].Tier)
	require.Len(t, events.events, 1)
	require.Equal(t, model.WebhookOutcomeSuccess, events.events[0].Outcome)
}

func TestCancellationForUnknownUserIsLoggedFailed(t *testing.T) {
	svc, _, events := newBillingFixture()

	payload := []byte(`{"type":"subscription.cancelled","data":{"customer_email":"ghost@example.com"}}`)
	svc.ProcessEvent(context.Background(), payload)

	require.Len(t, events.events, 1)
	require.Equal(t, model.WebhookOutcomeFailed, events.events[0].Outcome)
}
