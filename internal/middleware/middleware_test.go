package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"app/internal/model"
	"app/internal/util"
)

// fakeUserService is a minimal service.UserService for middleware tests.
type fakeUserService struct {
	user     *model.User
	allow    bool
	err      error
	quotaErr error
}

func (f *fakeUserService) GetOrCreateUser(_ context.Context, _, _ string) (*model.User, error) {
	return f.user, f.err
}

func (f *fakeUserService) GetUserByID(_ context.Context, _ string) (*model.User, error) {
	return f.user, f.err
}

func (f *fakeUserService) CheckQuota(_ context.Context, _ string) (bool, *model.User, error) {
	return f.allow, f.user, f.quotaErr
}

func (f *fakeUserService) GetQuotaInfo(_ context.Context, _ string) (*model.QuotaInfo, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeUserService) UpdateTier(_ context.Context, _ string, _ model.Tier) error { return nil }

func (f *fakeUserService) UpdateCustomerID(_ context.Context, _, _ string) error { return nil }

func (f *fakeUserService) ConsumeCredit(_ context.Context, _ string) {}

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func authedRequest(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	ctx := context.WithValue(req.Context(), UserContextKey, userID)
	ctx = context.WithValue(ctx, EmailContextKey, userID+"@example.com")
	return req.WithContext(ctx)
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	secret := "test-secret"
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, util.Claims{
		Email: "u@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user_1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	var gotUser, gotEmail string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserID(r.Context())
		gotEmail = Email(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	AuthMiddleware(secret)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotUser != "user_1" || gotEmail != "u@example.com" {
		t.Fatalf("context not populated: user=%q email=%q", gotUser, gotEmail)
	}
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	next, called := okHandler()
	mw := AuthMiddleware("test-secret")(next)

	for _, header := range []string{"", "Basic abc", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/anything", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
	if *called {
		t.Fatal("next handler must not run for rejected requests")
	}
}

func TestQuotaMiddlewareAllowsUnderLimit(t *testing.T) {
	next, called := okHandler()
	users := &fakeUserService{allow: true}
	mw := QuotaMiddleware(users, "https://example.com/pricing")(next)

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, authedRequest("user_1"))

	if !*called || rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d", rec.Code)
	}
}

func TestQuotaMiddlewareBlocksExhausted(t *testing.T) {
	next, called := okHandler()
	reset := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
	users := &fakeUserService{
		allow: false,
		user: &model.User{
			UserID:      "user_1",
			Tier:        model.TierFree,
			CreditsUsed: 2,
			MaxCredits:  2,
			ResetDate:   reset,
		},
	}
	mw := QuotaMiddleware(users, "https://example.com/pricing")(next)

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, authedRequest("user_1"))

	if *called {
		t.Fatal("next handler must not run when quota is exhausted")
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	var body quotaExceededResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.CreditsUsed != 2 || body.MaxCredits != 2 || body.Tier != "free" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.UpgradeURL != "https://example.com/pricing" {
		t.Fatalf("unexpected upgrade url %q", body.UpgradeURL)
	}
	if !body.ResetDate.Equal(reset) {
		t.Fatalf("unexpected reset date %v", body.ResetDate)
	}
}

func TestFeatureMiddlewareAllowsEntitledUser(t *testing.T) {
	next, called := okHandler()
	users := &fakeUserService{user: &model.User{
		UserID:   "user_1",
		Tier:     model.TierPro,
		Features: model.Features{PostToX: true},
	}}
	mw := FeatureMiddleware(users, model.FeaturePostToX, "https://example.com/pricing")(next)

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, authedRequest("user_1"))

	if !*called || rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d", rec.Code)
	}
}

func TestFeatureMiddlewareRejectsFreeTier(t *testing.T) {
	next, called := okHandler()
	users := &fakeUserService{user: &model.User{
		UserID: "user_1",
		Tier:   model.TierFree,
	}}
	mw := FeatureMiddleware(users, model.FeatureAnalytics, "https://example.com/pricing")(next)

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, authedRequest("user_1"))

	if *called {
		t.Fatal("next handler must not run for a gated feature")
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	var body featureDeniedResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Feature != "analytics" || body.CurrentTier != "free" || body.RequiredTier != "business" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestFeatureMiddlewarePostToXRequiresPro(t *testing.T) {
	users := &fakeUserService{user: &model.User{UserID: "user_1", Tier: model.TierFree}}
	next, _ := okHandler()
	mw := FeatureMiddleware(users, model.FeaturePostToX, "https://example.com/pricing")(next)

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, authedRequest("user_1"))

	var body featureDeniedResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.RequiredTier != "pro" {
		t.Fatalf("expected required tier pro, got %q", body.RequiredTier)
	}
}
