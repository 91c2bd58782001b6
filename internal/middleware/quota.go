package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"app/internal/logger"
	"app/internal/service"
)

type quotaExceededResponse struct {
	Error       string    `json:"error"`
	CreditsUsed int       `json:"creditsUsed"`
	MaxCredits  int       `json:"maxCredits"`
	Tier        string    `json:"tier"`
	ResetDate   time.Time `json:"resetDate"`
	UpgradeURL  string    `json:"upgradeUrl"`
}

// QuotaMiddleware blocks job creation for users whose monthly credits are
// exhausted. The quota check fails open on ledger errors.
func QuotaMiddleware(users service.UserService, upgradeURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := UserID(r.Context())

			allowed, user, err := users.CheckQuota(r.Context(), userID)
			if err != nil || allowed {
				next.ServeHTTP(w, r)
				return
			}

			log := logger.New()
			log.Warn().Str("user_id", userID).Int("credits_used", user.CreditsUsed).Msg("Quota exceeded")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(quotaExceededResponse{
				Error:       "Monthly credit limit reached",
				CreditsUsed: user.CreditsUsed,
				MaxCredits:  user.MaxCredits,
				Tier:        string(user.Tier),
				ResetDate:   user.ResetDate,
				UpgradeURL:  upgradeURL,
			})
		})
	}
}
