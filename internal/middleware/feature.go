package middleware

import (
	"encoding/json"
	"net/http"

	"app/internal/logger"
	"app/internal/model"
	"app/internal/service"
)

type featureDeniedResponse struct {
	Error        string `json:"error"`
	Feature      string `json:"feature"`
	CurrentTier  string `json:"currentTier"`
	RequiredTier string `json:"requiredTier"`
	UpgradeURL   string `json:"upgradeUrl"`
}

// FeatureMiddleware rejects requests from users whose tier bundle does not
// include the feature. The user profile is provisioned lazily so brand-new
// users get a well-formed free-tier rejection.
func FeatureMiddleware(users service.UserService, feature model.Feature, upgradeURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := UserID(r.Context())

			user, err := users.GetOrCreateUser(r.Context(), userID, Email(r.Context()))
			if err != nil {
				http.Error(w, "Failed to resolve user profile", http.StatusInternalServerError)
				return
			}

			if !user.Features.Enabled(feature) {
				log := logger.New()
				log.Info().Str("user_id", userID).Str("feature", string(feature)).Str("tier", string(user.Tier)).Msg("Feature access denied")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				json.NewEncoder(w).Encode(featureDeniedResponse{
					Error:        "This feature is not available on your plan",
					Feature:      string(feature),
					CurrentTier:  string(user.Tier),
					RequiredTier: string(model.RequiredTiers[feature]),
					UpgradeURL:   upgradeURL,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
