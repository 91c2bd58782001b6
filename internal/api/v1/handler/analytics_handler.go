package handler

import (
	"encoding/json"
	"net/http"

	"app/internal/middleware"
	"app/internal/service"
)

// AnalyticsHandler handles posting analytics
type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(analyticsService service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// RegisterRoutes mounts analytics routes behind the analytics feature gate
func (h *AnalyticsHandler) RegisterRoutes(mux *http.ServeMux, authMw, featureMw func(http.Handler) http.Handler) {
	mux.Handle("/analytics", authMw(featureMw(http.HandlerFunc(h.getAnalytics))))
}

// getAnalytics godoc
// @Summary Get posting analytics
// @Description Aggregates engagement metrics across everything the user has posted to X. Results are cached for 15 minutes.
// @Tags analytics
// @Produce json
// @Success 200 {object} service.Analytics
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 403 {string} string "Feature not available on current plan"
// @Failure 500 {string} string "Failed to compute analytics"
// @Router /analytics [get]
func (h *AnalyticsHandler) getAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID := middleware.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	analytics, err := h.analyticsService.GetUserAnalytics(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to compute analytics: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(analytics)
}
