package handler

import (
	"encoding/json"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/service"
)

// UserHandler handles user profile and quota endpoints
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRoutes mounts user routes
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/users/me", authMw(http.HandlerFunc(h.getMe)))
	mux.Handle("/users/me/quota", authMw(http.HandlerFunc(h.getQuota)))
}

// getMe godoc
// @Summary Get the current user
// @Description Returns the authenticated user's profile, provisioning a free-tier record on first request.
// @Tags users
// @Produce json
// @Success 200 {object} dto.UserResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 500 {string} string "Failed to retrieve user"
// @Router /users/me [get]
func (h *UserHandler) getMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID := middleware.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	user, err := h.userService.GetOrCreateUser(r.Context(), userID, middleware.Email(r.Context()))
	if err != nil {
		http.Error(w, "Failed to retrieve user: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := dto.UserResponseDTO{
		UserID:             user.UserID,
		Email:              user.Email,
		Tier:               string(user.Tier),
		CreditsUsed:        user.CreditsUsed,
		MaxCredits:         user.MaxCredits,
		MaxDurationSeconds: user.MaxDurationSeconds,
		Features: dto.FeaturesDTO{
			PostToX:   user.Features.PostToX,
			Analytics: user.Features.Analytics,
		},
		ResetDate: user.ResetDate,
		CreatedAt: user.CreatedAt,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// getQuota godoc
// @Summary Get quota usage
// @Description Returns the authenticated user's credit usage for the current month.
// @Tags users
// @Produce json
// @Success 200 {object} dto.QuotaResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 500 {string} string "Failed to retrieve quota"
// @Router /users/me/quota [get]
func (h *UserHandler) getQuota(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID := middleware.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	// Provision the profile first so a brand-new user sees free-tier
	// defaults instead of a 404.
	if _, err := h.userService.GetOrCreateUser(r.Context(), userID, middleware.Email(r.Context())); err != nil {
		http.Error(w, "Failed to retrieve quota: "+err.Error(), http.StatusInternalServerError)
		return
	}

	info, err := h.userService.GetQuotaInfo(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to retrieve quota: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := dto.QuotaResponseDTO{
		CreditsUsed: info.CreditsUsed,
		MaxCredits:  info.MaxCredits,
		Remaining:   info.Remaining,
		Tier:        string(info.Tier),
		ResetDate:   info.ResetDate,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
