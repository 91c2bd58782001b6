package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"
)

// TwitterHandler handles posting generated content to X
type TwitterHandler struct {
	postService service.PostService
	validate    *validator.Validate
}

// NewTwitterHandler creates a new TwitterHandler
func NewTwitterHandler(postService service.PostService, validate *validator.Validate) *TwitterHandler {
	return &TwitterHandler{postService: postService, validate: validate}
}

// RegisterRoutes mounts twitter routes behind the postToX feature gate
func (h *TwitterHandler) RegisterRoutes(mux *http.ServeMux, authMw, featureMw func(http.Handler) http.Handler) {
	mux.Handle("/twitter/post", authMw(featureMw(http.HandlerFunc(h.postThread))))
	mux.Handle("/twitter/posts", authMw(featureMw(http.HandlerFunc(h.listPosts))))
}

// postThread godoc
// @Summary Post a generated thread to X
// @Description Publishes the selected post variant of a completed job as a reply-chain thread.
// @Tags twitter
// @Accept json
// @Produce json
// @Param request body dto.PostThreadRequestDTO true "Post request"
// @Success 200 {object} dto.PostResponseDTO
// @Failure 400 {string} string "Invalid request or job not completed"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 403 {string} string "Feature not available on current plan"
// @Failure 404 {string} string "Job not found"
// @Failure 500 {string} string "Failed to post thread"
// @Router /twitter/post [post]
func (h *TwitterHandler) postThread(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID := middleware.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.PostThreadRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	record, err := h.postService.PostToX(r.Context(), userID, req.JobID, req.Format, req.VariantIndex)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrJobNotFound):
			http.Error(w, "Job not found", http.StatusNotFound)
		case errors.Is(err, service.ErrJobForbidden):
			http.Error(w, "Access denied: Job belongs to another user", http.StatusForbidden)
		case errors.Is(err, service.ErrJobNotCompleted),
			errors.Is(err, service.ErrUnknownPostFormat),
			errors.Is(err, service.ErrInvalidVariant):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "Failed to post thread: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(postToDTO(record))
}

// listPosts godoc
// @Summary List posted threads
// @Description Lists the authenticated user's posted threads, most recent first.
// @Tags twitter
// @Produce json
// @Param limit query int false "Maximum posts to return (default 50)"
// @Success 200 {array} dto.PostResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 403 {string} string "Feature not available on current plan"
// @Failure 500 {string} string "Failed to list posts"
// @Router /twitter/posts [get]
func (h *TwitterHandler) listPosts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID := middleware.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := h.postService.ListPosts(r.Context(), userID, limit)
	if err != nil {
		http.Error(w, "Failed to list posts: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]dto.PostResponseDTO, 0, len(records))
	for i := range records {
		resp = append(resp, postToDTO(&records[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func postToDTO(record *model.PostRecord) dto.PostResponseDTO {
	return dto.PostResponseDTO{
		PostID:       record.PostID,
		JobID:        record.JobID,
		Format:       record.Format,
		VariantIndex: record.VariantIndex,
		TweetIDs:     record.TweetIDs,
		ThreadURL:    record.ThreadURL,
		TweetCount:   record.TweetCount,
		PostedAt:     record.PostedAt,
	}
}
