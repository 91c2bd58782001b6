package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/service"
)

// UploadHandler handles direct media uploads
type UploadHandler struct {
	storageService service.StorageService
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(storageService service.StorageService) *UploadHandler {
	return &UploadHandler{storageService: storageService}
}

// RegisterRoutes mounts upload routes
func (h *UploadHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/upload", authMw(http.HandlerFunc(h.upload)))
}

// upload godoc
// @Summary Upload a media file
// @Description Stores an audio or video file and returns a time-limited URL usable as the fileUrl of a processing request.
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Media file (1MB-500MB)"
// @Success 200 {object} dto.UploadResponseDTO
// @Failure 400 {string} string "Invalid upload"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 500 {string} string "Failed to store upload"
// @Router /upload [post]
func (h *UploadHandler) upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID := middleware.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Invalid upload: missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	fileURL, err := h.storageService.UploadMedia(r.Context(), userID, header.Filename, header.Size, file)
	if err != nil {
		if errors.Is(err, service.ErrFileTooSmall) || errors.Is(err, service.ErrFileTooLarge) || errors.Is(err, service.ErrUnsupportedFile) {
			http.Error(w, "Invalid upload: "+err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to store upload: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.UploadResponseDTO{FileURL: fileURL})
}
