package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"
)

// JobHandler handles processing and job status endpoints
type JobHandler struct {
	jobService      service.JobService
	userService     service.UserService
	pipelineService service.PipelineService
	validate        *validator.Validate
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(jobService service.JobService, userService service.UserService, pipelineService service.PipelineService, validate *validator.Validate) *JobHandler {
	return &JobHandler{
		jobService:      jobService,
		userService:     userService,
		pipelineService: pipelineService,
		validate:        validate,
	}
}

// RegisterRoutes mounts job routes
func (h *JobHandler) RegisterRoutes(mux *http.ServeMux, authMw, quotaMw func(http.Handler) http.Handler) {
	mux.Handle("/process", authMw(quotaMw(http.HandlerFunc(h.process))))
	mux.Handle("/jobs", authMw(http.HandlerFunc(h.listJobs)))
	mux.Handle("/jobs/", authMw(http.HandlerFunc(h.getJob)))
}

// process godoc
// @Summary Start processing a media source
// @Description Accepts an uploaded file URL or a platform link and starts the transcript-to-posts pipeline in the background.
// @Tags jobs
// @Accept json
// @Produce json
// @Param request body dto.ProcessRequestDTO true "Processing request"
// @Success 202 {object} dto.ProcessAcceptedDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 429 {string} string "Monthly credit limit reached"
// @Failure 500 {string} string "Failed to create job"
// @Router /process [post]
func (h *JobHandler) process(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/process" {
		http.NotFound(w, r)
		return
	}
	userID := middleware.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.ProcessRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	jobType := model.JobType(req.Type)
	if jobType == model.JobTypeUpload && req.FileURL == "" {
		http.Error(w, "fileUrl is required for upload jobs", http.StatusBadRequest)
		return
	}
	if jobType == model.JobTypeURL && req.URL == "" {
		http.Error(w, "url is required for url jobs", http.StatusBadRequest)
		return
	}

	user, err := h.userService.GetOrCreateUser(r.Context(), userID, middleware.Email(r.Context()))
	if err != nil {
		http.Error(w, "Failed to resolve user profile", http.StatusInternalServerError)
		return
	}

	job, err := h.jobService.CreateJob(r.Context(), userID, jobType, req.FileURL, req.URL, req.AIInstructions)
	if err != nil {
		if errors.Is(err, service.ErrJobNoSource) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to create job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.pipelineService.Launch(job, user)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(dto.ProcessAcceptedDTO{
		JobID:  job.JobID,
		Status: string(job.Status),
	})
}

// getJob godoc
// @Summary Get a job
// @Description Retrieves the status, progress and results of a job.
// @Tags jobs
// @Produce json
// @Param jobId path string true "Job ID"
// @Success 200 {object} dto.JobResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 403 {string} string "Access denied: Job belongs to another user"
// @Failure 404 {string} string "Job not found"
// @Failure 500 {string} string "Failed to retrieve job"
// @Router /jobs/{jobId} [get]
func (h *JobHandler) getJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	jobID := strings.TrimPrefix(r.URL.Path, "/jobs/")
	userID := middleware.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	job, err := h.jobService.GetJob(r.Context(), userID, jobID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrJobNotFound):
			http.Error(w, "Job not found", http.StatusNotFound)
		case errors.Is(err, service.ErrJobForbidden):
			http.Error(w, "Access denied: Job belongs to another user", http.StatusForbidden)
		default:
			http.Error(w, "Failed to retrieve job: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(jobToDTO(job))
}

// listJobs godoc
// @Summary List jobs
// @Description Lists the authenticated user's jobs, most recent first.
// @Tags jobs
// @Produce json
// @Param limit query int false "Maximum jobs to return (default 20)"
// @Success 200 {array} dto.JobResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 500 {string} string "Failed to list jobs"
// @Router /jobs [get]
func (h *JobHandler) listJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet || r.URL.Path != "/jobs" {
		http.NotFound(w, r)
		return
	}
	userID := middleware.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	jobs, err := h.jobService.ListJobs(r.Context(), userID, limit)
	if err != nil {
		http.Error(w, "Failed to list jobs: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]dto.JobResponseDTO, 0, len(jobs))
	for i := range jobs {
		resp = append(resp, jobToDTO(&jobs[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func jobToDTO(job *model.Job) dto.JobResponseDTO {
	return dto.JobResponseDTO{
		JobID:       job.JobID,
		Status:      string(job.Status),
		Progress:    job.Progress,
		Type:        string(job.Type),
		FileURL:     job.FileURL,
		URL:         job.ContentURL,
		Posts:       job.Posts,
		Duration:    job.Duration,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
	}
}
