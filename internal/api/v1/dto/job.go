package dto

import "time"

// ProcessRequestDTO is used for incoming processing requests
type ProcessRequestDTO struct {
	Type           string `json:"type" validate:"required,oneof=upload url"`
	FileURL        string `json:"fileUrl,omitempty" validate:"omitempty,url"`
	URL            string `json:"url,omitempty" validate:"omitempty,url"`
	AIInstructions string `json:"aiInstructions,omitempty" validate:"omitempty,max=1000"`
}

// ProcessAcceptedDTO acknowledges an accepted processing request
type ProcessAcceptedDTO struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

// JobResponseDTO is returned in API responses for jobs
type JobResponseDTO struct {
	JobID       string              `json:"jobId"`
	Status      string              `json:"status"`
	Progress    int                 `json:"progress"`
	Type        string              `json:"type"`
	FileURL     string              `json:"fileUrl,omitempty"`
	URL         string              `json:"url,omitempty"`
	Posts       map[string][]string `json:"posts,omitempty"`
	Duration    *float64            `json:"duration,omitempty"`
	Error       string              `json:"error,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	CompletedAt *time.Time          `json:"completedAt,omitempty"`
}
