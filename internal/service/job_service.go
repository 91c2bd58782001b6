package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"app/internal/model"
	"app/internal/repository"
)

var (
	ErrJobNotFound  = errors.New("job not found")
	ErrJobForbidden = errors.New("job belongs to another user")
	ErrJobNoSource  = errors.New("job must have exactly one of fileUrl or url")
)

// JobService owns the lifecycle of processing jobs.
type JobService interface {
	// CreateJob validates the source and persists a new job in the
	// processing state.
	CreateJob(ctx context.Context, userID string, jobType model.JobType, fileURL, contentURL, aiInstructions string) (*model.Job, error)
	// GetJob returns the job, enforcing that it belongs to userID.
	GetJob(ctx context.Context, userID, jobID string) (*model.Job, error)
	ListJobs(ctx context.Context, userID string, limit int) ([]model.Job, error)
	// AdvanceJob moves a live job to an intermediate status. Terminal jobs
	// are left untouched.
	AdvanceJob(ctx context.Context, jobID string, status model.JobStatus, progress int) error
	// CompleteJob records results and charges one credit. The charge is
	// best effort.
	CompleteJob(ctx context.Context, jobID, userID string, posts model.PostsByFormat, duration *float64) error
	// FailJob records the failure message. The first terminal write wins.
	FailJob(ctx context.Context, jobID, message string) error
}

type jobService struct {
	repo   repository.JobRepository
	users  UserService
	logger zerolog.Logger
	newID  func() string
	now    func() time.Time
}

// NewJobService creates a new JobService with a scoped logger.
func NewJobService(repo repository.JobRepository, users UserService, logger zerolog.Logger, newID func() string) JobService {
	return &jobService{
		repo:   repo,
		users:  users,
		logger: logger.With().Str("service", "JobService").Logger(),
		newID:  newID,
		now:    time.Now,
	}
}

func (s *jobService) CreateJob(ctx context.Context, userID string, jobType model.JobType, fileURL, contentURL, aiInstructions string) (*model.Job, error) {
	if (fileURL == "") == (contentURL == "") {
		return nil, ErrJobNoSource
	}

	job := &model.Job{
		JobID:          s.newID(),
		UserID:         userID,
		Status:         model.JobStatusProcessing,
		Progress:       0,
		Type:           jobType,
		FileURL:        fileURL,
		ContentURL:     contentURL,
		AIInstructions: aiInstructions,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create job")
		return nil, err
	}
	s.logger.Info().Str("job_id", job.JobID).Str("user_id", userID).Str("type", string(jobType)).Msg("Job created")
	return job, nil
}

func (s *jobService) GetJob(ctx context.Context, userID, jobID string) (*model.Job, error) {
	job, err := s.repo.GetJobByID(ctx, jobID)
	if err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to fetch job")
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	if job.UserID != userID {
		return nil, ErrJobForbidden
	}
	return job, nil
}

func (s *jobService) ListJobs(ctx context.Context, userID string, limit int) ([]model.Job, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	jobs, err := s.repo.GetJobsByUserID(ctx, userID, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to list jobs")
		return nil, err
	}
	return jobs, nil
}

func (s *jobService) AdvanceJob(ctx context.Context, jobID string, status model.JobStatus, progress int) error {
	if err := s.repo.UpdateProgress(ctx, jobID, progress, status); err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Str("status", string(status)).Msg("Failed to advance job")
		return err
	}
	return nil
}

func (s *jobService) CompleteJob(ctx context.Context, jobID, userID string, posts model.PostsByFormat, duration *float64) error {
	completed, err := s.repo.MarkCompleted(ctx, jobID, posts, duration)
	if err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to mark job completed")
		return err
	}
	if !completed {
		// Job already reached a terminal state; charging now would bill a
		// job the user sees as failed.
		s.logger.Warn().Str("job_id", jobID).Msg("Completion skipped, job already terminal")
		return nil
	}
	s.logger.Info().Str("job_id", jobID).Msg("Job completed")

	s.users.ConsumeCredit(ctx, userID)
	return nil
}

func (s *jobService) FailJob(ctx context.Context, jobID, message string) error {
	if err := s.repo.MarkFailed(ctx, jobID, message); err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to mark job failed")
		return err
	}
	s.logger.Warn().Str("job_id", jobID).Str("error", message).Msg("Job failed")
	return nil
}
