package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"app/internal/model"
	"app/internal/provider"
)

// PipelineService runs the media-to-posts pipeline for a job in the
// background.
type PipelineService interface {
	// Launch starts processing the job in a goroutine and returns
	// immediately. Progress and the terminal outcome are written to the
	// job store.
	Launch(job *model.Job, user *model.User)
}

type pipelineService struct {
	jobs        JobService
	resolver    provider.Resolver
	transcriber provider.Transcriber
	generator   provider.Generator
	logger      zerolog.Logger
	timeout     time.Duration
}

// NewPipelineService creates a new PipelineService with a scoped logger.
func NewPipelineService(jobs JobService, resolver provider.Resolver, transcriber provider.Transcriber, generator provider.Generator, logger zerolog.Logger, timeout time.Duration) PipelineService {
	return &pipelineService{
		jobs:        jobs,
		resolver:    resolver,
		transcriber: transcriber,
		generator:   generator,
		logger:      logger.With().Str("service", "PipelineService").Logger(),
		timeout:     timeout,
	}
}

func (s *pipelineService) Launch(job *model.Job, user *model.User) {
	go s.run(job, user)
}

// run executes the pipeline stages on a fresh context so that the spawning
// request finishing does not cancel the work.
func (s *pipelineService) run(job *model.Job, user *model.User) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("job_id", job.JobID).Interface("panic", r).Msg("Pipeline panicked")
			s.fail(job.JobID, fmt.Sprintf("Processing error: %v", r))
		}
	}()

	mediaURL, err := s.resolveSource(ctx, job)
	if err != nil {
		s.fail(job.JobID, fmt.Sprintf("URL extraction failed: %v", err))
		return
	}

	s.advance(ctx, job.JobID, model.JobStatusTranscribing, 25)
	result, err := s.transcriber.TranscribeFromURL(ctx, mediaURL)
	if err != nil {
		s.fail(job.JobID, fmt.Sprintf("Transcription failed: %v", err))
		return
	}
	if user.MaxDurationSeconds > 0 && result.Duration > float64(user.MaxDurationSeconds) {
		s.fail(job.JobID, fmt.Sprintf("Media is %.0fs long, which exceeds the %ds limit for the %s plan", result.Duration, user.MaxDurationSeconds, user.Tier))
		return
	}

	s.advance(ctx, job.JobID, model.JobStatusGenerating, 75)
	posts, err := s.generator.GeneratePosts(ctx, result.Transcript, job.AIInstructions)
	if err != nil {
		s.fail(job.JobID, fmt.Sprintf("Post generation failed: %v", err))
		return
	}

	duration := result.Duration
	if err := s.jobs.CompleteJob(ctx, job.JobID, job.UserID, posts, &duration); err != nil {
		s.logger.Error().Err(err).Str("job_id", job.JobID).Msg("Failed to persist completed job")
	}
}

// resolveSource returns a URL the transcriber can consume. Uploads, direct
// media links, and known-platform links pass through; the transcriber
// retrieves platform media itself. Everything else goes through the
// extractor.
func (s *pipelineService) resolveSource(ctx context.Context, job *model.Job) (string, error) {
	source := job.SourceURL()
	if job.Type == model.JobTypeUpload || provider.IsDirectMediaURL(source) || provider.IsPlatformURL(source) {
		return source, nil
	}

	s.advance(ctx, job.JobID, model.JobStatusProcessing, 10)
	extracted, err := s.resolver.ExtractMediaURL(ctx, source)
	if err != nil {
		return "", err
	}
	return extracted.MediaURL, nil
}

func (s *pipelineService) advance(ctx context.Context, jobID string, status model.JobStatus, progress int) {
	if err := s.jobs.AdvanceJob(ctx, jobID, status, progress); err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to record pipeline progress")
	}
}

// fail writes the terminal failure on a context that outlives the stage
// timeout, so a timed-out stage can still be recorded.
func (s *pipelineService) fail(jobID, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.jobs.FailJob(ctx, jobID, message); err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to record pipeline failure")
	}
}
