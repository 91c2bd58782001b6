package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"app/internal/model"
	"app/internal/provider"
	"app/internal/repository"
)

var (
	ErrJobNotCompleted   = errors.New("job is not completed")
	ErrUnknownPostFormat = errors.New("unknown post format")
	ErrInvalidVariant    = errors.New("variant index out of range")
)

// PostService publishes generated posts to X and keeps the posting history.
type PostService interface {
	// PostToX publishes the selected variant of a completed job as a
	// thread and records the result.
	PostToX(ctx context.Context, userID, jobID, format string, variantIndex int) (*model.PostRecord, error)
	ListPosts(ctx context.Context, userID string, limit int) ([]model.PostRecord, error)
}

type postService struct {
	jobs   JobService
	repo   repository.PostRepository
	poster provider.Poster
	logger zerolog.Logger
	newID  func() string
	now    func() time.Time
}

// NewPostService creates a new PostService with a scoped logger.
func NewPostService(jobs JobService, repo repository.PostRepository, poster provider.Poster, logger zerolog.Logger, newID func() string) PostService {
	return &postService{
		jobs:   jobs,
		repo:   repo,
		poster: poster,
		logger: logger.With().Str("service", "PostService").Logger(),
		newID:  newID,
		now:    time.Now,
	}
}

func (s *postService) PostToX(ctx context.Context, userID, jobID, format string, variantIndex int) (*model.PostRecord, error) {
	job, err := s.jobs.GetJob(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobStatusCompleted {
		return nil, fmt.Errorf("%w: current status is %s", ErrJobNotCompleted, job.Status)
	}

	variants, ok := job.Posts[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPostFormat, format)
	}
	if variantIndex < 0 || variantIndex >= len(variants) {
		return nil, fmt.Errorf("%w: must be between 0 and %d", ErrInvalidVariant, len(variants)-1)
	}

	texts := splitThread(variants[variantIndex])
	result, err := s.poster.PostThread(ctx, texts)
	if err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to post thread")
		return nil, err
	}

	record := &model.PostRecord{
		PostID:       s.newID(),
		UserID:       userID,
		JobID:        jobID,
		Format:       format,
		VariantIndex: variantIndex,
		TweetIDs:     result.TweetIDs,
		ThreadURL:    result.ThreadURL,
		TweetCount:   len(result.TweetIDs),
		PostedAt:     s.now().UTC(),
	}
	if err := s.repo.CreatePost(ctx, record); err != nil {
		s.logger.Error().Err(err).Str("post_id", record.PostID).Msg("Failed to save post record")
		return nil, err
	}

	s.logger.Info().Str("post_id", record.PostID).Str("job_id", jobID).Int("tweets", record.TweetCount).Msg("Thread posted")
	return record, nil
}

func (s *postService) ListPosts(ctx context.Context, userID string, limit int) ([]model.PostRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	posts, err := s.repo.GetPostsByUserID(ctx, userID, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to list posts")
		return nil, err
	}
	return posts, nil
}

// splitThread breaks a post into tweet-sized segments on paragraph
// boundaries. Single-paragraph posts become one tweet.
func splitThread(text string) []string {
	paragraphs := strings.Split(text, "\n\n")
	texts := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		texts = append(texts, p)
	}
	if len(texts) == 0 {
		texts = []string{text}
	}
	return texts
}
