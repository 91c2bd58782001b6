package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	minUploadBytes = 1 << 20
	maxUploadBytes = 500 << 20

	uploadURLTTL = 2 * time.Hour
)

var (
	ErrFileTooSmall    = errors.New("file must be at least 1MB")
	ErrFileTooLarge    = errors.New("file must be at most 500MB")
	ErrUnsupportedFile = errors.New("unsupported file type")
)

var allowedUploadExtensions = map[string]bool{
	".mp3": true, ".mp4": true, ".wav": true, ".m4a": true, ".aac": true,
	".ogg": true, ".webm": true, ".mov": true, ".avi": true, ".flac": true,
}

// StorageService stores uploaded media in object storage and hands back a
// time-limited download URL for the pipeline to fetch.
type StorageService interface {
	// UploadMedia validates and stores the file under a user-scoped key,
	// returning a presigned GET URL valid for two hours.
	UploadMedia(ctx context.Context, userID, filename string, size int64, body io.Reader) (string, error)
}

type storageService struct {
	s3Client      *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	logger        zerolog.Logger
}

// NewStorageService creates a new StorageService with a scoped logger.
func NewStorageService(s3Client *s3.Client, bucket string, logger zerolog.Logger) StorageService {
	return &storageService{
		s3Client:      s3Client,
		presignClient: s3.NewPresignClient(s3Client),
		bucket:        bucket,
		logger:        logger.With().Str("service", "StorageService").Logger(),
	}
}

func (s *storageService) UploadMedia(ctx context.Context, userID, filename string, size int64, body io.Reader) (string, error) {
	if size < minUploadBytes {
		return "", ErrFileTooSmall
	}
	if size > maxUploadBytes {
		return "", ErrFileTooLarge
	}
	ext := strings.ToLower(path.Ext(filename))
	if !allowedUploadExtensions[ext] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFile, ext)
	}

	key := fmt.Sprintf("users/%s/uploads/%s_%s", userID, uuid.NewString(), path.Base(filename))
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("object_key", key).Msg("Failed to store upload")
		return "", fmt.Errorf("failed to store upload: %w", err)
	}

	resp, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(uploadURLTTL))
	if err != nil {
		s.logger.Error().Err(err).Str("object_key", key).Msg("Failed to generate presigned URL")
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	s.logger.Info().Str("user_id", userID).Str("object_key", key).Int64("size", size).Msg("Upload stored")
	return resp.URL, nil
}
