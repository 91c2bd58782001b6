package dto

import "time"

// PostThreadRequestDTO is used for incoming post-to-X requests
type PostThreadRequestDTO struct {
	JobID        string `json:"jobId" validate:"required"`
	Format       string `json:"format" validate:"required"`
	VariantIndex int    `json:"variantIndex" validate:"gte=0"`
}

// PostResponseDTO is returned in API responses for posted threads
type PostResponseDTO struct {
	PostID       string    `json:"postId"`
	JobID        string    `json:"jobId"`
	Format       string    `json:"format"`
	VariantIndex int       `json:"variantIndex"`
	TweetIDs     []string  `json:"tweetIds"`
	ThreadURL    string    `json:"threadUrl"`
	TweetCount   int       `json:"tweetCount"`
	PostedAt     time.Time `json:"postedAt"`
}

// UploadResponseDTO is returned after a successful media upload
type UploadResponseDTO struct {
	FileURL string `json:"fileUrl"`
}
