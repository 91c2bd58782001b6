package provider

import (
	"context"

	"app/internal/model"
)

// TranscriptionResult is the output of a speech-to-text pass over a media URL.
type TranscriptionResult struct {
	Transcript string
	Duration   float64
}

// Transcriber converts spoken audio at a fetchable URL into text.
type Transcriber interface {
	TranscribeFromURL(ctx context.Context, mediaURL string) (*TranscriptionResult, error)
}

// Generator turns a transcript into short-form posts grouped by format.
type Generator interface {
	GeneratePosts(ctx context.Context, transcript, instructions string) (model.PostsByFormat, error)
}

// ExtractionResult describes the direct media stream behind a platform link.
type ExtractionResult struct {
	MediaURL string
	Title    string
	Duration *float64
}

// Resolver extracts a directly fetchable media URL from a platform link.
type Resolver interface {
	ExtractMediaURL(ctx context.Context, contentURL string) (*ExtractionResult, error)
}

// ThreadResult identifies a thread posted to X.
type ThreadResult struct {
	TweetIDs  []string
	ThreadURL string
}

// TweetMetrics are public engagement counts for a single tweet.
type TweetMetrics struct {
	Impressions int `json:"impressions"`
	Likes       int `json:"likes"`
	Retweets    int `json:"retweets"`
	Replies     int `json:"replies"`
}

// Poster publishes a sequence of texts as a reply chain on X.
type Poster interface {
	PostThread(ctx context.Context, texts []string) (*ThreadResult, error)
}

// MetricsFetcher retrieves engagement metrics for previously posted tweets.
type MetricsFetcher interface {
	GetTweetMetrics(ctx context.Context, tweetIDs []string) (map[string]TweetMetrics, error)
}
