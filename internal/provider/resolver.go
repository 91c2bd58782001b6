package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var directMediaExtensions = []string{".mp3", ".mp4", ".wav", ".m4a", ".aac", ".ogg", ".webm", ".mov", ".avi", ".flac"}

var platformDomains = []string{
	"youtube.com", "youtu.be",
	"tiktok.com",
	"instagram.com",
	"twitter.com", "x.com",
	"facebook.com", "fb.watch",
	"vimeo.com",
	"twitch.tv",
}

// IsDirectMediaURL reports whether the URL path ends in a known audio or
// video file extension.
func IsDirectMediaURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	for _, ext := range directMediaExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// IsPlatformURL reports whether the URL belongs to a supported video
// platform.
func IsPlatformURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, domain := range platformDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// MediaResolver extracts direct media URLs from arbitrary pages (podcast
// episodes, articles with embedded audio) through an external extractor
// service. Known-platform links never come through here; the transcriber
// retrieves those itself.
type MediaResolver struct {
	baseURL    string
	httpClient *http.Client
}

func NewMediaResolver(baseURL string, timeout time.Duration) *MediaResolver {
	return &MediaResolver{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type extractionResponse struct {
	MediaURL string   `json:"mediaUrl"`
	Title    string   `json:"title"`
	Duration *float64 `json:"duration"`
}

func (r *MediaResolver) ExtractMediaURL(ctx context.Context, contentURL string) (*ExtractionResult, error) {
	body, err := json.Marshal(map[string]string{"url": contentURL})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/extract", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extraction request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("extractor returned %d: %s", resp.StatusCode, msg)
	}

	var parsed extractionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.MediaURL == "" {
		return nil, fmt.Errorf("extractor returned no media URL")
	}

	return &ExtractionResult{
		MediaURL: parsed.MediaURL,
		Title:    parsed.Title,
		Duration: parsed.Duration,
	}, nil
}
