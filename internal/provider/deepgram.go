package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DeepgramClient transcribes remote media via the Deepgram prerecorded API.
type DeepgramClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewDeepgramClient(apiKey, baseURL string, timeout time.Duration) *DeepgramClient {
	return &DeepgramClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type deepgramResponse struct {
	Metadata struct {
		Duration float64 `json:"duration"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func (c *DeepgramClient) TranscribeFromURL(ctx context.Context, mediaURL string) (*TranscriptionResult, error) {
	body, err := json.Marshal(map[string]string{"url": mediaURL})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := c.baseURL + "/v1/listen?model=nova-2&smart_format=true&punctuate=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("transcription service returned %d: %s", resp.StatusCode, msg)
	}

	var parsed deepgramResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(parsed.Results.Channels) == 0 || len(parsed.Results.Channels[0].Alternatives) == 0 {
		return nil, fmt.Errorf("transcription returned no channels")
	}

	transcript := parsed.Results.Channels[0].Alternatives[0].Transcript
	if transcript == "" {
		return nil, fmt.Errorf("transcription returned empty transcript")
	}

	return &TranscriptionResult{
		Transcript: transcript,
		Duration:   parsed.Metadata.Duration,
	}, nil
}
