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

const maxThreadTweets = 50

// TwitterClient posts reply-chain threads and reads tweet metrics through
// the X v2 API.
type TwitterClient struct {
	baseURL     string
	accessToken string
	username    string
	httpClient  *http.Client
}

func NewTwitterClient(baseURL, accessToken, username string) *TwitterClient {
	return &TwitterClient{
		baseURL:     baseURL,
		accessToken: accessToken,
		username:    username,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

type tweetRequest struct {
	Text  string `json:"text"`
	Reply *struct {
		InReplyToTweetID string `json:"in_reply_to_tweet_id"`
	} `json:"reply,omitempty"`
}

type tweetResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// PostThread publishes texts as a reply chain, each tweet replying to the
// previous one. Threads are capped at 50 tweets.
func (c *TwitterClient) PostThread(ctx context.Context, texts []string) (*ThreadResult, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("thread has no content")
	}
	if len(texts) > maxThreadTweets {
		texts = texts[:maxThreadTweets]
	}

	tweetIDs := make([]string, 0, len(texts))
	previousID := ""
	for i, text := range texts {
		id, err := c.postTweet(ctx, TruncatePost(text), previousID)
		if err != nil {
			return nil, fmt.Errorf("failed to post tweet %d of %d: %w", i+1, len(texts), err)
		}
		tweetIDs = append(tweetIDs, id)
		previousID = id
	}

	return &ThreadResult{
		TweetIDs:  tweetIDs,
		ThreadURL: fmt.Sprintf("https://x.com/%s/status/%s", c.username, tweetIDs[0]),
	}, nil
}

func (c *TwitterClient) postTweet(ctx context.Context, text, inReplyTo string) (string, error) {
	payload := tweetRequest{Text: text}
	if inReplyTo != "" {
		payload.Reply = &struct {
			InReplyToTweetID string `json:"in_reply_to_tweet_id"`
		}{InReplyToTweetID: inReplyTo}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tweets", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("api returned %d: %s", resp.StatusCode, msg)
	}

	var parsed tweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.Data.ID == "" {
		return "", fmt.Errorf("api returned no tweet id")
	}
	return parsed.Data.ID, nil
}

type metricsResponse struct {
	Data []struct {
		ID            string `json:"id"`
		PublicMetrics struct {
			ImpressionCount int `json:"impression_count"`
			LikeCount       int `json:"like_count"`
			RetweetCount    int `json:"retweet_count"`
			ReplyCount      int `json:"reply_count"`
		} `json:"public_metrics"`
	} `json:"data"`
}

// GetTweetMetrics fetches public engagement counts for up to 100 tweets per
// call.
func (c *TwitterClient) GetTweetMetrics(ctx context.Context, tweetIDs []string) (map[string]TweetMetrics, error) {
	if len(tweetIDs) == 0 {
		return map[string]TweetMetrics{}, nil
	}
	if len(tweetIDs) > 100 {
		tweetIDs = tweetIDs[:100]
	}

	params := url.Values{}
	params.Set("ids", strings.Join(tweetIDs, ","))
	params.Set("tweet.fields", "public_metrics")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/tweets?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("api returned %d: %s", resp.StatusCode, msg)
	}

	var parsed metricsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	metrics := make(map[string]TweetMetrics, len(parsed.Data))
	for _, tweet := range parsed.Data {
		metrics[tweet.ID] = TweetMetrics{
			Impressions: tweet.PublicMetrics.ImpressionCount,
			Likes:       tweet.PublicMetrics.LikeCount,
			Retweets:    tweet.PublicMetrics.RetweetCount,
			Replies:     tweet.PublicMetrics.ReplyCount,
		}
	}
	return metrics, nil
}
