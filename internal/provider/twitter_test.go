package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTweetServer(t *testing.T, requests *[]tweetRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tweets" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		var req tweetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		*requests = append(*requests, req)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"data":{"id":"%d"}}`, len(*requests))
	}))
}

func TestPostThreadChainsReplies(t *testing.T) {
	var requests []tweetRequest
	srv := newTweetServer(t, &requests)
	defer srv.Close()

	c := NewTwitterClient(srv.URL, "token", "acct")
	result, err := c.PostThread(context.Background(), []string{"first", "second", "third"})
	if err != nil {
		t.Fatalf("PostThread returned error: %v", err)
	}

	if len(result.TweetIDs) != 3 {
		t.Fatalf("expected 3 tweet ids, got %v", result.TweetIDs)
	}
	if result.ThreadURL != "https://x.com/acct/status/1" {
		t.Fatalf("unexpected thread url %q", result.ThreadURL)
	}

	if requests[0].Reply != nil {
		t.Fatal("first tweet must not be a reply")
	}
	if requests[1].Reply == nil || requests[1].Reply.InReplyToTweetID != "1" {
		t.Fatalf("second tweet must reply to the first, got %+v", requests[1].Reply)
	}
	if requests[2].Reply == nil || requests[2].Reply.InReplyToTweetID != "2" {
		t.Fatalf("third tweet must reply to the second, got %+v", requests[2].Reply)
	}
}

func TestPostThreadCapsAtFiftyTweets(t *testing.T) {
	var requests []tweetRequest
	srv := newTweetServer(t, &requests)
	defer srv.Close()

	texts := make([]string, 60)
	for i := range texts {
		texts[i] = fmt.Sprintf("tweet %d", i)
	}

	c := NewTwitterClient(srv.URL, "token", "acct")
	result, err := c.PostThread(context.Background(), texts)
	if err != nil {
		t.Fatalf("PostThread returned error: %v", err)
	}
	if len(result.TweetIDs) != 50 {
		t.Fatalf("expected 50 tweets, got %d", len(result.TweetIDs))
	}
}

func TestPostThreadTruncatesLongTexts(t *testing.T) {
	var requests []tweetRequest
	srv := newTweetServer(t, &requests)
	defer srv.Close()

	c := NewTwitterClient(srv.URL, "token", "acct")
	long := strings.Repeat("x", 300)
	if _, err := c.PostThread(context.Background(), []string{long}); err != nil {
		t.Fatalf("PostThread returned error: %v", err)
	}

	sent := []rune(requests[0].Text)
	if len(sent) != 280 {
		t.Fatalf("expected 280 runes, got %d", len(sent))
	}
	if !strings.HasSuffix(requests[0].Text, "...") {
		t.Fatal("truncated text must end with ellipsis")
	}
}

func TestPostThreadEmpty(t *testing.T) {
	c := NewTwitterClient("http://unused", "token", "acct")
	if _, err := c.PostThread(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty thread")
	}
}

func TestGetTweetMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ids") != "1,2" {
			http.Error(w, "unexpected ids", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"data":[
            {"id":"1","public_metrics":{"impression_count":10,"like_count":2,"retweet_count":1,"reply_count":0}},
            {"id":"2","public_metrics":{"impression_count":5,"like_count":1,"retweet_count":0,"reply_count":3}}
        ]}`)
	}))
	defer srv.Close()

	c := NewTwitterClient(srv.URL, "token", "acct")
	metrics, err := c.GetTweetMetrics(context.Background(), []string{"1", "2"})
	if err != nil {
		t.Fatalf("GetTweetMetrics returned error: %v", err)
	}
	if metrics["1"].Impressions != 10 || metrics["1"].Likes != 2 {
		t.Fatalf("unexpected metrics for tweet 1: %+v", metrics["1"])
	}
	if metrics["2"].Replies != 3 {
		t.Fatalf("unexpected metrics for tweet 2: %+v", metrics["2"])
	}
}
