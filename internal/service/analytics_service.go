package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"app/internal/provider"
)

const (
	analyticsCacheTTL  = 15 * time.Minute
	recentActivityDays = 7
	topPostsLimit      = 5
)

// Analytics aggregates engagement across everything a user has posted to X.
type Analytics struct {
	TotalPosts       int             `json:"totalPosts"`
	TotalTweets      int             `json:"totalTweets"`
	TotalImpressions int             `json:"totalImpressions"`
	TotalLikes       int             `json:"totalLikes"`
	TotalRetweets    int             `json:"totalRetweets"`
	TotalReplies     int             `json:"totalReplies"`
	TotalEngagements int             `json:"totalEngagements"`
	RecentActivity   []DailyActivity `json:"recentActivity"`
	TopPosts         []TopPost       `json:"topPosts"`
	GeneratedAt      time.Time       `json:"generatedAt"`
}

// DailyActivity is one day's posting volume and engagement, UTC calendar days.
type DailyActivity struct {
	Date        string `json:"date"`
	Posts       int    `json:"posts"`
	Tweets      int    `json:"tweets"`
	Engagements int    `json:"engagements"`
}

// TopPost is a published thread ranked by engagement.
type TopPost struct {
	PostID      string    `json:"postId"`
	JobID       string    `json:"jobId"`
	Format      string    `json:"format"`
	ThreadURL   string    `json:"threadUrl"`
	TweetCount  int       `json:"tweetCount"`
	Impressions int       `json:"impressions"`
	Engagements int       `json:"engagements"`
	PostedAt    time.Time `json:"postedAt"`
}

// AnalyticsService computes posting analytics with a best-effort cache in
// front of the metrics API.
type AnalyticsService interface {
	GetUserAnalytics(ctx context.Context, userID string) (*Analytics, error)
}

type analyticsService struct {
	posts   PostService
	metrics provider.MetricsFetcher
	cache   *redis.Client
	logger  zerolog.Logger
	now     func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService with a scoped logger.
// cache may be nil, in which case every request hits the metrics API.
func NewAnalyticsService(posts PostService, metrics provider.MetricsFetcher, cache *redis.Client, logger zerolog.Logger) AnalyticsService {
	return &analyticsService{
		posts:   posts,
		metrics: metrics,
		cache:   cache,
		logger:  logger.With().Str("service", "AnalyticsService").Logger(),
		now:     time.Now,
	}
}

func (s *analyticsService) GetUserAnalytics(ctx context.Context, userID string) (*Analytics, error) {
	if cached := s.fromCache(ctx, userID); cached != nil {
		return cached, nil
	}

	records, err := s.posts.ListPosts(ctx, userID, 100)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	analytics := &Analytics{GeneratedAt: now}

	tweetIDs := make([]string, 0, len(records))
	for _, record := range records {
		analytics.TotalPosts++
		analytics.TotalTweets += record.TweetCount
		tweetIDs = append(tweetIDs, record.TweetIDs...)
	}

	var metrics map[string]provider.TweetMetrics
	if len(tweetIDs) > 0 {
		metrics, err = s.metrics.GetTweetMetrics(ctx, tweetIDs)
		if err != nil {
			// Metrics are best effort: serve counts without engagement
			// rather than failing the request.
			s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch tweet metrics")
			metrics = nil
		}
	}

	byDay := make(map[string]*DailyActivity, recentActivityDays)
	for i := recentActivityDays - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		day := &DailyActivity{Date: date}
		byDay[date] = day
		analytics.RecentActivity = append(analytics.RecentActivity, DailyActivity{Date: date})
	}

	top := make([]TopPost, 0, len(records))
	for _, record := range records {
		var impressions, engagements int
		for _, id := range record.TweetIDs {
			m, ok := metrics[id]
			if !ok {
				continue
			}
			analytics.TotalImpressions += m.Impressions
			analytics.TotalLikes += m.Likes
			analytics.TotalRetweets += m.Retweets
			analytics.TotalReplies += m.Replies
			impressions += m.Impressions
			engagements += m.Likes + m.Retweets + m.Replies
		}

		if day, ok := byDay[record.PostedAt.UTC().Format("2006-01-02")]; ok {
			day.Posts++
			day.Tweets += record.TweetCount
			day.Engagements += engagements
		}

		top = append(top, TopPost{
			PostID:      record.PostID,
			JobID:       record.JobID,
			Format:      record.Format,
			ThreadURL:   record.ThreadURL,
			TweetCount:  record.TweetCount,
			Impressions: impressions,
			Engagements: engagements,
			PostedAt:    record.PostedAt,
		})
	}
	analytics.TotalEngagements = analytics.TotalLikes + analytics.TotalRetweets + analytics.TotalReplies

	for i := range analytics.RecentActivity {
		analytics.RecentActivity[i] = *byDay[analytics.RecentActivity[i].Date]
	}

	sort.SliceStable(top, func(i, j int) bool {
		if top[i].Engagements != top[j].Engagements {
			return top[i].Engagements > top[j].Engagements
		}
		return top[i].PostedAt.After(top[j].PostedAt)
	})
	if len(top) > topPostsLimit {
		top = top[:topPostsLimit]
	}
	analytics.TopPosts = top

	s.toCache(ctx, userID, analytics)
	return analytics, nil
}

func (s *analyticsService) fromCache(ctx context.Context, userID string) *Analytics {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, analyticsCacheKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("Analytics cache read failed")
		}
		return nil
	}
	var analytics Analytics
	if err := json.Unmarshal(raw, &analytics); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Analytics cache entry corrupt")
		return nil
	}
	return &analytics
}

func (s *analyticsService) toCache(ctx context.Context, userID string, analytics *Analytics) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(analytics)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, analyticsCacheKey(userID), raw, analyticsCacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Analytics cache write failed")
	}
}

func analyticsCacheKey(userID string) string {
	return "analytics:" + userID
}
