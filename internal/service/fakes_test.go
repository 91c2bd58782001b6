package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"app/internal/model"
	"app/internal/provider"
)

var errRepoDown = errors.New("repository unavailable")

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	mu         sync.Mutex
	users      map[string]*model.User
	failReads  bool
	failWrites bool
	resets     int
	increments int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (r *fakeUserRepo) CreateUser(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites {
		return errRepoDown
	}
	// Mirrors ux_users_email: unique over non-empty emails only.
	if u.Email != "" {
		for _, existing := range r.users {
			if existing.Email == u.Email {
				return errors.New("duplicate email")
			}
		}
	}
	clone := *u
	r.users[u.UserID] = &clone
	return nil
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failReads {
		return nil, errRepoDown
	}
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failReads {
		return nil, errRepoDown
	}
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetUserByCustomerID(_ context.Context, customerID string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failReads {
		return nil, errRepoDown
	}
	for _, u := range r.users {
		if u.CustomerID != nil && *u.CustomerID == customerID {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdateTier(_ context.Context, userID string, tier model.Tier, bundle model.TierBundle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites {
		return errRepoDown
	}
	u, ok := r.users[userID]
	if !ok {
		return errors.New("user not found")
	}
	u.Tier = tier
	u.MaxCredits = bundle.MaxCredits
	u.MaxDurationSeconds = bundle.MaxDurationSeconds
	u.Features = bundle.Features
	return nil
}

func (r *fakeUserRepo) UpdateCustomerID(_ context.Context, userID, customerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.CustomerID = &customerID
	}
	return nil
}

func (r *fakeUserRepo) IncrementCredits(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites {
		return errRepoDown
	}
	if u, ok := r.users[userID]; ok {
		u.CreditsUsed++
		r.increments++
	}
	return nil
}

func (r *fakeUserRepo) ResetCredits(_ context.Context, userID string, nextReset time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites {
		return errRepoDown
	}
	if u, ok := r.users[userID]; ok {
		u.CreditsUsed = 0
		u.ResetDate = nextReset
		r.resets++
	}
	return nil
}

// fakeJobRepo is an in-memory JobRepository. Terminal jobs are immutable,
// matching the SQL guard in the real repository.
type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*model.Job
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: map[string]*model.Job{}}
}

func (r *fakeJobRepo) CreateJob(_ context.Context, j *model.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *j
	r.jobs[j.JobID] = &clone
	return nil
}

func (r *fakeJobRepo) UpdateProgress(_ context.Context, jobID string, progress int, status model.JobStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[jobID]; ok && !j.Status.Terminal() {
		j.Progress = progress
		j.Status = status
	}
	return nil
}

func (r *fakeJobRepo) MarkCompleted(_ context.Context, jobID string, posts model.PostsByFormat, duration *float64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	if !ok || j.Status.Terminal() {
		return false, nil
	}
	now := time.Now().UTC()
	j.Status = model.JobStatusCompleted
	j.Progress = 100
	j.Posts = posts
	j.Duration = duration
	j.CompletedAt = &now
	return true, nil
}

func (r *fakeJobRepo) MarkFailed(_ context.Context, jobID, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[jobID]; ok && !j.Status.Terminal() {
		now := time.Now().UTC()
		j.Status = model.JobStatusFailed
		j.Error = message
		j.CompletedAt = &now
	}
	return nil
}

func (r *fakeJobRepo) GetJobByID(_ context.Context, jobID string) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	if !ok {
		return nil, nil
	}
	clone := *j
	return &clone, nil
}

func (r *fakeJobRepo) GetJobsByUserID(_ context.Context, userID string, limit int) ([]model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var jobs []model.Job
	for _, j := range r.jobs {
		if j.UserID == userID && len(jobs) < limit {
			jobs = append(jobs, *j)
		}
	}
	return jobs, nil
}

// fakePostRepo is an in-memory PostRepository.
type fakePostRepo struct {
	mu    sync.Mutex
	posts []model.PostRecord
}

func (r *fakePostRepo) CreatePost(_ context.Context, p *model.PostRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = append(r.posts, *p)
	return nil
}

func (r *fakePostRepo) GetPostsByUserID(_ context.Context, userID string, limit int) ([]model.PostRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.PostRecord
	for _, p := range r.posts {
		if p.UserID == userID && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeWebhookRepo is an in-memory WebhookRepository.
type fakeWebhookRepo struct {
	mu     sync.Mutex
	events []model.WebhookEvent
}

func (r *fakeWebhookRepo) LogEvent(_ context.Context, e *model.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *e)
	return nil
}

// fake providers for pipeline tests.

type fakeResolver struct {
	result *provider.ExtractionResult
	err    error
	calls  int
}

func (f *fakeResolver) ExtractMediaURL(_ context.Context, _ string) (*provider.ExtractionResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeTranscriber struct {
	result *provider.TranscriptionResult
	err    error
	gotURL string
}

func (f *fakeTranscriber) TranscribeFromURL(_ context.Context, mediaURL string) (*provider.TranscriptionResult, error) {
	f.gotURL = mediaURL
	return f.result, f.err
}

type fakeGenerator struct {
	result model.PostsByFormat
	err    error
	panics bool
}

func (f *fakeGenerator) GeneratePosts(_ context.Context, _, _ string) (model.PostsByFormat, error) {
	if f.panics {
		panic("generator exploded")
	}
	return f.result, f.err
}

type fakePoster struct {
	result   *provider.ThreadResult
	err      error
	gotTexts []string
}

func (f *fakePoster) PostThread(_ context.Context, texts []string) (*provider.ThreadResult, error) {
	f.gotTexts = texts
	return f.result, f.err
}

type fakeMetrics struct {
	metrics map[string]provider.TweetMetrics
	err     error
}

func (f *fakeMetrics) GetTweetMetrics(_ context.Context, _ []string) (map[string]provider.TweetMetrics, error) {
	return f.metrics, f.err
}
