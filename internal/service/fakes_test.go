package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	config "github.com/crossposthq/crosspost/configs"
	"github.com/crossposthq/crosspost/internal/models"
	"github.com/crossposthq/crosspost/internal/provider"
	"github.com/crossposthq/crosspost/internal/repository"
	"github.com/crossposthq/crosspost/internal/transfer"
	"github.com/crossposthq/crosspost/pkg/utils"
	"github.com/stretchr/testify/require"
)

const (
	testUserID    = int64(1)
	testSecretKey = "0123456789abcdef0123456789abcdef"
	testAPIKey    = "stub-plain-api-key"
	stubVariant   = "stub"
)

type fakePostRepo struct {
	mu            sync.Mutex
	nextID        int64
	posts         map[int64]*models.Post
	contentWrites int
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[int64]*models.Post)}
}

func clonePost(p *models.Post) *models.Post {
	cp := *p
	return &cp
}

func (r *fakePostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	cp := clonePost(post)
	cp.ID = r.nextID
	r.posts[cp.ID] = cp
	return cp.ID, nil
}

func (r *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	return clonePost(p), nil
}

func (r *fakePostRepo) List(ctx context.Context, userID int64, filter transfer.PostFilter) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Post
	for _, p := range r.posts {
		if p.UserID != userID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, clonePost(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func effectiveTime(p *models.Post) time.Time {
	if p.PublishedTime.Valid {
		return p.PublishedTime.Time
	}
	return p.ScheduledTime
}

func (r *fakePostRepo) ListByTimeRange(ctx context.Context, userID int64, start, end time.Time) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Post
	for _, p := range r.posts {
		if p.UserID != userID {
			continue
		}
		at := effectiveTime(p)
		if at.Before(start) || at.After(end) {
			continue
		}
		out = append(out, clonePost(p))
	}
	sort.Slice(out, func(i, j int) bool { return effectiveTime(out[i]).Before(effectiveTime(out[j])) })
	return out, nil
}

func (r *fakePostRepo) ListPublishedSince(ctx context.Context, userID int64, cutoff time.Time) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Post
	for _, p := range r.posts {
		if p.UserID != userID || p.Status != models.PostStatusPublished {
			continue
		}
		if !p.PublishedTime.Valid || p.PublishedTime.Time.Before(cutoff) {
			continue
		}
		out = append(out, clonePost(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakePostRepo) ListByCampaignID(ctx context.Context, campaignID int64) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Post
	for _, p := range r.posts {
		if p.CampaignID.Valid && p.CampaignID.Int64 == campaignID {
			out = append(out, clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakePostRepo) UpdateContent(ctx context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contentWrites++
	if stored, ok := r.posts[post.ID]; ok {
		stored.Content = post.Content
		stored.PostType = post.PostType
		stored.MediaURLs = post.MediaURLs
		stored.Platforms = post.Platforms
		stored.ScheduledTime = post.ScheduledTime
		stored.CampaignID = post.CampaignID
	}
	return nil
}

func (r *fakePostRepo) UpdateStatus(ctx context.Context, postID int64, status, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.posts[postID]; ok {
		stored.Status = status
		stored.ErrorMessage = sql.NullString{String: errorMessage, Valid: errorMessage != ""}
	}
	return nil
}

func (r *fakePostRepo) MarkPublished(ctx context.Context, postID int64, publishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.posts[postID]; ok {
		stored.Status = models.PostStatusPublished
		stored.PublishedTime = sql.NullTime{Time: publishedAt, Valid: true}
		stored.ErrorMessage = sql.NullString{}
	}
	return nil
}

func (r *fakePostRepo) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	return ok && p.UserID == userID, nil
}

func (r *fakePostRepo) Remove(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.posts, id)
	return nil
}

func (r *fakePostRepo) get(id int64) *models.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	return clonePost(r.posts[id])
}

type fakeTargetRepo struct {
	mu      sync.Mutex
	targets map[int64]map[int64]*models.PostTarget
}

func newFakeTargetRepo() *fakeTargetRepo {
	return &fakeTargetRepo{targets: make(map[int64]map[int64]*models.PostTarget)}
}

func (r *fakeTargetRepo) Create(ctx context.Context, tx *sql.Tx, target *models.PostTarget) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byAccount, ok := r.targets[target.PostID]
	if !ok {
		byAccount = make(map[int64]*models.PostTarget)
		r.targets[target.PostID] = byAccount
	}
	if _, exists := byAccount[target.AccountID]; !exists {
		cp := *target
		byAccount[target.AccountID] = &cp
	}
	return nil
}

func (r *fakeTargetRepo) ListByPostID(ctx context.Context, postID int64) ([]*models.PostTarget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.PostTarget
	for _, t := range r.targets[postID] {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, nil
}

func (r *fakeTargetRepo) SetProviderPostID(ctx context.Context, postID, accountID int64, providerPostID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.targets[postID][accountID]; ok {
		t.ProviderPostID = sql.NullString{String: providerPostID, Valid: true}
		t.LastError = sql.NullString{}
	}
	return nil
}

func (r *fakeTargetRepo) SetLastError(ctx context.Context, postID, accountID int64, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.targets[postID][accountID]; ok {
		t.LastError = sql.NullString{String: message, Valid: true}
	}
	return nil
}

func (r *fakeTargetRepo) DeleteByPostID(ctx context.Context, tx *sql.Tx, postID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.targets, postID)
	return nil
}

func (r *fakeTargetRepo) get(postID, accountID int64) *models.PostTarget {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.targets[postID][accountID]
	if !ok {
		return nil
	}
	cp := *t
	return &cp
}

func (r *fakeTargetRepo) seed(target *models.PostTarget) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byAccount, ok := r.targets[target.PostID]
	if !ok {
		byAccount = make(map[int64]*models.PostTarget)
		r.targets[target.PostID] = byAccount
	}
	cp := *target
	byAccount[target.AccountID] = &cp
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]*models.SocialAccount
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[int64]*models.SocialAccount)}
}

func (r *fakeAccountRepo) Create(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	cp := *sa
	cp.ID = r.nextID
	if cp.Status == "" {
		cp.Status = models.AccountStatusActive
	}
	r.accounts[cp.ID] = &cp
	return cp.ID, nil
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sa, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *sa
	return &cp, nil
}

func (r *fakeAccountRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SocialAccount
	for _, sa := range r.accounts {
		if sa.UserID == userID {
			cp := *sa
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeAccountRepo) ListByIDs(ctx context.Context, userID int64, ids []int64) ([]*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[int64]struct{}, len(ids))
	var out []*models.SocialAccount
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if sa, ok := r.accounts[id]; ok && sa.UserID == userID {
			cp := *sa
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeAccountRepo) CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sa, ok := r.accounts[accountID]
	return ok && sa.UserID == userID, nil
}

func (r *fakeAccountRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sa, ok := r.accounts[id]; ok {
		sa.Status = status
	}
	return nil
}

func (r *fakeAccountRepo) SetPrimary(ctx context.Context, userID, accountID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	target, ok := r.accounts[accountID]
	if !ok || target.UserID != userID {
		return nil
	}
	for _, sa := range r.accounts {
		if sa.UserID == userID && sa.Platform == target.Platform && sa.ProfileID == target.ProfileID {
			sa.IsPrimary = sa.ID == accountID
		}
	}
	return nil
}

func (r *fakeAccountRepo) UpsertFromProfile(ctx context.Context, sa *models.SocialAccount) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.UserID == sa.UserID && existing.Platform == sa.Platform && existing.ProfileID == sa.ProfileID {
			existing.AccountName = sa.AccountName
			existing.Handle = sa.Handle
			existing.Status = sa.Status
			existing.Metadata = sa.Metadata
			return existing.ID, nil
		}
	}
	r.nextID++
	cp := *sa
	cp.ID = r.nextID
	r.accounts[cp.ID] = &cp
	return cp.ID, nil
}

func (r *fakeAccountRepo) Remove(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.accounts, id)
	return nil
}

type fakeCampaignRepo struct {
	mu        sync.Mutex
	nextID    int64
	campaigns map[int64]*models.Campaign
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{campaigns: make(map[int64]*models.Campaign)}
}

func (r *fakeCampaignRepo) Create(ctx context.Context, tx *sql.Tx, campaign *models.Campaign) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	cp := *campaign
	cp.ID = r.nextID
	if cp.Status == "" {
		cp.Status = models.CampaignStatusDraft
	}
	r.campaigns[cp.ID] = &cp
	return cp.ID, nil
}

func (r *fakeCampaignRepo) GetByID(ctx context.Context, id int64) (*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCampaignRepo) ListByUserID(ctx context.Context, userID int64, status, campaignType string, limit, offset int) ([]*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Campaign
	for _, c := range r.campaigns {
		if c.UserID != userID {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCampaignRepo) Update(ctx context.Context, campaign *models.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.campaigns[campaign.ID]; ok {
		cp := *campaign
		r.campaigns[campaign.ID] = &cp
	}
	return nil
}

func (r *fakeCampaignRepo) CheckByUserID(ctx context.Context, campaignID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[campaignID]
	return ok && c.UserID == userID, nil
}

func (r *fakeCampaignRepo) Remove(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.campaigns, id)
	return nil
}

type fakeConfigRepo struct {
	mu      sync.Mutex
	nextID  int64
	configs map[int64]*models.ProviderConfig
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{configs: make(map[int64]*models.ProviderConfig)}
}

func (r *fakeConfigRepo) Create(ctx context.Context, tx *sql.Tx, cfg *models.ProviderConfig) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.configs {
		if existing.UserID == cfg.UserID && existing.Variant == cfg.Variant {
			existing.APIKey = cfg.APIKey
			existing.AccessToken = cfg.AccessToken
			existing.Status = cfg.Status
			if existing.Status == "" {
				existing.Status = models.ProviderConfigStatusActive
			}
			return existing.ID, nil
		}
	}
	r.nextID++
	cp := *cfg
	cp.ID = r.nextID
	if cp.Status == "" {
		cp.Status = models.ProviderConfigStatusActive
	}
	r.configs[cp.ID] = &cp
	return cp.ID, nil
}

func (r *fakeConfigRepo) GetByID(ctx context.Context, id int64) (*models.ProviderConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.configs[id]
	if !ok {
		return nil, nil
	}
	cp := *cfg
	return &cp, nil
}

func (r *fakeConfigRepo) GetByUserAndVariant(ctx context.Context, userID int64, variant string) (*models.ProviderConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cfg := range r.configs {
		if cfg.UserID == userID && cfg.Variant == variant {
			cp := *cfg
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeConfigRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.ProviderConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ProviderConfig
	for _, cfg := range r.configs {
		if cfg.UserID == userID {
			cp := *cfg
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeConfigRepo) ListActive(ctx context.Context) ([]*models.ProviderConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ProviderConfig
	for _, cfg := range r.configs {
		if cfg.Status == models.ProviderConfigStatusActive {
			cp := *cfg
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeConfigRepo) UpdateCredentials(ctx context.Context, id int64, apiKey, accessToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cfg, ok := r.configs[id]; ok {
		if apiKey != "" {
			cfg.APIKey = apiKey
		}
		if accessToken != "" {
			cfg.AccessToken = accessToken
		}
		cfg.Status = models.ProviderConfigStatusActive
	}
	return nil
}

func (r *fakeConfigRepo) SetStatus(ctx context.Context, id int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cfg, ok := r.configs[id]; ok {
		cfg.Status = status
	}
	return nil
}

func (r *fakeConfigRepo) CheckByUserID(ctx context.Context, configID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.configs[configID]
	return ok && cfg.UserID == userID, nil
}

func (r *fakeConfigRepo) Remove(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.configs, id)
	return nil
}

func (r *fakeConfigRepo) status(id int64) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cfg, ok := r.configs[id]; ok {
		return cfg.Status
	}
	return ""
}

type fakeAnalyticsRepo struct {
	mu      sync.Mutex
	nextID  int64
	records []*models.PostAnalytics
	posts   *fakePostRepo
}

func newFakeAnalyticsRepo(posts *fakePostRepo) *fakeAnalyticsRepo {
	return &fakeAnalyticsRepo{posts: posts}
}

func (r *fakeAnalyticsRepo) Create(ctx context.Context, record *models.PostAnalytics) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	cp := *record
	cp.ID = r.nextID
	r.records = append(r.records, &cp)
	return cp.ID, nil
}

func (r *fakeAnalyticsRepo) GetByID(ctx context.Context, id int64) (*models.PostAnalytics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == id {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func inWindow(at time.Time, filter transfer.AnalyticsFilter) bool {
	if !filter.Start.IsZero() && at.Before(filter.Start) {
		return false
	}
	if !filter.End.IsZero() && at.After(filter.End) {
		return false
	}
	return true
}

func (r *fakeAnalyticsRepo) ListByPostID(ctx context.Context, postID int64, filter transfer.AnalyticsFilter) ([]*models.PostAnalytics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.PostAnalytics
	for _, rec := range r.records {
		if rec.PostID == postID && inWindow(rec.RecordedAt, filter) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAnalyticsRepo) ListByUserID(ctx context.Context, userID int64, filter transfer.AnalyticsFilter) ([]*models.PostAnalytics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.PostAnalytics
	for _, rec := range r.records {
		post, _ := r.posts.GetByID(ctx, rec.PostID)
		if post == nil || post.UserID != userID {
			continue
		}
		if inWindow(rec.RecordedAt, filter) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAnalyticsRepo) totals(match func(*models.PostAnalytics) bool) *repository.MetricTotals {
	r.mu.Lock()
	defer r.mu.Unlock()
	totals := &repository.MetricTotals{}
	for _, rec := range r.records {
		if !match(rec) {
			continue
		}
		totals.Records++
		totals.Likes += rec.Likes
		totals.Comments += rec.Comments
		totals.Shares += rec.Shares
		totals.Clicks += rec.Clicks
		totals.Reach += rec.Reach
		totals.Impressions += rec.Impressions
	}
	return totals
}

func (r *fakeAnalyticsRepo) TotalsByPostID(ctx context.Context, postID int64) (*repository.MetricTotals, error) {
	return r.totals(func(rec *models.PostAnalytics) bool { return rec.PostID == postID }), nil
}

func (r *fakeAnalyticsRepo) TotalsByAccountID(ctx context.Context, accountID int64) (*repository.MetricTotals, error) {
	return r.totals(func(rec *models.PostAnalytics) bool { return rec.AccountID == accountID }), nil
}

func (r *fakeAnalyticsRepo) TotalsByCampaignID(ctx context.Context, campaignID int64) (*repository.MetricTotals, error) {
	return r.totals(func(rec *models.PostAnalytics) bool {
		post, _ := r.posts.GetByID(context.Background(), rec.PostID)
		return post != nil && post.CampaignID.Valid && post.CampaignID.Int64 == campaignID
	}), nil
}

func (r *fakeAnalyticsRepo) TotalsByUserID(ctx context.Context, userID int64, filter transfer.AnalyticsFilter) (*repository.MetricTotals, error) {
	return r.totals(func(rec *models.PostAnalytics) bool {
		post, _ := r.posts.GetByID(context.Background(), rec.PostID)
		return post != nil && post.UserID == userID && inWindow(rec.RecordedAt, filter)
	}), nil
}

func (r *fakeAnalyticsRepo) recordCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

type fakeLocker struct {
	mu       sync.Mutex
	acquired int
	err      error
}

func (l *fakeLocker) Acquire(ctx context.Context, postID int64) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.acquired++
	return func() {}, nil
}

type publishCall struct {
	postID int64
	at     time.Time
}

type syncCall struct {
	postID int64
	userID int64
	delay  time.Duration
}

type fakeEnqueuer struct {
	mu        sync.Mutex
	publishes []publishCall
	syncs     []syncCall
}

func (e *fakeEnqueuer) EnqueuePublish(postID int64, at time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.publishes = append(e.publishes, publishCall{postID: postID, at: at})
	return nil
}

func (e *fakeEnqueuer) EnqueueAnalyticsSync(postID, userID int64, delay time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.syncs = append(e.syncs, syncCall{postID: postID, userID: userID, delay: delay})
	return nil
}

func (e *fakeEnqueuer) publishCalls() []publishCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]publishCall(nil), e.publishes...)
}

func (e *fakeEnqueuer) syncCalls() []syncCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]syncCall(nil), e.syncs...)
}

// scriptedProvider is a Provider whose behavior each test wires up through
// function fields. Unset fields accept everything.
type scriptedProvider struct {
	mu          sync.Mutex
	createFn    func(input provider.CreatePostInput) ([]provider.TargetResult, error)
	updateFn    func(providerPostID string, input provider.UpdatePostInput) error
	deleteFn    func(providerPostID string) error
	analyticsFn func(providerPostID string) (*provider.MetricSnapshot, error)
	profilesFn  func() ([]provider.Profile, error)

	createCalls []provider.CreatePostInput
	updateCalls []string
	deleteCalls []string
}

func (p *scriptedProvider) Authenticate(ctx context.Context) (*provider.Identity, error) {
	return &provider.Identity{ID: "stub-user"}, nil
}

func (p *scriptedProvider) ListProfiles(ctx context.Context) ([]provider.Profile, error) {
	p.mu.Lock()
	fn := p.profilesFn
	p.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return nil, nil
}

func (p *scriptedProvider) CreatePost(ctx context.Context, input provider.CreatePostInput) ([]provider.TargetResult, error) {
	p.mu.Lock()
	p.createCalls = append(p.createCalls, input)
	fn := p.createFn
	p.mu.Unlock()

	if fn != nil {
		return fn(input)
	}
	results := make([]provider.TargetResult, 0, len(input.ProfileIDs))
	for _, profileID := range input.ProfileIDs {
		results = append(results, provider.TargetResult{ProfileID: profileID, ProviderPostID: "remote-" + profileID})
	}
	return results, nil
}

func (p *scriptedProvider) UpdatePost(ctx context.Context, providerPostID string, input provider.UpdatePostInput) error {
	p.mu.Lock()
	p.updateCalls = append(p.updateCalls, providerPostID)
	fn := p.updateFn
	p.mu.Unlock()
	if fn != nil {
		return fn(providerPostID, input)
	}
	return nil
}

func (p *scriptedProvider) DeletePost(ctx context.Context, providerPostID string) error {
	p.mu.Lock()
	p.deleteCalls = append(p.deleteCalls, providerPostID)
	fn := p.deleteFn
	p.mu.Unlock()
	if fn != nil {
		return fn(providerPostID)
	}
	return nil
}

func (p *scriptedProvider) GetPostAnalytics(ctx context.Context, providerPostID string) (*provider.MetricSnapshot, error) {
	p.mu.Lock()
	fn := p.analyticsFn
	p.mu.Unlock()
	if fn != nil {
		return fn(providerPostID)
	}
	return &provider.MetricSnapshot{RetrievedAt: time.Now()}, nil
}

func (p *scriptedProvider) TestConnection(ctx context.Context) bool { return true }

func (p *scriptedProvider) createCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.createCalls)
}

func (p *scriptedProvider) lastCreate() provider.CreatePostInput {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.createCalls[len(p.createCalls)-1]
}

func (p *scriptedProvider) deleted() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.deleteCalls...)
}

func (p *scriptedProvider) updated() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.updateCalls...)
}

type testEnv struct {
	posts     *fakePostRepo
	targets   *fakeTargetRepo
	accounts  *fakeAccountRepo
	campaigns *fakeCampaignRepo
	configs   *fakeConfigRepo
	analytics *fakeAnalyticsRepo
	provider  *scriptedProvider
	locker    *fakeLocker
	tasks     *fakeEnqueuer
	resolver  *ProviderResolver
	registry  *provider.Registry
	cfg       *config.Config
	svc       *postService
	asvc      *analyticsService
	configID  int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	e := &testEnv{
		posts:     newFakePostRepo(),
		targets:   newFakeTargetRepo(),
		accounts:  newFakeAccountRepo(),
		campaigns: newFakeCampaignRepo(),
		configs:   newFakeConfigRepo(),
		provider:  &scriptedProvider{},
		locker:    &fakeLocker{},
		tasks:     &fakeEnqueuer{},
		registry:  provider.NewRegistry(),
	}

	e.analytics = newFakeAnalyticsRepo(e.posts)
	e.cfg = &config.Config{SecretKey: testSecretKey, DefaultProvider: stubVariant}

	e.registry.Register(stubVariant, func(creds provider.Credentials) (provider.Provider, error) {
		if creds.APIKey != testAPIKey {
			return nil, &provider.ConfigurationError{Variant: stubVariant, Reason: "credentials do not match"}
		}
		return e.provider, nil
	})

	encrypted, err := utils.Encrypt([]byte(testAPIKey), []byte(testSecretKey))
	require.NoError(t, err)
	e.configID, err = e.configs.Create(context.Background(), nil, &models.ProviderConfig{
		UserID:  testUserID,
		Variant: stubVariant,
		APIKey:  encrypted,
		Status:  models.ProviderConfigStatusActive,
	})
	require.NoError(t, err)

	e.resolver = NewProviderResolver(e.cfg, e.configs, e.registry)

	e.svc = NewPostService(nil, e.posts, e.targets, e.accounts, e.campaigns, e.resolver, e.locker, e.tasks).(*postService)
	e.svc.retry = provider.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	e.asvc = NewAnalyticsService(e.posts, e.targets, e.accounts, e.campaigns, e.analytics, e.resolver).(*analyticsService)
	e.asvc.retry = e.svc.retry

	e.seedAccount(testUserID, "twitter", "prof-a", models.AccountStatusActive)
	e.seedAccount(testUserID, "facebook", "prof-b", models.AccountStatusActive)

	return e
}

func (e *testEnv) seedAccount(userID int64, platform, profileID, status string) int64 {
	id, _ := e.accounts.Create(context.Background(), nil, &models.SocialAccount{
		UserID:    userID,
		Platform:  platform,
		ProfileID: profileID,
		Status:    status,
	})
	return id
}

func (e *testEnv) createDraft(t *testing.T, scheduledAt time.Time, accountIDs ...int64) *models.Post {
	t.Helper()
	post, err := e.svc.Create(context.Background(), testUserID, &transfer.PostCreation{
		Content:       "hello from the test suite",
		ScheduledTime: scheduledAt,
		AccountIDs:    accountIDs,
	})
	require.NoError(t, err)
	return post
}
