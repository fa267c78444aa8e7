package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/crossposthq/crosspost/internal/models"
	"github.com/crossposthq/crosspost/internal/provider"
	"github.com/crossposthq/crosspost/internal/repository"
	"github.com/crossposthq/crosspost/internal/transfer"
)

const syncConcurrency = 5

type AnalyticsService interface {
	SyncPost(ctx context.Context, userID, postID int64) (*transfer.SyncOutcome, error)
	SyncRecent(ctx context.Context, userID int64, lookback time.Duration) (*transfer.SyncReport, error)
	ListByPost(ctx context.Context, userID, postID int64, filter transfer.AnalyticsFilter) ([]*models.PostAnalytics, error)
	ListByUser(ctx context.Context, userID int64, filter transfer.AnalyticsFilter) ([]*models.PostAnalytics, error)
	SummaryForPost(ctx context.Context, userID, postID int64) (*transfer.AnalyticsSummary, error)
	SummaryForAccount(ctx context.Context, userID, accountID int64) (*transfer.AnalyticsSummary, error)
	SummaryForCampaign(ctx context.Context, userID, campaignID int64) (*transfer.AnalyticsSummary, error)
	SummaryForUser(ctx context.Context, userID int64, filter transfer.AnalyticsFilter) (*transfer.AnalyticsSummary, error)
}

type analyticsService struct {
	posts     repository.PostRepository
	targets   repository.PostTargetRepository
	accounts  repository.SocialAccountRepository
	campaigns repository.CampaignRepository
	analytics repository.AnalyticsRepository
	resolver  *ProviderResolver
	retry     provider.RetryPolicy
}

func NewAnalyticsService(
	posts repository.PostRepository,
	targets repository.PostTargetRepository,
	accounts repository.SocialAccountRepository,
	campaigns repository.CampaignRepository,
	analytics repository.AnalyticsRepository,
	resolver *ProviderResolver,
) AnalyticsService {
	return &analyticsService{
		posts:     posts,
		targets:   targets,
		accounts:  accounts,
		campaigns: campaigns,
		analytics: analytics,
		resolver:  resolver,
		retry:     provider.DefaultRetryPolicy(),
	}
}

// SyncPost pulls a fresh metric snapshot for every delivered target of one
// post and appends a record per target. Targets without a provider post id
// are skipped, not failed; a target the provider has forgotten is skipped
// too. The engagement rate is always recomputed here.
func (s *analyticsService) SyncPost(ctx context.Context, userID, postID int64) (*transfer.SyncOutcome, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	if post == nil || post.UserID != userID {
		return nil, ErrNotFound
	}

	targets, err := s.targets.ListByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list post targets: %w", err)
	}

	outcome := &transfer.SyncOutcome{PostID: postID, Status: transfer.BulkOutcomeSuccess}
	var delivered []*models.PostTarget
	for _, t := range targets {
		if t.ProviderPostID.Valid && t.ProviderPostID.String != "" {
			delivered = append(delivered, t)
		} else {
			outcome.Skipped++
		}
	}
	if len(delivered) == 0 {
		return outcome, nil
	}

	p, pcfg, err := s.resolver.Resolve(ctx, post.UserID)
	if err != nil {
		return nil, err
	}

	for _, t := range delivered {
		providerPostID := t.ProviderPostID.String

		var snap *provider.MetricSnapshot
		err := provider.WithRetry(ctx, s.retry, func(ctx context.Context) error {
			got, err := p.GetPostAnalytics(ctx, providerPostID)
			if err != nil {
				return err
			}
			snap = got
			return nil
		})
		if err != nil {
			if provider.IsNotFound(err) {
				outcome.Skipped++
				continue
			}
			if provider.IsAuthentication(err) {
				s.resolver.FlagAuthFailure(ctx, pcfg)
			}
			outcome.Status = transfer.BulkOutcomeFailure
			outcome.Error = err.Error()
			return outcome, fmt.Errorf("failed to fetch analytics: %w", err)
		}

		platform := ""
		if account, err := s.accounts.GetByID(ctx, t.AccountID); err == nil && account != nil {
			platform = account.Platform
		}

		recordedAt := snap.RetrievedAt
		if recordedAt.IsZero() {
			recordedAt = time.Now()
		}
		record := &models.PostAnalytics{
			PostID:         postID,
			AccountID:      t.AccountID,
			Platform:       platform,
			Likes:          snap.Likes,
			Comments:       snap.Comments,
			Shares:         snap.Shares,
			Clicks:         snap.Clicks,
			Reach:          snap.Reach,
			Impressions:    snap.Impressions,
			EngagementRate: models.EngagementRate(snap.Likes, snap.Shares, snap.Comments, snap.Impressions),
			RawPayload:     snap.Raw,
			RecordedAt:     recordedAt,
		}
		if _, err := s.analytics.Create(ctx, record); err != nil {
			outcome.Status = transfer.BulkOutcomeFailure
			outcome.Error = err.Error()
			return outcome, fmt.Errorf("failed to store analytics record: %w", err)
		}
		outcome.Records++
	}

	return outcome, nil
}

// SyncRecent syncs every post the user published inside the lookback window.
// Posts are synced concurrently and independently; one post failing does not
// stop the rest. A deadline marks unstarted posts pending in the report.
func (s *analyticsService) SyncRecent(ctx context.Context, userID int64, lookback time.Duration) (*transfer.SyncReport, error) {
	if lookback <= 0 {
		lookback = 7 * 24 * time.Hour
	}
	cutoff := time.Now().Add(-lookback)

	posts, err := s.posts.ListPublishedSince(ctx, userID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list published posts: %w", err)
	}

	outcomes := make([]transfer.SyncOutcome, len(posts))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, syncConcurrency)

	for i, post := range posts {
		wg.Add(1)
		go func(i int, postID int64) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				outcomes[i] = transfer.SyncOutcome{
					PostID: postID,
					Status: transfer.BulkOutcomePending,
					Error:  "sync deadline reached before the post started",
				}
				return
			}

			syncCtx := context.WithoutCancel(ctx)
			outcome, err := s.SyncPost(syncCtx, userID, postID)
			if err != nil && outcome == nil {
				outcome = &transfer.SyncOutcome{PostID: postID, Status: transfer.BulkOutcomeFailure, Error: err.Error()}
			}
			outcomes[i] = *outcome
		}(i, post.ID)
	}
	wg.Wait()

	report := &transfer.SyncReport{Outcomes: outcomes}
	for _, o := range outcomes {
		switch o.Status {
		case transfer.BulkOutcomeSuccess:
			report.Synced++
		case transfer.BulkOutcomePending:
			report.Pending++
		default:
			report.Failed++
		}
	}
	return report, nil
}

func (s *analyticsService) ListByPost(ctx context.Context, userID, postID int64, filter transfer.AnalyticsFilter) ([]*models.PostAnalytics, error) {
	if err := s.checkPostOwner(ctx, userID, postID); err != nil {
		return nil, err
	}
	records, err := s.analytics.ListByPostID(ctx, postID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list analytics: %w", err)
	}
	return records, nil
}

func (s *analyticsService) ListByUser(ctx context.Context, userID int64, filter transfer.AnalyticsFilter) ([]*models.PostAnalytics, error) {
	records, err := s.analytics.ListByUserID(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list analytics: %w", err)
	}
	return records, nil
}

func (s *analyticsService) SummaryForPost(ctx context.Context, userID, postID int64) (*transfer.AnalyticsSummary, error) {
	if err := s.checkPostOwner(ctx, userID, postID); err != nil {
		return nil, err
	}
	totals, err := s.analytics.TotalsByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate analytics: %w", err)
	}
	return summaryFromTotals(totals), nil
}

func (s *analyticsService) SummaryForAccount(ctx context.Context, userID, accountID int64) (*transfer.AnalyticsSummary, error) {
	owned, err := s.accounts.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify account: %w", err)
	}
	if !owned {
		return nil, ErrNotFound
	}
	totals, err := s.analytics.TotalsByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate analytics: %w", err)
	}
	return summaryFromTotals(totals), nil
}

func (s *analyticsService) SummaryForCampaign(ctx context.Context, userID, campaignID int64) (*transfer.AnalyticsSummary, error) {
	owned, err := s.campaigns.CheckByUserID(ctx, campaignID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify campaign: %w", err)
	}
	if !owned {
		return nil, ErrNotFound
	}
	totals, err := s.analytics.TotalsByCampaignID(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate analytics: %w", err)
	}
	return summaryFromTotals(totals), nil
}

func (s *analyticsService) SummaryForUser(ctx context.Context, userID int64, filter transfer.AnalyticsFilter) (*transfer.AnalyticsSummary, error) {
	totals, err := s.analytics.TotalsByUserID(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate analytics: %w", err)
	}
	return summaryFromTotals(totals), nil
}

func (s *analyticsService) checkPostOwner(ctx context.Context, userID, postID int64) error {
	owned, err := s.posts.CheckByUserID(ctx, postID, userID)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("failed to verify post: %w", err)
	}
	if !owned {
		return ErrNotFound
	}
	return nil
}

// summaryFromTotals computes the weighted aggregate: the engagement rate
// comes from the summed numerator over the summed denominator.
func summaryFromTotals(t *repository.MetricTotals) *transfer.AnalyticsSummary {
	s := &transfer.AnalyticsSummary{
		TotalRecords:     t.Records,
		TotalLikes:       t.Likes,
		TotalComments:    t.Comments,
		TotalShares:      t.Shares,
		TotalClicks:      t.Clicks,
		TotalReach:       t.Reach,
		TotalImpressions: t.Impressions,
	}
	if t.Records > 0 {
		s.AvgLikes = float64(t.Likes) / float64(t.Records)
		s.AvgImpressions = float64(t.Impressions) / float64(t.Records)
		s.EngagementRate = models.EngagementRate(t.Likes, t.Shares, t.Comments, t.Impressions)
	}
	return s
}
