package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/crossposthq/crosspost/internal/models"
	"github.com/crossposthq/crosspost/internal/provider"
	"github.com/crossposthq/crosspost/internal/repository"
	"github.com/crossposthq/crosspost/internal/transfer"
)

// bulkConcurrency caps how many bulk items are scheduled at once.
const bulkConcurrency = 5

// analyticsSyncDelay is how long after publication the first metrics pull is
// scheduled. Platforms need time to accumulate engagement.
const analyticsSyncDelay = time.Hour

// PostLocker serializes provider-mutating operations per post.
type PostLocker interface {
	Acquire(ctx context.Context, postID int64) (func(), error)
}

// TaskEnqueuer hands deferred work to the task queue.
type TaskEnqueuer interface {
	EnqueuePublish(postID int64, at time.Time) error
	EnqueueAnalyticsSync(postID, userID int64, delay time.Duration) error
}

type PostService interface {
	Create(ctx context.Context, userID int64, pc *transfer.PostCreation) (*models.Post, error)
	Get(ctx context.Context, userID, postID int64) (*models.Post, error)
	List(ctx context.Context, userID int64, filter transfer.PostFilter) ([]*models.Post, error)
	Targets(ctx context.Context, userID, postID int64) ([]*models.PostTarget, error)
	Update(ctx context.Context, userID, postID int64, pu *transfer.PostUpdate) (*models.Post, error)
	Remove(ctx context.Context, userID, postID int64) error
	Schedule(ctx context.Context, userID, postID int64) (*transfer.ScheduleResult, error)
	PublishNow(ctx context.Context, userID, postID int64) (*transfer.ScheduleResult, error)
	Reschedule(ctx context.Context, userID, postID int64, newTime time.Time) (*transfer.ScheduleResult, error)
	Cancel(ctx context.Context, userID, postID int64) (*models.Post, error)
	BulkSchedule(ctx context.Context, userID int64, items []*transfer.PostCreation) ([]transfer.BulkItemOutcome, error)
}

type postService struct {
	db        *sql.DB
	posts     repository.PostRepository
	targets   repository.PostTargetRepository
	accounts  repository.SocialAccountRepository
	campaigns repository.CampaignRepository
	resolver  *ProviderResolver
	locker    PostLocker
	tasks     TaskEnqueuer
	retry     provider.RetryPolicy
}

func NewPostService(
	db *sql.DB,
	posts repository.PostRepository,
	targets repository.PostTargetRepository,
	accounts repository.SocialAccountRepository,
	campaigns repository.CampaignRepository,
	resolver *ProviderResolver,
	locker PostLocker,
	tasks TaskEnqueuer,
) PostService {
	return &postService{
		db:        db,
		posts:     posts,
		targets:   targets,
		accounts:  accounts,
		campaigns: campaigns,
		resolver:  resolver,
		locker:    locker,
		tasks:     tasks,
		retry:     provider.DefaultRetryPolicy(),
	}
}

// Create stores a new draft together with its target account links. The post
// row and its links are written in one transaction.
func (s *postService) Create(ctx context.Context, userID int64, pc *transfer.PostCreation) (*models.Post, error) {
	if pc.Content == "" && len(pc.MediaURLs) == 0 {
		return nil, fmt.Errorf("%w: content or media is required", ErrInvalidInput)
	}

	postType := pc.PostType
	if postType == "" {
		postType = models.PostTypeText
	}
	if !models.IsValidPostType(postType) {
		return nil, fmt.Errorf("%w: unknown post type %q", ErrInvalidInput, postType)
	}
	if len(pc.AccountIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one target account is required", ErrInvalidInput)
	}

	accounts, err := s.accounts.ListByIDs(ctx, userID, pc.AccountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load target accounts: %w", err)
	}
	if len(accounts) != len(dedupe(pc.AccountIDs)) {
		return nil, fmt.Errorf("%w: one or more target accounts do not exist", ErrInvalidInput)
	}

	var campaignID sql.NullInt64
	if pc.CampaignID != nil {
		owned, err := s.campaigns.CheckByUserID(ctx, *pc.CampaignID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to verify campaign: %w", err)
		}
		if !owned {
			return nil, fmt.Errorf("%w: campaign does not exist", ErrInvalidInput)
		}
		campaignID = sql.NullInt64{Int64: *pc.CampaignID, Valid: true}
	}

	post := &models.Post{
		UserID:        userID,
		CampaignID:    campaignID,
		PostType:      postType,
		Content:       pc.Content,
		MediaURLs:     pc.MediaURLs,
		Platforms:     pc.Platforms,
		ScheduledTime: pc.ScheduledTime,
		Status:        models.PostStatusDraft,
	}

	tx, err := s.begin(ctx)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	defer rollback(tx)

	id, err := s.posts.Create(ctx, tx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	for _, accountID := range dedupe(pc.AccountIDs) {
		if err := s.targets.Create(ctx, tx, &models.PostTarget{PostID: id, AccountID: accountID}); err != nil {
			return nil, fmt.Errorf("failed to link target account: %w", err)
		}
	}
	if err := commit(tx); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	post.ID = id
	return post, nil
}

func (s *postService) Get(ctx context.Context, userID, postID int64) (*models.Post, error) {
	return s.ownedPost(ctx, userID, postID)
}

func (s *postService) List(ctx context.Context, userID int64, filter transfer.PostFilter) ([]*models.Post, error) {
	posts, err := s.posts.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

func (s *postService) Targets(ctx context.Context, userID, postID int64) ([]*models.PostTarget, error) {
	if _, err := s.ownedPost(ctx, userID, postID); err != nil {
		return nil, err
	}
	targets, err := s.targets.ListByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list post targets: %w", err)
	}
	return targets, nil
}

// Update edits a post. For scheduled posts the edit is pushed to the provider
// first; local state only changes after every remote update went through, so
// stored content never claims something the provider does not have.
func (s *postService) Update(ctx context.Context, userID, postID int64, pu *transfer.PostUpdate) (*models.Post, error) {
	release, err := s.locker.Acquire(ctx, postID)
	if err != nil {
		return nil, err
	}
	defer release()

	post, err := s.ownedPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if models.IsTerminalStatus(post.Status) {
		return nil, ErrPostImmutable
	}

	if pu.PostType != nil && !models.IsValidPostType(*pu.PostType) {
		return nil, fmt.Errorf("%w: unknown post type %q", ErrInvalidInput, *pu.PostType)
	}
	if pu.ScheduledTime != nil && post.Status == models.PostStatusScheduled && !pu.ScheduledTime.After(time.Now()) {
		return nil, ErrPastScheduleTime
	}
	if pu.AccountIDs != nil && post.Status == models.PostStatusScheduled {
		return nil, fmt.Errorf("%w: targets cannot change while the post is scheduled", ErrInvalidTransition)
	}
	if pu.CampaignID != nil && *pu.CampaignID != 0 {
		owned, err := s.campaigns.CheckByUserID(ctx, *pu.CampaignID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to verify campaign: %w", err)
		}
		if !owned {
			return nil, fmt.Errorf("%w: campaign does not exist", ErrInvalidInput)
		}
	}

	if post.Status == models.PostStatusScheduled {
		if err := s.pushUpdate(ctx, post, pu); err != nil {
			return nil, err
		}
	}

	applyUpdate(post, pu)
	if err := s.posts.UpdateContent(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	if pu.AccountIDs != nil {
		if err := s.retarget(ctx, userID, post.ID, pu.AccountIDs); err != nil {
			return nil, err
		}
	}

	if pu.ScheduledTime != nil && post.Status == models.PostStatusScheduled && s.tasks != nil {
		if err := s.tasks.EnqueuePublish(post.ID, post.ScheduledTime); err != nil {
			slog.Info(err.Error())
		}
	}
	return post, nil
}

// pushUpdate propagates an edit to every already-delivered target. A target
// the provider no longer knows is treated as resolved. Any other remote
// failure aborts the whole update before local state is touched.
func (s *postService) pushUpdate(ctx context.Context, post *models.Post, pu *transfer.PostUpdate) error {
	targets, err := s.targets.ListByPostID(ctx, post.ID)
	if err != nil {
		return fmt.Errorf("failed to list post targets: %w", err)
	}

	delivered := make([]*models.PostTarget, 0, len(targets))
	for _, t := range targets {
		if t.ProviderPostID.Valid && t.ProviderPostID.String != "" {
			delivered = append(delivered, t)
		}
	}
	if len(delivered) == 0 {
		return nil
	}

	p, pcfg, err := s.resolver.Resolve(ctx, post.UserID)
	if err != nil {
		return err
	}

	input := provider.UpdatePostInput{
		Text:        pu.Content,
		ScheduledAt: pu.ScheduledTime,
	}
	if pu.MediaURLs != nil {
		next := *post
		applyUpdate(&next, pu)
		input.Media = buildMedia(&next)
	}

	for _, t := range delivered {
		providerPostID := t.ProviderPostID.String
		err := provider.WithRetry(ctx, s.retry, func(ctx context.Context) error {
			return p.UpdatePost(ctx, providerPostID, input)
		})
		if err != nil {
			if provider.IsNotFound(err) {
				continue
			}
			if provider.IsAuthentication(err) {
				s.resolver.FlagAuthFailure(ctx, pcfg)
			}
			if lerr := s.targets.SetLastError(ctx, post.ID, t.AccountID, err.Error()); lerr != nil {
				slog.Info(lerr.Error())
			}
			return fmt.Errorf("failed to update post at provider: %w", err)
		}
	}
	return nil
}

// Remove deletes a draft, failed, or cancelled post. Scheduled posts must be
// cancelled first so the remote copy is withdrawn.
func (s *postService) Remove(ctx context.Context, userID, postID int64) error {
	post, err := s.ownedPost(ctx, userID, postID)
	if err != nil {
		return err
	}
	if post.Status == models.PostStatusScheduled || post.Status == models.PostStatusPublished {
		return fmt.Errorf("%w: cancel the post before deleting it", ErrInvalidTransition)
	}

	tx, err := s.begin(ctx)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("failed to delete post: %w", err)
	}
	defer rollback(tx)

	if err := s.targets.DeleteByPostID(ctx, tx, postID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if err := s.posts.Remove(ctx, postID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return commit(tx)
}

// Schedule hands a draft (or previously failed) post to the provider for
// delivery at its scheduled time.
func (s *postService) Schedule(ctx context.Context, userID, postID int64) (*transfer.ScheduleResult, error) {
	release, err := s.locker.Acquire(ctx, postID)
	if err != nil {
		return nil, err
	}
	defer release()

	post, err := s.ownedPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(post.Status, models.PostStatusScheduled) {
		return nil, fmt.Errorf("%w: cannot schedule a %s post", ErrInvalidTransition, post.Status)
	}
	if !post.ScheduledTime.After(time.Now()) {
		return nil, ErrPastScheduleTime
	}

	return s.deliver(ctx, post, false)
}

// PublishNow delivers immediately, skipping the wait at the provider.
func (s *postService) PublishNow(ctx context.Context, userID, postID int64) (*transfer.ScheduleResult, error) {
	release, err := s.locker.Acquire(ctx, postID)
	if err != nil {
		return nil, err
	}
	defer release()

	post, err := s.ownedPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	switch post.Status {
	case models.PostStatusDraft, models.PostStatusScheduled, models.PostStatusFailed:
	default:
		return nil, fmt.Errorf("%w: cannot publish a %s post", ErrInvalidTransition, post.Status)
	}

	return s.deliver(ctx, post, true)
}

// Reschedule moves a scheduled post to a new time, or re-attempts delivery of
// a failed one. Failed targets are only retried through this explicit call,
// never as a side effect of an edit.
func (s *postService) Reschedule(ctx context.Context, userID, postID int64, newTime time.Time) (*transfer.ScheduleResult, error) {
	release, err := s.locker.Acquire(ctx, postID)
	if err != nil {
		return nil, err
	}
	defer release()

	post, err := s.ownedPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if !newTime.After(time.Now()) {
		return nil, ErrPastScheduleTime
	}

	switch post.Status {
	case models.PostStatusFailed:
		post.ScheduledTime = newTime
		if err := s.posts.UpdateContent(ctx, post); err != nil {
			return nil, fmt.Errorf("failed to reschedule post: %w", err)
		}
		return s.deliver(ctx, post, false)

	case models.PostStatusScheduled:
		pu := &transfer.PostUpdate{ScheduledTime: &newTime}
		if err := s.pushUpdate(ctx, post, pu); err != nil {
			return nil, err
		}
		post.ScheduledTime = newTime
		if err := s.posts.UpdateContent(ctx, post); err != nil {
			return nil, fmt.Errorf("failed to reschedule post: %w", err)
		}
		if s.tasks != nil {
			if err := s.tasks.EnqueuePublish(post.ID, newTime); err != nil {
				slog.Info(err.Error())
			}
		}
		targets, err := s.targets.ListByPostID(ctx, post.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list post targets: %w", err)
		}
		return &transfer.ScheduleResult{Post: post, Targets: outcomesFromTargets(targets)}, nil

	default:
		return nil, fmt.Errorf("%w: cannot reschedule a %s post", ErrInvalidTransition, post.Status)
	}
}

// Cancel withdraws a post. Cancelling an already-cancelled post is a no-op;
// a target the provider has already forgotten counts as withdrawn.
func (s *postService) Cancel(ctx context.Context, userID, postID int64) (*models.Post, error) {
	release, err := s.locker.Acquire(ctx, postID)
	if err != nil {
		return nil, err
	}
	defer release()

	post, err := s.ownedPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if post.Status == models.PostStatusCancelled {
		return post, nil
	}
	if !models.CanTransition(post.Status, models.PostStatusCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel a %s post", ErrInvalidTransition, post.Status)
	}

	if post.Status == models.PostStatusScheduled {
		if err := s.withdraw(ctx, post); err != nil {
			return nil, err
		}
	}

	if err := s.posts.UpdateStatus(ctx, postID, models.PostStatusCancelled, ""); err != nil {
		return nil, fmt.Errorf("failed to cancel post: %w", err)
	}
	post.Status = models.PostStatusCancelled
	return post, nil
}

// withdraw deletes every delivered target at the provider. Individual delete
// failures are recorded on the target but do not block cancellation of the
// remaining targets.
func (s *postService) withdraw(ctx context.Context, post *models.Post) error {
	targets, err := s.targets.ListByPostID(ctx, post.ID)
	if err != nil {
		return fmt.Errorf("failed to list post targets: %w", err)
	}

	var delivered []*models.PostTarget
	for _, t := range targets {
		if t.ProviderPostID.Valid && t.ProviderPostID.String != "" {
			delivered = append(delivered, t)
		}
	}
	if len(delivered) == 0 {
		return nil
	}

	p, pcfg, err := s.resolver.Resolve(ctx, post.UserID)
	if err != nil {
		return err
	}

	for _, t := range delivered {
		providerPostID := t.ProviderPostID.String
		err := provider.WithRetry(ctx, s.retry, func(ctx context.Context) error {
			return p.DeletePost(ctx, providerPostID)
		})
		if err != nil && !provider.IsNotFound(err) {
			if provider.IsAuthentication(err) {
				s.resolver.FlagAuthFailure(ctx, pcfg)
			}
			slog.Info(err.Error())
			if lerr := s.targets.SetLastError(ctx, post.ID, t.AccountID, err.Error()); lerr != nil {
				slog.Info(lerr.Error())
			}
		}
	}
	return nil
}

// BulkSchedule creates and schedules a batch concurrently. The outcome slice
// is positional with exactly one entry per item. A batch deadline marks items
// that never started as pending; items already in flight finish on their own.
func (s *postService) BulkSchedule(ctx context.Context, userID int64, items []*transfer.PostCreation) ([]transfer.BulkItemOutcome, error) {
	outcomes := make([]transfer.BulkItemOutcome, len(items))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, bulkConcurrency)

	for i, item := range items {
		wg.Add(1)
		go func(i int, item *transfer.PostCreation) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				outcomes[i] = transfer.BulkItemOutcome{
					Index:  i,
					Status: transfer.BulkOutcomePending,
					Error:  "batch deadline reached before the item started",
				}
				return
			}

			// Once an item starts it runs to completion on its own budget.
			itemCtx := context.WithoutCancel(ctx)
			outcomes[i] = s.scheduleItem(itemCtx, userID, i, item)
		}(i, item)
	}

	wg.Wait()
	return outcomes, nil
}

func (s *postService) scheduleItem(ctx context.Context, userID int64, index int, item *transfer.PostCreation) transfer.BulkItemOutcome {
	post, err := s.Create(ctx, userID, item)
	if err != nil {
		return transfer.BulkItemOutcome{Index: index, Status: transfer.BulkOutcomeFailure, Error: err.Error()}
	}
	if !post.ScheduledTime.After(time.Now()) {
		return transfer.BulkItemOutcome{
			Index:  index,
			Status: transfer.BulkOutcomeFailure,
			PostID: post.ID,
			Error:  ErrPastScheduleTime.Error(),
		}
	}

	release, err := s.locker.Acquire(ctx, post.ID)
	if err != nil {
		return transfer.BulkItemOutcome{Index: index, Status: transfer.BulkOutcomeFailure, PostID: post.ID, Error: err.Error()}
	}
	defer release()

	res, err := s.deliver(ctx, post, false)
	if err != nil {
		out := transfer.BulkItemOutcome{Index: index, Status: transfer.BulkOutcomeFailure, PostID: post.ID, Error: err.Error()}
		if res != nil {
			out.Targets = res.Targets
		}
		return out
	}
	// The provider call can succeed while rejecting every target.
	if post.Status == models.PostStatusFailed {
		return transfer.BulkItemOutcome{
			Index:   index,
			Status:  transfer.BulkOutcomeFailure,
			PostID:  post.ID,
			Error:   post.ErrorMessage.String,
			Targets: res.Targets,
		}
	}
	return transfer.BulkItemOutcome{Index: index, Status: transfer.BulkOutcomeSuccess, PostID: post.ID, Targets: res.Targets}
}

// deliver fans the post out to its target accounts through the provider.
// Each target gets an independent outcome; any accepted target makes the post
// scheduled (or published for immediate delivery), while total failure marks
// it failed with the first error.
func (s *postService) deliver(ctx context.Context, post *models.Post, immediate bool) (*transfer.ScheduleResult, error) {
	targets, err := s.targets.ListByPostID(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list post targets: %w", err)
	}
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	ids := make([]int64, 0, len(targets))
	for _, t := range targets {
		ids = append(ids, t.AccountID)
	}
	accounts, err := s.accounts.ListByIDs(ctx, post.UserID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load target accounts: %w", err)
	}
	byID := make(map[int64]*models.SocialAccount, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	result := &transfer.ScheduleResult{Post: post}
	type fanout struct {
		accountID int64
		profileID string
	}
	var resolvable []fanout
	profileIDs := make([]string, 0, len(targets))

	for _, t := range targets {
		account := byID[t.AccountID]
		if account == nil || account.ProfileID == "" || account.Status != models.AccountStatusActive {
			msg := "account is not connected to an active provider profile"
			if err := s.targets.SetLastError(ctx, post.ID, t.AccountID, msg); err != nil {
				slog.Info(err.Error())
			}
			result.Targets = append(result.Targets, transfer.TargetOutcome{AccountID: t.AccountID, Error: msg})
			continue
		}
		resolvable = append(resolvable, fanout{accountID: t.AccountID, profileID: account.ProfileID})
		profileIDs = append(profileIDs, account.ProfileID)
	}
	if len(resolvable) == 0 {
		return result, ErrNoTargets
	}

	p, pcfg, err := s.resolver.Resolve(ctx, post.UserID)
	if err != nil {
		return result, err
	}

	input := provider.CreatePostInput{
		ProfileIDs: profileIDs,
		Text:       post.Content,
		Media:      buildMedia(post),
	}
	if !immediate {
		scheduledAt := post.ScheduledTime
		input.ScheduledAt = &scheduledAt
	}

	var remote []provider.TargetResult
	err = provider.WithRetry(ctx, s.retry, func(ctx context.Context) error {
		results, err := p.CreatePost(ctx, input)
		if err != nil {
			return err
		}
		remote = results
		return nil
	})
	if err != nil {
		if provider.IsAuthentication(err) {
			s.resolver.FlagAuthFailure(ctx, pcfg)
		}
		for _, f := range resolvable {
			if lerr := s.targets.SetLastError(ctx, post.ID, f.accountID, err.Error()); lerr != nil {
				slog.Info(lerr.Error())
			}
			result.Targets = append(result.Targets, transfer.TargetOutcome{
				AccountID: f.accountID,
				ProfileID: f.profileID,
				Error:     err.Error(),
			})
		}
		if serr := s.posts.UpdateStatus(ctx, post.ID, models.PostStatusFailed, err.Error()); serr != nil {
			slog.Info(serr.Error())
		}
		post.Status = models.PostStatusFailed
		post.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
		return result, fmt.Errorf("failed to deliver post: %w", err)
	}

	byProfile := make(map[string]provider.TargetResult, len(remote))
	for _, r := range remote {
		byProfile[r.ProfileID] = r
	}

	accepted := 0
	var firstErr string
	for _, f := range resolvable {
		r, ok := byProfile[f.profileID]
		switch {
		case !ok:
			msg := "provider returned no result for this profile"
			if err := s.targets.SetLastError(ctx, post.ID, f.accountID, msg); err != nil {
				slog.Info(err.Error())
			}
			if firstErr == "" {
				firstErr = msg
			}
			result.Targets = append(result.Targets, transfer.TargetOutcome{
				AccountID: f.accountID,
				ProfileID: f.profileID,
				Error:     msg,
			})
		case r.Err != nil:
			if err := s.targets.SetLastError(ctx, post.ID, f.accountID, r.Err.Message); err != nil {
				slog.Info(err.Error())
			}
			if firstErr == "" {
				firstErr = r.Err.Message
			}
			result.Targets = append(result.Targets, transfer.TargetOutcome{
				AccountID: f.accountID,
				ProfileID: f.profileID,
				Error:     r.Err.Message,
			})
		default:
			if err := s.targets.SetProviderPostID(ctx, post.ID, f.accountID, r.ProviderPostID); err != nil {
				slog.Info(err.Error())
			}
			accepted++
			result.Targets = append(result.Targets, transfer.TargetOutcome{
				AccountID:      f.accountID,
				ProfileID:      f.profileID,
				ProviderPostID: r.ProviderPostID,
				Accepted:       true,
			})
		}
	}

	switch {
	case accepted == 0:
		if err := s.posts.UpdateStatus(ctx, post.ID, models.PostStatusFailed, firstErr); err != nil {
			slog.Info(err.Error())
		}
		post.Status = models.PostStatusFailed
		post.ErrorMessage = sql.NullString{String: firstErr, Valid: true}

	case immediate:
		now := time.Now()
		if err := s.posts.MarkPublished(ctx, post.ID, now); err != nil {
			slog.Info(err.Error())
		}
		post.Status = models.PostStatusPublished
		post.PublishedTime = sql.NullTime{Time: now, Valid: true}
		post.ErrorMessage = sql.NullString{}
		if s.tasks != nil {
			if err := s.tasks.EnqueueAnalyticsSync(post.ID, post.UserID, analyticsSyncDelay); err != nil {
				slog.Info(err.Error())
			}
		}

	default:
		if err := s.posts.UpdateStatus(ctx, post.ID, models.PostStatusScheduled, ""); err != nil {
			slog.Info(err.Error())
		}
		post.Status = models.PostStatusScheduled
		post.ErrorMessage = sql.NullString{}
		if s.tasks != nil {
			if err := s.tasks.EnqueuePublish(post.ID, post.ScheduledTime); err != nil {
				slog.Info(err.Error())
			}
		}
	}

	return result, nil
}

// retarget replaces the post's account links. Only called for draft and
// failed posts, where no remote copies exist yet.
func (s *postService) retarget(ctx context.Context, userID, postID int64, accountIDs []int64) error {
	if len(accountIDs) == 0 {
		return fmt.Errorf("%w: at least one target account is required", ErrInvalidInput)
	}
	accounts, err := s.accounts.ListByIDs(ctx, userID, accountIDs)
	if err != nil {
		return fmt.Errorf("failed to load target accounts: %w", err)
	}
	if len(accounts) != len(dedupe(accountIDs)) {
		return fmt.Errorf("%w: one or more target accounts do not exist", ErrInvalidInput)
	}

	tx, err := s.begin(ctx)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("failed to retarget post: %w", err)
	}
	defer rollback(tx)

	if err := s.targets.DeleteByPostID(ctx, tx, postID); err != nil {
		return fmt.Errorf("failed to retarget post: %w", err)
	}
	for _, accountID := range dedupe(accountIDs) {
		if err := s.targets.Create(ctx, tx, &models.PostTarget{PostID: postID, AccountID: accountID}); err != nil {
			return fmt.Errorf("failed to retarget post: %w", err)
		}
	}
	return commit(tx)
}

// begin opens a transaction when a database handle is present. A nil handle
// yields a nil tx, which the repositories run in autocommit mode.
func (s *postService) begin(ctx context.Context) (*sql.Tx, error) {
	if s.db == nil {
		return nil, nil
	}
	return s.db.BeginTx(ctx, nil)
}

func rollback(tx *sql.Tx) {
	if tx != nil {
		tx.Rollback()
	}
}

func commit(tx *sql.Tx) error {
	if tx == nil {
		return nil
	}
	return tx.Commit()
}

func (s *postService) ownedPost(ctx context.Context, userID, postID int64) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	if post == nil || post.UserID != userID {
		return nil, ErrNotFound
	}
	return post, nil
}

func buildMedia(post *models.Post) *provider.Media {
	if len(post.MediaURLs) == 0 {
		return nil
	}
	switch post.PostType {
	case models.PostTypeVideo:
		return &provider.Media{Videos: post.MediaURLs}
	case models.PostTypeLink:
		return &provider.Media{Link: post.MediaURLs[0]}
	default:
		return &provider.Media{Photos: post.MediaURLs}
	}
}

func applyUpdate(post *models.Post, pu *transfer.PostUpdate) {
	if pu.Content != nil {
		post.Content = *pu.Content
	}
	if pu.PostType != nil {
		post.PostType = *pu.PostType
	}
	if pu.MediaURLs != nil {
		post.MediaURLs = pu.MediaURLs
	}
	if pu.ScheduledTime != nil {
		post.ScheduledTime = *pu.ScheduledTime
	}
	if pu.CampaignID != nil {
		post.CampaignID = sql.NullInt64{Int64: *pu.CampaignID, Valid: *pu.CampaignID != 0}
	}
}

func outcomesFromTargets(targets []*models.PostTarget) []transfer.TargetOutcome {
	outcomes := make([]transfer.TargetOutcome, 0, len(targets))
	for _, t := range targets {
		out := transfer.TargetOutcome{AccountID: t.AccountID}
		if t.ProviderPostID.Valid {
			out.ProviderPostID = t.ProviderPostID.String
			out.Accepted = true
		}
		if t.LastError.Valid {
			out.Error = t.LastError.String
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
