package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/crossposthq/crosspost/internal/repository"
	"github.com/crossposthq/crosspost/internal/service"
)

// AnalyticsSyncJob periodically refreshes metrics for every user with an
// active provider configuration.
type AnalyticsSyncJob struct {
	pc       repository.ProviderConfigRepository
	as       service.AnalyticsService
	lookback time.Duration
}

func NewAnalyticsSyncJob(pc repository.ProviderConfigRepository, as service.AnalyticsService, lookback time.Duration) *AnalyticsSyncJob {
	if lookback <= 0 {
		lookback = 7 * 24 * time.Hour
	}
	return &AnalyticsSyncJob{
		pc:       pc,
		as:       as,
		lookback: lookback,
	}
}

func (c *AnalyticsSyncJob) SyncAll() {
	ctx := context.Background()

	configs, err := c.pc.ListActive(ctx)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	seen := make(map[int64]struct{}, len(configs))
	var userIDs []int64
	for _, cfg := range configs {
		if _, ok := seen[cfg.UserID]; ok {
			continue
		}
		seen[cfg.UserID] = struct{}{}
		userIDs = append(userIDs, cfg.UserID)
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, userID := range userIDs {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(userID int64) {
			defer wg.Done()
			defer func() { <-semaphore }()

			report, err := c.as.SyncRecent(ctx, userID, c.lookback)
			if err != nil {
				slog.Info(err.Error())
				return
			}
			slog.Info("analytics sync run finished", "user_id", userID,
				"synced", report.Synced, "failed", report.Failed, "pending", report.Pending)
		}(userID)
	}

	wg.Wait()
}
