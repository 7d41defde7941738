package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/menuflow/platform/pkg/common/logger"
	"github.com/menuflow/platform/pkg/menu"
	"github.com/menuflow/platform/pkg/observability/metrics"
	"github.com/menuflow/platform/pkg/platforms"
)

const DefaultRetryDelay = 2 * time.Second

// MenuFetcher supplies the current menu for a restaurant. A fetch failure
// of any kind is an error; there is no partial result.
type MenuFetcher interface {
	FetchMenu(ctx context.Context, restaurantID string) ([]menu.Item, []menu.Category, error)
}

// StatusStore persists per-(restaurant, platform) sync statuses.
type StatusStore interface {
	Get(ctx context.Context, restaurantID, platform string) (*Status, error)
	Save(ctx context.Context, status *Status) error
	ListForRestaurant(ctx context.Context, restaurantID string) ([]Status, error)
}

// OperationStore persists auxiliary progress records. Optional.
type OperationStore interface {
	Save(ctx context.Context, op *Operation) error
	UpdateProgress(ctx context.Context, operationID string, itemsProcessed int) error
	UpdateStatus(ctx context.Context, operationID string, status string) error
}

// Service orchestrates the fetch -> format -> publish -> record pipeline
// for one platform and fans it out concurrently across platforms.
//
// Status and operation writes are best-effort: a store hiccup never flips
// the returned Result, which reflects the platform outcome only.
type Service struct {
	fetcher    MenuFetcher
	statuses   StatusStore
	operations OperationStore
	retryDelay time.Duration
}

func NewService(fetcher MenuFetcher, statuses StatusStore, operations OperationStore, retryDelay time.Duration) *Service {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	return &Service{
		fetcher:    fetcher,
		statuses:   statuses,
		operations: operations,
		retryDelay: retryDelay,
	}
}

// SyncToPlatform runs one complete sync pass for a single platform.
// Publish is retried exactly once after a fixed delay when retry is true;
// the fetch is never retried.
func (s *Service) SyncToPlatform(ctx context.Context, restaurantID, platform string, adapter platforms.Adapter, retry bool) Result {
	items, categories, err := s.fetcher.FetchMenu(ctx, restaurantID)
	if err != nil {
		return s.failFetch(ctx, restaurantID, platform, err)
	}
	return s.syncFetched(ctx, restaurantID, platform, adapter, retry, items, categories)
}

func (s *Service) failFetch(ctx context.Context, restaurantID, platform string, err error) Result {
	msg := fmt.Sprintf("failed to fetch menu data for restaurant %s", restaurantID)
	logger.Log.WithError(err).WithField("restaurant_id", restaurantID).Error(msg)
	metrics.MenuFetchFailed()
	s.saveStatus(ctx, restaurantID, platform, StatusFailed, 0)
	metrics.SyncFailed()
	return Result{Success: false, Platform: platform, ItemCount: 0, ErrorMessage: msg}
}

// syncFetched runs the adapter-specific part of the pipeline on already
// fetched menu data.
func (s *Service) syncFetched(ctx context.Context, restaurantID, platform string, adapter platforms.Adapter, retry bool, items []menu.Item, categories []menu.Category) Result {
	operationID := s.startOperation(ctx, restaurantID, platform, len(items))

	formatted, err := adapter.Format(items, categories)
	if err != nil {
		msg := fmt.Sprintf("failed to format menu for platform %s", platform)
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"restaurant_id": restaurantID,
			"platform":      platform,
		}).Error(msg)
		s.saveStatus(ctx, restaurantID, platform, StatusFailed, len(items))
		s.finishOperation(ctx, operationID, StatusFailed, 0)
		metrics.SyncFailed()
		return Result{Success: false, Platform: platform, ItemCount: len(items), ErrorMessage: msg}
	}

	publishErr := adapter.Publish(ctx, restaurantID, formatted)
	if publishErr != nil && retry {
		logger.Log.WithError(publishErr).WithField("platform", platform).
			Warn("first publish attempt failed, retrying")
		metrics.PublishRetried()

		select {
		case <-time.After(s.retryDelay):
			publishErr = adapter.Publish(ctx, restaurantID, formatted)
		case <-ctx.Done():
			publishErr = ctx.Err()
		}
	}

	if publishErr != nil {
		msg := fmt.Sprintf("failed to publish menu to %s after all retry attempts", platform)
		logger.Log.WithError(publishErr).WithFields(map[string]interface{}{
			"restaurant_id": restaurantID,
			"platform":      platform,
		}).Error(msg)
		s.saveStatus(ctx, restaurantID, platform, StatusFailed, len(items))
		s.finishOperation(ctx, operationID, StatusFailed, 0)
		metrics.SyncFailed()
		return Result{Success: false, Platform: platform, ItemCount: len(items), ErrorMessage: msg}
	}

	s.saveStatus(ctx, restaurantID, platform, StatusCompleted, len(items))
	s.finishOperation(ctx, operationID, StatusCompleted, len(items))
	metrics.SyncSucceeded()
	return Result{Success: true, Platform: platform, ItemCount: len(items)}
}

// SyncToMultiplePlatforms fetches the menu once, then fans out one
// pipeline per adapter and joins on all of them. One platform's failure
// never cancels another's pass. Result order is unspecified; match on the
// Platform field.
func (s *Service) SyncToMultiplePlatforms(ctx context.Context, restaurantID string, adapters map[string]platforms.Adapter, retry bool) []Result {
	if len(adapters) == 0 {
		return []Result{}
	}

	// The fetch is shared across the batch; platform tasks never re-fetch.
	items, categories, err := s.fetcher.FetchMenu(ctx, restaurantID)
	if err != nil {
		results := make([]Result, 0, len(adapters))
		for platform := range adapters {
			results = append(results, s.failFetch(ctx, restaurantID, platform, err))
		}
		return results
	}

	resultCh := make(chan Result, len(adapters))

	var wg sync.WaitGroup
	for platform, adapter := range adapters {
		wg.Add(1)
		go func(platform string, adapter platforms.Adapter) {
			defer wg.Done()
			resultCh <- s.syncFetched(ctx, restaurantID, platform, adapter, retry, items, categories)
		}(platform, adapter)
	}
	wg.Wait()
	close(resultCh)

	results := make([]Result, 0, len(adapters))
	for result := range resultCh {
		results = append(results, result)
	}
	return results
}

func (s *Service) GetSyncStatus(ctx context.Context, restaurantID, platform string) (*Status, error) {
	return s.statuses.Get(ctx, restaurantID, platform)
}

func (s *Service) GetAllStatusesForRestaurant(ctx context.Context, restaurantID string) ([]Status, error) {
	statuses, err := s.statuses.ListForRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if statuses == nil {
		statuses = []Status{}
	}
	return statuses, nil
}

func (s *Service) saveStatus(ctx context.Context, restaurantID, platform, state string, itemCount int) {
	now := time.Now().UTC()
	status := &Status{
		RestaurantID: restaurantID,
		Platform:     platform,
		Status:       state,
		LastSyncTime: &now,
		ItemCount:    &itemCount,
	}

	if err := s.statuses.Save(ctx, status); err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"restaurant_id": restaurantID,
			"platform":      platform,
		}).Error("failed to save sync status")
		metrics.StatusWriteFailed()
	}
}

// startOperation records an in-progress operation when there is anything
// to process. Returns an empty id when skipped or the write failed.
func (s *Service) startOperation(ctx context.Context, restaurantID, platform string, totalItems int) string {
	if s.operations == nil || totalItems <= 0 {
		return ""
	}

	op := &Operation{
		OperationID:  "op_" + uuid.New().String(),
		RestaurantID: restaurantID,
		Platform:     platform,
		Status:       StatusInProgress,
		TotalItems:   totalItems,
	}
	if err := s.operations.Save(ctx, op); err != nil {
		logger.Log.WithError(err).Warn("failed to record sync operation")
		return ""
	}
	return op.OperationID
}

func (s *Service) finishOperation(ctx context.Context, operationID, state string, itemsProcessed int) {
	if s.operations == nil || operationID == "" {
		return
	}
	if itemsProcessed > 0 {
		if err := s.operations.UpdateProgress(ctx, operationID, itemsProcessed); err != nil {
			logger.Log.WithError(err).Warn("failed to update sync operation progress")
		}
	}
	if err := s.operations.UpdateStatus(ctx, operationID, state); err != nil {
		logger.Log.WithError(err).Warn("failed to update sync operation status")
	}
}
