package syncer

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/menuflow/platform/pkg/common/logger"
	"github.com/menuflow/platform/pkg/menu"
	"github.com/menuflow/platform/pkg/observability/metrics"
	"gorm.io/datatypes"
)

// ErrorStore persists the sync error queue.
type ErrorStore interface {
	Save(ctx context.Context, syncErr *SyncError) error
	Get(ctx context.Context, errorID string, createdAt time.Time) (*SyncError, error)
	ListForRestaurant(ctx context.Context, restaurantID string, limit int) ([]SyncError, error)
	UpdateRetryCount(ctx context.Context, errorID string, createdAt time.Time, retryCount int) error
}

// ErrorService records sync failures and tracks manual retry attempts for
// the admin dashboard.
type ErrorService struct {
	store ErrorStore
}

func NewErrorService(store ErrorStore) *ErrorService {
	return &ErrorService{store: store}
}

// RecordSyncError appends a new entry to the error queue. A menu snapshot
// is captured only when both collections are supplied. Returns the fresh
// error id.
func (s *ErrorService) RecordSyncError(ctx context.Context, restaurantID, platform, errorDetails string, items []menu.Item, categories []menu.Category) (string, error) {
	errorID := "err_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]

	var snapshot datatypes.JSONMap
	if items != nil && categories != nil {
		snapshot = buildMenuSnapshot(items, categories)
	}

	syncErr := &SyncError{
		ErrorID:      errorID,
		CreatedAt:    time.Now().UTC(),
		RestaurantID: restaurantID,
		Platform:     platform,
		ErrorDetails: errorDetails,
		MenuSnapshot: snapshot,
		RetryCount:   0,
	}

	if err := s.store.Save(ctx, syncErr); err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"restaurant_id": restaurantID,
			"platform":      platform,
		}).Error("failed to save sync error")
		return "", err
	}

	metrics.ErrorRecorded()
	return errorID, nil
}

func (s *ErrorService) GetError(ctx context.Context, errorID string, createdAt time.Time) (*SyncError, error) {
	return s.store.Get(ctx, errorID, createdAt)
}

// GetErrorsForRestaurant returns recent errors, newest first, optionally
// narrowed to one platform. The platform filter is applied here rather
// than in the store query. Never returns a nil slice.
func (s *ErrorService) GetErrorsForRestaurant(ctx context.Context, restaurantID, platform string, limit int) ([]SyncError, error) {
	syncErrors, err := s.store.ListForRestaurant(ctx, restaurantID, limit)
	if err != nil {
		return nil, err
	}

	if platform != "" {
		filtered := make([]SyncError, 0, len(syncErrors))
		for _, e := range syncErrors {
			if e.Platform == platform {
				filtered = append(filtered, e)
			}
		}
		syncErrors = filtered
	}

	if syncErrors == nil {
		syncErrors = []SyncError{}
	}
	return syncErrors, nil
}

// IncrementRetryCount bumps the retry counter for an error. Read-then-write
// with no isolation: concurrent retries of the same error can under-count,
// an accepted trade-off for this admin-triggered path.
func (s *ErrorService) IncrementRetryCount(ctx context.Context, errorID string, createdAt time.Time) error {
	syncErr, err := s.store.Get(ctx, errorID, createdAt)
	if err != nil {
		return err
	}
	return s.store.UpdateRetryCount(ctx, errorID, createdAt, syncErr.RetryCount+1)
}

// buildMenuSnapshot produces a JSON-safe copy of the menu at failure time.
// Prices are serialized as strings to avoid precision loss.
func buildMenuSnapshot(items []menu.Item, categories []menu.Category) datatypes.JSONMap {
	snapshotItems := make([]interface{}, 0, len(items))
	for _, item := range items {
		snapshotItems = append(snapshotItems, map[string]interface{}{
			"id":            item.ID,
			"restaurant_id": item.RestaurantID,
			"name":          item.Name,
			"description":   item.Description,
			"price":         item.Price.String(),
			"category_id":   item.CategoryID,
			"available":     item.Available,
			"image_url":     item.ImageURL,
		})
	}

	snapshotCategories := make([]interface{}, 0, len(categories))
	for _, cat := range categories {
		snapshotCategories = append(snapshotCategories, map[string]interface{}{
			"id":            cat.ID,
			"restaurant_id": cat.RestaurantID,
			"name":          cat.Name,
			"description":   cat.Description,
			"sort_order":    cat.SortOrder,
		})
	}

	return datatypes.JSONMap{
		"items":      snapshotItems,
		"categories": snapshotCategories,
	}
}
