package events

import (
	"context"

	"github.com/menuflow/platform/pkg/common/logger"
	"github.com/menuflow/platform/pkg/common/models"
	"github.com/menuflow/platform/pkg/menu"
	"github.com/menuflow/platform/pkg/platforms"
	"github.com/menuflow/platform/pkg/syncer"
)

// SyncService is the slice of the orchestrator this handler drives.
type SyncService interface {
	SyncToMultiplePlatforms(ctx context.Context, restaurantID string, adapters map[string]platforms.Adapter, retry bool) []syncer.Result
}

// ErrorRecorder persists failed per-platform outcomes.
type ErrorRecorder interface {
	RecordSyncError(ctx context.Context, restaurantID, platform, errorDetails string, items []menu.Item, categories []menu.Category) (string, error)
}

// ResultPublisher emits sync outcome events. Satisfied by kafka.Producer.
type ResultPublisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

// CacheInvalidator drops cached menu data ahead of a fresh sync pass.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, restaurantID string)
}

// Handler reacts to menu change notifications: it syncs every configured
// platform with retry enabled, records an error per failed platform, and
// reports success when at least one platform succeeded (best effort across
// platforms, not all-or-nothing).
type Handler struct {
	syncService SyncService
	errors      ErrorRecorder
	registry    platforms.Registry
	publisher   ResultPublisher
	cache       CacheInvalidator
}

func NewHandler(syncService SyncService, errors ErrorRecorder, registry platforms.Registry, publisher ResultPublisher, cache CacheInvalidator) *Handler {
	return &Handler{
		syncService: syncService,
		errors:      errors,
		registry:    registry,
		publisher:   publisher,
		cache:       cache,
	}
}

// HandleEvent is the kafka.EventHandler entry point.
func (h *Handler) HandleEvent(ctx context.Context, event models.Event) error {
	menuEvent, err := ParseMenuChangedEvent(event)
	if err != nil {
		// Malformed events are dropped, not retried.
		logger.Log.WithError(err).WithField("event_id", event.ID).Warn("ignoring invalid menu event")
		return nil
	}

	h.HandleMenuChanged(ctx, menuEvent)
	return nil
}

// HandleMenuChanged syncs the restaurant to every configured platform.
// Returns true when at least one platform succeeded.
func (h *Handler) HandleMenuChanged(ctx context.Context, event *MenuChangedEvent) bool {
	logger.Log.WithFields(map[string]interface{}{
		"restaurant_id": event.RestaurantID,
		"event_type":    event.EventType,
	}).Info("processing menu change")

	if h.cache != nil {
		h.cache.Invalidate(ctx, event.RestaurantID)
	}

	results := h.syncService.SyncToMultiplePlatforms(ctx, event.RestaurantID, h.registry, true)

	succeeded := make([]string, 0, len(results))
	for _, result := range results {
		if result.Success {
			succeeded = append(succeeded, result.Platform)
			continue
		}

		logger.Log.WithFields(map[string]interface{}{
			"restaurant_id": event.RestaurantID,
			"platform":      result.Platform,
			"error":         result.ErrorMessage,
		}).Error("platform sync failed")

		details := result.ErrorMessage
		if details == "" {
			details = "unknown error"
		}
		if _, err := h.errors.RecordSyncError(ctx, event.RestaurantID, result.Platform, details, nil, nil); err != nil {
			logger.Log.WithError(err).Warn("failed to record sync error")
		}
	}

	if len(succeeded) > 0 {
		logger.Log.WithFields(map[string]interface{}{
			"restaurant_id": event.RestaurantID,
			"platforms":     succeeded,
		}).Info("menu synced")
	}

	h.publishOutcome(ctx, event, results, len(succeeded))
	return len(succeeded) > 0
}

func (h *Handler) publishOutcome(ctx context.Context, event *MenuChangedEvent, results []syncer.Result, succeeded int) {
	if h.publisher == nil {
		return
	}

	outcome := EventSyncFailed
	if succeeded > 0 {
		outcome = EventSyncCompleted
	}

	perPlatform := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		perPlatform = append(perPlatform, map[string]interface{}{
			"platform":   r.Platform,
			"success":    r.Success,
			"item_count": r.ItemCount,
		})
	}

	data := map[string]interface{}{
		"restaurant_id": event.RestaurantID,
		"trigger":       event.EventType,
		"results":       perPlatform,
	}
	if err := h.publisher.PublishEvent(ctx, outcome, "sync-worker", data); err != nil {
		logger.Log.WithError(err).Warn("failed to publish sync outcome event")
	}
}
