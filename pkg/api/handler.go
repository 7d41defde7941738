package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/menuflow/platform/pkg/common/logger"
	"github.com/menuflow/platform/pkg/menu"
	"github.com/menuflow/platform/pkg/platforms"
	"github.com/menuflow/platform/pkg/syncer"
)

const defaultErrorListLimit = 50

// SyncService is the slice of the orchestrator the admin API drives.
type SyncService interface {
	SyncToPlatform(ctx context.Context, restaurantID, platform string, adapter platforms.Adapter, retry bool) syncer.Result
	SyncToMultiplePlatforms(ctx context.Context, restaurantID string, adapters map[string]platforms.Adapter, retry bool) []syncer.Result
	GetAllStatusesForRestaurant(ctx context.Context, restaurantID string) ([]syncer.Status, error)
}

// ErrorService is the error queue surface used by the admin API.
type ErrorService interface {
	RecordSyncError(ctx context.Context, restaurantID, platform, errorDetails string, items []menu.Item, categories []menu.Category) (string, error)
	GetErrorsForRestaurant(ctx context.Context, restaurantID, platform string, limit int) ([]syncer.SyncError, error)
	IncrementRetryCount(ctx context.Context, errorID string, createdAt time.Time) error
}

// Handler exposes the admin surface: status lookups, manual resync
// triggers, error listing and error retry.
type Handler struct {
	syncService  SyncService
	errorService ErrorService
	registry     platforms.Registry
	validator    *APIKeyValidator
}

func NewHandler(syncService SyncService, errorService ErrorService, registry platforms.Registry, validator *APIKeyValidator) *Handler {
	return &Handler{
		syncService:  syncService,
		errorService: errorService,
		registry:     registry,
		validator:    validator,
	}
}

func (h *Handler) Register(router *mux.Router) {
	admin := router.PathPrefix("/admin").Subrouter()
	admin.Use(RequireAPIKey(h.validator))

	admin.HandleFunc("/sync-status/{restaurantID}", h.handleSyncStatus).Methods(http.MethodGet)
	admin.HandleFunc("/sync/{restaurantID}/full-refresh", h.handleFullRefresh).Methods(http.MethodPost)
	admin.HandleFunc("/sync/{restaurantID}/platform/{platform}", h.handlePlatformSync).Methods(http.MethodPost)
	admin.HandleFunc("/errors/{restaurantID}", h.handleListErrors).Methods(http.MethodGet)
	admin.HandleFunc("/errors/{errorID}/retry", h.handleRetryError).Methods(http.MethodPost)
}

type syncTriggerResponse struct {
	RestaurantID string          `json:"restaurant_id"`
	Success      bool            `json:"success"`
	Results      []syncer.Result `json:"results"`
}

type platformSyncResponse struct {
	RestaurantID string `json:"restaurant_id"`
	Platform     string `json:"platform"`
	Success      bool   `json:"success"`
	ItemCount    int    `json:"item_count"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type errorRetryResponse struct {
	ErrorID string `json:"error_id"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handler) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	restaurantID := mux.Vars(r)["restaurantID"]

	statuses, err := h.syncService.GetAllStatusesForRestaurant(r.Context(), restaurantID)
	if err != nil {
		logger.Log.WithError(err).Error("failed to list sync statuses")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, statuses)
}

// handleFullRefresh syncs all configured platforms. Full success is 200,
// partial success 207, total failure 500; the body always carries the
// per-platform results.
func (h *Handler) handleFullRefresh(w http.ResponseWriter, r *http.Request) {
	restaurantID := mux.Vars(r)["restaurantID"]
	logger.Log.WithField("restaurant_id", restaurantID).Info("manual full refresh triggered")

	results := h.syncService.SyncToMultiplePlatforms(r.Context(), restaurantID, h.registry, true)

	succeeded := 0
	for _, result := range results {
		if result.Success {
			succeeded++
			continue
		}
		details := result.ErrorMessage
		if details == "" {
			details = "manual sync failed"
		}
		if _, err := h.errorService.RecordSyncError(r.Context(), restaurantID, result.Platform, details, nil, nil); err != nil {
			logger.Log.WithError(err).Warn("failed to record sync error")
		}
	}

	// An empty batch has nothing to fail; keep 200 with Success true so
	// status code and body agree.
	statusCode := http.StatusOK
	switch {
	case len(results) == 0:
	case succeeded == 0:
		statusCode = http.StatusInternalServerError
	case succeeded < len(results):
		statusCode = http.StatusMultiStatus
	}

	writeJSON(w, statusCode, syncTriggerResponse{
		RestaurantID: restaurantID,
		Success:      succeeded == len(results),
		Results:      results,
	})
}

func (h *Handler) handlePlatformSync(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	restaurantID := vars["restaurantID"]
	platform := vars["platform"]

	adapter, ok := h.registry.Get(platform)
	if !ok {
		http.Error(w, "platform not configured", http.StatusNotFound)
		return
	}

	logger.Log.WithFields(map[string]interface{}{
		"restaurant_id": restaurantID,
		"platform":      platform,
	}).Info("manual platform sync triggered")

	result := h.syncService.SyncToPlatform(r.Context(), restaurantID, platform, adapter, true)

	if !result.Success {
		details := result.ErrorMessage
		if details == "" {
			details = "manual sync failed"
		}
		if _, err := h.errorService.RecordSyncError(r.Context(), restaurantID, platform, details, nil, nil); err != nil {
			logger.Log.WithError(err).Warn("failed to record sync error")
		}

		writeJSON(w, http.StatusInternalServerError, platformSyncResponse{
			RestaurantID: restaurantID,
			Platform:     platform,
			Success:      false,
			ItemCount:    result.ItemCount,
			ErrorMessage: result.ErrorMessage,
		})
		return
	}

	writeJSON(w, http.StatusOK, platformSyncResponse{
		RestaurantID: restaurantID,
		Platform:     platform,
		Success:      true,
		ItemCount:    result.ItemCount,
	})
}

func (h *Handler) handleListErrors(w http.ResponseWriter, r *http.Request) {
	restaurantID := mux.Vars(r)["restaurantID"]
	platform := r.URL.Query().Get("platform")

	limit := defaultErrorListLimit
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	syncErrors, err := h.errorService.GetErrorsForRestaurant(r.Context(), restaurantID, platform, limit)
	if err != nil {
		logger.Log.WithError(err).Error("failed to list sync errors")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, syncErrors)
}

// handleRetryError re-runs the sync recorded in an error queue entry. The
// error is looked up within the restaurant given by the restaurant_id
// query parameter, scanning that restaurant's full error queue; the retry
// counter is bumped whether or not the retry succeeds.
func (h *Handler) handleRetryError(w http.ResponseWriter, r *http.Request) {
	errorID := mux.Vars(r)["errorID"]
	restaurantID := r.URL.Query().Get("restaurant_id")
	if restaurantID == "" {
		http.Error(w, "restaurant_id query parameter required", http.StatusBadRequest)
		return
	}

	syncErrors, err := h.errorService.GetErrorsForRestaurant(r.Context(), restaurantID, "", 0)
	if err != nil {
		logger.Log.WithError(err).Error("failed to look up sync error")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var target *syncer.SyncError
	for i := range syncErrors {
		if syncErrors[i].ErrorID == errorID {
			target = &syncErrors[i]
			break
		}
	}
	if target == nil {
		http.Error(w, "error not found", http.StatusNotFound)
		return
	}

	adapter, ok := h.registry.Get(target.Platform)
	if !ok {
		http.Error(w, "platform not configured", http.StatusNotFound)
		return
	}

	logger.Log.WithFields(map[string]interface{}{
		"error_id":      errorID,
		"restaurant_id": target.RestaurantID,
		"platform":      target.Platform,
	}).Info("retrying sync from error queue")

	result := h.syncService.SyncToPlatform(r.Context(), target.RestaurantID, target.Platform, adapter, true)

	if err := h.errorService.IncrementRetryCount(r.Context(), target.ErrorID, target.CreatedAt); err != nil {
		logger.Log.WithError(err).Warn("failed to increment retry count")
	}

	if result.Success {
		writeJSON(w, http.StatusOK, errorRetryResponse{
			ErrorID: errorID,
			Success: true,
			Message: "successfully retried sync to " + target.Platform,
		})
		return
	}

	writeJSON(w, http.StatusOK, errorRetryResponse{
		ErrorID: errorID,
		Success: false,
		Message: "retry failed: " + result.ErrorMessage,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}
