package syncer

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Status is the current sync state for one (restaurant, platform) pair.
// One logical row per pair, overwritten on every attempt -- last write
// wins, no history kept here.
type Status struct {
	RestaurantID   string     `json:"restaurant_id" gorm:"primaryKey;column:restaurant_id"`
	Platform       string     `json:"platform" gorm:"primaryKey;column:platform"`
	Status         string     `json:"status" gorm:"column:status"`
	LastSyncTime   *time.Time `json:"last_sync_time,omitempty" gorm:"column:last_sync_time"`
	ItemCount      *int       `json:"item_count,omitempty" gorm:"column:item_count"`
	ExternalMenuID *string    `json:"external_menu_id,omitempty" gorm:"column:external_menu_id"`
}

func (Status) TableName() string {
	return "sync_statuses"
}

func (s Status) Validate() error {
	if s.RestaurantID == "" || s.Platform == "" {
		return errors.New("restaurant_id and platform required")
	}
	if s.ItemCount != nil && *s.ItemCount < 0 {
		return errors.New("item_count must be non-negative")
	}
	return nil
}

// SyncError is one entry in the error queue, keyed (error_id, created_at).
// Created once per failed sync attempt; only retry_count is mutated
// afterwards, and it only increases.
type SyncError struct {
	ErrorID      string            `json:"error_id" gorm:"primaryKey;column:error_id"`
	CreatedAt    time.Time         `json:"created_at" gorm:"primaryKey;column:created_at"`
	RestaurantID string            `json:"restaurant_id" gorm:"column:restaurant_id;index"`
	Platform     string            `json:"platform" gorm:"column:platform"`
	ErrorDetails string            `json:"error_details" gorm:"column:error_details"`
	MenuSnapshot datatypes.JSONMap `json:"menu_snapshot,omitempty" gorm:"column:menu_snapshot"`
	RetryCount   int               `json:"retry_count" gorm:"column:retry_count"`
}

func (SyncError) TableName() string {
	return "sync_errors"
}

func (e SyncError) Validate() error {
	if e.ErrorID == "" {
		return errors.New("error_id required")
	}
	if e.RetryCount < 0 {
		return errors.New("retry_count must be non-negative")
	}
	return nil
}

// Operation is an auxiliary progress record for a single platform sync.
type Operation struct {
	OperationID    string `json:"operation_id" gorm:"primaryKey;column:operation_id"`
	RestaurantID   string `json:"restaurant_id" gorm:"column:restaurant_id;index"`
	Platform       string `json:"platform" gorm:"column:platform"`
	Status         string `json:"status" gorm:"column:status"`
	TotalItems     int    `json:"total_items" gorm:"column:total_items"`
	ItemsProcessed int    `json:"items_processed" gorm:"column:items_processed"`
}

func (Operation) TableName() string {
	return "sync_operations"
}

func (o Operation) Validate() error {
	if o.OperationID == "" {
		return errors.New("operation_id required")
	}
	if o.TotalItems <= 0 {
		return errors.New("total_items must be positive")
	}
	if o.ItemsProcessed < 0 {
		return errors.New("items_processed must be non-negative")
	}
	if o.ItemsProcessed > o.TotalItems {
		return errors.New("items_processed cannot exceed total_items")
	}
	return nil
}

// Progress returns completion as a percentage. Zero total is guarded even
// though Validate rejects it.
func (o Operation) Progress() float64 {
	if o.TotalItems == 0 {
		return 0.0
	}
	return float64(o.ItemsProcessed) / float64(o.TotalItems) * 100.0
}

// Result is the in-memory outcome of one sync pass for one platform. It is
// returned to callers and handed to the error recorder; never persisted.
type Result struct {
	Success      bool   `json:"success"`
	Platform     string `json:"platform"`
	ItemCount    int    `json:"item_count"`
	ErrorMessage string `json:"error_message,omitempty"`
}
