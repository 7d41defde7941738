package syncer

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("sync record not found")

// StatusRepository persists sync statuses keyed (restaurant_id, platform).
type StatusRepository struct {
	db *gorm.DB
}

func NewStatusRepository(db *gorm.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

func (r *StatusRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&Status{})
}

func (r *StatusRepository) Get(ctx context.Context, restaurantID, platform string) (*Status, error) {
	var status Status
	result := r.db.WithContext(ctx).
		First(&status, "restaurant_id = ? AND platform = ?", restaurantID, platform)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &status, nil
}

// Save upserts the status row for its (restaurant, platform) pair.
func (r *StatusRepository) Save(ctx context.Context, status *Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "restaurant_id"}, {Name: "platform"}},
			UpdateAll: true,
		}).
		Create(status).Error
}

func (r *StatusRepository) ListForRestaurant(ctx context.Context, restaurantID string) ([]Status, error) {
	var statuses []Status
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Find(&statuses).Error
	return statuses, err
}

func (r *StatusRepository) Delete(ctx context.Context, restaurantID, platform string) error {
	return r.db.WithContext(ctx).
		Where("restaurant_id = ? AND platform = ?", restaurantID, platform).
		Delete(&Status{}).Error
}

// ErrorRepository persists the error queue, keyed (error_id, created_at).
type ErrorRepository struct {
	db *gorm.DB
}

func NewErrorRepository(db *gorm.DB) *ErrorRepository {
	return &ErrorRepository{db: db}
}

func (r *ErrorRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&SyncError{})
}

func (r *ErrorRepository) Save(ctx context.Context, syncErr *SyncError) error {
	if err := syncErr.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(syncErr).Error
}

func (r *ErrorRepository) Get(ctx context.Context, errorID string, createdAt time.Time) (*SyncError, error) {
	var syncErr SyncError
	result := r.db.WithContext(ctx).
		First(&syncErr, "error_id = ? AND created_at = ?", errorID, createdAt)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &syncErr, nil
}

// ListForRestaurant returns the most recent errors first.
func (r *ErrorRepository) ListForRestaurant(ctx context.Context, restaurantID string, limit int) ([]SyncError, error) {
	query := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var syncErrors []SyncError
	err := query.Find(&syncErrors).Error
	return syncErrors, err
}

func (r *ErrorRepository) UpdateRetryCount(ctx context.Context, errorID string, createdAt time.Time, retryCount int) error {
	result := r.db.WithContext(ctx).Model(&SyncError{}).
		Where("error_id = ? AND created_at = ?", errorID, createdAt).
		Update("retry_count", retryCount)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// OperationRepository persists auxiliary progress records keyed by
// operation_id.
type OperationRepository struct {
	db *gorm.DB
}

func NewOperationRepository(db *gorm.DB) *OperationRepository {
	return &OperationRepository{db: db}
}

func (r *OperationRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&Operation{})
}

func (r *OperationRepository) Save(ctx context.Context, op *Operation) error {
	if err := op.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "operation_id"}},
			UpdateAll: true,
		}).
		Create(op).Error
}

func (r *OperationRepository) Get(ctx context.Context, operationID string) (*Operation, error) {
	var op Operation
	result := r.db.WithContext(ctx).First(&op, "operation_id = ?", operationID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &op, nil
}

func (r *OperationRepository) UpdateProgress(ctx context.Context, operationID string, itemsProcessed int) error {
	return r.db.WithContext(ctx).Model(&Operation{}).
		Where("operation_id = ?", operationID).
		Update("items_processed", itemsProcessed).Error
}

func (r *OperationRepository) UpdateStatus(ctx context.Context, operationID string, status string) error {
	return r.db.WithContext(ctx).Model(&Operation{}).
		Where("operation_id = ?", operationID).
		Update("status", status).Error
}

func (r *OperationRepository) Delete(ctx context.Context, operationID string) error {
	return r.db.WithContext(ctx).
		Where("operation_id = ?", operationID).
		Delete(&Operation{}).Error
}

func (r *OperationRepository) ListForRestaurant(ctx context.Context, restaurantID string) ([]Operation, error) {
	var ops []Operation
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Find(&ops).Error
	return ops, err
}
