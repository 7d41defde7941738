package syncer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/menuflow/platform/pkg/menu"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeErrorStore struct {
	saved       []SyncError
	saveErr     error
	listErr     error
	updateCalls int
}

func (f *fakeErrorStore) Save(ctx context.Context, syncErr *SyncError) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, *syncErr)
	return nil
}

func (f *fakeErrorStore) Get(ctx context.Context, errorID string, createdAt time.Time) (*SyncError, error) {
	for i := range f.saved {
		if f.saved[i].ErrorID == errorID && f.saved[i].CreatedAt.Equal(createdAt) {
			syncErr := f.saved[i]
			return &syncErr, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeErrorStore) ListForRestaurant(ctx context.Context, restaurantID string, limit int) ([]SyncError, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []SyncError
	for _, e := range f.saved {
		if e.RestaurantID == restaurantID {
			out = append(out, e)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeErrorStore) UpdateRetryCount(ctx context.Context, errorID string, createdAt time.Time, retryCount int) error {
	f.updateCalls++
	for i := range f.saved {
		if f.saved[i].ErrorID == errorID && f.saved[i].CreatedAt.Equal(createdAt) {
			f.saved[i].RetryCount = retryCount
			return nil
		}
	}
	return ErrNotFound
}

func TestRecordSyncErrorWithoutSnapshot(t *testing.T) {
	store := &fakeErrorStore{}
	service := NewErrorService(store)

	errorID, err := service.RecordSyncError(context.Background(), "rest_1", "doordash", "publish failed", nil, nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(errorID, "err_"))
	assert.Len(t, errorID, len("err_")+12)

	require.Len(t, store.saved, 1)
	saved := store.saved[0]
	assert.Equal(t, "rest_1", saved.RestaurantID)
	assert.Equal(t, "doordash", saved.Platform)
	assert.Equal(t, "publish failed", saved.ErrorDetails)
	assert.Nil(t, saved.MenuSnapshot)
	assert.Equal(t, 0, saved.RetryCount)
}

func TestRecordSyncErrorWithSnapshot(t *testing.T) {
	store := &fakeErrorStore{}
	service := NewErrorService(store)

	items := []menu.Item{
		{ID: "item_1", RestaurantID: "rest_1", Name: "Burger", Price: decimal.RequireFromString("12.99"), CategoryID: "cat_1", Available: true},
	}
	categories := []menu.Category{
		{ID: "cat_1", RestaurantID: "rest_1", Name: "Mains", SortOrder: 1},
	}

	_, err := service.RecordSyncError(context.Background(), "rest_1", "doordash", "publish failed", items, categories)
	require.NoError(t, err)

	require.Len(t, store.saved, 1)
	snapshot := store.saved[0].MenuSnapshot
	require.NotNil(t, snapshot)

	snapshotItems, ok := snapshot["items"].([]interface{})
	require.True(t, ok)
	require.Len(t, snapshotItems, 1)

	first, ok := snapshotItems[0].(map[string]interface{})
	require.True(t, ok)
	// Prices are serialized as strings to avoid precision loss.
	assert.Equal(t, "12.99", first["price"])

	snapshotCategories, ok := snapshot["categories"].([]interface{})
	require.True(t, ok)
	require.Len(t, snapshotCategories, 1)
}

func TestRecordSyncErrorRequiresBothCollections(t *testing.T) {
	store := &fakeErrorStore{}
	service := NewErrorService(store)

	items := []menu.Item{{ID: "item_1", Name: "Burger", CategoryID: "cat_1", Price: decimal.New(0, 0)}}
	_, err := service.RecordSyncError(context.Background(), "rest_1", "doordash", "boom", items, nil)
	require.NoError(t, err)

	require.Len(t, store.saved, 1)
	assert.Nil(t, store.saved[0].MenuSnapshot, "snapshot requires items and categories together")
}

func TestRecordSyncErrorStoreFailure(t *testing.T) {
	store := &fakeErrorStore{saveErr: errors.New("store down")}
	service := NewErrorService(store)

	errorID, err := service.RecordSyncError(context.Background(), "rest_1", "doordash", "boom", nil, nil)
	assert.Error(t, err)
	assert.Empty(t, errorID)
}

func TestGetErrorsForRestaurantPlatformFilter(t *testing.T) {
	store := &fakeErrorStore{}
	service := NewErrorService(store)

	_, err := service.RecordSyncError(context.Background(), "rest_1", "doordash", "a", nil, nil)
	require.NoError(t, err)
	_, err = service.RecordSyncError(context.Background(), "rest_1", "ubereats", "b", nil, nil)
	require.NoError(t, err)
	_, err = service.RecordSyncError(context.Background(), "rest_2", "doordash", "c", nil, nil)
	require.NoError(t, err)

	all, err := service.GetErrorsForRestaurant(context.Background(), "rest_1", "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	doordashOnly, err := service.GetErrorsForRestaurant(context.Background(), "rest_1", "doordash", 0)
	require.NoError(t, err)
	require.Len(t, doordashOnly, 1)
	assert.Equal(t, "a", doordashOnly[0].ErrorDetails)
}

func TestGetErrorsForRestaurantNeverNil(t *testing.T) {
	service := NewErrorService(&fakeErrorStore{})

	syncErrors, err := service.GetErrorsForRestaurant(context.Background(), "rest_1", "", 0)
	require.NoError(t, err)
	assert.NotNil(t, syncErrors)
	assert.Empty(t, syncErrors)
}

func TestIncrementRetryCount(t *testing.T) {
	store := &fakeErrorStore{}
	service := NewErrorService(store)

	errorID, err := service.RecordSyncError(context.Background(), "rest_1", "doordash", "boom", nil, nil)
	require.NoError(t, err)
	createdAt := store.saved[0].CreatedAt

	require.NoError(t, service.IncrementRetryCount(context.Background(), errorID, createdAt))
	require.NoError(t, service.IncrementRetryCount(context.Background(), errorID, createdAt))

	assert.Equal(t, 2, store.saved[0].RetryCount)
}

func TestIncrementRetryCountMissingError(t *testing.T) {
	store := &fakeErrorStore{}
	service := NewErrorService(store)

	err := service.IncrementRetryCount(context.Background(), "err_missing", time.Now().UTC())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, store.updateCalls, "no store write may happen for a missing error")
}
