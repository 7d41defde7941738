package platforms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/menuflow/platform/pkg/common/logger"
	"github.com/menuflow/platform/pkg/menu"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func testMenu() ([]menu.Item, []menu.Category) {
	items := []menu.Item{
		{ID: "item_1", RestaurantID: "rest_1", Name: "Burger", Description: "classic", Price: decimal.RequireFromString("12.99"), CategoryID: "cat_1", Available: true},
		{ID: "item_2", RestaurantID: "rest_1", Name: "Fries", Price: decimal.RequireFromString("4.50"), CategoryID: "cat_1", Available: false},
	}
	categories := []menu.Category{
		{ID: "cat_1", RestaurantID: "rest_1", Name: "Mains", SortOrder: 1},
		{ID: "cat_2", RestaurantID: "rest_1", Name: "Sides", SortOrder: 2},
	}
	return items, categories
}

func TestDoorDashFormat(t *testing.T) {
	adapter := NewDoorDash("client", "secret", "sandbox", nil)
	items, categories := testMenu()

	formatted, err := adapter.Format(items, categories)
	require.NoError(t, err)

	payload, ok := formatted["menu"].(map[string]interface{})
	require.True(t, ok)

	formattedItems, ok := payload["items"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, formattedItems, 1, "unavailable items must be excluded")
	assert.Equal(t, "item_1", formattedItems[0]["id"])
	assert.Equal(t, int64(1299), formattedItems[0]["price"], "prices are converted to cents")

	formattedCategories, ok := payload["categories"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, formattedCategories, 2)
	assert.Equal(t, "cat_1", formattedCategories[0]["id"])
	assert.Equal(t, "cat_2", formattedCategories[1]["id"], "category order is preserved")
	assert.Equal(t, 2, formattedCategories[1]["sort_order"])
}

func TestDoorDashFormatMissingFields(t *testing.T) {
	adapter := NewDoorDash("client", "secret", "sandbox", nil)

	items := []menu.Item{{ID: "item_1", Available: true, Price: decimal.New(0, 0)}}
	_, err := adapter.Format(items, nil)
	assert.Error(t, err)

	_, err = adapter.Format(nil, []menu.Category{{ID: "cat_1"}})
	assert.Error(t, err)
}

func TestDoorDashFormatNegativePrice(t *testing.T) {
	adapter := NewDoorDash("client", "secret", "sandbox", nil)

	items := []menu.Item{{ID: "item_1", Name: "Burger", CategoryID: "cat_1", Available: true, Price: decimal.RequireFromString("-1.00")}}
	_, err := adapter.Format(items, nil)
	assert.Error(t, err)
}

func TestDoorDashEnvironmentSelection(t *testing.T) {
	sandbox := NewDoorDash("client", "secret", "sandbox", nil)
	assert.Equal(t, doorDashSandboxURL, sandbox.baseURL)

	production := NewDoorDash("client", "secret", "production", nil)
	assert.Equal(t, doorDashProductionURL, production.baseURL)
}

func TestDoorDashPublish(t *testing.T) {
	var tokenRequests, menuRequests int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/token":
			tokenRequests++
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.FormValue("grant_type"))
			assert.Equal(t, "client", r.FormValue("client_id"))
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token": "tok_123",
				"token_type":   "Bearer",
				"expires_in":   3600,
			})
		case "/v1/stores/ext_rest_1/menu":
			menuRequests++
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "Bearer tok_123", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	adapter := NewDoorDash("client", "secret", "sandbox", server.Client())
	adapter.baseURL = server.URL

	err := adapter.Publish(context.Background(), "rest_1", FormattedMenu{"menu": map[string]interface{}{}})
	require.NoError(t, err)
	assert.Equal(t, 1, tokenRequests)
	assert.Equal(t, 1, menuRequests)
}

func TestDoorDashPublishAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer server.Close()

	adapter := NewDoorDash("client", "secret", "sandbox", server.Client())
	adapter.baseURL = server.URL

	err := adapter.Publish(context.Background(), "rest_1", FormattedMenu{})
	assert.ErrorContains(t, err, "auth failed")
}

func TestDoorDashPublishUpsertFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/token" {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "tok", "token_type": "Bearer"})
			return
		}
		http.Error(w, "rejected", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	adapter := NewDoorDash("client", "secret", "sandbox", server.Client())
	adapter.baseURL = server.URL

	err := adapter.Publish(context.Background(), "rest_1", FormattedMenu{})
	assert.ErrorContains(t, err, "status 422")
}

func TestDoorDashPublishNilMenu(t *testing.T) {
	adapter := NewDoorDash("client", "secret", "sandbox", nil)
	assert.Error(t, adapter.Publish(context.Background(), "rest_1", nil))
}
