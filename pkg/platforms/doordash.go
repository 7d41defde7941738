package platforms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/menuflow/platform/pkg/common/logger"
	"github.com/menuflow/platform/pkg/menu"
	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	doorDashProductionURL = "https://openapi.doordash.com"
	doorDashSandboxURL    = "https://openapi-sandbox.doordash.com"
)

var centsFactor = decimal.NewFromInt(100)

// DoorDash publishes menus through the DoorDash Drive API. Authentication
// is an OAuth client-credentials exchange performed on every publish; the
// token is not cached across calls.
type DoorDash struct {
	clientID     string
	clientSecret string
	baseURL      string
	http         *http.Client
}

func NewDoorDash(clientID, clientSecret, environment string, httpClient *http.Client) *DoorDash {
	baseURL := doorDashSandboxURL
	if environment == "production" {
		baseURL = doorDashProductionURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &DoorDash{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      baseURL,
		http:         httpClient,
	}
}

func (d *DoorDash) Name() string { return "doordash" }

// Format converts menu data to the DoorDash shape: only available items,
// prices in cents, categories kept in source order.
func (d *DoorDash) Format(items []menu.Item, categories []menu.Category) (FormattedMenu, error) {
	formattedCategories := make([]map[string]interface{}, 0, len(categories))
	for _, cat := range categories {
		if cat.ID == "" || cat.Name == "" {
			return nil, fmt.Errorf("category missing id or name")
		}
		formattedCategories = append(formattedCategories, map[string]interface{}{
			"id":          cat.ID,
			"name":        cat.Name,
			"description": cat.Description,
			"sort_order":  cat.SortOrder,
		})
	}

	formattedItems := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if !item.Available {
			continue
		}
		if item.ID == "" || item.Name == "" || item.CategoryID == "" {
			return nil, fmt.Errorf("item %q missing required fields", item.ID)
		}
		if item.Price.IsNegative() {
			return nil, fmt.Errorf("item %s has negative price", item.ID)
		}
		formattedItems = append(formattedItems, map[string]interface{}{
			"id":          item.ID,
			"name":        item.Name,
			"description": item.Description,
			"price":       item.Price.Mul(centsFactor).IntPart(),
			"category_id": item.CategoryID,
			"image_url":   item.ImageURL,
		})
	}

	return FormattedMenu{
		"menu": map[string]interface{}{
			"categories": formattedCategories,
			"items":      formattedItems,
		},
	}, nil
}

// Publish exchanges client credentials for a token, then upserts the menu
// for the store mapped from our restaurant id.
func (d *DoorDash) Publish(ctx context.Context, restaurantID string, formatted FormattedMenu) error {
	if formatted == nil {
		return errors.New("nil formatted menu")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, d.http)
	creds := clientcredentials.Config{
		ClientID:     d.clientID,
		ClientSecret: d.clientSecret,
		TokenURL:     d.baseURL + "/auth/token",
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	token, err := creds.Token(ctx)
	if err != nil {
		return fmt.Errorf("doordash auth failed: %w", err)
	}

	body, err := json.Marshal(formatted)
	if err != nil {
		return fmt.Errorf("encoding doordash menu: %w", err)
	}

	storeID := "ext_" + restaurantID
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		fmt.Sprintf("%s/v1/stores/%s/menu", d.baseURL, storeID), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	token.SetAuthHeader(req)

	resp, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("doordash menu update failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("doordash menu update returned status %d", resp.StatusCode)
	}

	logger.Log.WithField("restaurant_id", restaurantID).Info("published menu to doordash")
	return nil
}
