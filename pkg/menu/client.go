package menu

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/menuflow/platform/pkg/common/logger"
	"github.com/redis/go-redis/v9"
)

// Client fetches menu data from the menu service using a static service
// API key. An optional Redis cache fronts FetchMenu; cache trouble always
// degrades to a direct fetch.
type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	cache    *redis.Client
	cacheTTL time.Duration
}

func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
	}
}

// WithCache enables the read-through cache. TTL <= 0 disables caching.
func (c *Client) WithCache(cache *redis.Client, ttl time.Duration) *Client {
	c.cache = cache
	c.cacheTTL = ttl
	return c
}

type cachedMenu struct {
	Items      []Item     `json:"items"`
	Categories []Category `json:"categories"`
}

func (c *Client) FetchItems(ctx context.Context, restaurantID string) ([]Item, error) {
	var payload struct {
		Items []Item `json:"items"`
	}
	if err := c.get(ctx, fmt.Sprintf("/restaurants/%s/items", restaurantID), &payload); err != nil {
		return nil, fmt.Errorf("fetching items for restaurant %s: %w", restaurantID, err)
	}
	return payload.Items, nil
}

func (c *Client) FetchCategories(ctx context.Context, restaurantID string) ([]Category, error) {
	var payload struct {
		Categories []Category `json:"categories"`
	}
	if err := c.get(ctx, fmt.Sprintf("/restaurants/%s/categories", restaurantID), &payload); err != nil {
		return nil, fmt.Errorf("fetching categories for restaurant %s: %w", restaurantID, err)
	}
	return payload.Categories, nil
}

// FetchMenu returns the complete menu for a restaurant. Both sub-fetches
// must succeed; a failure of either is a fetch failure for the caller.
func (c *Client) FetchMenu(ctx context.Context, restaurantID string) ([]Item, []Category, error) {
	if menu, ok := c.cacheGet(ctx, restaurantID); ok {
		return menu.Items, menu.Categories, nil
	}

	items, err := c.FetchItems(ctx, restaurantID)
	if err != nil {
		return nil, nil, err
	}

	categories, err := c.FetchCategories(ctx, restaurantID)
	if err != nil {
		return nil, nil, err
	}

	c.cacheSet(ctx, restaurantID, cachedMenu{Items: items, Categories: categories})
	return items, categories, nil
}

// Invalidate drops the cached menu for a restaurant. Called when a menu
// change event arrives so the next sync pass sees fresh data.
func (c *Client) Invalidate(ctx context.Context, restaurantID string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Del(ctx, cacheKey(restaurantID)).Err(); err != nil {
		logger.Log.WithError(err).WithField("restaurant_id", restaurantID).Warn("failed to invalidate menu cache")
	}
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("menu service returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) cacheGet(ctx context.Context, restaurantID string) (cachedMenu, bool) {
	var menu cachedMenu
	if c.cache == nil || c.cacheTTL <= 0 {
		return menu, false
	}

	raw, err := c.cache.Get(ctx, cacheKey(restaurantID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Log.WithError(err).Warn("menu cache read failed")
		}
		return menu, false
	}

	if err := json.Unmarshal(raw, &menu); err != nil {
		logger.Log.WithError(err).Warn("menu cache entry corrupt, ignoring")
		return cachedMenu{}, false
	}
	return menu, true
}

func (c *Client) cacheSet(ctx context.Context, restaurantID string, menu cachedMenu) {
	if c.cache == nil || c.cacheTTL <= 0 {
		return
	}

	raw, err := json.Marshal(menu)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, cacheKey(restaurantID), raw, c.cacheTTL).Err(); err != nil {
		logger.Log.WithError(err).Warn("menu cache write failed")
	}
}

func cacheKey(restaurantID string) string {
	return "menu:" + restaurantID
}
