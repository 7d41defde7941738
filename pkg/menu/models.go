package menu

import "github.com/shopspring/decimal"

// Item is one menu entry as served by the menu service. Prices are decimal
// to avoid float drift; they marshal as JSON strings.
type Item struct {
	ID           string          `json:"id"`
	RestaurantID string          `json:"restaurant_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	CategoryID   string          `json:"category_id"`
	Available    bool            `json:"available"`
	ImageURL     string          `json:"image_url,omitempty"`
}

type Category struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurant_id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	SortOrder    int    `json:"sort_order"`
}
