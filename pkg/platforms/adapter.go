package platforms

import (
	"context"

	"github.com/menuflow/platform/pkg/menu"
)

// FormattedMenu is a platform-specific menu payload ready to publish.
type FormattedMenu map[string]interface{}

// Adapter is the per-platform capability contract. Format is a pure
// transformation; Publish performs the network calls. Expected failures
// (malformed input, auth rejection, non-2xx, network trouble) come back
// as errors -- an adapter never panics for them. The orchestrator owns
// retry policy.
type Adapter interface {
	Name() string
	Format(items []menu.Item, categories []menu.Category) (FormattedMenu, error)
	Publish(ctx context.Context, restaurantID string, formatted FormattedMenu) error
}
