package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/menuflow/platform/pkg/common/models"
)

const (
	EventMenuCreated = "menu.created"
	EventMenuUpdated = "menu.updated"
	EventMenuDeleted = "menu.deleted"

	EventSyncCompleted = "sync.completed"
	EventSyncFailed    = "sync.failed"
)

var errInvalidEvent = errors.New("invalid menu change event")

// MenuChangedEvent is the decoded payload of a menu change notification.
type MenuChangedEvent struct {
	RestaurantID string `json:"restaurant_id"`
	EventType    string `json:"event_type"`
	Timestamp    string `json:"timestamp"`
}

func isMenuChangeType(eventType string) bool {
	switch eventType {
	case EventMenuCreated, EventMenuUpdated, EventMenuDeleted:
		return true
	}
	return false
}

// ParseMenuChangedEvent extracts a MenuChangedEvent from the bus envelope.
// Unrecognized shapes are rejected here, before the orchestrator is
// involved.
func ParseMenuChangedEvent(event models.Event) (*MenuChangedEvent, error) {
	if !isMenuChangeType(event.Type) {
		return nil, fmt.Errorf("%w: unexpected type %q", errInvalidEvent, event.Type)
	}

	restaurantID, _ := event.Data["restaurant_id"].(string)
	if restaurantID == "" {
		return nil, fmt.Errorf("%w: missing restaurant_id", errInvalidEvent)
	}

	timestamp, _ := event.Data["timestamp"].(string)
	if timestamp == "" {
		timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}

	return &MenuChangedEvent{
		RestaurantID: restaurantID,
		EventType:    event.Type,
		Timestamp:    timestamp,
	}, nil
}
