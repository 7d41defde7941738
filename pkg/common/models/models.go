package models

import "time"

// Event is the envelope for every message on the bus. Producers wrap
// domain payloads in Data; consumers dispatch on Type.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // menu.created, menu.updated, menu.deleted, sync.completed, sync.failed
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}
