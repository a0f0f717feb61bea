package model

import (
	"time"
)

// EventType represents the type of turn event.
type EventType string

const (
	EventTypeError   EventType = "error"
	EventTypeCancel  EventType = "cancel"
	EventTypeTimeout EventType = "timeout"
)

// TurnEvent represents an out-of-band event on a thread, such as a model
// failure or a cancelled turn.
type TurnEvent struct {
	ID        string         `json:"id"`
	ThreadID  string         `json:"thread_id"`
	UserID    string         `json:"user_id"`
	Type      EventType      `json:"type"`
	Reason    string         `json:"reason"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	Sequence  uint64         `json:"sequence,omitempty"`
}
