// Package model defines data structures for the assistant backend.
package model

import (
	"time"
)

// Thread represents a multi-turn conversation thread.
type Thread struct {
	ID           string            `json:"id"`
	UserID       string            `json:"user_id"`
	Title        string            `json:"title"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	MessageCount int               `json:"message_count,omitempty"`
	LastMessage  *Message          `json:"last_message,omitempty"`
	Deleted      bool              `json:"deleted,omitempty"`
}

// CreateThreadRequest is the request to create a new thread.
type CreateThreadRequest struct {
	Title    string            `json:"title"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ListThreadsResponse is the response for listing threads.
type ListThreadsResponse struct {
	Threads []Thread `json:"threads"`
	Total   int      `json:"total"`
	HasMore bool     `json:"has_more"`
}
