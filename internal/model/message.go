package model

import (
	"time"
)

// Role represents the role of a message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents one entry in a thread's append-only log.
// Messages are immutable once published.
type Message struct {
	// Identity
	ID       string `json:"id"`
	ThreadID string `json:"thread_id"`
	UserID   string `json:"user_id"`

	// Content
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Model metadata (nullable for user messages)
	Model     *string `json:"model,omitempty"`
	TokensIn  *int    `json:"tokens_in,omitempty"`
	TokensOut *int    `json:"tokens_out,omitempty"`
	LatencyMs *int64  `json:"latency_ms,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`

	// JetStream metadata (populated on read)
	Sequence uint64 `json:"sequence,omitempty"`
}

// SendMessageRequest is the request body that starts a turn.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// TurnResult is the aggregated reply for one turn, returned to the caller
// together with every draft still live on the thread.
type TurnResult struct {
	ThreadID string  `json:"thread_id"`
	Text     string  `json:"text"`
	Drafts   []Draft `json:"drafts"`
}

// ListMessagesResponse is the response for listing messages.
type ListMessagesResponse struct {
	Messages     []Message `json:"messages"`
	HasMore      bool      `json:"has_more"`
	LastSequence uint64    `json:"last_sequence"`
}
