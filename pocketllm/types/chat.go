// pocketllm/types/chat.go
package types

import (
	"time"
)

// Role tags which side of the conversation a message belongs to. It decides
// the display side in the UI and the role field sent to the inference
// backend.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a session. Messages are immutable after creation;
// they are removed only when the whole session is cleared or deleted.
type Message struct {
	MessageID string    `json:"message_id"`
	Content   string    `json:"content"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`
	// IsCached marks assistant messages that were served from the response
	// cache instead of a live inference call.
	IsCached bool `json:"is_cached,omitempty"`
}

// Session is a conversation thread. Messages keep insertion order; the list
// is only ever appended to or wholly cleared, never reordered.
type Session struct {
	SessionID      string    `json:"session_id"`
	UserID         string    `json:"user_id"`
	Title          string    `json:"title,omitempty"`
	Messages       []Message `json:"messages,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

// ChatTurn is the wire form of a conversation turn for the inference RPC.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// InferenceParameters tunes a single inference call. Nil fields mean
// "use the backend default".
type InferenceParameters struct {
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

// InferenceRequest is the request shape of the remote inference RPC.
type InferenceRequest struct {
	SessionID  string              `json:"session_id,omitempty"`
	Messages   []ChatTurn          `json:"messages"`
	Parameters InferenceParameters `json:"parameters,omitempty"`
}

// InferenceResult is the response shape of the remote inference RPC.
// IsCached reports a cache hit on the answering side, not the caller's own
// cache.
type InferenceResult struct {
	Response string `json:"response"`
	Tokens   int    `json:"tokens,omitempty"`
	IsCached bool   `json:"is_cached,omitempty"`
}

// ChatSendRequest is the portal's persisting chat endpoint payload. An empty
// SessionID asks the portal to open a new session for the caller.
type ChatSendRequest struct {
	SessionID  string              `json:"session_id,omitempty"`
	Content    string              `json:"content"`
	Parameters InferenceParameters `json:"parameters,omitempty"`
}

// ChatSendResponse is returned by the persisting chat endpoint.
type ChatSendResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
	Tokens    int    `json:"tokens,omitempty"`
	IsCached  bool   `json:"is_cached"`
	LatencyMs int64  `json:"latency_ms"`
}

// ChatSessionSummary feeds the threads panel and the admin session list.
// LastActivity is RFC3339.
type ChatSessionSummary struct {
	SessionID       string `json:"session_id"`
	UserID          string `json:"user_id,omitempty"`
	Title           string `json:"title,omitempty"`
	LastMessage     string `json:"last_message"`
	LastMessageRole string `json:"last_message_role"`
	LastActivity    string `json:"last_activity"`
	MessageCount    int    `json:"message_count"`
}

// ToTurns projects messages onto the inference wire shape, dropping ids and
// timestamps.
func ToTurns(messages []Message) []ChatTurn {
	turns := make([]ChatTurn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, ChatTurn{Role: string(m.Role), Content: m.Content})
	}
	return turns
}

// FromTurns lifts wire turns back into messages. Only role and content are
// populated; callers that persist the result assign ids and timestamps.
func FromTurns(turns []ChatTurn) []Message {
	messages := make([]Message, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, Message{Role: Role(t.Role), Content: t.Content})
	}
	return messages
}
