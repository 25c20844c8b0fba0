// Package history provides chat session storage. A chat is an ordered list
// of conversation turns keyed by a caller-supplied session id; the turn list
// doubles as the dialogue state record, so per-chat mutation must be
// serialized by every implementation.
package history

import (
	"context"
	"errors"
	"time"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrChatNotFound is returned when a chat id has no stored session.
var ErrChatNotFound = errors.New("chat not found")

// Turn is one exchange in a chat session.
type Turn struct {
	Role    string   `json:"role"` // "user" or "assistant"
	Content string   `json:"content"`
	Sources []string `json:"sources,omitempty"` // assistant turns only

	// FollowUpPrompt marks an assistant turn that is itself a follow-up
	// question awaiting a branch reply.
	FollowUpPrompt bool `json:"follow_up_prompt,omitempty"`

	// FollowUpID is the marker a client echoes back when answering the
	// prompt. Set only on prompt turns.
	FollowUpID string `json:"follow_up_id,omitempty"`

	// OriginatingQuestion is the normalized query that produced a prompt
	// turn. It is needed to re-resolve the follow-up spec when the next
	// user turn arrives.
	OriginatingQuestion string `json:"originating_question,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Chat is a session with its ordered turns.
type Chat struct {
	ID        string    `json:"chat_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Turns     []Turn    `json:"turns"`
}

// Summary is a chat without its turns, for listings.
type Summary struct {
	ID        string    `json:"chat_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	TurnCount int       `json:"turn_count"`
}

// Store is the session history abstraction. Append on the same chat id is
// serialized internally; distinct chats never block each other.
type Store interface {
	// Create allocates a new chat with a generated id.
	Create(ctx context.Context) (*Chat, error)

	// Get returns a chat and its turns. Returns ErrChatNotFound if the id
	// has never been written.
	Get(ctx context.Context, id string) (*Chat, error)

	// List returns summaries of all chats, most recently updated first.
	List(ctx context.Context) ([]Summary, error)

	// Append adds a turn to a chat, creating the chat if it does not exist.
	Append(ctx context.Context, id string, turn Turn) error

	// Delete removes a chat and its turns. Deleting a missing chat returns
	// ErrChatNotFound.
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes chats not updated within ttl and reports how
	// many were removed.
	DeleteExpired(ctx context.Context, ttl time.Duration) (int64, error)

	// CountChats returns the number of stored chats.
	CountChats(ctx context.Context) (int, error)

	// Ping verifies the backing store is usable.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}

// FindPromptTurn scans a chat's turns from newest to oldest for the
// follow-up prompt matching the given marker. Returns nil when the marker
// is unknown to this chat.
func FindPromptTurn(chat *Chat, followUpID string) *Turn {
	if chat == nil || followUpID == "" {
		return nil
	}
	for i := len(chat.Turns) - 1; i >= 0; i-- {
		t := &chat.Turns[i]
		if t.FollowUpPrompt && t.FollowUpID == followUpID {
			return t
		}
	}
	return nil
}
