package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryChat guards one session's turns. Each chat carries its own mutex so
// concurrent requests for distinct sessions never contend.
type memoryChat struct {
	mu        sync.Mutex
	createdAt time.Time
	updatedAt time.Time
	turns     []Turn
}

// MemoryStore is the default in-memory Store. History is lost on restart,
// which the service contract explicitly allows.
type MemoryStore struct {
	mu    sync.RWMutex
	chats map[string]*memoryChat
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chats: make(map[string]*memoryChat)}
}

// chat returns the session for id, creating it when create is set.
func (s *MemoryStore) chat(id string, create bool) *memoryChat {
	s.mu.RLock()
	c := s.chats[id]
	s.mu.RUnlock()
	if c != nil || !create {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c = s.chats[id]; c == nil {
		now := time.Now()
		c = &memoryChat{createdAt: now, updatedAt: now}
		s.chats[id] = c
	}
	return c
}

// Create allocates a new chat with a generated id.
func (s *MemoryStore) Create(_ context.Context) (*Chat, error) {
	id := uuid.NewString()
	c := s.chat(id, true)
	c.mu.Lock()
	defer c.mu.Unlock()
	return &Chat{ID: id, CreatedAt: c.createdAt, UpdatedAt: c.updatedAt}, nil
}

// Get returns a copy of the chat and its turns.
func (s *MemoryStore) Get(_ context.Context, id string) (*Chat, error) {
	c := s.chat(id, false)
	if c == nil {
		return nil, ErrChatNotFound
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	turns := make([]Turn, len(c.turns))
	copy(turns, c.turns)
	return &Chat{ID: id, CreatedAt: c.createdAt, UpdatedAt: c.updatedAt, Turns: turns}, nil
}

// List returns summaries of all chats, most recently updated first.
func (s *MemoryStore) List(_ context.Context) ([]Summary, error) {
	s.mu.RLock()
	summaries := make([]Summary, 0, len(s.chats))
	for id, c := range s.chats {
		c.mu.Lock()
		summaries = append(summaries, Summary{
			ID:        id,
			CreatedAt: c.createdAt,
			UpdatedAt: c.updatedAt,
			TurnCount: len(c.turns),
		})
		c.mu.Unlock()
	}
	s.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

// Append adds a turn, creating the chat if needed. The per-chat mutex
// serializes appends so interleaved requests cannot corrupt turn order.
func (s *MemoryStore) Append(_ context.Context, id string, turn Turn) error {
	c := s.chat(id, true)
	c.mu.Lock()
	defer c.mu.Unlock()
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	c.turns = append(c.turns, turn)
	c.updatedAt = turn.CreatedAt
	return nil
}

// Delete removes a chat and its turns.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[id]; !ok {
		return ErrChatNotFound
	}
	delete(s.chats, id)
	return nil
}

// DeleteExpired removes chats not updated within ttl.
func (s *MemoryStore) DeleteExpired(_ context.Context, ttl time.Duration) (int64, error) {
	cutoff := time.Now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, c := range s.chats {
		c.mu.Lock()
		expired := c.updatedAt.Before(cutoff)
		c.mu.Unlock()
		if expired {
			delete(s.chats, id)
			deleted++
		}
	}
	return deleted, nil
}

// CountChats returns the number of stored chats.
func (s *MemoryStore) CountChats(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chats), nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
