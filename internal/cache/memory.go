package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// Memory implements Cache in process memory and is safe for concurrent use.
// It backs dev setups without Redis and tests.
type Memory struct {
	mu         sync.Mutex
	markup     map[string]memoryEntry
	sessions   map[int64][]Turn
	sessionExp map[int64]time.Time
	markupTTL  time.Duration
	sessionTTL time.Duration
	now        func() time.Time
}

// NewMemory constructs a Memory cache. A zero TTL stores entries without expiry.
func NewMemory(markupTTL, sessionTTL time.Duration) *Memory {
	return &Memory{
		markup:     make(map[string]memoryEntry),
		sessions:   make(map[int64][]Turn),
		sessionExp: make(map[int64]time.Time),
		markupTTL:  markupTTL,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

func (m *Memory) GetMarkup(ctx context.Context, userID int64, resumeID string, version int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := MarkupKey(userID, resumeID, version)
	entry, ok := m.markup[key]
	if !ok {
		return "", ErrMiss
	}
	if m.expired(entry.expiresAt) {
		delete(m.markup, key)
		return "", ErrMiss
	}
	return entry.value, nil
}

func (m *Memory) SetMarkup(ctx context.Context, userID int64, resumeID string, version int, markup string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markup[MarkupKey(userID, resumeID, version)] = memoryEntry{value: markup, expiresAt: m.deadline(m.markupTTL)}
	return nil
}

func (m *Memory) DeleteMarkup(ctx context.Context, userID int64, resumeID string, version int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.markup, MarkupKey(userID, resumeID, version))
	return nil
}

func (m *Memory) AppendSession(ctx context.Context, userID int64, turns ...Turn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(turns) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expired(m.sessionExp[userID]) {
		delete(m.sessions, userID)
	}
	m.sessions[userID] = append(m.sessions[userID], turns...)
	m.sessionExp[userID] = m.deadline(m.sessionTTL)
	return nil
}

func (m *Memory) Session(ctx context.Context, userID int64, limit int) ([]Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expired(m.sessionExp[userID]) {
		delete(m.sessions, userID)
		delete(m.sessionExp, userID)
	}
	turns := m.sessions[userID]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (m *Memory) ClearUser(ctx context.Context, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	delete(m.sessionExp, userID)
	prefix := strings.TrimSuffix(markupPattern(userID), "*")
	for key := range m.markup {
		if strings.HasPrefix(key, prefix) {
			delete(m.markup, key)
		}
	}
	return nil
}

func (m *Memory) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}

func (m *Memory) expired(deadline time.Time) bool {
	return !deadline.IsZero() && !m.now().Before(deadline)
}

var _ Cache = (*Memory)(nil)
