package verification

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

type memoryStore struct {
	mu       sync.Mutex
	codes    map[string]memoryEntry
	verified map[string]memoryEntry
	now      func() time.Time
}

// NewMemoryStore builds an in-process Store for single-instance deployments
// and tests. Entries are purged lazily on access.
func NewMemoryStore() Store {
	return &memoryStore{
		codes:    map[string]memoryEntry{},
		verified: map[string]memoryEntry{},
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *memoryStore) SaveCode(_ context.Context, email, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[normalizeEmail(email)] = memoryEntry{value: code, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *memoryStore) GetCode(_ context.Context, email string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalizeEmail(email)
	entry, ok := s.codes[key]
	if !ok {
		return "", false, nil
	}
	if s.now().After(entry.expiresAt) {
		delete(s.codes, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

func (s *memoryStore) DeleteCode(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, normalizeEmail(email))
	return nil
}

func (s *memoryStore) MarkVerified(_ context.Context, email string, window time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verified[normalizeEmail(email)] = memoryEntry{value: "1", expiresAt: s.now().Add(window)}
	return nil
}

func (s *memoryStore) IsVerified(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalizeEmail(email)
	entry, ok := s.verified[key]
	if !ok {
		return false, nil
	}
	if s.now().After(entry.expiresAt) {
		delete(s.verified, key)
		return false, nil
	}
	return true, nil
}
