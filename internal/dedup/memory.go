// Package dedup provides the deduplication key derivation and an in-process
// fallback store used when Redis is unavailable. The primary store is the
// Valkey client in pkg/redis; both satisfy the same Claim contract.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Key derives the dedup identity from the normalized recipient and the
// exact formatted message text. Message content is part of the key so
// different reminders to the same number never suppress each other.
func Key(recipient, message string) string {
	h := sha256.Sum256([]byte(recipient + "\x00" + message))
	return hex.EncodeToString(h[:])
}

// MemoryStore is a TTL map with the same semantics as the Redis SET NX EX
// claim. A single mutex around the lookup-and-insert keeps the claim atomic
// within the process.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Claim records the key unless a live entry already exists. It returns true
// when this caller won the claim.
func (s *MemoryStore) Claim(_ context.Context, key string, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if expiry, ok := s.entries[key]; ok && now.Before(expiry) {
		return false, nil
	}

	s.entries[key] = now.Add(window)
	s.sweepExpiredLocked(now)

	return true, nil
}

// sweepExpiredLocked drops dead entries so the map does not grow without
// bound between process restarts. Called with the mutex held.
func (s *MemoryStore) sweepExpiredLocked(now time.Time) {
	if len(s.entries) < 1024 {
		return
	}
	for k, expiry := range s.entries {
		if !now.Before(expiry) {
			delete(s.entries, k)
		}
	}
}
