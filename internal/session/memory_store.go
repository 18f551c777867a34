package session

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"
)

// MemoryStore keeps conversation state in process memory. Entries untouched
// for longer than ttl are treated as abandoned and evicted; ttl <= 0 keeps
// them forever.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]State
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]State),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) expired(st State) bool {
	return s.ttl > 0 && s.now().Sub(st.UpdatedAt) > s.ttl
}

// load returns the live entry for key, evicting it if it has expired. Caller holds mu.
func (s *MemoryStore) load(key string) (State, bool) {
	st, ok := s.entries[key]
	if !ok {
		return State{}, false
	}
	if s.expired(st) {
		delete(s.entries, key)
		return State{}, false
	}
	return st, true
}

// Get returns a copy of the stored state.
func (s *MemoryStore) Get(_ context.Context, key string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, _ := s.load(key)
	return st.Clone(), nil
}

// Merge adds fields to the state for key.
func (s *MemoryStore) Merge(_ context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, _ := s.load(key)
	if st.Fields == nil {
		st.Fields = make(map[string]string, len(fields))
	} else {
		st.Fields = maps.Clone(st.Fields)
	}
	maps.Copy(st.Fields, fields)
	st.UpdatedAt = s.now()
	s.entries[key] = st
	return nil
}

// SetStep moves key to step.
func (s *MemoryStore) SetStep(_ context.Context, key string, step Step) error {
	if !step.Valid() {
		return fmt.Errorf("session: refusing unknown step %q", step.String())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, _ := s.load(key)
	st.Step = step
	st.UpdatedAt = s.now()
	s.entries[key] = st
	return nil
}

// Clear forgets key entirely.
func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Len reports the number of resident conversations, expired ones included until swept.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep evicts expired entries and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, st := range s.entries {
		if s.expired(st) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps every interval until ctx is done.
func (s *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.Sweep(); removed > 0 && onSweep != nil {
					onSweep(removed)
				}
			}
		}
	}()
}
