package provider

import (
	"sync"
	"time"

	"workcal/internal/model"
)

// Snapshot is the last loaded set of meetings and holidays.
type Snapshot struct {
	Meetings  []model.Meeting
	Holidays  []model.Holiday
	UpdatedAt time.Time
}

// Store holds the current Snapshot for concurrent readers.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewStore() *Store {
	return &Store{}
}

// Get returns the current snapshot. Callers must not modify its slices.
func (s *Store) Get() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Store) Set(snap Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}
