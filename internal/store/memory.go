package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// ErrNotFound is returned when no forecast snapshot is available for a location.
var ErrNotFound = errors.New("no forecast data for location")

// MemoryStore keeps a bounded, FetchedAt-ordered history of forecast
// snapshots per saved location.
type MemoryStore struct {
	mu      sync.RWMutex
	history map[string][]weather.ForecastSnapshot // by Location.Key, oldest first

	maxHistory int           // per location, 0 = unlimited
	maxAge     time.Duration // 0 = unlimited
	now        func() time.Time
}

// NewMemoryStore creates a MemoryStore. Non-positive limits disable the
// corresponding retention rule.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		history:    make(map[string][]weather.ForecastSnapshot),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveSnapshot inserts snapshot in FetchedAt order and prunes the location's
// history. The newest snapshot of a location is never pruned by age.
func (s *MemoryStore) SaveSnapshot(loc weather.Location, snapshot weather.ForecastSnapshot) {
	key := loc.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	snaps := s.history[key]
	i := sort.Search(len(snaps), func(i int) bool {
		return snaps[i].FetchedAt.After(snapshot.FetchedAt)
	})
	snaps = append(snaps, weather.ForecastSnapshot{})
	copy(snaps[i+1:], snaps[i:])
	snaps[i] = snapshot

	s.history[key] = s.prune(snaps)
}

func (s *MemoryStore) prune(snaps []weather.ForecastSnapshot) []weather.ForecastSnapshot {
	if s.maxHistory > 0 && len(snaps) > s.maxHistory {
		snaps = snaps[len(snaps)-s.maxHistory:]
	}
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		stale := sort.Search(len(snaps)-1, func(i int) bool {
			return !snaps[i].FetchedAt.Before(cutoff)
		})
		snaps = snaps[stale:]
	}
	return snaps
}

// GetLatest returns the most recent snapshot for loc.
func (s *MemoryStore) GetLatest(loc weather.Location) (weather.ForecastSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps := s.history[loc.Key()]
	if len(snaps) == 0 {
		return weather.ForecastSnapshot{}, ErrNotFound
	}
	return snaps[len(snaps)-1], nil
}

// GetRange returns the snapshots for loc fetched within [from, to].
func (s *MemoryStore) GetRange(loc weather.Location, from, to time.Time) ([]weather.ForecastSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps := s.history[loc.Key()]
	lo := sort.Search(len(snaps), func(i int) bool { return !snaps[i].FetchedAt.Before(from) })
	hi := sort.Search(len(snaps), func(i int) bool { return snaps[i].FetchedAt.After(to) })
	if lo >= hi {
		return nil, ErrNotFound
	}

	out := make([]weather.ForecastSnapshot, hi-lo)
	copy(out, snaps[lo:hi])
	return out, nil
}

// Retain drops the history of every location not in locs.
func (s *MemoryStore) Retain(locs []weather.Location) {
	keep := make(map[string]struct{}, len(locs))
	for _, l := range locs {
		keep[l.Key()] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.history {
		if _, ok := keep[key]; !ok {
			delete(s.history, key)
		}
	}
}

var _ weather.SnapshotStore = (*MemoryStore)(nil)
