package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// SavedLocationsKey is the storage key of the saved location list.
const SavedLocationsKey = "savedLocations"

// LoadStatus reports what Load did with the durable mirror.
type LoadStatus string

const (
	LoadApplied     LoadStatus = "applied"
	LoadNoData      LoadStatus = "no_data"
	LoadCorrupt     LoadStatus = "corrupt"
	LoadUnavailable LoadStatus = "unavailable"
)

type subscription struct {
	id uuid.UUID
	fn func([]weather.Location)

	// mu serializes deliveries; seen is the newest version delivered.
	mu   sync.Mutex
	seen uint64
}

// deliver hands locs to the subscriber unless it has already seen a newer
// version, so a slow callback can never leave it with a stale list.
func (sub *subscription) deliver(version uint64, locs []weather.Location) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if version <= sub.seen {
		return
	}
	sub.seen = version
	sub.fn(locs)
}

// LocationStore is the observable list of saved locations. Every mutation is
// written through to the KV mirror before it is committed in memory and
// before subscribers hear about it. Subscribers always end up with the latest
// committed list; a callback must not mutate the store it subscribed to.
type LocationStore struct {
	mu          sync.Mutex
	kv          KV // nil when durable storage is unavailable
	locations   []weather.Location
	version     uint64 // bumped on every commit
	subscribers []*subscription
	logger      weather.Logger
}

// NewLocationStore creates an empty store. A nil kv disables persistence;
// the list then lives only for the process lifetime.
func NewLocationStore(kv KV, logger weather.Logger) *LocationStore {
	return &LocationStore{
		kv:        kv,
		locations: []weather.Location{},
		logger:    logger,
	}
}

// Load replaces the list with the durable copy. Absent, unreadable or
// corrupt data leaves the current list untouched and is never returned as
// an error.
func (s *LocationStore) Load(ctx context.Context) LoadStatus {
	if s.kv == nil {
		return LoadUnavailable
	}

	s.mu.Lock()
	raw, ok, err := s.kv.Get(ctx, SavedLocationsKey)
	if err != nil {
		s.mu.Unlock()
		s.logger.Errorf("error loading saved locations: %v", err)
		return LoadUnavailable
	}
	if !ok {
		s.mu.Unlock()
		return LoadNoData
	}

	var locs []weather.Location
	if err := json.Unmarshal([]byte(raw), &locs); err != nil {
		s.mu.Unlock()
		s.logger.Errorf("error loading saved locations: %v", fmt.Errorf("%w: %w", weather.ErrPersistenceCorrupt, err))
		return LoadCorrupt
	}
	if locs == nil {
		locs = []weather.Location{}
	}

	version, snapshot, subs := s.commitLocked(locs)
	s.mu.Unlock()

	notify(subs, version, snapshot)
	return LoadApplied
}

// Add appends loc unless a saved location is within the proximity threshold.
// It reports whether the list changed.
func (s *LocationStore) Add(ctx context.Context, loc weather.Location) (bool, error) {
	s.mu.Lock()

	for _, existing := range s.locations {
		if existing.SameAs(loc) {
			s.mu.Unlock()
			return false, nil
		}
	}

	next := make([]weather.Location, len(s.locations), len(s.locations)+1)
	copy(next, s.locations)
	next = append(next, loc)

	if err := s.persistLocked(ctx, next); err != nil {
		s.mu.Unlock()
		return false, err
	}

	version, snapshot, subs := s.commitLocked(next)
	s.mu.Unlock()

	notify(subs, version, snapshot)
	return true, nil
}

// Remove deletes every saved location within the proximity threshold of loc
// and returns how many were removed. Subscribers are notified even when
// nothing matched.
func (s *LocationStore) Remove(ctx context.Context, loc weather.Location) (int, error) {
	s.mu.Lock()

	next := make([]weather.Location, 0, len(s.locations))
	for _, existing := range s.locations {
		if !existing.SameAs(loc) {
			next = append(next, existing)
		}
	}
	removed := len(s.locations) - len(next)

	if err := s.persistLocked(ctx, next); err != nil {
		s.mu.Unlock()
		return 0, err
	}

	version, snapshot, subs := s.commitLocked(next)
	s.mu.Unlock()

	notify(subs, version, snapshot)
	return removed, nil
}

// List returns a copy of the saved locations in insertion order.
func (s *LocationStore) List() []weather.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.locations)
}

// Find returns the saved location matching loc under the proximity threshold.
func (s *LocationStore) Find(loc weather.Location) (weather.Location, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.locations {
		if existing.SameAs(loc) {
			return existing, true
		}
	}
	return weather.Location{}, false
}

// Subscribe registers fn, calls it right away with the current list and
// again after every mutation. The initial call always comes first. The
// returned func unregisters it.
func (s *LocationStore) Subscribe(fn func([]weather.Location)) (unsubscribe func()) {
	sub := &subscription{id: uuid.New(), fn: fn}

	// Held until the initial call returns so a concurrent mutation is
	// delivered after it.
	sub.mu.Lock()
	s.mu.Lock()
	s.subscribers = append(s.subscribers, sub)
	version, current := s.version, clone(s.locations)
	s.mu.Unlock()

	sub.seen = version
	fn(current)
	sub.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, existing := range s.subscribers {
				if existing.id == sub.id {
					s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *LocationStore) persistLocked(ctx context.Context, locs []weather.Location) error {
	if s.kv == nil {
		return nil
	}

	b, err := json.Marshal(locs)
	if err != nil {
		return fmt.Errorf("%w: %w", weather.ErrPersistenceWrite, err)
	}
	if err := s.kv.Set(ctx, SavedLocationsKey, string(b)); err != nil {
		s.logger.Errorf("error saving locations: %v", err)
		return fmt.Errorf("%w: %w", weather.ErrPersistenceWrite, err)
	}
	return nil
}

// commitLocked installs locs as the current list and returns what notify
// needs to announce it.
func (s *LocationStore) commitLocked(locs []weather.Location) (uint64, []weather.Location, []*subscription) {
	s.locations = locs
	s.version++

	subs := make([]*subscription, len(s.subscribers))
	copy(subs, s.subscribers)
	return s.version, clone(s.locations), subs
}

// notify calls each subscriber with its own copy of the list so a callback
// cannot mutate what another one sees.
func notify(subs []*subscription, version uint64, locs []weather.Location) {
	for _, sub := range subs {
		sub.deliver(version, clone(locs))
	}
}

func clone(locs []weather.Location) []weather.Location {
	out := make([]weather.Location, len(locs))
	copy(out, locs)
	return out
}
