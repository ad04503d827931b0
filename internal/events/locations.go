package events

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const TypeSavedLocationsChanged = "saved_locations.changed"

// SavedLocationsChanged carries the full saved list after a mutation.
type SavedLocationsChanged struct {
	ID         uuid.UUID          `json:"id"`
	Type       string             `json:"type"`
	OccurredAt time.Time          `json:"occurred_at"`
	Count      int                `json:"count"`
	Locations  []weather.Location `json:"locations"`
}

func NewSavedLocationsChanged(locs []weather.Location, now time.Time) SavedLocationsChanged {
	return SavedLocationsChanged{
		ID:         uuid.New(),
		Type:       TypeSavedLocationsChanged,
		OccurredAt: now.UTC(),
		Count:      len(locs),
		Locations:  locs,
	}
}

// Subscriber is the part of the location store the publisher needs.
type Subscriber interface {
	Subscribe(fn func([]weather.Location)) (unsubscribe func())
}

// PublishLocationChanges publishes an event for every change of the saved
// list. The initial call made on subscription is not a change and is skipped;
// s must deliver it before any change.
func PublishLocationChanges(s Subscriber, pub Publisher) (unsubscribe func()) {
	var started atomic.Bool
	return s.Subscribe(func(locs []weather.Location) {
		if started.CompareAndSwap(false, true) {
			return
		}
		ev := NewSavedLocationsChanged(locs, time.Now())
		pub.PublishObjectAsync([]byte(ev.Type), ev)
	})
}
