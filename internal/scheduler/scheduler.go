package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const fetchTimeout = 30 * time.Second

// ForecastFetcher is the part of weather.Client the scheduler needs.
type ForecastFetcher interface {
	GetForecast(ctx context.Context, lat, lon float64) (weather.ForecastResult, error)
}

// LocationSource is the part of the location store the scheduler needs.
type LocationSource interface {
	Subscribe(fn func([]weather.Location)) (unsubscribe func())
}

// Scheduler periodically refreshes forecasts for every saved location and
// records them as snapshots.
type Scheduler struct {
	scheduler *gocron.Scheduler
	client    ForecastFetcher
	snapshots weather.SnapshotStore
	interval  time.Duration
	logger    weather.Logger

	mu          sync.Mutex
	locations   []weather.Location
	unsubscribe func()
	now         func() time.Time
}

// New creates a Scheduler that tracks the saved list of source. History of
// locations that stop being saved is dropped from snapshots.
func New(source LocationSource, client ForecastFetcher, snapshots weather.SnapshotStore, interval time.Duration, logger weather.Logger) *Scheduler {
	s := &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		client:    client,
		snapshots: snapshots,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}
	s.unsubscribe = source.Subscribe(s.track)
	return s
}

// track and save share mu so a snapshot is never stored for a location that
// was dropped while its fetch was in flight.
func (s *Scheduler) track(locs []weather.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations = locs
	s.snapshots.Retain(locs)
}

// save stores snap if loc is still saved and reports whether it did.
func (s *Scheduler) save(loc weather.Location, snap weather.ForecastSnapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, saved := range s.locations {
		if saved.SameAs(loc) {
			s.snapshots.SaveSnapshot(saved, snap)
			return true
		}
	}
	return false
}

func (s *Scheduler) Locations() []weather.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]weather.Location, len(s.locations))
	copy(out, s.locations)
	return out
}

// Start schedules the periodic job and starts the underlying scheduler. A
// zero interval disables refreshing.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Infof("scheduler: refresh disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		s.logger.Infof("scheduler: refreshing saved locations")
		n := s.RefreshAll(context.Background())
		s.logger.Infof("scheduler: refreshed %d saved locations", n)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RefreshAll fetches a forecast for every saved location concurrently and
// stores a snapshot for each success whose location is still saved. It
// returns the number of snapshots stored.
func (s *Scheduler) RefreshAll(ctx context.Context) int {
	locs := s.Locations()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		stored int
	)
	for _, loc := range locs {
		wg.Add(1)
		go func(loc weather.Location) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
			defer cancel()

			res, err := s.client.GetForecast(ctx, loc.Latitude, loc.Longitude)
			if err != nil {
				s.logger.Warnf("scheduler: refresh failed for %s: %v", loc.Key(), err)
				return
			}

			snap := weather.ForecastSnapshot{
				Location:  loc,
				FetchedAt: s.now().UTC(),
				Result:    res,
			}
			if !s.save(loc, snap) {
				s.logger.Infof("scheduler: %s was removed during refresh; dropping forecast", loc.Key())
				return
			}
			mu.Lock()
			stored++
			mu.Unlock()
		}(loc)
	}
	wg.Wait()
	return stored
}

// Stop stops the scheduler and stops tracking the saved list.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}
