package services

import (
	"log"
	"sync"
	"time"

	"station-logger/internal/models"
)

// PeriodStore is the persistence surface the tracker needs.
type PeriodStore interface {
	OpenPeriods() ([]models.ZeroBikePeriod, error)
	StartPeriod(stationID string, start time.Time) (*models.ZeroBikePeriod, error)
	ClosePeriod(id uint, end time.Time, durationMinutes float64) error
	CloseAllOpenPeriods(end time.Time) (int, error)
}

// OutageTracker maintains at most one open zero-bike period per station.
// The open periods live in an in-memory map keyed by station id, so the
// single-open invariant is a data-structure guarantee; the store only
// mirrors opens and closes.
//
// Observe must be called in non-decreasing timestamp order per station.
type OutageTracker struct {
	store     PeriodStore
	threshold int

	mu   sync.Mutex
	open map[string]*models.ZeroBikePeriod
}

// NewOutageTracker builds a tracker and adopts any periods left open by a
// previous run. When the store holds more than one open period for a
// station (which a crash mid-write could leave behind), the most recent
// one wins.
func NewOutageTracker(store PeriodStore, threshold int) (*OutageTracker, error) {
	periods, err := store.OpenPeriods()
	if err != nil {
		return nil, err
	}

	open := make(map[string]*models.ZeroBikePeriod, len(periods))
	for i := range periods {
		p := periods[i]
		if prev, ok := open[p.StationID]; ok && !p.StartTime.After(prev.StartTime) {
			continue
		}
		open[p.StationID] = &p
	}
	if len(open) > 0 {
		log.Printf("[tracker] adopted %d open zero-bike periods from previous run", len(open))
	}

	return &OutageTracker{
		store:     store,
		threshold: threshold,
		open:      open,
	}, nil
}

// Observe processes one snapshot for a station: opens a period on the
// transition to at-or-below threshold, closes it on the transition back
// above, and is a no-op for repeated identical states.
func (t *OutageTracker) Observe(stationID string, bikesAvailable int, timestamp time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	period := t.open[stationID]

	if bikesAvailable <= t.threshold {
		if period != nil {
			return nil
		}
		opened, err := t.store.StartPeriod(stationID, timestamp)
		if err != nil {
			return err
		}
		t.open[stationID] = opened
		return nil
	}

	if period == nil {
		return nil
	}
	duration := timestamp.Sub(period.StartTime).Minutes()
	if err := t.store.ClosePeriod(period.ID, timestamp, duration); err != nil {
		return err
	}
	delete(t.open, stationID)
	return nil
}

// CloseAllOpen force-closes every open period station-wide at the given
// instant, for graceful shutdown. The close runs against the store, not
// the map, so stale open rows a previous run left behind are swept too.
// Returns the number of periods closed.
func (t *OutageTracker) CloseAllOpen(at time.Time) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	closed, err := t.store.CloseAllOpenPeriods(at)
	if err != nil {
		return closed, err
	}
	t.open = make(map[string]*models.ZeroBikePeriod)
	if closed > 0 {
		log.Printf("[tracker] closed %d open zero-bike periods", closed)
	}
	return closed, nil
}

// OpenCount reports how many stations currently have an open period.
func (t *OutageTracker) OpenCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.open)
}
