package services

import (
	"context"
	"log"
	"time"

	"station-logger/internal/gbfs"
	"station-logger/internal/models"
)

// FeedClient fetches the upstream station status payload.
type FeedClient interface {
	Fetch(ctx context.Context) (*gbfs.StationStatus, error)
}

// SnapshotStore is the persistence surface the collector needs.
type SnapshotStore interface {
	InsertSnapshot(snap *models.StationSnapshot) (bool, error)
}

// Collector orchestrates fetch -> store -> track cycles and the continuous
// collection loop.
type Collector struct {
	feed       FeedClient
	store      SnapshotStore
	tracker    *OutageTracker
	aggregator *Aggregator
}

func NewCollector(feed FeedClient, store SnapshotStore, tracker *OutageTracker, aggregator *Aggregator) *Collector {
	return &Collector{
		feed:       feed,
		store:      store,
		tracker:    tracker,
		aggregator: aggregator,
	}
}

// RunOnce executes a single collection cycle. Returns true when at least
// one station snapshot was newly persisted. Fetch failures are logged and
// reported as false, never propagated.
func (c *Collector) RunOnce(ctx context.Context) bool {
	status, err := c.feed.Fetch(ctx)
	if err != nil {
		log.Printf("[collector] failed to fetch data: %v", err)
		return false
	}

	summary := gbfs.Summarize(status)
	log.Printf("[collector] fetched data: %d stations, %d bikes, %d empty stations",
		summary.TotalStations, summary.TotalBikes, summary.StationsEmpty)

	timestamp := time.Now()
	active := gbfs.ActiveStations(status)

	persisted := 0
	for _, station := range active {
		snap := &models.StationSnapshot{
			StationID:         station.ID(),
			Timestamp:         timestamp,
			NumBikesAvailable: station.Bikes(),
			NumDocksAvailable: station.NumDocksAvailable,
			IsRenting:         true,
			IsReturning:       station.IsReturning,
			LastReported:      station.LastReported,
		}
		inserted, err := c.store.InsertSnapshot(snap)
		if err != nil {
			log.Printf("[collector] error inserting snapshot for station %s: %v", station.ID(), err)
			continue
		}
		if !inserted {
			continue
		}
		persisted++

		if err := c.tracker.Observe(station.ID(), station.Bikes(), timestamp); err != nil {
			log.Printf("[collector] error tracking station %s: %v", station.ID(), err)
		}
	}

	log.Printf("[collector] successfully logged %d/%d stations", persisted, len(active))
	return persisted > 0
}

// RunContinuous runs collection cycles every interval until ctx is
// cancelled or the optional duration (0 means unbounded) elapses. On each
// local-date rollover it aggregates the just-completed date. It finishes
// with the shutdown finalization.
func (c *Collector) RunContinuous(ctx context.Context, interval time.Duration, duration time.Duration) {
	start := time.Now()
	var deadline time.Time
	if duration > 0 {
		deadline = start.Add(duration)
		log.Printf("[collector] starting continuous collection every %.1f minutes until %s", interval.Minutes(), deadline.Format(time.RFC3339))
	} else {
		log.Printf("[collector] starting continuous collection every %.1f minutes", interval.Minutes())
	}

	lastDailyCalc := models.DateOf(time.Now())

	for {
		if ctx.Err() != nil {
			log.Println("[collector] stop requested")
			break
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			log.Println("[collector] reached scheduled end time")
			break
		}

		cycleStart := time.Now()
		if !c.RunOnce(ctx) {
			log.Println("[collector] collection cycle failed, will retry")
		}

		// On date rollover, aggregate the day that just finished.
		current := models.DateOf(time.Now())
		if current != lastDailyCalc {
			log.Println("[collector] new day detected, calculating yesterday's stats")
			if _, err := c.aggregator.ComputeAll(lastDailyCalc); err != nil {
				log.Printf("[collector] unexpected error in daily aggregation: %v", err)
				if !sleepCtx(ctx, interval) {
					break
				}
				continue
			}
			lastDailyCalc = current
		}

		wait := interval - time.Since(cycleStart)
		if wait > 0 {
			if !sleepCtx(ctx, wait) {
				break
			}
		}
	}

	c.Shutdown()
}

// Shutdown closes all open zero-bike periods and computes today's stats.
// Best effort: failures are logged, not returned.
func (c *Collector) Shutdown() {
	log.Println("[collector] shutting down")

	if _, err := c.tracker.CloseAllOpen(time.Now()); err != nil {
		log.Printf("[collector] error closing open periods: %v", err)
	}

	if _, err := c.aggregator.ComputeAll(models.DateOf(time.Now())); err != nil {
		log.Printf("[collector] error calculating final stats: %v", err)
	}

	log.Println("[collector] shutdown complete")
}

// sleepCtx waits for d, returning false when ctx was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
