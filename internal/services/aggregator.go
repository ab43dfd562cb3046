package services

import (
	"log"
	"math"
	"time"

	"station-logger/internal/models"
)

// minutesPerDay is the denominator for availability percentage.
const minutesPerDay = 24 * 60

// StatsStore is the persistence surface the aggregator needs.
type StatsStore interface {
	DailySnapshots(stationID, date string) ([]models.StationSnapshot, error)
	DailyZeroPeriods(stationID, date string) ([]models.ZeroBikePeriod, error)
	UpsertDailyStat(stat *models.DailyStat) error
	ActiveStations(date string) ([]string, error)
}

// ComputeSummary reports the outcome of a whole-day aggregation pass.
type ComputeSummary struct {
	Date              string `json:"date"`
	StationsProcessed int    `json:"stations_processed"`
	TotalStations     int    `json:"total_stations"`
}

// Aggregator rolls a station's snapshots and zero-bike periods into daily
// stats rows.
type Aggregator struct {
	store        StatsStore
	lowThreshold int
}

func NewAggregator(store StatsStore, lowThreshold int) *Aggregator {
	return &Aggregator{
		store:        store,
		lowThreshold: lowThreshold,
	}
}

// ComputeStationDay derives one station's stats for a date. A station with
// no snapshots that day yields (nil, nil): absent, not an error. The
// result is not persisted.
func (a *Aggregator) ComputeStationDay(stationID, date string) (*models.DailyStat, error) {
	snapshots, err := a.store.DailySnapshots(stationID, date)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, nil
	}

	total := 0
	maxBikes := snapshots[0].NumBikesAvailable
	minBikes := snapshots[0].NumBikesAvailable
	for _, snap := range snapshots {
		bikes := snap.NumBikesAvailable
		total += bikes
		if bikes > maxBikes {
			maxBikes = bikes
		}
		if bikes < minBikes {
			minBikes = bikes
		}
	}
	avgBikes := float64(total) / float64(len(snapshots))

	periods, err := a.store.DailyZeroPeriods(stationID, date)
	if err != nil {
		return nil, err
	}
	zeroMinutes := 0.0
	for _, p := range periods {
		// Still-open periods have no duration yet and contribute 0.
		if p.DurationMinutes != nil {
			zeroMinutes += *p.DurationMinutes
		}
	}

	lowMinutes := a.lowBikeMinutes(snapshots)

	// Not clamped: a period spanning midnight or surviving a restart may
	// push zero minutes past a full day, and that shows up in the report
	// instead of being hidden.
	availability := (minutesPerDay - zeroMinutes) / minutesPerDay * 100

	return &models.DailyStat{
		StationID:              stationID,
		Date:                   date,
		TotalBikesSeen:         total,
		MaxBikes:               maxBikes,
		MinBikes:               minBikes,
		AvgBikes:               round2(avgBikes),
		ZeroBikeMinutes:        round2(zeroMinutes),
		NumZeroPeriods:         len(periods),
		LowBikeMinutes:         round2(lowMinutes),
		AvailabilityPercentage: round2(availability),
	}, nil
}

// lowBikeMinutes walks consecutive snapshot pairs and attributes each gap
// to the trailing snapshot's bike count: a gap counts when the previous
// reading was low but not zero. A deliberate approximation; the error
// bound is the polling interval.
func (a *Aggregator) lowBikeMinutes(snapshots []models.StationSnapshot) float64 {
	if len(snapshots) < 2 {
		return 0
	}
	minutes := 0.0
	for i := 1; i < len(snapshots); i++ {
		prev := snapshots[i-1]
		bikes := prev.NumBikesAvailable
		if bikes > 0 && bikes <= a.lowThreshold {
			minutes += snapshots[i].Timestamp.Sub(prev.Timestamp).Minutes()
		}
	}
	return minutes
}

// ComputeAll computes and upserts stats for every station active on the
// date. A single station's failure is logged and skipped; the rest of the
// batch proceeds. Running it twice with no new data stores identical rows.
func (a *Aggregator) ComputeAll(date string) (ComputeSummary, error) {
	stations, err := a.store.ActiveStations(date)
	if err != nil {
		return ComputeSummary{}, err
	}

	processed := 0
	for _, stationID := range stations {
		stat, err := a.ComputeStationDay(stationID, date)
		if err != nil {
			log.Printf("[aggregator] error computing stats for station %s: %v", stationID, err)
			continue
		}
		if stat == nil {
			continue
		}
		if err := a.store.UpsertDailyStat(stat); err != nil {
			log.Printf("[aggregator] error storing stats for station %s: %v", stationID, err)
			continue
		}
		processed++
	}

	log.Printf("[aggregator] calculated daily stats for %d/%d stations on %s", processed, len(stations), date)
	return ComputeSummary{
		Date:              date,
		StationsProcessed: processed,
		TotalStations:     len(stations),
	}, nil
}

// StationHistory recomputes a station's stats for the trailing N days,
// oldest first, without persisting anything. Days without snapshots are
// omitted.
func (a *Aggregator) StationHistory(stationID string, days int) ([]models.DailyStat, error) {
	history := make([]models.DailyStat, 0, days)
	start := time.Now().AddDate(0, 0, -(days - 1))
	for i := 0; i < days; i++ {
		date := models.DateOf(start.AddDate(0, 0, i))
		stat, err := a.ComputeStationDay(stationID, date)
		if err != nil {
			return nil, err
		}
		if stat != nil {
			history = append(history, *stat)
		}
	}
	return history, nil
}

// round2 rounds to 2 decimal places at the storage boundary; everything
// upstream runs at full precision.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
