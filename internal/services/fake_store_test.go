package services

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"station-logger/internal/models"
)

// fakeStore is an in-memory stand-in for database.Store used across the
// service tests.
type fakeStore struct {
	mu     sync.Mutex
	nextID uint

	periods   []models.ZeroBikePeriod
	snapshots []models.StationSnapshot
	stats     []models.DailyStat

	// failSnapshots makes DailySnapshots fail for the named stations.
	failSnapshots map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{failSnapshots: map[string]bool{}}
}

func (f *fakeStore) OpenPeriods() ([]models.ZeroBikePeriod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var open []models.ZeroBikePeriod
	for _, p := range f.periods {
		if p.EndTime == nil {
			open = append(open, p)
		}
	}
	return open, nil
}

func (f *fakeStore) StartPeriod(stationID string, start time.Time) (*models.ZeroBikePeriod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	period := models.ZeroBikePeriod{
		ID:        f.nextID,
		StationID: stationID,
		StartTime: start,
		Date:      models.DateOf(start),
	}
	f.periods = append(f.periods, period)
	return &period, nil
}

func (f *fakeStore) ClosePeriod(id uint, end time.Time, durationMinutes float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.periods {
		if f.periods[i].ID == id && f.periods[i].EndTime == nil {
			endCopy := end
			durCopy := durationMinutes
			f.periods[i].EndTime = &endCopy
			f.periods[i].DurationMinutes = &durCopy
			return nil
		}
	}
	return nil
}

func (f *fakeStore) CloseAllOpenPeriods(end time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	closed := 0
	for i := range f.periods {
		if f.periods[i].EndTime == nil {
			endCopy := end
			duration := end.Sub(f.periods[i].StartTime).Minutes()
			f.periods[i].EndTime = &endCopy
			f.periods[i].DurationMinutes = &duration
			closed++
		}
	}
	return closed, nil
}

func (f *fakeStore) InsertSnapshot(snap *models.StationSnapshot) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.snapshots {
		if existing.StationID == snap.StationID && existing.Timestamp.Equal(snap.Timestamp) {
			return false, nil
		}
	}
	f.nextID++
	snap.ID = f.nextID
	f.snapshots = append(f.snapshots, *snap)
	return true, nil
}

func (f *fakeStore) DailySnapshots(stationID, date string) ([]models.StationSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSnapshots[stationID] {
		return nil, fmt.Errorf("simulated store failure for %s", stationID)
	}
	var snaps []models.StationSnapshot
	for _, s := range f.snapshots {
		if s.StationID == stationID && models.DateOf(s.Timestamp) == date {
			snaps = append(snaps, s)
		}
	}
	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].Timestamp.Before(snaps[j].Timestamp)
	})
	return snaps, nil
}

func (f *fakeStore) DailyZeroPeriods(stationID, date string) ([]models.ZeroBikePeriod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var periods []models.ZeroBikePeriod
	for _, p := range f.periods {
		if p.StationID == stationID && p.Date == date {
			periods = append(periods, p)
		}
	}
	return periods, nil
}

func (f *fakeStore) UpsertDailyStat(stat *models.DailyStat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.stats {
		if f.stats[i].StationID == stat.StationID && f.stats[i].Date == stat.Date {
			stat.ID = f.stats[i].ID
			f.stats[i] = *stat
			return nil
		}
	}
	f.nextID++
	stat.ID = f.nextID
	f.stats = append(f.stats, *stat)
	return nil
}

func (f *fakeStore) ActiveStations(date string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]bool{}
	var ids []string
	for _, s := range f.snapshots {
		if s.IsRenting && models.DateOf(s.Timestamp) == date && !seen[s.StationID] {
			seen[s.StationID] = true
			ids = append(ids, s.StationID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeStore) DailyStats(date string) ([]models.DailyStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var stats []models.DailyStat
	for _, s := range f.stats {
		if s.Date == date {
			stats = append(stats, s)
		}
	}
	return stats, nil
}

// openCount reports how many stored periods are still open.
func (f *fakeStore) openCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.periods {
		if p.EndTime == nil {
			n++
		}
	}
	return n
}

// at builds a timestamp on 2024-01-01 local time.
func at(hour, minute int) time.Time {
	return time.Date(2024, 1, 1, hour, minute, 0, 0, time.Local)
}
