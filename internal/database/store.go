package database

import (
	"fmt"
	"time"

	"station-logger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store wraps all queries over the three tables. One instance is shared by
// the collector, the aggregation engine and the API handlers.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// dayBounds returns the local [start, end) instants of a YYYY-MM-DD date.
func dayBounds(date string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(models.DateLayout, date, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return start, start.AddDate(0, 0, 1), nil
}

// InsertSnapshot stores a snapshot, ignoring duplicates on
// (station_id, timestamp). Returns true when a new row was written.
func (s *Store) InsertSnapshot(snap *models.StationSnapshot) (bool, error) {
	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(snap)
	if res.Error != nil {
		return false, fmt.Errorf("failed to insert snapshot: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// OpenPeriods returns every zero-bike period that has no end time yet.
func (s *Store) OpenPeriods() ([]models.ZeroBikePeriod, error) {
	var periods []models.ZeroBikePeriod
	if err := s.db.Where("end_time IS NULL").Order("start_time").Find(&periods).Error; err != nil {
		return nil, fmt.Errorf("failed to load open periods: %w", err)
	}
	return periods, nil
}

// StartPeriod opens a new zero-bike period for a station.
func (s *Store) StartPeriod(stationID string, start time.Time) (*models.ZeroBikePeriod, error) {
	period := &models.ZeroBikePeriod{
		StationID: stationID,
		StartTime: start,
		Date:      models.DateOf(start),
	}
	if err := s.db.Create(period).Error; err != nil {
		return nil, fmt.Errorf("failed to start zero-bike period: %w", err)
	}
	return period, nil
}

// ClosePeriod sets the end time and duration of an open period. Already
// closed periods are left untouched.
func (s *Store) ClosePeriod(id uint, end time.Time, durationMinutes float64) error {
	err := s.db.Model(&models.ZeroBikePeriod{}).
		Where("id = ? AND end_time IS NULL", id).
		Updates(map[string]interface{}{
			"end_time":         end,
			"duration_minutes": durationMinutes,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to close zero-bike period %d: %w", id, err)
	}
	return nil
}

// CloseAllOpenPeriods force-closes every open period station-wide at the
// given instant, computing each duration from its own start time. Returns
// the number of periods closed.
func (s *Store) CloseAllOpenPeriods(end time.Time) (int, error) {
	open, err := s.OpenPeriods()
	if err != nil {
		return 0, err
	}
	closed := 0
	for _, p := range open {
		if err := s.ClosePeriod(p.ID, end, end.Sub(p.StartTime).Minutes()); err != nil {
			return closed, err
		}
		closed++
	}
	return closed, nil
}

// DailySnapshots returns a station's snapshots for one calendar date,
// ordered by timestamp.
func (s *Store) DailySnapshots(stationID, date string) ([]models.StationSnapshot, error) {
	start, end, err := dayBounds(date)
	if err != nil {
		return nil, err
	}
	var snaps []models.StationSnapshot
	err = s.db.Where("station_id = ? AND timestamp >= ? AND timestamp < ?", stationID, start, end).
		Order("timestamp").
		Find(&snaps).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load daily snapshots: %w", err)
	}
	return snaps, nil
}

// DailyZeroPeriods returns a station's zero-bike periods scoped to a date,
// ordered by start time.
func (s *Store) DailyZeroPeriods(stationID, date string) ([]models.ZeroBikePeriod, error) {
	var periods []models.ZeroBikePeriod
	err := s.db.Where("station_id = ? AND date = ?", stationID, date).
		Order("start_time").
		Find(&periods).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load daily zero periods: %w", err)
	}
	return periods, nil
}

// UpsertDailyStat writes a stat row, replacing any existing row for the
// same (station_id, date).
func (s *Store) UpsertDailyStat(stat *models.DailyStat) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "station_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_bikes_seen", "max_bikes", "min_bikes", "avg_bikes",
			"zero_bike_minutes", "num_zero_periods", "low_bike_minutes",
			"availability_percentage",
		}),
	}).Create(stat).Error
	if err != nil {
		return fmt.Errorf("failed to upsert daily stats: %w", err)
	}
	return nil
}

// DailyStats returns every station's stats for a date, worst outages first.
// The id tie-break keeps the ordering deterministic.
func (s *Store) DailyStats(date string) ([]models.DailyStat, error) {
	var stats []models.DailyStat
	err := s.db.Where("date = ?", date).
		Order("zero_bike_minutes DESC, id").
		Find(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load daily stats: %w", err)
	}
	return stats, nil
}

// ActiveStations lists stations with at least one renting snapshot on the
// given date.
func (s *Store) ActiveStations(date string) ([]string, error) {
	start, end, err := dayBounds(date)
	if err != nil {
		return nil, err
	}
	var ids []string
	err = s.db.Model(&models.StationSnapshot{}).
		Distinct("station_id").
		Where("timestamp >= ? AND timestamp < ? AND is_renting = ?", start, end, true).
		Order("station_id").
		Pluck("station_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active stations: %w", err)
	}
	return ids, nil
}
