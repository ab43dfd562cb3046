package models

import "time"

// DateLayout is the calendar-date format used for daily keys.
const DateLayout = "2006-01-02"

// DateOf returns the local calendar date of t as a YYYY-MM-DD string.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// StationSnapshot is one observed reading of a station's bike and dock
// counts at a collection instant. Rows are immutable once stored; a
// duplicate (station_id, timestamp) insert is ignored.
type StationSnapshot struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	StationID         string    `json:"station_id" gorm:"not null;uniqueIndex:uniq_snapshot_station_ts,priority:1;index:idx_snapshots_station_time,priority:1"`
	Timestamp         time.Time `json:"timestamp" gorm:"not null;index;uniqueIndex:uniq_snapshot_station_ts,priority:2;index:idx_snapshots_station_time,priority:2"`
	NumBikesAvailable int       `json:"num_bikes_available" gorm:"not null"`
	NumDocksAvailable int       `json:"num_docks_available" gorm:"not null"`
	IsRenting         bool      `json:"is_renting" gorm:"not null"`
	IsReturning       bool      `json:"is_returning" gorm:"not null"`
	LastReported      *int64    `json:"last_reported"`
}

// ZeroBikePeriod is a maximal contiguous interval during which a station's
// observed bike count stayed at or below the zero-bike threshold. EndTime
// nil means the period is still open; at most one open period exists per
// station at any time.
type ZeroBikePeriod struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	StationID       string     `json:"station_id" gorm:"not null;index:idx_zero_periods_station,priority:1"`
	StartTime       time.Time  `json:"start_time" gorm:"not null"`
	EndTime         *time.Time `json:"end_time" gorm:"index:idx_zero_periods_station,priority:2"`
	DurationMinutes *float64   `json:"duration_minutes"`
	// Date is the calendar date of StartTime; the period is scoped to it.
	Date string `json:"date" gorm:"not null;index;size:10"`
}

// DailyStat is the per-station, per-date aggregate derived from snapshots
// and zero-bike periods. One row per (station_id, date); recomputing
// replaces the row.
type DailyStat struct {
	ID                     uint    `json:"id" gorm:"primaryKey"`
	StationID              string  `json:"station_id" gorm:"not null;uniqueIndex:uniq_stat_station_date,priority:1"`
	Date                   string  `json:"date" gorm:"not null;size:10;uniqueIndex:uniq_stat_station_date,priority:2"`
	TotalBikesSeen         int     `json:"total_bikes_seen" gorm:"not null"`
	MaxBikes               int     `json:"max_bikes" gorm:"not null"`
	MinBikes               int     `json:"min_bikes" gorm:"not null"`
	AvgBikes               float64 `json:"avg_bikes" gorm:"not null"`
	ZeroBikeMinutes        float64 `json:"zero_bike_minutes" gorm:"not null"`
	NumZeroPeriods         int     `json:"num_zero_periods" gorm:"not null"`
	LowBikeMinutes         float64 `json:"low_bike_minutes" gorm:"default:0"`
	AvailabilityPercentage float64 `json:"availability_percentage" gorm:"default:100"`
}
