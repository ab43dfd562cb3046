package services

import (
	"errors"
	"sort"

	"station-logger/internal/models"
)

// ErrNoData is returned when a report is requested for a date with no
// stored daily stats.
var ErrNoData = errors.New("no daily stats available for this date")

// DefaultTopN bounds the ranking sections of a report.
const DefaultTopN = 10

// ReportStore is the persistence surface the report builder needs.
type ReportStore interface {
	DailyStats(date string) ([]models.DailyStat, error)
}

// ReportSummary aggregates one date across all stations.
type ReportSummary struct {
	TotalStations                 int     `json:"total_stations"`
	AverageAvailabilityPercentage float64 `json:"average_availability_percentage"`
	TotalZeroBikeHours            float64 `json:"total_zero_bike_hours"`
	StationsWithZeroPeriods       int     `json:"stations_with_zero_periods"`
}

// Report is the daily availability report.
type Report struct {
	Date              string             `json:"date"`
	Summary           ReportSummary      `json:"summary"`
	WorstAvailability []models.DailyStat `json:"worst_availability"`
	MostZeroPeriods   []models.DailyStat `json:"most_zero_periods"`
	BestAvailability  []models.DailyStat `json:"best_availability"`
	FullStats         []models.DailyStat `json:"full_stats"`
}

// ReportBuilder ranks stored daily stats to surface outliers.
type ReportBuilder struct {
	store ReportStore
}

func NewReportBuilder(store ReportStore) *ReportBuilder {
	return &ReportBuilder{store: store}
}

// Build assembles the report for a date. ErrNoData when nothing has been
// aggregated for it. Rankings use stable sorts so ties keep the stored
// order.
func (b *ReportBuilder) Build(date string, topN int) (*Report, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}

	stats, err := b.store.DailyStats(date)
	if err != nil {
		return nil, err
	}
	if len(stats) == 0 {
		return nil, ErrNoData
	}

	totalZeroMinutes := 0.0
	totalAvailability := 0.0
	withZeroPeriods := 0
	for _, s := range stats {
		totalZeroMinutes += s.ZeroBikeMinutes
		totalAvailability += s.AvailabilityPercentage
		if s.NumZeroPeriods > 0 {
			withZeroPeriods++
		}
	}

	worst := rankedCopy(stats, func(a, b models.DailyStat) bool {
		return a.AvailabilityPercentage < b.AvailabilityPercentage
	}, topN)
	best := rankedCopy(stats, func(a, b models.DailyStat) bool {
		return a.AvailabilityPercentage > b.AvailabilityPercentage
	}, topN)
	mostPeriods := rankedCopy(stats, func(a, b models.DailyStat) bool {
		return a.NumZeroPeriods > b.NumZeroPeriods
	}, topN)

	return &Report{
		Date: date,
		Summary: ReportSummary{
			TotalStations:                 len(stats),
			AverageAvailabilityPercentage: round2(totalAvailability / float64(len(stats))),
			TotalZeroBikeHours:            round2(totalZeroMinutes / 60),
			StationsWithZeroPeriods:       withZeroPeriods,
		},
		WorstAvailability: worst,
		MostZeroPeriods:   mostPeriods,
		BestAvailability:  best,
		FullStats:         stats,
	}, nil
}

// rankedCopy stable-sorts a copy of stats by less and truncates to n.
func rankedCopy(stats []models.DailyStat, less func(a, b models.DailyStat) bool, n int) []models.DailyStat {
	ranked := make([]models.DailyStat, len(stats))
	copy(ranked, stats)
	sort.SliceStable(ranked, func(i, j int) bool {
		return less(ranked[i], ranked[j])
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
