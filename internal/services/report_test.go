package services

import (
	"errors"
	"math"
	"testing"

	"station-logger/internal/models"
)

type fakeReportStore struct {
	stats []models.DailyStat
	err   error
}

func (f *fakeReportStore) DailyStats(date string) ([]models.DailyStat, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.DailyStat
	for _, s := range f.stats {
		if s.Date == date {
			out = append(out, s)
		}
	}
	return out, nil
}

func stat(stationID string, availability float64, zeroMinutes float64, numPeriods int) models.DailyStat {
	return models.DailyStat{
		StationID:              stationID,
		Date:                   "2024-01-01",
		AvailabilityPercentage: availability,
		ZeroBikeMinutes:        zeroMinutes,
		NumZeroPeriods:         numPeriods,
	}
}

func TestBuildErrorsOnEmptyDate(t *testing.T) {
	builder := NewReportBuilder(&fakeReportStore{})
	_, err := builder.Build("2024-01-01", 10)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("Expected ErrNoData, got %v", err)
	}
}

func TestBuildSummary(t *testing.T) {
	store := &fakeReportStore{stats: []models.DailyStat{
		stat("S1", 100, 0, 0),
		stat("S2", 50, 720, 3),
	}}

	report, err := NewReportBuilder(store).Build("2024-01-01", 10)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if report.Summary.TotalStations != 2 {
		t.Errorf("Expected 2 stations, got %d", report.Summary.TotalStations)
	}
	if math.Abs(report.Summary.AverageAvailabilityPercentage-75.0) > 0.001 {
		t.Errorf("Expected average availability 75.0, got %.2f", report.Summary.AverageAvailabilityPercentage)
	}
	if math.Abs(report.Summary.TotalZeroBikeHours-12.0) > 0.001 {
		t.Errorf("Expected 12 zero-bike hours, got %.2f", report.Summary.TotalZeroBikeHours)
	}
	if report.Summary.StationsWithZeroPeriods != 1 {
		t.Errorf("Expected 1 station with outages, got %d", report.Summary.StationsWithZeroPeriods)
	}
}

func TestBuildRankings(t *testing.T) {
	store := &fakeReportStore{stats: []models.DailyStat{
		stat("S1", 90, 144, 1),
		stat("S2", 40, 864, 5),
		stat("S3", 99, 14.4, 2),
	}}

	report, err := NewReportBuilder(store).Build("2024-01-01", 2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(report.WorstAvailability) != 2 {
		t.Fatalf("Expected 2 worst entries, got %d", len(report.WorstAvailability))
	}
	if report.WorstAvailability[0].StationID != "S2" || report.WorstAvailability[1].StationID != "S1" {
		t.Errorf("Unexpected worst ranking: %s, %s",
			report.WorstAvailability[0].StationID, report.WorstAvailability[1].StationID)
	}
	if report.BestAvailability[0].StationID != "S3" {
		t.Errorf("Expected S3 best, got %s", report.BestAvailability[0].StationID)
	}
	if report.MostZeroPeriods[0].StationID != "S2" || report.MostZeroPeriods[1].StationID != "S3" {
		t.Errorf("Unexpected outage ranking: %s, %s",
			report.MostZeroPeriods[0].StationID, report.MostZeroPeriods[1].StationID)
	}
	if len(report.FullStats) != 3 {
		t.Errorf("Expected full stats untruncated, got %d", len(report.FullStats))
	}
}

func TestBuildTiesKeepStoredOrder(t *testing.T) {
	store := &fakeReportStore{stats: []models.DailyStat{
		stat("S1", 80, 288, 1),
		stat("S2", 80, 288, 1),
		stat("S3", 80, 288, 1),
	}}

	report, err := NewReportBuilder(store).Build("2024-01-01", 10)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for i, want := range []string{"S1", "S2", "S3"} {
		if report.WorstAvailability[i].StationID != want {
			t.Errorf("Tie order broken at %d: expected %s, got %s", i, want, report.WorstAvailability[i].StationID)
		}
	}
}
