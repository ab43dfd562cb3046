package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"station-logger/internal/config"
	"station-logger/internal/database"
	"station-logger/internal/models"
	"station-logger/internal/services"

	"github.com/joho/godotenv"
	"github.com/xuri/excelize/v2"
)

var (
	date           = flag.String("date", "", "report date (YYYY-MM-DD), default today")
	output         = flag.String("output", "console", "output format: console, json, xlsx or both")
	outputFile     = flag.String("output-file", "", "output file for json/xlsx formats")
	calculateStats = flag.Bool("calculate-stats", false, "calculate statistics before generating the report")
	topN           = flag.Int("top-n", services.DefaultTopN, "number of stations in each ranking section")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	reportDate := models.DateOf(time.Now())
	if *date != "" {
		if _, err := time.ParseInLocation(models.DateLayout, *date, time.Local); err != nil {
			log.Fatalf("Invalid -date %q: %v", *date, err)
		}
		reportDate = *date
	}

	db, err := database.Initialize(cfg.DBPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	store := database.NewStore(db)

	if *calculateStats {
		fmt.Printf("Calculating statistics for %s...\n", reportDate)
		aggregator := services.NewAggregator(store, cfg.LowBikeThreshold)
		summary, err := aggregator.ComputeAll(reportDate)
		if err != nil {
			log.Fatalf("Failed to calculate statistics: %v", err)
		}
		fmt.Printf("Calculated stats for %d stations\n", summary.StationsProcessed)
	}

	fmt.Printf("Generating report for %s...\n", reportDate)
	report, err := services.NewReportBuilder(store).Build(reportDate, *topN)
	if err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}

	switch *output {
	case "console":
		printReport(report)
	case "json":
		writeJSON(report)
	case "xlsx":
		writeXLSX(report)
	case "both":
		printReport(report)
		writeJSON(report)
	default:
		log.Fatalf("Unknown output format %q", *output)
	}
}

func printReport(report *services.Report) {
	line := strings.Repeat("=", 60)

	fmt.Printf("\n%s\n", line)
	fmt.Printf("BIKE STATION REPORT - %s\n", report.Date)
	fmt.Printf("%s\n\n", line)

	fmt.Println("SUMMARY")
	fmt.Println(strings.Repeat("-", 30))
	fmt.Printf("Total Stations: %d\n", report.Summary.TotalStations)
	fmt.Printf("Average Availability: %.2f%%\n", report.Summary.AverageAvailabilityPercentage)
	fmt.Printf("Total Zero-Bike Hours: %.2f\n", report.Summary.TotalZeroBikeHours)
	fmt.Printf("Stations with Outages: %d\n", report.Summary.StationsWithZeroPeriods)

	fmt.Printf("\n\nWORST AVAILABILITY\n")
	fmt.Println(strings.Repeat("-", 30))
	fmt.Printf("%-15s %-15s %-15s\n", "Station ID", "Availability %", "Zero Minutes")
	for _, s := range report.WorstAvailability {
		fmt.Printf("%-15s %-15.1f %-15.1f\n", s.StationID, s.AvailabilityPercentage, s.ZeroBikeMinutes)
	}

	fmt.Printf("\n\nBEST AVAILABILITY\n")
	fmt.Println(strings.Repeat("-", 30))
	fmt.Printf("%-15s %-15s %-15s\n", "Station ID", "Availability %", "Avg Bikes")
	for _, s := range report.BestAvailability {
		fmt.Printf("%-15s %-15.1f %-15.1f\n", s.StationID, s.AvailabilityPercentage, s.AvgBikes)
	}

	fmt.Printf("\n\nMOST FREQUENT OUTAGES\n")
	fmt.Println(strings.Repeat("-", 30))
	fmt.Printf("%-15s %-15s %-15s\n", "Station ID", "# Outages", "Total Minutes")
	for _, s := range report.MostZeroPeriods {
		fmt.Printf("%-15s %-15d %-15.1f\n", s.StationID, s.NumZeroPeriods, s.ZeroBikeMinutes)
	}

	fmt.Printf("\n%s\n\n", line)
}

func writeJSON(report *services.Report) {
	path := *outputFile
	if path == "" {
		path = fmt.Sprintf("report_%s.json", report.Date)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode report: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}
	fmt.Printf("Report saved to %s\n", path)
}

func writeXLSX(report *services.Report) {
	path := *outputFile
	if path == "" {
		path = fmt.Sprintf("report_%s.xlsx", report.Date)
	}

	f := excelize.NewFile()
	defer f.Close()

	summary := f.GetSheetName(0)
	f.SetCellValue(summary, "A1", "Report Date")
	f.SetCellValue(summary, "B1", report.Date)
	f.SetCellValue(summary, "A2", "Total Stations")
	f.SetCellValue(summary, "B2", report.Summary.TotalStations)
	f.SetCellValue(summary, "A3", "Average Availability %")
	f.SetCellValue(summary, "B3", report.Summary.AverageAvailabilityPercentage)
	f.SetCellValue(summary, "A4", "Total Zero-Bike Hours")
	f.SetCellValue(summary, "B4", report.Summary.TotalZeroBikeHours)
	f.SetCellValue(summary, "A5", "Stations with Outages")
	f.SetCellValue(summary, "B5", report.Summary.StationsWithZeroPeriods)

	writeStatsSheet(f, "Worst Availability", report.WorstAvailability)
	writeStatsSheet(f, "Best Availability", report.BestAvailability)
	writeStatsSheet(f, "Most Outages", report.MostZeroPeriods)
	writeStatsSheet(f, "Full Stats", report.FullStats)

	if err := f.SaveAs(path); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}
	fmt.Printf("Report saved to %s\n", path)
}

func writeStatsSheet(f *excelize.File, name string, stats []models.DailyStat) {
	if _, err := f.NewSheet(name); err != nil {
		log.Fatalf("Failed to create sheet %s: %v", name, err)
	}

	headers := []string{"Station ID", "Date", "Total Bikes Seen", "Max Bikes", "Min Bikes",
		"Avg Bikes", "Zero-Bike Minutes", "# Zero Periods", "Low-Bike Minutes", "Availability %"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(name, cell, h)
	}

	for row, s := range stats {
		values := []interface{}{s.StationID, s.Date, s.TotalBikesSeen, s.MaxBikes, s.MinBikes,
			s.AvgBikes, s.ZeroBikeMinutes, s.NumZeroPeriods, s.LowBikeMinutes, s.AvailabilityPercentage}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(name, cell, v)
		}
	}
}
