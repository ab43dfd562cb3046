package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"station-logger/internal/config"
	"station-logger/internal/database"
	"station-logger/internal/gbfs"
	"station-logger/internal/models"
	"station-logger/internal/services"

	"github.com/joho/godotenv"
)

var (
	calculateStats = flag.Bool("calculate-stats", false, "calculate daily statistics after collection")
	statsDate      = flag.String("stats-date", "", "date for statistics calculation (YYYY-MM-DD), default today")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	db, err := database.Initialize(cfg.DBPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	store := database.NewStore(db)

	tracker, err := services.NewOutageTracker(store, cfg.ZeroBikeThreshold)
	if err != nil {
		log.Fatal("Failed to initialize outage tracker:", err)
	}
	aggregator := services.NewAggregator(store, cfg.LowBikeThreshold)
	feed := gbfs.NewClient(cfg.FeedURL, cfg.APITimeout)
	collector := services.NewCollector(feed, store, tracker, aggregator)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.APITimeout+30*time.Second)
	defer cancel()

	log.Println("Starting single data collection cycle")
	if !collector.RunOnce(ctx) {
		fmt.Println("Data collection failed")
		os.Exit(1)
	}

	if *calculateStats {
		date := models.DateOf(time.Now())
		if *statsDate != "" {
			if _, err := time.ParseInLocation(models.DateLayout, *statsDate, time.Local); err != nil {
				log.Fatalf("Invalid -stats-date %q: %v", *statsDate, err)
			}
			date = *statsDate
		}

		summary, err := aggregator.ComputeAll(date)
		if err != nil {
			log.Fatalf("Failed to calculate statistics: %v", err)
		}
		fmt.Printf("Statistics calculated for %d stations\n", summary.StationsProcessed)
	}

	fmt.Println("Data collection completed successfully")
}
