package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"station-logger/internal/config"
	"station-logger/internal/database"
	"station-logger/internal/gbfs"
	"station-logger/internal/services"

	"github.com/joho/godotenv"
)

var (
	intervalMinutes = flag.Int("interval", 0, "collection interval in minutes (default from COLLECTION_INTERVAL)")
	durationHours   = flag.Float64("duration", 0, "total duration in hours (0 = run until interrupted)")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	minutes := cfg.IntervalMinutes
	if *intervalMinutes > 0 {
		minutes = *intervalMinutes
	}
	interval := time.Duration(minutes) * time.Minute
	duration := time.Duration(*durationHours * float64(time.Hour))

	fmt.Printf("Starting continuous collection every %d minutes\n", minutes)
	if duration > 0 {
		fmt.Printf("Will run for %.1f hours\n", *durationHours)
	} else {
		fmt.Println("Running continuously (press Ctrl+C to stop)")
	}

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector.RunContinuous(ctx, interval, duration)

	fmt.Println("Collection stopped")
}
