package main

import (
	"log"
	"net/http"

	"station-logger/internal/api"
	"station-logger/internal/config"
	"station-logger/internal/database"
	"station-logger/internal/gbfs"
	"station-logger/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Initialize(cfg.DBPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	store := database.NewStore(db)

	// Initialize services
	feed := gbfs.NewClient(cfg.FeedURL, cfg.APITimeout)
	tracker, err := services.NewOutageTracker(store, cfg.ZeroBikeThreshold)
	if err != nil {
		log.Fatal("Failed to initialize outage tracker:", err)
	}
	aggregator := services.NewAggregator(store, cfg.LowBikeThreshold)
	collector := services.NewCollector(feed, store, tracker, aggregator)
	reporter := services.NewReportBuilder(store)

	// Initialize Gin router
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api.SetupRoutes(r.Group("/api/v1"), store, feed, collector, aggregator, reporter)

	log.Printf("Starting API server on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
