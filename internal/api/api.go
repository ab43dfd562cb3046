package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"station-logger/internal/database"
	"station-logger/internal/gbfs"
	"station-logger/internal/models"
	"station-logger/internal/services"

	"github.com/gin-gonic/gin"
)

type APIHandler struct {
	store      *database.Store
	feed       *gbfs.Client
	collector  *services.Collector
	aggregator *services.Aggregator
	reporter   *services.ReportBuilder
}

func SetupRoutes(r *gin.RouterGroup, store *database.Store, feed *gbfs.Client,
	collector *services.Collector, aggregator *services.Aggregator, reporter *services.ReportBuilder) *APIHandler {

	handler := &APIHandler{
		store:      store,
		feed:       feed,
		collector:  collector,
		aggregator: aggregator,
		reporter:   reporter,
	}

	r.GET("/summary", handler.GetLiveSummary)
	r.POST("/collect", handler.TriggerCollection)

	stats := r.Group("/stats")
	{
		stats.GET("", handler.GetDailyStats)
		stats.POST("/compute", handler.ComputeDailyStats)
	}

	r.GET("/report", handler.GetReport)
	r.GET("/stations/:id/history", handler.GetStationHistory)

	return handler
}

// GetLiveSummary fetches the feed and returns current fleet totals.
func (h *APIHandler) GetLiveSummary(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	status, err := h.feed.Fetch(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gbfs.Summarize(status))
}

// TriggerCollection runs one collection cycle.
func (h *APIHandler) TriggerCollection(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	persisted := h.collector.RunOnce(ctx)
	c.JSON(http.StatusOK, gin.H{"persisted": persisted})
}

// GetDailyStats returns every station's stored stats for a date
// (default today).
func (h *APIHandler) GetDailyStats(c *gin.Context) {
	date, ok := h.dateParam(c)
	if !ok {
		return
	}

	stats, err := h.store.DailyStats(date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "stats": stats})
}

// ComputeDailyStats recomputes and stores stats for a date.
func (h *APIHandler) ComputeDailyStats(c *gin.Context) {
	date, ok := h.dateParam(c)
	if !ok {
		return
	}

	summary, err := h.aggregator.ComputeAll(date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetReport builds the availability report for a date.
func (h *APIHandler) GetReport(c *gin.Context) {
	date, ok := h.dateParam(c)
	if !ok {
		return
	}

	topN := services.DefaultTopN
	if v := c.Query("top_n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid top_n"})
			return
		}
		topN = n
	}

	report, err := h.reporter.Build(date, topN)
	if err != nil {
		if errors.Is(err, services.ErrNoData) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "date": date})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetStationHistory recomputes the trailing-days stats for one station.
func (h *APIHandler) GetStationHistory(c *gin.Context) {
	stationID := c.Param("id")

	days := 7
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days"})
			return
		}
		days = n
	}

	history, err := h.aggregator.StationHistory(stationID, days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"station_id": stationID, "days": days, "history": history})
}

// dateParam reads the date query parameter, defaulting to today. Replies
// 400 and returns false on a malformed date.
func (h *APIHandler) dateParam(c *gin.Context) (string, bool) {
	date := c.Query("date")
	if date == "" {
		return models.DateOf(time.Now()), true
	}
	if _, err := time.ParseInLocation(models.DateLayout, date, time.Local); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return "", false
	}
	return date, true
}
