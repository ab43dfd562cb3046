package gbfs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Station is one entry from the GBFS station_status feed. The pointer
// fields are required by the feed contract; nil means the upstream payload
// omitted them.
type Station struct {
	StationID         *string `json:"station_id"`
	NumBikesAvailable *int    `json:"num_bikes_available"`
	NumDocksAvailable int     `json:"num_docks_available"`
	IsRenting         *bool   `json:"is_renting"`
	IsReturning       bool    `json:"is_returning"`
	LastReported      *int64  `json:"last_reported"`
}

// StationStatus is the GBFS station_status payload.
type StationStatus struct {
	LastUpdated int64 `json:"last_updated"`
	TTL         int   `json:"ttl"`
	Data        struct {
		Stations []Station `json:"stations"`
	} `json:"data"`
}

// Summary describes the fleet at a single fetch.
type Summary struct {
	TotalStations          int     `json:"total_stations"`
	TotalBikes             int     `json:"total_bikes"`
	TotalDocks             int     `json:"total_docks"`
	StationsWithBikes      int     `json:"stations_with_bikes"`
	StationsEmpty          int     `json:"stations_empty"`
	AverageBikesPerStation float64 `json:"average_bikes_per_station"`
	Timestamp              string  `json:"timestamp"`
}

// Client fetches station status from a GBFS endpoint.
type Client struct {
	url    string
	client *resty.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	client := resty.New()
	client.SetTimeout(timeout)

	return &Client{
		url:    url,
		client: client,
	}
}

// Fetch retrieves and validates the current station status. Any transport,
// decode or validation problem is returned as an error; callers treat it as
// a recoverable failed cycle.
func (c *Client) Fetch(ctx context.Context) (*StationStatus, error) {
	resp, err := c.client.R().SetContext(ctx).Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch station status: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("unexpected status %s from feed", resp.Status())
	}

	var status StationStatus
	if err := json.Unmarshal(resp.Body(), &status); err != nil {
		return nil, fmt.Errorf("failed to decode station status: %w", err)
	}

	if err := validate(&status); err != nil {
		return nil, fmt.Errorf("invalid station status payload: %w", err)
	}
	return &status, nil
}

// validate checks the GBFS payload shape: a non-empty data.stations array
// whose first entry carries the required fields.
func validate(status *StationStatus) error {
	if len(status.Data.Stations) == 0 {
		return fmt.Errorf("no stations in response")
	}

	first := status.Data.Stations[0]
	if first.StationID == nil || *first.StationID == "" {
		return fmt.Errorf("missing required field: station_id")
	}
	if first.NumBikesAvailable == nil {
		return fmt.Errorf("missing required field: num_bikes_available")
	}
	if first.IsRenting == nil {
		return fmt.Errorf("missing required field: is_renting")
	}
	return nil
}

// ActiveStations filters the payload down to stations currently renting.
// Entries without a station id are dropped.
func ActiveStations(status *StationStatus) []Station {
	if status == nil {
		return nil
	}
	active := make([]Station, 0, len(status.Data.Stations))
	for _, st := range status.Data.Stations {
		if st.StationID == nil || *st.StationID == "" {
			continue
		}
		if st.IsRenting != nil && *st.IsRenting {
			active = append(active, st)
		}
	}
	return active
}

// Bikes returns the station's bike count, defaulting missing values to 0.
func (s Station) Bikes() int {
	if s.NumBikesAvailable == nil {
		return 0
	}
	return *s.NumBikesAvailable
}

// ID returns the station identifier, empty when the feed omitted it.
func (s Station) ID() string {
	if s.StationID == nil {
		return ""
	}
	return *s.StationID
}

// Summarize computes fleet totals over the active stations of a payload.
func Summarize(status *StationStatus) Summary {
	now := time.Now().Format(time.RFC3339)
	stations := ActiveStations(status)
	if len(stations) == 0 {
		return Summary{Timestamp: now}
	}

	summary := Summary{
		TotalStations: len(stations),
		Timestamp:     now,
	}
	for _, st := range stations {
		bikes := st.Bikes()
		summary.TotalBikes += bikes
		summary.TotalDocks += st.NumDocksAvailable
		if bikes > 0 {
			summary.StationsWithBikes++
		}
	}
	summary.StationsEmpty = summary.TotalStations - summary.StationsWithBikes
	summary.AverageBikesPerStation = float64(summary.TotalBikes) / float64(summary.TotalStations)
	return summary
}
