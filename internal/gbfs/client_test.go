package gbfs

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const validPayload = `{
	"last_updated": 1704100000,
	"ttl": 60,
	"data": {
		"stations": [
			{"station_id": "S1", "num_bikes_available": 5, "num_docks_available": 3, "is_renting": true, "is_returning": true, "last_reported": 1704099990},
			{"station_id": "S2", "num_bikes_available": 0, "num_docks_available": 8, "is_renting": true, "is_returning": true},
			{"station_id": "S3", "num_bikes_available": 2, "num_docks_available": 6, "is_renting": false, "is_returning": false}
		]
	}
}`

func serve(t *testing.T, status int, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second)
}

func TestFetchValidPayload(t *testing.T) {
	client := serve(t, http.StatusOK, validPayload)

	status, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(status.Data.Stations) != 3 {
		t.Fatalf("Expected 3 stations, got %d", len(status.Data.Stations))
	}

	first := status.Data.Stations[0]
	if first.ID() != "S1" || first.Bikes() != 5 {
		t.Errorf("Unexpected first station: id=%s bikes=%d", first.ID(), first.Bikes())
	}
	if first.LastReported == nil || *first.LastReported != 1704099990 {
		t.Errorf("Expected last_reported 1704099990, got %v", first.LastReported)
	}
	if status.Data.Stations[1].LastReported != nil {
		t.Error("Expected missing last_reported to stay nil")
	}
}

func TestFetchRejectsMalformedPayloads(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", `{"data": `},
		{"no stations key", `{"data": {}}`},
		{"empty stations", `{"data": {"stations": []}}`},
		{"missing station_id", `{"data": {"stations": [{"num_bikes_available": 1, "is_renting": true}]}}`},
		{"missing num_bikes_available", `{"data": {"stations": [{"station_id": "S1", "is_renting": true}]}}`},
		{"missing is_renting", `{"data": {"stations": [{"station_id": "S1", "num_bikes_available": 1}]}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := serve(t, http.StatusOK, tc.body)
			if _, err := client.Fetch(context.Background()); err == nil {
				t.Error("Expected an error for malformed payload")
			}
		})
	}
}

func TestFetchRejectsBadStatus(t *testing.T) {
	client := serve(t, http.StatusBadGateway, "upstream down")
	if _, err := client.Fetch(context.Background()); err == nil {
		t.Error("Expected an error for non-2xx status")
	}
}

func TestActiveStationsFiltersRenting(t *testing.T) {
	client := serve(t, http.StatusOK, validPayload)
	status, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	active := ActiveStations(status)
	if len(active) != 2 {
		t.Fatalf("Expected 2 active stations, got %d", len(active))
	}
	for _, st := range active {
		if st.ID() == "S3" {
			t.Error("S3 is not renting and should be filtered out")
		}
	}
}

func TestSummarize(t *testing.T) {
	client := serve(t, http.StatusOK, validPayload)
	status, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	summary := Summarize(status)
	if summary.TotalStations != 2 {
		t.Errorf("Expected 2 stations, got %d", summary.TotalStations)
	}
	if summary.TotalBikes != 5 {
		t.Errorf("Expected 5 bikes, got %d", summary.TotalBikes)
	}
	if summary.TotalDocks != 11 {
		t.Errorf("Expected 11 docks, got %d", summary.TotalDocks)
	}
	if summary.StationsWithBikes != 1 || summary.StationsEmpty != 1 {
		t.Errorf("Expected 1 with bikes and 1 empty, got %d/%d", summary.StationsWithBikes, summary.StationsEmpty)
	}
	if math.Abs(summary.AverageBikesPerStation-2.5) > 0.001 {
		t.Errorf("Expected 2.5 average bikes, got %.2f", summary.AverageBikesPerStation)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	if summary.TotalStations != 0 || summary.TotalBikes != 0 {
		t.Errorf("Expected zero summary, got %+v", summary)
	}
	if summary.Timestamp == "" {
		t.Error("Expected a timestamp even for an empty summary")
	}
}
