package prices

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spotwindow/spotwindow/internal/engine"
)

func TestClientRange(t *testing.T) {
	day := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)

	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"start": r.URL.Query().Get("start"),
			"end":   r.URL.Query().Get("end"),
		}
		// Deliberately out of order; the client must sort.
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"object": "list",
			"data": [
				{"start_timestamp": 1733014800, "end_timestamp": 1733018400, "marketprice": 82.5},
				{"start_timestamp": 1733011200, "end_timestamp": 1733014800, "marketprice": -4.2}
			]
		}`))
	}))
	defer srv.Close()

	c := &Client{
		httpClient: srv.Client(),
		endpoints:  map[engine.Region]string{engine.RegionDE: srv.URL},
	}

	points, err := c.Range(context.Background(), engine.RegionDE, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "1733011200", gotQuery["start"])
	assert.Equal(t, "1733097600", gotQuery["end"])

	// Sorted ascending, epoch seconds decoded, EUR/MWh divided by 10.
	assert.True(t, points[0].Start.Equal(time.Unix(1733011200, 0).UTC()))
	assert.True(t, points[0].End.Equal(time.Unix(1733014800, 0).UTC()))
	assert.InDelta(t, -0.42, points[0].RawPrice, 1e-9)
	assert.InDelta(t, 8.25, points[1].RawPrice, 1e-9)
}

func TestClientRangeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := &Client{
		httpClient: srv.Client(),
		endpoints:  map[engine.Region]string{engine.RegionDE: srv.URL},
	}

	_, err := c.Range(context.Background(), engine.RegionDE, time.Now(), time.Now().Add(time.Hour))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestClientUnknownRegion(t *testing.T) {
	c := NewClient()
	_, err := c.Range(context.Background(), engine.Region("XX"), time.Now(), time.Now().Add(time.Hour))
	require.Error(t, err)
}
