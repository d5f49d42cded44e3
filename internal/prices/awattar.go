package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/spotwindow/spotwindow/internal/engine"
)

const (
	marketDataDE = "https://api.awattar.de/v1/marketdata"
	marketDataAT = "https://api.awattar.at/v1/marketdata"
)

// Client fetches day-ahead spot prices from the aWATTar market data
// feed, one endpoint per region
type Client struct {
	httpClient *http.Client
	endpoints  map[engine.Region]string
}

// NewClient creates a client for the public market data endpoints
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoints: map[engine.Region]string{
			engine.RegionDE: marketDataDE,
			engine.RegionAT: marketDataAT,
		},
	}
}

// feedResponse represents the feed's envelope
type feedResponse struct {
	Object string       `json:"object"`
	Data   []feedRecord `json:"data"`
}

// feedRecord is one market interval: epoch seconds and EUR/MWh
type feedRecord struct {
	StartTimestamp int64   `json:"start_timestamp"`
	EndTimestamp   int64   `json:"end_timestamp"`
	Marketprice    float64 `json:"marketprice"`
}

// Range fetches prices covering [from, to) for a region
func (c *Client) Range(ctx context.Context, region engine.Region, from, to time.Time) ([]engine.PricePoint, error) {
	endpoint, ok := c.endpoints[region]
	if !ok {
		return nil, fmt.Errorf("no market data endpoint for region %q", region)
	}

	params := url.Values{}
	params.Add("start", fmt.Sprintf("%d", from.Unix()))
	params.Add("end", fmt.Sprintf("%d", to.Unix()))

	fullURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("feed returned status %d: %s", resp.StatusCode, string(body))
	}

	var feed feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	points := make([]engine.PricePoint, 0, len(feed.Data))
	for _, r := range feed.Data {
		points = append(points, engine.PricePoint{
			Start:    time.Unix(r.StartTimestamp, 0).UTC(),
			End:      time.Unix(r.EndTimestamp, 0).UTC(),
			RawPrice: centPerKWh(r.Marketprice),
		})
	}

	// The feed is normally ordered but the series builder rejects
	// disorder outright, so sort here.
	sort.Slice(points, func(i, j int) bool {
		return points[i].Start.Before(points[j].Start)
	})

	return points, nil
}

// Day fetches prices for a single calendar day (UTC)
func (c *Client) Day(ctx context.Context, region engine.Region, day time.Time) ([]engine.PricePoint, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return c.Range(ctx, region, start, start.Add(24*time.Hour))
}

// TodayAndTomorrow fetches today's prices plus tomorrow's where the
// day-ahead auction has already published them. A short tail is not an
// error; the series simply ends earlier.
func (c *Client) TodayAndTomorrow(ctx context.Context, region engine.Region, now time.Time) ([]engine.PricePoint, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return c.Range(ctx, region, today, today.Add(48*time.Hour))
}

// centPerKWh converts the feed's EUR/MWh into ct/kWh
func centPerKWh(eurPerMWh float64) float64 {
	return eurPerMWh / 10
}
