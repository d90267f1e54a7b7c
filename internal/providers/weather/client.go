// Package weather is a read-only client for the point-forecast weather
// feed: a point lookup followed by a forecast-period lookup.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gridironmods/sideline/pkg/convert"
	"github.com/gridironmods/sideline/pkg/models"
)

// Client handles weather feed requests.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// New creates a weather feed client.
func New(baseURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		userAgent:  userAgent,
	}
}

type pointResponse struct {
	Properties struct {
		Forecast string `json:"forecast"`
	} `json:"properties"`
}

type forecastResponse struct {
	Properties struct {
		Periods []struct {
			StartTime     string `json:"startTime"`
			EndTime       string `json:"endTime"`
			ShortForecast string `json:"shortForecast"`
			Temperature   int    `json:"temperature"`
			WindSpeed     string `json:"windSpeed"`
			WindDirection string `json:"windDirection"`
		} `json:"periods"`
	} `json:"properties"`
}

// Forecast returns the forecast period covering at, or nil when the feed
// has no period for that time. A nil result is normal, not an error.
func (c *Client) Forecast(ctx context.Context, loc models.Location, at time.Time) (*models.Weather, error) {
	var point pointResponse
	pointURL := fmt.Sprintf("%s/points/%v,%v", c.baseURL, loc.Lat, loc.Lon)
	if err := c.fetch(ctx, pointURL, &point); err != nil {
		return nil, fmt.Errorf("looking up forecast point: %w", err)
	}
	if point.Properties.Forecast == "" {
		return nil, nil
	}

	var forecast forecastResponse
	if err := c.fetch(ctx, point.Properties.Forecast, &forecast); err != nil {
		return nil, fmt.Errorf("fetching forecast: %w", err)
	}

	for _, period := range forecast.Properties.Periods {
		start, err := convert.ParseZonedTime(period.StartTime)
		if err != nil {
			continue
		}
		end, err := convert.ParseZonedTime(period.EndTime)
		if err != nil {
			continue
		}
		if !start.After(at) && !end.Before(at) {
			return &models.Weather{
				Forecast:      period.ShortForecast,
				Temperature:   period.Temperature,
				WindSpeed:     period.WindSpeed,
				WindDirection: period.WindDirection,
			}, nil
		}
	}
	return nil, nil
}

func (c *Client) fetch(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("weather feed error: status=%d, body=%s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
