package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridironmods/sideline/pkg/models"
)

func newServer(t *testing.T, periods string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/points/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"properties":{"forecast":"%s/forecast"}}`, srv.URL)
	})
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"properties":{"periods":[%s]}}`, periods)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestForecastMatchingPeriod(t *testing.T) {
	periods := `
{"startTime":"2024-09-08T06:00:00-04:00","endTime":"2024-09-08T12:00:00-04:00","shortForecast":"Morning Fog","temperature":58,"windSpeed":"5 mph","windDirection":"N"},
{"startTime":"2024-09-08T12:00:00-04:00","endTime":"2024-09-08T18:00:00-04:00","shortForecast":"Partly Cloudy","temperature":72,"windSpeed":"10 mph","windDirection":"NW"}`
	srv := newServer(t, periods)
	client := New(srv.URL, "test", 5*time.Second)

	kickoff := time.Date(2024, time.September, 8, 17, 0, 0, 0, time.UTC) // 13:00 EDT
	got, err := client.Forecast(context.Background(), models.Location{Lat: 41.5, Lon: -81.7}, kickoff)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "Partly Cloudy", got.Forecast)
	assert.Equal(t, 72, got.Temperature)
	assert.Equal(t, "10 mph", got.WindSpeed)
	assert.Equal(t, "NW", got.WindDirection)
}

func TestForecastNoCoveringPeriod(t *testing.T) {
	periods := `{"startTime":"2024-09-08T06:00:00-04:00","endTime":"2024-09-08T12:00:00-04:00","shortForecast":"Fog","temperature":58,"windSpeed":"5 mph","windDirection":"N"}`
	srv := newServer(t, periods)
	client := New(srv.URL, "test", 5*time.Second)

	nextWeek := time.Date(2024, time.September, 15, 17, 0, 0, 0, time.UTC)
	got, err := client.Forecast(context.Background(), models.Location{Lat: 41.5, Lon: -81.7}, nextWeek)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestForecastFeedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	client := New(srv.URL, "test", 5*time.Second)

	_, err := client.Forecast(context.Background(), models.Location{Lat: 41.5, Lon: -81.7}, time.Now())
	assert.Error(t, err)
}
