package nfl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridironmods/sideline/pkg/models"
)

func newFeedServer(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	mux.HandleFunc("/v1/reroute", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.Header.Get("X-Domain-Id"))
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "feedtok"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return New(srv.URL, "test", 5*time.Second)
}

func TestScores(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/games", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer feedtok", r.Header.Get("Authorization"))
		assert.Contains(t, r.URL.Query().Get("s"), `"homeTeam.abbr":"CLE"`)
		fmt.Fprint(w, `{"data":[
			{
				"id":"g1","gameDetailId":"d1","gameTime":"2024-09-08T17:00:00.000Z",
				"week":{"season":2024,"seasonType":"REG","week":1},
				"homeTeam":{"abbr":"CLE","nickName":"Browns"},
				"visitorTeam":{"abbr":"CIN","nickName":"Bengals"},
				"homeTeamScore":{"pointsTotal":24},"visitorTeamScore":{"pointsTotal":3},
				"gameStatus":{"phase":"FINAL"},
				"venue":{"name":"Huntington Bank Field","location":{"city":"Cleveland","state":"OH"}},
				"networkChannels":{"data":["CBS"]}
			},
			{
				"id":"g2","gameDetailId":"d2","gameTime":"2024-09-15T17:00:00.000Z",
				"week":{"season":2024,"seasonType":"REG","week":2},
				"homeTeam":{"abbr":"PIT","nickName":"Steelers"},
				"visitorTeam":{"abbr":"CLE","nickName":"Browns"},
				"gameStatus":{"phase":"PREGAME"},
				"venue":{"name":"Acrisure Stadium","location":{"city":"Pittsburgh","state":"PA"}},
				"networkChannels":{"data":["FOX"]}
			}
		]}`)
	})

	client := newFeedServer(t, mux)
	games, err := client.Scores(context.Background(), "CLE")
	require.NoError(t, err)
	require.Len(t, games, 2)

	home := games[0]
	assert.True(t, home.AtHome)
	assert.Equal(t, "CIN", home.Opponent.Abbr)
	assert.Equal(t, "Bengals", home.Opponent.Name)
	assert.Equal(t, 24, home.HomeScore)
	assert.Equal(t, models.PhaseFinal, home.Phase)
	assert.Equal(t, "2024", home.Season)
	assert.Equal(t, []string{"CBS"}, home.Networks)
	assert.Equal(t, time.Date(2024, time.September, 8, 17, 0, 0, 0, time.UTC), home.Time)

	road := games[1]
	assert.False(t, road.AtHome)
	assert.Equal(t, "PIT", road.Opponent.Abbr)
}

func TestStandingsDivisionFilter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/shield/", func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("query"), "teamRecords")
		fmt.Fprint(w, `{"data":{"viewer":{"standings":{"edges":[{"node":{"teamRecords":[
			{"nickName":"Steelers","division":"AFC_NORTH","divisionRank":1,"overallWin":11,"overallLoss":5,"overallStreak":"2W"},
			{"nickName":"Browns","division":"AFC_NORTH","divisionRank":2,"overallWin":10,"overallLoss":6,"overallStreak":"1W"},
			{"nickName":"Bills","division":"AFC_EAST","divisionRank":1,"overallWin":13,"overallLoss":3,"overallStreak":"5W"}
		]}}]}}}}`)
	})

	client := newFeedServer(t, mux)
	records, err := client.Standings(context.Background(), nil, "AFC_NORTH")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "PIT", records[0].Abbr)
	assert.Equal(t, "CLE", records[1].Abbr)
	assert.Equal(t, 11, records[0].Win)
	assert.Equal(t, "2W", records[0].Streak)
}

func TestStandingsTeamFilter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/shield/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":{"viewer":{"standings":{"edges":[{"node":{"teamRecords":[
			{"nickName":"Steelers","division":"AFC_NORTH","divisionRank":1},
			{"nickName":"Browns","division":"AFC_NORTH","divisionRank":2},
			{"nickName":"Bills","division":"AFC_EAST","divisionRank":1}
		]}}]}}}}`)
	})

	client := newFeedServer(t, mux)
	records, err := client.Standings(context.Background(), []string{"cle", "BUF"}, "")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "CLE", records[0].Abbr)
	assert.Equal(t, "BUF", records[1].Abbr)
}

func TestStatLeader(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/playerTeamStats", func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("fs"), "passing{yards}")
		fmt.Fprint(w, `{"data":[
			{"person":{"firstName":"Joe","lastName":"Quarterback"},"passing":{"yards":3800}},
			{"person":{"firstName":"Backup","lastName":"Guy"},"passing":{"yards":120}}
		]}`)
	})

	client := newFeedServer(t, mux)
	leader, err := client.StatLeader(context.Background(), "CLE", "passing.yards")
	require.NoError(t, err)
	assert.Equal(t, "Joe Quarterback", leader)
}

func TestStatLeaderTie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/playerTeamStats", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":[
			{"person":{"firstName":"Edge","lastName":"One"},"defensive":{"sacks":9}},
			{"person":{"firstName":"Edge","lastName":"Two"},"defensive":{"sacks":9}},
			{"person":{"firstName":"Rotation","lastName":"Player"},"defensive":{"sacks":3}}
		]}`)
	})

	client := newFeedServer(t, mux)
	leader, err := client.StatLeader(context.Background(), "CLE", "defensive.sacks")
	require.NoError(t, err)
	assert.Equal(t, "Edge One, Edge Two", leader)
}

func TestStatLeaderEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/playerTeamStats", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	})

	client := newFeedServer(t, mux)
	leader, err := client.StatLeader(context.Background(), "CLE", "passing.yards")
	require.NoError(t, err)
	assert.Empty(t, leader)
}

func TestTokenReused(t *testing.T) {
	var tokenCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/games", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	})

	srvMux := http.NewServeMux()
	srvMux.Handle("/v1/games", mux)
	srvMux.HandleFunc("/v1/reroute", func(w http.ResponseWriter, _ *http.Request) {
		tokenCalls++
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "feedtok"})
	})
	srv := httptest.NewServer(srvMux)
	t.Cleanup(srv.Close)
	client := New(srv.URL, "test", 5*time.Second)

	_, err := client.Scores(context.Background(), "CLE")
	require.NoError(t, err)
	_, err = client.Scores(context.Background(), "CLE")
	require.NoError(t, err)
	assert.Equal(t, 1, tokenCalls)
}

func TestScoresRejectsBadTimestamp(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/games", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":[{"id":"g1","gameTime":"tomorrowish"}]}`)
	})

	client := newFeedServer(t, mux)
	_, err := client.Scores(context.Background(), "CLE")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "g1"))
}
