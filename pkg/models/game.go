package models

import (
	"sort"
	"time"
)

// Game phases as reported by the statistics feed.
const (
	PhasePregame    = "PREGAME"
	PhaseInProgress = "IN_PROGRESS"
	PhaseFinal      = "FINAL"
)

// Season types as reported by the statistics feed.
const (
	SeasonPre     = "PRE"
	SeasonRegular = "REG"
)

// Game is one scheduled contest from the statistics feed. Values are
// immutable once constructed.
type Game struct {
	ID           string
	DetailID     string
	Time         time.Time
	Season       string
	SeasonType   string
	Week         string
	AtHome       bool
	Opponent     Team
	HomeScore    int
	VisitorScore int
	Phase        string
	VenueName    string
	VenueCity    string
	VenueState   string
	Networks     []string
}

// TimeUntil returns the time remaining until kickoff, negative for games
// already started.
func (g Game) TimeUntil(now time.Time) time.Duration {
	return g.Time.Sub(now)
}

// NextGame returns the first game whose kickoff is further than delay from
// now, or nil when no such game exists. A negative delay keeps a game
// "next" for a window after kickoff.
func NextGame(games []Game, delay time.Duration, now time.Time) *Game {
	sorted := make([]Game, len(games))
	copy(sorted, games)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	for _, g := range sorted {
		if g.TimeUntil(now) > delay {
			game := g
			return &game
		}
	}
	return nil
}

// LastGame returns the most recent game whose kickoff is within delay of
// now, or nil when no game has been played yet.
func LastGame(games []Game, delay time.Duration, now time.Time) *Game {
	sorted := make([]Game, len(games))
	copy(sorted, games)
	sort.Slice(sorted, func(i, j int) bool { return sorted[j].Time.Before(sorted[i].Time) })

	for _, g := range sorted {
		if g.TimeUntil(now) < delay {
			game := g
			return &game
		}
	}
	return nil
}
