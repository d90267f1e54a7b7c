// Package gamethread generates the game-day discussion threads: a live
// chat thread plus the main thread with standings, weather, broadcast and
// stat-leader tables.
package gamethread

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gridironmods/sideline/internal/notify"
	"github.com/gridironmods/sideline/internal/platform"
	"github.com/gridironmods/sideline/internal/providers/nfl"
	"github.com/gridironmods/sideline/internal/providers/weather"
	"github.com/gridironmods/sideline/pkg/models"
)

const standingsHeader = `
|Team|Record|Home|Road|Division|Conference|Streak|
|:-----:|:-----:|:------:|:------:|:------:|:------:|:------:|
`

// Leader stats shown in the matchup table, in display order.
var leaderStats = []struct {
	Label string
	Stat  string
}{
	{"Passing", "passing.yards"},
	{"Rushing", "rushing.yards"},
	{"Receiving", "receiving.yards"},
	{"Tackles", "defensive.combineTackles"},
	{"Interceptions", "defensive.interceptions"},
	{"Sacks", "defensive.sacks"},
}

// Generator builds and posts game-day threads.
type Generator struct {
	Platform *platform.Client
	Stats    *nfl.Client
	Weather  *weather.Client
	Log      *logrus.Logger

	Community string
	TeamAbbr  string
}

// Post builds both threads for the next game, submits them, mod-removes
// them for manual release, and reports the links through the notifier.
func (g *Generator) Post(ctx context.Context, send notify.Notifier) error {
	games, err := g.Stats.Scores(ctx, g.TeamAbbr)
	if err != nil {
		return fmt.Errorf("fetching schedule: %w", err)
	}
	nextGame := models.NextGame(games, 0, time.Now().UTC())
	if nextGame == nil {
		return fmt.Errorf("no upcoming game on the schedule")
	}

	opponent := nextGame.Opponent
	teamName := models.TeamName(g.TeamAbbr)

	liveTitle := fmt.Sprintf("[LIVE GAME THREAD] %s vs %s", teamName, opponent.Name)
	liveID, err := g.Platform.Submit(ctx, g.Community, platform.SubmitOptions{
		Title:          liveTitle,
		Resubmit:       true,
		DiscussionType: "CHAT",
	})
	if err != nil {
		return fmt.Errorf("submitting live thread: %w", err)
	}

	body := g.buildBody(ctx, *nextGame, liveID)
	title := fmt.Sprintf("[GAME DAY THREAD] %s vs %s", teamName, opponent.Name)
	threadID, err := g.Platform.Submit(ctx, g.Community, platform.SubmitOptions{Title: title, Text: body})
	if err != nil {
		return fmt.Errorf("submitting game thread: %w", err)
	}

	// Both threads start removed so moderators release them at the right
	// time.
	for _, id := range []string{threadID, liveID} {
		if err := g.Platform.Remove(ctx, "t3_"+id); err != nil {
			g.Log.WithError(err).WithField("thread", id).Warn("could not remove freshly posted thread")
		}
	}

	return send.Notify(ctx, fmt.Sprintf("Game Thread - https://redd.it/%s\nLive Thread - https://redd.it/%s", threadID, liveID))
}

func (g *Generator) buildBody(ctx context.Context, game models.Game, liveID string) string {
	opponentAbbr := game.Opponent.Abbr
	homeAbbr := opponentAbbr
	if game.AtHome {
		homeAbbr = g.TeamAbbr
	}

	standings := g.standingsTable(ctx, opponentAbbr)
	forecast := g.weatherLine(ctx, homeAbbr, game.Time)
	leaders := g.leadersTable(ctx, opponentAbbr, game.Season)

	teamCommunity := models.TeamCommunity(g.TeamAbbr)
	opponentCommunity := models.TeamCommunity(opponentAbbr)

	return fmt.Sprintf(`|[](/%s)|
|:-----:|
|**BEHAVE YOURSELVES AND REPORT ANYTHING THAT BREAKS THE RULES.**|
|**FANS OF OTHER TEAMS PLEASE SELECT A FLAIR**|
|[LIVE GAME THREAD](https://redd.it/%s)|

----

%s

----

||Game Info|
|:-----:|:-----:|
|**Location**|%s|
|**When**|%s|
|**Weather**|%s|
|**TV Network**|%s|
|**TV Coverage**|[Map](https://506sports.com/nfl.php?yr=%s&wk=%s)|

----

||%s [](%s) Leaders|%s [](%s) Leaders|
|:-----:|:-----:|:------:|
%s`,
		strings.ToLower(g.TeamAbbr),
		liveID,
		standings,
		game.VenueName,
		game.Time.Format("Monday 3:04 PM"),
		forecast,
		strings.Join(game.Networks, ", "),
		game.Season,
		game.Week,
		game.Season, opponentCommunity,
		game.Season, teamCommunity,
		leaders,
	)
}

func (g *Generator) standingsTable(ctx context.Context, opponentAbbr string) string {
	records, err := g.Stats.Standings(ctx, []string{g.TeamAbbr, opponentAbbr}, "")
	if err != nil {
		g.Log.WithError(err).Warn("standings unavailable for game thread")
		return ""
	}

	rows := make([]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, fmt.Sprintf("|%s|%s|%s|%s|%s|%s|%s|",
			r.Abbr,
			formatSplit(r.Win, r.Loss, r.Tie),
			formatSplit(r.HomeWin, r.HomeLoss, r.HomeTie),
			formatSplit(r.RoadWin, r.RoadLoss, r.RoadTie),
			formatSplit(r.DivisionWin, r.DivisionLoss, r.DivisionTie),
			formatSplit(r.ConferenceWin, r.ConferenceLoss, r.ConferenceTie),
			r.Streak,
		))
	}
	return standingsHeader + strings.Join(rows, "\n")
}

func (g *Generator) weatherLine(ctx context.Context, homeAbbr string, gameTime time.Time) string {
	loc := models.TeamLocation(homeAbbr)
	if loc == (models.Location{}) {
		return ""
	}
	w, err := g.Weather.Forecast(ctx, loc, gameTime)
	if err != nil {
		g.Log.WithError(err).Warn("weather unavailable for game thread")
		return ""
	}
	if w == nil {
		return ""
	}
	return fmt.Sprintf("%d° - %s - Wind %s %s", w.Temperature, w.Forecast, w.WindDirection, w.WindSpeed)
}

func (g *Generator) leadersTable(ctx context.Context, opponentAbbr, season string) string {
	rows := make([]string, 0, len(leaderStats))
	for _, ls := range leaderStats {
		opponentLeader := g.statLeader(ctx, opponentAbbr, ls.Stat)
		teamLeader := g.statLeader(ctx, g.TeamAbbr, ls.Stat)
		rows = append(rows, fmt.Sprintf("|**%s**|%s|%s|", ls.Label, opponentLeader, teamLeader))
	}
	return strings.Join(rows, "\n")
}

func (g *Generator) statLeader(ctx context.Context, team, stat string) string {
	leader, err := g.Stats.StatLeader(ctx, team, stat)
	if err != nil {
		g.Log.WithError(err).WithField("stat", stat).Warn("stat leader unavailable")
		return "??"
	}
	return leader
}

func formatSplit(win, loss, tie int) string {
	if tie > 0 {
		return fmt.Sprintf("%d-%d-%d", win, loss, tie)
	}
	return fmt.Sprintf("%d-%d", win, loss)
}
