// Package sidebar holds the mutators for the community's sidebar: the
// schedule/standings tables and the sidebar image. Both write to the
// legacy stylesheet surface and the new-style widget surface, and both
// only write when the desired value differs from the current one.
package sidebar

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gridironmods/sideline/internal/platform"
	"github.com/gridironmods/sideline/pkg/models"
)

const spacer = "&nbsp;&nbsp;&nbsp;"

var seasonTableHeader = fmt.Sprintf(`
%s**Date**%s||**Opponent**|%s**Time**%s
:--:|:--:|:--|:--:
`, spacer, spacer, spacer, spacer)

const standingsTableHeader = `
||**W-L**|**Home**|**Away**|**Div**|**Streak**|
|:---:|:--:|:--:|:--:|:--:|:--:|
`

// Section markers in the legacy sidebar description. Everything between a
// marker and the next horizontal rule is regenerated.
var (
	preseasonSection = regexp.MustCompile(`(?si)(\n#PRESEASON OPPONENTS\s*\nDATE\|OPPONENT\|TIME\|\s*\n\|:---:\|:--:\|:---:\|\n)(.*?)(\n-{3,})`)
	regularSection   = regexp.MustCompile(`(?si)(\n#\d\d\d\d OPPONENTS\s*\nDATE\|\|OPPONENT\|TIME\|\s*\n\|:---:\|:--:\|:--\|:---:\|\n)(.*?)(\n-{3,})`)
	standingsSection = regexp.MustCompile(`(?si)(\n#AFCN Standings\s*\n\|\|\*\*W-L\*\*\|\*\*Home\*\*\|\*\*Away\*\*\|\*\*Div\*\*\|\*\*Streak\*\*\|\s*\n\|:---:\|:--:\|:--:\|:--:\|:--:\|:--:\|\n)(.*?)(\n-{3,})`)
)

// Widget short names on the new-style sidebar.
var (
	preseasonWidget = regexp.MustCompile(`^Preseason Opponents$`)
	regularWidget   = regexp.MustCompile(`^\d{4} Opponents$`)
	standingsWidget = regexp.MustCompile(`^AFCN Standings$`)
)

// A gap longer than this between consecutive games marks the bye week.
const byeGap = 11 * 24 * time.Hour

// SeasonTables is the schedule markdown split by season type.
type SeasonTables struct {
	Preseason string
	Regular   string
}

// GameOutcome renders one game's cell: the kickoff time before the game,
// the W/L/T score once underway.
func GameOutcome(game models.Game) string {
	if game.Phase == models.PhasePregame {
		return game.Time.Format("3:04")
	}

	us, them := game.VisitorScore, game.HomeScore
	if game.AtHome {
		us, them = game.HomeScore, game.VisitorScore
	}
	switch {
	case us > them:
		return fmt.Sprintf("W %d-%d", us, them)
	case us < them:
		return fmt.Sprintf("L %d-%d", us, them)
	default:
		return fmt.Sprintf("T %d-%d", us, them)
	}
}

// BuildSeasonTables renders the schedule rows for both season types,
// inserting the bye-week row where the schedule gap shows it.
func BuildSeasonTables(games []models.Game) SeasonTables {
	var preseason, regular []string
	var lastGameTime time.Time

	for _, game := range games {
		date := game.Time.Format("01/02")
		at := "vs"
		if !game.AtHome {
			at = "@ "
		}
		abbr := game.Opponent.Abbr
		community := models.TeamCommunity(abbr)
		outcome := GameOutcome(game)

		if !lastGameTime.IsZero() && game.Time.Sub(lastGameTime) > byeGap && game.SeasonType == models.SeasonRegular {
			regular = append(regular, "|BYE|||")
		}
		lastGameTime = game.Time

		switch game.SeasonType {
		case models.SeasonPre:
			preseason = append(preseason, fmt.Sprintf("|%s|%s|[](%s) %s|%s|", date, at, community, abbr, outcome))
		case models.SeasonRegular:
			name := models.TeamName(abbr)
			regular = append(regular, fmt.Sprintf("|%s|%s|**[%s](%s)**|%s|", date, at, name, community, outcome))
		}
	}

	return SeasonTables{
		Preseason: strings.Join(preseason, "\n"),
		Regular:   strings.Join(regular, "\n"),
	}
}

// BuildStandingsRows renders the division standings rows.
func BuildStandingsRows(records []models.Record) string {
	rows := make([]string, 0, len(records))
	for _, r := range records {
		community := models.TeamCommunity(r.Abbr)
		overall := formatSplit(r.Win, r.Loss, r.Tie)
		home := formatSplit(r.HomeWin, r.HomeLoss, r.HomeTie)
		away := formatSplit(r.RoadWin, r.RoadLoss, r.RoadTie)
		div := formatSplit(r.DivisionWin, r.DivisionLoss, r.DivisionTie)
		rows = append(rows, fmt.Sprintf("|[](%s)(%s)|%s|%s|%s|%s|%s|", community, r.Abbr, overall, home, away, div, r.Streak))
	}
	return strings.Join(rows, "\n")
}

func formatSplit(win, loss, tie int) string {
	if tie > 0 {
		return fmt.Sprintf("%d-%d-%d", win, loss, tie)
	}
	return fmt.Sprintf("%d-%d", win, loss)
}

// UpdateScore rewrites the schedule and standings tables on both sidebar
// surfaces.
func UpdateScore(
	ctx context.Context,
	client *platform.Client,
	log *logrus.Logger,
	community string,
	games []models.Game,
	records []models.Record,
) error {
	seasons := BuildSeasonTables(games)
	standings := BuildStandingsRows(records)

	if err := updateLegacyScore(ctx, client, community, seasons, standings); err != nil {
		return err
	}
	return updateWidgetScore(ctx, client, log, community, seasons, standings)
}

func updateLegacyScore(ctx context.Context, client *platform.Client, community string, seasons SeasonTables, standings string) error {
	settings, err := client.Settings(ctx, community)
	if err != nil {
		return err
	}

	desc := settings.Description
	newDesc := spliceSection(desc, standingsSection, standings)
	newDesc = spliceSection(newDesc, preseasonSection, seasons.Preseason)
	newDesc = spliceSection(newDesc, regularSection, seasons.Regular)

	if newDesc == desc {
		return nil
	}
	return client.UpdateDescription(ctx, community, newDesc)
}

// spliceSection replaces the body of the first section the pattern
// matches, leaving the marker and the trailing rule untouched.
func spliceSection(doc string, section *regexp.Regexp, content string) string {
	loc := section.FindStringSubmatchIndex(doc)
	if loc == nil {
		return doc
	}
	// group 2 is the section body
	return doc[:loc[4]] + content + doc[loc[5]:]
}

func updateWidgetScore(ctx context.Context, client *platform.Client, log *logrus.Logger, community string, seasons SeasonTables, standings string) error {
	widgets, err := client.SidebarWidgets(ctx, community)
	if err != nil {
		return err
	}

	want := []struct {
		name *regexp.Regexp
		text string
	}{
		{preseasonWidget, seasonTableHeader + seasons.Preseason},
		{regularWidget, seasonTableHeader + seasons.Regular},
		{standingsWidget, standingsTableHeader + standings},
	}

	for _, widget := range widgets {
		for _, w := range want {
			if !w.name.MatchString(widget.ShortName) {
				continue
			}
			if widget.Text == w.text {
				continue
			}
			if err := client.UpdateWidgetText(ctx, community, widget, w.text); err != nil {
				return err
			}
			log.WithField("widget", widget.ShortName).Info("updated sidebar widget")
		}
	}
	return nil
}
