package sidebar

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridironmods/sideline/pkg/models"
)

func kickoff(month time.Month, day, hour int) time.Time {
	return time.Date(2024, month, day, hour, 0, 0, 0, time.UTC)
}

func TestGameOutcome(t *testing.T) {
	tests := []struct {
		name string
		game models.Game
		want string
	}{
		{
			name: "pregame shows kickoff time",
			game: models.Game{Phase: models.PhasePregame, Time: kickoff(time.September, 8, 13)},
			want: "1:00",
		},
		{
			name: "home win",
			game: models.Game{Phase: models.PhaseFinal, AtHome: true, HomeScore: 24, VisitorScore: 10},
			want: "W 24-10",
		},
		{
			name: "road loss",
			game: models.Game{Phase: models.PhaseFinal, AtHome: false, HomeScore: 24, VisitorScore: 10},
			want: "L 10-24",
		},
		{
			name: "tie",
			game: models.Game{Phase: models.PhaseFinal, AtHome: true, HomeScore: 21, VisitorScore: 21},
			want: "T 21-21",
		},
		{
			name: "in progress shows running score",
			game: models.Game{Phase: models.PhaseInProgress, AtHome: true, HomeScore: 7, VisitorScore: 3},
			want: "W 7-3",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GameOutcome(tt.game))
		})
	}
}

func TestBuildSeasonTables(t *testing.T) {
	games := []models.Game{
		{
			Time:       kickoff(time.August, 10, 13),
			SeasonType: models.SeasonPre,
			Phase:      models.PhasePregame,
			Opponent:   models.Team{Abbr: "PIT"},
			AtHome:     true,
		},
		{
			Time:       kickoff(time.September, 8, 13),
			SeasonType: models.SeasonRegular,
			Phase:      models.PhaseFinal,
			Opponent:   models.Team{Abbr: "CIN"},
			AtHome:     true,
			HomeScore:  24, VisitorScore: 3,
		},
		{
			Time:       kickoff(time.September, 15, 13),
			SeasonType: models.SeasonRegular,
			Phase:      models.PhasePregame,
			Opponent:   models.Team{Abbr: "BAL"},
			AtHome:     false,
		},
	}

	tables := BuildSeasonTables(games)

	assert.Equal(t, "|08/10|vs|[](/r/steelers) PIT|1:00|", tables.Preseason)
	assert.Equal(t, strings.Join([]string{
		"|09/08|vs|**[Bengals](/r/bengals)**|W 24-3|",
		"|09/15|@ |**[Ravens](/r/ravens)**|1:00|",
	}, "\n"), tables.Regular)
}

func TestBuildSeasonTablesByeWeek(t *testing.T) {
	games := []models.Game{
		{Time: kickoff(time.September, 8, 13), SeasonType: models.SeasonRegular, Phase: models.PhasePregame, Opponent: models.Team{Abbr: "CIN"}, AtHome: true},
		{Time: kickoff(time.September, 29, 13), SeasonType: models.SeasonRegular, Phase: models.PhasePregame, Opponent: models.Team{Abbr: "BAL"}, AtHome: true},
	}

	tables := BuildSeasonTables(games)
	lines := strings.Split(tables.Regular, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "|BYE|||", lines[1])
}

func TestBuildStandingsRows(t *testing.T) {
	records := []models.Record{
		{
			Abbr: "CLE",
			Win:  11, Loss: 5,
			HomeWin: 6, HomeLoss: 2,
			RoadWin: 5, RoadLoss: 3,
			DivisionWin: 4, DivisionLoss: 2,
			Streak: "3W",
		},
		{
			Abbr: "PIT",
			Win:  8, Loss: 7, Tie: 1,
			Streak: "1L",
		},
	}

	rows := strings.Split(BuildStandingsRows(records), "\n")
	require.Len(t, rows, 2)
	assert.Equal(t, "|[](/r/browns)(CLE)|11-5|6-2|5-3|4-2|3W|", rows[0])
	assert.Equal(t, "|[](/r/steelers)(PIT)|8-7-1|0-0|0-0|0-0|1L|", rows[1])
}

const legacyDescription = `Welcome to the community.

#AFCN Standings
||**W-L**|**Home**|**Away**|**Div**|**Streak**|
|:---:|:--:|:--:|:--:|:--:|:--:|
|[](/r/browns)(CLE)|0-0|0-0|0-0|0-0|--|
----
Rules live on the wiki.`

func TestSpliceSection(t *testing.T) {
	row := "|[](/r/browns)(CLE)|11-5|6-2|5-3|4-2|3W|"
	got := spliceSection(legacyDescription, standingsSection, row)

	assert.Contains(t, got, row)
	assert.NotContains(t, got, "|0-0|0-0|0-0|0-0|--|")
	assert.Contains(t, got, "Welcome to the community.")
	assert.Contains(t, got, "Rules live on the wiki.")

	// Splicing the same content again changes nothing.
	assert.Equal(t, got, spliceSection(got, standingsSection, row))
}

func TestSpliceSectionNoMarker(t *testing.T) {
	doc := "no tables here"
	assert.Equal(t, doc, spliceSection(doc, standingsSection, "|row|"))
}
