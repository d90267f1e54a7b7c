package models

// Record is one team's standing, split the way the standings feed reports
// it. Immutable once constructed.
type Record struct {
	Abbr   string
	Streak string

	Win  int
	Loss int
	Tie  int

	Conference     string
	ConferenceRank int
	ConferenceWin  int
	ConferenceLoss int
	ConferenceTie  int

	Division     string
	DivisionRank int
	DivisionWin  int
	DivisionLoss int
	DivisionTie  int

	HomeWin  int
	HomeLoss int
	HomeTie  int

	RoadWin  int
	RoadLoss int
	RoadTie  int
}
