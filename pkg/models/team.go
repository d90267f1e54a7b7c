package models

import (
	"path/filepath"
	"strings"
)

// Team identifies an NFL franchise. The abbreviation is the key into the
// static reference tables below.
type Team struct {
	Abbr string
	Name string
}

// Location is a stadium's coordinates for weather lookups.
type Location struct {
	Lat float64
	Lon float64
}

var abbrToCommunity = map[string]string{
	"KC":  "/r/kansascitychiefs",
	"OAK": "/r/oaklandraiders",
	"LV":  "/r/raiders",
	"DEN": "/r/denverbroncos",
	"LAC": "/r/chargers",
	"IND": "/r/colts",
	"TEN": "/r/tennesseetitans",
	"HOU": "/r/texans",
	"JAX": "/r/jaguars",
	"CIN": "/r/bengals",
	"PIT": "/r/steelers",
	"BAL": "/r/ravens",
	"CLE": "/r/browns",
	"MIA": "/r/miamidolphins",
	"NYJ": "/r/nyjets",
	"BUF": "/r/buffalobills",
	"NE":  "/r/patriots",
	"DAL": "/r/cowboys",
	"PHI": "/r/eagles",
	"NYG": "/r/nygiants",
	"WAS": "/r/washingtonnfl",
	"CHI": "/r/chibears",
	"GB":  "/r/greenbaypackers",
	"DET": "/r/detroitlions",
	"MIN": "/r/minnesotavikings",
	"ATL": "/r/falcons",
	"NO":  "/r/saints",
	"CAR": "/r/panthers",
	"TB":  "/r/buccaneers",
	"ARI": "/r/azcardinals",
	"SF":  "/r/49ers",
	"LA":  "/r/losangelesrams",
	"SEA": "/r/seahawks",
}

var abbrToName = map[string]string{
	"KC":  "Chiefs",
	"OAK": "Raiders",
	"LV":  "Raiders",
	"DEN": "Broncos",
	"LAC": "Chargers",
	"IND": "Colts",
	"TEN": "Titans",
	"HOU": "Texans",
	"JAX": "Jaguars",
	"CIN": "Bengals",
	"PIT": "Steelers",
	"BAL": "Ravens",
	"CLE": "Browns",
	"MIA": "Dolphins",
	"NYJ": "Jets",
	"BUF": "Bills",
	"NE":  "Patriots",
	"DAL": "Cowboys",
	"PHI": "Eagles",
	"NYG": "Giants",
	"WAS": "Washington",
	"CHI": "Bears",
	"GB":  "Packers",
	"DET": "Lions",
	"MIN": "Vikings",
	"ATL": "Falcons",
	"NO":  "Saints",
	"CAR": "Panthers",
	"TB":  "Buccaneers",
	"ARI": "Cardinals",
	"SF":  "49ers",
	"LA":  "Rams",
	"SEA": "Seahawks",
}

// Reverse mapping for standings responses, which carry nicknames only.
var nicknameToAbbr = map[string]string{}

func init() {
	for abbr, name := range abbrToName {
		if abbr == "OAK" {
			continue // LV superseded OAK, keep LV as the canonical reverse entry
		}
		nicknameToAbbr[name] = abbr
	}
	// Historical aliases still seen in feed data.
	nicknameToAbbr["Football Team"] = "WAS"
	nicknameToAbbr["Redskins"] = "WAS"
}

// abbrToSpriteOffset is the vertical offset, in pixels, of each team's logo
// within the community stylesheet's sprite sheet.
var abbrToSpriteOffset = map[string]int{
	"KC":  -225,
	"LV":  -360,
	"DEN": -135,
	"LAC": -375,
	"IND": -195,
	"TEN": -450,
	"HOU": -180,
	"JAX": -210,
	"CIN": -90,
	"PIT": -390,
	"BAL": -30,
	"CLE": -105,
	"MIA": -240,
	"NYJ": -345,
	"BUF": -45,
	"NE":  -270,
	"DAL": -120,
	"PHI": -500,
	"NYG": -330,
	"WAS": -465,
	"CHI": -75,
	"GB":  -165,
	"DET": -150,
	"MIN": -255,
	"ATL": -15,
	"NO":  -285,
	"CAR": -60,
	"TB":  -435,
	"ARI": 0,
	"SF":  -390,
	"LA":  -420,
	"SEA": -405,
}

var abbrToLocation = map[string]Location{
	"LV":  {36.0908159, -115.1831358},
	"DEN": {39.691540, -104.916910},
	"IND": {39.815140, -86.341640},
	"CIN": {39.096400, -84.515050},
	"PIT": {40.441181, -79.952553},
	"BAL": {39.308530, -76.564780},
	"CLE": {41.506160, -81.699580},
	"NYJ": {40.814430, -74.078728},
	"NE":  {42.088420, -71.269650},
	"TB":  {27.977830, -82.503390},
	"ARI": {39.308530, -76.564780},
	"SF":  {37.334790, -121.888140},
}

// TeamCommunity returns the community URL for an abbreviation.
func TeamCommunity(abbr string) string {
	return abbrToCommunity[normalize(abbr)]
}

// TeamName returns the nickname for an abbreviation.
func TeamName(abbr string) string {
	if name, ok := abbrToName[normalize(abbr)]; ok {
		return name
	}
	return abbr
}

// TeamAbbr returns the abbreviation for a nickname, or the nickname itself
// when it is not a known team.
func TeamAbbr(nickname string) string {
	if abbr, ok := nicknameToAbbr[nickname]; ok {
		return abbr
	}
	return nickname
}

// TeamSpriteOffset returns the sprite-sheet offset for an abbreviation.
func TeamSpriteOffset(abbr string) int {
	return abbrToSpriteOffset[normalize(abbr)]
}

// TeamLocation returns the stadium coordinates for an abbreviation. The
// zero Location means no coordinates are on record.
func TeamLocation(abbr string) Location {
	return abbrToLocation[normalize(abbr)]
}

// TeamIconPath returns the path to a team's small icon under assetsDir.
func TeamIconPath(assetsDir, abbr string) string {
	return filepath.Join(assetsDir, "small-teams", normalize(abbr)+".png")
}

// TeamIconBWPath returns the path to a team's greyscale small icon.
func TeamIconBWPath(assetsDir, abbr string) string {
	return filepath.Join(assetsDir, "small-bw-teams", normalize(abbr)+".png")
}

func normalize(abbr string) string {
	return strings.ToUpper(abbr)
}
