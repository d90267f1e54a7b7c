// Package nfl is a read-only client for the league statistics feed:
// scores, standings and stat leaders keyed by team abbreviation.
package nfl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gridironmods/sideline/pkg/convert"
	"github.com/gridironmods/sideline/pkg/models"
)

var whitespace = regexp.MustCompile(`[\n\s]+`)

// Client handles statistics feed requests.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	season     int

	mu    sync.Mutex
	token string
}

// New creates a statistics feed client. The season defaults to the
// current calendar year.
func New(baseURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		userAgent:  userAgent,
		season:     time.Now().UTC().Year(),
	}
}

// Scores returns the team's scheduled and completed games for the season.
func (c *Client) Scores(ctx context.Context, team string) ([]models.Game, error) {
	selector := fmt.Sprintf(`{
	    "$query":{
	      "week.season": %d,
	      "$or":[
	        {"homeTeam.abbr":%q},
	        {"visitorTeam.abbr":%q}
	      ]
	    }
	  }`, c.season, team, team)
	fields := `{
	    id,
	    gameDetailId,
	    gameTime,
	    week{season,seasonType,week},
	    homeTeam{id,abbr,nickName},
	    visitorTeam{id,abbr,nickName},
	    homeTeamScore{pointsTotal},
	    visitorTeamScore{pointsTotal},
	    gameStatus{phase},
	    venue{name,location},
	    networkChannels
	  }`
	params := url.Values{"s": {compact(selector)}, "fs": {compact(fields)}}

	var resp gamesResponse
	if err := c.fetch(ctx, "/v1/games", params, &resp); err != nil {
		return nil, fmt.Errorf("fetching scores: %w", err)
	}

	games := make([]models.Game, 0, len(resp.Data))
	for _, g := range resp.Data {
		game, err := g.toModel(team)
		if err != nil {
			return nil, fmt.Errorf("parsing game %s: %w", g.ID, err)
		}
		games = append(games, game)
	}
	return games, nil
}

// Standings returns season records. With teams set, only those teams are
// returned; otherwise the division's records sorted by rank.
func (c *Client) Standings(ctx context.Context, teams []string, division string) ([]models.Record, error) {
	gql := fmt.Sprintf(`query{
	    viewer{
	      standings(
	        first:1,
	        orderBy:week__weekValue,
	        orderByDirection:DESC,
	        week_seasonValue:%d,
	        week_seasonType:REG,
	      ){
	        edges{
	          node{
	            teamRecords{
	              conference conferenceRank conferenceWin conferenceLoss conferenceTie
	              division divisionRank divisionWin divisionLoss divisionTie
	              nickName
	              overallWin overallLoss overallTie overallStreak
	              homeWin homeLoss homeTie
	              roadWin roadLoss roadTie
	            }
	          }
	        }
	      }
	    }
	  }`, c.season)
	params := url.Values{"variables": {"null"}, "query": {compact(gql)}}

	var resp standingsResponse
	if err := c.fetch(ctx, "/v3/shield/", params, &resp); err != nil {
		return nil, fmt.Errorf("fetching standings: %w", err)
	}

	var wire []teamRecord
	if edges := resp.Data.Viewer.Standings.Edges; len(edges) > 0 {
		wire = edges[0].Node.TeamRecords
	}

	records := make([]models.Record, 0, len(wire))
	for _, tr := range wire {
		records = append(records, tr.toModel())
	}

	if len(teams) > 0 {
		want := make(map[string]bool, len(teams))
		for _, t := range teams {
			want[strings.ToUpper(t)] = true
		}
		filtered := records[:0]
		for _, r := range records {
			if want[r.Abbr] {
				filtered = append(filtered, r)
			}
		}
		return filtered, nil
	}

	if division != "" {
		filtered := records[:0]
		for _, r := range records {
			if r.Division == division {
				filtered = append(filtered, r)
			}
		}
		records = filtered
		sort.Slice(records, func(i, j int) bool { return records[i].DivisionRank < records[j].DivisionRank })
	}
	return records, nil
}

// StatLeader returns the names of the players leading the team in a stat
// like "passing.yards", comma-joined when tied.
func (c *Client) StatLeader(ctx context.Context, team, stat string) (string, error) {
	statQuery := strings.Replace(stat, ".", "{", 1) + "}"
	selector := fmt.Sprintf(`{
	    "$query":{
	      "season":%d,
	      "seasonType":"REG",
	      "team.abbr":%q
	    },"$sort":{
	      %q:1
	    },
	    "$take":10,
	    "$skip":0
	  }`, c.season, team, stat)
	fields := fmt.Sprintf(`{
	    person{firstName,lastName},
	    %s,
	  }`, statQuery)
	params := url.Values{"s": {compact(selector)}, "fs": {compact(fields)}}

	var resp statsResponse
	if err := c.fetch(ctx, "/v1/playerTeamStats", params, &resp); err != nil {
		return "", fmt.Errorf("fetching stat leader %s: %w", stat, err)
	}
	if len(resp.Data) == 0 {
		return "", nil
	}

	top := statValue(stat, resp.Data[0])
	var names []string
	for _, player := range resp.Data {
		if v := statValue(stat, player); v > 0 && v >= top {
			names = append(names, playerName(player))
		}
	}
	return strings.Join(names, ", "), nil
}

// statValue digs the numeric stat out of a player entry; "passing.yards"
// reads entry["passing"]["yards"].
func statValue(stat string, player map[string]json.RawMessage) int {
	pieces := strings.SplitN(stat, ".", 2)
	if len(pieces) < 2 {
		return 0
	}
	var group map[string]json.Number
	if err := json.Unmarshal(player[pieces[0]], &group); err != nil {
		return 0
	}
	n, err := group[pieces[1]].Float64()
	if err != nil {
		return 0
	}
	return int(n)
}

func playerName(player map[string]json.RawMessage) string {
	var person struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := json.Unmarshal(player["person"], &person); err != nil {
		return ""
	}
	return person.FirstName + " " + person.LastName
}

// compact collapses a query template's indentation so the encoded
// parameter stays readable in logs.
func compact(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// fetch attaches the bearer token and decodes the JSON response.
func (c *Client) fetch(ctx context.Context, path string, params url.Values, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	endpoint := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("statistics feed error: status=%d, body=%s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/reroute", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Domain-Id", "100")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching feed token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("feed token error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	c.token = tok.AccessToken
	return c.token, nil
}

// wire shapes

type gamesResponse struct {
	Data []gameEntry `json:"data"`
}

type gameEntry struct {
	ID           string `json:"id"`
	GameDetailID string `json:"gameDetailId"`
	GameTime     string `json:"gameTime"`
	Week         struct {
		Season     int    `json:"season"`
		SeasonType string `json:"seasonType"`
		Week       int    `json:"week"`
	} `json:"week"`
	HomeTeam     teamEntry `json:"homeTeam"`
	VisitorTeam  teamEntry `json:"visitorTeam"`
	HomeScore    scoreEntry `json:"homeTeamScore"`
	VisitorScore scoreEntry `json:"visitorTeamScore"`
	GameStatus   struct {
		Phase string `json:"phase"`
	} `json:"gameStatus"`
	Venue struct {
		Name     string `json:"name"`
		Location struct {
			City  string `json:"city"`
			State string `json:"state"`
		} `json:"location"`
	} `json:"venue"`
	NetworkChannels struct {
		Data []string `json:"data"`
	} `json:"networkChannels"`
}

type teamEntry struct {
	Abbr     string `json:"abbr"`
	NickName string `json:"nickName"`
}

type scoreEntry struct {
	PointsTotal int `json:"pointsTotal"`
}

func (g gameEntry) toModel(team string) (models.Game, error) {
	gameTime, err := convert.ParseFeedTime(g.GameTime)
	if err != nil {
		return models.Game{}, err
	}

	atHome := false
	opponent := models.Team{Abbr: g.HomeTeam.Abbr, Name: g.HomeTeam.NickName}
	if !strings.EqualFold(g.VisitorTeam.Abbr, team) {
		atHome = true
		opponent = models.Team{Abbr: g.VisitorTeam.Abbr, Name: g.VisitorTeam.NickName}
	}

	return models.Game{
		ID:           g.ID,
		DetailID:     g.GameDetailID,
		Time:         gameTime,
		Season:       strconv.Itoa(g.Week.Season),
		SeasonType:   g.Week.SeasonType,
		Week:         strconv.Itoa(g.Week.Week),
		AtHome:       atHome,
		Opponent:     opponent,
		HomeScore:    g.HomeScore.PointsTotal,
		VisitorScore: g.VisitorScore.PointsTotal,
		Phase:        g.GameStatus.Phase,
		VenueName:    g.Venue.Name,
		VenueCity:    g.Venue.Location.City,
		VenueState:   g.Venue.Location.State,
		Networks:     g.NetworkChannels.Data,
	}, nil
}

type standingsResponse struct {
	Data struct {
		Viewer struct {
			Standings struct {
				Edges []struct {
					Node struct {
						TeamRecords []teamRecord `json:"teamRecords"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"standings"`
		} `json:"viewer"`
	} `json:"data"`
}

type teamRecord struct {
	NickName       string `json:"nickName"`
	OverallWin     int    `json:"overallWin"`
	OverallLoss    int    `json:"overallLoss"`
	OverallTie     int    `json:"overallTie"`
	OverallStreak  string `json:"overallStreak"`
	Conference     string `json:"conference"`
	ConferenceRank int    `json:"conferenceRank"`
	ConferenceWin  int    `json:"conferenceWin"`
	ConferenceLoss int    `json:"conferenceLoss"`
	ConferenceTie  int    `json:"conferenceTie"`
	Division       string `json:"division"`
	DivisionRank   int    `json:"divisionRank"`
	DivisionWin    int    `json:"divisionWin"`
	DivisionLoss   int    `json:"divisionLoss"`
	DivisionTie    int    `json:"divisionTie"`
	HomeWin        int    `json:"homeWin"`
	HomeLoss       int    `json:"homeLoss"`
	HomeTie        int    `json:"homeTie"`
	RoadWin        int    `json:"roadWin"`
	RoadLoss       int    `json:"roadLoss"`
	RoadTie        int    `json:"roadTie"`
}

func (tr teamRecord) toModel() models.Record {
	return models.Record{
		Abbr:           models.TeamAbbr(tr.NickName),
		Win:            tr.OverallWin,
		Loss:           tr.OverallLoss,
		Tie:            tr.OverallTie,
		Streak:         tr.OverallStreak,
		Conference:     tr.Conference,
		ConferenceRank: tr.ConferenceRank,
		ConferenceWin:  tr.ConferenceWin,
		ConferenceLoss: tr.ConferenceLoss,
		ConferenceTie:  tr.ConferenceTie,
		Division:       tr.Division,
		DivisionRank:   tr.DivisionRank,
		DivisionWin:    tr.DivisionWin,
		DivisionLoss:   tr.DivisionLoss,
		DivisionTie:    tr.DivisionTie,
		HomeWin:        tr.HomeWin,
		HomeLoss:       tr.HomeLoss,
		HomeTie:        tr.HomeTie,
		RoadWin:        tr.RoadWin,
		RoadLoss:       tr.RoadLoss,
		RoadTie:        tr.RoadTie,
	}
}

type statsResponse struct {
	Data []map[string]json.RawMessage `json:"data"`
}
