package votes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridironmods/sideline/internal/config"
	"github.com/gridironmods/sideline/internal/cssutil"
	"github.com/gridironmods/sideline/internal/platform"
	"github.com/gridironmods/sideline/pkg/models"
)

type fixture struct {
	client *platform.Client
	log    *logrus.Logger

	mu         sync.Mutex
	savedCSS   []string
	uploads    int
	stylesheet string
	iconTime   time.Time
	srv        *httptest.Server
}

func newFixture(t *testing.T, stylesheet string) *fixture {
	t.Helper()
	f := &fixture{stylesheet: stylesheet, iconTime: time.Now()}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
	})
	mux.HandleFunc("/r/Browns/about/stylesheet", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"stylesheet": f.stylesheet}})
	})
	mux.HandleFunc("/r/Browns/api/subreddit_stylesheet", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		f.mu.Lock()
		f.savedCSS = append(f.savedCSS, r.PostForm.Get("stylesheet_contents"))
		f.mu.Unlock()
		fmt.Fprint(w, `{"json":{"errors":[]}}`)
	})
	mux.HandleFunc("/api/v1/structured_styles/Browns", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprintf(w, `{"data":{"style":{"postDownvoteIconActive":"%s/icons/down.png","postDownvoteIconInactive":"%s/icons/down-bw.png"}}}`, f.srv.URL, f.srv.URL)
			return
		}
		fmt.Fprint(w, `{}`)
	})
	mux.HandleFunc("/icons/", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		w.Header().Set("Last-Modified", f.iconTime.UTC().Format(http.TimeFormat))
	})
	mux.HandleFunc("/r/Browns/api/upload_sr_img", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		f.uploads++
		f.mu.Unlock()
		fmt.Fprint(w, `{"json":{"errors":[],"data":{"img_src":"https://img.example/icon.png"}}}`)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)

	f.log = logrus.New()
	f.log.SetLevel(logrus.PanicLevel)

	env := config.Env{
		PlatformBaseURL:  f.srv.URL,
		PlatformTokenURL: f.srv.URL + "/token",
		UserAgent:        "test",
		HTTPTimeout:      5 * time.Second,
	}
	f.client = platform.New(env, f.log)
	return f
}

func (f *fixture) saved() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.savedCSS...)
}

func (f *fixture) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploads
}

// desiredCSS renders the arrow rules exactly as the rewriter would.
func desiredCSS(offset int) string {
	rules := []cssutil.Rule{
		{Selector: ".arrow.down", Declarations: []cssutil.Declaration{
			{Property: "background-position", Value: fmt.Sprintf("0 %dpx", offset)},
			{Property: "background-image", Value: "url(%%teamsmallfade%%)"},
		}},
		{Selector: ".arrow.downmod", Declarations: []cssutil.Declaration{
			{Property: "background-position", Value: fmt.Sprintf("0 %dpx", offset)},
			{Property: "background-image", Value: "url(%%teamsmall%%)"},
		}},
	}
	return cssutil.Serialize(rules)
}

func futureGame(now time.Time, abbr string) models.Game {
	return models.Game{Time: now.Add(48 * time.Hour), Opponent: models.Team{Abbr: abbr}}
}

func TestUpdateNoUpcomingGame(t *testing.T) {
	f := newFixture(t, desiredCSS(models.TeamSpriteOffset("PIT")))
	now := time.Now().UTC()
	games := []models.Game{{Time: now.Add(-60 * 24 * time.Hour), Opponent: models.Team{Abbr: "CIN"}}}

	err := Update(context.Background(), f.client, f.log, config.Config{}, "Browns", "assets", games, now)
	require.NoError(t, err)
	assert.Empty(t, f.saved())
}

func TestUpdateRewritesLegacyIcons(t *testing.T) {
	f := newFixture(t, desiredCSS(models.TeamSpriteOffset("CIN")))
	now := time.Now().UTC()
	games := []models.Game{futureGame(now, "PIT")}

	err := Update(context.Background(), f.client, f.log, config.Config{DownvotesDelay: -24 * time.Hour}, "Browns", "assets", games, now)
	require.NoError(t, err)

	saved := f.saved()
	require.Len(t, saved, 1)
	assert.Contains(t, saved[0], fmt.Sprintf("0 %dpx", models.TeamSpriteOffset("PIT")))
	assert.Contains(t, saved[0], "url(%%teamsmallfade%%)")
	assert.Contains(t, saved[0], "url(%%teamsmall%%)")
}

func TestUpdateIsIdempotent(t *testing.T) {
	f := newFixture(t, desiredCSS(models.TeamSpriteOffset("PIT")))
	now := time.Now().UTC()
	games := []models.Game{futureGame(now, "PIT")}

	err := Update(context.Background(), f.client, f.log, config.Config{DownvotesDelay: -24 * time.Hour}, "Browns", "assets", games, now)
	require.NoError(t, err)
	assert.Empty(t, f.saved())
}

func TestUpdateSkipsStructuredWhenIconsFresh(t *testing.T) {
	f := newFixture(t, desiredCSS(models.TeamSpriteOffset("PIT")))
	now := time.Now().UTC()
	f.iconTime = now // newer than the last game below
	games := []models.Game{
		{Time: now.Add(-7 * 24 * time.Hour), Opponent: models.Team{Abbr: "CIN"}},
		futureGame(now, "PIT"),
	}

	err := Update(context.Background(), f.client, f.log, config.Config{DownvotesDelay: -24 * time.Hour}, "Browns", "assets", games, now)
	require.NoError(t, err)
	assert.Zero(t, f.uploadCount())
}
