package social

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatusURL(t *testing.T) {
	tests := []struct {
		name string
		link string
		want *Status
	}{
		{
			name: "canonical status link",
			link: "https://twitter.com/reporter/status/1234567890",
			want: &Status{Author: "reporter", ID: "1234567890"},
		},
		{
			name: "mobile link",
			link: "https://mobile.twitter.com/reporter/status/42",
			want: &Status{Author: "reporter", ID: "42"},
		},
		{
			name: "legacy statuses path",
			link: "http://twitter.com/#!/reporter/statuses/42",
			want: &Status{Author: "reporter", ID: "42"},
		},
		{
			name: "link with query string",
			link: "https://twitter.com/reporter/status/42?s=20",
			want: &Status{Author: "reporter", ID: "42"},
		},
		{
			name: "profile link",
			link: "https://twitter.com/reporter",
			want: nil,
		},
		{
			name: "unrelated site",
			link: "https://example.com/reporter/status/42",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseStatusURL(tt.link))
		})
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "entities unescaped",
			in:   "Browns &amp; Bengals",
			want: "Browns & Bengals",
		},
		{
			name: "whitespace collapsed",
			in:   "line one\nline  two",
			want: "line one line two",
		},
		{
			name: "shortlink tail stripped",
			in:   "Kickoff moved to 4:25 https://t.co/abc123",
			want: "Kickoff moved to 4:25",
		},
		{
			name: "truncation ellipsis stripped with tail",
			in:   "Long report about the roster… https://t.co/abc123",
			want: "Long report about the roster",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

func TestStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://twitter.com/reporter/status/42", r.URL.Query().Get("url"))
		assert.Equal(t, "1", r.URL.Query().Get("omit_script"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"html":"<blockquote><p>Roster move:\nBrowns sign a kicker https://t.co/xyz</p>&mdash; Reporter</blockquote>"}`))
	}))
	t.Cleanup(srv.Close)

	client := New(srv.URL, "test", 5*time.Second)
	got, err := client.StatusText(context.Background(), "https://twitter.com/reporter/status/42")
	require.NoError(t, err)
	assert.Equal(t, "Roster move: Browns sign a kicker", got)
}

func TestStatusTextUnresolvable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	client := New(srv.URL, "test", 5*time.Second)
	got, err := client.StatusText(context.Background(), "https://twitter.com/reporter/status/42")
	require.NoError(t, err)
	assert.Empty(t, got)
}
