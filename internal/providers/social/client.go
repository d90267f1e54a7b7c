// Package social resolves a social-media status URL to the text of the
// status, via the platform's embed endpoint.
package social

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	statusURLPattern = regexp.MustCompile(`^https?://(?:mobile\.)?twitter\.com/(?:#!/)?(\w+)/status(?:es)?/(\d+)`)
	shortlinkTail    = regexp.MustCompile(`\s*…?\s*https://t\.co/\S*$`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
)

// Status identifies one social-media status.
type Status struct {
	ID     string
	Author string
}

// ParseStatusURL extracts the status id and author from a link, or nil
// when the link does not point at a status.
func ParseStatusURL(link string) *Status {
	match := statusURLPattern.FindStringSubmatch(link)
	if match == nil {
		return nil
	}
	return &Status{Author: match[1], ID: match[2]}
}

// Client resolves statuses through the embed endpoint.
type Client struct {
	httpClient *http.Client
	embedURL   string
	userAgent  string
}

// New creates a social feed client.
func New(embedURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		embedURL:   embedURL,
		userAgent:  userAgent,
	}
}

type embedResponse struct {
	HTML string `json:"html"`
}

// StatusText returns the text of the status behind statusURL, or "" when
// the status cannot be resolved. An empty result is "nothing to check",
// not an error.
func (c *Client) StatusText(ctx context.Context, statusURL string) (string, error) {
	query := url.Values{"url": {statusURL}, "omit_script": {"1"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.embedURL+"?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching embed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", nil
	}

	var embed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embed); err != nil {
		return "", fmt.Errorf("decoding embed response: %w", err)
	}
	if embed.HTML == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(embed.HTML))
	if err != nil {
		return "", fmt.Errorf("parsing embed html: %w", err)
	}

	text := doc.Find("blockquote p").First().Text()
	if text == "" {
		text = doc.Find("blockquote").First().Text()
	}
	return CleanText(text), nil
}

// CleanText normalizes status text: HTML entities unescaped, newlines
// collapsed, trailing shortlink stripped.
func CleanText(text string) string {
	text = html.UnescapeString(text)
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = shortlinkTail.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
