// Package platform is a thin client for the community platform's REST
// API: wiki pages, settings, stylesheets, widgets, submissions and
// moderation actions.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gridironmods/sideline/internal/config"
)

// Client handles community platform requests. Create one per operation or
// per entry point; the only state it accumulates is the bearer token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokenURL   string

	clientID     string
	clientSecret string
	username     string
	password     string
	userAgent    string

	log *logrus.Logger

	mu    sync.Mutex
	token string
}

// New creates a platform client from process configuration.
func New(env config.Env, log *logrus.Logger) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: env.HTTPTimeout},
		baseURL:      strings.TrimSuffix(env.PlatformBaseURL, "/"),
		tokenURL:     env.PlatformTokenURL,
		clientID:     env.PlatformClientID,
		clientSecret: env.PlatformClientSecret,
		username:     env.PlatformUsername,
		password:     env.PlatformPassword,
		userAgent:    env.UserAgent,
		log:          log,
	}
}

// WikiPage returns the markdown body of one wiki page.
func (c *Client) WikiPage(ctx context.Context, community, page string) (string, error) {
	var resp wikiResponse
	if err := c.get(ctx, fmt.Sprintf("/r/%s/wiki/%s", community, page), nil, &resp); err != nil {
		return "", fmt.Errorf("fetching wiki page %s: %w", page, err)
	}
	return resp.Data.ContentMD, nil
}

// Settings returns the community's legacy settings.
func (c *Client) Settings(ctx context.Context, community string) (Settings, error) {
	var resp settingsResponse
	if err := c.get(ctx, fmt.Sprintf("/r/%s/about/edit", community), nil, &resp); err != nil {
		return Settings{}, fmt.Errorf("fetching settings: %w", err)
	}
	return Settings{Description: resp.Data.Description, LinkType: resp.Data.LinkType}, nil
}

// UpdateDescription rewrites the legacy sidebar description.
func (c *Client) UpdateDescription(ctx context.Context, community, description string) error {
	form := url.Values{"description": {description}, "api_type": {"json"}}
	if err := c.postForm(ctx, fmt.Sprintf("/r/%s/api/site_admin", community), form, nil); err != nil {
		return fmt.Errorf("updating description: %w", err)
	}
	return nil
}

// SetLinkType restricts which submission kinds the community accepts.
func (c *Client) SetLinkType(ctx context.Context, community, linkType string) error {
	form := url.Values{"link_type": {linkType}, "api_type": {"json"}}
	if err := c.postForm(ctx, fmt.Sprintf("/r/%s/api/site_admin", community), form, nil); err != nil {
		return fmt.Errorf("setting link type: %w", err)
	}
	return nil
}

// Stylesheet returns the community's legacy stylesheet text.
func (c *Client) Stylesheet(ctx context.Context, community string) (string, error) {
	var resp stylesheetResponse
	if err := c.get(ctx, fmt.Sprintf("/r/%s/about/stylesheet", community), nil, &resp); err != nil {
		return "", fmt.Errorf("fetching stylesheet: %w", err)
	}
	return resp.Data.Stylesheet, nil
}

// UpdateStylesheet replaces the community's legacy stylesheet text.
func (c *Client) UpdateStylesheet(ctx context.Context, community, css string) error {
	form := url.Values{
		"op":                  {"save"},
		"stylesheet_contents": {css},
		"api_type":            {"json"},
	}
	if err := c.postForm(ctx, fmt.Sprintf("/r/%s/api/subreddit_stylesheet", community), form, nil); err != nil {
		return fmt.Errorf("updating stylesheet: %w", err)
	}
	return nil
}

// UploadStyleAsset uploads an image for use in the stylesheet under the
// given token name and returns its hosted URL.
func (c *Client) UploadStyleAsset(ctx context.Context, community, name, filePath string) (string, error) {
	var resp jsonEnvelope
	fields := map[string]string{"name": name, "upload_type": "img", "img_type": "png"}
	err := c.postFile(ctx, fmt.Sprintf("/r/%s/api/upload_sr_img", community), fields, filePath, &resp)
	if err != nil {
		return "", fmt.Errorf("uploading style asset %s: %w", name, err)
	}
	return resp.JSON.Data.ImgSrc, nil
}

// StructuredStyles returns the new-style UI style document.
func (c *Client) StructuredStyles(ctx context.Context, community string) (StructuredStyles, error) {
	var resp structuredStylesResponse
	if err := c.get(ctx, "/api/v1/structured_styles/"+community, nil, &resp); err != nil {
		return StructuredStyles{}, fmt.Errorf("fetching structured styles: %w", err)
	}
	return StructuredStyles{
		PostDownvoteIconActive:   resp.Data.Style.PostDownvoteIconActive,
		PostDownvoteIconInactive: resp.Data.Style.PostDownvoteIconInactive,
	}, nil
}

// UpdateStructuredStyles patches fields of the new-style UI style document.
func (c *Client) UpdateStructuredStyles(ctx context.Context, community string, values map[string]string) error {
	form := url.Values{}
	for k, v := range values {
		form.Set(k, v)
	}
	if err := c.do(ctx, http.MethodPatch, "/api/v1/structured_styles/"+community, form, nil); err != nil {
		return fmt.Errorf("updating structured styles: %w", err)
	}
	return nil
}

// SidebarWidgets returns the community's sidebar widgets in display order.
func (c *Client) SidebarWidgets(ctx context.Context, community string) ([]Widget, error) {
	var resp widgetsResponse
	if err := c.get(ctx, fmt.Sprintf("/r/%s/api/widgets", community), nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching widgets: %w", err)
	}

	widgets := make([]Widget, 0, len(resp.Layout.Sidebar.Order))
	for _, id := range resp.Layout.Sidebar.Order {
		item, ok := resp.Items[id]
		if !ok {
			continue
		}
		widgets = append(widgets, Widget{ID: item.ID, Kind: item.Kind, ShortName: item.ShortName, Text: item.Text})
	}
	return widgets, nil
}

// UpdateWidgetText rewrites a text widget's body.
func (c *Client) UpdateWidgetText(ctx context.Context, community string, widget Widget, text string) error {
	body := map[string]any{"kind": widget.Kind, "shortName": widget.ShortName, "text": text}
	path := fmt.Sprintf("/r/%s/api/widget/%s", community, widget.ID)
	if err := c.putJSON(ctx, path, body, nil); err != nil {
		return fmt.Errorf("updating widget %q: %w", widget.ShortName, err)
	}
	return nil
}

// UpdateImageWidget replaces an image widget's images.
func (c *Client) UpdateImageWidget(ctx context.Context, community string, widget Widget, images []WidgetImage) error {
	body := map[string]any{"kind": widget.Kind, "shortName": widget.ShortName, "data": images}
	path := fmt.Sprintf("/r/%s/api/widget/%s", community, widget.ID)
	if err := c.putJSON(ctx, path, body, nil); err != nil {
		return fmt.Errorf("updating image widget %q: %w", widget.ShortName, err)
	}
	return nil
}

// UploadWidgetImage uploads an image for use in widgets and returns its
// hosted URL.
func (c *Client) UploadWidgetImage(ctx context.Context, community, filePath string) (string, error) {
	var resp jsonEnvelope
	err := c.postFile(ctx, fmt.Sprintf("/r/%s/api/widget_image_upload", community), nil, filePath, &resp)
	if err != nil {
		return "", fmt.Errorf("uploading widget image: %w", err)
	}
	return resp.JSON.Data.URL, nil
}

// Submit creates a new post and returns its id.
func (c *Client) Submit(ctx context.Context, community string, opts SubmitOptions) (string, error) {
	form := url.Values{
		"sr":          {community},
		"kind":        {"self"},
		"title":       {opts.Title},
		"text":        {opts.Text},
		"resubmit":    {strconv.FormatBool(opts.Resubmit)},
		"sendreplies": {strconv.FormatBool(opts.SendReplies)},
		"api_type":    {"json"},
	}
	if opts.DiscussionType != "" {
		form.Set("discussion_type", opts.DiscussionType)
	}
	var resp jsonEnvelope
	if err := c.postForm(ctx, "/api/submit", form, &resp); err != nil {
		return "", fmt.Errorf("submitting post: %w", err)
	}
	return resp.JSON.Data.ID, nil
}

// Comment replies to a thing and returns the comment's fullname.
func (c *Client) Comment(ctx context.Context, parentFullname, text string) (string, error) {
	form := url.Values{"thing_id": {parentFullname}, "text": {text}, "api_type": {"json"}}
	var resp jsonEnvelope
	if err := c.postForm(ctx, "/api/comment", form, &resp); err != nil {
		return "", fmt.Errorf("commenting on %s: %w", parentFullname, err)
	}
	return resp.JSON.Data.Name, nil
}

// Remove mod-removes a thing (post or comment).
func (c *Client) Remove(ctx context.Context, fullname string) error {
	form := url.Values{"id": {fullname}, "spam": {"false"}}
	if err := c.postForm(ctx, "/api/remove", form, nil); err != nil {
		return fmt.Errorf("removing %s: %w", fullname, err)
	}
	return nil
}

// FlairLink sets a post's flair text.
func (c *Client) FlairLink(ctx context.Context, community, linkFullname, text string) error {
	form := url.Values{"link": {linkFullname}, "text": {text}, "css_class": {text}, "api_type": {"json"}}
	if err := c.postForm(ctx, fmt.Sprintf("/r/%s/api/flair", community), form, nil); err != nil {
		return fmt.Errorf("setting flair on %s: %w", linkFullname, err)
	}
	return nil
}

// Report files a moderator report against a thing.
func (c *Client) Report(ctx context.Context, fullname, reason string) error {
	form := url.Values{"thing_id": {fullname}, "reason": {reason}, "api_type": {"json"}}
	if err := c.postForm(ctx, "/api/report", form, nil); err != nil {
		return fmt.Errorf("reporting %s: %w", fullname, err)
	}
	return nil
}

// BanUser bans a user from the community.
func (c *Client) BanUser(ctx context.Context, community, username string, opts BanOptions) error {
	form := url.Values{
		"name":        {username},
		"type":        {"banned"},
		"ban_reason":  {opts.Reason},
		"ban_message": {opts.Message},
		"note":        {opts.Note},
		"api_type":    {"json"},
	}
	if opts.Days > 0 {
		form.Set("duration", strconv.Itoa(opts.Days))
	}
	if err := c.postForm(ctx, fmt.Sprintf("/r/%s/api/friend", community), form, nil); err != nil {
		return fmt.Errorf("banning %s: %w", username, err)
	}
	return nil
}

// Rules returns the community's rules in display order.
func (c *Client) Rules(ctx context.Context, community string) ([]Rule, error) {
	var resp rulesResponse
	if err := c.get(ctx, fmt.Sprintf("/r/%s/about/rules", community), nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching rules: %w", err)
	}
	rules := make([]Rule, 0, len(resp.Rules))
	for _, r := range resp.Rules {
		rules = append(rules, Rule{ShortName: r.ShortName})
	}
	return rules, nil
}

// IsModerator reports whether username moderates the community.
func (c *Client) IsModerator(ctx context.Context, community, username string) (bool, error) {
	var resp moderatorsResponse
	if err := c.get(ctx, fmt.Sprintf("/r/%s/about/moderators", community), nil, &resp); err != nil {
		return false, fmt.Errorf("fetching moderators: %w", err)
	}
	for _, child := range resp.Data.Children {
		if strings.EqualFold(child.Name, username) {
			return true, nil
		}
	}
	return false, nil
}

// NewSubmissions returns the community's newest submissions, newest first.
func (c *Client) NewSubmissions(ctx context.Context, community string, limit int) ([]Submission, error) {
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	var resp listingResponse
	if err := c.get(ctx, fmt.Sprintf("/r/%s/new", community), query, &resp); err != nil {
		return nil, fmt.Errorf("fetching new submissions: %w", err)
	}
	subs := make([]Submission, 0, len(resp.Data.Children))
	for _, child := range resp.Data.Children {
		d := child.Data
		subs = append(subs, Submission{
			ID:         d.ID,
			Fullname:   d.Name,
			Title:      d.Title,
			URL:        d.URL,
			ApprovedBy: d.ApprovedBy,
			CreatedUTC: d.CreatedUTC,
		})
	}
	return subs, nil
}

// URLLastModified returns the Last-Modified time of a hosted asset, used
// to judge how stale the current vote icons are.
func (c *Client) URLLastModified(ctx context.Context, assetURL string) (time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, assetURL, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("checking %s: %w", assetURL, err)
	}
	defer resp.Body.Close()

	lm := resp.Header.Get("Last-Modified")
	if lm == "" {
		return time.Time{}, fmt.Errorf("no Last-Modified header on %s", assetURL)
	}
	t, err := http.ParseTime(lm)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing Last-Modified %q: %w", lm, err)
	}
	return t.UTC(), nil
}

// request plumbing

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if query != nil {
		path += "?" + query.Encode()
	}
	return c.request(ctx, http.MethodGet, path, "", nil, out)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	return c.request(ctx, http.MethodPost, path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), out)
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	return c.request(ctx, method, path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), out)
}

func (c *Client) putJSON(ctx context.Context, path string, body any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding body: %w", err)
	}
	return c.request(ctx, http.MethodPut, path, "application/json", bytes.NewReader(encoded), out)
}

func (c *Client) postFile(ctx context.Context, path string, fields map[string]string, filePath string, out any) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filePath, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return fmt.Errorf("writing field %s: %w", k, err)
		}
	}
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copying file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing multipart writer: %w", err)
	}

	return c.request(ctx, http.MethodPost, path, writer.FormDataContentType(), &buf, out)
}

func (c *Client) request(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("platform API error: status=%d, body=%s", resp.StatusCode, string(raw))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if apiErr := decodeAPIError(raw); apiErr != nil {
		return apiErr
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// decodeAPIError extracts a structured error from a 2xx envelope, which is
// how the platform reports validation failures like invalid ban targets.
func decodeAPIError(raw []byte) *APIError {
	var envelope jsonEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil
	}
	if len(envelope.JSON.Errors) == 0 {
		return nil
	}
	first := envelope.JSON.Errors[0]
	apiErr := &APIError{}
	if len(first) > 0 {
		apiErr.Code, _ = first[0].(string)
	}
	if len(first) > 1 {
		apiErr.Message, _ = first[1].(string)
	}
	return apiErr
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}

	form := url.Values{
		"grant_type": {"password"},
		"username":   {c.username},
		"password":   {c.password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token endpoint error: status=%d, body=%s", resp.StatusCode, string(raw))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned no access token")
	}
	c.token = tok.AccessToken
	return c.token, nil
}
