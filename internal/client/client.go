// Package client implements the typed HTTP client for the trip-planner
// backend. It binds a base API URL once at construction and exposes one
// method per consumed endpoint:
//
//   - GetOperation: GET /operations/{id}, polled by the operation tracker.
//   - SendEvents:   POST /events/track, used by the telemetry batcher.
//   - Settings:     GET /settings, fetched once and memoized for the
//     process lifetime.
//
// Responses are decoded into loosely-typed wire documents (see wire.go);
// normalization into domain types happens at the consuming service's
// boundary, never here.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tripatlas/go-trip-client/internal/domain"
)

const (
	sessionHeader       = "X-Session-ID"
	defaultRadiusKM     = 25.0
	maxErrorBodyPreview = 512
)

// Client is a backend API client bound to a single base URL.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger zerolog.Logger

	settingsMu sync.Mutex
	settings   *Settings // memoized after first successful fetch
}

// Settings is the server-provided client configuration document.
type Settings struct {
	POISearchRadiusKM float64 `json:"poi_search_radius_km"`
}

// New returns a *Client bound to baseURL, using the given request timeout.
// Returns an error if baseURL cannot be parsed as an absolute URL.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	base, err := url.ParseRequestURI(baseURL)
	if err != nil {
		return nil, err
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, fmt.Errorf("URL is not absolute: %s", baseURL)
	}
	return &Client{
		base:   base,
		http:   &http.Client{Timeout: timeout},
		logger: log.With().Str("component", "api_client").Logger(),
	}, nil
}

// GetOperation fetches the current status document for a server-side job.
// The returned document is the raw wire shape; callers are expected to
// normalize it.
func (c *Client) GetOperation(ctx context.Context, id string) (*OperationDoc, error) {
	var doc OperationDoc
	if err := c.getJSON(ctx, "/operations/"+url.PathEscape(id), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// SendEvents delivers a batch of analytics events. The session identifier
// travels in the X-Session-ID header; the body is {"events": [...]}. The
// backend returns no body the batcher cares about, so only the status code
// is checked.
func (c *Client) SendEvents(ctx context.Context, sessionID string, events []domain.UserEvent) error {
	body, err := json.Marshal(struct {
		Events []domain.UserEvent `json:"events"`
	}{Events: events})
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/events/track"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(sessionHeader, sessionID)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("events/track: unexpected status %s", resp.Status)
	}
	return nil
}

// Settings returns the server-side client settings, fetching them at most
// once per process. A transient fetch failure yields built-in defaults and
// leaves the cache empty so the next call retries.
func (c *Client) Settings(ctx context.Context) Settings {
	c.settingsMu.Lock()
	defer c.settingsMu.Unlock()

	if c.settings != nil {
		return *c.settings
	}

	var s Settings
	if err := c.getJSON(ctx, "/settings", nil, &s); err != nil {
		c.logger.Warn().Err(err).Msg("settings fetch failed, using defaults")
		return Settings{POISearchRadiusKM: defaultRadiusKM}
	}
	if s.POISearchRadiusKM <= 0 {
		s.POISearchRadiusKM = defaultRadiusKM
	}
	c.settings = &s
	return s
}

// endpoint resolves a path against the bound base URL.
func (c *Client) endpoint(p string) string {
	u := *c.base
	u.Path = u.Path + p
	return u.String()
}

// getJSON issues a GET and decodes a JSON response into v.
func (c *Client) getJSON(ctx context.Context, p string, headers map[string]string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(p), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	for k, val := range headers {
		req.Header.Set(k, val)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyPreview))
		return fmt.Errorf("GET %s: status %s: %s", p, resp.Status, bytes.TrimSpace(preview))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// drainAndClose consumes any remaining body so the connection can be reused.
func drainAndClose(rc io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 1<<20))
	_ = rc.Close()
}
