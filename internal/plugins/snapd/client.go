// Package snapd talks to the snapd REST API over its unix socket.
package snapd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// Snap is the subset of snapd's snap description the search needs
type Snap struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Version string `json:"version"`
	Website string `json:"website"`
	Status  string `json:"status"`
}

// Installed reports whether snapd lists the snap as installed locally
func (s Snap) Installed() bool {
	return s.Status == "installed" || s.Status == "active"
}

// SystemInfo is returned by the probe endpoint
type SystemInfo struct {
	Series  string `json:"series"`
	Version string `json:"version"`
}

// Error is an error response from snapd
type Error struct {
	StatusCode int
	Kind       string `json:"kind"`
	Message    string `json:"message"`
}

func (e *Error) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("snapd: %s (%s, status %d)", e.Message, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("snapd: %s (status %d)", e.Message, e.StatusCode)
}

// IsNotFound reports whether err is snapd saying a search matched nothing
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && (e.Kind == "snap-not-found" || e.StatusCode == http.StatusNotFound)
}

type response struct {
	Type       string          `json:"type"`
	StatusCode int             `json:"status-code"`
	Result     json.RawMessage `json:"result"`
}

// ClientOptions configures a Client. BaseURL overrides the socket, for tests.
type ClientOptions struct {
	Socket  string
	BaseURL string
	Rate    float64
	Timeout time.Duration
}

// Client is a rate limited snapd API client
type Client struct {
	http    *http.Client
	base    string
	limiter *rate.Limiter
}

// NewClient creates a client for opts.Socket, or opts.BaseURL when set
func NewClient(opts ClientOptions) *Client {
	if opts.Rate <= 0 {
		opts.Rate = 5
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	c := &Client{
		http:    &http.Client{Timeout: opts.Timeout},
		base:    opts.BaseURL,
		limiter: rate.NewLimiter(rate.Limit(opts.Rate), 1),
	}
	if c.base == "" {
		socket := opts.Socket
		var dialer net.Dialer
		c.http.Transport = &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				return dialer.DialContext(ctx, "unix", socket)
			},
		}
		c.base = "http://localhost"
	}
	return c
}

// SystemInfo queries /v2/system-info
func (c *Client) SystemInfo(ctx context.Context) (SystemInfo, error) {
	var info SystemInfo
	err := c.get(ctx, "/v2/system-info", nil, &info)
	return info, err
}

// Find searches the store
func (c *Client) Find(ctx context.Context, query string) ([]Snap, error) {
	var snaps []Snap
	err := c.get(ctx, "/v2/find", url.Values{"q": {query}}, &snaps)
	if IsNotFound(err) {
		return nil, nil
	}
	return snaps, err
}

// Snaps lists the installed snaps
func (c *Client) Snaps(ctx context.Context) ([]Snap, error) {
	var snaps []Snap
	err := c.get(ctx, "/v2/snaps", nil, &snaps)
	return snaps, err
}

func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build snapd request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("failed to reach snapd: %w", err)
	}
	defer resp.Body.Close()

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode snapd response: %w", err)
	}

	if body.Type == "error" || resp.StatusCode >= 400 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(body.Result, apiErr)
		return apiErr
	}

	if err := json.Unmarshal(body.Result, result); err != nil {
		return fmt.Errorf("failed to decode snapd result: %w", err)
	}
	return nil
}
