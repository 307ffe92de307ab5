package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goJourney"
)

const defaultTimeout = 30 * time.Second

// maxResponseBody caps how much of a response is read; step documents and
// error bodies are both small.
const maxResponseBody = 1 << 20

// Config holds the connection settings for a [Client].
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// BaseURL is the server root, e.g. "https://am.example.com/auth".
	BaseURL string

	// Realm scopes every request. Empty means the top-level realm.
	Realm string

	// Timeout bounds each request when HTTPClient is nil.
	Timeout time.Duration

	// HTTPClient overrides the default client. A cookie jar is installed
	// on it when it has none, since the server session rides on cookies.
	HTTPClient *http.Client

	// UserAgent is sent on every request when non-empty.
	UserAgent string
}

// Client is an HTTP implementation of [goJourney.Transport].
type Client struct {
	cfg  Config
	base *url.URL
	http *http.Client
}

// NewClient validates cfg and returns a ready Client.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute: %q", cfg.BaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		hc.Jar = jar
	}

	return &Client{cfg: cfg, base: base, http: hc}, nil
}

// Start opens a journey for the given intent and returns the raw first step.
func (c *Client) Start(ctx context.Context, intent goJourney.Intent) (json.RawMessage, error) {
	endpoint := c.endpoint("authenticate")
	q := endpoint.Query()
	q.Set("intent", intent.String())
	endpoint.RawQuery = q.Encode()

	return c.do(ctx, "start", http.MethodPost, endpoint, nil)
}

// Submit posts a completed step payload and returns the raw next step.
func (c *Client) Submit(ctx context.Context, payload []byte) (json.RawMessage, error) {
	return c.do(ctx, "submit", http.MethodPost, c.endpoint("authenticate"), payload)
}

// Token exchanges the current session for an access token. Returns ""
// without error when the server has no session for us.
func (c *Client) Token(ctx context.Context) (string, error) {
	raw, err := c.do(ctx, "getToken", http.MethodPost, c.endpoint("token"), nil)
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", nil
	}

	var body struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", &goJourney.TransportError{Op: "getToken", Err: err}
	}
	return body.AccessToken, nil
}

// UserInfo fetches the authenticated user's profile.
func (c *Client) UserInfo(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, "getUserInfo", http.MethodGet, c.endpoint("userinfo"), nil)
}

// Logout tears down the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, "logout", http.MethodPost, c.endpoint("logout"), nil)
	return err
}

func (c *Client) endpoint(leaf string) *url.URL {
	u := *c.base
	if c.cfg.Realm != "" {
		u.Path = strings.TrimRight(u.Path, "/") + "/realms/" + url.PathEscape(c.cfg.Realm) + "/" + leaf
	} else {
		u.Path = strings.TrimRight(u.Path, "/") + "/" + leaf
	}
	return &u
}

func (c *Client) do(ctx context.Context, op, method string, u *url.URL, body []byte) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, &goJourney.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &goJourney.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &goJourney.TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &goJourney.TransportError{
			Op:      op,
			Message: serverMessage(data),
			Err:     fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	return json.RawMessage(data), nil
}

// serverMessage pulls the user-facing text out of an error body.
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}
