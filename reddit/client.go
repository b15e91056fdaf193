package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"commentscraper/metrics"
)

// ErrSubredditNotFound is returned when a subreddit does not exist or redirects elsewhere.
var ErrSubredditNotFound = errors.New("subreddit does not exist")

type Config struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	AuthURL      string
	APIURL       string
	Timeout      time.Duration
}

// Cache stores raw API payloads between runs.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	cache      Cache

	mu      sync.Mutex
	token   TokenResponse
	expires time.Time
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type Option func(*Client)

func WithCache(c Cache) Option {
	return func(cl *Client) { cl.cache = c }
}

func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.AuthURL == "" {
		cfg.AuthURL = "https://www.reddit.com/api/v1/access_token"
	}
	if cfg.APIURL == "" {
		cfg.APIURL = "https://oauth.reddit.com"
	}
	cfg.APIURL = strings.TrimSuffix(cfg.APIURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			// redirects on /about mean the subreddit does not exist
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// accessToken returns a cached application-only token, fetching a new one
// shortly before the old one expires.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.AccessToken != "" && time.Now().Before(c.expires) {
		return c.token.AccessToken, nil
	}

	data := url.Values{}
	data.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("error creating token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error requesting token: %w", err)
	}
	defer resp.Body.Close()
	metrics.APIRequests.WithLabelValues("access_token", strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("authentication failed: unexpected status code: %d", resp.StatusCode)
	}

	var token TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("error decoding token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", errors.New("authentication failed: empty access token")
	}

	lifetime := time.Duration(token.ExpiresIn) * time.Second
	if lifetime <= 0 {
		lifetime = time.Hour
	}
	c.token = token
	c.expires = time.Now().Add(lifetime - time.Minute)

	return token.AccessToken, nil
}

// do sends an authenticated request against the API and returns the
// response with its body unread.
func (c *Client) do(ctx context.Context, method, endpoint, path string, params url.Values) (*http.Response, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("raw_json", "1")

	target := c.cfg.APIURL + path
	var body io.Reader
	if method == http.MethodGet {
		target += "?" + params.Encode()
	} else {
		body = strings.NewReader(params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("couldnt make request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	metrics.APIRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	return resp, nil
}

// getJSON performs a GET and returns the body of a 200 response.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, params url.Values) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, endpoint, path, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code when reading %s: %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	return body, nil
}
