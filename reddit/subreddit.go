package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"commentscraper/log"
	"commentscraper/models"
)

type aboutResponse struct {
	Kind string           `json:"kind"`
	Data models.Subreddit `json:"data"`
}

type forbiddenResponse struct {
	Reason string `json:"reason"`
	Error  int    `json:"error"`
}

// Subreddit checks that the named subreddit exists. A quarantined
// subreddit is opted into and looked up again.
func (c *Client) Subreddit(ctx context.Context, name string) (models.Subreddit, error) {
	sub, quarantined, err := c.about(ctx, name)
	if err != nil {
		return models.Subreddit{}, err
	}
	if !quarantined {
		return sub, nil
	}

	log.Info.Printf("r/%s is quarantined, opting in", name)
	if err := c.optIn(ctx, name); err != nil {
		return models.Subreddit{}, err
	}

	sub, quarantined, err = c.about(ctx, name)
	if err != nil {
		return models.Subreddit{}, err
	}
	if quarantined {
		return models.Subreddit{}, fmt.Errorf("r/%s is still quarantined after opting in", name)
	}
	return sub, nil
}

func (c *Client) about(ctx context.Context, name string) (models.Subreddit, bool, error) {
	resp, err := c.do(ctx, http.MethodGet, "about", "/r/"+url.PathEscape(name)+"/about", nil)
	if err != nil {
		return models.Subreddit{}, false, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Subreddit{}, false, fmt.Errorf("error reading response body: %w", err)
	}

	switch {
	case resp.StatusCode >= 300 && resp.StatusCode < 400, resp.StatusCode == http.StatusNotFound:
		return models.Subreddit{}, false, fmt.Errorf("%w: %q", ErrSubredditNotFound, name)
	case resp.StatusCode == http.StatusForbidden:
		var forbidden forbiddenResponse
		if err := json.Unmarshal(body, &forbidden); err == nil && forbidden.Reason == "quarantined" {
			return models.Subreddit{}, true, nil
		}
		return models.Subreddit{}, false, fmt.Errorf("access to r/%s is forbidden", name)
	case resp.StatusCode != http.StatusOK:
		return models.Subreddit{}, false, fmt.Errorf("unexpected status code when reading r/%s: %d", name, resp.StatusCode)
	}

	var about aboutResponse
	if err := json.Unmarshal(body, &about); err != nil {
		return models.Subreddit{}, false, fmt.Errorf("error decoding about response: %w", err)
	}
	// a search listing instead of a t5 means reddit guessed at the name
	if about.Kind != "t5" {
		return models.Subreddit{}, false, fmt.Errorf("%w: %q", ErrSubredditNotFound, name)
	}

	return about.Data, false, nil
}

func (c *Client) optIn(ctx context.Context, name string) error {
	params := url.Values{}
	params.Set("sr_name", name)
	params.Set("accept", "true")

	resp, err := c.do(ctx, http.MethodPost, "quarantine_optin", "/api/quarantine_optin", params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("quarantine opt-in for r/%s failed: status %d", name, resp.StatusCode)
	}
	return nil
}
