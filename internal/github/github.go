// Package github fetches contribution calendars from the public
// contributions API.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/verso-dev/folio/internal/gitmap"
)

// DefaultAPIBase is the public contributions API endpoint.
const DefaultAPIBase = "https://github-contributions-api.jogruber.de/v4"

const requestTimeout = 30 * time.Second

// Client queries a contributions API instance.
type Client struct {
	base string
	http *http.Client
}

// NewClient builds a client for the given API base URL. An empty base falls
// back to the public instance.
func NewClient(base string) *Client {
	if base == "" {
		base = DefaultAPIBase
	}
	return &Client{
		base: base,
		http: &http.Client{Timeout: requestTimeout},
	}
}

type contributionsResponse struct {
	Total         map[string]int `json:"total"`
	Contributions []struct {
		Date  string `json:"date"`
		Count int    `json:"count"`
		Level int    `json:"level"`
	} `json:"contributions"`
}

// Contributions fetches the full contribution history for a user. Records are
// untrusted input: levels are clamped into [0,4] and entries without a valid
// calendar date are dropped.
func (c *Client) Contributions(ctx context.Context, user string) ([]gitmap.ContributionDay, error) {
	if user == "" {
		return nil, fmt.Errorf("user must not be empty")
	}
	endpoint := c.base + "/" + url.PathEscape(user)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contributions: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort body close.
			_ = cerr
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("contributions API returned status %d", resp.StatusCode)
	}

	var payload contributionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode contributions: %w", err)
	}

	days := make([]gitmap.ContributionDay, 0, len(payload.Contributions))
	for _, c := range payload.Contributions {
		if _, err := time.Parse(gitmap.DateFormat, c.Date); err != nil {
			continue
		}
		level := c.Level
		if level < 0 {
			level = 0
		}
		if level > 4 {
			level = 4
		}
		count := c.Count
		if count < 0 {
			count = 0
		}
		days = append(days, gitmap.ContributionDay{Date: c.Date, Count: count, Level: level})
	}
	return days, nil
}
