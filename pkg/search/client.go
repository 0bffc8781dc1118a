package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Searcher returns direct image URLs for a query.
type Searcher interface {
	// Search returns at most limit URLs in upstream order. An empty result is
	// reported as a nil slice and a nil error.
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// StatusError reports a non-2xx response from the search API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search api returned %d: %s", e.StatusCode, e.Body)
}

// Client is a Searcher backed by the Pinterest search HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for the API rooted at baseURL.
// A zero timeout leaves requests bounded only by their context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Endpoint builds the request URL for a query.
func (c *Client) Endpoint(query string, limit int) string {
	return fmt.Sprintf("%s/api/pinterest?query=%s&limits=%s",
		c.baseURL, url.QueryEscape(query), strconv.Itoa(limit))
}

// Search calls the API once and decodes its URL list.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint(query, limit), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: snippet}
	}

	return decodeURLs(body)
}

// decodeURLs accepts an empty body, JSON null or a JSON array of strings.
func decodeURLs(body []byte) ([]string, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, nil
	}

	var raw []string
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	urls := make([]string, 0, len(raw))
	for _, u := range raw {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return nil, nil
	}
	return urls, nil
}
