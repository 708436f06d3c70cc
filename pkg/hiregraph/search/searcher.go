// Package search provides a web search collaborator and its tool
// adapter for use inside workflow steps. The adapter is deliberately
// forgiving: search is a best-effort enrichment, so provider failures
// never propagate into the calling step.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Searcher performs a single query against some search backend and
// returns a human-readable summary of the results.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// SearcherFunc adapts a plain function to the Searcher interface.
type SearcherFunc func(ctx context.Context, query string) (string, error)

// Search calls f.
func (f SearcherFunc) Search(ctx context.Context, query string) (string, error) {
	return f(ctx, query)
}

// HTTPSearcher queries a JSON search endpoint over HTTP. The endpoint
// is expected to accept a "q" query parameter and return a body of the
// form {"results": [{"title": ..., "snippet": ...}, ...]}.
type HTTPSearcher struct {
	endpoint string
	client   *http.Client
}

// HTTPOption configures an HTTPSearcher.
type HTTPOption func(*HTTPSearcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSearcher) {
		s.client = c
	}
}

// NewHTTPSearcher creates a searcher against the given endpoint URL.
func NewHTTPSearcher(endpoint string, opts ...HTTPOption) *HTTPSearcher {
	s := &HTTPSearcher{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type searchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

// Search issues the query and formats the results one per line.
func (s *HTTPSearcher) Search(ctx context.Context, query string) (string, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search request: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	var b strings.Builder
	for _, r := range parsed.Results {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		if r.Title != "" {
			b.WriteString(r.Title)
			b.WriteString(": ")
		}
		b.WriteString(r.Snippet)
	}
	return b.String(), nil
}
