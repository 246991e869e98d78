// Package newsapi implements a client for the NewsAPI.org /v2/everything
// endpoint.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/newslens-cloud/newslens/internal/domain"
)

const (
	// DefaultBaseURL is the public NewsAPI endpoint.
	DefaultBaseURL = "https://newsapi.org/v2"

	defaultTimeout = 10 * time.Second
	maxPageSize    = 100
)

// Client talks to NewsAPI.org.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// New creates a NewsAPI client.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// responseBody is the NewsAPI /everything payload.
type responseBody struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// Search returns English-language articles matching query, newest first.
// pageSize is capped at the NewsAPI maximum of 100.
func (c *Client) Search(ctx context.Context, query string, pageSize int) ([]domain.RawArticle, error) {
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("pageSize", fmt.Sprintf("%d", pageSize))
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")
	params.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/everything?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request news: %w: %w", domain.ErrNewsProviderError, err)
	}
	defer resp.Body.Close()

	var body responseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w: %w", domain.ErrNewsProviderError, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp.StatusCode, body)
	}

	articles := make([]domain.RawArticle, 0, len(body.Articles))
	for _, a := range body.Articles {
		articles = append(articles, domain.RawArticle{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source.Name,
		})
	}
	return articles, nil
}

// apiError maps NewsAPI error responses to domain sentinels.
func (c *Client) apiError(status int, body responseBody) error {
	switch status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", body.Message, domain.ErrNewsAuthFailed)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", body.Message, domain.ErrRateLimited)
	default:
		return fmt.Errorf("status %d (%s): %s: %w",
			status, body.Code, body.Message, domain.ErrNewsProviderError)
	}
}
