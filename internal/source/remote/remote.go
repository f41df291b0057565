// Package remote reads transactions from another dashboard's JSON API.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"momo/internal/core"
	"momo/internal/source"
)

var _ source.TransactionReader = (*Client)(nil)

// ErrUnsuccessful is returned when the API answers with success=false and an error message.
var ErrUnsuccessful = errors.New("api reported failure")

const defaultTimeout = 10 * time.Second

// envelope is the response wrapper used by every /api endpoint.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the API rooted at baseURL (e.g. http://host:5000/api).
// A nil httpClient gets a default with a 10s timeout.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("remote: base URL is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("remote: invalid base URL: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: baseURL, http: httpClient}, nil
}

func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	var env envelope[[]core.Transaction]
	if err := c.get(ctx, "/transactions", &env); err != nil {
		return nil, err
	}
	if !env.Success {
		if env.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrUnsuccessful, env.Error)
		}
		return []core.Transaction{}, nil
	}
	if env.Data == nil {
		return []core.Transaction{}, nil
	}
	return env.Data, nil
}

func (c *Client) ListTypes(ctx context.Context) ([]string, error) {
	var env envelope[[]string]
	if err := c.get(ctx, "/transaction-types", &env); err != nil {
		return nil, err
	}
	if !env.Success {
		if env.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrUnsuccessful, env.Error)
		}
		return []string{}, nil
	}
	if env.Data == nil {
		return []string{}, nil
	}
	return env.Data, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
