package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/brightpath/dashsync/model"
)

// maxResponseSize limits fetch response bodies.
const maxResponseSize = 4 * 1024 * 1024 // 4MB

// Client fetches dashboard entities from the backend REST API. Each entity
// lives at GET <base>/v1/subjects/<subjectID>/<entity>.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(client *Client) {
		client.httpClient.Timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// NewClient creates a fetch client for the given API base URL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Set returns the five entity fetchers backed by this client.
func (c *Client) Set() Set {
	set := make(Set, 5)
	for _, t := range model.EntityTypes() {
		set[t] = &entityFetcher{client: c, entity: t}
	}
	return set
}

// entityFetcher binds the client to one entity type.
type entityFetcher struct {
	client *Client
	entity model.EntityType
}

func (f *entityFetcher) EntityType() model.EntityType { return f.entity }

func (f *entityFetcher) Fetch(ctx context.Context, subjectID string) (model.Payload, error) {
	return f.client.fetch(ctx, f.entity, subjectID)
}

func (c *Client) fetch(ctx context.Context, t model.EntityType, subjectID string) (model.Payload, error) {
	endpoint := fmt.Sprintf("%s/v1/subjects/%s/%s",
		c.baseURL, url.PathEscape(subjectID), t)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Entity: t, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Entity: t, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &Error{Entity: t, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			Entity: t,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	payload, err := model.DecodePayload(t, body)
	if err != nil {
		return nil, &Error{Entity: t, Err: err}
	}

	c.logger.Debug("Fetched entity",
		"entity", t,
		"subject", subjectID,
		"duration", time.Since(start))

	return payload, nil
}
