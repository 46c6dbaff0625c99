package shopify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"variantsync-backend/internal/domain"
	"variantsync-backend/pkg/logger"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// Client talks to the Shopify Admin GraphQL API. One instance serves all
// configured stores; credentials are passed per call, never held globally.
type Client struct {
	apiVersion string
	httpClient *http.Client

	// Admin API throttle, one limiter per store
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewClient(apiVersion string, timeout time.Duration, limit float64, burst int) *Client {
	if burst < 1 {
		burst = 1
	}
	return &Client{
		apiVersion: apiVersion,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(limit),
		burst:    burst,
	}
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// RemoteError is a top-level GraphQL error returned by the platform. It is
// distinct from transport failures but handled the same way by callers:
// the whole call failed, nothing partial can be assumed.
type RemoteError struct {
	Messages []string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("shopify: %s", strings.Join(e.Messages, "; "))
}

// query posts one GraphQL document and decodes the envelope. Returns the
// raw data payload, or an error for transport failures, non-2xx statuses,
// parse failures and top-level GraphQL errors.
func (c *Client) query(ctx context.Context, store domain.Store, document string, variables map[string]interface{}) (json.RawMessage, error) {
	if err := c.limiterFor(store.Key).Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(graphQLRequest{Query: document, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("marshal graphql request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/admin/api/%s/graphql.json", strings.TrimSuffix(store.URL, "/"), c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", store.Token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	logger.RemoteCall(store.Key, operationName(document), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("shopify request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read shopify response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("shopify returned %d: %s", resp.StatusCode, truncate(string(raw), 500))
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("parse shopify response: %w", err)
	}

	if len(envelope.Errors) > 0 {
		msgs := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, &RemoteError{Messages: msgs}
	}

	return envelope.Data, nil
}

func (c *Client) limiterFor(storeKey string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.limiters[storeKey]
	if !ok {
		l = rate.NewLimiter(c.limit, c.burst)
		c.limiters[storeKey] = l
	}
	return l
}

// operationName pulls the leading operation keyword and name out of a
// GraphQL document for log lines.
func operationName(document string) string {
	fields := strings.Fields(document)
	if len(fields) < 2 {
		return "unknown"
	}
	name := fields[1]
	if idx := strings.IndexAny(name, "({"); idx >= 0 {
		name = name[:idx]
	}
	return name
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
