package backend

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/modoterra/watchpost/pkg/core"
)

// callTimeout bounds every backend call so a slow network call cannot
// indefinitely delay a job's next tick.
const callTimeout = 15 * time.Second

// HTTPClient talks to the telemetry backend over gzip-compressed JSON.
// It satisfies Client and SessionRefresher.
type HTTPClient struct {
	endpoint string
	apiKey   string
	hc       *http.Client

	mu      sync.RWMutex
	session string
}

// NewHTTPClient creates a client for the given base endpoint.
func NewHTTPClient(endpoint, apiKey string) *HTTPClient {
	return &HTTPClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		hc:       &http.Client{Timeout: callTimeout},
	}
}

type sessionResponse struct {
	Token string `json:"token"`
}

// RefreshSession exchanges the API key for a fresh session token.
// On failure the previous token stays in place and continues to be
// used until it expires or a later refresh succeeds.
func (c *HTTPClient) RefreshSession(ctx context.Context) error {
	body := map[string]string{"api_key": c.apiKey}
	var resp sessionResponse
	if err := c.post(ctx, "/v1/session", body, &resp); err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}
	c.mu.Lock()
	c.session = resp.Token
	c.mu.Unlock()
	return nil
}

type putMetricDataRequest struct {
	Namespace string  `json:"namespace"`
	Data      []Datum `json:"data"`
}

func (c *HTTPClient) PutMetricData(ctx context.Context, namespace string, data []Datum) error {
	req := putMetricDataRequest{Namespace: namespace, Data: data}
	if err := c.post(ctx, "/v1/metrics", req, nil); err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}

type createLogGroupRequest struct {
	Group string `json:"group"`
}

func (c *HTTPClient) CreateLogGroup(ctx context.Context, group string) error {
	if err := c.post(ctx, "/v1/logs/groups", createLogGroupRequest{Group: group}, nil); err != nil {
		return fmt.Errorf("create log group %s: %w", group, err)
	}
	return nil
}

type createLogStreamRequest struct {
	Group  string `json:"group"`
	Stream string `json:"stream"`
}

func (c *HTTPClient) CreateLogStream(ctx context.Context, group, stream string) error {
	req := createLogStreamRequest{Group: group, Stream: stream}
	if err := c.post(ctx, "/v1/logs/streams", req, nil); err != nil {
		return fmt.Errorf("create log stream %s/%s: %w", group, stream, err)
	}
	return nil
}

type describeLogStreamsRequest struct {
	Group string `json:"group"`
	Limit int    `json:"limit"`
}

type describeLogStreamsResponse struct {
	Streams []StreamInfo `json:"streams"`
}

func (c *HTTPClient) DescribeLogStreams(ctx context.Context, group string, limit int) ([]StreamInfo, error) {
	req := describeLogStreamsRequest{Group: group, Limit: limit}
	var resp describeLogStreamsResponse
	if err := c.post(ctx, "/v1/logs/streams/describe", req, &resp); err != nil {
		return nil, fmt.Errorf("describe log streams %s: %w", group, err)
	}
	return resp.Streams, nil
}

type putLogEventsRequest struct {
	Group         string          `json:"group"`
	Stream        string          `json:"stream"`
	SequenceToken *string         `json:"sequence_token,omitempty"`
	Events        []core.LogEvent `json:"events"`
}

type putLogEventsResponse struct {
	NextSequenceToken string `json:"next_sequence_token"`
}

func (c *HTTPClient) PutLogEvents(ctx context.Context, group, stream string, token *string, events []core.LogEvent) (string, error) {
	req := putLogEventsRequest{Group: group, Stream: stream, SequenceToken: token, Events: events}
	var resp putLogEventsResponse
	if err := c.post(ctx, "/v1/logs/events", req, &resp); err != nil {
		return "", fmt.Errorf("put log events %s/%s: %w", group, stream, err)
	}
	return resp.NextSequenceToken, nil
}

// post sends one gzip-compressed JSON request and decodes the response
// into out when non-nil. 409 Conflict on create paths means the
// resource already exists and is treated as success; 400 with a
// token-mismatch body maps to ErrTokenMismatch.
func (c *HTTPClient) post(ctx context.Context, path string, payload, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	var body bytes.Buffer
	zw := gzip.NewWriter(&body)
	if _, err = zw.Write(raw); err != nil {
		return fmt.Errorf("gzip write: %w", err)
	}
	if err = zw.Close(); err != nil {
		return fmt.Errorf("gzip close: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, &body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("X-Api-Key", c.apiKey)
	c.mu.RLock()
	if c.session != "" {
		req.Header.Set("Authorization", "Bearer "+c.session)
	}
	c.mu.RUnlock()

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusConflict:
		// Idempotent create: already exists.
		io.Copy(io.Discard, resp.Body)
		return nil
	default:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var e struct {
			Code string `json:"code"`
		}
		if json.Unmarshal(data, &e) == nil && e.Code == "token_mismatch" {
			return ErrTokenMismatch
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
