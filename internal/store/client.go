// Package store is the Weaviate adapter. It speaks the REST objects API
// for writes and GraphQL for queries; consumers depend on the narrow
// capability interfaces they declare (ingest.Store, retrieval.Store,
// judge.Store), all implemented by this one client.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client communicates with a Weaviate instance over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(baseURL string, log *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		log:     log,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// UnavailableError reports that the storage backend could not be reached
// or answered with a server error. The core never retries it; retry policy
// belongs to the caller.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("storage backend unavailable during %s: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// do issues one JSON request. Transport failures and 5xx responses surface
// as UnavailableError; other non-2xx statuses are plain errors carrying the
// response body.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &UnavailableError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return resp.StatusCode, &UnavailableError{
			Op:  method + " " + path,
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, truncate(respBody, 256)),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, truncate(respBody, 256))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// objectID derives the deterministic v5 UUID Weaviate objects are stored
// under, so upserts for the same logical key always hit the same object.
func objectID(kind, key string) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(kind+":"+key)).String()
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
