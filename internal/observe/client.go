package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrMalformed marks a response the service sent but we could not decode.
// Callers treat it as "no intervention" rather than a transport failure.
var ErrMalformed = errors.New("malformed observe response")

// Client talks to the remote analysis service.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient creates a client for the given base URL. A zero timeout falls
// back to 10 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

// Observe posts a metrics snapshot and returns the service's judgment.
func (c *Client) Observe(ctx context.Context, req Request) (*Response, error) {
	body, err := c.post(ctx, "/observe", req)
	if err != nil {
		return nil, err
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return &resp, nil
}

// Feedback reports an accepted or dismissed intervention. The response body
// is ignored; callers fire this and swallow failures.
func (c *Client) Feedback(ctx context.Context, fb Feedback) error {
	_, err := c.post(ctx, "/intervention-feedback", fb)
	return err
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("service error (status %d): %s", resp.StatusCode, truncate(respBody, 200))
	}

	return respBody, nil
}

func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
