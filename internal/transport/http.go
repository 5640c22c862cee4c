// Package transport delivers readings from the sender to the ingestion endpoint.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ThatOneShortGuy/thermostat/internal/telemetry"
)

// maxErrorBody bounds how much of a failed response is quoted in the error.
const maxErrorBody = 256

// Client posts readings to a fixed URL. It makes exactly one attempt per Send.
type Client struct {
	url    string
	http   *http.Client
	logger *slog.Logger
}

func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		url:    url,
		http:   &http.Client{Timeout: timeout},
		logger: logger.With("component", "http-transport"),
	}
}

func (c *Client) Send(ctx context.Context, r telemetry.Reading) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", c.url, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		if err := resp.Body.Close(); err != nil {
			c.logger.Debug("close response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	c.logger.Debug("reading posted", "url", c.url, "status", resp.StatusCode)
	return nil
}

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("ingest rejected: %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("ingest rejected: %d %s: %s", e.Code, http.StatusText(e.Code), e.Body)
}
