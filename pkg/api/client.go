// Package api is the adapter between the remote care API and the local model. Responses are
// decoded into strict wire records and validated before anything is handed inward.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matt-steen/care-tracker/pkg/model"
	"github.com/rs/zerolog/log"
)

const maxErrorBody = 64 << 10

// Client talks to the remote care API.
type Client struct {
	baseURL string
	http    *http.Client
	now     func() time.Time
}

// NewClient returns a Client for the API rooted at baseURL, e.g. "https://example.com".
// Every request is bounded by timeout. Failed requests are not retried.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

// SetClock replaces the clock used to validate reminder datetimes.
func (c *Client) SetClock(now func() time.Time) {
	c.now = now
}

type errorBody struct {
	Error string `json:"error"`
}

// do sends a JSON request and decodes a JSON response into out when out is not nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("error encoding %s %s request: %w", method, path, err)
		}

		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("error building %s %s request: %w", method, path, err)
	}

	req.Header.Set("Accept", "application/json")

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("method", method).Str("path", path).Msg("request failed")

		return fmt.Errorf("%w: %s %s: %w", model.ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return serverError(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &model.ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("malformed response from %s %s: %s", method, path, err),
		}
	}

	return nil
}

func serverError(resp *http.Response) error {
	message := fmt.Sprintf("request failed: %s", http.StatusText(resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil {
		var body errorBody
		if json.Unmarshal(raw, &body) == nil && body.Error != "" {
			message = body.Error
		}
	}

	return &model.ServerError{StatusCode: resp.StatusCode, Message: message}
}

// invalid reports a 2xx response that decoded but broke the wire contract.
func invalid(what string, err error) error {
	return &model.ServerError{StatusCode: http.StatusOK, Message: fmt.Sprintf("invalid %s in response: %s", what, err)}
}
