package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

const maxErrorBody = 512

// JSONClient performs JSON requests and classifies failures into
// NetworkError, HTTPError and DecodeError. Relative URLs are resolved
// against origin.
type JSONClient struct {
	origin *url.URL
	client *http.Client
	log    *logrus.Logger
}

// NewJSONClient builds a client. origin may be empty when every URL passed in
// is absolute. A zero timeout means no client-side timeout.
func NewJSONClient(origin string, timeout time.Duration, logger *logrus.Logger) (*JSONClient, error) {
	c := &JSONClient{
		client: &http.Client{Timeout: timeout},
		log:    logger,
	}
	if origin != "" {
		u, err := url.Parse(origin)
		if err != nil {
			return nil, fmt.Errorf("invalid origin URL %q: %w", origin, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("origin URL %q must be absolute", origin)
		}
		c.origin = u
	}
	return c, nil
}

// GetJSON issues a GET and decodes the JSON body into v.
func (c *JSONClient) GetJSON(ctx context.Context, rawURL string, v any) error {
	return c.do(ctx, http.MethodGet, rawURL, nil, nil, v)
}

// SendJSON encodes body as JSON, sends it with method and extra headers and
// decodes the response into v. v may be nil when the response body is not needed.
func (c *JSONClient) SendJSON(ctx context.Context, method, rawURL string, header http.Header, body, v any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}
	return c.do(ctx, method, rawURL, header, payload, v)
}

func (c *JSONClient) resolve(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if c.origin == nil {
		return "", fmt.Errorf("relative URL %q with no origin configured", rawURL)
	}
	return c.origin.ResolveReference(u).String(), nil
}

func (c *JSONClient) do(ctx context.Context, method, rawURL string, header http.Header, payload []byte, v any) error {
	target, err := c.resolve(rawURL)
	if err != nil {
		c.log.Errorf("JSONClient: Cannot resolve URL %s: %v", rawURL, err)
		return &NetworkError{URL: rawURL, Err: err}
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		c.log.Errorf("JSONClient: Failed to create %s request for %s: %v", method, target, err)
		return &NetworkError{URL: target, Err: err}
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debugf("JSONClient: %s %s", method, target)
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Errorf("JSONClient: Failed to execute %s %s: %v", method, target, err)
		return &NetworkError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.Warnf("JSONClient: %s %s returned status %d", method, target, resp.StatusCode)
		return &HTTPError{URL: target, Status: resp.StatusCode, Body: string(bodyBytes)}
	}

	if v == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Errorf("JSONClient: Failed to read response body from %s: %v", target, err)
		return &NetworkError{URL: target, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		c.log.Errorf("JSONClient: Failed to decode response from %s: %v", target, err)
		return &DecodeError{URL: target, Err: err}
	}
	return nil
}
