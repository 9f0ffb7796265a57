// Package transport implements gateway.Requester over HTTP.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jmgilman/go/drives/errors"
)

// DefaultNamespace is the path segment the drives REST surface is mounted under.
const DefaultNamespace = "drives-api"

// ContextTraceback is the error context key holding a backend traceback.
const ContextTraceback = "traceback"

// Config holds client configuration.
type Config struct {
	// BaseURL is the server root, e.g. "http://localhost:8888".
	BaseURL string

	// Namespace prefixes every endpoint. Default: DefaultNamespace.
	Namespace string

	// Timeout bounds each request. Default: 30s.
	Timeout time.Duration

	// Token is sent as a bearer token when set.
	Token string

	// HTTPClient replaces the default client; Timeout is then ignored.
	HTTPClient *http.Client

	Logger *zap.Logger
}

// Client performs drives REST calls. It does not retry.
type Client struct {
	base       *url.URL
	namespace  string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New(errors.CodeInvalidConfig, "base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "invalid base URL")
	}
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}

	return &Client{
		base:       base,
		namespace:  strings.Trim(cfg.Namespace, "/"),
		token:      cfg.Token,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}, nil
}

// URL returns the absolute URL of endpoint. Path segments are escaped and a
// trailing separator is kept.
func (c *Client) URL(endpoint string) string {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + c.namespace + "/" + endpoint
	u.RawPath = ""
	return u.String()
}

// Request performs one call and returns the response body.
func (c *Client) Request(ctx context.Context, endpoint, method string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidInput, "failed to encode request body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(endpoint), reader)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "failed to build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.WithContext(
			errors.Wrapf(err, errors.CodeTransport, "%s %s failed", method, endpoint),
			"endpoint", endpoint,
		)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WithContextMap(
			errors.Wrap(err, errors.CodeTransport, "failed to read response body"),
			map[string]interface{}{errors.ContextStatus: resp.StatusCode},
		)
	}

	c.logger.Debug("drives request",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ResponseError(resp.StatusCode, resp.Status, data)
	}
	return data, nil
}

// errorBody is the JSON error body of the drives REST surface.
type errorBody struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Traceback string                 `json:"traceback"`
	Context   map[string]interface{} `json:"context"`
}

// ResponseError converts a failed response into a PlatformError.
//
// A JSON body with a message yields that message verbatim, with the body's
// code when it names one and CodeBackend otherwise. A body that cannot be
// parsed yields CodeTransport carrying the status text. 404 and 409 always map
// to CodeNotFound and CodeConflict since HEAD responses carry no body. The
// status is attached under errors.ContextStatus.
func ResponseError(status int, statusText string, body []byte) errors.PlatformError {
	var parsed errorBody
	ok := json.Unmarshal(body, &parsed) == nil && parsed.Message != ""

	var code errors.ErrorCode
	switch {
	case status == http.StatusNotFound:
		code = errors.CodeNotFound
	case status == http.StatusConflict:
		code = errors.CodeConflict
	case ok && parsed.Code != "":
		code = errors.ErrorCode(parsed.Code)
	case ok:
		code = errors.CodeBackend
	default:
		code = errors.CodeTransport
	}

	message := parsed.Message
	if !ok {
		message = statusText
		if message == "" {
			message = http.StatusText(status)
		}
	}

	ctx := map[string]interface{}{}
	for k, v := range parsed.Context {
		ctx[k] = v
	}
	ctx[errors.ContextStatus] = status
	if parsed.Traceback != "" {
		ctx[ContextTraceback] = parsed.Traceback
	}
	return errors.WithContextMap(errors.New(code, message), ctx)
}
