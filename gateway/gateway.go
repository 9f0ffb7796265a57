package gateway

import (
	"bytes"
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/jmgilman/go/drives/drivepath"
	"github.com/jmgilman/go/drives/errors"
)

// Endpoints of the drives REST surface, relative to the namespace.
const (
	EndpointDrives = "drives"
	EndpointConfig = "drives/config"
)

// DefaultConcurrency bounds the per-object requests in flight during a
// directory-wide operation.
const DefaultConcurrency = 10

// Requester performs one call against the drives REST surface and returns the
// raw JSON response body. Failures are returned as errors.PlatformError values
// carrying the backend's message.
type Requester interface {
	Request(ctx context.Context, endpoint, method string, body any) (json.RawMessage, error)
}

// RequestFunc adapts a function to a Requester.
type RequestFunc func(ctx context.Context, endpoint, method string, body any) (json.RawMessage, error)

// Request calls f.
func (f RequestFunc) Request(ctx context.Context, endpoint, method string, body any) (json.RawMessage, error) {
	return f(ctx, endpoint, method, body)
}

// Gateway translates logical drive operations into requests.
type Gateway struct {
	req         Requester
	logger      *zap.Logger
	concurrency int
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger used for fan-out failures.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithConcurrency bounds the requests in flight during directory-wide
// operations. Values below one are ignored.
func WithConcurrency(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// New creates a Gateway over req.
func New(req Requester, opts ...Option) *Gateway {
	g := &Gateway{
		req:         req,
		logger:      zap.NewNop(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ObjectEndpoint returns the endpoint addressing rel inside drive.
func ObjectEndpoint(drive, rel string) string {
	return drivepath.JoinKey(EndpointDrives+"/"+drive, rel)
}

type envelope[T any] struct {
	Data T `json:"data"`
}

// decode unwraps the {"data": ...} envelope of a response.
func decode[T any](raw json.RawMessage) (T, error) {
	var env envelope[T]
	if len(bytes.TrimSpace(raw)) == 0 {
		return env.Data, nil
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return env.Data, errors.Wrap(err, errors.CodeTransport, "failed to decode response")
	}
	return env.Data, nil
}

// call performs one request and annotates a failure with its target.
func (g *Gateway) call(ctx context.Context, endpoint, method string, body any) (json.RawMessage, error) {
	raw, err := g.req.Request(ctx, endpoint, method, body)
	if err != nil {
		return nil, errors.WithContextMap(err, map[string]interface{}{
			"endpoint": endpoint,
			"method":   method,
		})
	}
	return raw, nil
}
