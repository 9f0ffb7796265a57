package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jmgilman/go/drives/drivepath"
	"github.com/jmgilman/go/drives/errors"
	"github.com/jmgilman/go/drives/gateway"
)

// Route names used as metric labels.
const (
	RouteDrives = "drives"
	RouteConfig = "config"
	RouteObject = "object"
	RouteOther  = "other"
)

// RouteOf classifies an endpoint for metrics.
func RouteOf(endpoint string) string {
	endpoint = strings.Trim(endpoint, "/")
	switch {
	case endpoint == gateway.EndpointDrives:
		return RouteDrives
	case endpoint == gateway.EndpointConfig:
		return RouteConfig
	case strings.HasPrefix(endpoint, gateway.EndpointDrives+"/"):
		return RouteObject
	}
	return RouteOther
}

// objectBody holds every field an object POST or PUT may carry.
type objectBody struct {
	IsDir         bool   `json:"is_dir"`
	PresignedLink bool   `json:"presigned_link"`
	ToDrive       string `json:"to_drive"`
	ToPath        string `json:"to_path"`
	gateway.SaveRequest
}

// Handle serves one request of the REST surface. endpoint is relative to the
// namespace, e.g. "drives/data/dir/a.txt", and body is the raw JSON request
// body, which may be empty. The result is the value to wrap in the response
// envelope.
func (s *Service) Handle(ctx context.Context, endpoint, method string, body []byte) (any, error) {
	endpoint = strings.TrimPrefix(endpoint, "/")

	switch RouteOf(endpoint) {
	case RouteDrives:
		return s.handleDrives(ctx, method, body)
	case RouteConfig:
		if method != http.MethodPost {
			return nil, methodNotAllowed(endpoint, method)
		}
		req, err := bind[gateway.ConfigRequest](body)
		if err != nil {
			return nil, err
		}
		return nil, s.Configure(ctx, req)
	case RouteObject:
		rest := strings.TrimPrefix(endpoint, gateway.EndpointDrives+"/")
		drive, key, _ := strings.Cut(rest, "/")
		return s.handleObject(ctx, drive, key, method, body)
	}
	return nil, errors.WithContext(errors.New(errors.CodeNotFound, "unknown endpoint"), "endpoint", endpoint)
}

func (s *Service) handleDrives(ctx context.Context, method string, body []byte) (any, error) {
	switch method {
	case http.MethodGet:
		return s.ListDrives(ctx)
	case http.MethodPost:
		req, err := bind[gateway.MountRequest](body)
		if err != nil {
			return nil, err
		}
		return nil, s.Mount(ctx, req)
	case http.MethodDelete:
		req, err := bind[gateway.UnmountRequest](body)
		if err != nil {
			return nil, err
		}
		return nil, s.Unmount(ctx, req)
	case http.MethodPut:
		req, err := bind[gateway.CreateDriveRequest](body)
		if err != nil {
			return nil, err
		}
		return s.CreateDrive(ctx, req)
	}
	return nil, methodNotAllowed(gateway.EndpointDrives, method)
}

func (s *Service) handleObject(ctx context.Context, drive, key, method string, body []byte) (any, error) {
	if drive == "" {
		return nil, errors.New(errors.CodeInvalidInput, "drive name is required")
	}
	if err := checkDrive(drive); err != nil {
		return nil, err
	}
	if err := checkKey("path", key); err != nil {
		return nil, err
	}

	switch method {
	case http.MethodGet:
		return s.Read(ctx, drive, key)
	case http.MethodHead:
		return nil, s.Head(ctx, drive, key)
	case http.MethodDelete:
		return nil, s.Delete(ctx, drive, key)
	case http.MethodPatch:
		req, err := bind[gateway.MoveRequest](body)
		if err != nil {
			return nil, err
		}
		if err := checkKey("new_path", req.NewPath); err != nil {
			return nil, err
		}
		return s.Move(ctx, drive, key, req)
	case http.MethodPost:
		req, err := bind[objectBody](body)
		if err != nil {
			return nil, err
		}
		if req.PresignedLink {
			return s.Presign(ctx, drive, key)
		}
		return s.Create(ctx, drive, key, req.IsDir)
	case http.MethodPut:
		req, err := bind[objectBody](body)
		if err != nil {
			return nil, err
		}
		if req.ToDrive != "" || req.ToPath != "" {
			if err := checkDrive(req.ToDrive); err != nil {
				return nil, err
			}
			if err := checkKey("to_path", req.ToPath); err != nil {
				return nil, err
			}
			return s.CopyObject(ctx, drive, key, gateway.CopyRequest{ToDrive: req.ToDrive, ToPath: req.ToPath})
		}
		return s.Save(ctx, drive, key, req.SaveRequest)
	}
	return nil, methodNotAllowed(gateway.ObjectEndpoint(drive, key), method)
}

// checkKey rejects object paths that are not already in canonical form,
// such as ones with "." or ".." segments, empty segments or backslashes. Such
// a path could name an object outside its drive. A trailing separator marks
// a directory and is allowed.
func checkKey(field, key string) error {
	trimmed := strings.TrimSuffix(key, drivepath.Separator)
	if trimmed == "" || drivepath.Normalize(trimmed) == trimmed {
		return nil
	}
	return errors.WithContextMap(
		errors.New(errors.CodeInvalidInput, "invalid object path"),
		map[string]interface{}{"field": field, "path": key},
	)
}

func checkDrive(drive string) error {
	if drive == "." || drive == ".." || strings.ContainsAny(drive, `/\`) {
		return errors.WithContext(errors.New(errors.CodeInvalidInput, "invalid drive name"), "drive", drive)
	}
	return nil
}

// bind decodes a JSON request body. An empty body decodes to the zero value.
func bind[T any](body []byte) (T, error) {
	var v T
	if len(bytes.TrimSpace(body)) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return v, errors.Wrap(err, errors.CodeInvalidInput, "invalid request body")
	}
	return v, nil
}

func methodNotAllowed(endpoint, method string) error {
	return errors.WithContextMap(
		errors.Newf(errors.CodeNotImplemented, "%s is not supported on this endpoint", method),
		map[string]interface{}{"endpoint": endpoint, "method": method},
	)
}

// Dispatcher serves gateway requests in process.
type Dispatcher struct {
	svc *Service
}

var _ gateway.Requester = (*Dispatcher)(nil)

// NewDispatcher returns a gateway.Requester backed by svc.
func NewDispatcher(svc *Service) *Dispatcher {
	return &Dispatcher{svc: svc}
}

// Request implements gateway.Requester. Failures carry the HTTP status the
// router would have answered with.
func (d *Dispatcher) Request(ctx context.Context, endpoint, method string, body any) (json.RawMessage, error) {
	var raw []byte
	if body != nil {
		var err error
		if raw, err = json.Marshal(body); err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidInput, "failed to encode request body")
		}
	}

	result, err := d.svc.Handle(ctx, endpoint, method, raw)
	if err != nil {
		return nil, errors.WithContext(err, errors.ContextStatus, errors.HTTPStatus(errors.GetCode(err)))
	}
	if method == http.MethodHead {
		return nil, nil
	}

	data, err := json.Marshal(envelope{Data: result})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to encode response")
	}
	return data, nil
}

type envelope struct {
	Data any `json:"data"`
}
