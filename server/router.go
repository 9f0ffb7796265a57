package server

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jmgilman/go/drives/errors"
	"github.com/jmgilman/go/drives/transport"
)

// HeaderRequestID carries the request ID on requests and responses.
const HeaderRequestID = "X-Request-ID"

// MaxBodyBytes bounds a request body.
const MaxBodyBytes = 512 << 20

// RouterConfig configures Router.
type RouterConfig struct {
	// Namespace is the path segment the surface is mounted under.
	// Default: transport.DefaultNamespace.
	Namespace string

	// Token, when set, is required as a bearer token on every request.
	Token string

	// Metrics exposes /metrics on the router.
	Metrics bool

	Logger *zap.Logger
}

// Router returns a gin engine serving svc under /<namespace>/.
func Router(svc *Service, cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	namespace := strings.Trim(cfg.Namespace, "/")
	if namespace == "" {
		namespace = transport.DefaultNamespace
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(cfg.Logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, envelope{Data: "ok"})
	})
	if cfg.Metrics {
		r.GET("/metrics", gin.WrapH(MetricsHandler()))
	}

	h := &handler{svc: svc, logger: cfg.Logger}
	api := r.Group("/" + namespace)
	if cfg.Token != "" {
		api.Use(bearer(cfg.Token))
	}
	api.Any("/*endpoint", h.serve)
	return r
}

type handler struct {
	svc    *Service
	logger *zap.Logger
}

func (h *handler) serve(c *gin.Context) {
	start := time.Now()
	endpoint := strings.TrimPrefix(c.Param("endpoint"), "/")
	method := c.Request.Method

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxBodyBytes))
	if err != nil {
		h.fail(c, errors.Wrap(err, errors.CodeInvalidInput, "failed to read request body"))
		recordRequest(method, RouteOf(endpoint), c.Writer.Status(), time.Since(start))
		return
	}

	result, err := h.svc.Handle(c.Request.Context(), endpoint, method, body)
	switch {
	case err != nil:
		h.fail(c, err)
	case method == http.MethodHead:
		c.Status(http.StatusOK)
	default:
		c.JSON(http.StatusOK, envelope{Data: result})
	}
	recordRequest(method, RouteOf(endpoint), c.Writer.Status(), time.Since(start))
}

// fail writes the error body for err. HEAD responses carry only the status.
func (h *handler) fail(c *gin.Context, err error) {
	status := errors.HTTPStatus(errors.GetCode(err))
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(HeaderRequestID)),
			zap.Error(err),
		)
	}
	if c.Request.Method == http.MethodHead {
		c.Status(status)
		return
	}
	c.JSON(status, errors.ToJSON(err))
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(HeaderRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", c.GetString(HeaderRequestID)),
		)
	}
}

func bearer(token string) gin.HandlerFunc {
	want := "Bearer " + token
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != want {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				errors.ToJSON(errors.New(errors.CodeUnauthorized, "missing or invalid token")))
			return
		}
		c.Next()
	}
}
