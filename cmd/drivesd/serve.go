package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jmgilman/go/drives/config"
	"github.com/jmgilman/go/drives/errors"
	"github.com/jmgilman/go/drives/server"
	"github.com/jmgilman/go/drives/store"
	"github.com/jmgilman/go/drives/store/localstore"
	"github.com/jmgilman/go/drives/store/miniostore"
	"github.com/jmgilman/go/drives/store/s3store"
)

const shutdownTimeout = 10 * time.Second

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	svc, err := newService(ctx, cfg, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr: cfg.Server.Listen,
		Handler: server.Router(svc, server.RouterConfig{
			Namespace: cfg.Server.Namespace,
			Token:     cfg.Server.Token,
			Metrics:   cfg.Server.Metrics,
			Logger:    logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving drives",
			zap.String("listen", cfg.Server.Listen),
			zap.String("namespace", cfg.Server.Namespace),
			zap.String("provider", cfg.Provider.Kind),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, errors.CodeUnavailable, "server stopped")
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, errors.CodeTimeout, "graceful shutdown failed")
	}
	return nil
}

// newService builds the primary store from the provider section and, when a
// local root is configured, serves its drive alongside.
func newService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*server.Service, error) {
	opts := []server.Option{
		server.WithLogger(logger),
		server.WithListingLimit(cfg.Limits.Listing),
		server.WithPresignTTL(cfg.Limits.PresignTTL),
	}

	var primary store.Store
	switch cfg.Provider.Kind {
	case config.ProviderLocal:
		local := localstore.NewOS(cfg.Local.Root)
		if err := ensureBucket(ctx, local, cfg.Local.Drive); err != nil {
			return nil, err
		}
		primary = local
	case config.ProviderMinIO:
		s, err := miniostore.New(miniostore.Config{
			Endpoint:  cfg.Provider.Endpoint,
			AccessKey: cfg.Provider.AccessKey,
			SecretKey: cfg.Provider.SecretKey,
			UseSSL:    cfg.Provider.UseSSL,
			Region:    cfg.Provider.Region,
		})
		if err != nil {
			return nil, err
		}
		primary = s
	case config.ProviderS3:
		s, err := s3store.New(ctx, s3store.Config{
			Region:       cfg.Provider.Region,
			Endpoint:     cfg.Provider.Endpoint,
			AccessKey:    cfg.Provider.AccessKey,
			SecretKey:    cfg.Provider.SecretKey,
			UsePathStyle: cfg.Provider.UsePathStyle,
		})
		if err != nil {
			return nil, err
		}
		primary = s
	default:
		return nil, errors.Newf(errors.CodeInvalidConfig, "unknown provider %q", cfg.Provider.Kind)
	}

	if cfg.Provider.Kind != config.ProviderLocal && cfg.Local.Root != "" {
		local := localstore.NewOS(cfg.Local.Root)
		if err := ensureBucket(ctx, local, cfg.Local.Drive); err != nil {
			return nil, err
		}
		opts = append(opts, server.WithLocalStore(local))
	}

	return server.New(primary, opts...), nil
}

func ensureBucket(ctx context.Context, s store.Store, name string) error {
	ok, err := s.BucketExists(ctx, name)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	_, err = s.CreateBucket(ctx, name, "")
	return err
}
