// Package server exposes the importer and code lookup over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/amecontrol/sigtapload/internal/auth"
)

// Config holds the HTTP settings.
type Config struct {
	ListenAddr      string
	MaxUploadBytes  int64
	AdminTier       int
	JWT             auth.JWTConfig
	ShutdownTimeout time.Duration
}

// New builds the echo instance with middleware and routes.
func New(cfg Config, h *Handler, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(recovery(logger))
	e.Use(echomw.RequestID())
	e.Use(requestLogger(logger))
	if cfg.MaxUploadBytes > 0 {
		e.Use(echomw.BodyLimit(strconv.FormatInt(cfg.MaxUploadBytes, 10)))
	}

	e.GET("/healthz", h.Health)

	api := e.Group("/api/v1",
		auth.JWTMiddleware(cfg.JWT),
		auth.RequireTier(cfg.AdminTier),
	)
	h.RegisterRoutes(api)

	return e
}

// Run serves e until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, e *echo.Echo, cfg Config, logger zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("starting server")
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
