// Package server exposes the agent hub over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/agenthub/internal/profile"
	"github.com/hrygo/agenthub/internal/upload"
	apiv1 "github.com/hrygo/agenthub/server/router/api/v1"
	"github.com/hrygo/agenthub/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	hub        *hub
	listener   net.Listener
}

// NewServer builds the hub and registers every route.
func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	h, err := newHub(ctx, profile, store)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Profile: profile,
		Store:   store,
		hub:     h,
	}

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.HTTPErrorHandler = apiv1.HTTPErrorHandler
	echoServer.Use(middleware.Recover())
	echoServer.Use(requestLogger())
	echoServer.Use(middleware.BodyLimit(fmt.Sprintf("%dM", profile.MaxUploadMB+1)))
	s.echoServer = echoServer

	uploads := upload.NewStore(profile.UploadDir(), profile.MaxUploadBytes())
	apiV1Service := apiv1.NewAPIV1Service(profile, h.orchestrator, h.registry, uploads, h.metrics.Handler())
	if err := apiV1Service.RegisterGateway(ctx, echoServer); err != nil {
		h.close()
		return nil, errors.Wrap(err, "failed to register api routes")
	}
	return s, nil
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", address)
	}
	s.listener = listener

	go func() {
		if err := s.echoServer.Server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server: failed to serve", "error", err)
		}
	}()
	slog.Info("server: listening", "address", address)
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and releases the hub.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server: shutting down")
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("server: failed to shutdown echo", "error", err)
	}

	s.hub.close()

	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			slog.Error("server: failed to close database", "error", err)
		}
	}
	slog.Info("server: stopped properly")
}

// GetEcho returns the underlying echo server.
func (s *Server) GetEcho() *echo.Echo {
	return s.echoServer
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/api/health" || c.Path() == "/metrics"
		},
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
			}
			if v.Error != nil {
				slog.Warn("http: request", append(attrs, "error", v.Error)...)
				return nil
			}
			slog.Info("http: request", attrs...)
			return nil
		},
	})
}
