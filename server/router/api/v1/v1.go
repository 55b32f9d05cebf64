package v1

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/agenthub/ai/agents/orchestrator"
	"github.com/hrygo/agenthub/ai/agents/registry"
	"github.com/hrygo/agenthub/ai/session"
	"github.com/hrygo/agenthub/internal/profile"
	"github.com/hrygo/agenthub/internal/upload"
	"github.com/hrygo/agenthub/plugin/markdown"
)

// Limits on the chat request body.
const (
	MinMessageLength = 1
	MaxMessageLength = 10000
)

// Processor runs one chat turn and exposes the session lock it takes.
type Processor interface {
	Process(ctx context.Context, req orchestrator.Request) (*orchestrator.Result, error)
	Locker() session.Locker
}

var _ Processor = (*orchestrator.Orchestrator)(nil)

type APIV1Service struct {
	// Domain Services
	Orchestrator Processor
	Registry     *registry.Registry
	Uploads      *upload.Store

	// Shared Infra
	MarkdownService markdown.Service
	Profile         *profile.Profile
	MetricsHandler  http.Handler
	chatSemaphore   *semaphore.Weighted
}

// NewAPIV1Service wires the REST handlers around an orchestrator and its registry.
// metricsHandler may be nil, in which case /metrics is not served.
func NewAPIV1Service(profile *profile.Profile, proc Processor, reg *registry.Registry, uploads *upload.Store, metricsHandler http.Handler) *APIV1Service {
	limit := int64(profile.MaxConcurrentChats)
	if limit <= 0 {
		limit = 1
	}
	return &APIV1Service{
		Orchestrator:    proc,
		Registry:        reg,
		Uploads:         uploads,
		MarkdownService: markdown.NewService(),
		Profile:         profile,
		MetricsHandler:  metricsHandler,
		chatSemaphore:   semaphore.NewWeighted(limit),
	}
}

// resolveUpload maps a client supplied file path to a file in the upload
// directory, rejecting anything else with 400.
func (s *APIV1Service) resolveUpload(path string) (string, error) {
	if s.Uploads == nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "file uploads are disabled")
	}
	resolved, err := s.Uploads.Resolve(path)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "file_path must point to an uploaded file").SetInternal(err)
	}
	return resolved, nil
}

// RegisterGateway registers the REST routes with the given Echo instance.
func (s *APIV1Service) RegisterGateway(_ context.Context, echoServer *echo.Echo) error {
	api := echoServer.Group("/api", middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(_ string) (bool, error) {
			return true, nil
		},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"*"},
		AllowCredentials: true,
	}))

	api.POST("/chat", s.Chat)
	api.POST("/upload", s.Upload)
	api.GET("/health", s.Health)
	api.GET("/mcp/tools", s.ListTools)
	api.POST("/mcp/call", s.CallTool)

	if s.MetricsHandler != nil {
		echoServer.GET("/metrics", echo.WrapHandler(s.MetricsHandler))
	}
	return nil
}
