package v1

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/agenthub/ai/agents/orchestrator"
	"github.com/hrygo/agenthub/ai/evaluation"
	"github.com/hrygo/agenthub/ai/session"
	"github.com/hrygo/agenthub/ai/stats"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message   string `json:"message"`
	Agent     string `json:"agent,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	FilePath  string `json:"file_path,omitempty"`
}

// ChatMetadata carries usage and diagnostics for one reply.
type ChatMetadata struct {
	Usage         stats.Totals          `json:"usage"`
	Evaluation    *evaluation.Scorecard `json:"evaluation,omitempty"`
	TraceID       string                `json:"trace_id"`
	DurationMs    int64                 `json:"duration_ms"`
	TimingsMs     map[string]int64      `json:"timings_ms,omitempty"`
	RoutingSource string                `json:"routing_source,omitempty"`
	ReplyHTML     string                `json:"reply_html,omitempty"`
}

// ChatResponse is the body returned by POST /api/chat.
type ChatResponse struct {
	Reply        string       `json:"reply"`
	Agent        string       `json:"agent"`
	AgentsCalled []string     `json:"agents_called"`
	SessionID    string       `json:"session_id"`
	Timestamp    string       `json:"timestamp"`
	Metadata     ChatMetadata `json:"metadata"`
}

func (r *ChatRequest) validate() error {
	n := utf8.RuneCountInString(r.Message)
	if strings.TrimSpace(r.Message) == "" || n < MinMessageLength {
		return errors.New("message must not be empty")
	}
	if n > MaxMessageLength {
		return fmt.Errorf("message must be at most %d characters", MaxMessageLength)
	}
	return nil
}

// Chat handles POST /api/chat.
func (s *APIV1Service) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	if req.SessionID == "" {
		req.SessionID = orchestrator.DefaultSessionID
	}
	if req.FilePath != "" {
		path, err := s.resolveUpload(req.FilePath)
		if err != nil {
			return err
		}
		req.FilePath = path
	}

	ctx := c.Request().Context()
	if timeout := s.Profile.RequestTimeoutDuration(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := s.chatSemaphore.Acquire(ctx, 1); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "server is busy, try again later").SetInternal(err)
	}
	defer s.chatSemaphore.Release(1)

	result, err := s.Orchestrator.Process(ctx, orchestrator.Request{
		Message:   req.Message,
		SessionID: req.SessionID,
		FilePath:  req.FilePath,
		Agent:     req.Agent,
	})
	if err != nil {
		return chatError(err)
	}

	resp := ChatResponse{
		Reply:        result.Response,
		Agent:        result.Primary(),
		AgentsCalled: result.Agents,
		SessionID:    req.SessionID,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Metadata: ChatMetadata{
			Usage:         result.Usage,
			Evaluation:    result.Evaluation,
			TraceID:       result.TraceID,
			DurationMs:    result.Duration.Milliseconds(),
			TimingsMs:     result.Timings,
			RoutingSource: string(result.Source),
		},
	}
	if resp.AgentsCalled == nil {
		resp.AgentsCalled = []string{}
	}

	if c.QueryParam("format") == "html" {
		html, err := s.MarkdownService.RenderHTML([]byte(result.Response))
		if err != nil {
			slog.Warn("api: failed to render reply html", "trace_id", result.TraceID, "error", err)
		} else {
			resp.Metadata.ReplyHTML = html
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func chatError(err error) error {
	switch {
	case errors.Is(err, orchestrator.ErrUnknownAgent), errors.Is(err, orchestrator.ErrEmptyMessage):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrLockTimeout):
		return echo.NewHTTPError(http.StatusConflict, "another request for this session is still running").SetInternal(err)
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "request timed out").SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to process message").SetInternal(err)
	}
}
