package v1

import (
	"errors"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/agenthub/ai/agents/registry"
	"github.com/hrygo/agenthub/ai/session"
	"github.com/hrygo/agenthub/ai/stats"
)

// ToolCallRequest is the body of POST /api/mcp/call.
type ToolCallRequest struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolCallResponse is the result of one tool call.
type ToolCallResponse struct {
	ToolName   string       `json:"tool_name"`
	Agent      string       `json:"agent"`
	SessionID  string       `json:"session_id"`
	Result     string       `json:"result"`
	Usage      stats.Totals `json:"usage"`
	DurationMs int64        `json:"duration_ms"`
}

// ListTools handles GET /api/mcp/tools.
func (s *APIV1Service) ListTools(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"tools": s.Registry.Tools()})
}

// CallTool handles POST /api/mcp/call. It bypasses classification and memory
// but holds the session lock, so a tool call never overlaps a chat turn or
// another call on the same session. Calls without a session_id get a fresh one.
func (s *APIV1Service) CallTool(c echo.Context) error {
	var req ToolCallRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	if req.ToolName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "tool_name is required")
	}
	if _, err := s.Registry.LookupTool(req.ToolName); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	args := make(map[string]any, len(req.Arguments)+1)
	maps.Copy(args, req.Arguments)
	sessionID, _ := args["session_id"].(string)
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = "mcp-" + shortuuid.New()
	}
	args["session_id"] = sessionID
	if path, _ := args["file_path"].(string); path != "" {
		resolved, err := s.resolveUpload(path)
		if err != nil {
			return err
		}
		args["file_path"] = resolved
	}

	ctx := c.Request().Context()
	unlock, err := s.Orchestrator.Locker().Lock(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrLockTimeout) {
			return echo.NewHTTPError(http.StatusConflict, "another request for this session is still running").SetInternal(err)
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, "failed to acquire session lock").SetInternal(err)
	}
	defer unlock()

	acc := stats.NewAccumulator(s.rates())
	ctx = stats.WithAccumulator(ctx, acc)
	start := time.Now()

	resp, agentName, err := s.Registry.CallTool(ctx, req.ToolName, args)
	switch {
	case errors.Is(err, registry.ErrUnknownTool):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusBadGateway, "tool "+req.ToolName+" failed: "+err.Error()).SetInternal(err)
	}

	return c.JSON(http.StatusOK, ToolCallResponse{
		ToolName:   req.ToolName,
		Agent:      agentName,
		SessionID:  sessionID,
		Result:     resp.Content,
		Usage:      acc.Totals(),
		DurationMs: time.Since(start).Milliseconds(),
	})
}

func (s *APIV1Service) rates() stats.Rates {
	rates := stats.DefaultRates()
	if s.Profile.CostInputPer1K > 0 {
		rates.InputPer1K = s.Profile.CostInputPer1K
	}
	if s.Profile.CostOutputPer1K > 0 {
		rates.OutputPer1K = s.Profile.CostOutputPer1K
	}
	return rates
}
