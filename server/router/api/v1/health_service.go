package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AgentHealth is the invocation summary of one agent.
type AgentHealth struct {
	Invocations      int64   `json:"invocations"`
	Errors           int64   `json:"errors"`
	ErrorRatePct     float64 `json:"error_rate_pct"`
	AverageLatencyMs float64 `json:"avg_latency_ms"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version"`
	Agents  []string               `json:"agents"`
	Stats   map[string]AgentHealth `json:"agent_stats"`
}

// Health handles GET /api/health.
func (s *APIV1Service) Health(c echo.Context) error {
	snapshot := s.Registry.Stats().Snapshot()
	agentStats := make(map[string]AgentHealth, len(snapshot))
	for name, st := range snapshot {
		agentStats[name] = AgentHealth{
			Invocations:      st.Invocations,
			Errors:           st.Errors,
			ErrorRatePct:     st.ErrorRate(),
			AverageLatencyMs: st.AverageLatencyMs(),
		}
	}

	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: s.Profile.Version,
		Agents:  s.Registry.Names(),
		Stats:   agentStats,
	})
}
