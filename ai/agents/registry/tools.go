package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/hrygo/agenthub/ai/agents"
)

// ErrUnknownTool is returned for tool names outside the catalogue.
var ErrUnknownTool = errors.New("unknown tool")

// Tool exposes one agent as a callable tool.
type Tool struct {
	Name        string         `json:"name"`
	Agent       string         `json:"agent"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

var toolNames = map[string]string{
	agents.RAG:        "rag_search",
	agents.Multimodal: "multimodal_analysis",
	agents.NASA:       "nasa_query",
	agents.General:    "general_assistant",
	agents.Weather:    "weather_lookup",
	agents.Traffic:    "traffic_route",
	agents.SQL:        "sql_query",
	agents.Viz:        "visualize_data",
	agents.CICP:       "cicp_process",
	agents.IDA:        "ida_design",
	agents.FHIR:       "fhir_convert",
	agents.Banking:    "banking_assist",
}

func toolSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The request for the agent",
			},
			"file_path": map[string]any{
				"type":        "string",
				"description": "Optional path of a previously uploaded file",
			},
			"session_id": map[string]any{
				"type":        "string",
				"description": "Session for multi-step flows",
			},
		},
		"required": []string{"query"},
	}
}

// Tools lists the catalogue for the registered agents, in registration order.
func (r *Registry) Tools() []Tool {
	caps := r.Describe()
	tools := make([]Tool, 0, len(caps))
	for _, c := range caps {
		tools = append(tools, Tool{
			Name:        toolNames[c.Name],
			Agent:       c.Name,
			Description: c.Description,
			InputSchema: toolSchema(),
		})
	}
	return tools
}

// LookupTool maps a tool name to its registered agent name.
func (r *Registry) LookupTool(toolName string) (string, error) {
	for agentName, name := range toolNames {
		if name != toolName {
			continue
		}
		if _, ok := r.Get(agentName); ok {
			return agentName, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownTool, toolName)
}

// CallTool invokes the agent behind toolName with JSON-style arguments.
// Callers own session_id and the session lock that goes with it.
func (r *Registry) CallTool(ctx context.Context, toolName string, args map[string]any) (*agents.Response, string, error) {
	agentName, err := r.LookupTool(toolName)
	if err != nil {
		return nil, "", err
	}
	req := &agents.Request{
		Query:     stringArg(args, "query"),
		FilePath:  stringArg(args, "file_path"),
		SessionID: stringArg(args, "session_id"),
	}
	resp, err := r.Invoke(ctx, agentName, req)
	return resp, agentName, err
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}
