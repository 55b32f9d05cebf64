package configloader

import (
	"fmt"
	"time"

	"github.com/hrygo/agenthub/ai/agents"
)

// AgentOverride tunes one agent.
type AgentOverride struct {
	// Enabled defaults to true.
	Enabled *bool `yaml:"enabled"`
	// Description replaces the text the classifier sees.
	Description string `yaml:"description"`
}

// IsEnabled reports whether the agent should be registered.
func (o AgentOverride) IsEnabled() bool {
	return o.Enabled == nil || *o.Enabled
}

// AgentsConfig is the agents.yaml file.
//
//	classifier:
//	  history_turns: 3
//	  timeout: 20s
//	  cache: true
//	agents:
//	  nasa:
//	    enabled: false
//	  sql:
//	    description: Northwind sales analytics.
type AgentsConfig struct {
	Classifier struct {
		HistoryTurns int           `yaml:"history_turns"`
		Timeout      time.Duration `yaml:"timeout"`
		Cache        *bool         `yaml:"cache"`
	} `yaml:"classifier"`
	Agents map[string]AgentOverride `yaml:"agents"`
}

// Override returns the settings for name; missing entries use defaults.
func (c *AgentsConfig) Override(name string) AgentOverride {
	if c == nil {
		return AgentOverride{}
	}
	return c.Agents[name]
}

// LoadAgents reads an agents.yaml file. Agent names outside the vocabulary are an error.
func (l *Loader) LoadAgents(path string) (*AgentsConfig, error) {
	var cfg AgentsConfig
	if err := l.Load(path, &cfg); err != nil {
		return nil, err
	}
	for name := range cfg.Agents {
		if !agents.IsKnown(name) {
			return nil, fmt.Errorf("%s: unknown agent %q", path, name)
		}
	}
	if !cfg.Override(agents.Fallback).IsEnabled() {
		return nil, fmt.Errorf("%s: the %s agent is the fallback and cannot be disabled", path, agents.Fallback)
	}
	if cfg.Classifier.HistoryTurns < 0 {
		return nil, fmt.Errorf("%s: classifier.history_turns must not be negative", path)
	}
	return &cfg, nil
}

// Apply drops disabled agents and applies description overrides, keeping order.
func (c *AgentsConfig) Apply(list []agents.Agent) []agents.Agent {
	out := make([]agents.Agent, 0, len(list))
	for _, a := range list {
		o := c.Override(a.Name())
		if !o.IsEnabled() {
			continue
		}
		if o.Description != "" {
			a = described{Agent: a, description: o.Description}
		}
		out = append(out, a)
	}
	return out
}

type described struct {
	agents.Agent
	description string
}

func (d described) Description() string { return d.description }
