// Package fhir converts clinical data into FHIR R4 JSON and checks the
// result against a live FHIR server.
package fhir

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/core/llm"
	"github.com/hrygo/agenthub/ai/docread"
)

// DefaultTimeout bounds each call to the FHIR server.
const DefaultTimeout = 30 * time.Second

const maxFileChars = 15000

// Config configures the FHIR agent.
type Config struct {
	// BaseURL is the FHIR R4 endpoint, e.g. https://hapi.fhir.org/baseR4.
	// Empty disables live validation.
	BaseURL string

	// Submit creates validated resources on the server.
	Submit bool
}

// Agent generates FHIR resources and reports server validation.
type Agent struct {
	llm    llm.Service
	server *server
	cfg    Config
}

var _ agents.Agent = (*Agent)(nil)

// New creates the FHIR agent.
func New(llmService llm.Service, cfg Config) *Agent {
	a := &Agent{llm: llmService, cfg: cfg}
	if cfg.BaseURL != "" {
		a.server = newServer(cfg.BaseURL)
	}
	return a
}

func (a *Agent) Name() string { return agents.FHIR }

func (a *Agent) Description() string {
	return "Healthcare data conversion to HL7 FHIR R4 JSON (CSV, HL7v2, CDA, clinical notes) with live validation."
}

func (a *Agent) Invoke(ctx context.Context, req *agents.Request) (*agents.Response, error) {
	system := systemPrompt
	if req.History != "" {
		system += "\n\nHere is the recent conversation history for context:\n" + req.History +
			"\n\nUse this history to maintain continuity. If the user refers to a previous conversion or resource, use the history to respond accurately."
	}

	output, _, err := a.llm.Chat(ctx, []llm.Message{
		llm.SystemPrompt(system),
		llm.UserMessage(req.Query + fileContext(req.FilePath)),
	}, llm.WithTemperature(0.2), llm.WithMaxTokens(4096))
	if err != nil {
		return nil, fmt.Errorf("fhir: %w", err)
	}

	if a.server == nil || !strings.Contains(output, "```json") {
		return agents.Text(output), nil
	}
	return agents.Text(output + a.report(ctx, ExtractResources(output))), nil
}

func fileContext(path string) string {
	if path == "" {
		return ""
	}
	name, ext := filepath.Base(path), filepath.Ext(path)

	text, err := docread.ReadText(path, maxFileChars+1)
	switch {
	case errors.Is(err, docread.ErrUnsupported):
		return fmt.Sprintf("\n\n[Note: The user attached '%s' but it is a binary file type (`%s`). "+
			"Please ask the user to provide the data in a text-based format such as CSV, JSON, XML, or HL7.]", name, ext)
	case err != nil:
		slog.Warn("fhir: attached file unreadable", "file", name, "error", err)
		return fmt.Sprintf("\n\n[Note: Could not read attached file '%s': %v]", name, err)
	}
	if r := []rune(text); len(r) > maxFileChars {
		text = string(r[:maxFileChars]) + "\n\n… [content truncated for length] …"
	}
	return fmt.Sprintf("\n\nThe user has attached a file named **%s** (type: `%s`). Here is its content:\n\n```\n%s\n```\n\n"+
		"Use this file content as the **source data** for conversion. Analyse the structure, identify healthcare-relevant fields, "+
		"and convert them into the appropriate FHIR R4 resources.", name, ext, text)
}

// report validates (and optionally submits) every generated resource.
func (a *Agent) report(ctx context.Context, resources []Resource) string {
	var lines []string
	add := func(format string, args ...any) { lines = append(lines, fmt.Sprintf(format, args...)) }

	for _, r := range resources {
		switch {
		case r.Type() == "Bundle":
			a.reportBundle(ctx, r, add)
		case Postable(r.Type()):
			a.reportResource(ctx, r, add)
		}
	}
	if len(lines) == 0 {
		return ""
	}

	header := fmt.Sprintf("\n\n---\n\n## 🏥 FHIR R4 Server: Live Validation\n\n> **Server:** `%s`\n", a.server.base)
	return header + "\n" + strings.Join(lines, "\n")
}

func (a *Agent) reportResource(ctx context.Context, r Resource, add func(string, ...any)) {
	add("### %s\n", r.Type())
	v := a.server.Validate(ctx, r)
	if !v.Valid {
		add("**Validation:** ❌ Errors found\n")
		for _, e := range head(v.Errors, 5) {
			add("  - %s", e)
		}
		if a.cfg.Submit {
			add("\n**Submitted:** ⏸️ Skipped, fix errors above first\n")
		}
		return
	}

	add("**Validation:** ✅ Valid FHIR R4 resource\n")
	for _, w := range head(v.Warnings, 3) {
		add("  - ⚠️ %s", w)
	}
	if !a.cfg.Submit {
		return
	}
	if c := a.server.Create(ctx, r); c.OK {
		add("\n**Submitted:** ✅ Created on server → [%s/%s](%s)\n", c.Type, c.ServerID, c.URL)
	} else {
		add("\n**Submitted:** ❌ %s\n", c.Message)
	}
}

func (a *Agent) reportBundle(ctx context.Context, bundle Resource, add func(string, ...any)) {
	kind := bundle.bundleType()
	add("### Bundle (%s): %d entries\n", kind, len(bundle.entries()))

	resources := Flatten(bundle)
	allValid := true
	add("**Validation Results:**\n")
	for _, r := range resources {
		v := a.server.Validate(ctx, r)
		if v.Valid {
			add("  - ✅ **%s**: Valid", v.Type)
			for _, w := range head(v.Warnings, 2) {
				add("    - ⚠️ %s", w)
			}
			continue
		}
		allValid = false
		add("  - ❌ **%s**: Invalid", v.Type)
		for _, e := range head(v.Errors, 3) {
			add("    - %s", e)
		}
	}

	if !a.cfg.Submit {
		return
	}
	transactional := kind == "transaction" || kind == "batch"
	switch {
	case transactional && !allValid:
		add("\n**Submission:** ⏸️ Skipped, fix validation errors first\n")
	case transactional:
		locations, err := a.server.Transaction(ctx, bundle)
		if err == nil {
			add("\n**Submission:** ✅ Bundle accepted, %d resources created\n", len(locations))
			for _, loc := range head(locations, 10) {
				if loc != "" {
					add("  - 🔗 `%s/%s`", a.server.base, loc)
				}
			}
			return
		}
		add("\n**Submission:** ❌ %v\n", err)
		add("\n**Fallback**: submitting resources individually:\n")
		a.createEach(ctx, resources, add)
	case allValid:
		add("\n**Submitting resources individually:**\n")
		a.createEach(ctx, resources, add)
	}
}

func (a *Agent) createEach(ctx context.Context, resources []Resource, add func(string, ...any)) {
	for _, r := range resources {
		if !Postable(r.Type()) {
			continue
		}
		if c := a.server.Create(ctx, r); c.OK {
			add("  - ✅ **%s** → [%s](%s)", c.Type, c.ServerID, c.URL)
		} else {
			add("  - ❌ **%s**: %s", c.Type, c.Message)
		}
	}
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
