package sqlquery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/core/llm"
)

const vegaLiteSchema = "https://vega.github.io/schema/vega-lite/v5.json"

const chartPrompt = `You are a data-visualization expert. Choose the best chart for the user's request and the result columns.
Return ONLY a JSON object:
{"mark": "bar|barh|line|area|point|bubble|pie|donut", "x": "<column>", "y": "<column>", "color": "<column or empty>", "size": "<column or empty>", "title": "<chart title>"}
For pie and donut charts "x" is the category and "y" the value. Honour the user's explicit chart type when given.`

// Chart is the model's choice of chart for a result set.
type Chart struct {
	Mark  string `json:"mark"`
	X     string `json:"x"`
	Y     string `json:"y"`
	Color string `json:"color"`
	Size  string `json:"size"`
	Title string `json:"title"`
}

var marks = []string{"bar", "barh", "line", "area", "point", "bubble", "pie", "donut"}

// VizAgent renders query results as a Vega-Lite chart.
type VizAgent struct {
	llm    llm.Service
	writer writer
	db     *Database
}

var _ agents.Agent = (*VizAgent)(nil)

// NewVizAgent creates the viz agent over db.
func NewVizAgent(llmService llm.Service, db *Database) *VizAgent {
	return &VizAgent{llm: llmService, writer: writer{llm: llmService, db: db}, db: db}
}

func (a *VizAgent) Name() string { return agents.Viz }

func (a *VizAgent) Description() string {
	return "Charts and graphs (bar, line, pie, scatter) of Northwind sales data."
}

func (a *VizAgent) Invoke(ctx context.Context, req *agents.Request) (*agents.Response, error) {
	stmt, err := a.writer.write(ctx, req.Query)
	if err != nil {
		slog.Error("viz agent: generation failed", "error", err)
		return agents.Text(fmt.Sprintf("**Error generating SQL:** %v", err)), nil
	}
	slog.Info("viz agent: generated", "sql", stmt)

	rows, err := a.db.Query(ctx, stmt)
	if err != nil {
		slog.Warn("viz agent: execution failed", "sql", stmt, "error", err)
		return agents.Text(executionError(stmt, err)), nil
	}
	if rows.Len() == 0 {
		return agents.Text(noData(stmt, "data to visualize")), nil
	}

	chart, err := a.choose(ctx, req.Query, rows)
	if err != nil {
		slog.Warn("viz agent: chart choice failed, using default", "error", err)
	}
	chart = chart.normalize(rows)

	spec, err := json.MarshalIndent(VegaLite(chart, rows), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("viz agent: encode chart: %w", err)
	}

	var b strings.Builder
	b.WriteString("### 📊 Visualization\n\n")
	fmt.Fprintf(&b, "```vega-lite\n%s\n```\n\n", spec)
	fmt.Fprintf(&b, "**SQL used:**\n%s\n\n", sqlBlock(stmt))
	fmt.Fprintf(&b, "**Data (%d rows, %d columns):**\n\n", rows.Len(), len(rows.Columns))
	b.WriteString(rows.Markdown(10))
	return agents.Text(b.String()), nil
}

func (a *VizAgent) choose(ctx context.Context, query string, rows *Rows) (Chart, error) {
	sample := *rows
	if len(sample.Values) > 5 {
		sample.Values = sample.Values[:5]
	}
	reply, _, err := a.llm.Chat(ctx, []llm.Message{
		llm.SystemPrompt(chartPrompt),
		llm.UserMessage(fmt.Sprintf("User request: %s\n\nColumns: %s\n\nSample rows:\n%s",
			query, strings.Join(rows.Columns, ", "), sample.Markdown(0))),
	}, llm.WithTemperature(0), llm.WithMaxTokens(200), llm.WithJSONObject())
	if err != nil {
		return Chart{}, err
	}
	var c Chart
	if err := json.Unmarshal([]byte(llm.StripCodeFence(reply)), &c); err != nil {
		return Chart{}, fmt.Errorf("decode chart choice: %w", err)
	}
	return c, nil
}

// normalize drops unknown columns and marks, filling gaps from the data.
func (c Chart) normalize(rows *Rows) Chart {
	has := func(col string) bool { return slices.Contains(rows.Columns, col) }
	c.Mark = strings.ToLower(strings.TrimSpace(c.Mark))
	if !slices.Contains(marks, c.Mark) {
		c.Mark = "bar"
	}

	category, value := defaultAxes(rows)
	if !has(c.X) {
		c.X = category
	}
	if !has(c.Y) || c.Y == c.X {
		c.Y = value
	}
	if !has(c.Color) {
		c.Color = ""
	}
	if !has(c.Size) {
		c.Size = ""
	}
	return c
}

// defaultAxes picks the first text column as category and the first
// numeric column as value.
func defaultAxes(rows *Rows) (category, value string) {
	for i, col := range rows.Columns {
		numeric := isNumericColumn(rows, i)
		if numeric && value == "" {
			value = col
		}
		if !numeric && category == "" {
			category = col
		}
	}
	if category == "" {
		category = rows.Columns[0]
	}
	if value == "" {
		value = rows.Columns[len(rows.Columns)-1]
	}
	return category, value
}

func isNumericColumn(rows *Rows, idx int) bool {
	seen := false
	for _, row := range rows.Values {
		switch row[idx].(type) {
		case nil:
		case int64, float64:
			seen = true
		default:
			return false
		}
	}
	return seen
}

func fieldType(rows *Rows, col string) string {
	if idx := slices.Index(rows.Columns, col); idx >= 0 && isNumericColumn(rows, idx) {
		return "quantitative"
	}
	return "nominal"
}

// VegaLite builds a Vega-Lite v5 spec with the rows inlined.
func VegaLite(c Chart, rows *Rows) map[string]any {
	values := make([]map[string]any, 0, rows.Len())
	for _, row := range rows.Values {
		rec := make(map[string]any, len(rows.Columns))
		for i, col := range rows.Columns {
			rec[col] = row[i]
		}
		values = append(values, rec)
	}

	field := func(col string) map[string]any {
		return map[string]any{"field": col, "type": fieldType(rows, col)}
	}
	mark := map[string]any{"type": c.Mark, "tooltip": true}
	encoding := map[string]any{"x": field(c.X), "y": field(c.Y)}

	switch c.Mark {
	case "barh":
		mark["type"] = "bar"
		encoding["x"], encoding["y"] = field(c.Y), field(c.X)
	case "bubble":
		mark["type"] = "circle"
	case "pie", "donut":
		mark["type"] = "arc"
		if c.Mark == "donut" {
			mark["innerRadius"] = 60
		}
		encoding = map[string]any{
			"theta": map[string]any{"field": c.Y, "type": "quantitative"},
			"color": map[string]any{"field": c.X, "type": "nominal"},
		}
	}
	if c.Color != "" && c.Mark != "pie" && c.Mark != "donut" {
		encoding["color"] = field(c.Color)
	}
	if c.Size != "" {
		encoding["size"] = field(c.Size)
	}

	spec := map[string]any{
		"$schema":  vegaLiteSchema,
		"width":    "container",
		"data":     map[string]any{"values": values},
		"mark":     mark,
		"encoding": encoding,
	}
	if c.Title != "" {
		spec["title"] = c.Title
	}
	return spec
}
