// Package weather reports current conditions through Azure Maps.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/azuremaps"
	"github.com/hrygo/agenthub/ai/core/llm"
)

const noLocationMessage = "I couldn't determine which location you want weather for. Please specify a city or place."

const extractPrompt = `Extract the single city/location the user wants weather for.
Return ONLY a JSON object: {"location": "<city, state/country>"}.
If multiple locations are mentioned, pick the one most relevant to the weather question.
No explanation, no markdown, just the JSON object.`

const summaryPrompt = `You are the Weather Agent inside a multi-agent AI hub.
The user asked about the weather. Below is the raw weather data retrieved from Azure Maps.
Present it clearly in Markdown, add a brief natural-language summary at the top (e.g. "It's a warm sunny day…"), and keep the detailed table.
If it looks like severe weather, warn the user.`

// locationPrefixes are stripped, longest first, to find the place name.
var locationPrefixes = []string{
	"what is the weather in ", "what's the weather in ",
	"how is the weather in ", "how's the weather in ",
	"current weather in ", "current weather for ",
	"get weather for ", "get weather in ",
	"temperature in ", "temperature at ",
	"weather in ", "weather for ", "weather at ",
	"weather ",
}

// Agent geocodes a place, fetches its current conditions and summarises them.
type Agent struct {
	llm  llm.Service
	maps *azuremaps.Client
}

var _ agents.Agent = (*Agent)(nil)

// New creates the weather agent.
func New(llmService llm.Service, maps *azuremaps.Client) *Agent {
	return &Agent{llm: llmService, maps: maps}
}

func (a *Agent) Name() string { return agents.Weather }

func (a *Agent) Description() string {
	return "Current weather conditions (temperature, humidity, wind, UV, visibility) for a city or place."
}

func (a *Agent) Invoke(ctx context.Context, req *agents.Request) (*agents.Response, error) {
	location := ExtractLocation(req.Query)
	if len(location) > 80 || strings.EqualFold(location, cleanQuery(req.Query)) {
		extracted, err := a.extractWithLLM(ctx, req.Query)
		if err != nil {
			return nil, fmt.Errorf("weather: extract location: %w", err)
		}
		location = extracted
	}
	if location == "" {
		return agents.Text(noLocationMessage), nil
	}

	pos, found, err := a.maps.Geocode(ctx, location)
	if err != nil {
		slog.Error("weather: geocode failed", "location", location, "error", err)
		return agents.Text(fmt.Sprintf("Weather API error: %v", err)), nil
	}
	if !found {
		return agents.Text("Could not geocode location: " + location), nil
	}

	conditions, err := a.maps.CurrentConditions(ctx, pos)
	if err != nil {
		slog.Error("weather: conditions request failed", "location", location, "error", err)
		return agents.Text(fmt.Sprintf("Weather API error: %v", err)), nil
	}

	table := FormatConditions(conditions, location)
	reply, _, err := a.llm.Chat(ctx, []llm.Message{
		llm.SystemPrompt(summaryPrompt),
		llm.UserMessage(fmt.Sprintf("User query: %s\n\nWeather data:\n\n%s", req.Query, table)),
	}, llm.WithTemperature(0.7))
	if err != nil {
		return nil, fmt.Errorf("weather: %w", err)
	}
	return agents.Text(reply), nil
}

// ExtractLocation strips a known weather phrasing from the start of query.
// Without one it returns the cleaned query.
func ExtractLocation(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	trimmed := strings.TrimSpace(query)
	for _, prefix := range locationPrefixes {
		if strings.HasPrefix(q, prefix) {
			return cleanQuery(trimmed[len(prefix):])
		}
	}
	return cleanQuery(query)
}

func cleanQuery(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "?.,!")
}

func (a *Agent) extractWithLLM(ctx context.Context, query string) (string, error) {
	reply, _, err := a.llm.Chat(ctx,
		[]llm.Message{llm.SystemPrompt(extractPrompt), llm.UserMessage(query)},
		llm.WithTemperature(0), llm.WithMaxTokens(60))
	if err != nil {
		return "", err
	}

	text := llm.StripCodeFence(strings.TrimSpace(reply))
	var parsed struct {
		Location string `json:"location"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return strings.Trim(text, `"' `), nil
	}
	return strings.TrimSpace(parsed.Location), nil
}

// FormatConditions renders an Azure Maps currentConditions reply as Markdown.
func FormatConditions(data gjson.Result, location string) string {
	w := data.Get("results.0")
	if !w.Exists() {
		return fmt.Sprintf("No weather data returned for **%s**.", location)
	}

	val := func(path string) string {
		if v := w.Get(path); v.Exists() {
			return v.String()
		}
		return "N/A"
	}
	unit := func(path string) string { return w.Get(path).String() }

	var b strings.Builder
	fmt.Fprintf(&b, "## ☀️ Current Weather — %s\n\n", location)
	fmt.Fprintf(&b, "**Condition:** %s\n\n", val("phrase"))
	b.WriteString("| Metric | Value |\n|--------|-------|\n")
	fmt.Fprintf(&b, "| Temperature | %s° %s |\n", val("temperature.value"), unit("temperature.unit"))
	fmt.Fprintf(&b, "| Feels Like | %s° %s |\n", val("realFeelTemperature.value"), unit("realFeelTemperature.unit"))
	fmt.Fprintf(&b, "| Humidity | %s%% |\n", val("relativeHumidity"))
	fmt.Fprintf(&b, "| Wind | %s %s %s |\n", val("wind.speed.value"), unit("wind.speed.unit"), val("wind.direction.localizedDescription"))
	fmt.Fprintf(&b, "| Visibility | %s %s |\n", val("visibility.value"), unit("visibility.unit"))
	fmt.Fprintf(&b, "| UV Index | %s (%s) |\n", val("uvIndex"), unit("uvIndexPhrase"))
	fmt.Fprintf(&b, "| Cloud Cover | %s%% |\n\n", val("cloudCover"))
	fmt.Fprintf(&b, "*Observed: %s*", unit("dateTime"))
	return b.String()
}
