// Package traffic reports routes with live traffic from TomTom.
package traffic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/azuremaps"
	"github.com/hrygo/agenthub/ai/core/llm"
	"github.com/hrygo/agenthub/ai/internal/httpapi"
)

// DefaultTomTomURL is the TomTom routing endpoint.
const DefaultTomTomURL = "https://api.tomtom.com"

const missingPlacesMessage = "I need both an **origin** and a **destination** to look up traffic. " +
	"Try something like: *traffic from Atlanta to Charlotte*"

const extractPrompt = `Extract the travel origin and destination from the user's message.
Return ONLY a JSON object: {"origin": "<place>", "destination": "<place>"}.
If the destination is not explicitly stated but implied (e.g. "dinner in Atlanta" implies Atlanta is the destination), infer it.
No explanation, no markdown, just the JSON object.`

const summaryPrompt = `You are the Traffic Agent inside a multi-agent AI hub.
The user asked about traffic or directions. Below is the route data retrieved from TomTom.
Present it clearly in Markdown with a brief natural-language summary (e.g. "Expect moderate delays…"), keep the detailed table, and add any helpful driving tips if relevant.`

var routePrefixes = []string{
	"get directions from ", "get traffic from ", "get route from ",
	"traffic from ", "route from ", "directions from ",
	"driving from ", "drive from ", "commute from ",
	"how long from ", "travel from ", "distance from ",
}

var originKeywords = []string{"traffic ", "route ", "directions ", "driving ", "commute ", "distance "}

// Config configures the traffic agent.
type Config struct {
	TomTomKey string
	TomTomURL string
}

// Agent geocodes both ends of a trip and asks TomTom for a traffic-aware route.
type Agent struct {
	llm    llm.Service
	maps   *azuremaps.Client
	tomtom *httpapi.Client
	cfg    Config
}

var _ agents.Agent = (*Agent)(nil)

// New creates the traffic agent.
func New(llmService llm.Service, maps *azuremaps.Client, cfg Config) *Agent {
	if cfg.TomTomURL == "" {
		cfg.TomTomURL = DefaultTomTomURL
	}
	return &Agent{
		llm:    llmService,
		maps:   maps,
		tomtom: httpapi.New("TomTom", httpapi.WithRateLimit(5, 5)),
		cfg:    cfg,
	}
}

func (a *Agent) Name() string { return agents.Traffic }

func (a *Agent) Description() string {
	return "Driving routes between two places with live traffic: travel time, distance, delays, departure and arrival."
}

func (a *Agent) Invoke(ctx context.Context, req *agents.Request) (*agents.Response, error) {
	origin, destination := ExtractPlaces(req.Query)
	if destination == "" || len(origin) > 80 {
		var err error
		origin, destination, err = a.extractWithLLM(ctx, req.Query)
		if err != nil {
			return nil, fmt.Errorf("traffic: extract places: %w", err)
		}
	}
	if origin == "" || destination == "" {
		return agents.Text(missingPlacesMessage), nil
	}

	route, msg, err := a.route(ctx, origin, destination)
	if err != nil {
		slog.Error("traffic: route lookup failed", "origin", origin, "destination", destination, "error", err)
		return agents.Text(fmt.Sprintf("Traffic API error: %v", err)), nil
	}
	if msg != "" {
		return agents.Text(msg), nil
	}

	table := FormatRoute(route, origin, destination)
	reply, _, err := a.llm.Chat(ctx, []llm.Message{
		llm.SystemPrompt(summaryPrompt),
		llm.UserMessage(fmt.Sprintf("User query: %s\n\nRoute data:\n\n%s", req.Query, table)),
	}, llm.WithTemperature(0.7))
	if err != nil {
		return nil, fmt.Errorf("traffic: %w", err)
	}
	return agents.Text(reply), nil
}

// ExtractPlaces finds "from X to Y" style origin and destination. The
// destination is empty when the query has no recognisable shape.
func ExtractPlaces(query string) (origin, destination string) {
	trimmed := strings.TrimSpace(query)
	q := strings.ToLower(trimmed)

	for _, prefix := range routePrefixes {
		if !strings.HasPrefix(q, prefix) {
			continue
		}
		if o, d, ok := splitTo(trimmed, q, len(prefix)); ok {
			return o, d
		}
	}

	if !strings.Contains(q, " to ") {
		return trimmed, ""
	}
	if idx := strings.Index(q, "from "); idx >= 0 {
		if o, d, ok := splitTo(trimmed, q, idx+len("from ")); ok {
			return o, d
		}
	}

	o, d, _ := splitTo(trimmed, q, 0)
	lower := strings.ToLower(o)
	for _, kw := range originKeywords {
		if strings.HasPrefix(lower, kw) {
			o = strings.TrimSpace(o[len(kw):])
			break
		}
	}
	return o, d
}

// splitTo splits original at the first " to " after offset, using lower for matching.
func splitTo(original, lower string, offset int) (string, string, bool) {
	idx := strings.Index(lower[offset:], " to ")
	if idx < 0 {
		return "", "", false
	}
	idx += offset
	return clean(original[offset:idx]), clean(original[idx+len(" to "):]), true
}

func clean(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "?.,!")
}

func (a *Agent) extractWithLLM(ctx context.Context, query string) (string, string, error) {
	reply, _, err := a.llm.Chat(ctx,
		[]llm.Message{llm.SystemPrompt(extractPrompt), llm.UserMessage(query)},
		llm.WithTemperature(0), llm.WithMaxTokens(80))
	if err != nil {
		return "", "", err
	}
	var parsed struct {
		Origin      string `json:"origin"`
		Destination string `json:"destination"`
	}
	if err := json.Unmarshal([]byte(llm.StripCodeFence(strings.TrimSpace(reply))), &parsed); err != nil {
		return "", "", nil
	}
	return strings.TrimSpace(parsed.Origin), strings.TrimSpace(parsed.Destination), nil
}

// route returns the TomTom reply, or a user-facing message when a place cannot be geocoded.
func (a *Agent) route(ctx context.Context, origin, destination string) (gjson.Result, string, error) {
	from, found, err := a.maps.Geocode(ctx, origin)
	if err != nil {
		return gjson.Result{}, "", err
	}
	if !found {
		return gjson.Result{}, "Could not geocode origin: " + origin, nil
	}
	to, found, err := a.maps.Geocode(ctx, destination)
	if err != nil {
		return gjson.Result{}, "", err
	}
	if !found {
		return gjson.Result{}, "Could not geocode destination: " + destination, nil
	}

	path := fmt.Sprintf("%s/routing/1/calculateRoute/%s:%s/json", a.cfg.TomTomURL, from, to)
	res, err := a.tomtom.GetJSON(ctx, path, url.Values{
		"routeType":         {"fastest"},
		"traffic":           {"true"},
		"travelMode":        {"car"},
		"avoid":             {"unpavedRoads"},
		"vehicleCommercial": {"false"},
		"departAt":          {"now"},
		"key":               {a.cfg.TomTomKey},
	})
	return res, "", err
}

// FormatRoute renders the first TomTom route as Markdown.
func FormatRoute(data gjson.Result, origin, destination string) string {
	summary := data.Get("routes.0.summary")
	if !summary.Exists() {
		return fmt.Sprintf("No route found from **%s** to **%s**.", origin, destination)
	}

	minutes := func(path string) int64 { return summary.Get(path).Int() / 60 }
	lengthKm := summary.Get("lengthInMeters").Float() / 1000
	travel := minutes("travelTimeInSeconds")

	display := fmt.Sprintf("%dm", travel)
	if travel >= 60 {
		display = fmt.Sprintf("%dh %dm", travel/60, travel%60)
	}
	orNA := func(path string) string {
		if v := summary.Get(path).String(); v != "" {
			return v
		}
		return "N/A"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## 🚗 Traffic Route — %s → %s\n\n", origin, destination)
	fmt.Fprintf(&b, "**Estimated Travel Time:** %s\n\n", display)
	b.WriteString("| Metric | Value |\n|--------|-------|\n")
	fmt.Fprintf(&b, "| Distance | %.1f km (%.1f mi) |\n", lengthKm, lengthKm*0.621371)
	fmt.Fprintf(&b, "| Travel Time (with traffic) | %d min |\n", travel)
	fmt.Fprintf(&b, "| Travel Time (no traffic) | %d min |\n", minutes("noTrafficTravelTimeInSeconds"))
	fmt.Fprintf(&b, "| Historic Avg Travel Time | %d min |\n", minutes("historicTrafficTravelTimeInSeconds"))
	fmt.Fprintf(&b, "| Live Traffic Incidents Time | %d min |\n", minutes("liveTrafficIncidentsTravelTimeInSeconds"))
	fmt.Fprintf(&b, "| Traffic Delay | %d min |\n", minutes("trafficDelayInSeconds"))
	fmt.Fprintf(&b, "| Departure | %s |\n", orNA("departureTime"))
	fmt.Fprintf(&b, "| Arrival | %s |\n", orNA("arrivalTime"))
	return b.String()
}
