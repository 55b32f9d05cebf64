// Package nasa answers space questions from the public NASA APIs.
package nasa

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/core/llm"
	"github.com/hrygo/agenthub/ai/internal/httpapi"
	"github.com/hrygo/agenthub/ai/internal/strutil"
)

const (
	DefaultAPIURL    = "https://api.nasa.gov"
	DefaultImagesURL = "https://images-api.nasa.gov"
	DefaultAPIKey    = "DEMO_KEY"

	maxItems = 5
)

const systemPrompt = `You are the NASA Agent inside a multi-agent AI hub.
Use the NASA data provided below to give the user a helpful, well-structured answer. Include relevant links and details.
If the data is an error message, explain what happened.`

// Config configures the NASA agent.
type Config struct {
	APIKey    string
	APIURL    string
	ImagesURL string
	// RequestsPerSecond throttles calls to api.nasa.gov.
	RequestsPerSecond float64
}

// DefaultConfig returns the public endpoints with the demo key.
func DefaultConfig() Config {
	return Config{
		APIKey:            DefaultAPIKey,
		APIURL:            DefaultAPIURL,
		ImagesURL:         DefaultImagesURL,
		RequestsPerSecond: 1,
	}
}

// Agent fetches NASA data and lets the model phrase the answer.
type Agent struct {
	llm    llm.Service
	client *httpapi.Client
	cfg    Config
	now    func() time.Time
}

var _ agents.Agent = (*Agent)(nil)

// New creates the NASA agent.
func New(llmService llm.Service, cfg Config) *Agent {
	def := DefaultConfig()
	if cfg.APIKey == "" {
		cfg.APIKey = def.APIKey
	}
	if cfg.APIURL == "" {
		cfg.APIURL = def.APIURL
	}
	if cfg.ImagesURL == "" {
		cfg.ImagesURL = def.ImagesURL
	}
	return &Agent{
		llm:    llmService,
		client: httpapi.New("NASA", httpapi.WithRateLimit(cfg.RequestsPerSecond, 5)),
		cfg:    cfg,
		now:    time.Now,
	}
}

func (a *Agent) Name() string { return agents.NASA }

func (a *Agent) Description() string {
	return "NASA data: Astronomy Picture of the Day, Mars rover photos, near-Earth asteroids and the NASA image library."
}

func (a *Agent) Invoke(ctx context.Context, req *agents.Request) (*agents.Response, error) {
	data, err := a.Fetch(ctx, req.Query)
	if err != nil {
		slog.Error("nasa: fetch failed", "error", err)
		data = fmt.Sprintf("Error querying NASA API: %v", err)
	}

	reply, _, err := a.llm.Chat(ctx, []llm.Message{
		llm.SystemPrompt(systemPrompt),
		llm.UserMessage(fmt.Sprintf("User query: %s\n\n--- NASA DATA ---\n%s", req.Query, data)),
	}, llm.WithTemperature(0.4))
	if err != nil {
		return nil, fmt.Errorf("nasa: %w", err)
	}
	return agents.Text(reply), nil
}

// Endpoint is the NASA feature picked for a query.
type Endpoint string

const (
	EndpointAPOD        Endpoint = "apod"
	EndpointMarsRover   Endpoint = "mars_rover"
	EndpointNEO         Endpoint = "neo"
	EndpointImageSearch Endpoint = "image_search"
)

// SelectEndpoint picks the feature by keyword, defaulting to image search.
func SelectEndpoint(query string) Endpoint {
	q := strings.ToLower(query)
	switch {
	case strutil.ContainsAnyPhrase(q, []string{"apod", "picture of the day", "astronomy picture"}):
		return EndpointAPOD
	case strutil.ContainsAnyPhrase(q, []string{"mars", "rover"}):
		return EndpointMarsRover
	case strutil.ContainsAnyPhrase(q, []string{"neo", "near earth", "asteroid"}):
		return EndpointNEO
	}
	return EndpointImageSearch
}

// Fetch retrieves and formats the NASA data for query as Markdown.
func (a *Agent) Fetch(ctx context.Context, query string) (string, error) {
	switch SelectEndpoint(query) {
	case EndpointAPOD:
		return a.apod(ctx)
	case EndpointMarsRover:
		return a.marsRover(ctx, query)
	case EndpointNEO:
		return a.neo(ctx)
	}
	return a.imageSearch(ctx, query)
}

func (a *Agent) apod(ctx context.Context) (string, error) {
	today := a.now().Format(time.DateOnly)
	res, err := a.client.GetJSON(ctx, a.cfg.APIURL+"/planetary/apod", url.Values{"api_key": {a.cfg.APIKey}, "date": {today}})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("**Astronomy Picture of the Day (%s)**\n\n**Title:** %s\n\n**Explanation:** %s\n\n**Image URL:** %s\n\n**HD URL:** %s",
		orNA(res.Get("date").String(), today),
		orNA(res.Get("title").String(), ""),
		orNA(res.Get("explanation").String(), ""),
		orNA(res.Get("url").String(), ""),
		orNA(res.Get("hdurl").String(), "")), nil
}

func (a *Agent) marsRover(ctx context.Context, query string) (string, error) {
	q := strings.ToLower(query)
	rover := "curiosity"
	for _, name := range []string{"opportunity", "spirit", "perseverance"} {
		if strings.Contains(q, name) {
			rover = name
			break
		}
	}

	res, err := a.client.GetJSON(ctx, a.cfg.APIURL+"/mars-photos/api/v1/rovers/"+rover+"/photos",
		url.Values{"api_key": {a.cfg.APIKey}, "sol": {"1000"}})
	if err != nil {
		return "", err
	}
	photos := res.Get("photos").Array()
	if len(photos) == 0 {
		return "No Mars rover photos found for that sol.", nil
	}

	lines := []string{fmt.Sprintf("**Mars Rover Photos – %s** (first %d):", strings.ToUpper(rover[:1])+rover[1:], maxItems)}
	for _, p := range head(photos) {
		lines = append(lines, fmt.Sprintf("- ID %d | Camera: %s | Earth Date: %s | URL: %s",
			p.Get("id").Int(),
			orNA(p.Get("camera.full_name").String(), "Unknown"),
			p.Get("earth_date").String(),
			p.Get("img_src").String()))
	}
	return strings.Join(lines, "\n"), nil
}

func (a *Agent) neo(ctx context.Context) (string, error) {
	start := a.now()
	res, err := a.client.GetJSON(ctx, a.cfg.APIURL+"/neo/rest/v1/feed", url.Values{
		"api_key":    {a.cfg.APIKey},
		"start_date": {start.Format(time.DateOnly)},
		"end_date":   {start.AddDate(0, 0, 3).Format(time.DateOnly)},
	})
	if err != nil {
		return "", err
	}

	// The feed is keyed by date; walk the days in order.
	var neos []gjson.Result
	for day := 0; day <= 3 && len(neos) < maxItems; day++ {
		key := start.AddDate(0, 0, day).Format(time.DateOnly)
		neos = append(neos, res.Get("near_earth_objects."+key).Array()...)
	}
	if len(neos) == 0 {
		return "No NEO data available for the next 3 days.", nil
	}

	lines := []string{fmt.Sprintf("**Near Earth Objects** (next 3 days, first %d):", maxItems)}
	for _, n := range head(neos) {
		lines = append(lines, fmt.Sprintf("- %s | Magnitude: %s | Hazardous: %t",
			orNA(n.Get("name").String(), "?"),
			orNA(n.Get("absolute_magnitude_h").Raw, ""),
			n.Get("is_potentially_hazardous_asteroid").Bool()))
	}
	return strings.Join(lines, "\n"), nil
}

func (a *Agent) imageSearch(ctx context.Context, query string) (string, error) {
	res, err := a.client.GetJSON(ctx, a.cfg.ImagesURL+"/search", url.Values{"q": {query}, "media_type": {"image"}})
	if err != nil {
		return "", err
	}
	items := res.Get("collection.items").Array()
	if len(items) == 0 {
		return fmt.Sprintf("No NASA results found for '%s'.", query), nil
	}

	lines := []string{fmt.Sprintf("**NASA Image Search** for %q (top %d):", query, maxItems)}
	for _, item := range head(items) {
		lines = append(lines, fmt.Sprintf("- %s | %s",
			orNA(item.Get("data.0.title").String(), "Untitled"),
			orNA(item.Get("links.0.href").String(), "")))
	}
	return strings.Join(lines, "\n"), nil
}

func head(items []gjson.Result) []gjson.Result {
	if len(items) > maxItems {
		return items[:maxItems]
	}
	return items
}

func orNA(v, fallback string) string {
	if v != "" {
		return v
	}
	if fallback != "" {
		return fallback
	}
	return "N/A"
}
