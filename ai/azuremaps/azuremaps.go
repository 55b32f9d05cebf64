// Package azuremaps wraps the Azure Maps search and weather endpoints used
// by the weather and traffic agents.
package azuremaps

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/hrygo/agenthub/ai/internal/httpapi"
)

// DefaultBaseURL is the public Azure Maps endpoint.
const DefaultBaseURL = "https://atlas.microsoft.com"

const apiVersion = "1.0"

// Config holds Azure Maps credentials.
type Config struct {
	SubscriptionKey string
	ClientID        string
	BaseURL         string
}

// Position is a WGS84 coordinate.
type Position struct {
	Lat float64
	Lon float64
}

// String renders the position as "lat,lon".
func (p Position) String() string {
	return fmt.Sprintf("%g,%g", p.Lat, p.Lon)
}

// Client calls Azure Maps.
type Client struct {
	http *httpapi.Client
	cfg  Config
}

// New creates a client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{
		http: httpapi.New("Azure Maps",
			httpapi.WithHeader("x-ms-client-id", cfg.ClientID),
			httpapi.WithRateLimit(5, 5)),
		cfg: cfg,
	}
}

// Geocode resolves a free-form address. found is false when nothing matched.
func (c *Client) Geocode(ctx context.Context, address string) (pos Position, found bool, err error) {
	res, err := c.get(ctx, "/search/address/json", address)
	if err != nil {
		return Position{}, false, err
	}
	p := res.Get("results.0.position")
	if !p.Exists() {
		return Position{}, false, nil
	}
	return Position{Lat: p.Get("lat").Float(), Lon: p.Get("lon").Float()}, true, nil
}

// CurrentConditions returns the raw currentConditions reply for pos.
func (c *Client) CurrentConditions(ctx context.Context, pos Position) (gjson.Result, error) {
	return c.get(ctx, "/weather/currentConditions/json", pos.String())
}

func (c *Client) get(ctx context.Context, path, query string) (gjson.Result, error) {
	return c.http.GetJSON(ctx, c.cfg.BaseURL+path, url.Values{
		"api-version":      {apiVersion},
		"query":            {query},
		"subscription-key": {c.cfg.SubscriptionKey},
	})
}
