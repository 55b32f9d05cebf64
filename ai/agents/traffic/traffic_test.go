package traffic

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/azuremaps"
	"github.com/hrygo/agenthub/ai/core/llm/llmtest"
)

const routeJSON = `{"routes":[{"summary":{
	"lengthInMeters":394500,"travelTimeInSeconds":13500,"noTrafficTravelTimeInSeconds":12600,
	"historicTrafficTravelTimeInSeconds":13200,"liveTrafficIncidentsTravelTimeInSeconds":13500,
	"trafficDelayInSeconds":900,"departureTime":"2024-03-01T08:00:00-05:00",
	"arrivalTime":"2024-03-01T11:45:00-05:00"}}]}`

var positions = map[string]string{
	"Atlanta":   `{"results":[{"position":{"lat":33.749,"lon":-84.388}}]}`,
	"Charlotte": `{"results":[{"position":{"lat":35.2271,"lon":-80.8431}}]}`,
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search/address/json", func(w http.ResponseWriter, r *http.Request) {
		body, ok := positions[r.URL.Query().Get("query")]
		if !ok {
			body = `{"results":[]}`
		}
		_, _ = io.WriteString(w, body)
	})
	mux.HandleFunc("/routing/1/calculateRoute/33.749,-84.388:35.2271,-80.8431/json", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "tomtom-key", q.Get("key"))
		assert.Equal(t, "true", q.Get("traffic"))
		assert.Equal(t, "fastest", q.Get("routeType"))
		_, _ = io.WriteString(w, routeJSON)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newAgent(mock *llmtest.MockLLM, baseURL string) *Agent {
	maps := azuremaps.New(azuremaps.Config{SubscriptionKey: "maps-key", BaseURL: baseURL})
	return New(mock, maps, Config{TomTomKey: "tomtom-key", TomTomURL: baseURL})
}

func TestExtractPlaces(t *testing.T) {
	tests := []struct {
		query       string
		origin      string
		destination string
	}{
		{"traffic from Atlanta to Charlotte", "Atlanta", "Charlotte"},
		{"Get directions from Atlanta to Charlotte?", "Atlanta", "Charlotte"},
		{"how bad is the drive from Boston to New York City", "Boston", "New York City"},
		{"commute Decatur to Midtown", "Decatur", "Midtown"},
		{"Atlanta to Savannah", "Atlanta", "Savannah"},
		{"is traffic bad right now", "is traffic bad right now", ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			o, d := ExtractPlaces(tt.query)
			assert.Equal(t, tt.origin, o)
			assert.Equal(t, tt.destination, d)
		})
	}
}

func TestInvoke_Route(t *testing.T) {
	srv := newServer(t)
	mock := llmtest.NewMockLLM().WithDefaultResponse("Expect light delays.")

	resp, err := newAgent(mock, srv.URL).Invoke(context.Background(), &agents.Request{Query: "traffic from Atlanta to Charlotte"})
	require.NoError(t, err)
	assert.Equal(t, "Expect light delays.", resp.Content)

	require.Equal(t, 1, mock.CallCount())
	prompt := llmtest.Join(mock.Calls()[0])
	assert.Contains(t, prompt, "## 🚗 Traffic Route — Atlanta → Charlotte")
	assert.Contains(t, prompt, "**Estimated Travel Time:** 3h 45m")
	assert.Contains(t, prompt, "| Distance | 394.5 km (245.1 mi) |")
	assert.Contains(t, prompt, "| Traffic Delay | 15 min |")
}

func TestInvoke_LLMExtractsPlaces(t *testing.T) {
	srv := newServer(t)
	mock := llmtest.NewMockLLM().
		On("Extract the travel origin", `{"origin": "Atlanta", "destination": "Charlotte"}`).
		WithDefaultResponse("summary")

	resp, err := newAgent(mock, srv.URL).Invoke(context.Background(), &agents.Request{Query: "leaving Atlanta for dinner in Charlotte, how long?"})
	require.NoError(t, err)
	assert.Equal(t, "summary", resp.Content)
	assert.Equal(t, 2, mock.CallCount())
}

func TestInvoke_MissingDestination(t *testing.T) {
	mock := llmtest.NewMockLLM().WithDefaultResponse(`{"origin": "Atlanta", "destination": ""}`)

	resp, err := newAgent(mock, "http://127.0.0.1:0").Invoke(context.Background(), &agents.Request{Query: "how is traffic"})
	require.NoError(t, err)
	assert.Equal(t, missingPlacesMessage, resp.Content)
}

func TestInvoke_UnknownDestination(t *testing.T) {
	srv := newServer(t)

	resp, err := newAgent(llmtest.NewMockLLM(), srv.URL).Invoke(context.Background(), &agents.Request{Query: "route from Atlanta to Atlantis"})
	require.NoError(t, err)
	assert.Equal(t, "Could not geocode destination: Atlantis", resp.Content)
}

func TestInvoke_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	resp, err := newAgent(llmtest.NewMockLLM(), srv.URL).Invoke(context.Background(), &agents.Request{Query: "traffic from Atlanta to Charlotte"})
	require.NoError(t, err)
	assert.Contains(t, resp.Content, "Traffic API error: Azure Maps API error: HTTP 403")
}

func TestFormatRoute(t *testing.T) {
	assert.Equal(t, "No route found from **A** to **B**.", FormatRoute(gjson.Parse(`{"routes":[]}`), "A", "B"))

	short := FormatRoute(gjson.Parse(`{"routes":[{"summary":{"travelTimeInSeconds":1500}}]}`), "A", "B")
	assert.Contains(t, short, "**Estimated Travel Time:** 25m")
	assert.Contains(t, short, "| Departure | N/A |")
}
