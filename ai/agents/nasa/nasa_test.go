package nasa

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/core/llm/llmtest"
)

func newTestAgent(t *testing.T, mock *llmtest.MockLLM) (*Agent, *http.ServeMux) {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	a := New(mock, Config{APIKey: "test-key", APIURL: srv.URL, ImagesURL: srv.URL})
	a.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return a, mux
}

func TestSelectEndpoint(t *testing.T) {
	tests := map[string]Endpoint{
		"show me today's APOD":               EndpointAPOD,
		"astronomy picture of the day":       EndpointAPOD,
		"photos from the Perseverance rover": EndpointMarsRover,
		"any asteroids this week?":           EndpointNEO,
		"list NEO objects":                   EndpointNEO,
		"pictures of the Crab Nebula":        EndpointImageSearch,
		"a neon sign in space":               EndpointImageSearch,
	}
	for q, want := range tests {
		assert.Equal(t, want, SelectEndpoint(q), q)
	}
}

func TestFetch_APOD(t *testing.T) {
	a, mux := newTestAgent(t, nil)
	mux.HandleFunc("/planetary/apod", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "2024-03-01", r.URL.Query().Get("date"))
		_, _ = io.WriteString(w, `{"date":"2024-03-01","title":"Horsehead Nebula","explanation":"Dark dust.","url":"https://apod/h.jpg"}`)
	})

	out, err := a.Fetch(context.Background(), "apod please")
	require.NoError(t, err)
	assert.Contains(t, out, "**Astronomy Picture of the Day (2024-03-01)**")
	assert.Contains(t, out, "**Title:** Horsehead Nebula")
	assert.Contains(t, out, "**HD URL:** N/A")
}

func TestFetch_MarsRover(t *testing.T) {
	a, mux := newTestAgent(t, nil)
	mux.HandleFunc("/mars-photos/api/v1/rovers/spirit/photos", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1000", r.URL.Query().Get("sol"))
		_, _ = io.WriteString(w, `{"photos":[{"id":7,"camera":{"full_name":"Panoramic Camera"},"earth_date":"2006-10-04","img_src":"https://mars/7.jpg"}]}`)
	})

	out, err := a.Fetch(context.Background(), "spirit rover photos")
	require.NoError(t, err)
	assert.Contains(t, out, "**Mars Rover Photos – Spirit**")
	assert.Contains(t, out, "- ID 7 | Camera: Panoramic Camera | Earth Date: 2006-10-04 | URL: https://mars/7.jpg")
}

func TestFetch_NEO(t *testing.T) {
	a, mux := newTestAgent(t, nil)
	mux.HandleFunc("/neo/rest/v1/feed", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-03-01", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2024-03-04", r.URL.Query().Get("end_date"))
		_, _ = io.WriteString(w, `{"near_earth_objects":{
			"2024-03-02":[{"name":"(2024 EA)","absolute_magnitude_h":24.1,"is_potentially_hazardous_asteroid":false}],
			"2024-03-01":[{"name":"433 Eros","absolute_magnitude_h":10.4,"is_potentially_hazardous_asteroid":true}]}}`)
	})

	out, err := a.Fetch(context.Background(), "near earth asteroids")
	require.NoError(t, err)
	assert.Contains(t, out, "- 433 Eros | Magnitude: 10.4 | Hazardous: true\n- (2024 EA) | Magnitude: 24.1 | Hazardous: false")
}

func TestFetch_ImageSearch(t *testing.T) {
	a, mux := newTestAgent(t, nil)
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "image", r.URL.Query().Get("media_type"))
		_, _ = io.WriteString(w, `{"collection":{"items":[{"data":[{"title":"Crab Nebula"}],"links":[{"href":"https://img/crab.jpg"}]}]}}`)
	})

	out, err := a.Fetch(context.Background(), "crab nebula")
	require.NoError(t, err)
	assert.Contains(t, out, "- Crab Nebula | https://img/crab.jpg")
}

func TestInvoke_APIErrorIsExplained(t *testing.T) {
	mock := llmtest.NewMockLLM().WithDefaultResponse("NASA is unavailable right now.")
	a, mux := newTestAgent(t, mock)
	mux.HandleFunc("/search", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	resp, err := a.Invoke(context.Background(), &agents.Request{Query: "galaxies"})
	require.NoError(t, err)
	assert.Equal(t, "NASA is unavailable right now.", resp.Content)
	assert.Contains(t, llmtest.Join(mock.Calls()[0]), "Error querying NASA API: NASA API error: HTTP 503")
}
