package weather

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

const conditionsJSON = `{"results":[{
	"dateTime":"2024-03-01T12:00:00-05:00","phrase":"Sunny",
	"temperature":{"value":22.5,"unit":"C"},"realFeelTemperature":{"value":24,"unit":"C"},
	"relativeHumidity":40,"wind":{"direction":{"localizedDescription":"NW"},"speed":{"value":11,"unit":"km/h"}},
	"uvIndex":5,"uvIndexPhrase":"Moderate","visibility":{"value":16.1,"unit":"km"},"cloudCover":10}]}`

func newServer(t *testing.T, geocode string) (*httptest.Server, *[]string) {
	t.Helper()
	var queries []string
	mux := http.NewServeMux()
	mux.HandleFunc("/search/address/json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-1", r.URL.Query().Get("subscription-key"))
		assert.Equal(t, "client-1", r.Header.Get("x-ms-client-id"))
		queries = append(queries, r.URL.Query().Get("query"))
		_, _ = io.WriteString(w, geocode)
	})
	mux.HandleFunc("/weather/currentConditions/json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "33.749,-84.388", r.URL.Query().Get("query"))
		_, _ = io.WriteString(w, conditionsJSON)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &queries
}

func testMaps(baseURL string) *azuremaps.Client {
	return azuremaps.New(azuremaps.Config{SubscriptionKey: "key-1", ClientID: "client-1", BaseURL: baseURL})
}

const atlanta = `{"results":[{"position":{"lat":33.749,"lon":-84.388}}]}`

func TestExtractLocation(t *testing.T) {
	tests := map[string]string{
		"weather in Atlanta":                   "Atlanta",
		"What's the weather in Paris, France?": "Paris, France",
		"temperature at Denver!":               "Denver",
		"is it going to rain tomorrow":         "is it going to rain tomorrow",
	}
	for in, want := range tests {
		assert.Equal(t, want, ExtractLocation(in), in)
	}
}

func TestInvoke_PrefixLocation(t *testing.T) {
	srv, queries := newServer(t, atlanta)
	mock := llmtest.NewMockLLM().WithDefaultResponse("It's a sunny day in Atlanta.")

	a := New(mock, testMaps(srv.URL))
	resp, err := a.Invoke(context.Background(), &agents.Request{Query: "weather in Atlanta"})
	require.NoError(t, err)
	assert.Equal(t, "It's a sunny day in Atlanta.", resp.Content)
	assert.Equal(t, []string{"Atlanta"}, *queries)

	require.Equal(t, 1, mock.CallCount(), "no extraction call for a prefixed query")
	prompt := llmtest.Join(mock.Calls()[0])
	assert.Contains(t, prompt, "## ☀️ Current Weather — Atlanta")
	assert.Contains(t, prompt, "| Temperature | 22.5° C |")
	assert.Contains(t, prompt, "| Wind | 11 km/h NW |")
}

func TestInvoke_LLMExtractsLocation(t *testing.T) {
	srv, queries := newServer(t, atlanta)
	mock := llmtest.NewMockLLM().
		On("Extract the single city", "```json\n{\"location\": \"Atlanta, GA\"}\n```").
		WithDefaultResponse("summary")

	a := New(mock, testMaps(srv.URL))
	_, err := a.Invoke(context.Background(), &agents.Request{Query: "I'm flying to Atlanta tomorrow, will I need an umbrella?"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Atlanta, GA"}, *queries)
	assert.Equal(t, 2, mock.CallCount())
}

func TestInvoke_UnknownPlace(t *testing.T) {
	srv, _ := newServer(t, `{"results":[]}`)
	a := New(llmtest.NewMockLLM(), testMaps(srv.URL))

	resp, err := a.Invoke(context.Background(), &agents.Request{Query: "weather in Atlantis"})
	require.NoError(t, err)
	assert.Equal(t, "Could not geocode location: Atlantis", resp.Content)
}

func TestInvoke_NoLocation(t *testing.T) {
	mock := llmtest.NewMockLLM().WithDefaultResponse(`{"location": ""}`)
	a := New(mock, testMaps("http://127.0.0.1:0"))

	resp, err := a.Invoke(context.Background(), &agents.Request{Query: "how warm is it"})
	require.NoError(t, err)
	assert.Equal(t, noLocationMessage, resp.Content)
}

func TestFormatConditions_Empty(t *testing.T) {
	assert.Equal(t, "No weather data returned for **Oslo**.", FormatConditions(gjson.Parse(`{"results":[]}`), "Oslo"))
}
