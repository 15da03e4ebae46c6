package venues

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const localResultsPayload = `{
	"local_results": [
		{
			"title": "Time Out Market",
			"place_id": "pid-123",
			"rating": 4.4,
			"reviews": 8123,
			"price": "$$",
			"types": ["food", "market"],
			"address": "Av. 24 de Julho, Lisbon",
			"website": "https://timeoutmarket.com",
			"gps_coordinates": {"latitude": 38.707, "longitude": -9.146}
		},
		{
			"title": "Cervejaria Ramiro",
			"data_id": "did-456",
			"rating": 4.6,
			"reviews": 21000,
			"types": ["restaurant"]
		}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*SerpClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := &SerpClient{
		logger:     slog.New(slog.DiscardHandler),
		httpClient: server.Client(),
		baseURL:    server.URL,
		apiKey:     "test-key",
		cache:      cache.New(time.Minute, time.Minute),
	}
	return client, server
}

func TestSearchVenueByName(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves the first local result and caches it", func(t *testing.T) {
		calls := 0
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			assert.Equal(t, "google_maps", r.URL.Query().Get("engine"))
			assert.Contains(t, r.URL.Query().Get("q"), "Time Out Market")
			w.Write([]byte(localResultsPayload))
		})

		venue, err := client.SearchVenueByName(ctx, "Time Out Market", "Lisbon", "Portugal")

		require.NoError(t, err)
		require.NotNil(t, venue)
		assert.Equal(t, "pid-123", venue.ID)
		assert.Equal(t, "Time Out Market", venue.Name)
		assert.Equal(t, CategoryRestaurant, venue.Type, "food tag maps to restaurant")
		assert.Equal(t, 4.4, venue.Rating)
		assert.Equal(t, "serp", venue.Source)
		require.NotNil(t, venue.Coordinates)
		assert.Equal(t, 38.707, venue.Coordinates.Lat)

		again, err := client.SearchVenueByName(ctx, "Time Out Market", "Lisbon", "Portugal")
		require.NoError(t, err)
		assert.Equal(t, venue, again)
		assert.Equal(t, 1, calls, "second lookup must come from the cache")
	})

	t.Run("no match returns nil and caches the miss", func(t *testing.T) {
		calls := 0
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Write([]byte(`{"local_results": []}`))
		})

		venue, err := client.SearchVenueByName(ctx, "Nowhere Cafe", "Lisbon", "Portugal")
		require.NoError(t, err)
		assert.Nil(t, venue)

		venue, err = client.SearchVenueByName(ctx, "Nowhere Cafe", "Lisbon", "Portugal")
		require.NoError(t, err)
		assert.Nil(t, venue)
		assert.Equal(t, 1, calls)
	})

	t.Run("missing API key finds nothing without calling out", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("unexpected request")
		})
		client.apiKey = ""

		venue, err := client.SearchVenueByName(ctx, "Anything", "Lisbon", "Portugal")
		require.NoError(t, err)
		assert.Nil(t, venue)
	})

	t.Run("API error payload surfaces as an error", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error": "quota exceeded"}`))
		})

		_, err := client.SearchVenueByName(ctx, "Time Out Market", "Lisbon", "Portugal")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded")
	})
}

func TestSearchCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("labels results with the requested category", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Query().Get("q"), "best restaurants Lisbon Portugal")
			w.Write([]byte(localResultsPayload))
		})

		venues, err := client.SearchCategory(ctx, "Lisbon", "Portugal", CategoryRestaurant)

		require.NoError(t, err)
		require.Len(t, venues, 2)
		assert.Equal(t, CategoryRestaurant, venues[0].Type)
		assert.Equal(t, "did-456", venues[1].ID, "data_id backfills a missing place_id")
	})

	t.Run("http failure is an error", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.SearchCategory(ctx, "Lisbon", "Portugal", CategoryNightlife)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})
}

func TestInferVenueType(t *testing.T) {
	assert.Equal(t, CategoryRestaurant, inferVenueType([]string{"cafe", "bakery"}))
	assert.Equal(t, CategoryNightlife, inferVenueType([]string{"night club"}))
	assert.Equal(t, "hotel", inferVenueType([]string{"lodging"}))
	assert.Equal(t, CategoryAttraction, inferVenueType([]string{"tourist attraction"}))
	assert.Equal(t, "activity", inferVenueType(nil))
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "best-restaurants-lisbon-portugal-restaurant", cacheKey("Best  Restaurants", "Lisbon Portugal", "restaurant"))
}
