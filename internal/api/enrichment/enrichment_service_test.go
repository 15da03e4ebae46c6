package enrichment

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/traveloure/traveloure-api/internal/types"
)

// MockVenueClient is a mock implementation of venues.Client
type MockVenueClient struct {
	mock.Mock
}

func (m *MockVenueClient) SearchVenueByName(ctx context.Context, name, city, country string) (*types.Venue, error) {
	args := m.Called(ctx, name, city, country)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Venue), args.Error(1)
}

func (m *MockVenueClient) SearchCategory(ctx context.Context, city, country, category string) ([]types.Venue, error) {
	args := m.Called(ctx, city, country, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Venue), args.Error(1)
}

// MockCityContent is a mock implementation of CityContent
type MockCityContent struct {
	mock.Mock
}

func (m *MockCityContent) GetCityProfile(ctx context.Context, city, country string) (*types.CityProfile, error) {
	args := m.Called(ctx, city, country)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.CityProfile), args.Error(1)
}

func (m *MockCityContent) GetHiddenGems(ctx context.Context, city, country string, limit int) ([]types.HiddenGem, error) {
	args := m.Called(ctx, city, country, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.HiddenGem), args.Error(1)
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func setupEnrichmentTest(t *testing.T) (*ServiceImpl, *MockVenueClient, *MockCityContent) {
	t.Helper()
	venueClient := new(MockVenueClient)
	cities := new(MockCityContent)
	logger := slog.New(slog.NewTextHandler(testWriter{t}, nil))
	return NewServiceImpl(venueClient, cities, logger), venueClient, cities
}

func bookingPlatforms(options []types.BookingOption) []string {
	platforms := make([]string, 0, len(options))
	for _, o := range options {
		platforms = append(platforms, o.Platform)
	}
	return platforms
}

func TestEnrichCityRecommendations(t *testing.T) {
	ctx := context.Background()

	t.Run("verified and unresolved suggestions both survive", func(t *testing.T) {
		service, venueClient, _ := setupEnrichmentTest(t)

		venueClient.On("SearchVenueByName", mock.Anything, "Taberna do Mar", "Lisbon", "Portugal").
			Return(&types.Venue{ID: "v1", Name: "Taberna do Mar", Type: "restaurant", Website: "https://taberna.example"}, nil)
		venueClient.On("SearchVenueByName", mock.Anything, "Belem Tower", "Lisbon", "Portugal").
			Return(&types.Venue{ID: "v2", Name: "Torre de Belém", Type: "attraction"}, nil)
		venueClient.On("SearchVenueByName", mock.Anything, "Quiet Courtyard", "Lisbon", "Portugal").
			Return(nil, nil)
		venueClient.On("SearchVenueByName", mock.Anything, "LX Factory", "Lisbon", "Portugal").
			Return(&types.Venue{ID: "v3", Name: "LX Factory", Type: "activity"}, nil)
		venueClient.On("SearchCategory", mock.Anything, "Lisbon", "Portugal", "nightlife").
			Return([]types.Venue{{ID: "n1", Name: "Pensão Amor", Type: "nightlife"}}, nil)
		venueClient.On("SearchCategory", mock.Anything, "Lisbon", "Portugal", "restaurant").
			Return([]types.Venue{{ID: "r2", Name: "Cervejaria Ramiro", Type: "restaurant"}}, nil)

		content, err := service.EnrichCityRecommendations(ctx, "Lisbon", "Portugal", CityRecommendations{
			HiddenGems: []GemCandidate{
				{Name: "Taberna do Mar", Type: "restaurant", WhySpecial: "Tiny seafood counter", PriceRange: "$$"},
				{Name: "Quiet Courtyard", Type: "garden", WhySpecial: "A courtyard locals keep to themselves"},
			},
			MustSeeAttractions: []string{"Belem Tower"},
			WhatsHotNow:        "LX Factory",
		})

		require.NoError(t, err)

		require.Len(t, content.Restaurants, 2)
		verified := content.Restaurants[0]
		assert.Equal(t, types.MatchHigh, verified.MatchConfidence)
		assert.Equal(t, types.ActionReserve, verified.ActionType)
		assert.Equal(t, "Tiny seafood counter", verified.AIReason)
		assert.ElementsMatch(t, []string{"Official Website", "OpenTable"}, bookingPlatforms(verified.BookingOptions))
		backfill := content.Restaurants[1]
		assert.Equal(t, "Highly rated locally", backfill.AIReason)

		require.Len(t, content.Attractions, 1)
		attraction := content.Attractions[0]
		assert.Equal(t, types.MatchMedium, attraction.MatchConfidence, "accented venue name does not share the raw first token")
		assert.Equal(t, types.ActionVisit, attraction.ActionType)
		assert.ElementsMatch(t, []string{"Viator", "GetYourGuide"}, bookingPlatforms(attraction.BookingOptions))

		require.Len(t, content.HiddenGems, 1)
		gem := content.HiddenGems[0]
		assert.Equal(t, "ai-quiet-courtyard", gem.ID)
		assert.Equal(t, "attraction", gem.Type)
		assert.Equal(t, types.MatchHigh, gem.MatchConfidence)
		assert.ElementsMatch(t, []string{"Google Maps", "GetYourGuide"}, bookingPlatforms(gem.BookingOptions))

		require.Len(t, content.Nightlife, 1)
		assert.Equal(t, "Popular nightlife spot", content.Nightlife[0].AIReason)
		assert.Equal(t, types.ActionExplore, content.Nightlife[0].ActionType)
		assert.Empty(t, content.Nightlife[0].BookingOptions)

		require.Len(t, content.TrendingNow, 1)
		assert.Equal(t, types.MatchHigh, content.TrendingNow[0].MatchConfidence)
		assert.Equal(t, types.ActionBook, content.TrendingNow[0].ActionType)
	})

	t.Run("caps lookups at five per category", func(t *testing.T) {
		service, venueClient, _ := setupEnrichmentTest(t)

		names := []string{"One", "Two", "Three", "Four", "Five", "Six", "Seven"}
		venueClient.On("SearchVenueByName", mock.Anything, mock.Anything, "Lisbon", "Portugal").
			Return(nil, nil)
		venueClient.On("SearchCategory", mock.Anything, "Lisbon", "Portugal", mock.Anything).
			Return([]types.Venue{}, nil)

		content, err := service.EnrichCityRecommendations(ctx, "Lisbon", "Portugal", CityRecommendations{
			MustSeeAttractions: names,
		})

		require.NoError(t, err)
		assert.Len(t, content.Attractions, 5)
		venueClient.AssertNumberOfCalls(t, "SearchVenueByName", 5)
	})

	t.Run("nightlife search failure yields an empty bucket", func(t *testing.T) {
		service, venueClient, _ := setupEnrichmentTest(t)

		venueClient.On("SearchCategory", mock.Anything, "Lisbon", "Portugal", "nightlife").
			Return(nil, errors.New("quota exceeded"))
		venueClient.On("SearchCategory", mock.Anything, "Lisbon", "Portugal", "restaurant").
			Return([]types.Venue{}, nil)

		content, err := service.EnrichCityRecommendations(ctx, "Lisbon", "Portugal", CityRecommendations{})

		require.NoError(t, err)
		assert.Empty(t, content.Nightlife)
	})
}

func TestGetEnrichedContentForCity(t *testing.T) {
	ctx := context.Background()

	t.Run("no cached profile means no content", func(t *testing.T) {
		service, _, cities := setupEnrichmentTest(t)
		cities.On("GetCityProfile", mock.Anything, "atlantis", "").Return(nil, nil)

		content, err := service.GetEnrichedContentForCity(ctx, "atlantis", "")

		require.NoError(t, err)
		assert.Nil(t, content)
	})

	t.Run("assembles candidates from the profile and its hidden gems", func(t *testing.T) {
		service, venueClient, cities := setupEnrichmentTest(t)

		cities.On("GetCityProfile", mock.Anything, "Lisbon", "Portugal").Return(&types.CityProfile{
			CityName:             "lisbon",
			Country:              "Portugal",
			CurrentHighlight:     "LX Factory",
			AIMustSeeAttractions: []string{"Belem Tower"},
		}, nil)
		cities.On("GetHiddenGems", mock.Anything, "lisbon", "Portugal", 20).Return([]types.HiddenGem{
			{PlaceName: "Fado Cellar", PlaceType: "bar", Description: "Late night fado in a cellar"},
		}, nil)
		venueClient.On("SearchVenueByName", mock.Anything, mock.Anything, "lisbon", "Portugal").
			Return(nil, nil)
		venueClient.On("SearchCategory", mock.Anything, "lisbon", "Portugal", mock.Anything).
			Return([]types.Venue{}, nil)

		content, err := service.GetEnrichedContentForCity(ctx, "Lisbon", "Portugal")

		require.NoError(t, err)
		require.NotNil(t, content)
		assert.Equal(t, "lisbon", content.CityName)

		require.Len(t, content.HiddenGems, 1)
		gem := content.HiddenGems[0]
		assert.Equal(t, "Fado Cellar", gem.Name)
		assert.Equal(t, "nightlife", gem.Type, "bar keyword maps to nightlife")
		assert.Equal(t, "Late night fado in a cellar", gem.AIReason)
		assert.Equal(t, "$$", gem.AIPriceRange, "missing price range gets the default")

		require.Len(t, content.Attractions, 1)
		assert.Equal(t, "Belem Tower", content.Attractions[0].Name)
		require.Len(t, content.TrendingNow, 1)
		assert.Equal(t, "LX Factory", content.TrendingNow[0].Name)
	})

	t.Run("profile lookup failure propagates", func(t *testing.T) {
		service, _, cities := setupEnrichmentTest(t)
		cities.On("GetCityProfile", mock.Anything, "Lisbon", "Portugal").
			Return(nil, errors.New("connection refused"))

		_, err := service.GetEnrichedContentForCity(ctx, "Lisbon", "Portugal")
		require.Error(t, err)
	})
}
