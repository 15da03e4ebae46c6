package tripoptimizer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/traveloure/traveloure-api/internal/types"
)

// MockOrchestrator is a mock implementation of Orchestrator
type MockOrchestrator struct {
	mock.Mock
}

func (m *MockOrchestrator) GetRealTimeIntelligence(ctx context.Context, req types.RealTimeIntelligenceRequest, opts types.CallOptions) (*types.RealTimeIntelligence, error) {
	args := m.Called(ctx, req, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RealTimeIntelligence), args.Error(1)
}

func (m *MockOrchestrator) GenerateAutonomousItinerary(ctx context.Context, req types.AutonomousItineraryRequest, opts types.CallOptions) (*types.AutonomousItineraryResult, error) {
	args := m.Called(ctx, req, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.AutonomousItineraryResult), args.Error(1)
}

// MockCityIntelligence is a mock implementation of CityIntelligence
type MockCityIntelligence struct {
	mock.Mock
}

func (m *MockCityIntelligence) GetCityProfile(ctx context.Context, city, country string) (*types.CityProfile, error) {
	args := m.Called(ctx, city, country)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.CityProfile), args.Error(1)
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func setupOptimizerTest(t *testing.T) (*ServiceImpl, *MockOrchestrator, *MockCityIntelligence) {
	t.Helper()
	orchestrator := new(MockOrchestrator)
	intelligence := new(MockCityIntelligence)
	logger := slog.New(slog.NewTextHandler(testWriter{t}, nil))
	return NewServiceImpl(orchestrator, intelligence, logger), orchestrator, intelligence
}

// intelFixture builds an intelligence snapshot from its wire form so the
// nested literal structs stay out of the test bodies.
func intelFixture(t *testing.T, payload string) *types.RealTimeIntelligence {
	t.Helper()
	var intel types.RealTimeIntelligence
	require.NoError(t, json.Unmarshal([]byte(payload), &intel))
	return &intel
}

const lisbonIntelJSON = `{
	"destination": "Lisbon, Portugal",
	"events": [
		{"name": "Fado Festival", "date": "2026-06-12", "type": "festival", "relevance": "high"},
		{"name": "Tech Meetup", "date": "2026-06-13", "type": "convention", "relevance": "low"}
	],
	"weatherForecast": {
		"summary": "Warm and dry all week",
		"temperature": {"high": 82, "low": 63},
		"conditions": "sunny"
	},
	"safetyAlerts": [
		{"level": "info", "message": "Pickpockets active on tram 28", "source": "local police"}
	],
	"trendingExperiences": [
		{"name": "LX Factory food tour", "reason": "viral", "popularity": 92},
		{"name": "Sunset sail on the Tagus", "reason": "summer", "popularity": 88},
		{"name": "Sintra day trip", "reason": "always", "popularity": 85},
		{"name": "Azulejo workshop", "reason": "crafts", "popularity": 71}
	],
	"deals": [
		{"title": "Summer Pass", "discount": "20% off", "validUntil": "2026-06-30"},
		{"title": "Museum Bundle", "discount": "2-for-1", "validUntil": "2026-07-15"}
	]
}`

func optimizationRequest() types.TripOptimizationRequest {
	budget := 1000.0
	return types.TripOptimizationRequest{
		Destination: "Lisbon, Portugal",
		Dates:       types.DateRange{Start: "2026-06-10", End: "2026-06-15"},
		Travelers:   2,
		Budget:      &budget,
		Interests:   []string{"food", "history", "art", "architecture"},
		CartItems: []types.CartItem{
			{ID: "c1", Type: "activity", Name: "Tram 28 Tour", Price: 35},
			{ID: "c2", Type: "activity", Name: "Pastel de Nata Workshop", Price: 60},
		},
		MustSeeAttractions: []string{"Belem Tower"},
	}
}

func TestGenerateOptimizedItineraries(t *testing.T) {
	ctx := context.Background()

	t.Run("returns three variations in document order when intelligence is available", func(t *testing.T) {
		service, orchestrator, intelligence := setupOptimizerTest(t)
		req := optimizationRequest()
		intel := intelFixture(t, lisbonIntelJSON)
		profile := &types.CityProfile{CityName: "lisbon", Country: "Portugal", AIBestTimeToVisit: "spring"}

		orchestrator.On("GetRealTimeIntelligence", mock.Anything, mock.MatchedBy(func(r types.RealTimeIntelligenceRequest) bool {
			return r.Destination == "Lisbon, Portugal" && len(r.Topics) == 5
		}), mock.Anything).Return(intel, nil)
		intelligence.On("GetCityProfile", mock.Anything, "Lisbon", "Portugal").Return(profile, nil)

		var generated []types.AutonomousItineraryRequest
		orchestrator.On("GenerateAutonomousItinerary", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				generated = append(generated, args.Get(1).(types.AutonomousItineraryRequest))
			}).
			Return(&types.AutonomousItineraryResult{Title: "Lisbon Highlights", TotalEstimatedCost: 1400}, nil)

		result, err := service.GenerateOptimizedItineraries(ctx, req, types.CallOptions{})

		require.NoError(t, err)
		require.Len(t, result.Variations, 3)
		assert.Equal(t, types.VariationUserPlan, result.Variations[0].VariationType)
		assert.Equal(t, types.VariationWeatherOptimized, result.Variations[1].VariationType)
		assert.Equal(t, types.VariationBestValue, result.Variations[2].VariationType)
		assert.Equal(t, "Your Custom Plan", result.Variations[0].VariationLabel)
		assert.Equal(t, "Weather & Events Optimized", result.Variations[1].VariationLabel)
		assert.Equal(t, "Best Value", result.Variations[2].VariationLabel)
		assert.Same(t, intel, result.RealTimeIntelligence)

		_, parseErr := time.Parse(time.RFC3339, result.GeneratedAt)
		assert.NoError(t, parseErr)

		userPlan := result.Variations[0]
		assert.Contains(t, userPlan.OptimizationInsights, "Tailored for 2 travelers")
		assert.Contains(t, userPlan.OptimizationInsights, "Pace: moderate")
		assert.Contains(t, userPlan.OptimizationInsights, "Includes 2 selected activities")
		assert.Contains(t, userPlan.OptimizationInsights, "Interests: food, history, art")
		assert.Zero(t, userPlan.RealTimeFactors)

		weather := result.Variations[1]
		assert.Contains(t, weather.OptimizationInsights, "Weather-aware scheduling: sunny")
		assert.Contains(t, weather.OptimizationInsights, "2 local events considered")
		assert.Contains(t, weather.OptimizationInsights, "1 safety advisories reviewed")
		assert.True(t, weather.RealTimeFactors.WeatherUsed)
		assert.Equal(t, 1, weather.RealTimeFactors.EventsIncluded)
		assert.Equal(t, 1, weather.RealTimeFactors.SafetyAlertsConsidered)

		value := result.Variations[2]
		assert.Contains(t, value.OptimizationInsights, "2 current deals applied")
		assert.Contains(t, value.OptimizationInsights, "Featured: Summer Pass - 20% off")
		assert.Contains(t, value.OptimizationInsights, "4 trending experiences included")
		assert.Contains(t, value.OptimizationInsights, "Budget-conscious alternatives selected")
		assert.Equal(t, 2, value.RealTimeFactors.DealsApplied)

		// Every variation advertises the cached city context it was fed.
		for _, variation := range result.Variations {
			assert.Contains(t, variation.OptimizationInsights, intelligenceInsight)
		}

		require.Len(t, generated, 3)
		for _, g := range generated {
			assert.Same(t, profile, g.TravelPulseContext)
			assert.Contains(t, g.MustSeeAttractions, "Tram 28 Tour")
			assert.Contains(t, g.MustSeeAttractions, "Pastel de Nata Workshop")
		}
		assert.Equal(t, []string{"Belem Tower", "Tram 28 Tour", "Pastel de Nata Workshop"}, generated[0].MustSeeAttractions)
		assert.Contains(t, generated[1].MustSeeAttractions, "Fado Festival")
		assert.NotContains(t, generated[1].MustSeeAttractions, "Tech Meetup")
		require.NotNil(t, generated[2].Budget)
		assert.Equal(t, 800.0, *generated[2].Budget)
		assert.Contains(t, generated[2].MustSeeAttractions, "LX Factory food tour")
		assert.Contains(t, generated[2].MustSeeAttractions, "Sintra day trip")
		assert.NotContains(t, generated[2].MustSeeAttractions, "Azulejo workshop")
	})

	t.Run("degrades to the adventure and relaxed fallbacks when both fetches fail", func(t *testing.T) {
		service, orchestrator, intelligence := setupOptimizerTest(t)
		req := optimizationRequest()
		req.PacePreference = "packed"

		orchestrator.On("GetRealTimeIntelligence", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("provider timeout"))
		intelligence.On("GetCityProfile", mock.Anything, "Lisbon", "Portugal").
			Return(nil, errors.New("connection refused"))

		var generated []types.AutonomousItineraryRequest
		orchestrator.On("GenerateAutonomousItinerary", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				generated = append(generated, args.Get(1).(types.AutonomousItineraryRequest))
			}).
			Return(&types.AutonomousItineraryResult{Title: "Lisbon Highlights"}, nil)

		result, err := service.GenerateOptimizedItineraries(ctx, req, types.CallOptions{})

		require.NoError(t, err)
		assert.Nil(t, result.RealTimeIntelligence)
		require.Len(t, result.Variations, 3)
		assert.Equal(t, types.VariationUserPlan, result.Variations[0].VariationType)
		assert.Equal(t, types.VariationWeatherOptimized, result.Variations[1].VariationType)
		assert.Equal(t, types.VariationBestValue, result.Variations[2].VariationType)
		assert.Equal(t, "Adventure Focus", result.Variations[1].VariationLabel)
		assert.Equal(t, "Relaxed Experience", result.Variations[2].VariationLabel)
		for _, variation := range result.Variations {
			assert.Zero(t, variation.RealTimeFactors)
			assert.NotContains(t, variation.OptimizationInsights, intelligenceInsight)
		}

		require.Len(t, generated, 3)
		assert.Equal(t, "packed", generated[0].PacePreference)
		assert.Equal(t, "moderate", generated[1].PacePreference, "a packed request flips the adventure slot to moderate")
		assert.Equal(t, "relaxed", generated[2].PacePreference)
		for _, g := range generated {
			assert.Nil(t, g.TravelPulseContext)
			assert.Contains(t, g.MustSeeAttractions, "Tram 28 Tour")
		}
	})

	t.Run("caps the combined attraction lists", func(t *testing.T) {
		service, orchestrator, intelligence := setupOptimizerTest(t)
		req := optimizationRequest()
		req.MustSeeAttractions = nil
		for i := 0; i < 14; i++ {
			req.MustSeeAttractions = append(req.MustSeeAttractions, string(rune('A'+i))+" Museum")
		}
		for i := 0; i < 4; i++ {
			req.CartItems = append(req.CartItems, types.CartItem{Name: string(rune('A'+i)) + " Tour"})
		}

		orchestrator.On("GetRealTimeIntelligence", mock.Anything, mock.Anything, mock.Anything).
			Return(intelFixture(t, `{"destination": "Lisbon, Portugal"}`), nil)
		intelligence.On("GetCityProfile", mock.Anything, "Lisbon", "Portugal").Return(nil, nil)

		var generated []types.AutonomousItineraryRequest
		orchestrator.On("GenerateAutonomousItinerary", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				generated = append(generated, args.Get(1).(types.AutonomousItineraryRequest))
			}).
			Return(&types.AutonomousItineraryResult{}, nil)

		_, err := service.GenerateOptimizedItineraries(ctx, req, types.CallOptions{})

		require.NoError(t, err)
		require.Len(t, generated, 3)
		assert.Len(t, generated[0].MustSeeAttractions, 15)
		assert.Len(t, generated[1].MustSeeAttractions, 12)
		assert.Len(t, generated[2].MustSeeAttractions, 12)
	})

	t.Run("missing budget leaves the best value variation unconstrained", func(t *testing.T) {
		service, orchestrator, intelligence := setupOptimizerTest(t)
		req := optimizationRequest()
		req.Budget = nil

		orchestrator.On("GetRealTimeIntelligence", mock.Anything, mock.Anything, mock.Anything).
			Return(intelFixture(t, lisbonIntelJSON), nil)
		intelligence.On("GetCityProfile", mock.Anything, "Lisbon", "Portugal").Return(nil, nil)

		var generated []types.AutonomousItineraryRequest
		orchestrator.On("GenerateAutonomousItinerary", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				generated = append(generated, args.Get(1).(types.AutonomousItineraryRequest))
			}).
			Return(&types.AutonomousItineraryResult{}, nil)

		_, err := service.GenerateOptimizedItineraries(ctx, req, types.CallOptions{})

		require.NoError(t, err)
		require.Len(t, generated, 3)
		assert.Nil(t, generated[2].Budget)
	})

	t.Run("base generation failure fails the request", func(t *testing.T) {
		service, orchestrator, intelligence := setupOptimizerTest(t)
		req := optimizationRequest()

		orchestrator.On("GetRealTimeIntelligence", mock.Anything, mock.Anything, mock.Anything).
			Return(intelFixture(t, lisbonIntelJSON), nil)
		intelligence.On("GetCityProfile", mock.Anything, "Lisbon", "Portugal").Return(nil, nil)
		orchestrator.On("GenerateAutonomousItinerary", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("rate limited"))

		result, err := service.GenerateOptimizedItineraries(ctx, req, types.CallOptions{})

		require.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "user plan")
	})
}

func TestSplitDestination(t *testing.T) {
	city, country := splitDestination("Lisbon, Portugal")
	assert.Equal(t, "Lisbon", city)
	assert.Equal(t, "Portugal", country)

	city, country = splitDestination("Tokyo")
	assert.Equal(t, "Tokyo", city)
	assert.Empty(t, country)

	city, country = splitDestination("Porto ,  Portugal")
	assert.Equal(t, "Porto", city)
	assert.Equal(t, "Portugal", country)
}
