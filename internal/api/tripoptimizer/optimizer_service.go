package tripoptimizer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/traveloure/traveloure-api/internal/types"
)

const (
	// Combined must-see lists are truncated so a loaded cart cannot blow
	// up the generation prompt.
	maxCombinedAttractions = 15
	maxEnhancedAttractions = 12

	// best_value regenerates against a tightened budget.
	valueBudgetFactor = 0.8

	intelligenceInsight = "Destination intelligence from the city cache applied"
)

// Orchestrator is the slice of the AI orchestrator the optimizer calls.
type Orchestrator interface {
	GetRealTimeIntelligence(ctx context.Context, req types.RealTimeIntelligenceRequest, opts types.CallOptions) (*types.RealTimeIntelligence, error)
	GenerateAutonomousItinerary(ctx context.Context, req types.AutonomousItineraryRequest, opts types.CallOptions) (*types.AutonomousItineraryResult, error)
}

// CityIntelligence is the slice of the destination cache the optimizer reads.
type CityIntelligence interface {
	GetCityProfile(ctx context.Context, city, country string) (*types.CityProfile, error)
}

type Service interface {
	GenerateOptimizedItineraries(ctx context.Context, req types.TripOptimizationRequest, opts types.CallOptions) (*types.TripOptimizationResult, error)
}

var _ Service = (*ServiceImpl)(nil)

// ServiceImpl produces labeled itinerary variations for one trip request.
type ServiceImpl struct {
	logger       *slog.Logger
	orchestrator Orchestrator
	intelligence CityIntelligence
}

func NewServiceImpl(orchestrator Orchestrator, intelligence CityIntelligence, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:       logger,
		orchestrator: orchestrator,
		intelligence: intelligence,
	}
}

// GenerateOptimizedItineraries returns exactly three variations in the order
// [user_plan, weather_optimized, best_value]. When no real-time intelligence
// could be fetched, the second and third slots hold the deterministic
// adventure and relaxed fallbacks instead, reusing the same type tags.
func (s *ServiceImpl) GenerateOptimizedItineraries(ctx context.Context, req types.TripOptimizationRequest, opts types.CallOptions) (*types.TripOptimizationResult, error) {
	ctx, span := otel.Tracer("TripOptimizer").Start(ctx, "GenerateOptimizedItineraries")
	defer span.End()
	span.SetAttributes(attribute.String("trip.destination", req.Destination))

	l := s.logger.With(slog.String("method", "GenerateOptimizedItineraries"), slog.String("destination", req.Destination))

	// Both context fetches are best-effort. A dead cache or a rate-limited
	// provider degrades the variations, it never fails the request.
	intel := s.fetchIntelligence(ctx, l, req, opts)
	pulse := s.fetchCityProfile(ctx, l, req.Destination)

	cartNames := make([]string, 0, len(req.CartItems))
	for _, item := range req.CartItems {
		cartNames = append(cartNames, item.Name)
	}
	combined := capped(concat(req.MustSeeAttractions, cartNames), maxCombinedAttractions)

	variations := make([]types.ItineraryVariation, 0, 3)

	base, err := s.orchestrator.GenerateAutonomousItinerary(ctx, itineraryRequest(req, combined, req.Budget, req.PacePreference, pulse), opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Base itinerary generation failed")
		return nil, fmt.Errorf("generating user plan itinerary: %w", err)
	}
	variations = append(variations, userPlanVariation(req, base, len(cartNames), pulse))

	if intel != nil {
		weather, err := s.weatherOptimizedVariation(ctx, req, cartNames, intel, pulse, opts)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Weather variation generation failed")
			return nil, err
		}
		variations = append(variations, *weather)

		value, err := s.bestValueVariation(ctx, req, cartNames, intel, pulse, opts)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Best value variation generation failed")
			return nil, err
		}
		variations = append(variations, *value)
	} else {
		adventure, err := s.adventureVariation(ctx, req, combined, pulse, opts)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Adventure fallback generation failed")
			return nil, err
		}
		variations = append(variations, *adventure)

		relaxed, err := s.relaxedVariation(ctx, req, combined, pulse, opts)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Relaxed fallback generation failed")
			return nil, err
		}
		variations = append(variations, *relaxed)
	}

	span.SetStatus(codes.Ok, "Variations generated")
	return &types.TripOptimizationResult{
		Destination:          req.Destination,
		DateRange:            req.Dates,
		RealTimeIntelligence: intel,
		Variations:           variations,
		GeneratedAt:          time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (s *ServiceImpl) fetchIntelligence(ctx context.Context, l *slog.Logger, req types.TripOptimizationRequest, opts types.CallOptions) *types.RealTimeIntelligence {
	intel, err := s.orchestrator.GetRealTimeIntelligence(ctx, types.RealTimeIntelligenceRequest{
		Destination: req.Destination,
		Dates:       &req.Dates,
		Topics:      []string{"events", "weather", "safety", "trending", "deals"},
	}, opts)
	if err != nil {
		l.WarnContext(ctx, "Real-time intelligence unavailable, degrading to fallback variations", slog.Any("error", err))
		return nil
	}
	return intel
}

func (s *ServiceImpl) fetchCityProfile(ctx context.Context, l *slog.Logger, destination string) *types.CityProfile {
	city, country := splitDestination(destination)
	if city == "" {
		return nil
	}
	profile, err := s.intelligence.GetCityProfile(ctx, city, country)
	if err != nil {
		l.WarnContext(ctx, "City profile unavailable, generating without cached context", slog.String("city", city), slog.Any("error", err))
		return nil
	}
	return profile
}

// splitDestination treats everything after the first comma as the country,
// so "Lisbon, Portugal" and a bare "Lisbon" both resolve.
func splitDestination(destination string) (city, country string) {
	parts := strings.SplitN(destination, ",", 2)
	city = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		country = strings.TrimSpace(parts[1])
	}
	return city, country
}

func itineraryRequest(req types.TripOptimizationRequest, attractions []string, budget *float64, pace string, pulse *types.CityProfile) types.AutonomousItineraryRequest {
	return types.AutonomousItineraryRequest{
		Destination:            req.Destination,
		Dates:                  req.Dates,
		Travelers:              req.Travelers,
		Budget:                 budget,
		EventType:              req.EventType,
		Interests:              req.Interests,
		PacePreference:         pace,
		MustSeeAttractions:     attractions,
		DietaryRestrictions:    req.DietaryRestrictions,
		MobilityConsiderations: req.MobilityConsiderations,
		TravelPulseContext:     pulse,
	}
}

func userPlanVariation(req types.TripOptimizationRequest, result *types.AutonomousItineraryResult, cartCount int, pulse *types.CityProfile) types.ItineraryVariation {
	pace := req.PacePreference
	if pace == "" {
		pace = "moderate"
	}
	travelerWord := "travelers"
	if req.Travelers == 1 {
		travelerWord = "traveler"
	}

	insights := []string{
		fmt.Sprintf("Tailored for %d %s", req.Travelers, travelerWord),
		"Pace: " + pace,
	}
	if cartCount > 0 {
		itemWord := "activities"
		if cartCount == 1 {
			itemWord = "activity"
		}
		insights = append(insights, fmt.Sprintf("Includes %d selected %s", cartCount, itemWord))
	}
	interests := strings.Join(capped(req.Interests, 3), ", ")
	if interests == "" {
		interests = "General exploration"
	}
	insights = append(insights, "Interests: "+interests)

	return types.ItineraryVariation{
		AutonomousItineraryResult: *result,
		VariationType:             types.VariationUserPlan,
		VariationLabel:            "Your Custom Plan",
		VariationDescription:      "Based on your preferences and selected activities",
		OptimizationInsights:      withPulseInsight(insights, pulse),
	}
}

func (s *ServiceImpl) weatherOptimizedVariation(ctx context.Context, req types.TripOptimizationRequest, cartNames []string, intel *types.RealTimeIntelligence, pulse *types.CityProfile, opts types.CallOptions) (*types.ItineraryVariation, error) {
	highRelevance := make([]string, 0, len(intel.Events))
	for _, event := range intel.Events {
		if event.Relevance == "high" {
			highRelevance = append(highRelevance, event.Name)
		}
	}
	attractions := capped(concat(concat(req.MustSeeAttractions, cartNames), highRelevance), maxEnhancedAttractions)

	result, err := s.orchestrator.GenerateAutonomousItinerary(ctx, itineraryRequest(req, attractions, req.Budget, req.PacePreference, pulse), opts)
	if err != nil {
		return nil, fmt.Errorf("generating weather optimized itinerary: %w", err)
	}

	var insights []string
	if intel.WeatherForecast != nil {
		insights = append(insights, "Weather-aware scheduling: "+intel.WeatherForecast.Conditions)
	}
	if len(intel.Events) > 0 {
		insights = append(insights, fmt.Sprintf("%d local events considered", len(intel.Events)))
	}
	if len(intel.SafetyAlerts) > 0 {
		insights = append(insights, fmt.Sprintf("%d safety advisories reviewed", len(intel.SafetyAlerts)))
	}
	if len(insights) == 0 {
		insights = []string{
			"Schedule optimized for weather conditions",
			"Local events and festivals incorporated",
			"Indoor/outdoor activities balanced",
		}
	}

	return &types.ItineraryVariation{
		AutonomousItineraryResult: *result,
		VariationType:             types.VariationWeatherOptimized,
		VariationLabel:            "Weather & Events Optimized",
		VariationDescription:      "Outdoor activities scheduled for best weather, local events included",
		OptimizationInsights:      withPulseInsight(insights, pulse),
		RealTimeFactors: types.RealTimeFactors{
			WeatherUsed:            intel.WeatherForecast != nil,
			EventsIncluded:         len(highRelevance),
			SafetyAlertsConsidered: len(intel.SafetyAlerts),
		},
	}, nil
}

func (s *ServiceImpl) bestValueVariation(ctx context.Context, req types.TripOptimizationRequest, cartNames []string, intel *types.RealTimeIntelligence, pulse *types.CityProfile, opts types.CallOptions) (*types.ItineraryVariation, error) {
	var budget *float64
	if req.Budget != nil {
		adjusted := math.Floor(*req.Budget * valueBudgetFactor)
		budget = &adjusted
	}

	trending := make([]string, 0, 3)
	for _, exp := range intel.TrendingExperiences {
		trending = append(trending, exp.Name)
		if len(trending) == 3 {
			break
		}
	}
	attractions := capped(concat(concat(req.MustSeeAttractions, cartNames), trending), maxEnhancedAttractions)

	result, err := s.orchestrator.GenerateAutonomousItinerary(ctx, itineraryRequest(req, attractions, budget, req.PacePreference, pulse), opts)
	if err != nil {
		return nil, fmt.Errorf("generating best value itinerary: %w", err)
	}

	var insights []string
	if len(intel.Deals) > 0 {
		insights = append(insights, fmt.Sprintf("%d current deals applied", len(intel.Deals)))
		top := intel.Deals[0]
		insights = append(insights, fmt.Sprintf("Featured: %s - %s", top.Title, top.Discount))
	}
	if len(intel.TrendingExperiences) > 0 {
		insights = append(insights, fmt.Sprintf("%d trending experiences included", len(intel.TrendingExperiences)))
	}
	insights = append(insights, "Budget-conscious alternatives selected")

	return &types.ItineraryVariation{
		AutonomousItineraryResult: *result,
		VariationType:             types.VariationBestValue,
		VariationLabel:            "Best Value",
		VariationDescription:      "Maximized experiences with current deals and smart savings",
		OptimizationInsights:      withPulseInsight(insights, pulse),
		RealTimeFactors: types.RealTimeFactors{
			DealsApplied: len(intel.Deals),
		},
	}, nil
}

// adventureVariation fills the weather_optimized slot when no intelligence is
// available: the same request at a more aggressive pace.
func (s *ServiceImpl) adventureVariation(ctx context.Context, req types.TripOptimizationRequest, attractions []string, pulse *types.CityProfile, opts types.CallOptions) (*types.ItineraryVariation, error) {
	pace := "packed"
	if req.PacePreference == "packed" {
		pace = "moderate"
	}

	result, err := s.orchestrator.GenerateAutonomousItinerary(ctx, itineraryRequest(req, attractions, req.Budget, pace, pulse), opts)
	if err != nil {
		return nil, fmt.Errorf("generating adventure itinerary: %w", err)
	}

	return &types.ItineraryVariation{
		AutonomousItineraryResult: *result,
		VariationType:             types.VariationWeatherOptimized,
		VariationLabel:            "Adventure Focus",
		VariationDescription:      "More activities and experiences packed in",
		OptimizationInsights: withPulseInsight([]string{
			"Maximized activities per day",
			"Efficient route planning",
			"Early starts for popular attractions",
		}, pulse),
	}, nil
}

// relaxedVariation fills the best_value slot when no intelligence is
// available.
func (s *ServiceImpl) relaxedVariation(ctx context.Context, req types.TripOptimizationRequest, attractions []string, pulse *types.CityProfile, opts types.CallOptions) (*types.ItineraryVariation, error) {
	result, err := s.orchestrator.GenerateAutonomousItinerary(ctx, itineraryRequest(req, attractions, req.Budget, "relaxed", pulse), opts)
	if err != nil {
		return nil, fmt.Errorf("generating relaxed itinerary: %w", err)
	}

	return &types.ItineraryVariation{
		AutonomousItineraryResult: *result,
		VariationType:             types.VariationBestValue,
		VariationLabel:            "Relaxed Experience",
		VariationDescription:      "More downtime and flexibility",
		OptimizationInsights: withPulseInsight([]string{
			"Extended time at each location",
			"Built-in rest periods",
			"Flexible dining options",
		}, pulse),
	}, nil
}

func withPulseInsight(insights []string, pulse *types.CityProfile) []string {
	if pulse != nil {
		insights = append(insights, intelligenceInsight)
	}
	return insights
}

func concat(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func capped(items []string, max int) []string {
	if len(items) > max {
		return items[:max]
	}
	return items
}
