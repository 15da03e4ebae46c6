package enrichment

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/traveloure/traveloure-api/internal/api/venues"
	"github.com/traveloure/traveloure-api/internal/types"
)

const (
	// Each category enriches at most this many AI items, with a fixed
	// pause between venue lookups so one request cannot flood the search
	// API.
	maxItemsPerCategory = 5
	lookupDelay         = 100 * time.Millisecond

	hiddenGemFetchLimit = 20
)

// GemCandidate is one AI-suggested place queued for venue verification.
type GemCandidate struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	WhySpecial string `json:"whySpecial"`
	PriceRange string `json:"priceRange,omitempty"`
}

// CityRecommendations is the AI-sourced input of one enrichment pass.
type CityRecommendations struct {
	HiddenGems         []GemCandidate `json:"hiddenGems"`
	MustSeeAttractions []string       `json:"mustSeeAttractions"`
	WhatsHotNow        string         `json:"whatsHotNow,omitempty"`
}

// CityContent is the slice of the destination cache the enricher reads.
type CityContent interface {
	GetCityProfile(ctx context.Context, city, country string) (*types.CityProfile, error)
	GetHiddenGems(ctx context.Context, city, country string, limit int) ([]types.HiddenGem, error)
}

type Service interface {
	EnrichCityRecommendations(ctx context.Context, cityName, country string, recs CityRecommendations) (*types.CityEnrichedContent, error)
	GetEnrichedContentForCity(ctx context.Context, cityName, country string) (*types.CityEnrichedContent, error)
}

var _ Service = (*ServiceImpl)(nil)

// ServiceImpl turns AI-named places into bookable recommendations by
// resolving them against the venue search API. An AI suggestion is never
// dropped: unresolvable names are emitted with AI-only fields and fallback
// links.
type ServiceImpl struct {
	logger *slog.Logger
	venues venues.Client
	cities CityContent
}

func NewServiceImpl(venueClient venues.Client, cities CityContent, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		venues: venueClient,
		cities: cities,
	}
}

// GetEnrichedContentForCity builds the AI recommendation set from the cached
// city profile and its hidden gems, then enriches it. Returns (nil, nil) when
// the city has no profile.
func (s *ServiceImpl) GetEnrichedContentForCity(ctx context.Context, cityName, country string) (*types.CityEnrichedContent, error) {
	ctx, span := otel.Tracer("Enrichment").Start(ctx, "GetEnrichedContentForCity")
	defer span.End()
	span.SetAttributes(attribute.String("enrichment.city", cityName))

	profile, err := s.cities.GetCityProfile(ctx, cityName, country)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "City profile lookup failed")
		return nil, fmt.Errorf("loading city profile for %s: %w", cityName, err)
	}
	if profile == nil {
		span.SetStatus(codes.Ok, "No city profile")
		return nil, nil
	}

	gems, err := s.cities.GetHiddenGems(ctx, profile.CityName, profile.Country, hiddenGemFetchLimit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Hidden gems lookup failed")
		return nil, fmt.Errorf("loading hidden gems for %s: %w", cityName, err)
	}

	candidates := make([]GemCandidate, 0, len(gems))
	for _, gem := range gems {
		candidates = append(candidates, GemCandidate{
			Name:       gem.PlaceName,
			Type:       firstNonEmpty(gem.PlaceType, "attraction"),
			WhySpecial: firstNonEmpty(gem.WhyLocalsLoveIt, gem.Description, "Local favorite"),
			PriceRange: firstNonEmpty(gem.PriceRange, "$$"),
		})
	}

	span.SetStatus(codes.Ok, "City content assembled")
	return s.EnrichCityRecommendations(ctx, profile.CityName, profile.Country, CityRecommendations{
		HiddenGems:         candidates,
		MustSeeAttractions: profile.AIMustSeeAttractions,
		WhatsHotNow:        profile.CurrentHighlight,
	})
}

// EnrichCityRecommendations groups the AI items into restaurants,
// attractions, nightlife, hidden gems and a trending singleton, each capped
// and verified against the venue API.
func (s *ServiceImpl) EnrichCityRecommendations(ctx context.Context, cityName, country string, recs CityRecommendations) (*types.CityEnrichedContent, error) {
	ctx, span := otel.Tracer("Enrichment").Start(ctx, "EnrichCityRecommendations")
	defer span.End()
	span.SetAttributes(attribute.String("enrichment.city", cityName))

	l := s.logger.With(slog.String("method", "EnrichCityRecommendations"), slog.String("city", cityName))

	var foodGems, otherGems []GemCandidate
	for _, gem := range recs.HiddenGems {
		if isFoodType(gem.Type) {
			foodGems = append(foodGems, gem)
		} else {
			otherGems = append(otherGems, gem)
		}
	}

	restaurants, err := s.enrichRestaurants(ctx, cityName, country, foodGems)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Restaurant enrichment failed")
		return nil, err
	}

	attractions, err := s.enrichAttractions(ctx, cityName, country, recs.MustSeeAttractions)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Attraction enrichment failed")
		return nil, err
	}

	nightlife, err := s.enrichNightlife(ctx, cityName, country)
	if err != nil {
		// Nightlife is pure discovery, not AI verification; an empty
		// bucket beats failing the whole pass.
		l.WarnContext(ctx, "Nightlife search failed, returning empty bucket", slog.Any("error", err))
		nightlife = nil
	}

	hiddenGems := s.enrichCandidates(ctx, cityName, country, otherGems, false)

	var trendingNow []types.EnrichedRecommendation
	if recs.WhatsHotNow != "" {
		trendingNow = s.enrichCandidates(ctx, cityName, country, []GemCandidate{{
			Name:       recs.WhatsHotNow,
			Type:       "trending",
			WhySpecial: "Currently trending in the city",
		}}, false)
	}

	span.SetStatus(codes.Ok, "City recommendations enriched")
	return &types.CityEnrichedContent{
		CityName:    cityName,
		Country:     country,
		LastUpdated: time.Now(),
		Restaurants: restaurants,
		Attractions: attractions,
		Nightlife:   nightlife,
		HiddenGems:  hiddenGems,
		TrendingNow: trendingNow,
	}, nil
}

// enrichRestaurants verifies the food-typed gems and backfills from a
// category search when the AI supplied fewer than a full bucket.
func (s *ServiceImpl) enrichRestaurants(ctx context.Context, city, country string, gems []GemCandidate) ([]types.EnrichedRecommendation, error) {
	enriched := s.enrichCandidates(ctx, city, country, gems, true)

	if len(enriched) < maxItemsPerCategory {
		found, err := s.venues.SearchCategory(ctx, city, country, venues.CategoryRestaurant)
		if err != nil {
			return nil, fmt.Errorf("backfilling restaurants for %s: %w", city, err)
		}
		for _, venue := range found {
			if len(enriched) == maxItemsPerCategory {
				break
			}
			rec := matchedRecommendation(venue, venue.Name, "Highly rated locally", "")
			enriched = append(enriched, addBookingOptions(rec))
		}
	}
	return enriched, nil
}

func (s *ServiceImpl) enrichAttractions(ctx context.Context, city, country string, names []string) ([]types.EnrichedRecommendation, error) {
	candidates := make([]GemCandidate, 0, len(names))
	for _, name := range names {
		candidates = append(candidates, GemCandidate{
			Name:       name,
			Type:       "attraction",
			WhySpecial: "Must-see attraction recommended by AI",
		})
	}
	return s.enrichCandidates(ctx, city, country, candidates, true), nil
}

func (s *ServiceImpl) enrichNightlife(ctx context.Context, city, country string) ([]types.EnrichedRecommendation, error) {
	found, err := s.venues.SearchCategory(ctx, city, country, venues.CategoryNightlife)
	if err != nil {
		return nil, err
	}
	enriched := make([]types.EnrichedRecommendation, 0, len(found))
	for _, venue := range found {
		if len(enriched) == maxItemsPerCategory {
			break
		}
		enriched = append(enriched, matchedRecommendation(venue, venue.Name, "Popular nightlife spot", ""))
	}
	return enriched, nil
}

// enrichCandidates resolves up to maxItemsPerCategory candidates, pausing
// between lookups. Lookup failures and misses both produce the AI-only
// fallback entry.
func (s *ServiceImpl) enrichCandidates(ctx context.Context, city, country string, candidates []GemCandidate, withBookingOptions bool) []types.EnrichedRecommendation {
	enriched := make([]types.EnrichedRecommendation, 0, maxItemsPerCategory)
	for i, candidate := range candidates {
		if i == maxItemsPerCategory {
			break
		}
		if i > 0 {
			select {
			case <-ctx.Done():
				return enriched
			case <-time.After(lookupDelay):
			}
		}

		venue, err := s.venues.SearchVenueByName(ctx, candidate.Name, city, country)
		if err != nil {
			s.logger.WarnContext(ctx, "Venue lookup failed, emitting AI-only recommendation",
				slog.String("name", candidate.Name), slog.Any("error", err))
		}
		if venue == nil {
			enriched = append(enriched, fallbackRecommendation(candidate, city))
			continue
		}

		rec := matchedRecommendation(*venue, candidate.Name, candidate.WhySpecial, candidate.PriceRange)
		if withBookingOptions {
			rec = addBookingOptions(rec)
		}
		enriched = append(enriched, rec)
	}
	return enriched
}

// matchedRecommendation wraps a resolved venue with the AI reasoning. The
// match is high-confidence when the venue's resolved name still contains the
// first token of the name the AI gave us.
func matchedRecommendation(venue types.Venue, aiName, aiReason, aiPriceRange string) types.EnrichedRecommendation {
	confidence := types.MatchMedium
	if tokens := strings.Fields(strings.ToLower(aiName)); len(tokens) > 0 &&
		strings.Contains(strings.ToLower(venue.Name), tokens[0]) {
		confidence = types.MatchHigh
	}

	return types.EnrichedRecommendation{
		Venue:           venue,
		AIReason:        aiReason,
		AIPriceRange:    aiPriceRange,
		MatchConfidence: confidence,
		ActionType:      inferActionType(venue.Type),
		BookingOptions:  []types.BookingOption{},
	}
}

// fallbackRecommendation keeps an unresolvable AI suggestion alive with
// inferred fields and generic search links.
func fallbackRecommendation(candidate GemCandidate, city string) types.EnrichedRecommendation {
	venueType := inferTypeFromKeywords(candidate.Type)

	options := []types.BookingOption{{
		Platform: "Google Maps",
		URL:      "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(candidate.Name+" "+city),
		Type:     "website",
	}}
	if venueType == "attraction" || strings.EqualFold(candidate.Type, "neighborhood") {
		options = append(options, types.BookingOption{
			Platform: "GetYourGuide",
			URL:      "https://www.getyourguide.com/s/?q=" + url.QueryEscape(candidate.Name),
			Type:     "tour",
		})
	}

	return types.EnrichedRecommendation{
		Venue: types.Venue{
			ID:          "ai-" + slugify(candidate.Name),
			Name:        candidate.Name,
			Type:        venueType,
			PriceLevel:  candidate.PriceRange,
			Description: candidate.WhySpecial,
			Source:      "grok",
		},
		AIReason:        candidate.WhySpecial,
		AIPriceRange:    candidate.PriceRange,
		MatchConfidence: types.MatchHigh,
		ActionType:      inferActionType(venueType),
		BookingOptions:  options,
	}
}

func addBookingOptions(rec types.EnrichedRecommendation) types.EnrichedRecommendation {
	var options []types.BookingOption
	if rec.Website != "" {
		options = append(options, types.BookingOption{
			Platform: "Official Website",
			URL:      rec.Website,
			Type:     "website",
		})
	}
	switch rec.Type {
	case venues.CategoryRestaurant:
		options = append(options, types.BookingOption{
			Platform: "OpenTable",
			URL:      "https://www.opentable.com/s?term=" + url.QueryEscape(rec.Name),
			Type:     "reservation",
		})
	case venues.CategoryAttraction:
		options = append(options,
			types.BookingOption{
				Platform: "Viator",
				URL:      "https://www.viator.com/searchResults/all?text=" + url.QueryEscape(rec.Name),
				Type:     "tickets",
			},
			types.BookingOption{
				Platform: "GetYourGuide",
				URL:      "https://www.getyourguide.com/s/?q=" + url.QueryEscape(rec.Name),
				Type:     "tour",
			})
	}
	rec.BookingOptions = options
	return rec
}

func inferActionType(venueType string) string {
	switch venueType {
	case "restaurant":
		return types.ActionReserve
	case "hotel", "activity":
		return types.ActionBook
	case "attraction":
		return types.ActionVisit
	default:
		return types.ActionExplore
	}
}

// inferTypeFromKeywords maps a free-form AI type onto a venue category.
func inferTypeFromKeywords(aiType string) string {
	t := strings.ToLower(aiType)
	switch {
	case strings.Contains(t, "restaurant"), strings.Contains(t, "cafe"), strings.Contains(t, "food"):
		return "restaurant"
	case strings.Contains(t, "bar"), strings.Contains(t, "club"):
		return "nightlife"
	case strings.Contains(t, "hotel"):
		return "hotel"
	case strings.Contains(t, "activity"), strings.Contains(t, "tour"):
		return "activity"
	default:
		return "attraction"
	}
}

func isFoodType(aiType string) bool {
	switch strings.ToLower(aiType) {
	case "restaurant", "cafe", "food":
		return true
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}
