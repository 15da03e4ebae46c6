package venues

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/traveloure/traveloure-api/config"
	"github.com/traveloure/traveloure-api/internal/types"
)

// Venue categories understood by the category search.
const (
	CategoryRestaurant = "restaurant"
	CategoryAttraction = "attraction"
	CategoryNightlife  = "nightlife"
)

const maxCategoryResults = 10

// Client resolves AI-named places against an external venue search API.
// Lookups that find nothing return nil results, not errors.
type Client interface {
	SearchVenueByName(ctx context.Context, name, city, country string) (*types.Venue, error)
	SearchCategory(ctx context.Context, city, country, category string) ([]types.Venue, error)
}

var _ Client = (*SerpClient)(nil)

// SerpClient talks to the SerpAPI Google Maps engine and memoizes results
// in-process so repeated enrichment of the same city does not burn quota.
type SerpClient struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cache      *cache.Cache
}

// NewSerpClient reads SERP_API_KEY from the environment. A missing key is not
// fatal: enrichment degrades to AI-only recommendations.
func NewSerpClient(cfg *config.Config, logger *slog.Logger) *SerpClient {
	apiKey := os.Getenv("SERP_API_KEY")
	if apiKey == "" {
		logger.Warn("SERP_API_KEY is not set, venue lookups will return no results")
	}

	timeout := cfg.Providers.Serp.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	baseURL := cfg.Providers.Serp.BaseURL
	if baseURL == "" {
		baseURL = "https://serpapi.com/search.json"
	}
	ttl := cfg.Providers.Serp.CacheTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}

	return &SerpClient{
		logger:     logger,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		cache:      cache.New(ttl, ttl/2),
	}
}

type serpGPSCoordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type serpLocalResult struct {
	Title          string              `json:"title"`
	PlaceID        string              `json:"place_id"`
	DataID         string              `json:"data_id"`
	Rating         float64             `json:"rating"`
	Reviews        int                 `json:"reviews"`
	Price          string              `json:"price"`
	Type           string              `json:"type"`
	Types          []string            `json:"types"`
	Address        string              `json:"address"`
	OpenState      string              `json:"open_state"`
	Hours          string              `json:"hours"`
	Phone          string              `json:"phone"`
	Website        string              `json:"website"`
	Thumbnail      string              `json:"thumbnail"`
	GPSCoordinates *serpGPSCoordinates `json:"gps_coordinates"`
}

type serpResponse struct {
	LocalResults []serpLocalResult `json:"local_results"`
	Error        string            `json:"error"`
}

// SearchVenueByName resolves one named place. Returns (nil, nil) when the
// search finds nothing or the client has no API key.
func (c *SerpClient) SearchVenueByName(ctx context.Context, name, city, country string) (*types.Venue, error) {
	ctx, span := otel.Tracer("SerpClient").Start(ctx, "SearchVenueByName")
	defer span.End()
	span.SetAttributes(attribute.String("venue.name", name), attribute.String("venue.city", city))

	key := cacheKey(name, city+" "+country, "")
	if cached, found := c.cache.Get(key); found {
		span.SetStatus(codes.Ok, "Cache hit")
		if venue, ok := cached.(*types.Venue); ok {
			return venue, nil
		}
		return nil, nil
	}

	resp, err := c.search(ctx, fmt.Sprintf("%s %s %s", name, city, country))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Venue search failed")
		return nil, fmt.Errorf("searching venue %q: %w", name, err)
	}
	if resp == nil || len(resp.LocalResults) == 0 {
		// Negative results are cached too, a missing venue stays missing
		// for the whole TTL.
		c.cache.SetDefault(key, (*types.Venue)(nil))
		span.SetStatus(codes.Ok, "No match")
		return nil, nil
	}

	venue := toVenue(resp.LocalResults[0], inferVenueType(resp.LocalResults[0].Types), "serp-venue-0")
	c.cache.SetDefault(key, &venue)
	span.SetStatus(codes.Ok, "Venue resolved")
	return &venue, nil
}

// SearchCategory returns up to 10 venues for a category search in one city.
// Unknown categories fall back to a generic "<category> in <city>" query.
func (c *SerpClient) SearchCategory(ctx context.Context, city, country, category string) ([]types.Venue, error) {
	ctx, span := otel.Tracer("SerpClient").Start(ctx, "SearchCategory")
	defer span.End()
	span.SetAttributes(attribute.String("venue.category", category), attribute.String("venue.city", city))

	var query string
	switch category {
	case CategoryRestaurant:
		query = fmt.Sprintf("best restaurants %s %s", city, country)
	case CategoryAttraction:
		query = fmt.Sprintf("top attractions things to do %s %s", city, country)
	case CategoryNightlife:
		query = fmt.Sprintf("best bars nightclubs nightlife %s %s", city, country)
	default:
		query = fmt.Sprintf("%s in %s %s", category, city, country)
	}

	key := cacheKey(query, city+" "+country, category)
	if cached, found := c.cache.Get(key); found {
		span.SetStatus(codes.Ok, "Cache hit")
		return cached.([]types.Venue), nil
	}

	resp, err := c.search(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Category search failed")
		return nil, fmt.Errorf("searching %s venues in %s: %w", category, city, err)
	}

	venues := make([]types.Venue, 0, maxCategoryResults)
	if resp != nil {
		for i, result := range resp.LocalResults {
			if i == maxCategoryResults {
				break
			}
			venues = append(venues, toVenue(result, category, fmt.Sprintf("serp-%s-%d", category, i)))
		}
	}

	c.cache.SetDefault(key, venues)
	span.SetStatus(codes.Ok, "Category search completed")
	return venues, nil
}

// search returns nil when the client is unconfigured, so lookups quietly
// find nothing instead of failing every enrichment request.
func (c *SerpClient) search(ctx context.Context, query string) (*serpResponse, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("engine", "google_maps")
	params.Set("q", query)
	params.Set("type", "search")
	params.Set("hl", "en")
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serp API returned status %d", resp.StatusCode)
	}

	var parsed serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("serp API error: %s", parsed.Error)
	}
	return &parsed, nil
}

func toVenue(result serpLocalResult, venueType, fallbackID string) types.Venue {
	id := result.PlaceID
	if id == "" {
		id = result.DataID
	}
	if id == "" {
		id = fallbackID
	}
	hours := result.Hours
	if hours == "" {
		hours = result.OpenState
	}

	venue := types.Venue{
		ID:          id,
		Name:        result.Title,
		Type:        venueType,
		Rating:      result.Rating,
		ReviewCount: result.Reviews,
		PriceLevel:  result.Price,
		Address:     result.Address,
		Phone:       result.Phone,
		Website:     result.Website,
		Hours:       hours,
		Thumbnail:   result.Thumbnail,
		Source:      "serp",
	}
	if result.GPSCoordinates != nil {
		venue.Coordinates = &types.LatLng{Lat: result.GPSCoordinates.Latitude, Lng: result.GPSCoordinates.Longitude}
	}
	return venue
}

// inferVenueType maps the raw type tags of a by-name match onto our venue
// categories.
func inferVenueType(typeTags []string) string {
	tags := strings.ToLower(strings.Join(typeTags, " "))
	switch {
	case strings.Contains(tags, "restaurant"), strings.Contains(tags, "food"), strings.Contains(tags, "cafe"):
		return CategoryRestaurant
	case strings.Contains(tags, "bar"), strings.Contains(tags, "club"), strings.Contains(tags, "nightlife"):
		return CategoryNightlife
	case strings.Contains(tags, "hotel"), strings.Contains(tags, "lodging"):
		return "hotel"
	case strings.Contains(tags, "museum"), strings.Contains(tags, "park"), strings.Contains(tags, "tourist"):
		return CategoryAttraction
	default:
		return "activity"
	}
}

var spaceRuns = regexp.MustCompile(`\s+`)

func cacheKey(query, location, category string) string {
	return spaceRuns.ReplaceAllString(strings.ToLower(query+"-"+location+"-"+category), "-")
}
