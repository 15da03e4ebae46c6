package travelpulse

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/traveloure/traveloure-api/app/observability/metrics"
	"github.com/traveloure/traveloure-api/internal/types"
)

// cityProfileMaxAge is how long the AI field group of a city profile stays
// fresh before the refresh routine may overwrite it.
const cityProfileMaxAge = 24 * time.Hour

var _ Service = (*ServiceImpl)(nil)

// Service is the destination intelligence cache: every lookup returns fresh
// cached rows when they exist and generates, persists, and returns new ones
// otherwise.
type Service interface {
	GetTrendingDestinations(ctx context.Context, city string, limit int) ([]types.TrendingPlace, error)
	GetTruthCheck(ctx context.Context, query, city string) (*types.TruthCheck, error)
	GetLiveScore(ctx context.Context, entityName, city string) (*types.LiveScore, error)
	GetCalendarEvents(ctx context.Context, city string, startDate, endDate time.Time) ([]types.CalendarEvent, error)
	GetDestinationIntelligence(ctx context.Context, destinationName, city string) (*types.TrendingPlace, error)
	GetCityProfile(ctx context.Context, city, country string) (*types.CityProfile, error)
	GetHiddenGems(ctx context.Context, city, country string, limit int) ([]types.HiddenGem, error)
	UpdateCityWithAI(ctx context.Context, city, country string) (*types.CityProfile, error)
	RefreshStaleAICities(ctx context.Context) (RefreshResult, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

// Generator is the slice of the AI orchestrator this cache needs: one raw
// JSON-mode call per generation routine.
type Generator interface {
	GenerateStructured(ctx context.Context, systemPrompt, userPrompt string, opts types.CallOptions) (string, error)
}

// RefreshResult summarizes one city refresh pass.
type RefreshResult struct {
	Refreshed int `json:"refreshed"`
	Errors    int `json:"errors"`
}

// RefreshConfig bounds a stale-city refresh pass.
type RefreshConfig struct {
	BatchSize      int
	InterCallDelay time.Duration
}

type ServiceImpl struct {
	logger      *slog.Logger
	repo        Repository
	generator   Generator
	appMetrics  *metrics.AppMetrics
	sourceModel string
	refreshCfg  RefreshConfig
}

// NewServiceImpl wires the cache. appMetrics may be nil in tests. sourceModel
// stamps refreshed city profiles with the model that produced them.
func NewServiceImpl(repo Repository, generator Generator, refreshCfg RefreshConfig, sourceModel string, appMetrics *metrics.AppMetrics, logger *slog.Logger) *ServiceImpl {
	if refreshCfg.BatchSize <= 0 {
		refreshCfg.BatchSize = 10
	}
	return &ServiceImpl{
		logger:      logger,
		repo:        repo,
		generator:   generator,
		appMetrics:  appMetrics,
		sourceModel: sourceModel,
		refreshCfg:  refreshCfg,
	}
}

func (s *ServiceImpl) countCacheOutcome(ctx context.Context, kind string, hit bool) {
	if s.appMetrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	if hit {
		s.appMetrics.CacheHitsTotal.Add(ctx, 1, attrs)
	} else {
		s.appMetrics.CacheMissesTotal.Add(ctx, 1, attrs)
	}
}

// cacheOrGenerate is the shared lookup shape for every TTL-bound kind: fresh
// rows win, otherwise the generator produces, persists, and returns new ones.
func cacheOrGenerate[T any](ctx context.Context, s *ServiceImpl, kind string, fetch func(context.Context) ([]T, error), generate func(context.Context) ([]T, error)) ([]T, error) {
	cached, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if len(cached) > 0 {
		s.countCacheOutcome(ctx, kind, true)
		return cached, nil
	}

	s.countCacheOutcome(ctx, kind, false)
	return generate(ctx)
}

func (s *ServiceImpl) GetTrendingDestinations(ctx context.Context, city string, limit int) ([]types.TrendingPlace, error) {
	ctx, span := otel.Tracer("TravelPulse").Start(ctx, "GetTrendingDestinations", trace.WithAttributes(
		attribute.String("app.city", city),
	))
	defer span.End()

	if limit <= 0 {
		limit = 10
	}

	places, err := cacheOrGenerate(ctx, s, "trending",
		func(ctx context.Context) ([]types.TrendingPlace, error) {
			return s.repo.GetTrending(ctx, city, limit)
		},
		func(ctx context.Context) ([]types.TrendingPlace, error) {
			raw, err := s.generator.GenerateStructured(ctx, trendingSystemPrompt, buildTrendingPrompt(city, limit), types.CallOptions{})
			if err != nil {
				return nil, fmt.Errorf("failed to generate trending destinations for %s: %w", city, err)
			}
			places, err := parseTrendingResponse(raw, city, time.Now())
			if err != nil {
				return nil, err
			}
			return s.repo.InsertTrending(ctx, places)
		},
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Trending lookup failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("app.trending.count", len(places)))
	span.SetStatus(codes.Ok, "Trending destinations returned")
	return places, nil
}

var nonWordChars = regexp.MustCompile(`[^\w\s]`)
var multiSpace = regexp.MustCompile(`\s+`)

// normalizeQuery canonicalizes free text so equivalent phrasings share one
// cache entry.
func normalizeQuery(query string) string {
	normalized := strings.TrimSpace(strings.ToLower(query))
	normalized = nonWordChars.ReplaceAllString(normalized, "")
	return multiSpace.ReplaceAllString(normalized, " ")
}

func hashQuery(query string) string {
	sum := md5.Sum([]byte(normalizeQuery(query)))
	return hex.EncodeToString(sum[:])
}

func (s *ServiceImpl) GetTruthCheck(ctx context.Context, query, city string) (*types.TruthCheck, error) {
	ctx, span := otel.Tracer("TravelPulse").Start(ctx, "GetTruthCheck")
	defer span.End()

	queryHash := hashQuery(query)
	cached, err := s.repo.GetTruthCheckByHash(ctx, queryHash)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Truth check lookup failed")
		return nil, err
	}
	if cached != nil {
		s.countCacheOutcome(ctx, "truth_check", true)
		if err := s.repo.BumpTruthCheckHit(ctx, cached.ID); err != nil {
			s.logger.WarnContext(ctx, "Failed to bump truth check hit count", slog.Any("error", err))
		} else {
			cached.HitCount++
			now := time.Now()
			cached.LastAccessedAt = &now
		}
		span.SetStatus(codes.Ok, "Truth check served from cache")
		return cached, nil
	}

	s.countCacheOutcome(ctx, "truth_check", false)
	raw, err := s.generator.GenerateStructured(ctx, truthCheckSystemPrompt, buildTruthCheckPrompt(query, city), types.CallOptions{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Truth check generation failed")
		return nil, fmt.Errorf("failed to generate truth check: %w", err)
	}
	check, err := parseTruthCheckResponse(raw, query, queryHash, city, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Truth check parse failed")
		return nil, err
	}

	stored, err := s.repo.InsertTruthCheck(ctx, *check)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Truth check insert failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "Truth check generated")
	return stored, nil
}

func (s *ServiceImpl) GetLiveScore(ctx context.Context, entityName, city string) (*types.LiveScore, error) {
	ctx, span := otel.Tracer("TravelPulse").Start(ctx, "GetLiveScore", trace.WithAttributes(
		attribute.String("app.entity", entityName),
		attribute.String("app.city", city),
	))
	defer span.End()

	cached, err := s.repo.GetLiveScore(ctx, entityName, city)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Live score lookup failed")
		return nil, err
	}
	if cached != nil {
		s.countCacheOutcome(ctx, "live_score", true)
		span.SetStatus(codes.Ok, "Live score served from cache")
		return cached, nil
	}

	s.countCacheOutcome(ctx, "live_score", false)
	raw, err := s.generator.GenerateStructured(ctx, liveScoreSystemPrompt, buildLiveScorePrompt(entityName, city), types.CallOptions{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Live score generation failed")
		return nil, fmt.Errorf("failed to generate live score for %q: %w", entityName, err)
	}
	score, err := parseLiveScoreResponse(raw, entityName, city, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Live score parse failed")
		return nil, err
	}

	stored, err := s.repo.InsertLiveScore(ctx, *score)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Live score insert failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "Live score generated")
	return stored, nil
}

func (s *ServiceImpl) GetCalendarEvents(ctx context.Context, city string, startDate, endDate time.Time) ([]types.CalendarEvent, error) {
	ctx, span := otel.Tracer("TravelPulse").Start(ctx, "GetCalendarEvents", trace.WithAttributes(
		attribute.String("app.city", city),
	))
	defer span.End()

	startStr := startDate.Format("2006-01-02")
	endStr := endDate.Format("2006-01-02")

	events, err := cacheOrGenerate(ctx, s, "calendar_events",
		func(ctx context.Context) ([]types.CalendarEvent, error) {
			return s.repo.GetCalendarEvents(ctx, city, startStr, endStr)
		},
		func(ctx context.Context) ([]types.CalendarEvent, error) {
			raw, err := s.generator.GenerateStructured(ctx, calendarSystemPrompt, buildCalendarPrompt(city, startStr, endStr), types.CallOptions{})
			if err != nil {
				return nil, fmt.Errorf("failed to generate calendar events for %s: %w", city, err)
			}
			events, err := parseCalendarResponse(raw, city)
			if err != nil {
				return nil, err
			}
			return s.repo.InsertCalendarEvents(ctx, events)
		},
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Calendar lookup failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("app.events.count", len(events)))
	span.SetStatus(codes.Ok, "Calendar events returned")
	return events, nil
}

// GetDestinationIntelligence drills into one destination. A cached trending
// row answers directly; otherwise a one-off generation call produces an
// ephemeral answer that is not persisted.
func (s *ServiceImpl) GetDestinationIntelligence(ctx context.Context, destinationName, city string) (*types.TrendingPlace, error) {
	ctx, span := otel.Tracer("TravelPulse").Start(ctx, "GetDestinationIntelligence", trace.WithAttributes(
		attribute.String("app.destination", destinationName),
		attribute.String("app.city", city),
	))
	defer span.End()

	cached, err := s.repo.GetTrendingByName(ctx, destinationName, city)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Destination lookup failed")
		return nil, err
	}
	if cached != nil {
		s.countCacheOutcome(ctx, "destination_intelligence", true)
		span.SetStatus(codes.Ok, "Destination served from trending cache")
		return cached, nil
	}

	s.countCacheOutcome(ctx, "destination_intelligence", false)
	raw, err := s.generator.GenerateStructured(ctx, intelligenceSystemPrompt, buildDestinationIntelligencePrompt(destinationName, city), types.CallOptions{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Destination generation failed")
		return nil, fmt.Errorf("failed to generate intelligence for %q: %w", destinationName, err)
	}
	place, err := parseDestinationIntelligence(raw, destinationName, city)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Destination parse failed")
		return nil, err
	}

	span.SetStatus(codes.Ok, "Destination intelligence generated")
	return place, nil
}

func (s *ServiceImpl) GetCityProfile(ctx context.Context, city, country string) (*types.CityProfile, error) {
	ctx, span := otel.Tracer("TravelPulse").Start(ctx, "GetCityProfile")
	defer span.End()

	profile, err := s.repo.GetCityProfile(ctx, city, country)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "City profile lookup failed")
		return nil, err
	}

	span.SetStatus(codes.Ok, "City profile returned")
	return profile, nil
}

func (s *ServiceImpl) GetHiddenGems(ctx context.Context, city, country string, limit int) ([]types.HiddenGem, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.GetHiddenGems(ctx, city, country, limit)
}

// UpdateCityWithAI regenerates the full city intelligence document and
// upserts the profile plus its satellites. Staleness gating belongs to the
// callers: the scheduler only passes stale cities, the manual trigger is the
// sanctioned bypass.
func (s *ServiceImpl) UpdateCityWithAI(ctx context.Context, city, country string) (*types.CityProfile, error) {
	ctx, span := otel.Tracer("TravelPulse").Start(ctx, "UpdateCityWithAI", trace.WithAttributes(
		attribute.String("app.city", city),
		attribute.String("app.country", country),
	))
	defer span.End()

	raw, err := s.generator.GenerateStructured(ctx, cityProfileSystemPrompt, buildCityProfilePrompt(city, country), types.CallOptions{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "City document generation failed")
		return nil, fmt.Errorf("failed to generate city intelligence for %s, %s: %w", city, country, err)
	}
	doc, err := parseCityIntelligence(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "City document parse failed")
		return nil, err
	}

	now := time.Now()
	profile := types.CityProfile{
		CityName:         city,
		Country:          country,
		PulseScore:       doc.PulseScore,
		CrowdLevel:       stringOr(doc.CrowdLevel, "moderate"),
		VibeTags:         sliceOrEmpty(doc.VibeTags),
		AvgHotelPrice:    doc.AvgHotelPrice,
		TrendDirection:   stringOr(doc.TrendDirection, "stable"),
		CurrentHighlight: doc.CurrentHighlight,

		AIBestTimeToVisit:    doc.BestTimeToVisit,
		AILocalTips:          sliceOrEmpty(doc.LocalTips),
		AISafetyNotes:        doc.SafetyNotes,
		AIMustSeeAttractions: sliceOrEmpty(doc.MustSeeAttractions),
		AIBudgetEstimate:     doc.BudgetEstimate,
		AIGeneratedAt:        &now,
		AISourceModel:        s.sourceModel,
	}
	profile.AIMonthlyHighlights = make([]string, 0, len(doc.MonthlyHighlights))
	for _, m := range doc.MonthlyHighlights {
		profile.AIMonthlyHighlights = append(profile.AIMonthlyHighlights, m.Highlight)
	}
	profile.AIUpcomingEvents = make([]string, 0, len(doc.UpcomingEvents))
	for _, e := range doc.UpcomingEvents {
		profile.AIUpcomingEvents = append(profile.AIUpcomingEvents, e.Title)
	}

	stored, err := s.repo.UpsertCityProfile(ctx, profile)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "City profile upsert failed")
		return nil, err
	}

	s.mergeSatellites(ctx, city, country, doc)

	span.SetStatus(codes.Ok, "City profile refreshed")
	return stored, nil
}

// mergeSatellites folds the document's seasonal, event, and hidden gem
// sections into their tables. Row-level failures are logged and skipped so a
// bad satellite never loses the refreshed profile.
func (s *ServiceImpl) mergeSatellites(ctx context.Context, city, country string, doc *types.CityIntelligenceDoc) {
	for _, m := range doc.MonthlyHighlights {
		if m.Month < 1 || m.Month > 12 || m.Highlight == "" {
			continue
		}
		highlight := types.SeasonalHighlight{
			City:       city,
			Country:    country,
			Month:      m.Month,
			Highlight:  m.Highlight,
			Weather:    m.Weather,
			CrowdLevel: m.CrowdLevel,
			Provenance: types.ProvenanceAI,
		}
		if err := s.repo.UpsertSeasonalHighlight(ctx, highlight); err != nil {
			s.logger.ErrorContext(ctx, "Failed to merge seasonal highlight",
				slog.String("city", city), slog.Int("month", m.Month), slog.Any("error", err))
		}
	}

	for _, e := range doc.UpcomingEvents {
		if e.Title == "" {
			continue
		}
		event := types.UpcomingEvent{
			City:      city,
			Country:   country,
			Title:     e.Title,
			StartDate: e.StartDate,
			Category:  e.Category,
			Summary:   e.Summary,
			Source:    "ai",
		}
		if err := s.repo.InsertUpcomingEvent(ctx, event); err != nil {
			s.logger.ErrorContext(ctx, "Failed to merge upcoming event",
				slog.String("city", city), slog.String("title", e.Title), slog.Any("error", err))
		}
	}

	for _, g := range doc.HiddenGems {
		if g.PlaceName == "" {
			continue
		}
		gem := types.HiddenGem{
			City:            city,
			Country:         country,
			PlaceName:       g.PlaceName,
			PlaceType:       stringOr(g.PlaceType, "attraction"),
			Description:     g.Description,
			WhyLocalsLoveIt: g.WhyLocalsLoveIt,
			PriceRange:      g.PriceRange,
			InsiderTip:      g.InsiderTip,
			Provenance:      types.ProvenanceAI,
		}
		if err := s.repo.UpsertHiddenGem(ctx, gem); err != nil {
			s.logger.ErrorContext(ctx, "Failed to merge hidden gem",
				slog.String("city", city), slog.String("place", g.PlaceName), slog.Any("error", err))
		}
	}
}

// RefreshStaleAICities refreshes up to one batch of profiles whose AI fields
// are missing or older than 24 hours, pacing calls to stay friendly to the
// provider. Per-city failures are counted, not fatal.
func (s *ServiceImpl) RefreshStaleAICities(ctx context.Context) (RefreshResult, error) {
	ctx, span := otel.Tracer("TravelPulse").Start(ctx, "RefreshStaleAICities")
	defer span.End()

	stale, err := s.repo.ListStaleCityProfiles(ctx, cityProfileMaxAge, s.refreshCfg.BatchSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Stale profile query failed")
		return RefreshResult{}, err
	}

	var result RefreshResult
	for i, profile := range stale {
		if i > 0 && s.refreshCfg.InterCallDelay > 0 {
			select {
			case <-ctx.Done():
				span.SetStatus(codes.Error, "Refresh pass canceled")
				return result, ctx.Err()
			case <-time.After(s.refreshCfg.InterCallDelay):
			}
		}
		if _, err := s.UpdateCityWithAI(ctx, profile.CityName, profile.Country); err != nil {
			s.logger.ErrorContext(ctx, "Failed to refresh city profile",
				slog.String("city", profile.CityName),
				slog.String("country", profile.Country),
				slog.Any("error", err),
			)
			result.Errors++
			continue
		}
		result.Refreshed++
	}

	span.SetAttributes(
		attribute.Int("app.refresh.refreshed", result.Refreshed),
		attribute.Int("app.refresh.errors", result.Errors),
	)
	span.SetStatus(codes.Ok, "Refresh pass completed")
	return result, nil
}

func (s *ServiceImpl) CleanupExpired(ctx context.Context) (int64, error) {
	removed, err := s.repo.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.InfoContext(ctx, "Pruned expired intelligence rows", slog.Int64("removed", removed))
	}
	return removed, nil
}
