package travelpulse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/traveloure/traveloure-api/internal/types"
)

var _ Repository = (*PostgresTravelPulseRepo)(nil)

// Repository is the persistence surface of the destination intelligence
// cache. Lookups treat expired rows as absent; writes are keyed by natural
// business keys so concurrent refreshes cannot create duplicates.
type Repository interface {
	GetTrending(ctx context.Context, city string, limit int) ([]types.TrendingPlace, error)
	GetTrendingByName(ctx context.Context, destinationName, city string) (*types.TrendingPlace, error)
	InsertTrending(ctx context.Context, places []types.TrendingPlace) ([]types.TrendingPlace, error)

	GetTruthCheckByHash(ctx context.Context, queryHash string) (*types.TruthCheck, error)
	BumpTruthCheckHit(ctx context.Context, id uuid.UUID) error
	InsertTruthCheck(ctx context.Context, check types.TruthCheck) (*types.TruthCheck, error)

	GetLiveScore(ctx context.Context, entityName, city string) (*types.LiveScore, error)
	InsertLiveScore(ctx context.Context, score types.LiveScore) (*types.LiveScore, error)

	GetCalendarEvents(ctx context.Context, city, startDate, endDate string) ([]types.CalendarEvent, error)
	InsertCalendarEvents(ctx context.Context, events []types.CalendarEvent) ([]types.CalendarEvent, error)

	GetCityProfile(ctx context.Context, city, country string) (*types.CityProfile, error)
	ListStaleCityProfiles(ctx context.Context, maxAge time.Duration, limit int) ([]types.CityProfile, error)
	UpsertCityProfile(ctx context.Context, profile types.CityProfile) (*types.CityProfile, error)

	UpsertSeasonalHighlight(ctx context.Context, highlight types.SeasonalHighlight) error
	InsertUpcomingEvent(ctx context.Context, event types.UpcomingEvent) error
	UpsertHiddenGem(ctx context.Context, gem types.HiddenGem) error
	GetHiddenGems(ctx context.Context, city, country string, limit int) ([]types.HiddenGem, error)

	DeleteExpired(ctx context.Context) (int64, error)
}

type PostgresTravelPulseRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresTravelPulseRepo(pgxpool *pgxpool.Pool, logger *slog.Logger) *PostgresTravelPulseRepo {
	return &PostgresTravelPulseRepo{
		logger: logger,
		pgpool: pgxpool,
	}
}

const trendingColumns = `
    id, city, country, destination_name, destination_type, trend_score,
    growth_percent, mention_count, trend_status, trigger_event, live_score,
    sentiment_score, sentiment_trend, worth_it_percent, overall_verdict,
    top_highlights, top_warnings, best_time_to_visit, latitude, longitude,
    expires_at, created_at`

func scanTrending(row pgx.Row) (*types.TrendingPlace, error) {
	var p types.TrendingPlace
	var country, triggerEvent, bestTime *string
	err := row.Scan(
		&p.ID, &p.City, &country, &p.DestinationName, &p.DestinationType, &p.TrendScore,
		&p.GrowthPercent, &p.MentionCount, &p.TrendStatus, &triggerEvent, &p.LiveScore,
		&p.SentimentScore, &p.SentimentTrend, &p.WorthItPercent, &p.OverallVerdict,
		&p.TopHighlights, &p.TopWarnings, &bestTime, &p.Latitude, &p.Longitude,
		&p.ExpiresAt, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if country != nil {
		p.Country = *country
	}
	if triggerEvent != nil {
		p.TriggerEvent = *triggerEvent
	}
	if bestTime != nil {
		p.BestTimeToVisit = *bestTime
	}
	return &p, nil
}

func (r *PostgresTravelPulseRepo) GetTrending(ctx context.Context, city string, limit int) ([]types.TrendingPlace, error) {
	query := `
        SELECT` + trendingColumns + `
        FROM travel_pulse_trending
        WHERE lower(city) = lower($1) AND expires_at > now()
        ORDER BY trend_score DESC
        LIMIT $2
    `
	rows, err := r.pgpool.Query(ctx, query, city, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trending places: %w", err)
	}
	defer rows.Close()

	var places []types.TrendingPlace
	for rows.Next() {
		p, err := scanTrending(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trending place: %w", err)
		}
		places = append(places, *p)
	}
	return places, rows.Err()
}

func (r *PostgresTravelPulseRepo) GetTrendingByName(ctx context.Context, destinationName, city string) (*types.TrendingPlace, error) {
	query := `
        SELECT` + trendingColumns + `
        FROM travel_pulse_trending
        WHERE lower(destination_name) = lower($1) AND lower(city) = lower($2)
        ORDER BY created_at DESC
        LIMIT 1
    `
	p, err := scanTrending(r.pgpool.QueryRow(ctx, query, destinationName, city))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query trending place by name: %w", err)
	}
	return p, nil
}

func (r *PostgresTravelPulseRepo) InsertTrending(ctx context.Context, places []types.TrendingPlace) ([]types.TrendingPlace, error) {
	query := `
        INSERT INTO travel_pulse_trending (
            city, country, destination_name, destination_type, trend_score,
            growth_percent, mention_count, trend_status, trigger_event, live_score,
            sentiment_score, sentiment_trend, worth_it_percent, overall_verdict,
            top_highlights, top_warnings, best_time_to_visit, latitude, longitude,
            expires_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
        RETURNING` + trendingColumns + `
    `
	inserted := make([]types.TrendingPlace, 0, len(places))
	for _, p := range places {
		row := r.pgpool.QueryRow(ctx, query,
			p.City, nilIfEmpty(p.Country), p.DestinationName, p.DestinationType, p.TrendScore,
			p.GrowthPercent, p.MentionCount, p.TrendStatus, nilIfEmpty(p.TriggerEvent), p.LiveScore,
			p.SentimentScore, p.SentimentTrend, p.WorthItPercent, p.OverallVerdict,
			p.TopHighlights, p.TopWarnings, nilIfEmpty(p.BestTimeToVisit), p.Latitude, p.Longitude,
			p.ExpiresAt,
		)
		stored, err := scanTrending(row)
		if err != nil {
			return nil, fmt.Errorf("failed to insert trending place %q: %w", p.DestinationName, err)
		}
		inserted = append(inserted, *stored)
	}
	return inserted, nil
}

func (r *PostgresTravelPulseRepo) GetTruthCheckByHash(ctx context.Context, queryHash string) (*types.TruthCheck, error) {
	query := `
        SELECT id, query_text, query_hash, subject_name, subject_type, city,
               posts_analyzed, worth_it_percent, meh_percent, avoid_percent,
               overall_verdict, positive_mentions, negative_mentions,
               reality_score, expectation_gap, hit_count, last_accessed_at,
               expires_at, created_at
        FROM travel_pulse_truth_checks
        WHERE query_hash = $1 AND expires_at > now()
        LIMIT 1
    `
	check, err := scanTruthCheck(r.pgpool.QueryRow(ctx, query, queryHash))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query truth check: %w", err)
	}
	return check, nil
}

func scanTruthCheck(row pgx.Row) (*types.TruthCheck, error) {
	var c types.TruthCheck
	var city *string
	err := row.Scan(
		&c.ID, &c.QueryText, &c.QueryHash, &c.SubjectName, &c.SubjectType, &city,
		&c.PostsAnalyzed, &c.WorthItPercent, &c.MehPercent, &c.AvoidPercent,
		&c.OverallVerdict, &c.PositiveMentions, &c.NegativeMentions,
		&c.RealityScore, &c.ExpectationGap, &c.HitCount, &c.LastAccessedAt,
		&c.ExpiresAt, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if city != nil {
		c.City = *city
	}
	return &c, nil
}

func (r *PostgresTravelPulseRepo) BumpTruthCheckHit(ctx context.Context, id uuid.UUID) error {
	query := `
        UPDATE travel_pulse_truth_checks
        SET hit_count = hit_count + 1, last_accessed_at = now()
        WHERE id = $1
    `
	_, err := r.pgpool.Exec(ctx, query, id)
	return err
}

func (r *PostgresTravelPulseRepo) InsertTruthCheck(ctx context.Context, check types.TruthCheck) (*types.TruthCheck, error) {
	query := `
        INSERT INTO travel_pulse_truth_checks (
            query_text, query_hash, subject_name, subject_type, city,
            posts_analyzed, worth_it_percent, meh_percent, avoid_percent,
            overall_verdict, positive_mentions, negative_mentions,
            reality_score, expectation_gap, expires_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        RETURNING id, query_text, query_hash, subject_name, subject_type, city,
                  posts_analyzed, worth_it_percent, meh_percent, avoid_percent,
                  overall_verdict, positive_mentions, negative_mentions,
                  reality_score, expectation_gap, hit_count, last_accessed_at,
                  expires_at, created_at
    `
	row := r.pgpool.QueryRow(ctx, query,
		check.QueryText, check.QueryHash, check.SubjectName, check.SubjectType, nilIfEmpty(check.City),
		check.PostsAnalyzed, check.WorthItPercent, check.MehPercent, check.AvoidPercent,
		check.OverallVerdict, check.PositiveMentions, check.NegativeMentions,
		check.RealityScore, check.ExpectationGap, check.ExpiresAt,
	)
	stored, err := scanTruthCheck(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert truth check: %w", err)
	}
	return stored, nil
}

const liveScoreColumns = `
    id, entity_name, entity_type, city, window_period, mention_count,
    avg_sentiment, positive_count, neutral_count, negative_count,
    sentiment_trend, score, score_change_24h, is_trending, trend_velocity,
    top_positive_keywords, top_negative_keywords, valid_until, created_at`

func scanLiveScore(row pgx.Row) (*types.LiveScore, error) {
	var s types.LiveScore
	err := row.Scan(
		&s.ID, &s.EntityName, &s.EntityType, &s.City, &s.WindowPeriod, &s.MentionCount,
		&s.AvgSentiment, &s.PositiveCount, &s.NeutralCount, &s.NegativeCount,
		&s.SentimentTrend, &s.Score, &s.ScoreChange24h, &s.IsTrending, &s.TrendVelocity,
		&s.TopPositiveKeywords, &s.TopNegativeKeywords, &s.ValidUntil, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresTravelPulseRepo) GetLiveScore(ctx context.Context, entityName, city string) (*types.LiveScore, error) {
	query := `
        SELECT` + liveScoreColumns + `
        FROM travel_pulse_live_scores
        WHERE lower(entity_name) = lower($1) AND lower(city) = lower($2) AND valid_until > now()
        ORDER BY created_at DESC
        LIMIT 1
    `
	score, err := scanLiveScore(r.pgpool.QueryRow(ctx, query, entityName, city))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query live score: %w", err)
	}
	return score, nil
}

func (r *PostgresTravelPulseRepo) InsertLiveScore(ctx context.Context, score types.LiveScore) (*types.LiveScore, error) {
	query := `
        INSERT INTO travel_pulse_live_scores (
            entity_name, entity_type, city, window_period, mention_count,
            avg_sentiment, positive_count, neutral_count, negative_count,
            sentiment_trend, score, score_change_24h, is_trending, trend_velocity,
            top_positive_keywords, top_negative_keywords, valid_until
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
        RETURNING` + liveScoreColumns + `
    `
	row := r.pgpool.QueryRow(ctx, query,
		score.EntityName, score.EntityType, score.City, score.WindowPeriod, score.MentionCount,
		score.AvgSentiment, score.PositiveCount, score.NeutralCount, score.NegativeCount,
		score.SentimentTrend, score.Score, score.ScoreChange24h, score.IsTrending, score.TrendVelocity,
		score.TopPositiveKeywords, score.TopNegativeKeywords, score.ValidUntil,
	)
	stored, err := scanLiveScore(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert live score: %w", err)
	}
	return stored, nil
}

const calendarColumns = `
    id, event_name, event_type, city, start_date::text, end_date::text,
    crowd_impact, price_impact, crowd_impact_percent, description,
    affected_areas, tips, source, created_at`

func scanCalendarEvent(row pgx.Row) (*types.CalendarEvent, error) {
	var e types.CalendarEvent
	var endDate *string
	err := row.Scan(
		&e.ID, &e.EventName, &e.EventType, &e.City, &e.StartDate, &endDate,
		&e.CrowdImpact, &e.PriceImpact, &e.CrowdImpactPercent, &e.Description,
		&e.AffectedAreas, &e.Tips, &e.Source, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if endDate != nil {
		e.EndDate = *endDate
	}
	return &e, nil
}

func (r *PostgresTravelPulseRepo) GetCalendarEvents(ctx context.Context, city, startDate, endDate string) ([]types.CalendarEvent, error) {
	query := `
        SELECT` + calendarColumns + `
        FROM travel_pulse_calendar_events
        WHERE lower(city) = lower($1) AND start_date >= $2::date AND start_date <= $3::date
        ORDER BY start_date
    `
	rows, err := r.pgpool.Query(ctx, query, city, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar events: %w", err)
	}
	defer rows.Close()

	var events []types.CalendarEvent
	for rows.Next() {
		e, err := scanCalendarEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan calendar event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// InsertCalendarEvents is idempotent per (city, event_name, start_date);
// rows already present are skipped, not duplicated.
func (r *PostgresTravelPulseRepo) InsertCalendarEvents(ctx context.Context, events []types.CalendarEvent) ([]types.CalendarEvent, error) {
	query := `
        INSERT INTO travel_pulse_calendar_events (
            event_name, event_type, city, start_date, end_date,
            crowd_impact, price_impact, crowd_impact_percent, description,
            affected_areas, tips, source
        ) VALUES ($1, $2, $3, $4::date, $5::date, $6, $7, $8, $9, $10, $11, $12)
        ON CONFLICT (city, event_name, start_date) DO NOTHING
        RETURNING` + calendarColumns + `
    `
	inserted := make([]types.CalendarEvent, 0, len(events))
	for _, e := range events {
		row := r.pgpool.QueryRow(ctx, query,
			e.EventName, e.EventType, e.City, e.StartDate, nilIfEmpty(e.EndDate),
			e.CrowdImpact, e.PriceImpact, e.CrowdImpactPercent, e.Description,
			e.AffectedAreas, e.Tips, e.Source,
		)
		stored, err := scanCalendarEvent(row)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to insert calendar event %q: %w", e.EventName, err)
		}
		inserted = append(inserted, *stored)
	}
	return inserted, nil
}

const cityProfileColumns = `
    id, city_name, country, pulse_score, crowd_level, vibe_tags,
    avg_hotel_price, trend_direction, current_highlight,
    ai_best_time_to_visit, ai_monthly_highlights, ai_upcoming_events,
    ai_local_tips, ai_safety_notes, ai_must_see_attractions,
    ai_budget_estimate, ai_generated_at, ai_source_model,
    created_at, updated_at`

func scanCityProfile(row pgx.Row) (*types.CityProfile, error) {
	var p types.CityProfile
	var currentHighlight, bestTime, safetyNotes, budgetEstimate, sourceModel *string
	err := row.Scan(
		&p.ID, &p.CityName, &p.Country, &p.PulseScore, &p.CrowdLevel, &p.VibeTags,
		&p.AvgHotelPrice, &p.TrendDirection, &currentHighlight,
		&bestTime, &p.AIMonthlyHighlights, &p.AIUpcomingEvents,
		&p.AILocalTips, &safetyNotes, &p.AIMustSeeAttractions,
		&budgetEstimate, &p.AIGeneratedAt, &sourceModel,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if currentHighlight != nil {
		p.CurrentHighlight = *currentHighlight
	}
	if bestTime != nil {
		p.AIBestTimeToVisit = *bestTime
	}
	if safetyNotes != nil {
		p.AISafetyNotes = *safetyNotes
	}
	if budgetEstimate != nil {
		p.AIBudgetEstimate = *budgetEstimate
	}
	if sourceModel != nil {
		p.AISourceModel = *sourceModel
	}
	return &p, nil
}

func (r *PostgresTravelPulseRepo) GetCityProfile(ctx context.Context, city, country string) (*types.CityProfile, error) {
	// An empty country matches any profile for the city; callers that only
	// know a destination name still get context.
	query := `
        SELECT` + cityProfileColumns + `
        FROM city_profiles
        WHERE lower(city_name) = lower($1) AND ($2 = '' OR lower(country) = lower($2))
        ORDER BY updated_at DESC
        LIMIT 1
    `
	profile, err := scanCityProfile(r.pgpool.QueryRow(ctx, query, city, country))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query city profile: %w", err)
	}
	return profile, nil
}

func (r *PostgresTravelPulseRepo) ListStaleCityProfiles(ctx context.Context, maxAge time.Duration, limit int) ([]types.CityProfile, error) {
	query := `
        SELECT` + cityProfileColumns + `
        FROM city_profiles
        WHERE ai_generated_at IS NULL OR ai_generated_at < now() - $1::interval
        ORDER BY ai_generated_at NULLS FIRST
        LIMIT $2
    `
	interval := fmt.Sprintf("%d seconds", int(maxAge.Seconds()))
	rows, err := r.pgpool.Query(ctx, query, interval, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale city profiles: %w", err)
	}
	defer rows.Close()

	var profiles []types.CityProfile
	for rows.Next() {
		p, err := scanCityProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan city profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (r *PostgresTravelPulseRepo) UpsertCityProfile(ctx context.Context, profile types.CityProfile) (*types.CityProfile, error) {
	query := `
        INSERT INTO city_profiles (
            city_name, country, pulse_score, crowd_level, vibe_tags,
            avg_hotel_price, trend_direction, current_highlight,
            ai_best_time_to_visit, ai_monthly_highlights, ai_upcoming_events,
            ai_local_tips, ai_safety_notes, ai_must_see_attractions,
            ai_budget_estimate, ai_generated_at, ai_source_model
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
        ON CONFLICT (city_name, country) DO UPDATE SET
            pulse_score = EXCLUDED.pulse_score,
            crowd_level = EXCLUDED.crowd_level,
            vibe_tags = EXCLUDED.vibe_tags,
            avg_hotel_price = EXCLUDED.avg_hotel_price,
            trend_direction = EXCLUDED.trend_direction,
            current_highlight = EXCLUDED.current_highlight,
            ai_best_time_to_visit = EXCLUDED.ai_best_time_to_visit,
            ai_monthly_highlights = EXCLUDED.ai_monthly_highlights,
            ai_upcoming_events = EXCLUDED.ai_upcoming_events,
            ai_local_tips = EXCLUDED.ai_local_tips,
            ai_safety_notes = EXCLUDED.ai_safety_notes,
            ai_must_see_attractions = EXCLUDED.ai_must_see_attractions,
            ai_budget_estimate = EXCLUDED.ai_budget_estimate,
            ai_generated_at = EXCLUDED.ai_generated_at,
            ai_source_model = EXCLUDED.ai_source_model,
            updated_at = now()
        RETURNING` + cityProfileColumns + `
    `
	row := r.pgpool.QueryRow(ctx, query,
		profile.CityName, profile.Country, profile.PulseScore, profile.CrowdLevel, profile.VibeTags,
		profile.AvgHotelPrice, profile.TrendDirection, nilIfEmpty(profile.CurrentHighlight),
		nilIfEmpty(profile.AIBestTimeToVisit), profile.AIMonthlyHighlights, profile.AIUpcomingEvents,
		profile.AILocalTips, nilIfEmpty(profile.AISafetyNotes), profile.AIMustSeeAttractions,
		nilIfEmpty(profile.AIBudgetEstimate), profile.AIGeneratedAt, nilIfEmpty(profile.AISourceModel),
	)
	stored, err := scanCityProfile(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert city profile for %s, %s: %w", profile.CityName, profile.Country, err)
	}
	return stored, nil
}

// UpsertSeasonalHighlight only overwrites rows whose provenance is ai or
// system. Curated user rows keep their content.
func (r *PostgresTravelPulseRepo) UpsertSeasonalHighlight(ctx context.Context, highlight types.SeasonalHighlight) error {
	query := `
        INSERT INTO seasonal_highlights (city, country, month, highlight, weather, crowd_level, provenance)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (city, country, month) DO UPDATE SET
            highlight = EXCLUDED.highlight,
            weather = EXCLUDED.weather,
            crowd_level = EXCLUDED.crowd_level,
            provenance = EXCLUDED.provenance,
            updated_at = now()
        WHERE seasonal_highlights.provenance IN ('ai', 'system')
    `
	_, err := r.pgpool.Exec(ctx, query,
		highlight.City, highlight.Country, highlight.Month, highlight.Highlight,
		nilIfEmpty(highlight.Weather), nilIfEmpty(highlight.CrowdLevel), highlight.Provenance,
	)
	return err
}

// InsertUpcomingEvent de-duplicates by (city, country, title).
func (r *PostgresTravelPulseRepo) InsertUpcomingEvent(ctx context.Context, event types.UpcomingEvent) error {
	query := `
        INSERT INTO upcoming_events (city, country, title, start_date, category, summary, source)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (city, country, title) DO NOTHING
    `
	_, err := r.pgpool.Exec(ctx, query,
		event.City, event.Country, event.Title,
		nilIfEmpty(event.StartDate), nilIfEmpty(event.Category), nilIfEmpty(event.Summary), event.Source,
	)
	return err
}

// UpsertHiddenGem refreshes only rows the AI authored in the first place.
func (r *PostgresTravelPulseRepo) UpsertHiddenGem(ctx context.Context, gem types.HiddenGem) error {
	query := `
        INSERT INTO hidden_gems (city, country, place_name, place_type, description, why_locals_love_it, price_range, insider_tip, provenance)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (city, place_name) DO UPDATE SET
            country = EXCLUDED.country,
            place_type = EXCLUDED.place_type,
            description = EXCLUDED.description,
            why_locals_love_it = EXCLUDED.why_locals_love_it,
            price_range = EXCLUDED.price_range,
            insider_tip = EXCLUDED.insider_tip,
            updated_at = now()
        WHERE hidden_gems.provenance = 'ai'
    `
	_, err := r.pgpool.Exec(ctx, query,
		gem.City, gem.Country, gem.PlaceName, gem.PlaceType, gem.Description,
		nilIfEmpty(gem.WhyLocalsLoveIt), nilIfEmpty(gem.PriceRange), nilIfEmpty(gem.InsiderTip), gem.Provenance,
	)
	return err
}

func (r *PostgresTravelPulseRepo) GetHiddenGems(ctx context.Context, city, country string, limit int) ([]types.HiddenGem, error) {
	query := `
        SELECT id, city, country, place_name, place_type, description,
               why_locals_love_it, price_range, insider_tip, provenance,
               created_at, updated_at
        FROM hidden_gems
        WHERE lower(city) = lower($1) AND lower(country) = lower($2)
        ORDER BY updated_at DESC
        LIMIT $3
    `
	rows, err := r.pgpool.Query(ctx, query, city, country, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query hidden gems: %w", err)
	}
	defer rows.Close()

	var gems []types.HiddenGem
	for rows.Next() {
		var g types.HiddenGem
		var whyLocals, priceRange, insiderTip *string
		if err := rows.Scan(
			&g.ID, &g.City, &g.Country, &g.PlaceName, &g.PlaceType, &g.Description,
			&whyLocals, &priceRange, &insiderTip, &g.Provenance,
			&g.CreatedAt, &g.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan hidden gem: %w", err)
		}
		if whyLocals != nil {
			g.WhyLocalsLoveIt = *whyLocals
		}
		if priceRange != nil {
			g.PriceRange = *priceRange
		}
		if insiderTip != nil {
			g.InsiderTip = *insiderTip
		}
		gems = append(gems, g)
	}
	return gems, rows.Err()
}

// DeleteExpired prunes rows past their freshness window across all TTL-bound
// tables and returns the total removed.
func (r *PostgresTravelPulseRepo) DeleteExpired(ctx context.Context) (int64, error) {
	var total int64
	for _, query := range []string{
		`DELETE FROM travel_pulse_trending WHERE expires_at < now()`,
		`DELETE FROM travel_pulse_truth_checks WHERE expires_at < now()`,
		`DELETE FROM travel_pulse_live_scores WHERE valid_until < now()`,
	} {
		tag, err := r.pgpool.Exec(ctx, query)
		if err != nil {
			return total, fmt.Errorf("failed to delete expired cache rows: %w", err)
		}
		total += tag.RowsAffected()
	}
	return total, nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
