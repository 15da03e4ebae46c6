package types

import (
	"time"

	"github.com/google/uuid"
)

// Cache TTLs per intelligence kind. Calendar events are re-queried by date
// range instead of expiring on a short clock.
const (
	TrendingTTL   = 30 * time.Minute
	TruthCheckTTL = 60 * time.Minute
	LiveScoreTTL  = 15 * time.Minute
)

// Provenance tags who authored a row; non-AI rows are never overwritten by
// the AI merge routines.
type Provenance string

const (
	ProvenanceAI     Provenance = "ai"
	ProvenanceSystem Provenance = "system"
	ProvenanceUser   Provenance = "user"
)

// TrendingPlace is one cached trending destination/experience within a city.
type TrendingPlace struct {
	ID              uuid.UUID `json:"id"`
	City            string    `json:"city"`
	Country         string    `json:"country,omitempty"`
	DestinationName string    `json:"destination_name"`
	DestinationType string    `json:"destination_type"`
	TrendScore      int       `json:"trend_score"`
	GrowthPercent   float64   `json:"growth_percent"`
	MentionCount    int       `json:"mention_count"`
	TrendStatus     string    `json:"trend_status"` // emerging, viral, mainstream, declining
	TriggerEvent    string    `json:"trigger_event,omitempty"`
	LiveScore       float64   `json:"live_score"`
	SentimentScore  float64   `json:"sentiment_score"`
	SentimentTrend  string    `json:"sentiment_trend"`
	WorthItPercent  int       `json:"worth_it_percent"`
	OverallVerdict  string    `json:"overall_verdict"`
	TopHighlights   []string  `json:"top_highlights"`
	TopWarnings     []string  `json:"top_warnings"`
	BestTimeToVisit string    `json:"best_time_to_visit,omitempty"`
	Latitude        *float64  `json:"latitude,omitempty"`
	Longitude       *float64  `json:"longitude,omitempty"`
	ExpiresAt       time.Time `json:"expires_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// TruthCheck is a cached AI verdict on a natural-language travel claim.
type TruthCheck struct {
	ID               uuid.UUID  `json:"id"`
	QueryText        string     `json:"query_text"`
	QueryHash        string     `json:"query_hash"`
	SubjectName      string     `json:"subject_name"`
	SubjectType      string     `json:"subject_type"` // place, experience, claim
	City             string     `json:"city,omitempty"`
	PostsAnalyzed    int        `json:"posts_analyzed"`
	WorthItPercent   int        `json:"worth_it_percent"`
	MehPercent       int        `json:"meh_percent"`
	AvoidPercent     int        `json:"avoid_percent"`
	OverallVerdict   string     `json:"overall_verdict"`
	PositiveMentions []Mention  `json:"positive_mentions"`
	NegativeMentions []Mention  `json:"negative_mentions"`
	RealityScore     int        `json:"reality_score"`
	ExpectationGap   int        `json:"expectation_gap"`
	HitCount         int        `json:"hit_count"`
	LastAccessedAt   *time.Time `json:"last_accessed_at,omitempty"`
	ExpiresAt        time.Time  `json:"expires_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Mention is one aggregated sentiment data point inside a truth check.
type Mention struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

// LiveScore is a short-lived sentiment score for a named entity in a city.
type LiveScore struct {
	ID                  uuid.UUID `json:"id"`
	EntityName          string    `json:"entity_name"`
	EntityType          string    `json:"entity_type"`
	City                string    `json:"city"`
	WindowPeriod        string    `json:"window_period"`
	MentionCount        int       `json:"mention_count"`
	AvgSentiment        float64   `json:"avg_sentiment"`
	PositiveCount       int       `json:"positive_count"`
	NeutralCount        int       `json:"neutral_count"`
	NegativeCount       int       `json:"negative_count"`
	SentimentTrend      string    `json:"sentiment_trend"`
	Score               float64   `json:"score"`
	ScoreChange24h      float64   `json:"score_change_24h"`
	IsTrending          bool      `json:"is_trending"`
	TrendVelocity       int       `json:"trend_velocity"`
	TopPositiveKeywords []string  `json:"top_positive_keywords"`
	TopNegativeKeywords []string  `json:"top_negative_keywords"`
	ValidUntil          time.Time `json:"valid_until"`
	CreatedAt           time.Time `json:"created_at"`
}

// CalendarEvent is a travel-relevant occasion in a city, cached by date
// range rather than TTL.
type CalendarEvent struct {
	ID                 uuid.UUID `json:"id"`
	EventName          string    `json:"event_name"`
	EventType          string    `json:"event_type"`
	City               string    `json:"city"`
	StartDate          string    `json:"start_date"`
	EndDate            string    `json:"end_date,omitempty"`
	CrowdImpact        string    `json:"crowd_impact"`
	PriceImpact        string    `json:"price_impact"`
	CrowdImpactPercent int       `json:"crowd_impact_percent"`
	Description        string    `json:"description"`
	AffectedAreas      []string  `json:"affected_areas"`
	Tips               []string  `json:"tips"`
	Source             string    `json:"source"`
	CreatedAt          time.Time `json:"created_at"`
}

// CityProfile is one upsertable row per (city, country) pair mixing seeded
// pulse metrics with an AI-generated field group.
type CityProfile struct {
	ID         uuid.UUID `json:"id"`
	CityName   string    `json:"city_name"`
	Country    string    `json:"country"`
	PulseScore float64   `json:"pulse_score"`
	CrowdLevel string    `json:"crowd_level"`
	VibeTags   []string  `json:"vibe_tags"`
	AvgHotelPrice    float64 `json:"avg_hotel_price"`
	TrendDirection   string  `json:"trend_direction"`
	CurrentHighlight string  `json:"current_highlight,omitempty"`

	// AI-generated field group, refreshed at most every 24h.
	AIBestTimeToVisit    string     `json:"ai_best_time_to_visit,omitempty"`
	AIMonthlyHighlights  []string   `json:"ai_monthly_highlights,omitempty"`
	AIUpcomingEvents     []string   `json:"ai_upcoming_events,omitempty"`
	AILocalTips          []string   `json:"ai_local_tips,omitempty"`
	AISafetyNotes        string     `json:"ai_safety_notes,omitempty"`
	AIMustSeeAttractions []string   `json:"ai_must_see_attractions,omitempty"`
	AIBudgetEstimate     string     `json:"ai_budget_estimate,omitempty"`
	AIGeneratedAt        *time.Time `json:"ai_generated_at,omitempty"`
	AISourceModel        string     `json:"ai_source_model,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AIStale reports whether the AI field group needs a refresh.
func (p *CityProfile) AIStale(maxAge time.Duration) bool {
	return p.AIGeneratedAt == nil || time.Since(*p.AIGeneratedAt) > maxAge
}

// HiddenGem is keyed by (city, place name). Only AI-provenance rows may be
// refreshed by the AI merge routine.
type HiddenGem struct {
	ID              uuid.UUID  `json:"id"`
	City            string     `json:"city"`
	Country         string     `json:"country"`
	PlaceName       string     `json:"place_name"`
	PlaceType       string     `json:"place_type"`
	Description     string     `json:"description"`
	WhyLocalsLoveIt string     `json:"why_locals_love_it,omitempty"`
	PriceRange      string     `json:"price_range,omitempty"`
	InsiderTip      string     `json:"insider_tip,omitempty"`
	Provenance      Provenance `json:"provenance"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// SeasonalHighlight is the per-(city, country, month) satellite of a city
// profile. Month is 1-12.
type SeasonalHighlight struct {
	ID         uuid.UUID  `json:"id"`
	City       string     `json:"city"`
	Country    string     `json:"country"`
	Month      int        `json:"month"`
	Highlight  string     `json:"highlight"`
	Weather    string     `json:"weather,omitempty"`
	CrowdLevel string     `json:"crowd_level,omitempty"`
	Provenance Provenance `json:"provenance"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// UpcomingEvent is merged from AI city documents, de-duplicated by
// (city, country, title).
type UpcomingEvent struct {
	ID        uuid.UUID `json:"id"`
	City      string    `json:"city"`
	Country   string    `json:"country"`
	Title     string    `json:"title"`
	StartDate string    `json:"start_date,omitempty"`
	Category  string    `json:"category,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// CityIntelligenceDoc is the full structured document one AI call produces
// for a city refresh.
type CityIntelligenceDoc struct {
	PulseScore       float64  `json:"pulseScore"`
	CrowdLevel       string   `json:"crowdLevel"`
	VibeTags         []string `json:"vibeTags"`
	AvgHotelPrice    float64  `json:"avgHotelPrice"`
	TrendDirection   string   `json:"trendDirection"`
	CurrentHighlight string   `json:"currentHighlight"`
	BestTimeToVisit  string   `json:"bestTimeToVisit"`
	MonthlyHighlights []struct {
		Month      int    `json:"month"`
		Highlight  string `json:"highlight"`
		Weather    string `json:"weather"`
		CrowdLevel string `json:"crowdLevel"`
	} `json:"monthlyHighlights"`
	UpcomingEvents []struct {
		Title     string `json:"title"`
		StartDate string `json:"startDate"`
		Category  string `json:"category"`
		Summary   string `json:"summary"`
	} `json:"upcomingEvents"`
	LocalTips          []string `json:"localTips"`
	SafetyNotes        string   `json:"safetyNotes"`
	MustSeeAttractions []string `json:"mustSeeAttractions"`
	BudgetEstimate     string   `json:"budgetEstimate"`
	HiddenGems         []struct {
		PlaceName       string `json:"placeName"`
		PlaceType       string `json:"placeType"`
		Description     string `json:"description"`
		WhyLocalsLoveIt string `json:"whyLocalsLoveIt"`
		PriceRange      string `json:"priceRange"`
		InsiderTip      string `json:"insiderTip"`
	} `json:"hiddenGems"`
	AvoidDates []string `json:"avoidDates"`
}
