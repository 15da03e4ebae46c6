package travelpulse

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/traveloure/traveloure-api/internal/api/providers"
	"github.com/traveloure/traveloure-api/internal/types"
)

// Wire shapes for the model's JSON documents. Optional fields default to the
// schema's zero-ish values (sentiment 0, live score 4.0, status "emerging")
// when the model omits them.

type trendingItem struct {
	DestinationName string   `json:"destinationName"`
	DestinationType string   `json:"destinationType"`
	Country         string   `json:"country"`
	TrendScore      int      `json:"trendScore"`
	GrowthPercent   float64  `json:"growthPercent"`
	MentionCount    int      `json:"mentionCount"`
	TrendStatus     string   `json:"trendStatus"`
	TriggerEvent    string   `json:"triggerEvent"`
	LiveScore       float64  `json:"liveScore"`
	SentimentScore  float64  `json:"sentimentScore"`
	SentimentTrend  string   `json:"sentimentTrend"`
	WorthItPercent  int      `json:"worthItPercent"`
	OverallVerdict  string   `json:"overallVerdict"`
	TopHighlights   []string `json:"topHighlights"`
	TopWarnings     []string `json:"topWarnings"`
	BestTimeToVisit string   `json:"bestTimeToVisit"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
}

type trendingDoc struct {
	Destinations []trendingItem `json:"destinations"`
}

func (d trendingItem) toPlace(city string, expiresAt time.Time) types.TrendingPlace {
	return types.TrendingPlace{
		City:            strings.ToLower(city),
		Country:         d.Country,
		DestinationName: d.DestinationName,
		DestinationType: stringOr(d.DestinationType, "attraction"),
		TrendScore:      d.TrendScore,
		GrowthPercent:   d.GrowthPercent,
		MentionCount:    d.MentionCount,
		TrendStatus:     stringOr(d.TrendStatus, "emerging"),
		TriggerEvent:    d.TriggerEvent,
		LiveScore:       floatOr(d.LiveScore, 4.0),
		SentimentScore:  d.SentimentScore,
		SentimentTrend:  stringOr(d.SentimentTrend, "stable"),
		WorthItPercent:  d.WorthItPercent,
		OverallVerdict:  d.OverallVerdict,
		TopHighlights:   sliceOrEmpty(d.TopHighlights),
		TopWarnings:     sliceOrEmpty(d.TopWarnings),
		BestTimeToVisit: d.BestTimeToVisit,
		Latitude:        d.Latitude,
		Longitude:       d.Longitude,
		ExpiresAt:       expiresAt,
	}
}

func parseTrendingResponse(raw, city string, now time.Time) ([]types.TrendingPlace, error) {
	var doc trendingDoc
	if err := json.Unmarshal([]byte(providers.ExtractJSONBlock(raw)), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse trending response: %w", err)
	}
	if len(doc.Destinations) == 0 {
		return nil, fmt.Errorf("trending response for %s contained no destinations", city)
	}

	expiresAt := now.Add(types.TrendingTTL)
	places := make([]types.TrendingPlace, 0, len(doc.Destinations))
	for _, d := range doc.Destinations {
		if d.DestinationName == "" {
			continue
		}
		places = append(places, d.toPlace(city, expiresAt))
	}
	if len(places) == 0 {
		return nil, fmt.Errorf("trending response for %s contained no named destinations", city)
	}
	return places, nil
}

type truthCheckDoc struct {
	SubjectName      string          `json:"subjectName"`
	SubjectType      string          `json:"subjectType"`
	City             string          `json:"city"`
	PostsAnalyzed    int             `json:"postsAnalyzed"`
	WorthItPercent   int             `json:"worthItPercent"`
	MehPercent       int             `json:"mehPercent"`
	AvoidPercent     int             `json:"avoidPercent"`
	OverallVerdict   string          `json:"overallVerdict"`
	PositiveMentions []types.Mention `json:"positiveMentions"`
	NegativeMentions []types.Mention `json:"negativeMentions"`
	RealityScore     int             `json:"realityScore"`
	ExpectationGap   int             `json:"expectationGap"`
}

func parseTruthCheckResponse(raw, queryText, queryHash, city string, now time.Time) (*types.TruthCheck, error) {
	var doc truthCheckDoc
	if err := json.Unmarshal([]byte(providers.ExtractJSONBlock(raw)), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse truth check response: %w", err)
	}
	if doc.SubjectName == "" {
		return nil, fmt.Errorf("truth check response named no subject")
	}

	check := &types.TruthCheck{
		QueryText:        queryText,
		QueryHash:        queryHash,
		SubjectName:      doc.SubjectName,
		SubjectType:      stringOr(doc.SubjectType, "claim"),
		City:             stringOr(doc.City, city),
		PostsAnalyzed:    doc.PostsAnalyzed,
		WorthItPercent:   doc.WorthItPercent,
		MehPercent:       doc.MehPercent,
		AvoidPercent:     doc.AvoidPercent,
		OverallVerdict:   doc.OverallVerdict,
		PositiveMentions: mentionsOrEmpty(doc.PositiveMentions),
		NegativeMentions: mentionsOrEmpty(doc.NegativeMentions),
		RealityScore:     doc.RealityScore,
		ExpectationGap:   doc.ExpectationGap,
		ExpiresAt:        now.Add(types.TruthCheckTTL),
	}
	return check, nil
}

type calendarDoc struct {
	Events []struct {
		EventName          string   `json:"eventName"`
		EventType          string   `json:"eventType"`
		StartDate          string   `json:"startDate"`
		EndDate            string   `json:"endDate"`
		CrowdImpact        string   `json:"crowdImpact"`
		PriceImpact        string   `json:"priceImpact"`
		CrowdImpactPercent int      `json:"crowdImpactPercent"`
		Description        string   `json:"description"`
		AffectedAreas      []string `json:"affectedAreas"`
		Tips               []string `json:"tips"`
	} `json:"events"`
}

func parseCalendarResponse(raw, city string) ([]types.CalendarEvent, error) {
	var doc calendarDoc
	if err := json.Unmarshal([]byte(providers.ExtractJSONBlock(raw)), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse calendar response: %w", err)
	}

	events := make([]types.CalendarEvent, 0, len(doc.Events))
	for _, e := range doc.Events {
		if e.EventName == "" || e.StartDate == "" {
			continue
		}
		events = append(events, types.CalendarEvent{
			EventName:          e.EventName,
			EventType:          stringOr(e.EventType, "cultural"),
			City:               strings.ToLower(city),
			StartDate:          e.StartDate,
			EndDate:            e.EndDate,
			CrowdImpact:        stringOr(e.CrowdImpact, "moderate"),
			PriceImpact:        stringOr(e.PriceImpact, "normal"),
			CrowdImpactPercent: e.CrowdImpactPercent,
			Description:        e.Description,
			AffectedAreas:      sliceOrEmpty(e.AffectedAreas),
			Tips:               sliceOrEmpty(e.Tips),
			Source:             "grok",
		})
	}
	return events, nil
}

type liveScoreDoc struct {
	EntityName          string   `json:"entityName"`
	EntityType          string   `json:"entityType"`
	MentionCount        int      `json:"mentionCount"`
	AvgSentiment        float64  `json:"avgSentiment"`
	PositiveCount       int      `json:"positiveCount"`
	NeutralCount        int      `json:"neutralCount"`
	NegativeCount       int      `json:"negativeCount"`
	SentimentTrend      string   `json:"sentimentTrend"`
	LiveScore           float64  `json:"liveScore"`
	ScoreChange24h      float64  `json:"scoreChange24h"`
	IsTrending          bool     `json:"isTrending"`
	TrendVelocity       int      `json:"trendVelocity"`
	TopPositiveKeywords []string `json:"topPositiveKeywords"`
	TopNegativeKeywords []string `json:"topNegativeKeywords"`
}

func parseLiveScoreResponse(raw, entityName, city string, now time.Time) (*types.LiveScore, error) {
	var doc liveScoreDoc
	if err := json.Unmarshal([]byte(providers.ExtractJSONBlock(raw)), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse live score response: %w", err)
	}

	return &types.LiveScore{
		EntityName:          stringOr(doc.EntityName, entityName),
		EntityType:          stringOr(doc.EntityType, "attraction"),
		City:                strings.ToLower(city),
		WindowPeriod:        "24h",
		MentionCount:        doc.MentionCount,
		AvgSentiment:        doc.AvgSentiment,
		PositiveCount:       doc.PositiveCount,
		NeutralCount:        doc.NeutralCount,
		NegativeCount:       doc.NegativeCount,
		SentimentTrend:      stringOr(doc.SentimentTrend, "stable"),
		Score:               floatOr(doc.LiveScore, 4.0),
		ScoreChange24h:      doc.ScoreChange24h,
		IsTrending:          doc.IsTrending,
		TrendVelocity:       doc.TrendVelocity,
		TopPositiveKeywords: sliceOrEmpty(doc.TopPositiveKeywords),
		TopNegativeKeywords: sliceOrEmpty(doc.TopNegativeKeywords),
		ValidUntil:          now.Add(types.LiveScoreTTL),
	}, nil
}

// parseDestinationIntelligence handles the single-destination drill-down
// document. The result is ephemeral and never cached, so it carries no
// expiry.
func parseDestinationIntelligence(raw, destinationName, city string) (*types.TrendingPlace, error) {
	var item trendingItem
	if err := json.Unmarshal([]byte(providers.ExtractJSONBlock(raw)), &item); err != nil {
		return nil, fmt.Errorf("failed to parse destination intelligence response: %w", err)
	}
	if item.DestinationName == "" {
		item.DestinationName = destinationName
	}
	place := item.toPlace(city, time.Time{})
	return &place, nil
}

func parseCityIntelligence(raw string) (*types.CityIntelligenceDoc, error) {
	var doc types.CityIntelligenceDoc
	if err := json.Unmarshal([]byte(providers.ExtractJSONBlock(raw)), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse city intelligence document: %w", err)
	}
	return &doc, nil
}

func stringOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func floatOr(f, fallback float64) float64 {
	if f == 0 {
		return fallback
	}
	return f
}

func sliceOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func mentionsOrEmpty(m []types.Mention) []types.Mention {
	if m == nil {
		return []types.Mention{}
	}
	return m
}
