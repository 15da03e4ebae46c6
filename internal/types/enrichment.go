package types

import "time"

// Venue is a normalized lookup result from an external venue search API.
type Venue struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"` // restaurant, attraction, nightlife, hotel, activity
	Rating      float64 `json:"rating,omitempty"`
	ReviewCount int     `json:"reviewCount,omitempty"`
	PriceLevel  string  `json:"priceLevel,omitempty"`
	Address     string  `json:"address,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	Website     string  `json:"website,omitempty"`
	Hours       string  `json:"hours,omitempty"`
	Thumbnail   string  `json:"thumbnail,omitempty"`
	BookingURL  string  `json:"bookingUrl,omitempty"`
	Description string  `json:"description,omitempty"`
	Coordinates *LatLng `json:"coordinates,omitempty"`
	Source      string  `json:"source"` // serp, viator, amadeus, opentable
}

// AIRecommendation is the AI side of an enrichment merge: a named place and
// the reason it was suggested.
type AIRecommendation struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Reason     string `json:"reason"`
	PriceRange string `json:"priceRange,omitempty"`
	Source     string `json:"source"`
}

// BookingOption is one actionable link attached to a recommendation.
type BookingOption struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Type     string `json:"type"` // reservation, tickets, tour, website
}

// Match confidence and action kinds for enriched recommendations.
const (
	MatchHigh   = "high"
	MatchMedium = "medium"
	MatchLow    = "low"

	ActionBook    = "book"
	ActionVisit   = "visit"
	ActionExplore = "explore"
	ActionReserve = "reserve"
)

// EnrichedRecommendation pairs a verified venue with the AI's reasoning and
// booking links.
type EnrichedRecommendation struct {
	Venue

	AIReason        string          `json:"aiReason"`
	AIPriceRange    string          `json:"aiPriceRange,omitempty"`
	MatchConfidence string          `json:"matchConfidence"`
	ActionType      string          `json:"actionType"`
	BookingOptions  []BookingOption `json:"bookingOptions"`
}

// CityEnrichedContent is the full bookable content set for one city.
type CityEnrichedContent struct {
	CityName    string                   `json:"cityName"`
	Country     string                   `json:"country"`
	LastUpdated time.Time                `json:"lastUpdated"`
	Restaurants []EnrichedRecommendation `json:"restaurants"`
	Attractions []EnrichedRecommendation `json:"attractions"`
	Nightlife   []EnrichedRecommendation `json:"nightlife"`
	HiddenGems  []EnrichedRecommendation `json:"hiddenGems"`
	TrendingNow []EnrichedRecommendation `json:"trendingNow"`
}
