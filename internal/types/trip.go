package types

// CartItem is one booked or shortlisted item carried into an optimization
// request. Item names get folded into the must-see attraction list.
type CartItem struct {
	ID            string   `json:"id"`
	Type          string   `json:"type"`
	Name          string   `json:"name"`
	Price         float64  `json:"price"`
	Quantity      int      `json:"quantity"`
	Provider      string   `json:"provider,omitempty"`
	Details       string   `json:"details,omitempty"`
	ScheduledDate string   `json:"scheduled_date,omitempty"`
	ScheduledTime string   `json:"scheduled_time,omitempty"`
	Duration      int      `json:"duration,omitempty"`
	MeetingPoint  string   `json:"meeting_point,omitempty"`
	Coordinates   *LatLng  `json:"coordinates,omitempty"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// AutonomousItineraryRequest is the full prompt context for generating one
// complete day-by-day itinerary.
type AutonomousItineraryRequest struct {
	Destination           string    `json:"destination"`
	Dates                 DateRange `json:"dates"`
	Travelers             int       `json:"travelers"`
	Budget                *float64  `json:"budget,omitempty"`
	EventType             string    `json:"event_type,omitempty"`
	Interests             []string  `json:"interests"`
	PacePreference        string    `json:"pace_preference,omitempty"` // relaxed, moderate, packed
	MustSeeAttractions    []string  `json:"must_see_attractions,omitempty"`
	DietaryRestrictions   []string  `json:"dietary_restrictions,omitempty"`
	MobilityConsiderations []string `json:"mobility_considerations,omitempty"`

	// TravelPulseContext carries cached city intelligence into the prompt
	// when the cache has a profile for the destination.
	TravelPulseContext *CityProfile `json:"travel_pulse_context,omitempty"`
}

// ItineraryActivity is one scheduled slot within a day.
type ItineraryActivity struct {
	Time            string  `json:"time"`
	Name            string  `json:"name"`
	Type            string  `json:"type"`
	Duration        string  `json:"duration"`
	EstimatedCost   float64 `json:"estimatedCost"`
	Location        string  `json:"location"`
	Description     string  `json:"description"`
	Tips            string  `json:"tips,omitempty"`
	BookingRequired bool    `json:"bookingRequired,omitempty"`
}

type ItineraryMeal struct {
	Time       string `json:"time"`
	Type       string `json:"type"` // breakfast, lunch, dinner
	Suggestion string `json:"suggestion"`
	Cuisine    string `json:"cuisine"`
	PriceRange string `json:"priceRange"`
}

type ItineraryTransport struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Mode     string  `json:"mode"`
	Duration string  `json:"duration"`
	Cost     float64 `json:"cost"`
}

// ItineraryDay is one themed day of the generated plan.
type ItineraryDay struct {
	Day            int                  `json:"day"`
	Date           string               `json:"date"`
	Theme          string               `json:"theme"`
	Activities     []ItineraryActivity  `json:"activities"`
	Meals          []ItineraryMeal      `json:"meals"`
	Transportation []ItineraryTransport `json:"transportation"`
}

type AccommodationSuggestion struct {
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	PricePerNight  float64 `json:"pricePerNight"`
	Neighborhood   string  `json:"neighborhood"`
	WhyRecommended string  `json:"whyRecommended"`
}

// AutonomousItineraryResult is the provider's structured itinerary document.
type AutonomousItineraryResult struct {
	Title                     string                    `json:"title"`
	Summary                   string                    `json:"summary"`
	TotalEstimatedCost        float64                   `json:"totalEstimatedCost"`
	DailyItinerary            []ItineraryDay            `json:"dailyItinerary"`
	AccommodationSuggestions  []AccommodationSuggestion `json:"accommodationSuggestions"`
	PackingList               []string                  `json:"packingList"`
	TravelTips                []string                  `json:"travelTips"`
	EstimatedSavingsWithExpert float64                  `json:"estimatedSavingsWithExpert,omitempty"`
}

// Itinerary variation kinds, in generation order.
const (
	VariationUserPlan         = "user_plan"
	VariationWeatherOptimized = "weather_optimized"
	VariationBestValue        = "best_value"
)

// RealTimeFactors records which live-intelligence inputs actually shaped a
// variation.
type RealTimeFactors struct {
	WeatherUsed            bool `json:"weatherUsed"`
	EventsIncluded         int  `json:"eventsIncluded"`
	DealsApplied           int  `json:"dealsApplied"`
	SafetyAlertsConsidered int  `json:"safetyAlertsConsidered"`
}

// ItineraryVariation is one labeled alternative in an optimization result.
type ItineraryVariation struct {
	AutonomousItineraryResult

	VariationType        string          `json:"variationType"`
	VariationLabel       string          `json:"variationLabel"`
	VariationDescription string          `json:"variationDescription"`
	OptimizationInsights []string        `json:"optimizationInsights"`
	RealTimeFactors      RealTimeFactors `json:"realTimeFactors"`
}

// TripOptimizationRequest drives the multi-variation generator.
type TripOptimizationRequest struct {
	Destination            string     `json:"destination"`
	Dates                  DateRange  `json:"dates"`
	Travelers              int        `json:"travelers"`
	Budget                 *float64   `json:"budget,omitempty"`
	EventType              string     `json:"event_type,omitempty"`
	Interests              []string   `json:"interests"`
	PacePreference         string     `json:"pace_preference,omitempty"`
	CartItems              []CartItem `json:"cart_items,omitempty"`
	MustSeeAttractions     []string   `json:"must_see_attractions,omitempty"`
	DietaryRestrictions    []string   `json:"dietary_restrictions,omitempty"`
	MobilityConsiderations []string   `json:"mobility_considerations,omitempty"`
}

// TripOptimizationResult bundles all variations with the intelligence
// snapshot they were built from.
type TripOptimizationResult struct {
	Destination          string                `json:"destination"`
	DateRange            DateRange             `json:"dateRange"`
	RealTimeIntelligence *RealTimeIntelligence `json:"realTimeIntelligence"`
	Variations           []ItineraryVariation  `json:"variations"`
	GeneratedAt          string                `json:"generatedAt"`
}
