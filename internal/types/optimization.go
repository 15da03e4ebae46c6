package types

// OptimizationPreferences tune how an existing cart is rescheduled.
type OptimizationPreferences struct {
	PacePreference      string `json:"pace_preference,omitempty"` // relaxed, moderate, packed
	PrioritizeProximity bool   `json:"prioritize_proximity,omitempty"`
	PrioritizeBudget    bool   `json:"prioritize_budget,omitempty"`
	PrioritizeRatings   bool   `json:"prioritize_ratings,omitempty"`
}

// ItineraryOptimizationRequest asks for a schedule built from already-booked
// cart items, as opposed to generating an itinerary from scratch.
type ItineraryOptimizationRequest struct {
	Destination string                   `json:"destination"`
	StartDate   string                   `json:"start_date"`
	EndDate     string                   `json:"end_date"`
	Travelers   int                      `json:"travelers"`
	Budget      *float64                 `json:"budget,omitempty"`
	CartItems   []CartItem               `json:"cart_items"`
	Preferences *OptimizationPreferences `json:"preferences,omitempty"`
}

type ScheduleItem struct {
	Time                   string `json:"time"`
	Type                   string `json:"type"`
	Name                   string `json:"name"`
	Location               string `json:"location,omitempty"`
	Notes                  string `json:"notes,omitempty"`
	TravelTimeFromPrevious int    `json:"travelTimeFromPrevious,omitempty"`
}

type ScheduleDay struct {
	Day   int            `json:"day"`
	Date  string         `json:"date"`
	Items []ScheduleItem `json:"items"`
}

type TransportationSuggestion struct {
	From            string  `json:"from"`
	To              string  `json:"to"`
	RecommendedMode string  `json:"recommendedMode"`
	EstimatedTime   int     `json:"estimatedTime"`
	EstimatedCost   float64 `json:"estimatedCost,omitempty"`
}

type HotelProximityAnalysis struct {
	NearestActivities           []string `json:"nearestActivities"`
	AverageDistanceToActivities float64  `json:"averageDistanceToActivities,omitempty"`
	Recommendation              string   `json:"recommendation,omitempty"`
}

// ItineraryOptimizationResult scores the cart and lays it out day by day.
type ItineraryOptimizationResult struct {
	Score                     float64                    `json:"score"`
	Insights                  []string                   `json:"insights"`
	Recommendations           []string                   `json:"recommendations"`
	Schedule                  []ScheduleDay              `json:"schedule"`
	TransportationSuggestions []TransportationSuggestion `json:"transportationSuggestions,omitempty"`
	HotelProximityAnalysis    *HotelProximityAnalysis    `json:"hotelProximityAnalysis,omitempty"`
}

// GeoLocation is a labeled coordinate used in transportation analysis.
type GeoLocation struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
	Name    string  `json:"name,omitempty"`
}

type TransportationRecommendation struct {
	Activity        string `json:"activity"`
	From            string `json:"from"`
	RecommendedMode string `json:"recommendedMode"`
	EstimatedTime   int    `json:"estimatedTime"`
	Reason          string `json:"reason"`
}

// TransportationPlan maps each activity to its best route from the hotel.
type TransportationPlan struct {
	Recommendations []TransportationRecommendation `json:"recommendations"`
}

type TravelRecommendation struct {
	Type          string  `json:"type"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	EstimatedCost float64 `json:"estimatedCost"`
	Priority      string  `json:"priority"` // must-do, recommended, optional
}

type TravelRecommendationsResult struct {
	Recommendations []TravelRecommendation `json:"recommendations"`
}
