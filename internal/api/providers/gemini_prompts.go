package providers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/traveloure/traveloure-api/internal/types"
)

const itineraryOptimizationSystemPrompt = `You are an expert travel planner AI for Traveloure. Your job is to analyze a user's travel cart items (flights, hotels, activities, services) and create an optimized itinerary.

You will receive:
- Destination and travel dates
- Number of travelers and budget
- Cart items with full metadata including:
  - Flights: departure/arrival times, airline, cabin class, baggage
  - Hotels: check-in/out dates, board type, refundability
  - Activities: duration, meeting points with coordinates, cancellation policy
  - Services: pricing and details

Your task:
1. Analyze the items for logical sequencing
2. Check for timing conflicts
3. Optimize travel routes between activities based on meeting point locations
4. Suggest transportation between locations
5. Evaluate hotel proximity to activities
6. Provide a day-by-day schedule
7. Give an overall optimization score (0-100)

Return a JSON object with the exact structure specified.`

func buildItineraryOptimizationPrompt(req types.ItineraryOptimizationRequest) string {
	budget := "Not specified"
	if req.Budget != nil {
		budget = fmt.Sprintf("$%.0f", *req.Budget)
	}
	prefs, _ := json.Marshal(req.Preferences)
	if req.Preferences == nil {
		prefs = []byte("{}")
	}
	cartItems, _ := json.MarshalIndent(req.CartItems, "", "  ")

	return fmt.Sprintf(`Analyze and optimize this travel itinerary:

**Destination:** %s
**Dates:** %s to %s
**Travelers:** %d
**Budget:** %s
**Preferences:** %s

**Cart Items:**
%s

Please analyze this itinerary and return a JSON object with this exact structure:
{
  "score": <number 0-100>,
  "insights": [<array of key observations about the itinerary>],
  "recommendations": [<array of actionable improvements>],
  "schedule": [
    {
      "day": <number>,
      "date": "<YYYY-MM-DD>",
      "items": [
        {
          "time": "<HH:MM>",
          "type": "<flight|hotel|activity|service>",
          "name": "<item name>",
          "location": "<address or location>",
          "notes": "<any relevant notes>",
          "travelTimeFromPrevious": <minutes, optional>
        }
      ]
    }
  ],
  "transportationSuggestions": [
    {
      "from": "<location>",
      "to": "<location>",
      "recommendedMode": "<taxi|uber|metro|walk|bus>",
      "estimatedTime": <minutes>,
      "estimatedCost": <optional, in USD>
    }
  ],
  "hotelProximityAnalysis": {
    "nearestActivities": [<list of nearby activity names>],
    "averageDistanceToActivities": <km, optional>,
    "recommendation": "<optional suggestion about hotel location>"
  }
}

Return ONLY valid JSON, no additional text.`,
		req.Destination, req.StartDate, req.EndDate, req.Travelers, budget, string(prefs), string(cartItems))
}

func buildTransportationPrompt(hotel types.GeoLocation, activities []types.GeoLocation) string {
	var lines []string
	for _, a := range activities {
		lines = append(lines, fmt.Sprintf("- %s: %s (%f, %f)", a.Name, a.Address, a.Lat, a.Lng))
	}

	return fmt.Sprintf(`Given a hotel location and activity meeting points, recommend the best transportation options.

Hotel: %s (%f, %f)

Activities:
%s

For each activity, recommend transportation from the hotel. Consider:
- Distance and estimated travel time
- Cost-effectiveness
- Convenience for travelers

Return JSON:
{
  "recommendations": [
    {
      "activity": "<activity name>",
      "from": "<hotel address>",
      "recommendedMode": "<taxi|uber|metro|walk|bus|rental car>",
      "estimatedTime": <minutes>,
      "reason": "<brief explanation>"
    }
  ]
}`, hotel.Address, hotel.Lat, hotel.Lng, strings.Join(lines, "\n"))
}

func buildTravelRecommendationsPrompt(destination string, dates types.DateRange, interests []string) string {
	return fmt.Sprintf(`As a travel expert, recommend activities and experiences for:

Destination: %s
Dates: %s to %s
Interests: %s

Provide 5-8 recommendations in JSON format:
{
  "recommendations": [
    {
      "type": "<activity|tour|restaurant|attraction>",
      "name": "<name>",
      "description": "<brief description>",
      "estimatedCost": <USD>,
      "priority": "<must-do|recommended|optional>"
    }
  ]
}`, destination, dates.Start, dates.End, strings.Join(interests, ", "))
}
