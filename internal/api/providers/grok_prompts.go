package providers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/traveloure/traveloure-api/internal/types"
)

const expertMatchSystemPrompt = `You are an expert matching algorithm for Traveloure, a travel planning platform. Your job is to analyze how well a travel expert matches a traveler's needs.

Score each expert on these dimensions (0-100):
1. Destination Match: Does the expert cover the traveler's destination?
2. Specialty Match: Do the expert's specialties align with the trip type and interests?
3. Experience Type Match: Is the expert experienced with this type of event (wedding, honeymoon, corporate, etc.)?
4. Budget Alignment: Is the expert's typical price range appropriate for the traveler's budget?
5. Availability Score: Based on the expert's capacity and the trip timeline

Calculate an overall weighted score and provide clear reasoning.

Return ONLY valid JSON with this structure:
{
  "expertId": "<expert id>",
  "overallScore": <0-100>,
  "breakdown": {
    "destinationMatch": <0-100>,
    "specialtyMatch": <0-100>,
    "experienceTypeMatch": <0-100>,
    "budgetAlignment": <0-100>,
    "availabilityScore": <0-100>
  },
  "strengths": ["<list of 2-4 key strengths>"],
  "reasoning": "<1-2 sentence explanation of why this expert is or isn't a good match>"
}`

func buildExpertMatchPrompt(traveler types.TravelerProfile, expert types.ExpertProfile) string {
	budget := "Not specified"
	if traveler.Budget != nil {
		budget = fmt.Sprintf("$%.0f", *traveler.Budget)
	}
	interests := "General sightseeing"
	if len(traveler.Interests) > 0 {
		interests = strings.Join(traveler.Interests, ", ")
	}
	eventType := traveler.EventType
	if eventType == "" {
		eventType = "vacation"
	}
	prefs, _ := json.Marshal(traveler.Preferences)
	if traveler.Preferences == nil {
		prefs = []byte("{}")
	}
	bio := expert.Bio
	if bio == "" {
		bio = "Not provided"
	}
	rating := "No ratings yet"
	if expert.AverageRating != nil {
		rating = fmt.Sprintf("%.1f", *expert.AverageRating)
	}

	return fmt.Sprintf(`Match this expert to the traveler's needs:

**Traveler Request:**
- Destination: %s
- Dates: %s to %s
- Event Type: %s
- Budget: %s
- Travelers: %d
- Interests: %s
- Preferences: %s

**Expert Profile:**
- ID: %s
- Name: %s
- Destinations: %s
- Specialties: %s
- Experience Types: %s
- Languages: %s
- Years of Experience: %s
- Bio: %s
- Rating: %s (%d reviews)

Analyze and return the match score JSON.`,
		traveler.Destination, traveler.TripDates.Start, traveler.TripDates.End,
		eventType, budget, traveler.Travelers, interests, string(prefs),
		expert.ID, expert.Name,
		strings.Join(expert.Destinations, ", "),
		strings.Join(expert.Specialties, ", "),
		strings.Join(expert.ExperienceTypes, ", "),
		strings.Join(expert.Languages, ", "),
		expert.YearsOfExperience, bio, rating, expert.ReviewCount,
	)
}

var contentLengthGuides = map[string]string{
	"short":  "50-100 words",
	"medium": "150-250 words",
	"long":   "300-500 words",
}

var contentTypePrompts = map[string]string{
	"bio":                 "Write a compelling professional bio for a travel expert/service provider. Highlight their unique value, experience, and personality.",
	"service_description": "Write an engaging service description that clearly explains what's included, the value proposition, and why travelers should book.",
	"inquiry_response":    "Draft a warm, helpful response to a traveler inquiry. Be professional yet personable, address their questions, and guide them toward booking.",
	"welcome_message":     "Write a welcoming message for a new traveler connection. Make them feel valued and set expectations for the collaboration.",
}

func buildContentGenerationSystemPrompt(req types.ContentGenerationRequest) string {
	typePrompt, ok := contentTypePrompts[req.Type]
	if !ok {
		typePrompt = "Write helpful content."
	}
	tone := req.Tone
	if tone == "" {
		tone = "professional"
	}
	length := req.Length
	if length == "" {
		length = "medium"
	}
	lengthGuide, ok := contentLengthGuides[length]
	if !ok {
		lengthGuide = contentLengthGuides["medium"]
	}

	return fmt.Sprintf(`You are a content writing assistant for Traveloure, helping travel experts create compelling content.
%s

Tone: %s
Length: %s

Return JSON:
{
  "content": "<main content>",
  "alternativeVersions": ["<optional alternative 1>", "<optional alternative 2>"],
  "suggestions": ["<improvement tip 1>", "<improvement tip 2>"]
}`, typePrompt, tone, lengthGuide)
}

func buildContentGenerationPrompt(req types.ContentGenerationRequest) string {
	contextJSON, _ := json.MarshalIndent(req.Context, "", "  ")
	return fmt.Sprintf("Generate %s content with this context:\n%s", req.Type, string(contextJSON))
}

const realTimeIntelligenceSystemPrompt = `You are a real-time travel intelligence agent for Traveloure. Provide current, accurate information about destinations to help travelers plan better trips.

You have access to current knowledge about world events, weather patterns, and travel trends. Be specific and actionable in your recommendations.

Return JSON with this structure:
{
  "destination": "<destination>",
  "timestamp": "<ISO timestamp>",
  "events": [
    {
      "name": "<event name>",
      "date": "<date or date range>",
      "type": "<festival|concert|sports|cultural|holiday|convention>",
      "description": "<brief description>",
      "relevance": "<high|medium|low>"
    }
  ],
  "weatherForecast": {
    "summary": "<weather summary>",
    "temperature": { "high": <number>, "low": <number> },
    "conditions": "<conditions>"
  },
  "safetyAlerts": [
    {
      "level": "<info|warning|critical>",
      "message": "<alert message>",
      "source": "<source>"
    }
  ],
  "trendingExperiences": [
    {
      "name": "<experience name>",
      "reason": "<why it's trending>",
      "popularity": <1-100>
    }
  ],
  "deals": [
    {
      "title": "<deal title>",
      "discount": "<discount amount>",
      "validUntil": "<date>"
    }
  ]
}`

func buildRealTimeIntelligencePrompt(req types.RealTimeIntelligenceRequest) string {
	topics := req.Topics
	if len(topics) == 0 {
		topics = []string{"events", "weather", "trending"}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Get real-time intelligence for:\nDestination: %s\n", req.Destination)
	if req.Dates != nil {
		fmt.Fprintf(&b, "Travel Dates: %s to %s\n", req.Dates.Start, req.Dates.End)
	}
	fmt.Fprintf(&b, "Topics requested: %s\n\nProvide current, actionable information.", strings.Join(topics, ", "))
	return b.String()
}

const autonomousItinerarySystemPrompt = `You are an autonomous trip planning AI for Traveloure. Create comprehensive, day-by-day itineraries that travelers can follow or use as a starting point for expert refinement.

Create itineraries that are:
1. Realistic - Consider travel times, opening hours, and fatigue
2. Balanced - Mix popular attractions with hidden gems
3. Budget-aware - Stay within the traveler's budget
4. Personalized - Reflect the traveler's interests and pace preference
5. Practical - Include transportation and meal suggestions

Return JSON with this structure:
{
  "title": "<catchy trip title>",
  "summary": "<1-2 sentence trip overview>",
  "totalEstimatedCost": <USD>,
  "dailyItinerary": [
    {
      "day": <number>,
      "date": "<YYYY-MM-DD>",
      "theme": "<day theme>",
      "activities": [
        {
          "time": "<HH:MM>",
          "name": "<activity name>",
          "type": "<attraction|tour|activity|entertainment>",
          "duration": "<e.g., 2 hours>",
          "estimatedCost": <USD>,
          "location": "<address>",
          "description": "<brief description>",
          "tips": "<optional insider tip>",
          "bookingRequired": <boolean>
        }
      ],
      "meals": [
        {
          "time": "<HH:MM>",
          "type": "<breakfast|lunch|dinner>",
          "suggestion": "<restaurant or food type>",
          "cuisine": "<cuisine type>",
          "priceRange": "<$|$$|$$$>"
        }
      ],
      "transportation": [
        {
          "from": "<origin>",
          "to": "<destination>",
          "mode": "<walk|taxi|metro|bus|train>",
          "duration": "<e.g., 15 min>",
          "cost": <USD>
        }
      ]
    }
  ],
  "accommodationSuggestions": [
    {
      "name": "<hotel name>",
      "type": "<hotel|hostel|boutique|luxury>",
      "pricePerNight": <USD>,
      "neighborhood": "<area>",
      "whyRecommended": "<reason>"
    }
  ],
  "packingList": ["<item 1>", "<item 2>"],
  "travelTips": ["<tip 1>", "<tip 2>"],
  "estimatedSavingsWithExpert": <USD - how much an expert could save them>
}`

func buildAutonomousItineraryPrompt(req types.AutonomousItineraryRequest) string {
	budget := "Flexible"
	if req.Budget != nil {
		budget = fmt.Sprintf("$%.0f", *req.Budget)
	}
	eventType := req.EventType
	if eventType == "" {
		eventType = "Vacation"
	}
	pace := req.PacePreference
	if pace == "" {
		pace = "moderate"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Create a complete travel itinerary:

**Trip Details:**
- Destination: %s
- Dates: %s to %s
- Travelers: %d
- Budget: %s
- Event Type: %s
- Interests: %s
- Pace: %s
`, req.Destination, req.Dates.Start, req.Dates.End, req.Travelers, budget, eventType, strings.Join(req.Interests, ", "), pace)

	if len(req.MustSeeAttractions) > 0 {
		fmt.Fprintf(&b, "- Must-See: %s\n", strings.Join(req.MustSeeAttractions, ", "))
	}
	if len(req.DietaryRestrictions) > 0 {
		fmt.Fprintf(&b, "- Dietary: %s\n", strings.Join(req.DietaryRestrictions, ", "))
	}
	if len(req.MobilityConsiderations) > 0 {
		fmt.Fprintf(&b, "- Mobility: %s\n", strings.Join(req.MobilityConsiderations, ", "))
	}
	if pulse := req.TravelPulseContext; pulse != nil {
		b.WriteString("\n**Destination Intelligence:**\n")
		if pulse.AIBestTimeToVisit != "" {
			fmt.Fprintf(&b, "- Best time to visit: %s\n", pulse.AIBestTimeToVisit)
		}
		if pulse.CrowdLevel != "" {
			fmt.Fprintf(&b, "- Current crowd level: %s\n", pulse.CrowdLevel)
		}
		if len(pulse.AIMustSeeAttractions) > 0 {
			fmt.Fprintf(&b, "- Known highlights: %s\n", strings.Join(pulse.AIMustSeeAttractions, ", "))
		}
		if len(pulse.AILocalTips) > 0 {
			fmt.Fprintf(&b, "- Local tips: %s\n", strings.Join(pulse.AILocalTips, "; "))
		}
		if pulse.AISafetyNotes != "" {
			fmt.Fprintf(&b, "- Safety notes: %s\n", pulse.AISafetyNotes)
		}
		if pulse.AIBudgetEstimate != "" {
			fmt.Fprintf(&b, "- Typical budget: %s\n", pulse.AIBudgetEstimate)
		}
	}
	b.WriteString("\nCreate a detailed, actionable itinerary.")
	return b.String()
}

const chatDefaultSystemPrompt = `You are a helpful travel planning assistant for Traveloure. Help travelers plan amazing trips with practical, actionable advice.`
