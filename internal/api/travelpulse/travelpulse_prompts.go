package travelpulse

import "fmt"

const (
	trendingSystemPrompt     = "You are a travel intelligence analyst. Always respond with valid JSON only."
	truthCheckSystemPrompt   = "You are a travel truth verification assistant. Respond with valid JSON only."
	calendarSystemPrompt     = "You are a travel calendar assistant. Respond with valid JSON only."
	liveScoreSystemPrompt    = "You are a sentiment analysis expert. Respond with valid JSON only."
	intelligenceSystemPrompt = "You are a travel intelligence analyst. Respond with valid JSON only."
	cityProfileSystemPrompt  = "You are a destination intelligence researcher. Respond with valid JSON only."
)

func buildTrendingPrompt(city string, limit int) string {
	return fmt.Sprintf(`You are a travel intelligence analyst. Analyze what's currently trending in %[1]s based on social media signals, travel blogs, and recent news.

Return a JSON array of %[2]d trending destinations/experiences in %[1]s. For each, provide comprehensive intelligence:

{
  "destinations": [
    {
      "destinationName": "Name of place/experience",
      "destinationType": "restaurant|attraction|hotel|tour|neighborhood|activity",
      "trendScore": 0-1000 (velocity of trending),
      "growthPercent": percentage increase in mentions,
      "mentionCount": estimated recent mentions,
      "trendStatus": "emerging|viral|mainstream|declining",
      "triggerEvent": "What caused the trend (influencer post, news, seasonal, etc.)",

      "liveScore": 1.0-5.0 (current rating based on sentiment),
      "sentimentScore": -1.0 to +1.0,
      "sentimentTrend": "up|down|stable",

      "worthItPercent": 0-100,
      "overallVerdict": "highly_recommended|recommended|mixed|skip",

      "topHighlights": ["positive aspect 1", "positive aspect 2"],
      "topWarnings": ["concern 1", "concern 2"],
      "bestTimeToVisit": "6-8am for photos, 5-7pm for atmosphere",

      "latitude": number or null,
      "longitude": number or null
    }
  ]
}

Focus on authentic traveler sentiment, not promotional content. Include hidden gems that are emerging, not just famous landmarks.`, city, limit)
}

func buildTruthCheckPrompt(query, city string) string {
	cityContext := ""
	if city != "" {
		cityContext = " in " + city
	}
	return fmt.Sprintf(`Analyze this travel question based on real traveler sentiment and experiences: "%s"%s

Search your knowledge of recent traveler experiences, reviews, and social media discussions to provide a truth check.

Return JSON:
{
  "subjectName": "Name of place/experience being asked about",
  "subjectType": "place|experience|claim",
  "city": "City name or null",
  "postsAnalyzed": estimated number of data points,

  "worthItPercent": 0-100 (percent who say worth it),
  "mehPercent": 0-100 (percent who say it's okay),
  "avoidPercent": 0-100 (percent who say avoid),
  "overallVerdict": "highly_recommended|recommended|mixed|skip",

  "positiveMentions": [{"text": "specific praise", "count": 5}],
  "negativeMentions": [{"text": "specific complaint", "count": 2}],

  "realityScore": 1-10 (how well photos match reality),
  "expectationGap": -5 to +5 (negative = worse than expected, positive = better)
}`, query, cityContext)
}

func buildCalendarPrompt(city, startDate, endDate string) string {
	return fmt.Sprintf(`List major events, festivals, holidays, and travel-relevant occasions in %s between %s and %s.

Return JSON:
{
  "events": [
    {
      "eventName": "Event name",
      "eventType": "festival|holiday|conference|sporting|cultural|religious",
      "startDate": "YYYY-MM-DD",
      "endDate": "YYYY-MM-DD or null",
      "crowdImpact": "low|moderate|high|extreme",
      "priceImpact": "lower|normal|higher|surge",
      "crowdImpactPercent": estimated %% increase in crowds,
      "description": "Brief description",
      "affectedAreas": ["list of affected neighborhoods/attractions"],
      "tips": ["Advice for travelers during this event"]
    }
  ]
}`, city, startDate, endDate)
}

func buildLiveScorePrompt(entityName, city string) string {
	return fmt.Sprintf(`Calculate a real-time LiveScore for "%[1]s" in %[2]s based on recent traveler sentiment.

Return JSON:
{
  "entityName": "%[1]s",
  "entityType": "restaurant|hotel|attraction|tour",
  "mentionCount": estimated recent mentions,
  "avgSentiment": -1.0 to 1.0,
  "positiveCount": number,
  "neutralCount": number,
  "negativeCount": number,
  "sentimentTrend": "up|down|stable",
  "liveScore": 1.0-5.0,
  "scoreChange24h": -2.0 to 2.0,
  "isTrending": boolean,
  "trendVelocity": 0-1000,
  "topPositiveKeywords": ["keyword1", "keyword2"],
  "topNegativeKeywords": ["keyword1", "keyword2"]
}`, entityName, city)
}

func buildDestinationIntelligencePrompt(destinationName, city string) string {
	return fmt.Sprintf(`Provide comprehensive travel intelligence for "%s" in %s.

Return a JSON object with the same fields as a trending destination: destinationName, destinationType, trendScore, growthPercent, mentionCount, trendStatus, triggerEvent, liveScore, sentimentScore, sentimentTrend, worthItPercent, overallVerdict, topHighlights, topWarnings, bestTimeToVisit, latitude, longitude.`, destinationName, city)
}

func buildCityProfilePrompt(city, country string) string {
	return fmt.Sprintf(`Generate a complete destination intelligence document for %s, %s covering pulse metrics, seasonality, and traveler recommendations.

Return JSON:
{
  "pulseScore": 0-100 (how alive the city feels for travelers right now),
  "crowdLevel": "quiet|moderate|busy|packed",
  "vibeTags": ["tag1", "tag2", "tag3"],
  "avgHotelPrice": average nightly price in USD,
  "trendDirection": "rising|stable|declining",
  "currentHighlight": "One sentence on what defines the city right now",
  "bestTimeToVisit": "Month range with reasoning",
  "monthlyHighlights": [
    {"month": 1-12, "highlight": "What makes this month special", "weather": "typical weather", "crowdLevel": "quiet|moderate|busy|packed"}
  ],
  "upcomingEvents": [
    {"title": "Event name", "startDate": "YYYY-MM-DD", "category": "festival|cultural|sporting|seasonal", "summary": "One sentence"}
  ],
  "localTips": ["insider tip 1", "insider tip 2"],
  "safetyNotes": "Current safety considerations for travelers",
  "mustSeeAttractions": ["attraction 1", "attraction 2"],
  "budgetEstimate": "Typical daily budget range with breakdown",
  "hiddenGems": [
    {"placeName": "Name", "placeType": "restaurant|cafe|bar|attraction|neighborhood|activity", "description": "What it is", "whyLocalsLoveIt": "Why locals go", "priceRange": "$|$$|$$$", "insiderTip": "How to do it right"}
  ],
  "avoidDates": ["YYYY-MM-DD ranges or named periods to avoid"]
}

Cover all 12 months in monthlyHighlights. Base everything on authentic traveler experience, not promotional copy.`, city, country)
}
