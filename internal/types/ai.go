package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AIProvider identifies an LLM backend.
type AIProvider string

const (
	ProviderGrok   AIProvider = "grok"
	ProviderGemini AIProvider = "gemini"
	// ProviderAuto defers provider choice to the routing table.
	ProviderAuto AIProvider = "auto"
)

// AITaskType is the closed set of AI work the orchestrator can dispatch.
type AITaskType string

const (
	TaskExpertMatching         AITaskType = "expert_matching"
	TaskContentGeneration      AITaskType = "content_generation"
	TaskRealTimeIntelligence   AITaskType = "real_time_intelligence"
	TaskAutonomousItinerary    AITaskType = "autonomous_itinerary"
	TaskItineraryOptimization  AITaskType = "itinerary_optimization"
	TaskTransportationAnalysis AITaskType = "transportation_analysis"
	TaskTravelRecommendations  AITaskType = "travel_recommendations"
	TaskChat                   AITaskType = "chat"
	TaskImageAnalysis          AITaskType = "image_analysis"
)

// AIUsage carries token counts and the provider-computed cost of one call.
type AIUsage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	EstimatedCost    float64 `json:"estimated_cost"`
}

// AIInteraction is one immutable row per provider call, written after the
// call completes (successfully or not).
type AIInteraction struct {
	TaskType         AITaskType      `json:"task_type"`
	Provider         AIProvider      `json:"provider"`
	PromptTokens     int             `json:"prompt_tokens"`
	CompletionTokens int             `json:"completion_tokens"`
	TotalTokens      int             `json:"total_tokens"`
	EstimatedCost    float64         `json:"estimated_cost"`
	DurationMs       int             `json:"duration_ms"`
	Success          bool            `json:"success"`
	ErrorMessage     string          `json:"error_message,omitempty"`
	UserID           *uuid.UUID      `json:"user_id,omitempty"`
	TripID           *uuid.UUID      `json:"trip_id,omitempty"`
	Metadata         json.RawMessage `json:"metadata,omitempty"`
}

// CallOptions is the optional correlation bag accepted by every
// orchestrator method.
type CallOptions struct {
	UserID *uuid.UUID
	TripID *uuid.UUID
}

// AIUsageStats aggregates interaction logs for cost accounting.
type AIUsageStats struct {
	TotalInteractions int                    `json:"total_interactions"`
	TotalTokens       int                    `json:"total_tokens"`
	TotalCost         float64                `json:"total_cost"`
	ByProvider        map[AIProvider]int `json:"by_provider"`
	ByTaskType        map[AITaskType]int `json:"by_task_type"`
	WindowStart       *time.Time         `json:"window_start,omitempty"`
	WindowEnd         *time.Time         `json:"window_end,omitempty"`
}

// TravelerProfile describes the traveler side of an expert match.
type TravelerProfile struct {
	Destination string         `json:"destination"`
	TripDates   DateRange      `json:"trip_dates"`
	EventType   string         `json:"event_type,omitempty"`
	Budget      *float64       `json:"budget,omitempty"`
	Travelers   int            `json:"travelers"`
	Interests   []string       `json:"interests,omitempty"`
	Preferences map[string]any `json:"preferences,omitempty"`
}

// ExpertProfile describes a candidate expert for matching.
type ExpertProfile struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Destinations      []string `json:"destinations"`
	Specialties       []string `json:"specialties"`
	ExperienceTypes   []string `json:"experience_types"`
	Languages         []string `json:"languages"`
	YearsOfExperience string   `json:"years_of_experience"`
	Bio               string   `json:"bio,omitempty"`
	AverageRating     *float64 `json:"average_rating,omitempty"`
	ReviewCount       int      `json:"review_count"`
}

// ExpertMatchResult is the scored outcome for one candidate.
type ExpertMatchResult struct {
	ExpertID     string   `json:"expertId"`
	OverallScore float64  `json:"overallScore"`
	Breakdown    struct {
		DestinationMatch    float64 `json:"destinationMatch"`
		SpecialtyMatch      float64 `json:"specialtyMatch"`
		ExperienceTypeMatch float64 `json:"experienceTypeMatch"`
		BudgetAlignment     float64 `json:"budgetAlignment"`
		AvailabilityScore   float64 `json:"availabilityScore"`
	} `json:"breakdown"`
	Strengths []string `json:"strengths"`
	Reasoning string   `json:"reasoning"`
}

// ContentGenerationRequest asks a provider for marketing/support copy.
type ContentGenerationRequest struct {
	Type    string         `json:"type"` // bio, service_description, inquiry_response, welcome_message
	Context map[string]any `json:"context"`
	Tone    string         `json:"tone,omitempty"`
	Length  string         `json:"length,omitempty"`
}

type ContentGenerationResult struct {
	Content             string   `json:"content"`
	AlternativeVersions []string `json:"alternativeVersions,omitempty"`
	Suggestions         []string `json:"suggestions,omitempty"`
}

// DateRange is an inclusive start/end pair in YYYY-MM-DD form.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// RealTimeIntelligenceRequest scopes a live-intelligence pull.
type RealTimeIntelligenceRequest struct {
	Destination string     `json:"destination"`
	Dates       *DateRange `json:"dates,omitempty"`
	Topics      []string   `json:"topics,omitempty"` // events, weather, safety, trending, deals
}

// RealTimeIntelligence is the provider's live snapshot for a destination.
type RealTimeIntelligence struct {
	Destination string `json:"destination"`
	Timestamp   string `json:"timestamp"`
	Events      []struct {
		Name        string `json:"name"`
		Date        string `json:"date"`
		Type        string `json:"type"`
		Description string `json:"description"`
		Relevance   string `json:"relevance"` // high, medium, low
	} `json:"events"`
	WeatherForecast *struct {
		Summary     string `json:"summary"`
		Temperature struct {
			High float64 `json:"high"`
			Low  float64 `json:"low"`
		} `json:"temperature"`
		Conditions string `json:"conditions"`
	} `json:"weatherForecast,omitempty"`
	SafetyAlerts []struct {
		Level   string `json:"level"`
		Message string `json:"message"`
		Source  string `json:"source"`
	} `json:"safetyAlerts,omitempty"`
	TrendingExperiences []struct {
		Name       string  `json:"name"`
		Reason     string  `json:"reason"`
		Popularity float64 `json:"popularity"`
	} `json:"trendingExperiences,omitempty"`
	Deals []struct {
		Title      string `json:"title"`
		Discount   string `json:"discount"`
		ValidUntil string `json:"validUntil"`
	} `json:"deals,omitempty"`
}

// ChatMessage is one turn in a provider chat exchange.
type ChatMessage struct {
	Role    string `json:"role"` // user, assistant, system
	Content string `json:"content"`
}

// ChatResult pairs the reply text with the provider that produced it.
type ChatResult struct {
	Response string     `json:"response"`
	Provider AIProvider `json:"provider"`
}
