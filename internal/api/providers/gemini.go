package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"

	"github.com/traveloure/traveloure-api/config"
	"github.com/traveloure/traveloure-api/internal/types"
)

// Gemini calls do not expose per-token pricing through the SDK, so spend is
// logged as a flat per-call estimate.
const (
	geminiOptimizationCost    = 0.05
	geminiTransportationCost  = 0.02
	geminiRecommendationsCost = 0.02
	geminiChatCost            = 0.01
)

var _ GeminiProvider = (*GeminiClient)(nil)

// GeminiProvider covers the analytical half of the provider pair.
type GeminiProvider interface {
	OptimizeItinerary(ctx context.Context, req types.ItineraryOptimizationRequest) (*types.ItineraryOptimizationResult, types.AIUsage, error)
	AnalyzeTransportation(ctx context.Context, hotel types.GeoLocation, activities []types.GeoLocation) (*types.TransportationPlan, types.AIUsage, error)
	GenerateTravelRecommendations(ctx context.Context, destination string, dates types.DateRange, interests []string) (*types.TravelRecommendationsResult, types.AIUsage, error)
	Chat(ctx context.Context, messages []types.ChatMessage, systemContext string) (string, types.AIUsage, error)
	HealthCheck(ctx context.Context) bool
}

type GeminiClient struct {
	logger *slog.Logger
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*GeminiClient, error) {
	apiKey := os.Getenv("GOOGLE_GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_GEMINI_API_KEY environment variable is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		logger: logger,
		client: client,
		model:  cfg.Providers.Gemini.Model,
	}, nil
}

// generate issues one call and returns the raw response text plus usage with
// the given flat cost.
func (c *GeminiClient) generate(ctx context.Context, prompt, systemInstruction string, flatCost float64) (string, types.AIUsage, error) {
	config := &genai.GenerateContentConfig{}
	if systemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		}
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return "", types.AIUsage{}, fmt.Errorf("gemini request failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", types.AIUsage{}, fmt.Errorf("empty response from gemini")
	}

	usage := types.AIUsage{EstimatedCost: flatCost}
	if result.UsageMetadata != nil {
		usage.PromptTokens = int(result.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(result.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int(result.UsageMetadata.TotalTokenCount)
	}
	return text, usage, nil
}

func (c *GeminiClient) OptimizeItinerary(ctx context.Context, req types.ItineraryOptimizationRequest) (*types.ItineraryOptimizationResult, types.AIUsage, error) {
	ctx, span := otel.Tracer("GeminiClient").Start(ctx, "OptimizeItinerary")
	defer span.End()
	span.SetAttributes(
		attribute.String("app.destination", req.Destination),
		attribute.Int("app.cart_items", len(req.CartItems)),
	)

	text, usage, err := c.generate(ctx, buildItineraryOptimizationPrompt(req), itineraryOptimizationSystemPrompt, geminiOptimizationCost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Optimization call failed")
		return nil, usage, fmt.Errorf("itinerary optimization failed: %w", err)
	}

	var result types.ItineraryOptimizationResult
	if err := json.Unmarshal([]byte(ExtractJSONBlock(text)), &result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid optimization JSON")
		return nil, usage, fmt.Errorf("failed to parse optimization result: %w", err)
	}

	span.SetStatus(codes.Ok, "Itinerary optimized")
	return &result, usage, nil
}

func (c *GeminiClient) AnalyzeTransportation(ctx context.Context, hotel types.GeoLocation, activities []types.GeoLocation) (*types.TransportationPlan, types.AIUsage, error) {
	ctx, span := otel.Tracer("GeminiClient").Start(ctx, "AnalyzeTransportation")
	defer span.End()
	span.SetAttributes(attribute.Int("app.activities", len(activities)))

	text, usage, err := c.generate(ctx, buildTransportationPrompt(hotel, activities), "", geminiTransportationCost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Transportation call failed")
		return nil, usage, fmt.Errorf("transportation analysis failed: %w", err)
	}

	var result types.TransportationPlan
	if err := json.Unmarshal([]byte(ExtractJSONBlock(text)), &result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid transportation JSON")
		return nil, usage, fmt.Errorf("failed to parse transportation plan: %w", err)
	}

	span.SetStatus(codes.Ok, "Transportation analyzed")
	return &result, usage, nil
}

func (c *GeminiClient) GenerateTravelRecommendations(ctx context.Context, destination string, dates types.DateRange, interests []string) (*types.TravelRecommendationsResult, types.AIUsage, error) {
	ctx, span := otel.Tracer("GeminiClient").Start(ctx, "GenerateTravelRecommendations")
	defer span.End()
	span.SetAttributes(attribute.String("app.destination", destination))

	text, usage, err := c.generate(ctx, buildTravelRecommendationsPrompt(destination, dates, interests), "", geminiRecommendationsCost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Recommendations call failed")
		return nil, usage, fmt.Errorf("travel recommendations failed: %w", err)
	}

	var result types.TravelRecommendationsResult
	if err := json.Unmarshal([]byte(ExtractJSONBlock(text)), &result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid recommendations JSON")
		return nil, usage, fmt.Errorf("failed to parse recommendations: %w", err)
	}

	span.SetStatus(codes.Ok, "Recommendations generated")
	return &result, usage, nil
}

func (c *GeminiClient) Chat(ctx context.Context, messages []types.ChatMessage, systemContext string) (string, types.AIUsage, error) {
	ctx, span := otel.Tracer("GeminiClient").Start(ctx, "Chat")
	defer span.End()

	systemPrompt := systemContext
	if systemPrompt == "" {
		systemPrompt = chatDefaultSystemPrompt
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		},
	}

	chat, err := c.client.Chats.Create(ctx, c.model, config, buildGeminiHistory(messages))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create chat")
		return "", types.AIUsage{}, fmt.Errorf("failed to create chat: %w", err)
	}

	last := messages[len(messages)-1]
	response, err := chat.SendMessage(ctx, genai.Part{Text: last.Content})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to send message")
		return "", types.AIUsage{}, fmt.Errorf("chat failed: %w", err)
	}

	text := response.Text()
	if text == "" {
		span.SetStatus(codes.Error, "Empty chat response")
		return "", types.AIUsage{}, fmt.Errorf("empty response from gemini")
	}

	usage := types.AIUsage{EstimatedCost: geminiChatCost}
	if response.UsageMetadata != nil {
		usage.PromptTokens = int(response.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(response.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int(response.UsageMetadata.TotalTokenCount)
	}

	span.SetStatus(codes.Ok, "Chat completed")
	return text, usage, nil
}

// buildGeminiHistory converts prior turns into genai history, leaving the
// final user message to be sent through the chat session.
func buildGeminiHistory(messages []types.ChatMessage) []*genai.Content {
	if len(messages) <= 1 {
		return nil
	}
	history := make([]*genai.Content, 0, len(messages)-1)
	for _, m := range messages[:len(messages)-1] {
		role := genai.RoleUser
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	return history
}

func (c *GeminiClient) HealthCheck(ctx context.Context) bool {
	_, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text("Hello"), nil)
	if err != nil {
		c.logger.WarnContext(ctx, "Gemini health check failed", slog.Any("error", err))
		return false
	}
	return true
}
