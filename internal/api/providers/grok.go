package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/traveloure/traveloure-api/config"
	"github.com/traveloure/traveloure-api/internal/types"
)

// Grok-2 pricing per 1M tokens.
const (
	grokInputCostPerM  = 5.0
	grokOutputCostPerM = 10.0
)

var _ GrokProvider = (*GrokClient)(nil)

// GrokProvider is the xAI side of the provider pair. All methods return the
// usage stats of the underlying call so the orchestrator can log them.
type GrokProvider interface {
	MatchExpert(ctx context.Context, traveler types.TravelerProfile, expert types.ExpertProfile) (*types.ExpertMatchResult, types.AIUsage, error)
	GenerateContent(ctx context.Context, req types.ContentGenerationRequest) (*types.ContentGenerationResult, types.AIUsage, error)
	GetRealTimeIntelligence(ctx context.Context, req types.RealTimeIntelligenceRequest) (*types.RealTimeIntelligence, types.AIUsage, error)
	GenerateAutonomousItinerary(ctx context.Context, req types.AutonomousItineraryRequest) (*types.AutonomousItineraryResult, types.AIUsage, error)
	GenerateStructured(ctx context.Context, systemPrompt, userPrompt string) (string, types.AIUsage, error)
	Chat(ctx context.Context, messages []types.ChatMessage, systemContext string) (string, types.AIUsage, error)
	AnalyzeImage(ctx context.Context, base64Image, prompt string) (string, types.AIUsage, error)
	HealthCheck(ctx context.Context) bool
}

// GrokClient talks to the xAI OpenAI-compatible chat completions endpoint.
type GrokClient struct {
	logger      *slog.Logger
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	visionModel string
}

func NewGrokClient(cfg *config.Config, logger *slog.Logger) (*GrokClient, error) {
	apiKey := os.Getenv("XAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("XAI_API_KEY environment variable is not set")
	}

	timeout := cfg.Providers.Grok.Timeout
	if timeout == 0 {
		timeout = 90 * time.Second
	}

	return &GrokClient{
		logger:      logger,
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     cfg.Providers.Grok.BaseURL,
		apiKey:      apiKey,
		model:       cfg.Providers.Grok.Model,
		visionModel: cfg.Providers.Grok.VisionModel,
	}, nil
}

type chatCompletionMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatCompletionRequest struct {
	Model          string                  `json:"model"`
	Messages       []chatCompletionMessage `json:"messages"`
	ResponseFormat *responseFormat         `json:"response_format,omitempty"`
	MaxTokens      int                     `json:"max_tokens,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func grokCost(promptTokens, completionTokens int) float64 {
	inputCost := float64(promptTokens) / 1_000_000 * grokInputCostPerM
	outputCost := float64(completionTokens) / 1_000_000 * grokOutputCostPerM
	return inputCost + outputCost
}

// chatCompletion issues one call and returns the first choice's content plus
// usage. jsonMode asks the API to constrain output to a JSON object.
func (c *GrokClient) chatCompletion(ctx context.Context, model string, messages []chatCompletionMessage, jsonMode bool, maxTokens int) (string, types.AIUsage, error) {
	reqBody := chatCompletionRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	if jsonMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", types.AIUsage{}, fmt.Errorf("failed to marshal grok request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", types.AIUsage{}, fmt.Errorf("failed to build grok request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", types.AIUsage{}, fmt.Errorf("grok request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", types.AIUsage{}, c.parseAPIError(resp)
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", types.AIUsage{}, fmt.Errorf("failed to decode grok response: %w", err)
	}

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", types.AIUsage{}, errors.New("empty response from grok")
	}

	usage := types.AIUsage{
		PromptTokens:     completion.Usage.PromptTokens,
		CompletionTokens: completion.Usage.CompletionTokens,
		TotalTokens:      completion.Usage.TotalTokens,
		EstimatedCost:    grokCost(completion.Usage.PromptTokens, completion.Usage.CompletionTokens),
	}
	return completion.Choices[0].Message.Content, usage, nil
}

func (c *GrokClient) parseAPIError(resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil || len(data) == 0 {
		return fmt.Errorf("grok api error: %s", resp.Status)
	}

	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error.Message != "" {
		return fmt.Errorf("grok api error: %s", payload.Error.Message)
	}
	return fmt.Errorf("grok api error: %s", resp.Status)
}

func (c *GrokClient) MatchExpert(ctx context.Context, traveler types.TravelerProfile, expert types.ExpertProfile) (*types.ExpertMatchResult, types.AIUsage, error) {
	ctx, span := otel.Tracer("GrokClient").Start(ctx, "MatchExpert")
	defer span.End()
	span.SetAttributes(attribute.String("app.expert.id", expert.ID))

	content, usage, err := c.chatCompletion(ctx, c.model, []chatCompletionMessage{
		{Role: "system", Content: expertMatchSystemPrompt},
		{Role: "user", Content: buildExpertMatchPrompt(traveler, expert)},
	}, true, 1024)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Expert matching call failed")
		return nil, usage, fmt.Errorf("expert matching failed: %w", err)
	}

	var result types.ExpertMatchResult
	if err := json.Unmarshal([]byte(ExtractJSONBlock(content)), &result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid match JSON")
		return nil, usage, fmt.Errorf("failed to parse expert match result: %w", err)
	}

	span.SetStatus(codes.Ok, "Expert matched")
	return &result, usage, nil
}

func (c *GrokClient) GenerateContent(ctx context.Context, req types.ContentGenerationRequest) (*types.ContentGenerationResult, types.AIUsage, error) {
	ctx, span := otel.Tracer("GrokClient").Start(ctx, "GenerateContent")
	defer span.End()
	span.SetAttributes(attribute.String("app.content.type", req.Type))

	content, usage, err := c.chatCompletion(ctx, c.model, []chatCompletionMessage{
		{Role: "system", Content: buildContentGenerationSystemPrompt(req)},
		{Role: "user", Content: buildContentGenerationPrompt(req)},
	}, true, 2048)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Content generation call failed")
		return nil, usage, fmt.Errorf("content generation failed: %w", err)
	}

	var result types.ContentGenerationResult
	if err := json.Unmarshal([]byte(ExtractJSONBlock(content)), &result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid content JSON")
		return nil, usage, fmt.Errorf("failed to parse content generation result: %w", err)
	}

	span.SetStatus(codes.Ok, "Content generated")
	return &result, usage, nil
}

func (c *GrokClient) GetRealTimeIntelligence(ctx context.Context, req types.RealTimeIntelligenceRequest) (*types.RealTimeIntelligence, types.AIUsage, error) {
	ctx, span := otel.Tracer("GrokClient").Start(ctx, "GetRealTimeIntelligence")
	defer span.End()
	span.SetAttributes(attribute.String("app.destination", req.Destination))

	content, usage, err := c.chatCompletion(ctx, c.model, []chatCompletionMessage{
		{Role: "system", Content: realTimeIntelligenceSystemPrompt},
		{Role: "user", Content: buildRealTimeIntelligencePrompt(req)},
	}, true, 2048)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Intelligence call failed")
		return nil, usage, fmt.Errorf("real-time intelligence failed: %w", err)
	}

	var result types.RealTimeIntelligence
	if err := json.Unmarshal([]byte(ExtractJSONBlock(content)), &result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid intelligence JSON")
		return nil, usage, fmt.Errorf("failed to parse intelligence result: %w", err)
	}

	span.SetStatus(codes.Ok, "Intelligence retrieved")
	return &result, usage, nil
}

func (c *GrokClient) GenerateAutonomousItinerary(ctx context.Context, req types.AutonomousItineraryRequest) (*types.AutonomousItineraryResult, types.AIUsage, error) {
	ctx, span := otel.Tracer("GrokClient").Start(ctx, "GenerateAutonomousItinerary")
	defer span.End()
	span.SetAttributes(
		attribute.String("app.destination", req.Destination),
		attribute.Int("app.travelers", req.Travelers),
	)

	content, usage, err := c.chatCompletion(ctx, c.model, []chatCompletionMessage{
		{Role: "system", Content: autonomousItinerarySystemPrompt},
		{Role: "user", Content: buildAutonomousItineraryPrompt(req)},
	}, true, 8192)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Itinerary call failed")
		return nil, usage, fmt.Errorf("autonomous itinerary generation failed: %w", err)
	}

	var result types.AutonomousItineraryResult
	if err := json.Unmarshal([]byte(ExtractJSONBlock(content)), &result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid itinerary JSON")
		return nil, usage, fmt.Errorf("failed to parse itinerary result: %w", err)
	}

	span.SetStatus(codes.Ok, "Itinerary generated")
	return &result, usage, nil
}

// GenerateStructured runs an arbitrary prompt pair in JSON mode and returns
// the raw response text. Callers own the parsing.
func (c *GrokClient) GenerateStructured(ctx context.Context, systemPrompt, userPrompt string) (string, types.AIUsage, error) {
	ctx, span := otel.Tracer("GrokClient").Start(ctx, "GenerateStructured")
	defer span.End()

	content, usage, err := c.chatCompletion(ctx, c.model, []chatCompletionMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}, true, 0)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Structured generation failed")
		return "", usage, fmt.Errorf("structured generation failed: %w", err)
	}

	span.SetStatus(codes.Ok, "Structured response generated")
	return content, usage, nil
}

func (c *GrokClient) Chat(ctx context.Context, messages []types.ChatMessage, systemContext string) (string, types.AIUsage, error) {
	ctx, span := otel.Tracer("GrokClient").Start(ctx, "Chat")
	defer span.End()

	systemPrompt := systemContext
	if systemPrompt == "" {
		systemPrompt = chatDefaultSystemPrompt
	}

	apiMessages := make([]chatCompletionMessage, 0, len(messages)+1)
	apiMessages = append(apiMessages, chatCompletionMessage{Role: "system", Content: systemPrompt})
	for _, m := range messages {
		apiMessages = append(apiMessages, chatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	content, usage, err := c.chatCompletion(ctx, c.model, apiMessages, false, 2048)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Chat call failed")
		return "", usage, fmt.Errorf("chat failed: %w", err)
	}

	span.SetStatus(codes.Ok, "Chat completed")
	return content, usage, nil
}

// AnalyzeImage sends a base64 JPEG to the vision model alongside the prompt.
func (c *GrokClient) AnalyzeImage(ctx context.Context, base64Image, prompt string) (string, types.AIUsage, error) {
	ctx, span := otel.Tracer("GrokClient").Start(ctx, "AnalyzeImage")
	defer span.End()

	content, usage, err := c.chatCompletion(ctx, c.visionModel, []chatCompletionMessage{
		{
			Role: "user",
			Content: []map[string]any{
				{"type": "text", "text": prompt},
				{
					"type": "image_url",
					"image_url": map[string]string{
						"url": "data:image/jpeg;base64," + base64Image,
					},
				},
			},
		},
	}, false, 1024)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Vision call failed")
		return "", usage, fmt.Errorf("image analysis failed: %w", err)
	}

	span.SetStatus(codes.Ok, "Image analyzed")
	return content, usage, nil
}

func (c *GrokClient) HealthCheck(ctx context.Context) bool {
	_, _, err := c.chatCompletion(ctx, c.model, []chatCompletionMessage{
		{Role: "user", Content: "Hello"},
	}, false, 10)
	if err != nil {
		c.logger.WarnContext(ctx, "Grok health check failed", slog.Any("error", err))
		return false
	}
	return true
}
