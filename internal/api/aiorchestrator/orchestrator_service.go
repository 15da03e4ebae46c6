package aiorchestrator

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/traveloure/traveloure-api/app/observability/metrics"
	"github.com/traveloure/traveloure-api/internal/api/providers"
	"github.com/traveloure/traveloure-api/internal/types"
)

// providerRouting maps each task to the provider best suited for it. Grok
// handles search-heavy and generative work, Gemini handles analytical work
// and conversation.
var providerRouting = map[types.AITaskType]types.AIProvider{
	types.TaskExpertMatching:       types.ProviderGrok,
	types.TaskRealTimeIntelligence: types.ProviderGrok,
	types.TaskAutonomousItinerary:  types.ProviderGrok,
	types.TaskContentGeneration:    types.ProviderGrok,
	types.TaskImageAnalysis:        types.ProviderGrok,

	types.TaskItineraryOptimization:  types.ProviderGemini,
	types.TaskTransportationAnalysis: types.ProviderGemini,
	types.TaskTravelRecommendations:  types.ProviderGemini,
	types.TaskChat:                   types.ProviderGemini,
}

var _ Service = (*ServiceImpl)(nil)

// Service routes AI work to the right provider and records every call in the
// interaction ledger.
type Service interface {
	MatchExpert(ctx context.Context, traveler types.TravelerProfile, expert types.ExpertProfile, opts types.CallOptions) (*types.ExpertMatchResult, error)
	MatchExperts(ctx context.Context, traveler types.TravelerProfile, experts []types.ExpertProfile, limit int, opts types.CallOptions) ([]types.ExpertMatchResult, error)
	GenerateContent(ctx context.Context, req types.ContentGenerationRequest, opts types.CallOptions) (*types.ContentGenerationResult, error)
	GetRealTimeIntelligence(ctx context.Context, req types.RealTimeIntelligenceRequest, opts types.CallOptions) (*types.RealTimeIntelligence, error)
	GenerateAutonomousItinerary(ctx context.Context, req types.AutonomousItineraryRequest, opts types.CallOptions) (*types.AutonomousItineraryResult, error)
	GenerateStructured(ctx context.Context, systemPrompt, userPrompt string, opts types.CallOptions) (string, error)
	OptimizeItinerary(ctx context.Context, req types.ItineraryOptimizationRequest, opts types.CallOptions) (*types.ItineraryOptimizationResult, error)
	AnalyzeTransportation(ctx context.Context, hotel types.GeoLocation, activities []types.GeoLocation, opts types.CallOptions) (*types.TransportationPlan, error)
	GenerateTravelRecommendations(ctx context.Context, destination string, dates types.DateRange, interests []string, opts types.CallOptions) (*types.TravelRecommendationsResult, error)
	Chat(ctx context.Context, messages []types.ChatMessage, chatOpts ChatOptions) (*types.ChatResult, error)
	AnalyzeImage(ctx context.Context, base64Image, prompt string, opts types.CallOptions) (string, error)
	GetUsageStats(ctx context.Context, filter UsageStatsFilter) (*types.AIUsageStats, error)
	HealthCheck(ctx context.Context) map[types.AIProvider]bool
}

// ChatOptions extends the usual call options with a provider override and an
// optional system prompt.
type ChatOptions struct {
	types.CallOptions
	PreferProvider types.AIProvider
	SystemContext  string
}

type ServiceImpl struct {
	logger     *slog.Logger
	repo       InteractionRepository
	grok       providers.GrokProvider
	gemini     providers.GeminiProvider
	appMetrics *metrics.AppMetrics
}

// NewServiceImpl wires the orchestrator. appMetrics may be nil in tests.
func NewServiceImpl(repo InteractionRepository, grok providers.GrokProvider, gemini providers.GeminiProvider, appMetrics *metrics.AppMetrics, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:     logger,
		repo:       repo,
		grok:       grok,
		gemini:     gemini,
		appMetrics: appMetrics,
	}
}

// ProviderFor resolves the routing table, honoring an explicit preference
// unless it is "auto".
func ProviderFor(taskType types.AITaskType, preferred types.AIProvider) types.AIProvider {
	if preferred != "" && preferred != types.ProviderAuto {
		return preferred
	}
	if p, ok := providerRouting[taskType]; ok {
		return p
	}
	return types.ProviderGemini
}

// logInteraction writes the ledger row and bumps metrics. Failures are logged
// and swallowed so accounting never breaks the caller's operation.
func (s *ServiceImpl) logInteraction(ctx context.Context, interaction types.AIInteraction) {
	if err := s.repo.SaveInteraction(ctx, interaction); err != nil {
		s.logger.ErrorContext(ctx, "Failed to log AI interaction",
			slog.Any("error", err),
			slog.String("task_type", string(interaction.TaskType)),
			slog.String("provider", string(interaction.Provider)),
		)
	}

	if s.appMetrics == nil {
		return
	}
	outcome := "success"
	if !interaction.Success {
		outcome = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", string(interaction.Provider)),
		attribute.String("task_type", string(interaction.TaskType)),
		attribute.String("outcome", outcome),
	)
	s.appMetrics.AIRequestsTotal.Add(ctx, 1, attrs)
	s.appMetrics.AIRequestDurationSeconds.Record(ctx, float64(interaction.DurationMs)/1000, attrs)
	if interaction.EstimatedCost > 0 {
		s.appMetrics.AIEstimatedCostUSD.Add(ctx, interaction.EstimatedCost, attrs)
	}
	if interaction.TotalTokens > 0 {
		s.appMetrics.AITokensTotal.Add(ctx, int64(interaction.TotalTokens), attrs)
	}
}

func (s *ServiceImpl) record(ctx context.Context, taskType types.AITaskType, provider types.AIProvider, usage types.AIUsage, start time.Time, callErr error, opts types.CallOptions, metadata map[string]any) {
	interaction := types.AIInteraction{
		TaskType:   taskType,
		Provider:   provider,
		DurationMs: int(time.Since(start).Milliseconds()),
		Success:    callErr == nil,
		UserID:     opts.UserID,
		TripID:     opts.TripID,
	}
	if callErr == nil {
		interaction.PromptTokens = usage.PromptTokens
		interaction.CompletionTokens = usage.CompletionTokens
		interaction.TotalTokens = usage.TotalTokens
		interaction.EstimatedCost = usage.EstimatedCost
	} else {
		interaction.ErrorMessage = callErr.Error()
	}
	if len(metadata) > 0 {
		if raw, err := json.Marshal(metadata); err == nil {
			interaction.Metadata = raw
		}
	}
	s.logInteraction(ctx, interaction)
}

func (s *ServiceImpl) MatchExpert(ctx context.Context, traveler types.TravelerProfile, expert types.ExpertProfile, opts types.CallOptions) (*types.ExpertMatchResult, error) {
	ctx, span := otel.Tracer("AIOrchestrator").Start(ctx, "MatchExpert")
	defer span.End()

	start := time.Now()
	result, usage, err := s.grok.MatchExpert(ctx, traveler, expert)
	s.record(ctx, types.TaskExpertMatching, types.ProviderGrok, usage, start, err, opts, map[string]any{"expertId": expert.ID})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Expert matching failed")
		return nil, err
	}

	span.SetStatus(codes.Ok, "Expert matched")
	return result, nil
}

// MatchExperts scores every candidate concurrently. Individual failures are
// logged and dropped; survivors come back sorted by overall score. A limit of
// zero means no cap.
func (s *ServiceImpl) MatchExperts(ctx context.Context, traveler types.TravelerProfile, experts []types.ExpertProfile, limit int, opts types.CallOptions) ([]types.ExpertMatchResult, error) {
	ctx, span := otel.Tracer("AIOrchestrator").Start(ctx, "MatchExperts", trace.WithAttributes(
		attribute.Int("app.experts.count", len(experts)),
	))
	defer span.End()

	results := make([]*types.ExpertMatchResult, len(experts))
	var wg sync.WaitGroup
	for i, expert := range experts {
		wg.Add(1)
		go func(i int, expert types.ExpertProfile) {
			defer wg.Done()
			result, err := s.MatchExpert(ctx, traveler, expert, opts)
			if err != nil {
				s.logger.ErrorContext(ctx, "Failed to match expert",
					slog.String("expert_id", expert.ID),
					slog.Any("error", err),
				)
				return
			}
			results[i] = result
		}(i, expert)
	}
	wg.Wait()

	matched := make([]types.ExpertMatchResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			matched = append(matched, *r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].OverallScore > matched[j].OverallScore
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	span.SetAttributes(attribute.Int("app.experts.matched", len(matched)))
	span.SetStatus(codes.Ok, "Experts matched")
	return matched, nil
}

func (s *ServiceImpl) GenerateContent(ctx context.Context, req types.ContentGenerationRequest, opts types.CallOptions) (*types.ContentGenerationResult, error) {
	ctx, span := otel.Tracer("AIOrchestrator").Start(ctx, "GenerateContent")
	defer span.End()

	start := time.Now()
	result, usage, err := s.grok.GenerateContent(ctx, req)
	s.record(ctx, types.TaskContentGeneration, types.ProviderGrok, usage, start, err, opts, map[string]any{"contentType": req.Type})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Content generation failed")
		return nil, err
	}

	span.SetStatus(codes.Ok, "Content generated")
	return result, nil
}

func (s *ServiceImpl) GetRealTimeIntelligence(ctx context.Context, req types.RealTimeIntelligenceRequest, opts types.CallOptions) (*types.RealTimeIntelligence, error) {
	ctx, span := otel.Tracer("AIOrchestrator").Start(ctx, "GetRealTimeIntelligence")
	defer span.End()

	start := time.Now()
	result, usage, err := s.grok.GetRealTimeIntelligence(ctx, req)
	s.record(ctx, types.TaskRealTimeIntelligence, types.ProviderGrok, usage, start, err, opts, map[string]any{"destination": req.Destination})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Intelligence pull failed")
		return nil, err
	}

	span.SetStatus(codes.Ok, "Intelligence retrieved")
	return result, nil
}

func (s *ServiceImpl) GenerateAutonomousItinerary(ctx context.Context, req types.AutonomousItineraryRequest, opts types.CallOptions) (*types.AutonomousItineraryResult, error) {
	ctx, span := otel.Tracer("AIOrchestrator").Start(ctx, "GenerateAutonomousItinerary")
	defer span.End()

	start := time.Now()
	result, usage, err := s.grok.GenerateAutonomousItinerary(ctx, req)
	s.record(ctx, types.TaskAutonomousItinerary, types.ProviderGrok, usage, start, err, opts, map[string]any{"destination": req.Destination})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Itinerary generation failed")
		return nil, err
	}

	span.SetStatus(codes.Ok, "Itinerary generated")
	return result, nil
}

// GenerateStructured is the raw JSON-mode escape hatch for callers that own
// their own prompts and parsing, such as the destination intelligence cache.
func (s *ServiceImpl) GenerateStructured(ctx context.Context, systemPrompt, userPrompt string, opts types.CallOptions) (string, error) {
	ctx, span := otel.Tracer("AIOrchestrator").Start(ctx, "GenerateStructured")
	defer span.End()

	start := time.Now()
	content, usage, err := s.grok.GenerateStructured(ctx, systemPrompt, userPrompt)
	s.record(ctx, types.TaskRealTimeIntelligence, types.ProviderGrok, usage, start, err, opts, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Structured generation failed")
		return "", err
	}

	span.SetStatus(codes.Ok, "Structured response generated")
	return content, nil
}

func (s *ServiceImpl) OptimizeItinerary(ctx context.Context, req types.ItineraryOptimizationRequest, opts types.CallOptions) (*types.ItineraryOptimizationResult, error) {
	ctx, span := otel.Tracer("AIOrchestrator").Start(ctx, "OptimizeItinerary")
	defer span.End()

	start := time.Now()
	result, usage, err := s.gemini.OptimizeItinerary(ctx, req)
	s.record(ctx, types.TaskItineraryOptimization, types.ProviderGemini, usage, start, err, opts, map[string]any{"destination": req.Destination})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Itinerary optimization failed")
		return nil, err
	}

	span.SetStatus(codes.Ok, "Itinerary optimized")
	return result, nil
}

func (s *ServiceImpl) AnalyzeTransportation(ctx context.Context, hotel types.GeoLocation, activities []types.GeoLocation, opts types.CallOptions) (*types.TransportationPlan, error) {
	ctx, span := otel.Tracer("AIOrchestrator").Start(ctx, "AnalyzeTransportation")
	defer span.End()

	start := time.Now()
	result, usage, err := s.gemini.AnalyzeTransportation(ctx, hotel, activities)
	s.record(ctx, types.TaskTransportationAnalysis, types.ProviderGemini, usage, start, err, opts, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Transportation analysis failed")
		return nil, err
	}

	span.SetStatus(codes.Ok, "Transportation analyzed")
	return result, nil
}

func (s *ServiceImpl) GenerateTravelRecommendations(ctx context.Context, destination string, dates types.DateRange, interests []string, opts types.CallOptions) (*types.TravelRecommendationsResult, error) {
	ctx, span := otel.Tracer("AIOrchestrator").Start(ctx, "GenerateTravelRecommendations")
	defer span.End()

	start := time.Now()
	result, usage, err := s.gemini.GenerateTravelRecommendations(ctx, destination, dates, interests)
	s.record(ctx, types.TaskTravelRecommendations, types.ProviderGemini, usage, start, err, opts, map[string]any{"destination": destination})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Recommendations failed")
		return nil, err
	}

	span.SetStatus(codes.Ok, "Recommendations generated")
	return result, nil
}

func (s *ServiceImpl) Chat(ctx context.Context, messages []types.ChatMessage, chatOpts ChatOptions) (*types.ChatResult, error) {
	ctx, span := otel.Tracer("AIOrchestrator").Start(ctx, "Chat")
	defer span.End()

	provider := ProviderFor(types.TaskChat, chatOpts.PreferProvider)
	span.SetAttributes(attribute.String("app.provider", string(provider)))

	start := time.Now()
	var response string
	var usage types.AIUsage
	var err error
	switch provider {
	case types.ProviderGrok:
		response, usage, err = s.grok.Chat(ctx, messages, chatOpts.SystemContext)
	default:
		provider = types.ProviderGemini
		response, usage, err = s.gemini.Chat(ctx, messages, chatOpts.SystemContext)
	}
	s.record(ctx, types.TaskChat, provider, usage, start, err, chatOpts.CallOptions, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Chat failed")
		return nil, err
	}

	span.SetStatus(codes.Ok, "Chat completed")
	return &types.ChatResult{Response: response, Provider: provider}, nil
}

func (s *ServiceImpl) AnalyzeImage(ctx context.Context, base64Image, prompt string, opts types.CallOptions) (string, error) {
	ctx, span := otel.Tracer("AIOrchestrator").Start(ctx, "AnalyzeImage")
	defer span.End()

	start := time.Now()
	analysis, usage, err := s.grok.AnalyzeImage(ctx, base64Image, prompt)
	s.record(ctx, types.TaskImageAnalysis, types.ProviderGrok, usage, start, err, opts, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Image analysis failed")
		return "", err
	}

	span.SetStatus(codes.Ok, "Image analyzed")
	return analysis, nil
}

func (s *ServiceImpl) GetUsageStats(ctx context.Context, filter UsageStatsFilter) (*types.AIUsageStats, error) {
	ctx, span := otel.Tracer("AIOrchestrator").Start(ctx, "GetUsageStats")
	defer span.End()

	stats, err := s.repo.GetUsageStats(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Usage stats query failed")
		return nil, err
	}

	span.SetStatus(codes.Ok, "Usage stats retrieved")
	return stats, nil
}

// HealthCheck probes both providers concurrently. A panicking or erroring
// probe reports the provider as down rather than failing the check.
func (s *ServiceImpl) HealthCheck(ctx context.Context) map[types.AIProvider]bool {
	ctx, span := otel.Tracer("AIOrchestrator").Start(ctx, "HealthCheck")
	defer span.End()

	var wg sync.WaitGroup
	var grokHealthy, geminiHealthy bool
	wg.Add(2)
	go func() {
		defer wg.Done()
		grokHealthy = s.grok.HealthCheck(ctx)
	}()
	go func() {
		defer wg.Done()
		geminiHealthy = s.gemini.HealthCheck(ctx)
	}()
	wg.Wait()

	span.SetAttributes(
		attribute.Bool("app.grok.healthy", grokHealthy),
		attribute.Bool("app.gemini.healthy", geminiHealthy),
	)
	span.SetStatus(codes.Ok, "Health check completed")
	return map[types.AIProvider]bool{
		types.ProviderGrok:   grokHealthy,
		types.ProviderGemini: geminiHealthy,
	}
}
