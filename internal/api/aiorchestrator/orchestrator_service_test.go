package aiorchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/traveloure/traveloure-api/internal/types"
)

// MockInteractionRepo is a mock implementation of InteractionRepository
type MockInteractionRepo struct {
	mock.Mock
	mu    sync.Mutex
	saved []types.AIInteraction
}

func (m *MockInteractionRepo) SaveInteraction(ctx context.Context, interaction types.AIInteraction) error {
	m.mu.Lock()
	m.saved = append(m.saved, interaction)
	m.mu.Unlock()
	args := m.Called(ctx, interaction)
	return args.Error(0)
}

func (m *MockInteractionRepo) GetUsageStats(ctx context.Context, filter UsageStatsFilter) (*types.AIUsageStats, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.AIUsageStats), args.Error(1)
}

func (m *MockInteractionRepo) savedInteractions() []types.AIInteraction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.AIInteraction, len(m.saved))
	copy(out, m.saved)
	return out
}

// MockGrokProvider is a mock implementation of providers.GrokProvider
type MockGrokProvider struct {
	mock.Mock
}

func (m *MockGrokProvider) MatchExpert(ctx context.Context, traveler types.TravelerProfile, expert types.ExpertProfile) (*types.ExpertMatchResult, types.AIUsage, error) {
	args := m.Called(ctx, traveler, expert)
	if args.Get(0) == nil {
		return nil, args.Get(1).(types.AIUsage), args.Error(2)
	}
	return args.Get(0).(*types.ExpertMatchResult), args.Get(1).(types.AIUsage), args.Error(2)
}

func (m *MockGrokProvider) GenerateContent(ctx context.Context, req types.ContentGenerationRequest) (*types.ContentGenerationResult, types.AIUsage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Get(1).(types.AIUsage), args.Error(2)
	}
	return args.Get(0).(*types.ContentGenerationResult), args.Get(1).(types.AIUsage), args.Error(2)
}

func (m *MockGrokProvider) GetRealTimeIntelligence(ctx context.Context, req types.RealTimeIntelligenceRequest) (*types.RealTimeIntelligence, types.AIUsage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Get(1).(types.AIUsage), args.Error(2)
	}
	return args.Get(0).(*types.RealTimeIntelligence), args.Get(1).(types.AIUsage), args.Error(2)
}

func (m *MockGrokProvider) GenerateAutonomousItinerary(ctx context.Context, req types.AutonomousItineraryRequest) (*types.AutonomousItineraryResult, types.AIUsage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Get(1).(types.AIUsage), args.Error(2)
	}
	return args.Get(0).(*types.AutonomousItineraryResult), args.Get(1).(types.AIUsage), args.Error(2)
}

func (m *MockGrokProvider) GenerateStructured(ctx context.Context, systemPrompt, userPrompt string) (string, types.AIUsage, error) {
	args := m.Called(ctx, systemPrompt, userPrompt)
	return args.String(0), args.Get(1).(types.AIUsage), args.Error(2)
}

func (m *MockGrokProvider) Chat(ctx context.Context, messages []types.ChatMessage, systemContext string) (string, types.AIUsage, error) {
	args := m.Called(ctx, messages, systemContext)
	return args.String(0), args.Get(1).(types.AIUsage), args.Error(2)
}

func (m *MockGrokProvider) AnalyzeImage(ctx context.Context, base64Image, prompt string) (string, types.AIUsage, error) {
	args := m.Called(ctx, base64Image, prompt)
	return args.String(0), args.Get(1).(types.AIUsage), args.Error(2)
}

func (m *MockGrokProvider) HealthCheck(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

// MockGeminiProvider is a mock implementation of providers.GeminiProvider
type MockGeminiProvider struct {
	mock.Mock
}

func (m *MockGeminiProvider) OptimizeItinerary(ctx context.Context, req types.ItineraryOptimizationRequest) (*types.ItineraryOptimizationResult, types.AIUsage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Get(1).(types.AIUsage), args.Error(2)
	}
	return args.Get(0).(*types.ItineraryOptimizationResult), args.Get(1).(types.AIUsage), args.Error(2)
}

func (m *MockGeminiProvider) AnalyzeTransportation(ctx context.Context, hotel types.GeoLocation, activities []types.GeoLocation) (*types.TransportationPlan, types.AIUsage, error) {
	args := m.Called(ctx, hotel, activities)
	if args.Get(0) == nil {
		return nil, args.Get(1).(types.AIUsage), args.Error(2)
	}
	return args.Get(0).(*types.TransportationPlan), args.Get(1).(types.AIUsage), args.Error(2)
}

func (m *MockGeminiProvider) GenerateTravelRecommendations(ctx context.Context, destination string, dates types.DateRange, interests []string) (*types.TravelRecommendationsResult, types.AIUsage, error) {
	args := m.Called(ctx, destination, dates, interests)
	if args.Get(0) == nil {
		return nil, args.Get(1).(types.AIUsage), args.Error(2)
	}
	return args.Get(0).(*types.TravelRecommendationsResult), args.Get(1).(types.AIUsage), args.Error(2)
}

func (m *MockGeminiProvider) Chat(ctx context.Context, messages []types.ChatMessage, systemContext string) (string, types.AIUsage, error) {
	args := m.Called(ctx, messages, systemContext)
	return args.String(0), args.Get(1).(types.AIUsage), args.Error(2)
}

func (m *MockGeminiProvider) HealthCheck(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func setupOrchestratorTest() (*ServiceImpl, *MockInteractionRepo, *MockGrokProvider, *MockGeminiProvider) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockRepo := new(MockInteractionRepo)
	mockGrok := new(MockGrokProvider)
	mockGemini := new(MockGeminiProvider)
	service := NewServiceImpl(mockRepo, mockGrok, mockGemini, nil, logger)
	return service, mockRepo, mockGrok, mockGemini
}

func matchResult(expertID string, score float64) *types.ExpertMatchResult {
	r := &types.ExpertMatchResult{ExpertID: expertID, OverallScore: score}
	return r
}

func TestProviderFor(t *testing.T) {
	t.Run("routing table", func(t *testing.T) {
		assert.Equal(t, types.ProviderGrok, ProviderFor(types.TaskExpertMatching, ""))
		assert.Equal(t, types.ProviderGrok, ProviderFor(types.TaskRealTimeIntelligence, ""))
		assert.Equal(t, types.ProviderGrok, ProviderFor(types.TaskAutonomousItinerary, ""))
		assert.Equal(t, types.ProviderGrok, ProviderFor(types.TaskContentGeneration, ""))
		assert.Equal(t, types.ProviderGrok, ProviderFor(types.TaskImageAnalysis, ""))
		assert.Equal(t, types.ProviderGemini, ProviderFor(types.TaskItineraryOptimization, ""))
		assert.Equal(t, types.ProviderGemini, ProviderFor(types.TaskTransportationAnalysis, ""))
		assert.Equal(t, types.ProviderGemini, ProviderFor(types.TaskTravelRecommendations, ""))
		assert.Equal(t, types.ProviderGemini, ProviderFor(types.TaskChat, ""))
	})

	t.Run("explicit preference wins", func(t *testing.T) {
		assert.Equal(t, types.ProviderGrok, ProviderFor(types.TaskChat, types.ProviderGrok))
	})

	t.Run("auto defers to routing", func(t *testing.T) {
		assert.Equal(t, types.ProviderGemini, ProviderFor(types.TaskChat, types.ProviderAuto))
	})

	t.Run("unknown task defaults to gemini", func(t *testing.T) {
		assert.Equal(t, types.ProviderGemini, ProviderFor(types.AITaskType("unknown"), ""))
	})
}

func TestServiceImpl_MatchExpert(t *testing.T) {
	ctx := context.Background()
	traveler := types.TravelerProfile{Destination: "Lisbon", Travelers: 2}
	expert := types.ExpertProfile{ID: "exp-1", Name: "Ana"}

	t.Run("success logs interaction with usage", func(t *testing.T) {
		service, mockRepo, mockGrok, _ := setupOrchestratorTest()
		usage := types.AIUsage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150, EstimatedCost: 0.001}
		mockGrok.On("MatchExpert", mock.Anything, traveler, expert).Return(matchResult("exp-1", 87), usage, nil).Once()
		mockRepo.On("SaveInteraction", mock.Anything, mock.AnythingOfType("types.AIInteraction")).Return(nil).Once()

		result, err := service.MatchExpert(ctx, traveler, expert, types.CallOptions{})
		require.NoError(t, err)
		assert.Equal(t, "exp-1", result.ExpertID)

		saved := mockRepo.savedInteractions()
		require.Len(t, saved, 1)
		assert.Equal(t, types.TaskExpertMatching, saved[0].TaskType)
		assert.Equal(t, types.ProviderGrok, saved[0].Provider)
		assert.True(t, saved[0].Success)
		assert.Equal(t, 150, saved[0].TotalTokens)
		assert.InDelta(t, 0.001, saved[0].EstimatedCost, 1e-9)
		mockRepo.AssertExpectations(t)
		mockGrok.AssertExpectations(t)
	})

	t.Run("provider error still logs failed interaction", func(t *testing.T) {
		service, mockRepo, mockGrok, _ := setupOrchestratorTest()
		provErr := errors.New("rate limited")
		mockGrok.On("MatchExpert", mock.Anything, traveler, expert).Return(nil, types.AIUsage{}, provErr).Once()
		mockRepo.On("SaveInteraction", mock.Anything, mock.AnythingOfType("types.AIInteraction")).Return(nil).Once()

		_, err := service.MatchExpert(ctx, traveler, expert, types.CallOptions{})
		require.Error(t, err)

		saved := mockRepo.savedInteractions()
		require.Len(t, saved, 1)
		assert.False(t, saved[0].Success)
		assert.Equal(t, "rate limited", saved[0].ErrorMessage)
		assert.Zero(t, saved[0].TotalTokens)
		mockRepo.AssertExpectations(t)
	})

	t.Run("logging failure does not fail the call", func(t *testing.T) {
		service, mockRepo, mockGrok, _ := setupOrchestratorTest()
		usage := types.AIUsage{TotalTokens: 10}
		mockGrok.On("MatchExpert", mock.Anything, traveler, expert).Return(matchResult("exp-1", 70), usage, nil).Once()
		mockRepo.On("SaveInteraction", mock.Anything, mock.AnythingOfType("types.AIInteraction")).Return(errors.New("db down")).Once()

		result, err := service.MatchExpert(ctx, traveler, expert, types.CallOptions{})
		require.NoError(t, err)
		assert.Equal(t, "exp-1", result.ExpertID)
	})
}

func TestServiceImpl_MatchExperts(t *testing.T) {
	ctx := context.Background()
	traveler := types.TravelerProfile{Destination: "Kyoto", Travelers: 1}
	experts := []types.ExpertProfile{
		{ID: "exp-low"}, {ID: "exp-high"}, {ID: "exp-bad"}, {ID: "exp-mid"},
	}

	t.Run("tolerates failures and sorts by score", func(t *testing.T) {
		service, mockRepo, mockGrok, _ := setupOrchestratorTest()
		mockRepo.On("SaveInteraction", mock.Anything, mock.AnythingOfType("types.AIInteraction")).Return(nil)
		mockGrok.On("MatchExpert", mock.Anything, traveler, experts[0]).Return(matchResult("exp-low", 42), types.AIUsage{}, nil).Once()
		mockGrok.On("MatchExpert", mock.Anything, traveler, experts[1]).Return(matchResult("exp-high", 95), types.AIUsage{}, nil).Once()
		mockGrok.On("MatchExpert", mock.Anything, traveler, experts[2]).Return(nil, types.AIUsage{}, errors.New("provider error")).Once()
		mockGrok.On("MatchExpert", mock.Anything, traveler, experts[3]).Return(matchResult("exp-mid", 61), types.AIUsage{}, nil).Once()

		results, err := service.MatchExperts(ctx, traveler, experts, 0, types.CallOptions{})
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "exp-high", results[0].ExpertID)
		assert.Equal(t, "exp-mid", results[1].ExpertID)
		assert.Equal(t, "exp-low", results[2].ExpertID)
	})

	t.Run("limit caps the result set", func(t *testing.T) {
		service, mockRepo, mockGrok, _ := setupOrchestratorTest()
		mockRepo.On("SaveInteraction", mock.Anything, mock.AnythingOfType("types.AIInteraction")).Return(nil)
		for i, e := range experts {
			mockGrok.On("MatchExpert", mock.Anything, traveler, e).Return(matchResult(e.ID, float64(50+i)), types.AIUsage{}, nil).Once()
		}

		results, err := service.MatchExperts(ctx, traveler, experts, 2, types.CallOptions{})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "exp-mid", results[0].ExpertID)
		assert.Equal(t, "exp-bad", results[1].ExpertID)
	})

	t.Run("all failures yields empty slice not error", func(t *testing.T) {
		service, mockRepo, mockGrok, _ := setupOrchestratorTest()
		mockRepo.On("SaveInteraction", mock.Anything, mock.AnythingOfType("types.AIInteraction")).Return(nil)
		for _, e := range experts {
			mockGrok.On("MatchExpert", mock.Anything, traveler, e).Return(nil, types.AIUsage{}, fmt.Errorf("down")).Once()
		}

		results, err := service.MatchExperts(ctx, traveler, experts, 0, types.CallOptions{})
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestServiceImpl_Chat(t *testing.T) {
	ctx := context.Background()
	messages := []types.ChatMessage{{Role: "user", Content: "Where should I go in June?"}}

	t.Run("routes to gemini by default", func(t *testing.T) {
		service, mockRepo, _, mockGemini := setupOrchestratorTest()
		mockRepo.On("SaveInteraction", mock.Anything, mock.AnythingOfType("types.AIInteraction")).Return(nil).Once()
		mockGemini.On("Chat", mock.Anything, messages, "").Return("Try the Azores.", types.AIUsage{EstimatedCost: 0.01}, nil).Once()

		result, err := service.Chat(ctx, messages, ChatOptions{})
		require.NoError(t, err)
		assert.Equal(t, types.ProviderGemini, result.Provider)
		assert.Equal(t, "Try the Azores.", result.Response)
		mockGemini.AssertExpectations(t)
	})

	t.Run("honors grok preference", func(t *testing.T) {
		service, mockRepo, mockGrok, _ := setupOrchestratorTest()
		mockRepo.On("SaveInteraction", mock.Anything, mock.AnythingOfType("types.AIInteraction")).Return(nil).Once()
		mockGrok.On("Chat", mock.Anything, messages, "keep it short").Return("Lisbon.", types.AIUsage{TotalTokens: 20}, nil).Once()

		result, err := service.Chat(ctx, messages, ChatOptions{PreferProvider: types.ProviderGrok, SystemContext: "keep it short"})
		require.NoError(t, err)
		assert.Equal(t, types.ProviderGrok, result.Provider)
		mockGrok.AssertExpectations(t)
	})

	t.Run("chat error is logged and returned", func(t *testing.T) {
		service, mockRepo, _, mockGemini := setupOrchestratorTest()
		mockRepo.On("SaveInteraction", mock.Anything, mock.AnythingOfType("types.AIInteraction")).Return(nil).Once()
		mockGemini.On("Chat", mock.Anything, messages, "").Return("", types.AIUsage{}, errors.New("timeout")).Once()

		_, err := service.Chat(ctx, messages, ChatOptions{})
		require.Error(t, err)

		saved := mockRepo.savedInteractions()
		require.Len(t, saved, 1)
		assert.False(t, saved[0].Success)
		assert.Equal(t, types.TaskChat, saved[0].TaskType)
	})
}

func TestServiceImpl_HealthCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("reports each provider independently", func(t *testing.T) {
		service, _, mockGrok, mockGemini := setupOrchestratorTest()
		mockGrok.On("HealthCheck", mock.Anything).Return(true).Once()
		mockGemini.On("HealthCheck", mock.Anything).Return(false).Once()

		health := service.HealthCheck(ctx)
		assert.True(t, health[types.ProviderGrok])
		assert.False(t, health[types.ProviderGemini])
	})
}

func TestServiceImpl_GetUsageStats(t *testing.T) {
	ctx := context.Background()

	t.Run("passes through repository aggregates", func(t *testing.T) {
		service, mockRepo, _, _ := setupOrchestratorTest()
		expected := &types.AIUsageStats{
			TotalInteractions: 12,
			TotalTokens:       4800,
			TotalCost:         0.37,
			ByProvider:        map[types.AIProvider]int{types.ProviderGrok: 8, types.ProviderGemini: 4},
			ByTaskType:        map[types.AITaskType]int{types.TaskChat: 4, types.TaskExpertMatching: 8},
		}
		mockRepo.On("GetUsageStats", ctx, UsageStatsFilter{}).Return(expected, nil).Once()

		stats, err := service.GetUsageStats(ctx, UsageStatsFilter{})
		require.NoError(t, err)
		assert.Equal(t, expected, stats)
		mockRepo.AssertExpectations(t)
	})

	t.Run("repository error propagates", func(t *testing.T) {
		service, mockRepo, _, _ := setupOrchestratorTest()
		mockRepo.On("GetUsageStats", ctx, UsageStatsFilter{}).Return(nil, errors.New("query failed")).Once()

		_, err := service.GetUsageStats(ctx, UsageStatsFilter{})
		require.Error(t, err)
	})
}
