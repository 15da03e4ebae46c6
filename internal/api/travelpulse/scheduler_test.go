package travelpulse

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/traveloure/traveloure-api/internal/types"
)

// MockPulseService is a mock implementation of Service
type MockPulseService struct {
	mock.Mock
}

func (m *MockPulseService) GetTrendingDestinations(ctx context.Context, city string, limit int) ([]types.TrendingPlace, error) {
	args := m.Called(ctx, city, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.TrendingPlace), args.Error(1)
}

func (m *MockPulseService) GetTruthCheck(ctx context.Context, query, city string) (*types.TruthCheck, error) {
	args := m.Called(ctx, query, city)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TruthCheck), args.Error(1)
}

func (m *MockPulseService) GetLiveScore(ctx context.Context, entityName, city string) (*types.LiveScore, error) {
	args := m.Called(ctx, entityName, city)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.LiveScore), args.Error(1)
}

func (m *MockPulseService) GetCalendarEvents(ctx context.Context, city string, startDate, endDate time.Time) ([]types.CalendarEvent, error) {
	args := m.Called(ctx, city, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.CalendarEvent), args.Error(1)
}

func (m *MockPulseService) GetDestinationIntelligence(ctx context.Context, destinationName, city string) (*types.TrendingPlace, error) {
	args := m.Called(ctx, destinationName, city)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TrendingPlace), args.Error(1)
}

func (m *MockPulseService) GetCityProfile(ctx context.Context, city, country string) (*types.CityProfile, error) {
	args := m.Called(ctx, city, country)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.CityProfile), args.Error(1)
}

func (m *MockPulseService) GetHiddenGems(ctx context.Context, city, country string, limit int) ([]types.HiddenGem, error) {
	args := m.Called(ctx, city, country, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.HiddenGem), args.Error(1)
}

func (m *MockPulseService) UpdateCityWithAI(ctx context.Context, city, country string) (*types.CityProfile, error) {
	args := m.Called(ctx, city, country)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.CityProfile), args.Error(1)
}

func (m *MockPulseService) RefreshStaleAICities(ctx context.Context) (RefreshResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(RefreshResult), args.Error(1)
}

func (m *MockPulseService) CleanupExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func setupSchedulerTest(t *testing.T) (*Scheduler, *MockPulseService) {
	t.Helper()
	service := new(MockPulseService)
	logger := slog.New(slog.NewTextHandler(testWriter{t}, nil))
	scheduler := NewScheduler(service, SchedulerConfig{
		InitialDelay: time.Hour,
		Interval:     24 * time.Hour,
	}, nil, logger)
	return scheduler, service
}

func TestSchedulerRunRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("runs cleanup then the refresh pass", func(t *testing.T) {
		scheduler, service := setupSchedulerTest(t)
		service.On("CleanupExpired", mock.Anything).Return(int64(3), nil)
		service.On("RefreshStaleAICities", mock.Anything).Return(RefreshResult{Refreshed: 4, Errors: 1}, nil)

		result := scheduler.RunRefresh(ctx)

		assert.Equal(t, 4, result.Refreshed)
		assert.Equal(t, 1, result.Errors)
		service.AssertExpectations(t)

		status := scheduler.Status()
		require.NotNil(t, status.LastRunAt)
		require.NotNil(t, status.NextRunAt)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), *status.NextRunAt, 5*time.Second)
	})

	t.Run("cleanup failure does not stop the refresh", func(t *testing.T) {
		scheduler, service := setupSchedulerTest(t)
		service.On("CleanupExpired", mock.Anything).Return(int64(0), errors.New("timeout"))
		service.On("RefreshStaleAICities", mock.Anything).Return(RefreshResult{Refreshed: 2}, nil)

		result := scheduler.RunRefresh(ctx)

		assert.Equal(t, 2, result.Refreshed)
	})

	t.Run("an overlapping run is skipped, not queued", func(t *testing.T) {
		scheduler, service := setupSchedulerTest(t)
		started := make(chan struct{})
		release := make(chan struct{})
		service.On("CleanupExpired", mock.Anything).Return(int64(0), nil)
		service.On("RefreshStaleAICities", mock.Anything).Run(func(mock.Arguments) {
			close(started)
			<-release
		}).Return(RefreshResult{Refreshed: 1}, nil).Once()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			scheduler.RunRefresh(ctx)
		}()
		<-started

		// Second tick while the first pass is still in flight.
		skipped := scheduler.RunRefresh(ctx)
		assert.Zero(t, skipped.Refreshed)
		assert.Zero(t, skipped.Errors)

		close(release)
		wg.Wait()
		service.AssertNumberOfCalls(t, "RefreshStaleAICities", 1)
	})
}

func TestSchedulerTriggerManual(t *testing.T) {
	ctx := context.Background()

	t.Run("named city refreshes immediately regardless of staleness", func(t *testing.T) {
		scheduler, service := setupSchedulerTest(t)
		service.On("UpdateCityWithAI", ctx, "Lisbon", "Portugal").
			Return(&types.CityProfile{CityName: "Lisbon", Country: "Portugal"}, nil)

		result := scheduler.TriggerManual(ctx, "Lisbon", "Portugal")

		assert.True(t, result.Success)
		assert.Contains(t, result.Message, "Lisbon")
		service.AssertNotCalled(t, "RefreshStaleAICities", mock.Anything)
	})

	t.Run("named city failure is reported, not raised", func(t *testing.T) {
		scheduler, service := setupSchedulerTest(t)
		service.On("UpdateCityWithAI", ctx, "Lisbon", "Portugal").
			Return(nil, errors.New("rate limited"))

		result := scheduler.TriggerManual(ctx, "Lisbon", "Portugal")

		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "rate limited")
	})

	t.Run("no city forces a full batch pass", func(t *testing.T) {
		scheduler, service := setupSchedulerTest(t)
		service.On("CleanupExpired", mock.Anything).Return(int64(0), nil)
		service.On("RefreshStaleAICities", mock.Anything).Return(RefreshResult{Refreshed: 3}, nil)

		result := scheduler.TriggerManual(ctx, "", "")

		assert.True(t, result.Success)
		assert.Contains(t, result.Message, "3 cities")
	})
}

func TestSchedulerStatus(t *testing.T) {
	scheduler, _ := setupSchedulerTest(t)

	status := scheduler.Status()
	assert.False(t, status.IsRunning)
	assert.Nil(t, status.LastRunAt)
	assert.Nil(t, status.NextRunAt)
}
