package aiorchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traveloure/traveloure-api/internal/types"
)

func setupRepoTest(t *testing.T) (pgxmock.PgxPoolIface, *PostgresInteractionRepo) {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return pool, NewPostgresInteractionRepo(pool, logger)
}

func TestPostgresInteractionRepo_SaveInteraction(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts a successful interaction", func(t *testing.T) {
		pool, repo := setupRepoTest(t)

		userID := uuid.New()
		metadata := json.RawMessage(`{"model":"grok-2-1212"}`)
		pool.ExpectExec("INSERT INTO ai_interactions").
			WithArgs(
				types.TaskRealTimeIntelligence, types.ProviderGrok,
				120, 340, 460,
				0.0042, 1850, true,
				(*string)(nil), &userID, (*uuid.UUID)(nil), metadata,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.SaveInteraction(ctx, types.AIInteraction{
			TaskType:         types.TaskRealTimeIntelligence,
			Provider:         types.ProviderGrok,
			PromptTokens:     120,
			CompletionTokens: 340,
			TotalTokens:      460,
			EstimatedCost:    0.0042,
			DurationMs:       1850,
			Success:          true,
			UserID:           &userID,
			Metadata:         metadata,
		})
		require.NoError(t, err)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("stores the error message of a failed call", func(t *testing.T) {
		pool, repo := setupRepoTest(t)

		pool.ExpectExec("INSERT INTO ai_interactions").
			WithArgs(
				types.TaskChat, types.ProviderGemini,
				0, 0, 0,
				0.0, 900, false,
				pgxmock.AnyArg(), (*uuid.UUID)(nil), (*uuid.UUID)(nil), json.RawMessage(nil),
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.SaveInteraction(ctx, types.AIInteraction{
			TaskType:     types.TaskChat,
			Provider:     types.ProviderGemini,
			DurationMs:   900,
			Success:      false,
			ErrorMessage: "provider timeout",
		})
		require.NoError(t, err)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("propagates database errors", func(t *testing.T) {
		pool, repo := setupRepoTest(t)

		pool.ExpectExec("INSERT INTO ai_interactions").
			WithArgs(
				types.TaskChat, types.ProviderGrok,
				0, 0, 0,
				0.0, 0, true,
				(*string)(nil), (*uuid.UUID)(nil), (*uuid.UUID)(nil), json.RawMessage(nil),
			).
			WillReturnError(errors.New("connection refused"))

		err := repo.SaveInteraction(ctx, types.AIInteraction{
			TaskType: types.TaskChat,
			Provider: types.ProviderGrok,
			Success:  true,
		})
		assert.ErrorContains(t, err, "connection refused")
	})
}

func TestPostgresInteractionRepo_GetUsageStats(t *testing.T) {
	ctx := context.Background()

	t.Run("aggregates rows across providers and task types", func(t *testing.T) {
		pool, repo := setupRepoTest(t)

		rows := pgxmock.NewRows([]string{"provider", "task_type", "count", "total_tokens", "estimated_cost"}).
			AddRow(types.ProviderGrok, types.TaskRealTimeIntelligence, 5, 2300, 0.021).
			AddRow(types.ProviderGrok, types.TaskExpertMatching, 2, 800, 0.008).
			AddRow(types.ProviderGemini, types.TaskAutonomousItinerary, 3, 5400, 0.054)
		pool.ExpectQuery("SELECT provider, task_type").
			WithArgs((*uuid.UUID)(nil), (*time.Time)(nil), (*time.Time)(nil)).
			WillReturnRows(rows)

		stats, err := repo.GetUsageStats(ctx, UsageStatsFilter{})
		require.NoError(t, err)

		assert.Equal(t, 10, stats.TotalInteractions)
		assert.Equal(t, 8500, stats.TotalTokens)
		assert.InDelta(t, 0.083, stats.TotalCost, 1e-9)
		assert.Equal(t, 7, stats.ByProvider[types.ProviderGrok])
		assert.Equal(t, 3, stats.ByProvider[types.ProviderGemini])
		assert.Equal(t, 5, stats.ByTaskType[types.TaskRealTimeIntelligence])
		assert.Equal(t, 3, stats.ByTaskType[types.TaskAutonomousItinerary])
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("passes the user and window filters through", func(t *testing.T) {
		pool, repo := setupRepoTest(t)

		userID := uuid.New()
		start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
		pool.ExpectQuery("SELECT provider, task_type").
			WithArgs(&userID, &start, &end).
			WillReturnRows(pgxmock.NewRows([]string{"provider", "task_type", "count", "total_tokens", "estimated_cost"}))

		stats, err := repo.GetUsageStats(ctx, UsageStatsFilter{
			UserID:    &userID,
			StartDate: &start,
			EndDate:   &end,
		})
		require.NoError(t, err)

		assert.Zero(t, stats.TotalInteractions)
		assert.Equal(t, &start, stats.WindowStart)
		assert.Equal(t, &end, stats.WindowEnd)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("wraps query failures", func(t *testing.T) {
		pool, repo := setupRepoTest(t)

		pool.ExpectQuery("SELECT provider, task_type").
			WithArgs((*uuid.UUID)(nil), (*time.Time)(nil), (*time.Time)(nil)).
			WillReturnError(errors.New("relation does not exist"))

		stats, err := repo.GetUsageStats(ctx, UsageStatsFilter{})
		assert.Nil(t, stats)
		assert.ErrorContains(t, err, "failed to query usage stats")
	})
}
