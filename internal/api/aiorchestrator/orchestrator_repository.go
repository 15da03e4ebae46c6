package aiorchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/traveloure/traveloure-api/internal/types"
)

var _ InteractionRepository = (*PostgresInteractionRepo)(nil)

// InteractionRepository persists the append-only AI call ledger.
type InteractionRepository interface {
	SaveInteraction(ctx context.Context, interaction types.AIInteraction) error
	GetUsageStats(ctx context.Context, filter UsageStatsFilter) (*types.AIUsageStats, error)
}

// UsageStatsFilter scopes an aggregation query. Nil fields mean no filter.
type UsageStatsFilter struct {
	UserID    *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
}

// DB is the subset of the pgx pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type PostgresInteractionRepo struct {
	logger *slog.Logger
	pgpool DB
}

func NewPostgresInteractionRepo(pool DB, logger *slog.Logger) *PostgresInteractionRepo {
	return &PostgresInteractionRepo{
		logger: logger,
		pgpool: pool,
	}
}

func (r *PostgresInteractionRepo) SaveInteraction(ctx context.Context, interaction types.AIInteraction) error {
	query := `
        INSERT INTO ai_interactions (
            task_type, provider, prompt_tokens, completion_tokens, total_tokens,
            estimated_cost, duration_ms, success, error_message, user_id, trip_id, metadata
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `
	_, err := r.pgpool.Exec(ctx, query,
		interaction.TaskType, interaction.Provider,
		interaction.PromptTokens, interaction.CompletionTokens, interaction.TotalTokens,
		interaction.EstimatedCost, interaction.DurationMs, interaction.Success,
		nilIfEmpty(interaction.ErrorMessage), interaction.UserID, interaction.TripID, interaction.Metadata,
	)
	return err
}

func (r *PostgresInteractionRepo) GetUsageStats(ctx context.Context, filter UsageStatsFilter) (*types.AIUsageStats, error) {
	query := `
        SELECT provider, task_type, COUNT(*), COALESCE(SUM(total_tokens), 0), COALESCE(SUM(estimated_cost), 0)
        FROM ai_interactions
        WHERE ($1::uuid IS NULL OR user_id = $1)
          AND ($2::timestamptz IS NULL OR created_at >= $2)
          AND ($3::timestamptz IS NULL OR created_at <= $3)
        GROUP BY provider, task_type
    `
	rows, err := r.pgpool.Query(ctx, query, filter.UserID, filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage stats: %w", err)
	}
	defer rows.Close()

	stats := &types.AIUsageStats{
		ByProvider:  make(map[types.AIProvider]int),
		ByTaskType:  make(map[types.AITaskType]int),
		WindowStart: filter.StartDate,
		WindowEnd:   filter.EndDate,
	}
	for rows.Next() {
		var provider types.AIProvider
		var taskType types.AITaskType
		var count, tokens int
		var cost float64
		if err := rows.Scan(&provider, &taskType, &count, &tokens, &cost); err != nil {
			return nil, fmt.Errorf("failed to scan usage stats row: %w", err)
		}
		stats.TotalInteractions += count
		stats.TotalTokens += tokens
		stats.TotalCost += cost
		stats.ByProvider[provider] += count
		stats.ByTaskType[taskType] += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usage stats rows: %w", err)
	}
	return stats, nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
