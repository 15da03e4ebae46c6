package aiorchestrator

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/traveloure/traveloure-api/internal/api"
	"github.com/traveloure/traveloure-api/internal/types"
)

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// HealthCheck handles GET /ai/health - probes every provider.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AIOrchestratorHandler").Start(r.Context(), "HealthCheck", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/ai/health"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "HealthCheck"))

	health := h.service.HealthCheck(ctx)
	allHealthy := true
	for _, ok := range health {
		if !ok {
			allHealthy = false
		}
	}

	status := http.StatusOK
	if !allHealthy {
		status = http.StatusServiceUnavailable
	}

	l.InfoContext(ctx, "Provider health checked",
		slog.Bool("grok", health[types.ProviderGrok]),
		slog.Bool("gemini", health[types.ProviderGemini]),
	)
	span.SetStatus(codes.Ok, "Health check completed")
	api.WriteJSONResponse(w, r, status, map[string]any{
		"healthy":   allHealthy,
		"providers": health,
	})
}

// GetUsageStats handles GET /ai/usage - aggregated interaction accounting.
// Optional query parameters: user_id, start (RFC 3339), end (RFC 3339).
func (h *Handler) GetUsageStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AIOrchestratorHandler").Start(r.Context(), "GetUsageStats", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/ai/usage"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetUsageStats"))

	var filter UsageStatsFilter
	if userIDStr := r.URL.Query().Get("user_id"); userIDStr != "" {
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			l.WarnContext(ctx, "Invalid user_id query parameter", slog.Any("error", err))
			span.SetStatus(codes.Error, "Invalid user_id")
			api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user_id format")
			return
		}
		filter.UserID = &userID
	}
	if startStr := r.URL.Query().Get("start"); startStr != "" {
		start, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			l.WarnContext(ctx, "Invalid start query parameter", slog.Any("error", err))
			span.SetStatus(codes.Error, "Invalid start date")
			api.ErrorResponse(w, r, http.StatusBadRequest, "Query parameter 'start' must be RFC 3339")
			return
		}
		filter.StartDate = &start
	}
	if endStr := r.URL.Query().Get("end"); endStr != "" {
		end, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			l.WarnContext(ctx, "Invalid end query parameter", slog.Any("error", err))
			span.SetStatus(codes.Error, "Invalid end date")
			api.ErrorResponse(w, r, http.StatusBadRequest, "Query parameter 'end' must be RFC 3339")
			return
		}
		filter.EndDate = &end
	}

	stats, err := h.service.GetUsageStats(ctx, filter)
	if err != nil {
		l.ErrorContext(ctx, "Failed to retrieve usage stats", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Usage stats query failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve usage stats")
		return
	}

	l.InfoContext(ctx, "Usage stats retrieved", slog.Int("interactions", stats.TotalInteractions))
	span.SetStatus(codes.Ok, "Usage stats returned")
	api.WriteJSONResponse(w, r, http.StatusOK, stats)
}
