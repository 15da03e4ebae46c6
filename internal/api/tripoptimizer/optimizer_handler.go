package tripoptimizer

import (
	"log/slog"
	"net/http"

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

// Optimize handles POST /trips/optimize.
func (h *Handler) Optimize(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TripOptimizerHandler").Start(r.Context(), "Optimize", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/trips/optimize"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "Optimize"))

	var req types.TripOptimizationRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid optimization payload", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Destination == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Destination is required")
		return
	}
	if req.Dates.Start == "" || req.Dates.End == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Trip start and end dates are required")
		return
	}
	if req.Travelers <= 0 {
		req.Travelers = 1
	}

	result, err := h.service.GenerateOptimizedItineraries(ctx, req, types.CallOptions{})
	if err != nil {
		l.ErrorContext(ctx, "Failed to generate itinerary variations", slog.String("destination", req.Destination), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Optimization failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to generate itinerary variations for "+req.Destination)
		return
	}

	span.SetStatus(codes.Ok, "Variations generated")
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}
