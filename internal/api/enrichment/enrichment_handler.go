package enrichment

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/traveloure/traveloure-api/internal/api"
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

// GetCityContent handles GET /enrichment/{city}. Optional query parameter:
// country.
func (h *Handler) GetCityContent(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("EnrichmentHandler").Start(r.Context(), "GetCityContent", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/enrichment/{city}"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetCityContent"))

	city := chi.URLParam(r, "city")
	if city == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "City is required")
		return
	}
	country := r.URL.Query().Get("country")

	content, err := h.service.GetEnrichedContentForCity(ctx, city, country)
	if err != nil {
		l.ErrorContext(ctx, "Failed to enrich city content", slog.String("city", city), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Enrichment failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to build enriched content for "+city)
		return
	}
	if content == nil {
		span.SetStatus(codes.Ok, "City not found")
		api.ErrorResponse(w, r, http.StatusNotFound, "No cached intelligence for "+city)
		return
	}

	span.SetStatus(codes.Ok, "Enriched content returned")
	api.WriteJSONResponse(w, r, http.StatusOK, content)
}
