package travelpulse

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/traveloure/traveloure-api/internal/api"
)

type Handler struct {
	service   Service
	scheduler *Scheduler
	logger    *slog.Logger
}

func NewHandler(service Service, scheduler *Scheduler, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		scheduler: scheduler,
		logger:    logger,
	}
}

// GetTrending handles GET /pulse/trending/{city}. Optional query parameter:
// limit (default 10).
func (h *Handler) GetTrending(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TravelPulseHandler").Start(r.Context(), "GetTrending", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/pulse/trending/{city}"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetTrending"))

	city := chi.URLParam(r, "city")
	if city == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "City is required")
		return
	}
	limit := 10
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Query parameter 'limit' must be a positive integer")
			return
		}
		limit = parsed
	}

	places, err := h.service.GetTrendingDestinations(ctx, city, limit)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get trending destinations", slog.String("city", city), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Trending lookup failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve trending destinations for "+city)
		return
	}

	span.SetStatus(codes.Ok, "Trending destinations returned")
	api.WriteJSONResponse(w, r, http.StatusOK, places)
}

type truthCheckRequest struct {
	Query string `json:"query"`
	City  string `json:"city,omitempty"`
}

// TruthCheck handles POST /pulse/truth-check.
func (h *Handler) TruthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TravelPulseHandler").Start(r.Context(), "TruthCheck", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/pulse/truth-check"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "TruthCheck"))

	var req truthCheckRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid truth check payload", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Query == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Query is required")
		return
	}

	check, err := h.service.GetTruthCheck(ctx, req.Query, req.City)
	if err != nil {
		l.ErrorContext(ctx, "Failed to run truth check", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Truth check failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to verify the query")
		return
	}

	span.SetStatus(codes.Ok, "Truth check returned")
	api.WriteJSONResponse(w, r, http.StatusOK, check)
}

// GetLiveScore handles GET /pulse/live-score. Required query parameters:
// entity, city.
func (h *Handler) GetLiveScore(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TravelPulseHandler").Start(r.Context(), "GetLiveScore", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/pulse/live-score"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetLiveScore"))

	entity := r.URL.Query().Get("entity")
	city := r.URL.Query().Get("city")
	if entity == "" || city == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Query parameters 'entity' and 'city' are required")
		return
	}

	score, err := h.service.GetLiveScore(ctx, entity, city)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get live score", slog.String("entity", entity), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Live score failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to score "+entity)
		return
	}

	span.SetStatus(codes.Ok, "Live score returned")
	api.WriteJSONResponse(w, r, http.StatusOK, score)
}

// GetCalendar handles GET /pulse/calendar/{city}. Optional query parameters
// start and end (YYYY-MM-DD); the default window is the next 90 days.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TravelPulseHandler").Start(r.Context(), "GetCalendar", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/pulse/calendar/{city}"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetCalendar"))

	city := chi.URLParam(r, "city")
	if city == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "City is required")
		return
	}

	start := time.Now()
	end := start.AddDate(0, 0, 90)
	if startStr := r.URL.Query().Get("start"); startStr != "" {
		parsed, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Query parameter 'start' must be YYYY-MM-DD")
			return
		}
		start = parsed
	}
	if endStr := r.URL.Query().Get("end"); endStr != "" {
		parsed, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Query parameter 'end' must be YYYY-MM-DD")
			return
		}
		end = parsed
	}
	if end.Before(start) {
		api.ErrorResponse(w, r, http.StatusBadRequest, "End date must not be before start date")
		return
	}

	events, err := h.service.GetCalendarEvents(ctx, city, start, end)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get calendar events", slog.String("city", city), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Calendar lookup failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve events for "+city)
		return
	}

	span.SetStatus(codes.Ok, "Calendar events returned")
	api.WriteJSONResponse(w, r, http.StatusOK, events)
}

// GetDestination handles GET /pulse/destination. Required query parameters:
// name, city.
func (h *Handler) GetDestination(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TravelPulseHandler").Start(r.Context(), "GetDestination", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/pulse/destination"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetDestination"))

	name := r.URL.Query().Get("name")
	city := r.URL.Query().Get("city")
	if name == "" || city == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Query parameters 'name' and 'city' are required")
		return
	}

	place, err := h.service.GetDestinationIntelligence(ctx, name, city)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get destination intelligence", slog.String("destination", name), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Destination intelligence failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve intelligence for "+name)
		return
	}

	span.SetStatus(codes.Ok, "Destination intelligence returned")
	api.WriteJSONResponse(w, r, http.StatusOK, place)
}

// GetCityProfile handles GET /pulse/city/{city}. Required query parameter:
// country.
func (h *Handler) GetCityProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TravelPulseHandler").Start(r.Context(), "GetCityProfile", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/pulse/city/{city}"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetCityProfile"))

	city := chi.URLParam(r, "city")
	country := r.URL.Query().Get("country")
	if city == "" || country == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "City and query parameter 'country' are required")
		return
	}

	profile, err := h.service.GetCityProfile(ctx, city, country)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get city profile", slog.String("city", city), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "City profile lookup failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve profile for "+city)
		return
	}
	if profile == nil {
		span.SetStatus(codes.Ok, "City profile not found")
		api.ErrorResponse(w, r, http.StatusNotFound, "No profile for "+city)
		return
	}

	span.SetStatus(codes.Ok, "City profile returned")
	api.WriteJSONResponse(w, r, http.StatusOK, profile)
}

type manualRefreshRequest struct {
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

// TriggerRefresh handles POST /pulse/refresh. An empty body forces a full
// stale-city pass; naming a city and country refreshes just that profile.
func (h *Handler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TravelPulseHandler").Start(r.Context(), "TriggerRefresh", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/pulse/refresh"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "TriggerRefresh"))

	var req manualRefreshRequest
	if r.ContentLength > 0 {
		if err := api.DecodeJSONBody(w, r, &req); err != nil {
			l.WarnContext(ctx, "Invalid refresh payload", slog.Any("error", err))
			span.SetStatus(codes.Error, "Invalid request body")
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}
	if (req.City == "") != (req.Country == "") {
		api.ErrorResponse(w, r, http.StatusBadRequest, "City and country must be provided together")
		return
	}

	result := h.scheduler.TriggerManual(ctx, req.City, req.Country)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}

	span.SetStatus(codes.Ok, "Manual refresh handled")
	api.WriteJSONResponse(w, r, status, result)
}

// SchedulerStatus handles GET /pulse/scheduler/status.
func (h *Handler) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	_, span := otel.Tracer("TravelPulseHandler").Start(r.Context(), "SchedulerStatus", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/pulse/scheduler/status"),
	))
	defer span.End()

	span.SetStatus(codes.Ok, "Scheduler status returned")
	api.WriteJSONResponse(w, r, http.StatusOK, h.scheduler.Status())
}
