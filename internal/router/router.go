package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/traveloure/traveloure-api/internal/api/aiorchestrator"
	"github.com/traveloure/traveloure-api/internal/api/enrichment"
	"github.com/traveloure/traveloure-api/internal/api/travelpulse"
	"github.com/traveloure/traveloure-api/internal/api/tripoptimizer"
)

// Config contains the handlers needed for the router setup.
type Config struct {
	OrchestratorHandler  *aiorchestrator.Handler
	TravelPulseHandler   *travelpulse.Handler
	TripOptimizerHandler *tripoptimizer.Handler
	EnrichmentHandler    *enrichment.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are expected to be
// applied before mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/pulse", func(r chi.Router) {
			r.Get("/trending/{city}", cfg.TravelPulseHandler.GetTrending)
			r.Post("/truth-check", cfg.TravelPulseHandler.TruthCheck)
			r.Get("/live-score", cfg.TravelPulseHandler.GetLiveScore)
			r.Get("/calendar/{city}", cfg.TravelPulseHandler.GetCalendar)
			r.Get("/destination", cfg.TravelPulseHandler.GetDestination)
			r.Get("/city/{city}", cfg.TravelPulseHandler.GetCityProfile)
			r.Post("/refresh", cfg.TravelPulseHandler.TriggerRefresh)
			r.Get("/scheduler/status", cfg.TravelPulseHandler.SchedulerStatus)
		})

		r.Post("/trips/optimize", cfg.TripOptimizerHandler.Optimize)
		r.Get("/enrichment/{city}", cfg.EnrichmentHandler.GetCityContent)

		r.Route("/ai", func(r chi.Router) {
			r.Get("/health", cfg.OrchestratorHandler.HealthCheck)
			r.Get("/usage", cfg.OrchestratorHandler.GetUsageStats)
		})
	})

	return r
}
