package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	AIRequestsTotal          metric.Int64Counter
	AIRequestDurationSeconds metric.Float64Histogram
	AIEstimatedCostUSD       metric.Float64Counter
	AITokensTotal            metric.Int64Counter
	CacheHitsTotal           metric.Int64Counter
	CacheMissesTotal         metric.Int64Counter
	DbQueryErrorsTotal       metric.Int64Counter
	SchedulerRunsTotal       metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments once, using the
// globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("Traveloure")
		var err error
		m := &AppMetrics{}

		m.AIRequestsTotal, err = meter.Int64Counter(
			"ai_requests_total",
			metric.WithDescription("Total number of AI provider calls, labeled by provider, task and outcome"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create ai_requests_total: %v", err)
		}

		m.AIRequestDurationSeconds, err = meter.Float64Histogram(
			"ai_request_duration_seconds",
			metric.WithDescription("Duration of AI provider calls in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create ai_request_duration_seconds: %v", err)
		}

		m.AIEstimatedCostUSD, err = meter.Float64Counter(
			"ai_estimated_cost_usd",
			metric.WithDescription("Cumulative estimated spend across AI providers"),
			metric.WithUnit("USD"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create ai_estimated_cost_usd: %v", err)
		}

		m.AITokensTotal, err = meter.Int64Counter(
			"ai_tokens_total",
			metric.WithDescription("Total tokens consumed across AI providers"),
			metric.WithUnit("{token}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create ai_tokens_total: %v", err)
		}

		m.CacheHitsTotal, err = meter.Int64Counter(
			"intelligence_cache_hits_total",
			metric.WithDescription("Destination intelligence lookups served from cache"),
			metric.WithUnit("{lookup}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create intelligence_cache_hits_total: %v", err)
		}

		m.CacheMissesTotal, err = meter.Int64Counter(
			"intelligence_cache_misses_total",
			metric.WithDescription("Destination intelligence lookups that required an AI call"),
			metric.WithUnit("{lookup}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create intelligence_cache_misses_total: %v", err)
		}

		m.DbQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_errors_total: %v", err)
		}

		m.SchedulerRunsTotal, err = meter.Int64Counter(
			"city_refresh_runs_total",
			metric.WithDescription("Background city refresh cycles, labeled by outcome"),
			metric.WithUnit("{run}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create city_refresh_runs_total: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
