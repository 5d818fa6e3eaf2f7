package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Bot command metrics
	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	// Ledger metrics
	LedgerOperationsTotal *prometheus.CounterVec
	OpenPositions         *prometheus.GaugeVec

	// Price oracle metrics
	OracleRequestsTotal *prometheus.CounterVec
	OracleDuration      *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryTotal    *prometheus.CounterVec
	DBErrorsTotal   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// defaultBuckets are the default histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// globalMetrics is the global metrics instance
var globalMetrics *Metrics

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	m := &Metrics{
		// Bot command metrics
		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trade_tracker",
				Subsystem: "bot",
				Name:      "commands_total",
				Help:      "Total number of bot commands handled",
			},
			[]string{"command", "status"},
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "trade_tracker",
				Subsystem: "bot",
				Name:      "command_duration_seconds",
				Help:      "Duration of bot command handling in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"command"},
		),

		// Ledger metrics
		LedgerOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trade_tracker",
				Subsystem: "ledger",
				Name:      "operations_total",
				Help:      "Total number of ledger operations by result",
			},
			[]string{"operation", "result"},
		),
		OpenPositions: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "trade_tracker",
				Subsystem: "ledger",
				Name:      "open_positions",
				Help:      "Number of currently open positions",
			},
			[]string{"instrument_class"},
		),

		// Price oracle metrics
		OracleRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trade_tracker",
				Subsystem: "oracle",
				Name:      "requests_total",
				Help:      "Total number of price oracle requests",
			},
			[]string{"ticker", "status"},
		),
		OracleDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "trade_tracker",
				Subsystem: "oracle",
				Name:      "request_duration_seconds",
				Help:      "Duration of price oracle requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"ticker"},
		),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "trade_tracker",
				Subsystem: "database",
				Name:      "query_duration_seconds",
				Help:      "Duration of database queries in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"operation", "table"},
		),
		DBQueryTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trade_tracker",
				Subsystem: "database",
				Name:      "queries_total",
				Help:      "Total number of database queries",
			},
			[]string{"operation", "table"},
		),
		DBErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trade_tracker",
				Subsystem: "database",
				Name:      "errors_total",
				Help:      "Total number of database errors",
			},
			[]string{"operation", "table"},
		),

		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trade_tracker",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "trade_tracker",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"method", "path"},
		),

		// Circuit breaker metrics
		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "trade_tracker",
				Subsystem: "circuit_breaker",
				Name:      "state",
				Help:      "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
			},
			[]string{"service"},
		),
		CircuitBreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trade_tracker",
				Subsystem: "circuit_breaker",
				Name:      "trips_total",
				Help:      "Total number of circuit breaker trips",
			},
			[]string{"service"},
		),
	}

	return m
}

// InitMetrics initializes the global metrics instance
func InitMetrics() *Metrics {
	globalMetrics = NewMetrics(nil)
	return globalMetrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	if globalMetrics == nil {
		return InitMetrics()
	}
	return globalMetrics
}

// RecordCommand records a handled bot command and its outcome
func (m *Metrics) RecordCommand(command, status string, duration time.Duration) {
	m.CommandsTotal.WithLabelValues(command, status).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordLedgerOperation records a ledger operation and its result
func (m *Metrics) RecordLedgerOperation(operation, result string) {
	m.LedgerOperationsTotal.WithLabelValues(operation, result).Inc()
}

// SetOpenPositions sets the open position count for an instrument class
func (m *Metrics) SetOpenPositions(instrumentClass string, count int) {
	m.OpenPositions.WithLabelValues(instrumentClass).Set(float64(count))
}

// RecordOracleRequest records a price oracle request
func (m *Metrics) RecordOracleRequest(ticker, status string, duration time.Duration) {
	m.OracleRequestsTotal.WithLabelValues(ticker, status).Inc()
	m.OracleDuration.WithLabelValues(ticker).Observe(duration.Seconds())
}

// RecordDBQuery records a database query
func (m *Metrics) RecordDBQuery(operation, table string, duration time.Duration) {
	m.DBQueryTotal.WithLabelValues(operation, table).Inc()
	m.DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordDBError records a database error
func (m *Metrics) RecordDBError(operation, table string) {
	m.DBErrorsTotal.WithLabelValues(operation, table).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SetCircuitBreakerState sets the current state of a circuit breaker
func (m *Metrics) SetCircuitBreakerState(service string, state int) {
	m.CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(service string) {
	m.CircuitBreakerTrips.WithLabelValues(service).Inc()
}

// Timer is a helper for timing operations
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer creates a new timer
func (m *Metrics) NewTimer() *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: m,
	}
}

// ObserveCommand records the command duration and status
func (t *Timer) ObserveCommand(command, status string) {
	t.metrics.RecordCommand(command, status, time.Since(t.start))
}

// ObserveOracle records the oracle request duration and status
func (t *Timer) ObserveOracle(ticker, status string) {
	t.metrics.RecordOracleRequest(ticker, status, time.Since(t.start))
}

// ObserveDB records the database query duration
func (t *Timer) ObserveDB(operation, table string) {
	t.metrics.RecordDBQuery(operation, table, time.Since(t.start))
}

// Duration returns the elapsed time
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
