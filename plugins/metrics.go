package plugins

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/core/plugin"
	"github.com/dmitrymomot/relay/core/reqctx"
)

// Metrics records Prometheus request counters, latencies, retries and errors.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	retries  *prometheus.CounterVec
	errors   *prometheus.CounterVec
}

// MetricsConfig configures the metrics plugin.
type MetricsConfig struct {
	// Namespace prefixes every metric (default: "relay").
	Namespace string
	// Subsystem distinguishes serving from calling, e.g. "server" or "client".
	Subsystem string
	// Registerer defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
	// Buckets for the duration histogram (default: prometheus.DefBuckets).
	Buckets []float64
}

var metricLabels = []string{"operation", "method", "status"}

// NewMetrics creates the collectors and registers them. Collectors already
// registered under the same names are reused.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if cfg.Namespace == "" {
		cfg.Namespace = "relay"
	}
	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.DefaultRegisterer
	}
	if cfg.Buckets == nil {
		cfg.Buckets = prometheus.DefBuckets
	}

	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "requests_total",
			Help:      "Total number of completed requests",
		}, metricLabels),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "request_duration_seconds",
			Help:      "Time from entering the engine to the response",
			Buckets:   cfg.Buckets,
		}, metricLabels),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "retries_total",
			Help:      "Total number of redo iterations",
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "errors_total",
			Help:      "Total number of errors raised while dispatching",
		}, metricLabels),
	}

	if err := register(cfg.Registerer, &m.requests); err != nil {
		return nil, err
	}
	if err := register(cfg.Registerer, &m.duration); err != nil {
		return nil, err
	}
	if err := register(cfg.Registerer, &m.retries); err != nil {
		return nil, err
	}
	if err := register(cfg.Registerer, &m.errors); err != nil {
		return nil, err
	}
	return m, nil
}

// MustNewMetrics is like NewMetrics but panics on registration failure.
func MustNewMetrics(cfg MetricsConfig) *Metrics {
	m, err := NewMetrics(cfg)
	if err != nil {
		panic(err)
	}
	return m
}

func register[C prometheus.Collector](r prometheus.Registerer, c *C) error {
	err := r.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			*c = existing
			return nil
		}
	}
	return err
}

func operationOf(s *reqctx.Store) string {
	names := reqctx.OperationNames.Value(s)
	if len(names) == 0 {
		return "unknown"
	}
	return strings.Join(names, " > ")
}

func (m *Metrics) ProcessRequest(ctx context.Context, _ *message.Request) (plugin.Result, error) {
	s := reqctx.FromContext(ctx)
	if reqctx.RetryIndex.Value(s) > 0 {
		m.retries.WithLabelValues(operationOf(s)).Inc()
	}
	return plugin.Unchanged(), nil
}

func (m *Metrics) ProcessResponse(ctx context.Context, resp *message.Response) (plugin.Result, error) {
	s := reqctx.FromContext(ctx)
	method := ""
	if resp.Request != nil {
		method = resp.Request.Method
	}
	values := []string{operationOf(s), method, strconv.Itoa(resp.Status)}
	m.requests.WithLabelValues(values...).Inc()
	m.duration.WithLabelValues(values...).Observe(reqctx.Elapsed(s).Seconds())
	return plugin.Unchanged(), nil
}

func (m *Metrics) HandleError(ctx context.Context, e *message.Error) (plugin.Result, error) {
	method := ""
	if e.Request != nil {
		method = e.Request.Method
	}
	m.errors.WithLabelValues(operationOf(reqctx.FromContext(ctx)), method, strconv.Itoa(e.Status)).Inc()
	return plugin.Unchanged(), nil
}
