package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics tracks the schedule engine's tick loop and firing outcomes.
type EngineMetrics struct {
	ticks        prometheus.Counter
	fires        *prometheus.CounterVec
	generated    *prometheus.CounterVec
	skipped      *prometheus.CounterVec
	itemErrors   *prometheus.CounterVec
	fireDuration *prometheus.HistogramVec
}

var (
	engineOnce sync.Once
	engine     *EngineMetrics
)

// Engine returns the process-wide engine metrics, registering them on first use.
func Engine() *EngineMetrics {
	engineOnce.Do(func() {
		engine = newEngineMetrics(prometheus.DefaultRegisterer)
	})
	return engine
}

func newEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "payouts_engine_ticks_total",
			Help: "Engine tick loop iterations.",
		}),
		fires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payouts_engine_fires_total",
			Help: "Schedule firings by tag.",
		}, []string{"tag"}),
		generated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payouts_statements_generated_total",
			Help: "Statements generated by scope kind.",
		}, []string{"scope"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payouts_statements_skipped_duplicate_total",
			Help: "Generation calls skipped because a statement already existed.",
		}, []string{"scope"}),
		itemErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payouts_engine_item_errors_total",
			Help: "Per-listing or per-group generation failures inside a firing.",
		}, []string{"tag"}),
		fireDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payouts_engine_fire_duration_seconds",
			Help:    "Duration of a schedule firing.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"tag"}),
	}
	reg.MustRegister(m.ticks, m.fires, m.generated, m.skipped, m.itemErrors, m.fireDuration)
	return m
}

func (m *EngineMetrics) IncTick() { m.ticks.Inc() }
func (m *EngineMetrics) IncFire(tag string) { m.fires.WithLabelValues(tag).Inc() }

func (m *EngineMetrics) IncGenerated(scope string) { m.generated.WithLabelValues(scope).Inc() }
func (m *EngineMetrics) IncSkipped(scope string)   { m.skipped.WithLabelValues(scope).Inc() }
func (m *EngineMetrics) IncItemError(tag string)   { m.itemErrors.WithLabelValues(tag).Inc() }

func (m *EngineMetrics) ObserveFireDuration(tag string, d time.Duration) {
	m.fireDuration.WithLabelValues(tag).Observe(d.Seconds())
}
