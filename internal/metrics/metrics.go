package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics метрики сервиса расчета индикаторов
type Metrics struct {
	registry *prometheus.Registry

	CacheHits       *prometheus.CounterVec   // labels: indicator
	CacheMisses     *prometheus.CounterVec   // labels: indicator
	EngineAttempts  *prometheus.CounterVec   // labels: engine, outcome
	Calculations    *prometheus.CounterVec   // labels: indicator, success
	CalculationTime *prometheus.HistogramVec // labels: indicator
}

// New создает и регистрирует метрики в собственном реестре
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Запросы, обслуженные из кэша",
		}, []string{"indicator"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Запросы, потребовавшие расчета",
		}, []string{"indicator"}),
		EngineAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_attempts_total",
			Help:      "Попытки расчета по движкам и исходам",
		}, []string{"engine", "outcome"}),
		Calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_total",
			Help:      "Завершенные вызовы расчета",
		}, []string{"indicator", "success"}),
		CalculationTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "calculation_duration_seconds",
			Help:      "Длительность расчета индикатора",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"indicator"}),
	}

	m.registry.MustRegister(
		m.CacheHits,
		m.CacheMisses,
		m.EngineAttempts,
		m.Calculations,
		m.CalculationTime,
		collectors.NewGoCollector(),
	)
	return m
}

// CacheHit учитывает попадание в кэш
func (m *Metrics) CacheHit(name string) { m.CacheHits.WithLabelValues(name).Inc() }

// CacheMiss учитывает промах кэша
func (m *Metrics) CacheMiss(name string) { m.CacheMisses.WithLabelValues(name).Inc() }

// EngineAttempt учитывает попытку движка
func (m *Metrics) EngineAttempt(engine, outcome string) {
	m.EngineAttempts.WithLabelValues(engine, outcome).Inc()
}

// Calculated учитывает завершенный вызов
func (m *Metrics) Calculated(name string, d time.Duration, success bool) {
	m.Calculations.WithLabelValues(name, strconv.FormatBool(success)).Inc()
	m.CalculationTime.WithLabelValues(name).Observe(d.Seconds())
}

// Registry возвращает реестр метрик
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler возвращает HTTP-обработчик /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
