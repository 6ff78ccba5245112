package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics счётчики переходов заявок и праздничных каскадов
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	holidayCascades prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studio_requests_total",
			Help: "Reschedule request transitions by kind.",
		}, []string{"transition"}),
		holidayCascades: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "studio_holiday_cascades_total",
			Help: "Holidays declared with a completed cascade.",
		}),
	}

	m.registry.MustRegister(
		m.requests,
		m.holidayCascades,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RequestTransition увеличивает счётчик перехода (created, approved, rejected, force_rejected)
func (m *Metrics) RequestTransition(transition string) {
	m.requests.WithLabelValues(transition).Inc()
}

func (m *Metrics) HolidayCascade() {
	m.holidayCascades.Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ServeMetrics отдаёт /metrics на addr до отмены ctx
func ServeMetrics(ctx context.Context, addr string, m *Metrics, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shutdown metrics server", zap.Error(err))
		}
	}()

	logger.Info("Serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
