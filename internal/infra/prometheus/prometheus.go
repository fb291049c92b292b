package prometheus

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sifan077/LinkPulse/config"
)

const (
	MetricsPath = "/metrics"
	defaultPort = 9090
)

// Handler serves the gatherer in text or OpenMetrics format and counts its own scrapes.
func Handler(reg prometheus.Registerer, gatherer prometheus.Gatherer) http.Handler {
	return promhttp.InstrumentMetricHandler(reg, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Timeout:           5 * time.Second,
	}))
}

// NewServer exposes the default registry on MetricsPath.
func NewServer(cfg config.PrometheusConfig) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(MetricsPath, Handler(prometheus.DefaultRegisterer, prometheus.DefaultGatherer))

	return &http.Server{
		Addr:              Addr(cfg),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// Addr is the listen address for the metrics server.
func Addr(cfg config.PrometheusConfig) string {
	port := cfg.Port
	if port <= 0 {
		port = defaultPort
	}
	return fmt.Sprintf(":%d", port)
}
