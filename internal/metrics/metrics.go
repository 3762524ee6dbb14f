// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "siamatlas_requests_total",
		Help: "API requests by route and status code",
	}, []string{"route", "code"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "siamatlas_request_duration_ms",
		Help:    "API request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"route"})
	SavesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "siamatlas_saves_total",
		Help: "Province save operations",
	})
	SaveDistrictFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "siamatlas_save_district_failures_total",
		Help: "District writes that failed during a best-effort save",
	})
	UploadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "siamatlas_uploads_total",
		Help: "Media uploads accepted",
	})
	UploadBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "siamatlas_upload_bytes",
		Help:    "Size distribution of uploaded media",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
	})
	SigninsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "siamatlas_signins_total",
		Help: "Sign-in attempts by outcome",
	}, []string{"outcome"})
	StoreErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "siamatlas_store_errors_total",
		Help: "Backend store errors by operation",
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(SavesTotal)
	prometheus.MustRegister(SaveDistrictFailures)
	prometheus.MustRegister(UploadsTotal)
	prometheus.MustRegister(UploadBytes)
	prometheus.MustRegister(SigninsTotal)
	prometheus.MustRegister(StoreErrorsTotal)
}

// Handler serves the registered metrics for Prometheus scraping.
func Handler() http.Handler { return promhttp.Handler() }
