// Package metrics содержит счётчики и гистограммы рабочего процесса заявок.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultSuccess = "success"
	UnknownStatus = "unknown"
)

var (
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rental",
		Subsystem: "workflow",
		Name:      "transitions_total",
		Help:      "Total number of status change attempts broken down by target status and result.",
	}, []string{"to_status", "result"})

	changeStatusLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rental",
		Subsystem: "workflow",
		Name:      "change_status_seconds",
		Help:      "Latency distribution for status changes.",
		Buckets: []float64{
			0.001, 0.002, 0.005,
			0.01, 0.02, 0.05,
			0.1, 0.2, 0.5,
			1, 2, 5,
		},
	}, []string{"result"})

	assignmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rental",
		Name:      "assignments_total",
		Help:      "Total number of operator assignment attempts broken down by result.",
	}, []string{"result"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rental",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total number of API requests broken down by endpoint and result.",
	}, []string{"endpoint", "result"})
)

// ObserveTransition учитывает попытку смены статуса. Пустой result означает успех.
func ObserveTransition(toStatus, result string, started time.Time) {
	if result == "" {
		result = ResultSuccess
	}
	transitionsTotal.WithLabelValues(toStatus, result).Inc()
	changeStatusLatency.WithLabelValues(result).Observe(time.Since(started).Seconds())
}

// ObserveAssignment учитывает попытку назначения оператора.
func ObserveAssignment(result string) {
	if result == "" {
		result = ResultSuccess
	}
	assignmentsTotal.WithLabelValues(result).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Instrument считает ответы обработчика по классу статуса.
func Instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		result := "2xx"
		switch {
		case rec.status >= 500:
			result = "5xx"
		case rec.status >= 400:
			result = "4xx"
		}
		httpRequests.WithLabelValues(endpoint, result).Inc()
	}
}

// Handler отдаёт метрики в формате Prometheus.
func Handler() http.Handler {
	return promhttp.Handler()
}
