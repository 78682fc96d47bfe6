// metrics.go — Prometheus HTTP метрики сервиса expedientes.
// Регистрирует метрики: expedientes_http_requests_total,
// expedientes_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expedientes_http_requests_total",
			Help: "Общее количество HTTP-запросов",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "expedientes_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (заменяем идентификаторы на {id} для предотвращения кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newStatusRecorder(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// statusRecorder — обёртка для перехвата статус-кода.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// staticSegments — сегменты, которые не являются идентификаторами.
var staticSegments = map[string]bool{
	"nuevo": true, "imprimir": true, "etiqueta": true, "estado": true,
	"tramite": true, "resolucion": true, "edificios": true, "gestiones": true,
	"eliminar": true, "renombrar": true, "activo": true,
	"history": true, "status-tag": true,
}

// idParents — коллекции, следующий сегмент после которых — идентификатор.
var idParents = map[string]bool{
	"expedientes": true, "edificios": true, "case-files": true, "buildings": true,
}

// normalizePath заменяет сегменты-идентификаторы на {id}.
// /api/v1/case-files/a1b2c3d4-.../history → /api/v1/case-files/{id}/history
// /expedientes/a1b2.../imprimir → /expedientes/{id}/imprimir
func normalizePath(path string) string {
	if strings.HasPrefix(path, "/static/") {
		return "/static/*"
	}

	segments := strings.Split(path, "/")
	for i := 1; i < len(segments); i++ {
		if idParents[segments[i-1]] && segments[i] != "" && !staticSegments[segments[i]] {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}
