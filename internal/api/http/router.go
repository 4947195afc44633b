package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ilog "github.com/amakane-hakari/reapset/internal/log"
)

// Deps はルータの依存です。
type Deps struct {
	Health   HealthSource
	Logger   ilog.Logger
	Gatherer prometheus.Gatherer // nil なら prometheus.DefaultGatherer
}

// NewRouter は運用向けエンドポイント (health / debug / metrics) のルータを作成します。
func NewRouter(d Deps) http.Handler {
	g := d.Gatherer
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	h := &healthHandler{src: d.Health}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware())
	r.Use(RecoverMiddleware(d.Logger))
	r.Use(AccessLog(d.Logger))

	r.NotFound(HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) error {
		return NotFound("route not found")
	}).ServeHTTP)
	r.MethodNotAllowed(HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) error {
		return MethodNotAllowed("method not allowed")
	}).ServeHTTP)

	r.Method(http.MethodGet, "/health", HandlerFunc(h.health))
	r.Method(http.MethodGet, "/debug/reaper", HandlerFunc(h.reaper))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return r
}
