package http

import (
	"net/http"
	"sync/atomic"

	"github.com/amakane-hakari/reapset/internal/reaper"
)

// HealthSource は Reaper の状態を提供します。
type HealthSource interface {
	Health() reaper.Health
}

var draining atomic.Bool

// SetDraining はドレイニング状態を設定します。
func SetDraining(v bool) {
	draining.Store(v)
}

type healthHandler struct {
	src HealthSource
}

type healthResponse struct {
	Status string `json:"status"`
	Reaper string `json:"reaper"`
}

// health は Reaper が動作中なら 200、ドレイン中または停止中なら 503 を返します。
func (h *healthHandler) health(w http.ResponseWriter, _ *http.Request) error {
	state := h.src.Health().State
	switch {
	case draining.Load():
		return Unavailable("draining", healthResponse{Status: "draining", Reaper: state.String()})
	case state != reaper.StateRunning:
		return Unavailable("reaper not running", healthResponse{Status: "degraded", Reaper: state.String()})
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Reaper: state.String()})
	return nil
}

func (h *healthHandler) reaper(w http.ResponseWriter, _ *http.Request) error {
	writeSuccess(w, http.StatusOK, h.src.Health())
	return nil
}
