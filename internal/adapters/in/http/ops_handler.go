// internal/adapters/in/http/ops_handler.go
package opshttp

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"threadline/internal/application/usecase"
	"threadline/internal/platform/schedule"
)

// OpsHandler exposes the operational surface of the abandonment core:
// status/stats introspection, a manual run trigger, and the
// checkout-conversion reset hook.
type OpsHandler struct {
	uc        *usecase.AbandonmentUsecase
	scheduler *schedule.AbandonmentScheduler
}

func NewOpsHandler(uc *usecase.AbandonmentUsecase, scheduler *schedule.AbandonmentScheduler) *OpsHandler {
	return &OpsHandler{uc: uc, scheduler: scheduler}
}

// Register wires the ops routes onto mux.
func (h *OpsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.handleHealthz)
	mux.HandleFunc("/ops/abandonment/status", h.handleStatus)
	mux.HandleFunc("/ops/abandonment/stats", h.handleStats)
	mux.HandleFunc("/ops/abandonment/run", h.handleRun)
	mux.HandleFunc("/ops/abandonment/reset", h.handleReset)
}

func (h *OpsHandler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *OpsHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, h.scheduler.Status())
}

func (h *OpsHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	// GetAbandonmentStats never fails; aggregation errors surface as zeros
	writeJSON(w, http.StatusOK, h.uc.GetAbandonmentStats(r.Context()))
}

func (h *OpsHandler) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	log.Printf("[ops] manual abandonment run triggered")
	sent := h.scheduler.RunAbandonmentCheck(r.Context())

	writeJSON(w, http.StatusOK, map[string]int{"notificationsSent": sent})
}

func (h *OpsHandler) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	cartID := strings.TrimSpace(r.URL.Query().Get("cartId"))
	if cartID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cartId is required"})
		return
	}

	if err := h.uc.ResetNotificationState(r.Context(), cartID); err != nil {
		log.Printf("[ops] WARN: reset failed cart=%s: %v", cartID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "reset failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"cartId": cartID, "result": "reset"})
}

func methodNotAllowed(w http.ResponseWriter) {
	w.WriteHeader(http.StatusMethodNotAllowed)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "method_not_allowed"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
