package handler

import (
	"errors"
	"net/http"

	"github.com/talentdesk/expiry-engine/internal/api/respond"
	"github.com/talentdesk/expiry-engine/internal/notify"
	"github.com/talentdesk/expiry-engine/internal/refresh"
)

// TriggerCycle runs one full orchestration cycle.
// Per-employee failures are data in the summary, not transport errors, so a
// completed cycle always answers 200.
// @Summary Run one notification cycle
// @Description Evaluates every (document type, threshold) combination and dispatches due expiry alerts. Rejected with 409 while a cycle is already running.
// @Tags cycle
// @Produce json
// @Success 200 {object} notify.CycleSummary
// @Failure 409 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /cycle [post]
func (h *Handler) TriggerCycle(w http.ResponseWriter, r *http.Request) {
	summary, err := h.orch.Run(r.Context())
	if err != nil {
		if errors.Is(err, notify.ErrCycleRunning) {
			respond.WriteError(w, http.StatusConflict, "CYCLE_RUNNING",
				"A notification cycle is already in progress")
			return
		}
		respond.WriteError(w, http.StatusInternalServerError, "CYCLE_FAILED", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, summary)
}

// RefreshViews rebuilds every aggregate snapshot on demand.
// @Summary Refresh aggregate snapshots
// @Description Rebuilds all materialized dashboard views immediately instead of waiting for the scheduled tick.
// @Tags views
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} respond.ErrorResponse
// @Router /views/refresh [post]
func (h *Handler) RefreshViews(w http.ResponseWriter, r *http.Request) {
	if err := refresh.RefreshAll(r.Context(), h.pool, h.logger); err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "REFRESH_FAILED", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"refreshed": refresh.Views,
	})
}
