package handler

import (
	"errors"
	"net/http"

	"github.com/padwatch/padwatch-data/internal/api/respond"
	"github.com/padwatch/padwatch-data/internal/notify"
)

// GetMatchStats returns statistics for the most recent match run.
// @Summary Last match run stats
// @Description Returns counts, match rate, and the check-failure histogram of the most recent run.
// @Tags match
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} respond.ErrorResponse
// @Router /match/stats [get]
func (h *Handler) GetMatchStats(w http.ResponseWriter, r *http.Request) {
	result, ok := h.runner.Last()
	if !ok {
		respond.WriteError(w, http.StatusNotFound, "NO_RUNS", "No match run has completed yet")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"run_id":            result.Stats.RunID,
		"started_at":        result.Stats.StartedAt,
		"duration_ms":       result.Stats.Duration.Milliseconds(),
		"listings":          result.Stats.Listings,
		"alerts":            result.Stats.Alerts,
		"pairs_evaluated":   result.Stats.PairsEvaluated,
		"pairs_skipped":     result.Stats.PairsSkipped,
		"matched":           result.Stats.Matched,
		"match_rate":        result.Stats.MatchRate(),
		"invalid_listings":  result.Stats.InvalidListings,
		"invalid_alerts":    result.Stats.InvalidAlerts,
		"failures_by_check": result.Stats.FailuresByCheck,
		"recorded":          result.Recorded,
		"duplicates":        result.Duplicates,
	})
}

// TriggerMatchRun starts a match run over the current snapshot window.
// @Summary Trigger a match run
// @Description Runs the matching pipeline over recent listings and active alerts. Rejects overlapping runs.
// @Tags match
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /match/run [post]
func (h *Handler) TriggerMatchRun(w http.ResponseWriter, r *http.Request) {
	result, err := h.runner.Run(r.Context())
	if errors.Is(err, notify.ErrRunInProgress) {
		respond.WriteError(w, http.StatusConflict, "RUN_IN_PROGRESS", "A match run is already in progress")
		return
	}
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "RUN_FAILED", "Match run failed", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"run_id":     result.Stats.RunID,
		"summary":    result.Stats.Summary(),
		"recorded":   result.Recorded,
		"duplicates": result.Duplicates,
	})
}
