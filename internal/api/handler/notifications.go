package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/padwatch/padwatch-data/internal/api/respond"
	"github.com/padwatch/padwatch-data/internal/ledger"
)

const defaultPendingLimit = 100

// ListPendingNotifications returns pending ledger rows for an external
// notifier.
// @Summary List pending notifications
// @Description Returns notifications awaiting delivery, oldest first.
// @Tags notifications
// @Produce json
// @Param limit query int false "Max rows" default(100)
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} respond.ErrorResponse
// @Router /notifications/pending [get]
func (h *Handler) ListPendingNotifications(w http.ResponseWriter, r *http.Request) {
	limit := defaultPendingLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := h.ledger.ListPending(r.Context(), limit)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "LIST_FAILED", "Failed to list pending notifications", err.Error())
		return
	}
	if records == nil {
		records = []ledger.Record{}
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"count":         len(records),
		"notifications": records,
	})
}

type statusUpdateRequest struct {
	Status string `json:"status"`
}

// UpdateNotificationStatus records a delivery status reported by the
// notifier (sent, failed, delivered, bounced).
// @Summary Update delivery status
// @Description Delivery callback from the external notifier. Out-of-order transitions are applied and logged, not rejected.
// @Tags notifications
// @Accept json
// @Produce json
// @Param id path int true "Notification ID"
// @Param body body statusUpdateRequest true "New status"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /notifications/{id}/status [post]
func (h *Handler) UpdateNotificationStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_ID", "Notification id must be an integer")
		return
	}

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_BODY", "Request body must be JSON with a status field")
		return
	}
	if !ledger.KnownStatus(req.Status) {
		respond.WriteError(w, http.StatusBadRequest, "BAD_STATUS", "Unknown notification status "+req.Status)
		return
	}

	if err := h.ledger.UpdateStatus(r.Context(), id, req.Status); err != nil {
		respond.WriteErrorDetail(w, http.StatusNotFound, "UPDATE_FAILED", "Failed to update notification status", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"id":     id,
		"status": req.Status,
	})
}
