// Package handler exposes notifications and the incident-alert entry point
// over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hearth/internal/geo"
	"hearth/internal/notification/models"
	"hearth/internal/notification/service"
	"hearth/internal/platform/middleware"
	"hearth/pkg/domain"
	dErrors "hearth/pkg/domain-errors"
	"hearth/pkg/platform/httputil"
)

type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

func New(service *service.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	// POST-with-no-body is the listing shape mobile clients already use.
	r.Post("/notifications/get", h.list)
	r.Put("/notifications/{id}/read", h.markRead)
	r.Post("/incidents/alert", h.incidentAlert)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.service.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, r, "list notifications", err)
		return
	}
	if notifications == nil {
		notifications = []*models.Notification{}
	}
	httputil.WriteJSON(w, http.StatusOK, notifications)
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseNotificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.MarkRead(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		h.writeError(w, r, "mark notification read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type incidentAlertResponse struct {
	AlertedUsers int `json:"alertedUsers"`
}

func (h *Handler) incidentAlert(w http.ResponseWriter, r *http.Request) {
	var incident geo.Incident
	if err := json.NewDecoder(r.Body).Decode(&incident); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if incident.ImpactRadius <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "impactRadius must be positive"))
		return
	}

	alerted, err := h.service.IncidentAlert(r.Context(), incident)
	if err != nil {
		h.writeError(w, r, "incident alert", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, incidentAlertResponse{AlertedUsers: alerted})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), op+" failed",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
	}
	httputil.WriteError(w, err)
}
