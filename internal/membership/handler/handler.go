// Package handler exposes the membership-request workflow over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hearth/internal/membership/models"
	"hearth/internal/membership/service"
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

// Register mounts the membership-request routes. Route names follow the
// action-style shape clients already depend on.
func (h *Handler) Register(r chi.Router) {
	r.Route("/membership-requests", func(r chi.Router) {
		r.Post("/send-invitation", h.sendInvitation)
		r.Post("/send-join-request", h.sendJoinRequest)
		r.Post("/accept-join-request", h.acceptJoinRequest)
		r.Post("/accept-invitation-request", h.acceptInvitation)
		r.Post("/decline", h.decline)
		r.Post("/cancel", h.cancel)
		r.Get("/received-invitations", h.receivedInvitations)
		r.Get("/received-join-requests", h.receivedJoinRequests)
		r.Get("/accepted-join-requests", h.acceptedJoinRequests)
		r.Get("/sent-invitations", h.sentInvitations)
	})
}

type sendInvitationRequest struct {
	Email string `json:"email"`
}

func (h *Handler) sendInvitation(w http.ResponseWriter, r *http.Request) {
	var req sendInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "email is required"))
		return
	}
	request, err := h.service.SendInvitation(r.Context(), middleware.GetUserID(r.Context()), req.Email)
	if err != nil {
		h.writeError(w, r, "send invitation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, request)
}

type sendJoinRequestRequest struct {
	HouseholdID string `json:"householdId"`
}

func (h *Handler) sendJoinRequest(w http.ResponseWriter, r *http.Request) {
	var req sendJoinRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	householdID, err := domain.ParseHouseholdID(req.HouseholdID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	request, err := h.service.SendJoinRequest(r.Context(), middleware.GetUserID(r.Context()), householdID)
	if err != nil {
		h.writeError(w, r, "send join request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, request)
}

func (h *Handler) acceptJoinRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "accept join request", h.service.AcceptJoinRequest)
}

func (h *Handler) acceptInvitation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "accept invitation", h.service.AcceptInvitation)
}

func (h *Handler) decline(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "decline request", h.service.DeclineRequest)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "cancel request", h.service.CancelRequest)
}

func (h *Handler) receivedInvitations(w http.ResponseWriter, r *http.Request) {
	h.listing(w, r, "list received invitations", h.service.ReceivedInvitations)
}

func (h *Handler) receivedJoinRequests(w http.ResponseWriter, r *http.Request) {
	h.listing(w, r, "list received join requests", h.service.ReceivedJoinRequests)
}

func (h *Handler) acceptedJoinRequests(w http.ResponseWriter, r *http.Request) {
	h.listing(w, r, "list accepted join requests", h.service.AcceptedJoinRequests)
}

func (h *Handler) sentInvitations(w http.ResponseWriter, r *http.Request) {
	h.listing(w, r, "list sent invitations", h.service.SentInvitations)
}

type requestIDRequest struct {
	RequestID string `json:"requestId"`
}

type transitionFunc func(ctx context.Context, callerID domain.UserID, requestID domain.RequestID) error

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op string, fn transitionFunc) {
	var req requestIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	requestID, err := domain.ParseRequestID(req.RequestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := fn(r.Context(), middleware.GetUserID(r.Context()), requestID); err != nil {
		h.writeError(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type listingFunc func(ctx context.Context, callerID domain.UserID) ([]*models.Request, error)

func (h *Handler) listing(w http.ResponseWriter, r *http.Request, op string, fn listingFunc) {
	requests, err := fn(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	if requests == nil {
		requests = []*models.Request{}
	}
	httputil.WriteJSON(w, http.StatusOK, requests)
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
