// Package handler exposes the membership directory over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hearth/internal/household/service"
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

// Register mounts the household routes. The router is expected to already
// carry the auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Route("/households", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.get)
		r.Delete("/", h.delete)
		r.Post("/leave", h.leave)
		r.Post("/owner", h.changeOwner)
		r.Post("/members", h.addMember)
		r.Delete("/members/{userId}", h.removeMember)
		r.Route("/members/unregistered", func(r chi.Router) {
			r.Get("/", h.listUnregistered)
			r.Post("/", h.addUnregistered)
			r.Put("/{id}", h.editUnregistered)
			r.Delete("/{id}", h.removeUnregistered)
		})
	})
}

type createRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	household, err := h.service.CreateHousehold(r.Context(), middleware.GetUserID(r.Context()), req.Name, req.Address)
	if err != nil {
		h.writeError(w, r, "create household", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, household)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	household, err := h.service.GetHousehold(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, r, "get household", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, household)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteHousehold(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		h.writeError(w, r, "delete household", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) leave(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Leave(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		h.writeError(w, r, "leave household", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type userIDRequest struct {
	UserID string `json:"userId"`
}

func (h *Handler) changeOwner(w http.ResponseWriter, r *http.Request) {
	newOwnerID, ok := h.decodeUserID(w, r)
	if !ok {
		return
	}
	if err := h.service.ChangeOwner(r.Context(), middleware.GetUserID(r.Context()), newOwnerID); err != nil {
		h.writeError(w, r, "change owner", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.decodeUserID(w, r)
	if !ok {
		return
	}
	if err := h.service.AddMember(r.Context(), middleware.GetUserID(r.Context()), userID); err != nil {
		h.writeError(w, r, "add member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	userID, err := domain.ParseUserID(chi.URLParam(r, "userId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.RemoveUser(r.Context(), middleware.GetUserID(r.Context()), userID); err != nil {
		h.writeError(w, r, "remove member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type unregisteredRequest struct {
	FullName string `json:"fullName"`
}

func (h *Handler) listUnregistered(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListUnregisteredMembers(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, r, "list unregistered members", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, members)
}

func (h *Handler) addUnregistered(w http.ResponseWriter, r *http.Request) {
	var req unregisteredRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	member, err := h.service.AddUnregisteredMember(r.Context(), middleware.GetUserID(r.Context()), req.FullName)
	if err != nil {
		h.writeError(w, r, "add unregistered member", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, member)
}

func (h *Handler) editUnregistered(w http.ResponseWriter, r *http.Request) {
	memberID, err := domain.ParseMemberID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req unregisteredRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.service.EditUnregisteredMember(r.Context(), middleware.GetUserID(r.Context()), memberID, req.FullName); err != nil {
		h.writeError(w, r, "edit unregistered member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeUnregistered(w http.ResponseWriter, r *http.Request) {
	memberID, err := domain.ParseMemberID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.RemoveUnregisteredMember(r.Context(), middleware.GetUserID(r.Context()), memberID); err != nil {
		h.writeError(w, r, "remove unregistered member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeUserID(w http.ResponseWriter, r *http.Request) (domain.UserID, bool) {
	var req userIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return domain.UserID{}, false
	}
	userID, err := domain.ParseUserID(req.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return domain.UserID{}, false
	}
	return userID, true
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
