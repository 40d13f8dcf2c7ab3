package peoplehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"campusleave/internal/domain/audit"
	"campusleave/internal/domain/auth"
	"campusleave/internal/domain/people"
	"campusleave/internal/transport/http/api"
	"campusleave/internal/transport/http/middleware"
	"campusleave/internal/transport/http/shared"
)

type Handler struct {
	Service *people.Service
	Audit   *audit.Service
}

func NewHandler(service *people.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/people", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPeopleRead)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermPeopleRead)).Get("/{personID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermPeopleWrite)).Put("/{personID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermPeopleWrite)).Delete("/{personID}", h.handleDeactivate)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	filter := people.ListFilter{
		Search:    strings.TrimSpace(r.URL.Query().Get("search")),
		StaffType: strings.TrimSpace(r.URL.Query().Get("staffType")),
		Limit:     page.Limit,
		Offset:    page.Offset,
	}

	items, total, err := h.Service.List(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "people_list_failed", "failed to list people", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{
		"items":  items,
		"total":  total,
		"limit":  page.Limit,
		"offset": page.Offset,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	person, err := h.Service.Get(r.Context(), chi.URLParam(r, "personID"))
	if err != nil {
		if errors.Is(err, people.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "person not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "people_get_failed", "failed to load person", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, person, middleware.GetRequestID(r.Context()))
}

type updateProfileRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Department  string `json:"department"`
	Designation string `json:"designation"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	personID := chi.URLParam(r, "personID")

	current, err := h.Service.Get(r.Context(), personID)
	if err != nil {
		if errors.Is(err, people.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "person not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "people_get_failed", "failed to load person", middleware.GetRequestID(r.Context()))
		return
	}

	var payload updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("firstName", payload.FirstName, "first name is required")
	v.Required("lastName", payload.LastName, "last name is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	updated := current
	updated.FirstName = strings.TrimSpace(payload.FirstName)
	updated.LastName = strings.TrimSpace(payload.LastName)
	updated.Department = payload.Department
	updated.Designation = payload.Designation
	updated.Phone = payload.Phone
	updated.Address = payload.Address

	if err := h.Service.UpdateProfile(r.Context(), updated); err != nil {
		api.Fail(w, http.StatusInternalServerError, "people_update_failed", "failed to update person", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.PersonID, "people.update", "person", personID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), current, updated); err != nil {
		slog.Warn("audit people.update failed", "err", err)
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	personID := chi.URLParam(r, "personID")

	if personID == user.PersonID {
		api.Fail(w, http.StatusBadRequest, "self_deactivation", "cannot deactivate your own account", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.Deactivate(r.Context(), personID); err != nil {
		if errors.Is(err, people.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "person not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "people_deactivate_failed", "failed to deactivate person", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.PersonID, "people.deactivate", "person", personID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit people.deactivate failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "deactivated"}, middleware.GetRequestID(r.Context()))
}
