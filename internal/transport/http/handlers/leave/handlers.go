package leavehandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"campusleave/internal/domain/audit"
	"campusleave/internal/domain/auth"
	"campusleave/internal/domain/leave"
	"campusleave/internal/domain/notifications"
	"campusleave/internal/platform/jobs"
	"campusleave/internal/transport/http/api"
	"campusleave/internal/transport/http/middleware"
	"campusleave/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
	Notify  *notifications.Service
	Audit   *audit.Service
	Jobs    *jobs.Service
}

func NewHandler(service *leave.Service, notify *notifications.Service, auditSvc *audit.Service, jobsSvc *jobs.Service) *Handler {
	return &Handler{Service: service, Notify: notify, Audit: auditSvc, Jobs: jobsSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/categories", h.handleListCategories)
		r.With(middleware.RequirePermission(auth.PermCategoriesWrite)).Post("/categories", h.handleCreateCategory)
		r.With(middleware.RequirePermission(auth.PermCategoriesWrite)).Put("/categories/{categoryID}", h.handleUpdateCategory)
		r.With(middleware.RequirePermission(auth.PermCategoriesWrite)).Delete("/categories/{categoryID}", h.handleDeactivateCategory)

		r.With(middleware.RequirePermission(auth.PermLeaveWrite)).Post("/applications", h.handleSubmit)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/applications", h.handleListApplications)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/applications/{applicationID}", h.handleGetApplication)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove)).Post("/applications/{applicationID}/decision", h.handleDecide)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite)).Post("/applications/{applicationID}/cancel", h.handleCancel)

		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/balances", h.handleListBalances)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/calendar", h.handleCalendar)
		r.With(middleware.RequirePermission(auth.PermAllocationsRun)).Post("/allocations/run", h.handleRunAllocations)
	})
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") == ""
	categories, err := h.Service.ListCategories(r.Context(), activeOnly)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "categories_failed", "failed to list leave categories", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, categories, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload leave.Category
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	id, err := h.Service.CreateCategory(r.Context(), payload)
	if err != nil {
		h.writeServiceError(w, r, err, "category_create_failed", "failed to create leave category")
		return
	}

	if err := h.Audit.Record(r.Context(), user.PersonID, "leave.category.create", "leave_category", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit leave.category.create failed", "err", err)
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	categoryID := chi.URLParam(r, "categoryID")

	current, err := h.Service.Category(r.Context(), categoryID)
	if err != nil {
		h.writeServiceError(w, r, err, "category_update_failed", "failed to load leave category")
		return
	}

	var payload leave.Category
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	payload.ID = categoryID

	if err := h.Service.UpdateCategory(r.Context(), payload); err != nil {
		h.writeServiceError(w, r, err, "category_update_failed", "failed to update leave category")
		return
	}

	if err := h.Audit.Record(r.Context(), user.PersonID, "leave.category.update", "leave_category", categoryID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), current, payload); err != nil {
		slog.Warn("audit leave.category.update failed", "err", err)
	}
	api.Success(w, payload, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeactivateCategory(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	categoryID := chi.URLParam(r, "categoryID")

	if err := h.Service.DeactivateCategory(r.Context(), categoryID); err != nil {
		h.writeServiceError(w, r, err, "category_deactivate_failed", "failed to deactivate leave category")
		return
	}

	if err := h.Audit.Record(r.Context(), user.PersonID, "leave.category.deactivate", "leave_category", categoryID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit leave.category.deactivate failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "deactivated"}, middleware.GetRequestID(r.Context()))
}

type submitRequest struct {
	CategoryID          string `json:"categoryId"`
	StartDate           string `json:"startDate"`
	EndDate             string `json:"endDate"`
	Reason              string `json:"reason"`
	ContactDuringLeave  string `json:"contactDuringLeave"`
	EmergencyContact    string `json:"emergencyContact"`
	MedicalCertProvided bool   `json:"medicalCertificateProvided"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload submitRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("categoryId", payload.CategoryID, "leave category is required")
	v.Required("reason", payload.Reason, "reason is required")
	start, startOK := v.Date("startDate", payload.StartDate)
	end, endOK := v.Date("endDate", payload.EndDate)
	if startOK && endOK {
		v.DateOrder("startDate", start, "endDate", end)
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	app, err := h.Service.Submit(r.Context(), user.PersonID, leave.SubmitInput{
		CategoryID:          payload.CategoryID,
		StartDate:           start,
		EndDate:             end,
		Reason:              payload.Reason,
		ContactDuringLeave:  payload.ContactDuringLeave,
		EmergencyContact:    payload.EmergencyContact,
		MedicalCertProvided: payload.MedicalCertProvided,
	})
	if err != nil {
		h.writeServiceError(w, r, err, "leave_submit_failed", "failed to submit leave application")
		return
	}

	if err := h.Audit.Record(r.Context(), user.PersonID, "leave.application.submit", "leave_application", app.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, map[string]any{
		"categoryId": app.CategoryID,
		"startDate":  app.StartDate.Format("2006-01-02"),
		"endDate":    app.EndDate.Format("2006-01-02"),
		"totalDays":  app.TotalDays,
	}); err != nil {
		slog.Warn("audit leave.application.submit failed", "err", err)
	}

	if h.Notify != nil {
		if err := h.Notify.Notify(r.Context(), user.PersonID, notifications.TypeLeaveSubmitted,
			"Leave application submitted",
			fmt.Sprintf("Your leave application for %d working day(s) is awaiting approval.", app.TotalDays)); err != nil {
			slog.Warn("notify leave submit failed", "err", err)
		}
	}

	api.Created(w, app, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListApplications(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)

	filter := leave.ApplicationFilter{
		CategoryID: strings.TrimSpace(r.URL.Query().Get("categoryId")),
		Status:     strings.TrimSpace(r.URL.Query().Get("status")),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		if parsed, err := shared.ParseDate(raw); err == nil {
			filter.From = parsed
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if parsed, err := shared.ParseDate(raw); err == nil {
			filter.To = parsed
		}
	}

	// Staff see their own applications; admins may filter by person.
	if user.Role == auth.RoleAdmin {
		filter.PersonID = strings.TrimSpace(r.URL.Query().Get("personId"))
	} else {
		filter.PersonID = user.PersonID
	}

	items, total, err := h.Service.ListApplications(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_list_failed", "failed to list leave applications", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{
		"items":  items,
		"total":  total,
		"limit":  page.Limit,
		"offset": page.Offset,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	app, err := h.Service.Application(r.Context(), chi.URLParam(r, "applicationID"))
	if err != nil {
		h.writeServiceError(w, r, err, "leave_get_failed", "failed to load leave application")
		return
	}
	if user.Role != auth.RoleAdmin && app.PersonID != user.PersonID {
		api.Fail(w, http.StatusForbidden, "forbidden", "not your application", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, app, middleware.GetRequestID(r.Context()))
}

type decideRequest struct {
	Decision        string `json:"decision"`
	Comments        string `json:"comments"`
	RejectionReason string `json:"rejectionReason"`
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	applicationID := chi.URLParam(r, "applicationID")

	var payload decideRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	result, err := h.Service.Decide(r.Context(), applicationID, user.PersonID, leave.DecideInput{
		Decision:        strings.ToLower(strings.TrimSpace(payload.Decision)),
		Comments:        payload.Comments,
		RejectionReason: payload.RejectionReason,
	})
	if err != nil {
		h.writeServiceError(w, r, err, "leave_decide_failed", "failed to record decision")
		return
	}
	app := result.Application

	if err := h.Audit.Record(r.Context(), user.PersonID, "leave.application."+app.Status, "leave_application", app.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r),
		map[string]string{"status": result.OldStatus},
		map[string]string{"status": app.Status}); err != nil {
		slog.Warn("audit leave decision failed", "err", err)
	}

	if h.Notify != nil {
		ntype := notifications.TypeLeaveApproved
		title := "Leave application approved"
		body := fmt.Sprintf("Your leave from %s to %s has been approved.", app.StartDate.Format("2006-01-02"), app.EndDate.Format("2006-01-02"))
		if app.Status == leave.StatusRejected {
			ntype = notifications.TypeLeaveRejected
			title = "Leave application rejected"
			body = "Your leave application was rejected: " + app.RejectionReason
		}
		if err := h.Notify.Notify(r.Context(), app.PersonID, ntype, title, body); err != nil {
			slog.Warn("notify leave decision failed", "err", err)
		}
	}

	api.Success(w, app, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	applicationID := chi.URLParam(r, "applicationID")

	app, err := h.Service.Cancel(r.Context(), applicationID, user.PersonID)
	if err != nil {
		h.writeServiceError(w, r, err, "leave_cancel_failed", "failed to cancel leave application")
		return
	}

	if err := h.Audit.Record(r.Context(), user.PersonID, "leave.application.cancel", "leave_application", app.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit leave.application.cancel failed", "err", err)
	}

	if h.Notify != nil {
		if err := h.Notify.Notify(r.Context(), app.PersonID, notifications.TypeLeaveCancelled,
			"Leave application cancelled",
			fmt.Sprintf("Your leave from %s to %s has been cancelled.", app.StartDate.Format("2006-01-02"), app.EndDate.Format("2006-01-02"))); err != nil {
			slog.Warn("notify leave cancel failed", "err", err)
		}
	}

	api.Success(w, app, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListBalances(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	year := time.Now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			year = parsed
		}
	}

	personID := user.PersonID
	if user.Role == auth.RoleAdmin {
		if requested := strings.TrimSpace(r.URL.Query().Get("personId")); requested != "" {
			personID = requested
		}
	}

	balances, err := h.Service.Balances(r.Context(), personID, year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "balances_failed", "failed to list leave balances", middleware.GetRequestID(r.Context()))
		return
	}

	type balanceView struct {
		leave.Balance
		Available int `json:"availableDays"`
	}
	views := make([]balanceView, 0, len(balances))
	for _, b := range balances {
		views = append(views, balanceView{Balance: b, Available: leave.Available(b)})
	}
	api.Success(w, map[string]any{"year": year, "balances": views}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	now := time.Now()
	year := now.Year()
	month := now.Month()
	if raw := r.URL.Query().Get("year"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			year = parsed
		}
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 1 && parsed <= 12 {
			month = time.Month(parsed)
		}
	}

	personID := strings.TrimSpace(r.URL.Query().Get("personId"))
	if user.Role != auth.RoleAdmin {
		if personID != "" && personID != user.PersonID {
			api.Fail(w, http.StatusForbidden, "forbidden", "cannot view another person's calendar filter", middleware.GetRequestID(r.Context()))
			return
		}
		// Staff calendars never include other people's applications.
		personID = user.PersonID
	}

	statuses := []string{leave.StatusPending, leave.StatusApproved}
	if raw := r.URL.Query().Get("status"); raw != "" {
		statuses = []string{strings.ToLower(strings.TrimSpace(raw))}
	}

	entries, err := h.Service.Calendar(r.Context(), year, month, personID, statuses)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "calendar_failed", "failed to build leave calendar", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{
		"year":    year,
		"month":   int(month),
		"entries": entries,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRunAllocations(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	year := time.Now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			year = parsed
		}
	}

	summary, err := h.Jobs.RunNow(r.Context(), jobs.JobAnnualAllocation, func(ctx context.Context) (any, error) {
		return leave.ApplyAllocations(ctx, h.Jobs.DB, year)
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "allocation_failed", "failed to run annual allocation", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.PersonID, "leave.allocations.run", "leave_balance", "", middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, summary); err != nil {
		slog.Warn("audit leave.allocations.run failed", "err", err)
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

// writeServiceError maps domain errors onto transport failures; anything
// unrecognised is a 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())

	var vErr *leave.ValidationError
	switch {
	case errors.As(err, &vErr):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: vErr.Field, Reason: vErr.Reason}})
	case errors.Is(err, leave.ErrConflict):
		api.Fail(w, http.StatusConflict, "leave_conflict", "an overlapping leave application already exists", requestID)
	case errors.Is(err, leave.ErrAlreadyProcessed):
		api.Fail(w, http.StatusConflict, "already_processed", "application has already been processed", requestID)
	case errors.Is(err, leave.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "operation not permitted", requestID)
	case errors.Is(err, leave.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "resource not found", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
