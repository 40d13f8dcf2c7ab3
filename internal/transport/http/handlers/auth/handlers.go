package authhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"campusleave/internal/domain/audit"
	"campusleave/internal/domain/auth"
	"campusleave/internal/domain/leave"
	"campusleave/internal/domain/people"
	"campusleave/internal/transport/http/api"
	"campusleave/internal/transport/http/middleware"
	"campusleave/internal/transport/http/shared"
)

type Handler struct {
	People          *people.Service
	Leave           *leave.Service
	Audit           *audit.Service
	Secret          string
	TokenTTL        time.Duration
	AllowSelfSignup bool
}

func NewHandler(peopleSvc *people.Service, leaveSvc *leave.Service, auditSvc *audit.Service, secret string, tokenTTL time.Duration, allowSelfSignup bool) *Handler {
	return &Handler{
		People:          peopleSvc,
		Leave:           leaveSvc,
		Audit:           auditSvc,
		Secret:          secret,
		TokenTTL:        tokenTTL,
		AllowSelfSignup: allowSelfSignup,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.handleLogin)
		r.Post("/logout", h.handleLogout)
		r.Post("/register", h.handleRegister)
		r.Get("/me", h.handleMe)
		r.Post("/change-password", h.handleChangePassword)
	})
}

type loginRequest struct {
	EmployeeNo string `json:"employeeNo"`
	Password   string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	person, err := h.People.Authenticate(r.Context(), payload.EmployeeNo, payload.Password)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
		return
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{PersonID: person.ID, Role: person.Role}, h.TokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), person.ID, "auth.login", "person", person.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit auth.login failed", "err", err)
	}

	api.Success(w, map[string]any{
		"token": token,
		"person": map[string]string{
			"id":         person.ID,
			"employeeNo": person.EmployeeNo,
			"name":       person.FullName(),
			"role":       person.Role,
			"staffType":  person.StaffType,
		},
	}, middleware.GetRequestID(r.Context()))
}

type registerRequest struct {
	EmployeeNo  string `json:"employeeNo"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Department  string `json:"department"`
	Designation string `json:"designation"`
	StaffType   string `json:"staffType"`
	Role        string `json:"role"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

// handleRegister creates a staff account and seeds the current year's leave
// balances for it. Admins may register anyone; self-signup is gated by
// configuration and never grants the admin role.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	actor, actorPresent := middleware.GetUser(r.Context())
	isAdmin := actorPresent && actor.Role == auth.RoleAdmin
	if !isAdmin && !h.AllowSelfSignup {
		api.Fail(w, http.StatusForbidden, "forbidden", "registration is restricted to administrators", middleware.GetRequestID(r.Context()))
		return
	}

	var payload registerRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("employeeNo", payload.EmployeeNo, "employee number is required")
	v.Required("email", payload.Email, "email is required")
	v.Required("firstName", payload.FirstName, "first name is required")
	v.Required("lastName", payload.LastName, "last name is required")
	if len(payload.Password) < 8 {
		v.Add("password", "must be at least 8 characters")
	}
	v.Enum("staffType", payload.StaffType, []string{leave.StaffTeaching, leave.StaffNonTeaching}, "must be teaching or non_teaching")
	v.Required("staffType", payload.StaffType, "staff type is required")
	if payload.Role != "" {
		v.Enum("role", payload.Role, []string{auth.RoleStaff, auth.RoleAdmin}, "must be staff or admin")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	role := payload.Role
	if !isAdmin {
		role = auth.RoleStaff
	}

	person, err := h.People.Register(r.Context(), people.RegisterInput{
		EmployeeNo:  payload.EmployeeNo,
		Email:       payload.Email,
		Password:    payload.Password,
		FirstName:   payload.FirstName,
		LastName:    payload.LastName,
		Department:  payload.Department,
		Designation: payload.Designation,
		StaffType:   payload.StaffType,
		Role:        role,
		Phone:       payload.Phone,
		Address:     payload.Address,
	})
	if err != nil {
		if errors.Is(err, people.ErrDuplicate) {
			api.Fail(w, http.StatusConflict, "duplicate_person", "employee number or email already registered", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "register_failed", "failed to register person", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Leave.InitBalances(r.Context(), person.ID, time.Now().Year()); err != nil {
		slog.Warn("initial balance seed failed", "personId", person.ID, "err", err)
	}

	actorID := person.ID
	if actorPresent {
		actorID = actor.PersonID
	}
	if err := h.Audit.Record(r.Context(), actorID, "people.register", "person", person.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, map[string]string{
		"employeeNo": person.EmployeeNo,
		"staffType":  person.StaffType,
		"role":       person.Role,
	}); err != nil {
		slog.Warn("audit people.register failed", "err", err)
	}

	api.Created(w, person, middleware.GetRequestID(r.Context()))
}

// handleLogout audits the sign-out; tokens are stateless, so the client
// discards its copy and the server records the event.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.PersonID, "auth.logout", "person", user.PersonID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit auth.logout failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	person, err := h.People.Get(r.Context(), user.PersonID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "person not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, person, middleware.GetRequestID(r.Context()))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if len(payload.NewPassword) < 8 {
		api.Fail(w, http.StatusBadRequest, "weak_password", "new password must be at least 8 characters", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.People.ChangePassword(r.Context(), user.PersonID, payload.CurrentPassword, payload.NewPassword); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "current password is incorrect", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.PersonID, "people.password.change", "person", user.PersonID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit people.password.change failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "password_changed"}, middleware.GetRequestID(r.Context()))
}
