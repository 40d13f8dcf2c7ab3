package reportshandler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jung-kurt/gofpdf"

	"campusleave/internal/domain/auth"
	"campusleave/internal/domain/reports"
	"campusleave/internal/transport/http/api"
	"campusleave/internal/transport/http/middleware"
)

type Handler struct {
	Service *reports.Service
}

func NewHandler(service *reports.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/me", h.handleMySummary)
		r.With(middleware.RequirePermission(auth.PermReportsRead)).Get("/dashboard", h.handleDashboard)
		r.With(middleware.RequirePermission(auth.PermReportsRead)).Get("/people/{personID}", h.handlePersonSummary)
		r.With(middleware.RequirePermission(auth.PermReportsRead)).Get("/applications", h.handleApplications)
		r.With(middleware.RequirePermission(auth.PermReportsRead)).Get("/applications/export.csv", h.handleExportCSV)
		r.With(middleware.RequirePermission(auth.PermReportsRead)).Get("/applications/export.pdf", h.handleExportPDF)
	})
}

func (h *Handler) handleMySummary(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	summary, err := h.Service.PersonSummary(r.Context(), user.PersonID, yearParam(r))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build leave summary", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePersonSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.PersonSummary(r.Context(), chi.URLParam(r, "personID"), yearParam(r))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build leave summary", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.Service.Dashboard(r.Context(), yearParam(r))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build dashboard", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, dash, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApplications(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.Applications(r.Context(), reportFilter(r))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build applications report", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, rows, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	filter := reportFilter(r)
	rows, err := h.Service.Applications(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build applications report", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="leave-applications-%d.csv"`, filter.Year))

	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"Employee No", "Name", "Department", "Category", "Start Date", "End Date", "Working Days", "Status", "Applied On"})
	for _, row := range rows {
		_ = writer.Write([]string{
			row.EmployeeNo,
			row.PersonName,
			row.Department,
			row.CategoryName,
			row.StartDate,
			row.EndDate,
			strconv.Itoa(row.TotalDays),
			row.Status,
			row.AppliedAt,
		})
	}
	writer.Flush()
}

func (h *Handler) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	filter := reportFilter(r)
	rows, err := h.Service.Applications(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build applications report", middleware.GetRequestID(r.Context()))
		return
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, fmt.Sprintf("Leave Applications %d", filter.Year))
	pdf.Ln(12)

	headers := []string{"Employee", "Name", "Department", "Category", "Start", "End", "Days", "Status"}
	widths := []float64{25, 50, 40, 40, 25, 25, 15, 25}
	pdf.SetFont("Helvetica", "B", 9)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 7, header, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range rows {
		cells := []string{
			row.EmployeeNo,
			row.PersonName,
			row.Department,
			row.CategoryName,
			row.StartDate,
			row.EndDate,
			strconv.Itoa(row.TotalDays),
			row.Status,
		}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="leave-applications-%d.pdf"`, filter.Year))
	if err := pdf.Output(w); err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to render pdf", middleware.GetRequestID(r.Context()))
	}
}

func yearParam(r *http.Request) int {
	year := time.Now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			year = parsed
		}
	}
	return year
}

func reportFilter(r *http.Request) reports.ApplicationReportFilter {
	return reports.ApplicationReportFilter{
		Year:       yearParam(r),
		Status:     strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))),
		CategoryID: strings.TrimSpace(r.URL.Query().Get("categoryId")),
		Department: strings.TrimSpace(r.URL.Query().Get("department")),
	}
}
