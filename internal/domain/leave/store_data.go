package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

func (s *Store) CategoryByID(ctx context.Context, id string) (Category, error) {
	var c Category
	err := s.db.QueryRow(ctx, `
    SELECT id, name, description, days_per_year, requires_medical_certificate,
           for_teaching, for_non_teaching, color_code, is_active, created_at
    FROM leave_categories
    WHERE id = $1
  `, id).Scan(&c.ID, &c.Name, &c.Description, &c.DaysPerYear, &c.RequiresMedicalCert,
		&c.ForTeaching, &c.ForNonTeaching, &c.ColorCode, &c.IsActive, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	if err != nil {
		return Category{}, err
	}
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context, activeOnly bool) ([]Category, error) {
	query := `
    SELECT id, name, description, days_per_year, requires_medical_certificate,
           for_teaching, for_non_teaching, color_code, is_active, created_at
    FROM leave_categories
  `
	if activeOnly {
		query += " WHERE is_active"
	}
	query += " ORDER BY name"

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.DaysPerYear, &c.RequiresMedicalCert,
			&c.ForTeaching, &c.ForNonTeaching, &c.ColorCode, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Store) CreateCategory(ctx context.Context, c Category) (string, error) {
	var id string
	err := s.db.QueryRow(ctx, `
    INSERT INTO leave_categories (name, description, days_per_year, requires_medical_certificate,
                                  for_teaching, for_non_teaching, color_code, is_active)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id
  `, c.Name, c.Description, c.DaysPerYear, c.RequiresMedicalCert,
		c.ForTeaching, c.ForNonTeaching, c.ColorCode, c.IsActive).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c Category) error {
	tag, err := s.db.Exec(ctx, `
    UPDATE leave_categories
    SET name = $1, description = $2, days_per_year = $3, requires_medical_certificate = $4,
        for_teaching = $5, for_non_teaching = $6, color_code = $7
    WHERE id = $8
  `, c.Name, c.Description, c.DaysPerYear, c.RequiresMedicalCert,
		c.ForTeaching, c.ForNonTeaching, c.ColorCode, c.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeactivateCategory(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, "UPDATE leave_categories SET is_active = FALSE WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) PersonStaffType(ctx context.Context, personID string) (string, bool, error) {
	var staffType string
	var active bool
	err := s.db.QueryRow(ctx, "SELECT staff_type, is_active FROM people WHERE id = $1", personID).Scan(&staffType, &active)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, ErrNotFound
	}
	if err != nil {
		return "", false, err
	}
	return staffType, active, nil
}

func (s *Store) HasConflict(ctx context.Context, personID string, start, end time.Time, excludeID string) (bool, error) {
	query := `
    SELECT EXISTS (
      SELECT 1
      FROM leave_applications
      WHERE person_id = $1
        AND status IN ($2,$3)
        AND start_date <= $4
        AND end_date >= $5
  `
	args := []any{personID, StatusPending, StatusApproved, end, start}
	if excludeID != "" {
		query += fmt.Sprintf(" AND id <> $%d", len(args)+1)
		args = append(args, excludeID)
	}
	query += ")"

	var conflict bool
	if err := s.db.QueryRow(ctx, query, args...).Scan(&conflict); err != nil {
		return false, err
	}
	return conflict, nil
}

func (s *Store) CreateApplication(ctx context.Context, app Application) (string, error) {
	var id string
	err := s.db.QueryRow(ctx, `
    INSERT INTO leave_applications (person_id, category_id, start_date, end_date, total_days,
                                    reason, contact_during_leave, emergency_contact,
                                    medical_certificate_provided, status, applied_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
    RETURNING id
  `, app.PersonID, app.CategoryID, app.StartDate, app.EndDate, app.TotalDays,
		app.Reason, app.ContactDuringLeave, app.EmergencyContact,
		app.MedicalCertProvided, app.Status, app.AppliedAt).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) ApplicationByID(ctx context.Context, id string) (Application, error) {
	var app Application
	var decidedBy, rejectionReason, comments *string
	err := s.db.QueryRow(ctx, `
    SELECT id, person_id, category_id, start_date, end_date, total_days, reason,
           contact_during_leave, emergency_contact, medical_certificate_provided,
           status, applied_at, decided_by, decided_at, rejection_reason, comments
    FROM leave_applications
    WHERE id = $1
  `, id).Scan(&app.ID, &app.PersonID, &app.CategoryID, &app.StartDate, &app.EndDate,
		&app.TotalDays, &app.Reason, &app.ContactDuringLeave, &app.EmergencyContact,
		&app.MedicalCertProvided, &app.Status, &app.AppliedAt,
		&decidedBy, &app.DecidedAt, &rejectionReason, &comments)
	if errors.Is(err, pgx.ErrNoRows) {
		return Application{}, ErrNotFound
	}
	if err != nil {
		return Application{}, err
	}
	if decidedBy != nil {
		app.DecidedBy = *decidedBy
	}
	if rejectionReason != nil {
		app.RejectionReason = *rejectionReason
	}
	if comments != nil {
		app.Comments = *comments
	}
	return app, nil
}

func (s *Store) SaveDecision(ctx context.Context, app Application) error {
	tag, err := s.db.Exec(ctx, `
    UPDATE leave_applications
    SET status = $1, decided_by = $2, decided_at = $3, comments = $4, rejection_reason = $5
    WHERE id = $6
  `, app.Status, app.DecidedBy, app.DecidedAt, app.Comments, nullable(app.RejectionReason), app.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) MarkCancelled(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, "UPDATE leave_applications SET status = $1 WHERE id = $2", StatusCancelled, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListApplications(ctx context.Context, f ApplicationFilter) ([]Application, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if f.PersonID != "" {
		where += fmt.Sprintf(" AND person_id = $%d", len(args)+1)
		args = append(args, f.PersonID)
	}
	if f.CategoryID != "" {
		where += fmt.Sprintf(" AND category_id = $%d", len(args)+1)
		args = append(args, f.CategoryID)
	}
	if f.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, f.Status)
	}
	if !f.From.IsZero() {
		where += fmt.Sprintf(" AND start_date >= $%d", len(args)+1)
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		where += fmt.Sprintf(" AND end_date <= $%d", len(args)+1)
		args = append(args, f.To)
	}

	var total int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(1) FROM leave_applications"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
    SELECT id, person_id, category_id, start_date, end_date, total_days, reason,
           contact_during_leave, emergency_contact, medical_certificate_provided,
           status, applied_at, decided_by, decided_at, rejection_reason, comments
    FROM leave_applications
  ` + where + " ORDER BY applied_at DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		var app Application
		var decidedBy, rejectionReason, comments *string
		if err := rows.Scan(&app.ID, &app.PersonID, &app.CategoryID, &app.StartDate, &app.EndDate,
			&app.TotalDays, &app.Reason, &app.ContactDuringLeave, &app.EmergencyContact,
			&app.MedicalCertProvided, &app.Status, &app.AppliedAt,
			&decidedBy, &app.DecidedAt, &rejectionReason, &comments); err != nil {
			return nil, 0, err
		}
		if decidedBy != nil {
			app.DecidedBy = *decidedBy
		}
		if rejectionReason != nil {
			app.RejectionReason = *rejectionReason
		}
		if comments != nil {
			app.Comments = *comments
		}
		apps = append(apps, app)
	}
	return apps, total, rows.Err()
}

func (s *Store) BalanceFor(ctx context.Context, personID, categoryID string, year int) (Balance, error) {
	var b Balance
	err := s.db.QueryRow(ctx, `
    SELECT id, person_id, category_id, year, allocated_days, used_days, pending_days
    FROM leave_balances
    WHERE person_id = $1 AND category_id = $2 AND year = $3
  `, personID, categoryID, year).Scan(&b.ID, &b.PersonID, &b.CategoryID, &b.Year,
		&b.Allocated, &b.Used, &b.Pending)
	if errors.Is(err, pgx.ErrNoRows) {
		return Balance{}, ErrNotFound
	}
	if err != nil {
		return Balance{}, err
	}
	return b, nil
}

func (s *Store) CreateBalance(ctx context.Context, b Balance) (string, error) {
	var id string
	err := s.db.QueryRow(ctx, `
    INSERT INTO leave_balances (person_id, category_id, year, allocated_days, used_days, pending_days)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, b.PersonID, b.CategoryID, b.Year, b.Allocated, b.Used, b.Pending).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) SaveBalance(ctx context.Context, b Balance) error {
	tag, err := s.db.Exec(ctx, `
    UPDATE leave_balances
    SET allocated_days = $1, used_days = $2, pending_days = $3, updated_at = now()
    WHERE id = $4
  `, b.Allocated, b.Used, b.Pending, b.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListBalances(ctx context.Context, personID string, year int) ([]Balance, error) {
	rows, err := s.db.Query(ctx, `
    SELECT id, person_id, category_id, year, allocated_days, used_days, pending_days
    FROM leave_balances
    WHERE person_id = $1 AND year = $2
    ORDER BY category_id
  `, personID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []Balance
	for rows.Next() {
		var b Balance
		if err := rows.Scan(&b.ID, &b.PersonID, &b.CategoryID, &b.Year,
			&b.Allocated, &b.Used, &b.Pending); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

func (s *Store) CalendarRows(ctx context.Context, windowStart, windowEnd time.Time, personID string, statuses []string) ([]CalendarRow, error) {
	query := `
    SELECT a.id, a.person_id, a.category_id, a.start_date, a.end_date, a.status,
           p.first_name || ' ' || p.last_name, c.name, c.color_code
    FROM leave_applications a
    JOIN people p ON a.person_id = p.id
    JOIN leave_categories c ON a.category_id = c.id
    WHERE a.start_date <= $1 AND a.end_date >= $2
  `
	args := []any{windowEnd, windowStart}
	if len(statuses) > 0 {
		query += fmt.Sprintf(" AND a.status = ANY($%d)", len(args)+1)
		args = append(args, statuses)
	}
	if personID != "" {
		query += fmt.Sprintf(" AND a.person_id = $%d", len(args)+1)
		args = append(args, personID)
	}
	query += " ORDER BY a.start_date"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CalendarRow
	for rows.Next() {
		var row CalendarRow
		if err := rows.Scan(&row.Application.ID, &row.Application.PersonID, &row.Application.CategoryID,
			&row.Application.StartDate, &row.Application.EndDate, &row.Application.Status,
			&row.PersonName, &row.CategoryName, &row.ColorCode); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
