package reports

import (
	"context"
	"fmt"

	"campusleave/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) StaffCounts(ctx context.Context) (total int, byType map[string]int, err error) {
	rows, err := s.DB.Query(ctx,
		"SELECT staff_type, COUNT(1) FROM people WHERE is_active GROUP BY staff_type ORDER BY staff_type",
	)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	byType = map[string]int{}
	for rows.Next() {
		var staffType string
		var count int
		if err := rows.Scan(&staffType, &count); err != nil {
			return 0, nil, err
		}
		byType[staffType] = count
		total += count
	}
	return total, byType, rows.Err()
}

func (s *Store) ApplicationCounts(ctx context.Context, year int) (map[string]int, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT status, COUNT(1)
    FROM leave_applications
    WHERE EXTRACT(YEAR FROM start_date) = $1
    GROUP BY status
  `, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (s *Store) DaysTaken(ctx context.Context, year int) (int, error) {
	var total int
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(total_days), 0)
    FROM leave_applications
    WHERE status = 'approved' AND EXTRACT(YEAR FROM start_date) = $1
  `, year).Scan(&total)
	return total, err
}

func (s *Store) ApplicationRows(ctx context.Context, filter ApplicationReportFilter) ([]ApplicationRow, error) {
	query := `
    SELECT p.employee_no, p.first_name || ' ' || p.last_name, p.department,
           c.name, to_char(a.start_date, 'YYYY-MM-DD'), to_char(a.end_date, 'YYYY-MM-DD'),
           a.total_days, a.status, to_char(a.applied_at, 'YYYY-MM-DD')
    FROM leave_applications a
    JOIN people p ON p.id = a.person_id
    JOIN leave_categories c ON c.id = a.category_id
    WHERE EXTRACT(YEAR FROM a.start_date) = $1
  `
	args := []any{filter.Year}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND a.status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}
	if filter.CategoryID != "" {
		query += fmt.Sprintf(" AND a.category_id = $%d", len(args)+1)
		args = append(args, filter.CategoryID)
	}
	if filter.Department != "" {
		query += fmt.Sprintf(" AND p.department = $%d", len(args)+1)
		args = append(args, filter.Department)
	}
	query += " ORDER BY a.applied_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ApplicationRow
	for rows.Next() {
		var row ApplicationRow
		if err := rows.Scan(&row.EmployeeNo, &row.PersonName, &row.Department, &row.CategoryName,
			&row.StartDate, &row.EndDate, &row.TotalDays, &row.Status, &row.AppliedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
