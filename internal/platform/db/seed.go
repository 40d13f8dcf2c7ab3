package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"campusleave/internal/domain/auth"
	"campusleave/internal/platform/config"
)

type seedCategory struct {
	Name            string
	Description     string
	DaysPerYear     int
	RequiresMedCert bool
	ForTeaching     bool
	ForNonTeaching  bool
	ColorCode       string
}

var defaultCategories = []seedCategory{
	{Name: "Casual Leave", Description: "Short personal leave", DaysPerYear: 12, ForTeaching: true, ForNonTeaching: true, ColorCode: "#007bff"},
	{Name: "Sick Leave", Description: "Medical leave", DaysPerYear: 10, RequiresMedCert: true, ForTeaching: true, ForNonTeaching: true, ColorCode: "#dc3545"},
	{Name: "Earned Leave", Description: "Accumulated earned leave", DaysPerYear: 20, ForTeaching: true, ForNonTeaching: true, ColorCode: "#28a745"},
	{Name: "Maternity Leave", Description: "Maternity leave", DaysPerYear: 180, RequiresMedCert: true, ForTeaching: true, ForNonTeaching: true, ColorCode: "#e83e8c"},
	{Name: "Paternity Leave", Description: "Paternity leave", DaysPerYear: 15, ForTeaching: true, ForNonTeaching: true, ColorCode: "#17a2b8"},
	{Name: "Festival Leave", Description: "Festival and religious holidays", DaysPerYear: 5, ForTeaching: true, ForNonTeaching: true, ColorCode: "#fd7e14"},
	{Name: "Study Leave", Description: "Higher studies and examinations", DaysPerYear: 30, ForTeaching: true, ForNonTeaching: false, ColorCode: "#6f42c1"},
	{Name: "Emergency Leave", Description: "Unforeseen emergencies", DaysPerYear: 7, ForTeaching: true, ForNonTeaching: true, ColorCode: "#ffc107"},
}

func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if err := ensureCategories(ctx, pool); err != nil {
		return err
	}
	return ensureAdminUser(ctx, pool, cfg)
}

func ensureCategories(ctx context.Context, pool *pgxpool.Pool) error {
	for _, c := range defaultCategories {
		_, err := pool.Exec(ctx, `
      INSERT INTO leave_categories
        (name, description, days_per_year, requires_medical_certificate, for_teaching, for_non_teaching, color_code)
      VALUES ($1,$2,$3,$4,$5,$6,$7)
      ON CONFLICT (name) DO NOTHING
    `, c.Name, c.Description, c.DaysPerYear, c.RequiresMedCert, c.ForTeaching, c.ForNonTeaching, c.ColorCode)
		if err != nil {
			return err
		}
	}
	return nil
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if strings.TrimSpace(cfg.SeedAdminEmail) == "" || strings.TrimSpace(cfg.SeedAdminPassword) == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM people WHERE email = $1", cfg.SeedAdminEmail).Scan(&id)
	if err == nil {
		return nil
	}

	hash, err := auth.HashPassword(cfg.SeedAdminPassword)
	if err != nil {
		return err
	}

	return pool.QueryRow(ctx, `
    INSERT INTO people (employee_no, email, password_hash, first_name, last_name, staff_type, role)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, cfg.SeedAdminEmployee, cfg.SeedAdminEmail, hash, "System", "Administrator", "non_teaching", auth.RoleAdmin).Scan(&id)
}
