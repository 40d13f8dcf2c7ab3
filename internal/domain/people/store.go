package people

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"campusleave/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const personColumns = `id, employee_no, email, first_name, last_name, department,
  designation, staff_type, role, phone, address, date_joined, is_active, created_at`

func (s *Store) Create(ctx context.Context, p Person, passwordHash string) (string, error) {
	var exists bool
	if err := s.DB.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM people WHERE employee_no = $1 OR email = $2)",
		p.EmployeeNo, p.Email).Scan(&exists); err != nil {
		return "", err
	}
	if exists {
		return "", ErrDuplicate
	}

	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO people (employee_no, email, password_hash, first_name, last_name,
                        department, designation, staff_type, role, phone, address, date_joined)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
    RETURNING id
  `, p.EmployeeNo, p.Email, passwordHash, p.FirstName, p.LastName,
		p.Department, p.Designation, p.StaffType, p.Role, p.Phone, p.Address, p.DateJoined).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) ByID(ctx context.Context, id string) (Person, error) {
	var p Person
	err := s.DB.QueryRow(ctx, "SELECT "+personColumns+" FROM people WHERE id = $1", id).
		Scan(&p.ID, &p.EmployeeNo, &p.Email, &p.FirstName, &p.LastName, &p.Department,
			&p.Designation, &p.StaffType, &p.Role, &p.Phone, &p.Address, &p.DateJoined,
			&p.IsActive, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Person{}, ErrNotFound
	}
	if err != nil {
		return Person{}, err
	}
	return p, nil
}

func (s *Store) ByEmployeeNo(ctx context.Context, employeeNo string) (Person, string, error) {
	var p Person
	var hash string
	err := s.DB.QueryRow(ctx,
		"SELECT "+personColumns+", password_hash FROM people WHERE employee_no = $1", employeeNo).
		Scan(&p.ID, &p.EmployeeNo, &p.Email, &p.FirstName, &p.LastName, &p.Department,
			&p.Designation, &p.StaffType, &p.Role, &p.Phone, &p.Address, &p.DateJoined,
			&p.IsActive, &p.CreatedAt, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return Person{}, "", ErrNotFound
	}
	if err != nil {
		return Person{}, "", err
	}
	return p, hash, nil
}

func (s *Store) List(ctx context.Context, f ListFilter) ([]Person, int, error) {
	where := " WHERE is_active"
	args := []any{}
	if f.Search != "" {
		where += fmt.Sprintf(` AND (first_name ILIKE $%d OR last_name ILIKE $%d OR employee_no ILIKE $%d OR email ILIKE $%d)`,
			len(args)+1, len(args)+1, len(args)+1, len(args)+1)
		args = append(args, "%"+f.Search+"%")
	}
	if f.StaffType != "" {
		where += fmt.Sprintf(" AND staff_type = $%d", len(args)+1)
		args = append(args, f.StaffType)
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM people"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + personColumns + " FROM people" + where + " ORDER BY first_name, last_name"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Person
	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.ID, &p.EmployeeNo, &p.Email, &p.FirstName, &p.LastName, &p.Department,
			&p.Designation, &p.StaffType, &p.Role, &p.Phone, &p.Address, &p.DateJoined,
			&p.IsActive, &p.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (s *Store) UpdateProfile(ctx context.Context, p Person) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE people
    SET email = $1, first_name = $2, last_name = $3, department = $4,
        designation = $5, phone = $6, address = $7
    WHERE id = $8
  `, p.Email, p.FirstName, p.LastName, p.Department, p.Designation, p.Phone, p.Address, p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE people SET password_hash = $1 WHERE id = $2", passwordHash, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) PasswordHash(ctx context.Context, id string) (string, error) {
	var hash string
	err := s.DB.QueryRow(ctx, "SELECT password_hash FROM people WHERE id = $1", id).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}

func (s *Store) Deactivate(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE people SET is_active = FALSE WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
