package people

import (
	"context"
	"strings"
	"time"

	"campusleave/internal/domain/auth"
)

type Service struct {
	Store *Store

	Now func() time.Time
}

func NewService(store *Store) *Service {
	return &Service{Store: store, Now: time.Now}
}

type RegisterInput struct {
	EmployeeNo  string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Department  string
	Designation string
	StaffType   string
	Role        string
	Phone       string
	Address     string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (Person, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return Person{}, err
	}

	role := in.Role
	if role == "" {
		role = auth.RoleStaff
	}
	person := Person{
		EmployeeNo:  strings.TrimSpace(in.EmployeeNo),
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Department:  in.Department,
		Designation: in.Designation,
		StaffType:   in.StaffType,
		Role:        role,
		Phone:       in.Phone,
		Address:     in.Address,
		DateJoined:  s.Now().UTC(),
		IsActive:    true,
	}

	id, err := s.Store.Create(ctx, person, hash)
	if err != nil {
		return Person{}, err
	}
	person.ID = id
	return person, nil
}

func (s *Service) Authenticate(ctx context.Context, employeeNo, password string) (Person, error) {
	person, hash, err := s.Store.ByEmployeeNo(ctx, employeeNo)
	if err != nil {
		return Person{}, err
	}
	if !person.IsActive {
		return Person{}, ErrNotFound
	}
	if err := auth.CheckPassword(hash, password); err != nil {
		return Person{}, ErrNotFound
	}
	return person, nil
}

func (s *Service) ChangePassword(ctx context.Context, personID, current, next string) error {
	hash, err := s.Store.PasswordHash(ctx, personID)
	if err != nil {
		return err
	}
	if err := auth.CheckPassword(hash, current); err != nil {
		return ErrNotFound
	}
	newHash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	return s.Store.UpdatePassword(ctx, personID, newHash)
}

func (s *Service) Get(ctx context.Context, id string) (Person, error) {
	return s.Store.ByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Person, int, error) {
	return s.Store.List(ctx, f)
}

func (s *Service) UpdateProfile(ctx context.Context, p Person) error {
	return s.Store.UpdateProfile(ctx, p)
}

func (s *Service) Deactivate(ctx context.Context, id string) error {
	return s.Store.Deactivate(ctx, id)
}
