package reports

import (
	"context"

	"campusleave/internal/domain/leave"
)

type Service struct {
	store *Store
	leave *leave.Service
}

func New(store *Store, leaveSvc *leave.Service) *Service {
	return &Service{store: store, leave: leaveSvc}
}

func (s *Service) PersonSummary(ctx context.Context, personID string, year int) (PersonSummary, error) {
	balances, err := s.leave.Balances(ctx, personID, year)
	if err != nil {
		return PersonSummary{}, err
	}
	categories, err := s.leave.ListCategories(ctx, false)
	if err != nil {
		return PersonSummary{}, err
	}
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return BuildPersonSummary(personID, year, balances, names), nil
}

func (s *Service) Dashboard(ctx context.Context, year int) (Dashboard, error) {
	dash := Dashboard{Year: year}

	total, byType, err := s.store.StaffCounts(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	dash.TotalStaff = total
	dash.StaffByType = byType

	counts, err := s.store.ApplicationCounts(ctx, year)
	if err != nil {
		return Dashboard{}, err
	}
	dash.ApplicationCounts = counts
	dash.PendingApprovals = counts["pending"]

	taken, err := s.store.DaysTaken(ctx, year)
	if err != nil {
		return Dashboard{}, err
	}
	dash.DaysTakenThisYear = taken
	return dash, nil
}

func (s *Service) Applications(ctx context.Context, filter ApplicationReportFilter) ([]ApplicationRow, error) {
	return s.store.ApplicationRows(ctx, filter)
}
