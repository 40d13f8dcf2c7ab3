package leave

import (
	"context"
	"errors"
	"strings"
	"time"
)

type Service struct {
	store StoreAPI

	// Now supplies "today"; swapped out in tests.
	Now func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store, Now: time.Now}
}

type SubmitInput struct {
	CategoryID          string
	StartDate           time.Time
	EndDate             time.Time
	Reason              string
	ContactDuringLeave  string
	EmergencyContact    string
	MedicalCertProvided bool
}

// Submit runs the full submission transition: conflict check, working-day
// count, pending application row, and pending-day reservation against the
// (person, category, year-of-start) balance. The balance row is created
// lazily on first use for the year.
func (s *Service) Submit(ctx context.Context, personID string, in SubmitInput) (Application, error) {
	if strings.TrimSpace(in.Reason) == "" {
		return Application{}, invalid("reason", "reason is required")
	}
	if in.EndDate.Before(in.StartDate) {
		return Application{}, invalid("endDate", "must be on or after startDate")
	}

	var created Application
	err := s.store.InTx(ctx, func(store StoreAPI) error {
		category, err := store.CategoryByID(ctx, in.CategoryID)
		if err != nil {
			return err
		}
		if !category.IsActive {
			return invalid("categoryId", "leave category is no longer active")
		}
		if category.RequiresMedicalCert && !in.MedicalCertProvided {
			return invalid("medicalCertificateProvided", "medical certificate is required for this leave category")
		}

		staffType, active, err := store.PersonStaffType(ctx, personID)
		if err != nil {
			return err
		}
		if !active {
			return ErrForbidden
		}
		if !category.EligibleFor(staffType) {
			return invalid("categoryId", "leave category is not applicable to your staff type")
		}

		conflict, err := store.HasConflict(ctx, personID, in.StartDate, in.EndDate, "")
		if err != nil {
			return err
		}
		if conflict {
			return ErrConflict
		}

		days := WorkingDays(in.StartDate, in.EndDate)
		if days == 0 {
			return invalid("startDate", "selected range contains no working days")
		}

		created = Application{
			PersonID:            personID,
			CategoryID:          category.ID,
			StartDate:           in.StartDate,
			EndDate:             in.EndDate,
			TotalDays:           days,
			Reason:              in.Reason,
			ContactDuringLeave:  in.ContactDuringLeave,
			EmergencyContact:    in.EmergencyContact,
			MedicalCertProvided: in.MedicalCertProvided,
			Status:              StatusPending,
			AppliedAt:           s.Now().UTC(),
		}
		id, err := store.CreateApplication(ctx, created)
		if err != nil {
			return err
		}
		created.ID = id

		balance, err := s.balanceForYear(ctx, store, personID, category, in.StartDate.Year())
		if err != nil {
			return err
		}
		Reserve(&balance, days)
		return store.SaveBalance(ctx, balance)
	})
	if err != nil {
		return Application{}, err
	}
	return created, nil
}

func (s *Service) balanceForYear(ctx context.Context, store StoreAPI, personID string, category Category, year int) (Balance, error) {
	balance, err := store.BalanceFor(ctx, personID, category.ID, year)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Balance{}, err
	}

	balance = Balance{
		PersonID:   personID,
		CategoryID: category.ID,
		Year:       year,
		Allocated:  category.DaysPerYear,
	}
	id, err := store.CreateBalance(ctx, balance)
	if err != nil {
		return Balance{}, err
	}
	balance.ID = id
	return balance, nil
}

type DecideInput struct {
	Decision        string
	Comments        string
	RejectionReason string
}

type DecideResult struct {
	Application Application
	OldStatus   string
}

// Decide approves or rejects a pending application and applies the matching
// ledger movement. A missing balance row skips the ledger update silently;
// the application decision still stands.
func (s *Service) Decide(ctx context.Context, applicationID, actorID string, in DecideInput) (DecideResult, error) {
	if in.Decision != StatusApproved && in.Decision != StatusRejected {
		return DecideResult{}, invalid("decision", "must be approved or rejected")
	}
	if in.Decision == StatusRejected && strings.TrimSpace(in.RejectionReason) == "" {
		return DecideResult{}, invalid("rejectionReason", "rejection reason is required")
	}

	var result DecideResult
	err := s.store.InTx(ctx, func(store StoreAPI) error {
		app, err := store.ApplicationByID(ctx, applicationID)
		if err != nil {
			return err
		}
		if app.Status != StatusPending {
			return ErrAlreadyProcessed
		}
		result.OldStatus = app.Status

		now := s.Now().UTC()
		app.Status = in.Decision
		app.DecidedBy = actorID
		app.DecidedAt = &now
		app.Comments = in.Comments
		if in.Decision == StatusRejected {
			app.RejectionReason = in.RejectionReason
		}
		if err := store.SaveDecision(ctx, app); err != nil {
			return err
		}

		balance, err := store.BalanceFor(ctx, app.PersonID, app.CategoryID, app.StartDate.Year())
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// No balance row for this category/year: the decision is
				// recorded with no ledger movement.
				result.Application = app
				return nil
			}
			return err
		}
		if in.Decision == StatusApproved {
			Commit(&balance, app.TotalDays)
		} else {
			Release(&balance, app.TotalDays)
		}
		if err := store.SaveBalance(ctx, balance); err != nil {
			return err
		}
		result.Application = app
		return nil
	})
	if err != nil {
		return DecideResult{}, err
	}
	return result, nil
}

// Cancel withdraws a pending application; only the owner may cancel.
func (s *Service) Cancel(ctx context.Context, applicationID, actorID string) (Application, error) {
	var cancelled Application
	err := s.store.InTx(ctx, func(store StoreAPI) error {
		app, err := store.ApplicationByID(ctx, applicationID)
		if err != nil {
			return err
		}
		if app.PersonID != actorID {
			return ErrForbidden
		}
		if app.Status != StatusPending {
			return ErrAlreadyProcessed
		}

		app.Status = StatusCancelled
		if err := store.MarkCancelled(ctx, app.ID); err != nil {
			return err
		}

		balance, err := store.BalanceFor(ctx, app.PersonID, app.CategoryID, app.StartDate.Year())
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				cancelled = app
				return nil
			}
			return err
		}
		Release(&balance, app.TotalDays)
		if err := store.SaveBalance(ctx, balance); err != nil {
			return err
		}
		cancelled = app
		return nil
	})
	if err != nil {
		return Application{}, err
	}
	return cancelled, nil
}

func (s *Service) Application(ctx context.Context, id string) (Application, error) {
	return s.store.ApplicationByID(ctx, id)
}

func (s *Service) ListApplications(ctx context.Context, f ApplicationFilter) ([]Application, int, error) {
	return s.store.ListApplications(ctx, f)
}

func (s *Service) Balances(ctx context.Context, personID string, year int) ([]Balance, error) {
	return s.store.ListBalances(ctx, personID, year)
}

func (s *Service) Category(ctx context.Context, id string) (Category, error) {
	return s.store.CategoryByID(ctx, id)
}

func (s *Service) ListCategories(ctx context.Context, activeOnly bool) ([]Category, error) {
	return s.store.ListCategories(ctx, activeOnly)
}

func (s *Service) CreateCategory(ctx context.Context, c Category) (string, error) {
	if strings.TrimSpace(c.Name) == "" {
		return "", invalid("name", "name is required")
	}
	if c.DaysPerYear < 0 {
		return "", invalid("daysPerYear", "must not be negative")
	}
	if c.ColorCode == "" {
		c.ColorCode = "#007bff"
	}
	c.IsActive = true
	return s.store.CreateCategory(ctx, c)
}

func (s *Service) UpdateCategory(ctx context.Context, c Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("name", "name is required")
	}
	if c.DaysPerYear < 0 {
		return invalid("daysPerYear", "must not be negative")
	}
	return s.store.UpdateCategory(ctx, c)
}

// DeactivateCategory soft-disables a category; historical applications and
// balances keep referencing it.
func (s *Service) DeactivateCategory(ctx context.Context, id string) error {
	return s.store.DeactivateCategory(ctx, id)
}

// InitBalances creates the year's balance rows for one person across all
// active categories their staff type is eligible for. Existing rows are
// kept as-is.
func (s *Service) InitBalances(ctx context.Context, personID string, year int) error {
	return s.store.InTx(ctx, func(store StoreAPI) error {
		staffType, active, err := store.PersonStaffType(ctx, personID)
		if err != nil {
			return err
		}
		if !active {
			return ErrForbidden
		}

		categories, err := store.ListCategories(ctx, true)
		if err != nil {
			return err
		}
		for _, category := range categories {
			if !category.EligibleFor(staffType) {
				continue
			}
			if _, err := store.BalanceFor(ctx, personID, category.ID, year); err == nil {
				continue
			} else if !errors.Is(err, ErrNotFound) {
				return err
			}
			if _, err := store.CreateBalance(ctx, Balance{
				PersonID:   personID,
				CategoryID: category.ID,
				Year:       year,
				Allocated:  category.DaysPerYear,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// Calendar expands applications overlapping the month window into per-day
// entries. An empty personID returns entries for everyone.
func (s *Service) Calendar(ctx context.Context, year int, month time.Month, personID string, statuses []string) ([]CalendarEntry, error) {
	windowStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	windowEnd := windowStart.AddDate(0, 1, -1)

	rows, err := s.store.CalendarRows(ctx, windowStart, windowEnd, personID, statuses)
	if err != nil {
		return nil, err
	}

	var entries []CalendarEntry
	for _, row := range rows {
		day := row.Application.StartDate
		if day.Before(windowStart) {
			day = windowStart
		}
		last := row.Application.EndDate
		if last.After(windowEnd) {
			last = windowEnd
		}
		for ; !day.After(last); day = day.AddDate(0, 0, 1) {
			entries = append(entries, CalendarEntry{
				Date:         day,
				Application:  row.Application.ID,
				PersonID:     row.Application.PersonID,
				PersonName:   row.PersonName,
				CategoryName: row.CategoryName,
				ColorCode:    row.ColorCode,
				Status:       row.Application.Status,
			})
		}
	}
	return entries, nil
}
