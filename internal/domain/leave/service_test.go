package leave

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type fakePerson struct {
	staffType string
	active    bool
}

type fakeStore struct {
	categories map[string]Category
	people     map[string]fakePerson
	apps       map[string]Application
	balances   map[string]Balance
	nextID     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		categories: map[string]Category{},
		people:     map[string]fakePerson{},
		apps:       map[string]Application{},
		balances:   map[string]Balance{},
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) InTx(ctx context.Context, fn func(StoreAPI) error) error {
	return fn(f)
}

func (f *fakeStore) CategoryByID(ctx context.Context, id string) (Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return Category{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) ListCategories(ctx context.Context, activeOnly bool) ([]Category, error) {
	var out []Category
	for _, c := range f.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) CreateCategory(ctx context.Context, c Category) (string, error) {
	c.ID = f.id("cat")
	f.categories[c.ID] = c
	return c.ID, nil
}

func (f *fakeStore) UpdateCategory(ctx context.Context, c Category) error {
	if _, ok := f.categories[c.ID]; !ok {
		return ErrNotFound
	}
	f.categories[c.ID] = c
	return nil
}

func (f *fakeStore) DeactivateCategory(ctx context.Context, id string) error {
	c, ok := f.categories[id]
	if !ok {
		return ErrNotFound
	}
	c.IsActive = false
	f.categories[id] = c
	return nil
}

func (f *fakeStore) PersonStaffType(ctx context.Context, personID string) (string, bool, error) {
	p, ok := f.people[personID]
	if !ok {
		return "", false, ErrNotFound
	}
	return p.staffType, p.active, nil
}

func (f *fakeStore) HasConflict(ctx context.Context, personID string, start, end time.Time, excludeID string) (bool, error) {
	for _, app := range f.apps {
		if app.PersonID != personID || app.ID == excludeID {
			continue
		}
		if app.Status != StatusPending && app.Status != StatusApproved {
			continue
		}
		if Overlaps(app.StartDate, app.EndDate, start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateApplication(ctx context.Context, app Application) (string, error) {
	app.ID = f.id("app")
	f.apps[app.ID] = app
	return app.ID, nil
}

func (f *fakeStore) ApplicationByID(ctx context.Context, id string) (Application, error) {
	app, ok := f.apps[id]
	if !ok {
		return Application{}, ErrNotFound
	}
	return app, nil
}

func (f *fakeStore) SaveDecision(ctx context.Context, app Application) error {
	if _, ok := f.apps[app.ID]; !ok {
		return ErrNotFound
	}
	f.apps[app.ID] = app
	return nil
}

func (f *fakeStore) MarkCancelled(ctx context.Context, id string) error {
	app, ok := f.apps[id]
	if !ok {
		return ErrNotFound
	}
	app.Status = StatusCancelled
	f.apps[id] = app
	return nil
}

func (f *fakeStore) ListApplications(ctx context.Context, filter ApplicationFilter) ([]Application, int, error) {
	var out []Application
	for _, app := range f.apps {
		if filter.PersonID != "" && app.PersonID != filter.PersonID {
			continue
		}
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		out = append(out, app)
	}
	return out, len(out), nil
}

func (f *fakeStore) BalanceFor(ctx context.Context, personID, categoryID string, year int) (Balance, error) {
	for _, b := range f.balances {
		if b.PersonID == personID && b.CategoryID == categoryID && b.Year == year {
			return b, nil
		}
	}
	return Balance{}, ErrNotFound
}

func (f *fakeStore) CreateBalance(ctx context.Context, b Balance) (string, error) {
	b.ID = f.id("bal")
	f.balances[b.ID] = b
	return b.ID, nil
}

func (f *fakeStore) SaveBalance(ctx context.Context, b Balance) error {
	if _, ok := f.balances[b.ID]; !ok {
		return ErrNotFound
	}
	f.balances[b.ID] = b
	return nil
}

func (f *fakeStore) ListBalances(ctx context.Context, personID string, year int) ([]Balance, error) {
	var out []Balance
	for _, b := range f.balances {
		if b.PersonID == personID && b.Year == year {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) CalendarRows(ctx context.Context, windowStart, windowEnd time.Time, personID string, statuses []string) ([]CalendarRow, error) {
	var out []CalendarRow
	for _, app := range f.apps {
		if personID != "" && app.PersonID != personID {
			continue
		}
		if !Overlaps(app.StartDate, app.EndDate, windowStart, windowEnd) {
			continue
		}
		matched := len(statuses) == 0
		for _, status := range statuses {
			if app.Status == status {
				matched = true
			}
		}
		if !matched {
			continue
		}
		out = append(out, CalendarRow{Application: app, CategoryName: "Leave", ColorCode: "#007bff"})
	}
	return out, nil
}

func newTestService(store *fakeStore) *Service {
	svc := NewService(store)
	svc.Now = func() time.Time { return time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func seedCasualLeave(store *fakeStore) (personID, categoryID string) {
	categoryID = store.id("cat")
	store.categories[categoryID] = Category{
		ID:             categoryID,
		Name:           "Casual Leave",
		DaysPerYear:    12,
		ForTeaching:    true,
		ForNonTeaching: true,
		IsActive:       true,
	}
	personID = store.id("person")
	store.people[personID] = fakePerson{staffType: StaffTeaching, active: true}
	return personID, categoryID
}

func mustSubmit(t *testing.T, svc *Service, personID, categoryID string, start, end time.Time) Application {
	t.Helper()
	app, err := svc.Submit(context.Background(), personID, SubmitInput{
		CategoryID: categoryID,
		StartDate:  start,
		EndDate:    end,
		Reason:     "personal work at home",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	return app
}

func balance(t *testing.T, store *fakeStore, personID, categoryID string, year int) Balance {
	t.Helper()
	b, err := store.BalanceFor(context.Background(), personID, categoryID, year)
	if err != nil {
		t.Fatalf("balance lookup failed: %v", err)
	}
	return b
}

func TestSubmitReservesPendingDays(t *testing.T) {
	store := newFakeStore()
	personID, categoryID := seedCasualLeave(store)
	svc := newTestService(store)

	// Mon Jan 1 through Fri Jan 5 2024: five weekdays.
	app := mustSubmit(t, svc, personID, categoryID, date(2024, time.January, 1), date(2024, time.January, 5))
	if app.TotalDays != 5 {
		t.Fatalf("expected 5 total days, got %d", app.TotalDays)
	}
	if app.Status != StatusPending {
		t.Fatalf("expected pending status, got %s", app.Status)
	}

	b := balance(t, store, personID, categoryID, 2024)
	if b.Allocated != 12 || b.Pending != 5 || b.Used != 0 {
		t.Fatalf("unexpected balance %+v", b)
	}
	if Available(b) != 7 {
		t.Fatalf("expected 7 available, got %d", Available(b))
	}
}

func TestSubmitThenApproveMovesPendingToUsed(t *testing.T) {
	store := newFakeStore()
	personID, categoryID := seedCasualLeave(store)
	svc := newTestService(store)

	app := mustSubmit(t, svc, personID, categoryID, date(2024, time.January, 1), date(2024, time.January, 5))

	result, err := svc.Decide(context.Background(), app.ID, "admin-1", DecideInput{Decision: StatusApproved, Comments: "enjoy"})
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if result.OldStatus != StatusPending || result.Application.Status != StatusApproved {
		t.Fatalf("unexpected transition %s -> %s", result.OldStatus, result.Application.Status)
	}
	if result.Application.DecidedBy != "admin-1" || result.Application.DecidedAt == nil {
		t.Fatal("decision metadata missing")
	}

	b := balance(t, store, personID, categoryID, 2024)
	if b.Used != 5 || b.Pending != 0 {
		t.Fatalf("expected used=5 pending=0, got %+v", b)
	}
	if Available(b) != 7 {
		t.Fatalf("available should have dropped by the day count to 7, got %d", Available(b))
	}
}

func TestSubmitThenCancelRestoresPending(t *testing.T) {
	store := newFakeStore()
	personID, categoryID := seedCasualLeave(store)
	svc := newTestService(store)

	app := mustSubmit(t, svc, personID, categoryID, date(2024, time.February, 5), date(2024, time.February, 7))

	cancelled, err := svc.Cancel(context.Background(), app.ID, personID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Fatalf("expected cancelled status, got %s", cancelled.Status)
	}

	b := balance(t, store, personID, categoryID, 2024)
	if b.Pending != 0 || b.Used != 0 {
		t.Fatalf("cancel must restore pending and leave used untouched, got %+v", b)
	}
}

func TestCancelByNonOwnerForbidden(t *testing.T) {
	store := newFakeStore()
	personID, categoryID := seedCasualLeave(store)
	svc := newTestService(store)

	app := mustSubmit(t, svc, personID, categoryID, date(2024, time.February, 5), date(2024, time.February, 7))

	if _, err := svc.Cancel(context.Background(), app.ID, "someone-else"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestDecideTwiceFails(t *testing.T) {
	store := newFakeStore()
	personID, categoryID := seedCasualLeave(store)
	svc := newTestService(store)

	app := mustSubmit(t, svc, personID, categoryID, date(2024, time.March, 4), date(2024, time.March, 6))

	if _, err := svc.Decide(context.Background(), app.ID, "admin-1", DecideInput{Decision: StatusApproved}); err != nil {
		t.Fatalf("first decide failed: %v", err)
	}
	if _, err := svc.Decide(context.Background(), app.ID, "admin-1", DecideInput{Decision: StatusRejected, RejectionReason: "late"}); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("expected ErrAlreadyProcessed, got %v", err)
	}
}

func TestRejectWithoutReasonIsValidationFailure(t *testing.T) {
	store := newFakeStore()
	personID, categoryID := seedCasualLeave(store)
	svc := newTestService(store)

	app := mustSubmit(t, svc, personID, categoryID, date(2024, time.March, 4), date(2024, time.March, 6))

	var verr *ValidationError
	_, err := svc.Decide(context.Background(), app.ID, "admin-1", DecideInput{Decision: StatusRejected})
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "rejectionReason" {
		t.Fatalf("expected rejectionReason issue, got %s", verr.Field)
	}
}

func TestRejectReleasesPendingDays(t *testing.T) {
	store := newFakeStore()
	personID, categoryID := seedCasualLeave(store)
	svc := newTestService(store)

	app := mustSubmit(t, svc, personID, categoryID, date(2024, time.March, 4), date(2024, time.March, 6))

	if _, err := svc.Decide(context.Background(), app.ID, "admin-1", DecideInput{Decision: StatusRejected, RejectionReason: "understaffed that week"}); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	b := balance(t, store, personID, categoryID, 2024)
	if b.Pending != 0 || b.Used != 0 {
		t.Fatalf("reject must free reserved days, got %+v", b)
	}
}

func TestSubmitConflictRejected(t *testing.T) {
	store := newFakeStore()
	personID, categoryID := seedCasualLeave(store)
	svc := newTestService(store)

	mustSubmit(t, svc, personID, categoryID, date(2024, time.April, 1), date(2024, time.April, 5))

	_, err := svc.Submit(context.Background(), personID, SubmitInput{
		CategoryID: categoryID,
		StartDate:  date(2024, time.April, 5),
		EndDate:    date(2024, time.April, 9),
		Reason:     "overlapping trip",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// A non-overlapping window for the same person is fine.
	mustSubmit(t, svc, personID, categoryID, date(2024, time.April, 10), date(2024, time.April, 11))
}

func TestSubmitWeekendOnlyRangeRejected(t *testing.T) {
	store := newFakeStore()
	personID, categoryID := seedCasualLeave(store)
	svc := newTestService(store)

	var verr *ValidationError
	_, err := svc.Submit(context.Background(), personID, SubmitInput{
		CategoryID: categoryID,
		StartDate:  date(2024, time.January, 6),
		EndDate:    date(2024, time.January, 7),
		Reason:     "weekend only",
	})
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for weekend-only range, got %v", err)
	}
}

func TestSubmitEndBeforeStartRejected(t *testing.T) {
	store := newFakeStore()
	personID, categoryID := seedCasualLeave(store)
	svc := newTestService(store)

	var verr *ValidationError
	_, err := svc.Submit(context.Background(), personID, SubmitInput{
		CategoryID: categoryID,
		StartDate:  date(2024, time.May, 10),
		EndDate:    date(2024, time.May, 8),
		Reason:     "reversed",
	})
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestDecideWithMissingBalanceSkipsLedger(t *testing.T) {
	store := newFakeStore()
	personID, categoryID := seedCasualLeave(store)
	svc := newTestService(store)

	app := mustSubmit(t, svc, personID, categoryID, date(2024, time.June, 3), date(2024, time.June, 5))

	// Simulate an application without a ledger row for its category/year.
	for id := range store.balances {
		delete(store.balances, id)
	}

	result, err := svc.Decide(context.Background(), app.ID, "admin-1", DecideInput{Decision: StatusApproved})
	if err != nil {
		t.Fatalf("decide must not fail on a missing balance: %v", err)
	}
	if result.Application.Status != StatusApproved {
		t.Fatalf("expected approved, got %s", result.Application.Status)
	}
	if len(store.balances) != 0 {
		t.Fatal("no balance row should have been created by decide")
	}
}

func TestSubmitIneligibleStaffTypeRejected(t *testing.T) {
	store := newFakeStore()
	personID, categoryID := seedCasualLeave(store)
	category := store.categories[categoryID]
	category.ForTeaching = false
	store.categories[categoryID] = category
	svc := newTestService(store)

	var verr *ValidationError
	_, err := svc.Submit(context.Background(), personID, SubmitInput{
		CategoryID: categoryID,
		StartDate:  date(2024, time.July, 1),
		EndDate:    date(2024, time.July, 2),
		Reason:     "not for teaching staff",
	})
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestSubmitRequiresMedicalCertificateWhenCategoryDemandsIt(t *testing.T) {
	store := newFakeStore()
	personID, categoryID := seedCasualLeave(store)
	category := store.categories[categoryID]
	category.RequiresMedicalCert = true
	store.categories[categoryID] = category
	svc := newTestService(store)

	var verr *ValidationError
	_, err := svc.Submit(context.Background(), personID, SubmitInput{
		CategoryID: categoryID,
		StartDate:  date(2024, time.July, 1),
		EndDate:    date(2024, time.July, 2),
		Reason:     "sick",
	})
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	if _, err := svc.Submit(context.Background(), personID, SubmitInput{
		CategoryID:          categoryID,
		StartDate:           date(2024, time.July, 1),
		EndDate:             date(2024, time.July, 2),
		Reason:              "sick",
		MedicalCertProvided: true,
	}); err != nil {
		t.Fatalf("submit with certificate failed: %v", err)
	}
}

func TestCalendarExpandsDaysWithinWindow(t *testing.T) {
	store := newFakeStore()
	personID, categoryID := seedCasualLeave(store)
	svc := newTestService(store)

	// Jan 30 through Feb 2: only Feb 1-2 fall inside the February window.
	mustSubmit(t, svc, personID, categoryID, date(2024, time.January, 30), date(2024, time.February, 2))

	entries, err := svc.Calendar(context.Background(), 2024, time.February, personID, []string{StatusPending, StatusApproved})
	if err != nil {
		t.Fatalf("calendar failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries inside February, got %d", len(entries))
	}
	for _, entry := range entries {
		if entry.Date.Month() != time.February {
			t.Fatalf("entry leaked outside the window: %v", entry.Date)
		}
	}
}
