package leave

import (
	"context"
	"time"
)

type ApplicationFilter struct {
	PersonID   string
	CategoryID string
	Status     string
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

// CalendarRow is an application joined with display fields for the
// month view.
type CalendarRow struct {
	Application  Application
	PersonName   string
	CategoryName string
	ColorCode    string
}

type StoreAPI interface {
	// InTx runs fn against a store bound to a single transaction.
	InTx(ctx context.Context, fn func(StoreAPI) error) error

	CategoryByID(ctx context.Context, id string) (Category, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]Category, error)
	CreateCategory(ctx context.Context, c Category) (string, error)
	UpdateCategory(ctx context.Context, c Category) error
	DeactivateCategory(ctx context.Context, id string) error

	PersonStaffType(ctx context.Context, personID string) (staffType string, active bool, err error)

	HasConflict(ctx context.Context, personID string, start, end time.Time, excludeID string) (bool, error)
	CreateApplication(ctx context.Context, app Application) (string, error)
	ApplicationByID(ctx context.Context, id string) (Application, error)
	SaveDecision(ctx context.Context, app Application) error
	MarkCancelled(ctx context.Context, id string) error
	ListApplications(ctx context.Context, f ApplicationFilter) ([]Application, int, error)

	BalanceFor(ctx context.Context, personID, categoryID string, year int) (Balance, error)
	CreateBalance(ctx context.Context, b Balance) (string, error)
	SaveBalance(ctx context.Context, b Balance) error
	ListBalances(ctx context.Context, personID string, year int) ([]Balance, error)

	CalendarRows(ctx context.Context, windowStart, windowEnd time.Time, personID string, statuses []string) ([]CalendarRow, error)
}
