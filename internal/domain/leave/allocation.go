package leave

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AllocationSummary struct {
	Year            int `json:"year"`
	PeopleSeen      int `json:"peopleSeen"`
	BalancesCreated int `json:"balancesCreated"`
}

// ApplyAllocations ensures every active person has a balance row, with the
// category's yearly allotment, for each active category their staff type is
// eligible for. Existing rows are left untouched, so re-runs are safe.
func ApplyAllocations(ctx context.Context, pool *pgxpool.Pool, year int) (AllocationSummary, error) {
	summary := AllocationSummary{Year: year}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return summary, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	categoryRows, err := tx.Query(ctx, `
    SELECT id, days_per_year, for_teaching, for_non_teaching
    FROM leave_categories
    WHERE is_active
  `)
	if err != nil {
		return summary, err
	}
	type categoryAllotment struct {
		id             string
		days           int
		forTeaching    bool
		forNonTeaching bool
	}
	var categories []categoryAllotment
	for categoryRows.Next() {
		var c categoryAllotment
		if err := categoryRows.Scan(&c.id, &c.days, &c.forTeaching, &c.forNonTeaching); err != nil {
			categoryRows.Close()
			return summary, err
		}
		categories = append(categories, c)
	}
	categoryRows.Close()
	if err := categoryRows.Err(); err != nil {
		return summary, err
	}

	personRows, err := tx.Query(ctx, "SELECT id, staff_type FROM people WHERE is_active")
	if err != nil {
		return summary, err
	}
	type staffMember struct {
		id        string
		staffType string
	}
	var people []staffMember
	for personRows.Next() {
		var p staffMember
		if err := personRows.Scan(&p.id, &p.staffType); err != nil {
			personRows.Close()
			return summary, err
		}
		people = append(people, p)
	}
	personRows.Close()
	if err := personRows.Err(); err != nil {
		return summary, err
	}
	summary.PeopleSeen = len(people)

	for _, person := range people {
		for _, category := range categories {
			eligible := (person.staffType == StaffTeaching && category.forTeaching) ||
				(person.staffType == StaffNonTeaching && category.forNonTeaching)
			if !eligible {
				continue
			}
			tag, err := tx.Exec(ctx, `
        INSERT INTO leave_balances (person_id, category_id, year, allocated_days)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (person_id, category_id, year) DO NOTHING
      `, person.id, category.id, year, category.days)
			if err != nil {
				return summary, err
			}
			summary.BalancesCreated += int(tag.RowsAffected())
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return summary, err
	}
	return summary, nil
}
