package reports

import (
	"sort"

	"campusleave/internal/domain/leave"
)

// BuildPersonSummary folds balances into per-category usage lines plus totals.
// Category names come from the caller so the fold stays free of lookups.
func BuildPersonSummary(personID string, year int, balances []leave.Balance, categoryNames map[string]string) PersonSummary {
	summary := PersonSummary{PersonID: personID, Year: year}
	for _, b := range balances {
		usage := CategoryUsage{
			CategoryID:   b.CategoryID,
			CategoryName: categoryNames[b.CategoryID],
			Allocated:    b.Allocated,
			Used:         b.Used,
			Pending:      b.Pending,
			Available:    leave.Available(b),
		}
		summary.TotalAllocated += b.Allocated
		summary.TotalTaken += b.Used
		summary.TotalPending += b.Pending
		summary.TotalAvailable += usage.Available
		summary.Categories = append(summary.Categories, usage)
	}
	sort.Slice(summary.Categories, func(i, j int) bool {
		return summary.Categories[i].CategoryName < summary.Categories[j].CategoryName
	})
	return summary
}
