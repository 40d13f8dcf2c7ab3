package reports

// CategoryUsage is one person's ledger line for a single category and year.
type CategoryUsage struct {
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	Allocated    int    `json:"allocated"`
	Used         int    `json:"used"`
	Pending      int    `json:"pending"`
	Available    int    `json:"available"`
}

type PersonSummary struct {
	PersonID       string          `json:"personId"`
	Year           int             `json:"year"`
	TotalAllocated int             `json:"totalAllocated"`
	TotalTaken     int             `json:"totalTaken"`
	TotalPending   int             `json:"totalPending"`
	TotalAvailable int             `json:"totalAvailable"`
	Categories     []CategoryUsage `json:"categories"`
}

type Dashboard struct {
	Year              int            `json:"year"`
	TotalStaff        int            `json:"totalStaff"`
	StaffByType       map[string]int `json:"staffByType"`
	ApplicationCounts map[string]int `json:"applicationCounts"`
	PendingApprovals  int            `json:"pendingApprovals"`
	DaysTakenThisYear int            `json:"daysTakenThisYear"`
}

// ApplicationRow is a flattened application record used by the applications
// report and the CSV/PDF exports.
type ApplicationRow struct {
	EmployeeNo   string `json:"employeeNo"`
	PersonName   string `json:"personName"`
	Department   string `json:"department"`
	CategoryName string `json:"categoryName"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	TotalDays    int    `json:"totalDays"`
	Status       string `json:"status"`
	AppliedAt    string `json:"appliedAt"`
}

type ApplicationReportFilter struct {
	Year       int
	Status     string
	CategoryID string
	Department string
}
