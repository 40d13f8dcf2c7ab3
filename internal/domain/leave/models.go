package leave

import "time"

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

const (
	StaffTeaching    = "teaching"
	StaffNonTeaching = "non_teaching"
)

type Category struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	DaysPerYear         int       `json:"daysPerYear"`
	RequiresMedicalCert bool      `json:"requiresMedicalCertificate"`
	ForTeaching         bool      `json:"forTeaching"`
	ForNonTeaching      bool      `json:"forNonTeaching"`
	ColorCode           string    `json:"colorCode"`
	IsActive            bool      `json:"isActive"`
	CreatedAt           time.Time `json:"createdAt"`
}

// EligibleFor reports whether a staff type may draw from this category.
func (c Category) EligibleFor(staffType string) bool {
	switch staffType {
	case StaffTeaching:
		return c.ForTeaching
	case StaffNonTeaching:
		return c.ForNonTeaching
	default:
		return false
	}
}

type Application struct {
	ID                  string     `json:"id"`
	PersonID            string     `json:"personId"`
	CategoryID          string     `json:"categoryId"`
	StartDate           time.Time  `json:"startDate"`
	EndDate             time.Time  `json:"endDate"`
	TotalDays           int        `json:"totalDays"`
	Reason              string     `json:"reason"`
	ContactDuringLeave  string     `json:"contactDuringLeave,omitempty"`
	EmergencyContact    string     `json:"emergencyContact,omitempty"`
	MedicalCertProvided bool       `json:"medicalCertificateProvided"`
	Status              string     `json:"status"`
	AppliedAt           time.Time  `json:"appliedAt"`
	DecidedBy           string     `json:"decidedBy,omitempty"`
	DecidedAt           *time.Time `json:"decidedAt,omitempty"`
	RejectionReason     string     `json:"rejectionReason,omitempty"`
	Comments            string     `json:"comments,omitempty"`
}

type Balance struct {
	ID         string `json:"id"`
	PersonID   string `json:"personId"`
	CategoryID string `json:"categoryId"`
	Year       int    `json:"year"`
	Allocated  int    `json:"allocatedDays"`
	Used       int    `json:"usedDays"`
	Pending    int    `json:"pendingDays"`
}

type CalendarEntry struct {
	Date         time.Time `json:"date"`
	Application  string    `json:"applicationId"`
	PersonID     string    `json:"personId"`
	PersonName   string    `json:"personName,omitempty"`
	CategoryName string    `json:"categoryName"`
	ColorCode    string    `json:"colorCode"`
	Status       string    `json:"status"`
}
