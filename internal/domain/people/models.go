package people

import "time"

type Person struct {
	ID          string    `json:"id"`
	EmployeeNo  string    `json:"employeeNo"`
	Email       string    `json:"email"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Department  string    `json:"department"`
	Designation string    `json:"designation"`
	StaffType   string    `json:"staffType"`
	Role        string    `json:"role"`
	Phone       string    `json:"phone,omitempty"`
	Address     string    `json:"address,omitempty"`
	DateJoined  time.Time `json:"dateJoined"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (p Person) FullName() string {
	return p.FirstName + " " + p.LastName
}

type ListFilter struct {
	Search    string
	StaffType string
	Limit     int
	Offset    int
}
