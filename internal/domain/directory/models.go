package directory

import "time"

// Person is the single identity record shared by an admin account and an
// employee record when both belong to the same human. Accounts join on
// person id, never on email, so an address change cannot split an
// identity.
type Person struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
}

type Admin struct {
	ID           string    `json:"id"`
	PersonID     string    `json:"personId"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Role         string    `json:"role"`
	Verified     bool      `json:"verified"`
	PasswordHash string    `json:"-"`
	TOTPSecret   []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Employee statuses. Terminated employees keep their rows so history
// stays queryable; only a delete removes them.
const (
	EmployeeActive     = "active"
	EmployeeInactive   = "inactive"
	EmployeeTerminated = "terminated"
)

type Employee struct {
	ID             string     `json:"id"`
	PersonID       string     `json:"personId"`
	Email          string     `json:"email"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Position       string     `json:"position"`
	TeamID         *string    `json:"teamId,omitempty"`
	Status         string     `json:"status"`
	DateTerminated *time.Time `json:"dateTerminated,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type Team struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	TeamLeadAdminID    *string   `json:"teamLeadAdminId,omitempty"`
	TeamLeadEmployeeID *string   `json:"teamLeadEmployeeId,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}
