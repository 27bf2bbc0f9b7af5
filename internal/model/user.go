package model

// Role is the account type
type Role string

const (
	RolePatient    Role = "patient"
	RoleClinic     Role = "clinic"
	RoleGovernment Role = "government"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleClinic, RoleGovernment:
		return true
	default:
		return false
	}
}

// User is the authenticated identity returned by login, registration and /api/me
type User struct {
	ID        uint64 `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
	Phone     string `json:"phone,omitempty"`
}

// DisplayName joins first and last name, falling back to the email
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Email
	}
}

// Registration is the body of POST /api/register
type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
	Phone     string `json:"phone,omitempty"`
}
