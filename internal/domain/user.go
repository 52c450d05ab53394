package domain

// UserRole distinguishes complainants from staff administrators.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// Departments admins may register under.
var Departments = []string{
	"Education",
	"Healthcare",
	"Municipal",
	"Transport",
	"Law Enforcement",
	"Public Works",
}

// User is an account in the accounts dataset.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         UserRole
	Email        string
	FullName     string
	Department   string
	Verified     bool
}

// IsAdmin reports whether the account may act as staff.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}
