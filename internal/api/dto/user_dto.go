package dto

import "github.com/civicdesk/grievance-portal/internal/domain"

// UserRegisterRequest payload for new complainant accounts.
type UserRegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// AdminRegisterRequest payload for invitation-code sign-up.
type AdminRegisterRequest struct {
	Code       string `json:"code"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	Department string `json:"department"`
}

// LoginRequest payload for credential checks.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse is the public view of an account; the hash never leaves the server.
type UserResponse struct {
	ID         int64           `json:"id"`
	Username   string          `json:"username"`
	Role       domain.UserRole `json:"role"`
	Email      string          `json:"email"`
	FullName   string          `json:"full_name"`
	Department string          `json:"department,omitempty"`
	Verified   bool            `json:"verified"`
}

// AdminCodeResponse carries a freshly issued invitation code.
type AdminCodeResponse struct {
	Code string `json:"code"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Username:   user.Username,
		Role:       user.Role,
		Email:      user.Email,
		FullName:   user.FullName,
		Department: user.Department,
		Verified:   user.Verified,
	}
}
