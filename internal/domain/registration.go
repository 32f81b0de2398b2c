package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// DefaultMinPasswordLength is the shortest password accepted at registration
const DefaultMinPasswordLength = 6

// RegistrationRequest is the payload of a new account
type RegistrationRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Role            string `json:"role"`
	SchoolName      string `json:"school_name,omitempty"`
	ParentEmail     string `json:"parent_email,omitempty"`
}

// ValidateRegistration checks a registration before any account is created
// and returns the parsed role. Admin accounts are provisioned, not
// self-registered.
func ValidateRegistration(req RegistrationRequest, minPasswordLength int) (Role, error) {
	if minPasswordLength <= 0 {
		minPasswordLength = DefaultMinPasswordLength
	}

	role, err := ParseRole(req.Role)
	if err != nil {
		return "", &ValidationError{Field: "role", Err: err}
	}
	if role == RoleAdmin {
		return "", &ValidationError{Field: "role", Err: fmt.Errorf("%w: admin accounts cannot self-register", ErrInvalidRole)}
	}
	if strings.TrimSpace(req.Name) == "" {
		return "", &ValidationError{Field: "name", Err: fmt.Errorf("%w: name is required", ErrInvalidRequest)}
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return "", &ValidationError{Field: "email", Err: fmt.Errorf("%w: invalid email", ErrInvalidRequest)}
	}
	if req.Password != req.ConfirmPassword {
		return "", &ValidationError{Field: "confirm_password", Err: ErrPasswordMismatch}
	}
	if len(req.Password) < minPasswordLength {
		return "", &ValidationError{
			Field: "password",
			Err:   fmt.Errorf("%w: must be at least %d characters", ErrPasswordTooShort, minPasswordLength),
		}
	}
	if role == RoleChild {
		if _, err := mail.ParseAddress(req.ParentEmail); err != nil {
			return "", &ValidationError{Field: "parent_email", Err: fmt.Errorf("%w: a parent email is required for children", ErrInvalidRequest)}
		}
	}
	return role, nil
}

// NewUser builds the account for a validated request. The welcome badges
// (threshold 0) are awarded immediately.
func NewUser(id string, role Role, req RegistrationRequest, passwordHash string, badges []Badge, now time.Time) *User {
	u := &User{
		ID:           id,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		Role:         role,
		Badges:       []string{},
		CreatedAt:    now,
		PasswordHash: passwordHash,
	}
	if role == RoleSchool {
		u.SchoolName = strings.TrimSpace(req.SchoolName)
		if u.SchoolName == "" {
			u.SchoolName = u.Name
		}
	}
	if role == RoleChild {
		u.ParentEmail = strings.TrimSpace(req.ParentEmail)
	}
	u.AwardBadges(badges)
	return u
}
