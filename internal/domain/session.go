package domain

import "time"

// Session binds a token to a user and carries the user's in-progress wizard
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Wizard    Wizard    `json:"wizard"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// RegistrationResult is returned after creating an account
type RegistrationResult struct {
	User         *User  `json:"user"`
	SessionToken string `json:"session_token"`
}
