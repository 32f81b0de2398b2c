package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() RegistrationRequest {
	return RegistrationRequest{
		Name:            "The Johnson Family",
		Email:           "johnson@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Role:            "family",
	}
}

func TestValidateRegistration(t *testing.T) {
	role, err := ValidateRegistration(validRequest(), 6)
	require.NoError(t, err)
	assert.Equal(t, RoleFamily, role)
}

func TestValidateRegistration_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegistrationRequest)
		field  string
		want   error
	}{
		{"password mismatch", func(r *RegistrationRequest) { r.ConfirmPassword = "other12" }, "confirm_password", ErrPasswordMismatch},
		{"password too short", func(r *RegistrationRequest) { r.Password, r.ConfirmPassword = "abc", "abc" }, "password", ErrPasswordTooShort},
		{"unknown role", func(r *RegistrationRequest) { r.Role = "teacher" }, "role", ErrInvalidRole},
		{"admin self-registration", func(r *RegistrationRequest) { r.Role = "admin" }, "role", ErrInvalidRole},
		{"missing name", func(r *RegistrationRequest) { r.Name = "  " }, "name", ErrInvalidRequest},
		{"bad email", func(r *RegistrationRequest) { r.Email = "not-an-email" }, "email", ErrInvalidRequest},
		{"child without parent", func(r *RegistrationRequest) { r.Role = "child" }, "parent_email", ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			_, err := ValidateRegistration(req, 6)

			require.ErrorIs(t, err, tt.want)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestValidateRegistration_ChildWithParent(t *testing.T) {
	req := validRequest()
	req.Role = "child"
	req.ParentEmail = "parent@example.com"

	role, err := ValidateRegistration(req, 0)
	require.NoError(t, err)
	assert.Equal(t, RoleChild, role)
}

func TestNewUser_AwardsWelcomeBadge(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	req := validRequest()
	req.Role = "school"
	req.Email = " Head@School.Example "

	u := NewUser("u-1", RoleSchool, req, "hash", DefaultCatalog().Badges, now)

	assert.Equal(t, "head@school.example", u.Email)
	assert.Equal(t, "The Johnson Family", u.SchoolName)
	assert.Equal(t, []string{"first-steps"}, u.Badges)
	assert.Zero(t, u.Points)
	assert.Equal(t, now, u.CreatedAt)
}

func TestParticipantKind(t *testing.T) {
	kind, ok := (&User{Role: RoleChild}).ParticipantKind()
	assert.True(t, ok)
	assert.Equal(t, KindIndividual, kind)

	kind, ok = (&User{Role: RoleSchool}).ParticipantKind()
	assert.True(t, ok)
	assert.Equal(t, KindSchool, kind)

	_, ok = (&User{Role: RoleAdmin}).ParticipantKind()
	assert.False(t, ok)
}

func TestMatchRole_PanicsOnUnknown(t *testing.T) {
	assert.Panics(t, func() { MatchRole[kindResult](Role("ghost"), roleKinds{}) })
}
