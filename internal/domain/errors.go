package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrUnknownWasteType   = errors.New("unknown waste type")
	ErrInvalidWeight      = errors.New("weight must be greater than zero")
	ErrNoSelectionMade    = errors.New("no answer selected")
	ErrInvalidOption      = errors.New("selected option does not exist")
	ErrInsufficientPoints = errors.New("not enough eco-points")
	ErrRewardUnavailable  = errors.New("reward is not available")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidTransition  = errors.New("invalid wizard transition")
	ErrInvalidKind        = errors.New("invalid participant type")

	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrSessionNotFound  = errors.New("session not found")
	ErrRewardNotFound   = errors.New("reward not found")
	ErrQuestionNotFound = errors.New("question not found")

	ErrConflict       = errors.New("concurrent update, try again")
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalError  = errors.New("internal server error")
)

// InsufficientPointsError reports how many points a user is missing for a reward.
type InsufficientPointsError struct {
	Cost      int64
	Balance   int64
	Shortfall int64
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("not enough eco-points: need %d more", e.Shortfall)
}

// Is lets errors.Is(err, ErrInsufficientPoints) match.
func (e *InsufficientPointsError) Is(target error) bool {
	return target == ErrInsufficientPoints
}

// ValidationError reports a rejected registration field.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrRewardNotFound) ||
		errors.Is(err, ErrQuestionNotFound)
}

// IsValidationError checks if an error was caused by bad caller input
func IsValidationError(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	return errors.Is(err, ErrUnknownWasteType) ||
		errors.Is(err, ErrInvalidWeight) ||
		errors.Is(err, ErrNoSelectionMade) ||
		errors.Is(err, ErrInvalidOption) ||
		errors.Is(err, ErrPasswordMismatch) ||
		errors.Is(err, ErrPasswordTooShort) ||
		errors.Is(err, ErrInvalidRole) ||
		errors.Is(err, ErrInvalidKind) ||
		errors.Is(err, ErrInvalidRequest)
}

// IsRejectedError checks if an operation was refused because its preconditions were not met
func IsRejectedError(err error) bool {
	return errors.Is(err, ErrInsufficientPoints) ||
		errors.Is(err, ErrRewardUnavailable) ||
		errors.Is(err, ErrInvalidTransition)
}
