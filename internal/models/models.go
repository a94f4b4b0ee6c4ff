// Package models contains the request/response shapes exchanged over the
// HTTP boundary and the sentinel errors every expected failure is classified
// into. Handlers map these errors to HTTP statuses with errors.Is.
package models

import "errors"

// RegisterRequest is the registration payload. Password2 must repeat Password.
type RegisterRequest struct {
	UserName           string   `json:"userName" validate:"required"`
	Password           string   `json:"password" validate:"required"`
	Password2          string   `json:"password2" validate:"required"`
	Email              string   `json:"email" validate:"required,email"`
	Nationality        string   `json:"nationality" validate:"required"`
	MainAirport        string   `json:"mainAirport" validate:"required"`
	PreferredCarriers  []string `json:"preferenceCarrier"`
	PreferredAlliances []string `json:"preferenceAlliance"`
}

type LoginRequest struct {
	UserName string `json:"userName" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the signed token the client presents on
// subsequent requests.
type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ProfileResponse is the user record as exposed to clients.
// The password hash never appears here.
type ProfileResponse struct {
	UserName           string   `json:"userName"`
	Email              string   `json:"email"`
	Nationality        string   `json:"nationality"`
	MainAirport        string   `json:"mainAirport"`
	PreferredCarriers  []string `json:"preferenceCarrier"`
	PreferredAlliances []string `json:"preferenceAlliance"`
}

// ProfileUpdateRequest applies only the fields present in the request body;
// nil pointers mean "leave unchanged".
type ProfileUpdateRequest struct {
	UserName           *string   `json:"userName"`
	Email              *string   `json:"email"`
	Nationality        *string   `json:"nationality"`
	MainAirport        *string   `json:"mainAirport"`
	PreferredCarriers  *[]string `json:"preferenceCarrier"`
	PreferredAlliances *[]string `json:"preferenceAlliance"`
}

type PasswordChangeRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// ErrValidation marks missing or malformed input. Wrapped errors carry the
// field detail, e.g. fmt.Errorf("%w: missing required field: email", ErrValidation).
var ErrValidation = errors.New("validation failed")

// ErrPasswordsDoNotMatch is returned when the registration password and its
// confirmation differ.
var ErrPasswordsDoNotMatch = errors.New("Passwords do not match")

// ErrUserNameTaken is returned when an insert or rename violates the
// userName unique constraint.
var ErrUserNameTaken = errors.New("User name already taken")

// ErrUserNotFound is returned when no user exists for the given id or name.
var ErrUserNotFound = errors.New("user not found")

// ErrIncorrectPassword is returned by authentication on a hash mismatch.
var ErrIncorrectPassword = errors.New("Incorrect password")

// ErrIncorrectOldPassword is returned by the password change operation when
// the presented old password does not verify against the stored hash.
var ErrIncorrectOldPassword = errors.New("Old password is incorrect")

// ErrComparisonListFull rejects adds that would push the comparison list past
// its cap. The list is never truncated.
var ErrComparisonListFull = errors.New("Comparison list has reached the maximum limit of 5")

// ErrHistoryListFull rejects adds that would push the history past its cap.
var ErrHistoryListFull = errors.New("History has reached the maximum limit of 20")

// ErrUnauthenticated is returned when a request carries no token, a token with
// a bad signature, or a malformed one. Verification fails closed.
var ErrUnauthenticated = errors.New("authentication required")

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)
