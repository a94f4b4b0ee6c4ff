// Package service implements the user-record operations: registration,
// authentication, profile and password management, and the bounded
// comparison/history lists.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/airpoints/internal/models"
	"github.com/patric-chuzhbe/airpoints/internal/user"
)

type userKeeper interface {
	CreateUser(ctx context.Context, usr *user.User) (string, error)

	GetUserByID(ctx context.Context, userID string) (*user.User, error)

	GetUserByUserName(ctx context.Context, userName string) (*user.User, error)

	UpdateUser(ctx context.Context, usr *user.User) error

	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error

	SaveComparisonList(ctx context.Context, userID string, items []string) error

	SaveHistory(ctx context.Context, userID string, entries []user.HistoryEntry) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	userKeeper
	pinger
}

type passwordHasher interface {
	HashPassword(plaintext string) (string, error)
	VerifyPassword(plaintext, hash string) bool
}

// Service owns the user document and every read/update operation on it.
type Service struct {
	db       storage
	hasher   passwordHasher
	validate *validator.Validate
}

func New(db storage, hasher passwordHasher) *Service {
	return &Service{
		db:       db,
		hasher:   hasher,
		validate: validator.New(),
	}
}

// Register validates the registration input, hashes the password and inserts
// the new user document. Validation is fail-fast: the first failing check
// wins. Returns the success message on completion.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (string, error) {
	if req.Password != req.Password2 {
		return "", models.ErrPasswordsDoNotMatch
	}

	if req.Email == "" {
		return "", fmt.Errorf("%w: missing required field: email", models.ErrValidation)
	}

	if req.Nationality == "" {
		return "", fmt.Errorf("%w: missing required field: nationality", models.ErrValidation)
	}

	if req.MainAirport == "" {
		return "", fmt.Errorf("%w: missing required field: mainAirport", models.ErrValidation)
	}

	// Presence checks run first; format checks only after every required field
	// is there.
	if err := s.validate.Var(req.Email, "email"); err != nil {
		return "", fmt.Errorf("%w: invalid email format", models.ErrValidation)
	}

	passwordHash, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		return "", err
	}

	_, err = s.db.CreateUser(ctx, &user.User{
		UserName:           req.UserName,
		PasswordHash:       passwordHash,
		Email:              req.Email,
		Nationality:        req.Nationality,
		MainAirport:        req.MainAirport,
		PreferredCarriers:  req.PreferredCarriers,
		PreferredAlliances: req.PreferredAlliances,
	})
	if err != nil {
		if errors.Is(err, models.ErrUserNameTaken) {
			return "", err
		}
		return "", fmt.Errorf("there was an error creating the user: %w", err)
	}

	return fmt.Sprintf("User %s successfully registered", req.UserName), nil
}

// Authenticate looks the user up by name and verifies the password against
// the stored hash. On success the full record is returned; the caller decides
// what to expose or sign.
func (s *Service) Authenticate(ctx context.Context, userName, password string) (*user.User, error) {
	usr, err := s.db.GetUserByUserName(ctx, userName)
	if err != nil {
		return nil, err
	}

	if !s.hasher.VerifyPassword(password, usr.PasswordHash) {
		return nil, models.ErrIncorrectPassword
	}

	return usr, nil
}

// GetByID returns the user record with the password hash stripped.
func (s *Service) GetByID(ctx context.Context, userID string) (*user.User, error) {
	usr, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	usr.PasswordHash = ""

	return usr, nil
}

// GetByUserName returns the user record with the password hash stripped.
func (s *Service) GetByUserName(ctx context.Context, userName string) (*user.User, error) {
	usr, err := s.db.GetUserByUserName(ctx, userName)
	if err != nil {
		return nil, err
	}

	usr.PasswordHash = ""

	return usr, nil
}

// UpdateProfile applies only the provided fields to the stored document and
// re-runs the field validators.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req models.ProfileUpdateRequest) (*user.User, error) {
	usr, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.UserName != nil {
		usr.UserName = *req.UserName
	}
	if req.Email != nil {
		usr.Email = *req.Email
	}
	if req.Nationality != nil {
		usr.Nationality = *req.Nationality
	}
	if req.MainAirport != nil {
		usr.MainAirport = *req.MainAirport
	}
	if req.PreferredCarriers != nil {
		usr.PreferredCarriers = *req.PreferredCarriers
	}
	if req.PreferredAlliances != nil {
		usr.PreferredAlliances = *req.PreferredAlliances
	}

	if usr.UserName == "" {
		return nil, fmt.Errorf("%w: missing required field: userName", models.ErrValidation)
	}
	if usr.Email == "" {
		return nil, fmt.Errorf("%w: missing required field: email", models.ErrValidation)
	}
	if usr.Nationality == "" {
		return nil, fmt.Errorf("%w: missing required field: nationality", models.ErrValidation)
	}
	if usr.MainAirport == "" {
		return nil, fmt.Errorf("%w: missing required field: mainAirport", models.ErrValidation)
	}
	if err := s.validate.Var(usr.Email, "email"); err != nil {
		return nil, fmt.Errorf("%w: invalid email format", models.ErrValidation)
	}

	if err := s.db.UpdateUser(ctx, usr); err != nil {
		return nil, err
	}

	usr.PasswordHash = ""

	return usr, nil
}

// ChangePassword verifies the old password and replaces the stored hash with
// the hash of the new one.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) (string, error) {
	if oldPassword == "" {
		return "", fmt.Errorf("%w: missing required field: oldPassword", models.ErrValidation)
	}
	if newPassword == "" {
		return "", fmt.Errorf("%w: missing required field: newPassword", models.ErrValidation)
	}

	usr, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}

	if !s.hasher.VerifyPassword(oldPassword, usr.PasswordHash) {
		return "", models.ErrIncorrectOldPassword
	}

	passwordHash, err := s.hasher.HashPassword(newPassword)
	if err != nil {
		return "", err
	}

	if err := s.db.UpdatePasswordHash(ctx, userID, passwordHash); err != nil {
		return "", err
	}

	return "Password successfully updated", nil
}

// GetComparisonList returns the user's comparison list.
func (s *Service) GetComparisonList(ctx context.Context, userID string) ([]string, error) {
	usr, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return normalizeItems(usr.ComparisonList), nil
}

// AddToComparisonList adds an item to the comparison list with set semantics:
// re-adding a present member is a no-op success, and an add that would push
// the list past its cap is rejected without truncation.
//
// The size check and the save are separate store round-trips; two concurrent
// adds near the cap can jointly exceed it. Accepted limitation.
func (s *Service) AddToComparisonList(ctx context.Context, userID, itemID string) ([]string, error) {
	usr, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(usr.ComparisonList) >= user.MaxComparisonItems {
		return nil, models.ErrComparisonListFull
	}

	if funk.ContainsString(usr.ComparisonList, itemID) {
		return normalizeItems(usr.ComparisonList), nil
	}

	updated := append(normalizeItems(usr.ComparisonList), itemID)
	if err := s.db.SaveComparisonList(ctx, userID, updated); err != nil {
		return nil, err
	}

	return updated, nil
}

// RemoveFromComparisonList removes an item from the comparison list.
// Removing an absent member is a no-op success.
func (s *Service) RemoveFromComparisonList(ctx context.Context, userID, itemID string) ([]string, error) {
	usr, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	updated := funk.FilterString(normalizeItems(usr.ComparisonList), func(item string) bool {
		return item != itemID
	})
	if err := s.db.SaveComparisonList(ctx, userID, updated); err != nil {
		return nil, err
	}

	return updated, nil
}

// GetHistory returns the user's saved comparison snapshots.
func (s *Service) GetHistory(ctx context.Context, userID string) ([]user.HistoryEntry, error) {
	usr, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return normalizeEntries(usr.History), nil
}

// AddToHistory appends a snapshot to the history unless an entry with the
// same ID is already present. An add that would push the history past its cap
// is rejected. Entries without an ID get a generated one; entries without a
// timestamp are stamped with the current time.
//
// Same read-then-write race as AddToComparisonList; accepted limitation.
func (s *Service) AddToHistory(ctx context.Context, userID string, entry user.HistoryEntry) ([]user.HistoryEntry, error) {
	usr, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(usr.History) >= user.MaxHistoryEntries {
		return nil, models.ErrHistoryListFull
	}

	for _, present := range usr.History {
		if present.ID == entry.ID {
			return normalizeEntries(usr.History), nil
		}
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.SavedAt.IsZero() {
		entry.SavedAt = time.Now()
	}

	updated := append(normalizeEntries(usr.History), entry)
	if err := s.db.SaveHistory(ctx, userID, updated); err != nil {
		return nil, err
	}

	return updated, nil
}

// RemoveFromHistory removes the entry with the given ID from the history.
// Removing an absent entry is a no-op success.
func (s *Service) RemoveFromHistory(ctx context.Context, userID, entryID string) ([]user.HistoryEntry, error) {
	usr, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	updated := make([]user.HistoryEntry, 0, len(usr.History))
	for _, present := range usr.History {
		if present.ID != entryID {
			updated = append(updated, present)
		}
	}
	if err := s.db.SaveHistory(ctx, userID, updated); err != nil {
		return nil, err
	}

	return updated, nil
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func normalizeItems(items []string) []string {
	if items == nil {
		return []string{}
	}

	return items
}

func normalizeEntries(entries []user.HistoryEntry) []user.HistoryEntry {
	if entries == nil {
		return []user.HistoryEntry{}
	}

	return entries
}
