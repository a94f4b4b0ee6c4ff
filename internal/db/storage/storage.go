// Package storage declares the interface every user-store backend implements.
package storage

import (
	"context"

	"github.com/patric-chuzhbe/airpoints/internal/user"
)

// Storage is the full set of per-user-document operations.
//
// Lookup operations return models.ErrUserNotFound when no user matches;
// CreateUser and UpdateUser return models.ErrUserNameTaken on a userName
// unique-constraint violation. Any other failure is wrapped as an opaque
// storage error.
type Storage interface {
	CreateUser(ctx context.Context, usr *user.User) (string, error)

	GetUserByID(ctx context.Context, userID string) (*user.User, error)

	GetUserByUserName(ctx context.Context, userName string) (*user.User, error)

	UpdateUser(ctx context.Context, usr *user.User) error

	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error

	SaveComparisonList(ctx context.Context, userID string, items []string) error

	SaveHistory(ctx context.Context, userID string, entries []user.HistoryEntry) error

	Ping(ctx context.Context) error

	Close() error
}
