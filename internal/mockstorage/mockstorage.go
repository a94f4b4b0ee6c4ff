// Package mockstorage provides a testify-based mock implementation of the
// storage interface. It is used to simulate store behavior, including
// failures, in service and router tests.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/airpoints/internal/user"
)

// StorageMock is a testify mock that implements the user store interface.
type StorageMock struct {
	mock.Mock
}

// CreateUser mocks user creation and returns a generated ID.
func (m *StorageMock) CreateUser(ctx context.Context, usr *user.User) (string, error) {
	args := m.Called(ctx, usr)
	return args.String(0), args.Error(1)
}

// GetUserByID mocks fetching a user by their ID.
func (m *StorageMock) GetUserByID(ctx context.Context, userID string) (*user.User, error) {
	args := m.Called(ctx, userID)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Error(1)
}

// GetUserByUserName mocks fetching a user by their unique name.
func (m *StorageMock) GetUserByUserName(ctx context.Context, userName string) (*user.User, error) {
	args := m.Called(ctx, userName)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Error(1)
}

// UpdateUser mocks overwriting a user's profile fields.
func (m *StorageMock) UpdateUser(ctx context.Context, usr *user.User) error {
	args := m.Called(ctx, usr)
	return args.Error(0)
}

// UpdatePasswordHash mocks replacing a user's password hash.
func (m *StorageMock) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

// SaveComparisonList mocks persisting the comparison list.
func (m *StorageMock) SaveComparisonList(ctx context.Context, userID string, items []string) error {
	args := m.Called(ctx, userID, items)
	return args.Error(0)
}

// SaveHistory mocks persisting the history list.
func (m *StorageMock) SaveHistory(ctx context.Context, userID string, entries []user.HistoryEntry) error {
	args := m.Called(ctx, userID, entries)
	return args.Error(0)
}

// Ping mocks the storage health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks closing the storage and releasing resources.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
