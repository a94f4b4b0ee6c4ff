package jsondb

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/airpoints/internal/models"
	"github.com/patric-chuzhbe/airpoints/internal/user"
)

func newTestUser(userName string) *user.User {
	return &user.User{
		UserName:           userName,
		PasswordHash:       "$2a$04$fakehash",
		Email:              "a@x.com",
		Nationality:        "CA",
		MainAirport:        "YYZ",
		PreferredCarriers:  []string{"AC"},
		PreferredAlliances: []string{"Star Alliance"},
	}
}

func TestCreateAndGetUser(t *testing.T) {
	ctx := context.Background()
	theDB, err := New(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)

	userID, err := theDB.CreateUser(ctx, newTestUser("alice"))
	require.NoError(t, err)
	require.NotEmpty(t, userID)

	t.Run("by id", func(t *testing.T) {
		usr, err := theDB.GetUserByID(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "alice", usr.UserName)
		assert.Equal(t, userID, usr.ID)
	})

	t.Run("by user name", func(t *testing.T) {
		usr, err := theDB.GetUserByUserName(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, userID, usr.ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := theDB.GetUserByID(ctx, "no-such-id")
		assert.ErrorIs(t, err, models.ErrUserNotFound)
	})

	t.Run("duplicate user name", func(t *testing.T) {
		_, err := theDB.CreateUser(ctx, newTestUser("alice"))
		assert.ErrorIs(t, err, models.ErrUserNameTaken)
	})
}

func TestUpdateUserMaintainsNameIndex(t *testing.T) {
	ctx := context.Background()
	theDB, err := New(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)

	aliceID, err := theDB.CreateUser(ctx, newTestUser("alice"))
	require.NoError(t, err)
	_, err = theDB.CreateUser(ctx, newTestUser("bob"))
	require.NoError(t, err)

	t.Run("rename to a taken name", func(t *testing.T) {
		renamed := newTestUser("bob")
		renamed.ID = aliceID
		assert.ErrorIs(t, theDB.UpdateUser(ctx, renamed), models.ErrUserNameTaken)
	})

	t.Run("rename to a free name", func(t *testing.T) {
		renamed := newTestUser("carol")
		renamed.ID = aliceID
		require.NoError(t, theDB.UpdateUser(ctx, renamed))

		usr, err := theDB.GetUserByUserName(ctx, "carol")
		require.NoError(t, err)
		assert.Equal(t, aliceID, usr.ID)

		_, err = theDB.GetUserByUserName(ctx, "alice")
		assert.ErrorIs(t, err, models.ErrUserNotFound)
	})
}

func TestGetUserByIDReturnsACopy(t *testing.T) {
	ctx := context.Background()
	theDB, err := New(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)

	userID, err := theDB.CreateUser(ctx, newTestUser("alice"))
	require.NoError(t, err)

	usr, err := theDB.GetUserByID(ctx, userID)
	require.NoError(t, err)
	usr.UserName = "mallory"

	stored, err := theDB.GetUserByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.UserName)
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	fileName := filepath.Join(t.TempDir(), "db.json")

	theDB, err := New(fileName)
	require.NoError(t, err)

	userID, err := theDB.CreateUser(ctx, newTestUser("alice"))
	require.NoError(t, err)

	require.NoError(t, theDB.UpdatePasswordHash(ctx, userID, "$2a$04$newhash"))
	require.NoError(t, theDB.SaveComparisonList(ctx, userID, []string{"A", "B"}))
	require.NoError(t, theDB.SaveHistory(ctx, userID, []user.HistoryEntry{
		{ID: "snapshot-1", Airlines: []string{"AC", "LH"}, SavedAt: time.Now().UTC()},
	}))

	require.NoError(t, theDB.Close())

	reopened, err := New(fileName)
	require.NoError(t, err)

	usr, err := reopened.GetUserByUserName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, userID, usr.ID)
	assert.Equal(t, []string{"A", "B"}, usr.ComparisonList)
	require.Len(t, usr.History, 1)
	assert.Equal(t, "snapshot-1", usr.History[0].ID)
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	theDB, err := New(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)

	aliceID, err := theDB.CreateUser(ctx, newTestUser("alice"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func(i int) {
			defer wg.Done()
			_, err := theDB.CreateUser(ctx, newTestUser(fmt.Sprintf("user-%d", i)))
			assert.NoError(t, err)
		}(i)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, theDB.SaveComparisonList(ctx, aliceID, []string{fmt.Sprintf("item-%d", i)}))
		}(i)
		go func() {
			defer wg.Done()
			_, err := theDB.GetUserByUserName(ctx, "alice")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	usr, err := theDB.GetUserByID(ctx, aliceID)
	require.NoError(t, err)
	assert.Len(t, usr.ComparisonList, 1)
}

func TestSaveOnMissingUser(t *testing.T) {
	ctx := context.Background()
	theDB, err := New(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)

	assert.ErrorIs(t, theDB.SaveComparisonList(ctx, "no-such-id", []string{"A"}), models.ErrUserNotFound)
	assert.ErrorIs(t, theDB.SaveHistory(ctx, "no-such-id", nil), models.ErrUserNotFound)
	assert.ErrorIs(t, theDB.UpdatePasswordHash(ctx, "no-such-id", "hash"), models.ErrUserNotFound)
}
