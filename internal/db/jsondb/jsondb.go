// Package jsondb implements the user store on top of a single JSON file.
// All documents live in memory; the file is rewritten on Close.
package jsondb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/patric-chuzhbe/airpoints/internal/models"
	"github.com/patric-chuzhbe/airpoints/internal/user"
)

// JSONDB is a file-backed user store. It is safe for concurrent use: the
// cache maps are guarded by a single RWMutex.
type JSONDB struct {
	fileName string
	mu       sync.RWMutex
	Cache    CacheStruct
}

// CacheStruct is the serialized layout of the database file.
type CacheStruct struct {
	Users        map[string]*user.User
	UserNameToID map[string]string
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(dbFile, `{
	"Users": {},
	"UserNameToID": {}
}`)
	if err != nil {
		return err
	}
	return dbFile.Close()
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %s", err)
	}

	file, err2 := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err2 != nil {
		return fmt.Errorf("error opening file: %s", err2)
	}
	defer file.Close()

	_, err = file.Write(jsonData)
	if err != nil {
		return fmt.Errorf("error writing to file: %s", err)
	}

	return nil
}

func parseJSONFile(fileName string, cacheMap *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)

	return decoder.Decode(cacheMap)
}

// New opens (or creates) the database file and loads its content.
func New(fileName string) (*JSONDB, error) {
	theDB := JSONDB{
		fileName: fileName,
		Cache:    CacheStruct{},
	}

	err := parseJSONFile(theDB.fileName, &theDB.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := initDBFile(fileName); err != nil {
			return nil, err
		}
		if err := parseJSONFile(theDB.fileName, &theDB.Cache); err != nil {
			return nil, err
		}
	}

	if theDB.Cache.Users == nil {
		theDB.Cache.Users = map[string]*user.User{}
	}
	if theDB.Cache.UserNameToID == nil {
		theDB.Cache.UserNameToID = map[string]string{}
	}

	return &theDB, nil
}

// CreateUser stores a new user document under a generated UUID.
func (db *JSONDB) CreateUser(ctx context.Context, usr *user.User) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.Cache.UserNameToID[usr.UserName]; exists {
		return "", models.ErrUserNameTaken
	}

	stored := *usr
	stored.ID = uuid.New().String()

	db.Cache.Users[stored.ID] = &stored
	db.Cache.UserNameToID[stored.UserName] = stored.ID

	return stored.ID, nil
}

// GetUserByID fetches a user document by id.
func (db *JSONDB) GetUserByID(ctx context.Context, userID string) (*user.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.getUser(userID)
}

// GetUserByUserName fetches a user document by its unique name.
func (db *JSONDB) GetUserByUserName(ctx context.Context, userName string) (*user.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	userID, found := db.Cache.UserNameToID[userName]
	if !found {
		return nil, models.ErrUserNotFound
	}

	return db.getUser(userID)
}

// getUser copies the stored document out. The caller must hold the lock.
func (db *JSONDB) getUser(userID string) (*user.User, error) {
	usr, found := db.Cache.Users[userID]
	if !found {
		return nil, models.ErrUserNotFound
	}

	result := *usr

	return &result, nil
}

// UpdateUser overwrites the profile fields of an existing user document.
func (db *JSONDB) UpdateUser(ctx context.Context, usr *user.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	stored, found := db.Cache.Users[usr.ID]
	if !found {
		return models.ErrUserNotFound
	}

	if usr.UserName != stored.UserName {
		if _, exists := db.Cache.UserNameToID[usr.UserName]; exists {
			return models.ErrUserNameTaken
		}
		delete(db.Cache.UserNameToID, stored.UserName)
		db.Cache.UserNameToID[usr.UserName] = stored.ID
	}

	stored.UserName = usr.UserName
	stored.Email = usr.Email
	stored.Nationality = usr.Nationality
	stored.MainAirport = usr.MainAirport
	stored.PreferredCarriers = usr.PreferredCarriers
	stored.PreferredAlliances = usr.PreferredAlliances

	return nil
}

// UpdatePasswordHash replaces the stored hash for the given user.
func (db *JSONDB) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	stored, found := db.Cache.Users[userID]
	if !found {
		return models.ErrUserNotFound
	}

	stored.PasswordHash = passwordHash

	return nil
}

// SaveComparisonList persists the full comparison list for the given user.
func (db *JSONDB) SaveComparisonList(ctx context.Context, userID string, items []string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	stored, found := db.Cache.Users[userID]
	if !found {
		return models.ErrUserNotFound
	}

	stored.ComparisonList = append([]string(nil), items...)

	return nil
}

// SaveHistory persists the full history list for the given user.
func (db *JSONDB) SaveHistory(ctx context.Context, userID string, entries []user.HistoryEntry) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	stored, found := db.Cache.Users[userID]
	if !found {
		return models.ErrUserNotFound
	}

	stored.History = append([]user.HistoryEntry(nil), entries...)

	return nil
}

// Ping always succeeds for the file backend.
func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

// Close flushes the cache back to the database file.
func (db *JSONDB) Close() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return writeToJSONFile(db.fileName, db.Cache)
}
