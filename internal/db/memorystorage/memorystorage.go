// Package memorystorage provides a purely in-memory user store. It reuses the
// jsondb implementation without the file persistence.
package memorystorage

import (
	"context"

	"github.com/patric-chuzhbe/airpoints/internal/db/jsondb"
	"github.com/patric-chuzhbe/airpoints/internal/user"
)

type MemoryStorage struct {
	*jsondb.JSONDB
}

func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: &jsondb.JSONDB{
			Cache: jsondb.CacheStruct{
				Users:        map[string]*user.User{},
				UserNameToID: map[string]string{},
			},
		},
	}, nil
}

func (theStorage *MemoryStorage) Close() error {
	return nil
}

func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}
