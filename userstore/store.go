// Package userstore keeps user records.
//
// Every mutation is a read-all, modify, write-all cycle. Nothing in this
// package coordinates two processes writing the same store: the last
// writer wins.
package userstore

import (
	"context"
	"fmt"
)

const (
	FileName   = "usersStore.json"
	SQLiteName = "users.db"
)

type (
	Store interface {
		// LoadAll never fails, a store that cannot be read is an empty store
		LoadAll(ctx context.Context) []User
		SaveAll(ctx context.Context, users []User) error
	}
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Open returns the store for backend rooted at dir along with a function
// that releases it.
func Open(ctx context.Context, backend, dir string) (Store, func() error, error) {
	switch backend {
	case "", BackendJSON:
		s, err := OpenFile(dir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil
	case BackendSQLite:
		s, err := OpenSQLite(ctx, dir)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown user store backend %q", backend)
	}
}
