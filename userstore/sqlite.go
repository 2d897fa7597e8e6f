package userstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/boligweb/authserver/internal/logutil"
)

type (
	SQLiteStore struct {
		db   *sql.DB
		path string
	}
)

func OpenSQLite(ctx context.Context, dir string) (*SQLiteStore, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, fmt.Errorf("unable to create directory %v to store users, cause %w", dir, err)
	}
	dbpath := filepath.Join(dir, SQLiteName)
	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%v?_journal=wal&mode=rwc", dbpath))
	if err != nil {
		return nil, fmt.Errorf("unable to open %v, cause %v", dbpath, err)
	}
	err = conn.PingContext(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to ping user database %v, cause %v", dbpath, err)
	}
	s := &SQLiteStore{db: conn, path: dbpath}
	err = s.init(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to init user database %v, cause %v", dbpath, err)
	}
	return s, nil
}

func (s *SQLiteStore) init(ctx context.Context) error {
	for _, cmd := range []string{
		`create table if not exists users(
			seq integer not null primary key,
			id text not null unique,
			email text not null,
			first_name text not null,
			last_name text not null,
			phone text not null,
			password_hash text not null,
			created_at text not null
		)`,
		`create unique index if not exists uidx_users_email on users(lower(email))`,
	} {
		_, err := s.db.ExecContext(ctx, cmd)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) LoadAll(ctx context.Context) []User {
	log := logutil.GetOrDefault(ctx).With().Str("store.path", s.path).Logger()
	rows, err := s.db.QueryContext(ctx, `select id, email, first_name, last_name, phone, password_hash, created_at
	from users order by seq asc`)
	if err != nil {
		log.Warn().Err(err).Msg("Unable to read user store, treating it as empty")
		return []User{}
	}
	defer rows.Close()
	out := []User{}
	for rows.Next() {
		var u User
		var createdAt string
		err = rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Phone, &u.PasswordHash, &createdAt)
		if err != nil {
			log.Warn().Err(err).Msg("Unable to scan user row, treating store as empty")
			return []User{}
		}
		u.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			log.Warn().Err(err).Str("user.id", u.ID).Msg("Invalid creation timestamp")
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		log.Warn().Err(err).Msg("Unable to read user store, treating it as empty")
		return []User{}
	}
	return out
}

func (s *SQLiteStore) SaveAll(ctx context.Context, users []User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return StorageError{Path: s.path, cause: err}
	}
	defer tx.Rollback()
	_, err = tx.ExecContext(ctx, `delete from users`)
	if err != nil {
		return StorageError{Path: s.path, cause: err}
	}
	for i, u := range users {
		_, err = tx.ExecContext(ctx, `insert into users(seq, id, email, first_name, last_name, phone, password_hash, created_at)
		values (?, ?, ?, ?, ?, ?, ?, ?)`,
			i, u.ID, u.Email, u.FirstName, u.LastName, u.Phone, u.PasswordHash, FormatTime(u.CreatedAt))
		if err != nil {
			return StorageError{Path: s.path, cause: fmt.Errorf("unable to insert user %v, cause %w", u.ID, err)}
		}
	}
	err = tx.Commit()
	if err != nil {
		return StorageError{Path: s.path, cause: err}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
