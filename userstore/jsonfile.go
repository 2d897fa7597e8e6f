package userstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/boligweb/authserver/internal/logutil"
)

type (
	FileStore struct {
		path string

		mu sync.Mutex
		// set when the last load dropped data, the next save keeps
		// a copy of the file before replacing it
		lossy bool
	}
)

// OpenFile returns a store backed by usersStore.json inside dir,
// dir is created if needed but the file itself is only written on save.
func OpenFile(dir string) (*FileStore, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, fmt.Errorf("unable to create directory %v to store users, cause %w", dir, err)
	}
	return &FileStore{path: filepath.Join(dir, FileName)}, nil
}

func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) LoadAll(ctx context.Context) []User {
	log := logutil.GetOrDefault(ctx).With().Str("store.path", f.path).Logger()
	buf, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		f.setLossy(false)
		return []User{}
	} else if err != nil {
		log.Warn().Err(err).Msg("Unable to read user store, treating it as empty")
		f.setLossy(true)
		return []User{}
	}
	var doc document
	err = json.Unmarshal(buf, &doc)
	if err != nil {
		log.Warn().Err(err).Msg("User store is not valid JSON, treating it as empty")
		f.setLossy(len(bytes.TrimSpace(buf)) > 0)
		return []User{}
	}
	users := make([]User, 0, len(doc.Users))
	lossy := false
	for i, raw := range doc.Users {
		u, err := decodeUser(raw)
		if err != nil {
			log.Warn().Err(err).Int("record", i).Msg("Skipping unreadable user record")
			lossy = true
			continue
		}
		users = append(users, u)
	}
	f.setLossy(lossy)
	return users
}

func (f *FileStore) SaveAll(ctx context.Context, users []User) error {
	if users == nil {
		users = []User{}
	}
	buf, err := json.MarshalIndent(struct {
		Users []User `json:"users"`
	}{Users: users}, "", "  ")
	if err != nil {
		return StorageError{Path: f.path, cause: err}
	}
	err = f.preserveLossy(ctx)
	if err != nil {
		return StorageError{Path: f.path, cause: err}
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".usersStore-*.json")
	if err != nil {
		return StorageError{Path: f.path, cause: err}
	}
	_, err = tmp.Write(buf)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return StorageError{Path: f.path, cause: err}
	}
	err = os.Rename(tmp.Name(), f.path)
	if err != nil {
		os.Remove(tmp.Name())
		return StorageError{Path: f.path, cause: err}
	}
	return nil
}

func (f *FileStore) setLossy(v bool) {
	f.mu.Lock()
	f.lossy = v
	f.mu.Unlock()
}

// preserveLossy copies the current file aside when the last load could not
// read all of it, so a rewrite never destroys the only copy of a user.
func (f *FileStore) preserveLossy(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.lossy {
		return nil
	}
	buf, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		f.lossy = false
		return nil
	} else if err != nil {
		return fmt.Errorf("unable to back up unreadable user store, cause %w", err)
	}
	backup := fmt.Sprintf("%v.corrupt-%d", f.path, time.Now().UnixMilli())
	err = os.WriteFile(backup, buf, 0600)
	if err != nil {
		return fmt.Errorf("unable to back up unreadable user store, cause %w", err)
	}
	log := logutil.GetOrDefault(ctx)
	log.Warn().Str("store.backup", backup).Msg("Kept a copy of the user store before overwriting it")
	f.lossy = false
	return nil
}

// decodeUser reads one record. Scalars of the wrong type (a phone written
// as a number) are converted to text instead of dropping the record.
func decodeUser(raw json.RawMessage) (User, error) {
	var u User
	if err := json.Unmarshal(raw, &u); err == nil {
		return u, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return User{}, err
	} else if fields == nil {
		return User{}, errors.New("user record is null")
	}
	text := func(name string) string {
		switch v := fields[name].(type) {
		case string:
			return v
		case json.Number:
			return v.String()
		case bool:
			return strconv.FormatBool(v)
		}
		return ""
	}
	u = User{
		ID:           text("id"),
		Email:        text("email"),
		FirstName:    text("firstName"),
		LastName:     text("lastName"),
		Phone:        text("phone"),
		PasswordHash: text("passwordHash"),
	}
	if u.ID == "" || u.Email == "" {
		return User{}, errors.New("user record without id or email")
	}
	if created := text("createdAt"); created != "" {
		t, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return User{}, fmt.Errorf("invalid createdAt %q, cause %w", created, err)
		}
		u.CreatedAt = t
	}
	return u, nil
}
