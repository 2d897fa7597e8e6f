package userstore

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	// TimeLayout always carries milliseconds, 2024-03-01T10:00:00.000Z
	TimeLayout = "2006-01-02T15:04:05.000Z07:00"
)

type (
	// User is the persisted form of an account, PasswordHash included.
	User struct {
		ID           string    `json:"id"`
		Email        string    `json:"email"`
		FirstName    string    `json:"firstName"`
		LastName     string    `json:"lastName"`
		Phone        string    `json:"phone"`
		PasswordHash string    `json:"passwordHash"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	// PublicUser is what leaves the process, it has no way to carry the hash.
	PublicUser struct {
		ID        string    `json:"id"`
		Email     string    `json:"email"`
		FirstName string    `json:"firstName"`
		LastName  string    `json:"lastName"`
		Phone     string    `json:"phone"`
		CreatedAt time.Time `json:"createdAt"`
	}

	document struct {
		Users []json.RawMessage `json:"users"`
	}
)

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func (u User) MarshalJSON() ([]byte, error) {
	type plain User
	return json.Marshal(struct {
		plain
		CreatedAt string `json:"createdAt"`
	}{plain: plain(u), CreatedAt: FormatTime(u.CreatedAt)})
}

func (p PublicUser) MarshalJSON() ([]byte, error) {
	type plain PublicUser
	return json.Marshal(struct {
		plain
		CreatedAt string `json:"createdAt"`
	}{plain: plain(p), CreatedAt: FormatTime(p.CreatedAt)})
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
	}
}

// FindByEmail returns the index of the user with the given email,
// compared case-insensitively, or -1.
func FindByEmail(users []User, email string) int {
	for i, u := range users {
		if strings.EqualFold(u.Email, email) {
			return i
		}
	}
	return -1
}

func FindByID(users []User, id string) int {
	for i, u := range users {
		if u.ID == id {
			return i
		}
	}
	return -1
}
