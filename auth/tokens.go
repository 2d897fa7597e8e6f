package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

const (
	tokenBytes = 24
)

type (
	TokenIssuer interface {
		Issue() (string, error)
	}

	// RandomTokens issues 48 hex chars read from Rand (crypto/rand when nil)
	RandomTokens struct {
		Rand io.Reader
	}
)

func (r RandomTokens) Issue() (string, error) {
	src := r.Rand
	if src == nil {
		src = rand.Reader
	}
	var buf [tokenBytes]byte
	_, err := io.ReadFull(src, buf[:])
	if err != nil {
		return "", fmt.Errorf("unable to generate token, cause %w", err)
	}
	return hex.EncodeToString(buf[:]), nil
}
