package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	SchemeSHA256   = "sha256"
	SchemeArgon2ID = "argon2id"

	argon2Prefix = "$argon2id$"

	// upper bounds accepted from a stored digest, in passes and KiB
	maxArgon2Time   = 64
	maxArgon2Memory = 1 << 20
)

type (
	Hasher interface {
		Hash(plain string) (string, error)
		Verify(plain, digest string) bool
	}

	SHA256Hasher struct{}

	Argon2Hasher struct {
		Time    uint32
		Memory  uint32
		Threads uint8
		KeyLen  uint32
		Rand    io.Reader
	}
)

func HasherFor(scheme string) (Hasher, error) {
	switch scheme {
	case "", SchemeSHA256:
		return SHA256Hasher{}, nil
	case SchemeArgon2ID:
		return DefaultArgon2(), nil
	default:
		return nil, fmt.Errorf("unknown password scheme %q", scheme)
	}
}

func sha256Hex(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

func (SHA256Hasher) Hash(plain string) (string, error) {
	return sha256Hex(plain), nil
}

func (SHA256Hasher) Verify(plain, digest string) bool {
	return verifyAny(plain, digest)
}

func DefaultArgon2() Argon2Hasher {
	// 7 passes over 10 MB, same trade-off as a single pass over 64 MB
	return Argon2Hasher{
		Time:    7,
		Memory:  10 * 1024,
		Threads: 2,
		KeyLen:  32,
		Rand:    rand.Reader,
	}
}

func (a Argon2Hasher) Hash(plain string) (string, error) {
	src := a.Rand
	if src == nil {
		src = rand.Reader
	}
	salt := make([]byte, 16)
	_, err := io.ReadFull(src, salt)
	if err != nil {
		return "", fmt.Errorf("unable to generate salt, cause %w", err)
	}
	key := argon2.IDKey([]byte(plain), salt, a.Time, a.Memory, a.Threads, a.KeyLen)
	return fmt.Sprintf("%vv=%d$m=%d,t=%d,p=%d$%v$%v", argon2Prefix, argon2.Version, a.Memory, a.Time, a.Threads,
		base64.RawStdEncoding.EncodeToString(salt), base64.RawStdEncoding.EncodeToString(key)), nil
}

func (a Argon2Hasher) Verify(plain, digest string) bool {
	return verifyAny(plain, digest)
}

func verifyAny(plain, digest string) bool {
	if strings.HasPrefix(digest, argon2Prefix) {
		return verifyArgon2(plain, digest)
	}
	return subtle.ConstantTimeCompare([]byte(sha256Hex(plain)), []byte(digest)) == 1
}

func verifyArgon2(plain, digest string) bool {
	// $argon2id$v=19$m=10240,t=7,p=2$salt$key
	parts := strings.Split(digest, "$")
	if len(parts) != 6 {
		return false
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}
	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false
	}
	// argon2.IDKey panics on zero passes or zero threads
	if time < 1 || threads < 1 || time > maxArgon2Time || memory > maxArgon2Memory {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return false
	}
	actual := argon2.IDKey([]byte(plain), salt, time, memory, threads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(actual, expected) == 1
}
