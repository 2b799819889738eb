package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Params are the Argon2id cost parameters written into every hash.
type Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams are used by HashPassword.
var DefaultParams = Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// MaxPasswordLength bounds hashing cost for oversized inputs.
const MaxPasswordLength = 1024

// ErrInvalidHash is returned for a stored hash that cannot be parsed.
var ErrInvalidHash = errors.New("invalid password hash")

// HashPassword returns the PHC-formatted Argon2id hash of password.
func HashPassword(password string) (string, error) {
	return hashWithParams(password, DefaultParams)
}

func hashWithParams(password string, p Params) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	if len(password) > MaxPasswordLength {
		return "", errors.New("password exceeds maximum length")
	}

	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory,
		p.Iterations,
		p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword reports whether password matches encodedHash.
// A malformed hash never matches; the parse failure is not surfaced so
// callers cannot tell it apart from a wrong password.
func VerifyPassword(encodedHash, password string) bool {
	if len(password) > MaxPasswordLength {
		return false
	}

	salt, key, p, err := decodeHash(encodedHash)
	if err != nil {
		return false
	}

	candidate := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	return subtle.ConstantTimeCompare(key, candidate) == 1
}

// decodeHash splits a PHC string into salt, key and parameters.
func decodeHash(encodedHash string) (salt, key []byte, p Params, err error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, p, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, nil, p, ErrInvalidHash
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return nil, nil, p, ErrInvalidHash
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, p, ErrInvalidHash
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, nil, p, ErrInvalidHash
	}

	//nolint:gosec // key length is bounded by what HashPassword wrote
	p.KeyLength = uint32(len(key))
	return salt, key, p, nil
}
