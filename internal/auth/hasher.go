// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 WalletGate Contributors

// Package auth provides credential primitives and the authentication facade.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters. The iteration count is configurable; salt and key
// sizes are fixed by the stored-hash format.
const (
	DefaultIterations = 65536
	pbkdf2SaltLen     = 16 // salt length in bytes
	pbkdf2KeyLen      = 32 // derived key length in bytes (256 bits)
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// Hasher provides password hashing and verification.
type Hasher interface {
	// Hash produces a salted PBKDF2 hash of the password.
	Hash(password string) (string, error)

	// Verify reports whether the password matches the stored hash.
	// Malformed stored hashes verify as false; no error escapes.
	Verify(password, encoded string) bool
}

// PBKDF2Hasher implements Hasher using PBKDF2-HMAC-SHA256.
// Hashes are encoded as "iterations:base64(salt):base64(key)".
type PBKDF2Hasher struct {
	iterations int
}

// NewPBKDF2Hasher creates a PBKDF2Hasher. A non-positive iteration
// count falls back to DefaultIterations.
func NewPBKDF2Hasher(iterations int) *PBKDF2Hasher {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &PBKDF2Hasher{iterations: iterations}
}

// Hash produces a salted PBKDF2 hash of the password.
func (h *PBKDF2Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, pbkdf2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := pbkdf2.Key([]byte(password), salt, h.iterations, pbkdf2KeyLen, sha256.New)

	encoded := strconv.Itoa(h.iterations) + ":" +
		base64.StdEncoding.EncodeToString(salt) + ":" +
		base64.StdEncoding.EncodeToString(key)

	return encoded, nil
}

// Verify reports whether the password matches the stored hash.
// The derived key is recomputed at the stored key's length so the
// comparison is always over equal-length byte slices.
func (h *PBKDF2Hasher) Verify(password, encoded string) bool {
	parts := strings.Split(encoded, ":")
	if len(parts) != 3 {
		return false
	}

	iterations, err := strconv.Atoi(parts[0])
	if err != nil || iterations <= 0 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil || len(salt) == 0 {
		return false
	}

	expected, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil || len(expected) == 0 {
		return false
	}

	computed := pbkdf2.Key([]byte(password), salt, iterations, len(expected), sha256.New)

	return subtle.ConstantTimeCompare(computed, expected) == 1
}
