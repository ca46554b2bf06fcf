// Package cryptox implements the credential module: one-way, salted password
// hashing for at-rest storage and verification against a stored digest.
package cryptox

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/movieweb/internal/common"
)

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// Bcrypt is a Hasher backed by bcrypt. Every call to Hash draws a fresh
// random salt, which bcrypt embeds in the digest.
type Bcrypt struct {
	Cost int
}

// DefaultHasher is the production Hasher.
var DefaultHasher Hasher = Bcrypt{Cost: bcrypt.DefaultCost}

// Hash returns the bcrypt digest of password as a string.
//
// Passwords longer than 72 bytes are rejected with common.ErrInvalidInput
// rather than silently truncated.
func (b Bcrypt) Hash(password string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password is too long", common.ErrInvalidInput)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether password matches hash. An empty hash (no stored
// credential) never matches.
func (b Bcrypt) Verify(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
