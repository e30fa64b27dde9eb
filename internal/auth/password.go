// Package auth provides the password hashing and bearer token primitives
// used by the identity provider.
package auth

import (
	"errors"

	"cinescope/internal/biz"
	"cinescope/internal/conf"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt only looks at the first 72 bytes; longer inputs are rejected rather
// than silently truncated.
const maxPasswordBytes = 72

// ErrPasswordTooLong is returned when a password exceeds bcrypt's input limit.
var ErrPasswordTooLong = errors.New("password exceeds maximum length")

type bcryptHasher struct {
	cost int
}

// NewPasswordHasher returns a bcrypt hasher. A zero cost selects bcrypt.DefaultCost.
func NewPasswordHasher(c *conf.Auth) biz.PasswordHasher {
	cost := c.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (h *bcryptHasher) Hash(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *bcryptHasher) Compare(hash, password string) bool {
	if len(password) > maxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
