// Package hashing provides the one-way password hashes used by the
// credential store. New hashes use the configured algorithm; verification
// accepts any supported algorithm, recognised by the hash prefix.
package hashing

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

var ErrUnknownAlgorithm = errors.New("unknown password hash algorithm")

type algorithm interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// Hasher dispatches Verify by hash prefix and Hash to the primary algorithm.
type Hasher struct {
	primary  algorithm
	argon2id *Argon2id
	bcrypt   *Bcrypt
}

// New returns a Hasher whose new hashes use the named algorithm.
func New(name string) (*Hasher, error) {
	h := &Hasher{
		argon2id: NewArgon2id(DefaultArgon2Params),
		bcrypt:   NewBcrypt(bcrypt.DefaultCost),
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", AlgorithmArgon2id:
		h.primary = h.argon2id
	case AlgorithmBcrypt:
		h.primary = h.bcrypt
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
	return h, nil
}

func (h *Hasher) Hash(password string) (string, error) {
	return h.primary.Hash(password)
}

func (h *Hasher) Verify(password, encodedHash string) (bool, error) {
	switch {
	case strings.HasPrefix(encodedHash, argon2Prefix):
		return h.argon2id.Verify(password, encodedHash)
	case strings.HasPrefix(encodedHash, "$2a$"), strings.HasPrefix(encodedHash, "$2b$"), strings.HasPrefix(encodedHash, "$2y$"):
		return h.bcrypt.Verify(password, encodedHash)
	default:
		return false, ErrUnknownAlgorithm
	}
}
