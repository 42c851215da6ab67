package hashing

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const argon2Prefix = "$argon2id$"

// Argon2Params tunes the Argon2id key derivation.
type Argon2Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  int
	KeyLength   uint32
}

// DefaultArgon2Params follows the RFC 9106 second recommended option.
var DefaultArgon2Params = Argon2Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// Bounds for parameters read back from stored hashes.
const (
	minArgon2Memory     = 8           // KiB, per lane
	maxArgon2Memory     = 1024 * 1024 // KiB (1 GiB)
	maxArgon2Iterations = 64
	maxArgon2KeyLength  = 128
)

var errInvalidArgon2Hash = errors.New("invalid argon2id hash")

// Argon2id produces PHC-format hashes: $argon2id$v=19$m=..,t=..,p=..$salt$hash.
type Argon2id struct {
	params Argon2Params
}

func NewArgon2id(params Argon2Params) *Argon2id {
	return &Argon2id{params: params}
}

func (a *Argon2id) Hash(password string) (string, error) {
	salt := make([]byte, a.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("argon2id salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, a.params.Iterations, a.params.Memory, a.params.Parallelism, a.params.KeyLength)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix,
		argon2.Version,
		a.params.Memory,
		a.params.Iterations,
		a.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify uses the parameters embedded in encodedHash, not the receiver's, so
// hashes produced under older parameters keep working.
func (a *Argon2id) Verify(password, encodedHash string) (bool, error) {
	// ["", "argon2id", "v=19", "m=X,t=Y,p=Z", salt, hash]
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, errInvalidArgon2Hash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, errInvalidArgon2Hash
	}

	var (
		mem, iters uint32
		par        uint8
	)
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return false, fmt.Errorf("%w: parameters: %v", errInvalidArgon2Hash, err)
	}
	if iters < 1 || iters > maxArgon2Iterations || par < 1 ||
		mem < minArgon2Memory*uint32(par) || mem > maxArgon2Memory {
		return false, fmt.Errorf("%w: parameters out of range", errInvalidArgon2Hash)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%w: salt: %v", errInvalidArgon2Hash, err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 || len(want) > maxArgon2KeyLength {
		return false, errInvalidArgon2Hash
	}

	got := argon2.IDKey([]byte(password), salt, iters, mem, par, uint32(len(want))) // #nosec G115
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
