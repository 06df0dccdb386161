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

// Argon2id parameters, OWASP 2025 recommendation.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 1
	argonKeyLen  = 32
	argonSaltLen = 16
)

// phcParts is the number of $-delimited fields in a PHC string.
const phcParts = 6

var errMalformedHash = errors.New("malformed password hash")

// phcHash is a decoded $argon2id$ PHC string.
type phcHash struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	hash    []byte
}

// HashPassword derives an Argon2id hash of password with a fresh random
// salt and returns it PHC-encoded:
//
//	$argon2id$v=19$m=65536,t=3,p=1$<salt>$<hash>
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword reports whether password matches the PHC-encoded hash.
// The derived key comparison is constant-time. The stored hash's own
// parameters are used, so parameter upgrades do not invalidate old rows.
func VerifyPassword(password, encodedHash string) (bool, error) {
	phc, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), phc.salt,
		phc.time, phc.memory, phc.threads, uint32(len(phc.hash))) //nolint:gosec // G115: key length always fits uint32

	return subtle.ConstantTimeCompare(phc.hash, candidate) == 1, nil
}

func decodePHC(encoded string) (phcHash, error) {
	var phc phcHash

	parts := strings.Split(encoded, "$")
	if len(parts) != phcParts {
		return phc, errMalformedHash
	}
	if parts[1] != "argon2id" {
		return phc, fmt.Errorf("unsupported algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return phc, fmt.Errorf("parsing version: %w", err)
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &phc.memory, &phc.time, &phc.threads); err != nil {
		return phc, fmt.Errorf("parsing parameters: %w", err)
	}

	var err error
	if phc.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return phc, fmt.Errorf("decoding salt: %w", err)
	}
	if phc.hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return phc, fmt.Errorf("decoding hash: %w", err)
	}

	return phc, nil
}
