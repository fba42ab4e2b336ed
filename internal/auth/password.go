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

// Portal accounts are few and logins rare, so the Argon2id cost leans
// towards memory hardness (OWASP 2025 figures).
const (
	hashIterations  = 3
	hashMemoryKiB   = 64 * 1024
	hashParallelism = 1
	hashLength      = 32
	saltLength      = 16
)

var errMalformedHash = errors.New("malformed password hash")

// HashPassword derives an Argon2id digest of password and encodes it in
// PHC form:
//
//	$argon2id$v=19$m=65536,t=3,p=1$<salt>$<digest>
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	digest := argon2.IDKey([]byte(password), salt, hashIterations, hashMemoryKiB, hashParallelism, hashLength)

	enc := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, hashMemoryKiB, hashIterations, hashParallelism,
		enc.EncodeToString(salt), enc.EncodeToString(digest)), nil
}

// VerifyPassword reports whether password matches the stored PHC hash.
// Cost parameters come from the stored hash, so accounts created under
// an older cost keep verifying after the constants change.
func VerifyPassword(password, stored string) (bool, error) {
	ph, err := parsePHC(stored)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), ph.salt, ph.iterations, ph.memoryKiB, ph.parallelism, uint32(len(ph.digest))) //nolint:gosec // G115: digest length always fits uint32
	return subtle.ConstantTimeCompare(ph.digest, candidate) == 1, nil
}

// phcHash is a decoded $argon2id$ PHC string.
type phcHash struct {
	iterations  uint32
	memoryKiB   uint32
	parallelism uint8
	salt        []byte
	digest      []byte
}

func parsePHC(stored string) (phcHash, error) {
	var ph phcHash

	fields := strings.Split(stored, "$")
	if len(fields) != 6 || fields[0] != "" { //nolint:mnd // PHC strings carry exactly six $-separated fields
		return ph, errMalformedHash
	}
	if fields[1] != "argon2id" {
		return ph, fmt.Errorf("%w: unsupported algorithm %q", errMalformedHash, fields[1])
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil {
		return ph, fmt.Errorf("%w: version: %v", errMalformedHash, err)
	}
	if version != argon2.Version {
		return ph, fmt.Errorf("%w: argon2 version %d", errMalformedHash, version)
	}

	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &ph.memoryKiB, &ph.iterations, &ph.parallelism); err != nil {
		return ph, fmt.Errorf("%w: parameters: %v", errMalformedHash, err)
	}

	var err error
	if ph.salt, err = base64.RawStdEncoding.DecodeString(fields[4]); err != nil {
		return ph, fmt.Errorf("%w: salt: %v", errMalformedHash, err)
	}
	if ph.digest, err = base64.RawStdEncoding.DecodeString(fields[5]); err != nil {
		return ph, fmt.Errorf("%w: digest: %v", errMalformedHash, err)
	}
	return ph, nil
}
