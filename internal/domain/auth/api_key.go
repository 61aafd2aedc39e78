package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/alexedwards/argon2id"
)

// ErrInvalidKey is returned when no configured key matches.
var ErrInvalidKey = errors.New("invalid api key")

// ErrUnknownHashType is returned when a stored hash has an unrecognized format.
var ErrUnknownHashType = errors.New("unknown hash type")

// KeySet validates raw bearer keys against configured hashes. Successful
// argon2id verifications are remembered by the key's sha256 digest so that
// repeated requests skip the expensive comparison.
type KeySet struct {
	keys []Key

	mu       sync.RWMutex
	verified map[string]Identity
}

// NewKeySet builds a KeySet from hashes. Keys are labelled key-1, key-2, ...
// in configuration order. Hashes of unknown format are rejected.
func NewKeySet(hashes []string) (*KeySet, error) {
	keys := make([]Key, 0, len(hashes))
	for i, h := range hashes {
		if DetectHashType(h) == "unknown" {
			return nil, fmt.Errorf("api key hash %d: %w", i+1, ErrUnknownHashType)
		}
		keys = append(keys, Key{Label: fmt.Sprintf("key-%d", i+1), Hash: h})
	}
	return &KeySet{keys: keys, verified: make(map[string]Identity)}, nil
}

// Enabled reports whether any key is configured.
func (s *KeySet) Enabled() bool { return s != nil && len(s.keys) > 0 }

// Validate checks a raw key and returns the matching identity.
func (s *KeySet) Validate(rawKey string) (Identity, error) {
	if rawKey == "" {
		return Identity{}, ErrInvalidKey
	}
	digest := HashKey(rawKey)

	s.mu.RLock()
	id, ok := s.verified[digest]
	s.mu.RUnlock()
	if ok {
		return id, nil
	}

	for _, k := range s.keys {
		match, err := VerifyKey(rawKey, k.Hash)
		if err != nil || !match {
			continue
		}
		id := Identity{Label: k.Label}
		s.mu.Lock()
		s.verified[digest] = id
		s.mu.Unlock()
		return id, nil
	}
	return Identity{}, ErrInvalidKey
}

// HashKey returns the SHA-256 hex hash of the raw key.
func HashKey(rawKey string) string {
	hash := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(hash[:])
}

// argon2idParams defines OWASP minimum parameters for Argon2id.
var argon2idParams = &argon2id.Params{
	Memory:      47 * 1024, // 47 MiB (OWASP minimum: 46 MiB)
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// HashKeyArgon2id returns an Argon2id hash of the raw key in PHC format:
// $argon2id$v=19$m=48128,t=1,p=1$<salt>$<hash>
func HashKeyArgon2id(rawKey string) (string, error) {
	return argon2id.CreateHash(rawKey, argon2idParams)
}

// DetectHashType identifies the hash algorithm used for a stored hash.
// Returns "argon2id" for PHC format, "sha256" for prefixed or bare hex,
// "unknown" otherwise.
func DetectHashType(storedHash string) string {
	if strings.HasPrefix(storedHash, "$argon2id$") {
		return "argon2id"
	}
	if strings.HasPrefix(storedHash, "sha256:") {
		return "sha256"
	}
	if len(storedHash) == 64 && isHexString(storedHash) {
		return "sha256"
	}
	return "unknown"
}

func isHexString(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

// VerifyKey verifies a raw key against a stored hash.
func VerifyKey(rawKey, storedHash string) (bool, error) {
	switch DetectHashType(storedHash) {
	case "argon2id":
		return safeArgon2idCompare(rawKey, storedHash)
	case "sha256":
		expected := strings.ToLower(strings.TrimPrefix(storedHash, "sha256:"))
		computed := HashKey(rawKey)
		return subtle.ConstantTimeCompare([]byte(computed), []byte(expected)) == 1, nil
	default:
		return false, ErrUnknownHashType
	}
}

// safeArgon2idCompare wraps argon2id.ComparePasswordAndHash with panic
// recovery; the library panics on hashes with zero rounds or parallelism.
func safeArgon2idCompare(rawKey, storedHash string) (match bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			match = false
			err = fmt.Errorf("invalid argon2id hash parameters: %v", r)
		}
	}()
	return argon2id.ComparePasswordAndHash(rawKey, storedHash)
}
