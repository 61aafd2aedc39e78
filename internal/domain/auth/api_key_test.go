package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestKeySet_Validate(t *testing.T) {
	argonKey := "argon-key-12345"
	argonHash, err := HashKeyArgon2id(argonKey)
	if err != nil {
		t.Fatalf("HashKeyArgon2id() setup error = %v", err)
	}
	shaKey := "sha-key-67890"

	ks, err := NewKeySet([]string{argonHash, "sha256:" + HashKey(shaKey)})
	if err != nil {
		t.Fatalf("NewKeySet() error = %v", err)
	}
	if !ks.Enabled() {
		t.Fatal("Enabled() = false, want true")
	}

	tests := []struct {
		name      string
		rawKey    string
		wantLabel string
		wantErr   error
	}{
		{"argon2id key", argonKey, "key-1", nil},
		{"argon2id key again (cached)", argonKey, "key-1", nil},
		{"sha256 key", shaKey, "key-2", nil},
		{"wrong key", "nope", "", ErrInvalidKey},
		{"empty key", "", "", ErrInvalidKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ks.Validate(tt.rawKey)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if id.Label != tt.wantLabel {
				t.Errorf("Validate() label = %q, want %q", id.Label, tt.wantLabel)
			}
		})
	}
}

func TestNewKeySet_RejectsUnknownHash(t *testing.T) {
	if _, err := NewKeySet([]string{"plaintext"}); !errors.Is(err, ErrUnknownHashType) {
		t.Errorf("NewKeySet() error = %v, want %v", err, ErrUnknownHashType)
	}
}

func TestKeySet_Disabled(t *testing.T) {
	ks, err := NewKeySet(nil)
	if err != nil {
		t.Fatalf("NewKeySet() error = %v", err)
	}
	if ks.Enabled() {
		t.Error("Enabled() = true for an empty key set")
	}
	var nilSet *KeySet
	if nilSet.Enabled() {
		t.Error("Enabled() = true for a nil key set")
	}
}

func TestHashKey(t *testing.T) {
	// HashKey should produce consistent SHA-256 hex output
	rawKey := "test-key"
	hash1 := HashKey(rawKey)
	hash2 := HashKey(rawKey)

	if hash1 != hash2 {
		t.Errorf("HashKey() not deterministic: %v != %v", hash1, hash2)
	}

	// Hash should be 64 hex characters (256 bits / 4 bits per hex char)
	if len(hash1) != 64 {
		t.Errorf("HashKey() length = %d, want 64", len(hash1))
	}

	// Different keys should produce different hashes
	hash3 := HashKey("different-key")
	if hash1 == hash3 {
		t.Error("HashKey() produced same hash for different keys")
	}
}

func TestHashKeyArgon2id(t *testing.T) {
	rawKey := "test-api-key-secure-12345"

	// Should return PHC format string starting with $argon2id$
	hash, err := HashKeyArgon2id(rawKey)
	if err != nil {
		t.Fatalf("HashKeyArgon2id() error = %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("HashKeyArgon2id() = %q, want prefix $argon2id$", hash)
	}

	// Should produce different hashes for same input (due to random salt)
	hash2, err := HashKeyArgon2id(rawKey)
	if err != nil {
		t.Fatalf("HashKeyArgon2id() second call error = %v", err)
	}

	if hash == hash2 {
		t.Error("HashKeyArgon2id() produced identical hashes - should use random salt")
	}
}

func TestDetectHashType(t *testing.T) {
	tests := []struct {
		name     string
		hash     string
		wantType string
	}{
		{
			name:     "argon2id PHC format",
			hash:     "$argon2id$v=19$m=48128,t=1,p=1$abc123$xyz789",
			wantType: "argon2id",
		},
		{
			name:     "sha256 prefixed",
			hash:     "sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
			wantType: "sha256",
		},
		{
			name:     "legacy bare SHA-256 hex (64 chars)",
			hash:     "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
			wantType: "sha256",
		},
		{
			name:     "unknown format - too short",
			hash:     "abc123",
			wantType: "unknown",
		},
		{
			name:     "unknown format - wrong prefix",
			hash:     "$bcrypt$abc123",
			wantType: "unknown",
		},
		{
			name:     "empty string",
			hash:     "",
			wantType: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectHashType(tt.hash)
			if got != tt.wantType {
				t.Errorf("DetectHashType(%q) = %q, want %q", tt.hash, got, tt.wantType)
			}
		})
	}
}

func TestVerifyKey(t *testing.T) {
	rawKey := "test-api-key-verify-12345"

	// Create an Argon2id hash for testing
	argon2Hash, err := HashKeyArgon2id(rawKey)
	if err != nil {
		t.Fatalf("HashKeyArgon2id() setup error = %v", err)
	}

	// Create SHA-256 hashes for backward compatibility testing
	sha256Hash := HashKey(rawKey)                 // legacy bare hex
	sha256Prefixed := "sha256:" + HashKey(rawKey) // prefixed format

	tests := []struct {
		name       string
		rawKey     string
		storedHash string
		wantMatch  bool
		wantErr    error
	}{
		{
			name:       "argon2id hash - correct key",
			rawKey:     rawKey,
			storedHash: argon2Hash,
			wantMatch:  true,
			wantErr:    nil,
		},
		{
			name:       "argon2id hash - wrong key",
			rawKey:     "wrong-key",
			storedHash: argon2Hash,
			wantMatch:  false,
			wantErr:    nil,
		},
		{
			name:       "sha256 prefixed - correct key",
			rawKey:     rawKey,
			storedHash: sha256Prefixed,
			wantMatch:  true,
			wantErr:    nil,
		},
		{
			name:       "sha256 prefixed - wrong key",
			rawKey:     "wrong-key",
			storedHash: sha256Prefixed,
			wantMatch:  false,
			wantErr:    nil,
		},
		{
			name:       "legacy bare sha256 - correct key",
			rawKey:     rawKey,
			storedHash: sha256Hash,
			wantMatch:  true,
			wantErr:    nil,
		},
		{
			name:       "legacy bare sha256 - wrong key",
			rawKey:     "wrong-key",
			storedHash: sha256Hash,
			wantMatch:  false,
			wantErr:    nil,
		},
		{
			name:       "unknown hash type returns error",
			rawKey:     rawKey,
			storedHash: "invalid-hash-format",
			wantMatch:  false,
			wantErr:    ErrUnknownHashType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, err := VerifyKey(tt.rawKey, tt.storedHash)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("VerifyKey() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Errorf("VerifyKey() unexpected error = %v", err)
				return
			}

			if match != tt.wantMatch {
				t.Errorf("VerifyKey() = %v, want %v", match, tt.wantMatch)
			}
		})
	}
}

func TestVerifyKey_ConstantTimeComparison(t *testing.T) {
	// This test verifies that SHA-256 path uses constant-time comparison
	// by checking it doesn't short-circuit on partial matches.
	// Note: This is a behavioral test - actual timing attack resistance
	// is ensured by using crypto/subtle.ConstantTimeCompare

	rawKey := "test-constant-time-key"
	sha256Hash := HashKey(rawKey)

	// Both should return false without error (not short-circuit on first mismatch)
	// Wrong key with same length
	wrongKey1 := "test-constant-time-xyz"
	match1, err1 := VerifyKey(wrongKey1, sha256Hash)
	if err1 != nil {
		t.Errorf("VerifyKey() error = %v", err1)
	}
	if match1 {
		t.Error("VerifyKey() should return false for wrong key")
	}

	// Completely different key
	wrongKey2 := "completely-different-key-here"
	match2, err2 := VerifyKey(wrongKey2, sha256Hash)
	if err2 != nil {
		t.Errorf("VerifyKey() error = %v", err2)
	}
	if match2 {
		t.Error("VerifyKey() should return false for wrong key")
	}
}
