// Package auth verifies the bearer keys accepted by the HTTP transport.
package auth

// Key is one accepted API key, stored only as a hash.
type Key struct {
	// Label identifies the key in logs without revealing it.
	Label string
	// Hash is an argon2id PHC string or a sha256 hex digest.
	Hash string
}

// Identity is the caller a verified key belongs to.
type Identity struct {
	Label string
}
