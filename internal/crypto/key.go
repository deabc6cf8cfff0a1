package crypto

import (
	"crypto/sha256"
	"sync"

	"golang.org/x/crypto/pbkdf2"

	"ourspace/internal/domain"
	"ourspace/internal/util/memzero"
)

const (
	// Iterations is the PBKDF2 work factor. Changing it breaks every
	// existing room.
	Iterations = 100000
	KeyBytes   = 32
)

// LegacySalt is the application-wide salt used by the first deployment.
// New deployments should configure their own; rooms written under one salt
// cannot be read under another.
const LegacySalt = "ourspace-salt-v1"

// DeriveKey turns a passphrase into an AES-256 key with
// PBKDF2-HMAC-SHA256. The same passphrase and salt always give the same key.
func DeriveKey(passphrase, salt []byte) domain.SymmetricKey {
	raw := pbkdf2.Key(passphrase, salt, Iterations, KeyBytes, sha256.New)
	defer memzero.Zero(raw)

	var k domain.SymmetricKey
	copy(k[:], raw)
	return k
}

// KDF memoizes DeriveKey per passphrase so a session pays the PBKDF2 cost
// once. Entries are keyed by a SHA-256 of the passphrase so no copy of it
// is retained. Call Forget when the session ends.
type KDF struct {
	salt []byte

	mu    sync.Mutex
	cache map[[sha256.Size]byte]*domain.SymmetricKey
}

// NewKDF returns a KDF bound to salt. An empty salt selects LegacySalt.
func NewKDF(salt string) *KDF {
	if salt == "" {
		salt = LegacySalt
	}
	return &KDF{salt: []byte(salt), cache: make(map[[sha256.Size]byte]*domain.SymmetricKey)}
}

// Derive returns the key for passphrase, computing it at most once.
func (k *KDF) Derive(passphrase []byte) domain.SymmetricKey {
	k.mu.Lock()
	defer k.mu.Unlock()

	id := sha256.Sum256(passphrase)
	if key, ok := k.cache[id]; ok {
		return *key
	}
	key := DeriveKey(passphrase, k.salt)
	k.cache[id] = &key
	return key
}

// Forget zeroes and drops every memoized key.
func (k *KDF) Forget() {
	k.mu.Lock()
	defer k.mu.Unlock()

	for id, key := range k.cache {
		memzero.Zero(key[:])
		delete(k.cache, id)
	}
}
