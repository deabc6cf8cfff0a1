package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"ourspace/internal/domain"
)

const (
	NonceBytes = 12
	TagBytes   = 16
)

var (
	// ErrCryptoUnavailable means the platform could not provide randomness
	// or the cipher. It is fatal to the session.
	ErrCryptoUnavailable = errors.New("crypto unavailable")
	// ErrAuthentication is returned when the key is wrong or the ciphertext
	// was modified.
	ErrAuthentication = errors.New("message authentication failed")
	// ErrMalformedEnvelope is returned for payloads that are not valid
	// base64 or are too short to hold a nonce and tag.
	ErrMalformedEnvelope = errors.New("malformed envelope")
)

func newGCM(key *domain.SymmetricKey) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key.Slice())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoUnavailable, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoUnavailable, err)
	}
	return aead, nil
}

// Seal encrypts plaintext with AES-256-GCM under a fresh random nonce and
// returns nonce‖ciphertext‖tag.
func Seal(key *domain.SymmetricKey, plaintext []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, NonceBytes, NonceBytes+len(plaintext)+TagBytes)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoUnavailable, err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open reverses Seal.
func Open(key *domain.SymmetricKey, sealed []byte) ([]byte, error) {
	if len(sealed) < NonceBytes+TagBytes {
		return nil, ErrMalformedEnvelope
	}
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, sealed[:NonceBytes], sealed[NonceBytes:], nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	return pt, nil
}

// Encrypt seals plaintext and returns the base64 envelope stored in the
// encryptedContent field.
func Encrypt(key *domain.SymmetricKey, plaintext []byte) (string, error) {
	sealed, err := Seal(key, plaintext)
	if err != nil {
		return "", err
	}
	return B64(sealed), nil
}

// Decrypt opens a base64 envelope. Failures are ErrMalformedEnvelope or
// ErrAuthentication; garbage plaintext is never returned.
func Decrypt(key *domain.SymmetricKey, envelope string) ([]byte, error) {
	sealed, err := UnB64(envelope)
	if err != nil {
		return nil, ErrMalformedEnvelope
	}
	return Open(key, sealed)
}
