package types

// SymmetricKey is a 256-bit AEAD key derived from the room passphrase.
// It is never serialised or sent anywhere.
type SymmetricKey [32]byte

// Slice returns the key as a []byte.
func (k *SymmetricKey) Slice() []byte { return k[:] }
