// Package crypto holds the primitives of the room protocol.
//
// Contents
//
//   - Passphrase key derivation, PBKDF2-HMAC-SHA256 with 100000 iterations
//     and a per-deployment salt (DeriveKey, KDF)
//   - AES-256-GCM envelopes: 12-byte random nonce ‖ ciphertext ‖ tag,
//     base64 encoded on the wire (Encrypt, Decrypt, Seal, Open)
//   - Room addressing, a one-way hash of the room label (AddressOf)
//
// # Notes
//
// The room address and the key come from independent inputs. Anyone who
// learns the address learns nothing about the key. Text and image payloads
// take the same byte path; their kind travels beside the envelope.
package crypto
