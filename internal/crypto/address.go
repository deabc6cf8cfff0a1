package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"ourspace/internal/domain"
)

// AddressOf returns the backend address of a room: the lowercase hex
// SHA-256 of its label. It must never be computed from the passphrase.
func AddressOf(roomLabel string) domain.RoomAddress {
	sum := sha256.Sum256([]byte(roomLabel))
	return domain.RoomAddress(hex.EncodeToString(sum[:]))
}

// MessagesCollection is the collection holding a room's messages.
func MessagesCollection(namespace string, addr domain.RoomAddress) string {
	return namespace + "/rooms/" + addr.String()
}

// PresenceCollection is the sibling collection holding presence leases.
func PresenceCollection(namespace string, addr domain.RoomAddress) string {
	return MessagesCollection(namespace, addr) + "_presence"
}
