package types

// Username is the display name a participant chose when entering a room.
// It is a label, not an authenticated identity.
type Username string

// String returns the string form of the username.
func (u Username) String() string { return string(u) }

// RoomAddress is the opaque backend lookup key derived one-way from a room label.
type RoomAddress string

// String returns the string form of the address.
func (a RoomAddress) String() string { return string(a) }

// Kind tells receivers how to render a decrypted payload.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Valid reports whether k is a known payload kind.
func (k Kind) Valid() bool { return k == KindText || k == KindImage }
