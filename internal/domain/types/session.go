package types

import "ourspace/internal/util/memzero"

// Session is the in-memory bundle for one active chat participation.
// It is never persisted; Wipe clears the secrets on leave.
type Session struct {
	ParticipantName Username     `json:"participant_name"`
	RoomLabel       string       `json:"room_label"`
	RoomAddress     RoomAddress  `json:"room_address"`
	Passphrase      []byte       `json:"-"`
	Key             SymmetricKey `json:"-"`
}

// Wipe zeroes the passphrase and derived key.
func (s *Session) Wipe() {
	memzero.Zero(s.Passphrase)
	s.Passphrase = nil
	memzero.Zero(s.Key[:])
}
