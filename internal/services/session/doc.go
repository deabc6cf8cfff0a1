// Package session ties one participant to one room.
//
// A Controller validates the entry form, derives the room address and key,
// signs in to the backend, and starts the message stream and presence. It
// allows a single active session; Leave tears everything down in reverse
// and wipes the secrets.
package session
