package types

import "time"

// Field names of a message document.
const (
	FieldEncryptedContent = "encryptedContent"
	FieldSender           = "sender"
	FieldType             = "type"
	FieldCreatedAt        = "createdAt"
)

// Message is a chat record as stored by the backend. It is immutable once
// written.
type Message struct {
	ID               string     `json:"id"`
	Sender           Username   `json:"sender"`
	Kind             Kind       `json:"type"`
	EncryptedContent string     `json:"encryptedContent"`
	CreatedAt        *time.Time `json:"createdAt,omitempty"` // nil until the backend assigns it
}

// MessageFromDocument maps a backend document onto a Message.
func MessageFromDocument(d Document) Message {
	m := Message{
		ID:               d.ID,
		Sender:           Username(d.Field(FieldSender)),
		Kind:             Kind(d.Field(FieldType)),
		EncryptedContent: d.Field(FieldEncryptedContent),
	}
	if t, ok := d.Stamp(FieldCreatedAt); ok {
		m.CreatedAt = &t
	}
	return m
}

// DecryptedMessage is what MessageService emits to subscribers.
type DecryptedMessage struct {
	Message
	Plaintext []byte `json:"-"`
	// Err is crypto.ErrAuthentication or crypto.ErrMalformedEnvelope when the
	// payload could not be opened. Plaintext is nil in that case.
	Err error `json:"-"`
	// DisplayTime is CreatedAt when assigned, else the moment the message was
	// first seen by this subscriber.
	DisplayTime time.Time `json:"-"`
	// Pending is true while the backend has not assigned CreatedAt.
	Pending bool `json:"-"`
}

// Decrypted reports whether the payload was opened and verified.
func (m DecryptedMessage) Decrypted() bool { return m.Err == nil }
