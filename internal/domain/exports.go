package domain

import (
	interfaces "ourspace/internal/domain/interfaces"
	types "ourspace/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Username         = types.Username
	RoomAddress      = types.RoomAddress
	Kind             = types.Kind
	SymmetricKey     = types.SymmetricKey
	Document         = types.Document
	Write            = types.Write
	SnapshotHandler  = types.SnapshotHandler
	Message          = types.Message
	DecryptedMessage = types.DecryptedMessage
	PresenceRecord   = types.PresenceRecord
	Session          = types.Session
)

// Payload kinds.
const (
	KindText  = types.KindText
	KindImage = types.KindImage
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	DocumentStore    = interfaces.DocumentStore
	IdentityProvider = interfaces.IdentityProvider
	MessageService   = interfaces.MessageService
	PresenceService  = interfaces.PresenceService
)

// Document field names and values.
const (
	FieldEncryptedContent = types.FieldEncryptedContent
	FieldSender           = types.FieldSender
	FieldType             = types.FieldType
	FieldCreatedAt        = types.FieldCreatedAt
	FieldName             = types.FieldName
	FieldLastSeen         = types.FieldLastSeen
	FieldStatus           = types.FieldStatus
	StatusOnline          = types.StatusOnline
)

// ErrDocumentExists is returned by DocumentStore.Create for a taken key.
var ErrDocumentExists = types.ErrDocumentExists

// Document mappers.
var (
	MessageFromDocument  = types.MessageFromDocument
	PresenceFromDocument = types.PresenceFromDocument
)
