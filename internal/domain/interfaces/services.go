package interfaces

import (
	"context"

	domaintypes "ourspace/internal/domain/types"
)

// MessageService publishes and streams encrypted room messages.
type MessageService interface {
	Publish(
		ctx context.Context,
		session *domaintypes.Session,
		kind domaintypes.Kind,
		plaintext []byte,
	) error
	Subscribe(
		ctx context.Context,
		session *domaintypes.Session,
		onUpdate func([]domaintypes.DecryptedMessage),
		onError func(error),
	) (unsubscribe func(), err error)
}

// PresenceService heartbeats the local participant and tracks the others.
type PresenceService interface {
	Start(ctx context.Context, session *domaintypes.Session) error
	Stop(ctx context.Context) error
	Active() []domaintypes.Username
	// OnChange registers fn to receive the active set whenever it changes.
	OnChange(fn func([]domaintypes.Username))
}
