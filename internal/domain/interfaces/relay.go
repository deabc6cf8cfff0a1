package interfaces

import "context"

// IdentityProvider issues the opaque principal that authorises backend
// access. It is not a chat identity.
type IdentityProvider interface {
	SignInAnonymously(ctx context.Context) (token string, err error)
}
