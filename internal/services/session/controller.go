package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"ourspace/internal/crypto"
	"ourspace/internal/domain"
	"ourspace/internal/imaging"
)

var (
	ErrInvalidInput  = errors.New("name, room and passphrase are required")
	ErrSessionActive = errors.New("a session is already active")
	ErrNoSession     = errors.New("no active session")
)

// Handlers receive session events. Any of them may be nil.
type Handlers struct {
	OnMessages func([]domain.DecryptedMessage)
	OnPresence func([]domain.Username)
	OnError    func(error)
}

// Controller owns the lifecycle of the active session.
type Controller struct {
	kdf      *crypto.KDF
	identity domain.IdentityProvider
	messages domain.MessageService
	presence domain.PresenceService
	log      zerolog.Logger

	mu       sync.RWMutex
	signedIn bool
	sess     *domain.Session
	unsub    func()
}

// New constructs a Controller. identity may be nil when the backend needs
// no sign-in.
func New(
	kdf *crypto.KDF,
	identity domain.IdentityProvider,
	messages domain.MessageService,
	presence domain.PresenceService,
	logger zerolog.Logger,
) *Controller {
	return &Controller{
		kdf:      kdf,
		identity: identity,
		messages: messages,
		presence: presence,
		log:      logger,
	}
}

// Enter joins roomLabel as name. The passphrase is copied; the caller may
// wipe its own buffer once Enter returns.
func (c *Controller) Enter(
	ctx context.Context,
	name, roomLabel string,
	passphrase []byte,
	h Handlers,
) (*domain.Session, error) {
	name, roomLabel = strings.TrimSpace(name), strings.TrimSpace(roomLabel)
	if name == "" || roomLabel == "" || len(strings.TrimSpace(string(passphrase))) == 0 {
		return nil, ErrInvalidInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != nil {
		return nil, ErrSessionActive
	}

	if c.identity != nil && !c.signedIn {
		if _, err := c.identity.SignInAnonymously(ctx); err != nil {
			return nil, fmt.Errorf("sign in: %w", err)
		}
		c.signedIn = true
	}

	sess := &domain.Session{
		ParticipantName: domain.Username(name),
		RoomLabel:       roomLabel,
		RoomAddress:     crypto.AddressOf(roomLabel),
		Passphrase:      slices.Clone(passphrase),
		Key:             c.kdf.Derive(passphrase),
	}

	// The stream lives until Leave, not until ctx ends.
	unsub, err := c.messages.Subscribe(context.WithoutCancel(ctx), sess, h.OnMessages, h.OnError)
	if err != nil {
		sess.Wipe()
		c.kdf.Forget()
		return nil, err
	}

	c.presence.OnChange(h.OnPresence)
	if err := c.presence.Start(ctx, sess); err != nil {
		unsub()
		sess.Wipe()
		c.kdf.Forget()
		return nil, err
	}

	c.sess, c.unsub = sess, unsub
	c.log.Info().
		Str("participant", name).
		Str("room", sess.RoomAddress.String()).
		Msg("entered room")
	return sess, nil
}

// Leave stops presence and the message stream, then wipes the session's
// secrets and the derived-key cache.
func (c *Controller) Leave(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return ErrNoSession
	}

	if err := c.presence.Stop(ctx); err != nil {
		c.log.Debug().Err(err).Msg("presence stop")
	}
	c.presence.OnChange(nil)
	c.unsub()

	addr := c.sess.RoomAddress
	c.sess.Wipe()
	c.kdf.Forget()
	c.sess, c.unsub = nil, nil

	c.log.Info().Str("room", addr.String()).Msg("left room")
	return nil
}

// Publish sends plaintext of the given kind to the active room. Leave
// waits for publishes in flight.
func (c *Controller) Publish(ctx context.Context, kind domain.Kind, plaintext []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.sess == nil {
		return ErrNoSession
	}
	return c.messages.Publish(ctx, c.sess, kind, plaintext)
}

// PublishImage compresses raw and sends it as a JPEG data URL.
func (c *Controller) PublishImage(ctx context.Context, raw []byte) error {
	jpg, err := imaging.Prepare(raw)
	if err != nil {
		return err
	}
	return c.Publish(ctx, domain.KindImage, []byte(imaging.DataURL(jpg)))
}

// Active returns the other participants currently present.
func (c *Controller) Active() []domain.Username {
	return c.presence.Active()
}

// Session returns the active session, or nil.
func (c *Controller) Session() *domain.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sess
}
