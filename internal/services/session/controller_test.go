package session_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"ourspace/internal/crypto"
	"ourspace/internal/domain"
	"ourspace/internal/imaging"
	"ourspace/internal/services/message"
	"ourspace/internal/services/presence"
	"ourspace/internal/services/session"
	"ourspace/internal/store"
)

const ns = "ourspace-v1"

type fakeIdentity struct{ calls int }

func (f *fakeIdentity) SignInAnonymously(context.Context) (string, error) {
	f.calls++
	return "token", nil
}

type inbox struct {
	mu   sync.Mutex
	msgs []domain.DecryptedMessage
	who  []domain.Username
}

func (i *inbox) handlers() session.Handlers {
	return session.Handlers{
		OnMessages: func(m []domain.DecryptedMessage) {
			i.mu.Lock()
			defer i.mu.Unlock()
			i.msgs = m
		},
		OnPresence: func(w []domain.Username) {
			i.mu.Lock()
			defer i.mu.Unlock()
			i.who = w
		},
	}
}

func (i *inbox) messages() []domain.DecryptedMessage {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.msgs
}

func (i *inbox) present() []domain.Username {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.who
}

func newController(t *testing.T, m *store.Memory, id domain.IdentityProvider) *session.Controller {
	t.Helper()
	log := zerolog.Nop()
	return session.New(
		crypto.NewKDF(""),
		id,
		message.New(m, message.Options{Namespace: ns}, log),
		presence.New(m, presence.Options{Namespace: ns, Heartbeat: 20 * time.Millisecond}, log),
		log,
	)
}

func newStore(t *testing.T) *store.Memory {
	t.Helper()
	m, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestEnter_ValidatesInput(t *testing.T) {
	c := newController(t, newStore(t), nil)
	ctx := context.Background()

	cases := []struct{ name, room, pass string }{
		{"", "room", "pass"},
		{"alice", "  ", "pass"},
		{"alice", "room", ""},
		{"alice", "room", "   "},
	}
	for _, tc := range cases {
		_, err := c.Enter(ctx, tc.name, tc.room, []byte(tc.pass), session.Handlers{})
		require.ErrorIs(t, err, session.ErrInvalidInput)
	}
}

func TestEnter_SingleActiveSession(t *testing.T) {
	id := &fakeIdentity{}
	c := newController(t, newStore(t), id)
	ctx := context.Background()

	sess, err := c.Enter(ctx, " alice ", "room-8f92a1", []byte("river-42"), session.Handlers{})
	require.NoError(t, err)
	require.Equal(t, domain.Username("alice"), sess.ParticipantName)
	require.Equal(t, crypto.AddressOf("room-8f92a1"), sess.RoomAddress)
	require.Equal(t, crypto.DeriveKey([]byte("river-42"), []byte(crypto.LegacySalt)), sess.Key)

	_, err = c.Enter(ctx, "alice", "other", []byte("x"), session.Handlers{})
	require.ErrorIs(t, err, session.ErrSessionActive)

	require.NoError(t, c.Leave(ctx))
	require.ErrorIs(t, c.Leave(ctx), session.ErrNoSession)
	require.Nil(t, sess.Passphrase)
	require.Equal(t, domain.SymmetricKey{}, sess.Key)

	_, err = c.Enter(ctx, "alice", "room-8f92a1", []byte("river-42"), session.Handlers{})
	require.NoError(t, err)
	require.NoError(t, c.Leave(ctx))
	require.Equal(t, 1, id.calls)
}

func TestPublish_RequiresSession(t *testing.T) {
	c := newController(t, newStore(t), nil)
	err := c.Publish(context.Background(), domain.KindText, []byte("hi"))
	require.ErrorIs(t, err, session.ErrNoSession)
}

func TestEnter_StreamOutlivesEnterContext(t *testing.T) {
	m := newStore(t)
	alice, bob := newController(t, m, nil), newController(t, m, nil)

	var (
		aliceIn inbox
		errMu   sync.Mutex
		errs    []error
	)
	h := aliceIn.handlers()
	h.OnError = func(err error) {
		errMu.Lock()
		defer errMu.Unlock()
		errs = append(errs, err)
	}

	enterCtx, cancel := context.WithCancel(context.Background())
	_, err := alice.Enter(enterCtx, "alice", "room-8f92a1", []byte("river-42"), h)
	require.NoError(t, err)
	cancel()

	ctx := context.Background()
	defer func() { _ = alice.Leave(ctx) }()
	_, err = bob.Enter(ctx, "bob", "room-8f92a1", []byte("river-42"), session.Handlers{})
	require.NoError(t, err)
	defer func() { _ = bob.Leave(ctx) }()

	require.NoError(t, bob.Publish(ctx, domain.KindText, []byte("hi")))
	require.Eventually(t, func() bool {
		msgs := aliceIn.messages()
		return len(msgs) == 1 && string(msgs[0].Plaintext) == "hi"
	}, 2*time.Second, 10*time.Millisecond)

	require.NotNil(t, alice.Session())
	errMu.Lock()
	defer errMu.Unlock()
	require.Empty(t, errs)
}

func TestTwoParticipants_ExchangeAndSeeEachOther(t *testing.T) {
	m := newStore(t)
	ctx := context.Background()

	alice, bob := newController(t, m, nil), newController(t, m, nil)
	var aliceIn, bobIn inbox

	_, err := alice.Enter(ctx, "alice", "room-8f92a1", []byte("river-42"), aliceIn.handlers())
	require.NoError(t, err)
	defer func() { _ = alice.Leave(ctx) }()
	_, err = bob.Enter(ctx, "bob", "room-8f92a1", []byte("river-42"), bobIn.handlers())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		p := aliceIn.present()
		return len(p) == 1 && p[0] == "bob"
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, []domain.Username{"bob"}, alice.Active())

	require.NoError(t, alice.Publish(ctx, domain.KindText, []byte("hello")))
	require.Eventually(t, func() bool {
		msgs := bobIn.messages()
		return len(msgs) == 1 && string(msgs[0].Plaintext) == "hello"
	}, 2*time.Second, 10*time.Millisecond)

	img := image.NewRGBA(image.Rect(0, 0, 1200, 600))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, bob.PublishImage(ctx, buf.Bytes()))

	require.Eventually(t, func() bool {
		for _, msg := range aliceIn.messages() {
			if msg.Kind == domain.KindImage && strings.HasPrefix(string(msg.Plaintext), "data:image/jpeg;base64,") {
				jpg, _, err := imaging.ParseDataURL(string(msg.Plaintext))
				if err != nil {
					return false
				}
				cfg, _, err := image.DecodeConfig(bytes.NewReader(jpg))
				return err == nil && cfg.Width == 800 && cfg.Height == 400
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, bob.Leave(ctx))
	require.Eventually(t, func() bool { return len(aliceIn.present()) == 0 }, 2*time.Second, 10*time.Millisecond)
}
