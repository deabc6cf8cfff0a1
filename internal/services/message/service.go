package message

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ourspace/internal/crypto"
	"ourspace/internal/domain"
)

var (
	// ErrPublishFailed wraps the backend error of a write that was not stored.
	ErrPublishFailed = errors.New("publish failed")
	ErrUnknownKind   = errors.New("unknown message kind")
	// ErrStreamEnded is reported when the subscription's context ends
	// before it is unsubscribed.
	ErrStreamEnded = errors.New("message stream ended")
)

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	// Namespace prefixes room collections.
	Namespace string
	// Attempts bounds publish tries. 1 means no automatic retry.
	Attempts int
	// Backoff is the wait before the first retry; it doubles after each.
	Backoff time.Duration
	// Concurrency bounds parallel decrypts within one snapshot.
	Concurrency int
	// Now is the clock used for first-seen times.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Attempts < 1 {
		o.Attempts = 1
	}
	if o.Backoff <= 0 {
		o.Backoff = 250 * time.Millisecond
	}
	if o.Concurrency < 1 {
		o.Concurrency = runtime.GOMAXPROCS(0)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Service sends and receives messages for one backend.
type Service struct {
	store domain.DocumentStore
	opts  Options
	log   zerolog.Logger
}

var _ domain.MessageService = (*Service)(nil)

// New constructs a message Service over store.
func New(store domain.DocumentStore, opts Options, logger zerolog.Logger) *Service {
	return &Service{store: store, opts: opts.withDefaults(), log: logger}
}

// Publish encrypts plaintext under the session key and adds it to the room.
//
// The creation time is left to the backend. A failed write is retried up to
// Options.Attempts times with doubling backoff before ErrPublishFailed.
// Every attempt proposes the same document key, so a write that landed
// but whose reply was lost is not stored twice.
func (s *Service) Publish(
	ctx context.Context,
	sess *domain.Session,
	kind domain.Kind,
	plaintext []byte,
) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	env, err := crypto.Encrypt(&sess.Key, plaintext)
	if err != nil {
		return err
	}

	w := domain.Write{
		Fields: map[string]string{
			domain.FieldEncryptedContent: env,
			domain.FieldSender:           sess.ParticipantName.String(),
			domain.FieldType:             string(kind),
		},
		ServerStamps: []string{domain.FieldCreatedAt},
	}
	coll := crypto.MessagesCollection(s.opts.Namespace, sess.RoomAddress)

	id := uuid.NewString()
	backoff := s.opts.Backoff
	for attempt := 1; ; attempt++ {
		err = s.store.Create(ctx, coll, id, w)
		if err == nil || (attempt > 1 && errors.Is(err, domain.ErrDocumentExists)) {
			return nil
		}
		if attempt >= s.opts.Attempts || ctx.Err() != nil {
			break
		}
		s.log.Debug().
			Err(err).
			Int("attempt", attempt).
			Str("room", sess.RoomAddress.String()).
			Msg("publish failed, retrying")

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%w: %w", ErrPublishFailed, ctx.Err())
		case <-t.C:
		}
		backoff *= 2
	}
	return fmt.Errorf("%w: %w", ErrPublishFailed, err)
}

// Subscribe streams the room as ordered, decrypted message lists.
//
// Each backend snapshot is decrypted in full before onUpdate sees it, and
// snapshots are handled in arrival order. Backend failures go to onError,
// as does ctx ending before unsubscribe; either way the stream is then over
// and the caller may subscribe again. Once the returned func is called
// neither callback starts again.
func (s *Service) Subscribe(
	ctx context.Context,
	sess *domain.Session,
	onUpdate func([]domain.DecryptedMessage),
	onError func(error),
) (func(), error) {
	sub := &subscription{
		key:       sess.Key,
		now:       s.opts.Now,
		limit:     s.opts.Concurrency,
		live:      true,
		memo:      make(map[string]opened),
		firstSeen: make(map[string]time.Time),
	}
	subCtx, cancel := context.WithCancel(ctx)

	var ended sync.Once
	fail := func(err error) {
		ended.Do(func() {
			if sub.alive() && onError != nil {
				onError(err)
			}
		})
	}

	coll := crypto.MessagesCollection(s.opts.Namespace, sess.RoomAddress)
	unsub, err := s.store.Subscribe(subCtx, coll, func(docs []domain.Document, err error) {
		if err != nil {
			fail(err)
			return
		}
		msgs, err := sub.process(subCtx, docs)
		if err != nil {
			return
		}
		if sub.alive() && onUpdate != nil {
			onUpdate(msgs)
		}
	})
	if err != nil {
		sub.kill()
		cancel()
		sub.wipe()
		return nil, err
	}
	s.log.Debug().Str("room", sess.RoomAddress.String()).Msg("message stream opened")

	go func() {
		<-subCtx.Done()
		if err := ctx.Err(); err != nil {
			fail(fmt.Errorf("%w: %w", ErrStreamEnded, err))
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.kill()
			cancel()
			unsub()
			sub.wipe()
		})
	}, nil
}
