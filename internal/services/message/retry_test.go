package message_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"ourspace/internal/domain"
	"ourspace/internal/crypto"
	"ourspace/internal/services/message"
	"ourspace/internal/store"
)

var errBackendDown = errors.New("backend down")

// flakyStore fails the first n creates.
type flakyStore struct {
	domain.DocumentStore
	fail  int32
	calls atomic.Int32
}

func (f *flakyStore) Create(context.Context, string, string, domain.Write) error {
	if f.calls.Add(1) <= f.fail {
		return errBackendDown
	}
	return nil
}

// lostAckStore commits the first create but reports it as failed, like a
// relay whose reply never arrived.
type lostAckStore struct {
	*store.Memory
	mu  sync.Mutex
	ids []string
}

func (l *lostAckStore) Create(ctx context.Context, collection, id string, w domain.Write) error {
	l.mu.Lock()
	l.ids = append(l.ids, id)
	first := len(l.ids) == 1
	l.mu.Unlock()

	err := l.Memory.Create(ctx, collection, id, w)
	if first && err == nil {
		return errBackendDown
	}
	return err
}

func TestPublish_DefaultDoesNotRetry(t *testing.T) {
	fs := &flakyStore{fail: 1}
	svc := message.New(fs, message.Options{Namespace: ns}, zerolog.Nop())

	err := svc.Publish(context.Background(), session("a", "r", "p"), domain.KindText, []byte("x"))
	require.ErrorIs(t, err, message.ErrPublishFailed)
	require.ErrorIs(t, err, errBackendDown)
	require.Equal(t, int32(1), fs.calls.Load())
}

func TestPublish_RetriesWithBackoff(t *testing.T) {
	fs := &flakyStore{fail: 2}
	svc := message.New(fs, message.Options{
		Namespace: ns,
		Attempts:  3,
		Backoff:   time.Millisecond,
	}, zerolog.Nop())

	err := svc.Publish(context.Background(), session("a", "r", "p"), domain.KindText, []byte("x"))
	require.NoError(t, err)
	require.Equal(t, int32(3), fs.calls.Load())
}

func TestPublish_GivesUpAfterAttempts(t *testing.T) {
	fs := &flakyStore{fail: 10}
	svc := message.New(fs, message.Options{
		Namespace: ns,
		Attempts:  2,
		Backoff:   time.Millisecond,
	}, zerolog.Nop())

	err := svc.Publish(context.Background(), session("a", "r", "p"), domain.KindText, []byte("x"))
	require.ErrorIs(t, err, message.ErrPublishFailed)
	require.Equal(t, int32(2), fs.calls.Load())
}

func TestPublish_RetryAfterLostReplyStoresOnce(t *testing.T) {
	c := &clock{now: t0}
	ls := &lostAckStore{Memory: newStore(t, c)}
	svc := message.New(ls, message.Options{
		Namespace: ns,
		Attempts:  3,
		Backoff:   time.Millisecond,
	}, zerolog.Nop())
	ctx := context.Background()
	alice := session("alice", "room-8f92a1", "river-42")

	require.NoError(t, svc.Publish(ctx, alice, domain.KindText, []byte("hello")))

	require.Len(t, ls.ids, 2)
	require.Equal(t, ls.ids[0], ls.ids[1])

	docs, err := ls.List(ctx, crypto.MessagesCollection(ns, alice.RoomAddress))
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestPublish_FirstAttemptConflictIsAnError(t *testing.T) {
	fs := &conflictStore{}
	svc := message.New(fs, message.Options{Namespace: ns}, zerolog.Nop())

	err := svc.Publish(context.Background(), session("a", "r", "p"), domain.KindText, []byte("x"))
	require.ErrorIs(t, err, message.ErrPublishFailed)
	require.ErrorIs(t, err, domain.ErrDocumentExists)
}

type conflictStore struct{ domain.DocumentStore }

func (conflictStore) Create(context.Context, string, string, domain.Write) error {
	return domain.ErrDocumentExists
}
