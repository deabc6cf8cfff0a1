package message

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ourspace/internal/crypto"
	"ourspace/internal/domain"
	"ourspace/internal/util/memzero"
)

var errDead = errors.New("subscription closed")

// opened is a memoized decrypt result for one (id, envelope) pair.
type opened struct {
	envelope  string
	plaintext []byte
	err       error
}

// subscription holds the per-stream state. process is only ever called
// from the backend's delivery goroutine, one snapshot at a time.
type subscription struct {
	now   func() time.Time
	limit int

	mu   sync.Mutex
	live bool

	// procMu guards the key and the caches. It is never held while a
	// callback runs.
	procMu    sync.Mutex
	key       domain.SymmetricKey
	memo      map[string]opened
	firstSeen map[string]time.Time
}

func (s *subscription) alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

func (s *subscription) kill() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = false
}

// wipe waits for any snapshot being decrypted, then zeroes the key copy and
// the cached plaintexts. Call it after kill.
func (s *subscription) wipe() {
	s.procMu.Lock()
	defer s.procMu.Unlock()
	memzero.Zero(s.key[:])
	for id, o := range s.memo {
		memzero.Zero(o.plaintext)
		delete(s.memo, id)
	}
	clear(s.firstSeen)
}

// process decrypts a snapshot and orders it. It returns an error when ctx
// ends first or the subscription is dead, in which case nothing should be
// emitted. Plaintexts in the result are the caller's to keep or wipe.
func (s *subscription) process(ctx context.Context, docs []domain.Document) ([]domain.DecryptedMessage, error) {
	s.procMu.Lock()
	defer s.procMu.Unlock()
	if !s.alive() {
		return nil, errDead
	}

	now := s.now()
	out := make([]domain.DecryptedMessage, len(docs))
	present := make(map[string]bool, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)

	for i, d := range docs {
		m := domain.MessageFromDocument(d)
		present[m.ID] = true

		dm := domain.DecryptedMessage{Message: m}
		if m.CreatedAt != nil {
			dm.DisplayTime = *m.CreatedAt
		} else {
			seen, ok := s.firstSeen[m.ID]
			if !ok {
				seen = now
				s.firstSeen[m.ID] = seen
			}
			dm.DisplayTime = seen
			dm.Pending = true
		}
		out[i] = dm

		if hit, ok := s.memo[m.ID]; ok && hit.envelope == m.EncryptedContent {
			out[i].Plaintext, out[i].Err = slices.Clone(hit.plaintext), hit.err
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i].Plaintext, out[i].Err = crypto.Decrypt(&s.key, m.EncryptedContent)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, dm := range out {
		if hit, ok := s.memo[dm.ID]; ok {
			if hit.envelope == dm.EncryptedContent {
				continue
			}
			memzero.Zero(hit.plaintext)
		}
		s.memo[dm.ID] = opened{envelope: dm.EncryptedContent, plaintext: slices.Clone(dm.Plaintext), err: dm.Err}
	}
	for id, o := range s.memo {
		if !present[id] {
			memzero.Zero(o.plaintext)
			delete(s.memo, id)
		}
	}
	for id := range s.firstSeen {
		if !present[id] {
			delete(s.firstSeen, id)
		}
	}

	Order(out)
	return out, nil
}

// Order sorts messages by display time, oldest first, breaking ties by ID.
// The result depends only on the set of messages, not their arrival order.
func Order(msgs []domain.DecryptedMessage) {
	slices.SortStableFunc(msgs, func(a, b domain.DecryptedMessage) int {
		if c := a.DisplayTime.Compare(b.DisplayTime); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
