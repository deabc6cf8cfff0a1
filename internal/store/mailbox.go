package store

import (
	"context"
	"sync"

	"ourspace/internal/domain"
)

// Mailbox is a one-slot queue in front of a snapshot handler. Offers never
// block; a newer snapshot replaces an undelivered one. An error is terminal
// and is always delivered. Run drains it on the caller's goroutine, so the
// handler sees snapshots one at a time and in order.
type Mailbox struct {
	h    domain.SnapshotHandler
	wake chan struct{}

	mu      sync.Mutex
	pending []domain.Document
	err     error
	has     bool
	closed  bool
}

// NewMailbox returns an empty mailbox for h.
func NewMailbox(h domain.SnapshotHandler) *Mailbox {
	return &Mailbox{h: h, wake: make(chan struct{}, 1)}
}

// Offer queues a snapshot, or a terminal error when err is non-nil.
func (s *Mailbox) Offer(docs []domain.Document, err error) {
	s.mu.Lock()
	if s.closed || s.err != nil {
		s.mu.Unlock()
		return
	}
	s.pending, s.err, s.has = docs, err, true
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Close discards anything pending and makes Run return.
func (s *Mailbox) Close() {
	s.mu.Lock()
	s.closed = true
	s.pending = nil
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run delivers until Close, a terminal error or ctx is done.
func (s *Mailbox) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-s.wake:
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		if !s.has {
			s.mu.Unlock()
			continue
		}
		docs, err := s.pending, s.err
		s.pending, s.has = nil, false
		s.mu.Unlock()

		if err != nil {
			s.h(nil, err)
			s.Close()
			return
		}
		s.h(docs, nil)
	}
}
