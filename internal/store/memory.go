package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ourspace/internal/domain"
)

var (
	ErrClosed         = errors.New("store closed")
	ErrInvalidKey     = errors.New("invalid collection or document key")
	ErrExists         = domain.ErrDocumentExists
	ErrPersistFailure = errors.New("persist failed")
)

var _ domain.DocumentStore = (*Memory)(nil)

// Memory is a concurrency-safe in-memory document store.
type Memory struct {
	now     func() time.Time
	persist Persister

	mu      sync.Mutex
	closed  bool
	colls   map[string]map[string]domain.Document
	subs    map[string]map[uint64]*Mailbox
	nextSub uint64
}

// Option configures a Memory.
type Option func(*Memory)

// WithClock replaces the clock used for server timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) { m.now = now }
}

// WithPersister writes every change through to p and hydrates from it.
func WithPersister(p Persister) Option {
	return func(m *Memory) { m.persist = p }
}

// NewMemory returns an empty store, or one hydrated from its persister.
func NewMemory(opts ...Option) (*Memory, error) {
	m := &Memory{
		now:   time.Now,
		colls: make(map[string]map[string]domain.Document),
		subs:  make(map[string]map[uint64]*Mailbox),
	}
	for _, o := range opts {
		o(m)
	}
	if m.persist != nil {
		err := m.persist.Load(func(collection string, d domain.Document) {
			m.collection(collection)[d.ID] = d
		})
		if err != nil {
			return nil, fmt.Errorf("hydrate: %w", err)
		}
	}
	return m, nil
}

// Add stores w under a fresh random key.
func (m *Memory) Add(ctx context.Context, collection string, w domain.Write) (string, error) {
	id := uuid.NewString()
	if err := m.Create(ctx, collection, id, w); err != nil {
		return "", err
	}
	return id, nil
}

// Create stores w under a caller-chosen key that must not be in use.
func (m *Memory) Create(ctx context.Context, collection, id string, w domain.Write) error {
	return m.write(ctx, collection, id, w, false)
}

// Set creates or replaces the document id. Stamped fields take the store's
// current time.
func (m *Memory) Set(ctx context.Context, collection, id string, w domain.Write) error {
	return m.write(ctx, collection, id, w, true)
}

func (m *Memory) write(ctx context.Context, collection, id string, w domain.Write, replace bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validKey(collection) || !validKey(id) {
		return ErrInvalidKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if _, ok := m.colls[collection][id]; ok && !replace {
		return ErrExists
	}

	doc := domain.Document{ID: id, Fields: maps.Clone(w.Fields)}
	if doc.Fields == nil {
		doc.Fields = map[string]string{}
	}
	if len(w.ServerStamps) > 0 {
		at := m.now().UTC()
		doc.Stamps = make(map[string]time.Time, len(w.ServerStamps))
		for _, f := range w.ServerStamps {
			doc.Stamps[f] = at
		}
	}

	if m.persist != nil {
		if err := m.persist.Put(collection, doc); err != nil {
			return fmt.Errorf("%w: %v", ErrPersistFailure, err)
		}
	}
	m.collection(collection)[id] = doc
	m.publishLocked(collection)
	return nil
}

// Delete removes id from collection.
func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validKey(collection) || !validKey(id) {
		return ErrInvalidKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	c := m.colls[collection]
	if _, ok := c[id]; !ok {
		return nil
	}
	if m.persist != nil {
		if err := m.persist.Remove(collection, id); err != nil {
			return fmt.Errorf("%w: %v", ErrPersistFailure, err)
		}
	}
	delete(c, id)
	m.publishLocked(collection)
	return nil
}

// List returns the current contents of collection ordered by key.
func (m *Memory) List(ctx context.Context, collection string) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	return m.snapshotLocked(collection), nil
}

// Subscribe delivers the current contents immediately and then a full
// snapshot after every change, in order, on a dedicated goroutine. A slow
// handler sees only the latest snapshot once it catches up.
func (m *Memory) Subscribe(
	ctx context.Context,
	collection string,
	h domain.SnapshotHandler,
) (func(), error) {
	if !validKey(collection) {
		return nil, ErrInvalidKey
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	m.nextSub++
	id := m.nextSub
	s := NewMailbox(h)
	if m.subs[collection] == nil {
		m.subs[collection] = make(map[uint64]*Mailbox)
	}
	m.subs[collection][id] = s
	s.Offer(m.snapshotLocked(collection), nil)
	m.mu.Unlock()

	go s.Run(ctx)

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs[collection], id)
			m.mu.Unlock()
			s.Close()
		})
	}, nil
}

// Close ends every subscription with ErrClosed and closes the persister.
func (m *Memory) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	subs := m.subs
	m.subs = nil
	m.mu.Unlock()

	for _, bySub := range subs {
		for _, s := range bySub {
			s.Offer(nil, ErrClosed)
		}
	}
	if m.persist != nil {
		return m.persist.Close()
	}
	return nil
}

func (m *Memory) collection(name string) map[string]domain.Document {
	c, ok := m.colls[name]
	if !ok {
		c = make(map[string]domain.Document)
		m.colls[name] = c
	}
	return c
}

func (m *Memory) snapshotLocked(collection string) []domain.Document {
	c := m.colls[collection]
	out := make([]domain.Document, 0, len(c))
	for _, d := range c {
		out = append(out, cloneDoc(d))
	}
	slices.SortFunc(out, func(a, b domain.Document) int { return strings.Compare(a.ID, b.ID) })
	return out
}

func (m *Memory) publishLocked(collection string) {
	subs := m.subs[collection]
	if len(subs) == 0 {
		return
	}
	snap := m.snapshotLocked(collection)
	for _, s := range subs {
		s.Offer(snap, nil)
	}
}

func cloneDoc(d domain.Document) domain.Document {
	return domain.Document{ID: d.ID, Fields: maps.Clone(d.Fields), Stamps: maps.Clone(d.Stamps)}
}

func validKey(s string) bool {
	return s != "" && !strings.ContainsRune(s, keySep)
}
