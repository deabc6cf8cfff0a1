package presence

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ourspace/internal/crypto"
	"ourspace/internal/domain"
)

const (
	DefaultHeartbeat = 5 * time.Second
	DefaultWindow    = 15 * time.Second
)

var (
	ErrAlreadyActive = errors.New("presence already active")
	ErrNotActive     = errors.New("presence not active")
)

// Options tunes a Tracker. Zero values select the defaults.
type Options struct {
	Namespace string
	Heartbeat time.Duration
	Window    time.Duration
	Now       func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Heartbeat <= 0 {
		o.Heartbeat = DefaultHeartbeat
	}
	if o.Window <= 0 {
		o.Window = DefaultWindow
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Tracker runs the presence protocol for at most one session at a time.
type Tracker struct {
	store domain.DocumentStore
	opts  Options
	log   zerolog.Logger

	mu       sync.Mutex
	gen      uint64
	running  bool
	self     domain.Username
	coll     string
	records  []domain.PresenceRecord
	current  []domain.Username
	onChange func([]domain.Username)
	cancel   context.CancelFunc
	unsub    func()
	done     chan struct{}
}

var _ domain.PresenceService = (*Tracker)(nil)

// New constructs a Tracker over store.
func New(store domain.DocumentStore, opts Options, logger zerolog.Logger) *Tracker {
	return &Tracker{store: store, opts: opts.withDefaults(), log: logger}
}

// OnChange registers fn to receive the active set whenever it changes.
// fn runs on the tracker's goroutines and must not block.
func (t *Tracker) OnChange(fn func([]domain.Username)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = fn
}

// Active returns the other participants currently considered present.
func (t *Tracker) Active() []domain.Username {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.current)
}

// Start writes the local lease, begins heartbeating and watches the room.
func (t *Tracker) Start(ctx context.Context, sess *domain.Session) error {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return ErrAlreadyActive
	}
	t.gen++
	gen := t.gen
	t.running = true
	t.self = sess.ParticipantName
	t.coll = crypto.PresenceCollection(t.opts.Namespace, sess.RoomAddress)
	t.records, t.current = nil, nil

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	t.cancel = cancel
	t.done = make(chan struct{})
	t.mu.Unlock()

	t.heartbeat(loopCtx)

	unsub, err := t.store.Subscribe(loopCtx, t.coll, func(docs []domain.Document, err error) {
		if err != nil {
			t.log.Debug().Err(err).Msg("presence stream ended")
			return
		}
		recs := make([]domain.PresenceRecord, 0, len(docs))
		for _, d := range docs {
			recs = append(recs, domain.PresenceFromDocument(d))
		}
		t.update(gen, recs)
	})
	if err != nil {
		t.mu.Lock()
		t.running = false
		t.mu.Unlock()
		cancel()
		close(t.done)
		return err
	}

	t.mu.Lock()
	t.unsub = unsub
	t.mu.Unlock()

	go t.loop(loopCtx, gen)
	return nil
}

// Stop ends heartbeating and removes the local lease. Removal is best
// effort; an orphaned lease simply expires.
func (t *Tracker) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return ErrNotActive
	}
	t.running = false
	cancel, unsub, done := t.cancel, t.unsub, t.done
	coll, self := t.coll, t.self
	t.records, t.current = nil, nil
	t.mu.Unlock()

	cancel()
	if unsub != nil {
		unsub()
	}
	<-done

	if err := t.store.Delete(ctx, coll, self.String()); err != nil {
		t.log.Debug().Err(err).Msg("presence lease not removed")
	}
	return nil
}

func (t *Tracker) loop(ctx context.Context, gen uint64) {
	defer close(t.done)

	ticker := time.NewTicker(t.opts.Heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.heartbeat(ctx)
			t.update(gen, nil)
		}
	}
}

func (t *Tracker) heartbeat(ctx context.Context) {
	t.mu.Lock()
	coll, self := t.coll, t.self
	t.mu.Unlock()

	err := t.store.Set(ctx, coll, self.String(), domain.Write{
		Fields: map[string]string{
			domain.FieldName:   self.String(),
			domain.FieldStatus: domain.StatusOnline,
		},
		ServerStamps: []string{domain.FieldLastSeen},
	})
	if err != nil && ctx.Err() == nil {
		t.log.Debug().Err(err).Msg("presence heartbeat failed")
	}
}

// update recomputes the active set. A nil recs keeps the last snapshot and
// only re-evaluates it against the clock.
func (t *Tracker) update(gen uint64, recs []domain.PresenceRecord) {
	t.mu.Lock()
	if !t.running || t.gen != gen {
		t.mu.Unlock()
		return
	}
	if recs != nil {
		t.records = recs
	}
	next := ActiveParticipants(t.records, t.self, t.opts.Now(), t.opts.Window)
	if slices.Equal(next, t.current) {
		t.mu.Unlock()
		return
	}
	t.current = next
	fn := t.onChange
	t.mu.Unlock()

	if fn != nil {
		fn(slices.Clone(next))
	}
}

// ActiveParticipants returns the sorted, distinct names other than self
// whose lastSeen lies within window of now. Records not yet stamped by the
// backend are left out.
func ActiveParticipants(
	records []domain.PresenceRecord,
	self domain.Username,
	now time.Time,
	window time.Duration,
) []domain.Username {
	out := make([]domain.Username, 0, len(records))
	for _, r := range records {
		if r.Name == "" || r.Name == self || r.LastSeen == nil {
			continue
		}
		if now.Sub(*r.LastSeen) < window {
			out = append(out, r.Name)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
