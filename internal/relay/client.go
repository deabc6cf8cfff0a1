package relay

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"ourspace/internal/domain"
	"ourspace/internal/store"
)

var (
	// ErrSubscription is delivered to snapshot handlers when a watch stream
	// fails. The handler will not be called again; resubscribe to recover.
	ErrSubscription = errors.New("subscription failed")
	ErrUnauthorized = errors.New("relay rejected credentials")
)

var (
	_ domain.DocumentStore    = (*Client)(nil)
	_ domain.IdentityProvider = (*Client)(nil)
)

// Client talks to a relay server. It implements the document backend and
// the anonymous identity provider.
//
// Documents created through Add are shown to this client's subscribers
// straight away, without server stamps, until the server's own snapshot
// carries them.
type Client struct {
	Base   string
	HTTP   *http.Client
	Dialer *websocket.Dialer
	log    zerolog.Logger

	mu      sync.Mutex
	token   string
	pending map[string]map[string]domain.Document
	watches map[string]map[*watch]struct{}
}

type watch struct {
	box *store.Mailbox

	// server is the last snapshot received; nil until the first arrives.
	server []domain.Document
}

// NewClient returns a client for the relay at base, e.g. http://127.0.0.1:8080.
func NewClient(base string, logger zerolog.Logger) *Client {
	return &Client{
		Base:    strings.TrimRight(base, "/"),
		HTTP:    http.DefaultClient,
		Dialer:  websocket.DefaultDialer,
		log:     logger,
		pending: make(map[string]map[string]domain.Document),
		watches: make(map[string]map[*watch]struct{}),
	}
}

// SignInAnonymously obtains a session token and uses it for every later call.
func (c *Client) SignInAnonymously(ctx context.Context) (string, error) {
	var out tokenResponse
	if err := c.do(ctx, http.MethodPost, "/v1/auth/anonymous", nil, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", errors.New("relay returned an empty token")
	}
	c.mu.Lock()
	c.token = out.Token
	c.mu.Unlock()
	return out.Token, nil
}

// Add creates a document under a fresh key.
func (c *Client) Add(ctx context.Context, collection string, w domain.Write) (string, error) {
	id := uuid.NewString()
	if err := c.Create(ctx, collection, id, w); err != nil {
		return "", err
	}
	return id, nil
}

// Create asks the relay to store w under id. Local subscribers see it
// immediately as a pending write. A taken id yields domain.ErrDocumentExists.
func (c *Client) Create(ctx context.Context, collection, id string, w domain.Write) error {
	c.setPending(collection, domain.Document{ID: id, Fields: maps.Clone(w.Fields)})

	err := c.do(ctx, http.MethodPost, docsPath(collection)+"?id="+url.QueryEscape(id), w, nil)
	if err != nil {
		if !errors.Is(err, domain.ErrDocumentExists) {
			c.dropPending(collection, id)
		}
		return err
	}
	c.mu.Lock()
	if len(c.watches[collection]) == 0 {
		delete(c.pending[collection], id)
	}
	c.mu.Unlock()
	return nil
}

// Set upserts the document id.
func (c *Client) Set(ctx context.Context, collection, id string, w domain.Write) error {
	return c.do(ctx, http.MethodPut, docsPath(collection)+"/"+url.PathEscape(id), w, nil)
}

// Delete removes the document id.
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	return c.do(ctx, http.MethodDelete, docsPath(collection)+"/"+url.PathEscape(id), nil, nil)
}

// List fetches the current contents of collection once.
func (c *Client) List(ctx context.Context, collection string) ([]domain.Document, error) {
	var out []domain.Document
	if err := c.do(ctx, http.MethodGet, docsPath(collection), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Subscribe opens a watch stream for collection. Stream failures reach h
// once as an error wrapping ErrSubscription.
func (c *Client) Subscribe(
	ctx context.Context,
	collection string,
	h domain.SnapshotHandler,
) (func(), error) {
	u, err := c.watchURL(collection)
	if err != nil {
		return nil, err
	}
	hdr := http.Header{}
	c.mu.Lock()
	if c.token != "" {
		hdr.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.Unlock()

	conn, resp, err := c.Dialer.DialContext(ctx, u, hdr)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %w", ErrSubscription, ErrUnauthorized)
		}
		return nil, fmt.Errorf("%w: %v", ErrSubscription, err)
	}

	wctx, cancel := context.WithCancel(ctx)
	wt := &watch{box: store.NewMailbox(h)}
	c.mu.Lock()
	if c.watches[collection] == nil {
		c.watches[collection] = make(map[*watch]struct{})
	}
	c.watches[collection][wt] = struct{}{}
	c.mu.Unlock()

	go wt.box.Run(wctx)
	go c.readLoop(wctx, conn, collection, wt)
	go func() {
		<-wctx.Done()
		_ = conn.Close()
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.watches[collection], wt)
			c.mu.Unlock()
			wt.box.Close()
			cancel()
		})
	}, nil
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, collection string, wt *watch) {
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			if ctx.Err() == nil {
				c.log.Debug().Err(err).Str("collection", collection).Msg("[relay] watch stream ended")
				wt.box.Offer(nil, fmt.Errorf("%w: %v", ErrSubscription, err))
			}
			return
		}
		if f.Error != "" {
			wt.box.Offer(nil, fmt.Errorf("%w: %s", ErrSubscription, f.Error))
			return
		}
		c.applyServer(collection, wt, f.Docs)
	}
}

func (c *Client) applyServer(collection string, wt *watch, docs []domain.Document) {
	if docs == nil {
		docs = []domain.Document{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	wt.server = docs
	if p := c.pending[collection]; len(p) > 0 {
		for _, d := range docs {
			delete(p, d.ID)
		}
	}
	wt.box.Offer(c.mergeLocked(collection, wt), nil)
}

func (c *Client) setPending(collection string, d domain.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending[collection] == nil {
		c.pending[collection] = make(map[string]domain.Document)
	}
	c.pending[collection][d.ID] = d
	c.refreshLocked(collection)
}

func (c *Client) dropPending(collection, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[collection][id]; !ok {
		return
	}
	delete(c.pending[collection], id)
	c.refreshLocked(collection)
}

// refreshLocked re-emits every watch on collection that has seen the server.
func (c *Client) refreshLocked(collection string) {
	for wt := range c.watches[collection] {
		if wt.server != nil {
			wt.box.Offer(c.mergeLocked(collection, wt), nil)
		}
	}
}

func (c *Client) mergeLocked(collection string, wt *watch) []domain.Document {
	out := make([]domain.Document, 0, len(wt.server)+len(c.pending[collection]))
	seen := make(map[string]bool, len(wt.server))
	for _, d := range wt.server {
		seen[d.ID] = true
		out = append(out, d)
	}
	for id, d := range c.pending[collection] {
		if !seen[id] {
			out = append(out, domain.Document{ID: d.ID, Fields: maps.Clone(d.Fields)})
		}
	}
	return out
}

func (c *Client) watchURL(collection string) (string, error) {
	u, err := url.Parse(c.Base + "/v1/collections/" + url.PathEscape(collection) + "/watch")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	return u.String(), nil
}

func docsPath(collection string) string {
	return "/v1/collections/" + url.PathEscape(collection) + "/docs"
}
