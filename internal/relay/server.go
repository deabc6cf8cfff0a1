package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"ourspace/internal/domain"
	"ourspace/internal/store"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 20 * time.Second
)

// Backend is what the relay server serves. store.Memory satisfies it.
type Backend interface {
	domain.DocumentStore
	List(ctx context.Context, collection string) ([]domain.Document, error)
}

var _ Backend = (*store.Memory)(nil)

// Server exposes a Backend over HTTP and websockets. Every document route
// needs a bearer token minted by the anonymous sign-in endpoint.
type Server struct {
	backend Backend
	log     zerolog.Logger

	upgrader websocket.Upgrader

	mu     sync.Mutex
	tokens map[string]struct{}
	conns  map[*websocket.Conn]struct{}
	wg     sync.WaitGroup
}

// NewServer returns a server for backend.
func NewServer(backend Backend, logger zerolog.Logger) *Server {
	return &Server{
		backend: backend,
		log:     logger,
		upgrader: websocket.Upgrader{
			CheckOrigin:      func(*http.Request) bool { return true },
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: 10 * time.Second,
		},
		tokens: make(map[string]struct{}),
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

// Handler builds the relay router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/v1/auth/anonymous", s.handleSignIn)
	r.Route("/v1/collections/{collection}", func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/docs", s.handleList)
		r.Post("/docs", s.handleAdd)
		r.Put("/docs/{id}", s.handleSet)
		r.Delete("/docs/{id}", s.handleDelete)
		r.Get("/watch", s.handleWatch)
	})
	return r
}

// Close drops every open watch connection and waits for their handlers.
func (s *Server) Close() {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(time.Second),
		)
		_ = c.Close()
	}
	s.wg.Wait()
}

func (s *Server) handleSignIn(w http.ResponseWriter, _ *http.Request) {
	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = struct{}{}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		s.mu.Lock()
		_, ok := s.tokens[token]
		s.mu.Unlock()
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	coll, ok := collectionParam(w, r)
	if !ok {
		return
	}
	docs, err := s.backend.List(r.Context(), coll)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	coll, ok := collectionParam(w, r)
	if !ok {
		return
	}
	var in domain.Write
	if !readJSON(w, r, &in) {
		return
	}

	var (
		id  = r.URL.Query().Get("id")
		err error
	)
	if id == "" {
		id, err = s.backend.Add(r.Context(), coll, in)
	} else {
		err = s.backend.Create(r.Context(), coll, id, in)
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	coll, ok := collectionParam(w, r)
	if !ok {
		return
	}
	var in domain.Write
	if !readJSON(w, r, &in) {
		return
	}
	if err := s.backend.Set(r.Context(), coll, chi.URLParam(r, "id"), in); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	coll, ok := collectionParam(w, r)
	if !ok {
		return
	}
	if err := s.backend.Delete(r.Context(), coll, chi.URLParam(r, "id")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	coll, ok := collectionParam(w, r)
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.wg.Add(1)
	defer s.wg.Done()
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var wmu sync.Mutex
	send := func(f frame) error {
		wmu.Lock()
		defer wmu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(f)
	}

	unsub, err := s.backend.Subscribe(ctx, coll, func(docs []domain.Document, err error) {
		if err != nil {
			_ = send(frame{Error: err.Error()})
			cancel()
			return
		}
		if docs == nil {
			docs = []domain.Document{}
		}
		if err := send(frame{Docs: docs}); err != nil {
			cancel()
		}
	})
	if err != nil {
		_ = send(frame{Error: err.Error()})
		return
	}
	defer unsub()

	s.log.Debug().Str("collection", coll).Msg("[relay] watch opened")
	defer s.log.Debug().Str("collection", coll).Msg("[relay] watch closed")

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-ticker.C:
				wmu.Lock()
				err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
				wmu.Unlock()
				if err != nil {
					cancel()
					return
				}
			}
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.EscapedPath()).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("took", time.Since(start)).
			Msg("[relay] request")
	})
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidKey):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, store.ErrClosed):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		s.log.Error().Err(err).Msg("[relay] backend error")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func collectionParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	coll, err := url.PathUnescape(chi.URLParam(r, "collection"))
	if err != nil || coll == "" {
		http.Error(w, "bad collection", http.StatusBadRequest)
		return "", false
	}
	return coll, true
}

func readJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(out); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
