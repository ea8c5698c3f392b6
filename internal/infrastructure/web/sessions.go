package web

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/doeshing/datatalk/internal/application/query"
	"github.com/doeshing/datatalk/internal/infrastructure/metrics"
)

// SessionOptions bounds the session table. A zero TTL keeps idle sessions
// forever and a zero Max leaves the table unbounded.
type SessionOptions struct {
	Cookie string
	TTL    time.Duration
	Max    int
}

// Sessions maps a browser cookie to the chat controller it owns. Idle
// sessions expire after TTL and the least recently used one is dropped once
// Max is reached.
type Sessions struct {
	cookie  string
	factory func() *query.Controller

	// mu serialises Add so a refresh cannot resurrect an entry the
	// expiry sweep removed without counting it again.
	mu    sync.Mutex
	table *expirable.LRU[string, *session]
}

type session struct {
	ctrl    *query.Controller
	evicted atomic.Bool
}

// NewSessions builds a session table. factory is called once per new browser.
func NewSessions(opts SessionOptions, factory func() *query.Controller) *Sessions {
	s := &Sessions{cookie: opts.Cookie, factory: factory}
	s.table = expirable.NewLRU[string, *session](opts.Max, s.evict, opts.TTL)
	return s
}

// evict runs under the table's own lock, for expiry and capacity alike.
func (s *Sessions) evict(_ string, sess *session) {
	sess.evicted.Store(true)
	metrics.ActiveSessions.Dec()
}

// Controller returns the caller's controller, issuing a new session cookie
// when the request has none or one that expired.
func (s *Sessions) Controller(w http.ResponseWriter, r *http.Request) *query.Controller {
	if c, err := r.Cookie(s.cookie); err == nil {
		if ctrl, ok := s.touch(c.Value); ok {
			return ctrl
		}
	}

	id := uuid.NewString()
	sess := &session{ctrl: s.factory()}

	s.mu.Lock()
	metrics.ActiveSessions.Inc()
	s.table.Add(id, sess)
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess.ctrl
}

// touch looks a session up and restarts its idle timer.
func (s *Sessions) touch(id string) (*query.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.table.Get(id)
	if !ok {
		return nil, false
	}
	s.table.Add(id, sess)
	if sess.evicted.CompareAndSwap(true, false) {
		// swept between Get and Add
		metrics.ActiveSessions.Inc()
	}
	return sess.ctrl, true
}

// Len reports how many sessions are held.
func (s *Sessions) Len() int {
	return s.table.Len()
}
