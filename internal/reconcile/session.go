package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cleared-dev/ledgerview/internal/metrics"
)

// ErrStale is returned by Refresh when a newer refresh was issued before
// this one finished. Callers drop it silently.
var ErrStale = errors.New("stale request discarded")

// Session serializes the ledger view of one consumer. The most recently
// issued refresh wins regardless of completion order.
type Session struct {
	loader Loader

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	current    *View
	lastUsed   time.Time
	now        func() time.Time
}

// NewSession creates a Session.
func NewSession(loader Loader) *Session {
	return &Session{loader: loader, now: time.Now, lastUsed: time.Now()}
}

// Refresh loads req and publishes the result unless another refresh was
// issued in the meantime, in which case it returns ErrStale. Issuing a
// refresh cancels the load of the previous one.
func (s *Session) Refresh(ctx context.Context, req Request) (*View, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.generation++
	gen := s.generation
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.lastUsed = s.now()
	s.mu.Unlock()

	view, err := s.loader.Load(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		metrics.RecordStaleDiscard()
		return nil, ErrStale
	}
	s.cancel = nil
	if err != nil {
		return nil, err
	}
	s.current = view
	return view, nil
}

// Current returns the last published view, nil before the first one.
func (s *Session) Current() *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Sessions keeps one Session per consumer id.
type Sessions struct {
	loader Loader
	idle   time.Duration
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessions creates a session registry. Sessions unused for longer than
// idle are dropped by Prune.
func NewSessions(loader Loader, idle time.Duration) *Sessions {
	return &Sessions{
		loader:   loader,
		idle:     idle,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, creating it on first use.
func (r *Sessions) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		s = NewSession(r.loader)
		s.now = r.now
		s.lastUsed = r.now()
		r.sessions[id] = s
	}
	return s
}

// Len returns the number of live sessions.
func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Prune drops idle sessions and returns how many were removed.
func (r *Sessions) Prune() int {
	cutoff := r.now().Add(-r.idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Run prunes idle sessions every interval until ctx is done.
func (r *Sessions) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Prune()
		}
	}
}
