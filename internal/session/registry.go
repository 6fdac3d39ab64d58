package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	state   State
	started time.Time
}

// Registry keeps the UI state of every live session.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]entry
	now      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]entry), now: time.Now}
}

// Start creates a session for user and returns its id.
func (r *Registry) Start(user string) (string, State) {
	id := uuid.NewString()
	s := Reduce(Initial(), LoggedIn{User: user})

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = entry{state: s, started: r.now()}
	return id, s
}

func (r *Registry) Get(id string) (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	return e.state, ok
}

// Dispatch applies actions in order and stores the result. Unknown sessions
// stay unknown and get the initial state back.
func (r *Registry) Dispatch(id string, actions ...Action) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return Initial()
	}
	for _, a := range actions {
		e.state = Reduce(e.state, a)
	}
	r.sessions[id] = e
	return e.state
}

// End logs the session out and forgets it.
func (r *Registry) End(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Sweep forgets every session started more than maxAge ago and returns how
// many were removed.
func (r *Registry) Sweep(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-maxAge)
	n := 0
	for id, e := range r.sessions {
		if e.started.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
