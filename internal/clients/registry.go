// Package clients keeps the ephemeral flow state of each visitor, keyed by the
// client id cookie.
package clients

import (
	"sync"
	"time"

	"mindmosaic-backend/internal/assessment"
	"mindmosaic-backend/internal/authclient"
	"mindmosaic-backend/internal/chat"
	"mindmosaic-backend/internal/community"
)

// State is everything one visitor's screens hold between requests.
type State struct {
	Assessment *assessment.Flow
	Chat       *chat.Conversation
	Viewport   *chat.Viewport
	Community  *community.View
	AuthForm   *authclient.Form
}

type Registry struct {
	mu       sync.Mutex
	states   map[string]*State
	lastSeen map[string]time.Time
	board    *community.Board
	auth     authclient.Backend
	now      func() time.Time
}

func NewRegistry(board *community.Board, auth authclient.Backend) *Registry {
	return &Registry{
		states:   make(map[string]*State),
		lastSeen: make(map[string]time.Time),
		board:    board,
		auth:     auth,
		now:      time.Now,
	}
}

// Get returns the visitor's state, creating it on first use.
func (r *Registry) Get(clientID string) *State {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastSeen[clientID] = r.now()
	if st, ok := r.states[clientID]; ok {
		return st
	}
	st := &State{
		Assessment: assessment.NewFlow(assessment.Questions),
		Chat:       chat.NewConversation(),
		Viewport:   chat.NewViewport(),
		Community:  community.NewView(r.board),
		AuthForm:   authclient.NewForm(r.auth),
	}
	r.states[clientID] = st
	return st
}

// Lookup returns the state only if the visitor already has one.
func (r *Registry) Lookup(clientID string) (*State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.states[clientID]
	return st, ok
}

// Forget drops a visitor's flows, e.g. on logout.
func (r *Registry) Forget(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, clientID)
	delete(r.lastSeen, clientID)
}

// busy reports whether a generative job may still write into the state.
func (st *State) busy() bool {
	return st.Chat.Pending() || st.Assessment.State() == assessment.StateSubmitting
}

// Sweep drops visitors not seen for maxIdle and returns their ids. Visitors
// with a job in flight are kept until it lands.
func (r *Registry) Sweep(maxIdle time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxIdle)
	var evicted []string
	for id, seen := range r.lastSeen {
		if seen.After(cutoff) || r.states[id].busy() {
			continue
		}
		delete(r.states, id)
		delete(r.lastSeen, id)
		evicted = append(evicted, id)
	}
	return evicted
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}
