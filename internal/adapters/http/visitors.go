package web

import (
	"sync"

	"rippedcity/internal/domain/gesture"
	"rippedcity/internal/domain/intake"
)

// visitorState holds the pre-authentication state of one browser session:
// the intake wizard draft and the logo gesture counter.
type visitorState struct {
	wizard  *intake.Wizard
	gesture *gesture.Tracker
}

// visitorRegistry maps browser-session tokens to their visitor state.
type visitorRegistry struct {
	mu    sync.Mutex
	state map[string]*visitorState
}

func newVisitorRegistry() *visitorRegistry {
	return &visitorRegistry{state: make(map[string]*visitorState)}
}

// get returns the state for a token, creating it on first use.
func (vr *visitorRegistry) get(token string) *visitorState {
	vr.mu.Lock()
	defer vr.mu.Unlock()
	vs, ok := vr.state[token]
	if !ok {
		vs = &visitorState{
			wizard:  intake.New(),
			gesture: gesture.NewTracker(),
		}
		vr.state[token] = vs
	}
	return vs
}

// drop discards the state for a token.
func (vr *visitorRegistry) drop(token string) {
	vr.mu.Lock()
	defer vr.mu.Unlock()
	delete(vr.state, token)
}
