// Package controller holds the per-view state machines: the auth guard
// gating protected views, and one controller per view owning its fetched
// copy of the data. No entity is shared by reference between controllers;
// consistency between views is restored by re-fetching, never by patching
// state in place.
package controller

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ndmitrenko/tribune/internal/apierr"
	"github.com/ndmitrenko/tribune/internal/client/session"
)

// Navigator is the hand-off point to whatever owns routing. Controllers
// never render; they only ask for a view change.
type Navigator interface {
	// ShowLogin routes to the login entry point.
	ShowLogin()
	// ShowArticle routes to the detail view of one article.
	ShowArticle(id int64)
}

// State of one controller's view. Empty data under StateLoaded is a valid
// state of its own, distinct from loading and from failure.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// base carries what every controller needs: guarded view state, the fetch
// generation counter that kills stale completions, and the one global
// reaction shared by all controllers (credential invalidation on an
// authentication rejection).
type base struct {
	mu    sync.Mutex
	state State
	err   error
	gen   uint64

	session *session.Store
	nav     Navigator
	log     *zap.Logger
}

func newBase(sess *session.Store, nav Navigator, log *zap.Logger) base {
	if log == nil {
		log = zap.NewNop()
	}
	return base{session: sess, nav: nav, log: log}
}

// begin marks a new fetch and supersedes any in-flight one. set, when
// non-nil, records the input that initiated the fetch (the view's current
// identifier) in the same critical section as the generation bump, so the
// two can never disagree. The returned generation must accompany the
// completion.
func (b *base) begin(set func()) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if set != nil {
		set()
	}
	b.gen++
	b.state = StateLoading
	b.err = nil
	return b.gen
}

// finish installs a fetch completion, unless a later fetch has superseded
// it, in which case the result is discarded untouched. apply runs under the
// lock and must only assign view fields.
func (b *base) finish(gen uint64, err error, apply func()) bool {
	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		b.log.Debug("stale completion discarded", zap.Uint64("gen", gen))
		return false
	}
	if err != nil {
		b.state = StateFailed
		b.err = err
		b.mu.Unlock()
		b.reactTo(err)
		return true
	}
	apply()
	b.state = StateLoaded
	b.err = nil
	b.mu.Unlock()
	return true
}

// reactTo applies the one cross-view error policy: a rejected credential
// clears the session and forces navigation to login. Every other failure
// stays local to the view that saw it.
func (b *base) reactTo(err error) {
	if !apierr.IsAuthRejected(err) {
		return
	}
	if cerr := b.session.Clear(); cerr != nil {
		b.log.Warn("failed to clear session", zap.Error(cerr))
	}
	b.nav.ShowLogin()
}

// State returns the current view state.
func (b *base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Err returns the view-local error, nil when none.
func (b *base) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// setErr records a mutation failure without discarding the loaded view.
func (b *base) setErr(err error) {
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
	b.reactTo(err)
}
