package controller

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ndmitrenko/tribune/internal/client/session"
	"github.com/ndmitrenko/tribune/internal/models"
)

// GuardState is the auth guard's position in its state machine.
type GuardState int

const (
	// GuardLoading holds until identity resolution settles.
	GuardLoading GuardState = iota
	// GuardAuthenticated renders the protected subtree.
	GuardAuthenticated
	// GuardUnauthenticated redirects to login and renders nothing.
	GuardUnauthenticated
)

func (s GuardState) String() string {
	switch s {
	case GuardLoading:
		return "loading"
	case GuardAuthenticated:
		return "authenticated"
	case GuardUnauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// AuthGuard gates protected views. It is re-evaluated per Check call, so a
// credential change between views is picked up on the next mount.
//
// Resolution failures of any kind leave the guard unauthenticated: the
// guard fails closed rather than render a protected view it cannot vouch
// for. Only an authentication rejection destroys the credential itself
// (the session store's doing); a transient network failure keeps the token
// so a later check can recover.
type AuthGuard struct {
	mu       sync.Mutex
	state    GuardState
	identity *models.Profile

	session *session.Store
	client  session.IdentityClient
	nav     Navigator
	log     *zap.Logger
}

// NewAuthGuard builds a guard over the given session store and transport.
func NewAuthGuard(sess *session.Store, client session.IdentityClient, nav Navigator, log *zap.Logger) *AuthGuard {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthGuard{session: sess, client: client, nav: nav, log: log}
}

// State returns the guard's current state.
func (g *AuthGuard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Identity returns the resolved identity, nil unless authenticated.
func (g *AuthGuard) Identity() *models.Profile {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.identity
}

// Check runs one evaluation: Loading until resolution settles, then either
// Authenticated with the identity or Unauthenticated with a redirect to
// login. A missing credential short-circuits without a network call.
func (g *AuthGuard) Check(ctx context.Context) GuardState {
	g.mu.Lock()
	g.state = GuardLoading
	g.identity = nil
	g.mu.Unlock()

	if !g.session.Current().LoggedIn() {
		return g.deny()
	}

	p, err := g.session.ResolveIdentity(ctx, g.client)
	if err != nil {
		g.log.Debug("identity resolution failed", zap.Error(err))
		return g.deny()
	}

	g.mu.Lock()
	g.state = GuardAuthenticated
	g.identity = p
	g.mu.Unlock()
	return GuardAuthenticated
}

func (g *AuthGuard) deny() GuardState {
	g.mu.Lock()
	g.state = GuardUnauthenticated
	g.identity = nil
	g.mu.Unlock()
	g.nav.ShowLogin()
	return GuardUnauthenticated
}
