// Package session owns the bearer credential and the identity resolved
// from it. The credential is the only state shared across controllers, and
// this store is its only writer.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ndmitrenko/tribune/internal/apierr"
	"github.com/ndmitrenko/tribune/internal/models"
)

// Session is a snapshot of the current authentication state. Identity is
// nil until ResolveIdentity succeeds for the current token.
type Session struct {
	Token    string
	Identity *models.Profile
}

// LoggedIn reports whether a credential is present. It says nothing about
// whether the server still accepts it.
func (s Session) LoggedIn() bool { return s.Token != "" }

// IdentityClient is the one call the store needs from the transport.
type IdentityClient interface {
	Me(ctx context.Context) (*models.Profile, error)
}

// tokenFile is the persisted shape. One opaque token under one key;
// an absent file means logged out.
type tokenFile struct {
	Token string `json:"token"`
}

// Store holds the credential and resolved identity. All mutation goes
// through SetToken and Clear; controllers never write it directly.
type Store struct {
	mu       sync.Mutex
	path     string
	token    string
	identity *models.Profile
	sf       singleflight.Group
	log      *zap.Logger
}

// Open loads the persisted credential, if any, from path. A missing file is
// a clean logged-out state, not an error.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{path: path, log: log}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read token file: %w", err)
	}
	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse token file: %w", err)
	}
	s.token = tf.Token
	return s, nil
}

// Token implements api.TokenSource.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Current returns a snapshot of the session.
func (s *Store) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Session{Token: s.token, Identity: s.identity}
}

// SetToken installs and persists a freshly issued credential. Any cached
// identity belonged to the previous credential and is dropped.
func (s *Store) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(tokenFile{Token: token})
	if err != nil {
		return fmt.Errorf("encode token file: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create token dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	s.token = token
	s.identity = nil
	return nil
}

// Clear destroys the session: credential gone from memory and disk,
// identity gone with it.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.identity = nil
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// ResolveIdentity resolves the user behind the current credential via the
// "who am I" call. The result is cached for the credential's lifetime.
// Concurrent calls for the same credential share one network call. An
// authentication rejection clears the credential as a side effect; any
// other failure leaves it in place so a later attempt can recover.
func (s *Store) ResolveIdentity(ctx context.Context, c IdentityClient) (*models.Profile, error) {
	s.mu.Lock()
	tok := s.token
	cached := s.identity
	s.mu.Unlock()

	if tok == "" {
		return nil, apierr.New(apierr.KindAuthRejected, "no credential present")
	}
	if cached != nil {
		return cached, nil
	}

	v, err, shared := s.sf.Do(tok, func() (any, error) {
		p, err := c.Me(ctx)
		if err != nil {
			if apierr.IsAuthRejected(err) {
				s.log.Info("credential rejected, clearing session")
				if cerr := s.Clear(); cerr != nil {
					s.log.Warn("failed to clear rejected credential", zap.Error(cerr))
				}
			}
			return nil, err
		}
		s.mu.Lock()
		if s.token == tok {
			s.identity = p
		}
		s.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.Debug("identity resolution deduplicated")
	}
	return v.(*models.Profile), nil
}
