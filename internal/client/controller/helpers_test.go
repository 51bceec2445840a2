package controller

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ndmitrenko/tribune/internal/client/api"
	"github.com/ndmitrenko/tribune/internal/client/session"
	"github.com/ndmitrenko/tribune/internal/models"
	"github.com/ndmitrenko/tribune/internal/testutil"
)

// navSpy records navigation hand-offs.
type navSpy struct {
	mu       sync.Mutex
	logins   int
	articles []int64
}

func (n *navSpy) ShowLogin() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.logins++
}

func (n *navSpy) ShowArticle(id int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.articles = append(n.articles, id)
}

func (n *navSpy) loginCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.logins
}

func (n *navSpy) shownArticles() []int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]int64(nil), n.articles...)
}

type env struct {
	forum  *testutil.Forum
	sess   *session.Store
	client *api.Client
	nav    *navSpy
	user   models.UserSummary
	token  string
}

// newEnv wires a fake forum, a session store holding a valid credential for
// a seeded user, and a transport over both.
func newEnv(t *testing.T) *env {
	t.Helper()
	forum := testutil.NewForum(t)
	user := forum.SeedUser("ann@example.com", "password123", "Ann")
	tok := forum.TokenFor(user.ID)

	sess, err := session.Open(filepath.Join(t.TempDir(), "session.json"), nil)
	require.NoError(t, err)
	require.NoError(t, sess.SetToken(tok))

	return &env{
		forum:  forum,
		sess:   sess,
		client: api.New(forum.URL(), sess, nil),
		nav:    &navSpy{},
		user:   user,
		token:  tok,
	}
}
