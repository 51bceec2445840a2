package controller

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndmitrenko/tribune/internal/apierr"
	"github.com/ndmitrenko/tribune/internal/client/api"
	"github.com/ndmitrenko/tribune/internal/models"
)

func TestDetailLoad(t *testing.T) {
	e := newEnv(t)
	a := e.forum.SeedArticle(e.user.ID, "First", "<p>hello</p>", []string{"go"}, models.StatusPublished)
	c := NewArticleDetail(e.client, e.sess, e.nav, nil)

	require.NoError(t, c.Load(context.Background(), a.ID))

	assert.Equal(t, StateLoaded, c.State())
	require.NotNil(t, c.Article())
	assert.Equal(t, "First", c.Article().Title)
}

func TestDetailLoadNotFound(t *testing.T) {
	e := newEnv(t)
	c := NewArticleDetail(e.client, e.sess, e.nav, nil)

	err := c.Load(context.Background(), 999)

	assert.True(t, apierr.IsNotFound(err))
	assert.Equal(t, StateFailed, c.State())
	assert.Nil(t, c.Article())
}

// Posting a comment must make the article view's comment_count agree with
// the server by re-fetching the article, never by local increment.
func TestCommentCreateKeepsCountConsistent(t *testing.T) {
	e := newEnv(t)
	a := e.forum.SeedArticle(e.user.ID, "First", "<p>hello</p>", nil, models.StatusPublished)
	for i := 0; i < 3; i++ {
		e.forum.SeedComment(a.ID, e.user.ID, fmt.Sprintf("c%d", i))
	}

	c := NewArticleDetail(e.client, e.sess, e.nav, nil)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx, a.ID))
	require.NoError(t, c.Comments.Load(ctx, a.ID))
	require.Equal(t, 3, c.Article().CommentCount)

	require.NoError(t, c.Comments.Create(ctx, "hi"))

	comments := c.Comments.Comments()
	require.Len(t, comments, 4)
	assert.Equal(t, "hi", comments[3].Content, "the new comment is the most recent entry")
	assert.Equal(t, 4, c.Article().CommentCount)

	articlePath := fmt.Sprintf("GET /articles/%d", a.ID)
	assert.Equal(t, 2, e.forum.Requests(articlePath), "count must come from the invalidation re-fetch")
}

func TestCommentCreateEmptyContentNoNetwork(t *testing.T) {
	e := newEnv(t)
	a := e.forum.SeedArticle(e.user.ID, "First", "x", nil, models.StatusPublished)
	c := NewArticleDetail(e.client, e.sess, e.nav, nil)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx, a.ID))
	require.NoError(t, c.Comments.Load(ctx, a.ID))
	before := e.forum.TotalRequests()

	err := c.Comments.Create(ctx, "   \n\t ")

	assert.True(t, apierr.IsValidation(err))
	assert.Equal(t, before, e.forum.TotalRequests(), "whitespace-only content must not reach the network")
}

// Navigating from article A to article B while A's fetch is still pending
// must leave B's data on screen even when A's response arrives last.
func TestDetailStaleResponseDiscarded(t *testing.T) {
	e := newEnv(t)
	slow := e.forum.SeedArticle(e.user.ID, "Slow", "a", nil, models.StatusPublished)
	fast := e.forum.SeedArticle(e.user.ID, "Fast", "b", nil, models.StatusPublished)

	release := make(chan struct{})
	slowPath := fmt.Sprintf("/articles/%d", slow.ID)
	e.forum.SetBefore(func(r *http.Request) {
		if r.URL.Path == slowPath {
			<-release
		}
	})

	c := NewArticleDetail(e.client, e.sess, e.nav, nil)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Load(ctx, slow.ID)
	}()

	// Wait for A's fetch to be in flight before navigating to B.
	require.Eventually(t, func() bool {
		return e.forum.Requests("GET "+slowPath) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Load(ctx, fast.ID))
	require.Equal(t, "Fast", c.Article().Title)

	close(release)
	<-done

	assert.Equal(t, "Fast", c.Article().Title, "the stale completion must be discarded")
	assert.Equal(t, StateLoaded, c.State())
}

// Two truly concurrent loads may interleave however the scheduler likes,
// but the installed article must always be the one whose id the controller
// records: the id and the fetch generation are taken in one critical
// section.
func TestDetailConcurrentLoadsAgreeOnId(t *testing.T) {
	e := newEnv(t)
	first := e.forum.SeedArticle(e.user.ID, "A", "x", nil, models.StatusPublished)
	second := e.forum.SeedArticle(e.user.ID, "B", "y", nil, models.StatusPublished)

	release := make(chan struct{})
	e.forum.SetBefore(func(r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/articles/") {
			<-release
		}
	})

	c := NewArticleDetail(e.client, e.sess, e.nav, nil)
	ctx := context.Background()
	var wg sync.WaitGroup
	for _, id := range []int64{first.ID, second.ID} {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_ = c.Load(ctx, id)
		}(id)
	}

	// Hold both fetches in flight so their completions race.
	require.Eventually(t, func() bool {
		return e.forum.Requests(fmt.Sprintf("GET /articles/%d", first.ID)) == 1 &&
			e.forum.Requests(fmt.Sprintf("GET /articles/%d", second.ID)) == 1
	}, time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()

	c.mu.Lock()
	article, id := c.article, c.articleID
	c.mu.Unlock()
	require.NotNil(t, article)
	assert.Equal(t, id, article.ID)
	assert.Equal(t, StateLoaded, c.State())
}

func TestCommentMutationAuthRejectionClearsSession(t *testing.T) {
	e := newEnv(t)
	a := e.forum.SeedArticle(e.user.ID, "First", "x", nil, models.StatusPublished)
	c := NewArticleDetail(e.client, e.sess, e.nav, nil)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx, a.ID))
	require.NoError(t, c.Comments.Load(ctx, a.ID))

	e.forum.RevokeToken(e.token)
	err := c.Comments.Create(ctx, "hi")

	require.True(t, apierr.IsAuthRejected(err))
	assert.False(t, e.sess.Current().LoggedIn())
	assert.Equal(t, 1, e.nav.loginCount())
	// The sibling article view was not touched by the failure.
	assert.Equal(t, "First", c.Article().Title)
}

func TestCommentDeleteRefetchesChain(t *testing.T) {
	e := newEnv(t)
	a := e.forum.SeedArticle(e.user.ID, "First", "x", nil, models.StatusPublished)
	cm := e.forum.SeedComment(a.ID, e.user.ID, "bye")
	c := NewArticleDetail(e.client, e.sess, e.nav, nil)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx, a.ID))
	require.NoError(t, c.Comments.Load(ctx, a.ID))
	require.Equal(t, 1, c.Article().CommentCount)

	require.NoError(t, c.Comments.Delete(ctx, cm.ID))

	assert.Empty(t, c.Comments.Comments())
	assert.Equal(t, 0, c.Article().CommentCount)
}

func TestDetailUpdateRefetches(t *testing.T) {
	e := newEnv(t)
	a := e.forum.SeedArticle(e.user.ID, "Draft piece", "x", nil, models.StatusDraft)
	c := NewArticleDetail(e.client, e.sess, e.nav, nil)
	ctx := context.Background()
	_, err := e.sess.ResolveIdentity(ctx, e.client)
	require.NoError(t, err)
	require.NoError(t, c.Load(ctx, a.ID))
	require.True(t, c.CanEdit())

	require.NoError(t, c.Update(ctx, api.ArticleInput{Status: models.StatusPublished}))

	assert.Equal(t, models.StatusPublished, c.Article().Status)
}

func TestDetailDeleteResetsView(t *testing.T) {
	e := newEnv(t)
	a := e.forum.SeedArticle(e.user.ID, "Gone soon", "x", nil, models.StatusDraft)
	c := NewArticleDetail(e.client, e.sess, e.nav, nil)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx, a.ID))

	require.NoError(t, c.Delete(ctx))

	assert.Nil(t, c.Article())
	assert.Equal(t, StateIdle, c.State())
	_, found := e.forum.Article(a.ID)
	assert.False(t, found)
}
