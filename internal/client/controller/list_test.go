package controller

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndmitrenko/tribune/internal/models"
)

func TestListEmptyIsLoadedNotFailed(t *testing.T) {
	e := newEnv(t)
	c := NewArticleCollection(e.client, e.sess, e.nav, nil)
	require.Equal(t, StateIdle, c.State())

	require.NoError(t, c.Load(context.Background(), 1))

	assert.Equal(t, StateLoaded, c.State())
	assert.Empty(t, c.Items())
	assert.NoError(t, c.Err())
}

func TestListPaged(t *testing.T) {
	e := newEnv(t)
	for i := 0; i < 12; i++ {
		e.forum.SeedArticle(e.user.ID, fmt.Sprintf("a%d", i), "x", nil, models.StatusPublished)
	}
	c := NewArticleCollection(e.client, e.sess, e.nav, nil)

	require.NoError(t, c.Load(context.Background(), 2))

	page, total := c.Page()
	assert.Equal(t, 2, page)
	assert.Equal(t, 12, total)
	assert.Len(t, c.Items(), 2)
}

func TestListFailureThenRetry(t *testing.T) {
	e := newEnv(t)
	e.forum.SeedArticle(e.user.ID, "only", "x", nil, models.StatusPublished)
	c := NewArticleCollection(e.client, e.sess, e.nav, nil)

	e.forum.FailNext("GET /articles", 1)
	err := c.Load(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, StateFailed, c.State())
	assert.Error(t, c.Err())

	// Retry re-issues the exact read that failed.
	require.NoError(t, c.Retry(context.Background()))
	assert.Equal(t, StateLoaded, c.State())
	require.Len(t, c.Items(), 1)
	assert.Equal(t, "only", c.Items()[0].Title)
	assert.Equal(t, 2, e.forum.Requests("GET /articles"))
}
