package controller

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndmitrenko/tribune/internal/apierr"
	"github.com/ndmitrenko/tribune/internal/models"
)

func TestCreateValidation(t *testing.T) {
	e := newEnv(t)
	c := NewArticleCreate(e.client, e.sess, e.nav, nil)

	tests := []struct {
		name                    string
		title, content, status  string
	}{
		{"missing title", "", "<p>c</p>", models.StatusDraft},
		{"missing content", "T", "", models.StatusDraft},
		{"bad status", "T", "<p>c</p>", "archived"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := e.forum.TotalRequests()
			c.SetFields(tt.title, tt.content, "", tt.status)
			_, err := c.Submit(context.Background())
			assert.True(t, apierr.IsValidation(err))
			assert.Equal(t, before, e.forum.TotalRequests(), "validation failures must not reach the network")
		})
	}
}

func TestCreateTagSet(t *testing.T) {
	e := newEnv(t)
	c := NewArticleCreate(e.client, e.sess, e.nav, nil)

	require.NoError(t, c.AddTag("  go "))
	require.NoError(t, c.AddTag("web"))
	assert.Equal(t, []string{"go", "web"}, c.Form().Tags, "tags keep insertion order, trimmed")

	err := c.AddTag("go")
	assert.True(t, apierr.IsValidation(err), "duplicate tag text is rejected")

	err = c.AddTag("   ")
	assert.True(t, apierr.IsValidation(err))

	c.RemoveTag("go")
	assert.Equal(t, []string{"web"}, c.Form().Tags)
}

func TestCreateSubmitNavigatesToNewArticle(t *testing.T) {
	e := newEnv(t)
	c := NewArticleCreate(e.client, e.sess, e.nav, nil)
	c.SetFields("T", "<p>c</p>", "", models.StatusDraft)

	a, err := c.Submit(context.Background())
	require.NoError(t, err)

	// The creation response's id is trusted as-is; navigation hands off
	// to the detail view without an extra fetch.
	assert.Equal(t, []int64{a.ID}, e.nav.shownArticles())
	assert.Equal(t, 0, e.forum.Requests("GET /articles"))

	stored, found := e.forum.Article(a.ID)
	require.True(t, found)
	assert.Equal(t, models.StatusDraft, stored.Status)
	assert.Empty(t, stored.Tags)

	// A successful submission resets the form to a fresh draft.
	assert.Empty(t, c.Form().Title)
	assert.Equal(t, models.StatusDraft, c.Form().Status)
}

func TestCreateFailureKeepsForm(t *testing.T) {
	e := newEnv(t)
	c := NewArticleCreate(e.client, e.sess, e.nav, nil)
	c.SetFields("T", "<p>c</p>", "s", models.StatusPublished)
	require.NoError(t, c.AddTag("go"))

	e.forum.FailNext("POST /articles", 1)
	_, err := c.Submit(context.Background())
	require.Error(t, err)

	f := c.Form()
	assert.Equal(t, "T", f.Title)
	assert.Equal(t, "<p>c</p>", f.Content)
	assert.Equal(t, []string{"go"}, f.Tags)
	assert.Empty(t, e.nav.shownArticles())
}

func TestArticleFormValidateDuplicateTags(t *testing.T) {
	f := ArticleForm{Title: "T", Content: "c", Status: models.StatusDraft, Tags: []string{"go", "go"}}
	assert.Error(t, f.Validate())
}
