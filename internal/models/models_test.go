package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validArticle() Article {
	return Article{
		ID:       1,
		Title:    "T",
		Content:  "<p>c</p>",
		Tags:     []string{},
		Status:   StatusDraft,
		AuthorID: 2,
		Author:   UserSummary{ID: 2, FullName: "Ann"},
	}
}

func TestArticleValidate(t *testing.T) {
	assert.NoError(t, validArticle().Validate())

	bad := validArticle()
	bad.Status = "archived"
	assert.Error(t, bad.Validate())

	bad = validArticle()
	bad.ID = 0
	assert.Error(t, bad.Validate())

	bad = validArticle()
	bad.Title = ""
	assert.Error(t, bad.Validate())
}

func TestCommentValidate(t *testing.T) {
	c := Comment{ID: 3, Content: "hi", ArticleID: 1, Author: UserSummary{ID: 2, FullName: "Ann"}}
	assert.NoError(t, c.Validate())

	c.ArticleID = 0
	assert.Error(t, c.Validate())
}

func TestProfileValidate(t *testing.T) {
	p := Profile{ID: 1, Email: "a@b.c", FullName: "Ann", CreatedAt: time.Now()}
	assert.NoError(t, p.Validate())

	p.Email = ""
	assert.Error(t, p.Validate())
}

func TestArticlePageValidate(t *testing.T) {
	page := ArticlePage{Items: []Article{validArticle()}, Total: 1, Page: 1, Size: 10}
	assert.NoError(t, page.Validate())

	page.Items[0].Status = "bogus"
	assert.Error(t, page.Validate(), "a malformed item must fail the whole envelope")

	assert.Error(t, ArticlePage{Page: 0, Size: 10}.Validate())
}
