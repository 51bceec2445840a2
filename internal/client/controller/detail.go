package controller

import (
	"context"

	"go.uber.org/zap"

	"github.com/ndmitrenko/tribune/internal/client/api"
	"github.com/ndmitrenko/tribune/internal/client/session"
	"github.com/ndmitrenko/tribune/internal/models"
)

// ArticleDetailController owns one article view and its comment child.
// The pair must agree on the comment count; they reconcile by the child
// invalidating the parent, which re-fetches the whole article rather than
// patching the count.
type ArticleDetailController struct {
	base
	client    *api.Client
	articleID int64
	article   *models.Article

	// Comments is the child controller for the same article. Its
	// invalidation callback points back at Refresh.
	Comments *CommentController
}

// NewArticleDetail builds the consistency pair.
func NewArticleDetail(client *api.Client, sess *session.Store, nav Navigator, log *zap.Logger) *ArticleDetailController {
	c := &ArticleDetailController{
		base:   newBase(sess, nav, log),
		client: client,
	}
	c.Comments = NewCommentController(client, sess, nav, log, func(ctx context.Context) {
		if err := c.Refresh(ctx); err != nil {
			c.log.Warn("article refresh after comment change failed", zap.Error(err))
		}
	})
	return c
}

// Load fetches the article with the given id. Navigating to a different id
// while a fetch is pending supersedes it; the stale completion is tied to
// the generation that started it and is discarded on arrival.
func (c *ArticleDetailController) Load(ctx context.Context, id int64) error {
	gen := c.begin(func() { c.articleID = id })
	a, err := c.client.GetArticle(ctx, id)
	c.finish(gen, err, func() { c.article = a })
	return err
}

// Refresh re-runs the read for the currently viewed article. This is the
// invalidation path comment mutations go through.
func (c *ArticleDetailController) Refresh(ctx context.Context) error {
	c.mu.Lock()
	id := c.articleID
	c.mu.Unlock()
	if id == 0 {
		return nil
	}
	return c.Load(ctx, id)
}

// Update patches the viewed article and installs the freshly confirmed
// server copy by re-fetching it.
func (c *ArticleDetailController) Update(ctx context.Context, in api.ArticleInput) error {
	c.mu.Lock()
	id := c.articleID
	c.mu.Unlock()

	if _, err := c.client.UpdateArticle(ctx, id, in); err != nil {
		c.setErr(err)
		return err
	}
	return c.Refresh(ctx)
}

// Delete removes the viewed article. The caller decides where to navigate
// afterwards; the view state is reset to idle.
func (c *ArticleDetailController) Delete(ctx context.Context) error {
	c.mu.Lock()
	id := c.articleID
	c.mu.Unlock()

	if err := c.client.DeleteArticle(ctx, id); err != nil {
		c.setErr(err)
		return err
	}
	c.mu.Lock()
	c.article = nil
	c.articleID = 0
	c.state = StateIdle
	c.err = nil
	c.mu.Unlock()
	return nil
}

// Article returns the controller's copy of the article, nil unless loaded.
func (c *ArticleDetailController) Article() *models.Article {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.article
}

// CanEdit reports whether the current session identity authored the viewed
// article. This gates the edit affordance only; the server enforces
// ownership independently.
func (c *ArticleDetailController) CanEdit() bool {
	a := c.Article()
	if a == nil {
		return false
	}
	id := c.session.Current().Identity
	return id != nil && id.ID == a.AuthorID
}
