package controller

import (
	"context"

	"go.uber.org/zap"

	"github.com/ndmitrenko/tribune/internal/client/api"
	"github.com/ndmitrenko/tribune/internal/client/session"
	"github.com/ndmitrenko/tribune/internal/models"
)

// DefaultPageSize matches the backend's default page size.
const DefaultPageSize = 10

// ArticleCollectionController owns the paged article list. An empty page is
// a loaded state of its own, not loading and not failure.
type ArticleCollectionController struct {
	base
	client *api.Client
	page   int
	size   int
	items  []models.Article
	total  int
}

// NewArticleCollection builds a list controller.
func NewArticleCollection(client *api.Client, sess *session.Store, nav Navigator, log *zap.Logger) *ArticleCollectionController {
	return &ArticleCollectionController{
		base:   newBase(sess, nav, log),
		client: client,
		page:   1,
		size:   DefaultPageSize,
	}
}

// Load fetches one page, superseding any in-flight load.
func (c *ArticleCollectionController) Load(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	var size int
	gen := c.begin(func() {
		c.page = page
		size = c.size
	})
	p, err := c.client.ListArticles(ctx, page, size)
	c.finish(gen, err, func() {
		c.items = p.Items
		c.total = p.Total
	})
	return err
}

// Retry re-issues the read that produced the current view.
func (c *ArticleCollectionController) Retry(ctx context.Context) error {
	c.mu.Lock()
	page := c.page
	c.mu.Unlock()
	return c.Load(ctx, page)
}

// Items returns the current page's articles.
func (c *ArticleCollectionController) Items() []models.Article {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Article, len(c.items))
	copy(out, c.items)
	return out
}

// Page returns the current page number and the server-reported total.
func (c *ArticleCollectionController) Page() (page, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page, c.total
}
