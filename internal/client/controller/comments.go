package controller

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ndmitrenko/tribune/internal/apierr"
	"github.com/ndmitrenko/tribune/internal/client/api"
	"github.com/ndmitrenko/tribune/internal/client/session"
	"github.com/ndmitrenko/tribune/internal/models"
)

// CommentController owns the comment list of one article. After a
// successful mutation it re-fetches its own list and then signals its
// parent through the invalidation callback, so the parent can re-fetch
// whatever of its state the mutation made stale (the article's
// comment_count, here). The count is never incremented locally.
type CommentController struct {
	base
	client    *api.Client
	articleID int64
	comments  []models.Comment
	onChange  func(context.Context)
}

// NewCommentController builds a controller. onChange is the parent-supplied
// invalidation callback, fired after a mutation and the follow-up list
// re-fetch both succeed; it may be nil.
func NewCommentController(client *api.Client, sess *session.Store, nav Navigator, log *zap.Logger, onChange func(context.Context)) *CommentController {
	return &CommentController{
		base:     newBase(sess, nav, log),
		client:   client,
		onChange: onChange,
	}
}

// Load fetches the comment list for articleID. It supersedes any in-flight
// load; a stale completion is discarded, never installed.
func (c *CommentController) Load(ctx context.Context, articleID int64) error {
	gen := c.begin(func() { c.articleID = articleID })
	list, err := c.client.ListComments(ctx, articleID)
	c.finish(gen, err, func() { c.comments = list })
	return err
}

// Create posts a new comment. Content whose trimmed form is empty is
// rejected locally, before any network call. On success the list is
// re-fetched from the server, then the parent is invalidated.
func (c *CommentController) Create(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return apierr.New(apierr.KindValidation, "comment content is empty")
	}

	c.mu.Lock()
	articleID := c.articleID
	c.mu.Unlock()

	if _, err := c.client.CreateComment(ctx, articleID, content); err != nil {
		c.setErr(err)
		return err
	}
	return c.refetchAndSignal(ctx, articleID)
}

// Delete removes a comment and runs the same refetch-then-invalidate chain
// as Create.
func (c *CommentController) Delete(ctx context.Context, commentID int64) error {
	c.mu.Lock()
	articleID := c.articleID
	c.mu.Unlock()

	if err := c.client.DeleteComment(ctx, commentID); err != nil {
		c.setErr(err)
		return err
	}
	return c.refetchAndSignal(ctx, articleID)
}

// refetchAndSignal is the ordered half of every comment mutation: re-fetch
// the list only after the mutation response was observed, and signal the
// parent only after the re-fetch settled.
func (c *CommentController) refetchAndSignal(ctx context.Context, articleID int64) error {
	if err := c.Load(ctx, articleID); err != nil {
		return err
	}
	if c.onChange != nil {
		c.onChange(ctx)
	}
	return nil
}

// Comments returns the controller's own copy of the list.
func (c *CommentController) Comments() []models.Comment {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Comment, len(c.comments))
	copy(out, c.comments)
	return out
}
