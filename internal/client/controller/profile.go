package controller

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/ndmitrenko/tribune/internal/client/api"
	"github.com/ndmitrenko/tribune/internal/client/session"
	"github.com/ndmitrenko/tribune/internal/models"
)

// UserProfileController owns one user's aggregate view: counts and recent
// activity arrive embedded in a single response. Avatar replacement never
// touches the aggregate locally; the new avatar_url only appears once the
// follow-up fetch confirms it.
type UserProfileController struct {
	base
	client  *api.Client
	userID  int64
	profile *models.Profile
}

// NewUserProfile builds a profile controller.
func NewUserProfile(client *api.Client, sess *session.Store, nav Navigator, log *zap.Logger) *UserProfileController {
	return &UserProfileController{base: newBase(sess, nav, log), client: client}
}

// Load fetches the aggregate for userID, superseding any in-flight load.
func (c *UserProfileController) Load(ctx context.Context, userID int64) error {
	gen := c.begin(func() { c.userID = userID })
	p, err := c.client.GetUser(ctx, userID)
	c.finish(gen, err, func() { c.profile = p })
	return err
}

// UploadAvatar submits the file and, on success, re-fetches the aggregate.
// On failure the previously fetched profile stays on display; only the
// view-local error is set.
func (c *UserProfileController) UploadAvatar(ctx context.Context, filename string, r io.Reader) error {
	c.mu.Lock()
	userID := c.userID
	c.mu.Unlock()

	if err := c.client.UploadAvatar(ctx, userID, filename, r); err != nil {
		c.setErr(err)
		return err
	}
	return c.Load(ctx, userID)
}

// Profile returns the controller's copy of the aggregate, nil unless loaded.
func (c *UserProfileController) Profile() *models.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

// CanEditAvatar reports whether the viewed profile belongs to the session
// identity. UX gate only; the server independently enforces ownership.
func (c *UserProfileController) CanEditAvatar() bool {
	c.mu.Lock()
	p := c.profile
	c.mu.Unlock()
	if p == nil {
		return false
	}
	id := c.session.Current().Identity
	return id != nil && id.ID == p.ID
}
