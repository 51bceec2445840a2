package controller

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/ndmitrenko/tribune/internal/apierr"
	"github.com/ndmitrenko/tribune/internal/client/api"
	"github.com/ndmitrenko/tribune/internal/client/session"
	"github.com/ndmitrenko/tribune/internal/models"
)

// ArticleForm is the compose state for a new or edited article. Tags behave
// like an ordered set: insertion order is kept, duplicates are rejected
// before submission.
type ArticleForm struct {
	Title   string
	Content string
	Summary string
	Tags    []string
	Status  string
}

// Validate applies the client-side rules: title and content are required,
// status must be a known publication state, tag texts must be unique.
func (f ArticleForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Title, validation.Required),
		validation.Field(&f.Content, validation.Required),
		validation.Field(&f.Status, validation.Required, validation.In(models.StatusDraft, models.StatusPublished)),
		validation.Field(&f.Tags, validation.By(uniqueTags)),
	)
}

func uniqueTags(v any) error {
	tags, _ := v.([]string)
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if _, dup := seen[t]; dup {
			return validation.NewError("validation_duplicate_tag", "duplicate tag: "+t)
		}
		seen[t] = struct{}{}
	}
	return nil
}

// ArticleCreateController composes form state into a creation request and
// hands navigation off on success. A failed submission leaves the form
// populated.
type ArticleCreateController struct {
	base
	client *api.Client
	form   ArticleForm
}

// NewArticleCreate builds a create controller with an empty draft form.
func NewArticleCreate(client *api.Client, sess *session.Store, nav Navigator, log *zap.Logger) *ArticleCreateController {
	return &ArticleCreateController{
		base:   newBase(sess, nav, log),
		client: client,
		form:   ArticleForm{Status: models.StatusDraft},
	}
}

// Form returns a copy of the current form state.
func (c *ArticleCreateController) Form() ArticleForm {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.form
	f.Tags = append([]string(nil), c.form.Tags...)
	return f
}

// SetFields updates the text fields of the form.
func (c *ArticleCreateController) SetFields(title, content, summary, status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.Title = title
	c.form.Content = content
	c.form.Summary = summary
	c.form.Status = status
}

// AddTag appends a tag, trimming whitespace and rejecting empties and
// duplicates before they ever reach the form.
func (c *ArticleCreateController) AddTag(tag string) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return apierr.New(apierr.KindValidation, "tag is empty")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.form.Tags {
		if t == tag {
			return apierr.New(apierr.KindValidation, "duplicate tag: "+tag)
		}
	}
	c.form.Tags = append(c.form.Tags, tag)
	return nil
}

// RemoveTag drops a tag, keeping the order of the rest.
func (c *ArticleCreateController) RemoveTag(tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.form.Tags[:0]
	for _, t := range c.form.Tags {
		if t != tag {
			out = append(out, t)
		}
	}
	c.form.Tags = out
}

// Submit validates the form, creates the article, and navigates to the
// detail view of the id the creation response reports. No extra fetch is
// needed; the response is the server's authoritative copy.
func (c *ArticleCreateController) Submit(ctx context.Context) (*models.Article, error) {
	f := c.Form()
	if err := f.Validate(); err != nil {
		return nil, apierr.Wrap(apierr.KindValidation, err.Error(), err)
	}

	a, err := c.client.CreateArticle(ctx, api.ArticleInput{
		Title:   f.Title,
		Content: f.Content,
		Summary: f.Summary,
		Tags:    f.Tags,
		Status:  f.Status,
	})
	if err != nil {
		c.setErr(err)
		return nil, err
	}

	c.mu.Lock()
	c.form = ArticleForm{Status: models.StatusDraft}
	c.err = nil
	c.mu.Unlock()

	c.nav.ShowArticle(a.ID)
	return a, nil
}
