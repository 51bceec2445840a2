// Package models defines the wire shapes the forum backend returns.
// Responses are validated against these shapes at the transport boundary
// so malformed data never reaches view state.
package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Article publication states.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// UserSummary is the author projection embedded in articles and comments.
type UserSummary struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the summary against the backend contract.
func (u UserSummary) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.ID, validation.Required, validation.Min(int64(1))),
		validation.Field(&u.FullName, validation.Required),
	)
}

// Profile is the user aggregate: identity fields, server-computed counts
// and the embedded recent activity. It is never assembled client-side from
// separate list calls.
type Profile struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	ArticleCount   int       `json:"article_count"`
	CommentCount   int       `json:"comment_count"`
	CreatedAt      time.Time `json:"created_at"`
	RecentArticles []Article `json:"recent_articles"`
	RecentComments []Comment `json:"recent_comments"`
}

// Validate checks the aggregate against the backend contract.
func (p Profile) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ID, validation.Required, validation.Min(int64(1))),
		validation.Field(&p.Email, validation.Required),
		validation.Field(&p.FullName, validation.Required),
		validation.Field(&p.ArticleCount, validation.Min(0)),
		validation.Field(&p.CommentCount, validation.Min(0)),
	)
}

// Article is one forum article. CommentCount is a server-derived projection;
// the client never adjusts it locally, it only re-fetches.
type Article struct {
	ID           int64       `json:"id"`
	Title        string      `json:"title"`
	Content      string      `json:"content"` // rich HTML, untrusted
	Summary      string      `json:"summary,omitempty"`
	Tags         []string    `json:"tags"`
	Status       string      `json:"status"`
	AuthorID     int64       `json:"author_id"`
	Author       UserSummary `json:"author"`
	CommentCount int         `json:"comment_count"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Validate checks the article against the backend contract.
func (a Article) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.ID, validation.Required, validation.Min(int64(1))),
		validation.Field(&a.Title, validation.Required),
		validation.Field(&a.Status, validation.Required, validation.In(StatusDraft, StatusPublished)),
		validation.Field(&a.AuthorID, validation.Required, validation.Min(int64(1))),
		validation.Field(&a.CommentCount, validation.Min(0)),
	)
}

// Comment is one comment on an article.
type Comment struct {
	ID        int64       `json:"id"`
	Content   string      `json:"content"`
	ArticleID int64       `json:"article_id"`
	Author    UserSummary `json:"author"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Validate checks the comment against the backend contract.
func (c Comment) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.Content, validation.Required),
		validation.Field(&c.ArticleID, validation.Required, validation.Min(int64(1))),
	)
}

// ArticlePage is the paginated envelope of the article list endpoint.
type ArticlePage struct {
	Items []Article `json:"items"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Size  int       `json:"size"`
}

// Validate checks the envelope and every item in it.
func (p ArticlePage) Validate() error {
	if err := validation.ValidateStruct(&p,
		validation.Field(&p.Total, validation.Min(0)),
		validation.Field(&p.Page, validation.Required, validation.Min(1)),
		validation.Field(&p.Size, validation.Required, validation.Min(1)),
	); err != nil {
		return err
	}
	for _, a := range p.Items {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// CommentList is the bare-array response of the comment list endpoint.
type CommentList []Comment

// Validate checks every comment in the list.
func (l CommentList) Validate() error {
	for _, c := range l {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}
