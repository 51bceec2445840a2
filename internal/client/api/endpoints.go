package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/ndmitrenko/tribune/internal/apierr"
	"github.com/ndmitrenko/tribune/internal/models"
)

// TokenResponse is the login exchange payload.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// ArticleInput is the creation/update payload for an article.
type ArticleInput struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Summary string   `json:"summary,omitempty"`
	Tags    []string `json:"tags"`
	Status  string   `json:"status"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var tr TokenResponse
	payload := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", payload, &tr); err != nil {
		return "", err
	}
	if tr.AccessToken == "" {
		return "", apierr.New(apierr.KindDecode, "login response carried no token")
	}
	return tr.AccessToken, nil
}

// Register creates an account. The backend returns the created user, not a
// token; callers follow up with Login.
func (c *Client) Register(ctx context.Context, email, password, fullName string) (*models.UserSummary, error) {
	var u models.UserSummary
	payload := map[string]string{"email": email, "password": password, "full_name": fullName}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", payload, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Me resolves the identity behind the current credential.
func (c *Client) Me(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	if err := c.doJSON(ctx, http.MethodGet, "/users/me", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetUser fetches one user's aggregate, recent activity included.
func (c *Client) GetUser(ctx context.Context, id int64) (*models.Profile, error) {
	var p models.Profile
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/users/%d", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UploadAvatar submits the file as a multipart payload. The refreshed
// profile in the response is deliberately discarded: the caller re-fetches
// through the one read path instead.
func (c *Client) UploadAvatar(ctx context.Context, id int64, filename string, r io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return fmt.Errorf("read avatar file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("finish multipart body: %w", err)
	}
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/users/%d/avatar", id), &buf, mw.FormDataContentType(), nil)
}

// ListArticles fetches one page of the article list.
func (c *Client) ListArticles(ctx context.Context, page, size int) (*models.ArticlePage, error) {
	var p models.ArticlePage
	path := fmt.Sprintf("/articles?page=%d&size=%d", page, size)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetArticle fetches a single article.
func (c *Client) GetArticle(ctx context.Context, id int64) (*models.Article, error) {
	var a models.Article
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/articles/%d", id), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateArticle creates an article and returns the server's copy of it.
func (c *Client) CreateArticle(ctx context.Context, in ArticleInput) (*models.Article, error) {
	var a models.Article
	if err := c.doJSON(ctx, http.MethodPost, "/articles", in, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateArticle partially updates an article.
func (c *Client) UpdateArticle(ctx context.Context, id int64, in ArticleInput) (*models.Article, error) {
	var a models.Article
	if err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/articles/%d", id), in, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// DeleteArticle deletes an article.
func (c *Client) DeleteArticle(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/articles/%d", id), nil, nil)
}

// ListComments fetches all comments for an article. The endpoint returns a
// bare JSON array, not a paginated envelope.
func (c *Client) ListComments(ctx context.Context, articleID int64) ([]models.Comment, error) {
	var list models.CommentList
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/comments/article/%d", articleID), nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// CreateComment posts a comment on an article.
func (c *Client) CreateComment(ctx context.Context, articleID int64, content string) (*models.Comment, error) {
	var cm models.Comment
	payload := map[string]any{"content": content, "article_id": articleID}
	if err := c.doJSON(ctx, http.MethodPost, "/comments", payload, &cm); err != nil {
		return nil, err
	}
	return &cm, nil
}

// DeleteComment deletes a comment.
func (c *Client) DeleteComment(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/comments/%d", id), nil, nil)
}
