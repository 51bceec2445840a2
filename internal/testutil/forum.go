// Package testutil provides shared test fixtures, chiefly an in-process
// fake of the forum backend with the same routes, shapes and error bodies
// the real one serves.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ndmitrenko/tribune/internal/models"
)

type forumUser struct {
	summary  models.UserSummary
	password string
	avatar   string
}

// Forum is an in-memory forum backend for tests. It maintains the derived
// projections (comment_count, per-user counts, recent activity) itself, so
// tests observe the same "server is the source of truth" behavior the
// client is built against.
type Forum struct {
	mu       sync.Mutex
	users    map[int64]*forumUser
	articles map[int64]*models.Article
	comments map[int64][]models.Comment // keyed by article id
	tokens   map[string]int64
	nextID   int64

	requests map[string]int
	failNext map[string]int
	before   func(r *http.Request)

	Server *httptest.Server
}

// NewForum starts a fake forum API. It is shut down with the test.
func NewForum(t *testing.T) *Forum {
	t.Helper()
	f := &Forum{
		users:    make(map[int64]*forumUser),
		articles: make(map[int64]*models.Article),
		comments: make(map[int64][]models.Comment),
		tokens:   make(map[string]int64),
		requests: make(map[string]int),
		failNext: make(map[string]int),
	}
	f.Server = httptest.NewServer(f.router())
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the fake API base URL.
func (f *Forum) URL() string { return f.Server.URL }

// Requests reports how many requests matched "METHOD /path".
func (f *Forum) Requests(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[key]
}

// TotalRequests reports the number of requests served.
func (f *Forum) TotalRequests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.requests {
		n += c
	}
	return n
}

// FailNext makes the next n requests matching "METHOD /path" answer 500.
func (f *Forum) FailNext(key string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext[key] = n
}

// SetBefore installs a hook run before every request is handled. Tests use
// it to delay chosen responses and provoke orderings.
func (f *Forum) SetBefore(fn func(r *http.Request)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.before = fn
}

// SeedUser registers a user directly in the store.
func (f *Forum) SeedUser(email, password, fullName string) models.UserSummary {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u := &forumUser{
		summary: models.UserSummary{
			ID:        f.nextID,
			Email:     email,
			FullName:  fullName,
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		},
		password: password,
	}
	f.users[u.summary.ID] = u
	return u.summary
}

// TokenFor issues a valid bearer token for the user.
func (f *Forum) TokenFor(userID int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok := uuid.NewString()
	f.tokens[tok] = userID
	return tok
}

// RevokeToken invalidates a previously issued token.
func (f *Forum) RevokeToken(tok string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, tok)
}

// SeedArticle stores an article authored by authorID.
func (f *Forum) SeedArticle(authorID int64, title, content string, tags []string, status string) models.Article {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addArticle(authorID, title, content, "", tags, status)
}

func (f *Forum) addArticle(authorID int64, title, content, summary string, tags []string, status string) models.Article {
	f.nextID++
	if tags == nil {
		tags = []string{}
	}
	a := &models.Article{
		ID:        f.nextID,
		Title:     title,
		Content:   content,
		Summary:   summary,
		Tags:      tags,
		Status:    status,
		AuthorID:  authorID,
		Author:    f.users[authorID].summary,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	f.articles[a.ID] = a
	return *a
}

// SeedComment stores a comment and bumps the article's count, as the real
// backend's triggers do.
func (f *Forum) SeedComment(articleID, authorID int64, content string) models.Comment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addComment(articleID, authorID, content)
}

func (f *Forum) addComment(articleID, authorID int64, content string) models.Comment {
	f.nextID++
	now := time.Now().UTC().Truncate(time.Second)
	c := models.Comment{
		ID:        f.nextID,
		Content:   content,
		ArticleID: articleID,
		Author:    f.users[authorID].summary,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.comments[articleID] = append(f.comments[articleID], c)
	f.articles[articleID].CommentCount = len(f.comments[articleID])
	return c
}

// Article returns a snapshot of the stored article.
func (f *Forum) Article(id int64) (models.Article, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.articles[id]
	if !ok {
		return models.Article{}, false
	}
	return *a, true
}

type ctxKey int

const userKey ctxKey = 0

func (f *Forum) router() http.Handler {
	r := chi.NewRouter()
	r.Use(f.count)

	r.Post("/auth/login", f.login)
	r.Post("/auth/register", f.register)

	r.Get("/users/{id}", f.getUser)
	r.Get("/articles", f.listArticles)
	r.Get("/articles/{id}", f.getArticle)
	r.Get("/comments/article/{id}", f.listComments)

	r.Group(func(r chi.Router) {
		r.Use(f.auth)
		r.Get("/users/me", f.me)
		r.Post("/users/{id}/avatar", f.uploadAvatar)
		r.Post("/articles", f.createArticle)
		r.Patch("/articles/{id}", f.updateArticle)
		r.Delete("/articles/{id}", f.deleteArticle)
		r.Post("/comments", f.createComment)
		r.Delete("/comments/{id}", f.deleteComment)
	})
	return r
}

func (f *Forum) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		f.mu.Lock()
		f.requests[key]++
		hook := f.before
		mustFail := f.failNext[key] > 0
		if mustFail {
			f.failNext[key]--
		}
		f.mu.Unlock()
		if hook != nil {
			hook(r)
		}
		if mustFail {
			fail(w, http.StatusInternalServerError, "induced failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *Forum) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		f.mu.Lock()
		uid, ok := f.tokens[tok]
		f.mu.Unlock()
		if tok == "" || !ok {
			fail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), uid)))
	})
}

func (f *Forum) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		fail(w, http.StatusBadRequest, "invalid body")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, u := range f.users {
		if u.summary.Email == in.Email {
			if u.password != in.Password {
				fail(w, http.StatusBadRequest, "Incorrect password")
				return
			}
			tok := uuid.NewString()
			f.tokens[tok] = id
			ok(w, map[string]string{"access_token": tok, "token_type": "bearer"})
			return
		}
	}
	fail(w, http.StatusBadRequest, "Email not registered")
}

func (f *Forum) register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		fail(w, http.StatusBadRequest, "invalid body")
		return
	}
	f.mu.Lock()
	for _, u := range f.users {
		if u.summary.Email == in.Email {
			f.mu.Unlock()
			fail(w, http.StatusBadRequest, "Email already registered")
			return
		}
	}
	f.mu.Unlock()
	u := f.SeedUser(in.Email, in.Password, in.FullName)
	ok(w, u)
}

func (f *Forum) profileOf(uid int64) map[string]any {
	u := f.users[uid]
	var articles []models.Article
	var comments []models.Comment
	commentCount := 0
	for _, a := range f.articles {
		if a.AuthorID == uid {
			articles = append(articles, *a)
		}
	}
	for _, list := range f.comments {
		for _, c := range list {
			if c.Author.ID == uid {
				comments = append(comments, c)
				commentCount++
			}
		}
	}
	if articles == nil {
		articles = []models.Article{}
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return map[string]any{
		"id":              u.summary.ID,
		"email":           u.summary.Email,
		"full_name":       u.summary.FullName,
		"avatar_url":      u.avatar,
		"article_count":   len(articles),
		"comment_count":   commentCount,
		"created_at":      u.summary.CreatedAt,
		"recent_articles": articles,
		"recent_comments": comments,
	}
}

func (f *Forum) me(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ok(w, f.profileOf(currentUser(r)))
}

func (f *Forum) getUser(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, found := f.users[id]; !found {
		fail(w, http.StatusNotFound, "User not found")
		return
	}
	ok(w, f.profileOf(id))
}

func (f *Forum) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")
	if currentUser(r) != id {
		fail(w, http.StatusForbidden, "Not enough permissions")
		return
	}
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		fail(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		fail(w, http.StatusBadRequest, "missing file field")
		return
	}
	file.Close()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id].avatar = fmt.Sprintf("/media/avatars/%d_%s", id, hdr.Filename)
	ok(w, f.profileOf(id))
}

func (f *Forum) listArticles(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]models.Article, 0, len(f.articles))
	for _, a := range f.articles {
		all = append(all, *a)
	}
	// Deterministic order: newest id first.
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			if all[j].ID > all[i].ID {
				all[i], all[j] = all[j], all[i]
			}
		}
	}
	total := len(all)
	from := (page - 1) * size
	if from > total {
		from = total
	}
	to := from + size
	if to > total {
		to = total
	}
	ok(w, map[string]any{"items": all[from:to], "total": total, "page": page, "size": size})
}

func (f *Forum) getArticle(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")
	f.mu.Lock()
	defer f.mu.Unlock()
	a, found := f.articles[id]
	if !found {
		fail(w, http.StatusNotFound, "Article not found")
		return
	}
	ok(w, a)
}

func (f *Forum) createArticle(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title   string   `json:"title"`
		Content string   `json:"content"`
		Summary string   `json:"summary"`
		Tags    []string `json:"tags"`
		Status  string   `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		fail(w, http.StatusBadRequest, "invalid body")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.addArticle(currentUser(r), in.Title, in.Content, in.Summary, in.Tags, in.Status)
	ok(w, a)
}

func (f *Forum) updateArticle(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")
	f.mu.Lock()
	defer f.mu.Unlock()
	a, found := f.articles[id]
	if !found {
		fail(w, http.StatusNotFound, "Article not found")
		return
	}
	if a.AuthorID != currentUser(r) {
		fail(w, http.StatusForbidden, "Not enough permissions")
		return
	}
	var in map[string]any
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		fail(w, http.StatusBadRequest, "invalid body")
		return
	}
	if v, has := in["title"].(string); has && v != "" {
		a.Title = v
	}
	if v, has := in["content"].(string); has && v != "" {
		a.Content = v
	}
	if v, has := in["summary"].(string); has {
		a.Summary = v
	}
	if v, has := in["status"].(string); has && v != "" {
		a.Status = v
	}
	ok(w, a)
}

func (f *Forum) deleteArticle(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")
	f.mu.Lock()
	defer f.mu.Unlock()
	a, found := f.articles[id]
	if !found {
		fail(w, http.StatusNotFound, "Article not found")
		return
	}
	if a.AuthorID != currentUser(r) {
		fail(w, http.StatusForbidden, "Not enough permissions")
		return
	}
	delete(f.articles, id)
	delete(f.comments, id)
	ok(w, map[string]string{"status": "deleted"})
}

func (f *Forum) listComments(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, found := f.articles[id]; !found {
		fail(w, http.StatusNotFound, "Article not found")
		return
	}
	list := f.comments[id]
	if list == nil {
		list = []models.Comment{}
	}
	ok(w, list)
}

func (f *Forum) createComment(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Content   string `json:"content"`
		ArticleID int64  `json:"article_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		fail(w, http.StatusBadRequest, "invalid body")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, found := f.articles[in.ArticleID]; !found {
		fail(w, http.StatusNotFound, "Article not found")
		return
	}
	c := f.addComment(in.ArticleID, currentUser(r), in.Content)
	ok(w, c)
}

func (f *Forum) deleteComment(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")
	f.mu.Lock()
	defer f.mu.Unlock()
	for aid, list := range f.comments {
		for i, c := range list {
			if c.ID != id {
				continue
			}
			if c.Author.ID != currentUser(r) {
				fail(w, http.StatusForbidden, "Not enough permissions")
				return
			}
			f.comments[aid] = append(list[:i:i], list[i+1:]...)
			f.articles[aid].CommentCount = len(f.comments[aid])
			ok(w, c)
			return
		}
	}
	fail(w, http.StatusNotFound, "Comment not found")
}

func withUser(ctx context.Context, uid int64) context.Context {
	return context.WithValue(ctx, userKey, uid)
}

func currentUser(r *http.Request) int64 {
	uid, _ := r.Context().Value(userKey).(int64)
	return uid
}

func pathID(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id
}

func ok(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func fail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
