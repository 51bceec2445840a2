// Package view renders fetched state to the terminal. Article bodies are
// rich HTML authored by other users and therefore untrusted; they pass
// through an allow-list sanitizer before being flattened to text.
package view

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/ndmitrenko/tribune/internal/models"
)

var blockBreaks = regexp.MustCompile(`(?i)</(p|li|blockquote|pre|h[1-6])>|<br\s*/?>`)

// Renderer flattens entities into plain terminal output.
type Renderer struct {
	allow *bluemonday.Policy
	strip *bluemonday.Policy
}

// NewRenderer builds a renderer with the article-body policy: structural
// and inline-formatting tags pass, scripts, styles and event handlers do
// not.
func NewRenderer() *Renderer {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "a", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em", "h1", "h2", "h3",
	)
	p.AllowAttrs("href").OnElements("a")
	return &Renderer{
		allow: p,
		strip: bluemonday.StrictPolicy(),
	}
}

// Sanitize returns the safe HTML form of body.
func (r *Renderer) Sanitize(body string) string {
	return r.allow.Sanitize(body)
}

// Flatten sanitizes body and reduces it to plain text with paragraph
// breaks preserved.
func (r *Renderer) Flatten(body string) string {
	safe := r.Sanitize(body)
	safe = blockBreaks.ReplaceAllString(safe, "\n")
	text := r.strip.Sanitize(safe)
	text = html.UnescapeString(text)

	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, "\n")
}

// Article writes the detail view: header, body, footer with the
// server-reported comment count.
func (r *Renderer) Article(w io.Writer, a *models.Article) {
	fmt.Fprintf(w, "# %s\n", a.Title)
	fmt.Fprintf(w, "by %s on %s", a.Author.FullName, a.CreatedAt.Format("2006-01-02"))
	if a.Status == models.StatusDraft {
		fmt.Fprint(w, " [draft]")
	}
	fmt.Fprintln(w)
	if len(a.Tags) > 0 {
		fmt.Fprintf(w, "tags: %s\n", strings.Join(a.Tags, ", "))
	}
	if a.Summary != "" {
		fmt.Fprintf(w, "\n> %s\n", a.Summary)
	}
	fmt.Fprintf(w, "\n%s\n\n", r.Flatten(a.Content))
	fmt.Fprintf(w, "%d comments\n", a.CommentCount)
}

// Comments writes the comment list, oldest first, with its own length as
// the heading count.
func (r *Renderer) Comments(w io.Writer, comments []models.Comment) {
	fmt.Fprintf(w, "Comments (%d)\n", len(comments))
	if len(comments) == 0 {
		fmt.Fprintln(w, "  no comments yet")
		return
	}
	for _, c := range comments {
		fmt.Fprintf(w, "  [%d] %s (%s):\n      %s\n",
			c.ID, c.Author.FullName, c.CreatedAt.Format("2006-01-02"), c.Content)
	}
}

// ArticleList writes one page of the collection view.
func (r *Renderer) ArticleList(w io.Writer, items []models.Article, page, total int) {
	fmt.Fprintf(w, "Articles (page %d, %d total)\n", page, total)
	if len(items) == 0 {
		fmt.Fprintln(w, "  no articles yet")
		return
	}
	for _, a := range items {
		fmt.Fprintf(w, "  [%d] %s by %s, %d comments\n",
			a.ID, a.Title, a.Author.FullName, a.CommentCount)
	}
}

// Profile writes the aggregate view: counts plus embedded recent activity.
func (r *Renderer) Profile(w io.Writer, p *models.Profile) {
	fmt.Fprintf(w, "%s <%s>\n", p.FullName, p.Email)
	if p.AvatarURL != "" {
		fmt.Fprintf(w, "avatar: %s\n", p.AvatarURL)
	}
	fmt.Fprintf(w, "member since %s\n", p.CreatedAt.Format("2006-01-02"))
	fmt.Fprintf(w, "%d articles, %d comments\n", p.ArticleCount, p.CommentCount)

	fmt.Fprintln(w, "Recent articles:")
	if len(p.RecentArticles) == 0 {
		fmt.Fprintln(w, "  none")
	}
	for _, a := range p.RecentArticles {
		fmt.Fprintf(w, "  [%d] %s\n", a.ID, a.Title)
	}
	fmt.Fprintln(w, "Recent comments:")
	if len(p.RecentComments) == 0 {
		fmt.Fprintln(w, "  none")
	}
	for _, c := range p.RecentComments {
		fmt.Fprintf(w, "  on article %d: %s\n", c.ArticleID, c.Content)
	}
}
