package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ndmitrenko/tribune/internal/apierr"
	"github.com/ndmitrenko/tribune/internal/client/api"
	"github.com/ndmitrenko/tribune/internal/client/controller"
	"github.com/ndmitrenko/tribune/internal/client/session"
	"github.com/ndmitrenko/tribune/internal/client/view"
	"github.com/ndmitrenko/tribune/internal/config"
)

var (
	version   string
	buildDate string
)

// shell is the terminal frontend: it owns the controllers, renders their
// state, and doubles as the Navigator they hand navigation off to.
type shell struct {
	out  io.Writer
	r    *view.Renderer
	sess *session.Store

	guard   *controller.AuthGuard
	auth    *controller.AuthController
	list    *controller.ArticleCollectionController
	detail  *controller.ArticleDetailController
	profile *controller.UserProfileController
	compose *controller.ArticleCreateController
}

// ShowLogin implements controller.Navigator.
func (s *shell) ShowLogin() {
	fmt.Fprintln(s.out, "Not logged in. Use: login <email> <password>")
}

// ShowArticle implements controller.Navigator.
func (s *shell) ShowArticle(id int64) {
	s.openArticle(context.Background(), id)
}

// openArticle loads the detail view and its comment list, then renders
// both.
func (s *shell) openArticle(ctx context.Context, id int64) {
	if err := s.detail.Load(ctx, id); err != nil {
		fmt.Fprintln(s.out, "error:", apierr.Detail(err))
		return
	}
	if err := s.detail.Comments.Load(ctx, id); err != nil {
		fmt.Fprintln(s.out, "error loading comments:", apierr.Detail(err))
	}
	s.r.Article(s.out, s.detail.Article())
	s.r.Comments(s.out, s.detail.Comments.Comments())
}

// gated runs fn only when the auth guard lands on authenticated; the guard
// itself prints the redirect hint otherwise.
func (s *shell) gated(ctx context.Context, fn func(context.Context)) {
	if s.guard.Check(ctx) != controller.GuardAuthenticated {
		return
	}
	fn(ctx)
}

func (s *shell) showList(ctx context.Context, page int) {
	if err := s.list.Load(ctx, page); err != nil {
		fmt.Fprintln(s.out, "error:", apierr.Detail(err), "(use the same command to retry)")
		return
	}
	p, total := s.list.Page()
	s.r.ArticleList(s.out, s.list.Items(), p, total)
}

func (s *shell) showProfile(ctx context.Context, id int64) {
	if err := s.profile.Load(ctx, id); err != nil {
		fmt.Fprintln(s.out, "error:", apierr.Detail(err))
		return
	}
	s.r.Profile(s.out, s.profile.Profile())
	if s.profile.CanEditAvatar() {
		fmt.Fprintln(s.out, "(this is you; use: avatar <file> to change your picture)")
	}
}

// composeArticle collects the article form interactively and submits it.
// Navigation to the new article happens through the controller on success.
func (s *shell) composeArticle(ctx context.Context, scanner *bufio.Scanner) {
	read := func(prompt string) string {
		fmt.Fprint(s.out, prompt)
		if !scanner.Scan() {
			return ""
		}
		return strings.TrimSpace(scanner.Text())
	}

	title := read("title: ")
	fmt.Fprintln(s.out, "content (HTML, finish with a single '.'):")
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "." {
			break
		}
		lines = append(lines, line)
	}
	summary := read("summary (optional): ")
	s.compose.SetFields(title, strings.Join(lines, "\n"), summary, read("status (draft/published): "))

	for _, tag := range strings.Split(read("tags (comma separated): "), ",") {
		if strings.TrimSpace(tag) == "" {
			continue
		}
		if err := s.compose.AddTag(tag); err != nil {
			fmt.Fprintln(s.out, "tag skipped:", apierr.Detail(err))
		}
	}

	if _, err := s.compose.Submit(ctx); err != nil {
		// The form keeps its contents; nothing typed is lost.
		fmt.Fprintln(s.out, "error:", apierr.Detail(err))
	}
}

func (s *shell) uploadAvatar(ctx context.Context, path string) {
	if !s.profile.CanEditAvatar() {
		fmt.Fprintln(s.out, "open your own profile first (profile)")
		return
	}
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(s.out, "error:", err)
		return
	}
	defer f.Close()
	if err := s.profile.UploadAvatar(ctx, f.Name(), f); err != nil {
		fmt.Fprintln(s.out, "upload failed:", apierr.Detail(err), "(previous avatar kept)")
		return
	}
	s.r.Profile(s.out, s.profile.Profile())
}

// repl runs the interactive loop, dispatching commands to controllers.
func (s *shell) repl(scanner *bufio.Scanner) {
	for {
		fmt.Fprint(s.out, "tribune> ")
		if !scanner.Scan() {
			return
		}
		args := strings.Fields(strings.TrimSpace(scanner.Text()))
		if len(args) == 0 {
			continue
		}
		ctx := context.Background()

		switch args[0] {
		case "help":
			fmt.Fprintln(s.out, `Commands:
  login <email> <password>        register <email> <password> <name...>
  logout                          whoami
  articles [page]                 read <id>
  comment <article-id> <text...>  uncomment <comment-id>
  new                             publish <id>
  delete <id>                     profile [user-id]
  avatar <file>                   exit`)
		case "login":
			if len(args) < 3 {
				fmt.Fprintln(s.out, "Usage: login <email> <password>")
				continue
			}
			p, err := s.auth.Login(ctx, controller.Credentials{Email: args[1], Password: args[2]})
			if err != nil {
				fmt.Fprintln(s.out, "login failed:", apierr.Detail(err))
				continue
			}
			fmt.Fprintf(s.out, "Welcome, %s\n", p.FullName)
		case "register":
			if len(args) < 4 {
				fmt.Fprintln(s.out, "Usage: register <email> <password> <full name>")
				continue
			}
			reg := controller.Registration{Email: args[1], Password: args[2], FullName: strings.Join(args[3:], " ")}
			p, err := s.auth.Register(ctx, reg)
			if err != nil {
				fmt.Fprintln(s.out, "registration failed:", apierr.Detail(err))
				continue
			}
			fmt.Fprintf(s.out, "Account created. Welcome, %s\n", p.FullName)
		case "logout":
			if err := s.auth.Logout(); err != nil {
				fmt.Fprintln(s.out, "logout failed:", err)
			}
		case "whoami":
			s.gated(ctx, func(ctx context.Context) {
				id := s.guard.Identity()
				fmt.Fprintf(s.out, "%s <%s> (id %d)\n", id.FullName, id.Email, id.ID)
			})
		case "articles":
			page := 1
			if len(args) > 1 {
				page, _ = strconv.Atoi(args[1])
			}
			s.gated(ctx, func(ctx context.Context) { s.showList(ctx, page) })
		case "read":
			id, err := strconv.ParseInt(argAt(args, 1), 10, 64)
			if err != nil {
				fmt.Fprintln(s.out, "Usage: read <id>")
				continue
			}
			s.gated(ctx, func(ctx context.Context) { s.openArticle(ctx, id) })
		case "comment":
			id, err := strconv.ParseInt(argAt(args, 1), 10, 64)
			if err != nil || len(args) < 3 {
				fmt.Fprintln(s.out, "Usage: comment <article-id> <text>")
				continue
			}
			s.gated(ctx, func(ctx context.Context) {
				if err := s.detail.Comments.Load(ctx, id); err != nil {
					fmt.Fprintln(s.out, "error:", apierr.Detail(err))
					return
				}
				if err := s.detail.Load(ctx, id); err != nil {
					fmt.Fprintln(s.out, "error:", apierr.Detail(err))
					return
				}
				if err := s.detail.Comments.Create(ctx, strings.Join(args[2:], " ")); err != nil {
					fmt.Fprintln(s.out, "error:", apierr.Detail(err))
					return
				}
				s.r.Article(s.out, s.detail.Article())
				s.r.Comments(s.out, s.detail.Comments.Comments())
			})
		case "uncomment":
			id, err := strconv.ParseInt(argAt(args, 1), 10, 64)
			if err != nil {
				fmt.Fprintln(s.out, "Usage: uncomment <comment-id>")
				continue
			}
			s.gated(ctx, func(ctx context.Context) {
				if err := s.detail.Comments.Delete(ctx, id); err != nil {
					fmt.Fprintln(s.out, "error:", apierr.Detail(err))
					return
				}
				s.r.Comments(s.out, s.detail.Comments.Comments())
			})
		case "new":
			s.gated(ctx, func(ctx context.Context) { s.composeArticle(ctx, scanner) })
		case "publish":
			id, err := strconv.ParseInt(argAt(args, 1), 10, 64)
			if err != nil {
				fmt.Fprintln(s.out, "Usage: publish <id>")
				continue
			}
			s.gated(ctx, func(ctx context.Context) {
				if err := s.detail.Load(ctx, id); err != nil {
					fmt.Fprintln(s.out, "error:", apierr.Detail(err))
					return
				}
				if err := s.detail.Update(ctx, api.ArticleInput{Status: "published"}); err != nil {
					fmt.Fprintln(s.out, "error:", apierr.Detail(err))
					return
				}
				s.r.Article(s.out, s.detail.Article())
			})
		case "delete":
			id, err := strconv.ParseInt(argAt(args, 1), 10, 64)
			if err != nil {
				fmt.Fprintln(s.out, "Usage: delete <id>")
				continue
			}
			s.gated(ctx, func(ctx context.Context) {
				if err := s.detail.Load(ctx, id); err != nil {
					fmt.Fprintln(s.out, "error:", apierr.Detail(err))
					return
				}
				if err := s.detail.Delete(ctx); err != nil {
					fmt.Fprintln(s.out, "error:", apierr.Detail(err))
					return
				}
				fmt.Fprintln(s.out, "Article deleted")
			})
		case "profile":
			s.gated(ctx, func(ctx context.Context) {
				id := s.guard.Identity().ID
				if len(args) > 1 {
					if v, err := strconv.ParseInt(args[1], 10, 64); err == nil {
						id = v
					}
				}
				s.showProfile(ctx, id)
			})
		case "avatar":
			if len(args) < 2 {
				fmt.Fprintln(s.out, "Usage: avatar <file>")
				continue
			}
			s.gated(ctx, func(ctx context.Context) { s.uploadAvatar(ctx, args[1]) })
		case "exit":
			fmt.Fprintln(s.out, "Bye")
			return
		default:
			fmt.Fprintln(s.out, "Unknown command. Type 'help' for a list of commands.")
		}
	}
}

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func main() {
	opts, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	if opts.ShowVersion {
		fmt.Printf("Tribune Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	logger := zap.NewNop()
	if opts.Debug {
		logger, err = zap.NewDevelopment()
		if err != nil {
			log.Fatal(err)
		}
	}
	defer func() { _ = logger.Sync() }()

	sess, err := session.Open(opts.TokenFile, logger)
	if err != nil {
		log.Fatal(err)
	}
	client := api.New(opts.BaseURL, sess, logger, api.WithTimeout(opts.Timeout()))

	s := &shell{out: os.Stdout, r: view.NewRenderer(), sess: sess}
	s.guard = controller.NewAuthGuard(sess, client, s, logger)
	s.auth = controller.NewAuth(client, sess, s, logger)
	s.list = controller.NewArticleCollection(client, sess, s, logger)
	s.detail = controller.NewArticleDetail(client, sess, s, logger)
	s.profile = controller.NewUserProfile(client, sess, s, logger)
	s.compose = controller.NewArticleCreate(client, sess, s, logger)

	fmt.Println("Tribune forum client. Type 'help' for commands.")
	s.repl(bufio.NewScanner(os.Stdin))
}
