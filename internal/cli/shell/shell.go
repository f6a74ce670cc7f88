// Package shell is the interactive front end: it keeps a current location,
// renders the page for it and re-renders whenever the session moves it.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gameofbones/gameofbones/internal/cli/app"
	"github.com/gameofbones/gameofbones/internal/cli/pages"
	"github.com/gameofbones/gameofbones/internal/cli/prompt"
	"github.com/gameofbones/gameofbones/internal/cli/router"
)

const help = `Commands:
  <path>             go to a page, e.g. /posts/3, /posts/new, /admin/users
  home | ls          the feed
  open <id>          a post
  new                write a post
  edit [id]          edit a post (defaults to the one on screen)
  like [id]          like or unlike a post
  delete [id]        delete a post
  users              the user list (admins)
  role <id> [role]   change a user's role (admins)
  rmuser <id>        delete a user (admins)
  login | register   sign in or create an account
  logout             sign out
  whoami | profile   your account
  back               previous page
  <enter>            show the current page again
  help               this text
  exit               leave the shell`

// Shell is a read-eval-render loop over the app's routes.
type Shell struct {
	app      *app.App
	pages    *pages.Pages
	prompter prompt.Prompter
	out      io.Writer
	errOut   io.Writer
	nav      *router.Navigator

	mu   sync.Mutex
	next *router.View

	// Values entered on a post form whose save failed, offered again on retry.
	draft   *pages.PostDraft
	draftAt string
}

// New creates a shell that reads from p.
func New(a *app.App, p prompt.Prompter) *Shell {
	return &Shell{
		app: a,
		pages: pages.New(pages.Deps{
			API:         a.Client,
			Session:     a.Session,
			Uploader:    a.Uploader,
			Prompter:    p,
			Out:         a.Out,
			Interactive: true,
		}),
		prompter: p,
		out:      a.Out,
		errOut:   a.Err,
	}
}

// onView is the navigator's listener. It may run on the bootstrap goroutine,
// so it only records the view; the loop renders it.
func (s *Shell) onView(v router.View) {
	s.mu.Lock()
	s.next = &v
	s.mu.Unlock()
}

func (s *Shell) take() *router.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.next
	s.next = nil
	return v
}

// Run starts the session check, opens start and reads commands until exit
// or end of input.
func (s *Shell) Run(ctx context.Context, start string) error {
	s.nav = s.app.NewNavigator(s.onView)
	defer s.nav.Close()

	fmt.Fprintln(s.out, "Game of Bones. Type 'help' for commands.")

	s.app.StartAsync(ctx)
	if err := s.app.Bootstrap.Gate(s.out, func() error { return nil }); err != nil {
		return err
	}
	select {
	case <-s.app.Bootstrap.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	if _, err := s.nav.Navigate(start); err != nil {
		s.printErr(err)
		if _, err := s.nav.Navigate(router.HomePath); err != nil {
			return err
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if v := s.take(); v != nil {
			s.show(ctx, *v)
			continue
		}

		line, err := s.prompter.Input(s.label(), "", nil)
		if errors.Is(err, prompt.ErrAborted) {
			fmt.Fprintln(s.out, "Bye.")
			return nil
		}
		if err != nil {
			return err
		}

		quit, err := s.exec(ctx, strings.TrimSpace(line))
		if err != nil {
			s.printErr(err)
		}
		if quit {
			fmt.Fprintln(s.out, "Bye.")
			return nil
		}
	}
}

func (s *Shell) label() string {
	cur, ok := s.nav.Current()
	if !ok {
		return "bones"
	}
	return "bones " + cur.Location.String()
}

func (s *Shell) printErr(err error) {
	fmt.Fprintf(s.errOut, "✗ %v\n", err)
}

// show renders v. Pages that finish a task move on to where the task leads.
func (s *Shell) show(ctx context.Context, v router.View) {
	fmt.Fprintln(s.out)

	if s.draftAt != v.Location.String() {
		s.draft, s.draftAt = nil, ""
	}

	switch v.Route.Name {
	case router.PageNewPost:
		post, err := s.pages.ComposePost(ctx, s.draft)
		if err != nil {
			s.keepDraft(v, err)
			s.printErr(err)
			fmt.Fprintln(s.errOut, "Press enter to try again.")
			return
		}
		s.draft, s.draftAt = nil, ""
		s.replace(fmt.Sprintf("/posts/%d", post.ID))

	case router.PageEditPost:
		id, _ := pages.ParseID(v.Params["id"])
		if _, err := s.pages.RevisePost(ctx, id, s.draft); err != nil {
			s.keepDraft(v, err)
			s.printErr(err)
			fmt.Fprintln(s.errOut, "Press enter to try again or type 'back'.")
			return
		}
		s.draft, s.draftAt = nil, ""
		s.replace(fmt.Sprintf("/posts/%d", id))

	case router.PageLikePost:
		if err := s.pages.Show(ctx, v); err != nil {
			s.printErr(err)
		}
		s.replace("/posts/" + v.Params["id"])

	case router.PageLogin, router.PageRegister:
		// Success moves the navigator on through the session subscription.
		if err := s.pages.Show(ctx, v); err != nil {
			s.printErr(err)
			fmt.Fprintln(s.errOut, "Press enter to try again.")
		}

	default:
		if err := s.pages.Show(ctx, v); err != nil {
			s.printErr(err)
		}
	}
}

func (s *Shell) keepDraft(v router.View, err error) {
	var de *pages.DraftError
	if errors.As(err, &de) {
		draft := de.Draft
		s.draft, s.draftAt = &draft, v.Location.String()
	}
}

func (s *Shell) replace(raw string) {
	loc, err := router.ParseLocation(raw)
	if err != nil {
		s.printErr(err)
		return
	}
	if _, err := s.nav.Replace(loc); err != nil {
		s.printErr(err)
	}
}

func (s *Shell) navigate(raw string) error {
	_, err := s.nav.Navigate(raw)
	return err
}

// idArg returns args[0], or the id of the post on screen.
func (s *Shell) idArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cur, ok := s.nav.Current(); ok {
		if id, ok := cur.Params["id"]; ok {
			return id, nil
		}
	}
	return "", fmt.Errorf("which post? Give an id or open one first")
}

func (s *Shell) exec(ctx context.Context, line string) (bool, error) {
	if line == "" {
		if cur, ok := s.nav.Current(); ok {
			s.show(ctx, cur)
		}
		return false, nil
	}
	if strings.HasPrefix(line, "/") {
		return false, s.navigate(line)
	}

	fields := strings.Fields(line)
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "exit", "quit", "q":
		return true, nil
	case "help", "?":
		fmt.Fprintln(s.out, help)
		return false, nil
	case "back":
		_, err := s.nav.Back()
		return false, err
	case "home", "ls":
		return false, s.navigate(router.HomePath)
	case "login":
		return false, s.navigate(router.LoginPath)
	case "register":
		return false, s.navigate(router.RegisterPath)
	case "logout":
		s.pages.Logout(ctx)
		return false, nil
	case "whoami", "profile":
		return false, s.navigate("/profile")
	case "users":
		return false, s.navigate(adminUsersPath)
	case "new":
		return false, s.navigate("/posts/new")
	case "open", "show":
		id, err := s.idArg(args)
		if err != nil {
			return false, err
		}
		return false, s.navigate("/posts/" + id)
	case "edit", "like":
		id, err := s.idArg(args)
		if err != nil {
			return false, err
		}
		return false, s.navigate("/posts/" + id + "/" + cmd)
	case "delete":
		return false, s.deletePost(ctx, args)
	case "role", "rmuser":
		return false, s.adminAction(ctx, cmd, args)
	default:
		return false, fmt.Errorf("unknown command %q, type 'help'", cmd)
	}
}

const adminUsersPath = "/admin/users"

func (s *Shell) deletePost(ctx context.Context, args []string) error {
	raw, err := s.idArg(args)
	if err != nil {
		return err
	}
	id, err := pages.ParseID(raw)
	if err != nil {
		return err
	}
	// Deleting needs the same access as editing.
	view, err := s.nav.Navigate(fmt.Sprintf("/posts/%d/edit", id))
	if err != nil {
		return err
	}
	if view.Route.Name != router.PageEditPost {
		// The guard redirected; the loop renders where it went.
		return nil
	}
	s.take()
	if err := s.pages.DeletePost(ctx, id, false); err != nil {
		_, _ = s.nav.Back()
		return err
	}
	s.replace(router.HomePath)
	return nil
}

func (s *Shell) adminAction(ctx context.Context, cmd string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s <user-id>", cmd)
	}
	view, err := s.nav.Navigate(adminUsersPath)
	if err != nil {
		return err
	}
	if view.Route.Name != router.PageAdminUsers {
		return nil
	}
	s.take()

	id, err := pages.ParseID(args[0])
	if err != nil {
		return err
	}
	switch cmd {
	case "role":
		role := ""
		if len(args) > 1 {
			role = args[1]
		}
		_, err = s.pages.ChangeRole(ctx, id, role)
	default:
		err = s.pages.DeleteUser(ctx, id, false)
	}
	if err != nil {
		return err
	}
	return s.pages.Users(ctx)
}
