// Package pages renders the application's screens and runs their forms. The
// same pages back both the one-shot commands and the interactive shell.
package pages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gameofbones/gameofbones/internal/cli/client"
	"github.com/gameofbones/gameofbones/internal/cli/forms"
	"github.com/gameofbones/gameofbones/internal/cli/media"
	"github.com/gameofbones/gameofbones/internal/cli/prompt"
	"github.com/gameofbones/gameofbones/internal/cli/router"
	"github.com/gameofbones/gameofbones/internal/cli/session"
)

var (
	ErrNotAuthor     = errors.New("you can only change your own posts")
	ErrNothingToSave = errors.New("nothing to update")
	ErrCancelled     = errors.New("cancelled")
)

// API is the part of the REST client the pages use.
type API interface {
	ListPosts(ctx context.Context) ([]client.Post, error)
	GetPost(ctx context.Context, id int64) (*client.Post, error)
	CreatePost(ctx context.Context, in client.PostInput) (*client.Post, error)
	UpdatePost(ctx context.Context, id int64, in client.PostInput) (*client.Post, error)
	DeletePost(ctx context.Context, id int64) error
	LikePost(ctx context.Context, id int64) (*client.LikeStatus, error)
	UnlikePost(ctx context.Context, id int64) (*client.LikeStatus, error)
	ListUsers(ctx context.Context) ([]client.User, error)
	UpdateUserRole(ctx context.Context, id int64, role client.Role) (*client.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// Session is the part of the session store the pages use.
type Session interface {
	Snapshot() session.State
	Login(ctx context.Context, creds client.Credentials) error
	Register(ctx context.Context, reg client.Registration) error
	Logout(ctx context.Context)
	ClearError()
}

// Uploader sends a local image to the image host.
type Uploader interface {
	Upload(ctx context.Context, path string) (*media.Result, error)
}

// Deps are the collaborators of Pages.
type Deps struct {
	API         API
	Session     Session
	Uploader    Uploader
	Prompter    prompt.Prompter
	Out         io.Writer
	Interactive bool
}

// Pages renders screens to Out and asks for input through Prompter.
// Errors are returned, never printed; callers decide how to show them.
type Pages struct {
	api         API
	sess        Session
	uploader    Uploader
	prompter    prompt.Prompter
	out         io.Writer
	interactive bool
	now         func() time.Time
}

// New creates Pages from d.
func New(d Deps) *Pages {
	p := d.Prompter
	if p == nil {
		p = prompt.NonInteractive{}
	}
	return &Pages{
		api:         d.API,
		sess:        d.Session,
		uploader:    d.Uploader,
		prompter:    p,
		out:         d.Out,
		interactive: d.Interactive,
		now:         time.Now,
	}
}

// ParseID parses a numeric route parameter.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// Show renders the page for v. Form pages prompt for their input.
func (p *Pages) Show(ctx context.Context, v router.View) error {
	if v.Guard == router.Checking {
		_, err := fmt.Fprintln(p.out, session.LoadingPlaceholder)
		return err
	}

	switch v.Route.Name {
	case router.PageHome:
		return p.Home(ctx)
	case router.PageLogin:
		return p.Login(ctx, forms.LoginForm{})
	case router.PageRegister:
		return p.Register(ctx, forms.RegisterForm{})
	case router.PageNewPost:
		_, err := p.CreatePost(ctx, forms.PostForm{}, "")
		return err
	case router.PageProfile:
		return p.Profile()
	case router.PageAdminUsers:
		return p.Users(ctx)
	}

	id, err := ParseID(v.Params["id"])
	if err != nil {
		return err
	}
	switch v.Route.Name {
	case router.PagePost:
		return p.Post(ctx, id)
	case router.PageEditPost:
		_, err := p.EditPost(ctx, id, nil)
		return err
	case router.PageLikePost:
		_, err := p.ToggleLike(ctx, id)
		return err
	default:
		return fmt.Errorf("no page for route %q", v.Route.Name)
	}
}

func (p *Pages) user() *client.User {
	return p.sess.Snapshot().User
}

func (p *Pages) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}
