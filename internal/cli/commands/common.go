package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gameofbones/gameofbones/internal/cli/app"
	"github.com/gameofbones/gameofbones/internal/cli/forms"
	"github.com/gameofbones/gameofbones/internal/cli/pages"
	"github.com/gameofbones/gameofbones/internal/cli/router"
)

var (
	// ErrNotAuthenticated is returned when a protected page is requested
	// without a session and there is no terminal to log in from.
	ErrNotAuthenticated = errors.New("not authenticated. Please run 'bones login' first")
	// ErrAdminOnly is returned when a non-admin requests an admin page.
	ErrAdminOnly = errors.New("this page is for admins only")
)

// getApp returns the app the root command put into the context.
func getApp(cmd *cobra.Command) (*app.App, error) {
	return app.FromContext(cmd.Context())
}

func newPages(a *app.App) *pages.Pages {
	return pages.New(pages.Deps{
		API:         a.Client,
		Session:     a.Session,
		Uploader:    a.Uploader,
		Prompter:    a.Prompter,
		Out:         a.Out,
		Interactive: a.Interactive,
	})
}

// enter navigates to path the way the shell would and turns the guard's
// redirects into command outcomes. A guest page visited while signed in
// comes back as a redirected view with no error.
func enter(ctx context.Context, a *app.App, pg *pages.Pages, path string) (router.View, error) {
	nav := a.NewNavigator(nil)
	defer nav.Close()

	view, err := nav.Navigate(path)
	if err != nil {
		return view, err
	}
	if !view.Redirected() {
		return view, nil
	}

	requested, _, _ := a.Routes.Match(view.Requested.Path)

	switch {
	case requested.Access == router.GuestOnly:
		return view, nil

	case view.Route.Name == router.PageLogin:
		if !a.Interactive {
			return view, ErrNotAuthenticated
		}
		fmt.Fprintf(a.Err, "🔒 %s requires you to log in\n", view.Requested)
		if err := pg.Login(ctx, forms.LoginForm{}); err != nil {
			return view, err
		}
		// The navigator followed the session to the pending return target.
		cur, _ := nav.Current()
		if !cur.Location.Equal(view.Requested) {
			return cur, ErrAdminOnly
		}
		return cur, nil

	default:
		return view, ErrAdminOnly
	}
}

// withApp adapts a run function to cobra.
func withApp(run func(ctx context.Context, a *app.App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		return run(cmd.Context(), a, args)
	}
}
