package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gameofbones/gameofbones/internal/cli/app"
	"github.com/gameofbones/gameofbones/internal/cli/forms"
	"github.com/gameofbones/gameofbones/internal/cli/prompt"
	"github.com/gameofbones/gameofbones/internal/cli/router"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to Game of Bones",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app.App, _ []string) error {
			return runLogin(ctx, a, email, password)
		}),
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set BONES_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set BONES_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(ctx context.Context, a *app.App, email, password string) error {
	// Environment variables are useful for CI
	if email == "" {
		email = os.Getenv("BONES_EMAIL")
	}
	if password == "" {
		password = os.Getenv("BONES_PASSWORD")
	}

	pg := newPages(a)
	view, err := enter(ctx, a, pg, router.LoginPath)
	if err != nil {
		return err
	}
	if view.Redirected() {
		u := a.Session.Snapshot().User
		fmt.Fprintf(a.Out, "Already logged in as %s. Run 'bones logout' to switch accounts.\n", u.Username)
		return nil
	}

	fmt.Fprintf(a.Err, "Logging in to %s...\n", a.Client.BaseURL())
	err = pg.Login(ctx, forms.LoginForm{Email: email, Password: password})
	if errors.Is(err, prompt.ErrNonInteractive) {
		if email == "" {
			return fmt.Errorf("email is required in non-interactive mode (use --email flag or BONES_EMAIL env var)")
		}
		return fmt.Errorf("password is required in non-interactive mode (use --password flag or BONES_PASSWORD env var)")
	}
	return err
}
