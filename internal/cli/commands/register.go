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

// NewRegisterCmd creates the register command
func NewRegisterCmd() *cobra.Command {
	var form forms.RegisterForm

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app.App, _ []string) error {
			return runRegister(ctx, a, form)
		}),
	}

	cmd.Flags().StringVar(&form.Username, "username", "", "Username (letters, numbers and underscores)")
	cmd.Flags().StringVar(&form.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&form.Password, "password", "", "Password (or set BONES_PASSWORD, will prompt if not provided)")

	return cmd
}

func runRegister(ctx context.Context, a *app.App, form forms.RegisterForm) error {
	if form.Password == "" {
		form.Password = os.Getenv("BONES_PASSWORD")
	}
	// A password from flags or env is not typed twice
	if form.Password != "" {
		form.ConfirmPassword = form.Password
	}

	pg := newPages(a)
	view, err := enter(ctx, a, pg, router.RegisterPath)
	if err != nil {
		return err
	}
	if view.Redirected() {
		u := a.Session.Snapshot().User
		fmt.Fprintf(a.Out, "Already logged in as %s. Run 'bones logout' first.\n", u.Username)
		return nil
	}

	err = pg.Register(ctx, form)
	if errors.Is(err, prompt.ErrNonInteractive) {
		return fmt.Errorf("--username, --email and --password are required in non-interactive mode")
	}
	return err
}
