package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/gameofbones/gameofbones/internal/cli/app"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app.App, _ []string) error {
			newPages(a).Logout(ctx)
			return nil
		}),
	}
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "whoami",
		Aliases: []string{"profile"},
		Short:   "Show the logged-in user",
		Args:    cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app.App, _ []string) error {
			pg := newPages(a)
			if _, err := enter(ctx, a, pg, "/profile"); err != nil {
				return err
			}
			return pg.Profile()
		}),
	}
}
