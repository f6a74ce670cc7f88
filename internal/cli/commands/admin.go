package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/gameofbones/gameofbones/internal/cli/app"
	"github.com/gameofbones/gameofbones/internal/cli/pages"
)

const adminUsersPath = "/admin/users"

// NewAdminCmd creates the admin command group
func NewAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administer accounts (admins only)",
	}

	users := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}
	users.AddCommand(newAdminUsersListCmd())
	users.AddCommand(newAdminUsersRoleCmd())
	users.AddCommand(newAdminUsersDeleteCmd())

	cmd.AddCommand(users)
	return cmd
}

func newAdminUsersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List all users",
		Args:    cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app.App, _ []string) error {
			pg := newPages(a)
			if _, err := enter(ctx, a, pg, adminUsersPath); err != nil {
				return err
			}
			return pg.Users(ctx)
		}),
	}
}

func newAdminUsersRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "role <user-id> [user|admin]",
		Short: "Change a user's role",
		Args:  cobra.RangeArgs(1, 2),
		RunE: withApp(func(ctx context.Context, a *app.App, args []string) error {
			id, err := pages.ParseID(args[0])
			if err != nil {
				return err
			}
			var role string
			if len(args) == 2 {
				role = args[1]
			}
			pg := newPages(a)
			if _, err := enter(ctx, a, pg, adminUsersPath); err != nil {
				return err
			}
			_, err = pg.ChangeRole(ctx, id, role)
			return err
		}),
	}
}

func newAdminUsersDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <user-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a user and their posts",
		Args:    cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app.App, args []string) error {
			id, err := pages.ParseID(args[0])
			if err != nil {
				return err
			}
			pg := newPages(a)
			if _, err := enter(ctx, a, pg, adminUsersPath); err != nil {
				return err
			}
			return pg.DeleteUser(ctx, id, yes)
		}),
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}
