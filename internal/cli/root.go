package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gameofbones/gameofbones/internal/cli/app"
	"github.com/gameofbones/gameofbones/internal/cli/commands"
	"github.com/gameofbones/gameofbones/internal/cli/userconfig"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the command tree. opts are passed to app.New, which lets
// tests swap storage, transport and streams.
func NewRootCmd(opts ...app.Option) *cobra.Command {
	var apiURL string

	rootCmd := &cobra.Command{
		Use:   "bones",
		Short: "Game of Bones - a blog from the terminal",
		Long: `Game of Bones CLI - read, write and like posts, and manage users.

Run 'bones shell' for an interactive session, or use the one-shot commands
below from scripts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			if _, err := app.FromContext(cmd.Context()); err == nil {
				return nil
			}

			cfg, err := userconfig.Load()
			if err != nil {
				return err
			}
			if apiURL != "" {
				cfg.APIURL = apiURL
			}

			a, err := app.New(cfg, opts...)
			if err != nil {
				return err
			}
			cmd.SetContext(app.NewContext(cmd.Context(), a))

			// The shell renders a loading state while the check runs
			if cmd.Name() != "shell" {
				a.Start(cmd.Context())
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a, err := app.FromContext(cmd.Context()); err == nil {
				a.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API base URL (overrides config and BONES_API_URL)")

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bones version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewRegisterCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewPostsCmd())
	rootCmd.AddCommand(commands.NewAdminCmd())
	rootCmd.AddCommand(commands.NewUploadCmd())
	rootCmd.AddCommand(commands.NewShellCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
