package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/gameofbones/gameofbones/internal/cli/app"
	"github.com/gameofbones/gameofbones/internal/cli/prompt"
	"github.com/gameofbones/gameofbones/internal/cli/router"
	"github.com/gameofbones/gameofbones/internal/cli/shell"
)

// NewShellCmd creates the interactive shell command
func NewShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell [path]",
		Short: "Browse Game of Bones interactively",
		Long: `Opens an interactive shell. Type page paths such as /posts/3 or commands
such as 'open 3', 'new' or 'login'. Without a terminal, commands are read
line by line from standard input.`,
		Args: cobra.MaximumNArgs(1),
		RunE: withApp(func(ctx context.Context, a *app.App, args []string) error {
			start := router.HomePath
			if len(args) == 1 {
				start = args[0]
			}

			p := a.Prompter
			if !a.Interactive {
				p = prompt.NewLines(a.In, a.Out)
			}
			return shell.New(a, p).Run(ctx, start)
		}),
	}
}
