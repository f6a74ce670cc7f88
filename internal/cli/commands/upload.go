package commands

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/gameofbones/gameofbones/internal/cli/app"
	"github.com/gameofbones/gameofbones/internal/cli/media"
)

// NewUploadCmd creates the upload command
func NewUploadCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an image to the image host and print its URL",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app.App, args []string) error {
			return runUpload(ctx, a, args[0], check)
		}),
	}

	cmd.Flags().BoolVar(&check, "check", false, "Only validate the file, do not upload it")

	return cmd
}

func runUpload(ctx context.Context, a *app.App, path string, check bool) error {
	if check {
		img, err := media.Inspect(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "✓ %s is a %s image of %s\n", path, img.MIME, humanize.IBytes(uint64(img.Size)))
		return nil
	}

	res, err := a.Uploader.Upload(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.Out, res.URL)
	return nil
}
