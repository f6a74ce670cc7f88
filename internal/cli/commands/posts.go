package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gameofbones/gameofbones/internal/cli/app"
	"github.com/gameofbones/gameofbones/internal/cli/forms"
	"github.com/gameofbones/gameofbones/internal/cli/pages"
	"github.com/gameofbones/gameofbones/internal/cli/router"
)

// NewPostsCmd creates the posts command group
func NewPostsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "posts",
		Aliases: []string{"post", "p"},
		Short:   "Read and write posts",
	}

	cmd.AddCommand(newPostsListCmd())
	cmd.AddCommand(newPostsShowCmd())
	cmd.AddCommand(newPostsCreateCmd())
	cmd.AddCommand(newPostsEditCmd())
	cmd.AddCommand(newPostsDeleteCmd())
	cmd.AddCommand(newPostsLikeCmd())

	return cmd
}

func newPostsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List all posts",
		Args:    cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app.App, _ []string) error {
			pg := newPages(a)
			if _, err := enter(ctx, a, pg, router.HomePath); err != nil {
				return err
			}
			return pg.Home(ctx)
		}),
	}
}

func newPostsShowCmd() *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a post",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app.App, args []string) error {
			return runPostsShow(ctx, a, args[0], open)
		}),
	}

	cmd.Flags().BoolVar(&open, "open", false, "Open the post's image in the browser")

	return cmd
}

func runPostsShow(ctx context.Context, a *app.App, rawID string, open bool) error {
	id, err := pages.ParseID(rawID)
	if err != nil {
		return err
	}
	pg := newPages(a)
	if _, err := enter(ctx, a, pg, fmt.Sprintf("/posts/%d", id)); err != nil {
		return err
	}
	if err := pg.Post(ctx, id); err != nil {
		return err
	}
	if !open {
		return nil
	}

	post, err := a.Client.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if post.ImageURL == "" {
		return fmt.Errorf("post %d has no image", id)
	}
	if err := openBrowser(post.ImageURL); err != nil {
		return fmt.Errorf("failed to open browser: %w\nPlease visit: %s", err, post.ImageURL)
	}
	return nil
}

// postFlags binds the post form fields to flags.
type postFlags struct {
	title, content, location, image string
	lat, lng                        float64
	clearCoords, clearImage         bool
}

func (f *postFlags) bind(cmd *cobra.Command, edit bool) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "Post title")
	cmd.Flags().StringVarP(&f.content, "content", "c", "", "Post content")
	cmd.Flags().StringVar(&f.location, "location", "", "Location name")
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "Latitude (-90 to 90)")
	cmd.Flags().Float64Var(&f.lng, "lng", 0, "Longitude (-180 to 180)")
	cmd.Flags().StringVarP(&f.image, "image", "i", "", "Image file to upload (jpeg, png, gif or webp, up to 10 MB)")
	if edit {
		cmd.Flags().BoolVar(&f.clearCoords, "clear-coords", false, "Remove the post's coordinates")
		cmd.Flags().BoolVar(&f.clearImage, "clear-image", false, "Remove the post's image")
	}
}

func (f *postFlags) form(cmd *cobra.Command) forms.PostForm {
	form := forms.PostForm{Title: f.title, Content: f.content, LocationName: f.location}
	if cmd.Flags().Changed("lat") {
		lat := f.lat
		form.Latitude = &lat
	}
	if cmd.Flags().Changed("lng") {
		lng := f.lng
		form.Longitude = &lng
	}
	return form
}

func (f *postFlags) edit(cmd *cobra.Command) *pages.PostEdit {
	changed := cmd.Flags().Changed
	e := &pages.PostEdit{ImagePath: f.image, ClearCoords: f.clearCoords, ClearImage: f.clearImage}
	if changed("title") {
		e.Title = &f.title
	}
	if changed("content") {
		e.Content = &f.content
	}
	if changed("location") {
		e.LocationName = &f.location
	}
	if changed("lat") {
		e.Latitude = &f.lat
	}
	if changed("lng") {
		e.Longitude = &f.lng
	}
	return e
}

func newPostsCreateCmd() *cobra.Command {
	var flags postFlags

	cmd := &cobra.Command{
		Use:     "create",
		Aliases: []string{"new"},
		Short:   "Publish a new post",
		Long: `Publish a new post. Without --title the form is asked for interactively.

An image given with --image is checked locally and uploaded to the image
host before the post is created.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			return runPostsCreate(cmd.Context(), a, flags.form(cmd), flags.image)
		},
	}

	flags.bind(cmd, false)

	return cmd
}

func runPostsCreate(ctx context.Context, a *app.App, form forms.PostForm, image string) error {
	pg := newPages(a)
	if _, err := enter(ctx, a, pg, "/posts/new"); err != nil {
		return err
	}
	_, err := pg.CreatePost(ctx, form, image)
	return err
}

func newPostsEditCmd() *cobra.Command {
	var flags postFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit one of your posts",
		Long:  `Edit a post. Only the fields given as flags change; with no flags the form is asked for interactively.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			return runPostsEdit(cmd.Context(), a, args[0], flags.edit(cmd))
		},
	}

	flags.bind(cmd, true)

	return cmd
}

func runPostsEdit(ctx context.Context, a *app.App, rawID string, edit *pages.PostEdit) error {
	id, err := pages.ParseID(rawID)
	if err != nil {
		return err
	}
	pg := newPages(a)
	if _, err := enter(ctx, a, pg, fmt.Sprintf("/posts/%d/edit", id)); err != nil {
		return err
	}
	_, err = pg.EditPost(ctx, id, edit)
	return err
}

func newPostsDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete one of your posts",
		Args:    cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app.App, args []string) error {
			id, err := pages.ParseID(args[0])
			if err != nil {
				return err
			}
			pg := newPages(a)
			if _, err := enter(ctx, a, pg, fmt.Sprintf("/posts/%d/edit", id)); err != nil {
				return err
			}
			return pg.DeletePost(ctx, id, yes)
		}),
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

func newPostsLikeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "like <id>",
		Short: "Like a post, or unlike it if you already do",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app.App, args []string) error {
			id, err := pages.ParseID(args[0])
			if err != nil {
				return err
			}
			pg := newPages(a)
			if _, err := enter(ctx, a, pg, fmt.Sprintf("/posts/%d/like", id)); err != nil {
				return err
			}
			_, err = pg.ToggleLike(ctx, id)
			return err
		}),
	}
}
