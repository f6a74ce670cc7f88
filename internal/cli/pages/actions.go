package pages

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gameofbones/gameofbones/internal/cli/client"
	"github.com/gameofbones/gameofbones/internal/cli/forms"
	"github.com/gameofbones/gameofbones/internal/cli/optimistic"
)

// ask fills *dst from the prompter when it is empty.
func (p *Pages) ask(dst *string, label string, secret bool) error {
	if *dst != "" {
		return nil
	}
	var (
		v   string
		err error
	)
	if secret {
		v, err = p.prompter.Secret(label)
	} else {
		v, err = p.prompter.Input(label, "", nil)
	}
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// Login runs the login form. Missing fields are prompted for.
func (p *Pages) Login(ctx context.Context, form forms.LoginForm) error {
	p.sess.ClearError()

	if err := p.ask(&form.Email, "Email", false); err != nil {
		return err
	}
	if err := p.ask(&form.Password, "Password", true); err != nil {
		return err
	}
	if err := forms.Validate(form).Err(); err != nil {
		return err
	}

	if err := p.sess.Login(ctx, form.Credentials()); err != nil {
		return err
	}
	u := p.user()
	p.printf("✓ Logged in as %s%s\n", u.Username, roleSuffix(u))
	return nil
}

// Register runs the registration form.
func (p *Pages) Register(ctx context.Context, form forms.RegisterForm) error {
	p.sess.ClearError()

	if err := p.ask(&form.Username, "Username", false); err != nil {
		return err
	}
	if err := p.ask(&form.Email, "Email", false); err != nil {
		return err
	}
	if err := p.ask(&form.Password, "Password", true); err != nil {
		return err
	}
	if err := p.ask(&form.ConfirmPassword, "Confirm password", true); err != nil {
		return err
	}
	if err := forms.Validate(form).Err(); err != nil {
		return err
	}

	if err := p.sess.Register(ctx, form.Registration()); err != nil {
		return err
	}
	u := p.user()
	p.printf("✓ Welcome, %s! Your account is ready.\n", u.Username)
	if u.IsAdmin() {
		p.printf("  Role: Admin\n")
	}
	return nil
}

// Logout ends the session.
func (p *Pages) Logout(ctx context.Context) {
	was := p.user()
	p.sess.Logout(ctx)
	if was != nil {
		p.printf("✓ Logged out %s\n", was.Username)
		return
	}
	p.printf("Not logged in.\n")
}

// askPost prompts for the post fields. With defaults the current values are
// offered and kept on an empty answer; "-" clears an optional field.
func (p *Pages) askPost(form *forms.PostForm, image *string) error {
	var err error
	if form.Title, err = p.prompter.Input("Title", form.Title, nil); err != nil {
		return err
	}
	if form.Content, err = p.prompter.Input("Content", form.Content, nil); err != nil {
		return err
	}
	if image != nil {
		v, err := p.prompter.Input("Image file (optional)", *image, nil)
		if err != nil {
			return err
		}
		*image = optional(v)
	}
	v, err := p.prompter.Input("Location name (optional)", form.LocationName, nil)
	if err != nil {
		return err
	}
	form.LocationName = optional(v)

	coords, err := p.prompter.Input("Coordinates as lat,lng (optional)", formatCoords(form), nil)
	if err != nil {
		return err
	}
	lat, lng, err := parseCoords(optional(coords))
	if err != nil {
		return err
	}
	form.Latitude, form.Longitude = lat, lng
	return nil
}

func optional(v string) string {
	if strings.TrimSpace(v) == "-" {
		return ""
	}
	return v
}

func formatCoords(form *forms.PostForm) string {
	if form.Latitude == nil || form.Longitude == nil {
		return ""
	}
	return strconv.FormatFloat(*form.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(*form.Longitude, 'f', -1, 64)
}

func parseCoords(s string) (*float64, *float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("coordinates must look like 54.6,-5.9")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid latitude %q", parts[0])
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid longitude %q", parts[1])
	}
	return &lat, &lng, nil
}

// attachImage uploads imagePath and stores its URL in the form.
func (p *Pages) attachImage(ctx context.Context, form *forms.PostForm, imagePath string) error {
	if imagePath == "" {
		return nil
	}
	if p.uploader == nil {
		return fmt.Errorf("image upload is not available")
	}
	res, err := p.uploader.Upload(ctx, imagePath)
	if err != nil {
		return fmt.Errorf("image upload failed: %w", err)
	}
	form.ImageURL = res.URL
	p.printf("✓ Uploaded image %s\n", res.PublicID)
	return nil
}

// PostDraft is what the user has entered for a post so far.
type PostDraft struct {
	Form      forms.PostForm
	ImagePath string
}

// DraftError is a failed save. It carries the entered values so a retry can
// offer them again.
type DraftError struct {
	Draft PostDraft
	Err   error
}

func (e *DraftError) Error() string { return e.Err.Error() }

func (e *DraftError) Unwrap() error { return e.Err }

// prepare validates d and uploads its image.
func (p *Pages) prepare(ctx context.Context, d PostDraft) (forms.PostForm, error) {
	form := d.Form
	if err := forms.Validate(form).Err(); err != nil {
		return form, &DraftError{Draft: d, Err: err}
	}
	if err := p.attachImage(ctx, &form, d.ImagePath); err != nil {
		return form, &DraftError{Draft: d, Err: err}
	}
	return form, nil
}

// CreatePost publishes a post. In interactive mode an empty title prompts for
// the whole form.
func (p *Pages) CreatePost(ctx context.Context, form forms.PostForm, imagePath string) (*client.Post, error) {
	draft := PostDraft{Form: form, ImagePath: imagePath}
	if form.Title == "" && p.interactive {
		return p.ComposePost(ctx, &draft)
	}
	return p.publish(ctx, draft)
}

// ComposePost prompts for a new post. A draft left by an earlier failed
// attempt supplies the defaults.
func (p *Pages) ComposePost(ctx context.Context, draft *PostDraft) (*client.Post, error) {
	var d PostDraft
	if draft != nil {
		d = *draft
	}
	if err := p.askPost(&d.Form, &d.ImagePath); err != nil {
		return nil, &DraftError{Draft: d, Err: err}
	}
	return p.publish(ctx, d)
}

func (p *Pages) publish(ctx context.Context, d PostDraft) (*client.Post, error) {
	form, err := p.prepare(ctx, d)
	if err != nil {
		return nil, err
	}

	post, err := p.api.CreatePost(ctx, form.Input())
	if err != nil {
		return nil, &DraftError{Draft: d, Err: fmt.Errorf("failed to create post: %w", err)}
	}
	p.printf("✓ Published post %d\n\n", post.ID)
	p.renderPost(post)
	return post, nil
}

// PostEdit carries the fields given on the command line. Nil means unchanged.
type PostEdit struct {
	Title        *string
	Content      *string
	LocationName *string
	Latitude     *float64
	Longitude    *float64
	ClearCoords  bool
	ImagePath    string
	ClearImage   bool
}

func (e *PostEdit) empty() bool {
	return e.Title == nil && e.Content == nil && e.LocationName == nil &&
		e.Latitude == nil && e.Longitude == nil && !e.ClearCoords &&
		e.ImagePath == "" && !e.ClearImage
}

func (e *PostEdit) apply(form *forms.PostForm) {
	if e.Title != nil {
		form.Title = *e.Title
	}
	if e.Content != nil {
		form.Content = *e.Content
	}
	if e.LocationName != nil {
		form.LocationName = *e.LocationName
	}
	if e.Latitude != nil {
		form.Latitude = e.Latitude
	}
	if e.Longitude != nil {
		form.Longitude = e.Longitude
	}
	if e.ClearCoords {
		form.Latitude, form.Longitude = nil, nil
	}
	if e.ClearImage {
		form.ImageURL = ""
	}
}

func (p *Pages) ownPost(ctx context.Context, id int64) (*client.Post, error) {
	post, err := p.api.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load post %d: %w", id, err)
	}
	u := p.user()
	if u == nil || (u.ID != post.Author.ID && !u.IsAdmin()) {
		return nil, ErrNotAuthor
	}
	return post, nil
}

func formFromPost(post *client.Post) forms.PostForm {
	return forms.PostForm{
		Title:        post.Title,
		Content:      post.Content,
		ImageURL:     post.ImageURL,
		Latitude:     post.Latitude,
		Longitude:    post.Longitude,
		LocationName: post.LocationName,
	}
}

// EditPost updates a post the user wrote (admins may edit any). A nil edit
// prompts for every field with the current values as defaults.
func (p *Pages) EditPost(ctx context.Context, id int64, edit *PostEdit) (*client.Post, error) {
	if (edit == nil || edit.empty()) && p.interactive {
		return p.RevisePost(ctx, id, nil)
	}

	post, err := p.ownPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if edit == nil || edit.empty() {
		return nil, ErrNothingToSave
	}

	d := PostDraft{Form: formFromPost(post), ImagePath: edit.ImagePath}
	edit.apply(&d.Form)
	return p.update(ctx, id, d)
}

// RevisePost prompts for changes to a post. Without a draft the post's
// current values are the defaults.
func (p *Pages) RevisePost(ctx context.Context, id int64, draft *PostDraft) (*client.Post, error) {
	post, err := p.ownPost(ctx, id)
	if err != nil {
		return nil, err
	}

	d := PostDraft{Form: formFromPost(post)}
	if draft != nil {
		d = *draft
	}
	if err := p.askPost(&d.Form, &d.ImagePath); err != nil {
		return nil, &DraftError{Draft: d, Err: err}
	}
	return p.update(ctx, id, d)
}

func (p *Pages) update(ctx context.Context, id int64, d PostDraft) (*client.Post, error) {
	form, err := p.prepare(ctx, d)
	if err != nil {
		return nil, err
	}

	updated, err := p.api.UpdatePost(ctx, id, form.Input())
	if err != nil {
		return nil, &DraftError{Draft: d, Err: fmt.Errorf("failed to update post: %w", err)}
	}
	p.printf("✓ Updated post %d\n\n", updated.ID)
	p.renderPost(updated)
	return updated, nil
}

// confirm asks unless yes is already set.
func (p *Pages) confirm(label string, yes bool) error {
	if yes {
		return nil
	}
	ok, err := p.prompter.Confirm(label)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCancelled
	}
	return nil
}

// DeletePost deletes a post the user wrote (admins may delete any).
func (p *Pages) DeletePost(ctx context.Context, id int64, yes bool) error {
	post, err := p.ownPost(ctx, id)
	if err != nil {
		return err
	}
	if err := p.confirm(fmt.Sprintf("Delete %q", post.Title), yes); err != nil {
		return err
	}
	if err := p.api.DeletePost(ctx, id); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	p.printf("✓ Deleted post %d\n", id)
	return nil
}

// ToggleLike likes or unlikes a post. The new count is shown before the
// backend answers and is rolled back if it refuses.
func (p *Pages) ToggleLike(ctx context.Context, id int64) (*client.Post, error) {
	post, err := p.api.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load post %d: %w", id, err)
	}

	cell := optimistic.NewCell(*post)
	cell.OnChange(func(post client.Post) {
		p.printf("♥  %s\n", likes(post))
	})

	if err := optimistic.ToggleLike(ctx, cell, p.api); err != nil {
		return nil, err
	}
	result := cell.Get()
	return &result, nil
}

// ChangeRole sets a user's role (admin only). An empty role is prompted for.
func (p *Pages) ChangeRole(ctx context.Context, id int64, role string) (*client.User, error) {
	choices := []string{string(client.RoleUser), string(client.RoleAdmin)}
	if role == "" {
		idx, err := p.prompter.Select("Role", choices)
		if err != nil {
			return nil, err
		}
		role = choices[idx]
	}
	if err := forms.Validate(forms.RoleForm{Role: role}).Err(); err != nil {
		return nil, err
	}

	user, err := p.api.UpdateUserRole(ctx, id, client.Role(role))
	if err != nil {
		return nil, fmt.Errorf("failed to change role: %w", err)
	}
	p.printf("✓ %s is now %s\n", user.Username, user.Role)
	return user, nil
}

// DeleteUser removes an account (admin only).
func (p *Pages) DeleteUser(ctx context.Context, id int64, yes bool) error {
	if u := p.user(); u != nil && u.ID == id {
		return fmt.Errorf("you cannot delete your own account here")
	}
	if err := p.confirm(fmt.Sprintf("Delete user %d and all their posts", id), yes); err != nil {
		return err
	}
	if err := p.api.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	p.printf("✓ Deleted user %d\n", id)
	return nil
}
