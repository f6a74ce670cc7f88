package pages

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameofbones/gameofbones/internal/cli/client"
	"github.com/gameofbones/gameofbones/internal/cli/forms"
	"github.com/gameofbones/gameofbones/internal/cli/media"
	"github.com/gameofbones/gameofbones/internal/cli/prompt"
	"github.com/gameofbones/gameofbones/internal/cli/router"
	"github.com/gameofbones/gameofbones/internal/cli/session"
)

var (
	jon   = &client.User{ID: 1, Username: "jon", Email: "jon@example.com", Role: client.RoleUser}
	sansa = &client.User{ID: 2, Username: "sansa", Email: "sansa@example.com", Role: client.RoleAdmin}
)

type fakeSession struct {
	state    session.State
	loginErr error
	logins   []client.Credentials
}

func (f *fakeSession) Snapshot() session.State { return f.state }

func (f *fakeSession) Login(ctx context.Context, creds client.Credentials) error {
	f.logins = append(f.logins, creds)
	if f.loginErr != nil {
		f.state.Error = f.loginErr.Error()
		return f.loginErr
	}
	f.state = session.State{User: jon, Token: "tok", IsAuthenticated: true}
	return nil
}

func (f *fakeSession) Register(ctx context.Context, reg client.Registration) error {
	f.state = session.State{User: &client.User{ID: 3, Username: reg.Username, Role: client.RoleUser}, Token: "tok", IsAuthenticated: true}
	return nil
}

func (f *fakeSession) Logout(ctx context.Context) { f.state = session.State{} }

func (f *fakeSession) ClearError() { f.state.Error = "" }

type fakeAPI struct {
	posts    map[int64]*client.Post
	created  []client.PostInput
	updated  []client.PostInput
	deleted  []int64
	likeErr  error
	users    []client.User
	roleSets []client.Role
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{posts: map[int64]*client.Post{
		5: {ID: 5, Title: "The North Remembers", Content: "Winter is here.", Author: client.Author{ID: 1, Username: "jon"}, LikesCount: 2, CreatedAt: time.Now().Add(-2 * time.Hour)},
	}}
}

func (f *fakeAPI) ListPosts(ctx context.Context) ([]client.Post, error) {
	var out []client.Post
	for _, p := range f.posts {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeAPI) GetPost(ctx context.Context, id int64) (*client.Post, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, &client.APIError{Status: 404, Message: "Post not found"}
	}
	cp := *p
	return &cp, nil
}

func (f *fakeAPI) CreatePost(ctx context.Context, in client.PostInput) (*client.Post, error) {
	f.created = append(f.created, in)
	return &client.Post{ID: 9, Title: in.Title, Content: in.Content, ImageURL: in.ImageURL, Author: client.Author{ID: 1, Username: "jon"}}, nil
}

func (f *fakeAPI) UpdatePost(ctx context.Context, id int64, in client.PostInput) (*client.Post, error) {
	f.updated = append(f.updated, in)
	return &client.Post{ID: id, Title: in.Title, Content: in.Content, Author: client.Author{ID: 1, Username: "jon"}}, nil
}

func (f *fakeAPI) DeletePost(ctx context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) LikePost(ctx context.Context, id int64) (*client.LikeStatus, error) {
	if f.likeErr != nil {
		return nil, f.likeErr
	}
	return &client.LikeStatus{LikesCount: f.posts[id].LikesCount + 1, LikedByMe: true}, nil
}

func (f *fakeAPI) UnlikePost(ctx context.Context, id int64) (*client.LikeStatus, error) {
	if f.likeErr != nil {
		return nil, f.likeErr
	}
	return &client.LikeStatus{LikesCount: f.posts[id].LikesCount - 1}, nil
}

func (f *fakeAPI) ListUsers(ctx context.Context) ([]client.User, error) { return f.users, nil }

func (f *fakeAPI) UpdateUserRole(ctx context.Context, id int64, role client.Role) (*client.User, error) {
	f.roleSets = append(f.roleSets, role)
	return &client.User{ID: id, Username: "arya", Role: role}, nil
}

func (f *fakeAPI) DeleteUser(ctx context.Context, id int64) error { return nil }

type fakeUploader struct {
	calls []string
	err   error
}

func (f *fakeUploader) Upload(ctx context.Context, path string) (*media.Result, error) {
	f.calls = append(f.calls, path)
	if f.err != nil {
		return nil, f.err
	}
	return &media.Result{URL: "https://img.example.com/x.png", PublicID: "x"}, nil
}

type fixture struct {
	pages    *Pages
	api      *fakeAPI
	sess     *fakeSession
	uploader *fakeUploader
	out      *bytes.Buffer
}

func newFixture(st session.State, input string, interactive bool) *fixture {
	f := &fixture{
		api:      newFakeAPI(),
		sess:     &fakeSession{state: st},
		uploader: &fakeUploader{},
		out:      &bytes.Buffer{},
	}
	var p prompt.Prompter = prompt.NonInteractive{}
	if interactive {
		p = prompt.NewLines(strings.NewReader(input), nil)
	}
	f.pages = New(Deps{API: f.api, Session: f.sess, Uploader: f.uploader, Prompter: p, Out: f.out, Interactive: interactive})
	return f
}

func authed(u *client.User) session.State {
	return session.State{User: u, Token: "tok", IsAuthenticated: true}
}

func TestHome(t *testing.T) {
	f := newFixture(session.State{}, "", false)
	require.NoError(t, f.pages.Home(context.Background()))
	assert.Contains(t, f.out.String(), "Browsing as guest")
	assert.Contains(t, f.out.String(), "The North Remembers")
	assert.Contains(t, f.out.String(), "2 likes")

	f = newFixture(authed(sansa), "", false)
	require.NoError(t, f.pages.Home(context.Background()))
	assert.Contains(t, f.out.String(), "Signed in as sansa (admin)")
}

func TestShow_CheckingShowsPlaceholder(t *testing.T) {
	f := newFixture(session.State{IsLoading: true}, "", false)
	err := f.pages.Show(context.Background(), router.View{Route: router.Route{Name: router.PageProfile}, Guard: router.Checking})
	require.NoError(t, err)
	assert.Equal(t, session.LoadingPlaceholder+"\n", f.out.String())
}

func TestShow_Post(t *testing.T) {
	f := newFixture(session.State{}, "", false)
	view := router.View{Route: router.Route{Name: router.PagePost}, Params: router.Params{"id": "5"}}
	require.NoError(t, f.pages.Show(context.Background(), view))
	assert.Contains(t, f.out.String(), "by jon")

	view.Params["id"] = "abc"
	assert.Error(t, f.pages.Show(context.Background(), view))
}

func TestLogin_PromptsForMissingFields(t *testing.T) {
	f := newFixture(session.State{}, "secret\n", true)

	err := f.pages.Login(context.Background(), forms.LoginForm{Email: "jon@example.com"})
	require.NoError(t, err)
	require.Len(t, f.sess.logins, 1)
	assert.Equal(t, client.Credentials{Email: "jon@example.com", Password: "secret"}, f.sess.logins[0])
	assert.Contains(t, f.out.String(), "✓ Logged in as jon")
}

func TestLogin_ValidationStopsBeforeRequest(t *testing.T) {
	f := newFixture(session.State{}, "", false)

	err := f.pages.Login(context.Background(), forms.LoginForm{Email: "nope", Password: "x"})
	var fe forms.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "email")
	assert.Empty(t, f.sess.logins)
}

func TestLogin_NonInteractiveMissingPassword(t *testing.T) {
	f := newFixture(session.State{}, "", false)
	err := f.pages.Login(context.Background(), forms.LoginForm{Email: "jon@example.com"})
	assert.ErrorIs(t, err, prompt.ErrNonInteractive)
}

func TestLogin_FailureReturnsSessionError(t *testing.T) {
	f := newFixture(session.State{}, "", false)
	f.sess.loginErr = errors.New("Invalid credentials")

	err := f.pages.Login(context.Background(), forms.LoginForm{Email: "jon@example.com", Password: "x"})
	assert.EqualError(t, err, "Invalid credentials")
	assert.Equal(t, "Invalid credentials", f.sess.state.Error)
}

func TestCreatePost_ValidatesBeforeUpload(t *testing.T) {
	f := newFixture(authed(jon), "", false)

	_, err := f.pages.CreatePost(context.Background(), forms.PostForm{Content: "no title"}, "/tmp/raven.png")
	var fe forms.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Empty(t, f.uploader.calls)
	assert.Empty(t, f.api.created)
}

func TestCreatePost_UploadsImage(t *testing.T) {
	f := newFixture(authed(jon), "", false)

	post, err := f.pages.CreatePost(context.Background(), forms.PostForm{Title: "Ravens", Content: "Dark wings."}, "/tmp/raven.png")
	require.NoError(t, err)
	assert.Equal(t, int64(9), post.ID)
	assert.Equal(t, []string{"/tmp/raven.png"}, f.uploader.calls)
	require.Len(t, f.api.created, 1)
	assert.Equal(t, "https://img.example.com/x.png", f.api.created[0].ImageURL)
}

func TestCreatePost_UploadFailureSkipsCreate(t *testing.T) {
	f := newFixture(authed(jon), "", false)
	f.uploader.err = &media.TooLargeError{Size: 11 << 20, Limit: media.MaxSize}

	_, err := f.pages.CreatePost(context.Background(), forms.PostForm{Title: "Ravens", Content: "Dark wings."}, "/tmp/huge.jpg")
	var tooLarge *media.TooLargeError
	assert.ErrorAs(t, err, &tooLarge)
	assert.Empty(t, f.api.created)

	var draft *DraftError
	require.ErrorAs(t, err, &draft)
	assert.Equal(t, "Ravens", draft.Draft.Form.Title)
	assert.Equal(t, "Dark wings.", draft.Draft.Form.Content)
	assert.Equal(t, "/tmp/huge.jpg", draft.Draft.ImagePath)
}

func TestComposePost_RetryOffersDraft(t *testing.T) {
	input := "Ravens\nDark wings.\n/tmp/huge.jpg\nCastle Black\nnorth\n" +
		"\n\n-\n\n64.1,-21.9\n"
	f := newFixture(authed(jon), input, true)

	_, err := f.pages.ComposePost(context.Background(), nil)
	var draft *DraftError
	require.ErrorAs(t, err, &draft)
	assert.Equal(t, "Ravens", draft.Draft.Form.Title)
	assert.Equal(t, "Castle Black", draft.Draft.Form.LocationName)
	assert.Empty(t, f.api.created)

	post, err := f.pages.ComposePost(context.Background(), &draft.Draft)
	require.NoError(t, err)
	assert.Equal(t, "Ravens", post.Title)
	require.Len(t, f.api.created, 1)
	assert.Equal(t, "Dark wings.", f.api.created[0].Content)
	assert.Equal(t, "Castle Black", f.api.created[0].LocationName)
	assert.Empty(t, f.uploader.calls, "cleared image is not uploaded")
}

func TestCreatePost_InteractiveForm(t *testing.T) {
	input := "Ravens\nDark wings.\n\nCastle Black\n64.1,-21.9\n"
	f := newFixture(authed(jon), input, true)

	_, err := f.pages.CreatePost(context.Background(), forms.PostForm{}, "")
	require.NoError(t, err)
	require.Len(t, f.api.created, 1)
	in := f.api.created[0]
	assert.Equal(t, "Castle Black", in.LocationName)
	require.NotNil(t, in.Latitude)
	assert.InDelta(t, 64.1, *in.Latitude, 0.0001)
	assert.Empty(t, f.uploader.calls)
}

func TestEditPost(t *testing.T) {
	title := "The North Remembers, again"

	f := newFixture(authed(jon), "", false)
	_, err := f.pages.EditPost(context.Background(), 5, &PostEdit{Title: &title})
	require.NoError(t, err)
	require.Len(t, f.api.updated, 1)
	assert.Equal(t, title, f.api.updated[0].Title)
	assert.Equal(t, "Winter is here.", f.api.updated[0].Content)

	_, err = f.pages.EditPost(context.Background(), 5, nil)
	assert.ErrorIs(t, err, ErrNothingToSave)

	other := &client.User{ID: 4, Username: "arya", Role: client.RoleUser}
	f = newFixture(authed(other), "", false)
	_, err = f.pages.EditPost(context.Background(), 5, &PostEdit{Title: &title})
	assert.ErrorIs(t, err, ErrNotAuthor)

	f = newFixture(authed(sansa), "", false)
	_, err = f.pages.EditPost(context.Background(), 5, &PostEdit{Title: &title})
	assert.NoError(t, err, "admins may edit any post")
}

func TestDeletePost_Confirmation(t *testing.T) {
	f := newFixture(authed(jon), "n\n", true)
	err := f.pages.DeletePost(context.Background(), 5, false)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Empty(t, f.api.deleted)

	require.NoError(t, f.pages.DeletePost(context.Background(), 5, true))
	assert.Equal(t, []int64{5}, f.api.deleted)
}

func TestToggleLike_FailureIsRolledBack(t *testing.T) {
	f := newFixture(authed(jon), "", false)
	f.api.likeErr = &client.APIError{Status: 500, Message: "database is locked"}

	_, err := f.pages.ToggleLike(context.Background(), 5)
	require.Error(t, err)
	assert.Equal(t, "♥  3 likes, including you\n♥  2 likes\n", f.out.String())
}

func TestToggleLike_Success(t *testing.T) {
	f := newFixture(authed(jon), "", false)

	post, err := f.pages.ToggleLike(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, post.LikedByMe)
	assert.Equal(t, 3, post.LikesCount)
}

func TestChangeRole(t *testing.T) {
	f := newFixture(authed(sansa), "2\n", true)
	user, err := f.pages.ChangeRole(context.Background(), 4, "")
	require.NoError(t, err)
	assert.Equal(t, client.RoleAdmin, user.Role)

	_, err = f.pages.ChangeRole(context.Background(), 4, "king")
	var fe forms.FieldErrors
	assert.ErrorAs(t, err, &fe)
	assert.Len(t, f.api.roleSets, 1)
}

func TestDeleteUser_RefusesSelf(t *testing.T) {
	f := newFixture(authed(sansa), "", false)
	assert.Error(t, f.pages.DeleteUser(context.Background(), sansa.ID, true))
	assert.NoError(t, f.pages.DeleteUser(context.Background(), 4, true))
}

func TestProfile(t *testing.T) {
	f := newFixture(authed(jon), "", false)
	require.NoError(t, f.pages.Profile())
	assert.Contains(t, f.out.String(), "jon@example.com")

	f = newFixture(session.State{}, "", false)
	assert.Error(t, f.pages.Profile())
}
