// Package testhelpers runs the real API server in-process for CLI tests and
// builds apps wired to it.
package testhelpers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/gameofbones/gameofbones/internal/cli/app"
	"github.com/gameofbones/gameofbones/internal/cli/auth"
	"github.com/gameofbones/gameofbones/internal/cli/prompt"
	"github.com/gameofbones/gameofbones/internal/cli/userconfig"
	"github.com/gameofbones/gameofbones/internal/config"
	"github.com/gameofbones/gameofbones/internal/server"
)

// Password is the password every seeded account uses
const Password = "winteriscoming"

// Backend is an API server on an in-memory database
type Backend struct {
	HTTP *httptest.Server
	// APIURL is the base URL clients use, including the /api prefix
	APIURL string
}

// Account is a seeded user
type Account struct {
	ID       int64
	Username string
	Email    string
	Role     string
	Token    string
}

// StartBackend starts a fresh server for the test
func StartBackend(t *testing.T) *Backend {
	t.Helper()

	cfg := &config.Config{
		Database: config.DatabaseConfig{URL: ":memory:"},
		HTTP:     config.HTTPConfig{CORSOrigins: []string{"*"}},
		Auth:     config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour},
	}
	srv, err := server.New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err, "Failed to create server")

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Close()
	})

	return &Backend{HTTP: ts, APIURL: ts.URL + "/api"}
}

// APICall performs a JSON request and returns the envelope's data. It fails
// the test on a non-2xx status.
func (b *Backend) APICall(t *testing.T, method, path, token string, body interface{}) json.RawMessage {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err, "Failed to marshal request body")
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, b.APIURL+path, reqBody)
	require.NoError(t, err, "Failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := b.HTTP.Client().Do(req)
	require.NoError(t, err, "Request failed: %s %s", method, path)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "Failed to read response body")

	require.True(t, resp.StatusCode >= 200 && resp.StatusCode < 300,
		"API call failed: %s %s\nStatus: %d\nBody: %s",
		method, path, resp.StatusCode, string(respBody))

	var result struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(respBody, &result), "Failed to unmarshal response: %s", string(respBody))

	return result.Data
}

// Register creates an account. The first account of a backend is the admin.
func (b *Backend) Register(t *testing.T, username string) Account {
	t.Helper()

	email := strings.ToLower(username) + "@westeros.com"
	data := b.APICall(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": Password,
	})

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID   int64  `json:"id"`
			Role string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(data, &resp))

	return Account{
		ID:       resp.User.ID,
		Username: username,
		Email:    email,
		Role:     resp.User.Role,
		Token:    resp.Token,
	}
}

// CreatePost publishes a post as acct and returns its ID
func (b *Backend) CreatePost(t *testing.T, acct Account, title, content string) int64 {
	t.Helper()

	data := b.APICall(t, http.MethodPost, "/posts", acct.Token, map[string]string{
		"title":   title,
		"content": content,
	})

	var post struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(data, &post))
	return post.ID
}

// Like likes a post as acct
func (b *Backend) Like(t *testing.T, acct Account, postID int64) {
	t.Helper()
	b.APICall(t, http.MethodPost, fmt.Sprintf("/posts/%d/like", postID), acct.Token, nil)
}

// Client is a CLI process talking to a Backend
type Client struct {
	Storage auth.Storage
	Out     *bytes.Buffer
	Err     *bytes.Buffer
}

// NewClient creates file storage in a temp dir, so sessions survive across
// apps built from the same Client.
func (b *Backend) NewClient(t *testing.T) *Client {
	t.Helper()
	return &Client{
		Storage: auth.NewFileStorage(filepath.Join(t.TempDir(), "session.json")),
		Out:     &bytes.Buffer{},
		Err:     &bytes.Buffer{},
	}
}

// SignIn stores acct's session the way a successful login does
func (c *Client) SignIn(t *testing.T, acct Account) {
	t.Helper()

	user, err := json.Marshal(map[string]any{
		"id":       acct.ID,
		"username": acct.Username,
		"email":    acct.Email,
		"role":     acct.Role,
	})
	require.NoError(t, err)
	require.NoError(t, c.Storage.Set(auth.TokenKey, acct.Token))
	require.NoError(t, c.Storage.Set(auth.UserKey, string(user)))
}

// Options returns app options for this client. With input, the app is
// interactive and reads answers line by line from it.
func (c *Client) Options(b *Backend, input *string) []app.Option {
	var in io.Reader = strings.NewReader("")
	opts := []app.Option{
		app.WithStorage(c.Storage),
		app.WithHTTPClient(b.HTTP.Client()),
		app.WithLogger(zerolog.Nop()),
	}
	if input != nil {
		in = strings.NewReader(*input)
		opts = append(opts, app.WithPrompter(prompt.NewLines(in, io.Discard)))
	}
	return append(opts, app.WithIO(in, c.Out, c.Err))
}

// NewApp builds and starts an app against b
func (c *Client) NewApp(t *testing.T, b *Backend, input *string) *app.App {
	t.Helper()

	cfg := userconfig.Default()
	cfg.APIURL = b.APIURL
	a, err := app.New(cfg, c.Options(b, input)...)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

// Input is a helper for building scripted prompt answers
func Input(lines ...string) *string {
	s := strings.Join(lines, "\n") + "\n"
	return &s
}
