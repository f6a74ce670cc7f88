// Package app wires the CLI's long-lived pieces: config, logging, durable
// storage, the REST client, the session store and its bootstrap.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"github.com/gameofbones/gameofbones/internal/cli/auth"
	"github.com/gameofbones/gameofbones/internal/cli/client"
	"github.com/gameofbones/gameofbones/internal/cli/media"
	"github.com/gameofbones/gameofbones/internal/cli/prompt"
	"github.com/gameofbones/gameofbones/internal/cli/router"
	"github.com/gameofbones/gameofbones/internal/cli/session"
	"github.com/gameofbones/gameofbones/internal/cli/userconfig"
	"github.com/gameofbones/gameofbones/internal/logger"
)

// App is the composition root. Exactly one exists per process and every
// command reaches it through the command context.
type App struct {
	Config    *userconfig.Config
	Logger    zerolog.Logger
	Storage   auth.Storage
	Client    *client.Client
	Session   *session.Store
	Bootstrap *session.Bootstrap
	Routes    *router.Table
	Uploader  *media.Uploader
	Prompter  prompt.Prompter

	In          io.Reader
	Out         io.Writer
	Err         io.Writer
	Interactive bool
}

type options struct {
	storage     auth.Storage
	httpClient  *http.Client
	prompter    prompt.Prompter
	in          io.Reader
	out, err    io.Writer
	interactive *bool
	logger      *zerolog.Logger
}

// Option configures New.
type Option func(*options)

// WithStorage replaces the configured durable storage.
func WithStorage(s auth.Storage) Option {
	return func(o *options) { o.storage = s }
}

// WithHTTPClient sets the HTTP client used for the API and the image host.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithPrompter sets the prompter and marks the app interactive.
func WithPrompter(p prompt.Prompter) Option {
	return func(o *options) {
		o.prompter = p
		interactive := true
		o.interactive = &interactive
	}
}

// WithIO sets the standard streams.
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(o *options) {
		o.in = in
		o.out = out
		o.err = errOut
	}
}

// WithLogger overrides the logger built from config.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = &l }
}

// New builds the app from cfg. It does not contact the backend; call Start.
func New(cfg *userconfig.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{in: os.Stdin, out: os.Stdout, err: os.Stderr}
	for _, opt := range opts {
		opt(o)
	}

	// stdout is program output
	log := logger.New(o.err, cfg.LogLevel, cfg.LogFormat)
	if o.logger != nil {
		log = *o.logger
	}

	apiURL := cfg.NormalizedAPIURL()

	storage := o.storage
	if storage == nil {
		var err error
		storage, err = newStorage(cfg.Storage, apiURL)
		if err != nil {
			return nil, err
		}
	}

	clientOpts := []client.Option{client.WithLogger(log)}
	uploaderOpts := []media.Option{media.WithLogger(log)}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, client.WithHTTPClient(o.httpClient))
		uploaderOpts = append(uploaderOpts, media.WithHTTPClient(o.httpClient))
	}
	apiClient := client.New(apiURL, storage, clientOpts...)

	store := session.NewStore(apiClient, storage,
		session.WithVerification(cfg.VerifySession),
		session.WithLogger(log),
	)

	interactive := prompt.IsTerminal()
	if o.interactive != nil {
		interactive = *o.interactive
	}
	prompter := o.prompter
	if prompter == nil {
		if interactive {
			prompter = prompt.NewTerminal(o.err)
		} else {
			prompter = prompt.NonInteractive{}
		}
	}

	return &App{
		Config:      cfg,
		Logger:      log,
		Storage:     storage,
		Client:      apiClient,
		Session:     store,
		Bootstrap:   session.NewBootstrap(store),
		Routes:      router.DefaultTable(),
		Uploader:    media.NewUploader(cfg.ImageHost, uploaderOpts...),
		Prompter:    prompter,
		In:          o.in,
		Out:         o.out,
		Err:         o.err,
		Interactive: interactive,
	}, nil
}

func newStorage(kind, apiURL string) (auth.Storage, error) {
	switch kind {
	case userconfig.StorageFile:
		path, err := auth.DefaultFilePath(apiURL)
		if err != nil {
			return nil, err
		}
		return auth.NewFileStorage(path), nil
	case userconfig.StorageKeyring, "":
		return auth.NewKeyringStorage(apiURL), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}

// Start runs the one-time session check and waits for it.
func (a *App) Start(ctx context.Context) {
	a.Bootstrap.Run(ctx)
}

// StartAsync runs the session check in the background. Use Bootstrap.Done
// or Bootstrap.Gate to wait for it.
func (a *App) StartAsync(ctx context.Context) {
	go a.Bootstrap.Run(ctx)
}

// NewNavigator creates a navigator over the app's routes and session.
func (a *App) NewNavigator(listener func(router.View)) *router.Navigator {
	return router.NewNavigator(a.Routes, a.Session, listener)
}

// Close waits for background work such as the best-effort logout request.
func (a *App) Close() {
	a.Session.Wait()
}

type ctxKey struct{}

// ErrNoApp is returned by FromContext when the command was not set up by the root.
var ErrNoApp = errors.New("application not initialized")

// NewContext returns a context carrying a.
func NewContext(ctx context.Context, a *App) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext returns the app stored by NewContext.
func FromContext(ctx context.Context) (*App, error) {
	a, ok := ctx.Value(ctxKey{}).(*App)
	if !ok || a == nil {
		return nil, ErrNoApp
	}
	return a, nil
}
