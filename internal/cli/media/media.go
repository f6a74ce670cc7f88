// Package media validates local images and uploads them to the image host.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// MaxSize is the largest image the uploader accepts.
const MaxSize int64 = 10 * 1024 * 1024

const (
	defaultEndpoint = "https://api.cloudinary.com/v1_1/%s/image/upload"
	uploadTimeout   = 2 * time.Minute
)

// AllowedTypes are the accepted image MIME types.
var AllowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// ErrNotConfigured is returned by Upload when the image host credentials are missing.
var ErrNotConfigured = errors.New("image upload is not configured: set image_host.cloud_name and image_host.upload_preset")

// TooLargeError is returned for files over MaxSize.
type TooLargeError struct {
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("image is %s, the limit is %s", humanize.IBytes(uint64(e.Size)), humanize.IBytes(uint64(e.Limit)))
}

// UnsupportedTypeError is returned when the detected type is not an allowed image.
type UnsupportedTypeError struct {
	MIME string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type %s (allowed: %s)", e.MIME, strings.Join(AllowedTypes, ", "))
}

// Config holds the image host settings.
type Config struct {
	CloudName    string `yaml:"cloud_name"`
	UploadPreset string `yaml:"upload_preset"`
	Folder       string `yaml:"folder"`
	Endpoint     string `yaml:"endpoint"`
}

// Configured reports whether uploads can be attempted.
func (c Config) Configured() bool {
	return c.UploadPreset != "" && (c.CloudName != "" || c.Endpoint != "")
}

func (c Config) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return fmt.Sprintf(defaultEndpoint, c.CloudName)
}

// Result is what the image host returns for a stored image.
type Result struct {
	URL      string `json:"secure_url"`
	PublicID string `json:"public_id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Bytes    int64  `json:"bytes"`
}

type hostError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Image is a local file that passed validation.
type Image struct {
	Path string
	MIME string
	Size int64
}

// Uploader sends images to the configured host.
type Uploader struct {
	cfg    Config
	rest   *resty.Client
	logger zerolog.Logger
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(u *Uploader) {
		u.rest = resty.NewWithClient(httpClient).SetTimeout(uploadTimeout)
	}
}

// WithLogger sets the uploader's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(u *Uploader) {
		u.logger = logger
	}
}

// NewUploader creates an uploader. A zero Config is valid; Upload then
// fails with ErrNotConfigured after local validation.
func NewUploader(cfg Config, opts ...Option) *Uploader {
	u := &Uploader{
		cfg:    cfg,
		rest:   resty.New().SetTimeout(uploadTimeout),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Configured reports whether the host credentials are present.
func (u *Uploader) Configured() bool {
	return u.cfg.Configured()
}

// Inspect validates a local file without uploading it. The size comes from
// file metadata so oversized files are never read.
func Inspect(path string) (*Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxSize {
		return nil, &TooLargeError{Size: info.Size(), Limit: MaxSize}
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to detect type of %s: %w", path, err)
	}
	if !mimetype.EqualsAny(mtype.String(), AllowedTypes...) {
		return nil, &UnsupportedTypeError{MIME: mtype.String()}
	}

	return &Image{Path: path, MIME: mtype.String(), Size: info.Size()}, nil
}

// Upload validates path and sends it to the image host.
func (u *Uploader) Upload(ctx context.Context, path string) (*Result, error) {
	img, err := Inspect(path)
	if err != nil {
		return nil, err
	}
	if !u.cfg.Configured() {
		return nil, ErrNotConfigured
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return u.send(ctx, img, f)
}

func (u *Uploader) send(ctx context.Context, img *Image, r io.Reader) (*Result, error) {
	fields := map[string]string{
		"upload_preset": u.cfg.UploadPreset,
		"public_id":     strings.ToLower(ulid.Make().String()),
	}
	if u.cfg.Folder != "" {
		fields["folder"] = u.cfg.Folder
	}

	var result Result
	var herr hostError
	start := time.Now()

	resp, err := u.rest.R().
		SetContext(ctx).
		SetFileReader("file", filepath.Base(img.Path), r).
		SetFormData(fields).
		SetResult(&result).
		SetError(&herr).
		Post(u.cfg.endpoint())
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	if resp.IsError() {
		msg := herr.Error.Message
		if msg == "" {
			msg = resp.Status()
		}
		return nil, fmt.Errorf("image host rejected upload (status %d): %s", resp.StatusCode(), msg)
	}
	if result.URL == "" {
		return nil, errors.New("image host response has no secure_url")
	}

	u.logger.Debug().
		Str("public_id", result.PublicID).
		Str("size", humanize.IBytes(uint64(img.Size))).
		Dur("duration", time.Since(start)).
		Msg("Image uploaded")

	return &result, nil
}
