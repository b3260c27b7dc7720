// Package thumbor delegates art-direction crops to a Thumbor server.
package thumbor

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/roboco-io/picturize/internal/ir"
)

// DefaultURL is used when no server URL is configured.
const DefaultURL = "http://localhost:8888"

const defaultTimeout = 60 * time.Second

// Adapter requests smart crops from Thumbor. Image paths are sent relative to
// the working directory, which must match the server's file loader root.
type Adapter struct {
	client *resty.Client
	root   string
}

// Options configures the adapter.
type Options struct {
	URL     string
	Root    string // defaults to the working directory
	Timeout time.Duration
}

// New creates an adapter.
func New(opts Options) (*Adapter, error) {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	root, err := resolveRoot(opts.Root)
	if err != nil {
		return nil, err
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(opts.URL, "/")).
		SetTimeout(opts.Timeout)

	return &Adapter{client: client, root: root}, nil
}

// Setup checks that the server answers its health check.
func (a *Adapter) Setup(ctx context.Context) error {
	resp, err := a.client.R().SetContext(ctx).Get("/healthcheck")
	if err != nil {
		return fmt.Errorf("thumbor is not reachable: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("thumbor health check failed: %s", resp.Status())
	}
	return nil
}

// Transform implements the crop of d via /unsafe/{w}x{h}/smart/{path}.
func (a *Adapter) Transform(ctx context.Context, sourcePath string, d ir.Descriptor) ([]byte, error) {
	rel, err := filepath.Rel(a.root, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("image %s is outside of %s: %w", sourcePath, a.root, err)
	}

	resp, err := a.client.R().SetContext(ctx).Get(RequestPath(filepath.ToSlash(rel), d))
	if err != nil {
		return nil, fmt.Errorf("thumbor request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("thumbor request failed: %s", resp.Status())
	}
	return resp.Body(), nil
}

// RequestPath builds the Thumbor URL path for d. A height of 0 keeps the
// aspect ratio.
func RequestPath(imagePath string, d ir.Descriptor) string {
	width := d.Width()
	height := 0
	if ratio, ok := ir.ParseRatio(d.Ratio); ok && !d.IsCustom() {
		height = int(math.Ceil(float64(width) * ratio))
	}
	return fmt.Sprintf("/unsafe/%dx%d/smart/%s", width, height, strings.TrimPrefix(imagePath, "/"))
}

func resolveRoot(root string) (string, error) {
	if root == "" {
		return filepath.Abs(".")
	}
	return filepath.Abs(root)
}
