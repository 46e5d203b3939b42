// Package source fetches the static files the dashboard is built from: the
// partnership data file and the country boundary geometry. References may be
// local paths, http(s) URLs, paths relative to the configured site root, or
// s3://bucket/key objects.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/partnermap/internal/config"
)

// maxObjectBytes bounds how much of a remote object is read into memory.
const maxObjectBytes = 64 << 20

// ErrEmptyReference is returned when no reference is configured.
var ErrEmptyReference = errors.New("source: empty reference")

// Object is a fetched file.
type Object struct {
	// Name is the resolved reference, used for format detection.
	Name        string
	ContentType string
	Body        []byte
}

// Ext returns the lower-cased extension of the object's name without query
// string or fragment.
func (o *Object) Ext() string {
	name := o.Name
	if u, err := url.Parse(name); err == nil && u.Scheme != "" {
		name = u.Path
	}
	return strings.ToLower(path.Ext(name))
}

// MediaType returns the content type without parameters.
func (o *Object) MediaType() string {
	mt, _, err := mime.ParseMediaType(o.ContentType)
	if err != nil {
		return ""
	}
	return mt
}

// Fetcher resolves references and reads them fully.
type Fetcher struct {
	client   *http.Client
	siteRoot *url.URL
	s3cfg    S3Config
	log      zerolog.Logger

	s3Once sync.Once
	s3     S3GetObjectAPI
	s3Err  error
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the HTTP client used for http(s) references.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithS3Client sets the S3 client instead of building one from configuration.
func WithS3Client(api S3GetObjectAPI) Option {
	return func(f *Fetcher) {
		f.s3Once.Do(func() { f.s3 = api })
	}
}

// NewFetcher creates a Fetcher from the application configuration.
func NewFetcher(cfg *config.Config, log zerolog.Logger, opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		client: &http.Client{Timeout: cfg.FetchTimeout},
		s3cfg: S3Config{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		},
		log: log.With().Str("component", "source_fetcher").Logger(),
	}
	if cfg.FetchTimeout <= 0 {
		f.client.Timeout = 30 * time.Second
	}

	if cfg.SiteRoot != "" {
		root, err := url.Parse(cfg.SiteRoot)
		if err != nil {
			return nil, fmt.Errorf("parse site root: %w", err)
		}
		if !strings.HasSuffix(root.Path, "/") {
			root.Path += "/"
		}
		f.siteRoot = root
	}

	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Resolve returns the absolute form of ref: relative references are joined
// to the site root when one is configured.
func (f *Fetcher) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrEmptyReference
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse reference %q: %w", ref, err)
	}
	if u.Scheme != "" || f.siteRoot == nil || filepath.IsAbs(ref) {
		return ref, nil
	}
	return f.siteRoot.ResolveReference(u).String(), nil
}

// Fetch reads the object named by ref.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (*Object, error) {
	resolved, err := f.Resolve(ref)
	if err != nil {
		return nil, err
	}

	u, _ := url.Parse(resolved)
	var obj *Object
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		obj, err = f.fetchHTTP(ctx, resolved)
	case "s3":
		obj, err = f.fetchS3(ctx, u)
	case "file":
		obj, err = f.fetchFile(u.Path)
	case "":
		obj, err = f.fetchFile(resolved)
	default:
		return nil, fmt.Errorf("source: unsupported scheme %q", u.Scheme)
	}
	if err != nil {
		return nil, err
	}

	f.log.Debug().
		Str("ref", resolved).
		Int("bytes", len(obj.Body)).
		Str("content_type", obj.ContentType).
		Msg("Fetched source")
	return obj, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, ref string) (*Object, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: unexpected status %d", ref, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxObjectBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}
	return &Object{Name: ref, ContentType: resp.Header.Get("Content-Type"), Body: body}, nil
}

func (f *Fetcher) fetchFile(p string) (*Object, error) {
	body, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return &Object{Name: p, ContentType: mime.TypeByExtension(filepath.Ext(p)), Body: body}, nil
}
