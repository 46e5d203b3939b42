package source

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/partnermap/internal/config"
)

func newTestFetcher(t *testing.T, siteRoot string, opts ...Option) *Fetcher {
	t.Helper()
	f, err := NewFetcher(&config.Config{SiteRoot: siteRoot}, zerolog.Nop(), opts...)
	require.NoError(t, err)
	return f
}

func TestFetch_File(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "records.json")
	require.NoError(t, os.WriteFile(p, []byte(`[]`), 0o600))

	obj, err := newTestFetcher(t, "").Fetch(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), obj.Body)
	assert.Equal(t, ".json", obj.Ext())

	obj, err = newTestFetcher(t, "").Fetch(context.Background(), "file://"+p)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), obj.Body)
}

func TestFetch_MissingFile(t *testing.T) {
	_, err := newTestFetcher(t, "").Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestFetch_RelativeToSiteRoot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/dashboard/data/partners.csv" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		_, _ = io.WriteString(w, "institution,country\n")
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv.URL+"/dashboard")
	resolved, err := f.Resolve("data/partners.csv")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/dashboard/data/partners.csv", resolved)

	obj, err := f.Fetch(context.Background(), "data/partners.csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", obj.MediaType())
	assert.Equal(t, ".csv", obj.Ext())
	assert.Equal(t, "institution,country\n", string(obj.Body))
}

func TestFetch_HTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := newTestFetcher(t, "").Fetch(context.Background(), srv.URL+"/missing.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
}

func TestFetch_RejectsEmptyAndUnknownScheme(t *testing.T) {
	f := newTestFetcher(t, "")

	_, err := f.Fetch(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyReference)

	_, err = f.Fetch(context.Background(), "ftp://example.com/data.json")
	assert.Error(t, err)
}

// s3RoundTripper serves GetObject for a single in-memory object.
type s3RoundTripper struct {
	bucket string
	key    string
	body   []byte
}

func (m *s3RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	want := "/" + m.bucket + "/" + m.key
	if req.Method != http.MethodGet || req.URL.Path != want {
		return &http.Response{StatusCode: http.StatusNotFound, Body: io.NopCloser(strings.NewReader("")), Header: http.Header{}}, nil
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(m.body)),
		Header: http.Header{
			"Content-Type":   {"application/json"},
			"Content-Length": {"2"},
		},
	}, nil
}

func newMockS3(t *testing.T, rt http.RoundTripper) *s3.Client {
	t.Helper()
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	require.NoError(t, err)
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: rt}
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String("https://mock.s3.local")
	})
}

func TestFetch_S3(t *testing.T) {
	rt := &s3RoundTripper{bucket: "intl-office", key: "exports/partners.json", body: []byte("[]")}
	f := newTestFetcher(t, "", WithS3Client(newMockS3(t, rt)))

	obj, err := f.Fetch(context.Background(), "s3://intl-office/exports/partners.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), obj.Body)
	assert.Equal(t, "application/json", obj.MediaType())
	assert.Equal(t, ".json", obj.Ext())

	_, err = f.Fetch(context.Background(), "s3://intl-office/missing.json")
	assert.Error(t, err)

	_, err = f.Fetch(context.Background(), "s3://intl-office")
	assert.Error(t, err)
}
