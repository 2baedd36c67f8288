package fetcher

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jgivc/fileviewer/internal/common"
	"github.com/jgivc/fileviewer/internal/config"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T, cfg *config.FetchConfig) (*fetcher, afero.Fs) {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/work", 0o755))
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	return NewFetcherWithFS(fs, http.DefaultClient, cfg, log), fs
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.txt":
			w.Write([]byte("hello"))
		case "/big.bin":
			w.Write(make([]byte, 64))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	testCases := []struct {
		name        string
		path        string
		maxSize     int64
		expectError error
		content     string
	}{
		{
			name:    "Success",
			path:    "/ok.txt",
			content: "hello",
		},
		{
			name:    "Exact size limit",
			path:    "/ok.txt",
			maxSize: 5,
			content: "hello",
		},
		{
			name:        "Not found",
			path:        "/missing.zip",
			expectError: common.ErrFetchStatus,
		},
		{
			name:        "Too large",
			path:        "/big.bin",
			maxSize:     16,
			expectError: common.ErrFetchTooLarge,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, fs := newTestFetcher(t, &config.FetchConfig{MaxSize: tc.maxSize})
			dst := "/work/file"

			err := f.Fetch(context.Background(), srv.URL+tc.path, dst)
			if tc.expectError != nil {
				require.ErrorIs(t, err, tc.expectError)

				exists, err := afero.Exists(fs, dst)
				require.NoError(t, err)
				require.False(t, exists)

				exists, err = afero.Exists(fs, dst+partSuffix)
				require.NoError(t, err)
				require.False(t, exists)

				return
			}

			require.NoError(t, err)
			data, err := afero.ReadFile(fs, dst)
			require.NoError(t, err)
			require.Equal(t, tc.content, string(data))
		})
	}
}

func TestFetchOverwrites(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("new"))
	}))
	defer srv.Close()

	f, fs := newTestFetcher(t, &config.FetchConfig{})
	require.NoError(t, afero.WriteFile(fs, "/work/file", []byte("old content"), 0o644))

	require.NoError(t, f.Fetch(context.Background(), srv.URL, "/work/file"))

	data, err := afero.ReadFile(fs, "/work/file")
	require.NoError(t, err)
	require.Equal(t, "new", string(data))
}

func TestFetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	f, fs := newTestFetcher(t, &config.FetchConfig{})
	require.Error(t, f.Fetch(context.Background(), addr+"/a.zip", "/work/a.zip"))

	exists, err := afero.Exists(fs, "/work/a.zip")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestFileName(t *testing.T) {
	testCases := map[string]string{
		"https://example.com/files/archive.zip":         "archive.zip",
		"https://example.com/files/my%20file.tar.gz?x=1": "my file.tar.gz",
		"https://example.com/":                          defaultFileName,
		"https://example.com":                           defaultFileName,
		"https://example.com/a/..%2F..%2Fetc%2Fpasswd":  "passwd",
	}

	for in, expected := range testCases {
		require.Equal(t, expected, FileName(in), in)
	}
}

func TestValidate(t *testing.T) {
	require.ErrorIs(t, Validate(""), common.ErrEmptyURL)
	require.ErrorIs(t, Validate("   "), common.ErrEmptyURL)
	require.ErrorIs(t, Validate("ftp://example.com/a.zip"), common.ErrInvalidURL)
	require.ErrorIs(t, Validate("file:///etc/passwd"), common.ErrInvalidURL)
	require.ErrorIs(t, Validate("http://"), common.ErrInvalidURL)
	require.NoError(t, Validate("https://example.com/a.zip"))
}
