package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/jgivc/fileviewer/internal/common"
	"github.com/jgivc/fileviewer/internal/config"
	"github.com/spf13/afero"
)

const (
	defaultFileName = "download"
	partSuffix      = ".part"
)

type fetcher struct {
	fs  afero.Fs
	cl  *http.Client
	cfg *config.FetchConfig
	log *slog.Logger
}

func NewFetcher(cfg *config.FetchConfig, log *slog.Logger) *fetcher {
	return NewFetcherWithFS(afero.NewOsFs(), &http.Client{Timeout: cfg.Timeout}, cfg, log)
}

func NewFetcherWithFS(fs afero.Fs, cl *http.Client, cfg *config.FetchConfig, log *slog.Logger) *fetcher {
	return &fetcher{
		fs:  fs,
		cl:  cl,
		cfg: cfg,
		log: log.With(slog.String("item", "Fetcher")),
	}
}

// Fetch downloads rawURL into dst. The body goes to a part file which is
// renamed over dst only after the whole body was written, so dst either
// holds the complete response or is not created at all.
func (f *fetcher) Fetch(ctx context.Context, rawURL, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidURL, err)
	}

	resp, err := f.cl.Do(req)
	if err != nil {
		return fmt.Errorf("cannot get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s", common.ErrFetchStatus, resp.Status)
	}

	part := dst + partSuffix
	if err := f.write(part, resp.Body); err != nil {
		if rmErr := f.fs.Remove(part); rmErr != nil && !errors.Is(rmErr, afero.ErrFileNotFound) {
			f.log.Error("Cannot remove part file", slog.String("path", part), slog.Any("error", rmErr))
		}

		return err
	}

	if err := f.fs.Rename(part, dst); err != nil {
		return fmt.Errorf("cannot move downloaded file: %w", err)
	}

	f.log.Debug("Fetched", slog.String("url", rawURL), slog.String("path", dst))

	return nil
}

func (f *fetcher) write(fileName string, body io.Reader) error {
	file, err := f.fs.Create(fileName)
	if err != nil {
		return fmt.Errorf("cannot create file: %w", err)
	}
	defer file.Close()

	if f.cfg.MaxSize > 0 {
		// One extra byte tells an exact-size body from an oversized one.
		body = io.LimitReader(body, f.cfg.MaxSize+1)
	}

	n, err := io.Copy(file, body)
	if err != nil {
		return fmt.Errorf("cannot write response body: %w", err)
	}

	if f.cfg.MaxSize > 0 && n > f.cfg.MaxSize {
		return fmt.Errorf("%w: limit %d bytes", common.ErrFetchTooLarge, f.cfg.MaxSize)
	}

	return nil
}

// FileName derives a local file name from the last segment of the url path.
func FileName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return defaultFileName
	}

	// u.Path is already percent-decoded
	name := path.Base(u.Path)
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." || name == "" {
		return defaultFileName
	}

	return name
}

// Validate checks that rawURL is an absolute http(s) url.
func Validate(rawURL string) error {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return common.ErrEmptyURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", common.ErrInvalidURL, u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("%w: host is empty", common.ErrInvalidURL)
	}

	return nil
}
