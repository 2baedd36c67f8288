package workdir

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jgivc/fileviewer/internal/common"
	"github.com/jgivc/fileviewer/internal/util"
	"github.com/spf13/afero"
)

// AliveFunc reports whether the session owning a directory still exists.
type AliveFunc func(ctx context.Context, sid string) (bool, error)

type workDir struct {
	running atomic.Bool
	fs      afero.Fs
	root    string
	workers int
	log     *slog.Logger
}

func NewWorkDir(root string, workers int, log *slog.Logger) *workDir {
	return NewWorkDirWithFS(afero.NewOsFs(), root, workers, log)
}

func NewWorkDirWithFS(fs afero.Fs, root string, workers int, log *slog.Logger) *workDir {
	if workers < 1 {
		workers = 1
	}

	return &workDir{
		fs:      fs,
		root:    root,
		workers: workers,
		log:     log.With(slog.String("item", "WorkDir")),
	}
}

// Dir is a directory owned by one process attempt. It is removed by
// Release unless Keep was called first.
type Dir struct {
	Path string
	fs   afero.Fs
	kept bool
	log  *slog.Logger
}

func (d *Dir) Keep() {
	d.kept = true
}

func (d *Dir) Release() {
	if d.kept {
		return
	}

	if err := d.fs.RemoveAll(d.Path); err != nil {
		d.log.Error("Cannot remove dir", slog.String("path", d.Path), slog.Any("error", err))
	}
}

// Acquire creates a fresh directory below the session directory.
func (w *workDir) Acquire(sid string) (*Dir, error) {
	if !util.IsSessionID(sid) {
		return nil, fmt.Errorf("%w: session id %q", common.ErrUnsafePath, sid)
	}

	path := filepath.Join(w.sessionPath(sid), util.NewID())

	if err := w.fs.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create dir %s: %w", path, err)
	}

	return &Dir{
		Path: path,
		fs:   w.fs,
		log:  w.log,
	}, nil
}

// Remove deletes a directory previously returned by Acquire.
func (w *workDir) Remove(path string) error {
	if path == "" {
		return nil
	}

	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", common.ErrUnsafePath, path)
	}

	if err := w.fs.RemoveAll(path); err != nil {
		return fmt.Errorf("cannot remove dir %s: %w", path, err)
	}

	return nil
}

func (w *workDir) RemoveSession(sid string) error {
	if !util.IsSessionID(sid) {
		return fmt.Errorf("%w: session id %q", common.ErrUnsafePath, sid)
	}

	if err := w.fs.RemoveAll(w.sessionPath(sid)); err != nil {
		return fmt.Errorf("cannot remove session %s dir: %w", sid, err)
	}

	return nil
}

// Clear removes every session directory. The work directory itself is
// removed only when nothing else is left in it.
func (w *workDir) Clear() error {
	sids, err := w.sessions()
	if err != nil {
		return err
	}

	for _, sid := range sids {
		if err := w.RemoveSession(sid); err != nil {
			return err
		}
	}

	left, err := afero.ReadDir(w.fs, w.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("cannot read work dir: %w", err)
	}

	if len(left) > 0 {
		w.log.Debug("Work dir is kept", slog.String("path", w.root))

		return nil
	}

	if err := w.fs.Remove(w.root); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("cannot remove work dir: %w", err)
	}

	return nil
}

// sessions lists the session directories of the work directory. Entries
// that are not named by a session id are not ours and are left alone.
func (w *workDir) sessions() ([]string, error) {
	entries, err := afero.ReadDir(w.fs, w.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("cannot read work dir: %w", err)
	}

	var sids []string
	for _, entry := range entries {
		if entry.IsDir() && util.IsSessionID(entry.Name()) {
			sids = append(sids, entry.Name())
		}
	}

	return sids, nil
}

/*
Sweep removes session directories whose session is gone. Only one sweep
runs at a time. It returns the number of removed directories.
*/
func (w *workDir) Sweep(ctx context.Context, alive AliveFunc) (int, error) {
	if !w.running.CompareAndSwap(false, true) {
		return 0, common.ErrSweepHasAlreadyStarted
	}
	defer w.running.Store(false)

	sids, err := w.sessions()
	if err != nil {
		return 0, err
	}

	if len(sids) == 0 {
		return 0, nil
	}

	in := make(chan string, len(sids))
	out := make(chan string, len(sids))

	for _, sid := range sids {
		in <- sid
	}
	close(in)

	var wg sync.WaitGroup
	wg.Add(w.workers)
	for n := 0; n < w.workers; n++ {
		go w.worker(ctx, n, alive, in, out, &wg)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	var removed int
	for sid := range out {
		w.log.Info("Removed stale session dir", slog.String("sid", sid))
		removed++
	}

	return removed, ctx.Err()
}

func (w *workDir) worker(ctx context.Context, n int, alive AliveFunc, in chan string, out chan string, wg *sync.WaitGroup) {
	defer wg.Done()

	log := w.log.With(slog.Int("worker_id", n))
	log.Debug("Started")

	for sid := range in {
		if ctx.Err() != nil {
			log.Info("Interrupted")

			return
		}

		ok, err := alive(ctx, sid)
		if err != nil {
			log.Error("Cannot check session", slog.String("sid", sid), slog.Any("error", err))

			continue
		}

		if ok {
			continue
		}

		if err := w.RemoveSession(sid); err != nil {
			log.Error("Cannot remove session dir", slog.String("sid", sid), slog.Any("error", err))

			continue
		}

		out <- sid
	}

	log.Debug("Done")
}

func (w *workDir) sessionPath(sid string) string {
	return filepath.Join(w.root, sid)
}
