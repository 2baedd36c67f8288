package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jgivc/fileviewer/internal/adapter/bundler"
	"github.com/jgivc/fileviewer/internal/adapter/classifier"
	"github.com/jgivc/fileviewer/internal/adapter/fetcher"
	"github.com/jgivc/fileviewer/internal/adapter/fsadapter"
	"github.com/jgivc/fileviewer/internal/adapter/renderer"
	"github.com/jgivc/fileviewer/internal/common"
	"github.com/jgivc/fileviewer/internal/entity"
	"github.com/jgivc/fileviewer/internal/service/search"
	"github.com/jgivc/fileviewer/internal/storage/workdir"
	"github.com/jgivc/fileviewer/internal/util"
	"github.com/spf13/afero"
)

const defaultRootName = "files"

type Fetcher interface {
	Fetch(ctx context.Context, rawURL, dst string) error
}

type Extractor interface {
	Extract(ctx context.Context, archivePath string, kind entity.Kind, targetDir string) ([]string, error)
}

type FSAdapter interface {
	ListFiles(root string) ([]string, error)
	ToFiles(root string, paths []string) []*entity.File
	Open(path string) (afero.File, error)
}

type Renderer interface {
	Render(file *entity.File, res renderer.Resolver) *entity.Preview
}

type Bundler interface {
	Bundle(paths []string) ([]byte, error)
}

type SessionRepository interface {
	Get(ctx context.Context, id string) (*entity.Session, error)
	Save(ctx context.Context, s *entity.Session) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}

type WorkDir interface {
	Acquire(sid string) (*workdir.Dir, error)
	Remove(path string) error
	RemoveSession(sid string) error
	Sweep(ctx context.Context, alive workdir.AliveFunc) (int, error)
}

type ViewerService struct {
	fetcher   Fetcher
	extractor Extractor
	fsa       FSAdapter
	renderer  Renderer
	bundler   Bundler
	repo      SessionRepository
	wd        WorkDir
	locks     *keyedMutex
	now       func() time.Time
	log       *slog.Logger
}

func NewViewerService(f Fetcher, e Extractor, fsa FSAdapter, r Renderer, b Bundler, repo SessionRepository, wd WorkDir, log *slog.Logger) *ViewerService {
	return &ViewerService{
		fetcher:   f,
		extractor: e,
		fsa:       fsa,
		renderer:  r,
		bundler:   b,
		repo:      repo,
		wd:        wd,
		locks:     newKeyedMutex(),
		now:       time.Now,
		log:       log.With(slog.String("service", "ViewerService")),
	}
}

/*
Process downloads rawURL and, for archives, extracts it. On success the
session file set is replaced and the previous directory removed. On failure
the session keeps its old file set, an error notice is recorded and the
error is returned. The new directory never outlives a failed attempt.
*/
func (s *ViewerService) Process(ctx context.Context, sid, rawURL string) (*entity.Session, error) {
	unlock := s.locks.Lock(sid)
	defer unlock()

	log := s.log.With(slog.String("sid", sid), slog.String("url", rawURL))

	sess, err := s.load(ctx, sid)
	if err != nil {
		return nil, err
	}

	if err := fetcher.Validate(rawURL); err != nil {
		return s.fail(ctx, sess, fmt.Sprintf("Invalid URL: %s", err), err)
	}

	dir, err := s.wd.Acquire(sid)
	if err != nil {
		log.Error("Cannot create work dir", slog.Any("error", err))

		return s.fail(ctx, sess, "Cannot create work directory", err)
	}
	defer dir.Release()

	name := fetcher.FileName(rawURL)
	dst := filepath.Join(dir.Path, name)

	if err := s.fetcher.Fetch(ctx, rawURL, dst); err != nil {
		log.Error("Cannot fetch", slog.Any("error", err))

		return s.fail(ctx, sess, fmt.Sprintf("Cannot download %s: %s", rawURL, err), err)
	}

	kind := classifier.Classify(name)
	root := dir.Path
	files := []string{dst}
	notice := &entity.Notice{Level: entity.NoticeInfo, Text: fmt.Sprintf("Downloaded %s", name)}

	switch {
	case kind.IsArchive():
		stem := classifier.Stem(name)
		if stem == "" || stem == name {
			stem = defaultRootName
		}
		root = filepath.Join(dir.Path, stem)

		if _, err := s.extractor.Extract(ctx, dst, kind, root); err != nil {
			log.Error("Cannot extract", slog.String("archive", name), slog.Any("error", err))

			return s.fail(ctx, sess, fmt.Sprintf("Cannot extract %s: %s", name, err), err)
		}

		files, err = s.fsa.ListFiles(root)
		if err != nil {
			log.Error("Cannot list files", slog.String("root", root), slog.Any("error", err))

			return s.fail(ctx, sess, fmt.Sprintf("Cannot list files of %s: %s", name, err), err)
		}

		notice.Text = fmt.Sprintf("Extracted %d files from %s", len(files), name)
	case kind.Category == entity.CategoryUnsupported:
		notice = &entity.Notice{
			Level: entity.NoticeWarning,
			Text:  fmt.Sprintf("%s is not a supported archive or media file, it can only be downloaded", name),
		}
	}

	prev := sess.Dir

	sess.Dir = dir.Path
	sess.Root = root
	sess.Source = rawURL
	sess.Files = files
	sess.Notice = notice

	if err := s.repo.Save(ctx, sess); err != nil {
		log.Error("Cannot save session", slog.Any("error", err))

		return nil, fmt.Errorf("cannot save session: %w", err)
	}

	dir.Keep()

	if prev != "" && prev != dir.Path {
		if err := s.wd.Remove(prev); err != nil {
			log.Error("Cannot remove previous dir", slog.String("path", prev), slog.Any("error", err))
		}
	}

	log.Info("Processed", slog.String("kind", kind.Category.String()), slog.Int("files", len(files)))

	return sess, nil
}

// Session returns the session state. A pending notice is returned once and
// then cleared. Unknown sessions come back empty.
func (s *ViewerService) Session(ctx context.Context, sid string) (*entity.Session, error) {
	unlock := s.locks.Lock(sid)
	defer unlock()

	sess, err := s.load(ctx, sid)
	if err != nil {
		return nil, err
	}

	if sess.Notice == nil {
		return sess, nil
	}

	notice := sess.Notice
	sess.Notice = nil

	if err := s.repo.Save(ctx, sess); err != nil {
		s.log.Error("Cannot clear notice", slog.String("sid", sid), slog.Any("error", err))

		return nil, fmt.Errorf("cannot save session: %w", err)
	}

	sess.Notice = notice

	return sess, nil
}

// Files lists the file set narrowed by query.
func (s *ViewerService) Files(ctx context.Context, sid, query string) ([]*entity.File, error) {
	sess, err := s.load(ctx, sid)
	if err != nil {
		return nil, err
	}

	return s.fsa.ToFiles(sess.Root, search.Filter(sess.Files, query)), nil
}

func (s *ViewerService) Preview(ctx context.Context, sid, fileID string) (*entity.Preview, error) {
	sess, err := s.load(ctx, sid)
	if err != nil {
		return nil, err
	}

	res := fsadapter.NewFileResolver(s.fsa.ToFiles(sess.Root, sess.Files))

	file, err := res.GetFile(fileID)
	if err != nil {
		return nil, err
	}

	return s.renderer.Render(file, res), nil
}

// Open returns the file and its content for a raw download. The caller closes it.
func (s *ViewerService) Open(ctx context.Context, sid, fileID string) (*entity.File, afero.File, error) {
	sess, err := s.load(ctx, sid)
	if err != nil {
		return nil, nil, err
	}

	path, ok := pathsByID(sess.Files)[fileID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", common.ErrFileNotFoundError, fileID)
	}

	files := s.fsa.ToFiles(sess.Root, []string{path})
	if len(files) < 1 {
		return nil, nil, fmt.Errorf("%w: %s", common.ErrFileNotFoundError, fileID)
	}

	content, err := s.fsa.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open file %s: %w", path, err)
	}

	return files[0], content, nil
}

/*
Bundle zips the files selected by fileIDs, in the given order, or the whole
file set when all is set. It returns the attachment name and the zip bytes.
*/
func (s *ViewerService) Bundle(ctx context.Context, sid string, fileIDs []string, all bool) (string, []byte, error) {
	sess, err := s.load(ctx, sid)
	if err != nil {
		return "", nil, err
	}

	name := bundler.NameSelected
	paths := make([]string, 0, len(fileIDs))

	if all {
		name = bundler.NameAll
		paths = sess.Files
	} else {
		index := pathsByID(sess.Files)
		for _, id := range fileIDs {
			path, ok := index[id]
			if !ok {
				return "", nil, fmt.Errorf("%w: %s", common.ErrFileNotFoundError, id)
			}

			paths = append(paths, path)
		}
	}

	data, err := s.bundler.Bundle(paths)
	if err != nil {
		if !errors.Is(err, common.ErrNothingToBundle) {
			s.log.Error("Cannot bundle files", slog.String("sid", sid), slog.Any("error", err))
		}

		return "", nil, fmt.Errorf("cannot bundle files: %w", err)
	}

	return name, data, nil
}

// End drops the session and everything it has on disk.
func (s *ViewerService) End(ctx context.Context, sid string) error {
	unlock := s.locks.Lock(sid)
	defer unlock()

	if err := s.repo.Delete(ctx, sid); err != nil {
		return fmt.Errorf("cannot delete session: %w", err)
	}

	if err := s.wd.RemoveSession(sid); err != nil {
		return err
	}

	s.log.Info("Session ended", slog.String("sid", sid))

	return nil
}

// Sweep removes the directories of sessions that no longer exist. A
// session is checked under its lock, so a directory created by a Process
// that has not saved the session yet is left alone.
func (s *ViewerService) Sweep(ctx context.Context) (int, error) {
	alive := func(ctx context.Context, sid string) (bool, error) {
		unlock := s.locks.Lock(sid)
		defer unlock()

		return s.repo.Exists(ctx, sid)
	}

	n, err := s.wd.Sweep(ctx, alive)
	if err != nil {
		return n, fmt.Errorf("cannot sweep work dir: %w", err)
	}

	s.log.Info("Sweep done", slog.Int("removed", n))

	return n, nil
}

func (s *ViewerService) load(ctx context.Context, sid string) (*entity.Session, error) {
	sess, err := s.repo.Get(ctx, sid)
	if err == nil {
		return sess, nil
	}

	if errors.Is(err, common.ErrSessionNotFoundError) {
		return &entity.Session{ID: sid, CreatedAt: s.now()}, nil
	}

	s.log.Error("Cannot load session", slog.String("sid", sid), slog.Any("error", err))

	return nil, fmt.Errorf("cannot load session: %w", err)
}

// fail records an error notice and keeps the current file set.
func (s *ViewerService) fail(ctx context.Context, sess *entity.Session, text string, cause error) (*entity.Session, error) {
	sess.Notice = &entity.Notice{Level: entity.NoticeError, Text: text}

	if err := s.repo.Save(ctx, sess); err != nil {
		s.log.Error("Cannot save session", slog.String("sid", sess.ID), slog.Any("error", err))
	}

	return sess, cause
}

func pathsByID(paths []string) map[string]string {
	index := make(map[string]string, len(paths))
	for _, path := range paths {
		index[util.GetIDFromString(&path)] = path
	}

	return index
}
