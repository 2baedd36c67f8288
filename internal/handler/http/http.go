package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/jgivc/fileviewer/internal/adapter/fsadapter"
	"github.com/jgivc/fileviewer/internal/common"
	"github.com/jgivc/fileviewer/internal/config"
	"github.com/jgivc/fileviewer/internal/entity"
	"github.com/jgivc/fileviewer/internal/util"
	"github.com/spf13/afero"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json"

	paramQuery = "q"
	paramFile  = "file"
	paramURL   = "url"
	paramAll   = "all"
)

type PageService interface {
	Session(ctx context.Context, sid string) (*entity.Session, error)
	Files(ctx context.Context, sid, query string) ([]*entity.File, error)
	Preview(ctx context.Context, sid, fileID string) (*entity.Preview, error)
}

type PageRenderer interface {
	Render(page *entity.Page) ([]byte, error)
}

type ProcessService interface {
	Process(ctx context.Context, sid, rawURL string) (*entity.Session, error)
}

type FilesService interface {
	Files(ctx context.Context, sid, query string) ([]*entity.File, error)
}

type RawService interface {
	Open(ctx context.Context, sid, fileID string) (*entity.File, afero.File, error)
}

type BundleService interface {
	Bundle(ctx context.Context, sid string, fileIDs []string, all bool) (string, []byte, error)
}

type EndService interface {
	End(ctx context.Context, sid string) error
}

type SweepService interface {
	Sweep(ctx context.Context) (int, error)
}

type fileInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	SizeHuman string `json:"size_human"`
	Category  string `json:"category"`
	Language  string `json:"language,omitempty"`
	RawURL    string `json:"raw_url"`
}

func NewPageHandler(cfg *config.HandlerConfig, srv PageService, tpl PageRenderer, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "PageHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		sid := sessionID(w, r, cfg.CookieName)
		query := r.URL.Query().Get(paramQuery)

		page := &entity.Page{Query: query}
		status := http.StatusOK

		if fileID := r.URL.Query().Get(paramFile); fileID != "" {
			if !util.IsFileID(fileID) {
				http.Error(w, "Bad request", http.StatusBadRequest)

				return
			}

			preview, err := srv.Preview(r.Context(), sid, fileID)
			switch {
			case err == nil:
				page.Preview = preview
			case errors.Is(err, common.ErrFileNotFoundError):
				status = http.StatusNotFound
				page.Notice = &entity.Notice{Level: entity.NoticeWarning, Text: "File not found"}
			default:
				log.Error("Cannot get preview", slog.String("sid", sid), slog.Any("error", err))
				http.Error(w, "Cannot get preview", http.StatusInternalServerError)

				return
			}
		}

		sess, err := srv.Session(r.Context(), sid)
		if err != nil {
			http.Error(w, "Cannot get session", http.StatusInternalServerError)

			return
		}

		page.Session = sess
		if page.Notice == nil {
			page.Notice = sess.Notice
		}

		page.Files, err = srv.Files(r.Context(), sid, query)
		if err != nil {
			http.Error(w, "Cannot get files", http.StatusInternalServerError)

			return
		}

		content, err := tpl.Render(page)
		if err != nil {
			log.Error("Cannot render page", slog.Any("error", err))
			http.Error(w, "Cannot render page", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		w.WriteHeader(status)
		w.Write(content)
	}
}

func NewProcessHandler(cfg *config.HandlerConfig, srv ProcessService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ProcessHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		sid := sessionID(w, r, cfg.CookieName)

		// Pipeline failures end up in the session notice, only a missing
		// session means the request itself failed.
		sess, err := srv.Process(r.Context(), sid, r.FormValue(paramURL))
		if err != nil {
			if sess == nil {
				http.Error(w, "Cannot process url", http.StatusInternalServerError)

				return
			}

			log.Info("Process failed", slog.String("sid", sid), slog.Any("error", err))
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func NewFilesHandler(cfg *config.HandlerConfig, srv FilesService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "FilesHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		sid := sessionID(w, r, cfg.CookieName)

		files, err := srv.Files(r.Context(), sid, r.URL.Query().Get(paramQuery))
		if err != nil {
			http.Error(w, "Cannot get files", http.StatusInternalServerError)

			return
		}

		infos := make([]fileInfo, 0, len(files))
		for _, file := range files {
			infos = append(infos, fileInfo{
				ID:        file.ID,
				Name:      file.Name,
				Path:      file.RelPath,
				Size:      file.Size,
				SizeHuman: file.SizeHuman,
				Category:  file.Kind.Category.String(),
				Language:  file.Kind.Language,
				RawURL:    fsadapter.RawURL(file.ID),
			})
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		if err := json.NewEncoder(w).Encode(infos); err != nil {
			log.Error("Cannot encode files", slog.Any("error", err))
		}
	}
}

func NewRawHandler(cfg *config.HandlerConfig, srv RawService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "RawHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !util.IsFileID(id) {
			http.Error(w, "Bad request", http.StatusBadRequest)

			return
		}

		sid := sessionID(w, r, cfg.CookieName)

		file, content, err := srv.Open(r.Context(), sid, id)
		if err != nil {
			switch {
			case errors.Is(err, common.ErrFileNotFoundError):
				http.Error(w, "Cannot find file", http.StatusNotFound)
			default:
				log.Error("Cannot open file", slog.String("id", id), slog.Any("error", err))
				http.Error(w, "Cannot get file", http.StatusInternalServerError)
			}

			return
		}
		defer content.Close()

		stat, err := content.Stat()
		if err != nil {
			http.Error(w, "Cannot get file", http.StatusInternalServerError)

			return
		}

		disposition := "attachment"
		if inline(file.Kind) {
			disposition = "inline"
		}

		w.Header().Set("Content-Type", file.Kind.MIMEType)
		w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": file.Name}))
		w.Header().Set("X-Content-Type-Options", "nosniff")
		// Extracted content is untrusted, svg and html must not run scripts on this origin.
		w.Header().Set("Content-Security-Policy", "sandbox")

		http.ServeContent(w, r, file.Name, stat.ModTime(), content)
	}
}

func NewBundleHandler(cfg *config.HandlerConfig, srv BundleService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "BundleHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)

			return
		}

		ids := r.PostForm[paramFile]
		for _, id := range ids {
			if !util.IsFileID(id) {
				http.Error(w, "Bad request", http.StatusBadRequest)

				return
			}
		}

		sid := sessionID(w, r, cfg.CookieName)

		name, data, err := srv.Bundle(r.Context(), sid, ids, r.PostForm.Get(paramAll) == "1")
		if err != nil {
			switch {
			case errors.Is(err, common.ErrNothingToBundle):
				http.Error(w, "No files selected", http.StatusBadRequest)
			case errors.Is(err, common.ErrFileNotFoundError):
				http.Error(w, "Cannot find file", http.StatusNotFound)
			default:
				log.Error("Cannot bundle", slog.String("sid", sid), slog.Any("error", err))
				http.Error(w, "Cannot bundle files", http.StatusInternalServerError)
			}

			return
		}

		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Write(data)
	}
}

func NewEndHandler(cfg *config.HandlerConfig, srv EndService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "EndHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		sid := sessionID(w, r, cfg.CookieName)

		if err := srv.End(r.Context(), sid); err != nil {
			log.Error("Cannot end session", slog.String("sid", sid), slog.Any("error", err))
			http.Error(w, "Cannot end session", http.StatusInternalServerError)

			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func NewSweepHandler(srv SweepService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "SweepHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		n, err := srv.Sweep(context.Background())
		if err != nil {
			switch {
			case errors.Is(err, common.ErrSweepHasAlreadyStarted):
				http.Error(w, "Sweep process has already started", http.StatusConflict)
			default:
				log.Error("Cannot sweep", slog.Any("error", err))
				http.Error(w, "Cannot start sweep process", http.StatusInternalServerError)
			}

			return
		}

		w.Write([]byte("removed: " + strconv.Itoa(n) + "\n"))
	}
}

// sessionID returns the session id from the cookie, issuing a new one when
// it is missing or malformed.
func sessionID(w http.ResponseWriter, r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && util.IsSessionID(c.Value) {
		return c.Value
	}

	sid := util.NewID()
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return sid
}

func inline(kind entity.Kind) bool {
	switch kind.Category {
	case entity.CategoryImage, entity.CategoryVideo, entity.CategoryPDF, entity.CategoryText:
		return true
	}

	return false
}
