package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jgivc/fileviewer/internal/adapter/bundler"
	"github.com/jgivc/fileviewer/internal/adapter/extractor"
	"github.com/jgivc/fileviewer/internal/adapter/fetcher"
	"github.com/jgivc/fileviewer/internal/adapter/fsadapter"
	"github.com/jgivc/fileviewer/internal/adapter/renderer"
	"github.com/jgivc/fileviewer/internal/adapter/tpladapter"
	"github.com/jgivc/fileviewer/internal/config"
	httphandler "github.com/jgivc/fileviewer/internal/handler/http"
	"github.com/jgivc/fileviewer/internal/repository/session"
	"github.com/jgivc/fileviewer/internal/service/viewer"
	"github.com/jgivc/fileviewer/internal/storage/workdir"
	"github.com/redis/go-redis/v9"
)

const (
	sweepTimeout    = time.Minute
	shutdownTimeout = 5 * time.Second
)

type App struct {
	cfgPath string
	cfg     *config.Config
	srv     *http.Server
	viewer  *viewer.ViewerService
	wd      interface{ Clear() error }
	rdb     *redis.Client
	cancel  context.CancelFunc
	log     *slog.Logger
}

func New(cfgPath string) *App {
	return &App{
		cfgPath: cfgPath,
	}
}

func (a *App) Start() {
	a.cfg = config.MustLoad(a.cfgPath)

	lo := &slog.HandlerOptions{}
	switch a.cfg.LogLevel {
	case config.LogLevelInfo:
		lo.Level = slog.LevelInfo
	case config.LogLevelWarn:
		lo.Level = slog.LevelWarn
	case config.LogLevelError:
		lo.Level = slog.LevelError
	case config.LogLevelDebug:
		lo.Level = slog.LevelDebug
	default:
		panic("unknown log level")
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, lo))
	a.log = log

	if err := os.MkdirAll(a.cfg.WorkDir, 0o755); err != nil {
		panic(err)
	}

	var repo viewer.SessionRepository
	if a.cfg.SessionConfig.RedisURL != "" {
		opt, err := redis.ParseURL(a.cfg.SessionConfig.RedisURL)
		if err != nil {
			panic(err)
		}

		a.rdb = redis.NewClient(opt)
		if _, err = a.rdb.Ping(context.Background()).Result(); err != nil {
			panic(err)
		}

		repo = session.NewRedisRepository(a.rdb, a.cfg.SessionConfig.TTL, log)
	} else {
		repo = session.NewMemoryRepository(a.cfg.SessionConfig.TTL, log)
	}

	tpl, err := tpladapter.NewTplAdapter(a.cfg.HandlerConfig.TemplateFile)
	if err != nil {
		panic(err)
	}

	wd := workdir.NewWorkDir(a.cfg.WorkDir, a.cfg.SessionConfig.SweepWorkers, log)
	a.wd = wd

	a.viewer = viewer.NewViewerService(
		fetcher.NewFetcher(&a.cfg.FetchConfig, log),
		extractor.NewExtractor(log),
		fsadapter.NewFSAdapter(log),
		renderer.NewRenderer(&a.cfg.RenderConfig, log),
		bundler.NewBundler(log),
		repo,
		wd,
		log,
	)

	a.srv = &http.Server{
		Addr:    a.cfg.Listen,
		Handler: newMux(&a.cfg.HandlerConfig, a.viewer, tpl, log),
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	go a.janitor(ctx, a.cfg.SessionConfig.SweepInterval)

	go func() {
		log.Info("Start listen", slog.String("addr", a.cfg.Listen), slog.String("work_dir", a.cfg.WorkDir))

		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Could not serve", slog.String("listen_addr", a.cfg.Listen), slog.Any("error", err))
			os.Exit(2)
		}
	}()
}

func newMux(hc *config.HandlerConfig, v *viewer.ViewerService, tpl httphandler.PageRenderer, log *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /{$}", httphandler.NewPageHandler(hc, v, tpl, log))
	mux.Handle("POST /process/{$}", httphandler.NewProcessHandler(hc, v, log))
	mux.Handle("GET /api/files/{$}", httphandler.NewFilesHandler(hc, v, log))
	mux.Handle("GET /raw/{id}/{$}", httphandler.NewRawHandler(hc, v, log))
	mux.Handle("POST /bundle/{$}", httphandler.NewBundleHandler(hc, v, log))
	mux.Handle("POST /end/{$}", httphandler.NewEndHandler(hc, v, log))

	if hc.EnableSweep {
		mux.Handle("POST /sweep/{$}", httphandler.NewSweepHandler(v, log))
	}

	return mux
}

// Sweep removes directories of expired sessions.
func (a *App) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	fmt.Println("Sweeping...")

	n, err := a.viewer.Sweep(ctx)
	if err != nil {
		fmt.Printf("Cannot sweep: %s\n", err)

		return
	}

	fmt.Printf("Done. Removed %d session dirs.\n", n)
}

func (a *App) janitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sctx, cancel := context.WithTimeout(ctx, sweepTimeout)
			if _, err := a.viewer.Sweep(sctx); err != nil {
				a.log.Error("Cannot sweep", slog.Any("error", err))
			}
			cancel()
		}
	}
}

func (a *App) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.cancel()

	if err := a.srv.Shutdown(ctx); err != nil {
		a.log.Error("Cannot shutdown server", slog.Any("error", err))
	}

	// redis sessions survive a restart and keep their files
	if !a.cfg.SessionConfig.Persistent() {
		if err := a.wd.Clear(); err != nil {
			a.log.Error("Cannot remove work dir", slog.Any("error", err))
		}
	}

	if a.rdb != nil {
		a.rdb.Close()
	}
}
