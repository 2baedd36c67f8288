package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jgivc/fileviewer/internal/adapter/tpladapter"
	"github.com/jgivc/fileviewer/internal/config"
	"github.com/jgivc/fileviewer/internal/service/viewer"
	"github.com/stretchr/testify/require"
)

type fakeWorkDir struct {
	cleared bool
}

func (w *fakeWorkDir) Clear() error {
	w.cleared = true

	return nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestNewMuxSweepRoute(t *testing.T) {
	log := newTestLogger()
	tpl, err := tpladapter.NewTplAdapter("")
	require.NoError(t, err)
	v := viewer.NewViewerService(nil, nil, nil, nil, nil, nil, nil, log)

	for _, enabled := range []bool{false, true} {
		mux := newMux(&config.HandlerConfig{CookieName: "sid", EnableSweep: enabled}, v, tpl, log)

		_, pattern := mux.Handler(httptest.NewRequest(http.MethodPost, "/sweep/", nil))
		if enabled {
			require.Equal(t, "POST /sweep/{$}", pattern)
		} else {
			require.Empty(t, pattern)
		}

		_, pattern = mux.Handler(httptest.NewRequest(http.MethodPost, "/process/", nil))
		require.Equal(t, "POST /process/{$}", pattern)
	}
}

func TestStopClearsWorkDir(t *testing.T) {
	testCases := []struct {
		name     string
		redisURL string
		cleared  bool
	}{
		{name: "Memory", cleared: true},
		{name: "Redis", redisURL: "redis://localhost:6379/0", cleared: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			wd := &fakeWorkDir{}
			a := &App{
				cfg:    &config.Config{SessionConfig: config.SessionConfig{RedisURL: tc.redisURL}},
				srv:    &http.Server{},
				wd:     wd,
				cancel: func() {},
				log:    newTestLogger(),
			}

			a.Stop()
			require.Equal(t, tc.cleared, wd.cleared)
		})
	}
}
