package site

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitegen/internal/config"
	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

const rebuildDebounce = 300 * time.Millisecond

// Serve builds the site once, serves the build directory over HTTP, and
// rebuilds whenever the content, templates or static directories change.
// Blocks until ctx is canceled or the server fails.
func Serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, addr string) error {
	if logger == nil {
		logger = slog.Default()
	}

	// A failing initial build still starts the server; the next change
	// triggers a rebuild.
	if _, err := New(cfg, logger).Build(ctx); err != nil {
		logger.Error("initial build failed", "error", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return sgerrors.Wrap(err, sgerrors.CategoryFileSystem, sgerrors.SeverityFatal,
			"failed to create file watcher")
	}
	defer func() { _ = watcher.Close() }()

	for _, dir := range []string{cfg.ContentDirectory, cfg.TemplatesDirectory, cfg.StaticDirectory} {
		if dir == "" {
			continue
		}
		if st, statErr := os.Stat(dir); statErr != nil || !st.IsDir() {
			continue
		}
		if err := addDirsRecursive(watcher, dir); err != nil {
			return err
		}
	}

	server := &http.Server{Addr: addr, Handler: http.FileServer(http.Dir(cfg.BuildDirectory))}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("preview server listening", "addr", addr, "dir", cfg.BuildDirectory)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	rebuildReq, trigger := rebuildDebouncer()
	go rebuildWorker(ctx, cfg, logger, rebuildReq)

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down preview server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn("server shutdown error", "error", err)
			}
			return nil
		case err := <-serveErr:
			return sgerrors.Wrap(err, sgerrors.CategoryInternal, sgerrors.SeverityFatal,
				"preview server failed").WithContext("addr", addr)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if shouldIgnoreEvent(ev.Name) {
				continue
			}
			// New directories must be watched too.
			if ev.Op&fsnotify.Create == fsnotify.Create {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = addDirsRecursive(watcher, ev.Name)
				}
			}
			logger.Debug("file change detected", "path", ev.Name, "op", ev.Op.String())
			trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}

// rebuildDebouncer coalesces bursts of filesystem events into one rebuild
// request.
func rebuildDebouncer() (chan struct{}, func()) {
	var mu sync.Mutex
	var timer *time.Timer
	req := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(rebuildDebounce, func() {
			select {
			case req <- struct{}{}:
			default:
			}
		})
	}

	return req, trigger
}

func rebuildWorker(ctx context.Context, cfg *config.Config, logger *slog.Logger, req chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-req:
			logger.Info("change detected, rebuilding site")
			if _, err := New(cfg, logger).Build(ctx); err != nil {
				logger.Warn("rebuild failed", "error", err)
			}
		}
	}
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				slog.Warn("watch add failed", "dir", path, "error", err)
			}
		}
		return nil
	})
}

// shouldIgnoreEvent reports filesystem events that must not trigger rebuilds:
// hidden files and editor temp/swap files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, ".#") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	if base == "Thumbs.db" {
		return true
	}

	return false
}
