// Package watch feeds job files dropped into an inbox directory to a
// handler.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/kikiluvv/vibecut/pkg/util"
)

// DefaultSettle is how long a file must go unwritten before it is handled.
const DefaultSettle = 500 * time.Millisecond

// Handler processes one job file. An error is logged and the watcher moves
// on.
type Handler func(ctx context.Context, path string) error

// Watcher dispatches job files from a directory.
type Watcher struct {
	dir     string
	logger  zerolog.Logger
	handler Handler
	settle  time.Duration
}

// New creates a watcher over dir. settle <= 0 uses DefaultSettle.
func New(logger zerolog.Logger, dir string, settle time.Duration, handler Handler) (*Watcher, error) {
	if handler == nil {
		return nil, fmt.Errorf("watch handler cannot be nil")
	}
	if err := util.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create inbox %s: %w", dir, err)
	}
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Watcher{
		dir:     dir,
		logger:  logger.With().Str("component", "watch").Str("dir", dir).Logger(),
		handler: handler,
		settle:  settle,
	}, nil
}

// Run handles the job files already in the directory, then every job file
// created or rewritten until ctx is done. Files are handled one at a time,
// once they have settled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info().Msg("watching for jobs")

	existing, err := w.scan()
	if err != nil {
		return err
	}
	for _, path := range existing {
		w.dispatch(ctx, path)
	}

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("watcher stopped")
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !util.IsJobFile(ev.Name) {
				continue
			}
			switch {
			case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
				pending[ev.Name] = time.Now()
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				delete(pending, ev.Name)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watch error")

		case now := <-ticker.C:
			for _, path := range settled(pending, now, w.settle) {
				delete(pending, path)
				w.dispatch(ctx, path)
			}
		}
	}
}

func (w *Watcher) scan() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox: %w", err)
	}
	var paths []string
	for _, e := range entries {
		path := filepath.Join(w.dir, e.Name())
		if e.Type().IsRegular() && util.IsJobFile(path) {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

func (w *Watcher) dispatch(ctx context.Context, path string) {
	if ctx.Err() != nil || !util.FileExists(path) {
		return
	}
	w.logger.Debug().Str("file", path).Msg("job file ready")
	if err := w.handler(ctx, path); err != nil {
		w.logger.Error().Err(err).Str("file", path).Msg("job file failed")
	}
}

// settled returns the pending paths untouched for at least d, sorted.
func settled(pending map[string]time.Time, now time.Time, d time.Duration) []string {
	var out []string
	for path, at := range pending {
		if now.Sub(at) >= d {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}
