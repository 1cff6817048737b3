package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/CTAG07/Drosera/pkg/pagegen"
	"github.com/CTAG07/Drosera/pkg/templating"
	"github.com/fsnotify/fsnotify"
)

// inputWatcher reloads templates and keyword lists when their files change,
// so edits are picked up by the next cycle without a restart.
type inputWatcher struct {
	logger    *slog.Logger
	app       *AppConfig
	tm        *templating.TemplateManager
	gen       *pagegen.Generator
	watcher   *fsnotify.Watcher
	templates map[string]struct{}
	keywords  map[string]struct{}
	delay     time.Duration
}

func newInputWatcher(logger *slog.Logger, app *AppConfig, tm *templating.TemplateManager, gen *pagegen.Generator) (*inputWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}

	w := &inputWatcher{
		logger:    logger,
		app:       app,
		tm:        tm,
		gen:       gen,
		watcher:   watcher,
		templates: make(map[string]struct{}),
		keywords:  make(map[string]struct{}),
		delay:     time.Duration(max(app.WatchDelayMs, 0)) * time.Millisecond,
	}

	for _, name := range tm.GetTemplateNames() {
		w.templates[cleanAbs(filepath.Join(tm.GetTemplateDir(), name))] = struct{}{}
	}
	for _, path := range append(append([]string{}, app.KeywordsAr...), app.KeywordsEn...) {
		w.keywords[cleanAbs(path)] = struct{}{}
	}

	// Watch parent directories rather than the files, so files that don't
	// exist yet and editors that save by rename are both covered.
	watched := make(map[string]bool)
	for _, set := range []map[string]struct{}{w.templates, w.keywords} {
		for path := range set {
			dir := filepath.Dir(path)
			if watched[dir] {
				continue
			}
			if _, err = os.Stat(dir); err != nil {
				logger.Warn("Not watching missing directory", "dir", dir)
				continue
			}
			if err = watcher.Add(dir); err != nil {
				_ = watcher.Close()
				return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			watched[dir] = true
			logger.Info("Watching input directory", "dir", dir)
		}
	}
	return w, nil
}

func cleanAbs(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Run handles change events until ctx is cancelled or the watcher is closed.
// Bursts of events are coalesced: a reload happens once things have been
// quiet for the configured delay.
func (w *inputWatcher) Run(ctx context.Context) {
	var reloadTemplates, reloadKeywords bool
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			path := cleanAbs(event.Name)
			_, isTemplate := w.templates[path]
			_, isKeyword := w.keywords[path]
			if !isTemplate && !isKeyword {
				continue
			}
			w.logger.Debug("Input change detected", "path", path, "op", event.Op.String())
			reloadTemplates = reloadTemplates || isTemplate
			reloadKeywords = reloadKeywords || isKeyword
			timer.Reset(w.delay)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)
		case <-timer.C:
			if reloadTemplates {
				w.logger.Info("Reloading templates")
				w.tm.Refresh()
			}
			if reloadKeywords {
				w.logger.Info("Reloading keywords")
				w.gen.SetCorpus(loadCorpus(w.logger, w.app))
			}
			reloadTemplates, reloadKeywords = false, false
		}
	}
}

// Close stops the underlying watcher.
func (w *inputWatcher) Close() {
	if err := w.watcher.Close(); err != nil {
		w.logger.Error("Failed to close watcher", "error", err)
	}
}
