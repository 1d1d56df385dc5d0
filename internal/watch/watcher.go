// Package watch re-runs the generate lifecycle step when project files
// change. Used by `pubctl generate --watch`.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a project tree and invokes a callback after changes settle.
type Watcher struct {
	root         string
	watcher      *fsnotify.Watcher
	onChange     func(ctx context.Context) error
	triggerChan  chan struct{}
	debounceTime time.Duration
}

// New creates a watcher over the project home. Hidden directories and the
// generated output trees (public, resources) are not watched.
func New(root string, onChange func(ctx context.Context) error) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("resolve watch root: %w", err)
	}
	return &Watcher{
		root:         absRoot,
		watcher:      fsw,
		onChange:     onChange,
		triggerChan:  make(chan struct{}, 1),
		debounceTime: 500 * time.Millisecond,
	}, nil
}

// skipDir reports whether a directory should stay out of the watch set.
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "public" || name == "resources" || name == "node_modules"
}

// Run watches until the context is canceled. Blocking.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.addTree(w.root); err != nil {
		return err
	}
	slog.Info("watching for changes", "root", w.root)

	go w.changeLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// New directories join the watch set.
			if event.Op&fsnotify.Create != 0 {
				if err := w.addTree(event.Name); err != nil {
					slog.Debug("skipping new path", "path", event.Name, "error", err)
				}
			}
			slog.Debug("change detected", "path", event.Name, "op", event.Op.String())
			w.trigger()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) trigger() {
	select {
	case w.triggerChan <- struct{}{}:
	default:
		// Run already pending.
	}
}

// changeLoop debounces triggers and invokes onChange from this goroutine
// only, so successive firings never overlap. Hook dispatch is strictly
// sequential; a trigger arriving mid-run waits in triggerChan until the
// current run returns.
func (w *Watcher) changeLoop(ctx context.Context) {
	timer := time.NewTimer(w.debounceTime)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-w.triggerChan:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounceTime)
		case <-timer.C:
			if err := w.onChange(ctx); err != nil {
				slog.Error("change handler failed", "error", err)
			}
		}
	}
}

// addTree registers path and every non-skipped directory below it.
func (w *Watcher) addTree(path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root && skipDir(d.Name()) {
			return fs.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			slog.Debug("cannot watch directory", "path", p, "error", err)
		}
		return nil
	})
}
