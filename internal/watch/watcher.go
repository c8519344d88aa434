package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mmr-tortoise/chore/internal/model"
)

// Watcher observes a set of directory roots recursively and invokes a
// rebuild callback after a debounced burst of changes.
//
// fsnotify watches are not recursive, so every subdirectory under each
// root is registered individually, and directories created while
// watching are added as their create events arrive.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer

	// log receives progress messages; nil discards them.
	log func(format string, args ...interface{})
}

// New creates a Watcher that calls onChange after debounce of quiet
// following filesystem activity under the given roots. Roots that do
// not exist are skipped with a log message rather than failing, so a
// project without a tests directory can still watch its sources.
func New(roots []string, debounce time.Duration, onChange func(), log func(format string, args ...interface{})) (*Watcher, error) {
	if log == nil {
		log = func(string, ...interface{}) {}
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "failed to create filesystem watcher", err)
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		debouncer: NewDebouncer(debounce, onChange),
		log:       log,
	}

	for _, root := range roots {
		if _, statErr := os.Stat(root); statErr != nil {
			w.log("skipping missing watch root %s", root)
			continue
		}
		if err := w.addRecursive(root); err != nil {
			_ = fsWatcher.Close()
			return nil, err
		}
		w.log("watching %s", root)
	}

	return w, nil
}

// addRecursive registers root and all directories beneath it.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		// Hidden directories (.git, .pytest_cache, ...) produce noisy
		// churn that is never interesting to a rebuild.
		if name := d.Name(); strings.HasPrefix(name, ".") && path != root {
			return filepath.SkipDir
		}
		if addErr := w.fsWatcher.Add(path); addErr != nil {
			return model.WrapCLIError(model.ExitGeneralError,
				"failed to watch "+path, addErr)
		}
		return nil
	})
}

// Run processes filesystem events until the context is cancelled.
// It blocks; run it on the main goroutine of the watch command.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.debouncer.Stop()
	defer func() { _ = w.fsWatcher.Close() }()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}

			// New directories must be registered to keep the recursive
			// illusion intact.
			if event.Op.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						w.log("failed to watch new directory %s: %v", event.Name, err)
					}
				}
			}

			// Chmod-only events carry no content change; everything else
			// (create, write, remove, rename) warrants a rebuild.
			if event.Op == fsnotify.Chmod {
				continue
			}

			w.log("change detected: %s (%s)", event.Name, event.Op)
			w.debouncer.Trigger()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.log("watch error: %v", err)
		}
	}
}
