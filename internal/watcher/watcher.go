// Package watcher reloads blueprint documents when their files change on
// disk, so operators can edit blueprints without restarting the server.
package watcher

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// BlueprintWatcher watches a directory of blueprint YAML documents.
type BlueprintWatcher struct {
	dir      string
	onChange func(path string)
	debounce time.Duration
}

// New creates a watcher over a blueprint directory. onChange receives the
// absolute path of each changed document.
func New(dir string, onChange func(path string)) *BlueprintWatcher {
	return &BlueprintWatcher{
		dir:      dir,
		onChange: onChange,
		debounce: 500 * time.Millisecond,
	}
}

// WithDebounce sets the debounce duration
func (w *BlueprintWatcher) WithDebounce(d time.Duration) *BlueprintWatcher {
	w.debounce = d
	return w
}

func isBlueprintDoc(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Watch blocks until the context is cancelled, invoking onChange for every
// written or created YAML document in the directory. Editors that replace
// files on save show up as create events, which is why both ops are handled.
func (w *BlueprintWatcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return err
	}
	log.Printf("Watching %s for blueprint changes", w.dir)

	debounceTimers := make(map[string]*time.Timer)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isBlueprintDoc(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			absPath, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}

			// Debounce rapid successive writes to the same document.
			if timer, exists := debounceTimers[absPath]; exists {
				timer.Stop()
			}
			debounceTimers[absPath] = time.AfterFunc(w.debounce, func() {
				log.Printf("Blueprint changed: %s", absPath)
				w.onChange(absPath)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watcher error: %v", err)

		case <-ctx.Done():
			for _, timer := range debounceTimers {
				timer.Stop()
			}
			return ctx.Err()
		}
	}
}
