// Package fsnotify implements the ports.Watcher interface using github.com/fsnotify/fsnotify.
// It watches the directories holding the dictionary manifest and word-list
// files, reports changes to those files only, and debounces rapid events
// (editors often trigger multiple writes per save). A change is reported once
// the file has been quiet for the debounce interval, so the callback always
// sees the last write of a burst.
package fsnotify

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// File suffixes that never name a watched file (editor scratch files).
var ignoreSuffixes = []string{".swp", ".swx", ".tmp", "~", ".DS_Store"}

const debounceInterval = 50 * time.Millisecond

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	fw      *fsnotify.Watcher
	done    chan struct{}
	started bool
	stopped bool
	mu      sync.Mutex

	files  map[string]bool        // absolute paths reported to onChange
	dirs   map[string]bool        // directories added to fw
	timers map[string]*time.Timer // pending debounced callbacks by path
}

// NewWatcher creates a new file system watcher.
func NewWatcher() (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fw:    fw,
		done:  make(chan struct{}),
		files:  make(map[string]bool),
		dirs:   make(map[string]bool),
		timers: make(map[string]*time.Timer),
	}, nil
}

// Watch starts monitoring paths. onChange is called with the absolute path
// of each changed file. Calling Watch again replaces the watched file set;
// only the first call starts the event loop. Paths whose directory cannot be
// watched are reported in the returned error; the others are still watched.
func (w *Watcher) Watch(paths []string, onChange func(filePath string)) error {
	w.mu.Lock()
	var errs []error
	files := make(map[string]bool, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		files[abs] = true
		dir := filepath.Dir(abs)
		if !w.dirs[dir] {
			if err := w.fw.Add(dir); err != nil {
				errs = append(errs, fmt.Errorf("watch %s: %w", dir, err))
				continue
			}
			w.dirs[dir] = true
		}
	}
	w.files = files
	first := !w.started
	w.started = true
	w.mu.Unlock()

	if first {
		go w.loop(onChange)
	}
	return errors.Join(errs...)
}

func (w *Watcher) loop(onChange func(filePath string)) {
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			path := event.Name
			if shouldIgnorePath(path) || !w.isWatched(path) {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.schedule(path, onChange)
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			log.Printf("[watcher] %v", err)

		case <-w.done:
			return
		}
	}
}

// schedule (re)arms the debounce timer for path. Every event pushes the
// callback back by debounceInterval.
func (w *Watcher) schedule(path string, onChange func(filePath string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if t, ok := w.timers[path]; ok && t.Stop() {
		t.Reset(debounceInterval)
		return
	}
	var t *time.Timer
	t = time.AfterFunc(debounceInterval, func() {
		w.mu.Lock()
		current := w.timers[path] == t
		if current {
			delete(w.timers, path)
		}
		fire := current && !w.stopped && w.files[path]
		w.mu.Unlock()
		if fire {
			onChange(path)
		}
	})
	w.timers[path] = t
}

func (w *Watcher) isWatched(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[path]
}

// Stop ends monitoring and releases all resources.
// Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	close(w.done)
	return w.fw.Close()
}

// shouldIgnorePath returns true if the file path should not trigger onChange.
func shouldIgnorePath(path string) bool {
	base := filepath.Base(path)
	for _, suffix := range ignoreSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}
