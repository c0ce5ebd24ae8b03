// Package watch reports when any of a fixed set of input files changes.
package watch

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Debounce is how long a file has to stay quiet before its change is
// reported.
const Debounce = 100 * time.Millisecond

// Watcher watches the directories of its files, so that editors that
// replace a file by renaming still trigger a change.
type Watcher struct {
	Changes <-chan string // absolute path of the changed file

	files   map[string]bool
	dirs    map[string]bool
	changes chan string
	done    chan struct{}
	watcher *fsnotify.Watcher
	log     logrus.FieldLogger
}

func New(paths []string, log logrus.FieldLogger) (*Watcher, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	w := &Watcher{
		files: make(map[string]bool),
		dirs:  make(map[string]bool),
		done:  make(chan struct{}),
		log:   log,
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("watch: %s: %w", p, err)
		}
		w.files[abs] = true
		w.dirs[filepath.Dir(abs)] = true
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	w.watcher = fw
	w.changes = make(chan string, 16)
	w.Changes = w.changes
	return w, nil
}

func (w *Watcher) Start() error {
	for dir := range w.dirs {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch: add %s: %w", dir, err)
		}
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and then Changes.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(Debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				for file := range pending {
					w.emit(file)
				}
				return
			}
			if !w.files[filepath.Clean(event.Name)] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending[filepath.Clean(event.Name)] = time.Now()
			}

		case now := <-ticker.C:
			for file, t := range pending {
				if now.Sub(t) >= Debounce {
					w.emit(file)
					delete(pending, file)
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("watch error")
		}
	}
}

func (w *Watcher) emit(file string) {
	w.log.WithField("file", file).Debug("input changed")
	select {
	case w.changes <- file:
	default:
		// a rerun is already queued
	}
}
