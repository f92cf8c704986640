package template

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a catalog when the template directory changes. Editors
// tend to fire several events per save, so reloads are coalesced through a
// short quiet window.
type Watcher struct {
	catalog *Catalog
	watcher *fsnotify.Watcher
	delay   time.Duration
	onError func(error)
	done    chan struct{}
}

// WatchOption customizes a Watcher.
type WatchOption func(*Watcher)

// WithReloadDelay overrides the event-coalescing window.
func WithReloadDelay(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithErrorHandler installs a callback for reload and watch errors.
func WithErrorHandler(fn func(error)) WatchOption {
	return func(w *Watcher) {
		if fn != nil {
			w.onError = fn
		}
	}
}

// Watch starts watching the catalog's template directory. The directory must
// exist before watching starts.
func Watch(catalog *Catalog, opts ...WatchOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("template: create watcher: %w", err)
	}
	if err := fsw.Add(catalog.dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("template: watch %s: %w", catalog.dir, err)
	}

	w := &Watcher{
		catalog: catalog,
		watcher: fsw,
		delay:   200 * time.Millisecond,
		onError: func(error) {},
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.run()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	var timer *time.Timer
	var reload <-chan time.Time
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.delay)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.delay)
			}
			reload = timer.C
		case <-reload:
			reload = nil
			if err := w.catalog.Reload(); err != nil {
				w.onError(err)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

// relevant filters the event stream down to yaml mutations.
func relevant(event fsnotify.Event) bool {
	if !isYAMLFile(event.Name) && !strings.HasSuffix(event.Name, "~") {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
