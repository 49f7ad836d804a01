// Package watchfile seeds and hot-reloads the feed watchlist from a YAML
// file. Membership changes on disk become Watch/Unwatch calls; nothing
// else about the feed is configured here.
package watchfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/caelum0x/immortal-bnb-sub004/internal/logger"
)

// WatchController is the slice of the feed the watcher drives.
type WatchController interface {
	Watch(instrument string)
	Unwatch(instrument string)
}

type fileSchema struct {
	Instruments []string `yaml:"instruments"`
}

// Load reads the instrument list, trimmed and de-duplicated, in file order.
func Load(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading watchlist file: %w", err)
	}
	var parsed fileSchema
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parsing watchlist file: %w", err)
	}
	seen := make(map[string]struct{}, len(parsed.Instruments))
	out := make([]string, 0, len(parsed.Instruments))
	for _, id := range parsed.Instruments {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// Watcher applies watchlist file changes to the feed.
type Watcher struct {
	path string
	ctrl WatchController

	current map[string]struct{}
}

func NewWatcher(path string, ctrl WatchController) *Watcher {
	return &Watcher{
		path:    filepath.Clean(path),
		ctrl:    ctrl,
		current: make(map[string]struct{}),
	}
}

// Seed loads the file once and watches everything in it.
func (w *Watcher) Seed() error {
	instruments, err := Load(w.path)
	if err != nil {
		return err
	}
	w.apply(instruments)
	logger.Infof("watchfile: seeded %d instruments from %s", len(instruments), w.path)
	return nil
}

// Run blocks until stop closes, reloading the file whenever it changes.
// The parent directory is watched because editors replace files on save.
func (w *Watcher) Run(stop <-chan struct{}) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.path), err)
	}

	for {
		select {
		case <-stop:
			return nil
		case evt, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(evt.Name) != w.path {
				continue
			}
			if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Rename) {
				continue
			}
			w.reload()
		case werr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("watchfile: watcher error: %v", werr)
		}
	}
}

func (w *Watcher) reload() {
	instruments, err := Load(w.path)
	if err != nil {
		logger.Errorf("watchfile: reload failed (%s): %v", w.path, err)
		return
	}
	added, removed := w.apply(instruments)
	if added > 0 || removed > 0 {
		logger.Infof("watchfile: reloaded %s (+%d/-%d)", w.path, added, removed)
	}
}

// apply diffs the new membership against the last applied set and issues
// only the Watch/Unwatch calls for the delta.
func (w *Watcher) apply(instruments []string) (added, removed int) {
	next := make(map[string]struct{}, len(instruments))
	for _, id := range instruments {
		next[id] = struct{}{}
		if _, ok := w.current[id]; !ok {
			w.ctrl.Watch(id)
			added++
		}
	}
	stale := make([]string, 0)
	for id := range w.current {
		if _, ok := next[id]; !ok {
			stale = append(stale, id)
		}
	}
	sort.Strings(stale)
	for _, id := range stale {
		w.ctrl.Unwatch(id)
		removed++
	}
	w.current = next
	return added, removed
}
