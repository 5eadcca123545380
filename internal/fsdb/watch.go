package fsdb

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher drains filesystem change events for the page tree and clears
// Cache whenever anything under it changes. fsnotify watches are not
// recursive, so every directory of the tree is registered individually:
// the whole tree is walked once at startup, and directories created
// later are picked up from their own create events before the cache is
// cleared.
type Watcher struct {
	fsw   *fsnotify.Watcher
	cache *Cache
}

// NewWatcher creates a Watcher over cache's backing tree roots.
func NewWatcher(cache *Cache) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{fsw: fsw, cache: cache}

	for _, root := range cache.fs.Roots() {
		if err := w.addTree(root); err != nil {
			log.Warn().Err(err).Str("path", root).Msg("Failed to watch page tree root")
		}
	}

	return w, nil
}

// addTree registers path and every directory below it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}

			return err
		}
		if !d.IsDir() {
			return nil
		}

		return w.Add(path)
	})
}

// Add registers a single additional directory to watch.
func (w *Watcher) Add(path string) error {
	return w.fsw.Add(path)
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run drains watcher events until ctx is cancelled, clearing the cache on
// every batch of events observed (mirroring the "drain then clear once"
// behavior of the original inotify polling loop: multiple coalesced
// events produce one cache clear, not one per event).
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.watchNewDir(event)
			w.drainAndClear(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("fsnotify watcher error")
		}
	}
}

// watchNewDir extends the watch set when a new directory appears, so
// that later changes inside it are observed too.
func (w *Watcher) watchNewDir(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) {
		return
	}
	fi, err := os.Stat(event.Name)
	if err != nil || !fi.IsDir() {
		return
	}
	if err := w.addTree(event.Name); err != nil {
		log.Warn().Err(err).Str("path", event.Name).Msg("Failed to watch new directory")
	}
}

// drainAndClear consumes every already-queued event without blocking,
// then clears the cache once.
func (w *Watcher) drainAndClear(first fsnotify.Event) {
	log.Debug().Str("path", first.Name).Str("op", first.Op.String()).Msg("Page tree changed")

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				w.cache.Clear()

				return
			}
			w.watchNewDir(event)
			log.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("Page tree changed")
		default:
			w.cache.Clear()

			return
		}
	}
}
