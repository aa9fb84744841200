// Package watcher turns filesystem changes in the config directory into
// daemon events: edits to store documents become store_changed, edits to
// scribe.yml or scribe.toml become config_reload.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/grovetools/scribe/logging"
	"github.com/sirupsen/logrus"
)

// Publisher receives the events the watcher produces.
type Publisher interface {
	StoreChanged(name, source string)
	ConfigReloaded(file string)
}

// Watcher watches one config directory.
type Watcher struct {
	watcher      *fsnotify.Watcher
	dir          string
	debounce     time.Duration
	publisher    Publisher
	logger       *logrus.Entry
	targetToLink map[string]string // symlink target path -> link name in dir

	mu         sync.Mutex
	lastChange map[string]time.Time
}

// New creates a Watcher for dir, creating the directory if needed. Config
// files in dir that are symlinks have their target directories watched too,
// since fsnotify does not follow links.
func New(dir string, debounce time.Duration, publisher Publisher) (*Watcher, error) {
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	logger := logging.NewLogger("watcher")
	watchedDirs := map[string]bool{dir: true}
	targetToLink := make(map[string]string)

	if entries, err := os.ReadDir(dir); err == nil {
		for _, entry := range entries {
			if !isConfigFile(entry.Name()) {
				continue
			}
			info, err := entry.Info()
			if err != nil || info.Mode()&os.ModeSymlink == 0 {
				continue
			}

			target, err := filepath.EvalSymlinks(filepath.Join(dir, entry.Name()))
			if err != nil {
				logger.WithError(err).Warnf("Failed to resolve symlink %s", entry.Name())
				continue
			}
			targetToLink[target] = entry.Name()

			targetDir := filepath.Dir(target)
			if watchedDirs[targetDir] {
				continue
			}
			if err := fw.Add(targetDir); err != nil {
				logger.WithError(err).Warnf("Failed to watch symlink target dir %s", targetDir)
				continue
			}
			watchedDirs[targetDir] = true
			logger.Debugf("Watching symlink target directory: %s", targetDir)
		}
	}

	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}

	return &Watcher{
		watcher:      fw,
		dir:          dir,
		debounce:     debounce,
		publisher:    publisher,
		logger:       logger,
		targetToLink: targetToLink,
		lastChange:   make(map[string]time.Time),
	}, nil
}

// Start processes filesystem events until ctx is cancelled or the watcher
// is closed.
func (w *Watcher) Start(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.logger.Debugf("fsnotify event: %s op=%v", event.Name, event.Op)
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
				continue
			}
			w.handle(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Errorf("Watcher error: %v", err)

		case <-ctx.Done():
			w.watcher.Close()
			return
		}
	}
}

// Suppress marks name as just changed, so the filesystem event caused by a
// write the daemon itself performed is not reported a second time.
func (w *Watcher) Suppress(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastChange[name] = time.Now()
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) handle(path string) {
	if link, ok := w.targetToLink[path]; ok {
		path = filepath.Join(w.dir, link)
	}
	if filepath.Dir(path) != w.dir {
		return
	}

	base := filepath.Base(path)
	switch {
	case isConfigFile(base):
		if w.debounced(base) {
			return
		}
		w.logger.Infof("Config changed: %s", base)
		w.publisher.ConfigReloaded(base)

	case isStoreFile(base):
		name := strings.TrimSuffix(base, ".json")
		if w.debounced(name) {
			return
		}
		w.logger.WithField("store", name).Info("Store changed on disk")
		w.publisher.StoreChanged(name, "watcher")
	}
}

// debounced reports whether key changed within the debounce window, and
// records the change otherwise.
func (w *Watcher) debounced(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	elapsed := time.Since(w.lastChange[key])
	if elapsed < w.debounce {
		w.logger.Debugf("Debounced: %s (only %v since last change)", key, elapsed)
		return true
	}
	w.lastChange[key] = time.Now()
	return false
}

func isConfigFile(name string) bool {
	switch name {
	case "scribe.yml", "scribe.yaml", "scribe.toml":
		return true
	}
	return false
}

// isStoreFile matches <name>.json, skipping hidden files such as the
// temporaries written during an atomic save.
func isStoreFile(name string) bool {
	return strings.HasSuffix(name, ".json") && !strings.HasPrefix(name, ".") && len(name) > len(".json")
}
