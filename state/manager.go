package state

import (
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/grovetools/scribe/errors"
	"github.com/grovetools/scribe/pkg/paths"
)

// Store names used by the application.
const (
	SettingsStore  = "settings"
	WorkspaceStore = "workspace"
	S3ConfigStore  = "s3_config"
)

var storeNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Manager opens named documents under one directory and serializes
// read-modify-write cycles per store name within this process.
type Manager struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a Manager rooted at dir. The directory is created on
// first use, not here.
func NewManager(dir string) *Manager {
	return &Manager{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}
}

// DefaultManager returns a Manager rooted at the Scribe config directory.
func DefaultManager() *Manager {
	return NewManager(paths.ConfigDir())
}

// Dir returns the directory holding the store files.
func (m *Manager) Dir() string {
	return m.dir
}

// FilePath returns the backing file for a store name.
func (m *Manager) FilePath(name string) string {
	return filepath.Join(m.dir, name+".json")
}

// Open loads the named document. Opening is idempotent; the backing file is
// only created by Save.
func (m *Manager) Open(name string) (*Document, error) {
	if err := m.ensureDir(); err != nil {
		return nil, err
	}
	if !storeNameRegex.MatchString(name) {
		return nil, errors.InvalidInput("invalid store name: " + name).WithDetail("store", name)
	}

	doc := &Document{
		name: name,
		path: m.FilePath(name),
	}
	if err := doc.load(); err != nil {
		return nil, err
	}
	return doc, nil
}

// View opens the named document under its lock and passes it to fn.
// Changes made by fn are not saved.
func (m *Manager) View(name string, fn func(*Document) error) error {
	lock := m.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	doc, err := m.Open(name)
	if err != nil {
		return err
	}
	return fn(doc)
}

// Update opens the named document under its lock, applies fn, and saves the
// result when fn returns nil.
func (m *Manager) Update(name string, fn func(*Document) error) error {
	lock := m.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	doc, err := m.Open(name)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return doc.Save()
}

// Remove deletes the backing file of the named store. A missing file is not
// an error.
func (m *Manager) Remove(name string) error {
	lock := m.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	if m.dir == "" {
		return errors.ConfigDirUnavailable("", nil)
	}
	path := m.FilePath(name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.IOError("delete", path, err)
	}
	return nil
}

func (m *Manager) ensureDir() error {
	if m.dir == "" {
		return errors.ConfigDirUnavailable("", nil)
	}
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return errors.ConfigDirUnavailable(m.dir, err)
	}
	return nil
}

func (m *Manager) lockFor(name string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[name] = lock
	}
	return lock
}
