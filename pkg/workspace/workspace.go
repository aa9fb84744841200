// Package workspace reads and writes the editor's workspace record: the open
// folder, the selected file, and the recent-files list.
package workspace

import (
	"encoding/json"
	"time"

	"github.com/grovetools/scribe/errors"
	"github.com/grovetools/scribe/logging"
	"github.com/grovetools/scribe/pkg/models"
	"github.com/grovetools/scribe/state"
	"github.com/sirupsen/logrus"
)

// Store provides typed access to the workspace document.
type Store struct {
	mgr    *state.Manager
	logger *logrus.Entry
	now    func() time.Time
}

// New creates a workspace Store backed by mgr.
func New(mgr *state.Manager) *Store {
	return &Store{
		mgr:    mgr,
		logger: logging.NewLogger("workspace"),
		now:    time.Now,
	}
}

// FolderPath returns the persisted folder path, or nil when unset.
func (s *Store) FolderPath() (*string, error) {
	return s.getString(models.KeyFolderPath)
}

// SetFolderPath persists the folder path.
func (s *Store) SetFolderPath(path string) error {
	return s.setString(models.KeyFolderPath, path)
}

// FilePath returns the persisted selected file path, or nil when unset.
func (s *Store) FilePath() (*string, error) {
	return s.getString(models.KeySelectedFilePath)
}

// SetFilePath persists the selected file path.
func (s *Store) SetFilePath(path string) error {
	return s.setString(models.KeySelectedFilePath, path)
}

// RecentFiles returns the recent-files list, most recent first. It never
// fails: an unreadable store or a malformed list yields an empty slice.
func (s *Store) RecentFiles() []models.RecentFile {
	files := []models.RecentFile{}
	err := s.mgr.View(state.WorkspaceStore, func(doc *state.Document) error {
		_, err := doc.Decode(models.KeyRecentFiles, &files)
		return err
	})
	if err != nil {
		s.logger.WithError(err).Debug("Recent files unavailable, returning empty list")
		return []models.RecentFile{}
	}
	if files == nil {
		return []models.RecentFile{}
	}
	return files
}

// AddRecentFile moves f to the front of the recent-files list, dropping any
// older entry with the same path and keeping at most MaxRecentFiles.
// A zero AccessedAt is filled with the current time.
func (s *Store) AddRecentFile(f models.RecentFile) error {
	if f.Path == "" {
		return errors.InvalidInput("recent file path must not be empty")
	}
	if f.AccessedAt == 0 {
		f.AccessedAt = s.now().Unix()
	}

	return s.mgr.Update(state.WorkspaceStore, func(doc *state.Document) error {
		files := s.decodeRecentLenient(doc)
		return doc.SetValue(models.KeyRecentFiles, models.PushRecent(files, f))
	})
}

// RemoveRecentFile drops the entry for path, if any.
func (s *Store) RemoveRecentFile(path string) error {
	return s.mgr.Update(state.WorkspaceStore, func(doc *state.Document) error {
		files := s.decodeRecentLenient(doc)
		kept := make([]models.RecentFile, 0, len(files))
		for _, f := range files {
			if f.Path != path {
				kept = append(kept, f)
			}
		}
		return doc.SetValue(models.KeyRecentFiles, kept)
	})
}

// ClearRecentFiles empties the recent-files list.
func (s *Store) ClearRecentFiles() error {
	return s.mgr.Update(state.WorkspaceStore, func(doc *state.Document) error {
		return doc.SetValue(models.KeyRecentFiles, []models.RecentFile{})
	})
}

// State returns the whole workspace record. Missing keys take their
// defaults; a malformed recent-files list reads as empty.
func (s *Store) State() (*models.WorkspaceData, error) {
	ws := &models.WorkspaceData{RecentFiles: []models.RecentFile{}}
	err := s.mgr.View(state.WorkspaceStore, func(doc *state.Document) error {
		var err error
		if ws.FolderPath, err = decodeString(doc, models.KeyFolderPath); err != nil {
			return err
		}
		if ws.SelectedFilePath, err = decodeString(doc, models.KeySelectedFilePath); err != nil {
			return err
		}
		ws.RecentFiles = s.decodeRecentLenient(doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// SaveState replaces the whole workspace record. Optional fields that are
// nil are removed from the store.
func (s *Store) SaveState(ws models.WorkspaceData) error {
	recent := ws.RecentFiles
	if recent == nil {
		recent = []models.RecentFile{}
	}
	if len(recent) > models.MaxRecentFiles {
		recent = recent[:models.MaxRecentFiles]
	}

	return s.mgr.Update(state.WorkspaceStore, func(doc *state.Document) error {
		doc.Clear()
		if ws.FolderPath != nil {
			if err := doc.SetValue(models.KeyFolderPath, *ws.FolderPath); err != nil {
				return err
			}
		}
		if ws.SelectedFilePath != nil {
			if err := doc.SetValue(models.KeySelectedFilePath, *ws.SelectedFilePath); err != nil {
				return err
			}
		}
		return doc.SetValue(models.KeyRecentFiles, recent)
	})
}

func (s *Store) getString(key string) (*string, error) {
	var out *string
	err := s.mgr.View(state.WorkspaceStore, func(doc *state.Document) error {
		var err error
		out, err = decodeString(doc, key)
		return err
	})
	return out, err
}

func (s *Store) setString(key, value string) error {
	return s.mgr.Update(state.WorkspaceStore, func(doc *state.Document) error {
		return doc.SetValue(key, value)
	})
}

func (s *Store) decodeRecentLenient(doc *state.Document) []models.RecentFile {
	var files []models.RecentFile
	if _, err := doc.Decode(models.KeyRecentFiles, &files); err != nil {
		s.logger.WithError(err).Debug("Discarding malformed recent files list")
		return []models.RecentFile{}
	}
	if files == nil {
		return []models.RecentFile{}
	}
	return files
}

// decodeString reads an optional string key. JSON null reads as unset.
func decodeString(doc *state.Document, key string) (*string, error) {
	raw, ok := doc.Get(key)
	if !ok {
		return nil, nil
	}
	var v *string
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, errors.Serialization(doc.Name()+"."+key, err)
	}
	return v, nil
}
