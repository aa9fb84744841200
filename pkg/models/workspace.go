package models

import (
	"path/filepath"
	"time"
)

// MaxRecentFiles bounds the recent-files list.
const MaxRecentFiles = 10

// Workspace store keys.
const (
	KeyFolderPath       = "folderPath"
	KeySelectedFilePath = "selectedFilePath"
	KeyRecentFiles      = "recentFiles"
)

// RecentFile is one entry of the most-recently-used list.
type RecentFile struct {
	Path       string `json:"path"`
	Name       string `json:"name"`
	AccessedAt int64  `json:"accessed_at"` // unix seconds
}

// NewRecentFile builds an entry for path accessed at t, named after the
// path's last element.
func NewRecentFile(path string, t time.Time) RecentFile {
	return RecentFile{
		Path:       path,
		Name:       filepath.Base(path),
		AccessedAt: t.Unix(),
	}
}

// WorkspaceData is the whole workspace record.
type WorkspaceData struct {
	FolderPath       *string      `json:"folderPath,omitempty"`
	SelectedFilePath *string      `json:"selectedFilePath,omitempty"`
	RecentFiles      []RecentFile `json:"recentFiles"`
}

// PushRecent returns files with f moved to the front, any older entry for
// the same path dropped, and the result truncated to MaxRecentFiles.
func PushRecent(files []RecentFile, f RecentFile) []RecentFile {
	out := make([]RecentFile, 0, len(files)+1)
	out = append(out, f)
	for _, existing := range files {
		if existing.Path == f.Path {
			continue
		}
		out = append(out, existing)
	}
	if len(out) > MaxRecentFiles {
		out = out[:MaxRecentFiles]
	}
	return out
}
