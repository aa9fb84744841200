package models

import "encoding/json"

// FileNode is one entry of a directory tree. Directories always serialize a
// children array, possibly empty; files never do.
type FileNode struct {
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	Children []*FileNode `json:"children,omitempty"`
	IsDir    bool        `json:"-"`
}

type fileNodeJSON struct {
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	Children []*FileNode `json:"children,omitempty"`
}

type dirNodeJSON struct {
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	Children []*FileNode `json:"children"`
}

// MarshalJSON writes children only for directories, as an empty array when
// the directory has none.
func (n *FileNode) MarshalJSON() ([]byte, error) {
	if !n.IsDir {
		return json.Marshal(fileNodeJSON{Name: n.Name, Path: n.Path})
	}
	children := n.Children
	if children == nil {
		children = []*FileNode{}
	}
	return json.Marshal(dirNodeJSON{Name: n.Name, Path: n.Path, Children: children})
}

// UnmarshalJSON treats a node with a non-null children array as a directory.
func (n *FileNode) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name     string      `json:"name"`
		Path     string      `json:"path"`
		Children []*FileNode `json:"children"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n.Name = raw.Name
	n.Path = raw.Path
	n.Children = raw.Children
	n.IsDir = raw.Children != nil
	return nil
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *FileNode) Count() int {
	count := 1
	for _, c := range n.Children {
		count += c.Count()
	}
	return count
}

// OpenFolderResult is returned by open_folder.
type OpenFolderResult struct {
	RootPath string    `json:"root_path"`
	Tree     *FileNode `json:"tree"`
}
