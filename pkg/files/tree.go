// Package files implements the local filesystem operations: listing a folder
// as a tree, saving pasted images, and choosing a folder.
package files

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/grovetools/scribe/errors"
	"github.com/grovetools/scribe/pkg/models"
	"github.com/moby/patternmatcher"
)

// TreeOptions bounds a directory listing.
type TreeOptions struct {
	// MaxDepth is the deepest directory level whose children are listed.
	// The root is depth 0. Zero means unbounded.
	MaxDepth int
	// MaxNodes caps the number of entries below the root. Zero means unbounded.
	MaxNodes int
	// Ignore holds patterns (moby/patternmatcher syntax) matched against
	// paths relative to the root and against bare entry names.
	Ignore []string
}

// Tree is the result of ListTree.
type Tree struct {
	Root      *models.FileNode
	Nodes     int
	Truncated bool
}

type frame struct {
	node  *models.FileNode
	depth int
}

// ListTree walks root depth-first and returns its tree. Directory entries are
// ordered directories first, then by case-insensitive name. Symlinked
// directories are listed but never followed.
func ListTree(root string, opts TreeOptions) (*Tree, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.InvalidInput("folder path must not be empty")
	}
	root = filepath.Clean(root)

	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.InvalidInput("folder does not exist: " + root).WithDetail("path", root)
		}
		return nil, errors.IOError("stat", root, err)
	}
	if !info.IsDir() {
		return nil, errors.InvalidInput("not a directory: " + root).WithDetail("path", root)
	}

	var matcher *patternmatcher.PatternMatcher
	if len(opts.Ignore) > 0 {
		matcher, err = patternmatcher.New(opts.Ignore)
		if err != nil {
			return nil, errors.InvalidInput("invalid ignore pattern: " + err.Error())
		}
	}

	name := filepath.Base(root)
	rootNode := &models.FileNode{Name: name, Path: root, IsDir: true, Children: []*models.FileNode{}}
	tree := &Tree{Root: rootNode}

	stack := []frame{{node: rootNode, depth: 0}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if opts.MaxDepth > 0 && top.depth >= opts.MaxDepth {
			continue
		}
		// Directories still queued at the node limit are left unread.
		if opts.MaxNodes > 0 && tree.Nodes >= opts.MaxNodes {
			tree.Truncated = true
			break
		}

		entries, err := os.ReadDir(top.node.Path)
		if err != nil {
			return nil, errors.IOError("read directory", top.node.Path, err)
		}
		sortEntries(entries)

		var dirs []*models.FileNode
		for _, entry := range entries {
			childPath := filepath.Join(top.node.Path, entry.Name())
			if ignored(matcher, root, childPath, entry.Name()) {
				continue
			}
			if opts.MaxNodes > 0 && tree.Nodes >= opts.MaxNodes {
				tree.Truncated = true
				break
			}

			child := &models.FileNode{Name: entry.Name(), Path: childPath}
			if entry.IsDir() {
				child.IsDir = true
				child.Children = []*models.FileNode{}
				dirs = append(dirs, child)
			}
			top.node.Children = append(top.node.Children, child)
			tree.Nodes++
		}

		if tree.Truncated {
			break
		}

		// Push in reverse so the first directory is expanded first.
		for i := len(dirs) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: dirs[i], depth: top.depth + 1})
		}
	}

	return tree, nil
}

// sortEntries orders directories first, then by case-insensitive name, with
// the exact name as a tiebreaker.
func sortEntries(entries []os.DirEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := entries[i].IsDir(), entries[j].IsDir()
		if di != dj {
			return di
		}
		li, lj := strings.ToLower(entries[i].Name()), strings.ToLower(entries[j].Name())
		if li != lj {
			return li < lj
		}
		return entries[i].Name() < entries[j].Name()
	})
}

func ignored(matcher *patternmatcher.PatternMatcher, root, path, name string) bool {
	if matcher == nil {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = name
	}
	if ok, err := matcher.MatchesOrParentMatches(rel); err == nil && ok {
		return true
	}
	if ok, err := matcher.MatchesOrParentMatches(name); err == nil && ok {
		return true
	}
	return false
}
