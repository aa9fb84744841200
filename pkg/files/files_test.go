package files

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/grovetools/scribe/errors"
	"github.com/grovetools/scribe/pkg/models"
	"github.com/grovetools/scribe/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(nodes []*models.FileNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

func find(t *testing.T, nodes []*models.FileNode, name string) *models.FileNode {
	t.Helper()
	for _, n := range nodes {
		if n.Name == name {
			return n
		}
	}
	t.Fatalf("node %q not found in %v", name, names(nodes))
	return nil
}

func TestListTreeOrdering(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"b.md":           "b",
		"A.md":           "a",
		"zeta/note.md":   "z",
		"Alpha/x.md":     "x",
		"Alpha/inner/":   "",
		"empty/":         "",
		"c.txt":          "c",
		"Alpha/Beta.md":  "b",
		"Alpha/alpha.md": "a",
	})

	tree, err := ListTree(root, TreeOptions{})
	require.NoError(t, err)
	assert.False(t, tree.Truncated)

	assert.Equal(t, filepath.Base(root), tree.Root.Name)
	assert.Equal(t, root, tree.Root.Path)
	assert.Equal(t, []string{"Alpha", "empty", "zeta", "A.md", "b.md", "c.txt"}, names(tree.Root.Children))

	alpha := find(t, tree.Root.Children, "Alpha")
	assert.True(t, alpha.IsDir)
	assert.Equal(t, []string{"inner", "alpha.md", "Beta.md", "x.md"}, names(alpha.Children))
	assert.Equal(t, filepath.Join(root, "Alpha", "x.md"), find(t, alpha.Children, "x.md").Path)

	empty := find(t, tree.Root.Children, "empty")
	assert.True(t, empty.IsDir)
	assert.NotNil(t, empty.Children)
	assert.Empty(t, empty.Children)

	file := find(t, tree.Root.Children, "A.md")
	assert.False(t, file.IsDir)
	assert.Nil(t, file.Children)

	assert.Equal(t, 11, tree.Nodes)
	assert.Equal(t, tree.Nodes+1, tree.Root.Count())
}

func TestListTreeJSONShape(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"dir/": "",
		"a.md": "a",
	})

	tree, err := ListTree(root, TreeOptions{})
	require.NoError(t, err)

	data, err := json.Marshal(tree.Root)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	children := decoded["children"].([]interface{})
	require.Len(t, children, 2)
	dir := children[0].(map[string]interface{})
	assert.Equal(t, []interface{}{}, dir["children"])
	file := children[1].(map[string]interface{})
	assert.NotContains(t, file, "children")
}

func TestListTreeMaxDepth(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"a/b/c/deep.md": "d",
		"a/top.md":      "t",
	})

	tree, err := ListTree(root, TreeOptions{MaxDepth: 2})
	require.NoError(t, err)

	a := find(t, tree.Root.Children, "a")
	b := find(t, a.Children, "b")
	assert.True(t, b.IsDir)
	assert.Empty(t, b.Children)
	assert.False(t, tree.Truncated)
}

func TestListTreeMaxNodes(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"a.md":     "",
		"b.md":     "",
		"c.md":     "",
		"d/e.md":   "",
		"d/f/g.md": "",
	})

	tree, err := ListTree(root, TreeOptions{MaxNodes: 3})
	require.NoError(t, err)
	assert.True(t, tree.Truncated)
	assert.Equal(t, 3, tree.Nodes)
	assert.Equal(t, 4, tree.Root.Count())
}

func TestListTreeStopsReadingAfterTruncation(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("needs an unreadable directory")
	}
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"locked/secret.md": "",
		"a.md":             "",
		"b.md":             "",
	})
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	_, err := ListTree(root, TreeOptions{})
	require.Error(t, err)

	tree, err := ListTree(root, TreeOptions{MaxNodes: 2})
	require.NoError(t, err)
	assert.True(t, tree.Truncated)
	assert.Equal(t, []string{"locked", "a.md"}, names(tree.Root.Children))
	assert.Empty(t, find(t, tree.Root.Children, "locked").Children)
}

func TestListTreeIgnore(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		".git/HEAD":                  "ref",
		"node_modules/pkg/index.js":  "",
		"notes/.DS_Store":            "",
		"notes/a.md":                 "",
		"build/out.bin":              "",
		"sub/node_modules/x/file.js": "",
	})

	tree, err := ListTree(root, TreeOptions{Ignore: append([]string{"build"}, ".git", "node_modules", ".DS_Store")})
	require.NoError(t, err)

	assert.Equal(t, []string{"notes", "sub"}, names(tree.Root.Children))
	notes := find(t, tree.Root.Children, "notes")
	assert.Equal(t, []string{"a.md"}, names(notes.Children))
	sub := find(t, tree.Root.Children, "sub")
	assert.Empty(t, sub.Children)
}

func TestListTreeInvalidPattern(t *testing.T) {
	_, err := ListTree(t.TempDir(), TreeOptions{Ignore: []string{"["}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestListTreeDoesNotFollowSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{"real/a.md": ""})
	require.NoError(t, os.Symlink(root, filepath.Join(root, "loop")))

	tree, err := ListTree(root, TreeOptions{})
	require.NoError(t, err)

	loop := find(t, tree.Root.Children, "loop")
	assert.False(t, loop.IsDir)
	assert.Nil(t, loop.Children)
}

func TestListTreeErrors(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		_, err := ListTree(filepath.Join(t.TempDir(), "nope"), TreeOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	})

	t.Run("root is a file", func(t *testing.T) {
		f := filepath.Join(t.TempDir(), "file.md")
		require.NoError(t, os.WriteFile(f, nil, 0644))
		_, err := ListTree(f, TreeOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	})

	t.Run("empty root", func(t *testing.T) {
		_, err := ListTree("", TreeOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	})

	t.Run("unreadable subdirectory", func(t *testing.T) {
		if runtime.GOOS == "windows" || os.Geteuid() == 0 {
			t.Skip("permission bits are not enforced")
		}
		root := t.TempDir()
		locked := filepath.Join(root, "locked")
		require.NoError(t, os.Mkdir(locked, 0000))
		t.Cleanup(func() { _ = os.Chmod(locked, 0755) })

		_, err := ListTree(root, TreeOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeIO))
	})
}

func TestDecodeImagePayload(t *testing.T) {
	body := base64.StdEncoding.EncodeToString([]byte("img"))

	tests := []struct {
		name     string
		payload  string
		wantMime string
		wantExt  string
		wantErr  bool
	}{
		{name: "png data url", payload: "data:image/png;base64," + body, wantMime: "image/png", wantExt: "png"},
		{name: "jpeg", payload: "data:image/jpeg;base64," + body, wantMime: "image/jpeg", wantExt: "jpeg"},
		{name: "svg cut at plus", payload: "data:image/svg+xml;base64," + body, wantMime: "image/svg+xml", wantExt: "svg"},
		{name: "empty header", payload: "," + body, wantMime: "", wantExt: "png"},
		{name: "no comma", payload: body, wantErr: true},
		{name: "bad base64", payload: "data:image/png;base64,@@@", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := DecodeImagePayload(tt.payload)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrCodeDecode))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMime, img.MimeType)
			assert.Equal(t, tt.wantExt, img.Extension)
			assert.Equal(t, []byte("img"), img.Data)
		})
	}
}

func TestImageSaverSave(t *testing.T) {
	folder := t.TempDir()
	s := NewImageSaver("")
	s.newName = func() string { return "fixed-id" }

	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte{0x89, 'P', 'N', 'G'})
	rel, err := s.Save(payload, folder)
	require.NoError(t, err)
	assert.Equal(t, "assets/fixed-id.png", rel)

	data, err := os.ReadFile(filepath.Join(folder, "assets", "fixed-id.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
}

func TestImageSaverUniqueNames(t *testing.T) {
	folder := t.TempDir()
	s := NewImageSaver("media/images")
	payload := "data:image/gif;base64," + base64.StdEncoding.EncodeToString([]byte("gif"))

	first, err := s.Save(payload, folder)
	require.NoError(t, err)
	second, err := s.Save(payload, folder)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Regexp(t, `^media/images/[0-9a-f-]{36}\.gif$`, first)
}

func TestImageSaverFailures(t *testing.T) {
	t.Run("decode failure writes nothing", func(t *testing.T) {
		folder := t.TempDir()
		_, err := NewImageSaver("").Save("no-comma-here", folder)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeDecode))
		assert.NoDirExists(t, filepath.Join(folder, "assets"))
	})

	t.Run("empty folder", func(t *testing.T) {
		_, err := NewImageSaver("").Save("data:image/png;base64,AA==", "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	})

	t.Run("unwritable folder", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, nil, 0644))
		_, err := NewImageSaver("").Save("data:image/png;base64,AA==", blocker)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeIO))
	})
}

type scriptExecutor struct {
	script string
}

func (e *scriptExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, "sh", "-c", e.script)
}

func TestExecPicker(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	tests := []struct {
		name     string
		script   string
		wantPath string
		wantOK   bool
	}{
		{name: "chosen", script: "echo /home/u/notes", wantPath: "/home/u/notes", wantOK: true},
		{name: "first line only", script: "printf '/a\\n/b\\n'", wantPath: "/a", wantOK: true},
		{name: "dismissed", script: "exit 1", wantOK: false},
		{name: "empty output", script: "true", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &ExecPicker{Argv: []string{"dialog"}, Executor: &scriptExecutor{script: tt.script}}
			path, ok, err := p.PickFolder(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}

func TestExecPickerMissingBinary(t *testing.T) {
	p := NewExecPicker([]string{"scribe-no-such-picker-binary"})
	_, ok, err := p.PickFolder(context.Background())
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, errors.ErrCodeIO))
}

func TestPickerFor(t *testing.T) {
	assert.IsType(t, NoPicker{}, PickerFor(nil))
	assert.IsType(t, &ExecPicker{}, PickerFor([]string{"zenity"}))

	_, ok, err := NoPicker{}.PickFolder(context.Background())
	assert.NoError(t, err)
	assert.False(t, ok)
}
