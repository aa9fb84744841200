package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/grovetools/scribe/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateOperations(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(filepath.Join(dir, "config"))

	t.Run("Open empty store", func(t *testing.T) {
		doc, err := m.Open("settings")
		require.NoError(t, err)
		assert.Equal(t, 0, doc.Len())
		assert.False(t, doc.Exists())

		// Opening does not create the file
		_, err = os.Stat(m.FilePath("settings"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("Set without save is not persisted", func(t *testing.T) {
		doc, err := m.Open("settings")
		require.NoError(t, err)
		doc.Set("theme", json.RawMessage(`"dark"`))

		raw, ok := doc.Get("theme")
		require.True(t, ok)
		assert.JSONEq(t, `"dark"`, string(raw))

		reopened, err := m.Open("settings")
		require.NoError(t, err)
		_, ok = reopened.Get("theme")
		assert.False(t, ok)
	})

	t.Run("Save and reopen", func(t *testing.T) {
		doc, err := m.Open("settings")
		require.NoError(t, err)
		require.NoError(t, doc.SetValue("fontSize", 16))
		require.NoError(t, doc.SetValue("shortcuts", map[string]string{"save": "mod+s"}))
		require.NoError(t, doc.Save())
		assert.True(t, doc.Exists())

		reopened, err := m.Open("settings")
		require.NoError(t, err)
		assert.True(t, reopened.Exists())

		var size int
		found, err := reopened.Decode("fontSize", &size)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, 16, size)

		var shortcuts map[string]string
		found, err = reopened.Decode("shortcuts", &shortcuts)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "mod+s", shortcuts["save"])
	})

	t.Run("Get non-existent key", func(t *testing.T) {
		doc, err := m.Open("settings")
		require.NoError(t, err)
		raw, ok := doc.Get("missing")
		assert.False(t, ok)
		assert.Nil(t, raw)

		found, err := doc.Decode("missing", new(string))
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Entries are sorted", func(t *testing.T) {
		doc, err := m.Open("scratch")
		require.NoError(t, err)
		doc.Set("b", json.RawMessage(`2`))
		doc.Set("a", json.RawMessage(`1`))
		doc.Set("c", nil)

		entries := doc.Entries()
		require.Len(t, entries, 3)
		assert.Equal(t, "a", entries[0].Key)
		assert.Equal(t, "b", entries[1].Key)
		assert.Equal(t, "c", entries[2].Key)
		assert.JSONEq(t, "null", string(entries[2].Value))
	})

	t.Run("Delete and clear", func(t *testing.T) {
		doc, err := m.Open("scratch")
		require.NoError(t, err)
		doc.Set("a", json.RawMessage(`1`))
		doc.Set("b", json.RawMessage(`2`))
		doc.Delete("a")
		doc.Delete("never-there")
		assert.Equal(t, 1, doc.Len())
		doc.Clear()
		assert.Equal(t, 0, doc.Len())
	})

	t.Run("Store file location", func(t *testing.T) {
		assert.FileExists(t, filepath.Join(dir, "config", "settings.json"))
	})
}

func TestSaveWritesWholeDocument(t *testing.T) {
	m := NewManager(t.TempDir())

	require.NoError(t, m.Update("workspace", func(doc *Document) error {
		return doc.SetValue("folderPath", "/notes")
	}))

	data, err := os.ReadFile(m.FilePath("workspace"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"folderPath": "/notes"}`, string(data))

	// No temp files are left behind
	entries, err := os.ReadDir(m.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSetValueRejectsUnserializable(t *testing.T) {
	m := NewManager(t.TempDir())
	doc, err := m.Open("settings")
	require.NoError(t, err)

	err = doc.SetValue("bad", make(chan int))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeSerialization))
}

func TestOpenMalformedFile(t *testing.T) {
	m := NewManager(t.TempDir())
	require.NoError(t, os.WriteFile(m.FilePath("settings"), []byte(`[1, 2, 3]`), 0644))

	_, err := m.Open("settings")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeSerialization))
}

func TestOpenEmptyFile(t *testing.T) {
	m := NewManager(t.TempDir())
	require.NoError(t, os.WriteFile(m.FilePath("settings"), []byte("  \n"), 0644))

	doc, err := m.Open("settings")
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Len())
	assert.True(t, doc.Exists())
}

func TestOpenWithoutConfigDir(t *testing.T) {
	m := NewManager("")
	_, err := m.Open("settings")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigDirUnavailable))
}

func TestOpenUncreatableConfigDir(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	m := NewManager(filepath.Join(blocker, "config"))
	_, err := m.Open("settings")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigDirUnavailable))
}

func TestOpenRejectsPathLikeNames(t *testing.T) {
	m := NewManager(t.TempDir())
	_, err := m.Open("../escape")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestUpdateSkipsSaveOnError(t *testing.T) {
	m := NewManager(t.TempDir())
	boom := errors.InvalidInput("boom")

	err := m.Update("settings", func(doc *Document) error {
		doc.Set("theme", json.RawMessage(`"dark"`))
		return boom
	})
	assert.Equal(t, boom, err)

	_, statErr := os.Stat(m.FilePath("settings"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	m := NewManager(t.TempDir())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.Update("counter", func(doc *Document) error {
				var n int
				if _, err := doc.Decode("n", &n); err != nil {
					return err
				}
				return doc.SetValue("n", n+1)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var n int
	require.NoError(t, m.View("counter", func(doc *Document) error {
		_, err := doc.Decode("n", &n)
		return err
	}))
	assert.Equal(t, 20, n)
}

func TestRemove(t *testing.T) {
	m := NewManager(t.TempDir())
	require.NoError(t, m.Update("s3_config", func(doc *Document) error {
		return doc.SetValue("bucket_name", "b")
	}))
	assert.FileExists(t, m.FilePath("s3_config"))

	require.NoError(t, m.Remove("s3_config"))
	assert.NoFileExists(t, m.FilePath("s3_config"))

	// Removing again is fine
	require.NoError(t, m.Remove("s3_config"))
}
