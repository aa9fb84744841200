package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grovetools/scribe/logging"
	"github.com/grovetools/scribe/pkg/paths"
	"github.com/grovetools/scribe/state"
	"github.com/stretchr/testify/require"
)

// SetupConfigHome points SCRIBE_HOME at a temporary directory for the
// duration of the test and returns it. Cached loggers are dropped so they
// pick up the new location.
func SetupConfigHome(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("SCRIBE_HOME", home)
	t.Setenv("SCRIBE_LOG_LEVEL", "")
	logging.Reset()
	t.Cleanup(logging.Reset)
	return home
}

// NewManager sets up a temporary config home and returns a store manager
// rooted at its config directory.
func NewManager(t *testing.T) *state.Manager {
	t.Helper()

	SetupConfigHome(t)
	return state.NewManager(paths.ConfigDir())
}

// WriteTree creates files under root. Keys are slash-separated relative
// paths; a key ending in "/" creates an empty directory.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if strings.HasSuffix(rel, "/") {
			require.NoError(t, os.MkdirAll(p, 0755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
}

// RandomString generates a random string of the specified length
func RandomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)[:length]
}
