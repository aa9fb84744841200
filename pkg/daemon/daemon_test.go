package daemon

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/grovetools/scribe/config"
	"github.com/grovetools/scribe/internal/daemon/events"
	"github.com/grovetools/scribe/internal/daemon/server"
	"github.com/grovetools/scribe/logging"
	"github.com/grovetools/scribe/pkg/commands"
	"github.com/grovetools/scribe/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) *commands.Registry {
	t.Helper()
	return commands.NewWithServices(commands.NewServices(testutil.NewManager(t), config.Default()))
}

// startDaemon serves a registry on a fresh unix socket. Socket paths have a
// small length limit, so the directory is created under the system temp dir.
func startDaemon(t *testing.T) (string, *events.Hub) {
	t.Helper()
	dir, err := os.MkdirTemp("", "scribed")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	socket := filepath.Join(dir, "s.sock")

	hub := events.NewHub()
	srv := server.New(logging.NewLogger("daemon-test"), newRegistry(t), hub, server.Options{})
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(socket) }()

	require.Eventually(t, func() bool { return Reachable(socket) }, 3*time.Second, 10*time.Millisecond)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		assert.NoError(t, srv.Shutdown(ctx))
		assert.NoError(t, <-done)
		hub.Close()
	})
	return socket, hub
}

func TestLocalClient(t *testing.T) {
	c := NewLocalClient(newRegistry(t))
	defer c.Close()
	ctx := context.Background()

	assert.False(t, c.IsRunning())

	var theme map[string]interface{}
	require.NoError(t, InvokeValue(ctx, c, commands.CmdSaveSettings, map[string]interface{}{
		"settings": map[string]interface{}{"theme": "light"},
	}, nil))
	require.NoError(t, InvokeValue(ctx, c, commands.CmdGetSettings, nil, &theme))
	assert.Equal(t, "light", theme["theme"])

	infos, err := c.Commands(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, infos)

	_, err = c.StreamEvents(ctx)
	assert.ErrorIs(t, err, ErrStreamingUnavailable)
}

func TestInvokeValueCommandError(t *testing.T) {
	c := NewLocalClient(newRegistry(t))

	err := InvokeValue(context.Background(), c, commands.CmdSetCurrentFolderPath, map[string]string{}, nil)
	require.Error(t, err)
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, commands.CmdSetCurrentFolderPath, cmdErr.Command)
	assert.Contains(t, cmdErr.Message, "path")
}

func TestRemoteClient(t *testing.T) {
	socket, _ := startDaemon(t)

	c, err := NewRemoteClient(socket)
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	assert.True(t, c.IsRunning())

	resp, err := c.Invoke(ctx, commands.CmdSetCurrentFolderPath, json.RawMessage(`{"path":"/notes"}`))
	require.NoError(t, err)
	require.True(t, resp.OK(), resp.Error)

	var folder *string
	require.NoError(t, InvokeValue(ctx, c, commands.CmdGetCurrentFolderPath, nil, &folder))
	require.NotNil(t, folder)
	assert.Equal(t, "/notes", *folder)

	resp, err = c.Invoke(ctx, "missing", nil)
	require.NoError(t, err)
	assert.False(t, resp.OK())

	infos, err := c.Commands(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, infos)
}

func TestRemoteStreamEvents(t *testing.T) {
	socket, hub := startDaemon(t)

	c, err := NewRemoteClient(socket)
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := c.StreamEvents(ctx)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)
	hub.ConfigReloaded("scribe.yml")

	select {
	case e := <-ch:
		assert.Equal(t, events.ConfigReload, e.Type)
		assert.Equal(t, "scribe.yml", e.Name)
	case <-time.After(3 * time.Second):
		t.Fatal("no event received")
	}
}

func TestNewAtFallsBack(t *testing.T) {
	reg := newRegistry(t)
	built := false

	c, err := NewAt(filepath.Join(t.TempDir(), "none.sock"), func() (*commands.Registry, error) {
		built = true
		return reg, nil
	})
	require.NoError(t, err)
	assert.True(t, built)
	assert.IsType(t, &LocalClient{}, c)
}

func TestNewAtPrefersDaemon(t *testing.T) {
	socket, _ := startDaemon(t)

	c, err := NewAt(socket, func() (*commands.Registry, error) {
		t.Fatal("local registry built while daemon is up")
		return nil, nil
	})
	require.NoError(t, err)
	assert.IsType(t, &RemoteClient{}, c)
	assert.True(t, c.IsRunning())
}
