package daemon

import (
	"net"
	"os"
	"time"

	"github.com/grovetools/scribe/pkg/commands"
	"github.com/grovetools/scribe/pkg/paths"
)

// New returns a Client that will use the daemon if available,
// otherwise falls back to a LocalClient over the default registry.
//
// Callers don't need to know whether the daemon is running or not. The
// same API works in both modes.
func New() (Client, error) {
	return NewAt(paths.SocketPath(), commands.NewDefault)
}

// NewAt is New with an explicit socket path and local registry builder.
// The builder only runs when the daemon is unreachable.
func NewAt(socketPath string, local func() (*commands.Registry, error)) (Client, error) {
	if Reachable(socketPath) {
		if client, err := NewRemoteClient(socketPath); err == nil {
			return client, nil
		}
	}

	// Fallback: daemon not running, use local client
	registry, err := local()
	if err != nil {
		return nil, err
	}
	return NewLocalClient(registry), nil
}

// Reachable reports whether something accepts connections on socketPath.
func Reachable(socketPath string) bool {
	if _, err := os.Stat(socketPath); err != nil {
		return false
	}
	conn, err := net.DialTimeout("unix", socketPath, 100*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
