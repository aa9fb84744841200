// Package daemon provides a client for invoking scribe commands.
// It implements a transparent fallback pattern: if the daemon is running,
// commands go over its unix socket; if not, they are dispatched in-process.
package daemon

import (
	"context"
	"encoding/json"

	"github.com/grovetools/scribe/internal/daemon/events"
	"github.com/grovetools/scribe/pkg/commands"
)

// Client defines the interface for invoking commands.
// Both RemoteClient (socket) and LocalClient (in-process) implement it.
type Client interface {
	// Invoke runs a command. A command failure is reported in
	// Response.Error; the error return is for transport failures.
	Invoke(ctx context.Context, command string, args json.RawMessage) (commands.Response, error)

	// Commands describes the available commands.
	Commands(ctx context.Context) ([]commands.Info, error)

	// StreamEvents subscribes to store and config change events.
	// For LocalClient, this returns an error since streaming is only available via daemon.
	StreamEvents(ctx context.Context) (<-chan events.Event, error)

	// IsRunning returns true if the daemon is available and responding.
	IsRunning() bool

	// Close cleans up any resources used by the client.
	Close() error
}

// InvokeValue marshals args, invokes command, and decodes a successful
// result into out. A command failure becomes an error carrying the
// flattened message.
func InvokeValue(ctx context.Context, c Client, command string, args interface{}, out interface{}) error {
	var raw json.RawMessage
	if args != nil {
		data, err := json.Marshal(args)
		if err != nil {
			return err
		}
		raw = data
	}

	resp, err := c.Invoke(ctx, command, raw)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &CommandError{Command: command, Message: resp.Error}
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

// CommandError is a failure reported by a command.
type CommandError struct {
	Command string
	Message string
}

func (e *CommandError) Error() string {
	return e.Message
}
