package daemon

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/grovetools/scribe/internal/daemon/events"
	"github.com/grovetools/scribe/pkg/commands"
)

// ErrStreamingUnavailable is returned by LocalClient.StreamEvents.
var ErrStreamingUnavailable = errors.New("event streaming requires the scribe daemon; start it with 'scribe serve start'")

// LocalClient implements Client by dispatching to a registry in-process.
// This is used when the daemon is not running, providing the same API.
type LocalClient struct {
	registry *commands.Registry
}

// NewLocalClient creates a LocalClient over registry.
func NewLocalClient(registry *commands.Registry) *LocalClient {
	return &LocalClient{registry: registry}
}

// Invoke runs the command in this process.
func (c *LocalClient) Invoke(ctx context.Context, command string, args json.RawMessage) (commands.Response, error) {
	return c.registry.Invoke(ctx, command, args), nil
}

// Commands describes the registry's commands.
func (c *LocalClient) Commands(ctx context.Context) ([]commands.Info, error) {
	return c.registry.Describe(), nil
}

// StreamEvents returns an error for LocalClient since streaming is only available via daemon.
func (c *LocalClient) StreamEvents(ctx context.Context) (<-chan events.Event, error) {
	return nil, ErrStreamingUnavailable
}

// IsRunning returns false since this is the local fallback client.
func (c *LocalClient) IsRunning() bool {
	return false
}

// Close is a no-op for LocalClient.
func (c *LocalClient) Close() error {
	return nil
}

// Ensure LocalClient implements Client interface.
var _ Client = (*LocalClient)(nil)
