// Package commands maps command names invoked by the front-end to handlers.
//
// Every handler takes its arguments as a JSON object and returns a
// JSON-serializable result. Failures never cross the boundary as typed
// errors: Invoke flattens them into a human-readable string.
package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/grovetools/scribe/errors"
	"github.com/grovetools/scribe/logging"
	"github.com/grovetools/scribe/pkg/profiling"
	"github.com/sirupsen/logrus"
)

// Handler executes one command.
type Handler func(ctx context.Context, args json.RawMessage) (interface{}, error)

// Command describes a registered command.
type Command struct {
	Name        string
	Description string
	// Args lists the argument names, for help output.
	Args []string
	// Stores lists the store documents a successful call may change.
	Stores  []string
	Handler Handler
}

// Info is the serializable description of a command.
type Info struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Args        []string `json:"args,omitempty"`
	Mutates     []string `json:"mutates,omitempty"`
}

// Response is the outcome of one invocation. Exactly one of Result and
// Error is meaningful: Error is non-empty on failure.
type Response struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// OK reports whether the invocation succeeded.
func (r Response) OK() bool {
	return r.Error == ""
}

// Decode unmarshals the result into target.
func (r Response) Decode(target interface{}) error {
	if len(r.Result) == 0 {
		return json.Unmarshal([]byte("null"), target)
	}
	return json.Unmarshal(r.Result, target)
}

// Registry holds named commands.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
	logger   *logrus.Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
		logger:   logging.NewLogger("commands"),
	}
}

// Register adds cmd, replacing any command with the same name.
func (r *Registry) Register(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd.Name] = cmd
}

// Lookup returns the command registered under name.
func (r *Registry) Lookup(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Names returns the registered command names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns Info for every command, sorted by name.
func (r *Registry) Describe() []Info {
	names := r.Names()
	infos := make([]Info, 0, len(names))
	for _, name := range names {
		cmd, _ := r.Lookup(name)
		infos = append(infos, Info{
			Name:        cmd.Name,
			Description: cmd.Description,
			Args:        cmd.Args,
			Mutates:     cmd.Stores,
		})
	}
	return infos
}

// Call runs the named command and returns its typed result or error.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	cmd, ok := r.Lookup(name)
	if !ok {
		return nil, errors.UnknownCommand(name)
	}
	return cmd.Handler(ctx, args)
}

// Invoke runs the named command and serializes the outcome.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) Response {
	start := time.Now()
	span := profiling.Start("invoke " + name)
	result, err := r.Call(ctx, name, args)
	span.Stop()

	fields := logrus.Fields{
		"command":  name,
		"duration": time.Since(start).String(),
	}
	if err != nil {
		r.logger.WithFields(fields).WithField("code", errors.GetCode(err)).WithError(err).Debug("Command failed")
		return Response{Error: errors.Flatten(err)}
	}

	data, err := json.Marshal(result)
	if err != nil {
		serr := errors.Serialization("result of "+name, err)
		r.logger.WithFields(fields).WithError(serr).Warn("Command result not serializable")
		return Response{Error: errors.Flatten(serr)}
	}

	r.logger.WithFields(fields).Debug("Command completed")
	return Response{Result: data}
}

// decodeArgs unmarshals args into target. Missing or null args leave
// target untouched.
func decodeArgs(name string, args json.RawMessage, target interface{}) error {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, target); err != nil {
		return errors.Decode("invalid arguments for "+name, err).WithDetail("command", name)
	}
	return nil
}

func missingArg(command, arg string) error {
	return errors.InvalidInput("missing required argument '" + arg + "'").
		WithDetail("command", command).
		WithDetail("arg", arg)
}
