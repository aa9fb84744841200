package files

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/grovetools/scribe/errors"
)

// FolderPicker asks the user to choose a folder. ok is false when the user
// dismissed the prompt.
type FolderPicker interface {
	PickFolder(ctx context.Context) (path string, ok bool, err error)
}

// Executor creates exec.Cmd instances, so tests can substitute the command
// that is actually run.
type Executor interface {
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// RealExecutor runs commands through os/exec.
type RealExecutor struct{}

// CommandContext creates a standard context-aware exec.Cmd.
func (e *RealExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}

// ExecPicker runs an external dialog command that prints the chosen folder
// on stdout, e.g. "zenity --file-selection --directory".
type ExecPicker struct {
	Argv     []string
	Executor Executor
}

// NewExecPicker creates a picker for argv.
func NewExecPicker(argv []string) *ExecPicker {
	return &ExecPicker{Argv: argv, Executor: &RealExecutor{}}
}

// PickFolder runs the command. A non-zero exit or empty output counts as
// cancelled; failing to start the command is an error.
func (p *ExecPicker) PickFolder(ctx context.Context) (string, bool, error) {
	if len(p.Argv) == 0 {
		return "", false, errors.InvalidInput("no folder picker command configured")
	}

	var stdout, stderr bytes.Buffer
	cmd := p.Executor.CommandContext(ctx, p.Argv[0], p.Argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return "", false, nil
		}
		return "", false, errors.IOError("run folder picker", p.Argv[0], err)
	}

	path := strings.TrimSpace(stdout.String())
	if path == "" {
		return "", false, nil
	}
	// Dialogs print one line; keep the first.
	if i := strings.IndexByte(path, '\n'); i >= 0 {
		path = strings.TrimSpace(path[:i])
	}
	return path, true, nil
}

// NoPicker is used when no dialog is available. It always cancels.
type NoPicker struct{}

// PickFolder always reports cancellation.
func (NoPicker) PickFolder(context.Context) (string, bool, error) {
	return "", false, nil
}

// PickerFor returns an ExecPicker for argv, or NoPicker when argv is empty.
func PickerFor(argv []string) FolderPicker {
	if len(argv) == 0 {
		return NoPicker{}
	}
	return NewExecPicker(argv)
}
