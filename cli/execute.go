package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Execute runs root and reports any error through ErrorHandler. It returns
// the process exit code.
func Execute(root *cobra.Command) int {
	ApplyStyledHelpRecursive(root)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	cmd, err := root.ExecuteC()
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*ExitError); ok {
		return exitErr.Code
	}

	if cmd == nil {
		cmd = root
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	if IsUsageError(err) {
		PrintError(root.ErrOrStderr(), cmd, err)
	} else {
		NewErrorHandler(verbose, root.ErrOrStderr()).Handle(err)
	}
	return 1
}

// ExitError carries a non-zero exit code without printing anything.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// IsUsageError reports whether err came from argument or flag parsing.
func IsUsageError(err error) bool {
	_, ok := err.(usageError)
	return ok
}

type usageError struct{ error }

// UsageErrorf returns an error that Execute prints with a help hint.
func UsageErrorf(format string, args ...interface{}) error {
	return usageError{fmt.Errorf(format, args...)}
}

// PrintJSON writes v as indented JSON followed by a newline.
func PrintJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
