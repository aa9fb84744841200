package cli

import (
	"fmt"
	"io"

	"github.com/grovetools/scribe/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler writing to out
func NewErrorHandler(verbose bool, out io.Writer) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     out,
	}
}

// Handle prints a message for err based on its error code and returns err.
func (h *ErrorHandler) Handle(err error) error {
	t := DefaultTheme
	prefix := t.Error.Render("Error:")

	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(h.Out, "%s %s\n", prefix, errors.Flatten(err))
		fmt.Fprintln(h.Out, t.Muted.Render("Run 'scribe paths' to see where scribe.yml is looked up."))

	case errors.ErrCodeConfigInvalid:
		fmt.Fprintf(h.Out, "%s %s\n", prefix, errors.Flatten(err))
		fmt.Fprintln(h.Out, t.Muted.Render("Run 'scribe schema config' to print the accepted keys."))

	case errors.ErrCodeConfigMissing:
		fmt.Fprintf(h.Out, "%s %s\n", prefix, errors.Flatten(err))
		fmt.Fprintln(h.Out, t.Muted.Render("Store one with 'scribe invoke save_s3_config'."))

	case errors.ErrCodeUnknownCommand:
		fmt.Fprintf(h.Out, "%s %s\n", prefix, errors.Flatten(err))
		fmt.Fprintln(h.Out, t.Muted.Render("Run 'scribe commands' to list the available commands."))

	case errors.ErrCodeUserCancelled:
		fmt.Fprintln(h.Out, t.Warning.Render("Cancelled: ")+errors.Flatten(err))

	default:
		fmt.Fprintf(h.Out, "%s %s\n", prefix, errors.Flatten(err))
	}

	if h.Verbose {
		if scribeErr, ok := err.(*errors.ScribeError); ok {
			fmt.Fprintf(h.Out, "\nError details:\n%s\n", scribeErr.ToJSON())
		}
	}
	return err
}
