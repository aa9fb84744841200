package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/grovetools/scribe/cli"
	"github.com/grovetools/scribe/config"
	"github.com/grovetools/scribe/pkg/commands"
	"github.com/grovetools/scribe/pkg/daemon"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewInvokeCmd creates the `invoke` command.
func NewInvokeCmd() *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "invoke <command> [json-args]",
		Short: "Run a command as the front-end would",
		Long: `Runs one registry command and prints its JSON result. Arguments are a
JSON object, given inline or piped on stdin. The running daemon is used
when reachable, otherwise the command runs in this process.

Examples:
  scribe invoke get_settings
  scribe invoke set_current_folder_path '{"path":"/home/me/notes"}'
  echo '{"settings":{"theme":"dark"}}' | scribe invoke save_settings
  scribe invoke load_s3_config --local`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			logger := cli.GetLogger(cmd)

			raw, err := readInvokeArgs(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			client, err := newClient(opts, local)
			if err != nil {
				return err
			}
			defer client.Close()
			logger.WithField("daemon", client.IsRunning()).Debugf("Invoking %s", args[0])

			resp, err := client.Invoke(context.Background(), args[0], raw)
			if err != nil {
				return err
			}

			if opts.JSONOutput {
				if err := cli.PrintJSON(cmd.OutOrStdout(), resp); err != nil {
					return err
				}
				if !resp.OK() {
					return &cli.ExitError{Code: 1}
				}
				return nil
			}

			if !resp.OK() {
				return &daemon.CommandError{Command: args[0], Message: resp.Error}
			}
			return printResult(cmd.OutOrStdout(), resp.Result)
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "Run in this process even if the daemon is up")
	return cmd
}

// readInvokeArgs returns the JSON args from the second positional argument,
// or from stdin when it is piped.
func readInvokeArgs(args []string, stdin io.Reader) (json.RawMessage, error) {
	var raw []byte
	if len(args) == 2 {
		raw = []byte(args[1])
	} else if f, ok := stdin.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read arguments from stdin: %w", err)
		}
		raw = data
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, cli.UsageErrorf("arguments are not valid JSON")
	}
	return raw, nil
}

// newClient returns a daemon client, or a local one when forced or when
// an explicit config file must be honoured.
func newClient(opts cli.CommandOptions, local bool) (daemon.Client, error) {
	build := func() (*commands.Registry, error) {
		cfg, err := cli.LoadConfig(opts)
		if err != nil {
			return nil, err
		}
		return newRegistry(cfg), nil
	}

	if local || opts.ConfigFile != "" {
		reg, err := build()
		if err != nil {
			return nil, err
		}
		return daemon.NewLocalClient(reg), nil
	}

	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, err
	}
	return daemon.NewAt(socketPath(cfg), build)
}

func printResult(w io.Writer, result json.RawMessage) error {
	if len(result) == 0 {
		result = json.RawMessage("null")
	}
	var out bytes.Buffer
	if err := json.Indent(&out, result, "", "  "); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, out.String())
	return err
}
