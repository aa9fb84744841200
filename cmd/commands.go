package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/scribe/cli"
	"github.com/spf13/cobra"
)

// NewCommandsCmd creates the `commands` command.
func NewCommandsCmd() *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "commands",
		Short: "List the commands the front-end can invoke",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)

			client, err := newClient(opts, local)
			if err != nil {
				return err
			}
			defer client.Close()

			infos, err := client.Commands(context.Background())
			if err != nil {
				return err
			}

			if opts.JSONOutput {
				return cli.PrintJSON(cmd.OutOrStdout(), infos)
			}

			t := cli.DefaultTheme
			name := lipgloss.NewStyle().Bold(true).Foreground(t.Colors.Blue)
			maxLen := 0
			for _, info := range infos {
				if len(info.Name) > maxLen {
					maxLen = len(info.Name)
				}
			}
			for _, info := range infos {
				padding := strings.Repeat(" ", maxLen-len(info.Name))
				line := fmt.Sprintf("%s%s  %s", name.Render(info.Name), padding, info.Description)
				if len(info.Args) > 0 {
					line += " " + t.Muted.Render("("+strings.Join(info.Args, ", ")+")")
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "List this binary's commands even if the daemon is up")
	return cmd
}
