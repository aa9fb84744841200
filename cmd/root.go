// Package cmd implements the scribe command-line interface.
package cmd

import (
	"github.com/grovetools/scribe/cli"
	"github.com/grovetools/scribe/pkg/profiling"
	"github.com/grovetools/scribe/version"
	"github.com/spf13/cobra"
)

// NewRootCmd assembles the scribe command tree.
func NewRootCmd() *cobra.Command {
	root := cli.NewStandardCommand(
		"scribe",
		"Local backend for the scribe markdown editor",
	)
	root.Long = `Persists editor settings and workspace state, lists note folders, saves
pasted images, and uploads them to S3-compatible storage. The same commands
the editor front-end invokes are available here and through the daemon.`

	cli.SetVersionTemplate(root, version.GetInfo())
	profiling.Register(root, "scribe")

	root.AddCommand(cli.NewVersionCommand("scribe"))
	root.AddCommand(NewServeCmd())
	root.AddCommand(NewInvokeCmd())
	root.AddCommand(NewCommandsCmd())
	root.AddCommand(NewPathsCmd())
	root.AddCommand(NewConfigCmd())
	root.AddCommand(NewSchemaCmd())
	root.AddCommand(NewLogsCmd())

	return root
}
