package cmd

import (
	"github.com/grovetools/scribe/cli"
	"github.com/grovetools/scribe/pkg/paths"
	"github.com/grovetools/scribe/state"
	"github.com/spf13/cobra"
)

// PathsOutput represents the paths used by scribe.
type PathsOutput struct {
	ConfigDir     string `json:"config_dir"`
	StateDir      string `json:"state_dir"`
	LogDir        string `json:"log_dir"`
	Socket        string `json:"socket"`
	PidFile       string `json:"pid_file"`
	SettingsFile  string `json:"settings_file"`
	WorkspaceFile string `json:"workspace_file"`
	S3ConfigFile  string `json:"s3_config_file"`
}

func NewPathsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Print the paths used by scribe",
		Long: `Print the paths used by scribe as JSON.

SCRIBE_HOME relocates everything under one directory; otherwise the XDG
base directories are used:
- config_dir: scribe.yml and the stores (settings, workspace, s3_config)
- state_dir: logs and the daemon pid file
- socket: the daemon's unix socket`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := state.DefaultManager()
			output := PathsOutput{
				ConfigDir:     paths.ConfigDir(),
				StateDir:      paths.StateDir(),
				LogDir:        paths.LogDir(),
				Socket:        paths.SocketPath(),
				PidFile:       paths.PidFilePath(),
				SettingsFile:  mgr.FilePath(state.SettingsStore),
				WorkspaceFile: mgr.FilePath(state.WorkspaceStore),
				S3ConfigFile:  mgr.FilePath(state.S3ConfigStore),
			}
			return cli.PrintJSON(cmd.OutOrStdout(), output)
		},
	}

	return cmd
}
