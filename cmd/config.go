package cmd

import (
	"fmt"

	"github.com/grovetools/scribe/cli"
	"github.com/grovetools/scribe/config"
	"github.com/grovetools/scribe/pkg/paths"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func NewConfigCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Display the effective configuration",
		Long: `Shows the configuration scribe runs with: the file found in the config
directory (or given with --config) with every default applied.

Examples:
  scribe config
  scribe config --format toml
  scribe config --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)

			source := opts.ConfigFile
			if source == "" {
				if found, err := config.FindConfigFile(paths.ConfigDir()); err == nil {
					source = found
				}
			}

			cfg, err := cli.LoadConfig(opts)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if opts.JSONOutput {
				format = "json"
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				return cli.PrintJSON(out, cfg)
			case "toml":
				data, err := toml.Marshal(cfg)
				if err != nil {
					return err
				}
				printSource(cmd, source)
				_, err = out.Write(data)
				return err
			case "yaml", "":
				data, err := yaml.Marshal(cfg)
				if err != nil {
					return err
				}
				printSource(cmd, source)
				_, err = out.Write(data)
				return err
			default:
				return cli.UsageErrorf("unknown format %q: yaml, toml, or json", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml, toml, or json")
	return cmd
}

func printSource(cmd *cobra.Command, source string) {
	if source == "" {
		source = "defaults (no config file)"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "# Source: %s\n", source)
}
