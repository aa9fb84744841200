package cmd

import (
	"fmt"

	"github.com/grovetools/scribe/config"
	"github.com/grovetools/scribe/pkg/settings"
	"github.com/spf13/cobra"
)

// NewSchemaCmd creates the `schema` command.
func NewSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print JSON schemas",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "settings",
		Short: "Print the schema save_settings validates against",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := settings.Schema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the schema of scribe.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	})

	return cmd
}
