package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"skkime/internal/config"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}
	cmd.AddCommand(newConfigInitCommand(rootOpts))
	cmd.AddCommand(newConfigShowCommand(rootOpts))
	return cmd
}

func newConfigInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration unless the file exists",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.ConfigPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				path = config.ConfigPath()
			}
			_, created, err := config.LoadOrCreate(path)
			if err != nil {
				return err
			}
			result := struct {
				Path    string `json:"path"`
				Created bool   `json:"created"`
			}{path, created}
			return rootOpts.output(cmd.OutOrStdout(), result, func(w io.Writer) {
				if created {
					fmt.Fprintf(w, "%s: created\n", path)
				} else {
					fmt.Fprintf(w, "%s: exists\n", path)
				}
			})
		},
	}
}

func newConfigShowCommand(rootOpts *RootOptions) *cobra.Command {
	var as string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch as {
			case "toml", "json", "yaml":
			default:
				return fmt.Errorf("invalid encoding %q: must be toml, json or yaml", as)
			}
			data, err := rootOpts.cfg.Marshal("." + as)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&as, "as", "toml", "encoding (toml|json|yaml)")
	return cmd
}
