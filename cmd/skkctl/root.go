package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"skkime/internal/config"
	"skkime/internal/logging"
	"skkime/internal/metrics"
)

// RootOptions holds global flags and the state every subcommand shares
// once the root has loaded configuration.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string

	cfg     *config.Config
	logger  *logging.Logger
	metrics *metrics.EngineMetrics
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the skkctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "skkctl",
		Short: "skkctl - SKK dictionary and conversion tool",
		Long: `skkctl manages SKK dictionaries and drives the conversion engine
from the command line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.setup(cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logger != nil {
				return opts.logger.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging to stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewLookupCommand(opts))
	cmd.AddCommand(NewCompleteCommand(opts))
	cmd.AddCommand(NewUserCommand(opts))
	cmd.AddCommand(NewTypeCommand(opts))
	cmd.AddCommand(NewShellCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// setup loads configuration and installs the process logger.
func (o *RootOptions) setup(stderr io.Writer) error {
	path := o.ConfigPath
	if path == "" {
		path = config.FindConfigFile()
	}
	o.ConfigPath = path

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg

	lc, err := logging.ConfigFrom(cfg.Logging)
	if err != nil {
		return err
	}
	if o.Verbose {
		lc.Level = logging.LevelDebug
		lc.Writer = stderr
	} else if lc.Output == "file" {
		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}
	}
	logger, err := logging.New(lc)
	if err != nil {
		return err
	}
	logging.SetDefault(logger)
	o.logger = logger
	o.metrics = metrics.NewEngineMetrics(metrics.NewRegistry("skkime", ""))
	return nil
}

func (o *RootOptions) log(component string) *slog.Logger {
	return o.logger.WithComponent(component).Logger
}

// output writes v as JSON or through text when the format is text.
func (o *RootOptions) output(w io.Writer, v any, text func(io.Writer)) error {
	if o.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	}
	text(w)
	return nil
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
