package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"skkime/internal/dict"
)

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	var dst string

	cmd := &cobra.Command{
		Use:   "import <file.txt>",
		Short: "Import an SKK text dictionary",
		Long: `Import an SKK text dictionary (EUC-JP or UTF-8) into a dictionary
database. Entries already present are merged. The destination defaults to
the first configured static dictionary.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, rootOpts, args[0], dst)
		},
	}

	cmd.Flags().StringVarP(&dst, "output", "o", "", "destination database")
	return cmd
}

func runImport(cmd *cobra.Command, opts *RootOptions, src, dst string) error {
	if dst == "" {
		if len(opts.cfg.Dictionary.Paths) == 0 {
			return fmt.Errorf("no destination: pass --output or configure dictionary.paths")
		}
		dst = opts.cfg.Dictionary.Paths[0]
	}

	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	stats, err := dict.Import(cmd.Context(), dst, f, dict.Options{
		BusyTimeout: opts.cfg.Dictionary.BusyTimeout(),
		Logger:      opts.log("dict"),
	})
	if err != nil {
		return fmt.Errorf("import %s: %w", src, err)
	}

	result := struct {
		Path     string `json:"path"`
		Lines    int    `json:"lines"`
		Entries  int    `json:"entries"`
		Skipped  int    `json:"skipped"`
		Encoding string `json:"encoding"`
	}{dst, stats.Lines, stats.Entries, stats.Skipped, stats.Encoding}

	return opts.output(cmd.OutOrStdout(), result, func(w io.Writer) {
		fmt.Fprintf(w, "%s: %d entries from %d lines (%d skipped, %s)\n",
			dst, stats.Entries, stats.Lines, stats.Skipped, stats.Encoding)
	})
}

// NewLookupCommand creates the lookup command.
func NewLookupCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <reading>",
		Short: "Show the entry for a reading in every dictionary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd, rootOpts, args[0])
		},
	}
}

type lookupHit struct {
	Source string `json:"source"`
	Entry  string `json:"entry"`
}

func runLookup(cmd *cobra.Command, opts *RootOptions, reading string) error {
	d, err := openDictionaries(opts.cfg.Dictionary, opts.log("dict"))
	if err != nil {
		return err
	}
	defer d.Close()

	var hits []lookupHit
	if e, ok := d.user.GetEntry(reading); ok {
		hits = append(hits, lookupHit{Source: d.user.Path(), Entry: e.String()})
	}
	for _, s := range d.static {
		if e, ok := s.GetEntry(reading); ok {
			hits = append(hits, lookupHit{Source: s.Path(), Entry: e.String()})
		}
	}

	return opts.output(cmd.OutOrStdout(), hits, func(w io.Writer) {
		if len(hits) == 0 {
			fmt.Fprintf(w, "%s: not found\n", reading)
			return
		}
		for _, h := range hits {
			fmt.Fprintf(w, "%s\t%s %s\n", h.Source, reading, h.Entry)
		}
	})
}

// NewCompleteCommand creates the complete command.
func NewCompleteCommand(rootOpts *RootOptions) *cobra.Command {
	var ascii bool

	cmd := &cobra.Command{
		Use:   "complete <prefix>",
		Short: "List completions for a prefix",
		Long: `List the readings that complete a prefix, user dictionary first. With
--ascii, list the most frequent words from the ASCII dictionary.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComplete(cmd, rootOpts, args[0], ascii)
		},
	}

	cmd.Flags().BoolVar(&ascii, "ascii", false, "complete from the ASCII word dictionary")
	return cmd
}

func runComplete(cmd *cobra.Command, opts *RootOptions, prefix string, ascii bool) error {
	d, err := openDictionaries(opts.cfg.Dictionary, opts.log("dict"))
	if err != nil {
		return err
	}
	defer d.Close()

	var sources []dict.Dictionary
	if ascii {
		if d.ascii == nil {
			return fmt.Errorf("no ASCII dictionary configured")
		}
		sources = []dict.Dictionary{d.ascii}
	} else {
		sources = d.lookupOrder()
	}

	var keys []string
	seen := make(map[string]bool)
	for _, src := range sources {
		found, err := src.FindKeys(cmd.Context(), prefix)
		if err != nil {
			return err
		}
		for _, k := range found {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}

	return opts.output(cmd.OutOrStdout(), keys, func(w io.Writer) {
		for _, k := range keys {
			fmt.Fprintln(w, k)
		}
	})
}
