package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"skkime/internal/dict"
)

// NewUserCommand creates the user dictionary command group.
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Edit the user dictionary",
	}
	cmd.AddCommand(newUserEditCommand(rootOpts, "add", "Add a candidate, or move it to the front"))
	cmd.AddCommand(newUserEditCommand(rootOpts, "remove", "Remove a candidate"))
	return cmd
}

func newUserEditCommand(rootOpts *RootOptions, op, short string) *cobra.Command {
	var okuri, annotation string

	cmd := &cobra.Command{
		Use:   op + " <reading> <candidate>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			candidate := dict.Escape(args[1])
			if annotation != "" {
				candidate += ";" + annotation
			}
			return runUserEdit(cmd, rootOpts, op, args[0], candidate, okuri)
		},
	}

	cmd.Flags().StringVar(&okuri, "okuri", "", "okurigana the candidate is recorded under")
	cmd.Flags().StringVar(&annotation, "annotation", "", "annotation shown next to the candidate")
	return cmd
}

func runUserEdit(cmd *cobra.Command, opts *RootOptions, op, reading, candidate, okuri string) error {
	cfg := opts.cfg.Dictionary
	u, err := dict.OpenUser(cfg.UserPath, dict.Options{
		LockPoll:    cfg.LockPoll(),
		BusyTimeout: cfg.BusyTimeout(),
		Logger:      opts.log("dict"),
	})
	if err != nil {
		return err
	}
	defer u.Close()

	switch op {
	case "add":
		err = u.AddEntry(reading, candidate, okuri)
	case "remove":
		err = u.RemoveEntry(reading, candidate, okuri)
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, reading, err)
	}

	entry, _ := u.GetEntry(reading)
	value := ""
	if entry != nil {
		value = entry.String()
	}
	result := struct {
		Reading string `json:"reading"`
		Entry   string `json:"entry"`
	}{reading, value}

	return opts.output(cmd.OutOrStdout(), result, func(w io.Writer) {
		if value == "" {
			fmt.Fprintf(w, "%s: removed\n", reading)
			return
		}
		fmt.Fprintf(w, "%s %s\n", reading, value)
	})
}
