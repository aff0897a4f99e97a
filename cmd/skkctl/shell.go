package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"skkime/internal/config"
	"skkime/internal/ime"
)

// NewShellCommand creates the shell command.
func NewShellCommand(rootOpts *RootOptions) *cobra.Command {
	var showMetrics bool

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Type into a long-lived engine, one key script per line",
		Long: `Read key scripts from standard input, one per line, and feed them to a
single engine. After each line the committed text and the composing text
are printed. The [input] section of the config file is applied live when
the file changes, and the user dictionary is reopened when another process
rewrites it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, rootOpts, showMetrics)
		},
	}

	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print engine metrics on exit")
	return cmd
}

func runShell(cmd *cobra.Command, opts *RootOptions, showMetrics bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	log := opts.log("shell")

	d, err := openDictionaries(opts.cfg.Dictionary, opts.log("dict"))
	if err != nil {
		return err
	}
	defer d.Close()

	// Registered after d.Close so the watch ends before the dictionaries do.
	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()

	if opts.cfg.Dictionary.Watch {
		if err := d.user.Watch(watchCtx, config.ReloadDebounce); err != nil {
			log.Warn("user dictionary watch unavailable", "error", err)
		}
	}

	rec := ime.NewRecorder()
	e := ime.NewEngine(rec, engineOptions(d, opts.cfg.Input, opts))
	defer e.Close()

	if opts.ConfigPath != "" {
		loader := config.NewLoader(opts.ConfigPath)
		if _, err := loader.Load(); err != nil {
			return err
		}
		loader.OnChange(func(cfg *config.Config) {
			log.Info("config reloaded", "learning", cfg.Input.Learning, "suggestions", cfg.Input.Suggestions)
			e.ApplyInput(cfg.Input)
		})
		if err := loader.Watch(); err != nil {
			log.Warn("config watch unavailable", "error", err)
		} else {
			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case err, ok := <-loader.Errors():
						if !ok {
							return
						}
						log.Error("config reload rejected", "error", err)
					}
				}
			}()
		}
		defer loader.Close()
	}

	if err := shellLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), e, rec); err != nil {
		return err
	}
	if showMetrics {
		return opts.metrics.Registry().WritePrometheus(cmd.OutOrStdout())
	}
	return nil
}

// shellLoop replays each input line and reports the field contents it
// left behind.
func shellLoop(ctx context.Context, in io.Reader, out io.Writer, e *ime.Engine, rec *ime.Recorder) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errc:
					return err
				default:
					return nil
				}
			}
			replay(e, parseKeys(line))
			fmt.Fprintf(out, "text %q compose %q state %s\n", rec.Text(), rec.Composing(), e.State())
		}
	}
}
