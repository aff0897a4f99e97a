package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"skkime/internal/config"
	"skkime/internal/ime"
)

// keyEvent is one step of a key script: a code for ProcessKey or one of
// the dedicated host keys.
type keyEvent struct {
	code int
	name string
}

// namedKeys maps <name> tokens in a key script to host keys and control
// codes.
var namedKeys = map[string]keyEvent{
	"enter":      {name: "enter"},
	"bs":         {name: "bs"},
	"esc":        {name: "esc"},
	"kana":       {name: "kana"},
	"next":       {name: "next"},
	"prev":       {name: "prev"},
	"small":      {code: ime.CodeToSmall},
	"dakuten":    {code: ime.CodeToDakuten},
	"handakuten": {code: ime.CodeToHandakuten},
	"trans":      {code: ime.CodeToggleTrans},
	"shiftout":   {code: ime.CodeShiftOut},
	"case":       {code: ime.CodeToggleCase},
	"narrow":     {code: ime.CodeStartNarrowing},
	"full":       {code: ime.CodeFullWidth},
	"hankaku":    {code: ime.CodeKanaToggle},
	"ascii":      {code: ime.CodeToASCII},
	"zenkaku":    {code: ime.CodeToFullWidthAlnum},
	"emoji":      {code: ime.CodeToEmoji},
}

// parseKeys splits a key script into events. Plain characters are typed as
// they are; <name> tokens from namedKeys press a special key and <sN>
// accepts suggestion N. A "<" that starts no known token is typed
// literally.
func parseKeys(script string) []keyEvent {
	var out []keyEvent
	for len(script) > 0 {
		if script[0] == '<' {
			if end := strings.IndexByte(script, '>'); end > 1 {
				token := script[1:end]
				if ev, ok := namedKeys[token]; ok {
					out = append(out, ev)
					script = script[end+1:]
					continue
				}
				var n int
				if _, err := fmt.Sscanf(token, "s%d", &n); err == nil && n >= 0 {
					out = append(out, keyEvent{code: ime.SuggestionCode(n)})
					script = script[end+1:]
					continue
				}
			}
		}
		r := []rune(script)[0]
		out = append(out, keyEvent{code: int(r)})
		script = script[len(string(r)):]
	}
	return out
}

// replay feeds events to e.
func replay(e *ime.Engine, events []keyEvent) {
	for _, ev := range events {
		switch ev.name {
		case "enter":
			e.HandleEnter()
		case "bs":
			e.HandleBackspace()
		case "esc":
			e.HandleCancel()
		case "kana":
			e.HandleKanaKey()
		case "next":
			e.ChooseAdjacentCandidate(true)
		case "prev":
			e.ChooseAdjacentCandidate(false)
		default:
			e.ProcessKey(ev.code)
		}
	}
}

// NewTypeCommand creates the type command.
func NewTypeCommand(rootOpts *RootOptions) *cobra.Command {
	var transcript, showMetrics bool

	cmd := &cobra.Command{
		Use:   "type <keys>",
		Short: "Replay a key script through a fresh engine",
		Long: `Replay a key script through a fresh engine and print the committed
text. Uppercase letters start a reading, space converts, and named keys are
written in angle brackets: <enter> <bs> <esc> <kana> <next> <prev> <narrow>
<small> <dakuten> <handakuten> <full> <hankaku> <ascii> <zenkaku> <s0>...

Suggestions are disabled so that the output is deterministic. Picks are
learned into the user dictionary when learning is enabled.`,
		Example: `  skkctl type 'Kanji <enter>'
  skkctl type --transcript 'OkuRi<enter>'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runType(cmd, rootOpts, args[0], transcript, showMetrics)
		},
	}

	cmd.Flags().BoolVarP(&transcript, "transcript", "t", false, "print every call the engine makes on the host")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print engine metrics after the run")
	return cmd
}

func runType(cmd *cobra.Command, opts *RootOptions, script string, transcript, showMetrics bool) error {
	d, err := openDictionaries(opts.cfg.Dictionary, opts.log("dict"))
	if err != nil {
		return err
	}
	defer d.Close()

	input := opts.cfg.Input
	input.Suggestions = false
	input.ASCIISuggestions = false

	rec := ime.NewRecorder()
	e := ime.NewEngine(rec, engineOptions(d, input, opts))
	replay(e, parseKeys(script))
	composing := rec.Composing()
	state := e.State()
	e.Close()

	result := struct {
		Committed  string   `json:"committed"`
		Composing  string   `json:"composing,omitempty"`
		State      string   `json:"state"`
		Transcript []string       `json:"transcript,omitempty"`
		Metrics    map[string]any `json:"metrics,omitempty"`
	}{Committed: rec.Text(), Composing: composing, State: state.String()}
	if transcript {
		result.Transcript = strings.Split(strings.TrimSuffix(rec.Transcript(), "\n"), "\n")
	}
	if showMetrics {
		result.Metrics = opts.metrics.Registry().Snapshot()
	}

	return opts.output(cmd.OutOrStdout(), result, func(w io.Writer) {
		if transcript {
			io.WriteString(w, rec.Transcript())
		} else {
			fmt.Fprintln(w, result.Committed)
			if composing != "" {
				fmt.Fprintf(w, "(composing %s, %s)\n", composing, state)
			}
		}
		if showMetrics {
			opts.metrics.Registry().WritePrometheus(w)
		}
	})
}

func engineOptions(d *dictionaries, input config.InputConfig, opts *RootOptions) ime.Options {
	o := ime.Options{
		Static:  d.staticDicts(),
		User:    d.user,
		Input:   input,
		Logger:  opts.logger.Logger,
		Metrics: opts.metrics,
	}
	if d.ascii != nil {
		o.ASCII = d.ascii
	}
	return o
}
