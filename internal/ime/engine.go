package ime

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"skkime/internal/config"
	"skkime/internal/dict"
	"skkime/internal/metrics"
	"skkime/internal/romaji"
)

// UserDictionary is the learning dictionary the engine writes picks and
// registrations to.
type UserDictionary interface {
	dict.Dictionary
	AddEntry(key, candidate, okuri string) error
	RollBack() error
}

// WordDictionary supplies ASCII word completions ranked by frequency.
type WordDictionary interface {
	FindKeys(ctx context.Context, prefix string) ([]string, error)
	Learn(word string) error
}

// Options configures a new Engine.
type Options struct {
	// Static dictionaries in lookup order.
	Static []dict.Dictionary
	// User is the learning dictionary. Nil disables learning and
	// registration persistence.
	User UserDictionary
	// ASCII is the word frequency dictionary used in ASCII state.
	ASCII WordDictionary

	Input  config.InputConfig
	Logger *slog.Logger
	// Metrics defaults to a set in the default registry.
	Metrics *metrics.EngineMetrics
}

// Engine runs the input state machine for one keyboard session. All
// methods are safe for concurrent use; key events are applied one at a
// time.
type Engine struct {
	mu   sync.Mutex
	id   string
	ctx  *EngineContext
	sink Sink

	static []dict.Dictionary
	user   UserDictionary
	ascii  WordDictionary
	input  config.InputConfig
	log    *slog.Logger
	m      *metrics.EngineMetrics

	shown  Icon
	closed bool

	// suggestion worker
	gen    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine creates an engine in Hiragana state that drives sink.
func NewEngine(sink Sink, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewEngineMetrics(nil)
	}
	id := uuid.Must(uuid.NewV7()).String()

	e := &Engine{
		id:     id,
		ctx:    newContext(),
		sink:   sink,
		static: opts.Static,
		user:   opts.User,
		ascii:  opts.ASCII,
		input:  opts.Input,
		log:    logger.With("component", "ime", "session", id),
		m:      m,
	}
	m.ActiveEngines.Inc()
	e.render()
	return e
}

// SessionID returns the identifier attached to this engine's log records.
func (e *Engine) SessionID() string {
	return e.id
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctx.State
}

// ApplyInput replaces the input settings, typically from a config reload.
func (e *Engine) ApplyInput(in config.InputConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.input = in
	if !in.Suggestions || !in.ASCIISuggestions {
		e.cancelSuggestions()
	}
}

// Close stops background work and hides the status icon. The engine must
// not be used afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.m.ActiveEngines.Dec()
	e.cancelSuggestions()
	e.sink.HideStatusIcon()
	e.mu.Unlock()

	e.wg.Wait()
}

// ProcessKey handles a printable code point or a control code.
func (e *Engine) ProcessKey(code int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.m.KeysTotal.Inc()
	e.processKey(code)
	e.render()
}

// HandleBackspace reports whether the engine consumed the key. When it
// returns false the host should delete text itself.
func (e *Engine) HandleBackspace() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	ok := e.handleBackspace()
	e.render()
	return ok
}

// HandleEnter reports whether the engine consumed the key.
func (e *Engine) HandleEnter() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	ok := e.handleEnter()
	e.render()
	return ok
}

// HandleCancel undoes one level of pending input, or re-converts the text
// committed by the last conversion when nothing is pending.
func (e *Engine) HandleCancel() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	ok := e.handleCancel()
	e.render()
	return ok
}

// HandleKanaKey handles the dedicated kana toggle key.
func (e *Engine) HandleKanaKey() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.handleKanaKey()
	e.render()
}

// PickCandidateViewManually picks entry i of the list currently shown,
// conversion candidates or suggestions alike.
func (e *Engine) PickCandidateViewManually(i int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	switch e.ctx.State {
	case Choose, Narrowing:
		e.pickCandidate(i, false)
	case Kanji, Abbrev:
		e.acceptSuggestion(i)
	case ASCII:
		e.acceptWord(i)
	}
	e.render()
}

// ChooseAdjacentCandidate moves the candidate cursor, wrapping at both ends.
func (e *Engine) ChooseAdjacentCandidate(forward bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || !e.ctx.State.isSelecting() {
		return
	}
	e.moveCursor(forward)
	e.render()
}

// ChooseAdjacentSuggestion moves the suggestion cursor, wrapping at both
// ends.
func (e *Engine) ChooseAdjacentSuggestion(forward bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := e.ctx
	if e.closed || !(c.State == Kanji || c.State == Abbrev || c.State == ASCII) {
		return
	}
	e.moveCursor(forward)
	e.render()
}

// ChangeLastChar applies a small/dakuten/handakuten edit to the most
// recent kana.
func (e *Engine) ChangeLastChar(t romaji.Transform) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.changeLastChar(t)
	e.render()
}

// ChangeToFlick reports whether switching to the flick layout makes sense
// in the current state, switching back to kana input when it does.
func (e *Engine) ChangeToFlick() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	c := e.ctx
	switch {
	case c.State.isKana():
		return true
	case c.State == ASCII || c.State == FullWidthAlnum || c.State == Emoji:
		c.word = ""
		e.cancelSuggestions()
		e.setState(c.KanaMode)
		e.render()
		return true
	}
	return false
}

func (e *Engine) processKey(code int) {
	switch e.ctx.State {
	case Hiragana, Katakana, HalfWidthKatakana:
		e.processKana(code)
	case Kanji:
		e.processKanji(code)
	case Okurigana:
		e.processOkurigana(code)
	case Abbrev:
		e.processAbbrev(code)
	case Choose:
		e.processChoose(code)
	case Narrowing:
		e.processNarrowing(code)
	case ASCII:
		e.processASCII(code)
	case FullWidthAlnum:
		e.processFullWidth(code)
	case Emoji:
		e.processEmoji(code)
	}
}

func (e *Engine) setState(s State) {
	if s.isKana() {
		e.ctx.KanaMode = s
	}
	e.ctx.State = s
}

// output sends finished text to the innermost registration frame, or to
// the host when no registration is open.
func (e *Engine) output(text string) {
	if text == "" {
		return
	}
	if r := e.ctx.topRegistration(); r != nil {
		r.Entry += text
		return
	}
	e.sink.CommitText(text)
}

// resetToKana drops the current conversion and returns to kana input.
func (e *Engine) resetToKana() {
	c := e.ctx
	e.cancelSuggestions()
	c.clearConversion()
	e.setState(c.KanaMode)
	e.sink.ClearCandidatesView()
}

func (e *Engine) moveCursor(forward bool) {
	c := e.ctx
	n := len(c.Candidates)
	if n == 0 {
		return
	}
	switch {
	case c.Index < 0 && forward:
		c.Index = 0
	case c.Index < 0:
		c.Index = n - 1
	case forward:
		c.Index = (c.Index + 1) % n
	default:
		c.Index = (c.Index - 1 + n) % n
	}
	e.sink.RequestChooseCandidate(c.Index)
}

// render pushes the composing text and status icon for the current state.
func (e *Engine) render() {
	e.sink.SetComposingText(e.composingText())
	if ic := icon(e.ctx.State, e.ctx.KanaMode); ic != e.shown {
		e.shown = ic
		e.sink.ShowStatusIcon(ic)
	}
}

func (e *Engine) composingText() string {
	c := e.ctx
	mode := c.KanaMode

	var body string
	switch c.State {
	case Kanji:
		body = "▽" + kanaTransform(mode, c.KanjiKey) + c.Composing
	case Abbrev:
		body = "▽" + c.KanjiKey
	case Okurigana:
		body = "▽" + kanaTransform(mode, romaji.TrimLastRune(c.KanjiKey)) + "*" +
			kanaTransform(mode, c.Okurigana) + c.Composing
	case Choose, Narrowing:
		if raw, ok := c.currentCandidate(); ok {
			body = "▼" + e.candidateText(raw)
		}
		if c.State == Narrowing {
			body += "［" + c.hint + c.hintComposing + "］"
		}
	case ASCII, FullWidthAlnum, Emoji:
	default:
		body = c.Composing
	}

	r := c.topRegistration()
	if r == nil {
		return body
	}
	depth := len(c.Registrations)
	prompt := strings.Repeat("[", depth) + "登録" + strings.Repeat("]", depth)
	return prompt + r.label() + "：" + r.Entry + body
}

// candidateText is what picking raw would commit, okurigana included.
func (e *Engine) candidateText(raw string) string {
	c := e.ctx
	return kanaTransform(c.KanaMode, DisplayCandidate(raw, c.Numbers)+c.Okurigana)
}

func runeCount(s string) int {
	return utf8.RuneCountInString(s)
}
