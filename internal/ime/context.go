package ime

import "skkime/internal/romaji"

// Registration is one in-flight "register a new word" session. Frames
// stack when a conversion started during registration finds no candidate.
type Registration struct {
	Key       string
	Okurigana string
	Entry     string

	// state to return to when the frame is cancelled: Kanji or Abbrev
	reading State
}

// label is the reading shown in the registration prompt.
func (r *Registration) label() string {
	if r.Okurigana == "" {
		return r.Key
	}
	return romaji.TrimLastRune(r.Key) + "*" + r.Okurigana
}

// LastConversion records the most recent pick so that the committed text
// can be turned back into a candidate selection.
type LastConversion struct {
	Committed  string
	Candidates []string
	Index      int
	DictKey    string
	KanjiKey   string
	Okurigana  string
	Numbers    []string
	reading    State

	// learned is set when the pick was written to the user dictionary and
	// must be rolled back before re-converting.
	learned bool
}

// EngineContext is the mutable state shared by every State. Exactly one
// goroutine touches it at a time, under the Engine mutex.
type EngineContext struct {
	State State

	// KanaMode is the plain kana state the engine returns to after a
	// conversion ends.
	KanaMode State

	// Composing holds Latin input not yet resolved to kana. It is always
	// empty or a prefix of some romaji table key.
	Composing string

	// KanjiKey is the reading typed so far. While okurigana is pending it
	// ends with the okuri consonant, as in "おくr".
	KanjiKey string

	// Okurigana is the inflection tail split off the reading.
	Okurigana string

	// Candidates and Index hold completion suggestions in reading and
	// ASCII states and conversion candidates in Choose and Narrowing.
	Candidates []string
	Index      int

	// DictKey is the key actually looked up, which differs from KanjiKey
	// when digits were replaced by the numeral placeholder.
	DictKey string
	Numbers []string

	// reading is where cancelling a conversion returns to.
	reading State

	// Narrowing scratch: the unfiltered list, the hint reading and the
	// hint's unresolved romaji.
	original      []string
	hint          string
	hintComposing string

	// word is the ASCII word under the cursor in ASCII state.
	word string

	Registrations []*Registration
	Last          *LastConversion
}

func newContext() *EngineContext {
	return &EngineContext{State: Hiragana, KanaMode: Hiragana, Index: -1}
}

// registering reports whether a registration frame is open.
func (c *EngineContext) registering() bool {
	return len(c.Registrations) > 0
}

func (c *EngineContext) topRegistration() *Registration {
	if len(c.Registrations) == 0 {
		return nil
	}
	return c.Registrations[len(c.Registrations)-1]
}

func (c *EngineContext) popRegistration() *Registration {
	r := c.topRegistration()
	if r != nil {
		c.Registrations = c.Registrations[:len(c.Registrations)-1]
	}
	return r
}

// clearConversion drops everything tied to the current reading.
func (c *EngineContext) clearConversion() {
	c.Composing = ""
	c.KanjiKey = ""
	c.Okurigana = ""
	c.Candidates = nil
	c.Index = -1
	c.DictKey = ""
	c.Numbers = nil
	c.original = nil
	c.hint = ""
	c.hintComposing = ""
}

// currentCandidate returns the selected candidate, if any.
func (c *EngineContext) currentCandidate() (string, bool) {
	if c.Index < 0 || c.Index >= len(c.Candidates) {
		return "", false
	}
	return c.Candidates[c.Index], true
}

// readingWithOkurigana rebuilds the reading as typed, replacing the okuri
// consonant with the okurigana itself.
func (c *EngineContext) readingWithOkurigana() string {
	if c.Okurigana == "" {
		return c.KanjiKey
	}
	return romaji.TrimLastRune(c.KanjiKey) + c.Okurigana
}

// finishComposing resolves a dangling "n" to "ん" and discards any other
// unresolved romaji.
func (c *EngineContext) finishComposing() string {
	out := ""
	if c.Composing == "n" {
		out = "ん"
	}
	c.Composing = ""
	return out
}

func copyStrings(s []string) []string {
	return append([]string(nil), s...)
}
