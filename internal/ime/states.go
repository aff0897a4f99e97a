package ime

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"

	"skkime/internal/romaji"
)

// feedRomaji appends ch to the pending romaji in buf and returns whatever
// kana that finalises. A buffer that can no longer grow into a table key is
// dropped as a typo and ch is retried once on its own. Characters that
// start no table key pass through literally, except letters, which are
// dropped.
func feedRomaji(buf *string, ch rune) string {
	var out string
	if len(*buf) == 1 {
		if kana, ok := romaji.CheckSpecialConsonants(rune((*buf)[0]), ch); ok {
			out = kana
			*buf = ""
		}
	}
	for attempt := 0; attempt < 2; attempt++ {
		s := *buf + string(ch)
		if kana, ok := romaji.Convert(s); ok {
			*buf = ""
			return out + kana
		}
		if romaji.IsIntermediate(s) {
			*buf = s
			return out
		}
		if *buf == "" {
			if romaji.IsAlphabet(ch) {
				return out
			}
			return out + string(ch)
		}
		*buf = ""
	}
	return out
}

func transformFor(code int) (romaji.Transform, bool) {
	switch code {
	case CodeToggleTrans:
		return romaji.ToggleTrans, true
	case CodeToSmall:
		return romaji.ToSmall, true
	case CodeToDakuten:
		return romaji.ToDakuten, true
	case CodeToHandakuten:
		return romaji.ToHandakuten, true
	case CodeShiftOut:
		return romaji.ShiftOut, true
	}
	return 0, false
}

// switchMode handles the mode codes shared by every non-conversion state.
func (e *Engine) switchMode(code int) bool {
	c := e.ctx
	var next State
	switch code {
	case CodeToASCII:
		next = ASCII
	case CodeToFullWidthAlnum:
		next = FullWidthAlnum
	case CodeToEmoji:
		next = Emoji
	case CodeKanaToggle:
		next = HalfWidthKatakana
		if c.State == HalfWidthKatakana {
			next = Hiragana
		}
	default:
		return false
	}
	if c.State.isKana() {
		e.output(kanaTransform(c.KanaMode, c.finishComposing()))
	}
	c.word = ""
	e.cancelSuggestions()
	e.setState(next)
	return true
}

func (e *Engine) processKana(code int) {
	c := e.ctx
	if e.switchMode(code) {
		return
	}
	if t, ok := transformFor(code); ok {
		e.changeLastChar(t)
		return
	}
	if !isPrintable(code) {
		return
	}

	if c.Composing == "" {
		switch code {
		case 'l':
			e.setState(ASCII)
			return
		case 'L':
			e.setState(FullWidthAlnum)
			return
		case '/':
			e.setState(Abbrev)
			return
		}
	}

	// Shift starts a reading. A pending consonant carries over into it.
	if isUpper(code) {
		e.setState(Kanji)
		e.processKanji(toLower(code))
		return
	}

	if out := feedRomaji(&c.Composing, rune(code)); out != "" {
		e.output(kanaTransform(c.KanaMode, out))
	}
}

func (e *Engine) processKanji(code int) {
	c := e.ctx
	if t, ok := transformFor(code); ok {
		e.changeLastChar(t)
		return
	}
	if i, ok := suggestionIndex(code); ok {
		e.acceptSuggestion(i)
		return
	}
	if !isPrintable(code) {
		return
	}

	switch code {
	case ' ':
		pending := c.Composing
		c.KanjiKey += c.finishComposing()
		if s, ok := c.currentCandidate(); ok {
			c.KanjiKey = s
		}
		if c.KanjiKey != "" {
			e.conversionStart(Kanji)
			return
		}
		// Nothing to convert yet; keep the consonant.
		c.Composing = pending
		return
	case '>':
		if c.KanjiKey != "" {
			c.KanjiKey += c.finishComposing() + ">"
			e.conversionStart(Kanji)
			return
		}
	}

	if isUpper(code) && c.KanjiKey != "" {
		lower := rune(toLower(code))
		if romaji.IsVowel(lower) {
			consonant := lower
			if c.Composing != "" {
				consonant = rune(c.Composing[0])
			}
			kana := feedRomaji(&c.Composing, lower)
			if kana == "" {
				return
			}
			c.Composing = ""
			c.KanjiKey += string(consonant)
			c.Okurigana = kana
			e.conversionStart(Kanji)
			return
		}
		c.KanjiKey += c.finishComposing() + string(lower)
		c.Composing = string(lower)
		e.cancelSuggestions()
		e.setState(Okurigana)
		return
	}

	c.KanjiKey += feedRomaji(&c.Composing, rune(toLower(code)))
	e.requestSuggestions()
}

func (e *Engine) processOkurigana(code int) {
	c := e.ctx
	if t, ok := transformFor(code); ok {
		e.changeLastChar(t)
		return
	}
	if !isPrintable(code) {
		return
	}
	if code == ' ' {
		c.Composing = ""
		if c.Okurigana == "" {
			c.KanjiKey = romaji.TrimLastRune(c.KanjiKey)
		}
		e.conversionStart(Kanji)
		return
	}
	if !romaji.IsAlphabet(rune(code)) {
		return
	}

	out := feedRomaji(&c.Composing, rune(toLower(code)))
	if out == "" {
		return
	}
	c.Okurigana += out
	// っ and ん finish before the mora that follows them.
	if c.Composing == "" {
		e.conversionStart(Kanji)
	}
}

func (e *Engine) processAbbrev(code int) {
	c := e.ctx
	switch code {
	case CodeFullWidth:
		text := width.Widen.String(c.KanjiKey)
		e.resetToKana()
		e.output(text)
		return
	case CodeToggleCase:
		c.KanjiKey = toggleLastCase(c.KanjiKey)
		return
	}
	if i, ok := suggestionIndex(code); ok {
		e.acceptSuggestion(i)
		return
	}
	if !isPrintable(code) {
		return
	}
	if code == ' ' {
		if s, ok := c.currentCandidate(); ok {
			c.KanjiKey = s
		}
		if c.KanjiKey != "" {
			e.conversionStart(Abbrev)
		}
		return
	}
	c.KanjiKey += string(rune(code))
	e.requestSuggestions()
}

func (e *Engine) processChoose(code int) {
	c := e.ctx
	if code == CodeStartNarrowing {
		e.startNarrowing()
		return
	}
	if t, ok := transformFor(code); ok {
		e.changeLastChar(t)
		return
	}
	if i, ok := suggestionIndex(code); ok {
		e.pickCandidate(i, false)
		return
	}
	if !isPrintable(code) {
		return
	}

	switch code {
	case ' ':
		if c.Index+1 >= len(c.Candidates) {
			e.startRegistration(c.reading)
			return
		}
		c.Index++
		e.sink.RequestChooseCandidate(c.Index)
	case 'x':
		if c.Index <= 0 {
			e.cancelToReading()
			return
		}
		c.Index--
		e.sink.RequestChooseCandidate(c.Index)
	case '>':
		e.pickCandidate(c.Index, false)
		e.setState(Kanji)
		c.KanjiKey = ">"
	default:
		// Select and keep typing.
		e.pickCandidate(c.Index, false)
		e.processKey(code)
	}
}

func (e *Engine) processNarrowing(code int) {
	c := e.ctx
	if i, ok := suggestionIndex(code); ok {
		e.pickCandidate(i, false)
		return
	}
	if !isPrintable(code) {
		return
	}
	if code == ' ' {
		e.moveCursor(true)
		return
	}
	out := feedRomaji(&c.hintComposing, rune(toLower(code)))
	if out == "" {
		return
	}
	c.hint += out
	e.narrow()
}

func (e *Engine) processASCII(code int) {
	c := e.ctx
	if e.switchMode(code) {
		return
	}
	if i, ok := suggestionIndex(code); ok {
		e.acceptWord(i)
		return
	}
	if code == CodeToggleCase {
		last := e.sink.TextBeforeCursor(1)
		if toggled := toggleLastCase(last); toggled != last {
			e.sink.DeleteSurroundingText(1, 0)
			e.sink.CommitText(toggled)
			c.word = toggleLastCase(c.word)
		}
		return
	}
	if !isPrintable(code) {
		return
	}

	e.output(string(rune(code)))
	if romaji.IsAlphabet(rune(code)) {
		c.word += string(rune(code))
	} else {
		c.word = ""
	}
	e.requestSuggestions()
}

func (e *Engine) processFullWidth(code int) {
	if e.switchMode(code) || !isPrintable(code) {
		return
	}
	e.output(width.Widen.String(string(rune(code))))
}

func (e *Engine) processEmoji(code int) {
	if e.switchMode(code) || !isPrintable(code) {
		return
	}
	e.output(string(rune(code)))
}

func (e *Engine) handleBackspace() bool {
	c := e.ctx
	switch c.State {
	case Hiragana, Katakana, HalfWidthKatakana:
		if c.Composing != "" {
			c.Composing = romaji.TrimLastRune(c.Composing)
			return true
		}
		if r := c.topRegistration(); r != nil {
			r.Entry = romaji.TrimLastRune(r.Entry)
			return true
		}
		return false

	case Kanji, Abbrev:
		switch {
		case c.Composing != "":
			c.Composing = romaji.TrimLastRune(c.Composing)
		case c.KanjiKey != "":
			c.KanjiKey = romaji.TrimLastRune(c.KanjiKey)
		default:
			e.resetToKana()
			return true
		}
		e.requestSuggestions()
		return true

	case Okurigana:
		if c.Composing != "" {
			c.Composing = romaji.TrimLastRune(c.Composing)
		} else {
			c.Okurigana = romaji.TrimLastRune(c.Okurigana)
		}
		if c.Composing == "" && c.Okurigana == "" {
			c.KanjiKey = romaji.TrimLastRune(c.KanjiKey)
			e.setState(Kanji)
			e.requestSuggestions()
		}
		return true

	case Choose:
		e.pickCandidate(c.Index, true)
		return true

	case Narrowing:
		switch {
		case c.hintComposing != "":
			c.hintComposing = romaji.TrimLastRune(c.hintComposing)
		case c.hint != "":
			c.hint = romaji.TrimLastRune(c.hint)
			e.narrow()
		default:
			e.stopNarrowing()
		}
		return true

	case ASCII:
		if c.word != "" {
			c.word = romaji.TrimLastRune(c.word)
			e.requestSuggestions()
		}
		if r := c.topRegistration(); r != nil {
			r.Entry = romaji.TrimLastRune(r.Entry)
			return true
		}
		return false
	}

	if r := c.topRegistration(); r != nil {
		r.Entry = romaji.TrimLastRune(r.Entry)
		return true
	}
	return false
}

func (e *Engine) handleEnter() bool {
	c := e.ctx
	switch c.State {
	case Hiragana, Katakana, HalfWidthKatakana:
		consumed := c.Composing != ""
		e.output(kanaTransform(c.KanaMode, c.finishComposing()))
		if c.registering() {
			e.commitRegistration()
			return true
		}
		return consumed

	case Kanji, Okurigana:
		text := c.readingWithOkurigana()
		if c.State == Kanji {
			text += c.finishComposing()
		}
		text = kanaTransform(c.KanaMode, text)
		e.resetToKana()
		e.output(text)
		return true

	case Abbrev:
		text := c.KanjiKey
		e.resetToKana()
		e.output(text)
		return true

	case Choose, Narrowing:
		e.pickCandidate(c.Index, false)
		return true
	}

	if c.registering() {
		e.commitRegistration()
		return true
	}
	return false
}

func (e *Engine) handleCancel() bool {
	c := e.ctx
	switch c.State {
	case Hiragana, Katakana, HalfWidthKatakana:
		if c.Composing != "" {
			c.Composing = ""
			return true
		}
		if r := c.popRegistration(); r != nil {
			e.cancelRegistration(r)
			return true
		}
		return e.reconvert()

	case Kanji, Okurigana, Abbrev:
		e.resetToKana()
		return true

	case Choose:
		e.cancelToReading()
		return true

	case Narrowing:
		e.stopNarrowing()
		return true
	}

	if r := c.popRegistration(); r != nil {
		e.cancelRegistration(r)
		return true
	}
	return false
}

func (e *Engine) handleKanaKey() {
	c := e.ctx
	switch c.State {
	case Hiragana:
		e.output(c.finishComposing())
		e.setState(Katakana)
	case Katakana, HalfWidthKatakana:
		e.output(kanaTransform(c.KanaMode, c.finishComposing()))
		e.setState(Hiragana)

	case Kanji, Okurigana, Abbrev:
		// Commit the reading in the other script.
		text := c.readingWithOkurigana()
		if c.State == Kanji {
			text += c.finishComposing()
		}
		if c.State != Abbrev {
			if c.KanaMode == Hiragana {
				text = romaji.HiraganaToKatakana(text)
			} else {
				text = romaji.KatakanaToHiragana(text)
			}
		}
		e.resetToKana()
		e.output(text)

	case Choose, Narrowing:
		e.pickCandidate(c.Index, false)

	case ASCII, FullWidthAlnum, Emoji:
		c.word = ""
		e.cancelSuggestions()
		e.setState(Hiragana)
	}
}

func (e *Engine) changeLastChar(t romaji.Transform) {
	c := e.ctx
	switch c.State {
	case Hiragana, Katakana, HalfWidthKatakana:
		if c.Composing != "" {
			return
		}
		if r := c.topRegistration(); r != nil {
			if out, ok := romaji.ConvertLastChar(r.Entry, t); ok {
				r.Entry = out
			}
			return
		}
		last := e.sink.TextBeforeCursor(1)
		out, ok := romaji.ConvertLastChar(last, t)
		if !ok || out == last {
			return
		}
		e.sink.DeleteSurroundingText(1, 0)
		e.sink.CommitText(out)

	case Kanji:
		if c.Composing != "" {
			return
		}
		if out, ok := romaji.ConvertLastChar(c.KanjiKey, t); ok {
			c.KanjiKey = out
			e.requestSuggestions()
		}

	case Okurigana, Choose:
		if runeCount(c.Okurigana) != 1 {
			return
		}
		out, ok := romaji.ConvertLastChar(c.Okurigana, t)
		if !ok {
			return
		}
		consonant, ok := romaji.ConsonantForVoiced(out)
		if !ok {
			return
		}
		c.Composing = ""
		c.Okurigana = out
		c.KanjiKey = romaji.TrimLastRune(c.KanjiKey) + string(consonant)
		e.sink.ClearCandidatesView()
		e.conversionStart(Kanji)
	}
}

// toggleLastCase flips the case of the final character when it is a
// Latin letter.
func toggleLastCase(s string) string {
	if s == "" {
		return s
	}
	head := romaji.TrimLastRune(s)
	last := []rune(s[len(head):])[0]
	if !romaji.IsAlphabet(last) {
		return s
	}
	if unicode.IsUpper(last) {
		return head + strings.ToLower(string(last))
	}
	return head + strings.ToUpper(string(last))
}
