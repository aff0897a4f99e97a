package ime

import (
	"strings"

	"skkime/internal/dict"
	"skkime/internal/romaji"
)

// collect gathers the candidates for key from the user dictionary and then
// every static dictionary. Okuri-block matches come first within each
// dictionary; duplicates are dropped by their annotation-free form.
func (e *Engine) collect(key, okuri string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(list []string) {
		for _, cand := range list {
			k := dict.RemoveAnnotation(cand)
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, cand)
		}
	}
	addEntry := func(d dict.Dictionary) {
		entry, ok := d.GetEntry(key)
		if !ok {
			return
		}
		if okuri != "" {
			add(entry.OkuriCandidates(okuri))
		}
		add(entry.Candidates)
	}

	if e.user != nil {
		addEntry(e.user)
	}
	for _, d := range e.static {
		addEntry(d)
	}
	return out
}

// conversionStart looks up the current reading and enters Choose, or opens
// a registration frame when nothing matches. reading is the state a cancel
// returns to.
func (e *Engine) conversionStart(reading State) {
	c := e.ctx
	e.cancelSuggestions()

	timer := e.m.LookupDuration.Timer()
	cands := e.collect(c.KanjiKey, c.Okurigana)
	c.DictKey = c.KanjiKey
	c.Numbers = nil
	if romaji.ContainsDigit(c.KanjiKey) {
		template, nums := extractNumbers(c.KanjiKey)
		if numeric := e.collect(template, c.Okurigana); len(numeric) > 0 {
			cands = appendUnique(cands, numeric)
			c.DictKey = template
			c.Numbers = nums
		}
	}
	timer.Stop()

	if len(cands) == 0 {
		e.startRegistration(reading)
		return
	}

	e.m.ConversionsTotal.Inc()
	e.m.CandidateCount.Observe(float64(len(cands)))
	c.Composing = ""
	c.Candidates = cands
	c.Index = 0
	c.reading = reading
	e.setState(Choose)
	e.sink.SetCandidates(cands, c.Numbers)
	e.sink.RequestChooseCandidate(0)
}

func appendUnique(list, more []string) []string {
	seen := make(map[string]bool, len(list))
	for _, s := range list {
		seen[dict.RemoveAnnotation(s)] = true
	}
	for _, s := range more {
		if k := dict.RemoveAnnotation(s); !seen[k] {
			seen[k] = true
			list = append(list, s)
		}
	}
	return list
}

// pickCandidate commits candidate index, learns it and returns to kana
// input. A partial pick, from backspace, commits all but the last
// character.
func (e *Engine) pickCandidate(index int, partial bool) {
	c := e.ctx
	if index < 0 || index >= len(c.Candidates) {
		return
	}
	raw := c.Candidates[index]
	text := e.candidateText(raw)
	if partial {
		text = romaji.TrimLastRune(text)
	}

	learnKey := c.KanjiKey
	if len(c.Numbers) > 0 && strings.Contains(raw, NumeralPlaceholder) {
		learnKey = c.DictKey
	}

	// Re-conversion offers the list as it was before narrowing.
	list, at := c.Candidates, index
	if c.State == Narrowing && c.original != nil {
		list = c.original
		for i, s := range list {
			if s == raw {
				at = i
				break
			}
		}
	}

	learned := false
	if e.input.Learning && e.user != nil {
		if err := e.user.AddEntry(learnKey, raw, c.Okurigana); err != nil {
			e.m.ErrorsTotal.Inc()
			e.log.Error("learn candidate", "key", learnKey, "error", err)
		} else {
			learned = true
		}
	}

	e.m.PicksTotal.Inc()
	if !c.registering() {
		c.Last = &LastConversion{
			Committed:  text,
			Candidates: copyStrings(list),
			Index:      at,
			DictKey:    c.DictKey,
			KanjiKey:   c.KanjiKey,
			Okurigana:  c.Okurigana,
			Numbers:    copyStrings(c.Numbers),
			reading:    c.reading,
			learned:    learned,
		}
	}

	e.resetToKana()
	e.output(text)
}

// reconvert turns the text committed by the last pick back into a
// candidate selection, provided it sits right before the cursor.
func (e *Engine) reconvert() bool {
	c := e.ctx
	last := c.Last
	if last == nil || last.Committed == "" {
		return false
	}
	n := runeCount(last.Committed)
	if e.sink.TextBeforeCursor(n) != last.Committed {
		return false
	}

	e.m.ReconversionsTotal.Inc()
	e.sink.DeleteSurroundingText(n, 0)
	if last.learned && e.user != nil {
		if err := e.user.RollBack(); err != nil {
			e.m.ErrorsTotal.Inc()
			e.log.Error("roll back learned candidate", "key", last.KanjiKey, "error", err)
		}
	}

	c.Last = nil
	c.KanjiKey = last.KanjiKey
	c.Okurigana = last.Okurigana
	c.DictKey = last.DictKey
	c.Numbers = copyStrings(last.Numbers)
	c.Candidates = copyStrings(last.Candidates)
	c.Index = last.Index
	c.reading = last.reading
	e.setState(Choose)
	e.sink.SetCandidates(c.Candidates, c.Numbers)
	e.sink.RequestChooseCandidate(c.Index)
	return true
}

// cancelToReading leaves Choose for the reading it came from. Okurigana
// folds back into the reading as plain kana.
func (e *Engine) cancelToReading() {
	c := e.ctx
	reading := c.reading
	key := c.readingWithOkurigana()
	if reading == Abbrev {
		key = c.KanjiKey
	}
	c.clearConversion()
	c.KanjiKey = key
	e.setState(reading)
	e.sink.ClearCandidatesView()
}

func (e *Engine) startNarrowing() {
	c := e.ctx
	c.original = copyStrings(c.Candidates)
	c.hint = ""
	c.hintComposing = ""
	e.setState(Narrowing)
}

// stopNarrowing returns to Choose with the unfiltered list.
func (e *Engine) stopNarrowing() {
	c := e.ctx
	if c.original != nil {
		c.Candidates = c.original
	}
	c.original = nil
	c.hint = ""
	c.hintComposing = ""
	c.Index = 0
	e.setState(Choose)
	e.sink.SetCandidates(c.Candidates, c.Numbers)
	e.sink.RequestChooseCandidate(0)
}

// narrow filters the unfiltered list down to candidates sharing at least
// one character with a candidate of the hint reading. A filter that would
// leave nothing leaves the list whole.
func (e *Engine) narrow() {
	c := e.ctx
	c.Candidates = narrowCandidates(c.original, e.collect(c.hint, ""), c.Numbers)
	c.Index = 0
	e.sink.SetCandidates(c.Candidates, c.Numbers)
	e.sink.RequestChooseCandidate(0)
}

func narrowCandidates(original, related, nums []string) []string {
	if len(related) == 0 {
		return copyStrings(original)
	}
	chars := make(map[rune]bool)
	for _, r := range related {
		for _, ch := range dict.DisplayForm(r) {
			chars[ch] = true
		}
	}
	var out []string
	for _, cand := range original {
		for _, ch := range DisplayCandidate(cand, nums) {
			if chars[ch] {
				out = append(out, cand)
				break
			}
		}
	}
	if len(out) == 0 {
		return copyStrings(original)
	}
	return out
}

// acceptSuggestion converts suggestion i as the reading.
func (e *Engine) acceptSuggestion(i int) {
	c := e.ctx
	if i < 0 || i >= len(c.Candidates) {
		return
	}
	reading := c.State
	if reading != Abbrev {
		reading = Kanji
	}
	c.KanjiKey = c.Candidates[i]
	c.Composing = ""
	e.conversionStart(reading)
}

// acceptWord completes the ASCII word being typed with suggestion i.
func (e *Engine) acceptWord(i int) {
	c := e.ctx
	if i < 0 || i >= len(c.Candidates) {
		return
	}
	word := c.Candidates[i]
	if strings.HasPrefix(word, c.word) {
		e.output(word[len(c.word):])
	} else {
		e.output(word)
	}
	if e.ascii != nil && e.input.Learning {
		if err := e.ascii.Learn(word); err != nil {
			e.m.ErrorsTotal.Inc()
			e.log.Error("learn word", "word", word, "error", err)
		}
	}
	c.word = ""
	e.cancelSuggestions()
}
