package ime

import (
	"skkime/internal/dict"
	"skkime/internal/romaji"
)

// startRegistration opens a frame for the current reading and switches to
// kana input so the user can type the word. Frames nest when a conversion
// inside a registration finds nothing.
func (e *Engine) startRegistration(reading State) {
	c := e.ctx
	c.Registrations = append(c.Registrations, &Registration{
		Key:       c.KanjiKey,
		Okurigana: c.Okurigana,
		reading:   reading,
	})
	e.cancelSuggestions()
	c.clearConversion()
	e.setState(c.KanaMode)
	e.sink.ClearCandidatesView()
}

// commitRegistration stores the innermost frame's word and commits it,
// with its okurigana, to whatever encloses the frame. An empty word
// cancels instead.
func (e *Engine) commitRegistration() {
	c := e.ctx
	r := c.popRegistration()
	if r == nil {
		return
	}
	if r.Entry == "" {
		e.cancelRegistration(r)
		return
	}

	candidate := dict.Escape(r.Entry)
	learned := false
	if e.user != nil {
		if err := e.user.AddEntry(r.Key, candidate, r.Okurigana); err != nil {
			e.m.ErrorsTotal.Inc()
			e.log.Error("register word", "key", r.Key, "error", err)
		} else {
			learned = true
			e.m.RegistrationsTotal.Inc()
			e.log.Debug("word registered", "reading", r.Key, "entry", r.Entry, "depth", len(c.Registrations)+1)
		}
	}

	text := r.Entry + kanaTransform(c.KanaMode, r.Okurigana)
	if !c.registering() {
		c.Last = &LastConversion{
			Committed:  text,
			Candidates: []string{candidate},
			Index:      0,
			DictKey:    r.Key,
			KanjiKey:   r.Key,
			Okurigana:  r.Okurigana,
			reading:    r.reading,
			learned:    learned,
		}
	}
	e.output(text)
}

// cancelRegistration drops frame r and puts its reading back up for
// conversion.
func (e *Engine) cancelRegistration(r *Registration) {
	c := e.ctx
	e.cancelSuggestions()
	c.clearConversion()
	c.KanjiKey = r.Key
	if r.Okurigana != "" {
		c.KanjiKey = romaji.TrimLastRune(r.Key) + r.Okurigana
	}
	e.setState(r.reading)
}
