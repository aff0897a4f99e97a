package ime

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"
)

// Sink is the host text field and keyboard UI the engine drives.
type Sink interface {
	// SetComposingText shows marked-up pending text. An empty string
	// clears it.
	SetComposingText(text string)
	// CommitText inserts finalized text at the cursor.
	CommitText(text string)
	// TextBeforeCursor returns up to n characters before the cursor.
	TextBeforeCursor(n int) string
	// DeleteSurroundingText deletes characters around the cursor.
	DeleteSurroundingText(before, after int)

	// SetCandidates shows a candidate or suggestion list. Candidates are
	// raw dictionary forms; numbers holds the digit runs to substitute
	// for numeral placeholders (see DisplayCandidate).
	SetCandidates(list []string, numbers []string)
	RequestChooseCandidate(index int)
	ClearCandidatesView()

	ShowStatusIcon(icon Icon)
	HideStatusIcon()
}

// Recorder is an in-memory Sink. It keeps the committed text so that
// TextBeforeCursor behaves like a real field, and logs every call as one
// transcript line.
type Recorder struct {
	mu         sync.Mutex
	text       string
	composing  string
	candidates []string
	chosen     int
	icon       Icon
	lines      []string
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{chosen: -1}
}

func (r *Recorder) logf(format string, args ...any) {
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

func (r *Recorder) SetComposingText(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if text == r.composing {
		return
	}
	r.composing = text
	r.logf("compose %q", text)
}

func (r *Recorder) CommitText(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.text += text
	r.logf("commit %q", text)
}

func (r *Recorder) TextBeforeCursor(n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.text
	for i := 0; i < n && s != ""; i++ {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	return r.text[len(s):]
}

func (r *Recorder) DeleteSurroundingText(before, after int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 0; i < before && r.text != ""; i++ {
		_, size := utf8.DecodeLastRuneInString(r.text)
		r.text = r.text[:len(r.text)-size]
	}
	r.logf("delete %d", before)
}

func (r *Recorder) SetCandidates(list []string, numbers []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.candidates = make([]string, len(list))
	for i, c := range list {
		r.candidates[i] = DisplayCandidate(c, numbers)
	}
	r.chosen = -1
	r.logf("candidates [%s]", strings.Join(r.candidates, " "))
}

func (r *Recorder) RequestChooseCandidate(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chosen = index
	r.logf("choose %d", index)
}

func (r *Recorder) ClearCandidatesView() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.candidates == nil {
		return
	}
	r.candidates = nil
	r.chosen = -1
	r.logf("clear candidates")
}

func (r *Recorder) ShowStatusIcon(icon Icon) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.icon = icon
	r.logf("icon %s", icon)
}

func (r *Recorder) HideStatusIcon() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.icon = ""
	r.logf("icon hidden")
}

// Text returns everything committed so far.
func (r *Recorder) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.text
}

// Composing returns the current composing text.
func (r *Recorder) Composing() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.composing
}

// Candidates returns the displayed candidate list.
func (r *Recorder) Candidates() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.candidates...)
}

// Chosen returns the highlighted candidate index, or -1.
func (r *Recorder) Chosen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.chosen
}

// Icon returns the status icon currently shown.
func (r *Recorder) Icon() Icon {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.icon
}

// Transcript returns the logged calls, one per line.
func (r *Recorder) Transcript() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.lines, "\n") + "\n"
}
