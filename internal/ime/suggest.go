package ime

import (
	"context"
	"errors"
	"time"
)

// finder is the part of a dictionary the suggestion search needs.
type finder interface {
	FindKeys(ctx context.Context, prefix string) ([]string, error)
}

// requestSuggestions restarts the completion search for the current
// reading or ASCII word. Any search still running is superseded.
func (e *Engine) requestSuggestions() {
	c := e.ctx
	e.cancelSuggestions()

	var query string
	var sources []finder
	switch c.State {
	case Kanji, Abbrev:
		if !e.input.Suggestions {
			return
		}
		query = c.KanjiKey
		if e.user != nil {
			sources = append(sources, e.user)
		}
		for _, d := range e.static {
			sources = append(sources, d)
		}
	case ASCII:
		if !e.input.ASCIISuggestions || e.ascii == nil {
			return
		}
		query = c.word
		sources = append(sources, e.ascii)
	}
	if query == "" || len(sources) == 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	gen := e.gen
	delay := e.input.SuggestionDelay()
	m := e.m
	m.SuggestionSearches.Inc()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer cancel()

		start := time.Now()
		keys, err := searchKeys(ctx, delay, query, sources)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				m.SuggestionsSuperseded.Inc()
				e.log.Debug("suggestion search superseded", "generation", gen)
				return
			}
			m.ErrorsTotal.Inc()
			e.log.Warn("suggestion search failed", "error", err)
			return
		}
		m.SuggestionDuration.ObserveDuration(time.Since(start) - delay)
		e.applySuggestions(gen, keys)
	}()
}

// cancelSuggestions stops the running search, invalidates any result it
// may still deliver, and clears suggestions from the view.
func (e *Engine) cancelSuggestions() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.gen++

	c := e.ctx
	if (c.State.isReading() || c.State == ASCII) && len(c.Candidates) > 0 {
		c.Candidates = nil
		c.Index = -1
		e.sink.ClearCandidatesView()
	}
}

// applySuggestions installs keys if no newer request has been made since
// generation gen started.
func (e *Engine) applySuggestions(gen uint64, keys []string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c := e.ctx
	if e.closed || gen != e.gen || len(keys) == 0 {
		return
	}
	if !(c.State == Kanji || c.State == Abbrev || c.State == ASCII) {
		return
	}
	c.Candidates = keys
	c.Index = -1
	e.sink.SetCandidates(keys, nil)
}

func searchKeys(ctx context.Context, delay time.Duration, query string, sources []finder) ([]string, error) {
	if delay > 0 {
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	var out []string
	seen := make(map[string]bool)
	for _, src := range sources {
		keys, err := src.FindKeys(ctx, query)
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out, ctx.Err()
}
