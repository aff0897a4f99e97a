package ime

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"skkime/internal/config"
	"skkime/internal/dict"
	"skkime/internal/metrics"
)

// staticDict imports SKK text lines into a fresh read-only dictionary.
func staticDict(t *testing.T, lines ...string) *dict.Static {
	t.Helper()
	path := filepath.Join(t.TempDir(), "static.db")
	_, err := dict.Import(context.Background(), path, strings.NewReader(strings.Join(lines, "\n")), dict.Options{})
	require.NoError(t, err)

	s, err := dict.OpenStatic(path, dict.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func userDict(t *testing.T, kind dict.Kind) *dict.User {
	t.Helper()
	u, err := dict.OpenUser(filepath.Join(t.TempDir(), "user.db"), dict.Options{Kind: kind, LockPoll: 5 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { u.Close() })
	return u
}

type fixture struct {
	e    *Engine
	rec  *Recorder
	user *dict.User
	m    *metrics.EngineMetrics
}

// newFixture builds an engine over the given static entries and a fresh
// user dictionary, with learning on and suggestions off.
func newFixture(t *testing.T, lines ...string) *fixture {
	t.Helper()
	f := &fixture{
		rec:  NewRecorder(),
		user: userDict(t, dict.Kanji),
		m:    metrics.NewEngineMetrics(metrics.NewRegistry("test", "")),
	}
	var static []dict.Dictionary
	if len(lines) > 0 {
		static = append(static, staticDict(t, lines...))
	}
	f.e = NewEngine(f.rec, Options{
		Static:  static,
		User:    f.user,
		Input:   config.InputConfig{Learning: true},
		Metrics: f.m,
	})
	t.Cleanup(f.e.Close)
	return f
}

// typeKeys feeds every character of s as a key code.
func (f *fixture) typeKeys(s string) {
	for _, r := range s {
		f.e.ProcessKey(int(r))
	}
}

func (f *fixture) userCandidates(key string) []string {
	cands, _ := f.user.GetCandidates(key)
	return cands
}
