package dict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntry(t *testing.T) {
	e, err := ParseEntry("/送;annotation/贈/[り/送/]/[る/送/贈/]/")
	require.NoError(t, err)
	assert.Equal(t, []string{"送;annotation", "贈"}, e.Candidates)
	assert.Equal(t, []OkuriPair{
		{Okuri: "り", Candidate: "送"},
		{Okuri: "る", Candidate: "送"},
		{Okuri: "る", Candidate: "贈"},
	}, e.Okuri)
	assert.Equal(t, []string{"送", "贈"}, e.OkuriCandidates("る"))
	assert.Empty(t, e.OkuriCandidates("れ"))
}

func TestParseEntryMalformed(t *testing.T) {
	for _, v := range []string{"", "漢字/", "/a/[り/送/"} {
		_, err := ParseEntry(v)
		assert.ErrorIs(t, err, ErrMalformed, v)
	}
}

func TestEntryStringRoundTrip(t *testing.T) {
	for _, v := range []string{
		"/漢字/感じ/",
		"/送/[り/送/]/",
		"/第#0回/",
		`/(concat "a\057b")/`,
	} {
		e, err := ParseEntry(v)
		require.NoError(t, err)
		assert.Equal(t, v, e.String())
	}
}

func TestEntryAddRemove(t *testing.T) {
	e, err := ParseEntry("/漢字/感じ/")
	require.NoError(t, err)

	e.addCandidate("幹事", "")
	assert.Equal(t, "/幹事/漢字/感じ/", e.String())

	e.addCandidate("感じ", "")
	assert.Equal(t, "/感じ/幹事/漢字/", e.String())

	e.removeCandidate("幹事", "")
	assert.Equal(t, "/感じ/漢字/", e.String())

	e.addCandidate("送", "り")
	assert.Equal(t, "/送/感じ/漢字/[り/送/]/", e.String())

	e.removeCandidate("送", "り")
	assert.Equal(t, "/送/感じ/漢字/", e.String())
}

func TestAnnotation(t *testing.T) {
	assert.Equal(t, "漢字", RemoveAnnotation("漢字;kanji"))
	assert.Equal(t, "kanji", Annotation("漢字;kanji"))
	assert.Equal(t, "漢字", RemoveAnnotation("漢字"))
	assert.Equal(t, "", Annotation("漢字"))
}

func TestEscape(t *testing.T) {
	tests := []struct {
		literal string
		escaped string
	}{
		{"a/b", `(concat "a\057b")`},
		{"x;y", `(concat "x\073y")`},
		{"plain", "plain"},
	}
	for _, tc := range tests {
		t.Run(tc.literal, func(t *testing.T) {
			assert.Equal(t, tc.escaped, Escape(tc.literal))
			assert.Equal(t, tc.literal, Unescape(tc.escaped))
		})
	}

	assert.Equal(t, "http://x", Unescape(`(concat "http:\057\057x")`))
	assert.Equal(t, "ab", Unescape(`(concat "a" "b")`))
	assert.Equal(t, "a/b", DisplayForm(`(concat "a\057b");url`))
}
