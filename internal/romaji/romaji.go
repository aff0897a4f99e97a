// Package romaji transliterates Latin key sequences into kana.
//
// Every function in this package is pure. The lookup tables are built once
// at package initialisation and never mutated afterwards.
package romaji

import (
	"strings"
	"unicode/utf8"
)

// Transform selects a single-kana mutation for ConvertLastChar.
type Transform int

const (
	// ToSmall toggles between a kana and its small form.
	ToSmall Transform = iota
	// ToDakuten toggles the voiced mark.
	ToDakuten
	// ToHandakuten toggles the semi-voiced mark.
	ToHandakuten
	// ToggleTrans cycles plain → small → dakuten → handakuten → plain,
	// skipping forms the kana does not have.
	ToggleTrans
	// ShiftOut strips any modification and returns the plain kana.
	ShiftOut
)

// String returns the transform name.
func (t Transform) String() string {
	switch t {
	case ToSmall:
		return "small"
	case ToDakuten:
		return "dakuten"
	case ToHandakuten:
		return "handakuten"
	case ToggleTrans:
		return "toggle"
	case ShiftOut:
		return "shift-out"
	default:
		return "unknown"
	}
}

var (
	kanaByLatin  = make(map[string]string, len(table))
	intermediate = make(map[string]struct{})
	consonantOf  = make(map[string]rune)

	small      = make(map[string]string)
	dakuten    = make(map[string]string)
	handakuten = make(map[string]string)
	cycle      = make(map[string]string)
	plain      = make(map[string]string)
)

func init() {
	for _, p := range table {
		kanaByLatin[p.latin] = p.kana
	}
	buildIntermediates()

	for _, p := range table {
		if len(p.latin) != 2 || !IsVowel(rune(p.latin[1])) || IsVowel(rune(p.latin[0])) {
			continue
		}
		if _, seen := consonantOf[p.kana]; !seen {
			consonantOf[p.kana] = rune(p.latin[0])
		}
	}

	for _, pp := range smallPairs {
		small[pp[0]], small[pp[1]] = pp[1], pp[0]
		plain[pp[1]] = pp[0]
	}
	for _, pp := range dakutenPairs {
		dakuten[pp[0]], dakuten[pp[1]] = pp[1], pp[0]
		plain[pp[1]] = pp[0]
	}
	for _, pp := range handakutenPairs {
		handakuten[pp[0]], handakuten[pp[1]] = pp[1], pp[0]
		plain[pp[1]] = pp[0]
		// ぱ → ば and ば → ぱ jump straight across without passing the plain form.
		voiced := dakuten[pp[0]]
		dakuten[pp[1]] = voiced
		handakuten[voiced] = pp[1]
	}
	buildCycles()
}

// buildIntermediates registers every strict prefix of every key. Stripping
// one character per pass only reaches "c" from "cha" on the second pass, so
// the loop runs until a pass adds nothing.
func buildIntermediates() {
	frontier := make([]string, 0, len(table))
	for _, p := range table {
		frontier = append(frontier, p.latin)
	}
	for len(frontier) > 0 {
		var next []string
		for _, k := range frontier {
			if len(k) <= 1 {
				continue
			}
			prefix := k[:len(k)-1]
			if _, ok := intermediate[prefix]; ok {
				continue
			}
			intermediate[prefix] = struct{}{}
			next = append(next, prefix)
		}
		frontier = next
	}
}

func buildCycles() {
	bases := make(map[string]struct{})
	for _, pp := range smallPairs {
		bases[pp[0]] = struct{}{}
	}
	for _, pp := range dakutenPairs {
		bases[pp[0]] = struct{}{}
	}
	for base := range bases {
		ring := []string{base}
		if s, ok := small[base]; ok {
			ring = append(ring, s)
		}
		if d, ok := dakuten[base]; ok {
			ring = append(ring, d)
		}
		if h, ok := handakuten[base]; ok {
			ring = append(ring, h)
		}
		for i, k := range ring {
			cycle[k] = ring[(i+1)%len(ring)]
		}
	}
}

// Convert looks up latin exactly. It reports false when latin is not a
// complete table key, including when it is still an intermediate prefix.
func Convert(latin string) (string, bool) {
	kana, ok := kanaByLatin[latin]
	return kana, ok
}

// IsIntermediate reports whether latin is a strict prefix of some table key.
func IsIntermediate(latin string) bool {
	_, ok := intermediate[latin]
	return ok
}

// IsVowel reports whether r is one of the five Latin vowels.
func IsVowel(r rune) bool {
	switch r {
	case 'a', 'i', 'u', 'e', 'o':
		return true
	}
	return false
}

// CheckSpecialConsonants detects the two sequences that finalise a kana
// before the table can: a doubled consonant yields "っ", and "n" followed by
// anything other than a vowel, "n", "y" or an apostrophe yields "ん".
func CheckSpecialConsonants(first, second rune) (string, bool) {
	if first == 'n' {
		if IsVowel(second) || second == 'n' || second == 'y' || second == '\'' {
			return "", false
		}
		return "ん", true
	}
	if first == second && first >= 'a' && first <= 'z' && !IsVowel(first) && first != 'y' {
		return "っ", true
	}
	return "", false
}

// ConvertLastChar applies t to the final character of s and returns the
// rewritten string. Katakana input keeps its script.
func ConvertLastChar(s string, t Transform) (string, bool) {
	last, size := utf8.DecodeLastRuneInString(s)
	if size == 0 || last == utf8.RuneError {
		return "", false
	}
	head := s[:len(s)-size]
	ch := string(last)
	kata := isKatakana(last)
	if kata {
		ch = KatakanaToHiragana(ch)
	}

	var lookup map[string]string
	switch t {
	case ToSmall:
		lookup = small
	case ToDakuten:
		lookup = dakuten
	case ToHandakuten:
		lookup = handakuten
	case ToggleTrans:
		lookup = cycle
	case ShiftOut:
		lookup = plain
	default:
		return "", false
	}
	out, ok := lookup[ch]
	if !ok {
		return "", false
	}
	if kata {
		out = HiraganaToKatakana(out)
	}
	return head + out, true
}

// ConsonantForVoiced returns the leading Latin consonant of the romaji
// spelling that produces kana, e.g. 'g' for "が". Only the final character
// of kana is considered.
func ConsonantForVoiced(kana string) (rune, bool) {
	last, size := utf8.DecodeLastRuneInString(kana)
	if size == 0 {
		return 0, false
	}
	ch := string(last)
	if isKatakana(last) {
		ch = KatakanaToHiragana(ch)
	}
	if c, ok := consonantOf[ch]; ok {
		return c, true
	}
	for _, p := range table {
		if len(p.latin) == 1 && p.kana == ch && IsVowel(rune(p.latin[0])) {
			return rune(p.latin[0]), true
		}
	}
	return 0, false
}

// Keys returns every table key. Intended for exhaustive tests.
func Keys() []string {
	keys := make([]string, 0, len(table))
	for _, p := range table {
		keys = append(keys, p.latin)
	}
	return keys
}

// IsAlphabet reports whether r is an ASCII letter.
func IsAlphabet(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// HasAlphabetSuffix reports whether s ends in an ASCII letter, the shape of
// an okurigana-bearing dictionary key such as "おくr".
func HasAlphabetSuffix(s string) bool {
	r, size := utf8.DecodeLastRuneInString(s)
	return size > 0 && IsAlphabet(r)
}

// HasAlphabetPrefix reports whether s starts with an ASCII letter.
func HasAlphabetPrefix(s string) bool {
	r, size := utf8.DecodeRuneInString(s)
	return size > 0 && IsAlphabet(r)
}

// TrimLastRune drops the final character of s.
func TrimLastRune(s string) string {
	_, size := utf8.DecodeLastRuneInString(s)
	return s[:len(s)-size]
}

// ContainsDigit reports whether s contains an ASCII digit.
func ContainsDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}
