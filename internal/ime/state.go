package ime

import (
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"skkime/internal/romaji"
)

// State is the closed set of input modes. The current state and all the
// data it works on live in EngineContext; states themselves hold nothing.
type State int

const (
	Hiragana State = iota
	Katakana
	HalfWidthKatakana
	Kanji
	Okurigana
	Choose
	Narrowing
	Abbrev
	ASCII
	FullWidthAlnum
	Emoji
)

var stateNames = [...]string{
	Hiragana:          "hiragana",
	Katakana:          "katakana",
	HalfWidthKatakana: "halfwidth-katakana",
	Kanji:             "kanji",
	Okurigana:         "okurigana",
	Choose:            "choose",
	Narrowing:         "narrowing",
	Abbrev:            "abbrev",
	ASCII:             "ascii",
	FullWidthAlnum:    "fullwidth-alnum",
	Emoji:             "emoji",
}

// String returns the state name.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// isKana reports whether s is one of the plain kana input states.
func (s State) isKana() bool {
	return s == Hiragana || s == Katakana || s == HalfWidthKatakana
}

// isReading reports whether s is collecting a conversion reading.
func (s State) isReading() bool {
	return s == Kanji || s == Okurigana || s == Abbrev
}

// isSelecting reports whether s is choosing among conversion candidates.
func (s State) isSelecting() bool {
	return s == Choose || s == Narrowing
}

// Icon identifies a status indicator shown by the host.
type Icon string

const (
	IconHiragana     Icon = "hiragana"
	IconKatakana     Icon = "katakana"
	IconHalfKatakana Icon = "halfwidth-katakana"
	IconASCII        Icon = "ascii"
	IconFullWidth    Icon = "fullwidth-alnum"
	IconAbbrev       Icon = "abbrev"
	IconEmoji        Icon = "emoji"
)

// icon returns the indicator for state s given the active kana mode.
func icon(s, kanaMode State) Icon {
	switch s {
	case ASCII:
		return IconASCII
	case FullWidthAlnum:
		return IconFullWidth
	case Abbrev:
		return IconAbbrev
	case Emoji:
		return IconEmoji
	}
	switch kanaMode {
	case Katakana:
		return IconKatakana
	case HalfWidthKatakana:
		return IconHalfKatakana
	}
	return IconHiragana
}

// kanaTransform maps hiragana output into the script of kana mode m.
func kanaTransform(m State, s string) string {
	switch m {
	case Katakana:
		return romaji.HiraganaToKatakana(s)
	case HalfWidthKatakana:
		// Decompose first so voiced marks narrow to separate ﾞ/ﾟ characters.
		return width.Narrow.String(norm.NFD.String(romaji.HiraganaToKatakana(s)))
	}
	return s
}
