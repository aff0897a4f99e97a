package romaji

import "strings"

// The hiragana block U+3041..U+3096 maps onto katakana U+30A1..U+30F6 at a
// fixed offset.
const kanaOffset = 'ア' - 'あ'

func isHiragana(r rune) bool { return r >= 'ぁ' && r <= 'ゖ' }

func isKatakana(r rune) bool { return r >= 'ァ' && r <= 'ヶ' }

// HiraganaToKatakana shifts every hiragana in s to katakana. Other
// characters, kanji included, pass through unchanged.
func HiraganaToKatakana(s string) string {
	return strings.Map(func(r rune) rune {
		if isHiragana(r) {
			return r + kanaOffset
		}
		return r
	}, s)
}

// KatakanaToHiragana is the inverse of HiraganaToKatakana.
func KatakanaToHiragana(s string) string {
	return strings.Map(func(r rune) rune {
		if isKatakana(r) {
			return r - kanaOffset
		}
		return r
	}, s)
}
