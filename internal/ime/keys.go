package ime

import "unicode"

// Key codes are printable Unicode code points or one of the negative
// control codes below, which the keyboard layer sends for actions that have
// no character.
const (
	CodeToggleTrans = -(iota + 1)
	CodeToSmall
	CodeToDakuten
	CodeToHandakuten
	CodeShiftOut
	CodeToggleCase
	CodeStartNarrowing
	CodeFullWidth
	CodeKanaToggle
	CodeToASCII
	CodeToFullWidthAlnum
	CodeToEmoji
)

// CodeSuggestionBase anchors the "accept suggestion i" codes. Use
// SuggestionCode to build them.
const CodeSuggestionBase = -1000

// SuggestionCode returns the control code that accepts suggestion i.
func SuggestionCode(i int) int {
	return CodeSuggestionBase - i
}

// suggestionIndex decodes a SuggestionCode.
func suggestionIndex(code int) (int, bool) {
	if code > CodeSuggestionBase {
		return 0, false
	}
	return CodeSuggestionBase - code, true
}

func isPrintable(code int) bool {
	return code > 0 && unicode.IsPrint(rune(code))
}

func isUpper(code int) bool {
	return code >= 'A' && code <= 'Z'
}

func toLower(code int) int {
	if isUpper(code) {
		return code + ('a' - 'A')
	}
	return code
}
