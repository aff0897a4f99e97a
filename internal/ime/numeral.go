package ime

import (
	"strings"

	"golang.org/x/text/width"

	"skkime/internal/dict"
)

// NumeralPlaceholder replaces each run of digits in a reading when looking
// up numeric entries such as "だい#かい".
const NumeralPlaceholder = "#"

// extractNumbers replaces each digit run in key with the placeholder and
// returns the runs in order.
func extractNumbers(key string) (string, []string) {
	var b strings.Builder
	var nums []string
	start := -1
	for i := 0; i <= len(key); i++ {
		digit := i < len(key) && key[i] >= '0' && key[i] <= '9'
		switch {
		case digit && start < 0:
			start = i
		case !digit && start >= 0:
			nums = append(nums, key[start:i])
			b.WriteString(NumeralPlaceholder)
			start = -1
		}
		if !digit && i < len(key) {
			b.WriteByte(key[i])
		}
	}
	return b.String(), nums
}

// resolveNumerals substitutes nums into the #0..#3 templates of cand, in
// order. Templates beyond the available numbers are left as they are.
func resolveNumerals(cand string, nums []string) string {
	if len(nums) == 0 || !strings.Contains(cand, NumeralPlaceholder) {
		return cand
	}
	var b strings.Builder
	next := 0
	for i := 0; i < len(cand); i++ {
		if cand[i] == '#' && i+1 < len(cand) && cand[i+1] >= '0' && cand[i+1] <= '9' && next < len(nums) {
			b.WriteString(formatNumeral(nums[next], cand[i+1]))
			next++
			i++
			continue
		}
		b.WriteByte(cand[i])
	}
	return b.String()
}

var kanjiDigits = [...]string{"〇", "一", "二", "三", "四", "五", "六", "七", "八", "九"}

func formatNumeral(n string, style byte) string {
	switch style {
	case '1':
		return width.Widen.String(n)
	case '2':
		var b strings.Builder
		for i := 0; i < len(n); i++ {
			b.WriteString(kanjiDigits[n[i]-'0'])
		}
		return b.String()
	case '3':
		return placeValued(n)
	}
	return n
}

var (
	smallUnits = [...]string{"", "十", "百", "千"}
	largeUnits = [...]string{"", "万", "億", "兆", "京"}
)

// placeValued writes n with place-value kanji, e.g. 1234 → 千二百三十四.
func placeValued(n string) string {
	n = strings.TrimLeft(n, "0")
	if n == "" {
		return kanjiDigits[0]
	}
	if (len(n)+3)/4 > len(largeUnits) {
		return n
	}

	var b strings.Builder
	for pos := 0; pos < len(n); pos++ {
		place := len(n) - 1 - pos
		d := n[pos] - '0'
		small, large := place%4, place/4
		if d != 0 {
			if d != 1 || small == 0 {
				b.WriteString(kanjiDigits[d])
			}
			b.WriteString(smallUnits[small])
		}
		if small == 0 && large > 0 && groupNonZero(n, pos) {
			b.WriteString(largeUnits[large])
		}
	}
	return b.String()
}

// groupNonZero reports whether the four-digit group ending at pos has any
// non-zero digit.
func groupNonZero(n string, end int) bool {
	for i := end; i >= 0 && i > end-4; i-- {
		if n[i] != '0' {
			return true
		}
	}
	return false
}

// DisplayCandidate returns the text a candidate commits as: annotation
// stripped, escapes resolved and numerals substituted.
func DisplayCandidate(raw string, nums []string) string {
	return resolveNumerals(dict.DisplayForm(raw), nums)
}
