package romaji

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		latin string
		kana  string
		ok    bool
	}{
		{"ka", "か", true},
		{"kya", "きゃ", true},
		{"shi", "し", true},
		{"tsu", "つ", true},
		{"cha", "ちゃ", true},
		{"nn", "ん", true},
		{"n", "", false},
		{"ca", "", false},
		{"z.", "…", true},
		{"-", "ー", true},
		{"q", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.latin, func(t *testing.T) {
			kana, ok := Convert(tc.latin)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.kana, kana)
		})
	}
}

func TestConvertIsPure(t *testing.T) {
	for _, k := range Keys() {
		first, ok1 := Convert(k)
		second, ok2 := Convert(k)
		require.True(t, ok1, k)
		require.True(t, ok2, k)
		assert.Equal(t, first, second, k)
	}
}

func TestIsIntermediate(t *testing.T) {
	for _, c := range "kgszjtcdnhfbpmyrwvx" {
		assert.True(t, IsIntermediate(string(c)), "consonant %c", c)
	}
	for _, k := range Keys() {
		if len(k) > 1 {
			assert.True(t, IsIntermediate(k[:len(k)-1]), "prefix of %q", k)
		}
	}

	assert.True(t, IsIntermediate("ch"))
	assert.True(t, IsIntermediate("xts"))
	assert.False(t, IsIntermediate("q"))
	assert.False(t, IsIntermediate("ka"))
	assert.False(t, IsIntermediate(""))
}

func TestCheckSpecialConsonants(t *testing.T) {
	for _, second := range "abcdefghijklmnopqrstuvwxyz,.-'" {
		got, ok := CheckSpecialConsonants('n', second)
		wantN := !IsVowel(second) && second != 'n' && second != 'y' && second != '\''
		assert.Equal(t, wantN, ok, "n + %c", second)
		if wantN {
			assert.Equal(t, "ん", got)
		}
	}

	for _, c := range "kgstdhbpmrwfzjcv" {
		got, ok := CheckSpecialConsonants(c, c)
		require.True(t, ok, "%c%c", c, c)
		assert.Equal(t, "っ", got)

		_, ok = CheckSpecialConsonants(c, 'a')
		assert.False(t, ok, "%ca", c)
	}

	_, ok := CheckSpecialConsonants('a', 'a')
	assert.False(t, ok)
	_, ok = CheckSpecialConsonants('y', 'y')
	assert.False(t, ok)
}

func TestConvertLastCharSmallRoundTrip(t *testing.T) {
	for _, pp := range smallPairs {
		for _, k := range []string{pp[0], HiraganaToKatakana(pp[0])} {
			once, ok := ConvertLastChar(k, ToSmall)
			require.True(t, ok, k)
			twice, ok := ConvertLastChar(once, ToSmall)
			require.True(t, ok, once)
			assert.Equal(t, k, twice)
		}
	}
}

func TestConvertLastCharDakuten(t *testing.T) {
	got, ok := ConvertLastChar("か", ToDakuten)
	require.True(t, ok)
	assert.Equal(t, "が", got)

	c, ok := ConsonantForVoiced(got)
	require.True(t, ok)
	assert.Equal(t, 'g', c)

	for _, pp := range dakutenPairs {
		voiced, ok := ConvertLastChar(pp[0], ToDakuten)
		require.True(t, ok)
		base, ok := ConvertLastChar(voiced, ToDakuten)
		require.True(t, ok)
		assert.Equal(t, pp[0], base)
	}
}

func TestConvertLastCharKeepsHead(t *testing.T) {
	got, ok := ConvertLastChar("かんし", ToDakuten)
	require.True(t, ok)
	assert.Equal(t, "かんじ", got)

	got, ok = ConvertLastChar("ハ", ToHandakuten)
	require.True(t, ok)
	assert.Equal(t, "パ", got)

	_, ok = ConvertLastChar("ん", ToDakuten)
	assert.False(t, ok)
	_, ok = ConvertLastChar("", ToSmall)
	assert.False(t, ok)
}

func TestToggleTransCycle(t *testing.T) {
	tests := []struct {
		start string
		ring  []string
	}{
		{"は", []string{"ば", "ぱ", "は"}},
		{"つ", []string{"っ", "づ", "つ"}},
		{"あ", []string{"ぁ", "あ"}},
		{"か", []string{"が", "か"}},
		{"う", []string{"ぅ", "ゔ", "う"}},
	}

	for _, tc := range tests {
		t.Run(tc.start, func(t *testing.T) {
			cur := tc.start
			for _, want := range tc.ring {
				next, ok := ConvertLastChar(cur, ToggleTrans)
				require.True(t, ok, cur)
				assert.Equal(t, want, next)
				cur = next
			}
		})
	}
}

func TestShiftOut(t *testing.T) {
	for in, want := range map[string]string{"ぱ": "は", "が": "か", "っ": "つ", "ゔ": "う"} {
		got, ok := ConvertLastChar(in, ShiftOut)
		require.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	_, ok := ConvertLastChar("か", ShiftOut)
	assert.False(t, ok)
}

func TestConsonantForVoiced(t *testing.T) {
	tests := map[string]rune{
		"か": 'k', "が": 'g', "ぱ": 'p', "じ": 'z', "ぢ": 'd', "ふ": 'h',
		"り": 'r', "ゔ": 'v', "あ": 'a', "ガ": 'g',
	}
	for kana, want := range tests {
		got, ok := ConsonantForVoiced(kana)
		require.True(t, ok, kana)
		assert.Equal(t, want, got, kana)
	}

	_, ok := ConsonantForVoiced("ん")
	assert.False(t, ok)
}

func TestKanaScripts(t *testing.T) {
	assert.Equal(t, "カンジ漢字", HiraganaToKatakana("かんじ漢字"))
	assert.Equal(t, "かんじabc", KatakanaToHiragana("カンジabc"))
}

func TestAlphabetHelpers(t *testing.T) {
	assert.True(t, HasAlphabetSuffix("おくr"))
	assert.False(t, HasAlphabetSuffix("おくり"))
	assert.True(t, HasAlphabetPrefix("abc"))
	assert.Equal(t, "おく", TrimLastRune("おくr"))
	assert.Equal(t, "", TrimLastRune(""))
	assert.True(t, ContainsDigit("だい1かい"))
}
