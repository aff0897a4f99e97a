package ime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skkime/internal/config"
	"skkime/internal/romaji"
)

func TestNewEngine(t *testing.T) {
	f := newFixture(t)
	assert.NotEmpty(t, f.e.SessionID())
	assert.Equal(t, Hiragana, f.e.State())
	assert.Equal(t, IconHiragana, f.rec.Icon())
}

func TestHiraganaInput(t *testing.T) {
	tests := []struct {
		keys string
		want string
	}{
		{"kanji", "かんじ"},
		{"kitte", "きって"},
		{"qa", "あ"},
		{"kyouha", "きょうは"},
		{"a-,.", "あー、。"},
		{"ka1", "か1"},
		{"kan'i", "かんい"},
		{"'", "'"},
	}
	for _, tt := range tests {
		t.Run(tt.keys, func(t *testing.T) {
			f := newFixture(t)
			f.typeKeys(tt.keys)
			assert.Equal(t, tt.want, f.rec.Text())
			assert.Equal(t, Hiragana, f.e.State())
		})
	}
}

func TestPendingNFinishedOnEnter(t *testing.T) {
	f := newFixture(t)
	f.typeKeys("sinbun")
	assert.Equal(t, "しんぶ", f.rec.Text())
	assert.Equal(t, "n", f.rec.Composing())

	assert.True(t, f.e.HandleEnter())
	assert.Equal(t, "しんぶん", f.rec.Text())
	assert.Empty(t, f.rec.Composing())
	assert.False(t, f.e.HandleEnter())
}

func TestBackspaceInKana(t *testing.T) {
	f := newFixture(t)
	f.typeKeys("k")
	assert.True(t, f.e.HandleBackspace())
	assert.Empty(t, f.rec.Composing())
	assert.False(t, f.e.HandleBackspace())
}

func TestShiftStartsReading(t *testing.T) {
	f := newFixture(t)
	f.typeKeys("Kanji")
	assert.Equal(t, Kanji, f.e.State())
	assert.Equal(t, "かんじ", f.e.ctx.KanjiKey)
	assert.Equal(t, "▽かんじ", f.rec.Composing())
	assert.Empty(t, f.rec.Text())
}

func TestSpaceBeforeReadingKeepsConsonant(t *testing.T) {
	f := newFixture(t)
	f.typeKeys("K ")
	assert.Equal(t, Kanji, f.e.State())
	assert.Equal(t, "k", f.e.ctx.Composing)
	assert.Empty(t, f.e.ctx.KanjiKey)

	f.typeKeys("a")
	assert.Equal(t, "か", f.e.ctx.KanjiKey)
	assert.Empty(t, f.rec.Text())
}

func TestEnterCommitsReading(t *testing.T) {
	f := newFixture(t)
	f.typeKeys("Kanjin")
	assert.True(t, f.e.HandleEnter())
	assert.Equal(t, "かんじん", f.rec.Text())
	assert.Equal(t, Hiragana, f.e.State())
}

func TestKanaKeyCommitsReadingAsKatakana(t *testing.T) {
	f := newFixture(t)
	f.typeKeys("Kanji")
	f.e.HandleKanaKey()
	assert.Equal(t, "カンジ", f.rec.Text())
	assert.Equal(t, Hiragana, f.e.State())
}

func TestOkuriganaConversion(t *testing.T) {
	f := newFixture(t, "おくr /送/贈/[り/送/]/")
	f.typeKeys("OkuR")
	assert.Equal(t, Okurigana, f.e.State())
	assert.Equal(t, "▽おく*r", f.rec.Composing())

	f.typeKeys("i")
	require.Equal(t, Choose, f.e.State())
	assert.Equal(t, "おくr", f.e.ctx.KanjiKey)
	assert.Equal(t, "り", f.e.ctx.Okurigana)
	assert.Equal(t, []string{"送", "贈"}, f.rec.Candidates())
	assert.Equal(t, "▼送り", f.rec.Composing())

	f.e.HandleEnter()
	assert.Equal(t, "送り", f.rec.Text())
	assert.Equal(t, []string{"送"}, f.userCandidates("おくr"))
}

func TestOkuriganaSokuon(t *testing.T) {
	f := newFixture(t, "たt /立/[っ/立/]/")
	f.typeKeys("TaTt")
	assert.Equal(t, Okurigana, f.e.State())
	assert.Equal(t, "っ", f.e.ctx.Okurigana)
	assert.Equal(t, "▽た*っt", f.rec.Composing())

	f.typeKeys("a")
	require.Equal(t, Choose, f.e.State())
	assert.Equal(t, "った", f.e.ctx.Okurigana)
	assert.Equal(t, "▼立った", f.rec.Composing())

	f.e.HandleEnter()
	assert.Equal(t, "立った", f.rec.Text())
}

func TestChooseCycleAndCommit(t *testing.T) {
	f := newFixture(t, "かんじ /漢字/感じ/幹事/")
	f.typeKeys("Kanji ")
	require.Equal(t, Choose, f.e.State())
	assert.Equal(t, []string{"漢字", "感じ", "幹事"}, f.rec.Candidates())
	assert.Equal(t, 0, f.rec.Chosen())
	assert.Equal(t, "▼漢字", f.rec.Composing())

	f.typeKeys("  ")
	assert.Equal(t, 2, f.rec.Chosen())
	f.typeKeys("x")
	assert.Equal(t, 1, f.rec.Chosen())
	assert.Equal(t, "▼感じ", f.rec.Composing())

	f.e.HandleEnter()
	assert.Equal(t, "感じ", f.rec.Text())
	assert.Equal(t, Hiragana, f.e.State())
	assert.Empty(t, f.rec.Candidates())
}

func TestChooseAdjacentCandidateWraps(t *testing.T) {
	f := newFixture(t, "かんじ /漢字/感じ/")
	f.typeKeys("Kanji ")
	f.e.ChooseAdjacentCandidate(false)
	assert.Equal(t, 1, f.rec.Chosen())
	f.e.ChooseAdjacentCandidate(true)
	assert.Equal(t, 0, f.rec.Chosen())
}

func TestChooseBackBeforeFirstReturnsToReading(t *testing.T) {
	f := newFixture(t, "かんじ /漢字/")
	f.typeKeys("Kanji x")
	assert.Equal(t, Kanji, f.e.State())
	assert.Equal(t, "▽かんじ", f.rec.Composing())
	assert.Empty(t, f.rec.Candidates())
}

func TestCancelInChooseFoldsOkurigana(t *testing.T) {
	f := newFixture(t, "おくr /送/[り/送/]/")
	f.typeKeys("OkuRi")
	require.True(t, f.e.HandleCancel())
	assert.Equal(t, Kanji, f.e.State())
	assert.Equal(t, "おくり", f.e.ctx.KanjiKey)
	assert.Empty(t, f.e.ctx.Okurigana)
}

func TestTypingInChooseCommitsSelection(t *testing.T) {
	f := newFixture(t, "かんじ /漢字/")
	f.typeKeys("Kanji a")
	assert.Equal(t, "漢字あ", f.rec.Text())
	assert.Equal(t, Hiragana, f.e.State())
}

func TestBackspaceInChooseCommitsPartially(t *testing.T) {
	f := newFixture(t, "かんじ /漢字/")
	f.typeKeys("Kanji ")
	assert.True(t, f.e.HandleBackspace())
	assert.Equal(t, "漢", f.rec.Text())
	assert.Equal(t, Hiragana, f.e.State())
}

func TestLearningPromotesPick(t *testing.T) {
	f := newFixture(t, "かんじ /漢字/感じ/幹事/")
	f.typeKeys("Kanji  ")
	f.e.HandleEnter()
	assert.Equal(t, "感じ", f.rec.Text())
	assert.Equal(t, []string{"感じ"}, f.userCandidates("かんじ"))

	f.typeKeys("Kanji ")
	assert.Equal(t, []string{"感じ", "漢字", "幹事"}, f.rec.Candidates())
}

func TestLearningDisabled(t *testing.T) {
	f := newFixture(t, "かんじ /漢字/感じ/")
	f.e.ApplyInput(config.InputConfig{Learning: false})
	f.typeKeys("Kanji ")
	f.e.HandleEnter()
	assert.Equal(t, "漢字", f.rec.Text())
	assert.Empty(t, f.userCandidates("かんじ"))

	// Nothing was learned, so re-conversion has nothing to roll back.
	require.True(t, f.e.HandleCancel())
	assert.Equal(t, Choose, f.e.State())
	assert.Empty(t, f.userCandidates("かんじ"))
}

func TestReconversion(t *testing.T) {
	f := newFixture(t, "かんじ /漢字/感じ/幹事/監事/完治/")
	f.typeKeys("Kanji   ")
	f.e.HandleEnter()
	assert.Equal(t, "幹事", f.rec.Text())
	assert.Equal(t, []string{"幹事"}, f.userCandidates("かんじ"))

	require.True(t, f.e.HandleCancel())
	assert.Equal(t, Choose, f.e.State())
	assert.Empty(t, f.rec.Text())
	assert.Len(t, f.rec.Candidates(), 5)
	assert.Equal(t, 2, f.rec.Chosen())
	assert.Equal(t, "▼幹事", f.rec.Composing())
	assert.Empty(t, f.userCandidates("かんじ"))

	// A second cancel leaves Choose for the reading.
	require.True(t, f.e.HandleCancel())
	assert.Equal(t, Kanji, f.e.State())
}

func TestReconversionNeedsCommittedTextAtCursor(t *testing.T) {
	f := newFixture(t, "かんじ /漢字/")
	f.typeKeys("Kanji ")
	f.e.HandleEnter()
	f.typeKeys("a")

	assert.False(t, f.e.HandleCancel())
	assert.Equal(t, "漢字あ", f.rec.Text())
}

func TestNumericConversion(t *testing.T) {
	f := newFixture(t, "だい#かい /第#0回/第#1回/第#3回/")
	f.typeKeys("Dai123kai ")
	require.Equal(t, Choose, f.e.State())
	assert.Equal(t, "だい#かい", f.e.ctx.DictKey)
	assert.Equal(t, []string{"第123回", "第１２３回", "第百二十三回"}, f.rec.Candidates())
	assert.Equal(t, "▼第123回", f.rec.Composing())

	f.e.HandleEnter()
	assert.Equal(t, "第123回", f.rec.Text())
	assert.Equal(t, []string{"第#0回"}, f.userCandidates("だい#かい"))
	assert.Empty(t, f.userCandidates("だい123かい"))
}

func TestNumericLiteralEntryComesFirst(t *testing.T) {
	f := newFixture(t,
		"だい1かい /第一回/",
		"だい#かい /第#0回/",
	)
	f.typeKeys("Dai1kai ")
	assert.Equal(t, []string{"第一回", "第1回"}, f.rec.Candidates())

	f.e.HandleEnter()
	assert.Equal(t, []string{"第一回"}, f.userCandidates("だい1かい"))
}

func TestNarrowing(t *testing.T) {
	f := newFixture(t,
		"かんじ /漢字/感じ/幹事/",
		"かん /感/缶/",
	)
	f.typeKeys("Kanji ")
	f.e.ProcessKey(CodeStartNarrowing)
	require.Equal(t, Narrowing, f.e.State())
	assert.Equal(t, "▼漢字［］", f.rec.Composing())

	f.typeKeys("ka")
	assert.Equal(t, "か", f.e.ctx.hint)
	assert.Len(t, f.rec.Candidates(), 3)

	f.typeKeys("nn")
	assert.Equal(t, "かん", f.e.ctx.hint)
	assert.Equal(t, []string{"感じ"}, f.rec.Candidates())
	assert.Equal(t, "▼感じ［かん］", f.rec.Composing())

	// Deleting a hint character widens back to the previous list.
	assert.True(t, f.e.HandleBackspace())
	assert.Len(t, f.rec.Candidates(), 3)

	f.typeKeys("nn")
	assert.Equal(t, []string{"感じ"}, f.rec.Candidates())
	f.e.HandleEnter()
	assert.Equal(t, "感じ", f.rec.Text())

	// Re-conversion offers the unfiltered list.
	require.True(t, f.e.HandleCancel())
	assert.Len(t, f.rec.Candidates(), 3)
	assert.Equal(t, 1, f.rec.Chosen())
}

func TestNarrowingCancelRestoresList(t *testing.T) {
	f := newFixture(t,
		"かんじ /漢字/感じ/幹事/",
		"かん /感/",
	)
	f.typeKeys("Kanji ")
	f.e.ProcessKey(CodeStartNarrowing)
	f.typeKeys("kann")
	require.Len(t, f.rec.Candidates(), 1)

	require.True(t, f.e.HandleCancel())
	assert.Equal(t, Choose, f.e.State())
	assert.Len(t, f.rec.Candidates(), 3)
}

func TestNarrowCandidatesIsMonotonic(t *testing.T) {
	original := []string{"漢字", "感じ", "幹事", "監事"}
	assert.Equal(t, original, narrowCandidates(original, nil, nil))
	assert.Equal(t, original, narrowCandidates(original, []string{"無"}, nil))

	got := narrowCandidates(original, []string{"感", "幹"}, nil)
	assert.Equal(t, []string{"感じ", "幹事"}, got)
	for _, c := range got {
		assert.Contains(t, original, c)
	}
}

func TestRegistration(t *testing.T) {
	f := newFixture(t)
	f.typeKeys("Hoge ")
	assert.Equal(t, Hiragana, f.e.State())
	assert.Equal(t, "[登録]ほげ：", f.rec.Composing())

	f.typeKeys("hoge")
	assert.Equal(t, "[登録]ほげ：ほげ", f.rec.Composing())
	assert.Empty(t, f.rec.Text())

	require.True(t, f.e.HandleEnter())
	assert.Equal(t, "ほげ", f.rec.Text())
	assert.Empty(t, f.rec.Composing())
	assert.Equal(t, []string{"ほげ"}, f.userCandidates("ほげ"))
}

func TestRegistrationPastLastCandidate(t *testing.T) {
	f := newFixture(t, "かんじ /漢字/")
	f.typeKeys("Kanji  ")
	assert.Equal(t, "[登録]かんじ：", f.rec.Composing())
	assert.Empty(t, f.rec.Candidates())
}

func TestRegistrationWithOkurigana(t *testing.T) {
	f := newFixture(t)
	f.typeKeys("HoGe")
	assert.Equal(t, "[登録]ほ*げ：", f.rec.Composing())

	f.typeKeys("hoge")
	f.e.HandleEnter()
	assert.Equal(t, "ほげげ", f.rec.Text())

	e, ok := f.user.GetEntry("ほg")
	require.True(t, ok)
	assert.Equal(t, []string{"ほげ"}, e.OkuriCandidates("げ"))
}

func TestNestedRegistration(t *testing.T) {
	f := newFixture(t, "かんじ /漢字/")
	f.typeKeys("Hoge ")
	f.typeKeys("Kanji ")
	assert.Equal(t, "[登録]ほげ：▼漢字", f.rec.Composing())

	f.e.HandleEnter()
	assert.Equal(t, "[登録]ほげ：漢字", f.rec.Composing())
	assert.Empty(t, f.rec.Text())

	f.typeKeys("Fuga ")
	assert.Equal(t, "[[登録]]ふが：", f.rec.Composing())
	f.typeKeys("a")
	f.e.HandleEnter()
	assert.Equal(t, "[登録]ほげ：漢字あ", f.rec.Composing())

	f.e.HandleEnter()
	assert.Equal(t, "漢字あ", f.rec.Text())
	assert.Equal(t, []string{"漢字あ"}, f.userCandidates("ほげ"))
	assert.Equal(t, []string{"あ"}, f.userCandidates("ふが"))
}

func TestRegistrationCancel(t *testing.T) {
	f := newFixture(t)
	f.typeKeys("Hoge ")
	f.typeKeys("a")

	require.True(t, f.e.HandleCancel())
	assert.Equal(t, Kanji, f.e.State())
	assert.Equal(t, "▽ほげ", f.rec.Composing())
	assert.Empty(t, f.rec.Text())
	assert.Empty(t, f.userCandidates("ほげ"))
}

func TestRegistrationEmptyEntryCancels(t *testing.T) {
	f := newFixture(t)
	f.typeKeys("Hoge ")
	require.True(t, f.e.HandleEnter())
	assert.Equal(t, Kanji, f.e.State())
	assert.Empty(t, f.userCandidates("ほげ"))
}

func TestRegistrationBackspaceEditsEntry(t *testing.T) {
	f := newFixture(t)
	f.typeKeys("Hoge ")
	f.typeKeys("ab")
	assert.True(t, f.e.HandleBackspace())
	assert.Equal(t, "[登録]ほげ：あ", f.rec.Composing())
	assert.True(t, f.e.HandleBackspace())
	assert.Equal(t, "[登録]ほげ：", f.rec.Composing())
}

func TestKatakanaMode(t *testing.T) {
	f := newFixture(t, "かんじ /漢字/")
	f.e.HandleKanaKey()
	assert.Equal(t, Katakana, f.e.State())
	assert.Equal(t, IconKatakana, f.rec.Icon())

	f.typeKeys("kana")
	assert.Equal(t, "カナ", f.rec.Text())

	f.typeKeys("Kanji")
	assert.Equal(t, "▽カンジ", f.rec.Composing())
	f.typeKeys(" ")
	f.e.HandleEnter()
	assert.Equal(t, "カナ漢字", f.rec.Text())
	assert.Equal(t, Katakana, f.e.State())

	f.e.HandleKanaKey()
	assert.Equal(t, Hiragana, f.e.State())
}

func TestHalfWidthKatakana(t *testing.T) {
	f := newFixture(t)
	f.e.ProcessKey(CodeKanaToggle)
	assert.Equal(t, HalfWidthKatakana, f.e.State())
	assert.Equal(t, IconHalfKatakana, f.rec.Icon())

	f.typeKeys("kaga")
	assert.Equal(t, "ｶｶﾞ", f.rec.Text())

	f.e.ProcessKey(CodeKanaToggle)
	assert.Equal(t, Hiragana, f.e.State())
}

func TestAbbrev(t *testing.T) {
	f := newFixture(t, "test /テスト/")
	f.typeKeys("/test")
	assert.Equal(t, Abbrev, f.e.State())
	assert.Equal(t, IconAbbrev, f.rec.Icon())
	assert.Equal(t, "▽test", f.rec.Composing())

	f.typeKeys(" ")
	require.Equal(t, Choose, f.e.State())
	f.e.HandleEnter()
	assert.Equal(t, "テスト", f.rec.Text())
}

func TestAbbrevFullWidth(t *testing.T) {
	f := newFixture(t)
	f.typeKeys("/test")
	f.e.ProcessKey(CodeToggleCase)
	assert.Equal(t, "▽tesT", f.rec.Composing())

	f.e.ProcessKey(CodeFullWidth)
	assert.Equal(t, "ｔｅｓＴ", f.rec.Text())
	assert.Equal(t, Hiragana, f.e.State())
}

func TestASCIIMode(t *testing.T) {
	f := newFixture(t)
	f.typeKeys("lHi there")
	assert.Equal(t, ASCII, f.e.State())
	assert.Equal(t, IconASCII, f.rec.Icon())
	assert.Equal(t, "Hi there", f.rec.Text())

	f.e.ProcessKey(CodeToggleCase)
	assert.Equal(t, "Hi therE", f.rec.Text())

	f.e.HandleKanaKey()
	assert.Equal(t, Hiragana, f.e.State())
	f.typeKeys("a")
	assert.Equal(t, "Hi therEあ", f.rec.Text())
}

func TestFullWidthAlnum(t *testing.T) {
	f := newFixture(t)
	f.typeKeys("La1")
	assert.Equal(t, FullWidthAlnum, f.e.State())
	assert.Equal(t, "ａ１", f.rec.Text())
}

func TestChangeToFlick(t *testing.T) {
	f := newFixture(t)
	assert.True(t, f.e.ChangeToFlick())

	f.typeKeys("l")
	assert.True(t, f.e.ChangeToFlick())
	assert.Equal(t, Hiragana, f.e.State())

	f.typeKeys("Ka")
	assert.False(t, f.e.ChangeToFlick())
}

func TestChangeLastCharCommitted(t *testing.T) {
	f := newFixture(t)
	f.typeKeys("ka")
	f.e.ChangeLastChar(romaji.ToDakuten)
	assert.Equal(t, "が", f.rec.Text())

	f.e.ProcessKey(CodeToSmall)
	assert.Equal(t, "が", f.rec.Text())

	f.typeKeys("tu")
	f.e.ProcessKey(CodeToSmall)
	assert.Equal(t, "がっ", f.rec.Text())
}

func TestChangeLastCharInReading(t *testing.T) {
	f := newFixture(t)
	f.typeKeys("Ha")
	f.e.ChangeLastChar(romaji.ToHandakuten)
	assert.Equal(t, "▽ぱ", f.rec.Composing())
}

func TestChangeLastCharRewritesOkuri(t *testing.T) {
	f := newFixture(t,
		"かk /書/[く/書/]/",
		"かg /嗅/[ぐ/嗅/]/",
	)
	f.typeKeys("KaKu")
	require.Equal(t, []string{"書"}, f.rec.Candidates())

	f.e.ChangeLastChar(romaji.ToDakuten)
	assert.Equal(t, Choose, f.e.State())
	assert.Equal(t, "かg", f.e.ctx.KanjiKey)
	assert.Equal(t, []string{"嗅"}, f.rec.Candidates())
	assert.Equal(t, "▼嗅ぐ", f.rec.Composing())
}

func TestCloseHidesIcon(t *testing.T) {
	f := newFixture(t)
	f.e.Close()
	assert.Equal(t, Icon(""), f.rec.Icon())

	f.typeKeys("a")
	assert.Empty(t, f.rec.Text())
	f.e.Close()
}

func TestEngineMetrics(t *testing.T) {
	f := newFixture(t, "かんじ /漢字/感じ/")
	assert.Equal(t, int64(1), f.m.ActiveEngines.Value())

	f.typeKeys("Kanji ")
	f.e.HandleEnter()
	assert.Equal(t, uint64(6), f.m.KeysTotal.Value())
	assert.Equal(t, uint64(1), f.m.ConversionsTotal.Value())
	assert.Equal(t, uint64(1), f.m.PicksTotal.Value())
	assert.Equal(t, uint64(1), f.m.LookupDuration.Count())
	assert.Equal(t, 2.0, f.m.CandidateCount.Sum())

	f.e.HandleCancel()
	assert.Equal(t, uint64(1), f.m.ReconversionsTotal.Value())
	f.e.HandleEnter()

	f.typeKeys("Hoge a")
	f.e.HandleEnter()
	assert.Equal(t, uint64(1), f.m.RegistrationsTotal.Value())
	assert.Equal(t, uint64(1), f.m.ConversionsTotal.Value(), "a reading without candidates is not a conversion")
	assert.Equal(t, uint64(2), f.m.LookupDuration.Count())
	assert.Zero(t, f.m.ErrorsTotal.Value())

	f.e.Close()
	assert.Equal(t, int64(0), f.m.ActiveEngines.Value())
}
