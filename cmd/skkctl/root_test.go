package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skkime/internal/ime"
)

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, args := range [][]string{
		{"import"}, {"lookup"}, {"complete"}, {"user", "add"}, {"user", "remove"}, {"type"}, {"shell"},
		{"config", "init"}, {"config", "show"},
	} {
		sub, _, err := cmd.Find(args)
		require.NoError(t, err, args)
		assert.Equal(t, args[len(args)-1], sub.Name())
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	f := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, f)
	assert.Equal(t, "c", f.Shorthand)

	f = cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, f)
	assert.Equal(t, "text", f.DefValue)
}

func TestParseKeys(t *testing.T) {
	events := parseKeys("Ka <enter><s2><bs>a<b")
	want := []keyEvent{
		{code: 'K'}, {code: 'a'}, {code: ' '},
		{name: "enter"},
		{code: ime.SuggestionCode(2)},
		{name: "bs"},
		{code: 'a'}, {code: '<'}, {code: 'b'},
	}
	assert.Equal(t, want, events)

	assert.Equal(t, []keyEvent{{code: ime.CodeStartNarrowing}, {code: 'か'}}, parseKeys("<narrow>か"))
	assert.Equal(t, []keyEvent{{code: '<'}, {code: '>'}}, parseKeys("<>"))
}

// workspace writes a config that keeps every file under a temp dir.
func workspace(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf(`version = 1

[dictionary]
paths = [%q]
user_path = %q
ascii_path = ""

[input]
learning = true

[logging]
level = "error"
output = "stderr"
`, filepath.Join(dir, "static.db"), filepath.Join(dir, "user.db"))

	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0600))
	return dir, path
}

func run(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestImportLookupAndType(t *testing.T) {
	dir, cfg := workspace(t)
	src := filepath.Join(dir, "SKK-JISYO.test")
	require.NoError(t, os.WriteFile(src, []byte("かんじ /漢字/感じ/\nおくr /送/[り/送/]/\n"), 0600))

	out, err := run(t, cfg, "import", src)
	require.NoError(t, err)
	assert.Contains(t, out, "2 entries")

	out, err = run(t, cfg, "lookup", "かんじ")
	require.NoError(t, err)
	assert.Contains(t, out, "かんじ /漢字/感じ/")

	out, err = run(t, cfg, "type", "Kanji  <enter>")
	require.NoError(t, err)
	assert.Equal(t, "感じ\n", out)

	// The pick was learned.
	out, err = run(t, cfg, "--format", "json", "lookup", "かんじ")
	require.NoError(t, err)
	var hits []lookupHit
	require.NoError(t, json.Unmarshal([]byte(out), &hits))
	require.Len(t, hits, 2)
	assert.Equal(t, "/感じ/", hits[0].Entry)

	out, err = run(t, cfg, "complete", "か")
	require.NoError(t, err)
	assert.Equal(t, "かんじ\n", out)
}

func TestTypeReportsComposing(t *testing.T) {
	_, cfg := workspace(t)
	out, err := run(t, cfg, "type", "aKa")
	require.NoError(t, err)
	assert.Equal(t, "あ\n(composing ▽か, kanji)\n", out)
}

func TestUserAddRemove(t *testing.T) {
	_, cfg := workspace(t)

	out, err := run(t, cfg, "user", "add", "ほげ", "a/b")
	require.NoError(t, err)
	assert.Equal(t, "ほげ /(concat \"a\\057b\")/\n", out)

	out, err = run(t, cfg, "user", "add", "--annotation", "note", "ほげ", "ほげ")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "ほげ /ほげ;note/"), out)

	_, err = run(t, cfg, "user", "remove", "--annotation", "note", "ほげ", "ほげ")
	require.NoError(t, err)
	out, err = run(t, cfg, "user", "remove", "ほげ", "a/b")
	require.NoError(t, err)
	assert.Equal(t, "ほげ: removed\n", out)
}

func TestInvalidFormat(t *testing.T) {
	_, cfg := workspace(t)
	_, err := run(t, cfg, "--format", "xml", "lookup", "か")
	assert.ErrorContains(t, err, "invalid format")
}

func TestShellLoop(t *testing.T) {
	rec := ime.NewRecorder()
	e := ime.NewEngine(rec, ime.Options{})
	t.Cleanup(e.Close)

	var out bytes.Buffer
	err := shellLoop(context.Background(), strings.NewReader("ka\nKa\n<enter>\n"), &out, e, rec)
	require.NoError(t, err)
	assert.Equal(t, `text "か" compose "" state hiragana
text "か" compose "▽か" state kanji
text "かか" compose "" state hiragana
`, out.String())
}

func TestTypeMetrics(t *testing.T) {
	_, cfg := workspace(t)
	out, err := run(t, cfg, "type", "--metrics", "ka")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "か\n"), out)
	assert.Contains(t, out, "skkime_keys_total 2\n")
	assert.Contains(t, out, "skkime_active_engines 0\n")
}

func TestConfigInitAndShow(t *testing.T) {
	dir, cfg := workspace(t)
	target := filepath.Join(dir, "sub", "config.yaml")

	out, err := run(t, cfg, "config", "init", target)
	require.NoError(t, err)
	assert.Equal(t, target+": created\n", out)
	out, err = run(t, cfg, "config", "init", target)
	require.NoError(t, err)
	assert.Equal(t, target+": exists\n", out)

	out, err = run(t, cfg, "config", "show", "--as", "json")
	require.NoError(t, err)
	var shown struct {
		Dictionary struct {
			UserPath string `json:"user_path"`
		} `json:"dictionary"`
		Logging struct {
			Output string `json:"output"`
		} `json:"logging"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, filepath.Join(dir, "user.db"), shown.Dictionary.UserPath)
	assert.Equal(t, "stderr", shown.Logging.Output)

	_, err = run(t, cfg, "config", "show", "--as", "ini")
	assert.ErrorContains(t, err, "invalid encoding")
}
