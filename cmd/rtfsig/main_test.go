package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRTF = `{\rtf1\ansi{\*\rsidtbl \rsid1234\rsid5678}{\info{\author edeca}}\pard\pararsid1234 text}`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var logs bytes.Buffer
	cmd := newRootCmd(&logs)
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return logs.String(), err
}

func writeSample(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.rtf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun_WritesRules(t *testing.T) {
	in := writeSample(t, sampleRTF)
	out := filepath.Join(t.TempDir(), "rules.yar")

	logs, err := execute(t, "-f", in, "-y", out)
	require.NoError(t, err)

	rules, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(rules)
	assert.Contains(t, text, "rule loose_rule {")
	assert.Contains(t, text, "rule strict_rule {")
	assert.Contains(t, text, `$ = "\\rsid1234\\rsid5678" ascii`)
	assert.Contains(t, text, `$ = "{\\author edeca}" ascii`)
	assert.Contains(t, logs, "document information tags")
}

func TestRun_ExcludeRisky(t *testing.T) {
	in := writeSample(t, sampleRTF)
	out := filepath.Join(t.TempDir(), "rules.yar")

	_, err := execute(t, "-f", in, "-y", out, "-x")
	require.NoError(t, err)

	rules, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotContains(t, string(rules), "author")
}

func TestRun_NoFindingsSucceedsWithoutRules(t *testing.T) {
	in := writeSample(t, `{\rtf1 plain}`)
	out := filepath.Join(t.TempDir(), "rules.yar")

	logs, err := execute(t, "-f", in, "-y", out)
	require.NoError(t, err)
	assert.NoFileExists(t, out)
	assert.Contains(t, logs, "no unique strings found")
}

func TestRun_VerboseShowsAnomalies(t *testing.T) {
	in := writeSample(t, `{\rtf1}}`)
	logs, err := execute(t, "-f", in, "-v")
	require.NoError(t, err)
	assert.Contains(t, logs, "unmatched group close")

	logs, err = execute(t, "-f", in)
	require.NoError(t, err)
	assert.NotContains(t, logs, "unmatched group close")
}

func TestRun_HTMLReport(t *testing.T) {
	in := writeSample(t, sampleRTF)
	out := filepath.Join(t.TempDir(), "report.html")

	_, err := execute(t, "-f", in, "--html", out)
	require.NoError(t, err)

	html, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(html), "<h1>rtfsig report: sample.rtf</h1>"))
}

func TestExitCodes(t *testing.T) {
	_, err := execute(t, "-f", filepath.Join(t.TempDir(), "missing.rtf"))
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))

	_, err = execute(t)
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))

	_, err = execute(t, "--no-such-flag")
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
}
