package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validProfileCUE = `
ruleset: "boot": {
	category: "macro"
	rules: [
		{label: "head out", then: "assign(head_to_mine)"},
	]
}
ruleset: "gathering": {
	category: "micro"
	rules: [
		{when: ["inventory_full"], then: "finish_task"},
		{when: ["at(mine)"], then: "gather(0)"},
		{then: "idle"},
	]
}
sequence: "head_to_mine": {
	steps: [{travel_to: "mine"}, {work: "gathering"}]
}
`

const danglingProfileCUE = `
ruleset: "boot": {
	category: "macro"
	rules: [
		{then: "assign(ghost)"},
	]
}
`

// writeProfile drops CUE source into a temp file and returns its path.
func writeProfile(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.cue")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func TestValidateValidProfile(t *testing.T) {
	path := writeProfile(t, validProfileCUE)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "profile OK: 2 rulesets, 1 sequences")
}

func TestValidateValidProfileJSON(t *testing.T) {
	path := writeProfile(t, validProfileCUE)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestValidateProfileDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "profile.cue"), []byte(validProfileCUE), 0o644))

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "profile OK")
}

func TestValidateDanglingReference(t *testing.T) {
	path := writeProfile(t, danglingProfileCUE)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "E102")
	assert.Contains(t, buf.String(), "ghost")
}

func TestValidateDanglingReferenceJSON(t *testing.T) {
	path := writeProfile(t, danglingProfileCUE)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "validation errors")
}

func TestValidateSyntaxError(t *testing.T) {
	path := writeProfile(t, `ruleset: "boot": {{{`)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateMissingProfile(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/profile.cue"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "not found")
}
