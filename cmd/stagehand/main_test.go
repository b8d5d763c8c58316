package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/stagehand/internal/ecml"
)

const twoStages = `{"theme": {"id": "theme", "version": 0.2, "stage": [
  {"id": "a", "shape": [{"id": "s1", "z-index": 1}, {"id": "s0", "z-index": 0}]},
  {"id": "b", "text": {"id": "t", "z-index": 0, "text": "hi"}}
]}}`

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeDocument(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(twoStages), 0o644))
	return path
}

func TestVersionCmd(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "stagehand dev")
}

func TestRoundtripCmd(t *testing.T) {
	path := writeDocument(t)

	out, _, err := execute(t, "roundtrip", "--plugin-dir", t.TempDir(), path)
	require.NoError(t, err)

	doc, err := ecml.Decode([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "a", doc.Theme.StartStage)
	require.Len(t, doc.Theme.Stages, 2)

	shapes, ok := doc.Theme.Stages[0].Get("shape")
	require.True(t, ok)
	list, ok := shapes.([]ecml.PluginBody)
	require.True(t, ok)
	assert.Equal(t, "s0", list[0].ID(), "plugins are written in z-order")

	prev, _ := doc.Theme.Stages[1].Get("previous")
	assert.Equal(t, "a", prev)
}

func TestRoundtripCmd_OutputFile(t *testing.T) {
	path := writeDocument(t)
	target := filepath.Join(t.TempDir(), "out.json")

	out, _, err := execute(t, "roundtrip", "-o", target, path)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	_, err = ecml.Decode(data)
	assert.NoError(t, err)
}

func TestRoundtripCmd_MissingFile(t *testing.T) {
	_, _, err := execute(t, "roundtrip", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStagesCmd(t *testing.T) {
	out, _, err := execute(t, "stages", writeDocument(t))
	require.NoError(t, err)

	assert.Contains(t, out, "STAGE", "go-pretty upper-cases headers")
	assert.Contains(t, out, "SELECTED")
	assert.Contains(t, out, "shape")
	assert.Contains(t, out, "text")
	assert.Contains(t, out, "*")
}
