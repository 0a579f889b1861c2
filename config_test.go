package flowstate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const editorYAML = `
version: 1
machine: editor
specs:
  - name: Init
    to: [Edit]
  - name: Edit
    to: [Saved]
  - name: Saved
    terminal: true
restrictions:
  SET_X: [Edit]
`

func TestParseFlowSetYAML(t *testing.T) {
	cfg, err := ParseFlowSet([]byte(editorYAML))
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "editor", cfg.Machine)
	require.Len(t, cfg.Specs, 3)
	assert.Equal(t, "Init", cfg.Specs[0].Name)
	assert.Equal(t, []string{"Edit"}, cfg.Specs[0].To)
	assert.True(t, cfg.Specs[2].Terminal)
	assert.Equal(t, []string{"Edit"}, cfg.Restrictions["SET_X"])
}

func TestParseFlowSetJSON(t *testing.T) {
	data := []byte(`{
		"machine": "editor",
		"specs": [
			{"name": "Init", "to": ["Done"]},
			{"name": "Done", "terminal": true}
		]
	}`)
	cfg, err := ParseFlowSet(data)
	require.NoError(t, err)
	require.Len(t, cfg.Specs, 2)
	assert.Equal(t, "Done", cfg.Specs[0].To[0])
}

func TestParseFlowSetRejectsEmptySpecs(t *testing.T) {
	_, err := ParseFlowSet([]byte("machine: editor\nspecs: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one spec")
}

func TestParseFlowSetRejectsMissingName(t *testing.T) {
	_, err := ParseFlowSet([]byte("specs:\n  - to: [Done]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestLoadFlowSetReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(editorYAML), 0o644))

	cfg, err := LoadFlowSet(path)
	require.NoError(t, err)
	assert.Equal(t, "editor", cfg.Machine)

	_, err = LoadFlowSet(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestBuildAppliesConfigRestrictions(t *testing.T) {
	cfg, err := ParseFlowSet([]byte(editorYAML))
	require.NoError(t, err)

	m, err := Build(cfg, WithUpdates(UpdateMap[docData]{
		"SET_X": func(prev docData, value any, _ string) docData {
			prev.X = value.(int)
			return prev
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, "editor", m.Name())
	assert.False(t, m.updateAllowed("SET_X", "Init"))
	assert.True(t, m.updateAllowed("SET_X", "Edit"))
}

func TestBuildFailsWithoutUpdatersForRestrictions(t *testing.T) {
	cfg, err := ParseFlowSet([]byte(editorYAML))
	require.NoError(t, err)

	_, err = Build[docData](cfg)
	require.Error(t, err)
	assert.Equal(t, ErrCodeUnknownEvent, ErrorCode(err))
}
