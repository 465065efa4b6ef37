package theme_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mattjoyce/unraid-rrdtool/internal/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() *theme.Document {
	return &theme.Document{
		Name: "unraid-dark",
		Scaffolding: map[string]string{
			"BACK":   "#0F1115",
			"CANVAS": "#0B0E14",
			"font":   "#C8CCD4",
		},
		Series: map[string]string{
			"PRIMARY":   "#4C9BE8",
			"secondary": "#E8A74C",
		},
		Alarms: map[string]string{
			"CRITICAL": "#E84C4C",
		},
		Fonts: map[string]string{
			"TITLE":   "13",
			"default": "11",
		},
	}
}

func TestCompileFlattensAllCategories(t *testing.T) {
	env := theme.Compile(sampleDocument())

	assert.Equal(t, "#0F1115", env["COLOR_BACK"])
	assert.Equal(t, "#C8CCD4", env["COLOR_FONT"])
	assert.Equal(t, "#4C9BE8", env["SERIES_PRIMARY"])
	assert.Equal(t, "#E8A74C", env["SERIES_SECONDARY"])
	assert.Equal(t, "#E84C4C", env["ALARM_CRITICAL"])
	assert.Equal(t, "13", env["FONT_TITLE"])
	assert.Equal(t, "11", env["FONT_DEFAULT"])
}

func TestCompileIsLossless(t *testing.T) {
	doc := sampleDocument()
	env := theme.Compile(doc)

	// Exactly one flat key per leaf, no extra keys.
	leaves := len(doc.Scaffolding) + len(doc.Series) + len(doc.Alarms) + len(doc.Fonts)
	assert.Len(t, env, leaves)
}

func TestCompileIsDeterministic(t *testing.T) {
	first := theme.Compile(sampleDocument())
	second := theme.Compile(sampleDocument())
	assert.Equal(t, first, second)
	assert.Equal(t, first.Render(), second.Render())
}

func TestCompileAbsentCategories(t *testing.T) {
	env := theme.Compile(&theme.Document{
		Series: map[string]string{"PRIMARY": "#4C9BE8"},
	})

	// No defaults injected: absent categories contribute nothing.
	assert.Len(t, env, 1)
	assert.Equal(t, "#4C9BE8", env["SERIES_PRIMARY"])

	assert.Empty(t, theme.Compile(nil))
	assert.Empty(t, theme.Compile(&theme.Document{}))
}

func TestRenderIsShellSourceable(t *testing.T) {
	env := theme.FlatEnv{
		"COLOR_BACK":   "#0F1115",
		"SERIES_EVIL":  `a"b$c` + "`d`" + `\e`,
		"FONT_DEFAULT": "11",
	}

	rendered := env.Render()
	lines := strings.Split(strings.TrimRight(rendered, "\n"), "\n")
	require.Len(t, lines, 3)

	// Sorted by key, one assignment per line, all values quoted.
	assert.Equal(t, `COLOR_BACK="#0F1115"`, lines[0])
	assert.Equal(t, `FONT_DEFAULT="11"`, lines[1])
	assert.Equal(t, `SERIES_EVIL="a\"b\$c\`+"\\`d\\`"+`\\e"`, lines[2])
}

func TestWriteFileReplacesStaleContent(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "theme_test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	path := filepath.Join(tempDir, "system_theme.env")
	require.NoError(t, os.WriteFile(path, []byte("GARBAGE FROM AN ABORTED RUN"), 0o644))

	env := theme.FlatEnv{"COLOR_BACK": "#0F1115"}
	require.NoError(t, env.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "COLOR_BACK=\"#0F1115\"\n", string(data))
}

func TestLoadTheme(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "theme_test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	themeJSON := []byte(`{
		"name": "unraid-dark",
		"scaffolding": {"BACK": "#0F1115"},
		"series": {"PRIMARY": "#4C9BE8"},
		"fonts": {"TITLE": "13"}
	}`)
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "unraid-dark.json"), themeJSON, 0o644))

	doc, err := theme.Load(tempDir, "unraid-dark")
	require.NoError(t, err)
	assert.Equal(t, "unraid-dark", doc.Name)
	assert.Equal(t, "#0F1115", doc.Scaffolding["BACK"])
	assert.Nil(t, doc.Alarms)
}

func TestLoadMissingThemeIsEmpty(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "theme_test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	doc, err := theme.Load(tempDir, "no-such-theme")
	require.NoError(t, err)
	assert.Empty(t, theme.Compile(doc))
}

func TestLoadInvalidTheme(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "theme_test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "broken.json"), []byte("not json"), 0o644))

	_, err = theme.Load(tempDir, "broken")
	require.Error(t, err)
}
