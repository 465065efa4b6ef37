// Package theme turns nested theme documents into the flat shell
// environment shared by both rendering paths.
package theme

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattjoyce/unraid-rrdtool/internal/errors"
	"github.com/mattjoyce/unraid-rrdtool/internal/logger"
)

// Document is a parsed theme file. Categories are fixed; every leaf value
// is a string (a color code, or a font size as a string).
type Document struct {
	Name        string            `json:"name"`
	Scaffolding map[string]string `json:"scaffolding"`
	Series      map[string]string `json:"series"`
	Alarms      map[string]string `json:"alarms"`
	Fonts       map[string]string `json:"fonts"`
}

// FlatEnv is a compiled theme: flat, category-qualified, upper-cased keys
// mapping to their raw (unescaped) string values.
type FlatEnv map[string]string

// Category prefixes. Each category gets a distinct prefix so that the
// flattening is lossless: a name appearing in two categories still maps
// to two distinct flat keys.
const (
	prefixScaffolding = "COLOR_"
	prefixSeries      = "SERIES_"
	prefixAlarms      = "ALARM_"
	prefixFonts       = "FONT_"
)

// Compile flattens a theme document. The result depends only on the
// document's contents, never on map iteration order, and absent
// categories simply contribute no keys: consumers supply their own
// defaults.
func Compile(doc *Document) FlatEnv {
	env := make(FlatEnv)
	if doc == nil {
		return env
	}

	flatten(env, prefixScaffolding, doc.Scaffolding)
	flatten(env, prefixSeries, doc.Series)
	flatten(env, prefixAlarms, doc.Alarms)
	flatten(env, prefixFonts, doc.Fonts)

	return env
}

func flatten(env FlatEnv, prefix string, leaves map[string]string) {
	for name, value := range leaves {
		env[prefix+strings.ToUpper(name)] = value
	}
}

// Keys returns the flat keys in sorted order.
func (e FlatEnv) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

// Render serializes the environment as shell-sourceable assignment
// statements, one per line, sorted by key.
func (e FlatEnv) Render() string {
	var b strings.Builder
	for _, key := range e.Keys() {
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(escapeValue(e[key]))
		b.WriteString("\n")
	}

	return b.String()
}

// WriteFile materializes the environment to path, replacing any leftover
// file from an earlier run.
func (e FlatEnv) WriteFile(path string) error {
	errFactory := errors.New()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errFactory.Wrap(ErrEnvWriteFailed, err)
	}
	if err := os.WriteFile(path, []byte(e.Render()), 0o644); err != nil {
		return errFactory.Wrap(ErrEnvWriteFailed, err)
	}

	return nil
}

// escapeValue wraps a value in double quotes and escapes every character
// the shell would interpret inside them. All theme values pass through
// here; there is no second emission path.
func escapeValue(value string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(value); i++ {
		switch c := value[i]; c {
		case '\\', '"', '$', '`':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')

	return b.String()
}

// Load reads a theme by name from the themes directory. A missing theme
// is not an error: rendering proceeds without theme keys and consumers
// fall back to their own defaults.
func Load(themesDir, name string) (*Document, error) {
	errFactory := errors.New()

	if name == "" {
		return &Document{}, nil
	}

	path := filepath.Join(themesDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn().Str("theme", name).Str("path", path).Msg("Theme file not found")
			return &Document{}, nil
		}
		return nil, errFactory.Wrap(ErrThemeRead, err)
	}

	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, errFactory.Wrap(ErrThemeParse, err).
			WithMessage("Invalid JSON in theme file " + path)
	}

	return doc, nil
}
