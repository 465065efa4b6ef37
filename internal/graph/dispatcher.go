// Package graph routes graph definitions to their renderer: declarative
// graphs are assembled in-process and handed to the store adapter,
// delegated graphs invoke an external rendering script. Both paths share
// one compiled theme per config and the same output naming, so their
// images are indistinguishable downstream.
package graph

import (
	"context"
	"path/filepath"
	"time"

	"github.com/mattjoyce/unraid-rrdtool/internal/config"
	"github.com/mattjoyce/unraid-rrdtool/internal/errors"
	"github.com/mattjoyce/unraid-rrdtool/internal/logger"
	"github.com/mattjoyce/unraid-rrdtool/internal/rrd"
	"github.com/mattjoyce/unraid-rrdtool/internal/theme"
)

type Dispatcher struct {
	themesDir   string
	configRoot  string
	declarative renderer
	delegate    renderer
}

// NewDispatcher creates a Dispatcher. configRoot anchors relative script
// references; scriptTimeout bounds each delegated invocation.
func NewDispatcher(store rrd.Store, themesDir, configRoot string, scriptTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		themesDir:   themesDir,
		configRoot:  configRoot,
		declarative: &declarativeRenderer{store: store},
		delegate:    &delegateRenderer{configRoot: configRoot, timeout: scriptTimeout},
	}
}

// RenderAll runs one render pass over doc: compile the theme once,
// materialize it to the per-config environment file, then render each
// graph in order. A failing graph is recorded and never stops the
// remaining ones.
func (d *Dispatcher) RenderAll(ctx context.Context, doc *config.Document) Result {
	result := Result{
		Config:   doc.Name,
		Outcomes: make([]Outcome, 0, len(doc.Graphs)),
	}

	env := d.compileTheme(doc)
	result.EnvPath = envFilePath(doc)
	if err := env.WriteFile(result.EnvPath); err != nil {
		// Scripts source the env file only if present; rendering without
		// theme keys beats skipping the whole pass.
		logger.Warn().Str("config", doc.Name).Err(err).Msg("Theme environment file not written")
	}

	for i := range doc.Graphs {
		g := &doc.Graphs[i]
		j := &job{
			doc:     doc,
			graph:   g,
			output:  outputPath(doc, g),
			env:     env,
			envPath: result.EnvPath,
		}

		r := d.declarative
		if g.Delegated() {
			r = d.delegate
		}

		if err := r.render(ctx, j); err != nil {
			logger.Error().
				Str("config", doc.Name).
				Str("graph", g.Filename).
				Err(err).
				Msg("Graph rendering failed")
			result.Outcomes = append(result.Outcomes, Outcome{
				Graph:     g.Filename,
				Output:    j.output,
				Delegated: g.Delegated(),
				Code:      errors.CodeOf(err),
				Detail:    err.Error(),
			})
			continue
		}

		logger.Info().Str("config", doc.Name).Str("output", j.output).Msg("Graph written")
		result.Outcomes = append(result.Outcomes, Outcome{
			Graph:     g.Filename,
			Output:    j.output,
			Delegated: g.Delegated(),
		})
	}

	return result
}

func (d *Dispatcher) compileTheme(doc *config.Document) theme.FlatEnv {
	themeDoc, err := theme.Load(d.themesDir, doc.Theme)
	if err != nil {
		logger.Warn().Str("config", doc.Name).Str("theme", doc.Theme).Err(err).
			Msg("Theme unusable, rendering without theme keys")
		themeDoc = &theme.Document{}
	}

	return theme.Compile(themeDoc)
}

// outputPath names the image <graphsPath>/<prefix>_<filename>, the
// convention the viewer groups by.
func outputPath(doc *config.Document, g *config.Graph) string {
	name := g.Filename
	if doc.Prefix != "" {
		name = doc.Prefix + "_" + name
	}

	return filepath.Join(doc.GraphsPath, name)
}

// envFilePath names the theme environment file per config so overlapping
// passes for different configs never share one.
func envFilePath(doc *config.Document) string {
	name := doc.Prefix
	if name == "" {
		name = doc.Name
	}

	return filepath.Join(doc.GraphsPath, name+"_theme.env")
}
