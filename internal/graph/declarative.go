package graph

import (
	"context"
	"strings"

	"github.com/mattjoyce/unraid-rrdtool/internal/config"
	"github.com/mattjoyce/unraid-rrdtool/internal/errors"
	"github.com/mattjoyce/unraid-rrdtool/internal/logger"
	"github.com/mattjoyce/unraid-rrdtool/internal/rrd"
)

// Color and font tags rrdtool understands; other theme keys are for
// delegated scripts only.
var (
	rrdColorTags = []string{"BACK", "CANVAS", "SHADEA", "SHADEB", "GRID", "MGRID", "FONT", "AXIS", "FRAME", "ARROW"}
	rrdFontTags  = []string{"DEFAULT", "TITLE", "AXIS", "UNIT", "LEGEND", "WATERMARK"}
)

type declarativeRenderer struct {
	store rrd.Store
}

func (r *declarativeRenderer) render(ctx context.Context, j *job) error {
	errFactory := errors.New()

	spec := rrd.GraphSpec{
		Output:        j.output,
		Start:         j.graph.Start,
		End:           j.graph.End,
		Width:         j.graph.Width,
		Height:        j.graph.Height,
		Title:         j.graph.Title,
		VerticalLabel: j.graph.VerticalLabel,
		Colors:        themeColors(j.env),
		Fonts:         themeFonts(j.env),
	}

	sensors := make(map[string]*config.Sensor, len(j.doc.Sensors))
	for i := range j.doc.Sensors {
		sensors[j.doc.Sensors[i].ID] = &j.doc.Sensors[i]
	}

	// One DEF per distinct referenced sensor, then the LINEs in series
	// order. Unknown series references are skipped, not fatal.
	defined := make(map[string]bool)
	var referenced []*config.Sensor
	for _, s := range j.graph.Series {
		sensor, ok := sensors[s.ID]
		if !ok {
			logger.Warn().
				Str("config", j.doc.Name).
				Str("graph", j.graph.Filename).
				Str("series", s.ID).
				Msg("Series references unknown sensor, skipping")
			continue
		}
		if !defined[s.ID] {
			defined[s.ID] = true
			referenced = append(referenced, sensor)
			spec.Defs = append(spec.Defs, rrd.Def{
				Name:    s.ID,
				RRDPath: j.doc.RRDPath,
				DS:      s.ID,
				CF:      "AVERAGE",
			})
		}

		color := s.Color
		if color == "" {
			color = "#000000"
		}
		legend := s.Legend
		if legend == "" {
			legend = s.ID
		}
		spec.Lines = append(spec.Lines, rrd.Line{Name: s.ID, Color: color, Legend: legend})
	}

	spec.Lower, spec.Upper = scaling(j.graph, referenced)

	if err := r.store.Graph(ctx, spec); err != nil {
		return errFactory.Wrap(ErrRenderFailed, err)
	}

	return nil
}

// scaling returns the explicit graph bounds when set, otherwise bounds
// derived from the referenced sensors' advisory min/max: the loosest
// range that covers every series.
func scaling(g *config.Graph, sensors []*config.Sensor) (lower, upper *float64) {
	lower, upper = g.Lower, g.Upper

	if lower == nil {
		for _, s := range sensors {
			if s.Min == nil {
				lower = nil
				break
			}
			if lower == nil || *s.Min < *lower {
				v := *s.Min
				lower = &v
			}
		}
	}

	if upper == nil {
		for _, s := range sensors {
			if s.Max == nil {
				upper = nil
				break
			}
			if upper == nil || *s.Max > *upper {
				v := *s.Max
				upper = &v
			}
		}
	}

	return lower, upper
}

func themeColors(env map[string]string) []string {
	var colors []string
	for _, tag := range rrdColorTags {
		if value, ok := env["COLOR_"+tag]; ok && strings.HasPrefix(value, "#") {
			colors = append(colors, tag+value)
		}
	}

	return colors
}

func themeFonts(env map[string]string) []string {
	var fonts []string
	for _, tag := range rrdFontTags {
		if size, ok := env["FONT_"+tag]; ok {
			fonts = append(fonts, tag+":"+size)
		}
	}

	return fonts
}
