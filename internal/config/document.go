package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattjoyce/unraid-rrdtool/internal/errors"
)

// Defaults applied to graph definitions, matching what rrdtool would be
// given when a field is omitted.
const (
	DefaultGraphStart    = "-1d"
	DefaultGraphEnd      = "now"
	DefaultGraphWidth    = 1000
	DefaultGraphHeight   = 300
	DefaultGraphTitle    = "RRD Graph"
	DefaultVerticalLabel = "Value"
	DefaultGraphsPath    = "/data/graphs"
)

// Sensor defines one data source of a telemetry document. ID doubles as
// the RRD data source name and must never change once the RRD exists.
type Sensor struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Unit      string   `json:"unit"`
	Path      string   `json:"path"`
	Transform string   `json:"transform"`
	Min       *float64 `json:"min"`
	Max       *float64 `json:"max"`
	DSType    string   `json:"ds_type"`
}

// Series references a sensor by ID for a declarative graph.
type Series struct {
	ID     string `json:"id"`
	Color  string `json:"color"`
	Legend string `json:"legend"`
}

// Graph defines one output image. A graph is delegated to an external
// rendering script if and only if Script is set; Script and Series are
// mutually exclusive.
type Graph struct {
	Filename      string   `json:"filename"`
	Title         string   `json:"title"`
	Start         string   `json:"start"`
	End           string   `json:"end"`
	Width         int      `json:"width"`
	Height        int      `json:"height"`
	VerticalLabel string   `json:"vertical_label"`
	Lower         *float64 `json:"lower"`
	Upper         *float64 `json:"upper"`
	Series        []Series `json:"series"`
	Script        string   `json:"script"`
}

// Delegated reports whether this graph is rendered by an external script.
func (g *Graph) Delegated() bool {
	return g.Script != ""
}

// Archive defines one RRA of the round-robin database.
type Archive struct {
	CF    string  `json:"cf"`
	XFF   float64 `json:"xff"`
	Steps int     `json:"steps"`
	Rows  int     `json:"rows"`
}

// RRD holds the store schema used when creating the database.
type RRD struct {
	Step     int       `json:"step"`
	Archives []Archive `json:"archives"`
}

// Document is one parsed telemetry config file. Name is derived from the
// file name and used only for reporting.
type Document struct {
	Name       string   `json:"-"`
	Prefix     string   `json:"prefix"`
	Enabled    *bool    `json:"enabled"`
	RRDPath    string   `json:"rrd_path"`
	GraphsPath string   `json:"graphs_path"`
	Theme      string   `json:"theme"`
	Sensors    []Sensor `json:"sensors"`
	Graphs     []Graph  `json:"graphs"`
	RRD        RRD      `json:"rrd"`
}

// IsEnabled reports whether the document should be processed. Documents
// are enabled unless they opt out.
func (d *Document) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// LoadDocument reads and validates a single telemetry config document.
func LoadDocument(path string) (*Document, error) {
	errFactory := errors.New()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errFactory.Wrap(ErrDocumentRead, err)
	}

	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, errFactory.Wrap(ErrDocumentParse, err).
			WithMessage("Invalid JSON in config document " + path)
	}

	doc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	doc.applyDefaults()

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	return doc, nil
}

// ListDocuments returns the sorted paths of all config documents in dir.
func ListDocuments(dir string) ([]string, error) {
	errFactory := errors.New()

	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, errFactory.Wrap(ErrDocumentRead, err)
	}

	return paths, nil
}

func (d *Document) applyDefaults() {
	if d.GraphsPath == "" {
		d.GraphsPath = DefaultGraphsPath
	}

	for i := range d.Graphs {
		g := &d.Graphs[i]
		if g.Filename == "" {
			g.Filename = "graph.png"
		}
		if g.Title == "" {
			g.Title = DefaultGraphTitle
		}
		if g.Start == "" {
			g.Start = DefaultGraphStart
		}
		if g.End == "" {
			g.End = DefaultGraphEnd
		}
		if g.Width == 0 {
			g.Width = DefaultGraphWidth
		}
		if g.Height == 0 {
			g.Height = DefaultGraphHeight
		}
		if g.VerticalLabel == "" {
			g.VerticalLabel = DefaultVerticalLabel
		}
	}

	for i := range d.Sensors {
		if d.Sensors[i].DSType == "" {
			d.Sensors[i].DSType = "GAUGE"
		}
	}
}

// Validate enforces the structural invariants of a document: an RRD path,
// unique non-empty sensor IDs and the graph tagged-union exclusivity.
func (d *Document) Validate() error {
	errFactory := errors.New()

	if d.RRDPath == "" {
		return errFactory.WithData(ErrMissingRRDPath, d.Name)
	}

	seen := make(map[string]bool, len(d.Sensors))
	for i := range d.Sensors {
		s := &d.Sensors[i]
		if s.ID == "" {
			return errFactory.WithData(ErrInvalidSensor, "sensor with empty id in "+d.Name)
		}
		if seen[s.ID] {
			return errFactory.WithData(ErrDuplicateSensorID, s.ID)
		}
		seen[s.ID] = true

		switch s.DSType {
		case "GAUGE", "COUNTER", "DERIVE", "ABSOLUTE":
		default:
			return errFactory.WithData(ErrInvalidSensor, "sensor "+s.ID+" has unknown ds_type "+s.DSType)
		}
	}

	for i := range d.Graphs {
		g := &d.Graphs[i]
		if g.Delegated() && len(g.Series) > 0 {
			return errFactory.WithData(ErrAmbiguousGraph, g.Filename)
		}
	}

	return nil
}
