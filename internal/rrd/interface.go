package rrd

import (
	"context"
	"strconv"
	"time"
)

// Value is one data-source slot of an append. Unknown marks a slot whose
// sensor could not be read this cycle; the round-robin database treats it
// as a gap without stalling the timestamp.
type Value string

const Unknown Value = "U"

// Number formats a float sample as an append value.
func Number(f float64) Value {
	return Value(strconv.FormatFloat(f, 'f', -1, 64))
}

// Integer formats a counter-style sample as an append value.
func Integer(i int64) Value {
	return Value(strconv.FormatInt(i, 10))
}

// DS describes one data source of a new round-robin database.
type DS struct {
	Name      string
	Type      string
	Heartbeat int
	Min       string
	Max       string
}

// Archive describes one RRA of a new round-robin database.
type Archive struct {
	CF    string
	XFF   float64
	Steps int
	Rows  int
}

// CreateSpec describes a database to create.
type CreateSpec struct {
	Path        string
	Step        int
	DataSources []DS
	Archives    []Archive
}

// Def binds a graph variable to a data source of a database.
type Def struct {
	Name    string
	RRDPath string
	DS      string
	CF      string
}

// Line draws one series referenced by a Def.
type Line struct {
	Name   string
	Color  string
	Legend string
}

// GraphSpec describes one declarative graph rendering call.
type GraphSpec struct {
	Output        string
	Start         string
	End           string
	Width         int
	Height        int
	Title         string
	VerticalLabel string
	Lower         *float64
	Upper         *float64
	Colors        []string // rrdtool COLORTAG#rrggbb form
	Fonts         []string // rrdtool TAG:size form
	Defs          []Def
	Lines         []Line
}

// Store is the command/query boundary to the round-robin time-series
// engine. The pipeline never assumes in-process access to the database
// file format; tests substitute a fake.
type Store interface {
	Create(ctx context.Context, spec CreateSpec) error
	Update(ctx context.Context, path string, timestamp time.Time, values []Value) error
	Graph(ctx context.Context, spec GraphSpec) error
}
