package graph

import (
	"context"

	"github.com/mattjoyce/unraid-rrdtool/internal/config"
	"github.com/mattjoyce/unraid-rrdtool/internal/errors"
	"github.com/mattjoyce/unraid-rrdtool/internal/theme"
)

// Outcome records the result of rendering one graph definition.
type Outcome struct {
	Graph     string
	Output    string
	Delegated bool
	Code      errors.ErrorCode
	Detail    string
}

// OK reports whether the graph was rendered.
func (o Outcome) OK() bool {
	return o.Code == ""
}

// Result is the structured summary of one render pass over one config
// document.
type Result struct {
	Config   string
	EnvPath  string
	Outcomes []Outcome
}

// Failed counts the graphs that were not rendered.
func (r Result) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.OK() {
			n++
		}
	}

	return n
}

// job carries everything one renderer invocation needs.
type job struct {
	doc     *config.Document
	graph   *config.Graph
	output  string
	env     theme.FlatEnv
	envPath string
}

// renderer is the capability interface both rendering paths implement.
// Dispatch is decided by the graph definition's tagged union, never by
// inspecting paths mid-pipeline.
type renderer interface {
	render(ctx context.Context, j *job) error
}
