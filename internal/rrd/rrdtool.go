// Package rrd wraps the external rrdtool binary behind the Store
// interface. All invocations are synchronous and bounded by the
// configured timeout.
package rrd

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mattjoyce/unraid-rrdtool/internal/errors"
	"github.com/mattjoyce/unraid-rrdtool/internal/logger"
)

const DefaultBinary = "rrdtool"

type tool struct {
	binary  string
	timeout time.Duration
}

// NewTool creates a Store backed by the rrdtool binary.
func NewTool(binary string, timeout time.Duration) Store {
	if binary == "" {
		binary = DefaultBinary
	}

	return &tool{binary: binary, timeout: timeout}
}

// Create builds the database unless it already exists.
func (t *tool) Create(ctx context.Context, spec CreateSpec) error {
	errFactory := errors.New()

	if spec.Path == "" {
		return errFactory.New(ErrInvalidSpec)
	}
	if _, err := os.Stat(spec.Path); err == nil {
		logger.Debug().Str("rrd", spec.Path).Msg("Database already exists")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(spec.Path), 0o755); err != nil {
		return errFactory.Wrap(ErrCreateFailed, err)
	}

	args := []string{"create", spec.Path, "--step", strconv.Itoa(spec.Step)}
	for _, ds := range spec.DataSources {
		args = append(args, strings.Join([]string{
			"DS", ds.Name, ds.Type, strconv.Itoa(ds.Heartbeat), ds.Min, ds.Max,
		}, ":"))
	}
	for _, rra := range spec.Archives {
		args = append(args, "RRA:"+rra.CF+":"+
			strconv.FormatFloat(rra.XFF, 'g', -1, 64)+":"+
			strconv.Itoa(rra.Steps)+":"+
			strconv.Itoa(rra.Rows))
	}

	if err := t.run(ctx, args); err != nil {
		return errFactory.Wrap(ErrCreateFailed, err)
	}

	logger.Info().Str("rrd", spec.Path).Msg("Database created")

	return nil
}

// Update appends one value per data source at the given timestamp.
func (t *tool) Update(ctx context.Context, path string, timestamp time.Time, values []Value) error {
	errFactory := errors.New()

	if path == "" || len(values) == 0 {
		return errFactory.New(ErrInvalidSpec)
	}

	row := make([]string, 0, len(values)+1)
	row = append(row, strconv.FormatInt(timestamp.Unix(), 10))
	for _, v := range values {
		row = append(row, string(v))
	}

	if err := t.run(ctx, []string{"update", path, strings.Join(row, ":")}); err != nil {
		return errFactory.Wrap(ErrUpdateFailed, err)
	}

	return nil
}

// Graph renders a declarative graph to spec.Output.
func (t *tool) Graph(ctx context.Context, spec GraphSpec) error {
	errFactory := errors.New()

	if spec.Output == "" {
		return errFactory.New(ErrInvalidSpec)
	}

	if err := os.MkdirAll(filepath.Dir(spec.Output), 0o755); err != nil {
		return errFactory.Wrap(ErrGraphFailed, err)
	}

	args := []string{
		"graph", spec.Output,
		"--start", spec.Start, "--end", spec.End,
		"--width", strconv.Itoa(spec.Width),
		"--height", strconv.Itoa(spec.Height),
		"--title", spec.Title,
		"--vertical-label", spec.VerticalLabel,
	}
	if spec.Lower != nil {
		args = append(args, "--lower-limit", strconv.FormatFloat(*spec.Lower, 'f', -1, 64))
	}
	if spec.Upper != nil {
		args = append(args, "--upper-limit", strconv.FormatFloat(*spec.Upper, 'f', -1, 64))
	}
	for _, c := range spec.Colors {
		args = append(args, "--color", c)
	}
	for _, f := range spec.Fonts {
		args = append(args, "--font", f)
	}
	for _, def := range spec.Defs {
		args = append(args, "DEF:"+def.Name+"="+def.RRDPath+":"+def.DS+":"+def.CF)
	}
	for _, line := range spec.Lines {
		args = append(args, "LINE1:"+line.Name+line.Color+":"+line.Legend)
	}

	if err := t.run(ctx, args); err != nil {
		return errFactory.Wrap(ErrGraphFailed, err)
	}

	return nil
}

func (t *tool) run(ctx context.Context, args []string) error {
	errFactory := errors.New()

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	logger.Debug().Str("binary", t.binary).Strs("args", args).Msg("Invoking rrdtool")

	cmd := exec.CommandContext(ctx, t.binary, args...)
	var stderr bytes.Buffer
	cmd.Stdout = nil
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return errFactory.Wrap(errors.ErrTimeout, ctx.Err())
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return errFactory.WithData(ErrToolFailed, detail)
	}

	return nil
}
