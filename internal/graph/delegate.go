package graph

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

// delegateRenderer hands a graph to an external rendering script. The
// script contract is positional and fixed at seven arguments: RRD path,
// output path, start, end, width, height, theme-environment-file path.
type delegateRenderer struct {
	configRoot string
	timeout    time.Duration
}

func (r *delegateRenderer) render(ctx context.Context, j *job) error {
	errFactory := errors.New()

	script := j.graph.Script
	if !filepath.IsAbs(script) {
		script = filepath.Join(r.configRoot, script)
	}

	info, err := os.Stat(script)
	if err != nil {
		return errFactory.WithData(ErrScriptNotFound, script)
	}
	if info.Mode().Perm()&0o111 == 0 {
		return errFactory.WithData(ErrScriptNotExecutable, script)
	}

	if err := os.MkdirAll(filepath.Dir(j.output), 0o755); err != nil {
		return errFactory.Wrap(ErrRenderFailed, err)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	args := []string{
		j.doc.RRDPath,
		j.output,
		j.graph.Start,
		j.graph.End,
		strconv.Itoa(j.graph.Width),
		strconv.Itoa(j.graph.Height),
		j.envPath,
	}

	logger.Debug().Str("script", script).Strs("args", args).Msg("Invoking rendering script")

	cmd := exec.CommandContext(ctx, script, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if out := strings.TrimSpace(stdout.String()); out != "" {
		logger.Debug().Str("script", script).Str("stdout", out).Msg("Script output")
	}

	if runErr != nil {
		if ctx.Err() != nil {
			return errFactory.Wrap(ErrRenderFailed, ctx.Err()).
				WithMessage("Rendering script timed out: " + script)
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = runErr.Error()
		}
		return errFactory.WithData(ErrRenderFailed, struct {
			Script string
			Stderr string
		}{Script: script, Stderr: detail})
	}

	return nil
}
