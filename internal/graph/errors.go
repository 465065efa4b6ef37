package graph

import "github.com/mattjoyce/unraid-rrdtool/internal/errors"

const (
	ErrScriptNotFound      = errors.ErrorCode("graph_script_not_found")
	ErrScriptNotExecutable = errors.ErrorCode("graph_script_not_executable")
	ErrRenderFailed        = errors.ErrorCode("graph_render_failed")
)
