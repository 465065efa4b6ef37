package rrd

import "github.com/mattjoyce/unraid-rrdtool/internal/errors"

const (
	ErrInvalidSpec  = errors.ErrorCode("rrd_invalid_spec")
	ErrToolFailed   = errors.ErrorCode("rrd_tool_failed")
	ErrCreateFailed = errors.ErrorCode("rrd_create_failed")
	ErrUpdateFailed = errors.ErrorCode("rrd_update_failed")
	ErrGraphFailed  = errors.ErrorCode("rrd_graph_failed")
)
