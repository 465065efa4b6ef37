package transform

import "github.com/mattjoyce/unraid-rrdtool/internal/errors"

const (
	ErrParseFailed     = errors.ErrorCode("transform_parse_failed")
	ErrUnknownVariable = errors.ErrorCode("transform_unknown_variable")
	ErrEvalFailed      = errors.ErrorCode("transform_eval_failed")
)
