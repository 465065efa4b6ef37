package theme

import "github.com/mattjoyce/unraid-rrdtool/internal/errors"

const (
	ErrThemeRead      = errors.ErrorCode("theme_read_failed")
	ErrThemeParse     = errors.ErrorCode("theme_parse_failed")
	ErrEnvWriteFailed = errors.ErrorCode("theme_env_write_failed")
)
