package hwmon

import "github.com/mattjoyce/unraid-rrdtool/internal/errors"

const (
	// Resolution errors
	ErrUnresolvedPlaceholder = errors.ErrorCode("hwmon_unresolved_placeholder")
	ErrAmbiguousChip         = errors.ErrorCode("hwmon_ambiguous_chip")
	ErrBadTemplate           = errors.ErrorCode("hwmon_bad_template")

	// Lookup source errors
	ErrScanFailed = errors.ErrorCode("hwmon_scan_failed")
)
