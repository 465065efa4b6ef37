package config

import "github.com/mattjoyce/unraid-rrdtool/internal/errors"

const (
	// Document errors
	ErrDocumentRead      = errors.ErrorCode("config_document_read_failed")
	ErrDocumentParse     = errors.ErrorCode("config_document_parse_failed")
	ErrMissingRRDPath    = errors.ErrorCode("config_missing_rrd_path")
	ErrInvalidSensor     = errors.ErrorCode("config_invalid_sensor")
	ErrDuplicateSensorID = errors.ErrorCode("config_duplicate_sensor_id")
	ErrAmbiguousGraph    = errors.ErrorCode("config_ambiguous_graph")
)
