package collector

import "github.com/mattjoyce/unraid-rrdtool/internal/errors"

const (
	ErrSensorReadFailed = errors.ErrorCode("collector_sensor_read_failed")
	ErrStoreUnavailable = errors.ErrorCode("collector_store_unavailable")
)
