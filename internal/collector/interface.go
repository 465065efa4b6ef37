package collector

import (
	"time"

	"github.com/mattjoyce/unraid-rrdtool/internal/errors"
	"github.com/mattjoyce/unraid-rrdtool/internal/rrd"
)

// Outcome records the result of reading one sensor. A failed sensor
// still occupies its slot in the append as the unknown sentinel.
type Outcome struct {
	SensorID string
	Value    rrd.Value
	Code     errors.ErrorCode
	Detail   string
}

// OK reports whether the sensor was read and transformed successfully.
func (o Outcome) OK() bool {
	return o.Code == ""
}

// Result is the structured summary of one collection cycle over one
// config document: exactly one append attempt carrying one value per
// sensor, in declared order.
type Result struct {
	Config    string
	Timestamp time.Time
	Outcomes  []Outcome
	AppendErr error
}

// Failed counts the sensors that did not produce a real value.
func (r Result) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.OK() {
			n++
		}
	}

	return n
}
