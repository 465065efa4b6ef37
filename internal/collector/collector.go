// Package collector reads the sensors of a config document and appends
// one timestamped row per cycle to the round-robin store.
package collector

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattjoyce/unraid-rrdtool/internal/config"
	"github.com/mattjoyce/unraid-rrdtool/internal/errors"
	"github.com/mattjoyce/unraid-rrdtool/internal/hwmon"
	"github.com/mattjoyce/unraid-rrdtool/internal/logger"
	"github.com/mattjoyce/unraid-rrdtool/internal/rrd"
	"github.com/mattjoyce/unraid-rrdtool/internal/transform"
)

type Service struct {
	store    rrd.Store
	chipRoot string
}

func NewService(store rrd.Store, chipRoot string) *Service {
	return &Service{store: store, chipRoot: chipRoot}
}

// Collect runs one collection cycle for doc. Every sensor is attempted:
// a sensor that cannot be resolved, read or transformed is recorded as a
// failed outcome and its slot carries the unknown sentinel, so the
// append still advances time for the remaining sensors. Bounds are
// advisory and never clamp the value. Only the append itself failing
// (store unavailable) aborts the cycle.
func (s *Service) Collect(ctx context.Context, doc *config.Document) Result {
	result := Result{
		Config:    doc.Name,
		Timestamp: time.Now(),
		Outcomes:  make([]Outcome, 0, len(doc.Sensors)),
	}

	// Fresh resolver per cycle: hwmon indices are only stable within a run.
	resolver := hwmon.NewResolver(s.chipRoot)

	values := make([]rrd.Value, 0, len(doc.Sensors))
	for i := range doc.Sensors {
		sensor := &doc.Sensors[i]
		value, err := s.read(resolver, sensor)
		if err != nil {
			logger.Warn().
				Str("config", doc.Name).
				Str("sensor", sensor.ID).
				Err(err).
				Msg("Sensor read failed")
			values = append(values, rrd.Unknown)
			result.Outcomes = append(result.Outcomes, Outcome{
				SensorID: sensor.ID,
				Value:    rrd.Unknown,
				Code:     errors.CodeOf(err),
				Detail:   err.Error(),
			})
			continue
		}

		logger.Debug().
			Str("sensor", sensor.ID).
			Str("value", string(value)).
			Str("unit", sensor.Unit).
			Msg("Sensor read")
		values = append(values, value)
		result.Outcomes = append(result.Outcomes, Outcome{SensorID: sensor.ID, Value: value})
	}

	if len(values) == 0 {
		return result
	}

	if err := s.store.Update(ctx, doc.RRDPath, result.Timestamp, values); err != nil {
		errFactory := errors.New()
		result.AppendErr = errFactory.Wrap(ErrStoreUnavailable, err).
			WithMessage("Append failed for " + doc.RRDPath)
		logger.Error().Str("config", doc.Name).Err(result.AppendErr).Msg("Store append failed")
		return result
	}

	logger.Info().
		Str("config", doc.Name).
		Int("sensors", len(values)).
		Int("failed", result.Failed()).
		Msg("Store updated")

	return result
}

// Init creates the document's round-robin database from its sensor list
// and archive schema. Existing databases are left untouched.
func (s *Service) Init(ctx context.Context, doc *config.Document) error {
	errFactory := errors.New()

	spec := rrd.CreateSpec{
		Path: doc.RRDPath,
		Step: doc.RRD.Step,
	}
	for i := range doc.Sensors {
		sensor := &doc.Sensors[i]
		spec.DataSources = append(spec.DataSources, rrd.DS{
			Name:      sensor.ID,
			Type:      sensor.DSType,
			Heartbeat: doc.RRD.Step * 2,
			Min:       bound(sensor.Min, "0"),
			Max:       bound(sensor.Max, string(rrd.Unknown)),
		})
	}
	for _, a := range doc.RRD.Archives {
		spec.Archives = append(spec.Archives, rrd.Archive{
			CF:    a.CF,
			XFF:   a.XFF,
			Steps: a.Steps,
			Rows:  a.Rows,
		})
	}

	if err := s.store.Create(ctx, spec); err != nil {
		return errFactory.Wrap(ErrStoreUnavailable, err)
	}

	return nil
}

func (s *Service) read(resolver hwmon.PathResolver, sensor *config.Sensor) (rrd.Value, error) {
	errFactory := errors.New()

	resolved, err := resolver.Resolve(sensor.Path)
	if err != nil {
		return rrd.Unknown, err
	}

	raw, err := os.ReadFile(resolved.Path)
	if err != nil {
		return rrd.Unknown, errFactory.Wrap(ErrSensorReadFailed, err).
			WithMessage("Failed to read " + resolved.Path)
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return rrd.Unknown, errFactory.Wrap(ErrSensorReadFailed, err).
			WithMessage("Non-numeric reading in " + resolved.Path)
	}

	value, err = transform.Apply(sensor.Transform, value)
	if err != nil {
		return rrd.Unknown, err
	}

	// Counter-family data sources take integer samples.
	switch sensor.DSType {
	case "COUNTER", "DERIVE", "ABSOLUTE":
		return rrd.Integer(int64(value)), nil
	default:
		return rrd.Number(value), nil
	}
}

func bound(v *float64, fallback string) string {
	if v == nil {
		return fallback
	}

	return strconv.FormatFloat(*v, 'f', -1, 64)
}
