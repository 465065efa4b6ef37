package collector_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mattjoyce/unraid-rrdtool/internal/collector"
	"github.com/mattjoyce/unraid-rrdtool/internal/config"
	apperrors "github.com/mattjoyce/unraid-rrdtool/internal/errors"
	"github.com/mattjoyce/unraid-rrdtool/internal/hwmon"
	"github.com/mattjoyce/unraid-rrdtool/internal/rrd"
	"github.com/mattjoyce/unraid-rrdtool/internal/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type updateCall struct {
	path      string
	timestamp time.Time
	values    []rrd.Value
}

type fakeStore struct {
	creates   []rrd.CreateSpec
	updates   []updateCall
	graphs    []rrd.GraphSpec
	updateErr error
}

func (f *fakeStore) Create(_ context.Context, spec rrd.CreateSpec) error {
	f.creates = append(f.creates, spec)
	return nil
}

func (f *fakeStore) Update(_ context.Context, path string, timestamp time.Time, values []rrd.Value) error {
	f.updates = append(f.updates, updateCall{path: path, timestamp: timestamp, values: values})
	return f.updateErr
}

func (f *fakeStore) Graph(_ context.Context, spec rrd.GraphSpec) error {
	f.graphs = append(f.graphs, spec)
	return nil
}

func chipFixture(t *testing.T) string {
	t.Helper()
	root, err := os.MkdirTemp("", "collector_test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(root) })

	chipDir := filepath.Join(root, "hwmon0")
	require.NoError(t, os.MkdirAll(chipDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(chipDir, "name"), []byte("k10temp\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(chipDir, "temp1_input"), []byte("45000\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(chipDir, "fan1_input"), []byte("1200\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(chipDir, "broken"), []byte("not-a-number\n"), 0o644))
	return root
}

func document(sensors ...config.Sensor) *config.Document {
	return &config.Document{
		Name:    "system",
		RRDPath: "/data/system.rrd",
		Sensors: sensors,
		RRD:     config.RRD{Step: 60},
	}
}

func gauge(id, path, transformExpr string) config.Sensor {
	return config.Sensor{ID: id, Path: path, Transform: transformExpr, DSType: "GAUGE"}
}

func TestCollectTransformsReading(t *testing.T) {
	root := chipFixture(t)
	store := &fakeStore{}
	svc := collector.NewService(store, root)

	doc := document(gauge("cpu_temp", "/hostsys/{k10temp}/temp1_input", "value/1000"))
	result := svc.Collect(context.Background(), doc)

	require.NoError(t, result.AppendErr)
	require.Len(t, store.updates, 1)
	assert.Equal(t, "/data/system.rrd", store.updates[0].path)
	assert.Equal(t, []rrd.Value{"45"}, store.updates[0].values)
	assert.Equal(t, result.Timestamp, store.updates[0].timestamp)

	require.Len(t, result.Outcomes, 1)
	assert.True(t, result.Outcomes[0].OK())
	assert.Equal(t, "cpu_temp", result.Outcomes[0].SensorID)
}

func TestCollectPartialFailureStillAppendsFullRow(t *testing.T) {
	root := chipFixture(t)
	store := &fakeStore{}
	svc := collector.NewService(store, root)

	doc := document(
		gauge("cpu_temp", "/hostsys/{k10temp}/temp1_input", "value/1000"),
		gauge("ghost", "/hostsys/{missing_chip}/temp1_input", ""),
		gauge("fan", "/hostsys/{k10temp}/fan1_input", ""),
	)
	result := svc.Collect(context.Background(), doc)

	// One append carrying all three slots, sentinel in the failed one.
	require.NoError(t, result.AppendErr)
	require.Len(t, store.updates, 1)
	assert.Equal(t, []rrd.Value{"45", rrd.Unknown, "1200"}, store.updates[0].values)

	require.Len(t, result.Outcomes, 3)
	assert.True(t, result.Outcomes[0].OK())
	assert.False(t, result.Outcomes[1].OK())
	assert.Equal(t, hwmon.ErrUnresolvedPlaceholder, result.Outcomes[1].Code)
	assert.True(t, result.Outcomes[2].OK())
	assert.Equal(t, 1, result.Failed())
}

func TestCollectClassifiesFailures(t *testing.T) {
	root := chipFixture(t)
	store := &fakeStore{}
	svc := collector.NewService(store, root)

	doc := document(
		gauge("no_file", "/hostsys/{k10temp}/nope", ""),
		gauge("bad_value", "/hostsys/{k10temp}/broken", ""),
		gauge("bad_transform", "/hostsys/{k10temp}/temp1_input", "value/0"),
	)
	result := svc.Collect(context.Background(), doc)

	require.Len(t, result.Outcomes, 3)
	assert.Equal(t, collector.ErrSensorReadFailed, result.Outcomes[0].Code)
	assert.Equal(t, collector.ErrSensorReadFailed, result.Outcomes[1].Code)
	assert.Equal(t, transform.ErrEvalFailed, result.Outcomes[2].Code)

	require.Len(t, store.updates, 1)
	assert.Equal(t, []rrd.Value{rrd.Unknown, rrd.Unknown, rrd.Unknown}, store.updates[0].values)
}

func TestCollectNeverClampsToBounds(t *testing.T) {
	root := chipFixture(t)
	store := &fakeStore{}
	svc := collector.NewService(store, root)

	low, high := 0.0, 10.0
	sensor := gauge("cpu_temp", "/hostsys/{k10temp}/temp1_input", "value/1000")
	sensor.Min, sensor.Max = &low, &high

	result := svc.Collect(context.Background(), document(sensor))
	require.NoError(t, result.AppendErr)
	require.Len(t, store.updates, 1)
	// 45 exceeds the advisory max of 10 and is written unchanged.
	assert.Equal(t, []rrd.Value{"45"}, store.updates[0].values)
}

func TestCollectCounterTakesIntegerSamples(t *testing.T) {
	root := chipFixture(t)
	store := &fakeStore{}
	svc := collector.NewService(store, root)

	sensor := gauge("revs", "/hostsys/{k10temp}/fan1_input", "value/7")
	sensor.DSType = "DERIVE"

	result := svc.Collect(context.Background(), document(sensor))
	require.NoError(t, result.AppendErr)
	require.Len(t, store.updates, 1)
	assert.Equal(t, []rrd.Value{"171"}, store.updates[0].values)
}

func TestCollectStoreUnavailable(t *testing.T) {
	root := chipFixture(t)
	store := &fakeStore{updateErr: errors.New("rrdtool: illegal attempt to update")}
	svc := collector.NewService(store, root)

	doc := document(gauge("cpu_temp", "/hostsys/{k10temp}/temp1_input", "value/1000"))
	result := svc.Collect(context.Background(), doc)

	require.Error(t, result.AppendErr)
	assert.Equal(t, collector.ErrStoreUnavailable, apperrors.CodeOf(result.AppendErr))
	// The sensor itself was fine; only the append failed.
	require.Len(t, result.Outcomes, 1)
	assert.True(t, result.Outcomes[0].OK())
}

func TestCollectEmptySensorListSkipsAppend(t *testing.T) {
	store := &fakeStore{}
	svc := collector.NewService(store, chipFixture(t))

	result := svc.Collect(context.Background(), document())
	require.NoError(t, result.AppendErr)
	assert.Empty(t, store.updates)
}

func TestInitBuildsSchemaFromSensors(t *testing.T) {
	store := &fakeStore{}
	svc := collector.NewService(store, chipFixture(t))

	low, high := 0.0, 150.0
	sensor := gauge("cpu_temp", "/hostsys/{k10temp}/temp1_input", "value/1000")
	sensor.Min, sensor.Max = &low, &high

	doc := document(sensor, gauge("fan", "/hostsys/{k10temp}/fan1_input", ""))
	doc.RRD = config.RRD{
		Step: 60,
		Archives: []config.Archive{
			{CF: "AVERAGE", XFF: 0.5, Steps: 1, Rows: 1440},
			{CF: "MAX", XFF: 0.5, Steps: 15, Rows: 672},
		},
	}

	require.NoError(t, svc.Init(context.Background(), doc))
	require.Len(t, store.creates, 1)

	spec := store.creates[0]
	assert.Equal(t, "/data/system.rrd", spec.Path)
	assert.Equal(t, 60, spec.Step)
	require.Len(t, spec.DataSources, 2)
	assert.Equal(t, rrd.DS{Name: "cpu_temp", Type: "GAUGE", Heartbeat: 120, Min: "0", Max: "150"}, spec.DataSources[0])
	assert.Equal(t, rrd.DS{Name: "fan", Type: "GAUGE", Heartbeat: 120, Min: "0", Max: "U"}, spec.DataSources[1])
	require.Len(t, spec.Archives, 2)
	assert.Equal(t, rrd.Archive{CF: "AVERAGE", XFF: 0.5, Steps: 1, Rows: 1440}, spec.Archives[0])
}
