package rateofchange

import (
	"context"
	"testing"
	"time"

	"github.com/0xsoniclabs/memproc/blocks/blockio"
	"github.com/0xsoniclabs/memproc/point"
	"github.com/0xsoniclabs/memproc/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct{ samples map[string][]window.Sample }

func newMemStore() *memStore { return &memStore{samples: map[string][]window.Sample{}} }

func (m *memStore) Append(_ context.Context, blockID string, sample window.Sample) error {
	m.samples[blockID] = append(m.samples[blockID], sample)
	return nil
}

func (m *memStore) Recent(_ context.Context, blockID string, limit int) ([]window.Sample, error) {
	all := m.samples[blockID]
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (m *memStore) Clear(_ context.Context, blockID string) error {
	delete(m.samples, blockID)
	return nil
}

type fakeReader struct{ value string }

func (f *fakeReader) GetFinal(_ context.Context, ids []string) (map[string]point.Item, error) {
	out := map[string]point.Item{}
	for _, id := range ids {
		out[id] = point.Item{Value: f.value, Time: 1}
	}
	return out, nil
}

func (f *fakeReader) GetGlobalVariables(_ context.Context, ids []string) (map[string]point.Item, error) {
	return map[string]point.Item{}, nil
}

type noNames struct{}

func (noNames) IDByName(_ context.Context, _ string) (string, bool, error) { return "", false, nil }

type recordingWriter struct{ writes map[string][]string }

func newRecordingWriter() *recordingWriter { return &recordingWriter{writes: map[string][]string{}} }

func (w *recordingWriter) WriteOutput(_ context.Context, ref point.Reference, value string) error {
	w.writes[ref.ID] = append(w.writes[ref.ID], value)
	return nil
}

func TestRateOfChange_SimpleTwoPoint(t *testing.T) {
	store := newMemStore()
	in := point.Reference{Kind: point.RefPoint, ID: "in"}
	out := point.Reference{Kind: point.RefPoint, ID: "out"}
	b := New(Config{ID: "roc-1", Input: in, Output: out, WindowSize: 3, Method: SimpleTwoPoint, DecimalPlaces: 2}, store)

	reader := &fakeReader{}
	writer := newRecordingWriter()

	reader.value = "10"
	require.NoError(t, b.Tick(context.Background(), time.Unix(0, 0), blockio.NewResolver(reader, noNames{}), writer))
	reader.value = "20"
	require.NoError(t, b.Tick(context.Background(), time.Unix(1, 0), blockio.NewResolver(reader, noNames{}), writer))
	reader.value = "40"
	require.NoError(t, b.Tick(context.Background(), time.Unix(2, 0), blockio.NewResolver(reader, noNames{}), writer))

	// window=3, samples [10@0,20@1,40@2]; two-point over the whole window: (40-10)/2 = 15
	assert.Equal(t, "15.00", outLast(writer, "out"))
}

func outLast(w *recordingWriter, id string) string {
	vs := w.writes[id]
	return vs[len(vs)-1]
}

func TestRateOfChange_AlarmLatches(t *testing.T) {
	store := newMemStore()
	in := point.Reference{Kind: point.RefPoint, ID: "in"}
	out := point.Reference{Kind: point.RefPoint, ID: "out"}
	alarm := point.Reference{Kind: point.RefPoint, ID: "alarm"}
	b := New(Config{
		ID: "roc-2", Input: in, Output: out, AlarmOutput: &alarm,
		WindowSize: 2, Method: SimpleTwoPoint, DecimalPlaces: 0,
		HighThreshold: 10, HighHysteresis: 0.1,
	}, store)

	reader := &fakeReader{}
	writer := newRecordingWriter()

	reader.value = "0"
	require.NoError(t, b.Tick(context.Background(), time.Unix(0, 0), blockio.NewResolver(reader, noNames{}), writer))
	reader.value = "100"
	require.NoError(t, b.Tick(context.Background(), time.Unix(1, 0), blockio.NewResolver(reader, noNames{}), writer)) // rate=100, above highOn=11

	assert.Equal(t, []string{"1"}, writer.writes["alarm"])
}

func TestRateOfChange_ClearsOnConfigChange(t *testing.T) {
	store := newMemStore()
	in := point.Reference{Kind: point.RefPoint, ID: "in"}
	out := point.Reference{Kind: point.RefPoint, ID: "out"}
	b := New(Config{ID: "roc-3", Input: in, Output: out, WindowSize: 3, Method: SimpleTwoPoint}, store)

	reader := &fakeReader{value: "5"}
	writer := newRecordingWriter()
	require.NoError(t, b.Tick(context.Background(), time.Unix(0, 0), blockio.NewResolver(reader, noNames{}), writer))
	require.NotEmpty(t, store.samples["roc-3"])

	require.NoError(t, b.OnConfigChanged(context.Background()))
	assert.Empty(t, store.samples["roc-3"])
}
