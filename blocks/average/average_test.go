package average

import (
	"context"
	"testing"
	"time"

	"github.com/0xsoniclabs/memproc/point"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xsoniclabs/memproc/blocks/blockio"
)

type fakeReader struct{ items map[string]point.Item }

func (f fakeReader) GetFinal(_ context.Context, ids []string) (map[string]point.Item, error) {
	out := map[string]point.Item{}
	for _, id := range ids {
		if v, ok := f.items[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (f fakeReader) GetGlobalVariables(_ context.Context, ids []string) (map[string]point.Item, error) {
	return map[string]point.Item{}, nil
}

type noNames struct{}

func (noNames) IDByName(_ context.Context, _ string) (string, bool, error) { return "", false, nil }

type recordingWriter struct{ writes []string }

func (w *recordingWriter) WriteOutput(_ context.Context, _ point.Reference, value string) error {
	w.writes = append(w.writes, value)
	return nil
}

func refs(ids ...string) []point.Reference {
	out := make([]point.Reference, len(ids))
	for i, id := range ids {
		out[i] = point.Reference{Kind: point.RefPoint, ID: id}
	}
	return out
}

func TestAverage_WeightedMean(t *testing.T) {
	reader := fakeReader{items: map[string]point.Item{
		"a": {Value: "10", Time: 1000},
		"b": {Value: "20", Time: 1000},
	}}
	resolver := blockio.NewResolver(reader, noNames{})
	writer := &recordingWriter{}

	b := New(Config{
		ID:            "avg-1",
		Inputs:        refs("a", "b"),
		Weights:       []float64{3, 1},
		DecimalPlaces: 2,
		Output:        point.Reference{Kind: point.RefPoint, ID: "out"},
	})
	require.NoError(t, b.Tick(context.Background(), time.Unix(1000, 0), resolver, writer))
	assert.Equal(t, "12.50", writer.writes[0])
}

func TestAverage_IgnoreStaleDropsOldInputs(t *testing.T) {
	reader := fakeReader{items: map[string]point.Item{
		"a": {Value: "10", Time: 0},
		"b": {Value: "20", Time: 1000},
	}}
	resolver := blockio.NewResolver(reader, noNames{})
	writer := &recordingWriter{}

	b := New(Config{
		ID:            "avg-2",
		Inputs:        refs("a", "b"),
		IgnoreStale:   true,
		StaleTimeout:  5,
		DecimalPlaces: 0,
		Output:        point.Reference{Kind: point.RefPoint, ID: "out"},
	})
	require.NoError(t, b.Tick(context.Background(), time.Unix(1000, 0), resolver, writer))
	assert.Equal(t, "20", writer.writes[0])
}

func TestAverage_AbortsBelowMinimumInputs(t *testing.T) {
	reader := fakeReader{items: map[string]point.Item{
		"a": {Value: "10", Time: 1000},
	}}
	resolver := blockio.NewResolver(reader, noNames{})
	writer := &recordingWriter{}

	b := New(Config{
		ID:            "avg-3",
		Inputs:        refs("a", "b"),
		MinimumInputs: 2,
		DecimalPlaces: 0,
		Output:        point.Reference{Kind: point.RefPoint, ID: "out"},
	})
	require.NoError(t, b.Tick(context.Background(), time.Unix(1000, 0), resolver, writer))
	assert.Empty(t, writer.writes)
}

func TestAverage_IQROutlierRemoval(t *testing.T) {
	reader := fakeReader{items: map[string]point.Item{
		"a": {Value: "10", Time: 1000},
		"b": {Value: "11", Time: 1000},
		"c": {Value: "9", Time: 1000},
		"d": {Value: "1000", Time: 1000}, // gross outlier
	}}
	resolver := blockio.NewResolver(reader, noNames{})
	writer := &recordingWriter{}

	b := New(Config{
		ID:               "avg-4",
		Inputs:           refs("a", "b", "c", "d"),
		OutlierMethod:    IQR,
		OutlierThreshold: 1.5,
		DecimalPlaces:    0,
		Output:           point.Reference{Kind: point.RefPoint, ID: "out"},
	})
	require.NoError(t, b.Tick(context.Background(), time.Unix(1000, 0), resolver, writer))
	assert.Equal(t, "10", writer.writes[0])
}
