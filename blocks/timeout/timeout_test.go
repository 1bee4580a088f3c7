package timeout

import (
	"context"
	"testing"
	"time"

	"github.com/0xsoniclabs/memproc/blocks/blockio"
	"github.com/0xsoniclabs/memproc/point"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

type recordingWriter struct {
	writes []string
}

func (w *recordingWriter) WriteOutput(_ context.Context, _ point.Reference, value string) error {
	w.writes = append(w.writes, value)
	return nil
}

// TestTimeout_TripAndRecover mirrors the worked example: an input stalls,
// the block trips to fault after the threshold, then a fresh input clears
// it, and only the three value-changing ticks produce a write.
func TestTimeout_TripAndRecover(t *testing.T) {
	reader := &mutableReader{item: point.Item{Value: "42", Time: 1000}}
	resolver := blockio.NewResolver(reader, noNames{})
	writer := &recordingWriter{}

	input := point.Reference{Kind: point.RefPoint, ID: "pt-1"}
	output := point.Reference{Kind: point.RefPoint, ID: "pt-1-fault"}
	b := New(Config{ID: "blk-1", Input: input, Output: output, TimeoutSeconds: 10})

	require.NoError(t, b.Tick(context.Background(), time.Unix(1005, 0), resolver, writer))
	require.NoError(t, b.Tick(context.Background(), time.Unix(1009, 0), resolver, writer))
	require.NoError(t, b.Tick(context.Background(), time.Unix(1011, 0), resolver, writer))

	reader.item = point.Item{Value: "43", Time: 1012}
	require.NoError(t, b.Tick(context.Background(), time.Unix(1012, 0), resolver, writer))

	assert.Equal(t, []string{"0", "1", "0"}, writer.writes)
}

func TestTimeout_MissingInputSkipsTick(t *testing.T) {
	reader := fakeReader{items: map[string]point.Item{}}
	resolver := blockio.NewResolver(reader, noNames{})
	writer := &recordingWriter{}

	b := New(Config{
		ID:             "blk-2",
		Input:          point.Reference{Kind: point.RefPoint, ID: "missing"},
		Output:         point.Reference{Kind: point.RefPoint, ID: "out"},
		TimeoutSeconds: 5,
	})

	require.NoError(t, b.Tick(context.Background(), time.Unix(2000, 0), resolver, writer))
	assert.Empty(t, writer.writes)
}

type mutableReader struct{ item point.Item }

func (m *mutableReader) GetFinal(_ context.Context, ids []string) (map[string]point.Item, error) {
	out := map[string]point.Item{}
	for _, id := range ids {
		out[id] = m.item
	}
	return out, nil
}

func (m *mutableReader) GetGlobalVariables(_ context.Context, ids []string) (map[string]point.Item, error) {
	return map[string]point.Item{}, nil
}
