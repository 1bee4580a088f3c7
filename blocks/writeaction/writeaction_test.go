package writeaction

import (
	"context"
	"testing"
	"time"

	"github.com/0xsoniclabs/memproc/blocks/blockio"
	"github.com/0xsoniclabs/memproc/point"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

type recordingWriter struct {
	writes    []string
	durations []*time.Duration
}

func (w *recordingWriter) WriteOrAdd(_ context.Context, _ string, value string, _ *time.Time, duration *time.Duration) (bool, error) {
	w.writes = append(w.writes, value)
	w.durations = append(w.durations, duration)
	return true, nil
}

func TestWriteAction_StaticValue(t *testing.T) {
	b := New(Config{ID: "wa-1", Output: point.Reference{Kind: point.RefPoint, ID: "out"}, Static: true, StaticValue: "42"})
	writer := &recordingWriter{}
	resolver := blockio.NewResolver(&fakeReader{}, noNames{})

	require.NoError(t, b.Tick(context.Background(), resolver, writer))
	assert.Equal(t, []string{"42"}, writer.writes)
	assert.Equal(t, 1, b.ExecutionCount)
}

func TestWriteAction_DynamicSource(t *testing.T) {
	b := New(Config{
		ID: "wa-2", Output: point.Reference{Kind: point.RefPoint, ID: "out"},
		SourceItem: point.Reference{Kind: point.RefPoint, ID: "src"},
	})
	writer := &recordingWriter{}
	resolver := blockio.NewResolver(&fakeReader{value: "99"}, noNames{})

	require.NoError(t, b.Tick(context.Background(), resolver, writer))
	assert.Equal(t, []string{"99"}, writer.writes)
}

func TestWriteAction_StopsAtMaxExecutionCount(t *testing.T) {
	max := 2
	b := New(Config{ID: "wa-3", Output: point.Reference{Kind: point.RefPoint, ID: "out"}, Static: true, StaticValue: "1", MaxExecutionCount: &max})
	writer := &recordingWriter{}
	resolver := blockio.NewResolver(&fakeReader{}, noNames{})

	for i := 0; i < 5; i++ {
		require.NoError(t, b.Tick(context.Background(), resolver, writer))
	}
	assert.Len(t, writer.writes, 2)
	assert.Equal(t, 2, b.ExecutionCount)
}
