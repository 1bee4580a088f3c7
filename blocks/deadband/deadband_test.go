package deadband

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

type recordingWriter struct{ writes []string }

func (w *recordingWriter) WriteOutput(_ context.Context, _ point.Reference, value string) error {
	w.writes = append(w.writes, value)
	return nil
}

func TestAnalogDeadband_SuppressesSmallChanges(t *testing.T) {
	in := point.Reference{Kind: point.RefPoint, ID: "in"}
	b := New(Config{
		ID: "db-1", Input: in, Output: point.Reference{Kind: point.RefPoint, ID: "out"},
		Mode: Analog, DeadbandAbsolute: 2, DecimalPlaces: 0,
	})
	reader := &fakeReader{}
	writer := &recordingWriter{}

	reader.value = "100"
	require.NoError(t, b.Tick(context.Background(), time.Unix(0, 0), blockio.NewResolver(reader, noNames{}), writer)) // first sample, pass through

	reader.value = "101"
	require.NoError(t, b.Tick(context.Background(), time.Unix(1, 0), blockio.NewResolver(reader, noNames{}), writer)) // within band, no write

	reader.value = "103"
	require.NoError(t, b.Tick(context.Background(), time.Unix(2, 0), blockio.NewResolver(reader, noNames{}), writer)) // crosses band

	assert.Equal(t, []string{"100", "103"}, writer.writes)
}

func TestDigitalDeadband_RequiresStability(t *testing.T) {
	in := point.Reference{Kind: point.RefPoint, ID: "in"}
	b := New(Config{
		ID: "db-2", Input: in, Output: point.Reference{Kind: point.RefPoint, ID: "out"},
		Mode: Digital, StabilityTime: 3 * time.Second,
	})
	reader := &fakeReader{}
	writer := &recordingWriter{}

	reader.value = "0"
	require.NoError(t, b.Tick(context.Background(), time.Unix(0, 0), blockio.NewResolver(reader, noNames{}), writer)) // first sample

	reader.value = "1"
	require.NoError(t, b.Tick(context.Background(), time.Unix(1, 0), blockio.NewResolver(reader, noNames{}), writer)) // candidate starts

	require.NoError(t, b.Tick(context.Background(), time.Unix(2, 0), blockio.NewResolver(reader, noNames{}), writer)) // still within stability window

	require.NoError(t, b.Tick(context.Background(), time.Unix(4, 0), blockio.NewResolver(reader, noNames{}), writer)) // stable long enough

	assert.Equal(t, []string{"0", "1"}, writer.writes)
}

func TestDigitalDeadband_CandidateRevertedBeforeStable(t *testing.T) {
	in := point.Reference{Kind: point.RefPoint, ID: "in"}
	b := New(Config{
		ID: "db-3", Input: in, Output: point.Reference{Kind: point.RefPoint, ID: "out"},
		Mode: Digital, StabilityTime: 3 * time.Second,
	})
	reader := &fakeReader{}
	writer := &recordingWriter{}

	reader.value = "0"
	require.NoError(t, b.Tick(context.Background(), time.Unix(0, 0), blockio.NewResolver(reader, noNames{}), writer))

	reader.value = "1"
	require.NoError(t, b.Tick(context.Background(), time.Unix(1, 0), blockio.NewResolver(reader, noNames{}), writer)) // candidate

	reader.value = "0"
	require.NoError(t, b.Tick(context.Background(), time.Unix(2, 0), blockio.NewResolver(reader, noNames{}), writer)) // reverts before stable

	require.NoError(t, b.Tick(context.Background(), time.Unix(5, 0), blockio.NewResolver(reader, noNames{}), writer))

	assert.Equal(t, []string{"0"}, writer.writes)
}
