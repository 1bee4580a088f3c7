package formula

import (
	"context"
	"testing"

	"github.com/0xsoniclabs/memproc/blocks/blockio"
	"github.com/0xsoniclabs/memproc/expreng"
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

// TestFormula_CacheInvalidatesOnExpressionEdit mirrors the worked
// example: x + 1 for x=10 produces 11, then editing to x + 2 produces 12
// on the very next tick.
func TestFormula_CacheInvalidatesOnExpressionEdit(t *testing.T) {
	reader := &fakeReader{value: "10"}
	resolver := blockio.NewResolver(reader, noNames{})
	cache := expreng.NewCache()
	writer := &recordingWriter{}

	cfg := Config{
		ID:            "formula-1",
		Expression:    "x + 1",
		DecimalPlaces: 0,
		Aliases:       []Alias{{Name: "x", Ref: point.Reference{Kind: point.RefPoint, ID: "px"}}},
		Output:        point.Reference{Kind: point.RefPoint, ID: "out"},
	}
	b := New(cfg, "INFO")
	require.NoError(t, b.Tick(context.Background(), resolver, cache, writer))
	assert.Equal(t, "11", writer.writes[0])

	b.Expression = "x + 2"
	require.NoError(t, b.Tick(context.Background(), resolver, cache, writer))
	assert.Equal(t, "12", writer.writes[1])
}

func TestFormula_MissingAliasDefaultsToZero(t *testing.T) {
	resolver := blockio.NewResolver(&fakeReader{}, noNames{})
	cache := expreng.NewCache()
	writer := &recordingWriter{}

	cfg := Config{
		ID:            "formula-2",
		Expression:    "x + 5",
		DecimalPlaces: 0,
		Aliases:       []Alias{{Name: "x", Ref: point.Reference{Kind: point.RefGlobalVariable, ID: "missing"}}},
		Output:        point.Reference{Kind: point.RefPoint, ID: "out"},
	}
	b := New(cfg, "INFO")
	require.NoError(t, b.Tick(context.Background(), resolver, cache, writer))
	assert.Equal(t, "5", writer.writes[0])
	assert.Empty(t, b.LastError())
}
