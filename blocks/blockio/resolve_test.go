package blockio

import (
	"context"
	"testing"

	"github.com/0xsoniclabs/memproc/point"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	points map[string]point.Item
	gvs    map[string]point.Item
}

func (f fakeReader) GetFinal(_ context.Context, ids []string) (map[string]point.Item, error) {
	out := map[string]point.Item{}
	for _, id := range ids {
		if v, ok := f.points[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (f fakeReader) GetGlobalVariables(_ context.Context, ids []string) (map[string]point.Item, error) {
	out := map[string]point.Item{}
	for _, id := range ids {
		if v, ok := f.gvs[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

type fakeNames struct{ byName map[string]string }

func (f fakeNames) IDByName(_ context.Context, name string) (string, bool, error) {
	id, ok := f.byName[name]
	return id, ok, nil
}

func TestResolveMany_MixedPointsAndVariables(t *testing.T) {
	reader := fakeReader{
		points: map[string]point.Item{"pt-1": {Value: "3.5", Time: 100}},
		gvs:    map[string]point.Item{"gv-id-1": {Value: "true", Time: 200}},
	}
	names := fakeNames{byName: map[string]string{"Tank1Full": "gv-id-1"}}
	r := NewResolver(reader, names)

	refs := []point.Reference{
		{Kind: point.RefPoint, ID: "pt-1"},
		{Kind: point.RefGlobalVariable, ID: "Tank1Full"},
		{Kind: point.RefGlobalVariable, ID: "Unknown"},
	}
	out, err := r.ResolveMany(context.Background(), refs)
	require.NoError(t, err)

	assert.Equal(t, "3.5", out["P:pt-1"].Value)
	assert.Equal(t, "true", out["GV:Tank1Full"].Value)
	assert.NotContains(t, out, "GV:Unknown")
}

func TestResolveOne_NotFound(t *testing.T) {
	r := NewResolver(fakeReader{}, fakeNames{byName: map[string]string{}})
	_, ok, err := r.ResolveOne(context.Background(), point.Reference{Kind: point.RefPoint, ID: "missing"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"1", "true", "on", "HIGH"} {
		v, err := ParseBool(s)
		require.NoError(t, err)
		assert.True(t, v)
	}
	for _, s := range []string{"0", "false", "off", "low"} {
		v, err := ParseBool(s)
		require.NoError(t, err)
		assert.False(t, v)
	}
	_, err := ParseBool("maybe")
	assert.Error(t, err)
}

func TestParseBool_MixedCase(t *testing.T) {
	for _, s := range []string{"TrUe", "oN", "hIgH", "tRUE"} {
		v, err := ParseBool(s)
		require.NoError(t, err)
		assert.True(t, v, s)
	}
	for _, s := range []string{"FaLsE", "oFf", "lOW"} {
		v, err := ParseBool(s)
		require.NoError(t, err)
		assert.False(t, v, s)
	}
}
