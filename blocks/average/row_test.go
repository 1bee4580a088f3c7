package average

import (
	"testing"

	"github.com/0xsoniclabs/memproc/point"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowConfigRoundTrip(t *testing.T) {
	cfg := Config{
		Name:             "avg1",
		Inputs:           []point.Reference{point.ParseReference("P:tank1"), point.ParseReference("GV:BiasInput")},
		Weights:          []float64{1, 2},
		IgnoreStale:      true,
		StaleTimeout:     30,
		MinimumInputs:    1,
		OutlierMethod:    1,
		OutlierThreshold: 2.5,
		DecimalPlaces:    2,
		Output:           point.ParseReference("P:avgOut"),
	}

	row, err := FromConfig(cfg)
	require.NoError(t, err)
	assert.Contains(t, row.InputsJSON, "@GV:BiasInput")
	assert.Contains(t, row.InputsJSON, "P:tank1")
	assert.Equal(t, "P:avgOut", row.OutputRef)

	got, err := row.ToConfig("average-1")
	require.NoError(t, err)
	assert.Equal(t, cfg.Inputs, got.Inputs)
	assert.Equal(t, cfg.Weights, got.Weights)
	assert.Equal(t, cfg.IgnoreStale, got.IgnoreStale)
	assert.Equal(t, cfg.MinimumInputs, got.MinimumInputs)
	assert.Equal(t, cfg.OutlierMethod, got.OutlierMethod)
	assert.Equal(t, cfg.Output, got.Output)
}

func TestRowToConfigRejectsMalformedJSON(t *testing.T) {
	row := Row{InputsJSON: "not json"}
	_, err := row.ToConfig("average-1")
	assert.Error(t, err)
}
