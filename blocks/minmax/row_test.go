package minmax

import (
	"testing"
	"time"

	"github.com/0xsoniclabs/memproc/point"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowConfigRoundTrip(t *testing.T) {
	indexOutput := point.ParseReference("P:winnerIdx")
	cfg := Config{
		Inputs:        []point.Reference{point.ParseReference("P:tank1"), point.ParseReference("GV:Override")},
		SelectMode:    1,
		Failover:      2,
		Output:        point.ParseReference("P:selected"),
		IndexOutput:   &indexOutput,
		HoldDuration:  250 * time.Millisecond,
		DecimalPlaces: 3,
	}

	row, err := FromConfig(cfg)
	require.NoError(t, err)
	assert.Contains(t, row.InputsJSON, "@GV:Override")
	assert.Equal(t, "P:winnerIdx", row.IndexOutputRef)
	assert.Equal(t, int64(250), row.HoldDurationMillis)

	got, err := row.ToConfig("minmax-1")
	require.NoError(t, err)
	assert.Equal(t, cfg.Inputs, got.Inputs)
	assert.Equal(t, cfg.SelectMode, got.SelectMode)
	assert.Equal(t, cfg.Failover, got.Failover)
	assert.Equal(t, cfg.Output, got.Output)
	require.NotNil(t, got.IndexOutput)
	assert.Equal(t, *cfg.IndexOutput, *got.IndexOutput)
	assert.Equal(t, cfg.HoldDuration, got.HoldDuration)
}

func TestRowConfigNoIndexOutput(t *testing.T) {
	row := Row{OutputRef: "P:selected", InputsJSON: `["P:a"]`}
	cfg, err := row.ToConfig("minmax-2")
	require.NoError(t, err)
	assert.Nil(t, cfg.IndexOutput)
}
