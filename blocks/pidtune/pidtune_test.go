package pidtune

import (
	"context"
	"testing"
	"time"

	"github.com/0xsoniclabs/memproc/blocks/blockio"
	"github.com/0xsoniclabs/memproc/point"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStateStore struct {
	state map[string]*Session
}

func newMemStateStore() *memStateStore { return &memStateStore{state: map[string]*Session{}} }

func (m *memStateStore) SetTuningState(_ context.Context, id string, state any) error {
	s := state.(*Session)
	cp := *s
	m.state[id] = &cp
	return nil
}

func (m *memStateStore) GetTuningState(_ context.Context, id string, dst any) (bool, error) {
	s, ok := m.state[id]
	if !ok {
		return false, nil
	}
	*dst.(*Session) = *s
	return true, nil
}

func (m *memStateStore) DeleteTuningState(_ context.Context, id string) error {
	delete(m.state, id)
	return nil
}

type mutableReader struct{ value string }

func (r *mutableReader) GetFinal(_ context.Context, ids []string) (map[string]point.Item, error) {
	out := map[string]point.Item{}
	for _, id := range ids {
		out[id] = point.Item{Value: r.value, Time: 1}
	}
	return out, nil
}

func (r *mutableReader) GetGlobalVariables(_ context.Context, ids []string) (map[string]point.Item, error) {
	return map[string]point.Item{}, nil
}

type noNames struct{}

func (noNames) IDByName(_ context.Context, _ string) (string, bool, error) { return "", false, nil }

type recordingWriter struct{ writes []string }

func (w *recordingWriter) WriteOutput(_ context.Context, _ point.Reference, value string) error {
	w.writes = append(w.writes, value)
	return nil
}

// TestPIDTune_CompletesWithExpectedGains drives a perfectly periodic
// synthetic oscillation (peaks at 60, troughs at 40, setpoint 50) through
// the relay-feedback state machine and checks the published gains
// against the documented Ziegler-Nichols formulas.
func TestPIDTune_CompletesWithExpectedGains(t *testing.T) {
	cfg := Config{
		ID:                   "pid-1",
		Setpoint:             50,
		OutputMin:            0,
		OutputMax:            100,
		RelayAmplitudePct:    20,
		Hysteresis:           0.5,
		MinCycles:            3,
		MaxCycles:            20,
		TimeoutSeconds:       3600,
		SafetyAmplitudeLimit: 100,
		PV:                   point.Reference{Kind: point.RefPoint, ID: "pv"},
		RelayOutput:          point.Reference{Kind: point.RefPoint, ID: "relay"},
	}
	store := newMemStateStore()
	b := New(cfg, store)

	require.NoError(t, b.Start(context.Background(), time.Unix(0, 0)))
	assert.Equal(t, RelayTest, b.Status())

	// One period = 10 samples: a triangle wave between 40 and 60, period
	// 10s, four full periods (40 samples) guarantees >=3 peaks/troughs.
	wave := []float64{50, 55, 60, 55, 50, 45, 40, 45, 50, 55}
	reader := &mutableReader{}
	writer := &recordingWriter{}

	tick := 0
	for b.Status() == RelayTest && tick < 200 {
		v := wave[tick%len(wave)]
		reader.value = formatFloat(v)
		resolver := blockio.NewResolver(reader, noNames{})
		require.NoError(t, b.Tick(context.Background(), time.Unix(int64(tick), 0), resolver, writer))
		tick++
	}

	for b.Status() == AnalyzingData {
		require.NoError(t, b.Tick(context.Background(), time.Unix(int64(tick), 0), blockio.NewResolver(reader, noNames{}), writer))
	}

	require.Equal(t, Completed, b.Status())
	result := b.Result()
	require.NotNil(t, result)

	d := 20.0 // relayHigh(20) - relayLow(0)
	a := 20.0 // peak(60) - trough(40) approximately, paired
	ku := 4 * d / (3.141592653589793 * a)
	assert.InDelta(t, 0.6*ku, result.Kp, 0.05)
	assert.True(t, result.Confidence >= 0 && result.Confidence <= 1)
}

func TestPIDTune_RefusesStartWhileParentActive(t *testing.T) {
	active := true
	cfg := Config{ID: "pid-2", IsParentActive: func() bool { return active }}
	b := New(cfg, newMemStateStore())
	err := b.Start(context.Background(), time.Unix(0, 0))
	assert.Error(t, err)
}

func TestPIDTune_AbortCleansTransientState(t *testing.T) {
	store := newMemStateStore()
	cfg := Config{ID: "pid-3", OutputMin: 0, OutputMax: 100, RelayAmplitudePct: 10}
	b := New(cfg, store)
	require.NoError(t, b.Start(context.Background(), time.Unix(0, 0)))
	require.NoError(t, b.Abort(context.Background()))
	assert.Equal(t, Aborted, b.Status())
	_, ok := store.state["pid-3"]
	assert.False(t, ok)
}
