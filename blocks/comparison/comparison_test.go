package comparison

import (
	"context"
	"testing"

	"github.com/0xsoniclabs/memproc/blocks/blockio"
	"github.com/0xsoniclabs/memproc/point"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct{ values map[string]string }

func (f fakeReader) GetFinal(_ context.Context, ids []string) (map[string]point.Item, error) {
	out := map[string]point.Item{}
	for _, id := range ids {
		if v, ok := f.values[id]; ok {
			out[id] = point.Item{Value: v, Time: 1}
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

func inputsWithVotes(n int) []point.Reference {
	refs := make([]point.Reference, n)
	for i := range refs {
		refs[i] = point.Reference{Kind: point.RefPoint, ID: string(rune('a' + i))}
	}
	return refs
}

// TestVotingHysteresis mirrors the worked example: required_votes=2,
// voting_hysteresis=1, so ON needs >=3 votes and OFF needs <1 vote.
func TestVotingHysteresis(t *testing.T) {
	inputs := inputsWithVotes(3)
	cfg := Config{
		ID: "cmp-1",
		Groups: []GroupConfig{{
			Inputs:           inputs,
			Mode:             Digital,
			DigitalValue:     true,
			RequiredVotes:    2,
			VotingHysteresis: 1,
		}},
		OuterOp: OR,
		Output:  point.Reference{Kind: point.RefPoint, ID: "out"},
	}
	b := New(cfg)

	votesSeq := []int{0, 1, 2, 3, 2, 1, 0}
	expected := []string{"0", "0", "0", "1", "1", "1", "0"}
	var got []string

	for _, votes := range votesSeq {
		values := map[string]string{}
		for i, ref := range inputs {
			if i < votes {
				values[ref.ID] = "1"
			} else {
				values[ref.ID] = "0"
			}
		}
		resolver := blockio.NewResolver(fakeReader{values: values}, noNames{})
		writer := &recordingWriter{}
		require.NoError(t, b.Tick(context.Background(), resolver, writer))
		if len(writer.writes) > 0 {
			got = append(got, writer.writes[len(writer.writes)-1])
		} else {
			got = append(got, got[len(got)-1])
		}
	}

	assert.Equal(t, expected, got)
}

func TestAnalogHigherWithHysteresis(t *testing.T) {
	inputs := []point.Reference{{Kind: point.RefPoint, ID: "p1"}}
	cfg := Config{
		ID: "cmp-2",
		Groups: []GroupConfig{{
			Inputs:              inputs,
			Mode:                Analog,
			CompareType:         Higher,
			Threshold1:          100,
			ThresholdHysteresis: 5,
			RequiredVotes:       1,
		}},
		OuterOp: OR,
		Output:  point.Reference{Kind: point.RefPoint, ID: "out"},
	}
	b := New(cfg)

	tick := func(raw string) string {
		resolver := blockio.NewResolver(fakeReader{values: map[string]string{"p1": raw}}, noNames{})
		writer := &recordingWriter{}
		require.NoError(t, b.Tick(context.Background(), resolver, writer))
		if len(writer.writes) == 0 {
			return ""
		}
		return writer.writes[len(writer.writes)-1]
	}

	assert.Equal(t, "0", tick("90"))
	assert.Equal(t, "", tick("102")) // inside dead zone on the way up, stays OFF (no write)
	assert.Equal(t, "1", tick("106"))
	assert.Equal(t, "", tick("97")) // inside dead zone on the way down, stays ON (no write)
	assert.Equal(t, "0", tick("94"))
}

func TestXOR_ExactlyOneTrue(t *testing.T) {
	groupA := GroupConfig{
		Inputs:        []point.Reference{{Kind: point.RefPoint, ID: "a"}},
		Mode:          Digital,
		DigitalValue:  true,
		RequiredVotes: 1,
	}
	groupB := GroupConfig{
		Inputs:        []point.Reference{{Kind: point.RefPoint, ID: "b"}},
		Mode:          Digital,
		DigitalValue:  true,
		RequiredVotes: 1,
	}
	b := New(Config{
		ID:      "cmp-3",
		Groups:  []GroupConfig{groupA, groupB},
		OuterOp: XOR,
		Output:  point.Reference{Kind: point.RefPoint, ID: "out"},
	})

	resolver := blockio.NewResolver(fakeReader{values: map[string]string{"a": "1", "b": "0"}}, noNames{})
	writer := &recordingWriter{}
	require.NoError(t, b.Tick(context.Background(), resolver, writer))
	assert.Equal(t, []string{"1"}, writer.writes)
}
