package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlock struct {
	id       string
	interval time.Duration
	disabled bool
}

func (b fakeBlock) ID() string             { return b.id }
func (b fakeBlock) Interval() time.Duration { return b.interval }
func (b fakeBlock) IsDisabled() bool       { return b.disabled }

func TestDue_NeverExecutedIsDue(t *testing.T) {
	s := New("Timeout", "ERROR")
	assert.True(t, s.Due(fakeBlock{id: "b1", interval: time.Second}))
}

func TestDue_RespectsCadence(t *testing.T) {
	s := New("Timeout", "ERROR")
	clock := time.Unix(1000, 0)
	s.now = func() time.Time { return clock }

	b := fakeBlock{id: "b1", interval: 10 * time.Second}
	s.MarkExecuted(b)

	clock = clock.Add(5 * time.Second)
	assert.False(t, s.Due(b), "cadence not yet elapsed")

	clock = clock.Add(5 * time.Second)
	assert.True(t, s.Due(b), "cadence elapsed")
}

func TestDue_DisabledNeverDue(t *testing.T) {
	s := New("Timeout", "ERROR")
	assert.False(t, s.Due(fakeBlock{id: "b1", interval: time.Second, disabled: true}))
}

func TestRunOnce_ErrorInOneBlockDoesNotStopOthers(t *testing.T) {
	s := New("Timeout", "ERROR")
	list := []Block{
		fakeBlock{id: "bad", interval: time.Second},
		fakeBlock{id: "good", interval: time.Second},
	}
	var ran []string
	s.RunOnce(context.Background(), list, func(_ context.Context, b Block) error {
		ran = append(ran, b.ID())
		if b.ID() == "bad" {
			return errors.New("boom")
		}
		return nil
	})
	assert.Equal(t, []string{"bad", "good"}, ran)
}

func TestRunOnce_PanicDoesNotStopOthers(t *testing.T) {
	s := New("Timeout", "ERROR")
	list := []Block{
		fakeBlock{id: "bad", interval: time.Second},
		fakeBlock{id: "good", interval: time.Second},
	}
	var ran []string
	s.RunOnce(context.Background(), list, func(_ context.Context, b Block) error {
		ran = append(ran, b.ID())
		if b.ID() == "bad" {
			panic("boom")
		}
		return nil
	})
	assert.Equal(t, []string{"bad", "good"}, ran)
}

func TestWaitForReady_SucceedsWithinAttempts(t *testing.T) {
	attempt := 0
	err := WaitForReady(context.Background(), func(context.Context) error {
		attempt++
		if attempt < 3 {
			return errors.New("not ready")
		}
		return nil
	}, 5, time.Millisecond, "ERROR")
	require.NoError(t, err)
	assert.Equal(t, 3, attempt)
}

func TestWaitForReady_ExhaustsAttempts(t *testing.T) {
	err := WaitForReady(context.Background(), func(context.Context) error {
		return errors.New("never ready")
	}, 3, time.Millisecond, "ERROR")
	assert.Error(t, err)
}
