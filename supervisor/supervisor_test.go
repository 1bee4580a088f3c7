package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProcessor struct {
	name  string
	runs  int32
	failN int32
}

func (p *countingProcessor) Name() string { return p.name }
func (p *countingProcessor) Run(ctx context.Context) error {
	n := atomic.AddInt32(&p.runs, 1)
	if n <= p.failN {
		return errors.New("boom")
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestStart_WaitsForReadinessBeforeLaunching(t *testing.T) {
	s := New("ERROR")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	probed := int32(0)
	probe := func(context.Context) error {
		if atomic.AddInt32(&probed, 1) < 2 {
			return errors.New("not ready")
		}
		return nil
	}

	p := &countingProcessor{name: "Timeout"}
	origBackoff := RestartBackoff
	RestartBackoff = time.Millisecond
	defer func() { RestartBackoff = origBackoff }()

	err := s.Start(ctx, probe, []Processor{p})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&probed), int32(2))
}

func TestRunRestartable_RestartsOnFailure(t *testing.T) {
	s := New("ERROR")
	ctx, cancel := context.WithCancel(context.Background())

	origBackoff := RestartBackoff
	RestartBackoff = time.Millisecond
	defer func() { RestartBackoff = origBackoff }()

	p := &countingProcessor{name: "Totalizer", failN: 2}
	done := make(chan struct{})
	go func() {
		s.runRestartable(ctx, p)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done
	assert.GreaterOrEqual(t, atomic.LoadInt32(&p.runs), int32(3))
}
