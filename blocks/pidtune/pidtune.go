// Copyright 2026 Sonic Labs
// This file is part of Memproc.
//
// Memproc is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Memproc is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Memproc. If not, see <http://www.gnu.org/licenses/>.

// Package pidtune implements the PID Auto-Tuner: a relay-feedback
// (Astrom-Hagglund) identification session that derives Ziegler-Nichols
// gains once enough oscillation cycles have been observed.
package pidtune

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/0xsoniclabs/memproc/blocks/blockio"
	"github.com/0xsoniclabs/memproc/internal/memerr"
	"github.com/0xsoniclabs/memproc/point"
)

// Status is the tuning session's lifecycle state. The sequence observed
// over a session's lifetime is always a prefix of
// [Initializing, RelayTest, AnalyzingData, {Completed|Failed|Aborted}].
type Status int

const (
	Initializing Status = iota
	RelayTest
	AnalyzingData
	Completed
	Failed
	Aborted
)

const maxConsecutiveReadFailures = 10

// Writer is the output side of a PID tuning session (the relay output).
type Writer interface {
	WriteOutput(ctx context.Context, ref point.Reference, value string) error
}

// ParentActive reports whether the parent PID loop (in a cascade
// configuration) is still actively controlling, which blocks tuning.
type ParentActive func() bool

// Config is one tuning session's static configuration.
type Config struct {
	ID                   string
	Setpoint             float64
	OutputMin            float64
	OutputMax            float64
	RelayAmplitudePct    float64
	Hysteresis           float64
	MinCycles            int
	MaxCycles            int
	TimeoutSeconds       int64
	SafetyAmplitudeLimit float64 // percent
	PV                   point.Reference
	RelayOutput          point.Reference
	IsParentActive       ParentActive
}

type extremum struct {
	Value float64
	Time  int64
}

// Result is the identified gain set, published on successful completion.
type Result struct {
	Kp, Ki, Kd, Confidence float64
}

// Session is a tuning session's full transient state, suitable for JSON
// persistence in the Value Store's tuning-state side channel.
type Session struct {
	Status Status

	RelayHigh, RelayLow float64
	RelayOutputsHigh    bool

	Samples []float64
	Times   []int64

	Peaks, Troughs []extremum
	HasExtremum    bool
	LastExtremum   float64

	ConsecutiveReadFailures int
	StartedAt               int64

	Result     *Result
	FailReason string
}

// StateStore is the transient side-channel a tuning Block needs,
// satisfied by *valuestore.Gateway.
type StateStore interface {
	SetTuningState(ctx context.Context, id string, state any) error
	GetTuningState(ctx context.Context, id string, dst any) (bool, error)
	DeleteTuningState(ctx context.Context, id string) error
}

// Block is one configured PID Auto-Tuner processor instance.
type Block struct {
	Config
	store   StateStore
	session Session
}

// New builds a Block from its configuration and transient state store.
func New(cfg Config, store StateStore) *Block {
	return &Block{Config: cfg, store: store}
}

// Status returns the session's current lifecycle state.
func (b *Block) Status() Status { return b.session.Status }

// Result returns the identified gains, valid only once Status ==
// Completed.
func (b *Block) Result() *Result { return b.session.Result }

// Start transitions a fresh session from Initializing into RelayTest. It
// refuses to start while the parent PID loop is active.
func (b *Block) Start(ctx context.Context, now time.Time) error {
	if b.IsParentActive != nil && b.IsParentActive() {
		return memerr.Configuration("pid tune %s: parent loop is active", b.ID)
	}

	b.session = Session{
		Status:           RelayTest,
		RelayHigh:        b.OutputMin + b.RelayAmplitudePct/100*(b.OutputMax-b.OutputMin),
		RelayLow:         b.OutputMin,
		RelayOutputsHigh: true,
		StartedAt:        now.Unix(),
	}
	return b.persist(ctx)
}

// Abort forces the session to a terminal Aborted state and cleans up
// transient state.
func (b *Block) Abort(ctx context.Context) error {
	b.session.Status = Aborted
	return b.store.DeleteTuningState(ctx, b.ID)
}

// Tick advances the relay-feedback state machine by one sample.
func (b *Block) Tick(ctx context.Context, now time.Time, resolver *blockio.Resolver, writer Writer) error {
	switch b.session.Status {
	case RelayTest:
		return b.tickRelayTest(ctx, now, resolver, writer)
	case AnalyzingData:
		return b.analyze(ctx)
	default:
		return nil
	}
}

func (b *Block) tickRelayTest(ctx context.Context, now time.Time, resolver *blockio.Resolver, writer Writer) error {
	item, ok, err := resolver.ResolveOne(ctx, b.PV)
	if err != nil || !ok {
		b.session.ConsecutiveReadFailures++
		if b.session.ConsecutiveReadFailures >= maxConsecutiveReadFailures {
			return b.fail(ctx, "process variable read failed 10 consecutive times")
		}
		return b.persist(ctx)
	}
	raw, err := blockio.ParseFloat(item.Value)
	if err != nil {
		b.session.ConsecutiveReadFailures++
		if b.session.ConsecutiveReadFailures >= maxConsecutiveReadFailures {
			return b.fail(ctx, "process variable read failed 10 consecutive times")
		}
		return b.persist(ctx)
	}
	b.session.ConsecutiveReadFailures = 0

	if now.Unix()-b.session.StartedAt > b.TimeoutSeconds {
		return b.fail(ctx, "relay test exceeded timeout")
	}

	b.toggleRelay(raw)
	if err := writer.WriteOutput(ctx, b.RelayOutput, relayValue(b.session.RelayOutputsHigh, b.session.RelayHigh, b.session.RelayLow)); err != nil {
		return err
	}

	b.session.Samples = append(b.session.Samples, raw)
	b.session.Times = append(b.session.Times, now.Unix())
	b.recordExtremumIfAny()

	if amp, ok := b.amplitudePercent(); ok && amp > b.SafetyAmplitudeLimit {
		return b.fail(ctx, "relay oscillation amplitude exceeded safety limit")
	}

	cycles := min(len(b.session.Peaks), len(b.session.Troughs))
	if cycles >= b.MinCycles {
		b.session.Status = AnalyzingData
		return b.persist(ctx)
	}
	if cycles >= b.MaxCycles {
		return b.fail(ctx, "reached max_cycles without completing identification")
	}

	return b.persist(ctx)
}

func (b *Block) toggleRelay(pv float64) {
	if b.session.RelayOutputsHigh && pv > b.Setpoint+b.Hysteresis {
		b.session.RelayOutputsHigh = false
	} else if !b.session.RelayOutputsHigh && pv < b.Setpoint-b.Hysteresis {
		b.session.RelayOutputsHigh = true
	}
}

func relayValue(high bool, relayHigh, relayLow float64) string {
	v := relayLow
	if high {
		v = relayHigh
	}
	return formatFloat(v)
}

// recordExtremumIfAny checks whether the middle sample of the last three
// is a local peak or trough relative to the setpoint, recording it only
// if it differs from the last recorded extremum by more than hysteresis.
func (b *Block) recordExtremumIfAny() {
	n := len(b.session.Samples)
	if n < 3 {
		return
	}
	pv2, pv1, pv0 := b.session.Samples[n-3], b.session.Samples[n-2], b.session.Samples[n-1]
	midTime := b.session.Times[n-2]

	isPeak := pv1 > pv2 && pv1 > pv0 && pv1 > b.Setpoint
	isTrough := pv1 < pv2 && pv1 < pv0 && pv1 < b.Setpoint
	if !isPeak && !isTrough {
		return
	}
	if b.session.HasExtremum && math.Abs(pv1-b.session.LastExtremum) <= b.Hysteresis {
		return
	}

	if isPeak {
		b.session.Peaks = append(b.session.Peaks, extremum{Value: pv1, Time: midTime})
	} else {
		b.session.Troughs = append(b.session.Troughs, extremum{Value: pv1, Time: midTime})
	}
	b.session.LastExtremum = pv1
	b.session.HasExtremum = true
}

func (b *Block) amplitudePercent() (float64, bool) {
	if len(b.session.Peaks) == 0 || len(b.session.Troughs) == 0 {
		return 0, false
	}
	avgPeak := meanOf(b.session.Peaks)
	avgTrough := meanOf(b.session.Troughs)
	if b.Setpoint == 0 {
		return 0, false
	}
	return (avgPeak - avgTrough) / b.Setpoint * 100, true
}

func meanOf(es []extremum) float64 {
	var sum float64
	for _, e := range es {
		sum += e.Value
	}
	return sum / float64(len(es))
}

// analyze computes Ziegler-Nichols gains from the recorded peaks and
// troughs, stores the result on the in-memory session (readable through
// Result), marks the session Completed and deletes the transient tuning
// state. Neither the result nor the status is written to the session row.
func (b *Block) analyze(ctx context.Context) error {
	peaks, troughs := b.session.Peaks, b.session.Troughs
	if len(peaks) < 2 || len(troughs) < 2 {
		return b.fail(ctx, "insufficient peaks/troughs for identification")
	}

	var periods []float64
	for i := 1; i < len(peaks); i++ {
		periods = append(periods, float64(peaks[i].Time-peaks[i-1].Time))
	}
	pu := meanFloat(periods)

	pairs := min(len(peaks), len(troughs))
	var diffs []float64
	for i := 0; i < pairs; i++ {
		diffs = append(diffs, peaks[i].Value-troughs[i].Value)
	}
	a := meanFloat(diffs)

	d := b.session.RelayHigh - b.session.RelayLow
	ku := 4 * d / (math.Pi * a)

	result := &Result{
		Kp: 0.6 * ku,
		Ki: 1.2 * ku / pu,
		Kd: 0.075 * ku * pu,
	}
	result.Confidence = confidence(periods)

	b.session.Result = result
	b.session.Status = Completed
	b.session.FailReason = ""
	if err := b.store.DeleteTuningState(ctx, b.ID); err != nil {
		return err
	}
	return nil
}

func confidence(periods []float64) float64 {
	if len(periods) == 0 {
		return 0
	}
	mean := meanFloat(periods)
	if mean == 0 {
		return 0
	}
	var sumSq float64
	for _, p := range periods {
		d := p - mean
		sumSq += d * d
	}
	sigma := math.Sqrt(sumSq / float64(len(periods)))
	c := 1 - sigma/mean
	if c < 0 {
		return 0
	}
	return c
}

func meanFloat(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func (b *Block) fail(ctx context.Context, reason string) error {
	b.session.Status = Failed
	b.session.FailReason = reason
	return b.store.DeleteTuningState(ctx, b.ID)
}

func (b *Block) persist(ctx context.Context) error {
	return b.store.SetTuningState(ctx, b.ID, &b.session)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
