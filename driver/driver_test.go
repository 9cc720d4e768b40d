// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package driver

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/govcore/clock"
	"github.com/vechain/govcore/health"
)

type counting struct {
	calls atomic.Int32
	err   error
}

func (c *counting) tick() (int, error) {
	c.calls.Add(1)
	return 1, c.err
}

type fakeLedger struct{ accrue, unlocks, slashes counting }

func (l *fakeLedger) AccrueRewards() (int, error)  { return l.accrue.tick() }
func (l *fakeLedger) ResolveUnlocks() (int, error) { return l.unlocks.tick() }
func (l *fakeLedger) ResolveSlashes() (int, error) { return l.slashes.tick() }

type fakeGov struct{ counting }

func (g *fakeGov) AdvanceAll() (int, error) { return g.tick() }

type fakeVesting struct{ counting }

func (v *fakeVesting) Advance() (int, error) { return v.tick() }

type fakeRep struct{ counting }

func (r *fakeRep) PruneHistory() (int, error) { return r.tick() }

type fakeSync struct {
	calls  atomic.Int32
	offset time.Duration
}

func (s *fakeSync) Sync() error {
	s.calls.Add(1)
	return nil
}

func (s *fakeSync) Offset() time.Duration { return s.offset }

func TestSweep(t *testing.T) {
	ledger, gov, vest, rep := &fakeLedger{}, &fakeGov{}, &fakeVesting{}, &fakeRep{}
	h := health.New(clock.System{}, time.Minute)
	d := New(time.Minute, ledger, gov, vest, rep, h)

	require.NoError(t, d.Sweep())
	assert.Equal(t, int32(1), ledger.accrue.calls.Load())
	assert.Equal(t, int32(1), ledger.unlocks.calls.Load())
	assert.Equal(t, int32(1), ledger.slashes.calls.Load())
	assert.Equal(t, int32(1), gov.calls.Load())
	assert.Equal(t, int32(1), vest.calls.Load())
	assert.Equal(t, int32(1), rep.calls.Load())

	status, err := h.Status()
	require.NoError(t, err)
	assert.True(t, status.Healthy)
}

func TestSweep_Failure(t *testing.T) {
	ledger, gov, vest, rep := &fakeLedger{}, &fakeGov{}, &fakeVesting{}, &fakeRep{}
	ledger.accrue.err = errors.New("corrupt position")
	h := health.New(clock.System{}, time.Minute)
	d := New(time.Minute, ledger, gov, vest, rep, h)

	assert.ErrorContains(t, d.Sweep(), "corrupt position")
	// later steps of the failing component are skipped, other components still run
	assert.Zero(t, ledger.unlocks.calls.Load())
	assert.Equal(t, int32(1), gov.calls.Load())

	status, err := h.Status()
	require.NoError(t, err)
	assert.False(t, status.Healthy)
	assert.Equal(t, "corrupt position", status.LastSweep.Error)
}

func TestRun(t *testing.T) {
	ledger, gov, vest, rep := &fakeLedger{}, &fakeGov{}, &fakeVesting{}, &fakeRep{}
	sync := &fakeSync{offset: time.Hour}
	d := New(5*time.Millisecond, ledger, gov, vest, rep, nil).WithClockSync(sync)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	assert.Eventually(t, func() bool { return gov.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("driver did not stop")
	}
	assert.GreaterOrEqual(t, sync.calls.Load(), int32(1))
}
