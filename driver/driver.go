// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package driver

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/vechain/govcore/health"
	"github.com/vechain/govcore/log"
	"github.com/vechain/govcore/metrics"
)

var (
	logger = log.WithContext("pkg", "driver")

	metricSweepDuration = metrics.LazyLoadHistogram("driver_sweep_duration_ms", metrics.BucketSweepMillis)
	metricTransitions   = metrics.LazyLoadCounterVec("driver_transitions_total", []string{"step"})
)

// Ledger is the staking sweep surface.
type Ledger interface {
	AccrueRewards() (int, error)
	ResolveUnlocks() (int, error)
	ResolveSlashes() (int, error)
}

type Governance interface {
	AdvanceAll() (int, error)
}

type Vesting interface {
	Advance() (int, error)
}

type Reputation interface {
	PruneHistory() (int, error)
}

// ClockSyncer is a clock that can be corrected against a reference.
type ClockSyncer interface {
	Sync() error
	Offset() time.Duration
}

type step struct {
	name string
	fn   func() (int, error)
}

// Driver periodically runs the idempotent advance entry points of every component.
// Steps of one component run in order; components are swept in parallel.
type Driver struct {
	interval time.Duration
	groups   [][]step
	health   *health.Health
	clock    ClockSyncer
}

func New(interval time.Duration, ledger Ledger, gov Governance, vest Vesting, rep Reputation, h *health.Health) *Driver {
	return &Driver{
		interval: interval,
		health:   h,
		groups: [][]step{
			{
				{"staking_accrue", ledger.AccrueRewards},
				{"staking_unlocks", ledger.ResolveUnlocks},
				{"staking_slashes", ledger.ResolveSlashes},
			},
			{{"governance_advance", gov.AdvanceAll}},
			{{"vesting_advance", vest.Advance}},
			{{"reputation_prune", rep.PruneHistory}},
		},
	}
}

// WithClockSync makes Run resynchronise c every ten sweeps.
func (d *Driver) WithClockSync(c ClockSyncer) *Driver {
	d.clock = c
	return d
}

// Sweep runs every step once and reports the outcome to health.
func (d *Driver) Sweep() error {
	start := time.Now()

	var g errgroup.Group
	for _, group := range d.groups {
		group := group
		g.Go(func() error {
			for _, s := range group {
				n, err := s.fn()
				if err != nil {
					logger.Warn("sweep step failed", "step", s.name, "err", err)
					return err
				}
				if n > 0 {
					metricTransitions().AddWithLabel(int64(n), map[string]string{"step": s.name})
					logger.Debug("sweep step applied transitions", "step", s.name, "count", n)
				}
			}
			return nil
		})
	}
	err := g.Wait()

	took := time.Since(start)
	metricSweepDuration().Observe(took.Milliseconds())
	if d.health != nil {
		d.health.SweepCompleted(took, err)
	}
	return err
}

func (d *Driver) syncClock() {
	if err := d.clock.Sync(); err != nil {
		logger.Debug("failed to access NTP", "err", err)
		return
	}
	if off := d.clock.Offset(); off > d.interval/2 || off < -d.interval/2 {
		logger.Warn("clock offset detected", "offset", common.PrettyDuration(off))
	}
}

// Run sweeps immediately and then every interval until ctx is done. Failed sweeps are
// logged and retried on the next tick.
func (d *Driver) Run(ctx context.Context) error {
	logger.Debug("enter driver loop", "interval", d.interval)
	defer logger.Debug("leave driver loop")

	if d.clock != nil {
		d.syncClock()
	}
	if err := d.Sweep(); err != nil {
		logger.Warn("sweep failed", "err", err)
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for sweeps := 1; ; sweeps++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if d.clock != nil && sweeps%10 == 0 {
				d.syncClock()
			}
			if err := d.Sweep(); err != nil {
				logger.Warn("sweep failed", "err", err)
			}
		}
	}
}
