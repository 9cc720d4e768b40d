// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package app assembles the engine components over shared storage and the event bus.
package app

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vechain/govcore/clock"
	"github.com/vechain/govcore/config"
	"github.com/vechain/govcore/delegation"
	"github.com/vechain/govcore/driver"
	"github.com/vechain/govcore/eventdb"
	"github.com/vechain/govcore/events"
	"github.com/vechain/govcore/governance"
	"github.com/vechain/govcore/health"
	"github.com/vechain/govcore/log"
	"github.com/vechain/govcore/lvldb"
	"github.com/vechain/govcore/reputation"
	"github.com/vechain/govcore/staking"
	"github.com/vechain/govcore/vesting"
	"github.com/vechain/govcore/votingpower"
)

var logger = log.WithContext("pkg", "app")

// Options locate the persistent state. An empty DataDir keeps everything in memory.
type Options struct {
	DataDir string
	Clock   clock.Clock
}

// App holds the wired components.
type App struct {
	Config *config.Config
	Clock  clock.Clock

	DB      *lvldb.LevelDB
	EventDB *eventdb.EventDB
	Bus     *events.Bus
	Health  *health.Health

	Staking     *staking.Ledger
	Delegations *delegation.Registry
	Reputation  *reputation.Scorer
	VotingPower *votingpower.Calculator
	Governance  *governance.Engine
	Vesting     *vesting.Scheduler
	Driver      *driver.Driver

	unsubscribe []func()
}

// New opens storage and wires every component.
func New(cfg *config.Config, opts Options) (_ *App, err error) {
	clk := opts.Clock
	if clk == nil {
		clk = clock.System{}
	}

	a := &App{Config: cfg, Clock: clk}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if opts.DataDir == "" {
		if a.DB, err = lvldb.NewMem(); err != nil {
			return nil, err
		}
		if a.EventDB, err = eventdb.NewMem(); err != nil {
			return nil, err
		}
	} else {
		if a.DB, err = lvldb.New(filepath.Join(opts.DataDir, "state"), lvldb.Options{CacheSize: 128, OpenFilesCacheCapacity: 64}); err != nil {
			return nil, err
		}
		if a.EventDB, err = eventdb.New(filepath.Join(opts.DataDir, "events.db")); err != nil {
			return nil, err
		}
	}

	a.Bus = events.NewBus(events.Options{
		MaxAttempts: cfg.Events.MaxAttempts,
		Backoff:     cfg.Events.Backoff,
	}, a.EventDB)
	a.Health = health.New(clk, cfg.Driver.Interval)

	a.Staking = staking.New(a.DB, cfg, clk, a.Bus)
	a.Reputation = reputation.New(a.DB, cfg, clk, a.Bus)
	a.Delegations = delegation.New(a.DB, cfg, a.Staking, clk, a.Bus)
	a.VotingPower = votingpower.New(cfg, a.Staking, a.Delegations, a.Reputation)
	a.Vesting = vesting.New(a.DB, cfg, clk, a.Bus)
	a.Governance = governance.New(a.DB, cfg, a.VotingPower, a.Delegations, governance.NewDispatcher(), clk, a.Bus)
	a.Driver = driver.New(cfg.Driver.Interval, a.Staking, a.Governance, a.Vesting, a.Reputation, a.Health)

	a.registerActions()
	a.subscribe()
	return a, nil
}

func (a *App) subscribe() {
	a.unsubscribe = append(a.unsubscribe,
		a.Bus.Subscribe("journal", a.EventDB.Journal),
		a.Bus.Subscribe("reputation", a.reputationFeed),
	)
}

// reputationFeed turns staking and governance activity into reputation events.
func (a *App) reputationFeed(ev events.Event) error {
	var (
		typ    string
		impact decimal.Decimal
	)
	switch ev.Type {
	case events.StakeSlashed:
		typ = reputation.EventSlashing
	case events.SlashReversed:
		typ, impact = reputation.EventComplianceCheck, decimal.NewFromInt(20)
	case events.VoteCast:
		typ, impact = reputation.EventGovernanceParticipant, decimal.NewFromInt(1)
	default:
		return nil
	}
	if ev.OwnerID == "" {
		return nil
	}
	_, err := a.Reputation.RecordEvent(ev.OwnerID, typ, impact, ev.Type+":"+ev.ID)
	return err
}

// Close releases storage. It is safe on a partially built App.
func (a *App) Close() error {
	for _, unsub := range a.unsubscribe {
		unsub()
	}
	a.unsubscribe = nil

	var errs []error
	if a.EventDB != nil {
		if err := a.EventDB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		logger.Warn("failed to close storage", "err", errs[0])
		return errors.Wrap(errs[0], "close storage")
	}
	return nil
}
