// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package votingpower aggregates stake, lock duration, reputation and delegation into
// voting power. It holds no state of its own.
package votingpower

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/vechain/govcore/config"
	"github.com/vechain/govcore/numeric"
	"github.com/vechain/govcore/reputation"
	"github.com/vechain/govcore/staking"
)

// StakeSource lists voting eligible stake.
type StakeSource interface {
	Owners() ([]string, error)
	ActivePositionsOf(owner string) ([]*staking.Position, error)
}

// DelegationSource reports active delegated amounts.
type DelegationSource interface {
	InboundPower(owner string) (*big.Int, error)
	OutboundAmount(owner string) (*big.Int, error)
}

// ReputationSource reports the current score of an account.
type ReputationSource interface {
	Score(owner string) (*reputation.Score, error)
}

// Snapshot is the voting power breakdown of an account at one instant.
// Total may be negative when more is delegated out than held.
type Snapshot struct {
	Owner                string          `json:"owner"`
	Base                 *big.Int        `json:"base"`
	LockBonus            *big.Int        `json:"lockBonus"`
	ReputationBonus      *big.Int        `json:"reputationBonus"`
	Delegated            *big.Int        `json:"delegated"`
	DelegatedOut         *big.Int        `json:"delegatedOut"`
	Total                *big.Int        `json:"total"`
	ReputationScore      decimal.Decimal `json:"reputationScore"`
	ReputationMultiplier decimal.Decimal `json:"reputationMultiplier"`
}

// Calculator computes voting power from the current state of its sources.
type Calculator struct {
	cfg        config.VotingPower
	scoreRange [2]decimal.Decimal

	stakes      StakeSource
	delegations DelegationSource
	reputation  ReputationSource
}

// New creates a calculator.
func New(cfg *config.Config, stakes StakeSource, delegations DelegationSource, rep ReputationSource) *Calculator {
	return &Calculator{
		cfg:         cfg.VotingPower,
		scoreRange:  [2]decimal.Decimal{cfg.Reputation.MinScore, cfg.Reputation.MaxScore},
		stakes:      stakes,
		delegations: delegations,
		reputation:  rep,
	}
}

func (c *Calculator) lockDays(days int64) decimal.Decimal {
	return numeric.ClampDec(decimal.NewFromInt(days), decimal.Zero, decimal.NewFromInt(int64(c.cfg.MaxLockDays)))
}

// LockMultiplier scales linearly from 1 at zero days to the configured maximum at
// MaxLockDays. Out of range inputs clamp.
func (c *Calculator) LockMultiplier(days int64) decimal.Decimal {
	if c.cfg.MaxLockDays == 0 {
		return c.cfg.MaxLockMultiplier
	}
	frac := c.lockDays(days).DivRound(decimal.NewFromInt(int64(c.cfg.MaxLockDays)), numeric.Precision)
	return decimal.NewFromInt(1).Add(c.cfg.MaxLockMultiplier.Sub(decimal.NewFromInt(1)).Mul(frac))
}

// lockBonus is amount * (LockMultiplier(days) - 1), truncated without rounding the multiplier.
func (c *Calculator) lockBonus(amount *big.Int, days int64) *big.Int {
	if c.cfg.MaxLockDays == 0 {
		return numeric.MulFrac(amount, c.cfg.MaxLockMultiplier.Sub(decimal.NewFromInt(1)))
	}
	num := numeric.Dec(amount).Mul(c.cfg.MaxLockMultiplier.Sub(decimal.NewFromInt(1))).Mul(c.lockDays(days))
	return numeric.DivTrunc(num, decimal.NewFromInt(int64(c.cfg.MaxLockDays)))
}

// ReputationMultiplier scales linearly from 1 at the minimum score to the configured
// maximum at the maximum score.
func (c *Calculator) ReputationMultiplier(score decimal.Decimal) decimal.Decimal {
	lo, hi := c.scoreRange[0], c.scoreRange[1]
	span := hi.Sub(lo)
	if span.Sign() <= 0 {
		return decimal.NewFromInt(1)
	}
	frac := numeric.ClampDec(score, lo, hi).Sub(lo).DivRound(span, numeric.Precision)
	return decimal.NewFromInt(1).Add(c.cfg.MaxReputationMultiplier.Sub(decimal.NewFromInt(1)).Mul(frac))
}

// own computes the stake derived part of owner's power.
func (c *Calculator) own(owner string, snap *Snapshot) error {
	positions, err := c.stakes.ActivePositionsOf(owner)
	if err != nil {
		return err
	}
	for _, p := range positions {
		snap.Base.Add(snap.Base, p.Amount)
		snap.LockBonus.Add(snap.LockBonus, c.lockBonus(p.Amount, int64(p.LockDays)))
	}

	score, err := c.reputation.Score(owner)
	if err != nil {
		return err
	}
	snap.ReputationScore = score.Overall
	snap.ReputationMultiplier = c.ReputationMultiplier(score.Overall)
	snap.ReputationBonus = numeric.MulFrac(snap.Base, snap.ReputationMultiplier.Sub(decimal.NewFromInt(1)))
	return nil
}

func newSnapshot(owner string) *Snapshot {
	return &Snapshot{
		Owner:           owner,
		Base:            new(big.Int),
		LockBonus:       new(big.Int),
		ReputationBonus: new(big.Int),
		Delegated:       new(big.Int),
		DelegatedOut:    new(big.Int),
		Total:           new(big.Int),
	}
}

// Snapshot computes the current voting power of owner.
func (c *Calculator) Snapshot(owner string) (*Snapshot, error) {
	snap := newSnapshot(owner)
	if err := c.own(owner, snap); err != nil {
		return nil, err
	}

	var err error
	if snap.Delegated, err = c.delegations.InboundPower(owner); err != nil {
		return nil, err
	}
	if snap.DelegatedOut, err = c.delegations.OutboundAmount(owner); err != nil {
		return nil, err
	}

	snap.Total = numeric.Sum(snap.Base, snap.LockBonus, snap.ReputationBonus, snap.Delegated)
	snap.Total.Sub(snap.Total, snap.DelegatedOut)
	return snap, nil
}

// TotalVotingPower sums base, lock and reputation power over every staker. Delegation
// only moves power between accounts, so it is left out.
func (c *Calculator) TotalVotingPower() (*big.Int, error) {
	owners, err := c.stakes.Owners()
	if err != nil {
		return nil, err
	}
	total := new(big.Int)
	for _, owner := range owners {
		snap := newSnapshot(owner)
		if err := c.own(owner, snap); err != nil {
			return nil, err
		}
		total.Add(total, numeric.Sum(snap.Base, snap.LockBonus, snap.ReputationBonus))
	}
	return total, nil
}
