// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vechain/govcore/clock"
	"github.com/vechain/govcore/events"
	"github.com/vechain/govcore/numeric"
	"github.com/vechain/govcore/reverts"
)

var (
	daysPerYear    = decimal.NewFromInt(365)
	secondsPerYear = decimal.NewFromInt(365 * 24 * 60 * 60)
	one            = decimal.NewFromInt(1)
)

// accrue credits the simple interest earned by an active position since the start of
// its current segment. The segment total is recomputed from scratch every time, so
// repeated calls never double count and truncation happens once per segment.
func accrue(p *Position, now time.Time) error {
	if p.Status != StatusActive {
		return nil
	}
	ts := clock.Unix(now)
	if ts <= p.SegmentStart {
		return nil
	}
	rate, err := p.Rate()
	if err != nil {
		return err
	}
	elapsed := decimal.NewFromInt(int64(ts - p.SegmentStart))
	total := numeric.DivTrunc(numeric.Dec(p.Amount).Mul(rate).Mul(elapsed), secondsPerYear)
	delta := new(big.Int).Sub(total, p.SegmentAccrued)
	if delta.Sign() <= 0 {
		return nil
	}
	p.PendingRewards = new(big.Int).Add(p.PendingRewards, delta)
	p.SegmentAccrued = total
	return nil
}

// startSegment closes the current accrual segment, to be called after accrue whenever
// the principal changes.
func startSegment(p *Position, now time.Time) {
	p.SegmentStart = clock.Unix(now)
	p.SegmentAccrued = new(big.Int)
}

// CalculateRewards projects the rewards of staking amount for daysStaked days.
func (l *Ledger) CalculateRewards(amount *big.Int, lockDays, daysStaked uint32, autoCompound bool) (*RewardEstimate, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, reverts.Violation(reverts.RuleAmountOutOfRange, "amount must be positive")
	}
	apy, ok := l.cfg.APY(lockDays)
	if !ok {
		return nil, reverts.Violation(reverts.RuleInvalidLockPeriod, "lock period of %d days is not offered", lockDays)
	}

	daily := apy.DivRound(daysPerYear, numeric.Precision)
	days := decimal.NewFromInt(int64(daysStaked))
	simple := numeric.DivTrunc(numeric.Dec(amount).Mul(apy).Mul(days), daysPerYear)

	est := &RewardEstimate{
		Principal:      numeric.Copy(amount),
		LockDays:       lockDays,
		DaysStaked:     daysStaked,
		APY:            apy,
		DailyRate:      daily,
		SimpleReward:   simple,
		CompoundReward: new(big.Int),
		CompoundBonus:  new(big.Int),
		TotalReward:    simple,
		EffectiveAPY:   apy,
		AutoCompound:   autoCompound,
	}
	if autoCompound {
		growth := numeric.PowInt(one.Add(daily), uint64(daysStaked)).Sub(one)
		compound := numeric.MulFrac(amount, growth)
		est.CompoundReward = compound
		est.CompoundBonus = new(big.Int).Sub(compound, simple)
		est.TotalReward = compound
		est.EffectiveAPY = numeric.PowInt(one.Add(daily), 365).Sub(one).Round(8)
	}
	return est, nil
}

// AccrueRewards credits the interest earned since the last accrual to every active
// position. It is idempotent for a given instant.
func (l *Ledger) AccrueRewards() (int, error) {
	accrued := new(big.Int)
	n, err := l.sweep(func(p *Position, now time.Time) (bool, error) {
		before := numeric.Copy(p.PendingRewards)
		if err := accrue(p, now); err != nil {
			return false, err
		}
		delta := new(big.Int).Sub(p.PendingRewards, before)
		if delta.Sign() == 0 {
			return false, nil
		}
		accrued.Add(accrued, delta)
		return true, nil
	})
	if accrued.Sign() > 0 {
		if serr := l.stats.Update(func(s *Stats) {
			s.RewardsAccrued.Add(s.RewardsAccrued, accrued)
		}); serr != nil && err == nil {
			err = serr
		}
	}
	if n > 0 {
		logger.Debug("accrued rewards", "positions", n, "amount", accrued)
	}
	return n, err
}

// ClaimRewards pays out the pending rewards of every non-terminal position of owner.
func (l *Ledger) ClaimRewards(owner string) (*ClaimResult, error) {
	return l.collect(owner, false)
}

// CompoundRewards adds the pending rewards of the owner's auto-compounding positions to
// their principal.
func (l *Ledger) CompoundRewards(owner string) (*ClaimResult, error) {
	return l.collect(owner, true)
}

func (l *Ledger) collect(owner string, compound bool) (*ClaimResult, error) {
	op := "claim"
	if compound {
		op = "compound"
	}
	logger.Debug(op+"ing rewards", "owner", owner)

	unlock := l.locks.Lock(owner)
	defer unlock()

	ids, err := l.byOwner.List(owner)
	if err != nil {
		return nil, err
	}
	now := l.clock.Now()
	result := &ClaimResult{Amount: new(big.Int)}
	var touched []*Position

	for _, id := range ids {
		p, err := l.load(id)
		if err != nil {
			return nil, err
		}
		if p.Status.IsTerminal() || (compound && (p.Status != StatusActive || !p.AutoCompound)) {
			continue
		}
		resolveUnlock(p, now)
		if err := accrue(p, now); err != nil {
			return nil, err
		}
		if p.PendingRewards.Sign() == 0 {
			continue
		}
		pending := p.PendingRewards
		result.Amount.Add(result.Amount, pending)
		result.Positions = append(result.Positions, p.ID)

		p.ClaimedRewards = new(big.Int).Add(p.ClaimedRewards, pending)
		p.PendingRewards = new(big.Int)
		if compound {
			p.Amount = new(big.Int).Add(p.Amount, pending)
			startSegment(p, now)
		}
		touched = append(touched, p)
	}

	if result.Amount.Sign() == 0 {
		return result, nil
	}
	for _, p := range touched {
		if err := l.positions.Update(p.ID, p); err != nil {
			return nil, err
		}
	}
	if err := l.stats.Update(func(s *Stats) {
		s.RewardsPaid.Add(s.RewardsPaid, result.Amount)
		if compound {
			s.TotalStaked.Add(s.TotalStaked, result.Amount)
		}
	}); err != nil {
		return nil, err
	}

	typ := events.RewardsClaimed
	if compound {
		typ = events.RewardsCompounded
	}
	l.events.Publish(events.New(now, typ, events.CategoryStaking, owner, map[string]string{
		"amount":    result.Amount.String(),
		"positions": strconv.Itoa(len(result.Positions)),
	}))
	metricOps().AddWithLabel(1, map[string]string{"op": typ})

	result.Success = true
	logger.Info(op+"ed rewards", "owner", owner, "amount", result.Amount)
	return result, nil
}
