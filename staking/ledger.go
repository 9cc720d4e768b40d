// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"strconv"
	"time"

	"github.com/pborman/uuid"

	"github.com/vechain/govcore/clock"
	"github.com/vechain/govcore/config"
	"github.com/vechain/govcore/events"
	"github.com/vechain/govcore/kv"
	"github.com/vechain/govcore/log"
	"github.com/vechain/govcore/metrics"
	"github.com/vechain/govcore/numeric"
	"github.com/vechain/govcore/reverts"
	"github.com/vechain/govcore/storage"
)

var (
	logger = log.WithContext("pkg", "staking")

	metricTotalStaked = metrics.LazyLoadGauge("staking_total_staked")
	metricOps         = metrics.LazyLoadCounterVec("staking_operations_total", []string{"op"})
)

// Ledger owns stake positions and slash events. Mutations are serialised per owner.
type Ledger struct {
	cfg      config.Staking
	slashing config.Slashing
	clock    clock.Clock
	events   events.Publisher

	positions *storage.Mapping[*Position]
	slashes   *storage.Mapping[*SlashEvent]
	byOwner   *storage.Index
	stats     *statsStore
	locks     storage.Locker
}

// New creates a ledger persisting into store.
func New(store kv.Store, cfg *config.Config, clk clock.Clock, pub events.Publisher) *Ledger {
	if pub == nil {
		pub = events.Discard
	}
	return &Ledger{
		cfg:       cfg.Staking,
		slashing:  cfg.Slashing,
		clock:     clk,
		events:    pub,
		positions: storage.NewMapping[*Position](store, "staking/position", 4096),
		slashes:   storage.NewMapping[*SlashEvent](store, "staking/slash", 1024),
		byOwner:   storage.NewIndex(store, "staking/owner"),
		stats:     newStatsStore(store),
	}
}

func (l *Ledger) emit(typ string, p *Position, payload map[string]string) {
	ev := events.New(l.clock.Now(), typ, events.CategoryStaking, p.Owner, payload)
	if p.AgentID != "" {
		ev = ev.WithAgent(p.AgentID)
	}
	l.events.Publish(ev)
	metricOps().AddWithLabel(1, map[string]string{"op": typ})
}

//
// Getters
//

// Position returns a position, resolving time gated transitions in the returned view.
func (l *Ledger) Position(id string) (*Position, error) {
	p, err := l.load(id)
	if err != nil {
		return nil, err
	}
	now := l.clock.Now()
	resolveUnlock(p, now)
	if err := accrue(p, now); err != nil {
		return nil, err
	}
	return p, nil
}

// PositionsOf returns every position of owner in creation order.
func (l *Ledger) PositionsOf(owner string) ([]*Position, error) {
	ids, err := l.byOwner.List(owner)
	if err != nil {
		return nil, err
	}
	out := make([]*Position, 0, len(ids))
	for _, id := range ids {
		p, err := l.Position(id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ActivePositionsOf returns the positions of owner that count towards voting power.
func (l *Ledger) ActivePositionsOf(owner string) ([]*Position, error) {
	all, err := l.PositionsOf(owner)
	if err != nil {
		return nil, err
	}
	active := all[:0]
	for _, p := range all {
		if p.VotingEligible() {
			active = append(active, p)
		}
	}
	return active, nil
}

// TotalStaked returns the principal owner holds in active positions.
func (l *Ledger) TotalStaked(owner string) (*big.Int, error) {
	active, err := l.ActivePositionsOf(owner)
	if err != nil {
		return nil, err
	}
	total := new(big.Int)
	for _, p := range active {
		total.Add(total, p.Amount)
	}
	return total, nil
}

// Owners returns every owner that ever staked.
func (l *Ledger) Owners() ([]string, error) {
	return l.byOwner.Keys()
}

// TierFromStake returns the highest tier whose threshold total reaches, or "none".
func (l *Ledger) TierFromStake(total *big.Int) string {
	tier := "none"
	for _, t := range l.cfg.Tiers {
		if total.Cmp(t.MinStake) >= 0 {
			tier = t.Name
		}
	}
	return tier
}

// TierOf returns the stake tier of owner.
func (l *Ledger) TierOf(owner string) (string, error) {
	total, err := l.TotalStaked(owner)
	if err != nil {
		return "", err
	}
	return l.TierFromStake(total), nil
}

// Stats returns the ledger wide totals.
func (l *Ledger) Stats() (*Stats, error) {
	return l.stats.Get()
}

func (l *Ledger) load(id string) (*Position, error) {
	p, found, err := l.positions.Get(id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, reverts.NotFound("stake", id)
	}
	return p, nil
}

//
// Setters
//

// Stake opens a new position for owner.
func (l *Ledger) Stake(owner string, amount *big.Int, lockDays uint32, autoCompound bool, purpose string) (*Position, error) {
	return l.stake(owner, "", amount, lockDays, autoCompound, purpose)
}

// StakeForAgent opens a new position for owner on behalf of agentID.
func (l *Ledger) StakeForAgent(owner, agentID string, amount *big.Int, lockDays uint32, autoCompound bool, purpose string) (*Position, error) {
	if agentID == "" {
		return nil, reverts.Violation(reverts.RuleInvalidArgument, "agent id is required")
	}
	return l.stake(owner, agentID, amount, lockDays, autoCompound, purpose)
}

func (l *Ledger) stake(owner, agentID string, amount *big.Int, lockDays uint32, autoCompound bool, purpose string) (*Position, error) {
	logger.Debug("staking", "owner", owner, "agent", agentID, "amount", amount, "lockDays", lockDays)

	if owner == "" {
		return nil, reverts.Violation(reverts.RuleInvalidArgument, "owner is required")
	}
	if amount == nil || amount.Cmp(l.cfg.MinStake) < 0 || amount.Cmp(l.cfg.MaxStake) > 0 {
		return nil, reverts.Violation(reverts.RuleAmountOutOfRange, "amount %v outside [%v, %v]", amount, l.cfg.MinStake, l.cfg.MaxStake)
	}
	apy, ok := l.cfg.APY(lockDays)
	if !ok {
		return nil, reverts.Violation(reverts.RuleInvalidLockPeriod, "lock period of %d days is not offered", lockDays)
	}

	unlock := l.locks.Lock(owner)
	defer unlock()

	now := l.clock.Now()
	start := clock.Unix(now)
	p := &Position{
		ID:             uuid.New(),
		Owner:          owner,
		AgentID:        agentID,
		Purpose:        purpose,
		Amount:         numeric.Copy(amount),
		LockDays:       lockDays,
		LockStart:      start,
		UnlockAt:       clock.Unix(now.Add(clock.Days(lockDays))),
		RewardRate:     apy.String(),
		AutoCompound:   autoCompound,
		Status:         StatusActive,
		PendingRewards: new(big.Int),
		ClaimedRewards: new(big.Int),
		SegmentStart:   start,
		SegmentAccrued: new(big.Int),
		PendingRelease: new(big.Int),
		Withdrawn:      new(big.Int),
		CreatedAt:      start,
	}

	if err := l.positions.Insert(p.ID, p); err != nil {
		return nil, err
	}
	if err := l.byOwner.Add(owner, p.ID); err != nil {
		return nil, err
	}
	if err := l.stats.Update(func(s *Stats) {
		s.TotalStaked.Add(s.TotalStaked, amount)
		s.Positions++
	}); err != nil {
		return nil, err
	}

	l.emit(events.StakeCreated, p, map[string]string{
		"stakeId":      p.ID,
		"amount":       amount.String(),
		"lockDays":     strconv.FormatUint(uint64(lockDays), 10),
		"apy":          p.RewardRate,
		"autoCompound": strconv.FormatBool(autoCompound),
		"purpose":      purpose,
	})
	logger.Info("staked", "owner", owner, "stakeId", p.ID)
	return p, nil
}

// Unstake withdraws amount from a position, or all of it when amount is nil. Leaving
// before the unlock date costs a penalty shrinking linearly with the remaining lock time.
// The net amount becomes withdrawable after the cooldown.
func (l *Ledger) Unstake(stakeID, owner string, amount *big.Int) (*UnstakeResult, error) {
	logger.Debug("unstaking", "stakeId", stakeID, "owner", owner, "amount", amount)

	unlock := l.locks.Lock(owner)
	defer unlock()

	p, err := l.load(stakeID)
	if err != nil {
		return nil, err
	}
	if p.Owner != owner {
		return nil, reverts.Violation(reverts.RuleNotOwner, "stake %s is not owned by %s", stakeID, owner)
	}
	now := l.clock.Now()
	resolveUnlock(p, now)
	if p.Status != StatusActive {
		return nil, reverts.Violation(reverts.RuleInvalidStatus, "stake %s is %s", stakeID, p.Status)
	}

	gross := amount
	if gross == nil {
		gross = numeric.Copy(p.Amount)
	}
	if gross.Sign() <= 0 {
		return nil, reverts.Violation(reverts.RuleAmountOutOfRange, "unstake amount must be positive")
	}
	if gross.Cmp(p.Amount) > 0 {
		return nil, reverts.Violation(reverts.RuleInsufficientBalance, "unstake amount %v exceeds stake %v", gross, p.Amount)
	}

	if err := accrue(p, now); err != nil {
		return nil, err
	}
	penalty := l.penalty(p, gross, now)
	net := new(big.Int).Sub(gross, penalty)
	cooldownEnds := now.Add(clock.Days(l.cfg.CooldownDays))

	p.Amount = new(big.Int).Sub(p.Amount, gross)
	p.PendingRelease = new(big.Int).Add(p.PendingRelease, net)
	p.CooldownEndsAt = clock.Unix(cooldownEnds)
	startSegment(p, now)
	closed := p.Amount.Sign() == 0
	if closed {
		p.Status = StatusUnlocking
		resolveUnlock(p, now)
	}

	if err := l.positions.Update(p.ID, p); err != nil {
		return nil, err
	}
	if err := l.stats.Update(func(s *Stats) {
		s.TotalStaked.Sub(s.TotalStaked, gross)
		s.Penalties.Add(s.Penalties, penalty)
	}); err != nil {
		return nil, err
	}

	l.emit(events.StakeUnstaked, p, map[string]string{
		"stakeId": p.ID,
		"gross":   gross.String(),
		"penalty": penalty.String(),
		"net":     net.String(),
		"closed":  strconv.FormatBool(closed),
	})
	logger.Info("unstaked", "stakeId", p.ID, "net", net, "penalty", penalty)

	return &UnstakeResult{
		StakeID:        p.ID,
		Gross:          gross,
		Penalty:        penalty,
		Net:            net,
		CooldownEndsAt: clock.FromUnix(p.CooldownEndsAt),
		Closed:         closed,
	}, nil
}

// penalty returns gross * (base + scale * remaining/total) while locked, zero afterwards.
func (l *Ledger) penalty(p *Position, gross *big.Int, now time.Time) *big.Int {
	ts := clock.Unix(now)
	if ts >= p.UnlockAt {
		return new(big.Int)
	}
	remaining := new(big.Int).SetUint64(p.UnlockAt - ts)
	total := new(big.Int).SetUint64(p.UnlockAt - p.LockStart)
	frac := numeric.Ratio(remaining, total)
	return numeric.MulFrac(gross, l.cfg.PenaltyBase.Add(l.cfg.PenaltyScale.Mul(frac)))
}

// Withdraw releases the funds of a position that finished its cooldown. On a slashed
// position it releases the residual once the slash is settled.
func (l *Ledger) Withdraw(stakeID, owner string) (*WithdrawResult, error) {
	logger.Debug("withdrawing", "stakeId", stakeID, "owner", owner)

	unlock := l.locks.Lock(owner)
	defer unlock()

	p, err := l.load(stakeID)
	if err != nil {
		return nil, err
	}
	if p.Owner != owner {
		return nil, reverts.Violation(reverts.RuleNotOwner, "stake %s is not owned by %s", stakeID, owner)
	}
	now := l.clock.Now()
	resolveUnlock(p, now)

	before := p.Status
	released := new(big.Int)
	switch p.Status {
	case StatusActive, StatusUnlocked:
		if p.PendingRelease.Sign() > 0 && clock.Unix(now) >= p.CooldownEndsAt {
			released.Set(p.PendingRelease)
			p.PendingRelease = new(big.Int)
		}
		if p.Status == StatusUnlocked {
			p.Status = StatusWithdrawn
		}
	case StatusSlashed:
		slash, err := l.loadSlash(p.SlashID)
		if err != nil {
			return nil, err
		}
		if !slash.Settled(now) {
			return nil, reverts.Violation(reverts.RuleTimelock, "slash %s is not settled", slash.ID)
		}
		if clock.Unix(now) >= p.CooldownEndsAt {
			released.Add(p.Amount, p.PendingRelease)
			p.Amount = new(big.Int)
			p.PendingRelease = new(big.Int)
		}
	}

	if released.Sign() == 0 && p.Status == before {
		return &WithdrawResult{StakeID: p.ID, Amount: released, Status: p.Status}, nil
	}
	p.Withdrawn = new(big.Int).Add(p.Withdrawn, released)

	if err := l.positions.Update(p.ID, p); err != nil {
		return nil, err
	}
	if err := l.stats.Update(func(s *Stats) {
		s.Withdrawn.Add(s.Withdrawn, released)
	}); err != nil {
		return nil, err
	}

	l.emit(events.StakeWithdrawn, p, map[string]string{
		"stakeId": p.ID,
		"amount":  released.String(),
		"status":  p.Status.String(),
	})
	logger.Info("withdrew", "stakeId", p.ID, "amount", released)
	return &WithdrawResult{Success: true, StakeID: p.ID, Amount: released, Status: p.Status}, nil
}

// ResolveUnlocks moves every unlocking position past its cooldown to unlocked.
func (l *Ledger) ResolveUnlocks() (int, error) {
	return l.sweep(func(p *Position, now time.Time) (bool, error) {
		if !resolveUnlock(p, now) {
			return false, nil
		}
		l.emit(events.StakeUnlocked, p, map[string]string{"stakeId": p.ID})
		return true, nil
	})
}

// sweep applies fn to every position under its owner lock and persists the changed ones.
func (l *Ledger) sweep(fn func(p *Position, now time.Time) (bool, error)) (int, error) {
	type entry struct{ id, owner string }
	var entries []entry
	if err := l.positions.Iterate(func(id string, p *Position) error {
		if !p.Status.IsTerminal() {
			entries = append(entries, entry{id, p.Owner})
		}
		return nil
	}); err != nil {
		return 0, err
	}

	changed := 0
	for _, e := range entries {
		ok, err := func() (bool, error) {
			unlock := l.locks.Lock(e.owner)
			defer unlock()

			p, err := l.load(e.id)
			if err != nil {
				return false, err
			}
			ok, err := fn(p, l.clock.Now())
			if err != nil || !ok {
				return false, err
			}
			return true, l.positions.Update(p.ID, p)
		}()
		if err != nil {
			return changed, err
		}
		if ok {
			changed++
		}
	}
	return changed, nil
}

// resolveUnlock applies the unlocking -> unlocked transition once the cooldown is over.
func resolveUnlock(p *Position, now time.Time) bool {
	if p.Status == StatusUnlocking && clock.Unix(now) >= p.CooldownEndsAt {
		p.Status = StatusUnlocked
		return true
	}
	return false
}
