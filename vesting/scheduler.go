// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vesting

import (
	"math/big"
	"strconv"

	"github.com/pborman/uuid"
	"github.com/shopspring/decimal"

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
	logger = log.WithContext("pkg", "vesting")

	metricClaimed = metrics.LazyLoadCounter("vesting_claimed_total")
	metricRunning = metrics.LazyLoadGauge("vesting_running_schedules")
)

// Scheduler owns vesting schedules. Mutations are serialised per owner.
type Scheduler struct {
	cfg    config.Vesting
	clock  clock.Clock
	events events.Publisher

	schedules *storage.Mapping[*Schedule]
	byOwner   *storage.Index
	locks     storage.Locker
}

func New(store kv.Store, cfg *config.Config, clk clock.Clock, pub events.Publisher) *Scheduler {
	if pub == nil {
		pub = events.Discard
	}
	return &Scheduler{
		cfg:       cfg.Vesting,
		clock:     clk,
		events:    pub,
		schedules: storage.NewMapping[*Schedule](store, "vesting/schedule", 1024),
		byOwner:   storage.NewIndex(store, "vesting/owner"),
	}
}

// Create grants total to owner. The immediate fraction vests at creation.
func (s *Scheduler) Create(owner string, total *big.Int, opts Options) (*Schedule, error) {
	logger.Debug("creating vesting schedule", "owner", owner, "total", total)

	cliff, duration, fraction := s.cfg.CliffDays, s.cfg.DurationDays, s.cfg.ImmediateFraction
	if opts.CliffDays != nil {
		cliff = *opts.CliffDays
	}
	if opts.DurationDays != nil {
		duration = *opts.DurationDays
	}
	if opts.ImmediateFraction != nil {
		fraction = *opts.ImmediateFraction
	}

	switch {
	case owner == "":
		return nil, reverts.Violation(reverts.RuleInvalidArgument, "owner is required")
	case total == nil || total.Sign() <= 0:
		return nil, reverts.Violation(reverts.RuleAmountOutOfRange, "vesting total must be positive")
	case duration == 0:
		return nil, reverts.Violation(reverts.RuleInvalidArgument, "duration must be positive")
	case cliff > duration:
		return nil, reverts.Violation(reverts.RuleInvalidArgument, "cliff of %d days exceeds duration of %d days", cliff, duration)
	case fraction.Sign() < 0 || fraction.GreaterThan(decimal.NewFromInt(1)):
		return nil, reverts.Violation(reverts.RuleInvalidArgument, "immediate fraction %s outside [0, 1]", fraction)
	}

	now := s.clock.Now()
	start := opts.Start
	if start.IsZero() {
		start = now
	}
	immediate := numeric.MulFrac(total, fraction)
	sched := &Schedule{
		ID:                uuid.New(),
		Owner:             owner,
		Total:             numeric.Copy(total),
		Immediate:         immediate,
		Vested:            numeric.Copy(immediate),
		Claimed:           new(big.Int),
		ImmediateFraction: fraction.String(),
		StartAt:           clock.Unix(start),
		CliffEndAt:        clock.Unix(start.Add(clock.Days(cliff))),
		EndAt:             clock.Unix(start.Add(clock.Days(duration))),
		Status:            StatusVesting,
		CreatedAt:         clock.Unix(now),
	}
	_, completed := sched.update(now)

	unlock := s.locks.Lock(owner)
	defer unlock()

	if err := s.schedules.Insert(sched.ID, sched); err != nil {
		return nil, err
	}
	if err := s.byOwner.Add(owner, sched.ID); err != nil {
		return nil, err
	}

	s.events.Publish(events.New(now, events.VestingCreated, events.CategoryVesting, owner, map[string]string{
		"scheduleId": sched.ID,
		"total":      total.String(),
		"immediate":  immediate.String(),
		"cliffEndAt": strconv.FormatUint(sched.CliffEndAt, 10),
		"endAt":      strconv.FormatUint(sched.EndAt, 10),
	}))
	if completed {
		s.emitCompleted(sched)
	}
	logger.Info("created vesting schedule", "scheduleId", sched.ID, "owner", owner)
	return sched, nil
}

func (s *Scheduler) emitCompleted(sched *Schedule) {
	s.events.Publish(events.New(clock.FromUnix(sched.CompletedAt), events.VestingCompleted, events.CategoryVesting, sched.Owner, map[string]string{
		"scheduleId": sched.ID,
		"total":      sched.Total.String(),
	}))
}

// Schedule returns a schedule with its vested amount brought up to date in the view.
func (s *Scheduler) Schedule(id string) (*Schedule, error) {
	sched, err := s.load(id)
	if err != nil {
		return nil, err
	}
	sched.update(s.clock.Now())
	return sched, nil
}

func (s *Scheduler) load(id string) (*Schedule, error) {
	sched, found, err := s.schedules.Get(id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, reverts.NotFound("vesting schedule", id)
	}
	return sched, nil
}

// SchedulesOf returns the schedules of owner in creation order.
func (s *Scheduler) SchedulesOf(owner string) ([]*Schedule, error) {
	ids, err := s.byOwner.List(owner)
	if err != nil {
		return nil, err
	}
	out := make([]*Schedule, 0, len(ids))
	for _, id := range ids {
		sched, err := s.Schedule(id)
		if err != nil {
			return nil, err
		}
		out = append(out, sched)
	}
	return out, nil
}

// Claimable returns the amount owner could claim now.
func (s *Scheduler) Claimable(owner string) (*big.Int, error) {
	scheds, err := s.SchedulesOf(owner)
	if err != nil {
		return nil, err
	}
	total := new(big.Int)
	for _, sched := range scheds {
		total.Add(total, sched.Claimable())
	}
	return total, nil
}

// Advance persists the vested amount of every running schedule and returns how many
// schedules changed.
func (s *Scheduler) Advance() (int, error) {
	var owners []string
	seen := make(map[string]bool)
	running := 0
	if err := s.schedules.Iterate(func(_ string, sched *Schedule) error {
		if sched.Status != StatusVesting {
			return nil
		}
		running++
		if !seen[sched.Owner] {
			seen[sched.Owner] = true
			owners = append(owners, sched.Owner)
		}
		return nil
	}); err != nil {
		return 0, err
	}
	metricRunning().Set(int64(running))

	n := 0
	for _, owner := range owners {
		unlock := s.locks.Lock(owner)
		_, changed, err := s.advanceOwner(owner)
		unlock()
		if err != nil {
			return n, err
		}
		n += changed
	}
	if n > 0 {
		logger.Debug("advanced vesting schedules", "changed", n)
	}
	return n, nil
}

// advanceOwner persists the schedules of owner. Callers hold the owner lock.
func (s *Scheduler) advanceOwner(owner string) ([]*Schedule, int, error) {
	ids, err := s.byOwner.List(owner)
	if err != nil {
		return nil, 0, err
	}
	now := s.clock.Now()
	scheds := make([]*Schedule, 0, len(ids))
	n := 0
	for _, id := range ids {
		sched, err := s.load(id)
		if err != nil {
			return nil, n, err
		}
		changed, completed := sched.update(now)
		if changed {
			if err := s.schedules.Update(id, sched); err != nil {
				return nil, n, err
			}
			n++
		}
		if completed {
			s.emitCompleted(sched)
			logger.Info("vesting completed", "scheduleId", id, "owner", owner)
		}
		scheds = append(scheds, sched)
	}
	return scheds, n, nil
}

// Claim releases amount, or everything claimable when amount is nil, taking from the
// schedules in creation order.
func (s *Scheduler) Claim(owner string, amount *big.Int) (*ClaimResult, error) {
	logger.Debug("claiming vested tokens", "owner", owner, "amount", amount)

	if amount != nil && amount.Sign() <= 0 {
		return nil, reverts.Violation(reverts.RuleAmountOutOfRange, "claim amount must be positive")
	}

	unlock := s.locks.Lock(owner)
	defer unlock()

	scheds, _, err := s.advanceOwner(owner)
	if err != nil {
		return nil, err
	}
	claimable := new(big.Int)
	for _, sched := range scheds {
		claimable.Add(claimable, sched.Claimable())
	}
	if claimable.Sign() == 0 {
		return &ClaimResult{Amount: new(big.Int)}, nil
	}
	if amount == nil {
		amount = claimable
	}
	if amount.Cmp(claimable) > 0 {
		return nil, reverts.Violation(reverts.RuleInsufficientBalance, "claim of %v exceeds claimable %v", amount, claimable)
	}

	res := &ClaimResult{Success: true, Amount: numeric.Copy(amount)}
	remaining := numeric.Copy(amount)
	for _, sched := range scheds {
		if remaining.Sign() == 0 {
			break
		}
		take := numeric.Clamp(sched.Claimable(), new(big.Int), remaining)
		if take.Sign() == 0 {
			continue
		}
		sched.Claimed.Add(sched.Claimed, take)
		if err := s.schedules.Update(sched.ID, sched); err != nil {
			return nil, err
		}
		remaining.Sub(remaining, take)
		res.Allocations = append(res.Allocations, Allocation{ScheduleID: sched.ID, Amount: take})
	}

	if amount.IsInt64() {
		metricClaimed().Add(amount.Int64())
	}
	s.events.Publish(events.New(s.clock.Now(), events.VestingClaimed, events.CategoryVesting, owner, map[string]string{
		"amount":    amount.String(),
		"schedules": strconv.Itoa(len(res.Allocations)),
	}))
	logger.Info("claimed vested tokens", "owner", owner, "amount", amount)
	return res, nil
}
