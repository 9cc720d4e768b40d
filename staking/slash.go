// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pborman/uuid"

	"github.com/vechain/govcore/clock"
	"github.com/vechain/govcore/events"
	"github.com/vechain/govcore/reverts"
)

// Slash returns a slash event.
func (l *Ledger) Slash(id string) (*SlashEvent, error) {
	s, err := l.loadSlash(id)
	if err != nil {
		return nil, err
	}
	if s.Status == SlashExecuted && s.Settled(l.clock.Now()) {
		s.Status = SlashConfirmed
	}
	return s, nil
}

func (l *Ledger) loadSlash(id string) (*SlashEvent, error) {
	s, found, err := l.slashes.Get(id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, reverts.NotFound("slash", id)
	}
	return s, nil
}

// ExecuteSlash reduces the position targetID by amount and marks it slashed. Pending
// rewards of the position are forfeited. It fails hard while slashing is disabled.
func (l *Ledger) ExecuteSlash(
	targetID string,
	targetType TargetType,
	cond Condition,
	amount *big.Int,
	evidence []string,
	executedBy string,
) (*SlashEvent, error) {
	logger.Debug("executing slash", "target", targetID, "type", targetType, "condition", cond, "amount", amount)

	if !l.slashing.Enabled {
		logger.Error("slash rejected, slashing is disabled", "target", targetID)
		return nil, reverts.ErrSlashingDisabled
	}
	if !cond.Valid() {
		return nil, reverts.Violation(reverts.RuleInvalidArgument, "unknown slash condition %q", cond)
	}
	if targetType != TargetUser && targetType != TargetAgent {
		return nil, reverts.Violation(reverts.RuleInvalidArgument, "unknown target type %d", targetType)
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, reverts.Violation(reverts.RuleAmountOutOfRange, "slash amount must be positive")
	}

	p, err := l.load(targetID)
	if err != nil {
		return nil, err
	}
	unlock := l.locks.Lock(p.Owner)
	defer unlock()

	// reload under the owner lock
	if p, err = l.load(targetID); err != nil {
		return nil, err
	}
	if targetType == TargetAgent && p.AgentID == "" {
		return nil, reverts.Violation(reverts.RuleInvalidArgument, "stake %s is not held for an agent", targetID)
	}
	now := l.clock.Now()
	if p.Status != StatusActive || p.Amount.Sign() == 0 {
		return nil, reverts.Violation(reverts.RuleInvalidStatus, "stake %s is %s", targetID, p.Status)
	}

	slashed := new(big.Int).Set(math.BigMin(amount, p.Amount))
	if err := accrue(p, now); err != nil {
		return nil, err
	}
	forfeited := p.PendingRewards

	s := &SlashEvent{
		ID:             uuid.New(),
		TargetID:       targetID,
		TargetType:     targetType,
		Owner:          p.Owner,
		Condition:      cond,
		Amount:         new(big.Int).Set(amount),
		Slashed:        slashed,
		Forfeited:      forfeited,
		Evidence:       evidence,
		ExecutedAt:     clock.Unix(now),
		ExecutedBy:     executedBy,
		Appealable:     true,
		AppealDeadline: clock.Unix(now.Add(clock.Days(l.slashing.AppealDays))),
		Status:         SlashExecuted,
	}

	p.Amount = new(big.Int).Sub(p.Amount, slashed)
	p.PendingRewards = new(big.Int)
	p.Status = StatusSlashed
	p.SlashID = s.ID
	startSegment(p, now)

	if err := l.slashes.Insert(s.ID, s); err != nil {
		return nil, err
	}
	if err := l.positions.Update(p.ID, p); err != nil {
		return nil, err
	}
	if err := l.stats.Update(func(st *Stats) {
		// the residual stays locked until withdrawn, but leaves the staked total
		st.TotalStaked.Sub(st.TotalStaked, slashed)
		st.TotalStaked.Sub(st.TotalStaked, p.Amount)
		st.Slashed.Add(st.Slashed, slashed)
	}); err != nil {
		return nil, err
	}

	l.emit(events.StakeSlashed, p, map[string]string{
		"slashId":    s.ID,
		"stakeId":    p.ID,
		"targetType": targetType.String(),
		"condition":  string(cond),
		"amount":     slashed.String(),
		"forfeited":  forfeited.String(),
		"evidence":   strings.Join(evidence, ","),
		"executedBy": executedBy,
	})
	logger.Info("slashed", "slashId", s.ID, "stakeId", p.ID, "amount", slashed)
	return s, nil
}

// AppealSlash contests a slash before its appeal deadline. Only the position owner may appeal.
func (l *Ledger) AppealSlash(slashID, appellant, reason string) (*SlashEvent, error) {
	logger.Debug("appealing slash", "slashId", slashID, "appellant", appellant)

	s, err := l.loadSlash(slashID)
	if err != nil {
		return nil, err
	}
	unlock := l.locks.Lock(s.Owner)
	defer unlock()

	if s, err = l.loadSlash(slashID); err != nil {
		return nil, err
	}
	if s.Owner != appellant {
		return nil, reverts.Violation(reverts.RuleUnauthorized, "only %s may appeal slash %s", s.Owner, slashID)
	}
	now := l.clock.Now()
	if s.Status != SlashExecuted || !s.Appealable {
		return nil, reverts.Violation(reverts.RuleInvalidStatus, "slash %s is %s", slashID, s.Status)
	}
	if clock.Unix(now) > s.AppealDeadline {
		return nil, reverts.Violation(reverts.RuleDeadlinePassed, "appeal window of slash %s closed at %v", slashID, clock.FromUnix(s.AppealDeadline))
	}

	s.Status = SlashAppealed
	s.Appellant = appellant
	s.AppealReason = reason
	if err := l.slashes.Update(s.ID, s); err != nil {
		return nil, err
	}

	l.events.Publish(events.New(now, events.SlashAppealed, events.CategoryStaking, s.Owner, map[string]string{
		"slashId": s.ID,
		"reason":  reason,
	}))
	logger.Info("slash appealed", "slashId", s.ID)
	return s, nil
}

// ResolveAppeal settles an appealed slash. A reversal returns the slashed amount to the
// owner as withdrawable funds; the position itself stays slashed.
func (l *Ledger) ResolveAppeal(slashID string, reverse bool, resolver string) (*SlashEvent, error) {
	logger.Debug("resolving appeal", "slashId", slashID, "reverse", reverse, "resolver", resolver)

	s, err := l.loadSlash(slashID)
	if err != nil {
		return nil, err
	}
	unlock := l.locks.Lock(s.Owner)
	defer unlock()

	if s, err = l.loadSlash(slashID); err != nil {
		return nil, err
	}
	if s.Status != SlashAppealed {
		return nil, reverts.Violation(reverts.RuleInvalidStatus, "slash %s is %s", slashID, s.Status)
	}
	now := l.clock.Now()
	s.ResolvedAt = clock.Unix(now)
	s.ResolvedBy = resolver

	typ := events.SlashConfirmed
	if reverse {
		typ = events.SlashReversed
		s.Status = SlashReversed

		p, err := l.load(s.TargetID)
		if err != nil {
			return nil, err
		}
		p.PendingRelease = new(big.Int).Add(p.PendingRelease, s.Slashed)
		if err := l.positions.Update(p.ID, p); err != nil {
			return nil, err
		}
		if err := l.stats.Update(func(st *Stats) {
			st.Slashed.Sub(st.Slashed, s.Slashed)
		}); err != nil {
			return nil, err
		}
	} else {
		s.Status = SlashConfirmed
	}
	if err := l.slashes.Update(s.ID, s); err != nil {
		return nil, err
	}

	l.events.Publish(events.New(now, typ, events.CategoryStaking, s.Owner, map[string]string{
		"slashId":  s.ID,
		"resolver": resolver,
	}))
	logger.Info("appeal resolved", "slashId", s.ID, "status", s.Status)
	return s, nil
}

// ResolveSlashes confirms every executed slash whose appeal window has closed.
func (l *Ledger) ResolveSlashes() (int, error) {
	var due []*SlashEvent
	now := l.clock.Now()
	if err := l.slashes.Iterate(func(_ string, s *SlashEvent) error {
		if s.Status == SlashExecuted && s.Settled(now) {
			due = append(due, s)
		}
		return nil
	}); err != nil {
		return 0, err
	}

	confirmed := 0
	for _, d := range due {
		ok, err := l.confirm(d.ID, d.Owner, now)
		if err != nil {
			return confirmed, err
		}
		if ok {
			confirmed++
		}
	}
	return confirmed, nil
}

func (l *Ledger) confirm(id, owner string, now time.Time) (bool, error) {
	unlock := l.locks.Lock(owner)
	defer unlock()

	s, err := l.loadSlash(id)
	if err != nil {
		return false, err
	}
	if s.Status != SlashExecuted || !s.Settled(now) {
		return false, nil
	}
	s.Status = SlashConfirmed
	s.ResolvedAt = clock.Unix(now)
	if err := l.slashes.Update(s.ID, s); err != nil {
		return false, err
	}
	l.events.Publish(events.New(now, events.SlashConfirmed, events.CategoryStaking, s.Owner, map[string]string{
		"slashId": s.ID,
	}))
	return true, nil
}
