// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vesting

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vechain/govcore/clock"
	"github.com/vechain/govcore/numeric"
)

type Status uint8

const (
	StatusVesting Status = iota + 1
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusVesting:
		return "vesting"
	case StatusCompleted:
		return "completed"
	}
	return "unknown"
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Schedule is a cliff plus linear vesting grant.
// Claimed <= Vested <= Total holds at all times and Vested never decreases.
type Schedule struct {
	ID                string   `json:"id"`
	Owner             string   `json:"owner"`
	Total             *big.Int `json:"total"`
	Immediate         *big.Int `json:"immediate"`
	Vested            *big.Int `json:"vested"`
	Claimed           *big.Int `json:"claimed"`
	ImmediateFraction string   `json:"immediateFraction"`
	StartAt           uint64   `json:"startAt"`
	CliffEndAt        uint64   `json:"cliffEndAt"`
	EndAt             uint64   `json:"endAt"`
	Status            Status   `json:"status"`
	CreatedAt         uint64   `json:"createdAt"`
	CompletedAt       uint64   `json:"completedAt,omitempty"`
}

// vestedAt returns the amount vested at now.
func (s *Schedule) vestedAt(now time.Time) *big.Int {
	ts := clock.Unix(now)
	var v *big.Int
	switch {
	case ts >= s.EndAt:
		v = numeric.Copy(s.Total)
	case ts < s.CliffEndAt:
		v = numeric.Copy(s.Immediate)
	default:
		linear := new(big.Int).Sub(s.Total, s.Immediate)
		num := numeric.Dec(linear).Mul(decimal.NewFromInt(int64(ts - s.CliffEndAt)))
		v = numeric.DivTrunc(num, decimal.NewFromInt(int64(s.EndAt-s.CliffEndAt)))
		v.Add(v, s.Immediate)
	}
	if v.Cmp(s.Vested) < 0 {
		return numeric.Copy(s.Vested)
	}
	return v
}

// update brings Vested up to now and reports whether the schedule changed and
// whether it just completed.
func (s *Schedule) update(now time.Time) (changed, completed bool) {
	if s.Status == StatusCompleted {
		return false, false
	}
	v := s.vestedAt(now)
	if v.Cmp(s.Vested) != 0 {
		s.Vested = v
		changed = true
	}
	if clock.Unix(now) >= s.EndAt {
		s.Status = StatusCompleted
		s.CompletedAt = clock.Unix(now)
		return true, true
	}
	return changed, false
}

// Claimable returns the vested but unclaimed amount.
func (s *Schedule) Claimable() *big.Int {
	return new(big.Int).Sub(s.Vested, s.Claimed)
}

// Options tune a new schedule. Nil fields fall back to the configured defaults and a
// zero Start means now.
type Options struct {
	Start             time.Time
	CliffDays         *uint32
	DurationDays      *uint32
	ImmediateFraction *decimal.Decimal
}

// Allocation is the part of a claim taken from one schedule.
type Allocation struct {
	ScheduleID string   `json:"scheduleId"`
	Amount     *big.Int `json:"amount"`
}

// ClaimResult reports a claim. Success is false when nothing was claimable.
type ClaimResult struct {
	Success     bool         `json:"success"`
	Amount      *big.Int     `json:"amount"`
	Allocations []Allocation `json:"allocations,omitempty"`
}
