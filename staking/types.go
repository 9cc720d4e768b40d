// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vechain/govcore/clock"
)

type Status uint8

const (
	StatusActive Status = iota + 1
	StatusUnlocking
	StatusUnlocked
	StatusSlashed
	StatusWithdrawn
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusUnlocking:
		return "unlocking"
	case StatusUnlocked:
		return "unlocked"
	case StatusSlashed:
		return "slashed"
	case StatusWithdrawn:
		return "withdrawn"
	}
	return "unknown"
}

// IsTerminal reports whether no further transition can leave the status.
func (s Status) IsTerminal() bool {
	return s == StatusSlashed || s == StatusWithdrawn
}

// Position is a single stake. Timestamps are unix seconds, 0 when unset.
type Position struct {
	ID           string
	Owner        string
	AgentID      string
	Purpose      string
	Amount       *big.Int
	LockDays     uint32
	LockStart    uint64
	UnlockAt     uint64
	RewardRate   string // APY of the lock tier, decimal text
	AutoCompound bool
	Status       Status

	PendingRewards *big.Int
	ClaimedRewards *big.Int

	// rewards are accrued as simple interest over segments of constant principal
	SegmentStart   uint64
	SegmentAccrued *big.Int

	PendingRelease *big.Int // unstaked funds waiting for the cooldown
	CooldownEndsAt uint64
	Withdrawn      *big.Int

	SlashID   string
	CreatedAt uint64
}

// Rate returns the parsed reward rate.
func (p *Position) Rate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(p.RewardRate)
	return rate, errors.Wrapf(err, "position %s rate", p.ID)
}

// Locked reports whether the lock period is still running at now.
func (p *Position) Locked(now time.Time) bool {
	return clock.Unix(now) < p.UnlockAt
}

// VotingEligible reports whether the position counts towards voting power.
func (p *Position) VotingEligible() bool {
	return p.Status == StatusActive && p.Amount.Sign() > 0
}

// UnlockTime returns the end of the lock period.
func (p *Position) UnlockTime() time.Time { return clock.FromUnix(p.UnlockAt) }

type TargetType uint8

const (
	TargetUser TargetType = iota + 1
	TargetAgent
)

func (t TargetType) String() string {
	switch t {
	case TargetUser:
		return "user"
	case TargetAgent:
		return "agent"
	}
	return "unknown"
}

// ParseTargetType parses "user" or "agent".
func ParseTargetType(s string) (TargetType, bool) {
	switch s {
	case "user":
		return TargetUser, true
	case "agent":
		return TargetAgent, true
	}
	return 0, false
}

type Condition string

const (
	MaliciousStrategy Condition = "malicious_strategy"
	FalseReporting    Condition = "false_reporting"
	ProtocolViolation Condition = "protocol_violation"
	Inactivity        Condition = "inactivity"
	Manipulation      Condition = "manipulation"
	Fraud             Condition = "fraud"
)

func (c Condition) Valid() bool {
	switch c {
	case MaliciousStrategy, FalseReporting, ProtocolViolation, Inactivity, Manipulation, Fraud:
		return true
	}
	return false
}

type SlashStatus uint8

const (
	SlashExecuted SlashStatus = iota + 1
	SlashAppealed
	SlashReversed
	SlashConfirmed
)

func (s SlashStatus) String() string {
	switch s {
	case SlashExecuted:
		return "executed"
	case SlashAppealed:
		return "appealed"
	case SlashReversed:
		return "reversed"
	case SlashConfirmed:
		return "confirmed"
	}
	return "unknown"
}

// SlashEvent records a punitive reduction of a position.
type SlashEvent struct {
	ID             string
	TargetID       string // stake position id
	TargetType     TargetType
	Owner          string
	Condition      Condition
	Amount         *big.Int // requested
	Slashed        *big.Int // applied, bounded by the position amount
	Forfeited      *big.Int // pending rewards dropped with the slash
	Evidence       []string
	ExecutedAt     uint64
	ExecutedBy     string
	Appealable     bool
	AppealDeadline uint64
	Status         SlashStatus
	Appellant      string
	AppealReason   string
	ResolvedAt     uint64
	ResolvedBy     string
}

// Settled reports whether the slash can no longer change at now.
func (s *SlashEvent) Settled(now time.Time) bool {
	switch s.Status {
	case SlashReversed, SlashConfirmed:
		return true
	case SlashExecuted:
		return clock.Unix(now) > s.AppealDeadline
	}
	return false
}

// UnstakeResult reports the outcome of an unstake.
type UnstakeResult struct {
	StakeID        string
	Gross          *big.Int
	Penalty        *big.Int
	Net            *big.Int
	CooldownEndsAt time.Time
	Closed         bool
}

// WithdrawResult reports released funds. Success is false when nothing was releasable.
type WithdrawResult struct {
	Success bool
	StakeID string
	Amount  *big.Int
	Status  Status
}

// ClaimResult reports a claim or compound across the positions of an owner.
type ClaimResult struct {
	Success   bool
	Amount    *big.Int
	Positions []string
}

// RewardEstimate is the projection computed by CalculateRewards.
type RewardEstimate struct {
	Principal      *big.Int
	LockDays       uint32
	DaysStaked     uint32
	APY            decimal.Decimal
	DailyRate      decimal.Decimal
	SimpleReward   *big.Int
	CompoundReward *big.Int
	CompoundBonus  *big.Int
	TotalReward    *big.Int
	EffectiveAPY   decimal.Decimal
	AutoCompound   bool
}

// Stats are ledger wide totals.
type Stats struct {
	TotalStaked    *big.Int
	RewardsAccrued *big.Int
	RewardsPaid    *big.Int
	Penalties      *big.Int
	Slashed        *big.Int
	Withdrawn      *big.Int
	Positions      uint64
}
