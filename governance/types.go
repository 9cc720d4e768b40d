// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package governance

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vechain/govcore/clock"
)

type Status uint8

const (
	StatusActive Status = iota + 1
	StatusPassed
	StatusFailed
	StatusQueued
	StatusExecuted
	StatusExpired
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusQueued:
		return "queued"
	case StatusExecuted:
		return "executed"
	case StatusExpired:
		return "expired"
	case StatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

type Support uint8

const (
	SupportFor Support = iota + 1
	SupportAgainst
	SupportAbstain
)

func (s Support) String() string {
	switch s {
	case SupportFor:
		return "for"
	case SupportAgainst:
		return "against"
	case SupportAbstain:
		return "abstain"
	}
	return "unknown"
}

func (s Support) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ParseSupport parses "for", "against" or "abstain".
func ParseSupport(s string) (Support, bool) {
	switch s {
	case "for":
		return SupportFor, true
	case "against":
		return SupportAgainst, true
	case "abstain":
		return SupportAbstain, true
	}
	return 0, false
}

// Action is an opaque instruction executed by the handler registered for Target.
type Action struct {
	Target    string `json:"target"`
	Operation string `json:"operation"`
	Data      string `json:"data,omitempty"`
}

// ActionResult records the outcome of one action.
type ActionResult struct {
	Index   uint64 `json:"index"`
	Target  string `json:"target"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Proposal is the persisted state of a governance proposal. Tallies only grow
// while the proposal is active.
type Proposal struct {
	ID          string   `json:"id"`
	Proposer    string   `json:"proposer"`
	Type        string   `json:"type"`
	Category    string   `json:"category,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      Status   `json:"status"`
	Actions     []Action `json:"actions"`

	QuorumPct    string `json:"quorumPct"`
	ThresholdPct string `json:"thresholdPct"`
	DelayDays    uint32 `json:"delayDays"`

	VotingStartsAt    uint64 `json:"votingStartsAt"`
	VotingEndsAt      uint64 `json:"votingEndsAt"`
	ExecutableAt      uint64 `json:"executableAt"`
	ExecutionDeadline uint64 `json:"executionDeadline"`

	ForVotes     *big.Int `json:"forVotes"`
	AgainstVotes *big.Int `json:"againstVotes"`
	AbstainVotes *big.Int `json:"abstainVotes"`
	TotalVotes   *big.Int `json:"totalVotes"`
	VoterCount   uint64   `json:"voterCount"`

	// set once on resolution
	TotalPower       *big.Int `json:"totalPower"`
	ParticipationBps uint64   `json:"participationBps"`
	ForBps           uint64   `json:"forBps"`
	QuorumReached    bool     `json:"quorumReached"`
	Passed           bool     `json:"passed"`
	ResolvedAt       uint64   `json:"resolvedAt,omitempty"`

	Results     []ActionResult `json:"results,omitempty"`
	CreatedAt   uint64         `json:"createdAt"`
	CancelledAt uint64         `json:"cancelledAt,omitempty"`
	QueuedAt    uint64         `json:"queuedAt,omitempty"`
	ExecutedAt  uint64         `json:"executedAt,omitempty"`
	ExecutedBy  string         `json:"executedBy,omitempty"`
	ExpiredAt   uint64         `json:"expiredAt,omitempty"`
}

func (p *Proposal) Quorum() decimal.Decimal    { return decimal.RequireFromString(p.QuorumPct) }
func (p *Proposal) Threshold() decimal.Decimal { return decimal.RequireFromString(p.ThresholdPct) }

// VotingEnds returns the end of the voting period.
func (p *Proposal) VotingEnds() time.Time { return clock.FromUnix(p.VotingEndsAt) }

// Vote is a single ballot. Power is frozen at cast time.
type Vote struct {
	ID         string   `json:"id"`
	ProposalID string   `json:"proposalId"`
	Voter      string   `json:"voter"`
	Support    Support  `json:"support"`
	Power      *big.Int `json:"power"`
	Reason     string   `json:"reason,omitempty"`
	CastAt     uint64   `json:"castAt"`
}

// CreateRequest describes a new proposal.
type CreateRequest struct {
	Proposer    string
	Type        string
	Category    string
	Title       string
	Description string
	Actions     []Action
	// VotingPeriodDays overrides the configured voting period when non-zero.
	VotingPeriodDays uint32
}

// ExecutionReport summarises an execution.
type ExecutionReport struct {
	ProposalID string         `json:"proposalId"`
	Results    []ActionResult `json:"results"`
	Succeeded  int            `json:"succeeded"`
	Failed     int            `json:"failed"`
}
