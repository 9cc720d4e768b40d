// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"time"

	"github.com/pborman/uuid"
)

// Categories group event types by their owning component.
const (
	CategoryStaking    = "staking"
	CategoryDelegation = "delegation"
	CategoryGovernance = "governance"
	CategoryVesting    = "vesting"
	CategoryReputation = "reputation"
)

// Event types.
const (
	StakeCreated       = "stake_created"
	StakeUnstaked      = "stake_unstaked"
	StakeUnlocked      = "stake_unlocked"
	StakeWithdrawn     = "stake_withdrawn"
	RewardsClaimed     = "rewards_claimed"
	RewardsCompounded  = "rewards_compounded"
	StakeSlashed       = "stake_slashed"
	SlashAppealed      = "slash_appealed"
	SlashReversed      = "slash_reversed"
	SlashConfirmed     = "slash_confirmed"
	DelegationCreated  = "delegation_created"
	DelegationRevoked  = "delegation_revoked"
	ProposalCreated    = "proposal_created"
	VoteCast           = "vote_cast"
	ProposalCancelled  = "proposal_cancelled"
	ProposalResolved   = "proposal_resolved"
	ProposalQueued     = "proposal_queued"
	ProposalExecuted   = "proposal_executed"
	ProposalExpired    = "proposal_expired"
	VestingCreated     = "vesting_created"
	VestingCompleted   = "vesting_completed"
	VestingClaimed     = "vesting_claimed"
	ReputationRecorded = "reputation_recorded"
)

// Event is the structured record emitted by every mutating operation.
type Event struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Type      string            `json:"type"`
	Category  string            `json:"category"`
	OwnerID   string            `json:"ownerId,omitempty"`
	AgentID   string            `json:"agentId,omitempty"`
	Payload   map[string]string `json:"payload,omitempty"`
}

// New creates an event with a fresh id.
func New(now time.Time, typ, category, owner string, payload map[string]string) Event {
	return Event{
		ID:        uuid.New(),
		Timestamp: now,
		Type:      typ,
		Category:  category,
		OwnerID:   owner,
		Payload:   payload,
	}
}

// WithAgent returns a copy of ev attributed to agent.
func (ev Event) WithAgent(agent string) Event {
	ev.AgentID = agent
	return ev
}

// Publisher accepts events for delivery.
type Publisher interface {
	Publish(ev Event)
}

// Discard is a Publisher dropping every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Event) {}
