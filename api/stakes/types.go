// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"math/big"
	"time"

	"github.com/vechain/govcore/clock"
	"github.com/vechain/govcore/staking"
)

type Position struct {
	ID             string     `json:"id"`
	Owner          string     `json:"owner"`
	AgentID        string     `json:"agentId,omitempty"`
	Purpose        string     `json:"purpose,omitempty"`
	Amount         *big.Int   `json:"amount"`
	LockDays       uint32     `json:"lockDays"`
	LockStart      time.Time  `json:"lockStart"`
	UnlockAt       time.Time  `json:"unlockAt"`
	RewardRate     string     `json:"rewardRate"`
	AutoCompound   bool       `json:"autoCompound"`
	Status         string     `json:"status"`
	PendingRewards *big.Int   `json:"pendingRewards"`
	ClaimedRewards *big.Int   `json:"claimedRewards"`
	PendingRelease *big.Int   `json:"pendingRelease"`
	CooldownEndsAt *time.Time `json:"cooldownEndsAt,omitempty"`
	Withdrawn      *big.Int   `json:"withdrawn"`
	SlashID        string     `json:"slashId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type Owner struct {
	Owner       string      `json:"owner"`
	TotalStaked *big.Int    `json:"totalStaked"`
	Tier        string      `json:"tier"`
	Positions   []*Position `json:"positions"`
}

type Slash struct {
	ID             string    `json:"id"`
	StakeID        string    `json:"stakeId"`
	TargetType     string    `json:"targetType"`
	Owner          string    `json:"owner"`
	Condition      string    `json:"condition"`
	Amount         *big.Int  `json:"amount"`
	Slashed        *big.Int  `json:"slashed"`
	Forfeited      *big.Int  `json:"forfeited"`
	Evidence       []string  `json:"evidence"`
	ExecutedAt     time.Time `json:"executedAt"`
	ExecutedBy     string    `json:"executedBy"`
	AppealDeadline time.Time `json:"appealDeadline"`
	Status         string    `json:"status"`
	AppealReason   string    `json:"appealReason,omitempty"`
}

type Stats struct {
	TotalStaked    *big.Int `json:"totalStaked"`
	RewardsAccrued *big.Int `json:"rewardsAccrued"`
	RewardsPaid    *big.Int `json:"rewardsPaid"`
	Penalties      *big.Int `json:"penalties"`
	Slashed        *big.Int `json:"slashed"`
	Withdrawn      *big.Int `json:"withdrawn"`
	Positions      uint64   `json:"positions"`
}

func convertPosition(p *staking.Position) *Position {
	pos := &Position{
		ID:             p.ID,
		Owner:          p.Owner,
		AgentID:        p.AgentID,
		Purpose:        p.Purpose,
		Amount:         p.Amount,
		LockDays:       p.LockDays,
		LockStart:      clock.FromUnix(p.LockStart),
		UnlockAt:       clock.FromUnix(p.UnlockAt),
		RewardRate:     p.RewardRate,
		AutoCompound:   p.AutoCompound,
		Status:         p.Status.String(),
		PendingRewards: p.PendingRewards,
		ClaimedRewards: p.ClaimedRewards,
		PendingRelease: p.PendingRelease,
		Withdrawn:      p.Withdrawn,
		SlashID:        p.SlashID,
		CreatedAt:      clock.FromUnix(p.CreatedAt),
	}
	if p.CooldownEndsAt != 0 {
		t := clock.FromUnix(p.CooldownEndsAt)
		pos.CooldownEndsAt = &t
	}
	return pos
}

func convertSlash(s *staking.SlashEvent) *Slash {
	return &Slash{
		ID:             s.ID,
		StakeID:        s.TargetID,
		TargetType:     s.TargetType.String(),
		Owner:          s.Owner,
		Condition:      string(s.Condition),
		Amount:         s.Amount,
		Slashed:        s.Slashed,
		Forfeited:      s.Forfeited,
		Evidence:       s.Evidence,
		ExecutedAt:     clock.FromUnix(s.ExecutedAt),
		ExecutedBy:     s.ExecutedBy,
		AppealDeadline: clock.FromUnix(s.AppealDeadline),
		Status:         s.Status.String(),
		AppealReason:   s.AppealReason,
	}
}
