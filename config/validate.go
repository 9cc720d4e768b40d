// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package config

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// ProposalTypes lists every proposal type the engine understands.
var ProposalTypes = []string{"parameter_change", "treasury_spend", "protocol_upgrade", "emergency", "grant", "text"}

var one = decimal.NewFromInt(1)

func isFraction(v decimal.Decimal) bool {
	return !v.IsNegative() && v.LessThanOrEqual(one)
}

// Validate reports the first inconsistency found in the configuration.
func (c *Config) Validate() error {
	s := c.Staking
	if s.MinStake == nil || s.MaxStake == nil || s.MinStake.Sign() <= 0 {
		return fmt.Errorf("staking: min_stake and max_stake must be positive")
	}
	if s.MinStake.Cmp(s.MaxStake) > 0 {
		return fmt.Errorf("staking: min_stake %v exceeds max_stake %v", s.MinStake, s.MaxStake)
	}
	if len(s.LockTiers) == 0 {
		return fmt.Errorf("staking: no lock tiers")
	}
	seen := make(map[uint32]bool)
	for _, t := range s.LockTiers {
		if seen[t.Days] {
			return fmt.Errorf("staking: duplicate lock tier %d", t.Days)
		}
		seen[t.Days] = true
		if t.APY.IsNegative() {
			return fmt.Errorf("staking: negative apy for lock tier %d", t.Days)
		}
	}
	if !isFraction(s.PenaltyBase) || !isFraction(s.PenaltyScale) || !isFraction(s.PenaltyBase.Add(s.PenaltyScale)) {
		return fmt.Errorf("staking: penalty fractions must stay within [0, 1]")
	}
	for i, t := range s.Tiers {
		if t.MinStake == nil {
			return fmt.Errorf("staking: tier %s has no min_stake", t.Name)
		}
		if i > 0 && t.MinStake.Cmp(s.Tiers[i-1].MinStake) <= 0 {
			return fmt.Errorf("staking: tier thresholds must be ascending at %s", t.Name)
		}
	}

	vp := c.VotingPower
	if vp.MaxLockDays == 0 {
		return fmt.Errorf("voting_power: max_lock_days must be positive")
	}
	if vp.MaxLockMultiplier.LessThan(one) || vp.MaxReputationMultiplier.LessThan(one) {
		return fmt.Errorf("voting_power: multipliers must be at least 1")
	}

	g := c.Governance
	if g.ProposalThreshold == nil || g.ProposalThreshold.Sign() < 0 {
		return fmt.Errorf("governance: proposal_threshold must be non-negative")
	}
	if g.MaxActions < 0 {
		return fmt.Errorf("governance: max_actions must be non-negative")
	}
	if g.VotingPeriodDays == 0 {
		return fmt.Errorf("governance: voting_period_days must be positive")
	}
	hundred := decimal.NewFromInt(100)
	for _, t := range g.Types {
		if !slices.Contains(ProposalTypes, t.Type) {
			return fmt.Errorf("governance: unknown proposal type %q", t.Type)
		}
		if t.QuorumPct.IsNegative() || t.QuorumPct.GreaterThan(hundred) ||
			t.ThresholdPct.IsNegative() || t.ThresholdPct.GreaterThan(hundred) {
			return fmt.Errorf("governance: percentages of %s must stay within [0, 100]", t.Type)
		}
	}
	for _, typ := range ProposalTypes {
		if _, ok := g.ProposalType(typ); !ok {
			return fmt.Errorf("governance: missing proposal type %q", typ)
		}
	}

	if !isFraction(c.Vesting.ImmediateFraction) {
		return fmt.Errorf("vesting: immediate_fraction must be within [0, 1]")
	}
	if c.Vesting.CliffDays > c.Vesting.DurationDays {
		return fmt.Errorf("vesting: cliff_days exceeds duration_days")
	}

	r := c.Reputation
	if r.MinScore.GreaterThanOrEqual(r.MaxScore) {
		return fmt.Errorf("reputation: min_score must be below max_score")
	}
	if !r.Weights.Sum().Equal(one) {
		return fmt.Errorf("reputation: weights sum to %s, want 1", r.Weights.Sum())
	}
	if !isFraction(r.DecayRate) {
		return fmt.Errorf("reputation: decay_rate must be within [0, 1]")
	}
	if len(r.Tiers) == 0 {
		return fmt.Errorf("reputation: no tiers")
	}
	tiers := make(map[string]bool)
	for i, t := range r.Tiers {
		if i > 0 && t.MinScore.LessThanOrEqual(r.Tiers[i-1].MinScore) {
			return fmt.Errorf("reputation: tier thresholds must be ascending at %s", t.Name)
		}
		tiers[t.Name] = true
	}
	for name, f := range r.Features {
		if f.MinTier != "" && !tiers[f.MinTier] {
			return fmt.Errorf("reputation: feature %s requires unknown tier %q", name, f.MinTier)
		}
	}

	if c.Events.MaxAttempts < 1 {
		return fmt.Errorf("events: max_attempts must be at least 1")
	}
	if c.Driver.Interval <= 0 {
		return fmt.Errorf("driver: interval must be positive")
	}
	return nil
}
