// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reputation

import (
	"github.com/shopspring/decimal"
)

// Event types understood by RecordEvent.
const (
	EventTaskCompleted         = "task_completed"
	EventTaskFailed            = "task_failed"
	EventUptime                = "uptime"
	EventDowntime              = "downtime"
	EventGovernanceParticipant = "governance_participation"
	EventCommunityContribution = "community_contribution"
	EventProposalPassed        = "proposal_passed"
	EventComplianceCheck       = "compliance_check"
	EventViolation             = "violation"
	EventStakeMilestone        = "stake_milestone"
	EventSlashing              = "slashing"
)

// adjustment maps factors to a delta. Scaled deltas are multiplied by the absolute
// impact of the event, fixed ones are applied as is.
type adjustment struct {
	deltas map[Factor]decimal.Decimal
	fixed  bool
}

func scaled(d map[Factor]decimal.Decimal) adjustment { return adjustment{deltas: d} }

var (
	one     = decimal.NewFromInt(1)
	half    = decimal.RequireFromString("0.5")
	minus   = decimal.NewFromInt(-1)
	minHalf = decimal.RequireFromString("-0.5")
)

var adjustments = map[string]adjustment{
	EventTaskCompleted:         scaled(map[Factor]decimal.Decimal{Performance: one, Reliability: half}),
	EventTaskFailed:            scaled(map[Factor]decimal.Decimal{Performance: minus, Reliability: minHalf}),
	EventUptime:                scaled(map[Factor]decimal.Decimal{Reliability: one}),
	EventDowntime:              scaled(map[Factor]decimal.Decimal{Reliability: minus}),
	EventGovernanceParticipant: scaled(map[Factor]decimal.Decimal{Community: one}),
	EventCommunityContribution: scaled(map[Factor]decimal.Decimal{Community: one}),
	EventProposalPassed:        scaled(map[Factor]decimal.Decimal{Community: one, History: half}),
	EventComplianceCheck:       scaled(map[Factor]decimal.Decimal{Compliance: one}),
	EventViolation:             scaled(map[Factor]decimal.Decimal{Compliance: minus}),
	EventStakeMilestone:        scaled(map[Factor]decimal.Decimal{History: one}),
	EventSlashing: {
		deltas: map[Factor]decimal.Decimal{
			Compliance:  decimal.NewFromInt(-20),
			Reliability: decimal.NewFromInt(-10),
		},
		fixed: true,
	},
}

// KnownEventType reports whether typ has an adjustment.
func KnownEventType(typ string) bool {
	_, ok := adjustments[typ]
	return ok
}

func (a adjustment) apply(fs *Factors, impact decimal.Decimal) {
	impact = impact.Abs()
	for f, d := range a.deltas {
		if !a.fixed {
			d = d.Mul(impact)
		}
		fs[f] = fs[f].Add(d)
	}
}
