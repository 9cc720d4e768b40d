// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package app

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vechain/govcore/governance"
	"github.com/vechain/govcore/vesting"
)

// Action targets handled by the engine itself.
const (
	TargetNotice     = "notice"
	TargetReputation = "reputation"
	TargetVesting    = "vesting"
)

// VestingGrant is the data of a vesting action.
type VestingGrant struct {
	Owner             string           `json:"owner"`
	Amount            *big.Int         `json:"amount"`
	CliffDays         *uint32          `json:"cliffDays,omitempty"`
	DurationDays      *uint32          `json:"durationDays,omitempty"`
	ImmediateFraction *decimal.Decimal `json:"immediateFraction,omitempty"`
}

// ReputationAdjustment is the data of a reputation action. The operation names the
// reputation event type.
type ReputationAdjustment struct {
	Owner   string          `json:"owner"`
	Impact  decimal.Decimal `json:"impact"`
	Details string          `json:"details,omitempty"`
}

func decode(action governance.Action, v any) error {
	if err := json.Unmarshal([]byte(action.Data), v); err != nil {
		return errors.Wrapf(err, "decode %s action", action.Target)
	}
	return nil
}

func (a *App) registerActions() {
	d := a.Governance.Dispatcher()

	d.Register(TargetNotice, governance.HandlerFunc(func(_ context.Context, p *governance.Proposal, action governance.Action) error {
		logger.Info("governance notice", "proposalId", p.ID, "operation", action.Operation, "data", action.Data)
		return nil
	}))

	d.Register(TargetReputation, governance.HandlerFunc(func(_ context.Context, p *governance.Proposal, action governance.Action) error {
		var adj ReputationAdjustment
		if err := decode(action, &adj); err != nil {
			return err
		}
		details := adj.Details
		if details == "" {
			details = "proposal:" + p.ID
		}
		_, err := a.Reputation.RecordEvent(adj.Owner, action.Operation, adj.Impact, details)
		return err
	}))

	d.Register(TargetVesting, governance.HandlerFunc(func(_ context.Context, _ *governance.Proposal, action governance.Action) error {
		if action.Operation != "grant" {
			return errors.Errorf("unknown vesting operation %q", action.Operation)
		}
		var g VestingGrant
		if err := decode(action, &g); err != nil {
			return err
		}
		_, err := a.Vesting.Create(g.Owner, g.Amount, vesting.Options{
			CliffDays:         g.CliffDays,
			DurationDays:      g.DurationDays,
			ImmediateFraction: g.ImmediateFraction,
		})
		return err
	}))
}
