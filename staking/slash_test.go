// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/govcore/config"
	"github.com/vechain/govcore/events"
	"github.com/vechain/govcore/reverts"
)

func TestExecuteSlash_Disabled(t *testing.T) {
	ledger, _, _ := newTestLedger(t, func(c *config.Config) { c.Slashing.Enabled = false })

	p, err := ledger.Stake("alice", big.NewInt(1_000), 90, false, "")
	require.NoError(t, err)

	_, err = ledger.ExecuteSlash(p.ID, TargetUser, Fraud, big.NewInt(100), nil, "council")
	assert.True(t, reverts.IsFatal(err))
	assert.ErrorIs(t, err, reverts.ErrSlashingDisabled)
}

func TestExecuteSlash(t *testing.T) {
	ledger, clk, rec := newTestLedger(t)

	p, err := ledger.Stake("alice", big.NewInt(10_000), 90, false, "")
	require.NoError(t, err)
	clk.AdvanceDays(30)

	_, err = ledger.ExecuteSlash(p.ID, TargetUser, "bribery", big.NewInt(100), nil, "council")
	assert.Equal(t, reverts.RuleInvalidArgument, reverts.RuleOf(err))
	_, err = ledger.ExecuteSlash(p.ID, TargetAgent, Fraud, big.NewInt(100), nil, "council")
	assert.Equal(t, reverts.RuleInvalidArgument, reverts.RuleOf(err))
	_, err = ledger.ExecuteSlash("missing", TargetUser, Fraud, big.NewInt(100), nil, "council")
	assert.True(t, reverts.IsNotFound(err))

	s, err := ledger.ExecuteSlash(p.ID, TargetUser, Fraud, big.NewInt(4_000), []string{"tx:1"}, "council")
	require.NoError(t, err)
	assert.Equal(t, SlashExecuted, s.Status)
	assert.Equal(t, big.NewInt(4_000), s.Slashed)
	assert.Equal(t, big.NewInt(65), s.Forfeited)
	assert.Equal(t, "alice", s.Owner)
	assert.Equal(t, clk.Now().Unix()+7*24*3600, int64(s.AppealDeadline))
	assert.Contains(t, rec.types(), events.StakeSlashed)

	got, err := ledger.Position(p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSlashed, got.Status)
	assert.Equal(t, big.NewInt(6_000), got.Amount)
	assert.Equal(t, 0, got.PendingRewards.Sign())
	assert.False(t, got.VotingEligible())

	// slashed positions stop accruing
	clk.AdvanceDays(30)
	n, err := ledger.AccrueRewards()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = ledger.ExecuteSlash(p.ID, TargetUser, Fraud, big.NewInt(1), nil, "council")
	assert.Equal(t, reverts.RuleInvalidStatus, reverts.RuleOf(err))

	active, err := ledger.ActivePositionsOf("alice")
	require.NoError(t, err)
	assert.Empty(t, active)

	stats, err := ledger.Stats()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(4_000), stats.Slashed)
	assert.Equal(t, 0, stats.TotalStaked.Sign())
}

func TestExecuteSlash_ClampsToAmount(t *testing.T) {
	ledger, _, _ := newTestLedger(t)

	p, err := ledger.StakeForAgent("alice", "agent-7", big.NewInt(1_000), 90, false, "")
	require.NoError(t, err)

	s, err := ledger.ExecuteSlash(p.ID, TargetAgent, Manipulation, big.NewInt(5_000), nil, "council")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5_000), s.Amount)
	assert.Equal(t, big.NewInt(1_000), s.Slashed)

	got, err := ledger.Position(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Amount.Sign())
}

func TestSlashAppealReversed(t *testing.T) {
	ledger, clk, rec := newTestLedger(t)

	p, err := ledger.Stake("alice", big.NewInt(1_000), 90, false, "")
	require.NoError(t, err)
	s, err := ledger.ExecuteSlash(p.ID, TargetUser, Inactivity, big.NewInt(300), nil, "council")
	require.NoError(t, err)

	// residual is locked while the slash can still be appealed
	_, err = ledger.Withdraw(p.ID, "alice")
	assert.Equal(t, reverts.RuleTimelock, reverts.RuleOf(err))

	_, err = ledger.AppealSlash(s.ID, "mallory", "not me")
	assert.Equal(t, reverts.RuleUnauthorized, reverts.RuleOf(err))

	s, err = ledger.AppealSlash(s.ID, "alice", "was online")
	require.NoError(t, err)
	assert.Equal(t, SlashAppealed, s.Status)

	_, err = ledger.AppealSlash(s.ID, "alice", "again")
	assert.Equal(t, reverts.RuleInvalidStatus, reverts.RuleOf(err))

	// appealed slashes are not confirmed by the sweep
	clk.AdvanceDays(10)
	n, err := ledger.ResolveSlashes()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	s, err = ledger.ResolveAppeal(s.ID, true, "arbiter")
	require.NoError(t, err)
	assert.Equal(t, SlashReversed, s.Status)
	assert.Contains(t, rec.types(), events.SlashReversed)

	w, err := ledger.Withdraw(p.ID, "alice")
	require.NoError(t, err)
	assert.True(t, w.Success)
	assert.Equal(t, big.NewInt(1_000), w.Amount)
	assert.Equal(t, StatusSlashed, w.Status)

	stats, err := ledger.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Slashed.Sign())
}

func TestResolveSlashes(t *testing.T) {
	ledger, clk, _ := newTestLedger(t)

	p, err := ledger.Stake("alice", big.NewInt(1_000), 90, false, "")
	require.NoError(t, err)
	s, err := ledger.ExecuteSlash(p.ID, TargetUser, ProtocolViolation, big.NewInt(100), nil, "council")
	require.NoError(t, err)

	clk.AdvanceDays(7)
	n, err := ledger.ResolveSlashes()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	clk.AdvanceDays(1)
	_, err = ledger.AppealSlash(s.ID, "alice", "late")
	assert.Equal(t, reverts.RuleDeadlinePassed, reverts.RuleOf(err))

	n, err = ledger.ResolveSlashes()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = ledger.ResolveSlashes()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := ledger.Slash(s.ID)
	require.NoError(t, err)
	assert.Equal(t, SlashConfirmed, got.Status)

	w, err := ledger.Withdraw(p.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(900), w.Amount)
}
