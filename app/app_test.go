// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package app

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/govcore/clock"
	"github.com/vechain/govcore/config"
	"github.com/vechain/govcore/eventdb"
	"github.com/vechain/govcore/events"
	"github.com/vechain/govcore/governance"
	"github.com/vechain/govcore/reputation"
	"github.com/vechain/govcore/staking"
	"github.com/vechain/govcore/vesting"
)

func newTestApp(t *testing.T, dataDir string) (*App, *clock.Mock) {
	clk := clock.NewMock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	a, err := New(config.Default(), Options{DataDir: dataDir, Clock: clk})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a, clk
}

func TestGovernanceGrantsVesting(t *testing.T) {
	a, clk := newTestApp(t, "")

	_, err := a.Staking.Stake("alice", big.NewInt(100_000), 365, false, "governance")
	require.NoError(t, err)
	_, err = a.Staking.Stake("bob", big.NewInt(10_000), 30, false, "")
	require.NoError(t, err)

	p, err := a.Governance.CreateProposal(governance.CreateRequest{
		Proposer: "alice",
		Type:     "grant",
		Title:    "fund bob",
		Actions: []governance.Action{
			{Target: TargetVesting, Operation: "grant", Data: `{"owner":"bob","amount":12000,"cliffDays":30,"durationDays":365,"immediateFraction":"0.25"}`},
			{Target: TargetReputation, Operation: reputation.EventCommunityContribution, Data: `{"owner":"bob","impact":"5"}`},
			{Target: TargetVesting, Operation: "burn", Data: `{}`},
		},
	})
	require.NoError(t, err)

	_, err = a.Governance.Vote(p.ID, "alice", governance.SupportFor, "")
	require.NoError(t, err)
	_, err = a.Governance.Vote(p.ID, "bob", governance.SupportAgainst, "")
	require.NoError(t, err)

	// voting counts as participation
	score, err := a.Reputation.Score("bob")
	require.NoError(t, err)
	assert.True(t, score.Tracked)

	clk.AdvanceDays(7)
	clk.Advance(time.Second)
	require.NoError(t, a.Driver.Sweep())

	got, err := a.Governance.Proposal(p.ID)
	require.NoError(t, err)
	assert.Equal(t, governance.StatusPassed, got.Status)

	clk.AdvanceDays(2)
	report, err := a.Governance.Execute(context.Background(), p.ID, "ops")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)

	scheds, err := a.Vesting.SchedulesOf("bob")
	require.NoError(t, err)
	require.Len(t, scheds, 1)
	assert.Equal(t, big.NewInt(3_000), scheds[0].Vested)
	assert.Equal(t, vesting.StatusVesting, scheds[0].Status)

	journal, err := a.EventDB.Filter(context.Background(), &eventdb.Filter{Type: events.ProposalExecuted})
	require.NoError(t, err)
	require.Len(t, journal, 1)
	assert.Equal(t, "2", journal[0].Payload["succeeded"])
}

func TestSlashLowersReputation(t *testing.T) {
	a, _ := newTestApp(t, "")

	pos, err := a.Staking.Stake("carol", big.NewInt(1_000), 90, false, "")
	require.NoError(t, err)
	before, err := a.VotingPower.Snapshot("carol")
	require.NoError(t, err)

	_, err = a.Staking.ExecuteSlash(pos.ID, staking.TargetUser, staking.Manipulation, big.NewInt(100), []string{"tx:1"}, "ops")
	require.NoError(t, err)

	score, err := a.Reputation.Score("carol")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("45.5").Equal(score.Overall), score.Overall.String())
	assert.Equal(t, reputation.TrendDeclining, score.Trend)

	after, err := a.VotingPower.Snapshot("carol")
	require.NoError(t, err)
	assert.Equal(t, 1, before.Total.Cmp(after.Total))
	assert.Zero(t, after.Total.Sign())

	journal, err := a.EventDB.Filter(context.Background(), &eventdb.Filter{Owner: "carol"})
	require.NoError(t, err)
	var types []string
	for _, ev := range journal {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{events.StakeCreated, events.StakeSlashed, events.ReputationRecorded}, types)
}

func TestPersistentDataDir(t *testing.T) {
	dir := t.TempDir()
	clk := clock.NewMock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	a, err := New(config.Default(), Options{DataDir: dir, Clock: clk})
	require.NoError(t, err)
	pos, err := a.Staking.Stake("alice", big.NewInt(500), 30, false, "")
	require.NoError(t, err)
	require.NoError(t, a.Close())

	a, err = New(config.Default(), Options{DataDir: dir, Clock: clk})
	require.NoError(t, err)
	defer a.Close()

	got, err := a.Staking.Position(pos.ID)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), got.Amount)

	journal, err := a.EventDB.Filter(context.Background(), &eventdb.Filter{})
	require.NoError(t, err)
	assert.Len(t, journal, 1)
}
