// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/govcore/clock"
	"github.com/vechain/govcore/config"
	"github.com/vechain/govcore/events"
	"github.com/vechain/govcore/lvldb"
	"github.com/vechain/govcore/reverts"
)

type fixedStakes map[string]int64

func (f fixedStakes) TotalStaked(owner string) (*big.Int, error) {
	return big.NewInt(f[owner]), nil
}

func newTestRegistry(t *testing.T, enforceCap bool) (*Registry, *clock.Mock) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Default()
	cfg.Delegation.EnforceStakeCap = enforceCap
	clk := clock.NewMock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	return New(db, cfg, fixedStakes{"alice": 1_000}, clk, events.Discard), clk
}

func TestDelegate(t *testing.T) {
	reg, _ := newTestRegistry(t, false)

	_, err := reg.Delegate("alice", "alice", big.NewInt(10))
	assert.Equal(t, reverts.RuleSelfDelegation, reverts.RuleOf(err))
	_, err = reg.Delegate("alice", "bob", big.NewInt(0))
	assert.Equal(t, reverts.RuleAmountOutOfRange, reverts.RuleOf(err))

	d, err := reg.Delegate("alice", "bob", big.NewInt(300))
	require.NoError(t, err)
	assert.True(t, d.Active())

	// no cap by default, amounts beyond the stake are accepted
	_, err = reg.Delegate("alice", "carol", big.NewInt(5_000))
	require.NoError(t, err)

	in, err := reg.InboundPower("bob")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(300), in)

	out, err := reg.OutboundAmount("alice")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5_300), out)

	inbound, outbound, err := reg.DelegationsOf("alice")
	require.NoError(t, err)
	assert.Empty(t, inbound)
	assert.Len(t, outbound, 2)

	got, err := reg.Delegation(d.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Delegatee)
	_, err = reg.Delegation("missing")
	assert.True(t, reverts.IsNotFound(err))
}

func TestDelegate_StakeCap(t *testing.T) {
	reg, _ := newTestRegistry(t, true)

	_, err := reg.Delegate("alice", "bob", big.NewInt(600))
	require.NoError(t, err)
	_, err = reg.Delegate("alice", "carol", big.NewInt(401))
	assert.Equal(t, reverts.RuleDelegationCap, reverts.RuleOf(err))
	_, err = reg.Delegate("alice", "carol", big.NewInt(400))
	require.NoError(t, err)
}

func TestRevoke(t *testing.T) {
	reg, clk := newTestRegistry(t, false)

	res, err := reg.Revoke("alice", "bob")
	require.NoError(t, err)
	assert.False(t, res.Success)

	first, err := reg.Delegate("alice", "bob", big.NewInt(100))
	require.NoError(t, err)
	second, err := reg.Delegate("alice", "bob", big.NewInt(200))
	require.NoError(t, err)

	clk.AdvanceDays(1)
	res, err = reg.Revoke("alice", "bob")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, second.ID, res.Delegation.ID)
	assert.Equal(t, clk.Now(), res.Delegation.Revoked())

	in, err := reg.InboundPower("bob")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), in)

	res, err = reg.Revoke("alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, first.ID, res.Delegation.ID)

	res, err = reg.Revoke("alice", "bob")
	require.NoError(t, err)
	assert.False(t, res.Success)

	// records survive revocation
	inbound, _, err := reg.DelegationsOf("bob")
	require.NoError(t, err)
	assert.Len(t, inbound, 2)
	for _, d := range inbound {
		assert.False(t, d.Active())
	}
}
