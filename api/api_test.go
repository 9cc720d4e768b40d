// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/govcore/api/power"
	"github.com/vechain/govcore/api/stakes"
	"github.com/vechain/govcore/app"
	"github.com/vechain/govcore/clock"
	"github.com/vechain/govcore/config"
	"github.com/vechain/govcore/events"
	"github.com/vechain/govcore/governance"
	"github.com/vechain/govcore/metrics"
	"github.com/vechain/govcore/reputation"
	"github.com/vechain/govcore/vesting"
	"github.com/vechain/govcore/votingpower"
)

type fixture struct {
	app      *app.App
	ts       *httptest.Server
	proposal *governance.Proposal
}

func initAPIServer(t *testing.T, opts Options) *fixture {
	clk := clock.NewMock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	a, err := app.New(config.Default(), app.Options{Clock: clk})
	require.NoError(t, err)

	_, err = a.Staking.Stake("alice", big.NewInt(100_000), 365, false, "governance")
	require.NoError(t, err)
	_, err = a.Staking.Stake("bob", big.NewInt(10_000), 30, false, "")
	require.NoError(t, err)
	_, err = a.Delegations.Delegate("bob", "alice", big.NewInt(2_000))
	require.NoError(t, err)

	p, err := a.Governance.CreateProposal(governance.CreateRequest{
		Proposer: "alice",
		Type:     "grant",
		Title:    "hello",
		Actions:  []governance.Action{{Target: app.TargetNotice, Operation: "announce"}},
	})
	require.NoError(t, err)
	_, err = a.Governance.Vote(p.ID, "alice", governance.SupportFor, "")
	require.NoError(t, err)

	handler, cancel := New(a, opts)
	ts := httptest.NewServer(handler)
	t.Cleanup(func() {
		cancel()
		ts.Close()
		a.Close()
	})
	return &fixture{a, ts, p}
}

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res.StatusCode
}

func getJSON(t *testing.T, url string, v any) {
	body, status := httpGet(t, url)
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, v))
}

func TestStakes(t *testing.T) {
	f := initAPIServer(t, Options{})

	var owner stakes.Owner
	getJSON(t, f.ts.URL+"/stakes/alice", &owner)
	assert.Equal(t, "alice", owner.Owner)
	assert.Equal(t, big.NewInt(100_000), owner.TotalStaked)
	require.Len(t, owner.Positions, 1)
	assert.Equal(t, "active", owner.Positions[0].Status)

	var pos stakes.Position
	getJSON(t, f.ts.URL+"/stakes/position/"+owner.Positions[0].ID, &pos)
	assert.Equal(t, uint32(365), pos.LockDays)

	var stats stakes.Stats
	getJSON(t, f.ts.URL+"/stats", &stats)
	assert.Equal(t, uint64(2), stats.Positions)
	assert.Equal(t, big.NewInt(110_000), stats.TotalStaked)

	_, status := httpGet(t, f.ts.URL+"/stakes/position/missing")
	assert.Equal(t, http.StatusNotFound, status)
	_, status = httpGet(t, f.ts.URL+"/stakes/slash/missing")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestVotingPowerAndDelegations(t *testing.T) {
	f := initAPIServer(t, Options{})

	var snap votingpower.Snapshot
	getJSON(t, f.ts.URL+"/voting-power/alice", &snap)
	assert.Equal(t, "alice", snap.Owner)
	assert.Equal(t, big.NewInt(2_000), snap.Delegated)

	direct, err := f.app.VotingPower.Snapshot("alice")
	require.NoError(t, err)
	assert.Equal(t, direct.Total, snap.Total)

	var ds power.Delegations
	getJSON(t, f.ts.URL+"/delegations/bob", &ds)
	assert.Empty(t, ds.Inbound)
	require.Len(t, ds.Outbound, 1)
	assert.Equal(t, "alice", ds.Outbound[0].Delegatee)
	assert.True(t, ds.Outbound[0].Active)
	assert.Nil(t, ds.Outbound[0].RevokedAt)
}

func TestProposals(t *testing.T) {
	f := initAPIServer(t, Options{})

	var list []map[string]any
	getJSON(t, f.ts.URL+"/proposals", &list)
	require.Len(t, list, 1)
	assert.Equal(t, f.proposal.ID, list[0]["id"])

	getJSON(t, f.ts.URL+"/proposals?status=executed", &list)
	assert.Empty(t, list)
	getJSON(t, f.ts.URL+"/proposals?offset=1", &list)
	assert.Empty(t, list)

	var prop map[string]any
	getJSON(t, f.ts.URL+"/proposals/"+f.proposal.ID, &prop)
	assert.Equal(t, "active", prop["status"])
	assert.Equal(t, float64(1), prop["voterCount"])

	var votes []map[string]any
	getJSON(t, f.ts.URL+"/proposals/"+f.proposal.ID+"/votes", &votes)
	require.Len(t, votes, 1)
	assert.Equal(t, "alice", votes[0]["voter"])
	assert.Equal(t, "for", votes[0]["support"])

	_, status := httpGet(t, f.ts.URL+"/proposals/missing")
	assert.Equal(t, http.StatusNotFound, status)
	_, status = httpGet(t, f.ts.URL+"/proposals/missing/votes")
	assert.Equal(t, http.StatusNotFound, status)
	_, status = httpGet(t, f.ts.URL+"/proposals?limit=x")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestVestingAndReputation(t *testing.T) {
	f := initAPIServer(t, Options{})

	_, err := f.app.Vesting.Create("bob", big.NewInt(12_000), vesting.Options{})
	require.NoError(t, err)

	var owner map[string]any
	getJSON(t, f.ts.URL+"/vesting/bob", &owner)
	assert.Len(t, owner["schedules"], 1)

	var score map[string]any
	getJSON(t, f.ts.URL+"/reputation/alice", &score)
	assert.Equal(t, true, score["tracked"])
	assert.Contains(t, score, "percentile")

	var history []map[string]any
	getJSON(t, f.ts.URL+"/reputation/alice/history", &history)
	require.Len(t, history, 1)
	assert.Equal(t, reputation.EventGovernanceParticipant, history[0]["eventType"])

	var decision reputation.AccessDecision
	getJSON(t, f.ts.URL+"/reputation/alice/access/treasury_access", &decision)
	assert.False(t, decision.Allowed)
	assert.NotEmpty(t, decision.Reason)

	_, status := httpGet(t, f.ts.URL+"/reputation/alice/access/teleport")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestEvents(t *testing.T) {
	f := initAPIServer(t, Options{EventsLimit: 10})

	var evs []events.Event
	getJSON(t, f.ts.URL+"/events?type=stake_created", &evs)
	require.Len(t, evs, 2)
	assert.Equal(t, "alice", evs[0].OwnerID)

	getJSON(t, f.ts.URL+"/events?type=stake_created&order=desc&limit=1", &evs)
	require.Len(t, evs, 1)
	assert.Equal(t, "bob", evs[0].OwnerID)

	getJSON(t, f.ts.URL+"/events?owner=nobody", &evs)
	assert.Empty(t, evs)

	_, status := httpGet(t, f.ts.URL+"/events?limit=11")
	assert.Equal(t, http.StatusForbidden, status)
	_, status = httpGet(t, f.ts.URL+"/events?order=sideways")
	assert.Equal(t, http.StatusBadRequest, status)
	_, status = httpGet(t, f.ts.URL+"/events?from=yesterday")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHealth(t *testing.T) {
	f := initAPIServer(t, Options{})

	body, status := httpGet(t, f.ts.URL+"/health")
	assert.Equal(t, http.StatusServiceUnavailable, status, string(body))

	require.NoError(t, f.app.Driver.Sweep())
	body, status = httpGet(t, f.ts.URL+"/health")
	assert.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), `"healthy":true`)
}

func TestMetricsAndCORS(t *testing.T) {
	metrics.InitializePrometheusMetrics()
	f := initAPIServer(t, Options{EnableMetrics: true, AllowedOrigins: "https://app.example.org"})

	_, status := httpGet(t, f.ts.URL+"/stats")
	require.Equal(t, http.StatusOK, status)

	body, status := httpGet(t, f.ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, strings.Contains(string(body), "api_request_count"))

	req, err := http.NewRequest(http.MethodGet, f.ts.URL+"/stats", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.org")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, "https://app.example.org", res.Header.Get("Access-Control-Allow-Origin"))
}
