// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reputation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/govcore/clock"
	"github.com/vechain/govcore/config"
	"github.com/vechain/govcore/events"
	"github.com/vechain/govcore/lvldb"
	"github.com/vechain/govcore/reverts"
)

func newTestScorer(t *testing.T) (*Scorer, *clock.Mock) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clk := clock.NewMock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	return New(db, config.Default(), clk, events.Discard), clk
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestScore_Default(t *testing.T) {
	s, _ := newTestScorer(t)

	score, err := s.Score("nobody")
	require.NoError(t, err)
	assert.False(t, score.Tracked)
	assert.True(t, dec("50").Equal(score.Overall))
	assert.Equal(t, "established", score.Tier)
	assert.Equal(t, TrendStable, score.Trend)

	// reading does not create a record
	_, found, err := s.records.Get("nobody")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRecordEvent_Slashing(t *testing.T) {
	s, _ := newTestScorer(t)

	// the fixed penalty ignores the impact passed in
	score, err := s.RecordEvent("alice", EventSlashing, dec("0.001"), "fraud")
	require.NoError(t, err)
	assert.True(t, score.Tracked)
	assert.True(t, dec("30").Equal(score.Factors[Compliance]))
	assert.True(t, dec("40").Equal(score.Factors[Reliability]))
	assert.True(t, dec("45.5").Equal(score.Overall), score.Overall.String())
	assert.Equal(t, TrendDeclining, score.Trend)

	hist, err := s.History("alice")
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, EventSlashing, hist[0].EventType)
	assert.Equal(t, "45.5", hist[0].Overall)
}

func TestRecordEvent_Validation(t *testing.T) {
	s, _ := newTestScorer(t)

	_, err := s.RecordEvent("alice", "bogus", dec("1"), "")
	assert.Equal(t, reverts.RuleUnknownType, reverts.RuleOf(err))
	_, err = s.RecordEvent("", EventUptime, dec("1"), "")
	assert.Equal(t, reverts.RuleInvalidArgument, reverts.RuleOf(err))
}

func TestRecordEvent_ClampAndTrend(t *testing.T) {
	s, _ := newTestScorer(t)

	score, err := s.RecordEvent("alice", EventTaskCompleted, dec("100"), "")
	require.NoError(t, err)
	assert.True(t, dec("100").Equal(score.Factors[Performance]))
	assert.True(t, dec("100").Equal(score.Factors[Reliability]))
	assert.Equal(t, TrendImproving, score.Trend)

	// below the trend threshold
	score, err = s.RecordEvent("alice", EventCommunityContribution, dec("1"), "")
	require.NoError(t, err)
	assert.Equal(t, TrendStable, score.Trend)
}

func TestScore_Decay(t *testing.T) {
	s, clk := newTestScorer(t)

	_, err := s.RecordEvent("alice", EventSlashing, decimal.Zero, "")
	require.NoError(t, err)

	clk.AdvanceDays(29)
	score, err := s.Score("alice")
	require.NoError(t, err)
	assert.True(t, dec("45.5").Equal(score.Overall))

	clk.AdvanceDays(31)
	score, err = s.Score("alice")
	require.NoError(t, err)
	// performance and community 50*0.98^2, reliability 40*0.98^2, history and compliance untouched
	assert.True(t, dec("48.02").Equal(score.Factors[Performance]))
	assert.True(t, dec("38.416").Equal(score.Factors[Reliability]))
	assert.True(t, dec("50").Equal(score.Factors[History]))
	assert.True(t, dec("44.213").Equal(score.Overall), score.Overall.String())

	// the view is stable across reads
	again, err := s.Score("alice")
	require.NoError(t, err)
	assert.True(t, score.Overall.Equal(again.Overall))

	// writes persist the decay without applying it twice
	_, err = s.RecordEvent("alice", EventUptime, decimal.Zero, "")
	require.NoError(t, err)
	after, err := s.Score("alice")
	require.NoError(t, err)
	assert.True(t, score.Overall.Equal(after.Overall), after.Overall.String())
}

func TestPercentile(t *testing.T) {
	s, _ := newTestScorer(t)

	_, err := s.RecordEvent("alice", EventTaskCompleted, dec("10"), "")
	require.NoError(t, err)
	_, err = s.RecordEvent("bob", EventSlashing, decimal.Zero, "")
	require.NoError(t, err)
	_, err = s.RecordEvent("carol", EventUptime, decimal.Zero, "")
	require.NoError(t, err)

	p, err := s.Percentile("alice")
	require.NoError(t, err)
	assert.True(t, dec("66.67").Equal(p), p.String())

	p, err = s.Percentile("bob")
	require.NoError(t, err)
	assert.True(t, p.IsZero())
}

func TestCheckAccess(t *testing.T) {
	s, clk := newTestScorer(t)

	d, err := s.CheckAccess("alice", "create_proposal")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "account age 0 days")

	_, err = s.RecordEvent("alice", EventUptime, decimal.Zero, "")
	require.NoError(t, err)
	clk.AdvanceDays(8)

	d, err = s.CheckAccess("alice", "create_proposal")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Empty(t, d.Reason)
	assert.Equal(t, uint32(8), d.AccountAgeDays)

	d, err = s.CheckAccess("alice", "treasury_access")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "score 50 below required 75")
	assert.Contains(t, d.Reason, "tier established below required veteran")

	_, err = s.CheckAccess("alice", "teleport")
	assert.True(t, reverts.IsNotFound(err))
}

func TestPruneHistory(t *testing.T) {
	s, clk := newTestScorer(t)

	_, err := s.RecordEvent("alice", EventUptime, dec("1"), "old")
	require.NoError(t, err)
	_, err = s.RecordEvent("bob", EventUptime, dec("1"), "old")
	require.NoError(t, err)
	clk.AdvanceDays(400)
	_, err = s.RecordEvent("alice", EventUptime, dec("1"), "new")
	require.NoError(t, err)

	n, err := s.PruneHistory()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	hist, err := s.History("alice")
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "new", hist[0].Details)

	hist, err = s.History("bob")
	require.NoError(t, err)
	assert.Empty(t, hist)

	n, err = s.PruneHistory()
	require.NoError(t, err)
	assert.Zero(t, n)
}
