// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reputation

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vechain/govcore/clock"
)

// Factor identifies one input of the weighted score.
type Factor int

const (
	Performance Factor = iota
	Reliability
	History
	Community
	Compliance
	factorCount
)

func (f Factor) String() string {
	switch f {
	case Performance:
		return "performance"
	case Reliability:
		return "reliability"
	case History:
		return "history"
	case Community:
		return "community"
	case Compliance:
		return "compliance"
	}
	return "unknown"
}

// decays reports whether the factor fades while an account is idle.
func (f Factor) decays() bool {
	return f != History && f != Compliance
}

// Factors holds the five factor values of a score.
type Factors [factorCount]decimal.Decimal

// MarshalJSON renders factors as a name keyed object.
func (fs Factors) MarshalJSON() ([]byte, error) {
	m := make(map[string]decimal.Decimal, factorCount)
	for i, v := range fs {
		m[Factor(i).String()] = v
	}
	return json.Marshal(m)
}

// Trend is the direction of the latest score change.
type Trend uint8

const (
	TrendStable Trend = iota
	TrendImproving
	TrendDeclining
)

func (t Trend) String() string {
	switch t {
	case TrendImproving:
		return "improving"
	case TrendDeclining:
		return "declining"
	}
	return "stable"
}

func (t Trend) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Score is the decayed view of an account's reputation.
type Score struct {
	Owner     string          `json:"owner"`
	Factors   Factors         `json:"factors"`
	Overall   decimal.Decimal `json:"overall"`
	Tier      string          `json:"tier"`
	Trend     Trend           `json:"trend"`
	Tracked   bool            `json:"tracked"`
	Events    uint64          `json:"events"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// AccountAge returns the time since the first recorded event.
func (s *Score) AccountAge(now time.Time) time.Duration {
	if !s.Tracked || now.Before(s.CreatedAt) {
		return 0
	}
	return now.Sub(s.CreatedAt)
}

// HistoryEntry is one point of the score time series.
type HistoryEntry struct {
	Timestamp uint64
	Overall   string
	EventType string
	Impact    string
	Details   string
}

func (h *HistoryEntry) Time() time.Time { return clock.FromUnix(h.Timestamp) }

// AccessDecision is the outcome of a feature gate check.
type AccessDecision struct {
	Owner          string          `json:"owner"`
	Feature        string          `json:"feature"`
	Allowed        bool            `json:"allowed"`
	Reason         string          `json:"reason,omitempty"`
	Score          decimal.Decimal `json:"score"`
	Tier           string          `json:"tier"`
	AccountAgeDays uint32          `json:"accountAgeDays"`
}

// record is the persisted form of a score. Decimals are kept as strings.
type record struct {
	Owner     string
	Factors   []string
	Overall   string
	Trend     uint8
	Events    uint64
	CreatedAt uint64
	UpdatedAt uint64
	DecayedAt uint64 // decay is applied in whole periods counted from here
}
