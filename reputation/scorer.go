// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reputation

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vechain/govcore/clock"
	"github.com/vechain/govcore/config"
	"github.com/vechain/govcore/events"
	"github.com/vechain/govcore/kv"
	"github.com/vechain/govcore/log"
	"github.com/vechain/govcore/metrics"
	"github.com/vechain/govcore/numeric"
	"github.com/vechain/govcore/reverts"
	"github.com/vechain/govcore/storage"
)

var (
	logger = log.WithContext("pkg", "reputation")

	metricEvents = metrics.LazyLoadCounterVec("reputation_events_total", []string{"type"})
)

// decayPeriod is the length of one decay step.
const decayPeriod = 30 * clock.Day

// Scorer owns reputation scores and their history.
type Scorer struct {
	cfg    config.Reputation
	clock  clock.Clock
	events events.Publisher

	records *storage.Mapping[*record]
	history *storage.Mapping[[]*HistoryEntry]
	locks   storage.Locker
}

// New creates a scorer persisting into store.
func New(store kv.Store, cfg *config.Config, clk clock.Clock, pub events.Publisher) *Scorer {
	if pub == nil {
		pub = events.Discard
	}
	return &Scorer{
		cfg:     cfg.Reputation,
		clock:   clk,
		events:  pub,
		records: storage.NewMapping[*record](store, "reputation/score", 2048),
		history: storage.NewMapping[[]*HistoryEntry](store, "reputation/history", 256),
	}
}

func (s *Scorer) neutral(owner string, now time.Time) *record {
	fs := make([]string, factorCount)
	for i := range fs {
		fs[i] = s.cfg.InitialFactor.String()
	}
	ts := clock.Unix(now)
	return &record{
		Owner:     owner,
		Factors:   fs,
		Overall:   s.cfg.InitialFactor.String(),
		CreatedAt: ts,
		UpdatedAt: ts,
		DecayedAt: ts,
	}
}

func (s *Scorer) factors(r *record) (Factors, error) {
	var fs Factors
	if len(r.Factors) != int(factorCount) {
		return fs, errors.Errorf("score of %s: malformed factors", r.Owner)
	}
	for i, v := range r.Factors {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return fs, errors.Wrapf(err, "score of %s", r.Owner)
		}
		fs[i] = d
	}
	return fs, nil
}

// decay applies every whole decay period elapsed since DecayedAt and advances the anchor.
func (s *Scorer) decay(r *record, fs *Factors, now time.Time) {
	elapsed := now.Sub(clock.FromUnix(r.DecayedAt))
	if elapsed < decayPeriod {
		return
	}
	periods := uint64(elapsed / decayPeriod)
	mul := numeric.PowInt(decimal.NewFromInt(1).Sub(s.cfg.DecayRate), periods)
	for i := range fs {
		if Factor(i).decays() {
			fs[i] = fs[i].Mul(mul).Round(numeric.Precision)
		}
	}
	r.DecayedAt += periods * uint64(decayPeriod/time.Second)
}

func (s *Scorer) overall(fs Factors) decimal.Decimal {
	w := s.cfg.Weights
	weights := Factors{w.Performance, w.Reliability, w.History, w.Community, w.Compliance}
	total := decimal.Zero
	for i := range fs {
		total = total.Add(fs[i].Mul(weights[i]))
	}
	return numeric.ClampDec(total, s.cfg.MinScore, s.cfg.MaxScore).Round(4)
}

// TierFor returns the highest tier whose threshold the score reaches.
func (s *Scorer) TierFor(score decimal.Decimal) string {
	tier := ""
	for _, t := range s.cfg.Tiers {
		if score.GreaterThanOrEqual(t.MinScore) {
			tier = t.Name
		}
	}
	return tier
}

func (s *Scorer) tierRank(name string) int {
	for i, t := range s.cfg.Tiers {
		if t.Name == name {
			return i
		}
	}
	return -1
}

func (s *Scorer) view(r *record, fs Factors, tracked bool) *Score {
	overall := s.overall(fs)
	return &Score{
		Owner:     r.Owner,
		Factors:   fs,
		Overall:   overall,
		Tier:      s.TierFor(overall),
		Trend:     Trend(r.Trend),
		Tracked:   tracked,
		Events:    r.Events,
		CreatedAt: clock.FromUnix(r.CreatedAt),
		UpdatedAt: clock.FromUnix(r.UpdatedAt),
	}
}

// Score returns the decayed score of owner. Unknown owners get the neutral default;
// nothing is written.
func (s *Scorer) Score(owner string) (*Score, error) {
	now := s.clock.Now()
	r, found, err := s.records.Get(owner)
	if err != nil {
		return nil, err
	}
	if !found {
		r = s.neutral(owner, now)
	}
	fs, err := s.factors(r)
	if err != nil {
		return nil, err
	}
	s.decay(r, &fs, now)
	return s.view(r, fs, found), nil
}

// RecordEvent applies the adjustment of eventType to owner's factors, recomputes the
// score and appends it to the history.
func (s *Scorer) RecordEvent(owner, eventType string, impact decimal.Decimal, details string) (*Score, error) {
	logger.Debug("recording reputation event", "owner", owner, "type", eventType, "impact", impact)

	if owner == "" {
		return nil, reverts.Violation(reverts.RuleInvalidArgument, "owner is required")
	}
	adj, ok := adjustments[eventType]
	if !ok {
		return nil, reverts.Violation(reverts.RuleUnknownType, "unknown reputation event %q", eventType)
	}

	unlock := s.locks.Lock(owner)
	defer unlock()

	now := s.clock.Now()
	r, found, err := s.records.Get(owner)
	if err != nil {
		return nil, err
	}
	if !found {
		r = s.neutral(owner, now)
	}
	fs, err := s.factors(r)
	if err != nil {
		return nil, err
	}
	s.decay(r, &fs, now)
	before := s.overall(fs)

	adj.apply(&fs, impact)
	for i := range fs {
		fs[i] = numeric.ClampDec(fs[i], s.cfg.MinScore, s.cfg.MaxScore)
		r.Factors[i] = fs[i].String()
	}
	after := s.overall(fs)

	delta := after.Sub(before)
	switch {
	case delta.Sign() > 0 && delta.GreaterThanOrEqual(s.cfg.TrendThreshold):
		r.Trend = uint8(TrendImproving)
	case delta.Sign() < 0 && delta.Abs().GreaterThanOrEqual(s.cfg.TrendThreshold):
		r.Trend = uint8(TrendDeclining)
	default:
		r.Trend = uint8(TrendStable)
	}
	r.Overall = after.String()
	r.Events++
	r.UpdatedAt = clock.Unix(now)
	if err := s.records.Update(owner, r); err != nil {
		return nil, err
	}

	hist, _, err := s.history.Get(owner)
	if err != nil {
		return nil, err
	}
	hist = append(hist, &HistoryEntry{
		Timestamp: r.UpdatedAt,
		Overall:   r.Overall,
		EventType: eventType,
		Impact:    impact.String(),
		Details:   details,
	})
	if err := s.history.Update(owner, hist); err != nil {
		return nil, err
	}

	score := s.view(r, fs, true)
	metricEvents().AddWithLabel(1, map[string]string{"type": eventType})
	s.events.Publish(events.New(now, events.ReputationRecorded, events.CategoryReputation, owner, map[string]string{
		"eventType": eventType,
		"impact":    impact.String(),
		"overall":   r.Overall,
		"tier":      score.Tier,
		"trend":     score.Trend.String(),
	}))
	logger.Info("recorded reputation event", "owner", owner, "overall", r.Overall, "trend", score.Trend)
	return score, nil
}

// History returns the score time series of owner, oldest first.
func (s *Scorer) History(owner string) ([]*HistoryEntry, error) {
	hist, _, err := s.history.Get(owner)
	return hist, err
}

// PruneHistory drops history entries older than the retention window and returns how
// many were removed.
func (s *Scorer) PruneHistory() (int, error) {
	cutoff := clock.Unix(s.clock.Now().Add(-clock.Days(s.cfg.HistoryRetentionDays)))

	var owners []string
	if err := s.history.Iterate(func(owner string, _ []*HistoryEntry) error {
		owners = append(owners, owner)
		return nil
	}); err != nil {
		return 0, err
	}

	pruned := 0
	for _, owner := range owners {
		n, err := s.prune(owner, cutoff)
		if err != nil {
			return pruned, err
		}
		pruned += n
	}
	if pruned > 0 {
		logger.Debug("pruned reputation history", "entries", pruned)
	}
	return pruned, nil
}

func (s *Scorer) prune(owner string, cutoff uint64) (int, error) {
	unlock := s.locks.Lock(owner)
	defer unlock()

	hist, _, err := s.history.Get(owner)
	if err != nil {
		return 0, err
	}
	keep := hist[:0]
	for _, h := range hist {
		if h.Timestamp >= cutoff {
			keep = append(keep, h)
		}
	}
	n := len(hist) - len(keep)
	if n == 0 {
		return 0, nil
	}
	if len(keep) == 0 {
		return n, s.history.Delete(owner)
	}
	return n, s.history.Update(owner, keep)
}

// Percentile returns the share of tracked accounts scoring strictly below owner, in percent.
func (s *Scorer) Percentile(owner string) (decimal.Decimal, error) {
	target, err := s.Score(owner)
	if err != nil {
		return decimal.Zero, err
	}
	now := s.clock.Now()
	total, below := 0, 0
	if err := s.records.Iterate(func(_ string, r *record) error {
		fs, err := s.factors(r)
		if err != nil {
			return err
		}
		s.decay(r, &fs, now)
		total++
		if s.overall(fs).LessThan(target.Overall) {
			below++
		}
		return nil
	}); err != nil {
		return decimal.Zero, err
	}
	if total == 0 {
		return decimal.Zero, nil
	}
	return decimal.NewFromInt(int64(below)).Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(total)), 2), nil
}

// CheckAccess decides whether owner may use feature.
func (s *Scorer) CheckAccess(owner, feature string) (*AccessDecision, error) {
	req, ok := s.cfg.Features[feature]
	if !ok {
		return nil, reverts.NotFound("feature", feature)
	}
	score, err := s.Score(owner)
	if err != nil {
		return nil, err
	}
	age := uint32(score.AccountAge(s.clock.Now()) / clock.Day)

	var denials []string
	if score.Overall.LessThan(req.MinScore) {
		denials = append(denials, fmt.Sprintf("score %s below required %s", score.Overall, req.MinScore))
	}
	if req.MinTier != "" && s.tierRank(score.Tier) < s.tierRank(req.MinTier) {
		denials = append(denials, fmt.Sprintf("tier %s below required %s", score.Tier, req.MinTier))
	}
	if age < req.MinAccountAgeDays {
		denials = append(denials, fmt.Sprintf("account age %d days below required %d", age, req.MinAccountAgeDays))
	}
	return &AccessDecision{
		Owner:          owner,
		Feature:        feature,
		Allowed:        len(denials) == 0,
		Reason:         strings.Join(denials, "; "),
		Score:          score.Overall,
		Tier:           score.Tier,
		AccountAgeDays: age,
	}, nil
}
