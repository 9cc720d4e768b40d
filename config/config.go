// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package config

import (
	"bytes"
	"io"
	"math/big"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable table of the engine.
type Config struct {
	Staking     Staking     `yaml:"staking"`
	Slashing    Slashing    `yaml:"slashing"`
	Delegation  Delegation  `yaml:"delegation"`
	VotingPower VotingPower `yaml:"voting_power"`
	Governance  Governance  `yaml:"governance"`
	Vesting     Vesting     `yaml:"vesting"`
	Reputation  Reputation  `yaml:"reputation"`
	Events      Events      `yaml:"events"`
	Driver      Driver      `yaml:"driver"`
}

type LockTier struct {
	Days uint32          `yaml:"days"`
	APY  decimal.Decimal `yaml:"apy"`
}

type StakeTier struct {
	Name     string   `yaml:"name"`
	MinStake *big.Int `yaml:"min_stake"`
}

type Staking struct {
	MinStake     *big.Int        `yaml:"min_stake"`
	MaxStake     *big.Int        `yaml:"max_stake"`
	LockTiers    []LockTier      `yaml:"lock_tiers"`
	CooldownDays uint32          `yaml:"cooldown_days"`
	PenaltyBase  decimal.Decimal `yaml:"penalty_base"`
	PenaltyScale decimal.Decimal `yaml:"penalty_scale"`
	Tiers        []StakeTier     `yaml:"tiers"` // ascending by min_stake
}

type Slashing struct {
	Enabled    bool   `yaml:"enabled"`
	AppealDays uint32 `yaml:"appeal_days"`
}

type Delegation struct {
	EnforceStakeCap bool `yaml:"enforce_stake_cap"`
}

type VotingPower struct {
	MaxLockDays             uint32          `yaml:"max_lock_days"`
	MaxLockMultiplier       decimal.Decimal `yaml:"max_lock_multiplier"`
	MaxReputationMultiplier decimal.Decimal `yaml:"max_reputation_multiplier"`
}

type ProposalType struct {
	Type         string          `yaml:"type"`
	QuorumPct    decimal.Decimal `yaml:"quorum_pct"`
	ThresholdPct decimal.Decimal `yaml:"threshold_pct"`
	DelayDays    uint32          `yaml:"delay_days"`
}

type Governance struct {
	ProposalThreshold   *big.Int       `yaml:"proposal_threshold"`
	MaxActions          int            `yaml:"max_actions"`
	VotingPeriodDays    uint32         `yaml:"voting_period_days"`
	ExecutionWindowDays uint32         `yaml:"execution_window_days"`
	Types               []ProposalType `yaml:"types"`
}

type Vesting struct {
	CliffDays         uint32          `yaml:"cliff_days"`
	DurationDays      uint32          `yaml:"duration_days"`
	ImmediateFraction decimal.Decimal `yaml:"immediate_fraction"`
}

type FactorWeights struct {
	Performance decimal.Decimal `yaml:"performance"`
	Reliability decimal.Decimal `yaml:"reliability"`
	History     decimal.Decimal `yaml:"history"`
	Community   decimal.Decimal `yaml:"community"`
	Compliance  decimal.Decimal `yaml:"compliance"`
}

// Sum returns the total of all weights.
func (w FactorWeights) Sum() decimal.Decimal {
	return decimal.Sum(w.Performance, w.Reliability, w.History, w.Community, w.Compliance)
}

type ReputationTier struct {
	Name     string          `yaml:"name"`
	MinScore decimal.Decimal `yaml:"min_score"`
}

type Feature struct {
	MinScore          decimal.Decimal `yaml:"min_score"`
	MinTier           string          `yaml:"min_tier"`
	MinAccountAgeDays uint32          `yaml:"min_account_age_days"`
}

type Reputation struct {
	MinScore             decimal.Decimal    `yaml:"min_score"`
	MaxScore             decimal.Decimal    `yaml:"max_score"`
	InitialFactor        decimal.Decimal    `yaml:"initial_factor"`
	Weights              FactorWeights      `yaml:"weights"`
	DecayRate            decimal.Decimal    `yaml:"decay_rate"` // per 30 days
	TrendThreshold       decimal.Decimal    `yaml:"trend_threshold"`
	HistoryRetentionDays uint32             `yaml:"history_retention_days"`
	Tiers                []ReputationTier   `yaml:"tiers"` // ascending by min_score
	Features             map[string]Feature `yaml:"features"`
}

type Events struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Backoff     time.Duration `yaml:"backoff"`
}

type Driver struct {
	Interval time.Duration `yaml:"interval"`
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Staking: Staking{
			MinStake: big.NewInt(100),
			MaxStake: big.NewInt(10_000_000),
			LockTiers: []LockTier{
				{Days: 30, APY: d("0.05")},
				{Days: 90, APY: d("0.08")},
				{Days: 180, APY: d("0.12")},
				{Days: 365, APY: d("0.18")},
			},
			CooldownDays: 7,
			PenaltyBase:  d("0.10"),
			PenaltyScale: d("0.20"),
			Tiers: []StakeTier{
				{Name: "bronze", MinStake: big.NewInt(100)},
				{Name: "silver", MinStake: big.NewInt(1_000)},
				{Name: "gold", MinStake: big.NewInt(10_000)},
				{Name: "platinum", MinStake: big.NewInt(50_000)},
				{Name: "diamond", MinStake: big.NewInt(100_000)},
			},
		},
		Slashing: Slashing{
			Enabled:    true,
			AppealDays: 7,
		},
		VotingPower: VotingPower{
			MaxLockDays:             365,
			MaxLockMultiplier:       d("2"),
			MaxReputationMultiplier: d("1.5"),
		},
		Governance: Governance{
			ProposalThreshold:   big.NewInt(1_000),
			MaxActions:          10,
			VotingPeriodDays:    7,
			ExecutionWindowDays: 14,
			Types: []ProposalType{
				{Type: "parameter_change", QuorumPct: d("10"), ThresholdPct: d("51"), DelayDays: 2},
				{Type: "treasury_spend", QuorumPct: d("15"), ThresholdPct: d("60"), DelayDays: 3},
				{Type: "protocol_upgrade", QuorumPct: d("20"), ThresholdPct: d("67"), DelayDays: 7},
				{Type: "emergency", QuorumPct: d("5"), ThresholdPct: d("75"), DelayDays: 0},
				{Type: "grant", QuorumPct: d("10"), ThresholdPct: d("55"), DelayDays: 2},
				{Type: "text", QuorumPct: d("5"), ThresholdPct: d("50"), DelayDays: 0},
			},
		},
		Vesting: Vesting{
			CliffDays:         0,
			DurationDays:      365,
			ImmediateFraction: decimal.Zero,
		},
		Reputation: Reputation{
			MinScore:      decimal.Zero,
			MaxScore:      d("100"),
			InitialFactor: d("50"),
			Weights: FactorWeights{
				Performance: d("0.30"),
				Reliability: d("0.25"),
				History:     d("0.20"),
				Community:   d("0.15"),
				Compliance:  d("0.10"),
			},
			DecayRate:            d("0.02"),
			TrendThreshold:       d("1"),
			HistoryRetentionDays: 365,
			Tiers: []ReputationTier{
				{Name: "newcomer", MinScore: d("0")},
				{Name: "established", MinScore: d("40")},
				{Name: "trusted", MinScore: d("60")},
				{Name: "veteran", MinScore: d("75")},
				{Name: "elite", MinScore: d("90")},
			},
			Features: map[string]Feature{
				"create_proposal":   {MinScore: d("40"), MinTier: "established", MinAccountAgeDays: 7},
				"agent_deployment":  {MinScore: d("60"), MinTier: "trusted", MinAccountAgeDays: 30},
				"treasury_access":   {MinScore: d("75"), MinTier: "veteran", MinAccountAgeDays: 90},
				"high_value_stakes": {MinScore: d("50"), MinTier: "established", MinAccountAgeDays: 14},
			},
		},
		Events: Events{
			MaxAttempts: 3,
			Backoff:     50 * time.Millisecond,
		},
		Driver: Driver{
			Interval: time.Minute,
		},
	}
}

// Load decodes YAML data over the defaults and validates the result.
func Load(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads and decodes the YAML file at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	return Load(data)
}

// Marshal encodes cfg as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// APY returns the reward rate of a lock period, false if days is not a configured tier.
func (s *Staking) APY(days uint32) (decimal.Decimal, bool) {
	for _, t := range s.LockTiers {
		if t.Days == days {
			return t.APY, true
		}
	}
	return decimal.Zero, false
}

// ProposalType returns the parameters of a proposal type.
func (g *Governance) ProposalType(typ string) (ProposalType, bool) {
	for _, t := range g.Types {
		if t.Type == typ {
			return t, true
		}
	}
	return ProposalType{}, false
}
