// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"sync"

	"github.com/vechain/govcore/kv"
	"github.com/vechain/govcore/storage"
)

const statsKey = "global"

// statsStore keeps the ledger wide totals in a single record.
type statsStore struct {
	mu      sync.Mutex
	mapping *storage.Mapping[*Stats]
}

func newStatsStore(store kv.Store) *statsStore {
	return &statsStore{mapping: storage.NewMapping[*Stats](store, "staking/stats", 1)}
}

func emptyStats() *Stats {
	return &Stats{
		TotalStaked:    new(big.Int),
		RewardsAccrued: new(big.Int),
		RewardsPaid:    new(big.Int),
		Penalties:      new(big.Int),
		Slashed:        new(big.Int),
		Withdrawn:      new(big.Int),
	}
}

func (s *statsStore) Get() (*Stats, error) {
	stats, found, err := s.mapping.Get(statsKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return emptyStats(), nil
	}
	return stats, nil
}

// Update applies fn to the totals atomically.
func (s *statsStore) Update(fn func(*Stats)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.Get()
	if err != nil {
		return err
	}
	fn(stats)
	if err := s.mapping.Update(statsKey, stats); err != nil {
		return err
	}
	if stats.TotalStaked.IsInt64() {
		metricTotalStaked().Set(stats.TotalStaked.Int64())
	}
	return nil
}
