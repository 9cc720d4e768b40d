// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"hash/fnv"
	"slices"
	"sync"
)

const lockShards = 256

// Locker serialises mutations per entity key. Keys are hashed onto a fixed set of
// mutexes, so two keys may share a shard but one key always maps to the same one.
// The zero value is ready to use.
type Locker struct {
	shards [lockShards]sync.Mutex
}

func shardOf(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % lockShards)
}

// Lock acquires the lock of key and returns the matching unlock func.
func (l *Locker) Lock(key string) func() {
	mu := &l.shards[shardOf(key)]
	mu.Lock()
	return mu.Unlock
}

// LockMany acquires the locks of all keys in shard order, so concurrent
// callers with overlapping keys cannot deadlock.
func (l *Locker) LockMany(keys ...string) func() {
	shards := make([]int, 0, len(keys))
	for _, k := range keys {
		shards = append(shards, shardOf(k))
	}
	slices.Sort(shards)
	shards = slices.Compact(shards)

	for _, s := range shards {
		l.shards[s].Lock()
	}
	return func() {
		for i := len(shards) - 1; i >= 0; i-- {
			l.shards[shards[i]].Unlock()
		}
	}
}
