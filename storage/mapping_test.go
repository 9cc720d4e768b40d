// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/govcore/lvldb"
)

type testStruct struct {
	Name   string
	Amount *big.Int
	Flag   bool
	Tags   []string
}

func newTestStore(t *testing.T) *lvldb.LevelDB {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMapping_InsertGetUpdate(t *testing.T) {
	for _, cacheSize := range []int{0, 16} {
		mapping := NewMapping[*testStruct](newTestStore(t), "test", cacheSize)

		got, found, err := mapping.Get("missing")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, got)

		value := &testStruct{Name: "a", Amount: big.NewInt(42), Flag: true, Tags: []string{"x"}}
		require.NoError(t, mapping.Insert("k", value))
		assert.ErrorIs(t, mapping.Insert("k", value), ErrExists)

		got, found, err = mapping.Get("k")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, value, got)

		// returned values are private copies
		got.Amount.SetInt64(1)
		again, _, err := mapping.Get("k")
		require.NoError(t, err)
		assert.Equal(t, int64(42), again.Amount.Int64())

		again.Name = "b"
		require.NoError(t, mapping.Update("k", again))
		got, _, err = mapping.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "b", got.Name)

		require.NoError(t, mapping.Delete("k"))
		has, err := mapping.Has("k")
		require.NoError(t, err)
		assert.False(t, has)
	}
}

func TestMapping_Iterate(t *testing.T) {
	db := newTestStore(t)
	m1 := NewMapping[*testStruct](db, "one", 0)
	m2 := NewMapping[*testStruct](db, "one-more", 0)

	require.NoError(t, m1.Insert("b", &testStruct{Name: "b", Amount: big.NewInt(2)}))
	require.NoError(t, m1.Insert("a", &testStruct{Name: "a", Amount: big.NewInt(1)}))
	require.NoError(t, m2.Insert("c", &testStruct{Name: "c", Amount: big.NewInt(3)}))

	var names []string
	require.NoError(t, m1.Iterate(func(id string, v *testStruct) error {
		assert.Equal(t, id, v.Name)
		names = append(names, v.Name)
		return nil
	}))
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestIndex(t *testing.T) {
	ix := NewIndex(newTestStore(t), "idx")

	require.NoError(t, ix.Add("alice", "s2"))
	require.NoError(t, ix.Add("alice", "s1"))
	require.NoError(t, ix.Add("alice", "s2"))
	require.NoError(t, ix.Add("bob", "s3"))

	ids, err := ix.List("alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"s2", "s1"}, ids)

	keys, err := ix.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, keys)

	require.NoError(t, ix.Remove("bob", "s3"))
	ids, err = ix.List("bob")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestIndex_ConcurrentAdd(t *testing.T) {
	ix := NewIndex(newTestStore(t), "idx")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, ix.Add("owner", big.NewInt(int64(i)).String()))
		}()
	}
	wg.Wait()

	ids, err := ix.List("owner")
	require.NoError(t, err)
	assert.Len(t, ids, 50)
}

func TestLocker_LockMany(t *testing.T) {
	var l Locker
	counter := 0

	var wg sync.WaitGroup
	for iter := 0; iter < 20; iter++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unlock := l.LockMany("a", "b")
			counter++
			unlock()
		}()
		go func() {
			defer wg.Done()
			unlock := l.LockMany("b", "a", "a")
			counter++
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 40, counter)
}
