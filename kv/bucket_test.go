// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/govcore/kv"
	"github.com/vechain/govcore/lvldb"
)

func TestBucket(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	b1 := kv.Bucket("b1").NewStore(db)
	b2 := kv.Bucket("b2").NewStore(db)

	require.NoError(t, b1.Put([]byte("k"), []byte("v1")))
	require.NoError(t, b2.Put([]byte("k"), []byte("v2")))

	v, err := b1.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	v, err = db.Get([]byte("b2k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), v)

	batch := b1.NewBatch()
	require.NoError(t, batch.Put([]byte("j"), []byte("v3")))
	require.NoError(t, batch.Write())

	it := b1.Iterate(kv.Range{})
	defer it.Release()
	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	require.NoError(t, it.Error())
	assert.Equal(t, []string{"j", "k"}, keys)

	require.NoError(t, b1.Delete([]byte("k")))
	_, err = b1.Get([]byte("k"))
	assert.True(t, b1.IsNotFound(err))
}

func TestPrefixRange(t *testing.T) {
	r := kv.PrefixRange([]byte{0x01, 0xff})
	assert.Equal(t, []byte{0x02}, r.Limit)

	r = kv.PrefixRange([]byte{0xff})
	assert.Nil(t, r.Limit)
}
