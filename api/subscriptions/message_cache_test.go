// Copyright (c) 2024 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageCache_GetOrAdd(t *testing.T) {
	cache := newMessageCache(10)

	var created atomic.Int32
	var wg sync.WaitGroup
	for iter := 0; iter < 10; iter++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			msg, _, err := cache.GetOrAdd("ev-1", func() ([]byte, error) {
				created.Add(1)
				return []byte("payload"), nil
			})
			assert.NoError(t, err)
			assert.Equal(t, []byte("payload"), msg)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), created.Load())

	_, isNew, err := cache.GetOrAdd("ev-2", func() ([]byte, error) { return nil, errors.New("boom") })
	assert.Error(t, err)
	assert.False(t, isNew)

	_, isNew, err = cache.GetOrAdd("ev-2", func() ([]byte, error) { return []byte("ok"), nil })
	assert.NoError(t, err)
	assert.True(t, isNew)
}

func TestMessageCache_ZeroSize(t *testing.T) {
	cache := newMessageCache(0)
	for _, id := range []string{"a", "b"} {
		_, _, err := cache.GetOrAdd(id, func() ([]byte, error) { return []byte(id), nil })
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, cache.cache.Len())
	assert.True(t, cache.cache.Contains("b"))
}
