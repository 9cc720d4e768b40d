// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"slices"

	"github.com/vechain/govcore/kv"
)

// Index keeps an insertion ordered list of ids per key, e.g. owner -> stake ids.
// Index operations are serialised per key internally.
type Index struct {
	lists *Mapping[[]string]
	locks Locker
}

// NewIndex creates an index stored under the named bucket of src.
func NewIndex(src kv.Store, name string) *Index {
	return &Index{lists: NewMapping[[]string](src, name, 1024)}
}

// Add appends id to the list of key. Adding an id twice is a no-op.
func (ix *Index) Add(key, id string) error {
	unlock := ix.locks.Lock(key)
	defer unlock()

	ids, _, err := ix.lists.Get(key)
	if err != nil {
		return err
	}
	if slices.Contains(ids, id) {
		return nil
	}
	return ix.lists.Update(key, append(ids, id))
}

// Remove drops id from the list of key.
func (ix *Index) Remove(key, id string) error {
	unlock := ix.locks.Lock(key)
	defer unlock()

	ids, found, err := ix.lists.Get(key)
	if err != nil || !found {
		return err
	}
	ids = slices.DeleteFunc(ids, func(s string) bool { return s == id })
	if len(ids) == 0 {
		return ix.lists.Delete(key)
	}
	return ix.lists.Update(key, ids)
}

// List returns the ids of key in insertion order.
func (ix *Index) List(key string) ([]string, error) {
	ids, _, err := ix.lists.Get(key)
	return ids, err
}

// Keys returns every key holding at least one id.
func (ix *Index) Keys() ([]string, error) {
	var keys []string
	err := ix.lists.Iterate(func(key string, _ []string) error {
		keys = append(keys, key)
		return nil
	})
	return keys, err
}
