// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/vechain/govcore/kv"
)

// ErrExists is returned by Insert when the key is already taken.
var ErrExists = errors.New("entry already exists")

// Mapping is a typed key/value abstraction over a kv bucket. Values are RLP encoded.
// Every Get decodes a private copy, so callers may mutate the returned value freely
// and write it back with Update.
type Mapping[V any] struct {
	store kv.Store
	raw   *lru.Cache // id -> encoded value
}

// NewMapping creates a mapping stored under the named bucket of src.
// A cacheSize <= 0 disables the raw value cache.
func NewMapping[V any](src kv.Store, name string, cacheSize int) *Mapping[V] {
	m := &Mapping[V]{store: kv.Bucket(name + "/").NewStore(src)}
	if cacheSize > 0 {
		// lru.New only fails for non-positive sizes
		m.raw, _ = lru.New(cacheSize)
	}
	return m
}

func (m *Mapping[V]) newValue() (value V) {
	if t := reflect.TypeOf(value); t != nil && t.Kind() == reflect.Ptr {
		value = reflect.New(t.Elem()).Interface().(V)
	}
	return
}

func (m *Mapping[V]) load(id string) ([]byte, bool, error) {
	if m.raw != nil {
		if v, ok := m.raw.Get(id); ok {
			return v.([]byte), true, nil
		}
	}
	raw, err := m.store.Get([]byte(id))
	if err != nil {
		if m.store.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "load %s", id)
	}
	if m.raw != nil {
		m.raw.Add(id, raw)
	}
	return raw, true, nil
}

// Get returns the value stored under id. found is false when nothing is stored.
func (m *Mapping[V]) Get(id string) (value V, found bool, err error) {
	raw, found, err := m.load(id)
	if err != nil || !found {
		return value, found, err
	}
	value = m.newValue()
	if err := rlp.DecodeBytes(raw, &value); err != nil {
		return value, false, errors.Wrapf(err, "decode %s", id)
	}
	return value, true, nil
}

// Has reports whether a value is stored under id.
func (m *Mapping[V]) Has(id string) (bool, error) {
	_, found, err := m.load(id)
	return found, err
}

// Insert stores a new value. It fails with ErrExists if id is taken.
func (m *Mapping[V]) Insert(id string, value V) error {
	found, err := m.Has(id)
	if err != nil {
		return err
	}
	if found {
		return ErrExists
	}
	return m.put(id, value)
}

// Update overwrites the value stored under id.
func (m *Mapping[V]) Update(id string, value V) error {
	return m.put(id, value)
}

func (m *Mapping[V]) put(id string, value V) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return errors.Wrapf(err, "encode %s", id)
	}
	if err := m.store.Put([]byte(id), raw); err != nil {
		return errors.Wrapf(err, "store %s", id)
	}
	if m.raw != nil {
		m.raw.Add(id, raw)
	}
	return nil
}

// Delete removes the value stored under id.
func (m *Mapping[V]) Delete(id string) error {
	if m.raw != nil {
		m.raw.Remove(id)
	}
	return m.store.Delete([]byte(id))
}

// Iterate calls fn for every stored value in key order until fn returns an error.
func (m *Mapping[V]) Iterate(fn func(id string, value V) error) error {
	it := m.store.Iterate(kv.Range{})
	defer it.Release()

	for it.Next() {
		value := m.newValue()
		if err := rlp.DecodeBytes(it.Value(), &value); err != nil {
			return errors.Wrapf(err, "decode %s", it.Key())
		}
		if err := fn(string(it.Key()), value); err != nil {
			return err
		}
	}
	return it.Error()
}
