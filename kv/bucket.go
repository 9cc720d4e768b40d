// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Bucket provides a logical bucket for a kv store. Every key written through the
// bucket is prefixed with the bucket name.
type Bucket string

func (b Bucket) key(key []byte) []byte {
	k := make([]byte, 0, len(b)+len(key))
	k = append(k, b...)
	return append(k, key...)
}

// NewStore creates a bucket store from the source store.
func (b Bucket) NewStore(src Store) Store {
	return &bucketStore{bucket: b, src: src}
}

type bucketStore struct {
	bucket Bucket
	src    Store
}

func (s *bucketStore) Get(key []byte) ([]byte, error) { return s.src.Get(s.bucket.key(key)) }
func (s *bucketStore) Has(key []byte) (bool, error)   { return s.src.Has(s.bucket.key(key)) }
func (s *bucketStore) IsNotFound(err error) bool      { return s.src.IsNotFound(err) }
func (s *bucketStore) Put(key, val []byte) error      { return s.src.Put(s.bucket.key(key), val) }
func (s *bucketStore) Delete(key []byte) error        { return s.src.Delete(s.bucket.key(key)) }
func (s *bucketStore) NewBatch() Batch                { return &bucketBatch{s.bucket, s.src.NewBatch()} }

func (s *bucketStore) Iterate(r Range) Iterator {
	rng := Range{Start: s.bucket.key(r.Start)}
	if len(r.Limit) == 0 {
		rng.Limit = PrefixRange([]byte(s.bucket)).Limit
	} else {
		rng.Limit = s.bucket.key(r.Limit)
	}
	return &bucketIterator{Iterator: s.src.Iterate(rng), prefixLen: len(s.bucket)}
}

type bucketBatch struct {
	bucket Bucket
	src    Batch
}

func (b *bucketBatch) Put(key, val []byte) error { return b.src.Put(b.bucket.key(key), val) }
func (b *bucketBatch) Delete(key []byte) error   { return b.src.Delete(b.bucket.key(key)) }
func (b *bucketBatch) Len() int                  { return b.src.Len() }
func (b *bucketBatch) Write() error              { return b.src.Write() }

// bucketIterator strips the bucket prefix from keys.
type bucketIterator struct {
	Iterator
	prefixLen int
}

func (it *bucketIterator) Key() []byte {
	return it.Iterator.Key()[it.prefixLen:]
}
