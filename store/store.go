// Package store is the durable, namespaced key-value layer described in
// §4.1. It wraps goleveldb the way the teacher's dbaccess/database2 pair
// wraps its own storage engine: a thin DataAccessor-shaped interface in
// front of a concrete on-disk driver, with atomic batched writes as a
// first-class type rather than a side channel.
package store

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
)

// ErrNotFound is returned by Get when the key is absent, mirroring §4.1's
// "get(key) → value | absent".
var ErrNotFound = errors.New("store: key not found")

// Key namespace prefixes named in §4.1 and §6.
const (
	PrefixBlock    = "block_"
	PrefixMetadata = "metadata_"
	PrefixHeight   = "height_"
	PrefixAddress  = "addr_"
	PrefixTxHash   = "txhash_"
	KeyPeers       = "peers"
)

// BlockKey builds the block_<hh> key for a header hash.
func BlockKey(headerHash [32]byte) []byte {
	return append([]byte(PrefixBlock), headerHash[:]...)
}

// MetadataKey builds the metadata_<hh> key for a header hash.
func MetadataKey(headerHash [32]byte) []byte {
	return append([]byte(PrefixMetadata), headerHash[:]...)
}

// HeightKey builds the height_<n> key for a block height.
func HeightKey(height uint64) []byte {
	return append([]byte(PrefixHeight), encodeUint64(height)...)
}

// AddressKey builds the addr_<a> key for an address.
func AddressKey(address [20]byte) []byte {
	return append([]byte(PrefixAddress), address[:]...)
}

// TxHashKey builds the txhash_<h> key for a transaction hash.
func TxHashKey(txHash [32]byte) []byte {
	return append([]byte(PrefixTxHash), txHash[:]...)
}

func encodeUint64(n uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(n)
		n >>= 8
	}
	return b
}

// Batch groups a set of writes that must be committed atomically, per
// §4.1: "every mutation that crosses a block boundary ... must be grouped
// into one batch."
type Batch struct {
	inner *leveldb.Batch
}

// Put stages a write of value at key within the batch.
func (b *Batch) Put(key, value []byte) {
	b.inner.Put(key, value)
}

// Delete stages a deletion of key within the batch.
func (b *Batch) Delete(key []byte) {
	b.inner.Delete(key)
}

// Len returns the number of staged operations.
func (b *Batch) Len() int {
	return b.inner.Len()
}

// Store is the single source of truth across restarts (§4.1). All
// mutations that must be durable go through Put/Delete directly, or
// through a Batch committed with Commit for all-or-nothing semantics.
type Store struct {
	db *leveldb.DB
}

// Open opens (creating if necessary) a goleveldb database at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "opening state store at %s", path)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value stored at key, or ErrNotFound if absent.
func (s *Store) Get(key []byte) ([]byte, error) {
	value, err := s.db.Get(key, nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting key %x", key)
	}
	return value, nil
}

// Has reports whether key is present.
func (s *Store) Has(key []byte) (bool, error) {
	ok, err := s.db.Has(key, nil)
	if err != nil {
		return false, errors.Wrapf(err, "checking key %x", key)
	}
	return ok, nil
}

// Put writes value at key outside of any batch. Callers that need
// all-or-nothing durability across several keys must use NewBatch/Commit
// instead.
func (s *Store) Put(key, value []byte) error {
	if err := s.db.Put(key, value, nil); err != nil {
		return errors.Wrapf(err, "putting key %x", key)
	}
	return nil
}

// Delete removes key outside of any batch.
func (s *Store) Delete(key []byte) error {
	if err := s.db.Delete(key, nil); err != nil {
		return errors.Wrapf(err, "deleting key %x", key)
	}
	return nil
}

// NewBatch begins a new atomic batch of writes.
func (s *Store) NewBatch() *Batch {
	return &Batch{inner: new(leveldb.Batch)}
}

// Commit durably applies every operation staged in batch as a single
// atomic write.
func (s *Store) Commit(batch *Batch) error {
	if err := s.db.Write(batch.inner, nil); err != nil {
		return errors.Wrap(err, "committing batch")
	}
	return nil
}

// Iterate calls fn for every key with the given prefix, in key order,
// stopping early if fn returns false. Used by chain reload and by the
// peer-list loader.
func (s *Store) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	iter := s.db.NewIterator(rangeForPrefix(prefix), nil)
	defer iter.Release()
	for iter.Next() {
		if !fn(iter.Key(), iter.Value()) {
			break
		}
	}
	return errors.Wrap(iter.Error(), "iterating store")
}
