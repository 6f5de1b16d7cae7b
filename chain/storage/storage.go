// Package storage is a thin goleveldb-backed keyed store, grounded on
// the teacher's StateDB (chain/node/blockchain.go): prefix-namespaced
// keys over a single on-disk leveldb.DB, with a canonical
// little-endian binary codec per account type in place of the
// teacher's ad hoc JSON/byte-slice mix.
package storage

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/finova-net/finova-core/chain/types"
)

// Key namespace prefixes, one byte per account type.
const (
	prefixMining    byte = 'm'
	prefixReferral  byte = 'r'
	prefixStaking   byte = 's'
	prefixRewards   byte = 'w'
	prefixValidator byte = 'v'
	prefixProposal  byte = 'p'
	prefixPool      byte = 'o' // singleton network pools (mining.Pool, staking.Pool, rewardpool.Pool)
)

// Store wraps a single leveldb.DB with namespaced Put/Get/Delete and
// per-account-type Save/Load helpers.
type Store struct {
	db *leveldb.DB
}

// Open opens (creating if absent) a leveldb database at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func keyFor(prefix byte, addr types.Address) []byte {
	key := make([]byte, 1+types.AddressLength)
	key[0] = prefix
	copy(key[1:], addr[:])
	return key
}

func singletonKey(prefix byte, name string) []byte {
	key := make([]byte, 1+len(name))
	key[0] = prefix
	copy(key[1:], name)
	return key
}

func (s *Store) put(key, value []byte) error {
	return s.db.Put(key, value, nil)
}

func (s *Store) get(key []byte) ([]byte, error) {
	value, err := s.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	return value, err
}

func (s *Store) delete(key []byte) error {
	return s.db.Delete(key, nil)
}

// ErrNotFound is returned when a keyed lookup has no record.
var ErrNotFound = leveldb.ErrNotFound
