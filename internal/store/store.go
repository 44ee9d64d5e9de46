// Package store implements the concurrent in-memory keyspace: a fixed set of
// lock-sharded maps selected by a fast byte-string hash, giving disjoint-key
// operations independent lock paths while keeping same-key operations
// strictly serialized.
package store

import (
	"hash/maphash"
	"strconv"
	"sync"

	"github.com/cyclechain/ignix/internal/interfaces"
)

// defaultNumShards must be a power of two so shard selection can mask
// instead of mod. 64 keeps per-shard contention low at reactor
// worker-count scale without materializing an oversized map array on small
// keyspaces.
const defaultNumShards = 1 << 6

type shard struct {
	mu   sync.RWMutex
	data map[string]interfaces.Value
}

// Store is a sharded concurrent keyspace implementing interfaces.Store.
type Store struct {
	seed   maphash.Seed
	mask   uint64
	shards []*shard
}

// New constructs an empty Store with the default shard count, ready for
// concurrent use.
func New() *Store {
	return NewWithShards(defaultNumShards)
}

// NewWithShards constructs an empty Store with numShards shards. numShards
// must be a power of two; non-power-of-two values are rounded up to the
// next one.
func NewWithShards(numShards int) *Store {
	n := nextPowerOfTwo(numShards)
	s := &Store{seed: maphash.MakeSeed(), mask: uint64(n - 1), shards: make([]*shard, n)}
	for i := range s.shards {
		s.shards[i] = &shard{data: make(map[string]interfaces.Value)}
	}
	return s
}

func nextPowerOfTwo(n int) int {
	if n < 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (s *Store) shardFor(key []byte) *shard {
	return s.shards[s.shardIndex(key)]
}

func (s *Store) shardIndex(key []byte) uint64 {
	var h maphash.Hash
	h.SetSeed(s.seed)
	h.Write(key)
	return h.Sum64() & s.mask
}

// Get returns a copy of the Value stored under key, decoupled from any
// concurrent writer that later mutates the same key.
func (s *Store) Get(key []byte) (interfaces.Value, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	v, ok := sh.data[string(key)]
	sh.mu.RUnlock()
	return v, ok
}

// Set unconditionally publishes value under key.
func (s *Store) Set(key []byte, value interfaces.Value) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	sh.data[string(key)] = value
	sh.mu.Unlock()
}

// Del removes key, reporting whether it was present.
func (s *Store) Del(key []byte) bool {
	sh := s.shardFor(key)
	sh.mu.Lock()
	_, existed := sh.data[string(key)]
	if existed {
		delete(sh.data, string(key))
	}
	sh.mu.Unlock()
	return existed
}

// Exists reports whether key currently holds a value.
func (s *Store) Exists(key []byte) bool {
	sh := s.shardFor(key)
	sh.mu.RLock()
	_, ok := sh.data[string(key)]
	sh.mu.RUnlock()
	return ok
}

// Rename moves the value at from to to, overwriting any existing value at
// to. A no-op when from and to are byte-identical. When from and to land
// in different shards, both shard locks are taken in a fixed index order
// (lower shard index first) so two concurrent renames crossing the same
// pair of shards never deadlock.
func (s *Store) Rename(from, to []byte) bool {
	if string(from) == string(to) {
		return s.Exists(from)
	}

	fi, ti := s.shardIndex(from), s.shardIndex(to)
	fromSh, toSh := s.shards[fi], s.shards[ti]

	if fi == ti {
		fromSh.mu.Lock()
		v, existed := fromSh.data[string(from)]
		if existed {
			delete(fromSh.data, string(from))
			fromSh.data[string(to)] = v
		}
		fromSh.mu.Unlock()
		return existed
	}

	first, second := fromSh, toSh
	if ti < fi {
		first, second = toSh, fromSh
	}
	first.mu.Lock()
	second.mu.Lock()
	v, existed := fromSh.data[string(from)]
	if existed {
		delete(fromSh.data, string(from))
		toSh.data[string(to)] = v
	}
	second.mu.Unlock()
	first.mu.Unlock()
	return existed
}

// Incr atomically increments the integer value at key, installing Integer(1)
// if key is absent, and returns the new value. A Text value is parsed as a
// decimal i64 (parse failure treated as 0); a Blob value is treated as 0 and
// left unmutated.
func (s *Store) Incr(key []byte) int64 {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	v, ok := sh.data[string(key)]
	if !ok {
		sh.data[string(key)] = interfaces.Value{Kind: interfaces.KindInteger, Int: 1}
		return 1
	}

	switch v.Kind {
	case interfaces.KindInteger:
		next := v.Int + 1
		sh.data[string(key)] = interfaces.Value{Kind: interfaces.KindInteger, Int: next}
		return next
	case interfaces.KindText:
		n, err := strconv.ParseInt(string(v.Bytes), 10, 64)
		if err != nil {
			n = 0
		}
		next := n + 1
		sh.data[string(key)] = interfaces.Value{
			Kind:  interfaces.KindText,
			Bytes: []byte(strconv.FormatInt(next, 10)),
		}
		return next
	default: // KindBlob
		return 0
	}
}
