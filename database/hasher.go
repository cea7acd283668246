package database

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"hash/fnv"
	"sync"

	"github.com/cespare/xxhash"
	"github.com/dchest/siphash"
	"golang.org/x/exp/constraints"
)

const (
	HASH_siphash = 0x01
	HASH_FNV32A  = 0x02
	HASH_FNV64A  = 0x03
	HASH_XXHASH  = 0x04
	HASH_CRC32   = 0x05
)

var HASHMODES = map[int]string{
	HASH_siphash: "siphash",
	HASH_FNV32A:  "fnv32a",
	HASH_FNV64A:  "fnv64a",
	HASH_XXHASH:  "xxhash",
	HASH_CRC32:   "crc32",
}

// Hasher maps a key to a deterministic 64 bit hash.
type Hasher[K comparable] func(key K) uint64

var (
	once       sync.Once
	SALT       [16]byte
	key0, key1 uint64
)

// IntHasher hashes integers to themselves,
// so the bucket a key lands in can be predicted.
func IntHasher[K constraints.Integer]() Hasher[K] {
	return func(key K) uint64 {
		return uint64(key)
	}
}

// StringHasher returns the string hasher for hashmode.
func StringHasher(hashmode int) (Hasher[string], error) {
	switch hashmode {
	case HASH_siphash:
		GenerateSALT()
		return func(key string) uint64 {
			return siphash.Hash(key0, key1, []byte(key))
		}, nil
	case HASH_FNV32A:
		return func(key string) uint64 {
			h := fnv.New32a()
			h.Write([]byte(key))
			return uint64(h.Sum32())
		}, nil
	case HASH_FNV64A:
		return func(key string) uint64 {
			h := fnv.New64a()
			h.Write([]byte(key))
			return h.Sum64()
		}, nil
	case HASH_XXHASH:
		return func(key string) uint64 {
			return xxhash.Sum64([]byte(key))
		}, nil
	case HASH_CRC32:
		return func(key string) uint64 {
			return uint64(crc32.ChecksumIEEE([]byte(key)))
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown hashmode %d", ErrInvalidArgument, hashmode)
} // end func StringHasher

// GenerateSALT fills SALT with 16 random alphanumeric bytes once per process
// and derives the siphash keys from it.
func GenerateSALT() {
	once.Do(func() {
		cs := "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
		var rnd [16]byte
		if _, err := crand.Read(rnd[:]); err != nil {
			panic(fmt.Sprintf("GenerateSALT crand.Read err='%v'", err))
		}
		for i := range SALT {
			SALT[i] = cs[int(rnd[i])%len(cs)]
		}
		key0, key1 = SipHashSplit(SALT)
	})
}

// SipHashSplit splits a 16 byte salt into the two siphash keys.
func SipHashSplit(salt [16]byte) (uint64, uint64) {
	return binary.LittleEndian.Uint64(salt[:8]), binary.LittleEndian.Uint64(salt[8:16])
}
