package database

import (
	"errors"
	"fmt"
)

var (
	ErrKeyNotFound     = errors.New("key not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

type Backend string

const (
	BACKEND_CHAINED    Backend = "chained"
	BACKEND_EXTENDIBLE Backend = "extendible"
	BACKEND_LINEAR     Backend = "linear"
)

var AVAIL_BACKENDS = []Backend{BACKEND_CHAINED, BACKEND_EXTENDIBLE, BACKEND_LINEAR}

// Dictionary is the contract shared by all backends.
// Implementations hold no locks: callers serialize access.
type Dictionary[K comparable, V any] interface {
	Get(key K) (V, error)
	Add(key K, value V) error
	Set(key K, value V) error
	Remove(key K) error
	Count() int
}

// Stats is a snapshot of a backend's layout.
// Fields that do not apply to a backend stay zero.
type Stats struct {
	Backend       Backend `json:"backend"`
	Count         int     `json:"count"`
	Buckets       int     `json:"buckets"`
	DirectorySize int     `json:"directory_size,omitempty"`
	GlobalDepth   int     `json:"global_depth,omitempty"`
	SplitPointer  int     `json:"split_pointer,omitempty"`
	Base          int     `json:"base,omitempty"`
}

type StatsProvider interface {
	Stats() Stats
}

// New constructs the backend named by backend.
// capacity is the initial table size for chained and the per bucket capacity otherwise.
func New[K comparable, V any](backend Backend, capacity int, hasher Hasher[K]) (Dictionary[K, V], error) {
	var dict Dictionary[K, V]
	var err error
	switch backend {
	case BACKEND_CHAINED:
		dict, err = NewChainedTable[K, V](capacity, hasher)
	case BACKEND_EXTENDIBLE:
		dict, err = NewExtendibleMap[K, V](capacity, hasher)
	case BACKEND_LINEAR:
		dict, err = NewLinearMap[K, V](capacity, hasher)
	default:
		return nil, fmt.Errorf("%w: unknown backend '%s'", ErrInvalidArgument, backend)
	}
	if err != nil {
		return nil, err
	}
	return dict, nil
} // end func New

func ParseBackend(name string) (Backend, error) {
	for _, b := range AVAIL_BACKENDS {
		if string(b) == name {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: unknown backend '%s'", ErrInvalidArgument, name)
}

func checkArgs[K comparable](capacity int, hasher Hasher[K]) error {
	if capacity < 0 {
		return fmt.Errorf("%w: negative capacity %d", ErrInvalidArgument, capacity)
	}
	if hasher == nil {
		return fmt.Errorf("%w: nil hasher", ErrInvalidArgument)
	}
	return nil
}

// nilKey reports an interface typed key holding nil.
func nilKey[K comparable](key K) bool {
	return any(key) == nil
}
