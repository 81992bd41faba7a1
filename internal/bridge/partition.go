package bridge

import (
	"fmt"
	"hash/fnv"
	"sync"
)

// Scheme is the policy mapping an emitted record to a log partition.
type Scheme string

const (
	SchemeRoundRobin Scheme = "round_robin"
	SchemeHashKey    Scheme = "hash_key"
	SchemeHashValue  Scheme = "hash_value"
)

func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case SchemeRoundRobin, SchemeHashKey, SchemeHashValue:
		return Scheme(s), nil
	}
	return "", fmt.Errorf("unknown partition scheme %q", s)
}

// Selector picks the target partition for an emitted record. The
// round-robin cursor belongs to the selector instance; callers on
// different goroutines are serialized by its mutex.
type Selector struct {
	scheme     Scheme
	partitions int32

	mu     sync.Mutex
	cursor int32
}

func NewSelector(scheme Scheme, partitions int32) (*Selector, error) {
	if partitions < 1 {
		return nil, fmt.Errorf("partition count %d, want >= 1", partitions)
	}
	if _, err := ParseScheme(string(scheme)); err != nil {
		return nil, err
	}
	return &Selector{scheme: scheme, partitions: partitions, cursor: -1}, nil
}

// Select returns a partition index in [0, partitions).
func (s *Selector) Select(key, value []byte) int32 {
	switch s.scheme {
	case SchemeHashKey:
		if key == nil {
			return 0
		}
		return hash32(key) % s.partitions
	case SchemeHashValue:
		return hash32(value) % s.partitions
	default:
		s.mu.Lock()
		defer s.mu.Unlock()
		s.cursor = (s.cursor + 1) % s.partitions
		return s.cursor
	}
}

const hashMask = uint32(0x7fffffff)

// hash32 returns a non-negative FNV-1a hash so the modulo above can
// never produce a negative partition.
func hash32(b []byte) int32 {
	h := fnv.New32a()
	h.Write(b)
	return int32(h.Sum32() & hashMask)
}
