package cache

import (
	"strconv"
	"time"
)

// Cache defines the interface for memoising immutable values
type Cache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}, ttl time.Duration)
	Delete(key string)
	Clear()
}

// SnapshotKey generates the cache key of a knowledge base revision.
// Every write bumps the revision, so a stale key is never read again.
func SnapshotKey(revision uint64) string {
	return "sieve:v1:snapshot:" + strconv.FormatUint(revision, 10)
}

// Nop never stores anything
type Nop struct{}

func (Nop) Get(string) (interface{}, bool)          { return nil, false }
func (Nop) Set(string, interface{}, time.Duration) {}
func (Nop) Delete(string)                           {}
func (Nop) Clear()                                  {}
