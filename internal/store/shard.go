package store

import "sync"

type shard[K comparable] struct {
	mu sync.RWMutex
	m  map[K]int64
}

func (s *Map[K]) getShard(key K) *shard[K] {
	h := s.hashKey(key)
	return &s.shards[h&s.shardMask]
}
