// Package store はキーから期限 (Unix ミリ秒) への並行安全なマップを提供します。
//
// Map は所有者 (ExpirySet) と Reaper の 2 者から同時に書き込まれるため、
// 期限一致を条件とした削除 (CompareAndDelete) を備えます。
package store

// Map はシャード分割されたキー→期限マップです。
type Map[K comparable] struct {
	shards    []shard[K]
	shardMask uint32 // Shards が 2^n の場合（hash & mask）で index
}

// New は新しい Map を作成します。
func New[K comparable](opts ...Option) *Map[K] {
	cfg := Config{Shards: 16}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.Shards < 1 {
		cfg.Shards = 16
	}
	// 2 の冪に揃える
	cfg.Shards = nextPowerOfTwo(cfg.Shards)

	s := &Map[K]{
		shards:    make([]shard[K], cfg.Shards),
		shardMask: uint32(cfg.Shards - 1),
	}
	for i := range s.shards {
		s.shards[i].m = make(map[K]int64)
	}
	return s
}

// Load はキーの期限を返します。
func (s *Map[K]) Load(key K) (int64, bool) {
	sh := s.getShard(key)
	sh.mu.RLock()
	d, ok := sh.m[key]
	sh.mu.RUnlock()
	return d, ok
}

// Store はキーの期限を上書きし、既存だったかを返します。
func (s *Map[K]) Store(key K, deadline int64) (existed bool) {
	sh := s.getShard(key)
	sh.mu.Lock()
	_, existed = sh.m[key]
	sh.m[key] = deadline
	sh.mu.Unlock()
	return existed
}

// Delete はキーを無条件に削除し、存在したかを返します。
func (s *Map[K]) Delete(key K) bool {
	sh := s.getShard(key)
	sh.mu.Lock()
	_, existed := sh.m[key]
	if existed {
		delete(sh.m, key)
	}
	sh.mu.Unlock()
	return existed
}

// CompareAndDelete は保持している期限が deadline と一致する場合のみキーを削除します。
func (s *Map[K]) CompareAndDelete(key K, deadline int64) bool {
	sh := s.getShard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	cur, ok := sh.m[key]
	if !ok || cur != deadline {
		return false
	}
	delete(sh.m, key)
	return true
}

// Expire は reaper.Owner の実装です。キーの型が合わない場合は何もしません。
func (s *Map[K]) Expire(key any, deadline int64) bool {
	k, ok := key.(K)
	if !ok {
		return false
	}
	return s.CompareAndDelete(k, deadline)
}

// Len は期限切れを含む保持キー数を返します。
func (s *Map[K]) Len() int {
	total := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		total += len(sh.m)
		sh.mu.RUnlock()
	}
	return total
}

// Range は各キーと期限に対して fn を呼びます。fn が false を返すと終了します。
// シャード単位のスナップショットを走査するため fn 内から Map を更新できます。
func (s *Map[K]) Range(fn func(key K, deadline int64) bool) {
	type kv struct {
		k K
		d int64
	}
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		snap := make([]kv, 0, len(sh.m))
		for k, d := range sh.m {
			snap = append(snap, kv{k, d})
		}
		sh.mu.RUnlock()
		for _, e := range snap {
			if !fn(e.k, e.d) {
				return
			}
		}
	}
}
