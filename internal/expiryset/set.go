// Package expiryset は TTL 付きのキー集合を提供します。
//
// 期限切れキーの削除は共有の reaper.Reaper が行い、Contains でも遅延削除されます。
// Remove や Add による期限更新はキューの古いエントリを残しますが、Reaper の削除は
// 期限一致が条件なので空振りで終わります。
package expiryset

import (
	"time"

	"github.com/amakane-hakari/reapset/internal/clock"
	"github.com/amakane-hakari/reapset/internal/metrics"
	"github.com/amakane-hakari/reapset/internal/reaper"
	"github.com/amakane-hakari/reapset/internal/store"
)

// ExpirySet は TTL 付きのキー集合です。
type ExpirySet[T comparable] struct {
	cfg    Config
	m      *store.Map[T]
	reaper *reaper.Reaper
	clock  clock.Clock
}

// New は r を共有 Reaper とする ExpirySet を作成します。時刻源は r のものを使います。
func New[T comparable](r *reaper.Reaper, opts ...Option) *ExpirySet[T] {
	cfg := Config{Shards: 16}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Noop{}
	}
	return &ExpirySet[T]{
		cfg:    cfg,
		m:      store.New[T](store.WithShards(cfg.Shards)),
		reaper: r,
		clock:  r.Clock(),
	}
}

// Add は t を ttl の間だけ集合に入れ、t を返します。既存の期限は上書きされます。
// ttl <= 0 は追加時点で期限切れとして扱います。
func (s *ExpirySet[T]) Add(t T, ttl time.Duration) T {
	deadline := deadlineMillis(s.clock.Now(), ttl)
	existed := s.m.Store(t, deadline)
	if existed {
		s.cfg.Metrics.IncAddRefresh()
	} else {
		s.cfg.Metrics.IncAddNew()
	}

	if err := s.reaper.Add(reaper.Entry{Deadline: deadline, Owner: s.m, Key: t}); err != nil {
		// Reaper 停止後も Contains による遅延削除は働く
		if s.cfg.Logger != nil {
			s.cfg.Logger.Error("expiryset.schedule", "key", t, "err", err)
		}
	}

	if s.cfg.Logger != nil {
		if existed {
			s.cfg.Logger.Debug("expiryset.refresh", "key", t, "ttl", ttl.String())
		} else {
			s.cfg.Logger.Debug("expiryset.add", "key", t, "ttl", ttl.String())
		}
	}
	return t
}

// Contains は t が期限内で集合に含まれるかを返します。期限切れなら遅延削除します。
func (s *ExpirySet[T]) Contains(t T) bool {
	deadline, ok := s.m.Load(t)
	if !ok {
		s.cfg.Metrics.IncContainsMiss()
		return false
	}
	if deadline <= s.clock.Now().UnixMilli() {
		// 読み取り後に他ゴルーチンが Add していれば期限が変わっているので消さない
		if s.m.CompareAndDelete(t, deadline) {
			s.cfg.Metrics.AddLazyExpired(1)
			if s.cfg.Logger != nil {
				s.cfg.Logger.Debug("expiryset.lazy_expired", "key", t)
			}
		}
		s.cfg.Metrics.IncContainsMiss()
		return false
	}
	s.cfg.Metrics.IncContainsHit()
	return true
}

// Remove は t を無条件に削除し、t を返します。
func (s *ExpirySet[T]) Remove(t T) T {
	if s.m.Delete(t) && s.cfg.Logger != nil {
		s.cfg.Logger.Debug("expiryset.remove", "key", t)
	}
	return t
}

// Len は期限内のキー数を返します。
func (s *ExpirySet[T]) Len() int {
	now := s.clock.Now().UnixMilli()
	total := 0
	s.m.Range(func(_ T, deadline int64) bool {
		if deadline > now {
			total++
		}
		return true
	})
	return total
}

// Keys は期限内のキーのスナップショットを返します。順序は不定です。
func (s *ExpirySet[T]) Keys() []T {
	now := s.clock.Now().UnixMilli()
	var keys []T
	s.m.Range(func(k T, deadline int64) bool {
		if deadline > now {
			keys = append(keys, k)
		}
		return true
	})
	return keys
}

// deadlineMillis は now+ttl を Unix ミリ秒で返します。ttl > 0 なら切り上げるので、
// ミリ秒境界の途中で追加された短い ttl でも追加直後に期限切れにはなりません。
func deadlineMillis(now time.Time, ttl time.Duration) int64 {
	ns := now.Add(ttl).UnixNano()
	ms := ns / int64(time.Millisecond)
	if ttl > 0 && ns%int64(time.Millisecond) > 0 {
		ms++
	}
	return ms
}
