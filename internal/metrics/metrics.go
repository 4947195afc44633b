package metrics

import (
	"sync/atomic"
)

// Interface はメトリクス更新用抽象
type Interface interface {
	IncAddNew()
	IncAddRefresh()
	IncContainsHit()
	IncContainsMiss()
	AddLazyExpired(n int)
	AddReaped(n int)
	AddStale(n int)
	SetQueueDepth(n int)
}

// Noop は何もしないメトリクス実装
type Noop struct{}

// IncAddNew は何もしないメトリクス実装
func (Noop) IncAddNew() {}

// IncAddRefresh は何もしないメトリクス実装
func (Noop) IncAddRefresh() {}

// IncContainsHit は何もしないメトリクス実装
func (Noop) IncContainsHit() {}

// IncContainsMiss は何もしないメトリクス実装
func (Noop) IncContainsMiss() {}

// AddLazyExpired は何もしないメトリクス実装
func (Noop) AddLazyExpired(_ int) {}

// AddReaped は何もしないメトリクス実装
func (Noop) AddReaped(_ int) {}

// AddStale は何もしないメトリクス実装
func (Noop) AddStale(_ int) {}

// SetQueueDepth は何もしないメトリクス実装
func (Noop) SetQueueDepth(_ int) {}

// Simple はシンプルなメトリクス実装です。
type Simple struct {
	AddNew       atomic.Uint64
	AddRefresh   atomic.Uint64
	ContainsHit  atomic.Uint64
	ContainsMiss atomic.Uint64
	LazyExpired  atomic.Uint64
	Reaped       atomic.Uint64
	Stale        atomic.Uint64
	QueueDepth   atomic.Uint64
}

// NewSimple は新しい Simple メトリクスを作成します。
func NewSimple() *Simple { return &Simple{} }

// IncAddNew は新しいキーが追加されたことをカウントします。
func (m *Simple) IncAddNew() { m.AddNew.Add(1) }

// IncAddRefresh は既存キーの期限が更新されたことをカウントします。
func (m *Simple) IncAddRefresh() { m.AddRefresh.Add(1) }

// IncContainsHit は Contains のヒットをカウントします。
func (m *Simple) IncContainsHit() { m.ContainsHit.Add(1) }

// IncContainsMiss は Contains のミスをカウントします。
func (m *Simple) IncContainsMiss() { m.ContainsMiss.Add(1) }

// AddLazyExpired は Contains で遅延削除されたキーの数を加算します。
func (m *Simple) AddLazyExpired(n int) {
	if n > 0 {
		m.LazyExpired.Add(uint64(n))
	}
}

// AddReaped は Reaper が削除したキーの数を加算します。
func (m *Simple) AddReaped(n int) {
	if n > 0 {
		m.Reaped.Add(uint64(n))
	}
}

// AddStale は空振りに終わった期限エントリの数を加算します。
func (m *Simple) AddStale(n int) {
	if n > 0 {
		m.Stale.Add(uint64(n))
	}
}

// SetQueueDepth は期限キューの長さを設定します。
func (m *Simple) SetQueueDepth(n int) {
	if n >= 0 {
		m.QueueDepth.Store(uint64(n))
	}
}
