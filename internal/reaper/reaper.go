// Package reaper は複数の期限付きマップで共有される期限切れ削除ワーカーを提供します。
//
// Reaper は期限の最小ヒープを 1 本の goroutine で処理します。先頭の期限まで待機し、
// より早い期限が追加されたら起こされて先頭を再評価します。削除は Owner.Expire による
// 期限一致の条件付き削除なので、期限更新や明示削除で古くなったエントリは空振りで終わります。
package reaper

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amakane-hakari/reapset/internal/clock"
	"github.com/amakane-hakari/reapset/internal/metrics"
)

var (
	// ErrStopped は停止済みの Reaper への操作を表します。
	ErrStopped = errors.New("reaper: stopped")
	// ErrNilOwner は Owner を持たないエントリを表します。
	ErrNilOwner = errors.New("reaper: entry has nil owner")
)

// State は Reaper のライフサイクル状態です。
type State int32

const (
	// StateIdle は Start 前の状態です。
	StateIdle State = iota
	// StateRunning はワーカーが動作中の状態です。
	StateRunning
	// StateStopped は Stop 後の終端状態です。
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// MarshalText は State を文字列として JSON 化するための実装です。
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Health はワーカーの状態スナップショットです。
type Health struct {
	State        State      `json:"state"`
	Pending      int        `json:"pending"`
	Reaped       uint64     `json:"reaped"`
	Stale        uint64     `json:"stale"`
	NextDeadline *time.Time `json:"next_deadline,omitempty"`
}

// Reaper は期限切れキーを所有者のマップから削除する共有ワーカーです。
type Reaper struct {
	cfg Config

	mu    sync.Mutex
	queue deadlineQueue
	seq   uint64
	state State

	wake   chan struct{}
	stopCh chan struct{}
	wg     sync.WaitGroup

	reaped atomic.Uint64
	stale  atomic.Uint64
}

// New は新しい Reaper を作成します。ワーカーは Start まで動きません。
func New(opts ...Option) *Reaper {
	cfg := Config{}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Noop{}
	}
	return &Reaper{
		cfg:    cfg,
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
	}
}

// Clock は Reaper が使う時刻源を返します。
func (r *Reaper) Clock() clock.Clock { return r.cfg.Clock }

// Start はワーカーを起動します。起動済みなら何もしません。
func (r *Reaper) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case StateStopped:
		return ErrStopped
	case StateRunning:
		return nil
	}
	r.state = StateRunning
	r.wg.Add(1)
	go r.loop()
	if r.cfg.Logger != nil {
		r.cfg.Logger.Info("reaper.start", "pending", r.queue.Len())
	}
	return nil
}

// Stop はワーカーを停止し、終了を待ちます。以降の Add は ErrStopped を返します。
// 未処理のエントリは破棄されます。
func (r *Reaper) Stop() {
	r.mu.Lock()
	if r.state == StateStopped {
		r.mu.Unlock()
		return
	}
	r.state = StateStopped
	dropped := r.queue.Len()
	r.queue = nil
	r.cfg.Metrics.SetQueueDepth(0)
	r.mu.Unlock()

	close(r.stopCh)
	r.wg.Wait()

	if r.cfg.Logger != nil {
		r.cfg.Logger.Info("reaper.stop", "dropped", dropped, "reaped", r.reaped.Load(), "stale", r.stale.Load())
	}
}

// Add はエントリをキューに追加し、ワーカーを起こします。ブロックしません。
func (r *Reaper) Add(e Entry) error {
	if e.Owner == nil {
		return ErrNilOwner
	}
	r.mu.Lock()
	if r.state == StateStopped {
		r.mu.Unlock()
		return ErrStopped
	}
	r.seq++
	r.queue.push(queued{Entry: e, seq: r.seq})
	r.cfg.Metrics.SetQueueDepth(r.queue.Len())
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
	return nil
}

// Len は未処理のエントリ数を返します。
func (r *Reaper) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queue.Len()
}

// State は現在の状態を返します。
func (r *Reaper) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Health は状態のスナップショットを返します。
func (r *Reaper) Health() Health {
	r.mu.Lock()
	h := Health{State: r.state, Pending: r.queue.Len()}
	if head, ok := r.queue.peek(); ok {
		t := time.UnixMilli(head.Deadline)
		h.NextDeadline = &t
	}
	r.mu.Unlock()
	h.Reaped = r.reaped.Load()
	h.Stale = r.stale.Load()
	return h
}

func (r *Reaper) loop() {
	defer r.wg.Done()
	for {
		next, ok := r.drain()

		// キューが空なら fire は nil のままなので wake か stop まで待つ
		var timer clock.Timer
		var fire <-chan time.Time
		if ok {
			timer = r.cfg.Clock.TimerAt(time.UnixMilli(next))
			fire = timer.C()
		}

		select {
		case <-r.wake:
		case <-fire:
		case <-r.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// drain は期限到達済みのエントリを先頭から処理し、次の期限を返します。
// Owner.Expire はキューのロックを保持したまま呼びます。
func (r *Reaper) drain() (next int64, ok bool) {
	reaped, stale := 0, 0

	r.mu.Lock()
	now := r.cfg.Clock.Now().UnixMilli()
	for {
		head, has := r.queue.peek()
		if !has {
			break
		}
		if head.Deadline-now > 0 {
			next, ok = head.Deadline, true
			break
		}
		r.queue.pop()
		if head.Owner.Expire(head.Key, head.Deadline) {
			reaped++
		} else {
			stale++
		}
	}
	depth := r.queue.Len()
	// ゲージは Add と同じロック下で更新しないと古い値で上書きされうる
	if reaped+stale > 0 {
		r.cfg.Metrics.SetQueueDepth(depth)
	}
	r.mu.Unlock()

	if reaped+stale == 0 {
		return next, ok
	}
	r.reaped.Add(uint64(reaped))
	r.stale.Add(uint64(stale))
	r.cfg.Metrics.AddReaped(reaped)
	r.cfg.Metrics.AddStale(stale)
	if r.cfg.Logger != nil {
		r.cfg.Logger.Debug("reaper.evict", "reaped", reaped, "stale", stale, "pending", depth)
	}
	return next, ok
}
