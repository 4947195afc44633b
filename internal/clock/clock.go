// Package clock は時刻とタイマーの抽象を提供します。
package clock

import (
	"sync"
	"time"
)

// Clock は現在時刻と絶対時刻指定のタイマーを提供します。
type Clock interface {
	Now() time.Time
	// TimerAt は at に達した時点で発火するタイマーを返します。
	TimerAt(at time.Time) Timer
}

// Timer は一度だけ発火するタイマーです。
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// epoch はプロセス起動時の時刻です。モノトニック時計の読みを保持します。
var epoch = time.Now()

// Real は実時間の Clock です。
//
// Now は epoch の壁時計にモノトニックな経過時間を足した値なので、UnixMilli に
// 変換した期限もシステム時計の巻き戻しや飛びの影響を受けません。
type Real struct{}

// Now は現在時刻を返します。
func (Real) Now() time.Time { return epoch.Add(time.Since(epoch)) }

// TimerAt は time.Timer を使ったタイマーを返します。
// at はモノトニック成分を持たないことがあるので、差分は Now との壁時計成分で取ります。
func (c Real) TimerAt(at time.Time) Timer {
	return &realTimer{t: time.NewTimer(at.Round(0).Sub(c.Now().Round(0)))}
}

type realTimer struct {
	t *time.Timer
}

func (r *realTimer) C() <-chan time.Time { return r.t.C }
func (r *realTimer) Stop() bool          { return r.t.Stop() }

// Fake は手動で進めるテスト用の Clock です。
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

// NewFake は start を現在時刻とする Fake を作成します。
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now は現在の疑似時刻を返します。
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// TimerAt は疑似時刻が at に達したときに発火するタイマーを返します。
// at が既に過去なら即座に発火します。
func (f *Fake) TimerAt(at time.Time) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{f: f, at: at, c: make(chan time.Time, 1)}
	if !at.After(f.now) {
		t.c <- f.now
		return t
	}
	f.timers = append(f.timers, t)
	return t
}

// Advance は疑似時刻を d 進め、期限に達したタイマーを発火させます。
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	pending := f.timers[:0]
	for _, t := range f.timers {
		if !t.at.After(f.now) {
			t.c <- f.now
			continue
		}
		pending = append(pending, t)
	}
	f.timers = pending
}

// Timers は未発火のタイマー数を返します。
func (f *Fake) Timers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

type fakeTimer struct {
	f  *Fake
	at time.Time
	c  chan time.Time
}

func (t *fakeTimer) C() <-chan time.Time { return t.c }

func (t *fakeTimer) Stop() bool {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	for i, x := range t.f.timers {
		if x == t {
			t.f.timers = append(t.f.timers[:i], t.f.timers[i+1:]...)
			return true
		}
	}
	return false
}
