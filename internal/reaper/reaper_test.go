package reaper

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amakane-hakari/reapset/internal/clock"
	"github.com/amakane-hakari/reapset/internal/metrics"
)

const (
	waitFor = time.Second
	tick    = time.Millisecond
)

// recordingOwner は削除順を記録する Owner です。
type recordingOwner struct {
	name string
	log  *evictionLog

	mu   sync.Mutex
	keys map[any]int64
}

type evictionLog struct {
	mu    sync.Mutex
	order []string
}

func (l *evictionLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.order = append(l.order, s)
}

func (l *evictionLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.order...)
}

func newOwner(name string, log *evictionLog) *recordingOwner {
	return &recordingOwner{name: name, log: log, keys: map[any]int64{}}
}

func (o *recordingOwner) put(key string, deadline int64) Entry {
	o.mu.Lock()
	o.keys[key] = deadline
	o.mu.Unlock()
	return Entry{Deadline: deadline, Owner: o, Key: key}
}

func (o *recordingOwner) has(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.keys[key]
	return ok
}

func (o *recordingOwner) Expire(key any, deadline int64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if cur, ok := o.keys[key]; !ok || cur != deadline {
		return false
	}
	delete(o.keys, key)
	if o.log != nil {
		o.log.add(o.name + ":" + key.(string))
	}
	return true
}

func newFakeReaper(t *testing.T) (*Reaper, *clock.Fake, int64) {
	t.Helper()
	fc := clock.NewFake(time.UnixMilli(1_700_000_000_000))
	r := New(WithClock(fc))
	t.Cleanup(r.Stop)
	return r, fc, fc.Now().UnixMilli()
}

func TestReaper_DeadlineOrderAcrossOwners(t *testing.T) {
	r, fc, t0 := newFakeReaper(t)
	log := &evictionLog{}
	a := newOwner("a", log)
	b := newOwner("b", log)

	require.NoError(t, r.Add(a.put("x", t0+10)))
	require.NoError(t, r.Add(b.put("y", t0+5)))
	require.NoError(t, r.Add(a.put("z", t0+20)))
	require.NoError(t, r.Start())

	fc.Advance(5 * time.Millisecond)
	require.Eventually(t, func() bool { return !b.has("y") }, waitFor, tick)
	require.True(t, a.has("x"))

	fc.Advance(5 * time.Millisecond)
	require.Eventually(t, func() bool { return !a.has("x") }, waitFor, tick)
	require.True(t, a.has("z"))

	fc.Advance(10 * time.Millisecond)
	require.Eventually(t, func() bool { return r.Len() == 0 }, waitFor, tick)
	require.Equal(t, []string{"b:y", "a:x", "a:z"}, log.snapshot())
}

func TestReaper_WakesEarlyForEarlierDeadline(t *testing.T) {
	r, fc, t0 := newFakeReaper(t)
	o := newOwner("o", nil)
	require.NoError(t, r.Start())

	require.NoError(t, r.Add(o.put("late", t0+60_000)))
	require.Eventually(t, func() bool { return fc.Timers() == 1 }, waitFor, tick)

	require.NoError(t, r.Add(o.put("early", t0+5)))
	fc.Advance(5 * time.Millisecond)

	require.Eventually(t, func() bool { return !o.has("early") }, waitFor, tick)
	require.True(t, o.has("late"))
	require.Equal(t, 1, r.Len())
}

func TestReaper_StaleEntryIsNoop(t *testing.T) {
	m := metrics.NewSimple()
	fc := clock.NewFake(time.UnixMilli(0))
	r := New(WithClock(fc), WithMetrics(m))
	t.Cleanup(r.Stop)
	o := newOwner("o", nil)

	require.NoError(t, r.Add(o.put("k", 10)))
	// 期限を延長: 古いエントリはキューに残る
	require.NoError(t, r.Add(o.put("k", 30)))
	require.NoError(t, r.Start())

	fc.Advance(20 * time.Millisecond)
	require.Eventually(t, func() bool { return r.Health().Stale == 1 }, waitFor, tick)
	require.True(t, o.has("k"))
	require.Equal(t, uint64(0), r.Health().Reaped)

	fc.Advance(10 * time.Millisecond)
	require.Eventually(t, func() bool { return !o.has("k") }, waitFor, tick)
	require.Eventually(t, func() bool { return m.Reaped.Load() == 1 }, waitFor, tick)
	require.Equal(t, uint64(1), m.Stale.Load())
}

func TestReaper_AddBeforeStart(t *testing.T) {
	r, fc, t0 := newFakeReaper(t)
	o := newOwner("o", nil)

	require.NoError(t, r.Add(o.put("k", t0)))
	fc.Advance(time.Millisecond)
	require.Equal(t, StateIdle, r.State())
	require.True(t, o.has("k"), "nothing is evicted before Start")

	require.NoError(t, r.Start())
	require.NoError(t, r.Start())
	require.Eventually(t, func() bool { return !o.has("k") }, waitFor, tick)
}

func TestReaper_StopIsTerminal(t *testing.T) {
	r, _, t0 := newFakeReaper(t)
	o := newOwner("o", nil)
	require.NoError(t, r.Start())
	require.NoError(t, r.Add(o.put("k", t0+1_000)))

	r.Stop()
	r.Stop()

	require.Equal(t, StateStopped, r.State())
	require.Equal(t, 0, r.Len())
	require.ErrorIs(t, r.Add(o.put("k2", t0)), ErrStopped)
	require.ErrorIs(t, r.Start(), ErrStopped)
	require.True(t, o.has("k"), "pending entries are dropped on stop")
}

func TestReaper_NilOwner(t *testing.T) {
	r := New()
	require.ErrorIs(t, r.Add(Entry{Deadline: 1, Key: "k"}), ErrNilOwner)
}

func TestReaper_ConcurrentAdds(t *testing.T) {
	r, fc, t0 := newFakeReaper(t)
	require.NoError(t, r.Start())
	owners := []*recordingOwner{newOwner("a", nil), newOwner("b", nil)}

	const n = 500
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			o := owners[i%2]
			key := string(rune('a'+i%26)) + "-" + time.Duration(i).String()
			if err := r.Add(o.put(key, t0+int64(i%50))); err != nil {
				t.Errorf("add: %v", err)
			}
		}(i)
	}
	wg.Wait()

	fc.Advance(time.Second)
	require.Eventually(t, func() bool { return r.Health().Reaped == n }, waitFor, tick)
	require.Equal(t, 0, r.Len())
}

func TestReaper_QueueDepthGaugeTracksLen(t *testing.T) {
	m := metrics.NewSimple()
	fc := clock.NewFake(time.UnixMilli(0))
	r := New(WithClock(fc), WithMetrics(m))
	t.Cleanup(r.Stop)
	require.NoError(t, r.Start())
	o := newOwner("o", nil)

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d := int64(10)
			if i%2 == 0 {
				d = 1_000
			}
			if err := r.Add(o.put("k"+time.Duration(i).String(), d)); err != nil {
				t.Errorf("add: %v", err)
			}
			if i%10 == 0 {
				fc.Advance(time.Millisecond)
			}
		}(i)
	}
	wg.Wait()

	fc.Advance(20 * time.Millisecond)
	require.Eventually(t, func() bool { return r.Len() == n/2 }, waitFor, tick)
	require.Equal(t, uint64(n/2), m.QueueDepth.Load())

	r.Stop()
	require.Equal(t, uint64(0), m.QueueDepth.Load())
}

func TestReaper_HealthSnapshot(t *testing.T) {
	r, _, t0 := newFakeReaper(t)
	o := newOwner("o", nil)
	require.NoError(t, r.Add(o.put("k", t0+42)))

	h := r.Health()
	require.Equal(t, StateIdle, h.State)
	require.Equal(t, 1, h.Pending)
	require.NotNil(t, h.NextDeadline)
	require.Equal(t, t0+42, h.NextDeadline.UnixMilli())

	b, err := StateRunning.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "running", string(b))
}

func TestReaper_RealClock(t *testing.T) {
	r := New()
	t.Cleanup(r.Stop)
	require.NoError(t, r.Start())
	o := newOwner("o", nil)

	now := time.Now().UnixMilli()
	require.NoError(t, r.Add(o.put("k", now+20)))
	require.True(t, o.has("k"))
	require.Eventually(t, func() bool { return !o.has("k") }, waitFor, 5*time.Millisecond)
}
