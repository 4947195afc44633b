package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFake_AdvanceFiresDueTimers(t *testing.T) {
	start := time.UnixMilli(1_000)
	f := NewFake(start)

	early := f.TimerAt(start.Add(10 * time.Millisecond))
	late := f.TimerAt(start.Add(50 * time.Millisecond))
	require.Equal(t, 2, f.Timers())

	f.Advance(10 * time.Millisecond)
	select {
	case <-early.C():
	default:
		t.Fatalf("early timer should have fired")
	}
	select {
	case <-late.C():
		t.Fatalf("late timer fired too soon")
	default:
	}
	require.Equal(t, 1, f.Timers())

	require.True(t, late.Stop())
	require.Equal(t, 0, f.Timers())
	require.False(t, late.Stop())
}

func TestFake_PastTimerFiresImmediately(t *testing.T) {
	f := NewFake(time.UnixMilli(5_000))
	tm := f.TimerAt(time.UnixMilli(4_000))
	select {
	case got := <-tm.C():
		require.Equal(t, int64(5_000), got.UnixMilli())
	default:
		t.Fatalf("expected immediate fire")
	}
	require.Equal(t, 0, f.Timers())
}

func TestReal_NowIsMonotonicDerived(t *testing.T) {
	var c Real
	a := c.Now()
	b := c.Now()
	require.False(t, b.Before(a))
	require.InDelta(t, time.Now().UnixMilli(), b.UnixMilli(), float64(time.Second.Milliseconds()))

	// 壁時計成分だけの時刻 (期限を UnixMilli から戻した値) に対してもタイマーが機能する
	tm := c.TimerAt(time.UnixMilli(c.Now().UnixMilli() + 5))
	select {
	case <-tm.C():
	case <-time.After(time.Second):
		t.Fatalf("timer at wall-only instant did not fire")
	}
}

func TestReal_TimerAt(t *testing.T) {
	var c Real
	tm := c.TimerAt(c.Now().Add(5 * time.Millisecond))
	select {
	case <-tm.C():
	case <-time.After(time.Second):
		t.Fatalf("real timer did not fire")
	}
}
