package reaper

import "container/heap"

// Owner は期限エントリの削除先です。
type Owner interface {
	// Expire は key の保持期限が deadline と一致する場合のみ削除し、削除したかを返します。
	Expire(key any, deadline int64) bool
}

// Entry は期限 (Unix ミリ秒) と削除先・キーの組です。
// キーのライフサイクルは所有せず、その時刻に削除を試みる意図だけを表します。
type Entry struct {
	Deadline int64
	Owner    Owner
	Key      any
}

type queued struct {
	Entry
	seq uint64
}

// deadlineQueue は期限の昇順に並ぶ最小ヒープです。同時刻は投入順。
type deadlineQueue []queued

func (q deadlineQueue) Len() int { return len(q) }

func (q deadlineQueue) Less(i, j int) bool {
	if q[i].Deadline != q[j].Deadline {
		return q[i].Deadline < q[j].Deadline
	}
	return q[i].seq < q[j].seq
}

func (q deadlineQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *deadlineQueue) Push(x any) { *q = append(*q, x.(queued)) }

func (q *deadlineQueue) Pop() any {
	old := *q
	n := len(old)
	x := old[n-1]
	old[n-1] = queued{}
	*q = old[:n-1]
	return x
}

func (q deadlineQueue) peek() (queued, bool) {
	if len(q) == 0 {
		return queued{}, false
	}
	return q[0], true
}

func (q *deadlineQueue) push(e queued) { heap.Push(q, e) }

func (q *deadlineQueue) pop() queued { return heap.Pop(q).(queued) }
