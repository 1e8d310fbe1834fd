package jobs

import (
	"container/heap"
	"time"
)

type queueItem struct {
	id        string
	priority  string
	createdAt time.Time
	// waitingSince restarts on every promotion so a job climbs one tier per starvation window.
	waitingSince time.Time
	seq          uint64
	index        int
}

// jobQueue is a max-heap on priority, FIFO by submission time within a priority.
type jobQueue []*queueItem

func (q jobQueue) Len() int { return len(q) }

func (q jobQueue) Less(i, j int) bool {
	a, b := q[i], q[j]
	if ra, rb := priorityRank(a.priority), priorityRank(b.priority); ra != rb {
		return ra > rb
	}
	if !a.createdAt.Equal(b.createdAt) {
		return a.createdAt.Before(b.createdAt)
	}
	return a.seq < b.seq
}

func (q jobQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *jobQueue) Push(x any) {
	item := x.(*queueItem)
	item.index = len(*q)
	*q = append(*q, item)
}

func (q *jobQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*q = old[:n-1]
	return item
}

// readyQueue indexes the heap by job id and parks jobs whose retry backoff has not elapsed.
type readyQueue struct {
	heap    jobQueue
	byID    map[string]*queueItem
	delayed map[string]delayedItem
	seq     uint64
}

type delayedItem struct {
	item    *queueItem
	readyAt time.Time
}

func newReadyQueue() *readyQueue {
	return &readyQueue{byID: map[string]*queueItem{}, delayed: map[string]delayedItem{}}
}

func (q *readyQueue) contains(id string) bool {
	if _, ok := q.byID[id]; ok {
		return true
	}
	_, ok := q.delayed[id]
	return ok
}

func (q *readyQueue) add(id, priority string, createdAt, now time.Time, readyAt *time.Time) {
	if q.contains(id) {
		return
	}
	q.seq++
	item := &queueItem{id: id, priority: priority, createdAt: createdAt, waitingSince: now, seq: q.seq}
	if readyAt != nil && readyAt.After(now) {
		q.delayed[id] = delayedItem{item: item, readyAt: *readyAt}
		return
	}
	q.byID[id] = item
	heap.Push(&q.heap, item)
}

// release moves delayed jobs whose time has come into the heap.
func (q *readyQueue) release(now time.Time) {
	for id, d := range q.delayed {
		if d.readyAt.After(now) {
			continue
		}
		delete(q.delayed, id)
		d.item.waitingSince = now
		q.byID[id] = d.item
		heap.Push(&q.heap, d.item)
	}
}

func (q *readyQueue) pop() *queueItem {
	if q.heap.Len() == 0 {
		return nil
	}
	item := heap.Pop(&q.heap).(*queueItem)
	delete(q.byID, item.id)
	return item
}

func (q *readyQueue) remove(id string) bool {
	if item, ok := q.byID[id]; ok {
		heap.Remove(&q.heap, item.index)
		delete(q.byID, id)
		return true
	}
	if _, ok := q.delayed[id]; ok {
		delete(q.delayed, id)
		return true
	}
	return false
}

func (q *readyQueue) setPriority(id, priority string, now time.Time) {
	item, ok := q.byID[id]
	if !ok {
		return
	}
	item.priority = priority
	item.waitingSince = now
	heap.Fix(&q.heap, item.index)
}

// starved lists ready jobs below urgent that have waited at least age.
func (q *readyQueue) starved(now time.Time, age time.Duration) []*queueItem {
	var out []*queueItem
	for _, item := range q.heap {
		if item.priority == PriorityUrgent {
			continue
		}
		if now.Sub(item.waitingSince) >= age {
			out = append(out, item)
		}
	}
	return out
}

func (q *readyQueue) len() int {
	return q.heap.Len() + len(q.delayed)
}
