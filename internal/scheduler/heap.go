package scheduler

import (
	"time"

	"github.com/google/uuid"
)

// triggerItem is one entry in the engine's in-memory priority queue,
// grounded on kenjpais-godoit's pkg/utils/priority_queue.go container/heap
// shape, keyed by (next_fire_instant, job_id) per spec §4.4.
type triggerItem struct {
	JobID           uuid.UUID
	NextFireInstant time.Time
	Cron            string
	Zone            string
	Paused          bool
	index           int // heap.Interface bookkeeping
}

type triggerHeap []*triggerItem

func (h triggerHeap) Len() int { return len(h) }

func (h triggerHeap) Less(i, j int) bool {
	if h[i].NextFireInstant.Equal(h[j].NextFireInstant) {
		return h[i].JobID.String() < h[j].JobID.String()
	}
	return h[i].NextFireInstant.Before(h[j].NextFireInstant)
}

func (h triggerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *triggerHeap) Push(x any) {
	item := x.(*triggerItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *triggerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
