package scheduler

import "container/heap"

// jobHeap is a container/heap min-heap ordered by Job.At.
type jobHeap []Job

func (h jobHeap) Len() int           { return len(h) }
func (h jobHeap) Less(i, j int) bool { return h[i].At.Before(h[j].At) }
func (h jobHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *jobHeap) Push(x any) {
	*h = append(*h, x.(Job))
}

func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func heapPush(h *jobHeap, j Job) {
	heap.Push(h, j)
}

// heapPop panics on an empty heap.
func heapPop(h *jobHeap) Job {
	return heap.Pop(h).(Job)
}

// heapRemove drops every job with key and reports whether any existed.
func heapRemove(h *jobHeap, key string) bool {
	removed := false
	for i := 0; i < h.Len(); {
		if (*h)[i].Key == key {
			heap.Remove(h, i)
			removed = true
			continue
		}
		i++
	}
	return removed
}
