package scheduler

import (
	"testing"
	"time"
)

func TestHeapPushPopOrdering(t *testing.T) {
	h := &jobHeap{}
	base := time.Now()
	heapPush(h, Job{Key: "dlr", At: base.Add(3 * time.Hour)})
	heapPush(h, Job{Key: "wdw", At: base.Add(time.Hour)})
	heapPush(h, Job{Key: "mid", At: base.Add(2 * time.Hour)})

	for _, want := range []string{"wdw", "mid", "dlr"} {
		if got := heapPop(h).Key; got != want {
			t.Fatalf("pop = %s, want %s", got, want)
		}
	}
	if h.Len() != 0 {
		t.Fatalf("len = %d after draining", h.Len())
	}
}

func TestHeapRemove(t *testing.T) {
	h := &jobHeap{}
	base := time.Now()
	heapPush(h, Job{Key: "wdw", At: base.Add(time.Minute)})
	heapPush(h, Job{Key: "dlr", At: base.Add(2 * time.Minute)})
	heapPush(h, Job{Key: "wdw", At: base.Add(3 * time.Minute)})

	if !heapRemove(h, "wdw") {
		t.Fatal("expected wdw removed")
	}
	if h.Len() != 1 || (*h)[0].Key != "dlr" {
		t.Fatalf("heap = %+v", *h)
	}
	if heapRemove(h, "missing") {
		t.Fatal("removed a key that was never added")
	}
}
