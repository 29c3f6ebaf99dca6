package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
)

const maxSleepCap = 60 * time.Second

var (
	ErrInvalidCron = errors.New("invalid cron expression")
	ErrCronTooRare  = errors.New("cron expression has no occurrence within a year")
)

// Scheduler runs jobs on a background goroutine until its context ends.
type Scheduler struct {
	addCh    chan Job
	removeCh chan string
	ctx      context.Context
	now      func() time.Time
}

// New starts a Scheduler. onTrigger runs on the scheduler goroutine, so a
// slow callback delays later jobs; hand long work to another goroutine.
func New(ctx context.Context, onTrigger func(key string)) *Scheduler {
	s := &Scheduler{
		addCh:    make(chan Job, 64),
		removeCh: make(chan string, 64),
		ctx:      ctx,
		now:      time.Now,
	}
	go s.run(onTrigger)
	return s
}

func (s *Scheduler) Add(j Job) {
	select {
	case s.addCh <- j:
	case <-s.ctx.Done():
	}
}

// Remove cancels every pending job with key.
func (s *Scheduler) Remove(key string) {
	select {
	case s.removeCh <- key:
	case <-s.ctx.Done():
	}
}

func (s *Scheduler) run(onTrigger func(string)) {
	h := &jobHeap{}
	heap.Init(h)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	resetTimer := func() <-chan time.Time {
		if timer != nil {
			timer.Stop()
		}
		if h.Len() == 0 {
			return nil
		}
		dur := (*h)[0].At.Sub(s.now())
		if dur > maxSleepCap {
			dur = maxSleepCap
		}
		if dur < 0 {
			dur = 0
		}
		timer = time.NewTimer(dur)
		return timer.C
	}

	timerCh := resetTimer()
	for {
		select {
		case <-s.ctx.Done():
			return

		case j := <-s.addCh:
			heapPush(h, j)
			timerCh = resetTimer()

		case key := <-s.removeCh:
			heapRemove(h, key)
			timerCh = resetTimer()

		case <-timerCh:
			now := s.now()
			for h.Len() > 0 && !(*h)[0].At.After(now) {
				j := heapPop(h)
				onTrigger(j.Key)
				if j.Cron == "" {
					continue
				}
				if next, err := nextOccurrence(j.Cron, s.now()); err == nil {
					heapPush(h, Job{Key: j.Key, At: next, Cron: j.Cron})
				}
			}
			timerCh = resetTimer()
		}
	}
}

// nextOccurrence returns the first tick of expr strictly after start.
func nextOccurrence(expr string, start time.Time) (time.Time, error) {
	return gronx.NextTickAfter(expr, start, false)
}

// ValidateCron rejects malformed expressions and those that would not fire
// within a year of from.
func ValidateCron(expr string, from time.Time) error {
	if !gronx.New().IsValid(expr) {
		return fmt.Errorf("%w: %q", ErrInvalidCron, expr)
	}
	next, err := nextOccurrence(expr, from)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidCron, expr, err)
	}
	if !next.Before(from.Add(365 * 24 * time.Hour)) {
		return fmt.Errorf("%w: %q", ErrCronTooRare, expr)
	}
	return nil
}

// Plan builds one recurring job per key. With immediate set every job
// first fires at now; otherwise at the next cron tick.
func Plan(keys []string, expr string, now time.Time, immediate bool) ([]Job, error) {
	if err := ValidateCron(expr, now); err != nil {
		return nil, err
	}
	at := now
	if !immediate {
		next, err := nextOccurrence(expr, now)
		if err != nil {
			return nil, err
		}
		at = next
	}
	jobs := make([]Job, 0, len(keys))
	for _, k := range keys {
		jobs = append(jobs, Job{Key: k, At: at, Cron: expr})
	}
	return jobs, nil
}
