package scheduler

import "time"

// Job is a pending trigger in the scheduler heap.
type Job struct {
	// Key is passed to the trigger callback. Remove matches on it.
	Key string
	At  time.Time
	// Cron makes the job recurring. Empty means fire once.
	Cron string
}
