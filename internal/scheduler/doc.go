// Package scheduler fires keyed jobs at wall-clock times. A single goroutine
// owns a min-heap of jobs ordered by trigger time and never sleeps longer
// than a minute, so clock steps and system sleep delay a job by at most
// that cap. Recurring jobs carry a cron expression and are re-queued at
// their next occurrence after firing.
//
// parkdl uses it for session keepalive: one recurring job per destination
// whose trigger forces a session refresh.
package scheduler
