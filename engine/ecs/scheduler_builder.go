package ecs

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

type SchedulerBuilderOption func(*scheduler)

// NewScheduler creates a scheduler with its worker pool. The pool defaults to one worker per CPU.
//
// Parameters:
//   - options: builder options
//
// Returns:
//   - Scheduler: the new scheduler
func NewScheduler(options ...SchedulerBuilderOption) Scheduler {
	s := &scheduler{
		mu:      &sync.Mutex{},
		workers: runtime.NumCPU(),
	}

	for _, opt := range options {
		opt(s)
	}
	s.pool = worker.NewDynamicWorkerPool(s.workers, 256, 1*time.Second)

	return s
}

// WithWorkers sets the number of pool workers used for parallel stages. Values below one are
// ignored.
func WithWorkers(n int) SchedulerBuilderOption {
	return func(s *scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}
