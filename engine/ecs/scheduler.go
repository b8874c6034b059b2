package ecs

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	log "github.com/sirupsen/logrus"
)

// scheduler is the implementation of the Scheduler interface.
type scheduler struct {
	mu *sync.Mutex

	workers int
	pool    worker.DynamicWorkerPool

	systems []System
	// stages holds indexes into systems, grouped so no two systems of a stage conflict.
	stages [][]int
	taskID int
}

// Scheduler runs systems against a World in stages.
type Scheduler interface {
	// Add registers systems. A system is placed in the first stage after every earlier system it
	// conflicts with, so conflicting systems keep their registration order.
	//
	// Parameters:
	//   - systems: the systems to register
	//
	// Returns:
	//   - error: an error if a system has no name, no Run func or a duplicate name
	Add(systems ...System) error

	// Stages returns the system names of every stage in execution order.
	//
	// Returns:
	//   - [][]string: the stage layout
	Stages() [][]string

	// Run executes every stage once. Systems of a stage with more than one member run on the
	// worker pool and the stage waits for all of them. Run stops after the first stage that
	// reports an error. A panic in a system is re-raised on the caller's goroutine.
	//
	// Parameters:
	//   - w: the world the systems operate on
	//
	// Returns:
	//   - error: the joined errors of the failing stage
	Run(w *World) error

	// Close stops the worker pool. Later runs execute every stage on the caller's goroutine.
	Close()
}

var _ Scheduler = &scheduler{}

func (s *scheduler) Add(systems ...System) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sys := range systems {
		if sys.Name == "" || sys.Run == nil {
			return fmt.Errorf("ecs: system %q needs a name and a Run func", sys.Name)
		}
		for _, existing := range s.systems {
			if existing.Name == sys.Name {
				return fmt.Errorf("ecs: duplicate system %q", sys.Name)
			}
		}

		stage := 0
		for i, st := range s.stages {
			for _, idx := range st {
				if s.systems[idx].Access.Conflicts(sys.Access) {
					stage = i + 1
				}
			}
		}
		s.systems = append(s.systems, sys)
		if stage == len(s.stages) {
			s.stages = append(s.stages, nil)
		}
		s.stages[stage] = append(s.stages[stage], len(s.systems)-1)
	}
	return nil
}

func (s *scheduler) Stages() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([][]string, len(s.stages))
	for i, st := range s.stages {
		for _, idx := range st {
			out[i] = append(out[i], s.systems[idx].Name)
		}
	}
	return out
}

func (s *scheduler) Run(w *World) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.stages {
		if err := s.runStage(w, st); err != nil {
			return err
		}
	}
	return nil
}

// stageResult is the outcome of one system within a stage.
type stageResult struct {
	err       error
	recovered any
}

func (s *scheduler) runStage(w *World, stage []int) error {
	if len(stage) == 1 || s.pool == nil {
		var errs []error
		for _, idx := range stage {
			sys := s.systems[idx]
			if err := sys.Run(w); err != nil {
				errs = append(errs, fmt.Errorf("system %s: %w", sys.Name, err))
			}
		}
		return errors.Join(errs...)
	}

	results := make([]stageResult, len(stage))
	var wg sync.WaitGroup
	for i, idx := range stage {
		sys := s.systems[idx]
		res := &results[i]
		wg.Add(1)
		s.taskID++
		s.pool.SubmitTask(worker.Task{
			ID:      s.taskID,
			Payload: sys.Name,
			Do: func() (any, error) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						res.recovered = r
					}
				}()
				res.err = sys.Run(w)
				return nil, res.err
			},
		})
	}
	wg.Wait()

	var errs []error
	for i, res := range results {
		name := s.systems[stage[i]].Name
		if res.recovered != nil {
			panic(fmt.Sprintf("system %s: %v", name, res.recovered))
		}
		if res.err != nil {
			errs = append(errs, fmt.Errorf("system %s: %w", name, res.err))
		}
	}
	return errors.Join(errs...)
}

func (s *scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		s.pool.Stop()
		s.pool = nil
	}
	log.WithField("systems", len(s.systems)).Debug("scheduler closed")
}
