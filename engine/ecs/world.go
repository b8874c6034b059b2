// Package ecs is the small system scheduler the render core runs on. Systems declare which world
// resources they read and write; systems with disjoint access may run in parallel while any two
// that touch the same resource with at least one write run in registration order.
package ecs

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrMissingResource is returned or panicked with when a system asks for a resource the world
// does not hold.
var ErrMissingResource = errors.New("missing world resource")

// ResourceID names a shared world resource.
type ResourceID string

// World holds the shared resources systems operate on.
type World struct {
	mu        *sync.RWMutex
	resources map[ResourceID]any
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{
		mu:        &sync.RWMutex{},
		resources: make(map[ResourceID]any),
	}
}

// Set stores a resource. A nil value removes it.
//
// Parameters:
//   - id: the resource name
//   - v: the resource
func (w *World) Set(id ResourceID, v any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if v == nil {
		delete(w.resources, id)
		return
	}
	w.resources[id] = v
}

// Get returns the resource stored under id.
func (w *World) Get(id ResourceID) (any, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	v, ok := w.resources[id]
	return v, ok
}

// IDs returns the sorted names of every stored resource.
func (w *World) IDs() []ResourceID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	ids := make([]ResourceID, 0, len(w.resources))
	for id := range w.resources {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Resource returns the resource stored under id as a T.
//
// Parameters:
//   - w: the world
//   - id: the resource name
//
// Returns:
//   - T: the resource
//   - bool: false if the resource is absent or of another type
func Resource[T any](w *World, id ResourceID) (T, bool) {
	v, ok := w.Get(id)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// MustResource is Resource for resources a system cannot run without. It panics with an error
// wrapping ErrMissingResource.
func MustResource[T any](w *World, id ResourceID) T {
	t, ok := Resource[T](w, id)
	if !ok {
		var zero T
		panic(fmt.Errorf("%w: %s (%T)", ErrMissingResource, id, zero))
	}
	return t
}
