package ecs

import "slices"

// Access declares the world resources a system reads and writes.
type Access struct {
	Reads  []ResourceID
	Writes []ResourceID
}

// Conflicts reports whether two systems may not run at the same time: one writes a resource the
// other reads or writes.
func (a Access) Conflicts(b Access) bool {
	for _, w := range a.Writes {
		if slices.Contains(b.Writes, w) || slices.Contains(b.Reads, w) {
			return true
		}
	}
	for _, w := range b.Writes {
		if slices.Contains(a.Reads, w) {
			return true
		}
	}
	return false
}

// System is one unit of scheduled work.
type System struct {
	Name   string
	Access Access
	Run    func(w *World) error
}
