package ecs

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(*World) error { return nil }

func TestConflicts(t *testing.T) {
	read := Access{Reads: []ResourceID{"a"}}
	write := Access{Writes: []ResourceID{"a"}}
	other := Access{Writes: []ResourceID{"b"}}

	assert.False(t, read.Conflicts(read))
	assert.True(t, read.Conflicts(write))
	assert.True(t, write.Conflicts(read))
	assert.True(t, write.Conflicts(write))
	assert.False(t, write.Conflicts(other))
}

func TestStagesKeepConflictingOrder(t *testing.T) {
	s := NewScheduler(WithWorkers(2))
	defer s.Close()

	require.NoError(t, s.Add(
		System{Name: "upload", Access: Access{Writes: []ResourceID{"buffers"}}, Run: noop},
		System{Name: "physics", Access: Access{Writes: []ResourceID{"bodies"}}, Run: noop},
		System{Name: "shadow", Access: Access{Reads: []ResourceID{"buffers"}, Writes: []ResourceID{"frame"}}, Run: noop},
		System{Name: "composite", Access: Access{Reads: []ResourceID{"buffers"}, Writes: []ResourceID{"frame"}}, Run: noop},
		System{Name: "audio", Access: Access{Reads: []ResourceID{"bodies"}}, Run: noop},
	))

	assert.Equal(t, [][]string{
		{"upload", "physics"},
		{"shadow", "audio"},
		{"composite"},
	}, s.Stages())
}

func TestAddRejectsBadSystems(t *testing.T) {
	s := NewScheduler(WithWorkers(1))
	defer s.Close()

	assert.Error(t, s.Add(System{Name: "", Run: noop}))
	assert.Error(t, s.Add(System{Name: "x"}))
	require.NoError(t, s.Add(System{Name: "x", Run: noop}))
	assert.Error(t, s.Add(System{Name: "x", Run: noop}))
}

func TestRunOrdersConflictingSystems(t *testing.T) {
	s := NewScheduler(WithWorkers(4))
	defer s.Close()

	var mu sync.Mutex
	var order []string
	record := func(name string) func(*World) error {
		return func(*World) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}
	frame := Access{Writes: []ResourceID{"frame"}}
	require.NoError(t, s.Add(
		System{Name: "shadow", Access: frame, Run: record("shadow")},
		System{Name: "geometry", Access: frame, Run: record("geometry")},
		System{Name: "composite", Access: frame, Run: record("composite")},
	))

	for range 3 {
		order = nil
		require.NoError(t, s.Run(NewWorld()))
		assert.Equal(t, []string{"shadow", "geometry", "composite"}, order)
	}
}

func TestRunParallelStage(t *testing.T) {
	s := NewScheduler(WithWorkers(4))
	defer s.Close()

	var count atomic.Int32
	for _, name := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Add(System{
			Name:   name,
			Access: Access{Writes: []ResourceID{ResourceID(name)}},
			Run: func(*World) error {
				count.Add(1)
				return nil
			},
		}))
	}
	require.Len(t, s.Stages(), 1)

	require.NoError(t, s.Run(NewWorld()))
	assert.Equal(t, int32(4), count.Load())
}

func TestRunStopsAfterFailingStage(t *testing.T) {
	s := NewScheduler(WithWorkers(2))
	defer s.Close()

	boom := errors.New("boom")
	ran := false
	require.NoError(t, s.Add(
		System{Name: "fail", Access: Access{Writes: []ResourceID{"x"}}, Run: func(*World) error { return boom }},
		System{Name: "after", Access: Access{Reads: []ResourceID{"x"}}, Run: func(*World) error {
			ran = true
			return nil
		}},
	))

	err := s.Run(NewWorld())
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "system fail")
	assert.False(t, ran)
}

func TestRunRaisesSystemPanic(t *testing.T) {
	s := NewScheduler(WithWorkers(2))
	defer s.Close()

	require.NoError(t, s.Add(
		System{Name: "ok", Access: Access{Writes: []ResourceID{"a"}}, Run: noop},
		System{Name: "bad", Access: Access{Writes: []ResourceID{"b"}}, Run: func(w *World) error {
			MustResource[int](w, "missing")
			return nil
		}},
	))

	assert.PanicsWithValue(t,
		"system bad: missing world resource: missing (int)",
		func() { _ = s.Run(NewWorld()) },
	)
}

func TestWorldResources(t *testing.T) {
	w := NewWorld()
	w.Set("count", 3)
	w.Set("name", "x")

	n, ok := Resource[int](w, "count")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok = Resource[string](w, "count")
	assert.False(t, ok)

	assert.Equal(t, []ResourceID{"count", "name"}, w.IDs())
	w.Set("count", nil)
	_, ok = w.Get("count")
	assert.False(t, ok)
}

func TestRunAfterClose(t *testing.T) {
	s := NewScheduler(WithWorkers(2))
	var count atomic.Int32
	inc := func(*World) error {
		count.Add(1)
		return nil
	}
	require.NoError(t, s.Add(
		System{Name: "a", Access: Access{Writes: []ResourceID{"a"}}, Run: inc},
		System{Name: "b", Access: Access{Writes: []ResourceID{"b"}}, Run: inc},
	))
	s.Close()

	require.NoError(t, s.Run(NewWorld()))
	assert.Equal(t, int32(2), count.Load())
}
