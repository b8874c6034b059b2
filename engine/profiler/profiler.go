package profiler

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/horizon/engine/renderer/frame"
	log "github.com/sirupsen/logrus"
)

// Profiler tracks frame rate, dropped frames and memory statistics.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	mu *sync.Mutex

	frameCount     int
	droppedCount   int
	totalDropped   uint64
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	now func() time.Time
}

type ProfilerBuilderOption func(*Profiler)

// NewProfiler creates a new Profiler.
// Update interval defaults to 1 second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		mu:             &sync.Mutex{},
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// WithInterval sets how often statistics are logged.
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.updateInterval = d
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// Record counts one frame outcome and ticks the profiler.
//
// Parameters:
//   - out: the outcome of the frame
//
// Returns:
//   - bool: true if stats were logged by this call
func (p *Profiler) Record(out frame.Outcome) bool {
	p.mu.Lock()
	if !out.Presented() {
		p.droppedCount++
		p.totalDropped++
	}
	p.mu.Unlock()
	return p.Tick()
}

// Dropped returns the number of aborted frames recorded since the profiler was created.
func (p *Profiler) Dropped() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalDropped
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, dropped frames, heap usage, allocation rate, GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	// Alloc is live heap, Sys the process footprint
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			pause := p.memStats.PauseNs[i%256] / 1000
			if pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	entry := log.WithFields(log.Fields{
		"fps":          fps,
		"dropped":      p.droppedCount,
		"heapMB":       allocMB,
		"allocRateMBs": allocRateMB,
		"gc":           gcCount,
		"gcLastUs":     lastPauseUs,
		"gcMaxUs":      maxPauseUs,
		"sysMB":        sysMB,
	})
	if p.droppedCount > 0 {
		entry.Warn("frame stats")
	} else {
		entry.Info("frame stats")
	}

	p.frameCount = 0
	p.droppedCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
