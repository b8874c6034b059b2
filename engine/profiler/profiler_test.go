package profiler

import (
	"errors"
	"testing"
	"time"

	"github.com/Carmen-Shannon/horizon/engine/renderer/frame"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordLogsOncePerInterval(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	now := time.Unix(0, 0)
	p := NewProfiler(WithInterval(time.Second), WithClock(func() time.Time { return now }))

	presented := frame.Outcome{Status: frame.StatusPresented}
	dropped := frame.Outcome{Status: frame.StatusAborted, Reason: frame.ReasonSurfaceError, Err: errors.New("lost")}

	assert.False(t, p.Record(presented))
	now = now.Add(500 * time.Millisecond)
	assert.False(t, p.Record(dropped))
	now = now.Add(500 * time.Millisecond)
	assert.True(t, p.Record(presented))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, log.WarnLevel, entry.Level)
	assert.Equal(t, 1, entry.Data["dropped"])
	assert.InDelta(t, 3.0, entry.Data["fps"], 1e-9)
	assert.Equal(t, uint64(1), p.Dropped())

	// counters reset for the next interval
	now = now.Add(time.Second)
	assert.True(t, p.Record(presented))
	assert.Equal(t, log.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, 0, hook.LastEntry().Data["dropped"])
}
