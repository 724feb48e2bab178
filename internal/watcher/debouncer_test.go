package watcher

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flushRecorder struct {
	mu      sync.Mutex
	changes []change
}

func (f *flushRecorder) record(c change) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, c)
}

func (f *flushRecorder) snapshot() []change {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]change(nil), f.changes...)
}

func TestDebouncerCollapsesRapidEvents(t *testing.T) {
	rec := &flushRecorder{}
	d := newDebouncer(50*time.Millisecond, rec.record)

	for i := 0; i < 5; i++ {
		d.add(change{path: "/tmp/wf.yaml", kind: changeUpsert})
	}
	assert.Equal(t, 1, d.pending())

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, d.pending())
}

func TestDebouncerKeepsLatestEvent(t *testing.T) {
	rec := &flushRecorder{}
	d := newDebouncer(50*time.Millisecond, rec.record)

	d.add(change{path: "/tmp/wf.yaml", kind: changeUpsert})
	d.add(change{path: "/tmp/wf.yaml", kind: changeRemove})

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, changeRemove, rec.snapshot()[0].kind)
}

func TestDebouncerTracksPathsIndependently(t *testing.T) {
	rec := &flushRecorder{}
	d := newDebouncer(50*time.Millisecond, rec.record)

	d.add(change{path: "/tmp/a.yaml", kind: changeUpsert})
	d.add(change{path: "/tmp/b.yaml", kind: changeUpsert})
	assert.Equal(t, 2, d.pending())

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestDebouncerStopFlushesPending(t *testing.T) {
	rec := &flushRecorder{}
	d := newDebouncer(time.Hour, rec.record)

	d.add(change{path: "/tmp/a.yaml", kind: changeUpsert})
	d.add(change{path: "/tmp/b.yaml", kind: changeUpsert})
	d.stop()

	assert.Len(t, rec.snapshot(), 2)
	assert.Equal(t, 0, d.pending())

	// Events after stop are dropped.
	d.add(change{path: "/tmp/c.yaml", kind: changeUpsert})
	assert.Equal(t, 0, d.pending())

	// A second stop is a no-op.
	d.stop()
	assert.Len(t, rec.snapshot(), 2)
}
