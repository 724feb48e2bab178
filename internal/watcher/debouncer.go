package watcher

import (
	"sync"
	"time"
)

// debouncer collapses rapid filesystem events per path so one editor save
// producing several writes triggers a single reload.
//
// Delivery is delayed until no new events arrive for the window duration;
// each path has its own timer and only the latest event survives the window.
type debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	timers  map[string]*debounceTimer
	onFlush func(change)
	stopped bool
}

type debounceTimer struct {
	timer *time.Timer
	last  change
}

func newDebouncer(window time.Duration, onFlush func(change)) *debouncer {
	return &debouncer{
		window:  window,
		timers:  make(map[string]*debounceTimer),
		onFlush: onFlush,
	}
}

// add records an event for a path, resetting its timer.
func (d *debouncer) add(c change) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	dt, exists := d.timers[c.path]
	if exists {
		dt.timer.Stop()
		dt.last = c
	} else {
		dt = &debounceTimer{last: c}
		d.timers[c.path] = dt
	}

	dt.timer = time.AfterFunc(d.window, func() {
		d.flush(c.path)
	})
}

// flush delivers the surviving event for a path and drops its timer.
func (d *debouncer) flush(path string) {
	d.mu.Lock()
	dt, exists := d.timers[path]
	if !exists {
		d.mu.Unlock()
		return
	}
	c := dt.last
	delete(d.timers, path)
	// Deliver outside the lock so onFlush may call back into the debouncer.
	d.mu.Unlock()

	if d.onFlush != nil {
		d.onFlush(c)
	}
}

// stop cancels pending timers and flushes their surviving events.
func (d *debouncer) stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true

	var pending []change
	for path, dt := range d.timers {
		dt.timer.Stop()
		pending = append(pending, dt.last)
		delete(d.timers, path)
	}
	d.mu.Unlock()

	if d.onFlush != nil {
		for _, c := range pending {
			d.onFlush(c)
		}
	}
}

// pending returns the number of paths with an armed timer.
func (d *debouncer) pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}
