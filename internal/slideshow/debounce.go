// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slideshow

import (
	"sync"
	"time"

	"github.com/taibuivan/hara/internal/platform/clock"
)

// Debouncer runs fn once delay has passed since the most recent Trigger.
// Each Trigger cancels the pending run and schedules a new one.
//
// fn runs without the Debouncer's lock held, so it may call Trigger. fn never
// runs inside Trigger, so callers may trigger while holding a lock fn takes.
type Debouncer struct {
	clock clock.Clock
	delay time.Duration
	fn    func()

	mu         sync.Mutex
	timer      *clock.Timer
	generation uint64
	stopped    bool
}

// MinDebounceDelay is the shortest delay a Debouncer waits.
const MinDebounceDelay = time.Millisecond

// NewDebouncer returns an idle Debouncer. A delay below [MinDebounceDelay]
// is raised to it.
func NewDebouncer(clk clock.Clock, delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{clock: clk, delay: max(delay, MinDebounceDelay), fn: fn}
}

// Trigger (re)starts the delay.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.generation++

	generation := d.generation
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(generation) })
	d.mu.Unlock()
}

// Pending reports whether a run is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels any pending run. Later Triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) fire(generation uint64) {
	d.mu.Lock()
	if d.stopped || generation != d.generation {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.fn()
}
