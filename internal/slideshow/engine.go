// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slideshow

import (
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/hara/internal/platform/clock"
	"github.com/taibuivan/hara/internal/platform/constants"
)

// # Engine State

// State is a point-in-time view of the displayed slide.
//
// CurrentIndex is the target slide. DisplayIndex is the slide actually on
// screen; it lags CurrentIndex while Transitioning is true.
type State struct {
	// Seq increases with every published change. Consumers drop older states.
	Seq              uint64 `json:"seq"`
	CurrentIndex     int    `json:"currentIndex"`
	DisplayIndex     int    `json:"displayIndex"`
	Transitioning    bool   `json:"transitioning"`
	IndicatorVisible bool   `json:"indicatorVisible"`
	SlideCount       int    `json:"slideCount"`
	EditMode         bool   `json:"editMode"`
	// AutoAdvancing reports whether the auto-advance timer is armed.
	AutoAdvancing bool `json:"autoAdvancing"`
}

// Config is what the engine needs from the coordinator's snapshot.
type Config struct {
	SlideCount         int
	SlideDuration      time.Duration
	TransitionDuration time.Duration
	AutoPlay           bool
	EditMode           bool
}

func (cfg Config) normalized() Config {
	if cfg.SlideCount < 1 {
		cfg.SlideCount = 1
	}
	if cfg.TransitionDuration < 0 {
		cfg.TransitionDuration = 0
	}
	return cfg
}

// # Engine

// Engine drives the displayed slide index.
//
// # Concurrency
//
// All state sits behind one mutex. Timer callbacks take the same mutex and
// discard themselves through generation counters once superseded. The
// observer runs after the mutex is released.
type Engine struct {
	clock  clock.Clock
	logger *slog.Logger

	mu            sync.Mutex
	cfg           Config
	current       int
	display       int
	transitioning bool
	indicatorOn   bool
	seq           uint64
	closed        bool

	transitionTimer *clock.Timer
	transitionGen   uint64
	advanceTimer    *clock.Timer
	advanceGen      uint64
	indicator       *Debouncer

	observer func(State)
}

// NewEngine starts an engine on slide 0 with cfg applied.
func NewEngine(clk clock.Clock, cfg Config, logger *slog.Logger) *Engine {
	engine := &Engine{
		clock:  clk,
		logger: logger,
		cfg:    cfg.normalized(),
	}
	engine.indicator = NewDebouncer(clk, constants.IndicatorHideDelay, engine.hideIndicator)

	engine.mu.Lock()
	engine.armAdvanceLocked()
	engine.mu.Unlock()

	return engine
}

// SetObserver registers fn to receive every published state. Nil removes it.
func (engine *Engine) SetObserver(fn func(State)) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.observer = fn
}

// State returns the current state.
func (engine *Engine) State() State {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.snapshotLocked()
}

// # Navigation

// Next moves to the following slide, wrapping at the end. manual marks user
// input and pulses the indicator. It reports whether the index moved.
func (engine *Engine) Next(manual bool) bool {
	return engine.mutate(func() bool { return engine.stepLocked(1, manual) })
}

// Prev moves to the preceding slide, wrapping at the start.
func (engine *Engine) Prev(manual bool) bool {
	return engine.mutate(func() bool { return engine.stepLocked(-1, manual) })
}

// JumpTo moves to index. It is a no-op in edit mode, for an out of range
// index, and for the current index. A jump always pulses the indicator.
func (engine *Engine) JumpTo(index int) bool {
	return engine.mutate(func() bool {
		if engine.cfg.EditMode || index < 0 || index >= engine.cfg.SlideCount || index == engine.current {
			return false
		}
		engine.setCurrentLocked(index)
		engine.pulseLocked()
		return true
	})
}

// # Configuration

// Configure applies new settings and slide count. A shrinking slide count
// clamps both indices into range. The auto-advance timer is re-created when
// any of its inputs changed.
func (engine *Engine) Configure(cfg Config) {
	engine.mutate(func() bool {
		prev := engine.cfg
		next := cfg.normalized()
		if prev == next {
			return false
		}
		engine.cfg = next

		lastIndex := next.SlideCount - 1
		if engine.display > lastIndex {
			engine.display = lastIndex
		}
		switch {
		case engine.current > lastIndex:
			engine.setCurrentLocked(lastIndex)
		case engine.transitioning && engine.current == engine.display:
			engine.cancelTransitionLocked()
			engine.transitioning = false
		case engine.transitioning && prev.TransitionDuration != next.TransitionDuration:
			engine.startTransitionLocked()
		}

		if prev.AutoPlay != next.AutoPlay || prev.SlideDuration != next.SlideDuration ||
			prev.EditMode != next.EditMode || prev.SlideCount != next.SlideCount {
			engine.armAdvanceLocked()
		}

		engine.logger.Debug("engine_configured",
			slog.Int("slide_count", next.SlideCount),
			slog.Bool("auto_advancing", engine.autoAdvanceLocked()),
			slog.Bool("edit_mode", next.EditMode),
		)
		return true
	})
}

// Close stops every timer. Later calls on the engine are no-ops.
func (engine *Engine) Close() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.closed {
		return
	}
	engine.closed = true
	engine.cancelTransitionLocked()
	engine.stopAdvanceLocked()
	engine.indicator.Stop()
}

// # Internals

// mutate runs fn under the lock and publishes the new state if fn reports a change.
func (engine *Engine) mutate(fn func() bool) bool {
	engine.mu.Lock()
	if engine.closed {
		engine.mu.Unlock()
		return false
	}
	changed := fn()
	if changed {
		engine.seq++
	}
	state := engine.snapshotLocked()
	observer := engine.observer
	engine.mu.Unlock()

	if changed && observer != nil {
		observer(state)
	}
	return changed
}

func (engine *Engine) snapshotLocked() State {
	return State{
		Seq:              engine.seq,
		CurrentIndex:     engine.current,
		DisplayIndex:     engine.display,
		Transitioning:    engine.transitioning,
		IndicatorVisible: engine.indicatorOn,
		SlideCount:       engine.cfg.SlideCount,
		EditMode:         engine.cfg.EditMode,
		AutoAdvancing:    engine.autoAdvanceLocked(),
	}
}

func (engine *Engine) stepLocked(delta int, manual bool) bool {
	count := engine.cfg.SlideCount
	if engine.cfg.EditMode || count <= 1 {
		return false
	}
	engine.setCurrentLocked(((engine.current+delta)%count + count) % count)
	if manual {
		engine.pulseLocked()
	}
	return true
}

// setCurrentLocked commits a new target and restarts the fade and the
// auto-advance interval.
func (engine *Engine) setCurrentLocked(index int) {
	engine.current = index
	engine.armAdvanceLocked()

	if engine.current == engine.display {
		// Back on the displayed slide before the fade finished.
		engine.cancelTransitionLocked()
		engine.transitioning = false
		return
	}
	engine.startTransitionLocked()
}

func (engine *Engine) startTransitionLocked() {
	engine.cancelTransitionLocked()

	if engine.cfg.TransitionDuration <= 0 {
		engine.display = engine.current
		engine.transitioning = false
		return
	}

	engine.transitioning = true
	generation := engine.transitionGen
	engine.transitionTimer = engine.clock.AfterFunc(engine.cfg.TransitionDuration, func() {
		engine.settle(generation)
	})
}

func (engine *Engine) cancelTransitionLocked() {
	engine.transitionGen++
	if engine.transitionTimer != nil {
		engine.transitionTimer.Stop()
		engine.transitionTimer = nil
	}
}

func (engine *Engine) settle(generation uint64) {
	engine.mutate(func() bool {
		if generation != engine.transitionGen || !engine.transitioning {
			return false
		}
		engine.transitionTimer = nil
		engine.display = engine.current
		engine.transitioning = false
		return true
	})
}

func (engine *Engine) autoAdvanceLocked() bool {
	return engine.cfg.AutoPlay && !engine.cfg.EditMode &&
		engine.cfg.SlideCount > 1 && engine.cfg.SlideDuration > 0
}

// armAdvanceLocked tears down the auto-advance timer and re-creates it when active.
func (engine *Engine) armAdvanceLocked() {
	engine.stopAdvanceLocked()
	if !engine.autoAdvanceLocked() {
		return
	}
	generation := engine.advanceGen
	engine.advanceTimer = engine.clock.AfterFunc(engine.cfg.SlideDuration, func() {
		engine.tick(generation)
	})
}

func (engine *Engine) stopAdvanceLocked() {
	engine.advanceGen++
	if engine.advanceTimer != nil {
		engine.advanceTimer.Stop()
		engine.advanceTimer = nil
	}
}

func (engine *Engine) tick(generation uint64) {
	engine.mutate(func() bool {
		if generation != engine.advanceGen {
			return false
		}
		engine.advanceTimer = nil
		// stepLocked re-arms through setCurrentLocked.
		return engine.stepLocked(1, false)
	})
}

func (engine *Engine) pulseLocked() {
	engine.indicatorOn = true
	engine.indicator.Trigger()
}

func (engine *Engine) hideIndicator() {
	engine.mutate(func() bool {
		if !engine.indicatorOn || engine.indicator.Pending() {
			return false
		}
		engine.indicatorOn = false
		return true
	})
}
