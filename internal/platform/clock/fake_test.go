// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/hara/internal/platform/clock"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

/*
TestFake_AfterFunc verifies callbacks fire only once their deadline is reached.
*/
func TestFake_AfterFunc(t *testing.T) {
	clk := clock.Fake(epoch)
	fired := 0
	clk.AfterFunc(500*time.Millisecond, func() { fired++ })

	clk.Advance(499 * time.Millisecond)
	assert.Equal(t, 0, fired)
	assert.Equal(t, 1, clk.PendingCount())

	clk.Advance(time.Millisecond)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, clk.PendingCount())

	clk.Advance(time.Hour)
	assert.Equal(t, 1, fired)
	assert.Equal(t, epoch.Add(time.Hour+500*time.Millisecond), clk.Now())
}

/*
TestFake_Stop verifies a stopped timer never fires and reports its state.
*/
func TestFake_Stop(t *testing.T) {
	clk := clock.Fake(epoch)
	fired := false
	timer := clk.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	clk.Advance(2 * time.Second)
	assert.False(t, fired)
	assert.Equal(t, 0, clk.PendingCount())
}

/*
TestFake_Order verifies due callbacks fire in deadline order.
*/
func TestFake_Order(t *testing.T) {
	clk := clock.Fake(epoch)
	var order []string
	clk.AfterFunc(3*time.Second, func() { order = append(order, "c") })
	clk.AfterFunc(1*time.Second, func() { order = append(order, "a") })
	clk.AfterFunc(2*time.Second, func() { order = append(order, "b") })

	clk.Advance(5 * time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

/*
TestFake_ReArm verifies a callback registering a new timer is not fired
early by the same Advance.
*/
func TestFake_ReArm(t *testing.T) {
	clk := clock.Fake(epoch)
	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		clk.AfterFunc(time.Second, tick)
	}
	clk.AfterFunc(time.Second, tick)

	clk.Advance(time.Second)
	assert.Equal(t, 1, ticks)
	clk.Advance(time.Second)
	assert.Equal(t, 2, ticks)
	assert.Equal(t, 1, clk.PendingCount())
}

/*
TestFake_NonPositiveDelay verifies a zero delay runs the callback immediately.
*/
func TestFake_NonPositiveDelay(t *testing.T) {
	clk := clock.Fake(epoch)
	fired := false
	timer := clk.AfterFunc(0, func() { fired = true })

	assert.True(t, fired)
	assert.False(t, timer.Stop())
}
