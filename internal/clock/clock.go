// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

// Package clock provides the single time abstraction every scheduling and
// runtime component consumes. Nothing in this module calls time.Now
// directly outside this package.
package clock

import (
	"sync"
	"time"
)

// Clock is the master time source. All durations it returns are clamped to
// be non-negative; all conversions require tz-aware inputs (Go's time.Time
// is always tz-aware, so the "naive datetime rejected" rule from the
// original system collapses to: never construct a time.Time from a bare
// wall-clock without a Location).
type Clock interface {
	// NowUTC returns the current instant in UTC.
	NowUTC() time.Time
	// NowLocal returns the current instant in the given location.
	NowLocal(loc *time.Location) time.Time
	// SecondsSince returns time elapsed since past, clamped to >= 0.
	SecondsSince(past time.Time) float64
}

// System is the production Clock: monotonic baseline plus wall-clock delta,
// so repeated calls within a process observe a monotonically non-decreasing
// stream even across leap-second smears (relying on Go's monotonic reading
// baked into time.Now()).
type System struct{}

// NewSystem returns the production clock.
func NewSystem() *System { return &System{} }

func (System) NowUTC() time.Time { return time.Now().UTC() }

func (System) NowLocal(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Now().In(loc)
}

func (System) SecondsSince(past time.Time) float64 {
	d := time.Since(past).Seconds()
	if d < 0 {
		return 0
	}
	return d
}

// Fake is a fully controllable Clock for tests: table-driven scheduling
// tests and the background evaluators' unit tests advance it explicitly
// rather than racing the wall clock.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake returns a Fake clock pinned at t0. t0 should carry a Location;
// callers that pass a naive-looking time (e.g. from time.Date without an
// explicit zone) get UTC by Go's own default, which is the correct zero
// value for this system.
func NewFake(t0 time.Time) *Fake {
	return &Fake{now: t0}
}

func (f *Fake) NowUTC() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now.UTC()
}

func (f *Fake) NowLocal(loc *time.Location) time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	if loc == nil {
		loc = time.UTC
	}
	return f.now.In(loc)
}

func (f *Fake) SecondsSince(past time.Time) float64 {
	f.mu.Lock()
	now := f.now
	f.mu.Unlock()
	d := now.Sub(past).Seconds()
	if d < 0 {
		return 0
	}
	return d
}

// Advance moves the fake clock forward by d. Negative d panics: tests that
// need to rewind should construct a new Fake instead, matching the
// production clock's guarantee that time never runs backwards.
func (f *Fake) Advance(d time.Duration) {
	if d < 0 {
		panic("clock: Advance called with negative duration")
	}
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// Set pins the fake clock to an absolute instant, for tests that want to
// jump directly to a scenario's starting time rather than accumulate it.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

// BroadcastDay computes the programming-day date for instant t in the
// channel's local timezone, per INV-PLAYLOG-HORIZON-TZ-001: the boundary is
// evaluated in local time, not UTC.
func BroadcastDay(t time.Time, loc *time.Location, dayStartHour int) time.Time {
	local := t.In(loc)
	y, m, d := local.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if local.Hour() < dayStartHour {
		day = day.AddDate(0, 0, -1)
	}
	return day
}
