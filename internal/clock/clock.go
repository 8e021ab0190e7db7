// Package clock isolates wall-clock access so that tests can pin time.
package clock

import "time"

// NowFunc returns current time; tests may replace it.
var NowFunc = time.Now

// Now returns NowFunc().
func Now() time.Time { return NowFunc() }

// Since returns the time elapsed since start according to NowFunc.
func Since(start time.Time) time.Duration { return NowFunc().Sub(start) }
