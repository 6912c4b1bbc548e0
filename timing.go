// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goswdprobe

// timing derives the SWD bit cadence from the probe cpu clock. All waits are
// busy loops counted in cpu cycles: a sleeping or yielding delay would break
// the bit cadence mid-transaction, so none is used here.
type timing struct {
	cpuFrequency    uint32
	maxFrequency    uint32
	cyclesPerUs     uint32
	halfPeriodTicks uint32
}

func newTiming(cpuFrequency uint32, maxFrequency uint32) timing {
	return timing{
		cpuFrequency:    cpuFrequency,
		maxFrequency:    maxFrequency,
		cyclesPerUs:     cpuFrequency / 1000000,
		halfPeriodTicks: cpuFrequency / maxFrequency / 2,
	}
}

/**
  Accepts a new maximum signaling frequency and recomputes the half period
  delay. The integer division truncates, so the realized clock comes out
  slightly faster than requested; hosts rely on that rounding direction.

  Requests at or above the cpu clock are rejected and leave the previous
  timing untouched.
*/
func (t *timing) setClock(maxFrequency uint32) bool {
	if maxFrequency >= t.cpuFrequency {
		logger.Warnf("rejecting clock request of %d Hz (cpu clock is %d Hz)", maxFrequency, t.cpuFrequency)
		return false
	}

	t.maxFrequency = maxFrequency
	t.halfPeriodTicks = t.cpuFrequency / maxFrequency / 2

	logger.Debugf("swd clock set to %d Hz, half period %d cycles", maxFrequency, t.halfPeriodTicks)

	return true
}

var delaySink uint32

// delayCycles burns roughly n cpu cycles without yielding. The loop body is
// kept opaque through a package level sink so it cannot be optimized away.
func delayCycles(n uint32) {
	var acc uint32

	for i := uint32(0); i < n; i++ {
		acc += i
	}

	delaySink = acc
}

func (t *timing) delayHalfPeriod() {
	delayCycles(t.halfPeriodTicks)
}

func (t *timing) delayUs(us uint32) {
	delayCycles(t.cyclesPerUs * us)
}
