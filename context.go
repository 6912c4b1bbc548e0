// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goswdprobe

// TransportContext bundles the three debug signal lines with the derived
// timing state. It is handed by value between the SWD engine and the JTAG
// stub: whichever engine currently holds it owns the physical bus, and
// nothing else may touch the lines. See NewSwdEngine / NewJtagEngine.
type TransportContext struct {
	timing timing
	swdio  signalLine
	swclk  signalLine
	nreset signalLine
}

// NewTransportContext acquires the three signal lines and derives the bit
// timing from the probe cpu clock. The initial maximum signaling frequency
// is the conservative default every DAP host renegotiates anyway.
func NewTransportContext(swdio Pin, swclk Pin, nreset Pin, cpuFrequency uint32) TransportContext {
	ctx := TransportContext{
		timing: newTiming(cpuFrequency, DefaultMaxFrequency),
		swdio:  newSignalLine(swdio, "SWDIO"),
		swclk:  newSignalLine(swclk, "SWCLK"),
		nreset: newSignalLine(nreset, "nRESET"),
	}

	logger.Infof("transport context created, cpu clock %d Hz, half period %d cycles",
		cpuFrequency, ctx.timing.halfPeriodTicks)

	return ctx
}

// HighImpedanceMode releases every line. Used when the host suspends the
// probe; safe to call repeatedly.
func (ctx *TransportContext) HighImpedanceMode() {
	ctx.swdio.setMode(PinModeOff)
	ctx.swclk.setMode(PinModeOff)
	ctx.nreset.setMode(PinModeOff)
}

func (ctx *TransportContext) setClock(maxFrequency uint32) bool {
	return ctx.timing.setClock(maxFrequency)
}
