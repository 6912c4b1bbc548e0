// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

// Protocol agnostic line level operations. The host uses these for bus
// resets and for the JTAG-to-SWD switch sequence, before any transaction
// engine owns the bus.

package goswdprobe

/**
  Drives every line selected by mask to the level given in output, waits
  waitUs microseconds for the bus to settle, then floats all three lines
  and samples them. The returned mask holds the observed levels.

  nRESET is wired as open drain: a requested high level releases the line
  instead of driving it, only a low level is actively driven. Driving high
  would fight the target's own reset circuitry.
*/
func (ctx *TransportContext) Pins(output PinMask, mask PinMask, waitUs uint32) PinMask {
	if mask&PinMaskSwClk != 0 {
		ctx.swclk.setMode(PinModeOutput)
		ctx.swclk.write(output&PinMaskSwClk != 0)
	}

	if mask&PinMaskSwdIo != 0 {
		ctx.swdio.setMode(PinModeOutput)
		ctx.swdio.write(output&PinMaskSwdIo != 0)
	}

	if mask&PinMaskNReset != 0 {
		if output&PinMaskNReset != 0 {
			ctx.nreset.setMode(PinModeOff)
		} else {
			ctx.nreset.setMode(PinModeOutput)
			ctx.nreset.write(false)
		}
	}

	ctx.timing.delayUs(waitUs)

	ctx.swclk.setMode(PinModeInput)
	ctx.swdio.setMode(PinModeInput)
	ctx.nreset.setMode(PinModeInput)

	var sampled PinMask

	if ctx.swclk.read() {
		sampled |= PinMaskSwClk
	}
	if ctx.swdio.read() {
		sampled |= PinMaskSwdIo
	}
	if ctx.nreset.read() {
		sampled |= PinMaskNReset
	}

	return sampled
}

/**
  Clocks out up to bitCount bits from data, LSB first per byte, with the
  uniform half-period-low / half-period-high cadence. Both lines are floated
  again when the burst is done.
*/
func (ctx *TransportContext) Sequence(data []byte, bitCount int) {
	ctx.swdio.setMode(PinModeOutput)
	ctx.swclk.setMode(PinModeOutput)

	for _, b := range data {
		frameBits := bitCount
		if frameBits > 8 {
			frameBits = 8
		}

		for i := 0; i < frameBits; i++ {
			ctx.swdio.write(b&1 != 0)
			b >>= 1

			ctx.swclk.write(false)
			ctx.timing.delayHalfPeriod()
			ctx.swclk.write(true)
			ctx.timing.delayHalfPeriod()
		}

		bitCount -= frameBits
		if bitCount == 0 {
			break
		}
	}

	ctx.swclk.setMode(PinModeInput)
	ctx.swdio.setMode(PinModeInput)
}
