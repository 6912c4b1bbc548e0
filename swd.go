// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

// SWD transaction engine: request framing, ack handshake, data and parity
// exchange, and the flush-to-idle recovery on a bad ack. Everything here is
// a blocking busy-wait; a transaction always runs to its terminal state.

package goswdprobe

import (
	"math/bits"
)

type SwdEngine struct {
	ctx TransportContext
}

// NewSwdEngine takes over the bus. Both clock and data lines are driven
// from here on until Release floats them again.
func NewSwdEngine(ctx TransportContext) *SwdEngine {
	ctx.swdio.setMode(PinModeOutput)
	ctx.swclk.setMode(PinModeOutput)

	return &SwdEngine{ctx: ctx}
}

func (s *SwdEngine) Available() bool {
	return true
}

// Release floats both lines and gives the transport context back, so the
// other engine variant may acquire it.
func (s *SwdEngine) Release() TransportContext {
	s.ctx.swclk.setMode(PinModeInput)
	s.ctx.swdio.setMode(PinModeInput)

	return s.ctx
}

/**
  The engine supports exactly one electrical configuration: a single
  turnaround cycle and no extended data phase. Anything else is refused
  without touching the bus.
*/
func (s *SwdEngine) Configure(turnaround uint8, dataPhase uint8) error {
	if turnaround == SwdTurnaroundCycles1 && dataPhase == SwdDataPhaseNone {
		return nil
	}

	return NewProbeError("unsupported swd turnaround/data phase configuration", ErrorUnsupportedCfg)
}

func (s *SwdEngine) SetClock(maxFrequency uint32) bool {
	return s.ctx.setClock(maxFrequency)
}

/**
  Builds the 8 bit request: start, APnDP, RnW, the two register address
  bits, parity over the previous four, stop and park. Sent LSB first.
*/
func makeRequest(apndp bool, read bool, addr uint8) uint8 {
	req := swdRequestStart

	if apndp {
		req |= 1 << 1
	}
	if read {
		req |= 1 << 2
	}

	req |= (addr & 0x03) << 3

	if bits.OnesCount8(req>>1&0x0F)&1 == 1 {
		req |= 1 << 5
	}

	req |= swdRequestPark

	return req
}

// ReadRegister performs one SWD read of register addr in the access port
// (apndp true) or debug port register space.
func (s *SwdEngine) ReadRegister(apndp bool, addr uint8) (uint32, error) {
	s.tx8(makeRequest(apndp, true, addr))

	// 1 clock turnaround, 3 clocks ack
	ack := s.rx4() >> 1
	if err := ackToError(ack); err != nil {
		// The target released the bus but still expects one more
		// turnaround clock before the next request. Take the bus back
		// and flush, otherwise every following transaction is skewed.
		s.idleLow()
		return 0, err
	}

	data, parity := s.readData()

	// Turnaround plus trailing idle, then pin SWDIO low so the bus does
	// not float at rest.
	s.rx8()
	s.ctx.swdio.setMode(PinModeOutput)
	s.writeBit(false)

	if parity != uint8(bits.OnesCount32(data)&1) {
		logger.Debugf("parity mismatch on read of reg %d (data 0x%08x)", addr, data)
		return 0, NewProbeError("bad parity on swd read", ErrorBadParity)
	}

	return data, nil
}

// WriteRegister performs one SWD write of value to register addr.
func (s *SwdEngine) WriteRegister(apndp bool, addr uint8, value uint32) error {
	s.tx8(makeRequest(apndp, false, addr))

	// 1 clock turnaround, 3 clocks ack, 1 clock turnaround
	ack := (s.rx5() >> 1) & 0x07
	if err := ackToError(ack); err != nil {
		s.idleLow()
		return err
	}

	parity := uint8(bits.OnesCount32(value) & 1)
	s.sendData(value, parity)

	// Trailing idle
	s.tx8(0)

	return nil
}

// idleLow drives four low bits to flush the turnaround the target still
// expects after a bad ack, then releases the data line.
func (s *SwdEngine) idleLow() {
	s.ctx.swdio.setMode(PinModeOutput)

	for i := 0; i < 4; i++ {
		s.writeBit(false)
	}

	s.ctx.swdio.setMode(PinModeInput)
}

func (s *SwdEngine) tx8(data uint8) {
	s.ctx.swdio.setMode(PinModeOutput)

	for i := 0; i < 8; i++ {
		s.writeBit(data&1 != 0)
		data >>= 1
	}
}

func (s *SwdEngine) rx4() uint8 {
	s.ctx.swdio.setMode(PinModeInput)

	var data uint8

	for i := 0; i < 4; i++ {
		if s.readBit() {
			data |= 1 << i
		}
	}

	return data
}

func (s *SwdEngine) rx5() uint8 {
	s.ctx.swdio.setMode(PinModeInput)

	var data uint8

	for i := 0; i < 5; i++ {
		if s.readBit() {
			data |= 1 << i
		}
	}

	return data
}

func (s *SwdEngine) rx8() uint8 {
	s.ctx.swdio.setMode(PinModeInput)

	var data uint8

	for i := 0; i < 8; i++ {
		if s.readBit() {
			data |= 1 << i
		}
	}

	return data
}

func (s *SwdEngine) sendData(data uint32, parity uint8) {
	s.ctx.swdio.setMode(PinModeOutput)

	for i := 0; i < 32; i++ {
		s.writeBit(data&1 != 0)
		data >>= 1
	}

	s.writeBit(parity != 0)
}

func (s *SwdEngine) readData() (uint32, uint8) {
	s.ctx.swdio.setMode(PinModeInput)

	var data uint32

	for i := 0; i < 32; i++ {
		if s.readBit() {
			data |= 1 << i
		}
	}

	var parity uint8
	if s.readBit() {
		parity = 1
	}

	return data, parity
}

func (s *SwdEngine) writeBit(level bool) {
	s.ctx.swdio.write(level)
	s.ctx.swclk.write(false)
	s.ctx.timing.delayHalfPeriod()
	s.ctx.swclk.write(true)
	s.ctx.timing.delayHalfPeriod()
}

func (s *SwdEngine) readBit() bool {
	s.ctx.swclk.write(false)
	s.ctx.timing.delayHalfPeriod()
	level := s.ctx.swdio.read()
	s.ctx.swclk.write(true)
	s.ctx.timing.delayHalfPeriod()

	return level
}
