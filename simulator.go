// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

// In-memory model of a target debug port attached to the three signal
// lines. The model reacts to clock edges exactly like silicon would: it
// samples host bits on the rising edge and presents its own bits on the
// falling edge, so the engine's bit cadence is exercised for real. Used by
// the package tests and the probeSim demo.

package goswdprobe

import (
	"math/bits"
)

type simPhase uint8

const (
	simAwaitRequest simPhase = 0
	simReceiveData           = 1
)

type simDriven struct {
	driven bool
	level  bool
}

// SimulatedTarget holds a small register file per port and answers SWD
// transactions. AckOverride forces a non-OK handshake, CorruptReadParity
// flips the parity bit of the next read response.
type SimulatedTarget struct {
	registers map[uint8]uint32

	AckOverride       uint8
	CorruptReadParity bool

	// captured holds every bit the host clocked out while driving the
	// data line, in wire order
	captured []uint8

	clockLevel    bool
	targetDriving bool
	targetLevel   bool

	outQueue []simDriven

	phase       simPhase
	request     uint8
	requestBits int
	dataIn      uint64
	dataInBits  int
	writeApndp  bool
	writeAddr   uint8

	resetAsserted bool

	swclk  simLine
	swdio  simLine
	nreset simLine
}

type simLine struct {
	mode      PinMode
	hostLevel bool
	pull      bool
}

func NewSimulatedTarget() *SimulatedTarget {
	return &SimulatedTarget{
		registers: make(map[uint8]uint32),
		nreset:    simLine{pull: true}, // board pull-up on reset
	}
}

// Pins returns the three line endpoints to build a TransportContext from.
func (t *SimulatedTarget) Pins() (swdio Pin, swclk Pin, nreset Pin) {
	return &simPin{target: t, line: &t.swdio, data: true},
		&simPin{target: t, line: &t.swclk, clock: true},
		&simPin{target: t, line: &t.nreset, reset: true}
}

func registerKey(apndp bool, addr uint8) uint8 {
	key := addr & 0x03
	if apndp {
		key |= 0x04
	}

	return key
}

func (t *SimulatedTarget) SetRegister(apndp bool, addr uint8, value uint32) {
	t.registers[registerKey(apndp, addr)] = value
}

func (t *SimulatedTarget) Register(apndp bool, addr uint8) uint32 {
	return t.registers[registerKey(apndp, addr)]
}

// CapturedBits returns every bit clocked out by the host so far, in wire
// order, and clears the capture log.
func (t *SimulatedTarget) CapturedBits() []uint8 {
	captured := t.captured
	t.captured = nil

	return captured
}

func (t *SimulatedTarget) ResetAsserted() bool {
	return t.resetAsserted
}

// simPin adapts one line of the target model to the Pin contract.
type simPin struct {
	target *SimulatedTarget
	line   *simLine

	clock bool
	data  bool
	reset bool
}

func (p *simPin) SetMode(mode PinMode) {
	p.line.mode = mode
}

func (p *simPin) Write(level bool) {
	p.line.hostLevel = level

	if p.clock {
		if level && !p.target.clockLevel {
			p.target.onRisingEdge()
		} else if !level && p.target.clockLevel {
			p.target.onFallingEdge()
		}

		p.target.clockLevel = level
	}

	if p.reset && !level {
		p.target.resetAsserted = true
	}
}

func (p *simPin) Read() bool {
	if p.line.mode == PinModeOutput {
		return p.line.hostLevel
	}

	if p.data && p.target.targetDriving {
		return p.target.targetLevel
	}

	return p.line.pull
}

// onRisingEdge samples the data line when the host is driving it.
func (t *SimulatedTarget) onRisingEdge() {
	if t.swdio.mode != PinModeOutput {
		return
	}

	var bit uint8
	if t.swdio.hostLevel {
		bit = 1
	}

	t.captured = append(t.captured, bit)

	switch t.phase {
	case simAwaitRequest:
		// idle bits before the start bit carry nothing
		if t.requestBits == 0 && bit == 0 {
			return
		}

		t.request |= bit << t.requestBits
		t.requestBits++

		if t.requestBits == 8 {
			t.decodeRequest()
			t.request = 0
			t.requestBits = 0
		}

	case simReceiveData:
		t.dataIn |= uint64(bit) << t.dataInBits
		t.dataInBits++

		if t.dataInBits == 33 {
			t.finishWrite()
			t.phase = simAwaitRequest
		}
	}
}

// onFallingEdge presents the next response bit, if any is pending.
func (t *SimulatedTarget) onFallingEdge() {
	if len(t.outQueue) == 0 {
		t.targetDriving = false
		return
	}

	next := t.outQueue[0]
	t.outQueue = t.outQueue[1:]

	t.targetDriving = next.driven
	t.targetLevel = next.level
}

func (t *SimulatedTarget) decodeRequest() {
	req := t.request

	if req&swdRequestStart == 0 || req&swdRequestPark == 0 {
		return
	}

	// parity over APnDP, RnW and the two address bits
	if bits.OnesCount8(req>>1&0x1F)&1 != 0 {
		return
	}

	apndp := req&(1<<1) != 0
	read := req&(1<<2) != 0
	addr := (req >> 3) & 0x03

	ack := t.AckOverride
	if ack == 0 {
		ack = SwdAckOk
	}

	// one turnaround cycle before the target takes the bus
	queue := []simDriven{{driven: false}}

	if ack == SwdAckNoResponse {
		// a missing target drives nothing at all
		t.outQueue = queue
		return
	}

	for i := 0; i < 3; i++ {
		queue = append(queue, simDriven{driven: true, level: ack&(1<<i) != 0})
	}

	if ack != SwdAckOk {
		t.outQueue = queue
		return
	}

	if read {
		value := t.Register(apndp, addr)
		parity := uint8(bits.OnesCount32(value) & 1)

		if t.CorruptReadParity {
			parity ^= 1
			t.CorruptReadParity = false
		}

		for i := 0; i < 32; i++ {
			queue = append(queue, simDriven{driven: true, level: value&(1<<i) != 0})
		}
		queue = append(queue, simDriven{driven: true, level: parity != 0})
	} else {
		t.phase = simReceiveData
		t.dataIn = 0
		t.dataInBits = 0
		t.writeApndp = apndp
		t.writeAddr = addr
	}

	t.outQueue = queue
}

func (t *SimulatedTarget) finishWrite() {
	value := uint32(t.dataIn)
	parity := uint8(t.dataIn >> 32)

	if parity != uint8(bits.OnesCount32(value)&1) {
		logger.Debug("simulated target dropping write with bad parity")
		return
	}

	t.SetRegister(t.writeApndp, t.writeAddr, value)
}
