// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goswdprobe

// Pin is the hardware side of one debug signal line. Implementations drive
// a real GPIO (see rpio.go, periph.go) or a simulated target (simulator.go).
//
// SetMode reconfigures the electrical mode. Write is only meaningful in
// PinModeOutput, Read only in PinModeInput; both are best effort, misuse
// must not fault.
type Pin interface {
	SetMode(mode PinMode)
	Write(level bool)
	Read() bool
}

// signalLine tracks the last commanded mode of a pin so protocol code can
// switch modes unconditionally without touching the hardware twice.
type signalLine struct {
	pin  Pin
	name string
	mode PinMode
}

func newSignalLine(pin Pin, name string) signalLine {
	pin.SetMode(PinModeOff)

	return signalLine{pin: pin, name: name, mode: PinModeOff}
}

func (l *signalLine) setMode(mode PinMode) {
	if l.mode == mode {
		return
	}

	l.pin.SetMode(mode)
	l.mode = mode
}

func (l *signalLine) write(level bool) {
	if l.mode != PinModeOutput {
		logger.Warnf("write to %s while not in output mode", l.name)
		return
	}

	l.pin.Write(level)
}

func (l *signalLine) read() bool {
	if l.mode != PinModeInput {
		logger.Warnf("read from %s while not in input mode", l.name)
		return false
	}

	return l.pin.Read()
}
