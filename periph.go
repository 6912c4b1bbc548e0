// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goswdprobe

import (
	"periph.io/x/conn/v3/gpio"
)

// PeriphPin adapts any periph.io gpio.PinIO to a debug line, which covers
// FTDI MPSSE adapters and the sysfs/ioctl GPIO drivers.
type PeriphPin struct {
	pin gpio.PinIO
}

func NewPeriphPin(pin gpio.PinIO) *PeriphPin {
	return &PeriphPin{pin: pin}
}

func (p *PeriphPin) SetMode(mode PinMode) {
	switch mode {
	case PinModeOutput:
		if err := p.pin.Out(gpio.Low); err != nil {
			logger.Warnf("could not switch %s to output: %v", p.pin.Name(), err)
		}

	case PinModeInput, PinModeOff:
		if err := p.pin.In(gpio.Float, gpio.NoEdge); err != nil {
			logger.Warnf("could not float %s: %v", p.pin.Name(), err)
		}
	}
}

func (p *PeriphPin) Write(level bool) {
	if err := p.pin.Out(gpio.Level(level)); err != nil {
		logger.Warnf("could not drive %s: %v", p.pin.Name(), err)
	}
}

func (p *PeriphPin) Read() bool {
	return p.pin.Read() == gpio.High
}
