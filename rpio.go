// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goswdprobe

import (
	"github.com/stianeikeland/go-rpio"
)

// RpioPin drives one debug line through the Raspberry Pi's memory mapped
// GPIO. rpio.Open must have been called before the first mode change.
type RpioPin struct {
	pin rpio.Pin
}

func NewRpioPin(bcmNumber uint8) *RpioPin {
	return &RpioPin{pin: rpio.Pin(bcmNumber)}
}

// OpenRpio maps the GPIO registers. Call once before building a transport
// context on RpioPin lines.
func OpenRpio() error {
	if err := rpio.Open(); err != nil {
		logger.Error("could not map gpio registers: ", err)
		return err
	}

	return nil
}

func CloseRpio() {
	if err := rpio.Close(); err != nil {
		logger.Warn("error while unmapping gpio registers: ", err)
	}
}

func (p *RpioPin) SetMode(mode PinMode) {
	switch mode {
	case PinModeOutput:
		p.pin.Output()

	case PinModeInput:
		p.pin.Input()
		p.pin.PullOff()

	case PinModeOff:
		// no true disable on the bcm283x, floating input is as close
		// as it gets
		p.pin.Input()
		p.pin.PullOff()
	}
}

func (p *RpioPin) Write(level bool) {
	if level {
		p.pin.High()
	} else {
		p.pin.Low()
	}
}

func (p *RpioPin) Read() bool {
	return p.pin.Read() == rpio.High
}
