// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goswdprobe

type HostStatus uint8 // connection state reported by the host

const (
	HostStatusDisconnected HostStatus = 0
	HostStatusConnected               = 1
	HostStatusRunning                 = 2
)

// StatusLed is the probe's indicator light.
type StatusLed interface {
	Toggle()
}

// VoltageSensor samples the target supply rail.
type VoltageSensor interface {
	ReadMillivolts() uint32
}

// Housekeeping bundles the periodic side work: indicator toggle plus a
// target voltage sample each tick. Either collaborator may be nil.
type Housekeeping struct {
	led    StatusLed
	sensor VoltageSensor
}

func NewHousekeeping(led StatusLed, sensor VoltageSensor) *Housekeeping {
	return &Housekeeping{led: led, sensor: sensor}
}

func (h *Housekeeping) tick() {
	if h.led != nil {
		h.led.Toggle()
	}

	if h.sensor != nil {
		logger.Infof("Vtgt = %d mV", h.sensor.ReadMillivolts())
	}
}

// ReactToHostStatus is the hook a command layer calls when the host
// reports its connection state. The probe has no dedicated connect or
// running indicator, so nothing happens here yet.
func (h *Housekeeping) ReactToHostStatus(status HostStatus) {
}
