// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goswdprobe

import (
	"fmt"

	"github.com/boljen/go-bitmap"
)

const (
	FirmwareVersion   = "2.0.0"
	VendorName        = "bbnote"
	ProductName       = "goswdprobe CMSIS-DAP"
	ProbeSerialNumber = "000000001"
)

// ProbeVersion describes what this probe build can do. The flag bitmap is
// reported verbatim through DAP_Info capability queries.
type ProbeVersion struct {
	firmware string
	flags    bitmap.Bitmap
}

func NewProbeVersion() *ProbeVersion {
	flags := bitmap.New(32)

	flags.Set(capHasSwd, true)
	// JTAG is declared but the engine is a stub, see jtag.go
	flags.Set(capHasJtag, false)
	flags.Set(capHasDapV1, true)
	flags.Set(capHasDapV2, true)
	flags.Set(capHasWinUsb, true)
	flags.Set(capHasTargetVolt, true)

	return &ProbeVersion{
		firmware: FirmwareVersion,
		flags:    flags,
	}
}

func (v *ProbeVersion) Firmware() string {
	return v.firmware
}

func (v *ProbeVersion) Supports(capability int) bool {
	return v.flags.Get(capability)
}

// CapabilityByte encodes the flag bitmap as the single info byte the DAP
// capability query expects: bit 0 SWD, bit 1 JTAG.
func (v *ProbeVersion) CapabilityByte() uint8 {
	var caps uint8

	if v.flags.Get(capHasSwd) {
		caps |= 0x01
	}
	if v.flags.Get(capHasJtag) {
		caps |= 0x02
	}

	return caps
}

func (v *ProbeVersion) toString() string {
	return fmt.Sprintf("%s %s (fw %s)", VendorName, ProductName, v.firmware)
}
