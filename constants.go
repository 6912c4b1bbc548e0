// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goswdprobe

type PinMode uint8 // electrical mode of a debug signal line

const (
	PinModeOff    PinMode = 0
	PinModeInput          = 1
	PinModeOutput         = 2
)

type PinMask uint8 // bit positions follow the DAP_SWJ_Pins layout

const (
	PinMaskSwClk  PinMask = 0x01
	PinMaskSwdIo          = 0x02
	PinMaskNReset         = 0x80
)

type DapVersion uint8 // report flavour a host request arrived on

const (
	DapVersionV1 DapVersion = 1
	DapVersionV2            = 2
)

type ReportKind uint8 // what the transport delivered to the dispatcher

const (
	ReportDap1    ReportKind = 0
	ReportDap2               = 1
	ReportSuspend            = 2
)

// SWD acknowledgment codes (3 bit, LSB first on the wire)
const (
	SwdAckOk         uint8 = 0x01
	SwdAckWait             = 0x02
	SwdAckFault            = 0x04
	SwdAckNoResponse       = 0x07
)

// SWD request framing
const (
	swdRequestStart uint8 = 0x01
	swdRequestStop        = 0x00
	swdRequestPark        = 0x80
)

// Turnaround / data phase settings accepted by SwdEngine.Configure.
// The engine is hardwired for a single turnaround cycle and no extended
// data phase, matching the DAP_SWD_Configure encoding.
const (
	SwdTurnaroundCycles1 uint8 = 0x00
	SwdDataPhaseNone     uint8 = 0x00
)

// DAP command bytes understood by the host side client
const (
	dapCmdInfo          uint8 = 0x00
	dapCmdHostStatus          = 0x01
	dapCmdConnect             = 0x02
	dapCmdDisconnect          = 0x03
	dapCmdTransferCfg         = 0x04
	dapCmdTransfer            = 0x05
	dapCmdSwjPins             = 0x10
	dapCmdSwjClock            = 0x11
	dapCmdSwjSequence         = 0x12
	dapCmdSwdConfigure        = 0x13
)

// DAP_Info identifiers
const (
	dapInfoVendor       uint8 = 0x01
	dapInfoProduct            = 0x02
	dapInfoSerial             = 0x03
	dapInfoFirmwareVer        = 0x04
	dapInfoCapabilities       = 0xF0
	dapInfoPacketCount        = 0xFE
	dapInfoPacketSize         = 0xFF
)

// Probe capability flag positions, see version.go
const (
	capHasSwd        = 0
	capHasJtag       = 1
	capHasDapV1      = 2
	capHasDapV2      = 3
	capHasWinUsb     = 4
	capHasTargetVolt = 5
)

const (
	DefaultCpuFrequency   = 125000000 // RP2040 system clock in Hz
	DefaultMaxFrequency   = 100000
	DefaultResponseSize   = 64
	DefaultHousekeepingMs = 500
)

// Vendor control request answered with the MS OS 2.0 descriptor blob
const (
	winUsbVendorCode      uint8  = 0x42
	winUsbDescriptorIndex uint16 = 0x07 // MS_OS_20_DESCRIPTOR_INDEX
)
