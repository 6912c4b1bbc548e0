// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

// Minimal DAP command processor on top of the transaction engine. It covers
// the commands a host needs to bring the wire up and move single registers;
// block transfers, match/mask transfers and multi-drop are not handled.
//
// The handler also enforces the bus ownership rule: at any time exactly one
// of {idle context, SWD engine, JTAG stub} exists, and switching is always
// a full release/acquire pair.

package goswdprobe

const (
	dapOk    uint8 = 0x00
	dapError uint8 = 0xFF
)

const (
	dapPortDefault uint8 = 0
	dapPortSwd           = 1
	dapPortJtag          = 2
)

// DAP_Transfer request bits
const (
	transferApndp      uint8 = 1 << 0
	transferRnW              = 1 << 1
	transferAddrShift        = 2
	transferMatchValue       = 1 << 4
	transferMatchMask        = 1 << 5
)

// DAP_Transfer response ack bits; parity failures show up as the protocol
// error bit on top of an OK ack
const transferProtocolError uint8 = 0x08

type DapHandler struct {
	version      *ProbeVersion
	housekeeping *Housekeeping

	ctx  *TransportContext
	swd  *SwdEngine
	jtag *JtagEngine
}

func NewDapHandler(ctx TransportContext, version *ProbeVersion, housekeeping *Housekeeping) *DapHandler {
	logger.Info("dap handler ready for ", version.toString())

	return &DapHandler{
		version:      version,
		housekeeping: housekeeping,
		ctx:          &ctx,
	}
}

// Suspend quiesces the probe: the bus is released and every line floated.
// Receiving it twice in a row is harmless.
func (d *DapHandler) Suspend() {
	d.disconnect()
	d.ctx.HighImpedanceMode()
}

// connected reports whether a protocol engine currently holds the bus.
func (d *DapHandler) connected() bool {
	return d.ctx == nil
}

func (d *DapHandler) disconnect() {
	if d.swd != nil {
		ctx := d.swd.Release()
		d.swd = nil
		d.ctx = &ctx
	}

	if d.jtag != nil {
		ctx := d.jtag.Release()
		d.jtag = nil
		d.ctx = &ctx
	}
}

// withContext runs op on the raw transport context. If an engine holds the
// bus it is released first and reacquired afterwards, so line level
// operations never alias engine owned pins.
func (d *DapHandler) withContext(op func(ctx *TransportContext)) {
	if d.swd != nil {
		ctx := d.swd.Release()
		op(&ctx)
		d.swd = NewSwdEngine(ctx)
		return
	}

	if d.jtag != nil {
		ctx := d.jtag.Release()
		op(&ctx)
		d.jtag = NewJtagEngine(ctx)
		return
	}

	op(d.ctx)
}

/**
  Decodes one report payload and executes it, writing the answer into
  response. Returns the number of response bytes, zero for no reply.
*/
func (d *DapHandler) ProcessCommand(request []byte, response []byte, version DapVersion) int {
	if len(request) == 0 {
		return 0
	}

	logger.Tracef("processing dap v%d command 0x%02x (%d bytes)", version, request[0], len(request))

	switch request[0] {
	case dapCmdInfo:
		return d.commandInfo(request, response)

	case dapCmdHostStatus:
		return d.commandHostStatus(request, response)

	case dapCmdConnect:
		return d.commandConnect(request, response)

	case dapCmdDisconnect:
		d.disconnect()
		response[0] = dapCmdDisconnect
		response[1] = dapOk
		return 2

	case dapCmdTransferCfg:
		// retry/idle policy lives in the host, nothing to keep here
		response[0] = dapCmdTransferCfg
		response[1] = dapOk
		return 2

	case dapCmdTransfer:
		return d.commandTransfer(request, response)

	case dapCmdSwjPins:
		return d.commandSwjPins(request, response)

	case dapCmdSwjClock:
		return d.commandSwjClock(request, response)

	case dapCmdSwjSequence:
		return d.commandSwjSequence(request, response)

	case dapCmdSwdConfigure:
		return d.commandSwdConfigure(request, response)

	default:
		logger.Debugf("unimplemented dap command 0x%02x", request[0])
		response[0] = dapError
		return 1
	}
}

func (d *DapHandler) commandInfo(request []byte, response []byte) int {
	if len(request) < 2 {
		return 0
	}

	response[0] = dapCmdInfo

	writeString := func(value string) int {
		response[1] = uint8(len(value) + 1)
		copy(response[2:], value)
		response[2+len(value)] = 0

		return 3 + len(value)
	}

	switch request[1] {
	case dapInfoVendor:
		return writeString(VendorName)

	case dapInfoProduct:
		return writeString(ProductName)

	case dapInfoSerial:
		return writeString(ProbeSerialNumber)

	case dapInfoFirmwareVer:
		return writeString(d.version.Firmware())

	case dapInfoCapabilities:
		response[1] = 1
		response[2] = d.version.CapabilityByte()
		return 3

	case dapInfoPacketCount:
		response[1] = 1
		response[2] = 1
		return 3

	case dapInfoPacketSize:
		response[1] = 2
		response[2] = uint8(DefaultResponseSize)
		response[3] = uint8(DefaultResponseSize >> 8)
		return 4

	default:
		response[1] = 0
		return 2
	}
}

func (d *DapHandler) commandHostStatus(request []byte, response []byte) int {
	if len(request) >= 3 && request[2] != 0 {
		d.housekeeping.ReactToHostStatus(HostStatus(request[1] + 1))
	} else {
		d.housekeeping.ReactToHostStatus(HostStatusDisconnected)
	}

	response[0] = dapCmdHostStatus
	response[1] = dapOk
	return 2
}

func (d *DapHandler) commandConnect(request []byte, response []byte) int {
	if len(request) < 2 {
		return 0
	}

	port := request[1]
	response[0] = dapCmdConnect

	d.disconnect()

	switch port {
	case dapPortDefault, dapPortSwd:
		d.swd = NewSwdEngine(*d.ctx)
		d.ctx = nil
		response[1] = dapPortSwd

	case dapPortJtag:
		// stub variant, report the connect as failed
		jtag := NewJtagEngine(*d.ctx)
		if !jtag.Available() {
			ctx := jtag.Release()
			d.ctx = &ctx
			response[1] = dapPortDefault
			break
		}

		d.jtag = jtag
		d.ctx = nil
		response[1] = dapPortJtag

	default:
		response[1] = dapPortDefault
	}

	return 2
}

func (d *DapHandler) commandTransfer(request []byte, response []byte) int {
	if len(request) < 3 {
		return 0
	}

	response[0] = dapCmdTransfer

	if d.swd == nil {
		response[1] = 0
		response[2] = SwdAckNoResponse
		return 3
	}

	count := int(request[2])
	offset := 3
	respOffset := 3

	var executed uint8
	var lastAck uint8 = SwdAckOk

	for i := 0; i < count; i++ {
		if offset >= len(request) {
			break
		}

		transferReq := request[offset]
		offset++

		if transferReq&(transferMatchValue|transferMatchMask) != 0 {
			logger.Debug("match transfers are not supported")
			lastAck = SwdAckNoResponse
			break
		}

		apndp := transferReq&transferApndp != 0
		addr := (transferReq >> transferAddrShift) & 0x03

		if transferReq&transferRnW != 0 {
			// the response report is a fixed-size buffer; a read batch
			// that would outgrow it is cut short and reported truncated
			// through the executed count
			if respOffset+4 > len(response) {
				break
			}

			value, err := d.swd.ReadRegister(apndp, addr)

			lastAck = ackBitsFor(err)
			if err != nil {
				break
			}

			uint32ToLittleEndian(response[respOffset:], value)
			respOffset += 4
		} else {
			if offset+4 > len(request) {
				break
			}

			value := leToUint32(request[offset:])
			offset += 4

			err := d.swd.WriteRegister(apndp, addr, value)

			lastAck = ackBitsFor(err)
			if err != nil {
				break
			}
		}

		executed++
	}

	response[1] = executed
	response[2] = lastAck

	return respOffset
}

// ackBitsFor folds a transaction error into the transfer response ack
// bits. A parity failure arrives with an OK handshake, so it is flagged on
// top of the OK code.
func ackBitsFor(err error) uint8 {
	switch ErrorCode(err) {
	case ErrorOK:
		return SwdAckOk

	case ErrorAckWait:
		return SwdAckWait

	case ErrorAckFault:
		return SwdAckFault

	case ErrorBadParity:
		return SwdAckOk | transferProtocolError

	default:
		return SwdAckNoResponse
	}
}

func (d *DapHandler) commandSwjPins(request []byte, response []byte) int {
	if len(request) < 7 {
		return 0
	}

	output := PinMask(request[1])
	mask := PinMask(request[2])
	waitUs := leToUint32(request[3:])

	var sampled PinMask
	d.withContext(func(ctx *TransportContext) {
		sampled = ctx.Pins(output, mask, waitUs)
	})

	response[0] = dapCmdSwjPins
	response[1] = uint8(sampled)
	return 2
}

func (d *DapHandler) commandSwjClock(request []byte, response []byte) int {
	if len(request) < 5 {
		return 0
	}

	frequency := leToUint32(request[1:])

	var accepted bool
	if d.swd != nil {
		accepted = d.swd.SetClock(frequency)
	} else if d.jtag != nil {
		accepted = d.jtag.SetClock(frequency)
	} else {
		accepted = d.ctx.setClock(frequency)
	}

	response[0] = dapCmdSwjClock
	if accepted {
		response[1] = dapOk
	} else {
		response[1] = dapError
	}

	return 2
}

func (d *DapHandler) commandSwjSequence(request []byte, response []byte) int {
	if len(request) < 2 {
		return 0
	}

	bitCount := int(request[1])
	if bitCount == 0 {
		bitCount = 256
	}

	d.withContext(func(ctx *TransportContext) {
		ctx.Sequence(request[2:], bitCount)
	})

	response[0] = dapCmdSwjSequence
	response[1] = dapOk
	return 2
}

func (d *DapHandler) commandSwdConfigure(request []byte, response []byte) int {
	if len(request) < 2 {
		return 0
	}

	turnaround := request[1] & 0x03
	dataPhase := request[1] >> 2 & 0x01

	response[0] = dapCmdSwdConfigure

	if d.swd == nil {
		response[1] = dapError
		return 2
	}

	if err := d.swd.Configure(turnaround, dataPhase); err != nil {
		logger.Debug("rejected swd configuration: ", err)
		response[1] = dapError
		return 2
	}

	response[1] = dapOk
	return 2
}
