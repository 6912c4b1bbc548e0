package goswdprobe

import (
	"testing"
)

func newTestHandler() (*DapHandler, *SimulatedTarget) {
	target := NewSimulatedTarget()

	swdio, swclk, nreset := target.Pins()
	ctx := NewTransportContext(swdio, swclk, nreset, testCpuFrequency)

	housekeeping := NewHousekeeping(nil, nil)

	return NewDapHandler(ctx, NewProbeVersion(), housekeeping), target
}

func process(t *testing.T, handler *DapHandler, request []byte) []byte {
	t.Helper()

	response := make([]byte, DefaultResponseSize)
	length := handler.ProcessCommand(request, response, DapVersionV2)

	return response[:length]
}

func TestConnectOwnershipHandoff(t *testing.T) {
	handler, target := newTestHandler()

	if handler.connected() {
		t.Fatal("handler starts connected")
	}

	response := process(t, handler, []byte{dapCmdConnect, dapPortSwd})
	if len(response) != 2 || response[1] != dapPortSwd {
		t.Fatalf("connect response = %v", response)
	}

	if !handler.connected() || handler.swd == nil || handler.ctx != nil {
		t.Fatal("swd engine does not hold the bus after connect")
	}

	response = process(t, handler, []byte{dapCmdDisconnect})
	if len(response) != 2 || response[1] != dapOk {
		t.Fatalf("disconnect response = %v", response)
	}

	if handler.connected() || handler.swd != nil || handler.ctx == nil {
		t.Fatal("context not returned on disconnect")
	}

	// handoff boundary: both lines floated again
	if target.swdio.mode != PinModeInput || target.swclk.mode != PinModeInput {
		t.Error("lines not floating after disconnect")
	}
}

func TestConnectJtagFails(t *testing.T) {
	handler, _ := newTestHandler()

	response := process(t, handler, []byte{dapCmdConnect, dapPortJtag})

	if len(response) != 2 || response[1] != dapPortDefault {
		t.Fatalf("jtag connect response = %v, want failure", response)
	}

	if handler.connected() {
		t.Error("stub jtag connect kept the bus")
	}
}

func TestSuspendIsIdempotent(t *testing.T) {
	handler, target := newTestHandler()

	process(t, handler, []byte{dapCmdConnect, dapPortSwd})

	handler.Suspend()
	handler.Suspend()

	if handler.connected() {
		t.Error("handler still connected after suspend")
	}

	if target.swdio.mode != PinModeOff || target.swclk.mode != PinModeOff || target.nreset.mode != PinModeOff {
		t.Error("lines not released after suspend")
	}

	// the probe must come back up after a suspend
	response := process(t, handler, []byte{dapCmdConnect, dapPortSwd})
	if len(response) != 2 || response[1] != dapPortSwd {
		t.Errorf("connect after suspend = %v", response)
	}
}

func TestTransferReadWrite(t *testing.T) {
	handler, target := newTestHandler()
	target.SetRegister(false, 0, 0xDEADBEEF)

	process(t, handler, []byte{dapCmdConnect, dapPortSwd})

	// single read of DP register 0
	response := process(t, handler, []byte{dapCmdTransfer, 0x00, 0x01, transferRnW})

	if len(response) != 7 {
		t.Fatalf("read transfer response has %d bytes, want 7", len(response))
	}
	if response[1] != 1 || response[2] != SwdAckOk {
		t.Fatalf("read transfer count/ack = %d/0x%02x", response[1], response[2])
	}
	if got := leToUint32(response[3:]); got != 0xDEADBEEF {
		t.Errorf("read transfer value = 0x%08x, want 0xDEADBEEF", got)
	}

	// single write of AP register 1
	response = process(t, handler, []byte{
		dapCmdTransfer, 0x00, 0x01,
		transferApndp | 1<<transferAddrShift,
		0x78, 0x56, 0x34, 0x12,
	})

	if len(response) != 3 || response[1] != 1 || response[2] != SwdAckOk {
		t.Fatalf("write transfer response = %v", response)
	}

	if got := target.Register(true, 1); got != 0x12345678 {
		t.Errorf("target register = 0x%08x, want 0x12345678", got)
	}
}

func TestTransferReadBatchBounded(t *testing.T) {
	handler, target := newTestHandler()
	target.SetRegister(false, 0, 0xDEADBEEF)

	process(t, handler, []byte{dapCmdConnect, dapPortSwd})

	// 16 single reads need 3+16*4 bytes of response, more than one report
	// holds; the batch must be cut short instead of overrunning the buffer
	request := []byte{dapCmdTransfer, 0x00, 16}
	for i := 0; i < 16; i++ {
		request = append(request, transferRnW)
	}

	response := process(t, handler, request)

	if len(response) > DefaultResponseSize {
		t.Fatalf("transfer response has %d bytes, exceeds the report size", len(response))
	}

	wantExecuted := uint8((DefaultResponseSize - 3) / 4)
	if response[1] != wantExecuted {
		t.Errorf("executed count = %d, want %d", response[1], wantExecuted)
	}
	if response[2] != SwdAckOk {
		t.Errorf("ack byte = 0x%02x, want ok", response[2])
	}

	if len(response) != 3+int(wantExecuted)*4 {
		t.Fatalf("transfer response has %d bytes, want %d", len(response), 3+int(wantExecuted)*4)
	}

	for i := 0; i < int(wantExecuted); i++ {
		if got := leToUint32(response[3+4*i:]); got != 0xDEADBEEF {
			t.Errorf("read %d = 0x%08x, want 0xDEADBEEF", i, got)
		}
	}
}

func TestTransferAckAndParityReporting(t *testing.T) {
	tests := []struct {
		name          string
		ack           uint8
		corruptParity bool
		wantAck       uint8
	}{
		{"wait", SwdAckWait, false, SwdAckWait},
		{"fault", SwdAckFault, false, SwdAckFault},
		{"no response", SwdAckNoResponse, false, SwdAckNoResponse},
		{"parity error on ok ack", 0, true, SwdAckOk | transferProtocolError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, target := newTestHandler()
			target.AckOverride = tt.ack
			target.CorruptReadParity = tt.corruptParity

			process(t, handler, []byte{dapCmdConnect, dapPortSwd})

			response := process(t, handler, []byte{dapCmdTransfer, 0x00, 0x01, transferRnW})

			if len(response) < 3 {
				t.Fatalf("transfer response = %v", response)
			}
			if response[1] != 0 {
				t.Errorf("executed count = %d, want 0", response[1])
			}
			if response[2] != tt.wantAck {
				t.Errorf("ack byte = 0x%02x, want 0x%02x", response[2], tt.wantAck)
			}
		})
	}
}

func TestTransferWithoutConnect(t *testing.T) {
	handler, _ := newTestHandler()

	response := process(t, handler, []byte{dapCmdTransfer, 0x00, 0x01, transferRnW})

	if len(response) != 3 || response[1] != 0 || response[2] != SwdAckNoResponse {
		t.Errorf("disconnected transfer response = %v", response)
	}
}

func TestSwjClockCommand(t *testing.T) {
	tests := []struct {
		name      string
		frequency uint32
		want      uint8
	}{
		{"accepted", testCpuFrequency / 10, dapOk},
		{"rejected", testCpuFrequency * 2, dapError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := newTestHandler()
			process(t, handler, []byte{dapCmdConnect, dapPortSwd})

			request := make([]byte, 5)
			request[0] = dapCmdSwjClock
			uint32ToLittleEndian(request[1:], tt.frequency)

			response := process(t, handler, request)

			if len(response) != 2 || response[1] != tt.want {
				t.Errorf("swj clock response = %v, want status 0x%02x", response, tt.want)
			}
		})
	}
}

func TestSwdConfigureCommand(t *testing.T) {
	tests := []struct {
		name string
		cfg  uint8
		want uint8
	}{
		{"default configuration", 0x00, dapOk},
		{"two cycle turnaround", 0x01, dapError},
		{"always data phase", 0x04, dapError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := newTestHandler()
			process(t, handler, []byte{dapCmdConnect, dapPortSwd})

			response := process(t, handler, []byte{dapCmdSwdConfigure, tt.cfg})

			if len(response) != 2 || response[1] != tt.want {
				t.Errorf("swd configure response = %v, want status 0x%02x", response, tt.want)
			}
		})
	}
}

func TestSwjSequenceWhileConnected(t *testing.T) {
	handler, target := newTestHandler()

	process(t, handler, []byte{dapCmdConnect, dapPortSwd})
	target.CapturedBits()

	// line level sequence must work with an engine connected, through a
	// release/reacquire of the bus
	response := process(t, handler, []byte{dapCmdSwjSequence, 8, 0xA5})

	if len(response) != 2 || response[1] != dapOk {
		t.Fatalf("swj sequence response = %v", response)
	}

	captured := target.CapturedBits()
	if len(captured) != 8 {
		t.Fatalf("sequence clocked %d bits, want 8", len(captured))
	}

	if handler.swd == nil {
		t.Error("swd engine not reacquired after sequence")
	}

	if target.swdio.mode != PinModeOutput || target.swclk.mode != PinModeOutput {
		t.Error("engine does not hold the lines after reacquire")
	}
}

func TestInfoCommand(t *testing.T) {
	handler, _ := newTestHandler()

	tests := []struct {
		name string
		id   uint8
		want string
	}{
		{"vendor", dapInfoVendor, VendorName},
		{"product", dapInfoProduct, ProductName},
		{"serial", dapInfoSerial, ProbeSerialNumber},
		{"firmware", dapInfoFirmwareVer, FirmwareVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response := process(t, handler, []byte{dapCmdInfo, tt.id})

			length := int(response[1])
			got := string(response[2 : 2+length-1])

			if got != tt.want {
				t.Errorf("info %s = %q, want %q", tt.name, got, tt.want)
			}

			if response[2+length-1] != 0 {
				t.Error("info string not null terminated")
			}
		})
	}

	response := process(t, handler, []byte{dapCmdInfo, dapInfoCapabilities})
	if len(response) != 3 || response[2] != 0x01 {
		t.Errorf("capability response = %v, want swd-only 0x01", response)
	}
}
