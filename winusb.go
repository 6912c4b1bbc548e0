// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

// Microsoft OS 2.0 descriptor set for plug and play WinUSB binding of the
// DAP v2 vendor interface. The descriptor is an opaque blob as far as the
// protocol engine is concerned; the transport answers exactly one vendor
// control request with it and rejects everything else.

package goswdprobe

const (
	msDescriptorTypeHeader        uint8 = 0x00
	msDescriptorTypeHeaderConfig        = 0x01
	msDescriptorTypeHeaderFunc          = 0x02
	msDescriptorTypeCompatibleId        = 0x03
	msDescriptorTypeRegistryProp        = 0x04
)

const (
	winUsbDescriptorSize uint16 = 168
	DapV2Interface       uint8  = 2
)

// Interface GUID the host side client library matches on.
const deviceInterfaceGuid = "{CDB3B5AD-293B-4663-AA36-1AAE46463776}"

var msDescriptor = buildMsDescriptor()

func buildMsDescriptor() []byte {
	buf := NewReportBuffer(int(winUsbDescriptorSize))

	// Set header
	buf.WriteUint16LE(10)
	buf.WriteByte(msDescriptorTypeHeader)
	buf.WriteByte(0x00)
	buf.WriteUint32LE(0x06030000) // Windows 8.1
	buf.WriteUint16LE(winUsbDescriptorSize)

	// Function subset header for the DAP v2 interface
	buf.WriteUint16LE(8)
	buf.WriteByte(msDescriptorTypeHeaderFunc)
	buf.WriteByte(0x00)
	buf.WriteByte(DapV2Interface)
	buf.WriteByte(0x00)
	buf.WriteUint16LE(winUsbDescriptorSize - 10)

	// Compatible ID descriptor, 8 byte ASCII id plus 8 byte sub id
	buf.WriteUint16LE(20)
	buf.WriteByte(msDescriptorTypeCompatibleId)
	buf.WriteByte(0x00)
	buf.WriteString("WINUSB")
	for i := 0; i < 10; i++ {
		buf.WriteByte(0x00)
	}

	// DeviceInterfaceGUIDs registry property, REG_MULTI_SZ
	propertyName := "DeviceInterfaceGUIDs"
	nameLength := uint16(2*len(propertyName) + 2)
	dataLength := uint16(2*len(deviceInterfaceGuid) + 2)

	buf.WriteUint16LE(10 + nameLength + dataLength)
	buf.WriteByte(msDescriptorTypeRegistryProp)
	buf.WriteByte(0x00)
	buf.WriteUint16LE(7) // REG_MULTI_SZ
	buf.WriteUint16LE(nameLength)
	buf.WriteUtf16LE(propertyName)
	buf.WriteUint16LE(dataLength)
	buf.WriteUtf16LE(deviceInterfaceGuid)

	blob := buf.Bytes()

	if len(blob) != int(winUsbDescriptorSize) {
		logger.Errorf("ms descriptor has %d bytes, expected %d", len(blob), winUsbDescriptorSize)
	}

	return blob
}

// MsDescriptor returns the static MS OS 2.0 descriptor set.
func MsDescriptor() []byte {
	return msDescriptor
}

// BosPlatformCapability returns the payload of the BOS platform capability
// descriptor pointing Windows at the vendor request below.
func BosPlatformCapability() []byte {
	buf := NewReportBuffer(25)

	buf.WriteByte(0x00) // reserved
	// MS OS 2.0 platform capability UUID
	buf.Write([]byte{
		0xdf, 0x60, 0xdd, 0xd8, 0x89, 0x45, 0xc7, 0x4c,
		0x9c, 0xd2, 0x65, 0x9d, 0x9e, 0x64, 0x8a, 0x9f,
	})
	buf.WriteUint32LE(0x06030000) // minimum Windows version (8.1)
	buf.WriteUint16LE(winUsbDescriptorSize)
	buf.WriteByte(winUsbVendorCode)
	buf.WriteByte(0x00) // no alternate enumeration

	return buf.Bytes()
}

/**
  Answers a vendor specific control-in request. Only the fixed vendor code
  asking for the MS OS 2.0 descriptor set (index 7) is served; any other
  vendor request is rejected.
*/
func HandleVendorRequest(request uint8, index uint16) ([]byte, error) {
	if request != winUsbVendorCode {
		return nil, NewProbeError("unknown vendor request", ErrorCommandNotFound)
	}

	if index != winUsbDescriptorIndex {
		return nil, NewProbeError("unknown vendor descriptor index", ErrorCommandNotFound)
	}

	return msDescriptor, nil
}
