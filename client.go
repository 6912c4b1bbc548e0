// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

// Host side of the probe's USB contract: DAP v2 reports over a pair of bulk
// endpoints, plus the vendor control request for the WinUSB descriptor set.
// Useful for exercising a real probe from a development machine.

package goswdprobe

import (
	"errors"
	"fmt"

	"github.com/google/gousb"
)

const ProbeAllVids = 0xFFFF
const ProbeAllPids = 0xFFFF

var probeSupportedVids = []gousb.ID{0x2E8A} // Raspberry Pi
var probeSupportedPids = []gousb.ID{0x000C}

type ProbeClientConfig struct {
	vid    gousb.ID
	pid    gousb.ID
	serial string
}

func NewProbeClientConfig(vid gousb.ID, pid gousb.ID, serial string) *ProbeClientConfig {
	return &ProbeClientConfig{
		vid:    vid,
		pid:    pid,
		serial: serial,
	}
}

type ProbeClient struct {
	usbDevice    *gousb.Device
	usbConfig    *gousb.Config
	usbInterface *gousb.Interface

	rxEndpoint *gousb.InEndpoint
	txEndpoint *gousb.OutEndpoint

	packetSize int
	vid        gousb.ID
	pid        gousb.ID
}

func NewProbeClient(config *ProbeClientConfig) (*ProbeClient, error) {
	var err error
	var devices []*gousb.Device

	client := &ProbeClient{packetSize: DefaultResponseSize}

	if config.vid == ProbeAllVids && config.pid == ProbeAllPids {
		devices, err = usbFindDevices(probeSupportedVids, probeSupportedPids)

	} else if config.vid == ProbeAllVids && config.pid != ProbeAllPids {
		devices, err = usbFindDevices(probeSupportedVids, []gousb.ID{config.pid})

	} else if config.vid != ProbeAllVids && config.pid == ProbeAllPids {
		devices, err = usbFindDevices([]gousb.ID{config.vid}, probeSupportedPids)

	} else {
		devices, err = usbFindDevices([]gousb.ID{config.vid}, []gousb.ID{config.pid})
	}

	if err != nil {
		return nil, err
	}

	if len(devices) == 0 {
		return nil, errors.New("could not find any debug probe connected to computer")
	}

	if config.serial == "" && len(devices) > 1 {
		return nil, errors.New("could not identify exact probe by given parameters (perhaps a serial no is missing?)")
	} else if len(devices) == 1 {
		client.usbDevice = devices[0]
	} else {
		for _, dev := range devices {
			devSerialNo, _ := dev.SerialNumber()

			logger.Debugf("Compare serial no %s with number %s", devSerialNo, config.serial)

			if devSerialNo == config.serial {
				client.usbDevice = dev

				logger.Infof("Found debug probe with serial number %s", devSerialNo)
			}
		}
	}

	if client.usbDevice == nil {
		return nil, errors.New("could not find debug probe by given parameters")
	}

	client.usbDevice.SetAutoDetach(true)

	client.usbConfig, err = client.usbDevice.Config(1)
	if err != nil {
		logger.Debug(err)
		return nil, errors.New("could not request configuration #1 for debug probe")
	}

	client.usbInterface, err = client.usbConfig.Interface(int(DapV2Interface), 0)
	if err != nil {
		logger.Debug(err)
		return nil, fmt.Errorf("could not claim interface %d,0 for debug probe", DapV2Interface)
	}

	for _, endpointDesc := range client.usbInterface.Setting.Endpoints {
		if endpointDesc.TransferType != gousb.TransferTypeBulk {
			continue
		}

		if endpointDesc.Direction == gousb.EndpointDirectionIn {
			client.rxEndpoint, err = client.usbInterface.InEndpoint(endpointDesc.Number)
		} else {
			client.txEndpoint, err = client.usbInterface.OutEndpoint(endpointDesc.Number)
		}

		if err != nil {
			client.Close()
			return nil, err
		}
	}

	if client.rxEndpoint == nil || client.txEndpoint == nil {
		client.Close()
		return nil, errors.New("debug probe lacks a bulk endpoint pair")
	}

	client.vid = client.usbDevice.Desc.Vendor
	client.pid = client.usbDevice.Desc.Product

	return client, nil
}

func (c *ProbeClient) Close() {
	if c.usbInterface != nil {
		c.usbInterface.Close()
	}
	if c.usbConfig != nil {
		c.usbConfig.Close()
	}
	if c.usbDevice != nil {
		c.usbDevice.Close()
	}
}

// Command sends one DAP v2 report and reads the matching reply.
func (c *ProbeClient) Command(request []byte) ([]byte, error) {
	if len(request) > c.packetSize {
		return nil, NewProbeError("dap report exceeds packet size", ErrorUsbTransfer)
	}

	if _, err := usbWrite(c.txEndpoint, request); err != nil {
		return nil, NewProbeError(fmt.Sprintf("usb write failed: %v", err), ErrorUsbTransfer)
	}

	reply := make([]byte, c.packetSize)

	bytesRead, err := usbRead(c.rxEndpoint, reply)
	if err != nil {
		return nil, NewProbeError(fmt.Sprintf("usb read failed: %v", err), ErrorUsbTransfer)
	}

	if bytesRead < 1 || reply[0] != request[0] {
		return nil, NewProbeError("reply does not match command", ErrorUsbTransfer)
	}

	return reply[:bytesRead], nil
}

// InfoString queries one of the DAP_Info string identifiers.
func (c *ProbeClient) InfoString(infoId uint8) (string, error) {
	reply, err := c.Command([]byte{dapCmdInfo, infoId})
	if err != nil {
		return "", err
	}

	if len(reply) < 2 {
		return "", NewProbeError("short dap info reply", ErrorUsbTransfer)
	}

	length := int(reply[1])
	if length == 0 || len(reply) < 2+length {
		return "", NewProbeError("malformed dap info reply", ErrorUsbTransfer)
	}

	// drop the trailing null
	return string(reply[2 : 2+length-1]), nil
}

// Capabilities queries the probe capability byte.
func (c *ProbeClient) Capabilities() (uint8, error) {
	reply, err := c.Command([]byte{dapCmdInfo, dapInfoCapabilities})
	if err != nil {
		return 0, err
	}

	if len(reply) < 3 || reply[1] != 1 {
		return 0, NewProbeError("malformed dap capability reply", ErrorUsbTransfer)
	}

	return reply[2], nil
}

// SetClock asks the probe for a new maximum SWD clock. A refusal by the
// probe is surfaced as ErrorClockRejected.
func (c *ProbeClient) SetClock(frequency uint32) error {
	request := make([]byte, 5)
	request[0] = dapCmdSwjClock
	uint32ToLittleEndian(request[1:], frequency)

	reply, err := c.Command(request)
	if err != nil {
		return err
	}

	return clockReplyToError(reply, frequency)
}

func clockReplyToError(reply []byte, frequency uint32) error {
	if len(reply) < 2 {
		return NewProbeError("short swj clock reply", ErrorUsbTransfer)
	}

	if reply[1] != dapOk {
		return NewProbeError(fmt.Sprintf("probe rejected clock of %d Hz", frequency), ErrorClockRejected)
	}

	return nil
}

// WinUsbDescriptor fetches the MS OS 2.0 descriptor set through the vendor
// control request, the same way Windows does during enumeration.
func (c *ProbeClient) WinUsbDescriptor() ([]byte, error) {
	buffer := make([]byte, winUsbDescriptorSize)

	bytesRead, err := c.usbDevice.Control(
		gousb.ControlIn|gousb.ControlVendor|gousb.ControlDevice,
		winUsbVendorCode, 0, winUsbDescriptorIndex, buffer)

	if err != nil {
		return nil, NewProbeError(fmt.Sprintf("vendor control request failed: %v", err), ErrorUsbTransfer)
	}

	return buffer[:bytesRead], nil
}
