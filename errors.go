// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goswdprobe

import (
	"fmt"
)

type ProbeErrorCode int

const (
	ErrorOK              ProbeErrorCode = 0
	ErrorAckWait                        = -1
	ErrorAckFault                       = -2
	ErrorAckNoResponse                  = -3
	ErrorBadParity                      = -4
	ErrorUnsupportedCfg                 = -5
	ErrorClockRejected                  = -6
	ErrorUsbTransfer                    = -7
	ErrorCommandNotFound                = -8
)

type ProbeError struct {
	errorString    string
	ProbeErrorCode ProbeErrorCode
}

func (e *ProbeError) Error() string {
	return e.errorString
}

func NewProbeError(msg string, code ProbeErrorCode) error {
	return &ProbeError{msg, code}
}

// ErrorCode extracts the probe error code from err, or ErrorOK if err is nil
// or not a probe error.
func ErrorCode(err error) ProbeErrorCode {
	if err == nil {
		return ErrorOK
	}

	if probeErr, ok := err.(*ProbeError); ok {
		return probeErr.ProbeErrorCode
	}

	return ErrorCommandNotFound
}

/**
  Converts a 3-bit SWD acknowledgment code into a probe error,
  logging any non-OK code as debug output.
*/
func ackToError(ack uint8) error {
	switch ack {
	case SwdAckOk:
		return nil

	case SwdAckWait:
		logger.Debug("target answered with WAIT ack")
		return NewProbeError("SWD WAIT response", ErrorAckWait)

	case SwdAckFault:
		logger.Debug("target answered with FAULT ack")
		return NewProbeError("SWD FAULT response", ErrorAckFault)

	default:
		logger.Debugf("target did not drive a valid ack (0x%x)", ack)
		return NewProbeError(fmt.Sprintf("no response from target (ack 0x%x)", ack), ErrorAckNoResponse)
	}
}
