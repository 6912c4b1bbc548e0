// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goswdprobe

import "github.com/google/gousb"

func idExists(slice []gousb.ID, item gousb.ID) bool {
	for _, element := range slice {
		if element == item {
			return true
		}
	}

	return false
}

func leToUint16(buffer []byte) uint16 {
	return uint16(buffer[0]) | (uint16(buffer[1]) << 8)
}

func leToUint32(buffer []byte) uint32 {
	return uint32(buffer[0]) | uint32(buffer[1])<<8 | uint32(buffer[2])<<16 | uint32(buffer[3])<<24
}

func uint32ToLittleEndian(buffer []byte, value uint32) {
	buffer[3] = byte(value >> 24)
	buffer[2] = byte(value >> 16)
	buffer[1] = byte(value >> 8)
	buffer[0] = byte(value >> 0)
}

func uint16ToLittleEndian(buffer []byte, value uint16) {
	buffer[1] = byte(value >> 8)
	buffer[0] = byte(value >> 0)
}
