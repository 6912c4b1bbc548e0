// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goswdprobe

// JtagEngine is a placeholder variant. The probe declares JTAG in its
// capability report but performs no JTAG transactions; the engine exists so
// the bus handoff works the same for both protocol variants.
type JtagEngine struct {
	ctx TransportContext
}

func NewJtagEngine(ctx TransportContext) *JtagEngine {
	return &JtagEngine{ctx: ctx}
}

func (j *JtagEngine) Available() bool {
	return false
}

func (j *JtagEngine) Release() TransportContext {
	return j.ctx
}

// Sequences consumes no bits and produces no response.
func (j *JtagEngine) Sequences(data []byte, rxBuffer []byte) uint32 {
	return 0
}

// SetClock still delegates to the shared timing state, so clock requests
// stay consistent regardless of which variant is selected later.
func (j *JtagEngine) SetClock(maxFrequency uint32) bool {
	return j.ctx.setClock(maxFrequency)
}
