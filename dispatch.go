// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

// Dispatch loop feeding the protocol engine. On hardware this work is split
// between the USB interrupt handler and a periodic housekeeping task; both
// run on one priority tier and never preempt each other. Here the same
// contract holds by funnelling both through a single goroutine: one report
// or one housekeeping tick always runs to completion before the next starts.

package goswdprobe

import (
	"time"
)

// Report is one incoming USB transfer, already stripped of transport
// framing. Data is only valid for the duration of the dispatch call.
type Report struct {
	Kind ReportKind
	Data []byte
}

// ReplySender is the outgoing half of the USB layer. The dispatcher writes
// responses back on the channel matching the report flavour they answer.
// The data slice aliases the dispatcher's response buffer and is only valid
// for the duration of the call; a sender that queues it must copy first.
type ReplySender interface {
	SendDap1Reply(data []byte) error
	SendDap2Reply(data []byte) error
}

// CommandProcessor decodes and executes DAP command payloads. It returns
// the number of response bytes written into the caller supplied buffer;
// zero means no reply is sent.
type CommandProcessor interface {
	ProcessCommand(request []byte, response []byte, version DapVersion) int
	Suspend()
}

type Dispatcher struct {
	processor    CommandProcessor
	replies      ReplySender
	housekeeping *Housekeeping

	reports  chan Report
	done     chan struct{}
	interval time.Duration
	respBuf  []byte
}

func NewDispatcher(processor CommandProcessor, replies ReplySender, housekeeping *Housekeeping) *Dispatcher {
	return &Dispatcher{
		processor:    processor,
		replies:      replies,
		housekeeping: housekeeping,
		reports:      make(chan Report),
		done:         make(chan struct{}),
		interval:     DefaultHousekeepingMs * time.Millisecond,
		respBuf:      make([]byte, DefaultResponseSize),
	}
}

// Reports is the producer side handed to the USB layer.
func (d *Dispatcher) Reports() chan<- Report {
	return d.reports
}

// Run consumes reports and housekeeping ticks until Stop is called. It is
// the only goroutine that ever touches the protocol engine.
func (d *Dispatcher) Run() {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	logger.Info("dispatcher running")

	for {
		select {
		case report := <-d.reports:
			d.handleReport(report)

		case <-ticker.C:
			d.housekeeping.tick()

		case <-d.done:
			logger.Info("dispatcher stopped")
			return
		}
	}
}

func (d *Dispatcher) Stop() {
	close(d.done)
}

func (d *Dispatcher) handleReport(report Report) {
	switch report.Kind {
	case ReportDap1:
		length := d.processor.ProcessCommand(report.Data, d.respBuf, DapVersionV1)

		if length > 0 {
			if err := d.replies.SendDap1Reply(d.respBuf[:length]); err != nil {
				logger.Error("could not send dap v1 reply: ", err)
			}
		}

	case ReportDap2:
		length := d.processor.ProcessCommand(report.Data, d.respBuf, DapVersionV2)

		if length > 0 {
			if err := d.replies.SendDap2Reply(d.respBuf[:length]); err != nil {
				logger.Error("could not send dap v2 reply: ", err)
			}
		}

	case ReportSuspend:
		logger.Info("got usb suspend notification")
		d.processor.Suspend()

	default:
		logger.Warnf("dropping report of unknown kind %d", report.Kind)
	}
}
