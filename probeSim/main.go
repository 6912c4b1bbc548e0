// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/bbnote/goswdprobe"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var (
	exitProgram chan bool

	logger *logrus.Logger
)

type consoleReplies struct{}

func (r *consoleReplies) SendDap1Reply(data []byte) error {
	logger.Infof("dap v1 reply: %s", hex.EncodeToString(data))
	return nil
}

func (r *consoleReplies) SendDap2Reply(data []byte) error {
	logger.Infof("dap v2 reply: %s", hex.EncodeToString(data))
	return nil
}

type consoleLed struct{}

func (l *consoleLed) Toggle() {
	logger.Debug("led toggled")
}

type fixedVoltage struct{}

func (v *fixedVoltage) ReadMillivolts() uint32 {
	return 3300
}

func setUpSignalHandler() {
	signals := make(chan os.Signal, 1)
	exitProgram = make(chan bool, 1)

	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signals
		exitProgram <- true
	}()

}

func initLogger() {
	formatter := &prefixed.TextFormatter{
		DisableColors:   false,
		TimestampFormat: "15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	}

	logger = logrus.New()

	logger.SetFormatter(formatter)
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.DebugLevel)
}

func main() {
	flagClock := flag.Uint("Clock", 1000000, "Maximum SWD clock in Hz")
	flagValue := flag.Uint("Value", 0xDEADBEEF, "Value preloaded into DP register 0")

	flag.Parse()

	initLogger()
	setUpSignalHandler()

	goswdprobe.SetLogger(logger)

	logger.Info("Welcome to the goswdprobe loopback demo...")

	target := goswdprobe.NewSimulatedTarget()
	target.SetRegister(false, 0, uint32(*flagValue))

	swdio, swclk, nreset := target.Pins()
	ctx := goswdprobe.NewTransportContext(swdio, swclk, nreset, goswdprobe.DefaultCpuFrequency)

	housekeeping := goswdprobe.NewHousekeeping(&consoleLed{}, &fixedVoltage{})
	handler := goswdprobe.NewDapHandler(ctx, goswdprobe.NewProbeVersion(), housekeeping)
	dispatcher := goswdprobe.NewDispatcher(handler, &consoleReplies{}, housekeeping)

	go dispatcher.Run()

	clockRequest := make([]byte, 5)
	clockRequest[0] = 0x11
	clockRequest[1] = byte(*flagClock)
	clockRequest[2] = byte(*flagClock >> 8)
	clockRequest[3] = byte(*flagClock >> 16)
	clockRequest[4] = byte(*flagClock >> 24)

	reports := dispatcher.Reports()

	// connect, negotiate the clock, then read DP register 0 back from the
	// simulated target
	reports <- goswdprobe.Report{Kind: goswdprobe.ReportDap2, Data: []byte{0x02, 0x01}}
	reports <- goswdprobe.Report{Kind: goswdprobe.ReportDap2, Data: clockRequest}
	reports <- goswdprobe.Report{Kind: goswdprobe.ReportDap2, Data: []byte{0x05, 0x00, 0x01, 0x02}}

	<-exitProgram

	dispatcher.Stop()
	logger.Info("Shutting down loopback demo...")
}
