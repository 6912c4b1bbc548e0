// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"flag"

	"github.com/bbnote/goswdprobe"
	"github.com/google/gousb"
	log "github.com/sirupsen/logrus"
)

func main() {
	log.Info("Welcome to the goswdprobe device query tool...")

	flagVid := flag.Uint("Vid", goswdprobe.ProbeAllVids, "USB vendor id of the probe")
	flagPid := flag.Uint("Pid", goswdprobe.ProbeAllPids, "USB product id of the probe")
	flagSerial := flag.String("Serial", "", "Serial number of the probe")
	flagSpeed := flag.Uint("Speed", 1000000, "Requested maximum SWD clock in Hz")

	flag.Parse()

	err := goswdprobe.InitializeUSB()
	if err != nil {
		log.Fatal(err)
	}
	defer goswdprobe.CloseUSB()

	config := goswdprobe.NewProbeClientConfig(gousb.ID(*flagVid), gousb.ID(*flagPid), *flagSerial)

	client, err := goswdprobe.NewProbeClient(config)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	for _, query := range []struct {
		name string
		id   uint8
	}{
		{"vendor", 0x01},
		{"product", 0x02},
		{"serial", 0x03},
		{"firmware", 0x04},
	} {
		value, err := client.InfoString(query.id)
		if err != nil {
			log.Warnf("could not query %s: %v", query.name, err)
			continue
		}

		log.Infof("probe %s: %s", query.name, value)
	}

	caps, err := client.Capabilities()
	if err != nil {
		log.Warn("could not query capabilities: ", err)
	} else {
		log.Infof("probe capabilities: 0x%02x", caps)
	}

	if err := client.SetClock(uint32(*flagSpeed)); err != nil {
		log.Warn("clock request failed: ", err)
	} else {
		log.Infof("clock request of %d Hz accepted", *flagSpeed)
	}

	descriptor, err := client.WinUsbDescriptor()
	if err != nil {
		log.Warn("could not fetch winusb descriptor: ", err)
	} else {
		log.Infof("ms os 2.0 descriptor set (%d bytes):\n%s", len(descriptor), hex.Dump(descriptor))
	}
}
