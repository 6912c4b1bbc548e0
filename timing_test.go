package goswdprobe

import (
	"testing"
)

func TestNewTiming(t *testing.T) {
	tm := newTiming(125000000, 100000)

	if tm.cyclesPerUs != 125 {
		t.Errorf("cyclesPerUs = %d, want 125", tm.cyclesPerUs)
	}

	if tm.halfPeriodTicks != 625 {
		t.Errorf("halfPeriodTicks = %d, want 625", tm.halfPeriodTicks)
	}
}

func TestSetClock(t *testing.T) {
	tests := []struct {
		name         string
		cpuFrequency uint32
		request      uint32
		wantAccepted bool
		wantTicks    uint32
	}{
		{"well below cpu clock", 125000000, 100000, true, 625},
		{"1 MHz", 125000000, 1000000, true, 62},
		{"just below cpu clock", 125000000, 124999999, true, 0},
		{"equal to cpu clock", 125000000, 125000000, false, 0},
		{"above cpu clock", 125000000, 200000000, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := newTiming(tt.cpuFrequency, DefaultMaxFrequency)
			prevTicks := tm.halfPeriodTicks
			prevFrequency := tm.maxFrequency

			accepted := tm.setClock(tt.request)

			if accepted != tt.wantAccepted {
				t.Fatalf("setClock(%d) = %v, want %v", tt.request, accepted, tt.wantAccepted)
			}

			if accepted {
				if tm.halfPeriodTicks != tt.wantTicks {
					t.Errorf("halfPeriodTicks = %d, want %d", tm.halfPeriodTicks, tt.wantTicks)
				}
				if tm.maxFrequency != tt.request {
					t.Errorf("maxFrequency = %d, want %d", tm.maxFrequency, tt.request)
				}
			} else {
				// a rejected request leaves the previous timing alone
				if tm.halfPeriodTicks != prevTicks || tm.maxFrequency != prevFrequency {
					t.Errorf("rejected setClock changed state: ticks %d->%d, freq %d->%d",
						prevTicks, tm.halfPeriodTicks, prevFrequency, tm.maxFrequency)
				}
			}
		})
	}
}

func TestSetClockTruncatesTowardFaster(t *testing.T) {
	tm := newTiming(125000000, DefaultMaxFrequency)

	// 125 MHz / 3 MHz / 2 = 20.83, must truncate to 20 so the realized
	// clock lands slightly above the request
	if !tm.setClock(3000000) {
		t.Fatal("setClock(3 MHz) rejected")
	}

	if tm.halfPeriodTicks != 20 {
		t.Errorf("halfPeriodTicks = %d, want 20", tm.halfPeriodTicks)
	}
}

func TestEngineSetClockDelegates(t *testing.T) {
	engine, _ := newTestEngine()

	if engine.SetClock(testCpuFrequency) {
		t.Error("engine accepted a clock at the cpu frequency")
	}

	if !engine.SetClock(testCpuFrequency / 4) {
		t.Error("engine rejected a quarter of the cpu frequency")
	}
}

func TestJtagSetClockSharesTiming(t *testing.T) {
	target := NewSimulatedTarget()
	swdio, swclk, nreset := target.Pins()
	ctx := NewTransportContext(swdio, swclk, nreset, testCpuFrequency)

	jtag := NewJtagEngine(ctx)

	if jtag.Available() {
		t.Error("jtag stub reports available")
	}

	if got := jtag.Sequences(nil, nil); got != 0 {
		t.Errorf("jtag Sequences() = %d, want 0 bits consumed", got)
	}

	if !jtag.SetClock(testCpuFrequency / 2) {
		t.Error("jtag stub rejected a valid clock request")
	}

	ctx = jtag.Release()
	if ctx.timing.maxFrequency != testCpuFrequency/2 {
		t.Errorf("released context carries %d Hz, want the negotiated clock", ctx.timing.maxFrequency)
	}
}
