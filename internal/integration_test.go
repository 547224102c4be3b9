package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/pulse-sensor/internal/gpio"
	"github.com/sweeney/pulse-sensor/internal/irq"
	"github.com/sweeney/pulse-sensor/internal/logic"
	"github.com/sweeney/pulse-sensor/internal/mqtt"
	"github.com/sweeney/pulse-sensor/internal/pipeline"
	"github.com/sweeney/pulse-sensor/internal/reset"
	"github.com/sweeney/pulse-sensor/internal/serial"
	"github.com/sweeney/pulse-sensor/internal/timer"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// newRealPipeline wires the pipeline the way the daemon does, on real timers
// and a host port writing to memory.
func newRealPipeline(t *testing.T) (*pipeline.Pipeline, *gpio.FakeInput, *syncBuffer) {
	t.Helper()
	core := irq.NewCore()
	tty := &syncBuffer{}
	port := serial.NewHostPort(tty, core)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go port.Run(ctx)

	in := gpio.NewFakeInput()
	p, err := pipeline.New(pipeline.Hardware{
		Core:      core,
		Input:     in,
		Port:      port,
		Scheduler: timer.Real{},
	})
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	t.Cleanup(p.Stop)
	return p, in, tty
}

// pollReports polls like the main loop until n reports arrive or the
// deadline passes.
func pollReports(p *pipeline.Pipeline, n int, deadline time.Duration) []logic.Report {
	var reps []logic.Report
	end := time.Now().Add(deadline)
	for len(reps) < n && time.Now().Before(end) {
		if rep, ok := p.Poll(); ok {
			reps = append(reps, rep)
		}
		time.Sleep(time.Millisecond)
	}
	return reps
}

// TestIntegrationRealTimeCounting drives pulses in real time and checks that
// every one of them lands in exactly one window.
func TestIntegrationRealTimeCounting(t *testing.T) {
	if testing.Short() {
		t.Skip("real-time test")
	}
	p, in, tty := newRealPipeline(t)
	p.Start(reset.Unknown)

	const pulses = 20
	go func() {
		for i := 0; i < pulses; i++ {
			in.Fall()
			time.Sleep(20 * time.Millisecond)
			in.Rise()
			time.Sleep(20 * time.Millisecond)
		}
	}()

	reps := pollReports(p, 2, 3*time.Second)
	if len(reps) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reps))
	}
	if total := reps[0].Count + reps[1].Count; total != pulses {
		t.Errorf("expected %d pulses across both windows, got %d + %d", pulses, reps[0].Count, reps[1].Count)
	}
	if reps[0].Window != 1 || reps[1].Window != 2 {
		t.Errorf("expected windows 1 and 2, got %d and %d", reps[0].Window, reps[1].Window)
	}

	deadline := time.Now().Add(time.Second)
	for strings.Count(tty.String(), "Frequency: ") < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	out := tty.String()
	if !strings.HasPrefix(out, "Reset source: Unknown\r\n") {
		t.Errorf("expected reset line first, got %q", out)
	}
	if n := strings.Count(out, "Frequency: "); n != 2 {
		t.Errorf("expected 2 frequency lines, got %d in %q", n, out)
	}
}

// TestIntegrationSerialLinesParse checks that what goes out on the wire is
// what a reader of the wire recovers.
func TestIntegrationSerialLinesParse(t *testing.T) {
	if testing.Short() {
		t.Skip("real-time test")
	}
	p, _, tty := newRealPipeline(t)
	p.Start(reset.Watchdog)

	reps := pollReports(p, 1, 2*time.Second)
	if len(reps) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reps))
	}

	deadline := time.Now().Add(time.Second)
	for !strings.Contains(tty.String(), " Hz\r\n") && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	lines := strings.SplitAfter(tty.String(), "\r\n")
	cause, ok := reset.Parse(lines[0])
	if !ok || cause != reset.Watchdog {
		t.Errorf("expected Watchdog reset line, got %q", lines[0])
	}
	deci, ok := logic.ParseFrequency(lines[1])
	if !ok {
		t.Fatalf("expected frequency line, got %q", lines[1])
	}
	if deci != reps[0].DeciHertz {
		t.Errorf("wire says %d, report says %d", deci, reps[0].DeciHertz)
	}
}

// TestIntegrationReportToMQTTPayload follows a report from the pipeline to
// the MQTT payload.
func TestIntegrationReportToMQTTPayload(t *testing.T) {
	rep := logic.Report{Window: 3, Count: 50, DeciHertz: logic.DeciHertz(50, pipeline.Window)}
	pub := mqtt.NewFakePublisher()

	at := time.Date(2026, 1, 1, 12, 0, 3, 0, time.UTC)
	if err := pub.Publish(mqtt.Reading{Timestamp: at, Report: rep}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	var parsed mqtt.Payload
	if err := json.Unmarshal(pub.Payloads[0], &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Pulse.FrequencyHz != 50 {
		t.Errorf("expected 50 Hz, got %v", parsed.Pulse.FrequencyHz)
	}
	if parsed.Pulse.Count != 50 || parsed.Pulse.Window != 3 {
		t.Errorf("unexpected payload %+v", parsed.Pulse)
	}
	if parsed.Pulse.Timestamp != "2026-01-01T12:00:03Z" {
		t.Errorf("unexpected timestamp %s", parsed.Pulse.Timestamp)
	}
}
