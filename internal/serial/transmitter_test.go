package serial

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// drainWait fires the fake port whenever the transmitter is busy, standing in
// for the hardware while Submit waits.
type drainWait struct {
	port  *FakePort
	waits int
}

func (w *drainWait) WaitIdle(busy func() bool) {
	if busy() {
		w.waits++
	}
	for busy() {
		if !w.port.Fire() {
			panic("busy with interrupt masked")
		}
	}
}

func TestSubmitArmsInterrupt(t *testing.T) {
	port := NewFakePort()
	tx := NewTransmitter(port, nil)

	tx.Submit([]byte("hi"))

	if !tx.Busy() {
		t.Error("expected busy after submit")
	}
	if !port.Enabled() {
		t.Error("expected interrupt unmasked after submit")
	}
	if len(port.Bytes) != 0 {
		t.Errorf("expected nothing loaded before first firing, got %q", port.Bytes)
	}
}

func TestOneByteInFirings(t *testing.T) {
	for _, msg := range []string{"x", "hello", "Frequency: 12.3 Hz\r\n"} {
		port := NewFakePort()
		tx := NewTransmitter(port, nil)

		tx.Submit([]byte(msg))
		fires := port.Drain()

		if fires != len(msg) {
			t.Errorf("%q: expected %d firings, got %d", msg, len(msg), fires)
		}
		if port.Output() != msg {
			t.Errorf("expected %q, got %q", msg, port.Output())
		}
		if tx.Busy() {
			t.Errorf("%q: expected idle after last byte", msg)
		}
		if port.Enabled() {
			t.Errorf("%q: expected interrupt masked after last byte", msg)
		}
		if tx.Sent() != uint32(len(msg)) {
			t.Errorf("%q: expected Sent %d, got %d", msg, len(msg), tx.Sent())
		}
	}
}

func TestBusyUntilLastByte(t *testing.T) {
	port := NewFakePort()
	tx := NewTransmitter(port, nil)

	tx.Submit([]byte("abc"))
	port.Fire()
	port.Fire()
	if !tx.Busy() {
		t.Fatal("expected busy with one byte left")
	}
	port.Fire()
	if tx.Busy() {
		t.Fatal("expected idle")
	}
	if port.Fire() {
		t.Error("expected no firing once masked")
	}
}

func TestSecondSubmitWaitsForFirst(t *testing.T) {
	port := NewFakePort()
	wait := &drainWait{port: port}
	tx := NewTransmitter(port, wait)

	tx.Submit([]byte("first "))
	tx.Submit([]byte("second"))
	port.Drain()

	if port.Output() != "first second" {
		t.Errorf("expected bytes in submission order, got %q", port.Output())
	}
	if wait.waits != 1 {
		t.Errorf("expected second submit to wait once, got %d", wait.waits)
	}
}

func TestSubmitCopiesCallerBuffer(t *testing.T) {
	port := NewFakePort()
	tx := NewTransmitter(port, nil)

	line := []byte("abc")
	tx.Submit(line)
	copy(line, "xyz")
	port.Drain()

	if port.Output() != "abc" {
		t.Errorf("expected abc, got %q", port.Output())
	}
}

func TestZeroLengthSubmit(t *testing.T) {
	port := NewFakePort()
	wait := &drainWait{port: port}
	tx := NewTransmitter(port, wait)

	tx.Submit(nil)
	tx.Submit([]byte{})
	if tx.Busy() || port.Enabled() || port.Enables != 0 {
		t.Fatal("expected empty submit on idle transmitter to do nothing")
	}

	// Still a no-op while another submission is in flight: no wait.
	tx.Submit([]byte("ab"))
	tx.Submit(nil)
	if wait.waits != 0 {
		t.Errorf("expected empty submit not to wait, got %d waits", wait.waits)
	}
	if !tx.Busy() {
		t.Error("expected in-flight submission to remain busy")
	}
	port.Drain()
	if port.Output() != "ab" {
		t.Errorf("expected ab, got %q", port.Output())
	}
}

func TestLongSubmitIsChunked(t *testing.T) {
	port := NewFakePort()
	wait := &drainWait{port: port}
	tx := NewTransmitter(port, wait)

	msg := strings.Repeat("0123456789", 15)
	tx.Submit([]byte(msg))
	port.Drain()

	if port.Output() != msg {
		t.Errorf("expected %d bytes intact, got %q", len(msg), port.Output())
	}
	if want := (len(msg) + BufferSize - 1) / BufferSize; port.Enables != want {
		t.Errorf("expected %d submissions, got %d", want, port.Enables)
	}
}

func TestWriteImplementsWriter(t *testing.T) {
	port := NewFakePort()
	tx := NewTransmitter(port, &drainWait{port: port})

	n, err := tx.Write([]byte("ok\r\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Errorf("expected 4, got %d", n)
	}
	port.Drain()
	if port.Output() != "ok\r\n" {
		t.Errorf("expected ok, got %q", port.Output())
	}
}

func TestSpinWaitReturnsWhenIdle(t *testing.T) {
	var mu sync.Mutex
	polls := 0
	busy := func() bool {
		mu.Lock()
		defer mu.Unlock()
		polls++
		return polls < 5
	}

	SpinWait{}.WaitIdle(busy)

	if polls != 5 {
		t.Errorf("expected 5 polls, got %d", polls)
	}
}

// syncBuffer is a goroutine-safe bytes.Buffer.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	err error
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return 0, b.err
	}
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func startHostPort(t *testing.T, w *syncBuffer) (*HostPort, func()) {
	t.Helper()
	port := NewHostPort(w, &sync.Mutex{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- port.Run(ctx) }()
	return port, func() {
		cancel()
		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	}
}

func TestHostPortWritesSubmissions(t *testing.T) {
	var out syncBuffer
	port, stop := startHostPort(t, &out)
	defer stop()

	tx := NewTransmitter(port, nil)
	tx.Submit([]byte("Frequency: 1.0 Hz\r\n"))
	tx.Submit([]byte("Frequency: 2.0 Hz\r\n"))
	SpinWait{}.WaitIdle(tx.Busy)

	want := "Frequency: 1.0 Hz\r\nFrequency: 2.0 Hz\r\n"
	deadline := time.Now().Add(2 * time.Second)
	for out.String() != want && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if out.String() != want {
		t.Errorf("expected %q, got %q", want, out.String())
	}
	if port.Written() != uint64(len(want)) {
		t.Errorf("expected %d written, got %d", len(want), port.Written())
	}
}

func TestHostPortWriteErrorStillCompletes(t *testing.T) {
	out := syncBuffer{err: errors.New("unplugged")}
	port, stop := startHostPort(t, &out)
	defer stop()

	tx := NewTransmitter(port, nil)
	tx.Submit([]byte("lost"))
	SpinWait{}.WaitIdle(tx.Busy)

	if tx.Sent() != 4 {
		t.Errorf("expected 4 bytes loaded, got %d", tx.Sent())
	}
	if port.Written() != 0 {
		t.Errorf("expected nothing written, got %d", port.Written())
	}
}
