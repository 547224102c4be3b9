// Command pulse-sensor measures the frequency of a pulse train on a GPIO line,
// writes one line per window to a serial port and publishes readings to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/sweeney/pulse-sensor/internal/gpio"
	"github.com/sweeney/pulse-sensor/internal/irq"
	"github.com/sweeney/pulse-sensor/internal/logic"
	"github.com/sweeney/pulse-sensor/internal/mqtt"
	"github.com/sweeney/pulse-sensor/internal/pipeline"
	"github.com/sweeney/pulse-sensor/internal/reset"
	"github.com/sweeney/pulse-sensor/internal/serial"
	"github.com/sweeney/pulse-sensor/internal/status"
	"github.com/sweeney/pulse-sensor/internal/timer"
	"github.com/sweeney/pulse-sensor/internal/web"
)

// pollInterval is how often the main loop checks for a closed window.
const pollInterval = 10 * time.Millisecond

type options struct {
	chip       string
	pulseLine  int
	ledLine    int
	device     string
	broker     string
	httpAddr   string
	lockPath   string
	heartbeat  time.Duration
	printState bool
}

func main() {
	var o options
	flag.StringVar(&o.chip, "chip", gpio.DefaultChip, "GPIO chip")
	flag.IntVar(&o.pulseLine, "pulse-line", gpio.PinPulse, "BCM pin number for the pulse input")
	flag.IntVar(&o.ledLine, "led-line", gpio.PinLED, "BCM pin number for the status LED")
	flag.StringVar(&o.device, "device", "/dev/serial0", "Serial device for frequency lines")
	flag.StringVar(&o.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	flag.StringVar(&o.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.StringVar(&o.lockPath, "lock", "/run/pulse-sensor.lock", "Lock file guarding the GPIO lines")
	flag.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.BoolVar(&o.printState, "print-state", false, "Print current input level and exit")

	flag.Parse()

	if err := run(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(o options) error {
	lock, err := acquireLock(o.lockPath)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	// Initialize GPIO
	input, err := gpio.NewRealInput(o.chip, o.pulseLine)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer input.Close()

	// Print state mode
	if o.printState {
		fmt.Printf("Pulse input: %s\n", levelString(input.Asserted()))
		return nil
	}

	led, err := gpio.NewRealOutput(o.chip, o.ledLine)
	if err != nil {
		return fmt.Errorf("init led: %w", err)
	}
	defer led.Close()

	// Initialize serial
	tty, err := serial.Open(o.device)
	if err != nil {
		return fmt.Errorf("init serial: %w", err)
	}
	defer tty.Close()

	core := irq.NewCore()
	port := serial.NewHostPort(tty, core)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := port.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("serial port stopped: %v", err)
		}
	}()

	meter, err := pipeline.New(pipeline.Hardware{
		Core:      core,
		Input:     input,
		Port:      port,
		Scheduler: timer.Real{},
	})
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	cause := reset.Read()
	tracker := status.NewTracker(time.Now(), status.Config{
		SettleMs:    pipeline.SettleTime.Milliseconds(),
		WindowMs:    pipeline.Window.Milliseconds(),
		HeartbeatMs: o.heartbeat.Milliseconds(),
		Baud:        pipeline.BaudRate,
		Chip:        o.chip,
		PulseLine:   o.pulseLine,
		LEDLine:     o.ledLine,
		Device:      o.device,
		Broker:      o.broker,
		HTTPPort:    o.httpAddr,
	})
	tracker.SetResetCause(cause.String())
	tracker.SetNetwork(readNetworkInfo())

	// Initialize MQTT
	publisher := mqtt.NewRealPublisher(o.broker, tracker.SetMQTTConnected)
	defer publisher.Close()

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if o.httpAddr != "" {
		srv := web.New(o.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", o.httpAddr)
	}

	meter.Start(cause)
	log.Printf("started: pulse=%s/%d led=%d serial=%s broker=%s heartbeat=%v reset=%s",
		o.chip, o.pulseLine, o.ledLine, o.device, o.broker, o.heartbeat, cause)

	poll := time.NewTicker(pollInterval)
	defer poll.Stop()
	blink := time.NewTicker(pipeline.BlinkInterval)
	defer blink.Stop()

	// A nil channel never fires, which disables the heartbeat.
	var heartbeat <-chan time.Time
	if o.heartbeat > 0 {
		hb := time.NewTicker(o.heartbeat)
		defer hb.Stop()
		heartbeat = hb.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(meter, gpio.NewBlinker(led), publisher, publisher, tracker, time.Now, poll.C, blink.C, heartbeat, sigCh)
}

// meter is the part of the pipeline the main loop drives.
type meter interface {
	Poll() (logic.Report, bool)
	Stats() pipeline.Stats
	Stop()
}

func runLoop(m meter, blinker *gpio.Blinker, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, now func() time.Time, poll, blink, heartbeat <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			m.Stop()
			if err := blinker.Off(); err != nil {
				log.Printf("led error: %v", err)
			}

			reason := signalName(s)
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    reason,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				tracker.SetCounters(counters(m.Stats()))
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", reason)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-heartbeat:
			t := now()
			stats := m.Stats()
			log.Printf("heartbeat: windows=%d rejected=%d dropped=%d sent=%d",
				stats.Windows, stats.Rejected, stats.EdgesDropped, stats.Sent)

			hbEvent := mqtt.SystemEvent{
				Timestamp: t,
				Event:     "HEARTBEAT",
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				// Refresh network info for heartbeat
				if net := readNetworkInfo(); net != nil {
					tracker.SetNetwork(net)
				}
				tracker.SetCounters(counters(stats))
				snap := tracker.Snapshot()
				hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
			}
			if err := publisher.PublishSystem(hbEvent); err != nil {
				log.Printf("heartbeat publish error: %v", err)
			}

		case <-blink:
			if err := blinker.Toggle(); err != nil {
				log.Printf("led error: %v", err)
			}

		case <-poll:
			rep, ok := m.Poll()
			if !ok {
				continue
			}
			t := now()

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Record(rep, t)
				tracker.SetCounters(counters(m.Stats()))
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			if err := publisher.Publish(mqtt.Reading{Timestamp: t, Report: rep}); err != nil {
				log.Printf("publish error: %v", err)
				// Don't crash on publish failure
			}
		}
	}
}

func counters(s pipeline.Stats) status.Counters {
	return status.Counters{
		Windows:      s.Windows,
		Rejected:     s.Rejected,
		EdgesDropped: s.EdgesDropped,
		BytesSent:    s.Sent,
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

// readNetworkInfo returns nil when pi-helper has not reported a status.
func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

// acquireLock takes an exclusive lock on path so two daemons never share the
// GPIO lines and serial port.
func acquireLock(path string) (*flock.Flock, error) {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("lock %s: held by another instance", path)
	}
	return lock, nil
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

func levelString(asserted bool) string {
	if asserted {
		return "ASSERTED"
	}
	return "IDLE"
}
