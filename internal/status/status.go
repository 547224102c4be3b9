// Package status provides a thread-safe status tracker for the pulse-sensor daemon.
// It is read by the HTTP handlers and the MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/pulse-sensor/internal/logic"
)

// Counters mirrors the pipeline counters. This is a local copy to avoid
// importing internal/pipeline from status.
type Counters struct {
	Windows      uint32
	Rejected     uint32
	EdgesDropped uint32
	BytesSent    uint32
}

// NetworkInfo is the host's network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	SettleMs    int64
	WindowMs    int64
	HeartbeatMs int64
	Baud        int
	Chip        string
	PulseLine   int
	LEDLine     int
	Device      string
	Broker      string
	HTTPPort    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type: safe to use after the lock is released.
type Snapshot struct {
	Last          logic.Report
	LastAt        time.Time
	Reports       uint64
	Counters      Counters
	ResetCause    string
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Ready reports whether at least one window has been reported.
func (s Snapshot) Ready() bool {
	return s.Reports > 0
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime:  startTime,
			ResetCause: "Unknown",
			Config:     cfg,
		},
	}
}

// Record stores the latest window report.
// Called from runLoop whenever the pipeline reports.
func (t *Tracker) Record(rep logic.Report, at time.Time) {
	t.mu.Lock()
	t.snap.Last = rep
	t.snap.LastAt = at
	t.snap.Reports++
	t.mu.Unlock()
}

// SetCounters replaces the pipeline counters.
func (t *Tracker) SetCounters(c Counters) {
	t.mu.Lock()
	t.snap.Counters = c
	t.mu.Unlock()
}

// SetResetCause sets the printed reset cause.
func (t *Tracker) SetResetCause(cause string) {
	t.mu.Lock()
	t.snap.ResetCause = cause
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info. nil means unknown.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
