package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Ready         bool         `json:"ready"`
	ResetCause    string       `json:"reset_cause"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Last          *ReportJSON  `json:"last_report,omitempty"`
	Counters      CountersJSON `json:"counters"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ReportJSON is the JSON representation of the latest window report.
type ReportJSON struct {
	Timestamp   string  `json:"timestamp"`
	Window      uint32  `json:"window"`
	Count       uint32  `json:"count"`
	FrequencyHz float64 `json:"frequency_hz"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway,omitempty"`
	WifiStatus string `json:"wifi_status,omitempty"`
	SSID       string `json:"ssid,omitempty"`
}

// CountersJSON is the JSON representation of pipeline counters.
type CountersJSON struct {
	Reports      uint64 `json:"reports"`
	Windows      uint32 `json:"windows"`
	Rejected     uint32 `json:"rejected"`
	EdgesDropped uint32 `json:"edges_dropped"`
	BytesSent    uint32 `json:"bytes_sent"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	SettleMs    int64  `json:"settle_ms"`
	WindowMs    int64  `json:"window_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Baud        int    `json:"baud"`
	Chip        string `json:"chip"`
	PulseLine   int    `json:"pulse_line"`
	LEDLine     int    `json:"led_line"`
	Device      string `json:"device"`
	Broker      string `json:"broker"`
	HTTPPort    string `json:"http_port"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Ready:         snap.Ready(),
		ResetCause:    snap.ResetCause,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counters: CountersJSON{
			Reports:      snap.Reports,
			Windows:      snap.Counters.Windows,
			Rejected:     snap.Counters.Rejected,
			EdgesDropped: snap.Counters.EdgesDropped,
			BytesSent:    snap.Counters.BytesSent,
		},
		Config: ConfigJSON{
			SettleMs:    snap.Config.SettleMs,
			WindowMs:    snap.Config.WindowMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Baud:        snap.Config.Baud,
			Chip:        snap.Config.Chip,
			PulseLine:   snap.Config.PulseLine,
			LEDLine:     snap.Config.LEDLine,
			Device:      snap.Config.Device,
			Broker:      snap.Config.Broker,
			HTTPPort:    snap.Config.HTTPPort,
		},
	}

	if n := snap.Network; n != nil {
		inner.Network = &NetworkJSON{
			Type:       n.Type,
			IP:         n.IP,
			Status:     n.Status,
			Gateway:    n.Gateway,
			WifiStatus: n.WifiStatus,
			SSID:       n.SSID,
		}
	}

	if snap.Ready() {
		inner.Last = &ReportJSON{
			Timestamp:   snap.LastAt.UTC().Format(time.RFC3339),
			Window:      snap.Last.Window,
			Count:       snap.Last.Count,
			FrequencyHz: snap.Last.Hertz(),
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
