package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/pulse-sensor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"hertz": func(deci uint64) string {
		return fmt.Sprintf("%d.%d Hz", deci/10, deci%10)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Pulse Sensor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.freq { font-size: 1.6em; font-weight: bold; }
.waiting { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Pulse Sensor</h1>

<h2>Frequency</h2>
<table>
{{if .Ready}}<tr><th>Last window</th><td id="frequency" class="freq">{{hertz .Last.DeciHertz}}</td></tr>
<tr><th>Pulses</th><td>{{.Last.Count}}</td></tr>
<tr><th>Window</th><td>#{{.Last.Window}} at {{.LastAt.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
{{else}}<tr><th>Last window</th><td id="frequency" class="waiting">waiting for first window</td></tr>
{{end}}</table>

<h2>Counters</h2>
<table>
<tr><th>Reports</th><td>{{.Reports}}</td></tr>
<tr><th>Windows</th><td>{{.Counters.Windows}}</td></tr>
<tr><th>Rejected edges</th><td>{{.Counters.Rejected}}</td></tr>
<tr><th>Dropped edges</th><td>{{.Counters.EdgesDropped}}</td></tr>
<tr><th>Serial bytes</th><td>{{.Counters.BytesSent}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Serial</th><td>{{.Config.Device}} @ {{.Config.Baud}} 8N1</td></tr>
{{with .Network}}<tr><th>Network</th><td>{{.Status}} ({{.Type}}{{if .SSID}}, {{.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td id="ip">{{.IP}}</td></tr>
{{if .Gateway}}<tr><th>Gateway</th><td>{{.Gateway}}</td></tr>
{{end}}{{else}}<tr><th>Network</th><td>unknown</td></tr>
{{end}}</table>

<h2>System</h2>
<table>
<tr><th>Reset source</th><td>{{.ResetCause}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>GPIO</th><td>{{.Config.Chip}} pulse={{.Config.PulseLine}} led={{.Config.LEDLine}}</td></tr>
<tr><th>Settle</th><td>{{.Config.SettleMs}}ms</td></tr>
<tr><th>Window</th><td>{{.Config.WindowMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() and Ready() methods but the template reads fields.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Ready  bool
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Ready:    snap.Ready(),
	}
	return indexTmpl.Execute(w, data)
}
