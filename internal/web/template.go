package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/smartplug/internal/status"
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
	"onOff": func(b bool) string {
		if b {
			return "ON"
		}
		return "OFF"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Smart Plug</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Smart Plug</h1>

<h2>Reading</h2>
<table>
<tr><th>Last average</th><td id="average">{{if .HaveAverage}}{{.LastAverage}}{{else}}-{{end}}</td></tr>
<tr><th>Windows sent</th><td>{{.WindowsSent}}</td></tr>
<tr><th>Windows dropped</th><td>{{.WindowsDrop}}</td></tr>
<tr><th>Sensor errors</th><td>{{.SensorErrors}}</td></tr>
</table>
{{if .Config.Control}}
<h2>Actuator</h2>
<table>
<tr><th>Permitted</th><td id="permitted" class="{{if .Permitted}}on{{else}}off{{end}}">{{onOff .Permitted}}</td></tr>
<tr><th>Output</th><td id="output" class="{{if .Actuator}}on{{else}}off{{end}}">{{onOff .Actuator}}</td></tr>
<tr><th>Commands</th><td>{{.Commands}}</td></tr>
</table>
{{end}}
<h2>Connectivity</h2>
<table>
<tr><th>Channel</th><td class="{{if .Connected}}connected{{else}}disconnected{{end}}">{{if .Connected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Transport</th><td>{{.Config.Transport}}</td></tr>
<tr><th>Endpoint</th><td>{{.Config.Endpoint}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Sample period</th><td>{{.Config.SamplePeriodMs}}ms</td></tr>
<tr><th>Window</th><td>{{.Config.Threshold}} ticks</td></tr>
<tr><th>Loop delay</th><td>{{.Config.LoopDelayMs}}ms</td></tr>
<tr><th>Watchdog</th><td>{{.Config.WatchdogMs}}ms ({{.WatchdogFeeds}} feeds)</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
