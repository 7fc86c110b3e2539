package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/taskcore/internal/status"
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
	"onOff": status.OnOff,
	"dec1": func(v *float64) string {
		if v == nil {
			return "--"
		}
		return fmt.Sprintf("%.1f", *v)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Taskcore</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.degraded { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Taskcore<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

<h2>State</h2>
<table>
<tr><th>Toggle LED</th><td class="{{if .State.Toggle}}on{{else}}off{{end}}">{{onOff .State.Toggle}}</td></tr>
<tr><th>Counter</th><td>{{printf "%04d" .State.Counter.Value}} ({{if .State.Counter.Running}}running{{else}}stopped{{end}})</td></tr>
<tr><th>Temperature</th><td id="temp">{{dec1 .Climate.Temperature}} &deg;C</td></tr>
<tr><th>Humidity</th><td id="hum">{{dec1 .Climate.Humidity}} %</td></tr>
<tr><th>Heat index</th><td id="hi">{{dec1 .Climate.HeatIndex}} &deg;C</td></tr>
<tr><th>Sensor</th><td class="{{if .State.ClimateDegraded}}degraded{{end}}">{{if .State.ClimateDegraded}}degraded{{else}}ok{{end}}</td></tr>
<tr><th>Servo</th><td>{{.State.Servo}}&deg;</td></tr>
<tr><th>Ready</th><td>{{if .Ready}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Control</h2>
<p>
<button onclick="get('/toggle?state=1')">Start counter</button>
<button onclick="get('/toggle?state=0')">Stop counter</button>
</p>
<p>
R <input id="r" type="number" min="0" max="255" value="0" size="3">
G <input id="g" type="number" min="0" max="255" value="0" size="3">
B <input id="b" type="number" min="0" max="255" value="0" size="3">
<button onclick="get('/rgb?r=' + val('r') + '&g=' + val('g') + '&b=' + val('b'))">Set colour</button>
</p>
<p>
Servo <input id="servo" type="range" min="0" max="180" value="{{.State.Servo}}" onchange="get('/servo?value=' + val('servo'))">
</p>
<p id="result"></p>

<h2>Tasks</h2>
<table>
<tr><th>Name</th><td>cycles / skipped / faults / errors / overruns</td></tr>
{{range .Tasks}}<tr><th>{{.Name}}</th><td>{{.Cycles}} / {{.Skipped}} / {{.Faults}} / {{.Errors}} / {{.Overruns}}</td></tr>
{{end}}</table>

<h2>Queues</h2>
<table>
{{range .Queues}}<tr><th>{{.Name}}</th><td>{{.Pending}}/{{.Capacity}} pending, {{.Submitted}} submitted, {{.Dropped}} dropped</td></tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
{{if .Config.MDNS}}<tr><th>mDNS</th><td>{{.Config.MDNS}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Boot</th><td>{{.BootID}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Counter period</th><td>{{.Config.CounterPeriodMs}}ms</td></tr>
<tr><th>Climate period</th><td>{{.Config.ClimatePeriodMs}}ms</td></tr>
<tr><th>Codec</th><td>{{.Config.Codec}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }
  function fmt(v) { return v === null ? "--" : v.toFixed(1); }
  window.val = function(id) { return document.getElementById(id).value; };
  window.get = function(url) {
    fetch(url).then(function(r) { return r.text(); }).then(function(t) {
      document.getElementById("result").textContent = t;
    });
  };

  var es = new EventSource("/events");
  es.onopen = function() { setDot("ok", "live"); };
  es.onerror = function() { setDot("err", "offline"); };
  es.addEventListener("sensor_data", function(e) {
    try {
      var d = JSON.parse(e.data);
      document.getElementById("temp").innerHTML = fmt(d.temperature) + " &deg;C";
      document.getElementById("hum").textContent = fmt(d.humidity) + " %";
      document.getElementById("hi").innerHTML = fmt(d.heatindex) + " &deg;C";
    } catch (err) {}
  });
})();
</script>
</body>
</html>
`

// pageData is the index template's input.
type pageData struct {
	status.Snapshot
	Uptime  time.Duration
	Climate status.ClimateJSON
}

func (s *Server) pageData() pageData {
	snap := s.h.Tracker.Snapshot()
	snap.State = s.state(snap.State)
	return pageData{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Climate:  status.NewClimateJSON(snap.State.Climate),
	}
}

func renderHTML(w io.Writer, data pageData) {
	indexTmpl.Execute(w, data)
}
