package web

import (
	"html/template"
	"io"

	"github.com/rkorell/pyrod/internal/config"
	"github.com/rkorell/pyrod/internal/fire"
)

var consoleTmpl = template.Must(template.New("console").Parse(consoleHTML))

const consoleHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Firing Console</title>
<style>
body { font-family: monospace; max-width: 720px; margin: 2em auto; padding: 0 1em; background: #111; color: #ddd; }
h1 { font-size: 1.4em; }
h2 { font-size: 1.1em; margin-top: 1.5em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #333; }
button { font-family: monospace; padding: 6px 10px; margin: 2px; background: #222; color: #ddd; border: 1px solid #555; cursor: pointer; }
button.fired { background: #511; border-color: #a33; }
button.armed-on { background: #151; border-color: #3a3; }
button:disabled { opacity: 0.4; cursor: default; }
.ok { color: #4c4; font-weight: bold; }
.warn { color: orange; }
.err { color: #e55; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
#log { font-size: 0.85em; max-height: 10em; overflow-y: auto; border: 1px solid #333; padding: 4px 8px; }
</style>
</head>
<body>
<h1>Firing Console<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

<table>
<tr><th>Authorized</th><td id="auth-state" class="err">NO</td>
    <td><button id="auth-btn">Request authorization</button></td></tr>
<tr><th>Armed</th><td id="armed-state" class="err">NO</td>
    <td><button id="arm-btn">Arm</button></td></tr>
</table>

{{range .Groups}}
<h2>{{.Name}}</h2>
<div class="group" data-group="{{.ID}}">
{{$g := .ID}}{{range $ch := .Channels}}<button class="chan" data-group="{{$g}}" data-channel="{{$ch}}">{{$ch}}</button>{{end}}
</div>
{{end}}

{{if .Direct}}
<h2>Standalone igniters</h2>
<div id="direct"></div>
{{end}}

<h2>Log</h2>
<div id="log"></div>
<p><button id="reset-all-btn">Reset all</button></p>

<script>
(function() {
  var dot = document.getElementById("live-dot");
  var logEl = document.getElementById("log");
  var armed = false;

  function log(msg, cls) {
    var line = document.createElement("div");
    if (cls) line.className = cls;
    line.textContent = new Date().toLocaleTimeString() + "  " + msg;
    logEl.prepend(line);
  }

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function applyState(st) {
    var a = document.getElementById("auth-state");
    a.textContent = st.authorized ? "YES" : "NO";
    a.className = st.authorized ? "ok" : "err";
    var ar = document.getElementById("armed-state");
    armed = st.armed;
    ar.textContent = st.armed ? "YES" : "NO";
    ar.className = st.armed ? "ok" : "err";
    document.getElementById("arm-btn").textContent = st.armed ? "Disarm" : "Arm";
    document.querySelectorAll("button.chan").forEach(function(b) {
      var key = b.dataset.igniter ? "d" + b.dataset.igniter
                                  : b.dataset.group + "-" + b.dataset.channel;
      b.classList.toggle("fired", !!st.fired[key]);
    });
    if (st.igniters) renderDirect(st.igniters, st.fired);
  }

  function renderDirect(igniters, fired) {
    var box = document.getElementById("direct");
    if (!box) return;
    box.innerHTML = "";
    igniters.forEach(function(ig) {
      var b = document.createElement("button");
      b.className = "chan";
      b.dataset.igniter = ig.nr;
      b.textContent = ig.nr;
      b.disabled = !ig.available;
      b.classList.toggle("fired", !!fired["d" + ig.nr]);
      b.addEventListener("click", chanClick);
      box.appendChild(b);
    });
  }

  var ws;
  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() { setDot("err", "offline"); setTimeout(connect, 3000); };
    ws.onmessage = function(ev) {
      var msg = JSON.parse(ev.data);
      switch (msg.type) {
      case "state_update": applyState(msg.state); break;
      case "channel_fired": log("fired " + msg.target, "ok"); refresh(); break;
      case "channel_reset": log("reset " + msg.target); refresh(); break;
      case "armed_changed": log(msg.enabled ? "ARMED" : "disarmed", msg.enabled ? "ok" : ""); refresh(); break;
      case "auth_waiting": log("waiting for authorization code...", "warn"); break;
      case "auth_success": log("authorization granted", "ok"); break;
      case "auth_timeout": log("authorization timed out", "warn"); break;
      case "igniter_available_changed": refresh(); break;
      case "error": log(msg.message, "err"); break;
      }
    };
  }

  function refresh() {
    fetch("/api/state").then(function(r) { return r.json(); }).then(applyState);
  }

  function chanClick(ev) {
    var b = ev.target;
    var body = b.dataset.igniter ? { igniter: +b.dataset.igniter }
                                 : { group: +b.dataset.group, channel: +b.dataset.channel };
    if (b.classList.contains("fired")) {
      if (!confirm("Reset " + b.textContent + "?")) return;
      fetch("/api/reset", { method: "POST", body: JSON.stringify(body) });
      return;
    }
    fetch("/api/fire", { method: "POST", body: JSON.stringify(body) });
  }

  document.querySelectorAll("button.chan").forEach(function(b) {
    b.addEventListener("click", chanClick);
  });

  document.getElementById("auth-btn").addEventListener("click", function() {
    fetch("/api/auth", { method: "POST", body: "{}" });
  });

  document.getElementById("arm-btn").addEventListener("click", function() {
    fetch("/api/arm", { method: "POST", body: JSON.stringify({ enabled: !armed }) });
  });

  document.getElementById("reset-all-btn").addEventListener("click", function() {
    if (!confirm("Reset all channels?")) return;
    fetch("/api/reset_all", { method: "POST" });
  });

  refresh();
  connect();
})();
</script>
</body>
</html>
`

type consoleGroup struct {
	ID       int
	Name     string
	Channels []int
}

func renderConsole(w io.Writer, groups []config.Group, direct bool) {
	channels := make([]int, 0, fire.MaxChannel)
	for ch := fire.MinChannel; ch <= fire.MaxChannel; ch++ {
		channels = append(channels, ch)
	}
	data := struct {
		Groups []consoleGroup
		Direct bool
	}{Direct: direct}
	for _, g := range groups {
		data.Groups = append(data.Groups, consoleGroup{ID: g.ID, Name: g.Name, Channels: channels})
	}
	consoleTmpl.Execute(w, data)
}
