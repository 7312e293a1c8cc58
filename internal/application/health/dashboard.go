package health

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
)

var dependencyLabels = map[string]string{
	"database":  "Database",
	"redis":     "Redis",
	"documents": "Document Store",
}

type dashboardDep struct {
	Name   string
	Status string
	Ping   string
	OK     bool
}

type dashboardView struct {
	Healthy bool
	Result  CollectResult
	Uptime  string
	Deps    []dashboardDep
	Last    map[string]interface{}
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta http-equiv="refresh" content="15">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Procurement Portal · API Status</title>
<style>
body { font-family: system-ui, sans-serif; background: #f5f7fa; color: #0f2742; margin: 0; padding: 40px 16px; }
main { max-width: 760px; margin: 0 auto; }
h1 { margin: 0 0 4px; font-size: 28px; }
.state { font-weight: 700; color: {{if .Healthy}}#1d7a46{{else}}#c0262d{{end}}; }
section { background: #fff; border-radius: 12px; padding: 20px 24px; margin-top: 20px; box-shadow: 0 2px 10px rgba(15,39,66,.06); }
h2 { font-size: 12px; text-transform: uppercase; letter-spacing: 1.5px; color: #64748b; margin: 0 0 12px; }
table { width: 100%; border-collapse: collapse; font-size: 14px; }
td { padding: 6px 0; border-bottom: 1px solid #eef1f5; }
td:last-child { text-align: right; font-weight: 600; }
.ok { color: #1d7a46; } .err { color: #c0262d; }
footer { margin-top: 20px; font-size: 13px; color: #64748b; }
</style>
</head>
<body>
<main>
<h1>Procurement Portal</h1>
<div class="state">{{if .Healthy}}All systems operational{{else}}System issues detected{{end}}</div>
<section>
<h2>Dependencies</h2>
<table>
{{range .Deps}}<tr><td>{{.Name}}</td><td class="{{if .OK}}ok{{else}}err{{end}}">{{.Status}} · {{.Ping}}</td></tr>
{{end}}</table>
</section>
<section>
<h2>Traffic</h2>
<table>
<tr><td>Requests</td><td>{{.Result.Traffic.TotalRequests}}</td></tr>
<tr><td>Successful / failed</td><td>{{.Result.Traffic.SuccessCount}} / {{.Result.Traffic.FailedCount}}</td></tr>
<tr><td>Success rate</td><td>{{.Result.Traffic.SuccessRate}}%</td></tr>
<tr><td>Average latency</td><td>{{.Result.Traffic.AvgResponseTime}} ms</td></tr>
{{with .Last}}<tr><td>Last request</td><td>{{index . "method"}} {{index . "path"}}</td></tr>{{end}}
</table>
</section>
<section>
<h2>Runtime</h2>
<table>
<tr><td>Uptime</td><td>{{.Uptime}}</td></tr>
<tr><td>Heap used / allocated</td><td>{{.Result.Runtime.Memory.HeapUsed}} MB / {{.Result.Runtime.Memory.Alloc}} MB</td></tr>
<tr><td>Goroutines</td><td>{{.Result.Runtime.Goroutines}}</td></tr>
<tr><td>Platform</td><td>{{.Result.Runtime.Platform}} ({{.Result.Runtime.GoVersion}})</td></tr>
</table>
</section>
<footer>Refreshes every 15s · <a href="/health/json">/health/json</a> · <a href="/health/errors">/health/errors</a></footer>
</main>
</body>
</html>
`))

// RenderDashboardHTML returns the status page served at GET /.
func RenderDashboardHTML(health CollectResult) string {
	view := dashboardView{
		Healthy: health.Status == "ok",
		Result:  health,
		Uptime:  formatUptime(health.Runtime.UptimeSeconds),
	}
	if m, ok := health.Traffic.LastRequest.(map[string]interface{}); ok {
		view.Last = m
	}
	for key, dep := range health.Dependencies {
		name := dependencyLabels[key]
		if name == "" {
			name = key
		}
		ping := "n/a"
		if dep.PingMs != nil {
			ping = fmt.Sprint(dep.PingMs) + " ms"
		}
		view.Deps = append(view.Deps, dashboardDep{
			Name:   name,
			Status: dep.Status,
			Ping:   ping,
			OK:     dep.Status == "connected" || dep.Status == "reachable",
		})
	}
	sort.Slice(view.Deps, func(i, j int) bool { return view.Deps[i].Name < view.Deps[j].Name })

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, view); err != nil {
		return "<!DOCTYPE html><title>Procurement Portal</title><p>status page unavailable: " + template.HTMLEscapeString(err.Error()) + "</p>"
	}
	return buf.String()
}

func formatUptime(s int64) string {
	d, h, m := s/86400, (s%86400)/3600, (s%3600)/60
	if d > 0 {
		return fmt.Sprintf("%dd %dh %dm", d, h, m)
	}
	return fmt.Sprintf("%dh %dm %ds", h, m, s%60)
}
