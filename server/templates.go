package server

import (
	"html/template"
	"time"

	"github.com/deepnoodle-ai/statusview"
)

var funcMap = template.FuncMap{
	"fmtDur": func(d time.Duration) string {
		if d == 0 {
			return "-"
		}
		return d.Round(time.Second).String()
	},
	"stepName": func(n *statusview.Node) string {
		return n.Name()
	},
}

var pageTemplate = template.Must(template.New("page").Funcs(funcMap).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bulma@0.9.4/css/bulma.min.css">
</head>
<body>
<section class="section">
<div class="container">
  <h1 class="title">{{.Name}}</h1>
  <div class="tabs">
    <ul>
    {{- range .Tabs}}
      <li{{if .Active}} class="is-active"{{end}}><a href="{{.Href}}">{{.Label}}</a></li>
    {{- end}}
    </ul>
  </div>
  {{.Banner}}
  {{- if .Status}}
  <p class="mb-4">Status: <strong>{{.Status.Status}}</strong>{{if .Summary}} &middot; {{fmtDur .Summary.Duration}}{{end}}</p>
  {{- end}}
  {{- if .Diagram}}
  <div class="box">{{.Diagram}}</div>
  {{- end}}
  {{- if .Status}}
  <table class="table is-fullwidth is-striped">
    <thead><tr><th>Step</th><th>Started</th><th>Finished</th><th>Status</th></tr></thead>
    <tbody>
    {{- range .Status.Nodes}}
      <tr><td>{{stepName .}}</td><td>{{.StartedAt}}</td><td>{{.FinishedAt}}</td><td>{{.Status}}</td></tr>
    {{- end}}
    </tbody>
  </table>
  {{- end}}
</div>
</section>
</body>
</html>
`))

type tabLink struct {
	Label  string
	Href   string
	Active bool
}

type pageData struct {
	Title   string
	Name    string
	Group   string
	Tabs    []tabLink
	Banner  template.HTML
	Diagram template.HTML
	Status  *statusview.Status
	Summary *statusview.StatusSummary
}
